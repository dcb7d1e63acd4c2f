// Copyright Consensys Software Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0
package transform

import (
	"github.com/psykal-project/psykal/pkg/analysis"
	"github.com/psykal-project/psykal/pkg/config"
	"github.com/psykal-project/psykal/pkg/psyir"
)

// RedundantComputation extends a loop's iteration into the halo to a given
// depth.  The loop then recomputes halo entities locally, which can remove
// halo exchanges downstream (a field written redundantly to depth d is clean
// to that depth).  Since this changes the halo-cleanliness facts of the whole
// schedule, the synchronization nodes are recomputed afterwards.
type RedundantComputation struct {
	cfg      *config.Config
	analyzer *analysis.Analyzer
	// Halo depth to compute redundantly into.
	depth uint
}

// NewRedundantComputation constructs the redundant-computation pass for a
// given depth.
func NewRedundantComputation(cfg *config.Config, depth uint) *RedundantComputation {
	return &RedundantComputation{cfg, analysis.NewAnalyzer(cfg), depth}
}

// Name returns the name this pass is selected by in pipeline scripts.
func (p *RedundantComputation) Name() string {
	return "redundant"
}

// Validate checks the precondition: redundant computation requires
// distributed memory, a positive depth, and an unwrapped top-level loop whose
// iteration does not already reach the requested depth.
func (p *RedundantComputation) Validate(tree *psyir.Tree, target psyir.NodeId) error {
	if !p.cfg.DistributedMemory {
		return violation(p.Name(), "requires distributed memory")
	}
	//
	if p.depth == 0 {
		return violation(p.Name(), "halo depth must be positive")
	}
	//
	if tree.Kind(target) != psyir.KindLoop {
		return violation(p.Name(), "target is not a loop")
	}
	//
	if parent := tree.Parent(target); parent == psyir.NilId || tree.Kind(parent) != psyir.KindSchedule {
		return violation(p.Name(), "loop is not a top-level loop (parallelize after, not before)")
	}
	//
	switch stop := tree.Loop(target).Stop; stop.Kind {
	case psyir.BoundLastAll:
		return violation(p.Name(), "loop already iterates the whole domain")
	case psyir.BoundLastHalo:
		if stop.Depth >= p.depth {
			return violation(p.Name(), "loop already computes redundantly to depth %d", stop.Depth)
		}
	}
	//
	return nil
}

// Apply extends the loop (and any nested loop) into the halo and recomputes
// the schedule's synchronization nodes, after re-checking the precondition.
func (p *RedundantComputation) Apply(tree *psyir.Tree, target psyir.NodeId) error {
	if err := p.Validate(tree, target); err != nil {
		return err
	}
	//
	for _, loop := range tree.Loops(target) {
		tree.Loop(loop).Stop = psyir.Bound{Kind: psyir.BoundLastHalo, Depth: p.depth}
	}
	// The halo-cleanliness facts have changed; re-derive the exchanges.
	p.analyzer.Rerun(tree)
	//
	return nil
}
