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

// Package transform provides the rewrite passes which restructure a built
// schedule: loop parallelization, loop fusion, kernel inlining and redundant
// computation.  Every pass separates an explicit precondition check from its
// rewrite, and only ever mutates the tree once the check has passed, so a
// failed transformation always leaves the tree in its pre-transformation
// state.  Passes consult nothing outside the schedule (and configuration)
// they are given.
package transform

import (
	"sort"

	"golang.org/x/exp/maps"

	"github.com/psykal-project/psykal/pkg/analysis"
	"github.com/psykal-project/psykal/pkg/config"
	"github.com/psykal-project/psykal/pkg/psyir"
)

// ParallelizeLoop wraps a top-level loop in a parallel-do directive, provided
// concurrent iteration cannot disturb the loop's own data dependences.
type ParallelizeLoop struct {
	cfg *config.Config
}

// NewParallelizeLoop constructs the parallelization pass for a given
// configuration.
func NewParallelizeLoop(cfg *config.Config) *ParallelizeLoop {
	return &ParallelizeLoop{cfg}
}

// Name returns the name this pass is selected by in pipeline scripts.
func (p *ParallelizeLoop) Name() string {
	return "parallelize"
}

// Validate checks the precondition: the target must be an unwrapped loop
// whose body neither reads a field through a stencil whilst also writing it,
// nor contains a reduction lacking a synchronization strategy.  Applying the
// pass to an already-parallel loop fails here too, so re-application can
// never silently double-wrap.
func (p *ParallelizeLoop) Validate(tree *psyir.Tree, target psyir.NodeId) error {
	if tree.Kind(target) != psyir.KindLoop {
		return violation(p.Name(), "target is not a loop")
	}
	//
	if parent := tree.Parent(target); parent == psyir.NilId || tree.Kind(parent) != psyir.KindSchedule {
		return violation(p.Name(), "loop is already parallel (or not a top-level loop)")
	}
	// A field both read through a stencil and written within one parallel
	// iteration space races between neighbouring iterations.
	writes := analysis.FieldWrites(tree, target)
	reads := analysis.StencilReads(tree, target)
	//
	fields := maps.Keys(reads)
	sort.Slice(fields, func(i, j int) bool { return fields[i].Name() < fields[j].Name() })
	//
	for _, field := range fields {
		if writes[field] {
			return violation(p.Name(),
				"field %s is read through a stencil and written within the loop", field.Name())
		}
	}
	// A reduction's accumulation order is disturbed by concurrent iteration
	// unless the reproducible strategy fixes it.
	if len(analysis.Reductions(tree, target)) > 0 && !p.cfg.ReproducibleReductions {
		return violation(p.Name(), "loop contains a reduction and no synchronization strategy is configured")
	}
	//
	return nil
}

// Apply wraps the loop in a parallel-do directive, after re-checking the
// precondition.
func (p *ParallelizeLoop) Apply(tree *psyir.Tree, target psyir.NodeId) error {
	if err := p.Validate(tree, target); err != nil {
		return err
	}
	//
	directive := psyir.Directive{Kind: psyir.ParallelDoDirective}
	// Reductions in the loop rely on the reproducible strategy (validated
	// above), which the directive must carry through to code generation.
	if len(analysis.Reductions(tree, target)) > 0 {
		directive.Reproducible = true
	}
	//
	tree.WrapInDirective(target, directive)
	//
	return nil
}
