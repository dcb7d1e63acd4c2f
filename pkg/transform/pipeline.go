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
	"fmt"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/psykal-project/psykal/pkg/config"
	"github.com/psykal-project/psykal/pkg/psyir"
)

// Pipeline applies a scripted sequence of named passes to a schedule.  Each
// pass runs to completion before the next begins, in exactly the order
// given.  A precondition failure leaves the tree in its pre-transformation
// state and is reported; remaining passes still proceed unless the pipeline
// is strict.
type Pipeline struct {
	cfg *config.Config
	// Strict pipelines stop at the first failing pass.
	strict bool
}

// NewPipeline constructs a pipeline for a given configuration.
func NewPipeline(cfg *config.Config, strict bool) *Pipeline {
	return &Pipeline{cfg, strict}
}

// Apply runs each named pass in order over a given schedule.  Pass names are
// "parallelize", "fuse", "inline" and "redundant[:depth]".
func (p *Pipeline) Apply(tree *psyir.Tree, passes []string) []error {
	var errs []error
	//
	for _, pass := range passes {
		name, arg, _ := strings.Cut(pass, ":")
		//
		var perrs []error
		//
		switch name {
		case "parallelize":
			perrs = p.parallelizeAll(tree)
		case "fuse":
			p.fuseAll(tree)
		case "inline":
			perrs = p.inlineAll(tree)
		case "redundant":
			perrs = p.redundantAll(tree, arg)
		default:
			perrs = []error{fmt.Errorf("unknown transformation %q", name)}
		}
		//
		errs = append(errs, perrs...)
		//
		if p.strict && len(errs) > 0 {
			return errs
		}
	}
	//
	return errs
}

// Parallelize every top-level loop of the schedule.
func (p *Pipeline) parallelizeAll(tree *psyir.Tree) []error {
	var (
		errs  []error
		trans = NewParallelizeLoop(p.cfg)
	)
	//
	for _, loop := range topLevelLoops(tree) {
		if err := trans.Apply(tree, loop); err != nil {
			errs = append(errs, err)
		}
	}
	//
	return errs
}

// Fuse every adjacent pair of fusable top-level loops.  Pairs failing the
// precondition are simply not fusable and skipped.
func (p *Pipeline) fuseAll(tree *psyir.Tree) {
	trans := NewFuseLoops()
	//
	for again := true; again; {
		again = false
		//
		loops := topLevelLoops(tree)
		//
		for i := 0; i+1 < len(loops); i++ {
			if err := trans.Validate(tree, loops[i], loops[i+1]); err != nil {
				log.Debugf("not fusing: %v", err)
				continue
			}
			//
			if err := trans.Apply(tree, loops[i], loops[i+1]); err != nil {
				// Validated a moment ago, so cannot fail.
				panic(err)
			}
			// Rescan: the fused loop may fuse with its new neighbour.
			again = true
			//
			break
		}
	}
}

// Inline every kernel call of the schedule.
func (p *Pipeline) inlineAll(tree *psyir.Tree) []error {
	var (
		errs  []error
		trans = NewInlineKernel()
	)
	//
	for _, call := range tree.KernelCalls(tree.Root()) {
		if err := trans.Apply(tree, call); err != nil {
			errs = append(errs, err)
		}
	}
	//
	return errs
}

// Extend every top-level loop into the halo to the given depth.
func (p *Pipeline) redundantAll(tree *psyir.Tree, arg string) []error {
	depth := uint(1)
	//
	if arg != "" {
		n, err := strconv.ParseUint(arg, 10, 32)
		if err != nil || n == 0 {
			return []error{fmt.Errorf("malformed redundant-computation depth %q", arg)}
		}
		//
		depth = uint(n)
	}
	//
	var (
		errs  []error
		trans = NewRedundantComputation(p.cfg, depth)
	)
	//
	for _, loop := range topLevelLoops(tree) {
		if err := trans.Apply(tree, loop); err != nil {
			errs = append(errs, err)
		}
	}
	//
	return errs
}

// The top-level loops of a schedule, in order (excluding any already wrapped
// in a directive).
func topLevelLoops(tree *psyir.Tree) []psyir.NodeId {
	var loops []psyir.NodeId
	//
	for _, child := range tree.Children(tree.Root()) {
		if tree.Kind(child) == psyir.KindLoop {
			loops = append(loops, child)
		}
	}
	//
	return loops
}
