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
	"github.com/psykal-project/psykal/pkg/psyir"
)

// FuseLoops merges two adjacent loops with identical bounds and
// iteration-space class into one, concatenating their kernel-call bodies in
// order.
type FuseLoops struct{}

// NewFuseLoops constructs the fusion pass.
func NewFuseLoops() *FuseLoops {
	return &FuseLoops{}
}

// Name returns the name this pass is selected by in pipeline scripts.
func (p *FuseLoops) Name() string {
	return "fuse"
}

// Validate checks the precondition: both targets are loops over the same
// entity class, immediately adjacent under the same schedule, with identical
// bounds and iteration-space class; and no field written by the first is read
// through a stencil by the second (nothing between them can have re-cleaned
// its halo, since adjacency excludes an intervening exchange).
func (p *FuseLoops) Validate(tree *psyir.Tree, first psyir.NodeId, second psyir.NodeId) error {
	if tree.Kind(first) != psyir.KindLoop || tree.Kind(second) != psyir.KindLoop {
		return &IncompatibleLoopBoundsError{"both targets must be loops"}
	}
	//
	parent := tree.Parent(first)
	//
	if parent == psyir.NilId || tree.Kind(parent) != psyir.KindSchedule {
		return &IncompatibleLoopBoundsError{"first loop is not a top-level loop"}
	} else if tree.Parent(second) != parent {
		return &IncompatibleLoopBoundsError{"loops do not share a schedule"}
	} else if tree.Position(second) != tree.Position(first)+1 {
		return &IncompatibleLoopBoundsError{"loops are not adjacent"}
	}
	//
	a, b := tree.Loop(first), tree.Loop(second)
	//
	if a.Entity != b.Entity {
		return &IncompatibleLoopBoundsError{"loops iterate different entity classes"}
	} else if !a.Start.Equal(b.Start) || !a.Stop.Equal(b.Stop) {
		return &IncompatibleLoopBoundsError{"loop bounds differ"}
	} else if !a.Space.Equal(b.Space) {
		return &IncompatibleLoopBoundsError{"iteration-space classes differ"}
	}
	// Fusing would move the second loop's stencil reads into the iteration
	// which produces the first loop's writes.
	writes := analysis.FieldWrites(tree, first)
	//
	for field := range analysis.StencilReads(tree, second) {
		if writes[field] {
			return violation(p.Name(),
				"field %s is written by the first loop and stencil-read by the second", field.Name())
		}
	}
	//
	return nil
}

// Apply merges the second loop into the first, after re-checking the
// precondition.
func (p *FuseLoops) Apply(tree *psyir.Tree, first psyir.NodeId, second psyir.NodeId) error {
	if err := p.Validate(tree, first, second); err != nil {
		return err
	}
	//
	tree.MoveChildren(second, first)
	tree.Detach(second)
	//
	return nil
}
