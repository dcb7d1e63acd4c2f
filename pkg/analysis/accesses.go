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
package analysis

import (
	"github.com/psykal-project/psykal/pkg/kernel"
	"github.com/psykal-project/psykal/pkg/psyir"
	"github.com/psykal-project/psykal/pkg/psyir/symbols"
)

// Access pairs one actual argument of a kernel call with the descriptor the
// kernel metadata declares for that position.  This is the unit the
// dependence rules operate on.
type Access struct {
	// Symbol of the actual argument (nil for a literal actual).
	Symbol *symbols.Symbol
	// Declared descriptor for this argument position.
	Arg kernel.Arg
}

// RequiredHaloDepth determines the clean-halo depth this access requires
// before it executes: the stencil extent where a stencil is declared, zero
// otherwise.
func (p Access) RequiredHaloDepth() uint {
	if p.Arg.Stencil.HasValue() {
		return p.Arg.Stencil.Unwrap().Extent
	}
	//
	return 0
}

// CallAccesses pairs every actual argument of a given kernel call with its
// declared descriptor.  The schedule builder guarantees arity agreement, so a
// mismatch here indicates tree corruption and panics.
func CallAccesses(tree *psyir.Tree, call psyir.NodeId) []Access {
	var (
		md       = tree.KernelCall(call).Kernel
		actuals  = tree.Children(call)
		accesses = make([]Access, len(actuals))
	)
	//
	if len(actuals) != md.Arity() {
		panic("kernel call arity disagrees with its metadata")
	}
	//
	for i, actual := range actuals {
		accesses[i].Arg = md.Args()[i]
		//
		if tree.Kind(actual) == psyir.KindReference {
			accesses[i].Symbol = tree.Reference(actual).Symbol
		}
	}
	//
	return accesses
}

// Accesses pairs actual arguments with declared descriptors for every kernel
// call in the subtree rooted at a given node, in invocation order.
func Accesses(tree *psyir.Tree, root psyir.NodeId) []Access {
	var accesses []Access
	//
	for _, call := range tree.KernelCalls(root) {
		accesses = append(accesses, CallAccesses(tree, call)...)
	}
	//
	return accesses
}

// FieldWrites returns the set of fields written (in the dirtying-lattice
// sense) anywhere within the subtree rooted at a given node.
func FieldWrites(tree *psyir.Tree, root psyir.NodeId) map[*symbols.Symbol]bool {
	writes := make(map[*symbols.Symbol]bool)
	//
	for _, access := range Accesses(tree, root) {
		if access.Arg.Role == kernel.FieldArg && access.Arg.Access.Writes() {
			writes[access.Symbol] = true
		}
	}
	//
	return writes
}

// StencilReads returns, for each field read through a stencil within the
// subtree rooted at a given node, the maximum extent it is read with.
func StencilReads(tree *psyir.Tree, root psyir.NodeId) map[*symbols.Symbol]uint {
	reads := make(map[*symbols.Symbol]uint)
	//
	for _, access := range Accesses(tree, root) {
		if access.Arg.Role == kernel.FieldArg && access.Arg.Stencil.HasValue() {
			if extent := access.RequiredHaloDepth(); extent > reads[access.Symbol] {
				reads[access.Symbol] = extent
			}
		}
	}
	//
	return reads
}

// Reductions returns the reduction accesses within the subtree rooted at a
// given node.
func Reductions(tree *psyir.Tree, root psyir.NodeId) []Access {
	var reductions []Access
	//
	for _, access := range Accesses(tree, root) {
		if access.Arg.Access.IsReduction() {
			reductions = append(reductions, access)
		}
	}
	//
	return reductions
}
