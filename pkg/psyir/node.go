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
package psyir

import (
	"fmt"

	"github.com/psykal-project/psykal/pkg/kernel"
	"github.com/psykal-project/psykal/pkg/psyir/symbols"
)

// Kind identifies the variant of a tree node.  The set of kinds is closed:
// every pass over the tree dispatches on it exhaustively, so that adding a
// kind forces every pass to be revisited.
type Kind int

const (
	// KindSchedule is the top-level ordered sequence of one invocation.
	KindSchedule Kind = iota
	// KindLoop iterates over a class of mesh or grid entities.
	KindLoop
	// KindKernelCall invokes a kernel with an ordered argument list.
	KindKernelCall
	// KindReference refers to a declared symbol.
	KindReference
	// KindLiteral is a literal value appearing as an actual argument.
	KindLiteral
	// KindReduction combines per-partition partial results into one scalar.
	KindReduction
	// KindDirective annotates a loop for parallel execution.
	KindDirective
	// KindHaloExchange refreshes the halo of a field to a given depth.
	KindHaloExchange
)

func (k Kind) String() string {
	switch k {
	case KindSchedule:
		return "Schedule"
	case KindLoop:
		return "Loop"
	case KindKernelCall:
		return "KernelCall"
	case KindReference:
		return "Reference"
	case KindLiteral:
		return "Literal"
	case KindReduction:
		return "Reduction"
	case KindDirective:
		return "Directive"
	case KindHaloExchange:
		return "HaloExchange"
	}
	//
	return "?"
}

// ============================================================================
// Payloads
// ============================================================================

// Schedule is the payload of the root node: the generated routine for one
// invocation.  The schedule owns the symbol table scoping every reference
// beneath it.
type Schedule struct {
	// Name of the invocation this schedule was built from.
	Name string
	// Symbol table scoping all references in this schedule.
	Table *symbols.SymbolTable
}

// LoopEntity classifies what a loop iterates over.
type LoopEntity int

const (
	// CellLoop iterates over mesh cells.
	CellLoop LoopEntity = iota
	// DofLoop iterates over degrees of freedom.
	DofLoop
	// OuterLoop iterates over the outer (y) dimension of a structured grid.
	OuterLoop
	// InnerLoop iterates over the inner (x) dimension of a structured grid.
	InnerLoop
)

func (e LoopEntity) String() string {
	switch e {
	case CellLoop:
		return "cell"
	case DofLoop:
		return "dof"
	case OuterLoop:
		return "j"
	case InnerLoop:
		return "i"
	}
	//
	return "?"
}

// BoundKind identifies how a loop bound is anchored.
type BoundKind int

const (
	// BoundFirst anchors at the first local entity.
	BoundFirst BoundKind = iota
	// BoundLastOwned anchors at the last owned entity.
	BoundLastOwned
	// BoundLastHalo anchors at the last entity of a given halo depth.
	BoundLastHalo
	// BoundLastAll anchors past the entire locally-cached domain, halo
	// included to its full depth.
	BoundLastAll
)

// Bound is one end of a loop's iteration range.  Bounds are symbolic: the
// backend resolves them against the runtime mesh object.
type Bound struct {
	// Anchoring of this bound.
	Kind BoundKind
	// Halo depth, meaningful only for BoundLastHalo.
	Depth uint
}

// Equal determines whether two bounds are identical.
func (b Bound) Equal(o Bound) bool {
	return b.Kind == o.Kind && b.Depth == o.Depth
}

func (b Bound) String() string {
	switch b.Kind {
	case BoundFirst:
		return "first"
	case BoundLastOwned:
		return "last_owned"
	case BoundLastHalo:
		return fmt.Sprintf("halo(%d)", b.Depth)
	case BoundLastAll:
		return "all"
	}
	//
	return "?"
}

// Loop is the payload of a loop node.  Its children are the kernel calls (or,
// for structured grids, the inner loop) executed per iteration.
type Loop struct {
	// Loop variable.
	Variable *symbols.Symbol
	// Entity class iterated over.
	Entity LoopEntity
	// Lower bound.
	Start Bound
	// Upper bound.
	Stop Bound
	// Iteration-space class of the kernel(s) within, used when checking
	// fusion compatibility.
	Space kernel.IterationSpace
}

// KernelCall is the payload of a call node.  The metadata entry is shared,
// read-only, with every other call to the same kernel type; the children are
// the actual arguments, in declared order.
type KernelCall struct {
	// Metadata of the called kernel.
	Kernel *kernel.Metadata
	// Indicates the kernel implementation has been brought into the
	// generated module (see the inline transformation), under this name.
	InlinedRoutine string
}

// Inlined indicates whether this call's implementation has been inlined into
// the generated module.
func (p *KernelCall) Inlined() bool {
	return p.InlinedRoutine != ""
}

// Reference is the payload of a node referring to a declared symbol.
type Reference struct {
	// Referenced symbol.  Must resolve within the scope chain of the
	// enclosing schedule.
	Symbol *symbols.Symbol
}

// Literal is the payload of a literal actual argument.
type Literal struct {
	// Textual value, exactly as written.
	Value string
	// Intrinsic type of the value.
	Type symbols.DataType
}

// ReductionOp identifies the combining operator of a reduction.
type ReductionOp int

const (
	// SumOp combines partial results by addition.
	SumOp ReductionOp = iota
)

func (o ReductionOp) String() string {
	if o == SumOp {
		return "sum"
	}
	//
	return "?"
}

// Reduction is the payload of a reduction node, combining the per-partition
// (and, under threading, per-thread) partial results of a sum-access argument
// into its final scalar value.
type Reduction struct {
	// Combining operator.
	Operator ReductionOp
	// Scalar being reduced into.
	Variable *symbols.Symbol
	// Number of partial-sum slots required by the computation itself.
	BaseSize uint
	// Extra padding slots forcing a deterministic summation order.  Zero
	// unless reproducible reductions are configured.
	Pad uint
	// Indicates a cross-rank combination (false on shared memory only).
	Global bool
}

// WorkingArraySize returns the allocated size of the reduction's working
// array.
func (p *Reduction) WorkingArraySize() uint {
	return p.BaseSize + p.Pad
}

// DirectiveKind identifies the flavour of parallelization annotation.
type DirectiveKind int

const (
	// ParallelDoDirective marks the enclosed loop for work-shared parallel
	// execution.
	ParallelDoDirective DirectiveKind = iota
)

func (k DirectiveKind) String() string {
	if k == ParallelDoDirective {
		return "parallel_do"
	}
	//
	return "?"
}

// Directive is the payload of a parallelization annotation wrapping a loop.
type Directive struct {
	// Flavour of this directive.
	Kind DirectiveKind
	// Indicates enclosed reductions use the reproducible strategy.
	Reproducible bool
}

// HaloExchange is the payload of a halo-exchange node: a compile-time
// placeholder for the runtime call which refreshes a field's halo.
type HaloExchange struct {
	// Field whose halo is refreshed.
	Field *symbols.Symbol
	// Depth to which the halo is refreshed.
	Depth uint
}
