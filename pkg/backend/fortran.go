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
package backend

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/psykal-project/psykal/pkg/psyir"
	"github.com/psykal-project/psykal/pkg/psyir/symbols"
)

// FortranWriter renders schedules as Fortran source.  It exists for the CLI
// and for golden tests; a production build system would substitute its own
// Generator.
type FortranWriter struct{}

// NOTE: This is used for compile time type checking if the given type
// satisfies the given interface.
var _ Generator = (*FortranWriter)(nil)

// NewFortranWriter constructs a Fortran renderer.
func NewFortranWriter() *FortranWriter {
	return &FortranWriter{}
}

// Generate the Fortran source for one schedule, checking first that the tree
// is internally consistent.
func (p *FortranWriter) Generate(tree *psyir.Tree) (string, error) {
	if errs := tree.Validate(); len(errs) > 0 {
		return "", errors.Wrap(errs[0], "inconsistent schedule")
	}
	//
	var (
		w        writer
		schedule = tree.Schedule(tree.Root())
	)
	//
	w.linef("subroutine %s(%s)", schedule.Name, strings.Join(parameterNames(tree), ", "))
	w.indent()
	p.declarations(&w, tree)
	w.line("")
	//
	for _, child := range tree.Children(tree.Root()) {
		p.node(&w, tree, child)
	}
	//
	w.dedent()
	w.linef("end subroutine %s", schedule.Name)
	//
	return w.String(), nil
}

// Render the local declarations of the generated routine: loop variables and
// reduction working arrays.
func (p *FortranWriter) declarations(w *writer, tree *psyir.Tree) {
	params := make(map[*symbols.Symbol]bool)
	//
	for _, sym := range parameters(tree) {
		params[sym] = true
	}
	//
	for _, sym := range tree.Schedule(tree.Root()).Table.Symbols() {
		if !params[sym] && sym.Type() == symbols.IntegerType {
			w.linef("integer(kind=%s) :: %s", sym.Precision(), sym.Name())
		}
	}
	// Reduction working arrays.
	tree.Walk(tree.Root(), func(id psyir.NodeId) {
		if tree.Kind(id) == psyir.KindReduction {
			reduction := tree.Reduction(id)
			w.linef("real(kind=%s) :: %s_partial(%d)",
				reduction.Variable.Precision(), reduction.Variable.Name(), reduction.WorkingArraySize())
		}
	})
}

// Render one schedule-level node (and everything beneath it).
func (p *FortranWriter) node(w *writer, tree *psyir.Tree, id psyir.NodeId) {
	switch tree.Kind(id) {
	case psyir.KindHaloExchange:
		exchange := tree.HaloExchange(id)
		w.linef("call %s%%halo_exchange(depth=%d)", exchange.Field.Name(), exchange.Depth)
	case psyir.KindLoop:
		p.loop(w, tree, id)
	case psyir.KindDirective:
		p.directive(w, tree, id)
	case psyir.KindReduction:
		p.reduction(w, tree, id)
	case psyir.KindKernelCall:
		p.call(w, tree, id)
	default:
		panic(fmt.Sprintf("unexpected %s node in schedule body", tree.Kind(id)))
	}
}

func (p *FortranWriter) loop(w *writer, tree *psyir.Tree, id psyir.NodeId) {
	loop := tree.Loop(id)
	//
	w.linef("do %s = %s, %s", loop.Variable.Name(), lowerBound(loop), upperBound(loop))
	w.indent()
	//
	for _, child := range tree.Children(id) {
		p.node(w, tree, child)
	}
	//
	w.dedent()
	w.line("end do")
}

func (p *FortranWriter) directive(w *writer, tree *psyir.Tree, id psyir.NodeId) {
	directive := tree.Directive(id)
	//
	clause := ""
	if directive.Reproducible {
		clause = " schedule(static)"
	}
	//
	w.linef("!$omp parallel do%s", clause)
	//
	for _, child := range tree.Children(id) {
		p.node(w, tree, child)
	}
	//
	w.line("!$omp end parallel do")
}

func (p *FortranWriter) reduction(w *writer, tree *psyir.Tree, id psyir.NodeId) {
	reduction := tree.Reduction(id)
	name := reduction.Variable.Name()
	//
	w.linef("%s = sum(%s_partial(1:%d))", name, name, reduction.WorkingArraySize())
	//
	if reduction.Global {
		w.linef("call global_%s(%s)", reduction.Operator, name)
	}
}

func (p *FortranWriter) call(w *writer, tree *psyir.Tree, id psyir.NodeId) {
	var (
		call    = tree.KernelCall(id)
		actuals []string
	)
	//
	for _, child := range tree.Children(id) {
		switch tree.Kind(child) {
		case psyir.KindReference:
			actuals = append(actuals, tree.Reference(child).Symbol.Name())
		case psyir.KindLiteral:
			actuals = append(actuals, tree.Literal(child).Value)
		}
	}
	//
	routine := call.Kernel.Routines()[0]
	if call.Inlined() {
		routine = call.InlinedRoutine
	}
	//
	w.linef("call %s(%s)", routine, strings.Join(actuals, ", "))
}

// The symbols passed into the generated routine: every symbol a kernel call
// references, in first-use order.
func parameters(tree *psyir.Tree) []*symbols.Symbol {
	var (
		seen   = make(map[*symbols.Symbol]bool)
		params []*symbols.Symbol
	)
	//
	tree.Walk(tree.Root(), func(id psyir.NodeId) {
		if tree.Kind(id) == psyir.KindReference {
			if sym := tree.Reference(id).Symbol; !seen[sym] {
				seen[sym] = true
				params = append(params, sym)
			}
		}
	})
	//
	return params
}

func parameterNames(tree *psyir.Tree) []string {
	var names []string
	//
	for _, sym := range parameters(tree) {
		names = append(names, sym.Name())
	}
	//
	return names
}

func lowerBound(loop *psyir.Loop) string {
	switch loop.Entity {
	case psyir.OuterLoop:
		return "grid%internal%ystart"
	case psyir.InnerLoop:
		return "grid%internal%xstart"
	}
	//
	return "1"
}

func upperBound(loop *psyir.Loop) string {
	switch loop.Entity {
	case psyir.OuterLoop, psyir.InnerLoop:
		return structuredUpperBound(loop)
	case psyir.DofLoop:
		return meshUpperBound(loop, "dof")
	}
	//
	return meshUpperBound(loop, "cell")
}

func meshUpperBound(loop *psyir.Loop, entity string) string {
	switch loop.Stop.Kind {
	case psyir.BoundLastOwned:
		return fmt.Sprintf("mesh%%get_last_owned_%s()", entity)
	case psyir.BoundLastHalo:
		return fmt.Sprintf("mesh%%get_last_%s(depth=%d)", entity, loop.Stop.Depth)
	case psyir.BoundLastAll:
		return fmt.Sprintf("mesh%%get_last_%s()", entity)
	}
	//
	return "?"
}

func structuredUpperBound(loop *psyir.Loop) string {
	axis := "y"
	if loop.Entity == psyir.InnerLoop {
		axis = "x"
	}
	//
	region := "internal"
	if loop.Stop.Kind == psyir.BoundLastAll {
		region = "whole"
	}
	//
	return fmt.Sprintf("grid%%%s%%%sstop", region, axis)
}

// writer accumulates indented source lines.
type writer struct {
	builder strings.Builder
	depth   int
}

func (p *writer) indent() {
	p.depth++
}

func (p *writer) dedent() {
	p.depth--
}

func (p *writer) line(text string) {
	if text != "" {
		p.builder.WriteString(strings.Repeat("  ", p.depth))
		p.builder.WriteString(text)
	}
	//
	p.builder.WriteString("\n")
}

func (p *writer) linef(format string, args ...any) {
	p.line(fmt.Sprintf(format, args...))
}

func (p *writer) String() string {
	return p.builder.String()
}
