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

// Package builder turns algorithm-layer invocations into PSy-layer schedule
// trees: one loop (or nested loop pair, on structured grids) wrapping one
// kernel call per call site, with every actual argument bound to a symbol
// through the schedule's own symbol table.  Freshly built schedules are
// handed straight to the dependence analyzer, so the trees this package
// returns already carry their halo exchanges and reductions.
package builder

import (
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/psykal-project/psykal/pkg/analysis"
	"github.com/psykal-project/psykal/pkg/config"
	"github.com/psykal-project/psykal/pkg/frontend"
	"github.com/psykal-project/psykal/pkg/kernel"
	"github.com/psykal-project/psykal/pkg/psyir"
	"github.com/psykal-project/psykal/pkg/psyir/symbols"
	"github.com/psykal-project/psykal/pkg/source"
)

// Builder constructs PSy-layer schedules for the invocations of one
// algorithm-layer program unit, against a frozen kernel registry.
type Builder struct {
	cfg      *config.Config
	registry *kernel.Registry
	analyzer *analysis.Analyzer
}

// NewBuilder constructs a builder for a given configuration and registry.
func NewBuilder(cfg *config.Config, registry *kernel.Registry) *Builder {
	return &Builder{cfg, registry, analysis.NewAnalyzer(cfg)}
}

// Compile registers all kernel declarations of a program, then builds one
// schedule per invocation.  Each kernel and each invocation fails (or
// succeeds) independently: a malformed kernel aborts only the invocations
// calling it, and every error is reported.
func Compile(program *frontend.Program, cfg *config.Config) ([]*psyir.Tree, []error) {
	var errs []error
	//
	registry := kernel.NewBuiltinRegistry()
	//
	for _, decl := range program.Kernels {
		md, err := kernel.Parse(decl, cfg)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		//
		if err := registry.Register(md); err != nil {
			errs = append(errs, err)
		}
	}
	// Registration phase over; registry is read-only from here on.
	registry.Freeze()
	//
	builder := NewBuilder(cfg, registry)
	trees := make([]*psyir.Tree, 0, len(program.Invokes))
	//
	for _, invoke := range program.Invokes {
		tree, ierrs := builder.BuildInvoke(invoke, program.Variables)
		if len(ierrs) > 0 {
			errs = append(errs, ierrs...)
			continue
		}
		//
		trees = append(trees, tree)
	}
	//
	return trees, errs
}

// BuildInvoke builds the schedule for one invocation unit.  A non-empty
// error slice aborts this invocation: partial schedules are never returned.
func (p *Builder) BuildInvoke(invoke frontend.Invoke, variables []frontend.VarDecl) (*psyir.Tree, []error) {
	var errs []error
	//
	table := symbols.NewSymbolTable(p.cfg)
	tree := psyir.NewTree(psyir.Schedule{Name: invoke.Name, Table: table})
	// Declare the algorithm-layer variables into the schedule scope.
	for _, decl := range variables {
		if err := p.declareVariable(table, decl); err != nil {
			errs = append(errs, err)
		}
	}
	//
	if len(errs) > 0 {
		return nil, errs
	}
	// Loop variables of this schedule, keyed by base name.
	loopVars := make(map[string]*symbols.Symbol)
	//
	for _, call := range invoke.Calls {
		if err := p.buildCall(tree, table, loopVars, call); err != nil {
			errs = append(errs, err)
		}
	}
	//
	if len(errs) > 0 {
		return nil, errs
	}
	// Insert halo exchanges and reductions.
	p.analyzer.Run(tree)
	//
	log.Debugf("built schedule for %s (%d call(s))", invoke.Name, len(invoke.Calls))
	//
	return tree, nil
}

// Declare one algorithm-layer variable, checking its precision tag resolves
// to a concrete byte width.
func (p *Builder) declareVariable(table *symbols.SymbolTable, decl frontend.VarDecl) error {
	if _, err := table.PrecisionOf(decl.Kind); err != nil {
		return source.Locate(decl.Location, err)
	}
	//
	dtype, ok := symbols.ParseType(decl.Type)
	if !ok {
		// Field and operator objects have externally defined types.
		dtype = symbols.DeferredType
	}
	//
	if _, err := table.Declare(decl.Name, dtype, decl.Kind, nil); err != nil {
		return source.Locate(decl.Location, err)
	}
	//
	return nil
}

// Build the loop nest and kernel-call node for one call site.
func (p *Builder) buildCall(tree *psyir.Tree, table *symbols.SymbolTable,
	loopVars map[string]*symbols.Symbol, call frontend.CallDecl) error {
	md, ok := p.registry.Lookup(call.Kernel)
	if !ok {
		return &UnknownKernelError{call.Kernel, call.Location}
	}
	//
	if len(call.Args) != md.Arity() {
		return &ArityError{call.Kernel, md.Arity(), len(call.Args), call.Location}
	}
	//
	inner, err := p.buildLoopNest(tree, table, loopVars, md)
	if err != nil {
		return err
	}
	//
	node := tree.AppendKernelCall(inner, psyir.KernelCall{Kernel: md})
	// Bind the actual arguments, in declared order.
	for i, actual := range call.Args {
		if actual.IsLiteral {
			mode := md.Args()[i].Access
			// A literal actual cannot receive results.
			if mode.Writes() || mode.IsReduction() {
				return &LiteralArgumentError{call.Kernel, actual.Name, actual.Location}
			}
			//
			tree.AppendLiteral(node, psyir.Literal{Value: actual.Name, Type: literalType(actual.Name)})
			continue
		}
		//
		sym, serr := table.Resolve(actual.Name)
		if serr != nil {
			return source.Locate(actual.Location, serr)
		}
		//
		tree.AppendReference(node, psyir.Reference{Symbol: sym})
	}
	//
	return nil
}

// Build the loop (or, for structured-grid kernels, the outer/inner loop
// pair) iterating one kernel over its iteration space, returning the node
// kernel calls attach beneath.
func (p *Builder) buildLoopNest(tree *psyir.Tree, table *symbols.SymbolTable,
	loopVars map[string]*symbols.Symbol, md *kernel.Metadata) (psyir.NodeId, error) {
	space := md.IterationSpace()
	stop := psyir.Bound{Kind: psyir.BoundLastOwned}
	//
	if space.Kind == kernel.IterWholeDomain {
		stop = psyir.Bound{Kind: psyir.BoundLastAll}
	}
	//
	if md.Structured() {
		// Structured grids iterate a two-dimensional index space.
		jvar, err := p.loopVariable(table, loopVars, "j")
		if err != nil {
			return psyir.NilId, err
		}
		//
		ivar, err := p.loopVariable(table, loopVars, "i")
		if err != nil {
			return psyir.NilId, err
		}
		//
		outer := tree.AppendLoop(tree.Root(), psyir.Loop{
			Variable: jvar,
			Entity:   psyir.OuterLoop,
			Start:    psyir.Bound{Kind: psyir.BoundFirst},
			Stop:     stop,
			Space:    space,
		})
		//
		return tree.AppendLoop(outer, psyir.Loop{
			Variable: ivar,
			Entity:   psyir.InnerLoop,
			Start:    psyir.Bound{Kind: psyir.BoundFirst},
			Stop:     stop,
			Space:    space,
		}), nil
	}
	//
	entity := psyir.CellLoop
	name := "cell"
	//
	if md.IteratesOverDofs() {
		entity = psyir.DofLoop
		name = "df"
	}
	//
	variable, err := p.loopVariable(table, loopVars, name)
	if err != nil {
		return psyir.NilId, err
	}
	//
	return tree.AppendLoop(tree.Root(), psyir.Loop{
		Variable: variable,
		Entity:   entity,
		Start:    psyir.Bound{Kind: psyir.BoundFirst},
		Stop:     stop,
		Space:    space,
	}), nil
}

// Find or declare the integer variable for a loop of a given base name.
// Loop variables are shared between the loops of one schedule, but never
// alias an algorithm-layer variable, even one of the same name.
func (p *Builder) loopVariable(table *symbols.SymbolTable, loopVars map[string]*symbols.Symbol,
	base string) (*symbols.Symbol, error) {
	if sym, ok := loopVars[base]; ok {
		return sym, nil
	}
	//
	sym, err := table.Declare(table.UniqueName(base), symbols.IntegerType, "i_def", nil)
	if err != nil {
		return nil, err
	}
	//
	loopVars[base] = sym
	//
	return sym, nil
}

// Classify a literal actual by its spelling.
func literalType(value string) symbols.DataType {
	switch {
	case value == ".true." || value == ".false.":
		return symbols.LogicalType
	case strings.ContainsAny(value, ".eE"):
		return symbols.RealType
	default:
		return symbols.IntegerType
	}
}
