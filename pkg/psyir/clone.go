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
	"github.com/psykal-project/psykal/pkg/psyir/symbols"
)

// CloneSchedule produces a deep copy of a schedule tree.  Symbols declared in
// the schedule's own scope are cloned (never aliased), so that every
// reference inside the copy resolves within the copy's own scope chain;
// symbols from enclosing scopes remain shared.
func CloneSchedule(p *Tree) *Tree {
	schedule := p.Schedule(p.root)
	table, mapping := schedule.Table.CloneScope()
	//
	clone := NewTree(Schedule{schedule.Name, table})
	//
	for _, child := range p.Children(p.root) {
		cloneInto(p, child, clone, clone.root, mapping)
	}
	//
	return clone
}

func cloneInto(src *Tree, id NodeId, dst *Tree, parent NodeId, mapping map[*symbols.Symbol]*symbols.Symbol) {
	var fresh NodeId
	//
	switch src.Kind(id) {
	case KindLoop:
		loop := *src.Loop(id)
		loop.Variable = remap(loop.Variable, mapping)
		fresh = dst.append(parent, KindLoop, &loop)
	case KindKernelCall:
		call := *src.KernelCall(id)
		fresh = dst.append(parent, KindKernelCall, &call)
	case KindReference:
		ref := *src.Reference(id)
		ref.Symbol = remap(ref.Symbol, mapping)
		fresh = dst.append(parent, KindReference, &ref)
	case KindLiteral:
		literal := *src.Literal(id)
		fresh = dst.append(parent, KindLiteral, &literal)
	case KindReduction:
		reduction := *src.Reduction(id)
		reduction.Variable = remap(reduction.Variable, mapping)
		fresh = dst.append(parent, KindReduction, &reduction)
	case KindDirective:
		directive := *src.Directive(id)
		fresh = dst.append(parent, KindDirective, &directive)
	case KindHaloExchange:
		exchange := *src.HaloExchange(id)
		exchange.Field = remap(exchange.Field, mapping)
		fresh = dst.append(parent, KindHaloExchange, &exchange)
	case KindSchedule:
		panic("nested schedule encountered during clone")
	default:
		panic("unknown node kind encountered during clone")
	}
	//
	for _, child := range src.Children(id) {
		cloneInto(src, child, dst, fresh, mapping)
	}
}

// Substitute a cloned symbol where one exists, otherwise retain the shared
// outer-scope symbol.
func remap(sym *symbols.Symbol, mapping map[*symbols.Symbol]*symbols.Symbol) *symbols.Symbol {
	if fresh, ok := mapping[sym]; ok {
		return fresh
	}
	//
	return sym
}
