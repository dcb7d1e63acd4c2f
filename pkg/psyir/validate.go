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

	"github.com/psykal-project/psykal/pkg/psyir/symbols"
)

// Validate applies a number of internal consistency checks to this tree.
// Whilst the mutation API maintains these invariants by construction, the
// checks can highlight otherwise hidden problems in transformation code as an
// aid to debugging: every attached node has exactly one position amongst its
// parent's children, no node is reachable twice, and every reference resolves
// to a symbol visible from its enclosing schedule's scope chain.
func (p *Tree) Validate() []error {
	var (
		errs []error
		seen = make(map[NodeId]bool)
	)
	//
	p.Walk(p.root, func(id NodeId) {
		if seen[id] {
			errs = append(errs, fmt.Errorf("node %d (%s) reachable at two tree positions", id, p.Kind(id)))
			return
		}
		//
		seen[id] = true
		// Check parent / child links agree.
		for _, child := range p.nodes[id].children {
			if p.nodes[child].parent != id {
				errs = append(errs, fmt.Errorf("node %d (%s) disowns child %d", id, p.Kind(id), child))
			}
		}
		// Check symbol usage resolves.
		errs = append(errs, p.validateSymbols(id)...)
	})
	//
	return errs
}

// Check that every symbol mentioned by a given node is visible from the scope
// chain of its enclosing schedule.
func (p *Tree) validateSymbols(id NodeId) []error {
	var errs []error
	//
	check := func(sym *symbols.Symbol, what string) {
		schedule, ok := p.EnclosingSchedule(id)
		//
		if sym == nil {
			errs = append(errs, fmt.Errorf("node %d (%s) has no %s symbol", id, p.Kind(id), what))
		} else if !ok {
			errs = append(errs, fmt.Errorf("node %d (%s) not attached beneath a schedule", id, p.Kind(id)))
		} else if !p.Schedule(schedule).Table.Contains(sym) {
			errs = append(errs,
				fmt.Errorf("node %d (%s): %s %q does not resolve in the enclosing scope chain",
					id, p.Kind(id), what, sym.Name()))
		}
	}
	//
	switch p.Kind(id) {
	case KindReference:
		check(p.Reference(id).Symbol, "referenced")
	case KindLoop:
		check(p.Loop(id).Variable, "loop-variable")
	case KindReduction:
		check(p.Reduction(id).Variable, "reduction")
	case KindHaloExchange:
		check(p.HaloExchange(id).Field, "field")
	}
	//
	return errs
}
