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
	"strings"
)

// View renders an indented, one-node-per-line description of this tree,
// useful for diagnostics and golden tests.
func (p *Tree) View() string {
	var builder strings.Builder
	//
	p.view(p.root, 0, &builder)
	//
	return builder.String()
}

func (p *Tree) view(id NodeId, depth int, builder *strings.Builder) {
	builder.WriteString(strings.Repeat("    ", depth))
	builder.WriteString(p.describe(id))
	builder.WriteString("\n")
	//
	for _, child := range p.nodes[id].children {
		p.view(child, depth+1, builder)
	}
}

// Render a one-line description of a given node.
func (p *Tree) describe(id NodeId) string {
	switch p.Kind(id) {
	case KindSchedule:
		return fmt.Sprintf("Schedule[%s]", p.Schedule(id).Name)
	case KindLoop:
		loop := p.Loop(id)
		return fmt.Sprintf("Loop[%s, %s..%s, %s]", loop.Entity, loop.Start, loop.Stop, loop.Space)
	case KindKernelCall:
		call := p.KernelCall(id)
		if call.Inlined() {
			return fmt.Sprintf("KernelCall[%s, inlined=%s]", call.Kernel.Name(), call.InlinedRoutine)
		}
		//
		return fmt.Sprintf("KernelCall[%s]", call.Kernel.Name())
	case KindReference:
		return fmt.Sprintf("Reference[%s]", p.Reference(id).Symbol.Name())
	case KindLiteral:
		return fmt.Sprintf("Literal[%s]", p.Literal(id).Value)
	case KindReduction:
		reduction := p.Reduction(id)
		scope := "local"
		//
		if reduction.Global {
			scope = "global"
		}
		//
		return fmt.Sprintf("Reduction[%s, %s, %s, size=%d]",
			reduction.Operator, reduction.Variable.Name(), scope, reduction.WorkingArraySize())
	case KindDirective:
		directive := p.Directive(id)
		if directive.Reproducible {
			return fmt.Sprintf("Directive[%s, reproducible]", directive.Kind)
		}
		//
		return fmt.Sprintf("Directive[%s]", directive.Kind)
	case KindHaloExchange:
		exchange := p.HaloExchange(id)
		return fmt.Sprintf("HaloExchange[%s, depth=%d]", exchange.Field.Name(), exchange.Depth)
	}
	//
	return "?"
}
