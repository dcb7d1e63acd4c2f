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
	"github.com/psykal-project/psykal/pkg/psyir"
	"github.com/psykal-project/psykal/pkg/psyir/symbols"
)

// InlineKernel brings a kernel's implementation into the generated module, so
// the backend emits its body alongside the call rather than a reference into
// the kernel's own module.  The implementation symbol is declared in the
// schedule's scope, renamed where it would capture an existing declaration.
type InlineKernel struct{}

// NewInlineKernel constructs the inlining pass.
func NewInlineKernel() *InlineKernel {
	return &InlineKernel{}
}

// Name returns the name this pass is selected by in pipeline scripts.
func (p *InlineKernel) Name() string {
	return "inline"
}

// Validate checks the precondition: the target is a kernel call, not already
// inlined, whose kernel has exactly one implementation.  A kernel with
// mixed-precision variants cannot be inlined until the variant is resolved.
func (p *InlineKernel) Validate(tree *psyir.Tree, target psyir.NodeId) error {
	if tree.Kind(target) != psyir.KindKernelCall {
		return &NonInlinableKernelError{"?", "target is not a kernel call"}
	}
	//
	call := tree.KernelCall(target)
	//
	if call.Inlined() {
		return &NonInlinableKernelError{call.Kernel.Name(), "already inlined"}
	}
	//
	if routines := call.Kernel.Routines(); len(routines) != 1 {
		return &NonInlinableKernelError{call.Kernel.Name(),
			"kernel has multiple implementations (mixed-precision variants unresolved)"}
	}
	//
	return nil
}

// Apply declares the implementation in the schedule scope (renaming to avoid
// capture) and marks the call inlined, after re-checking the precondition.
func (p *InlineKernel) Apply(tree *psyir.Tree, target psyir.NodeId) error {
	if err := p.Validate(tree, target); err != nil {
		return err
	}
	//
	schedule, ok := tree.EnclosingSchedule(target)
	if !ok {
		return &NonInlinableKernelError{tree.KernelCall(target).Kernel.Name(), "call is not attached to a schedule"}
	}
	//
	var (
		call    = tree.KernelCall(target)
		table   = tree.Schedule(schedule).Table
		routine = call.Kernel.Routines()[0]
		name    = table.UniqueName(routine)
	)
	//
	if _, err := table.Declare(name, symbols.DeferredType, "", nil); err != nil {
		return err
	}
	//
	call.InlinedRoutine = name
	//
	return nil
}
