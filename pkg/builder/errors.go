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
package builder

import (
	"fmt"

	"github.com/psykal-project/psykal/pkg/source"
)

// ArityError signals a call site whose actual argument count disagrees with
// the called kernel's declared argument count.  Fatal for the enclosing
// invocation unit.
type ArityError struct {
	// Called kernel.
	Kernel string
	// Declared argument count.
	Expected int
	// Actual argument count at the call site.
	Actual int
	// Location of the call site.
	Location source.Location
}

// Code returns the stable error-kind tag for arity mismatches.
func (p *ArityError) Code() string {
	return "ArgumentArityError"
}

func (p *ArityError) Error() string {
	return fmt.Sprintf("%s: kernel %s expects %d argument(s), call supplies %d",
		p.Location, p.Kernel, p.Expected, p.Actual)
}

// LiteralArgumentError signals a literal actual bound to an argument the
// kernel writes or reduces into.  Fatal for the enclosing invocation unit.
type LiteralArgumentError struct {
	// Called kernel.
	Kernel string
	// Offending literal token.
	Literal string
	// Location of the literal actual.
	Location source.Location
}

// Code returns the stable error-kind tag for unbindable actual arguments.
func (p *LiteralArgumentError) Code() string {
	return "ArgumentError"
}

func (p *LiteralArgumentError) Error() string {
	return fmt.Sprintf("%s: kernel %s cannot update literal actual %s",
		p.Location, p.Kernel, p.Literal)
}

// UnknownKernelError signals a call to a kernel type which was never
// declared (and is not a builtin).  Fatal for the enclosing invocation unit.
type UnknownKernelError struct {
	// Name of the unknown kernel.
	Kernel string
	// Location of the call site.
	Location source.Location
}

// Code returns the stable error-kind tag for unknown-kernel call sites.
func (p *UnknownKernelError) Code() string {
	return "ArgumentError"
}

func (p *UnknownKernelError) Error() string {
	return fmt.Sprintf("%s: call to undeclared kernel %s", p.Location, p.Kernel)
}
