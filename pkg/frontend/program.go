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
package frontend

import (
	"github.com/psykal-project/psykal/pkg/source"
	"github.com/psykal-project/psykal/pkg/util"
)

// Program captures the front-end view of one algorithm-layer program unit:
// the kernel-type declarations it references, the variables it declares, and
// the invocations to be translated.  This is the fixed shape handed over by
// the front-end parser; everything downstream (metadata validation, schedule
// construction) consumes it.
type Program struct {
	// Kernel-type declarations, in order of appearance.
	Kernels []KernelDecl
	// Variable declarations, in order of appearance.
	Variables []VarDecl
	// Invocations, in order of appearance.
	Invokes []Invoke
}

// KernelDecl is the raw (unvalidated) declaration of one kernel type.  All
// token fields are exactly as written in the source; validation against the
// configured access map, etc, happens in the kernel metadata model.
type KernelDecl struct {
	// Name of the kernel type being declared.
	Name string
	// Argument declarations, in declaration order.
	Args []ArgDecl
	// Index-offset convention for structured-grid kernels (empty when the
	// declaration does not specify one).
	Offset string
	// Names of the procedure(s) implementing this kernel.  More than one
	// name indicates mixed-precision variants.
	Routines []string
	// Location of this declaration.
	Location source.Location
}

// ArgDecl is the raw declaration of one kernel argument.
type ArgDecl struct {
	// Role token (field / operator / scalar).
	Role string
	// Declared function space (or grid-point type) token.
	Space string
	// Access-mode token, as written (e.g. "gh_read").
	Access string
	// Optional stencil declaration.
	Stencil util.Option[StencilDecl]
	// Location of this argument declaration.
	Location source.Location
}

// StencilDecl is the raw declaration of a stencil access pattern.
type StencilDecl struct {
	// Shape token (e.g. "cross").
	Shape string
	// Declared extent.
	Extent uint
	// Location of this stencil declaration.
	Location source.Location
}

// VarDecl declares one algorithm-layer variable.
type VarDecl struct {
	// Name of the variable.
	Name string
	// Role token (field / operator / scalar).
	Role string
	// Intrinsic type token (real / integer / logical).
	Type string
	// Precision tag (e.g. "r_def").
	Kind string
	// Location of this declaration.
	Location source.Location
}

// Invoke is one algorithm-layer invocation: a bundle of kernel calls to be
// translated together into one generated routine.
type Invoke struct {
	// Name of this invocation.
	Name string
	// Kernel calls, in source order.  The dependence analyzer relies on this
	// ordering being exactly as presented here.
	Calls []CallDecl
	// Location of this invocation.
	Location source.Location
}

// CallDecl is one kernel call site within an invocation.
type CallDecl struct {
	// Name of the kernel type being called.
	Kernel string
	// Actual arguments, in call order.
	Args []ActualArg
	// Location of this call site.
	Location source.Location
}

// ActualArg is one actual argument at a call site: either the name of a
// declared variable, or a literal value.
type ActualArg struct {
	// Raw token.
	Name string
	// Indicates a literal value rather than a variable reference.
	IsLiteral bool
	// Location of this argument.
	Location source.Location
}
