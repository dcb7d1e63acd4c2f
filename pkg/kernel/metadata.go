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
package kernel

import (
	"fmt"
	"strings"

	"go.uber.org/multierr"

	"github.com/psykal-project/psykal/pkg/config"
	"github.com/psykal-project/psykal/pkg/frontend"
	"github.com/psykal-project/psykal/pkg/source"
	"github.com/psykal-project/psykal/pkg/util"
)

// ArgRole distinguishes the kinds of argument a kernel can declare.
type ArgRole int

const (
	// FieldArg arguments are fields over the mesh; the only role which can
	// carry a stencil or require halo exchanges.
	FieldArg ArgRole = iota
	// OperatorArg arguments are assembled operators mapping between
	// function spaces; accessing one restricts iteration to the interior.
	OperatorArg
	// ScalarArg arguments are plain scalars, read or reduced into.
	ScalarArg
)

// ParseRole maps a role token from kernel metadata onto its role.
func ParseRole(token string) (ArgRole, bool) {
	switch token {
	case "field":
		return FieldArg, true
	case "operator":
		return OperatorArg, true
	case "scalar":
		return ScalarArg, true
	}
	//
	return FieldArg, false
}

func (r ArgRole) String() string {
	switch r {
	case FieldArg:
		return "field"
	case OperatorArg:
		return "operator"
	case ScalarArg:
		return "scalar"
	}
	//
	return "?"
}

// StencilShape identifies the declared shape of a stencil access.
type StencilShape int

const (
	// CrossStencil accesses neighbours along both axes.
	CrossStencil StencilShape = iota
	// X1DStencil accesses neighbours along the x axis only.
	X1DStencil
	// Y1DStencil accesses neighbours along the y axis only.
	Y1DStencil
	// RegionStencil accesses the full square region around the point.
	RegionStencil
)

// ParseStencilShape maps a stencil-shape token onto its shape.
func ParseStencilShape(token string) (StencilShape, bool) {
	switch token {
	case "cross":
		return CrossStencil, true
	case "x1d":
		return X1DStencil, true
	case "y1d":
		return Y1DStencil, true
	case "region":
		return RegionStencil, true
	}
	//
	return CrossStencil, false
}

func (s StencilShape) String() string {
	switch s {
	case CrossStencil:
		return "cross"
	case X1DStencil:
		return "x1d"
	case Y1DStencil:
		return "y1d"
	case RegionStencil:
		return "region"
	}
	//
	return "?"
}

// Stencil describes a declared stencil access: its shape and how many layers
// of neighbouring entities it reaches.
type Stencil struct {
	// Shape of the access pattern.
	Shape StencilShape
	// Number of layers reached around the iteration point.
	Extent uint
}

func (s Stencil) String() string {
	return fmt.Sprintf("stencil(%s,%d)", s.Shape, s.Extent)
}

// Arg is the validated descriptor for one kernel argument.
type Arg struct {
	// Role of this argument.
	Role ArgRole
	// Declared function space (or grid-point type).
	Space string
	// Declared access mode.
	Access AccessMode
	// Optional stencil (only ever present on a field read).
	Stencil util.Option[Stencil]
}

func (a Arg) String() string {
	if a.Stencil.HasValue() {
		return fmt.Sprintf("%s:%s:%s:%s", a.Role, a.Space, a.Access, a.Stencil.Unwrap())
	}
	//
	return fmt.Sprintf("%s:%s:%s", a.Role, a.Space, a.Access)
}

// IterKind classifies the iteration space of a kernel.
type IterKind int

const (
	// IterWholeDomain kernels iterate over every local entity, halo
	// included.  A write by such a kernel leaves the whole halo clean.
	IterWholeDomain IterKind = iota
	// IterInterior kernels iterate over owned entities only, possibly
	// requiring some depth of clean halo for their stencil reads.
	IterInterior
)

// IterationSpace describes the class of entities a kernel iterates over,
// along with the halo depth its stencil accesses require.
type IterationSpace struct {
	// Classification of this space.
	Kind IterKind
	// Required clean-halo depth (zero unless a stencil is declared).
	HaloDepth uint
}

// Equal determines whether two iteration spaces are identical.
func (s IterationSpace) Equal(o IterationSpace) bool {
	return s.Kind == o.Kind && s.HaloDepth == o.HaloDepth
}

func (s IterationSpace) String() string {
	switch {
	case s.Kind == IterWholeDomain:
		return "whole-domain"
	case s.HaloDepth == 0:
		return "interior"
	default:
		return fmt.Sprintf("interior+halo(%d)", s.HaloDepth)
	}
}

// Metadata is the validated, immutable description of one kernel type.  A
// single Metadata value is created per distinct kernel type name and shared,
// read-only, by every call node which invokes that kernel.
type Metadata struct {
	// Name of the kernel type.
	name string
	// Validated argument descriptors, in declaration order.
	args []Arg
	// Index-offset convention of this kernel.
	offset Offset
	// Implementing procedure names (more than one for mixed precision).
	routines []string
	// Indicates a pointwise kernel iterating over degrees of freedom rather
	// than cells (true for builtins only).
	overDofs bool
	// Location of the originating declaration.
	location source.Location
}

// Parse validates a raw kernel declaration against the metadata rules,
// producing the immutable metadata entry.  All rule violations are reported,
// not just the first.
func Parse(decl frontend.KernelDecl, cfg *config.Config) (*Metadata, error) {
	var err error
	//
	md := &Metadata{
		name:     decl.Name,
		args:     make([]Arg, 0, len(decl.Args)),
		routines: decl.Routines,
		location: decl.Location,
	}
	//
	if decl.Name == "" {
		err = multierr.Append(err, metadataError(decl.Location, decl.Name, 0, "kernel has no name"))
	}
	//
	if len(decl.Args) == 0 {
		err = multierr.Append(err, metadataError(decl.Location, decl.Name, 0, "kernel declares no arguments"))
	}
	//
	offset, ok := ParseOffset(decl.Offset)
	if !ok {
		err = multierr.Append(err,
			metadataError(decl.Location, decl.Name, 0, fmt.Sprintf("unknown index-offset convention %q", decl.Offset)))
	}
	//
	md.offset = offset
	//
	for i, raw := range decl.Args {
		arg, aerr := parseArg(decl.Name, i+1, raw, cfg)
		err = multierr.Append(err, aerr)
		md.args = append(md.args, arg)
	}
	// A kernel which updates nothing cannot have been intended.
	if err == nil && !md.updatesSomething() {
		err = metadataError(decl.Location, decl.Name, 0, "kernel updates none of its arguments")
	}
	//
	if err != nil {
		return nil, err
	}
	//
	return md, nil
}

// Validate one argument declaration, applying the role/access/stencil rules.
func parseArg(kernel string, position int, raw frontend.ArgDecl, cfg *config.Config) (Arg, error) {
	var (
		arg Arg
		err error
	)
	//
	role, ok := ParseRole(raw.Role)
	if !ok {
		err = multierr.Append(err,
			metadataError(raw.Location, kernel, position, fmt.Sprintf("unknown argument role %q", raw.Role)))
	}
	//
	access, ok := ParseAccess(raw.Access, cfg)
	if !ok {
		err = multierr.Append(err,
			metadataError(raw.Location, kernel, position, fmt.Sprintf("unknown access mode %q", raw.Access)))
	}
	//
	arg.Role = role
	arg.Space = raw.Space
	arg.Access = access
	arg.Stencil = util.None[Stencil]()
	// Function-space checks apply to fields and operators only.
	if role != ScalarArg {
		if msg := ValidateSpace(raw.Space, cfg); msg != "" {
			err = multierr.Append(err, metadataError(raw.Location, kernel, position, msg))
		}
	}
	// Role-specific access rules.
	switch {
	case role == ScalarArg && access != Read && access != Sum:
		err = multierr.Append(err,
			metadataError(raw.Location, kernel, position,
				fmt.Sprintf("scalar argument cannot be accessed as %s", access)))
	case role == OperatorArg && (access == Increment || access == ReadIncrement || access == Sum):
		err = multierr.Append(err,
			metadataError(raw.Location, kernel, position,
				fmt.Sprintf("operator argument cannot be accessed as %s", access)))
	case role == FieldArg && access == Sum:
		err = multierr.Append(err,
			metadataError(raw.Location, kernel, position, "field argument cannot be a reduction"))
	}
	// Stencil rules: a stencil reads neighbouring entities, so the backend
	// cannot guarantee deterministic results if the same argument is also
	// written.  Hence stencils are only legal on read-only field arguments.
	if raw.Stencil.HasValue() {
		stencil := raw.Stencil.Unwrap()
		//
		shape, ok := ParseStencilShape(stencil.Shape)
		if !ok {
			err = multierr.Append(err,
				metadataError(stencil.Location, kernel, position,
					fmt.Sprintf("unknown stencil shape %q", stencil.Shape)))
		}
		//
		if role != FieldArg {
			err = multierr.Append(err,
				metadataError(stencil.Location, kernel, position,
					fmt.Sprintf("stencil declared on %s argument", role)))
		} else if access != Read {
			err = multierr.Append(err,
				metadataError(stencil.Location, kernel, position,
					fmt.Sprintf("stencil declared on %s argument (stencils require read access)", access)))
		}
		//
		arg.Stencil = util.Some(Stencil{shape, stencil.Extent})
	}
	//
	return arg, err
}

// Name returns the name of this kernel type.
func (p *Metadata) Name() string {
	return p.name
}

// Args returns the validated argument descriptors, in declaration order.
// The returned slice must not be mutated.
func (p *Metadata) Args() []Arg {
	return p.args
}

// Arity returns the number of arguments this kernel declares.
func (p *Metadata) Arity() int {
	return len(p.args)
}

// Offset returns the index-offset convention of this kernel.
func (p *Metadata) Offset() Offset {
	return p.offset
}

// Routines returns the names of the procedure(s) implementing this kernel.
func (p *Metadata) Routines() []string {
	return p.routines
}

// Location returns the source location of the originating declaration.
func (p *Metadata) Location() source.Location {
	return p.location
}

// IteratesOverDofs indicates a pointwise kernel whose loop runs over degrees
// of freedom rather than mesh cells.
func (p *Metadata) IteratesOverDofs() bool {
	return p.overDofs
}

// Structured indicates whether this kernel targets the structured-grid API,
// as identified by a concrete index-offset convention.  Structured kernels
// iterate over a two-dimensional index space.
func (p *Metadata) Structured() bool {
	return p.offset != OffsetAny
}

// MaxStencilExtent returns the largest stencil extent declared by any
// argument, or zero when no argument declares a stencil.
func (p *Metadata) MaxStencilExtent() uint {
	var max uint
	//
	for _, arg := range p.args {
		if arg.Stencil.HasValue() && arg.Stencil.Unwrap().Extent > max {
			max = arg.Stencil.Unwrap().Extent
		}
	}
	//
	return max
}

// IterationSpace derives the class of entities this kernel iterates over.  A
// kernel iterates over the whole domain exactly when it declares no stencil
// and no operator or discontinuous-space argument; otherwise it is restricted
// to the interior, extended by the halo depth its stencils require.
func (p *Metadata) IterationSpace() IterationSpace {
	var (
		interior bool
		depth    = p.MaxStencilExtent()
	)
	//
	for _, arg := range p.args {
		switch {
		case arg.Role == OperatorArg:
			interior = true
		case arg.Role == FieldArg && IsDiscontinuous(arg.Space):
			interior = true
		}
	}
	//
	if depth > 0 || interior {
		return IterationSpace{IterInterior, depth}
	}
	//
	return IterationSpace{IterWholeDomain, 0}
}

// Signature renders a canonical description of this kernel's declared
// interface, used to detect conflicting re-registrations.
func (p *Metadata) Signature() string {
	var builder strings.Builder
	//
	builder.WriteString(p.name)
	builder.WriteString("[")
	//
	for i, arg := range p.args {
		if i != 0 {
			builder.WriteString(",")
		}
		//
		builder.WriteString(arg.String())
	}
	//
	builder.WriteString("]")
	builder.WriteString(p.offset.String())
	builder.WriteString(":")
	builder.WriteString(strings.Join(p.routines, ","))
	//
	return builder.String()
}

func (p *Metadata) updatesSomething() bool {
	for _, arg := range p.args {
		if arg.Access.Writes() || arg.Access.IsReduction() {
			return true
		}
	}
	//
	return false
}
