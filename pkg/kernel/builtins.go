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

	"github.com/psykal-project/psykal/pkg/util"
)

// Builtin kernels are pointwise operations on field data which the algorithm
// layer may call without any accompanying metadata declaration.  Their
// metadata is constructed here, once, and pre-seeded into every registry.
//
// Builtins iterate over degrees of freedom rather than cells, so they never
// carry stencils; their arguments sit on generic spaces.

// NewBuiltinRegistry constructs a registry pre-seeded with the builtin
// kernels.
func NewBuiltinRegistry() *Registry {
	registry := NewRegistry()
	//
	for _, md := range builtins() {
		if err := registry.Register(md); err != nil {
			// Builtin metadata is constructed here, so cannot conflict.
			panic(fmt.Sprintf("invalid builtin: %v", err))
		}
	}
	//
	return registry
}

func builtins() []*Metadata {
	return []*Metadata{
		// f = c
		builtin("setval_c",
			fieldArg("any_discontinuous_space_1", Write),
			scalarArg(Read)),
		// f = g
		builtin("setval_x",
			fieldArg("any_discontinuous_space_1", Write),
			fieldArg("any_discontinuous_space_1", Read)),
		// f = g + h
		builtin("x_plus_y",
			fieldArg("any_discontinuous_space_1", Write),
			fieldArg("any_discontinuous_space_1", Read),
			fieldArg("any_discontinuous_space_1", Read)),
		// f = f + g
		builtin("inc_x_plus_y",
			fieldArg("any_space_1", Increment),
			fieldArg("any_space_1", Read)),
		// f = a * f
		builtin("inc_a_times_x",
			fieldArg("any_space_1", Increment),
			scalarArg(Read)),
		// s = sum(f * g)
		builtin("x_innerproduct_y",
			scalarArg(Sum),
			fieldArg("any_space_1", Read),
			fieldArg("any_space_1", Read)),
		// s = sum(f)
		builtin("sum_x",
			scalarArg(Sum),
			fieldArg("any_space_1", Read)),
	}
}

func builtin(name string, args ...Arg) *Metadata {
	return &Metadata{
		name:     name,
		args:     args,
		offset:   OffsetAny,
		routines: []string{fmt.Sprintf("%s_code", name)},
		overDofs: true,
		// Builtins have no originating declaration.
	}
}

func fieldArg(space string, access AccessMode) Arg {
	return Arg{FieldArg, space, access, util.None[Stencil]()}
}

func scalarArg(access AccessMode) Arg {
	return Arg{ScalarArg, "r_def", access, util.None[Stencil]()}
}
