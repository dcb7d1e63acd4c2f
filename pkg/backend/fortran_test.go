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
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psykal-project/psykal/pkg/builder"
	"github.com/psykal-project/psykal/pkg/config"
	"github.com/psykal-project/psykal/pkg/frontend"
	"github.com/psykal-project/psykal/pkg/kernel"
	"github.com/psykal-project/psykal/pkg/psyir"
	"github.com/psykal-project/psykal/pkg/psyir/symbols"
	"github.com/psykal-project/psykal/pkg/source"
)

// Compile a single invocation unit into its schedule.
func compileOne(t *testing.T, cfg *config.Config, input string) *psyir.Tree {
	t.Helper()

	program, errs := frontend.ParseProgram(source.NewFile("alg.psy", []byte(input)))
	require.Empty(t, errs)

	trees, errs := builder.Compile(program, cfg)
	require.Empty(t, errs)
	require.Len(t, trees, 1)

	return trees[0]
}

// A stencil kernel followed by a sum builtin, exercising halo-exchange calls,
// cell and dof loops and a global reduction in one routine.
func TestGenerate_MeshSchedule(t *testing.T) {
	tree := compileOne(t, config.Default(), `
(kernel k1_type
  (arg field w3 gh_write)
  (arg field w3 gh_read (stencil cross 2)))
(var f1 field field r_def)
(var f2 field field r_def)
(var a scalar real r_def)
(invoke invoke_0 (call k1_type f1 f2) (call sum_x a f1))
`)

	text, err := NewFortranWriter().Generate(tree)
	require.NoError(t, err)

	assert.Contains(t, text, "call f2%halo_exchange(depth=2)")
	assert.Contains(t, text, "do cell = 1, mesh%get_last_owned_cell()")
	assert.Contains(t, text, "do df = 1, mesh%get_last_dof()")
	assert.Contains(t, text, "real(kind=r_def) :: a_partial(1)")
	assert.Contains(t, text, "a = sum(a_partial(1:1))")
	assert.Contains(t, text, "call global_sum(a)")

	g := goldie.New(t)
	g.Assert(t, "mesh_schedule", []byte(text))
}

// A structured-grid kernel under a reproducible parallel-do directive.
func TestGenerate_StructuredSchedule(t *testing.T) {
	tree := compileOne(t, config.Default(), `
(kernel compute_cu_type
  (arg field cu gh_write)
  (arg field ct gh_read)
  (offset sw))
(var cu_fld field field r_def)
(var p_fld field field r_def)
(invoke invoke_0 (call compute_cu_type cu_fld p_fld))
`)

	loops := tree.Loops(tree.Root())
	require.Len(t, loops, 2)
	tree.WrapInDirective(loops[0], psyir.Directive{Kind: psyir.ParallelDoDirective, Reproducible: true})

	text, err := NewFortranWriter().Generate(tree)
	require.NoError(t, err)

	assert.Contains(t, text, "!$omp parallel do schedule(static)")
	assert.Contains(t, text, "do j = grid%internal%ystart, grid%internal%ystop")
	assert.Contains(t, text, "do i = grid%internal%xstart, grid%internal%xstop")
	assert.Contains(t, text, "!$omp end parallel do")

	g := goldie.New(t)
	g.Assert(t, "structured_schedule", []byte(text))
}

// Redundant computation renders its halo-depth loop bound.
func TestGenerate_HaloBound(t *testing.T) {
	tree := compileOne(t, config.Default(), `
(kernel k1_type (arg field w3 gh_readwrite))
(var f1 field field r_def)
(invoke invoke_0 (call k1_type f1))
`)

	loop := tree.Loops(tree.Root())[0]
	tree.Loop(loop).Stop = psyir.Bound{Kind: psyir.BoundLastHalo, Depth: 2}

	text, err := NewFortranWriter().Generate(tree)
	require.NoError(t, err)

	assert.Contains(t, text, "do cell = 1, mesh%get_last_cell(depth=2)")
}

// Generation refuses a schedule which fails consistency checking.
func TestGenerate_InvalidSchedule(t *testing.T) {
	table := symbols.NewSymbolTable(config.Default())
	cell, err := table.Declare("cell", symbols.IntegerType, "i_def", nil)
	require.NoError(t, err)

	alien := symbols.NewSymbolTable(config.Default())
	f1, err := alien.Declare("f1", symbols.DeferredType, "r_def", nil)
	require.NoError(t, err)

	md, ok := kernel.NewBuiltinRegistry().Lookup("setval_c")
	require.True(t, ok)

	tree := psyir.NewTree(psyir.Schedule{Name: "invoke_0", Table: table})
	loop := tree.AppendLoop(tree.Root(), psyir.Loop{
		Variable: cell,
		Entity:   psyir.CellLoop,
		Start:    psyir.Bound{Kind: psyir.BoundFirst},
		Stop:     psyir.Bound{Kind: psyir.BoundLastOwned},
		Space:    md.IterationSpace(),
	})
	call := tree.AppendKernelCall(loop, psyir.KernelCall{Kernel: md})
	tree.AppendReference(call, psyir.Reference{Symbol: f1})
	tree.AppendLiteral(call, psyir.Literal{Value: "0.0", Type: symbols.RealType})

	_, err = NewFortranWriter().Generate(tree)
	require.ErrorContains(t, err, "inconsistent schedule")
}
