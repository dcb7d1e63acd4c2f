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
	"testing"

	"github.com/psykal-project/psykal/pkg/builder"
	"github.com/psykal-project/psykal/pkg/config"
	"github.com/psykal-project/psykal/pkg/frontend"
	"github.com/psykal-project/psykal/pkg/psyir"
	"github.com/psykal-project/psykal/pkg/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
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

// Two independent pointwise kernels on a discontinuous space, producing two
// adjacent interior loops.
const twoLoopAlg = `
(kernel k1_type (arg field w3 gh_readwrite))
(kernel k2_type (arg field w3 gh_readwrite))
(var f1 field field r_def)
(var f2 field field r_def)
(invoke invoke_0 (call k1_type f1) (call k2_type f2))
`

func TestParallelizeLoop(t *testing.T) {
	cfg := config.Default()
	tree := compileOne(t, cfg, `
(kernel k1_type (arg field w3 gh_readwrite))
(var f1 field field r_def)
(invoke invoke_0 (call k1_type f1))
`)

	loop := tree.Loops(tree.Root())[0]
	trans := NewParallelizeLoop(cfg)

	require.NoError(t, trans.Validate(tree, loop))
	require.NoError(t, trans.Apply(tree, loop))
	// The loop is now wrapped in a parallel-do directive.
	directive := tree.Parent(loop)
	require.Equal(t, psyir.KindDirective, tree.Kind(directive))
	assert.Equal(t, psyir.ParallelDoDirective, tree.Directive(directive).Kind)
	assert.False(t, tree.Directive(directive).Reproducible)
	assert.Empty(t, tree.Validate())
	// Re-applying to the wrapped loop fails the precondition; the tree is
	// left untouched.
	err := trans.Apply(tree, loop)
	require.Error(t, err)

	violation, ok := err.(*DependencyViolationError)
	require.True(t, ok)
	assert.Equal(t, "DependencyViolationError", violation.Code())
	assert.Equal(t, directive, tree.Parent(loop))
}

// A field written and stencil-read within one loop races between concurrent
// iterations, so parallelization must refuse it.
func TestParallelizeLoop_StencilConflict(t *testing.T) {
	cfg := config.Default()
	tree := compileOne(t, cfg, `
(kernel k1_type
  (arg field w3 gh_write)
  (arg field w3 gh_read (stencil cross 1)))
(var f1 field field r_def)
(invoke invoke_0 (call k1_type f1 f1))
`)

	loop := tree.Loops(tree.Root())[0]
	err := NewParallelizeLoop(cfg).Validate(tree, loop)
	require.Error(t, err)

	_, ok := err.(*DependencyViolationError)
	assert.True(t, ok)
}

func TestParallelizeLoop_Reduction(t *testing.T) {
	alg := `
(var f1 field field r_def)
(var a scalar real r_def)
(invoke invoke_0 (call sum_x a f1))
`

	t.Run("refused without a synchronization strategy", func(t *testing.T) {
		cfg := config.Default()
		tree := compileOne(t, cfg, alg)

		loop := tree.Loops(tree.Root())[0]
		err := NewParallelizeLoop(cfg).Validate(tree, loop)
		require.Error(t, err)

		_, ok := err.(*DependencyViolationError)
		assert.True(t, ok)
	})

	t.Run("reproducible strategy carries onto the directive", func(t *testing.T) {
		cfg := config.Default()
		cfg.ReproducibleReductions = true
		tree := compileOne(t, cfg, alg)

		loop := tree.Loops(tree.Root())[0]
		require.NoError(t, NewParallelizeLoop(cfg).Apply(tree, loop))

		directive := tree.Parent(loop)
		require.Equal(t, psyir.KindDirective, tree.Kind(directive))
		assert.True(t, tree.Directive(directive).Reproducible)
	})
}

func TestFuseLoops(t *testing.T) {
	cfg := config.Default()
	tree := compileOne(t, cfg, twoLoopAlg)

	loops := tree.Loops(tree.Root())
	require.Len(t, loops, 2)

	trans := NewFuseLoops()
	require.NoError(t, trans.Validate(tree, loops[0], loops[1]))
	require.NoError(t, trans.Apply(tree, loops[0], loops[1]))
	// One loop remains, carrying both calls in order.
	remaining := tree.Loops(tree.Root())
	require.Len(t, remaining, 1)

	calls := tree.KernelCalls(tree.Root())
	require.Len(t, calls, 2)
	assert.Equal(t, "k1_type", tree.KernelCall(calls[0]).Kernel.Name())
	assert.Equal(t, "k2_type", tree.KernelCall(calls[1]).Kernel.Name())
	assert.Empty(t, tree.Validate())
}

func TestFuseLoops_IncompatibleBounds(t *testing.T) {
	cfg := config.Default()
	// A cell loop over the interior followed by a dof loop over the whole
	// domain: nothing about these is fusable.
	tree := compileOne(t, cfg, `
(kernel k1_type (arg field w3 gh_readwrite))
(var f1 field field r_def)
(invoke invoke_0 (call k1_type f1) (call setval_c f1 0.0))
`)

	loops := tree.Loops(tree.Root())
	require.Len(t, loops, 2)

	err := NewFuseLoops().Validate(tree, loops[0], loops[1])
	require.Error(t, err)

	bounds, ok := err.(*IncompatibleLoopBoundsError)
	require.True(t, ok)
	assert.Equal(t, "IncompatibleLoopBoundsError", bounds.Code())
	// The tree is untouched.
	assert.Len(t, tree.Loops(tree.Root()), 2)
}

// Fusion must refuse to move a stencil read into the loop producing its
// operand.
func TestFuseLoops_DependenceConflict(t *testing.T) {
	cfg := config.Default()
	// Shared memory only, so no halo exchange separates the two loops.
	cfg.DistributedMemory = false
	tree := compileOne(t, cfg, `
(kernel k_write_type
  (arg field w3 gh_readwrite)
  (arg field w3 gh_read (stencil cross 1)))
(kernel k_read_type
  (arg field w3 gh_readwrite)
  (arg field w3 gh_read (stencil cross 1)))
(var f1 field field r_def)
(var f2 field field r_def)
(var f3 field field r_def)
(invoke invoke_0 (call k_write_type f1 f3) (call k_read_type f2 f1))
`)

	loops := tree.Loops(tree.Root())
	require.Len(t, loops, 2)

	err := NewFuseLoops().Validate(tree, loops[0], loops[1])
	require.Error(t, err)

	_, ok := err.(*DependencyViolationError)
	assert.True(t, ok)
}

func TestInlineKernel(t *testing.T) {
	cfg := config.Default()
	tree := compileOne(t, cfg, `
(kernel k1_type (arg field w3 gh_readwrite))
(var f1 field field r_def)
(invoke invoke_0 (call k1_type f1))
`)

	call := tree.KernelCalls(tree.Root())[0]
	trans := NewInlineKernel()

	require.NoError(t, trans.Apply(tree, call))

	payload := tree.KernelCall(call)
	assert.True(t, payload.Inlined())
	assert.Equal(t, "k1_type_code", payload.InlinedRoutine)
	// The implementation symbol now lives in the schedule scope.
	table := tree.Schedule(tree.Root()).Table
	_, err := table.Resolve("k1_type_code")
	assert.NoError(t, err)
	// Inlining twice is refused.
	err = trans.Apply(tree, call)
	require.Error(t, err)

	noninline, ok := err.(*NonInlinableKernelError)
	require.True(t, ok)
	assert.Equal(t, "NonInlinableKernelError", noninline.Code())
}

func TestInlineKernel_MixedPrecision(t *testing.T) {
	cfg := config.Default()
	tree := compileOne(t, cfg, `
(kernel k1_type
  (arg field w3 gh_readwrite)
  (routines k1_code k1_r64_code))
(var f1 field field r_def)
(invoke invoke_0 (call k1_type f1))
`)

	call := tree.KernelCalls(tree.Root())[0]
	err := NewInlineKernel().Validate(tree, call)
	require.Error(t, err)

	_, ok := err.(*NonInlinableKernelError)
	assert.True(t, ok)
}

// Extending the writing loop into the halo removes the exchange the
// downstream stencil read would otherwise need.
func TestRedundantComputation(t *testing.T) {
	cfg := config.Default()
	tree := compileOne(t, cfg, `
(kernel k_write_type (arg field w3 gh_write))
(kernel k_read_type
  (arg field w3 gh_readwrite)
  (arg field w3 gh_read (stencil cross 1)))
(var f1 field field r_def)
(var f2 field field r_def)
(invoke invoke_0 (call k_write_type f1) (call k_read_type f2 f1))
`)

	require.Len(t, haloExchanges(tree), 1)

	loop := tree.Loops(tree.Root())[0]
	require.NoError(t, NewRedundantComputation(cfg, 2).Apply(tree, loop))

	// The writing loop now iterates into the halo...
	stop := tree.Loop(loop).Stop
	assert.True(t, stop.Equal(psyir.Bound{Kind: psyir.BoundLastHalo, Depth: 2}))
	// ...so the downstream read finds its halo layer already clean.
	assert.Empty(t, haloExchanges(tree))
	assert.Empty(t, tree.Validate())
}

func TestRedundantComputation_Validate(t *testing.T) {
	cfg := config.Default()
	tree := compileOne(t, cfg, `
(kernel k1_type (arg field w3 gh_readwrite))
(var f1 field field r_def)
(invoke invoke_0 (call k1_type f1))
`)
	loop := tree.Loops(tree.Root())[0]

	t.Run("requires distributed memory", func(t *testing.T) {
		local := config.Default()
		local.DistributedMemory = false

		err := NewRedundantComputation(local, 2).Validate(tree, loop)
		assert.Error(t, err)
	})

	t.Run("requires a positive depth", func(t *testing.T) {
		err := NewRedundantComputation(cfg, 0).Validate(tree, loop)
		assert.Error(t, err)
	})

	t.Run("never shrinks the computed depth", func(t *testing.T) {
		require.NoError(t, NewRedundantComputation(cfg, 3).Apply(tree, loop))

		err := NewRedundantComputation(cfg, 2).Validate(tree, loop)
		assert.Error(t, err)
	})
}

func TestPipeline(t *testing.T) {
	cfg := config.Default()

	t.Run("fuse then parallelize", func(t *testing.T) {
		tree := compileOne(t, cfg, twoLoopAlg)

		errs := NewPipeline(cfg, true).Apply(tree, []string{"fuse", "parallelize"})
		require.Empty(t, errs)
		// One directive-wrapped loop carrying both calls.
		top := tree.Children(tree.Root())
		require.Len(t, top, 1)
		assert.Equal(t, psyir.KindDirective, tree.Kind(top[0]))
		assert.Len(t, tree.KernelCalls(tree.Root()), 2)
	})

	t.Run("redundant with depth argument", func(t *testing.T) {
		tree := compileOne(t, cfg, twoLoopAlg)

		errs := NewPipeline(cfg, true).Apply(tree, []string{"redundant:2"})
		require.Empty(t, errs)

		for _, loop := range tree.Loops(tree.Root()) {
			assert.True(t, tree.Loop(loop).Stop.Equal(psyir.Bound{Kind: psyir.BoundLastHalo, Depth: 2}))
		}
	})

	t.Run("unknown pass", func(t *testing.T) {
		tree := compileOne(t, cfg, twoLoopAlg)

		errs := NewPipeline(cfg, true).Apply(tree, []string{"vectorize"})
		require.Len(t, errs, 1)
	})

	t.Run("malformed depth", func(t *testing.T) {
		tree := compileOne(t, cfg, twoLoopAlg)

		errs := NewPipeline(cfg, true).Apply(tree, []string{"redundant:x"})
		require.Len(t, errs, 1)
	})

	t.Run("strict pipeline stops at the first failure", func(t *testing.T) {
		tree := compileOne(t, cfg, twoLoopAlg)

		errs := NewPipeline(cfg, true).Apply(tree, []string{"vectorize", "fuse"})
		require.Len(t, errs, 1)
		// Fuse never ran.
		assert.Len(t, tree.Loops(tree.Root()), 2)
	})

	t.Run("lenient pipeline continues", func(t *testing.T) {
		tree := compileOne(t, cfg, twoLoopAlg)

		errs := NewPipeline(cfg, false).Apply(tree, []string{"vectorize", "fuse"})
		require.Len(t, errs, 1)
		assert.Len(t, tree.Loops(tree.Root()), 1)
	})
}

func haloExchanges(tree *psyir.Tree) []*psyir.HaloExchange {
	var found []*psyir.HaloExchange

	for _, top := range tree.Children(tree.Root()) {
		if tree.Kind(top) == psyir.KindHaloExchange {
			found = append(found, tree.HaloExchange(top))
		}
	}

	return found
}
