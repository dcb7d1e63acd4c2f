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
	"testing"

	"github.com/psykal-project/psykal/pkg/frontend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKernel(t *testing.T, name string, space string) *Metadata {
	t.Helper()

	return parseKernel(t, frontend.KernelDecl{
		Name: name,
		Args: []frontend.ArgDecl{arg("field", space, "gh_inc")},
	})
}

func TestRegistry_Register(t *testing.T) {
	registry := NewRegistry()
	md := testKernel(t, "k1", "w1")

	require.NoError(t, registry.Register(md))

	found, ok := registry.Lookup("k1")
	require.True(t, ok)
	assert.Same(t, md, found)

	_, ok = registry.Lookup("k2")
	assert.False(t, ok)
}

// Registering identical metadata twice is a no-op; the first entry wins and
// every later call site shares it.
func TestRegistry_RegisterIdentical(t *testing.T) {
	registry := NewRegistry()
	first := testKernel(t, "k1", "w1")
	second := testKernel(t, "k1", "w1")

	require.NoError(t, registry.Register(first))
	require.NoError(t, registry.Register(second))

	found, _ := registry.Lookup("k1")
	assert.Same(t, first, found)
	assert.Equal(t, []string{"k1"}, registry.Names())
}

func TestRegistry_RegisterConflicting(t *testing.T) {
	registry := NewRegistry()

	require.NoError(t, registry.Register(testKernel(t, "k1", "w1")))
	err := registry.Register(testKernel(t, "k1", "w2"))
	require.Error(t, err)

	redef, ok := err.(*RedefinitionError)
	require.True(t, ok)
	assert.Equal(t, "KernelRedefinitionError", redef.Code())
}

func TestRegistry_Freeze(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Register(testKernel(t, "k1", "w1")))

	registry.Freeze()
	// Lookups still work after freezing.
	_, ok := registry.Lookup("k1")
	assert.True(t, ok)
	// Further registration does not.
	assert.Panics(t, func() { _ = registry.Register(testKernel(t, "k2", "w1")) })
}

func TestBuiltinRegistry(t *testing.T) {
	registry := NewBuiltinRegistry()

	setval, ok := registry.Lookup("setval_c")
	require.True(t, ok)
	assert.True(t, setval.IteratesOverDofs())
	assert.False(t, setval.Location().IsKnown())
	assert.Equal(t, []string{"setval_c_code"}, setval.Routines())
	// Discontinuous first argument restricts iteration to the interior.
	assert.True(t, setval.IterationSpace().Equal(IterationSpace{IterInterior, 0}))

	sum, ok := registry.Lookup("sum_x")
	require.True(t, ok)
	assert.Equal(t, Sum, sum.Args()[0].Access)
	// Generic-space reads leave the whole domain available.
	assert.True(t, sum.IterationSpace().Equal(IterationSpace{IterWholeDomain, 0}))

	inc, ok := registry.Lookup("inc_x_plus_y")
	require.True(t, ok)
	assert.Equal(t, Increment, inc.Args()[0].Access)
}
