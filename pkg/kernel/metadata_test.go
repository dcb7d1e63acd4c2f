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

	"github.com/psykal-project/psykal/pkg/config"
	"github.com/psykal-project/psykal/pkg/frontend"
	"github.com/psykal-project/psykal/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func arg(role string, space string, access string) frontend.ArgDecl {
	return frontend.ArgDecl{
		Role:    role,
		Space:   space,
		Access:  access,
		Stencil: util.None[frontend.StencilDecl](),
	}
}

func stencilArg(space string, shape string, extent uint) frontend.ArgDecl {
	decl := arg("field", space, "gh_read")
	decl.Stencil = util.Some(frontend.StencilDecl{Shape: shape, Extent: extent})

	return decl
}

func parseKernel(t *testing.T, decl frontend.KernelDecl) *Metadata {
	t.Helper()

	md, err := Parse(decl, config.Default())
	require.NoError(t, err)

	return md
}

func TestParse(t *testing.T) {
	md := parseKernel(t, frontend.KernelDecl{
		Name: "testkern_type",
		Args: []frontend.ArgDecl{
			arg("scalar", "", "gh_read"),
			arg("field", "w1", "gh_inc"),
			stencilArg("w3", "cross", 2),
		},
		Routines: []string{"testkern_code"},
	})

	assert.Equal(t, "testkern_type", md.Name())
	assert.Equal(t, 3, md.Arity())
	assert.Equal(t, OffsetAny, md.Offset())
	assert.Equal(t, []string{"testkern_code"}, md.Routines())
	assert.False(t, md.Structured())
	assert.False(t, md.IteratesOverDofs())
	assert.Equal(t, uint(2), md.MaxStencilExtent())

	args := md.Args()
	assert.Equal(t, ScalarArg, args[0].Role)
	assert.Equal(t, Increment, args[1].Access)
	require.True(t, args[2].Stencil.HasValue())
	assert.Equal(t, Stencil{CrossStencil, 2}, args[2].Stencil.Unwrap())
}

func TestParse_Structured(t *testing.T) {
	md := parseKernel(t, frontend.KernelDecl{
		Name:     "compute_cu_type",
		Args:     []frontend.ArgDecl{arg("field", "cu", "gh_write"), arg("field", "ct", "gh_read")},
		Offset:   "sw",
		Routines: []string{"compute_cu_code"},
	})

	assert.True(t, md.Structured())
	assert.Equal(t, OffsetSW, md.Offset())
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		decl frontend.KernelDecl
		errs int
	}{
		{
			"no name",
			frontend.KernelDecl{Args: []frontend.ArgDecl{arg("field", "w1", "gh_inc")}},
			1,
		},
		{
			"no arguments",
			frontend.KernelDecl{Name: "k"},
			1,
		},
		{
			"unknown role",
			frontend.KernelDecl{Name: "k", Args: []frontend.ArgDecl{
				arg("matrix", "w1", "gh_inc"),
			}},
			1,
		},
		{
			"unknown access",
			frontend.KernelDecl{Name: "k", Args: []frontend.ArgDecl{
				arg("field", "w1", "gh_update"),
			}},
			1,
		},
		{
			"unknown offset",
			frontend.KernelDecl{Name: "k", Offset: "nw", Args: []frontend.ArgDecl{
				arg("field", "cu", "gh_write"),
			}},
			1,
		},
		{
			"scalar written",
			frontend.KernelDecl{Name: "k", Args: []frontend.ArgDecl{
				arg("scalar", "", "gh_write"),
			}},
			1,
		},
		{
			"operator incremented",
			frontend.KernelDecl{Name: "k", Args: []frontend.ArgDecl{
				arg("operator", "w2", "gh_inc"),
			}},
			1,
		},
		{
			"field summed",
			frontend.KernelDecl{Name: "k", Args: []frontend.ArgDecl{
				arg("field", "w1", "gh_sum"),
			}},
			1,
		},
		{
			"empty space",
			frontend.KernelDecl{Name: "k", Args: []frontend.ArgDecl{
				arg("field", "", "gh_inc"),
			}},
			1,
		},
		{
			"placeholder out of bounds",
			frontend.KernelDecl{Name: "k", Args: []frontend.ArgDecl{
				arg("field", "any_space_11", "gh_inc"),
			}},
			1,
		},
		{
			"updates nothing",
			frontend.KernelDecl{Name: "k", Args: []frontend.ArgDecl{
				arg("field", "w1", "gh_read"),
			}},
			1,
		},
		{
			"stencil on written field",
			frontend.KernelDecl{Name: "k", Args: func() []frontend.ArgDecl {
				decl := stencilArg("w3", "cross", 1)
				decl.Access = "gh_readwrite"
				return []frontend.ArgDecl{decl}
			}()},
			1,
		},
		{
			"unknown stencil shape",
			frontend.KernelDecl{Name: "k", Args: []frontend.ArgDecl{
				arg("field", "w1", "gh_inc"),
				stencilArg("w3", "diamond", 1),
			}},
			1,
		},
		{
			"several failures reported",
			frontend.KernelDecl{Name: "k", Args: []frontend.ArgDecl{
				arg("matrix", "w1", "gh_update"),
				arg("field", "w2", "gh_inc"),
			}},
			2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.decl, config.Default())
			require.Error(t, err)
			assert.Len(t, multierr.Errors(err), tt.errs)
		})
	}
}

func TestParse_ErrorCode(t *testing.T) {
	_, err := Parse(frontend.KernelDecl{Name: "k"}, config.Default())
	require.Error(t, err)

	errs := multierr.Errors(err)
	require.NotEmpty(t, errs)

	coded, ok := errs[0].(interface{ Code() string })
	require.True(t, ok)
	assert.Equal(t, "InvalidKernelMetadataError", coded.Code())
}

// A kernel iterates over the whole domain exactly when it declares no stencil
// and no operator or discontinuous-space field argument.
func TestIterationSpace(t *testing.T) {
	tests := []struct {
		name  string
		args  []frontend.ArgDecl
		space IterationSpace
	}{
		{
			"continuous fields only",
			[]frontend.ArgDecl{arg("field", "w1", "gh_inc"), arg("field", "w2", "gh_read")},
			IterationSpace{IterWholeDomain, 0},
		},
		{
			"discontinuous field",
			[]frontend.ArgDecl{arg("field", "w3", "gh_write")},
			IterationSpace{IterInterior, 0},
		},
		{
			"operator",
			[]frontend.ArgDecl{arg("operator", "w2", "gh_write"), arg("field", "w1", "gh_read")},
			IterationSpace{IterInterior, 0},
		},
		{
			"stencil",
			[]frontend.ArgDecl{arg("field", "w1", "gh_inc"), stencilArg("w2", "cross", 3)},
			IterationSpace{IterInterior, 3},
		},
		{
			"widest stencil wins",
			[]frontend.ArgDecl{
				arg("field", "w1", "gh_inc"),
				stencilArg("w2", "cross", 1),
				stencilArg("w0", "region", 4),
			},
			IterationSpace{IterInterior, 4},
		},
		{
			"any-space placeholder stays whole-domain",
			[]frontend.ArgDecl{arg("field", "any_space_1", "gh_inc")},
			IterationSpace{IterWholeDomain, 0},
		},
		{
			"discontinuous placeholder restricts",
			[]frontend.ArgDecl{arg("field", "any_discontinuous_space_1", "gh_write")},
			IterationSpace{IterInterior, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			md := parseKernel(t, frontend.KernelDecl{Name: "k", Args: tt.args})
			assert.True(t, tt.space.Equal(md.IterationSpace()),
				"expected %s but got %s", tt.space, md.IterationSpace())
		})
	}
}

func TestAccessMode(t *testing.T) {
	tests := []struct {
		mode      AccessMode
		reads     bool
		writes    bool
		reduction bool
		strength  uint
	}{
		{Read, true, false, false, 0},
		{Write, false, true, false, 2},
		{ReadWrite, true, true, false, 1},
		{Increment, true, true, false, 1},
		{ReadIncrement, true, true, false, 1},
		{Sum, false, false, true, 0},
	}

	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			assert.Equal(t, tt.reads, tt.mode.RequiresRead())
			assert.Equal(t, tt.writes, tt.mode.Writes())
			assert.Equal(t, tt.reduction, tt.mode.IsReduction())
			assert.Equal(t, tt.strength, tt.mode.DirtyingStrength())
		})
	}
}

func TestParseAccess(t *testing.T) {
	cfg := config.Default()

	// Canonical names are always accepted.
	mode, ok := ParseAccess("readwrite", cfg)
	assert.True(t, ok)
	assert.Equal(t, ReadWrite, mode)
	// As are the tokens of the configured mapping.
	mode, ok = ParseAccess("gh_readinc", cfg)
	assert.True(t, ok)
	assert.Equal(t, ReadIncrement, mode)
	//
	_, ok = ParseAccess("gh_update", cfg)
	assert.False(t, ok)
}

func TestIsDiscontinuous(t *testing.T) {
	assert.True(t, IsDiscontinuous("w3"))
	assert.True(t, IsDiscontinuous("wtheta"))
	assert.True(t, IsDiscontinuous("cu"))
	assert.True(t, IsDiscontinuous("any_discontinuous_space_3"))
	assert.False(t, IsDiscontinuous("w1"))
	assert.False(t, IsDiscontinuous("any_space_1"))
}

func TestValidateSpace(t *testing.T) {
	cfg := config.Default()

	assert.Empty(t, ValidateSpace("w1", cfg))
	assert.Empty(t, ValidateSpace("any_space_10", cfg))
	assert.NotEmpty(t, ValidateSpace("", cfg))
	assert.NotEmpty(t, ValidateSpace("any_space_0", cfg))
	assert.NotEmpty(t, ValidateSpace("any_space_11", cfg))
	assert.NotEmpty(t, ValidateSpace("any_discontinuous_space_x", cfg))
}
