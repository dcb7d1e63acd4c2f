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
package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.NoError(t, cfg.Validate())
	assert.True(t, cfg.DistributedMemory)
	assert.False(t, cfg.ReproducibleReductions)
	assert.Equal(t, uint(DefaultReproductionPad), cfg.ReproductionPad)
	assert.Equal(t, uint(8), cfg.KindMap["r_def"])
	assert.Equal(t, "read", cfg.AccessMap["gh_read"])
}

func TestLoad(t *testing.T) {
	filename := writeConfig(t, `
distributed_memory: false
reproducible_reductions: true
kind_map:
  r_def: 8
  r_solver: 4
`)

	cfg, err := Load(filename)
	require.NoError(t, err)
	// Overridden fields
	assert.False(t, cfg.DistributedMemory)
	assert.True(t, cfg.ReproducibleReductions)
	assert.Equal(t, uint(4), cfg.KindMap["r_solver"])
	// Defaulted fields
	assert.Equal(t, uint(DefaultReproductionPad), cfg.ReproductionPad)
	assert.Equal(t, "sum", cfg.AccessMap["gh_sum"])
}

func TestLoad_DefaultsUntouched(t *testing.T) {
	filename := writeConfig(t, "{}\n")

	cfg, err := Load(filename)
	require.NoError(t, err)
	// An empty document changes nothing.
	assert.Empty(t, cmp.Diff(Default(), cfg))
}

func TestLoad_Malformed(t *testing.T) {
	filename := writeConfig(t, "kind_map: [not, a, map]\n")

	_, err := Load(filename)
	assert.Error(t, err)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errs   int
	}{
		{"valid", func(cfg *Config) {}, 0},
		{"empty kind map", func(cfg *Config) { cfg.KindMap = nil }, 1},
		{"zero width kind", func(cfg *Config) { cfg.KindMap["r_def"] = 0 }, 1},
		{"unknown access mode", func(cfg *Config) { cfg.AccessMap["gh_read"] = "peruse" }, 1},
		{"zero padding", func(cfg *Config) {
			cfg.ReproducibleReductions = true
			cfg.ReproductionPad = 0
		}, 1},
		{"zero space bound", func(cfg *Config) { cfg.MaxAnySpaces = 0 }, 1},
		{"multiple failures", func(cfg *Config) {
			cfg.KindMap["i_def"] = 0
			cfg.MaxAnyDiscontinuousSpaces = 0
		}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()

			if tt.errs == 0 {
				assert.NoError(t, err)
			} else {
				assert.Len(t, multierr.Errors(err), tt.errs)
			}
		})
	}
}

func TestError_Code(t *testing.T) {
	cfg := Default()
	cfg.KindMap = nil

	errs := multierr.Errors(cfg.Validate())
	require.Len(t, errs, 1)

	coded, ok := errs[0].(interface{ Code() string })
	require.True(t, ok)
	assert.Equal(t, "ConfigurationError", coded.Code())
}

func writeConfig(t *testing.T, contents string) string {
	t.Helper()

	filename := filepath.Join(t.TempDir(), "psykal.yaml")
	require.NoError(t, os.WriteFile(filename, []byte(contents), 0644))

	return filename
}
