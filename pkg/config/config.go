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
	"fmt"
	"os"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// DefaultReproductionPad is the padding applied to the working array of a
// reproducible reduction when no explicit value is configured.  Padding the
// per-thread partial sums out to separate cache lines fixes the summation
// order independently of how many threads execute the loop.
const DefaultReproductionPad = 7

// CanonicalAccesses is the closed set of access-mode names which the values of
// the access-mapping section must be drawn from.
var CanonicalAccesses = []string{
	"read", "write", "readwrite", "increment", "read_increment", "sum",
}

// Config holds all process-wide settings consumed by the schedule builder, the
// dependence analyzer and the transformation engine.  It is loaded exactly
// once, validated, and treated as immutable thereafter: components receive it
// by reference through their constructors and never write to it.
type Config struct {
	// DistributedMemory determines whether generated schedules target a
	// distributed-memory machine.  When false, no halo exchanges or
	// cross-rank reductions are ever produced.
	DistributedMemory bool `yaml:"distributed_memory"`
	// ReproducibleReductions requests bitwise-reproducible reduction results
	// across runs with differing thread counts, at the cost of a padded
	// working array per reduction.
	ReproducibleReductions bool `yaml:"reproducible_reductions"`
	// ReproductionPad is the number of padding elements added to the working
	// array of each reproducible reduction.
	ReproductionPad uint `yaml:"reproduction_padding"`
	// ComputeAnnexedDofs determines whether kernels which write to fields
	// also compute the annexed degrees of freedom shared with neighbouring
	// partitions, removing the need to exchange them before a subsequent
	// read.
	ComputeAnnexedDofs bool `yaml:"compute_annexed_dofs"`
	// RunTimeChecks requests that the generated layer include run-time
	// consistency checks (e.g. on function-space identity).
	RunTimeChecks bool `yaml:"run_time_checks"`
	// MaxAnySpaces bounds the number of generic ("any space") function-space
	// placeholders a kernel may declare.
	MaxAnySpaces uint `yaml:"num_any_spaces"`
	// MaxAnyDiscontinuousSpaces bounds the number of generic discontinuous
	// function-space placeholders a kernel may declare.
	MaxAnyDiscontinuousSpaces uint `yaml:"num_any_discontinuous_spaces"`
	// KindMap maps each supported precision tag (e.g. "r_def") to a concrete
	// byte width.  Code generation cannot proceed for a tag absent from this
	// map.
	KindMap map[string]uint `yaml:"kind_map"`
	// AccessMap maps each access-mode token accepted in kernel metadata
	// (e.g. "gh_read") to its canonical access-mode name.
	AccessMap map[string]string `yaml:"access_map"`
}

// Default returns the configuration used when no configuration file is
// supplied.  The kind and access maps follow the conventions of the
// finite-element target API.
func Default() *Config {
	return &Config{
		DistributedMemory:         true,
		ReproducibleReductions:    false,
		ReproductionPad:           DefaultReproductionPad,
		ComputeAnnexedDofs:        false,
		RunTimeChecks:             false,
		MaxAnySpaces:              10,
		MaxAnyDiscontinuousSpaces: 10,
		KindMap: map[string]uint{
			"r_def":    8,
			"r_single": 4,
			"r_double": 8,
			"r_tran":   8,
			"i_def":    4,
			"l_def":    4,
		},
		AccessMap: map[string]string{
			"gh_read":      "read",
			"gh_write":     "write",
			"gh_readwrite": "readwrite",
			"gh_inc":       "increment",
			"gh_readinc":   "read_increment",
			"gh_sum":       "sum",
		},
	}
}

// Load reads and validates a configuration file, falling back to the given
// default for any field the file omits.  Any validation failure is fatal:
// no schedule may be built from a configuration which did not validate.
func Load(filename string) (*Config, error) {
	bytes, err := os.ReadFile(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "reading configuration %s", filename)
	}
	//
	cfg := Default()
	//
	if err := yaml.Unmarshal(bytes, cfg); err != nil {
		return nil, &Error{fmt.Sprintf("malformed configuration %s: %v", filename, err)}
	}
	// Validate before anything downstream sees it.
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	//
	return cfg, nil
}

// Validate applies all internal consistency checks to this configuration,
// accumulating every failure rather than stopping at the first.
func (p *Config) Validate() error {
	var err error
	//
	if len(p.KindMap) == 0 {
		err = multierr.Append(err, &Error{"kind map is empty"})
	}
	//
	for tag, width := range p.KindMap {
		if width == 0 {
			err = multierr.Append(err, &Error{fmt.Sprintf("kind %q maps to zero width", tag)})
		}
	}
	//
	for token, canonical := range p.AccessMap {
		if !isCanonicalAccess(canonical) {
			err = multierr.Append(err,
				&Error{fmt.Sprintf("access token %q maps to unknown mode %q", token, canonical)})
		}
	}
	//
	if p.ReproducibleReductions && p.ReproductionPad == 0 {
		err = multierr.Append(err, &Error{"reproducible reductions require a non-zero padding"})
	}
	//
	if p.MaxAnySpaces == 0 || p.MaxAnyDiscontinuousSpaces == 0 {
		err = multierr.Append(err, &Error{"generic function-space bounds must be non-zero"})
	}
	//
	return err
}

// Error signals a malformed or missing configuration value.  Configuration
// errors are fatal and reported before any schedule is built.
type Error struct {
	// Details of the failure.
	msg string
}

// Code returns the stable error-kind tag for configuration errors.
func (p *Error) Code() string {
	return "ConfigurationError"
}

func (p *Error) Error() string {
	return fmt.Sprintf("configuration error: %s", p.msg)
}

func isCanonicalAccess(name string) bool {
	for _, c := range CanonicalAccesses {
		if c == name {
			return true
		}
	}
	//
	return false
}
