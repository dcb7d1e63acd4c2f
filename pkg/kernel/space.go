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
	"strconv"
	"strings"

	"github.com/psykal-project/psykal/pkg/config"
)

// Function spaces on which every degree of freedom belongs to exactly one
// cell.  Writes on these spaces touch no shared entries and, hence, fields on
// them restrict iteration to the interior.
var discontinuousSpaces = map[string]bool{
	"w3":       true,
	"wtheta":   true,
	"w2v":      true,
	"w2vtrace": true,
	"w2broken": true,
	// Structured-grid point types are discontinuous by construction.
	"ct": true,
	"cu": true,
	"cv": true,
	"cf": true,
}

const (
	anySpacePrefix              = "any_space_"
	anyDiscontinuousSpacePrefix = "any_discontinuous_space_"
)

// IsDiscontinuous determines whether a given function space (or grid-point
// type) is discontinuous.  Generic "any discontinuous space" placeholders
// count as discontinuous; generic "any space" placeholders do not, since they
// may stand for a continuous space.
func IsDiscontinuous(space string) bool {
	if strings.HasPrefix(space, anyDiscontinuousSpacePrefix) {
		return true
	}
	//
	return discontinuousSpaces[space]
}

// ValidateSpace checks a declared function-space token, enforcing the
// configured bounds on generic placeholder indices.  An empty result means
// the token is acceptable.
func ValidateSpace(space string, cfg *config.Config) string {
	switch {
	case space == "":
		return "empty function space"
	case strings.HasPrefix(space, anySpacePrefix):
		return validatePlaceholder(space, anySpacePrefix, cfg.MaxAnySpaces)
	case strings.HasPrefix(space, anyDiscontinuousSpacePrefix):
		return validatePlaceholder(space, anyDiscontinuousSpacePrefix, cfg.MaxAnyDiscontinuousSpaces)
	}
	//
	return ""
}

func validatePlaceholder(space string, prefix string, bound uint) string {
	index, err := strconv.ParseUint(strings.TrimPrefix(space, prefix), 10, 32)
	//
	if err != nil || index == 0 {
		return fmt.Sprintf("malformed placeholder space %q", space)
	} else if uint(index) > bound {
		return fmt.Sprintf("placeholder space %q exceeds configured bound %d", space, bound)
	}
	//
	return ""
}

// Offset identifies the backend-specific origin convention for structured
// grid iteration.  Kernels targeting the finite-element API carry OffsetAny.
type Offset int

const (
	// OffsetAny indicates the kernel is insensitive to the index-offset
	// convention (always the case for unstructured meshes).
	OffsetAny Offset = iota
	// OffsetSW places the grid origin at the south-west corner of the cell.
	OffsetSW
	// OffsetNE places the grid origin at the north-east corner of the cell.
	OffsetNE
)

// ParseOffset maps an offset token from kernel metadata onto its convention.
// The empty token denotes OffsetAny.
func ParseOffset(token string) (Offset, bool) {
	switch token {
	case "", "any":
		return OffsetAny, true
	case "sw":
		return OffsetSW, true
	case "ne":
		return OffsetNE, true
	}
	//
	return OffsetAny, false
}

func (o Offset) String() string {
	switch o {
	case OffsetSW:
		return "sw"
	case OffsetNE:
		return "ne"
	}
	//
	return "any"
}
