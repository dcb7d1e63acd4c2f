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
	"github.com/psykal-project/psykal/pkg/config"
)

// AccessMode describes how a kernel accesses one of its arguments, as
// declared in the kernel metadata.  Which accesses are legal depends on the
// argument's role, and the dependence analyzer keys entirely off this
// declaration.
type AccessMode int

const (
	// Read accesses only read the argument.  A read is the only access which
	// may carry a stencil.
	Read AccessMode = iota
	// Write accesses overwrite the argument without reading it.  After a
	// write the halo of the argument is dirty, unless the iteration space of
	// the writing kernel already covered it.
	Write
	// ReadWrite accesses both read and update the argument in place, on a
	// discontinuous space.
	ReadWrite
	// Increment accesses accumulate into the argument on a continuous
	// space, reading and writing the shared degrees of freedom.
	Increment
	// ReadIncrement accesses first read the argument and then accumulate
	// into it.
	ReadIncrement
	// Sum marks a scalar reduction argument.  Sums always require a
	// reduction, regardless of where the access appears in the sequence.
	Sum
)

// ParseAccess maps an access-mode token from kernel metadata onto its
// canonical access mode, consulting the configured access map first.  The
// second result indicates whether the token was recognised at all.
func ParseAccess(token string, cfg *config.Config) (AccessMode, bool) {
	if canonical, ok := cfg.AccessMap[token]; ok {
		token = canonical
	}
	//
	switch token {
	case "read":
		return Read, true
	case "write":
		return Write, true
	case "readwrite":
		return ReadWrite, true
	case "increment":
		return Increment, true
	case "read_increment":
		return ReadIncrement, true
	case "sum":
		return Sum, true
	}
	//
	return Read, false
}

// RequiresRead indicates whether this access reads the argument and,
// therefore, whether halo cleanliness requirements apply before the access.
func (m AccessMode) RequiresRead() bool {
	switch m {
	case Read, ReadWrite, Increment, ReadIncrement:
		return true
	default:
		return false
	}
}

// Writes indicates whether this access updates the argument and, therefore,
// can dirty its halo.
func (m AccessMode) Writes() bool {
	switch m {
	case Write, ReadWrite, Increment, ReadIncrement:
		return true
	default:
		return false
	}
}

// IsReduction indicates whether this access accumulates into a reduction
// variable.
func (m AccessMode) IsReduction() bool {
	return m == Sum
}

// DirtyingStrength positions this access on the dirtying lattice
// (read < readwrite/increment < write).  A later access of equal-or-greater
// strength invalidates the halo validity established by an earlier access.
// Sum is orthogonal to the lattice and reports zero.
func (m AccessMode) DirtyingStrength() uint {
	switch m {
	case Write:
		return 2
	case ReadWrite, Increment, ReadIncrement:
		return 1
	default:
		return 0
	}
}

func (m AccessMode) String() string {
	switch m {
	case Read:
		return "read"
	case Write:
		return "write"
	case ReadWrite:
		return "readwrite"
	case Increment:
		return "increment"
	case ReadIncrement:
		return "read_increment"
	case Sum:
		return "sum"
	}
	//
	return "?"
}
