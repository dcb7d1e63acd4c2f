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
package symbols

import (
	"fmt"
	"strings"
)

// DataType identifies the intrinsic type of a symbol.
type DataType int

const (
	// RealType symbols hold floating-point data.
	RealType DataType = iota
	// IntegerType symbols hold integer data.
	IntegerType
	// LogicalType symbols hold boolean data.
	LogicalType
	// DeferredType symbols have a type known only to an external
	// definition (e.g. field objects, kernel routines).
	DeferredType
)

// ParseType maps an intrinsic-type token onto its data type.
func ParseType(token string) (DataType, bool) {
	switch token {
	case "real":
		return RealType, true
	case "integer":
		return IntegerType, true
	case "logical":
		return LogicalType, true
	case "deferred":
		return DeferredType, true
	}
	//
	return RealType, false
}

func (t DataType) String() string {
	switch t {
	case RealType:
		return "real"
	case IntegerType:
		return "integer"
	case LogicalType:
		return "logical"
	case DeferredType:
		return "deferred"
	}
	//
	return "?"
}

// Symbol is a typed, named entity declared in exactly one scope.  Symbols are
// identified by pointer: re-declaring a name in a nested scope produces a new
// symbol which shadows (never aliases) the outer one.
type Symbol struct {
	// Name of this symbol, unique within its declaring scope.
	name string
	// Intrinsic type.
	dtype DataType
	// Precision tag, resolved to a byte width through the configured kind
	// map (empty for deferred-type symbols).
	precision string
	// Array shape, nil for scalars.
	shape []uint
}

// Name returns the name of this symbol.
func (p *Symbol) Name() string {
	return p.name
}

// Type returns the intrinsic type of this symbol.
func (p *Symbol) Type() DataType {
	return p.dtype
}

// Precision returns the precision tag of this symbol.
func (p *Symbol) Precision() string {
	return p.precision
}

// Shape returns the array shape of this symbol, or nil for a scalar.
func (p *Symbol) Shape() []uint {
	return p.shape
}

// Rank returns the number of array dimensions of this symbol.
func (p *Symbol) Rank() int {
	return len(p.shape)
}

// IsArray indicates whether this symbol has one or more array dimensions.
func (p *Symbol) IsArray() bool {
	return len(p.shape) > 0
}

func (p *Symbol) String() string {
	var builder strings.Builder
	//
	builder.WriteString(p.name)
	builder.WriteString(":")
	builder.WriteString(p.dtype.String())
	//
	if p.precision != "" {
		builder.WriteString("(")
		builder.WriteString(p.precision)
		builder.WriteString(")")
	}
	//
	if p.IsArray() {
		dims := make([]string, len(p.shape))
		for i, d := range p.shape {
			dims[i] = fmt.Sprintf("%d", d)
		}
		//
		builder.WriteString("[")
		builder.WriteString(strings.Join(dims, ","))
		builder.WriteString("]")
	}
	//
	return builder.String()
}
