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
package frontend

import (
	"strings"

	"github.com/psykal-project/psykal/pkg/source"
)

// SExp is an S-Expression which is either a List of zero or more
// S-Expressions, or a Symbol.  Every S-Expression retains the span of the
// original source text it was parsed from, so that errors arising during
// translation can point back at the offending declaration.
type SExp interface {
	// IsList checks whether this S-Expression is a list.
	IsList() bool
	// IsSymbol checks whether this S-Expression is a symbol.
	IsSymbol() bool
	// Span returns the span of original text covered by this S-Expression.
	Span() source.Span
	// String generates a string representation.
	String() string
}

// ===================================================================
// List
// ===================================================================

// List represents a list of zero or more S-Expressions.
type List struct {
	// Elements making up this list.
	Elements []SExp
	// Span of original text covered.
	span source.Span
}

// NOTE: This is used for compile time type checking if the given type
// satisfies the given interface.
var _ SExp = (*List)(nil)

// IsList sets that this is a list.
func (p *List) IsList() bool { return true }

// IsSymbol sets that a List is not a Symbol.
func (p *List) IsSymbol() bool { return false }

// Span returns the span of original text covered by this list, including its
// enclosing braces.
func (p *List) Span() source.Span { return p.span }

// Len gets the number of elements in this list.
func (p *List) Len() int { return len(p.Elements) }

func (p *List) String() string {
	var builder strings.Builder
	//
	builder.WriteString("(")
	//
	for i, e := range p.Elements {
		if i != 0 {
			builder.WriteString(" ")
		}
		//
		builder.WriteString(e.String())
	}
	//
	builder.WriteString(")")
	//
	return builder.String()
}

// MatchSymbols matches a list which starts with at least n symbols, of which
// the first m match the given strings.
func (p *List) MatchSymbols(n int, symbols ...string) bool {
	if len(p.Elements) < n || len(symbols) > n {
		return false
	}
	//
	for i := 0; i < len(symbols); i++ {
		switch ith := p.Elements[i].(type) {
		case *Symbol:
			if ith.Value != symbols[i] {
				return false
			}
		default:
			return false
		}
	}
	//
	return true
}

// ===================================================================
// Symbol
// ===================================================================

// Symbol represents a terminating symbol.
type Symbol struct {
	// Value of this symbol.
	Value string
	// Span of original text covered.
	span source.Span
}

// NOTE: This is used for compile time type checking if the given type
// satisfies the given interface.
var _ SExp = (*Symbol)(nil)

// IsList sets that a Symbol is not a List.
func (p *Symbol) IsList() bool { return false }

// IsSymbol sets that this is a Symbol.
func (p *Symbol) IsSymbol() bool { return true }

// Span returns the span of original text covered by this symbol.
func (p *Symbol) Span() source.Span { return p.span }

func (p *Symbol) String() string { return p.Value }
