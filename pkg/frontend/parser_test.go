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
	"testing"

	"github.com/psykal-project/psykal/pkg/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAll(t *testing.T) {
	tests := []struct {
		name  string
		input string
		terms []string
	}{
		{"symbol", "hello", []string{"hello"}},
		{"empty list", "()", []string{"()"}},
		{"flat list", "(a b c)", []string{"(a b c)"}},
		{"nested", "(a (b c) d)", []string{"(a (b c) d)"}},
		{"several terms", "(a) b (c d)", []string{"(a)", "b", "(c d)"}},
		{"comments", "; a comment\n(a b) ; trailing\n", []string{"(a b)"}},
		{"whitespace", "  (a\n\tb)\r\n", []string{"(a b)"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			terms, err := ParseAll(source.NewFile("test", []byte(tt.input)))
			require.Nil(t, err)
			require.Len(t, terms, len(tt.terms))

			for i, term := range terms {
				assert.Equal(t, tt.terms[i], term.String())
			}
		})
	}
}

func TestParseAll_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"unclosed list", "(a b"},
		{"unclosed nested", "(a (b c)"},
		{"dangling close", "a )"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAll(source.NewFile("test", []byte(tt.input)))
			assert.NotNil(t, err)
		})
	}
}

func TestParseAll_Spans(t *testing.T) {
	terms, err := ParseAll(source.NewFile("test", []byte(" (add x y)")))
	require.Nil(t, err)
	require.Len(t, terms, 1)

	list, ok := terms[0].(*List)
	require.True(t, ok)
	// Span covers the enclosing braces.
	assert.Equal(t, 1, list.Span().Start())
	assert.Equal(t, 10, list.Span().End())
	// Symbol spans cover just the token.
	assert.Equal(t, 2, list.Elements[0].Span().Start())
	assert.Equal(t, 5, list.Elements[0].Span().End())
}

func TestList_MatchSymbols(t *testing.T) {
	terms, err := ParseAll(source.NewFile("test", []byte("(kernel k1 (arg))")))
	require.Nil(t, err)

	list := terms[0].(*List)
	assert.True(t, list.MatchSymbols(1, "kernel"))
	assert.True(t, list.MatchSymbols(2, "kernel"))
	assert.False(t, list.MatchSymbols(1, "invoke"))
	// Third element is a list, not a symbol.
	assert.False(t, list.MatchSymbols(3, "kernel", "k1", "arg"))
}
