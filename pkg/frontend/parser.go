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
	"github.com/psykal-project/psykal/pkg/source"
)

// ParseAll parses a given source file into zero or more S-expressions, whilst
// returning a syntax error if the file is malformed.
func ParseAll(file *source.File) ([]SExp, *source.SyntaxError) {
	terms := make([]SExp, 0)
	p := newParser(file)
	// Parse the input
	for {
		term, err := p.parse()
		// Sanity check everything was parsed
		if err != nil {
			return terms, err
		} else if term == nil {
			// EOF reached
			return terms, nil
		}
		//
		terms = append(terms, term)
	}
}

// parser represents a parser in the process of parsing a given source file
// into one or more S-expressions.
type parser struct {
	// Source file being parsed.
	srcfile *source.File
	// Text being parsed
	text []rune
	// Determine current position within text
	index int
}

func newParser(file *source.File) *parser {
	return &parser{
		srcfile: file,
		text:    file.Contents(),
		index:   0,
	}
}

// Parse a single S-Expression, returning nil upon end of input.
func (p *parser) parse() (SExp, *source.SyntaxError) {
	start, token := p.next()
	//
	if token == nil {
		return nil, nil
	} else if len(token) == 1 && token[0] == ')' {
		p.index-- // backup
		return nil, p.error(start, "unexpected end-of-list")
	} else if len(token) == 1 && token[0] == '(' {
		var elements []SExp
		//
		for c := p.lookahead(0); c == nil || *c != ')'; c = p.lookahead(0) {
			// Parse next element
			element, err := p.parse()
			if err != nil {
				return nil, err
			} else if element == nil {
				p.index-- // backup
				return nil, p.error(start, "unexpected end-of-file")
			}
			// Continue around!
			elements = append(elements, element)
		}
		// Consume right-brace
		p.next()
		// Done
		return &List{elements, source.NewSpan(start, p.index)}, nil
	}
	//
	return &Symbol{string(token), source.NewSpan(start, p.index)}, nil
}

// Next extracts the next token from a given string, returning its starting
// offset within the original text.
func (p *parser) next() (int, []rune) {
	index := p.index
	//
	if index == len(p.text) {
		return index, nil
	}
	//
	switch p.text[index] {
	case '(', ')':
		// List begin / end
		p.index = p.index + 1
		return index, p.text[index:p.index]
	case ' ', '\t', '\n', '\r':
		// Whitespace
		p.index = p.index + 1
		return p.next()
	case ';':
		// Comment runs to end-of-line
		p.skipComment()
		return p.next()
	}
	// Symbol
	return index, p.parseSymbol()
}

// Lookahead and see what punctuation is next.
func (p *parser) lookahead(i int) *rune {
	// Compute actual position within text
	pos := i + p.index
	// Check what's there
	if len(p.text) > pos {
		switch p.text[pos] {
		case '(', ')', ';':
			return &p.text[pos]
		case ' ', '\t', '\n', '\r':
			return p.lookahead(i + 1)
		default:
			return nil
		}
	}
	//
	return nil
}

func (p *parser) parseSymbol() []rune {
	// Parse token
	i := len(p.text)
	//
	for j := p.index; j < i; j++ {
		c := p.text[j]
		if c == '(' || c == ')' || c == ';' || c == ' ' || c == '\n' || c == '\t' || c == '\r' {
			i = j
			break
		}
	}
	// Reached end of token
	token := p.text[p.index:i]
	p.index = i
	//
	return token
}

func (p *parser) skipComment() {
	for p.index < len(p.text) && p.text[p.index] != '\n' {
		p.index++
	}
}

// Construct a parser error at a given position in the input stream.
func (p *parser) error(start int, msg string) *source.SyntaxError {
	end := min(start+1, len(p.text))
	return p.srcfile.SyntaxError(source.NewSpan(start, end), msg)
}
