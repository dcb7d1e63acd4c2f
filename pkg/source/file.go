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
package source

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
)

// ReadFiles reads a given set of source files, or produces an error.
func ReadFiles(filenames ...string) ([]File, error) {
	files := make([]File, len(filenames))
	//
	for i, n := range filenames {
		bytes, err := os.ReadFile(n)
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s", n)
		}
		//
		files[i] = *NewFile(n, bytes)
	}
	//
	return files, nil
}

// File represents a given source file (typically stored on disk).  For this
// tool, source files hold either algorithm-layer invocations or kernel
// metadata declarations.
type File struct {
	// File name for this source file.
	filename string
	// Contents of this file.
	contents []rune
}

// NewFile constructs a new source file from a given byte array.
func NewFile(filename string, bytes []byte) *File {
	// Convert bytes into runes for easier parsing
	contents := []rune(string(bytes))
	return &File{filename, contents}
}

// Filename returns the filename associated with this source file.
func (p *File) Filename() string {
	return p.filename
}

// Contents returns the contents of this source file.
func (p *File) Contents() []rune {
	return p.contents
}

// SyntaxError constructs a syntax error over a given span of this file with a
// given message.
func (p *File) SyntaxError(span Span, msg string) *SyntaxError {
	return &SyntaxError{p, span, msg}
}

// Location constructs a source location for a given span of this file.
func (p *File) Location(span Span) Location {
	return Location{p, span}
}

// FindFirstEnclosingLine determines the first line in this source file which
// encloses the start of a span.  Observe that, if the position is beyond the
// bounds of the source file then the last physical line is returned.  Also,
// the returned line is not guaranteed to enclose the entire span, as these can
// cross multiple lines.
func (p *File) FindFirstEnclosingLine(span Span) Line {
	// Index identifies the current position within the original text.
	index := span.start
	// Num records the line number, counting from 1.
	num := 1
	// Start records the starting offset of the current line.
	start := 0
	// Find the line.
	for i := 0; i < len(p.contents); i++ {
		if i == index {
			end := findEndOfLine(index, p.contents)
			return Line{p.contents, Span{start, end}, num}
		} else if p.contents[i] == '\n' {
			num++
			start = i + 1
		}
	}
	//
	return Line{p.contents, Span{start, len(p.contents)}, num}
}

// Line provides information about a given line within the original string.
// This includes the line number (counting from 1), and the span of the line
// within the original string.
type Line struct {
	// Original text
	text []rune
	// Span within original text of this line.
	span Span
	// Line number of this line (counting from 1).
	number int
}

// Get the string representing this line.
func (p Line) String() string {
	// Extract runes representing line
	runes := p.text[p.span.start:p.span.end]
	// Convert into string
	return string(runes)
}

// Number gets the line number of this line, where the first line in a string
// has line number 1.
func (p *Line) Number() int {
	return p.number
}

// Start returns the starting index of this line in the original string.
func (p *Line) Start() int {
	return p.span.start
}

// Length returns the number of characters in this line.
func (p *Line) Length() int {
	return p.span.Length()
}

// Location identifies a span within a given source file.  Errors arising
// during metadata parsing, schedule construction and transformation carry one
// of these so that diagnostics can point back at the originating declaration
// or call site.
type Location struct {
	// Enclosing source file.
	file *File
	// Span within the enclosing file.
	span Span
}

// File returns the source file this location refers into.
func (p Location) File() *File {
	return p.file
}

// Span returns the span within the source file.
func (p Location) Span() Span {
	return p.span
}

// IsKnown indicates whether this location actually identifies a position in
// some source file.  Locations are unknown for entities constructed directly
// in memory (e.g. builtin kernel metadata).
func (p Location) IsKnown() bool {
	return p.file != nil
}

func (p Location) String() string {
	if p.file == nil {
		return "<builtin>"
	}
	//
	line := p.file.FindFirstEnclosingLine(p.span)
	col := p.span.start - line.Start() + 1
	//
	return fmt.Sprintf("%s:%d:%d", p.file.filename, line.Number(), col)
}

// SyntaxError is a structured error which retains the location in the original
// source file where an error occurred, along with an error message.
type SyntaxError struct {
	srcfile *File
	// Byte index into string being parsed where error arose.
	span Span
	// Error message being reported
	msg string
}

// SourceFile returns the underlying source file that this syntax error covers.
func (p *SyntaxError) SourceFile() *File {
	return p.srcfile
}

// Span returns the span of the original text on which this error is reported.
func (p *SyntaxError) Span() Span {
	return p.span
}

// Message returns the message to be reported.
func (p *SyntaxError) Message() string {
	return p.msg
}

// FirstEnclosingLine determines the first line in this source file to which
// this error is associated.
func (p *SyntaxError) FirstEnclosingLine() Line {
	return p.srcfile.FindFirstEnclosingLine(p.span)
}

// Error implements the error interface.
func (p *SyntaxError) Error() string {
	return fmt.Sprintf("%s: %s", p.srcfile.Location(p.span), p.msg)
}

// Find the end of the enclosing line
func findEndOfLine(index int, text []rune) int {
	for i := index; i < len(text); i++ {
		if text[i] == '\n' {
			return i
		}
	}
	// No end in sight!
	return len(text)
}
