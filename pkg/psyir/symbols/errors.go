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

import "fmt"

// DuplicateError signals a declaration whose name already exists in the same
// scope.  Fatal for the enclosing scope.
type DuplicateError struct {
	// Name being re-declared.
	Name string
}

// Code returns the stable error-kind tag for duplicate declarations.
func (p *DuplicateError) Code() string {
	return "DuplicateSymbolError"
}

func (p *DuplicateError) Error() string {
	return fmt.Sprintf("symbol %q already declared in this scope", p.Name)
}

// UnresolvedError signals a name which no scope in the chain declares.
// Fatal for the enclosing scope.
type UnresolvedError struct {
	// Name which failed to resolve.
	Name string
}

// Code returns the stable error-kind tag for unresolved names.
func (p *UnresolvedError) Code() string {
	return "UnresolvedSymbolError"
}

func (p *UnresolvedError) Error() string {
	return fmt.Sprintf("symbol %q not declared in any enclosing scope", p.Name)
}

// UnknownKindError signals a precision tag absent from the configured kind
// map.  This is fatal, not retried, since code generation cannot proceed
// without a concrete byte width.
type UnknownKindError struct {
	// Unmapped precision tag.
	Tag string
}

// Code returns the stable error-kind tag for unmapped precision tags.
func (p *UnknownKindError) Code() string {
	return "UnknownKindError"
}

func (p *UnknownKindError) Error() string {
	return fmt.Sprintf("precision tag %q has no configured byte width", p.Tag)
}
