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

import "fmt"

// Coded errors carry a stable error-kind tag, suitable for CLI display and
// for tests which assert on the kind of failure rather than its wording.
type Coded interface {
	error
	// Code returns the stable error-kind tag.
	Code() string
}

// Located attaches a source location to an error which arose at a known
// point, preserving the underlying error-kind tag.
type Located struct {
	// Where the error arose.
	Loc Location
	// Underlying error.
	Err error
}

// Locate attaches a source location to a given error.
func Locate(loc Location, err error) *Located {
	return &Located{loc, err}
}

// Code returns the error-kind tag of the underlying error, where it has one.
func (p *Located) Code() string {
	if coded, ok := p.Err.(Coded); ok {
		return coded.Code()
	}
	//
	return "Error"
}

// Unwrap exposes the underlying error.
func (p *Located) Unwrap() error {
	return p.Err
}

func (p *Located) Error() string {
	return fmt.Sprintf("%s: %v", p.Loc, p.Err)
}
