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

	"github.com/psykal-project/psykal/pkg/source"
)

// MetadataError signals an invalid kernel declaration, naming the offending
// kernel, argument position and rule.  Metadata errors are fatal for the
// declaring kernel, but independent kernels in the same run may still be
// processed.
type MetadataError struct {
	// Kernel whose declaration is invalid.
	Kernel string
	// Offending argument position (counting from 1), or zero when the error
	// concerns the declaration as a whole.
	Argument int
	// The rule which was violated.
	Rule string
	// Location of the offending declaration.
	Location source.Location
}

func metadataError(loc source.Location, kernel string, argument int, rule string) *MetadataError {
	return &MetadataError{kernel, argument, rule, loc}
}

// Code returns the stable error-kind tag for invalid kernel metadata.
func (p *MetadataError) Code() string {
	return "InvalidKernelMetadataError"
}

func (p *MetadataError) Error() string {
	if p.Argument != 0 {
		return fmt.Sprintf("%s: kernel %s, argument %d: %s", p.Location, p.Kernel, p.Argument, p.Rule)
	}
	//
	return fmt.Sprintf("%s: kernel %s: %s", p.Location, p.Kernel, p.Rule)
}

// RedefinitionError signals a second registration of a kernel type name with
// a different signature to the first.
type RedefinitionError struct {
	// Kernel being redefined.
	Kernel string
	// Location of the conflicting declaration.
	Location source.Location
}

// Code returns the stable error-kind tag for kernel redefinitions.
func (p *RedefinitionError) Code() string {
	return "KernelRedefinitionError"
}

func (p *RedefinitionError) Error() string {
	return fmt.Sprintf("%s: kernel %s redefined with a different signature", p.Location, p.Kernel)
}
