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
package transform

import "fmt"

// DependencyViolationError signals a transformation whose precondition failed
// against the current data-dependence state of the tree.  The tree is left
// exactly as it was; the caller may skip or substitute the pass.
type DependencyViolationError struct {
	// Transformation whose precondition failed.
	Transformation string
	// Which precondition failed.
	Reason string
}

func violation(transformation string, format string, args ...any) *DependencyViolationError {
	return &DependencyViolationError{transformation, fmt.Sprintf(format, args...)}
}

// Code returns the stable error-kind tag for dependence violations.
func (p *DependencyViolationError) Code() string {
	return "DependencyViolationError"
}

func (p *DependencyViolationError) Error() string {
	return fmt.Sprintf("%s: %s", p.Transformation, p.Reason)
}

// IncompatibleLoopBoundsError signals a fusion of two loops whose bounds or
// iteration-space classes differ (or which are not adjacent at all).
type IncompatibleLoopBoundsError struct {
	// Which incompatibility was found.
	Reason string
}

// Code returns the stable error-kind tag for incompatible fusion targets.
func (p *IncompatibleLoopBoundsError) Code() string {
	return "IncompatibleLoopBoundsError"
}

func (p *IncompatibleLoopBoundsError) Error() string {
	return fmt.Sprintf("fuse-loops: %s", p.Reason)
}

// NonInlinableKernelError signals an inline request for a kernel which cannot
// (or can no longer) be inlined at this point.
type NonInlinableKernelError struct {
	// Kernel which cannot be inlined.
	Kernel string
	// Why it cannot be inlined.
	Reason string
}

// Code returns the stable error-kind tag for non-inlinable kernels.
func (p *NonInlinableKernelError) Code() string {
	return "NonInlinableKernelError"
}

func (p *NonInlinableKernelError) Error() string {
	return fmt.Sprintf("inline-kernel: %s: %s", p.Kernel, p.Reason)
}
