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

// Package backend is the hand-over boundary to code generation: a finalized
// schedule tree (with its symbol table) goes in, target-language source text
// comes out.  One loop renders to one target-language loop, one kernel call
// to one procedure call with arguments in declared order, one halo exchange
// to a call into the runtime halo-exchange library, and one reduction to a
// call into the runtime reduction library.
package backend

import (
	"github.com/psykal-project/psykal/pkg/psyir"
)

// Generator renders a finalized schedule into target-language source text.
type Generator interface {
	// Generate the source text for one schedule.
	Generate(tree *psyir.Tree) (string, error)
}
