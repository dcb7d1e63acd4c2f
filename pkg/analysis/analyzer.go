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

// Package analysis decides where a schedule needs synchronization: which
// fields must have their halos exchanged before which loops, and which loops
// must be followed by a reduction.  It processes the kernel calls of one
// schedule strictly in invocation order, maintaining a per-field record of
// how many halo layers are currently clean.
package analysis

import (
	log "github.com/sirupsen/logrus"

	"github.com/psykal-project/psykal/pkg/config"
	"github.com/psykal-project/psykal/pkg/kernel"
	"github.com/psykal-project/psykal/pkg/psyir"
	"github.com/psykal-project/psykal/pkg/psyir/symbols"
)

// cleanAll records that the entire halo of a field is clean, to whatever
// depth the mesh caches.
const cleanAll = ^uint(0)

// Analyzer inserts halo-exchange and reduction nodes into schedules,
// according to the declared access modes of every kernel argument.  Whether
// distributed memory is targeted at all is fixed, for every schedule alike,
// by the configuration the analyzer is constructed with.
type Analyzer struct {
	cfg *config.Config
}

// NewAnalyzer constructs an analyzer for a given configuration.
func NewAnalyzer(cfg *config.Config) *Analyzer {
	return &Analyzer{cfg}
}

// Run processes a freshly built schedule, inserting every required
// halo-exchange and reduction node.  Calls are processed exactly in the order
// the source invocation presents them; only explicit transformations may
// reorder anything.
func (p *Analyzer) Run(tree *psyir.Tree) {
	state := &haloState{
		cfg:     p.cfg,
		clean:   make(map[*symbols.Symbol]uint),
		annexed: make(map[*symbols.Symbol]bool),
	}
	//
	for _, top := range tree.Children(tree.Root()) {
		switch tree.Kind(top) {
		case psyir.KindLoop, psyir.KindDirective:
			p.analyzeLoopNest(tree, top, state)
		}
	}
}

// Rerun strips every previously inserted synchronization node from a schedule
// and analyzes it afresh.  Transformations which change iteration spaces
// (e.g. redundant computation) use this to bring the synchronization back in
// line with the new halo-cleanliness facts.
func (p *Analyzer) Rerun(tree *psyir.Tree) {
	for _, top := range tree.Children(tree.Root()) {
		switch tree.Kind(top) {
		case psyir.KindHaloExchange, psyir.KindReduction:
			tree.Detach(top)
		}
	}
	//
	p.Run(tree)
}

// Analyze one top-level loop nest (the loop itself, or the directive wrapping
// it), applying the dependence rules to every kernel call within, in order.
func (p *Analyzer) analyzeLoopNest(tree *psyir.Tree, top psyir.NodeId, state *haloState) {
	loop := outermostLoop(tree, top)
	// Insertion cursor for reductions following this nest.
	cursor := top
	//
	for _, call := range tree.KernelCalls(top) {
		for _, access := range CallAccesses(tree, call) {
			switch {
			case access.Arg.Access.IsReduction() && access.Symbol != nil:
				cursor = p.attachReduction(tree, cursor, access)
			case access.Arg.Role == kernel.FieldArg && access.Symbol != nil:
				p.analyzeFieldAccess(tree, top, loop, access, state)
			}
		}
	}
}

// Apply the halo rules for one field access.  Reads must find enough clean
// halo layers, inserting an exchange where they do not; writes then dirty the
// halo, except where the loop's own iteration covers it.  For accesses which
// both read and write, the read requirement is satisfied first: exchanges
// must exist before this call dirties the halo.
func (p *Analyzer) analyzeFieldAccess(tree *psyir.Tree, top psyir.NodeId, loop *psyir.Loop,
	access Access, state *haloState) {
	// Without distributed memory there are no halos to maintain.
	if !p.cfg.DistributedMemory {
		return
	}
	//
	field := access.Symbol
	mode := access.Arg.Access
	//
	if mode.RequiresRead() {
		required := state.requiredDepth(access)
		//
		if required > state.cleanDepth(field) {
			tree.InsertHaloExchangeBefore(top, psyir.HaloExchange{Field: field, Depth: required})
			state.markExchanged(field, required)
			//
			log.Debugf("halo exchange on %s to depth %d", field.Name(), required)
		}
	}
	//
	if mode.Writes() {
		state.markWritten(field, access.Arg, loop)
	}
}

// Attach the reduction for one sum access after the enclosing loop nest.
// Each call produces its own reduction node: accumulations are never fused
// across calls implicitly.
func (p *Analyzer) attachReduction(tree *psyir.Tree, cursor psyir.NodeId, access Access) psyir.NodeId {
	reduction := psyir.Reduction{
		Operator: psyir.SumOp,
		Variable: access.Symbol,
		BaseSize: 1,
		Global:   p.cfg.DistributedMemory,
	}
	// Reproducible reductions pad the working array to force a fixed
	// summation order, independent of thread count.
	if p.cfg.ReproducibleReductions {
		reduction.Pad = p.cfg.ReproductionPad
	}
	//
	log.Debugf("reduction into %s (working array size %d)", access.Symbol.Name(), reduction.WorkingArraySize())
	//
	return tree.InsertReductionAfter(cursor, reduction)
}

// haloState tracks, per field, how many halo layers are currently clean
// (initially zero: everything must be refreshed before its first stencil
// read) and whether the annexed degrees of freedom are dirty.
type haloState struct {
	cfg *config.Config
	// Clean halo depth per field.
	clean map[*symbols.Symbol]uint
	// Tracks fields whose annexed dofs are known clean.
	annexed map[*symbols.Symbol]bool
}

func (p *haloState) cleanDepth(field *symbols.Symbol) uint {
	return p.clean[field]
}

// The clean-halo depth a given access requires.  A stencil read requires its
// extent.  A plain read of a continuous-space field requires its annexed dofs
// and hence one halo layer, unless those are known clean.
func (p *haloState) requiredDepth(access Access) uint {
	if depth := access.RequiredHaloDepth(); depth > 0 {
		return depth
	}
	//
	if !kernel.IsDiscontinuous(access.Arg.Space) && !p.annexedClean(access.Symbol) {
		return 1
	}
	//
	return 0
}

func (p *haloState) annexedClean(field *symbols.Symbol) bool {
	if clean, ok := p.annexed[field]; ok {
		return clean
	}
	// When every kernel computes annexed dofs, fields arrive with them
	// clean; conservatively dirty otherwise.
	return p.cfg.ComputeAnnexedDofs
}

// An exchange to depth d leaves d halo layers (and the annexed dofs) clean.
func (p *haloState) markExchanged(field *symbols.Symbol, depth uint) {
	p.clean[field] = depth
	p.annexed[field] = true
}

// A write invalidates the halo except to the depth the writing loop itself
// iterated into it.
func (p *haloState) markWritten(field *symbols.Symbol, arg kernel.Arg, loop *psyir.Loop) {
	discontinuous := kernel.IsDiscontinuous(arg.Space)
	//
	switch loop.Stop.Kind {
	case psyir.BoundLastAll:
		// Whole-domain iteration recomputes the entire halo.
		p.clean[field] = cleanAll
		p.annexed[field] = true
	case psyir.BoundLastHalo:
		// Redundant computation into the halo leaves the written layers
		// clean; on a continuous space the outermost layer is only
		// partially summed, so it remains dirty.
		if discontinuous {
			p.clean[field] = loop.Stop.Depth
		} else {
			p.clean[field] = loop.Stop.Depth - 1
		}
		//
		p.annexed[field] = true
	default:
		p.clean[field] = 0
		p.annexed[field] = discontinuous || p.cfg.ComputeAnnexedDofs
	}
}

// Find the outermost loop of a top-level nest (stepping through the directive
// where one wraps it).
func outermostLoop(tree *psyir.Tree, top psyir.NodeId) *psyir.Loop {
	if tree.Kind(top) == psyir.KindLoop {
		return tree.Loop(top)
	}
	//
	for _, child := range tree.Children(top) {
		if tree.Kind(child) == psyir.KindLoop {
			return tree.Loop(child)
		}
	}
	//
	panic("loop nest contains no loop")
}
