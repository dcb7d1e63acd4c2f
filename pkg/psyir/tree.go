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
package psyir

import (
	"fmt"
)

// NodeId identifies a node within the arena of its owning tree.  Traversal
// and rewriting operate on ids rather than pointers, which keeps parent
// back-references cheap and ownership free of cycles.
type NodeId uint

// NilId is the id of no node (e.g. the parent of the root).
const NilId NodeId = ^NodeId(0)

// node is one slot in the arena.  Exactly one parent owns each attached
// node; children are ordered.
type node struct {
	// Variant of this node.
	kind Kind
	// Owning parent, NilId for the root (and for detached nodes).
	parent NodeId
	// Ordered children, owned exclusively by this node.
	children []NodeId
	// Kind-specific payload (one of the payload structs in node.go).
	payload any
}

// Tree is one PSy-layer schedule under construction or transformation: an
// arena of nodes rooted at a schedule node.  Detached nodes retain their slot
// in the arena (slots are never reused) but are unreachable from the root.
type Tree struct {
	// Arena of all nodes ever created in this tree.
	nodes []node
	// Root schedule node.
	root NodeId
}

// NewTree constructs a tree holding just a root schedule node.
func NewTree(schedule Schedule) *Tree {
	tree := &Tree{}
	tree.root = tree.alloc(KindSchedule, NilId, &schedule)
	//
	return tree
}

// Root returns the root schedule node of this tree.
func (p *Tree) Root() NodeId {
	return p.root
}

// Kind returns the variant of a given node.
func (p *Tree) Kind(id NodeId) Kind {
	return p.nodes[id].kind
}

// Parent returns the owning parent of a given node, or NilId for the root.
func (p *Tree) Parent(id NodeId) NodeId {
	return p.nodes[id].parent
}

// Children returns the ordered children of a given node.  The returned slice
// is a copy, so it remains stable whilst the tree is mutated.
func (p *Tree) Children(id NodeId) []NodeId {
	children := make([]NodeId, len(p.nodes[id].children))
	copy(children, p.nodes[id].children)
	//
	return children
}

// ============================================================================
// Payload accessors
// ============================================================================

// Schedule returns the payload of a schedule node.
func (p *Tree) Schedule(id NodeId) *Schedule {
	return payload[Schedule](p, id, KindSchedule)
}

// Loop returns the payload of a loop node.
func (p *Tree) Loop(id NodeId) *Loop {
	return payload[Loop](p, id, KindLoop)
}

// KernelCall returns the payload of a kernel-call node.
func (p *Tree) KernelCall(id NodeId) *KernelCall {
	return payload[KernelCall](p, id, KindKernelCall)
}

// Reference returns the payload of a reference node.
func (p *Tree) Reference(id NodeId) *Reference {
	return payload[Reference](p, id, KindReference)
}

// Literal returns the payload of a literal node.
func (p *Tree) Literal(id NodeId) *Literal {
	return payload[Literal](p, id, KindLiteral)
}

// Reduction returns the payload of a reduction node.
func (p *Tree) Reduction(id NodeId) *Reduction {
	return payload[Reduction](p, id, KindReduction)
}

// Directive returns the payload of a directive node.
func (p *Tree) Directive(id NodeId) *Directive {
	return payload[Directive](p, id, KindDirective)
}

// HaloExchange returns the payload of a halo-exchange node.
func (p *Tree) HaloExchange(id NodeId) *HaloExchange {
	return payload[HaloExchange](p, id, KindHaloExchange)
}

func payload[T any](p *Tree, id NodeId, kind Kind) *T {
	if p.nodes[id].kind != kind {
		panic(fmt.Sprintf("node %d is a %s, not a %s", id, p.nodes[id].kind, kind))
	}
	//
	return p.nodes[id].payload.(*T)
}

// ============================================================================
// Mutation
// ============================================================================

// AppendLoop creates a loop node as the last child of the given parent.
func (p *Tree) AppendLoop(parent NodeId, loop Loop) NodeId {
	return p.append(parent, KindLoop, &loop)
}

// AppendKernelCall creates a kernel-call node as the last child of the given
// parent.
func (p *Tree) AppendKernelCall(parent NodeId, call KernelCall) NodeId {
	return p.append(parent, KindKernelCall, &call)
}

// AppendReference creates a reference node as the last child of the given
// parent.
func (p *Tree) AppendReference(parent NodeId, ref Reference) NodeId {
	return p.append(parent, KindReference, &ref)
}

// AppendLiteral creates a literal node as the last child of the given parent.
func (p *Tree) AppendLiteral(parent NodeId, literal Literal) NodeId {
	return p.append(parent, KindLiteral, &literal)
}

// InsertHaloExchangeBefore creates a halo-exchange node as the immediately
// preceding sibling of the given node.
func (p *Tree) InsertHaloExchangeBefore(sibling NodeId, exchange HaloExchange) NodeId {
	parent := p.nodes[sibling].parent
	at := p.indexInParent(sibling)
	//
	return p.insert(parent, at, KindHaloExchange, &exchange)
}

// InsertReductionAfter creates a reduction node as the immediately following
// sibling of the given node.
func (p *Tree) InsertReductionAfter(sibling NodeId, reduction Reduction) NodeId {
	parent := p.nodes[sibling].parent
	at := p.indexInParent(sibling) + 1
	//
	return p.insert(parent, at, KindReduction, &reduction)
}

// WrapInDirective replaces a loop at its current tree position with a new
// directive node, re-attaching the loop as the directive's only child.
func (p *Tree) WrapInDirective(loop NodeId, directive Directive) NodeId {
	parent := p.nodes[loop].parent
	at := p.indexInParent(loop)
	// Create directive in the loop's position.
	id := p.insert(parent, at, KindDirective, &directive)
	// Re-attach loop beneath it.
	p.Detach(loop)
	p.attach(id, len(p.nodes[id].children), loop)
	//
	return id
}

// Detach removes a node (and, implicitly, the subtree beneath it) from its
// parent.  The node keeps its arena slot but becomes unreachable from the
// root.
func (p *Tree) Detach(id NodeId) {
	parent := p.nodes[id].parent
	if parent == NilId {
		panic("cannot detach the root (or an already-detached node)")
	}
	//
	at := p.indexInParent(id)
	siblings := p.nodes[parent].children
	p.nodes[parent].children = append(siblings[:at], siblings[at+1:]...)
	p.nodes[id].parent = NilId
}

// MoveChildren re-attaches every child of one node onto the end of another,
// preserving their order.  Used, for example, when fusing loops.
func (p *Tree) MoveChildren(from NodeId, to NodeId) {
	for _, child := range p.Children(from) {
		p.Detach(child)
		p.attach(to, len(p.nodes[to].children), child)
	}
}

func (p *Tree) append(parent NodeId, kind Kind, payload any) NodeId {
	return p.insert(parent, len(p.nodes[parent].children), kind, payload)
}

func (p *Tree) insert(parent NodeId, at int, kind Kind, payload any) NodeId {
	id := p.alloc(kind, NilId, payload)
	p.attach(parent, at, id)
	//
	return id
}

func (p *Tree) alloc(kind Kind, parent NodeId, payload any) NodeId {
	id := NodeId(len(p.nodes))
	p.nodes = append(p.nodes, node{kind, parent, nil, payload})
	//
	return id
}

func (p *Tree) attach(parent NodeId, at int, child NodeId) {
	if p.nodes[child].parent != NilId {
		panic("cannot attach a node which already has a parent")
	}
	//
	children := p.nodes[parent].children
	children = append(children, 0)
	copy(children[at+1:], children[at:])
	children[at] = child
	//
	p.nodes[parent].children = children
	p.nodes[child].parent = parent
}

func (p *Tree) indexInParent(id NodeId) int {
	parent := p.nodes[id].parent
	//
	for i, child := range p.nodes[parent].children {
		if child == id {
			return i
		}
	}
	//
	panic("node not found amongst its parent's children")
}

// ============================================================================
// Navigation
// ============================================================================

// Position returns the index of a node amongst its parent's children.
func (p *Tree) Position(id NodeId) int {
	return p.indexInParent(id)
}

// Walk applies a function to every node of the subtree rooted at a given
// node, in depth-first preorder.  Children snapshots are taken before
// descending, so the function may insert siblings safely.
func (p *Tree) Walk(id NodeId, fn func(NodeId)) {
	fn(id)
	//
	for _, child := range p.Children(id) {
		p.Walk(child, fn)
	}
}

// Ancestor finds the nearest enclosing node of a given kind, for example the
// loop enclosing a kernel call.
func (p *Tree) Ancestor(id NodeId, kind Kind) (NodeId, bool) {
	for next := p.nodes[id].parent; next != NilId; next = p.nodes[next].parent {
		if p.nodes[next].kind == kind {
			return next, true
		}
	}
	//
	return NilId, false
}

// EnclosingSchedule finds the schedule a given node is attached beneath.
func (p *Tree) EnclosingSchedule(id NodeId) (NodeId, bool) {
	if p.nodes[id].kind == KindSchedule {
		return id, true
	}
	//
	return p.Ancestor(id, KindSchedule)
}

// Loops returns every loop in the subtree rooted at a given node, in
// preorder.
func (p *Tree) Loops(id NodeId) []NodeId {
	var loops []NodeId
	//
	p.Walk(id, func(n NodeId) {
		if p.nodes[n].kind == KindLoop {
			loops = append(loops, n)
		}
	})
	//
	return loops
}

// KernelCalls returns every kernel call in the subtree rooted at a given
// node, in preorder.  Since the analyzer processes calls in source order,
// preorder here is exactly invocation order.
func (p *Tree) KernelCalls(id NodeId) []NodeId {
	var calls []NodeId
	//
	p.Walk(id, func(n NodeId) {
		if p.nodes[n].kind == KindKernelCall {
			calls = append(calls, n)
		}
	})
	//
	return calls
}
