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

import (
	"fmt"

	"github.com/psykal-project/psykal/pkg/config"
)

// SymbolTable is an ordered mapping from name to symbol for one scope.
// Tables nest: lookup walks outward to the nearest enclosing declaration,
// whilst declaration only ever touches the innermost scope.  A table owns its
// symbols; destroying the table (i.e. dropping it) destroys them too.
type SymbolTable struct {
	// Enclosing scope, nil for the outermost table.
	parent *SymbolTable
	// Kind map resolving precision tags to byte widths.  Shared by every
	// table in a scope chain.
	kinds map[string]uint
	// Symbols indexed by name.
	symbols map[string]*Symbol
	// Names in declaration order (for deterministic iteration).
	order []string
}

// NewSymbolTable constructs an outermost symbol table whose precision tags
// resolve through the kind map of the given configuration.
func NewSymbolTable(cfg *config.Config) *SymbolTable {
	return &SymbolTable{
		kinds:   cfg.KindMap,
		symbols: make(map[string]*Symbol),
	}
}

// NestedTable constructs a fresh scope nested within this one.
func (p *SymbolTable) NestedTable() *SymbolTable {
	return &SymbolTable{
		parent:  p,
		kinds:   p.kinds,
		symbols: make(map[string]*Symbol),
	}
}

// Parent returns the enclosing scope of this table, or nil for the outermost
// table.
func (p *SymbolTable) Parent() *SymbolTable {
	return p.parent
}

// Declare a new symbol in this scope.  Declaring a name which already exists
// in this scope fails; declaring a name which exists only in an enclosing
// scope shadows it.
func (p *SymbolTable) Declare(name string, dtype DataType, precision string, shape []uint) (*Symbol, error) {
	if _, ok := p.symbols[name]; ok {
		return nil, &DuplicateError{name}
	}
	//
	sym := &Symbol{name, dtype, precision, shape}
	p.symbols[name] = sym
	p.order = append(p.order, name)
	//
	return sym, nil
}

// Resolve a name against this scope and its enclosing scopes, returning the
// nearest declaration.
func (p *SymbolTable) Resolve(name string) (*Symbol, error) {
	for scope := p; scope != nil; scope = scope.parent {
		if sym, ok := scope.symbols[name]; ok {
			return sym, nil
		}
	}
	//
	return nil, &UnresolvedError{name}
}

// LookupLocal finds a symbol declared in this scope itself, ignoring
// enclosing scopes.
func (p *SymbolTable) LookupLocal(name string) (*Symbol, bool) {
	sym, ok := p.symbols[name]
	return sym, ok
}

// Contains reports whether the given symbol is declared in this scope or any
// enclosing scope.  Identity matters here: a shadowed outer symbol is still
// contained, but a symbol from an unrelated scope chain is not.
func (p *SymbolTable) Contains(sym *Symbol) bool {
	for scope := p; scope != nil; scope = scope.parent {
		if found, ok := scope.symbols[sym.name]; ok && found == sym {
			return true
		}
	}
	//
	return false
}

// PrecisionOf resolves a precision tag to its configured byte width.  An
// unmapped tag is fatal, since code generation cannot proceed without a
// concrete width.
func (p *SymbolTable) PrecisionOf(tag string) (uint, error) {
	if width, ok := p.kinds[tag]; ok {
		return width, nil
	}
	//
	return 0, &UnknownKindError{tag}
}

// Symbols returns the symbols declared in this scope, in declaration order.
func (p *SymbolTable) Symbols() []*Symbol {
	syms := make([]*Symbol, len(p.order))
	//
	for i, name := range p.order {
		syms[i] = p.symbols[name]
	}
	//
	return syms
}

// CloneScope produces a copy of this scope holding fresh symbols with
// identical declarations, along with the mapping from original to clone.
// The enclosing scope (and kind map) are shared, not copied: only local
// symbols change identity.  Duplicating a schedule must duplicate its local
// symbols rather than alias them, and this supplies that.
func (p *SymbolTable) CloneScope() (*SymbolTable, map[*Symbol]*Symbol) {
	clone := &SymbolTable{
		parent:  p.parent,
		kinds:   p.kinds,
		symbols: make(map[string]*Symbol),
	}
	//
	mapping := make(map[*Symbol]*Symbol)
	//
	for _, name := range p.order {
		sym := p.symbols[name]
		fresh := &Symbol{sym.name, sym.dtype, sym.precision, sym.shape}
		clone.symbols[name] = fresh
		clone.order = append(clone.order, name)
		mapping[sym] = fresh
	}
	//
	return clone, mapping
}

// UniqueName derives a name, based on the one given, which clashes with no
// declaration visible from this scope.  Used when renaming symbols to avoid
// capture (e.g. during kernel inlining or subtree cloning).
func (p *SymbolTable) UniqueName(base string) string {
	if _, err := p.Resolve(base); err != nil {
		return base
	}
	//
	for i := 1; ; i++ {
		name := fmt.Sprintf("%s_%d", base, i)
		if _, err := p.Resolve(name); err != nil {
			return name
		}
	}
}
