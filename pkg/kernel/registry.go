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
	log "github.com/sirupsen/logrus"
)

// Registry holds the metadata entry for every kernel type encountered so far.
// Registration happens in a single phase up front; once the registry is
// frozen it is shared, read-only, by every call site which references it.
type Registry struct {
	// Entries indexed by kernel type name.
	entries map[string]*Metadata
	// Names in registration order (for deterministic iteration).
	names []string
	// Indicates the registration phase has ended.
	frozen bool
}

// NewRegistry constructs an empty kernel registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*Metadata),
	}
}

// Register a kernel's metadata under its type name.  Registering identical
// metadata twice is idempotent; registering a different signature under an
// existing name fails with a redefinition error.  Registering on a frozen
// registry indicates a sequencing bug in the caller, hence panics.
func (p *Registry) Register(md *Metadata) error {
	if p.frozen {
		panic("registration on a frozen kernel registry")
	}
	//
	if existing, ok := p.entries[md.name]; ok {
		if existing.Signature() == md.Signature() {
			// Identical re-registration is a no-op.
			return nil
		}
		//
		return &RedefinitionError{md.name, md.location}
	}
	//
	log.Debugf("registered kernel %s (%s)", md.name, md.IterationSpace())
	//
	p.entries[md.name] = md
	p.names = append(p.names, md.name)
	//
	return nil
}

// Freeze ends the registration phase.  After this, the registry is immutable
// and safe to share by reference.
func (p *Registry) Freeze() {
	p.frozen = true
}

// Lookup the metadata registered under a given kernel type name.
func (p *Registry) Lookup(name string) (*Metadata, bool) {
	md, ok := p.entries[name]
	return md, ok
}

// Names returns the registered kernel type names, in registration order.
func (p *Registry) Names() []string {
	names := make([]string, len(p.names))
	copy(names, p.names)
	//
	return names
}
