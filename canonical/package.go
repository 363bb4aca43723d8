package canonical

import (
	"encoding/json"
	"sync"
)

// Package is the first and highest-priority fishing tier: resources this
// run has already exported to FHIR JSON, indexed by canonical URL.
type Package struct {
	mu        sync.RWMutex
	resources map[string]json.RawMessage
}

// NewPackage creates an empty package.
func NewPackage() *Package {
	return &Package{resources: make(map[string]json.RawMessage)}
}

// AddResource records an exported resource's JSON under its canonical URL,
// overwriting any prior export under the same URL.
func (p *Package) AddResource(canonicalURL string, resource json.RawMessage) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resources[canonicalURL] = resource
}

// Fish returns the exported resource JSON for identifier, if any.
func (p *Package) Fish(identifier string) (json.RawMessage, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	res, ok := p.resources[identifier]
	return res, ok
}

// Len returns the number of exported resources.
func (p *Package) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.resources)
}
