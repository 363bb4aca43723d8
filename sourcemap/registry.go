package sourcemap

import (
	"bytes"
	"cmp"
	"fmt"
	"slices"
	"sync"

	"github.com/fshlint/maki/location"
)

// Registry stores source content and [SourceMap]s keyed by
// [location.SourceID]. It is safe for concurrent use and implements
// [location.PositionRegistry].
type Registry struct {
	mu      sync.RWMutex
	entries map[location.SourceID]*registryEntry
}

type registryEntry struct {
	content []byte
	m       *SourceMap
}

// KeyCollisionError indicates an attempt to register a SourceID that is
// already registered with different content.
type KeyCollisionError struct {
	SourceID location.SourceID
}

func (e *KeyCollisionError) Error() string {
	return fmt.Sprintf("sourcemap: key collision for %q", e.SourceID.String())
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[location.SourceID]*registryEntry)}
}

// Register indexes content under sourceID. Expensive work (precomputing
// the SourceMap) happens before the write lock is taken, so readers are
// blocked only for the map insert itself.
//
// Re-registering the same sourceID with identical content is a no-op.
// Re-registering with different content returns [*KeyCollisionError].
func (r *Registry) Register(sourceID location.SourceID, content []byte) error {
	cloned := slices.Clone(content)
	entry := &registryEntry{content: cloned, m: New(cloned)}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.entries[sourceID]; ok {
		if bytes.Equal(existing.content, cloned) {
			return nil
		}
		return &KeyCollisionError{SourceID: sourceID}
	}
	r.entries[sourceID] = entry
	return nil
}

// PositionAt implements [location.PositionRegistry].
func (r *Registry) PositionAt(source location.SourceID, byteOffset int) location.Position {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[source]
	if !ok {
		return location.UnknownPosition()
	}
	line, column, ok := entry.m.OffsetToPosition(byteOffset)
	if !ok {
		return location.UnknownPosition()
	}
	return location.NewPosition(line, column, byteOffset)
}

// Content returns the full content for a source identified by the span's
// Source field. Implements the SourceProvider shape the diag renderer
// expects for framed excerpts.
func (r *Registry) Content(span location.Span) ([]byte, bool) {
	return r.ContentBySource(span.Source)
}

// ContentBySource returns a defensive copy of the content registered for
// sourceID.
func (r *Registry) ContentBySource(sourceID location.SourceID) ([]byte, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[sourceID]
	if !ok {
		return nil, false
	}
	return slices.Clone(entry.content), true
}

// SourceMapFor returns the precomputed SourceMap for sourceID, if any.
func (r *Registry) SourceMapFor(sourceID location.SourceID) (*SourceMap, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[sourceID]
	if !ok {
		return nil, false
	}
	return entry.m, true
}

// LineStartByte implements the LineIndexProvider shape diagnostics and the
// LSP bridge use for UTF-16 offset math.
func (r *Registry) LineStartByte(source location.SourceID, line int) (int, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[source]
	if !ok {
		return 0, false
	}
	return entry.m.LineStartByte(line)
}

// Keys returns all registered source identifiers, sorted by string form.
func (r *Registry) Keys() []location.SourceID {
	r.mu.RLock()
	keys := make([]location.SourceID, 0, len(r.entries))
	for k := range r.entries {
		keys = append(keys, k)
	}
	r.mu.RUnlock()

	slices.SortFunc(keys, func(a, b location.SourceID) int {
		return cmp.Compare(a.String(), b.String())
	})
	return keys
}

// Has reports whether sourceID is registered.
func (r *Registry) Has(sourceID location.SourceID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[sourceID]
	return ok
}

// Len returns the number of registered sources.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Clear removes all registered sources.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = make(map[location.SourceID]*registryEntry)
}

var _ location.PositionRegistry = (*Registry)(nil)
