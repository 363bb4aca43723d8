package canonical

import (
	"sync"

	"github.com/fshlint/maki/semantic"
)

// defaultCanonicalBase is the canonical URL prefix used to synthesize a
// tank entry's URL when the run has not configured its own base (normally
// supplied by the IG's sushi-config-equivalent).
const defaultCanonicalBase = "http://example.org/fhir"

// fhirResourceTypeFor returns the FHIR resourceType string a resource kind
// exports as: Profile, Extension, and Logical all produce a
// StructureDefinition.
func fhirResourceTypeFor(kind semantic.ResourceKind) string {
	switch kind {
	case semantic.KindProfile, semantic.KindExtension, semantic.KindLogical:
		return "StructureDefinition"
	default:
		return kind.String()
	}
}

// FshTank is the in-memory collection of every resource parsed from this
// run's FSH source, indexed for lookup by id, name, or canonical URL. It
// is the second of the three fishing tiers: found here means the result
// is not yet exported, which blocks tier three (external packages) from
// shadowing a local definition.
type FshTank struct {
	mu   sync.RWMutex
	base string

	byID   map[string]*semantic.FhirResource
	byURL  map[string]*semantic.FhirResource
	byName map[string][]*semantic.FhirResource
}

// NewFshTank creates an empty tank. base is the canonical URL prefix used
// to index resources that carry no explicit canonical URL of their own
// (the common case for FSH, which names things rather than URLs); pass ""
// to use the default example.org placeholder.
func NewFshTank(base string) *FshTank {
	if base == "" {
		base = defaultCanonicalBase
	}
	return &FshTank{
		base:   base,
		byID:   make(map[string]*semantic.FhirResource),
		byURL:  make(map[string]*semantic.FhirResource),
		byName: make(map[string][]*semantic.FhirResource),
	}
}

// AddModel indexes every resource in m into the tank.
func (t *FshTank) AddModel(m *semantic.Model) {
	for _, res := range m.Resources() {
		t.AddResource(res)
	}
}

// AddResource indexes one resource by id, name, and (for Profile,
// Extension, ValueSet, CodeSystem, and Logical) a synthesized canonical
// URL.
func (t *FshTank) AddResource(res *semantic.FhirResource) {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := res.Id
	if id == "" {
		id = res.Name
	}
	if id != "" {
		t.byID[id] = res
	}
	if res.Name != "" {
		t.byName[res.Name] = append(t.byName[res.Name], res)
	}
	if url := t.constructCanonicalURL(res, id); url != "" {
		t.byURL[url] = res
	}
}

func (t *FshTank) constructCanonicalURL(res *semantic.FhirResource, id string) string {
	switch res.Kind {
	case semantic.KindProfile, semantic.KindExtension, semantic.KindValueSet,
		semantic.KindCodeSystem, semantic.KindLogical:
		return t.base + "/" + fhirResourceTypeFor(res.Kind) + "/" + id
	default:
		return ""
	}
}

// Contains reports whether identifier resolves to a resource in the tank,
// optionally restricted to one of the given kinds (an empty kinds list
// matches any kind).
func (t *FshTank) Contains(identifier string, kinds []semantic.ResourceKind) bool {
	_, ok := t.Fish(identifier, kinds)
	return ok
}

// Fish looks up identifier by id, then canonical URL, then name, returning
// the first match that satisfies the kind filter (empty filter matches
// any kind).
func (t *FshTank) Fish(identifier string, kinds []semantic.ResourceKind) (*semantic.FhirResource, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if res, ok := t.byID[identifier]; ok && matchesKind(res.Kind, kinds) {
		return res, true
	}
	if res, ok := t.byURL[identifier]; ok && matchesKind(res.Kind, kinds) {
		return res, true
	}
	if candidates, ok := t.byName[identifier]; ok {
		for _, res := range candidates {
			if matchesKind(res.Kind, kinds) {
				return res, true
			}
		}
	}
	return nil, false
}

func matchesKind(kind semantic.ResourceKind, kinds []semantic.ResourceKind) bool {
	if len(kinds) == 0 {
		return true
	}
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// ResourcesByKind returns every tank resource of the given kind that is
// indexed by id. The order of the returned resources is not defined.
func (t *FshTank) ResourcesByKind(kind semantic.ResourceKind) []*semantic.FhirResource {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var out []*semantic.FhirResource
	for _, res := range t.byID {
		if res.Kind == kind {
			out = append(out, res)
		}
	}
	return out
}

// AllResources returns every resource the tank has indexed by id.
func (t *FshTank) AllResources() []*semantic.FhirResource {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*semantic.FhirResource, 0, len(t.byID))
	for _, res := range t.byID {
		out = append(out, res)
	}
	return out
}
