package canonical

import (
	"encoding/json"

	"github.com/fshlint/maki/depgraph"
	"github.com/fshlint/maki/semantic"
)

// FishableMetadata is a lightweight summary of a tank resource, cheap
// enough to compute without a full profile export. It is what the
// dependency graph and rule engine actually need from a fished resource
// most of the time.
type FishableMetadata struct {
	ID                      string
	Name                    string
	URL                     string
	ResourceType            string
	StructureDefinitionType string // "Profile", "Extension", "Logical", or "" for non-SD kinds
	Parent                  string
}

// FishingContext coordinates the three fishing tiers in strict priority
// order: package (already exported), tank (parsed this run), canonical
// (external packages). Finding an identifier in the tank blocks the
// canonical tier even when the tank lookup itself returns nothing useful
// for the caller's purposes — see Fish.
type FishingContext struct {
	pkg  *Package
	tank *FshTank
	defs *DefinitionSet
}

// NewFishingContext builds a fishing context over the given tiers. Any of
// pkg, tank, or defs may be nil, in which case that tier is treated as
// always empty.
func NewFishingContext(pkg *Package, tank *FshTank, defs *DefinitionSet) *FishingContext {
	return &FishingContext{pkg: pkg, tank: tank, defs: defs}
}

// Fish resolves identifier following the three-tier priority. It returns
// (json, true) if the package or canonical tier has the resource; it
// returns (nil, false) if the tank blocks the lookup (see the package
// doc) or if the identifier resolves nowhere at all. kinds filters the
// tank tier only; pass nil to match any kind.
func (f *FishingContext) Fish(identifier string, kinds []semantic.ResourceKind) (json.RawMessage, bool) {
	if f.pkg != nil {
		if res, ok := f.pkg.Fish(identifier); ok {
			return res, true
		}
	}

	if f.tank != nil && f.tank.Contains(identifier, kinds) {
		return nil, false
	}

	if f.defs != nil {
		if res, _, ok := f.defs.Resolve(identifier, depgraph.IsBuiltinResource); ok {
			return res, true
		}
	}
	return nil, false
}

// FishStructureDefinition fishes specifically for a Profile, Extension, or
// Logical definition's StructureDefinition.
func (f *FishingContext) FishStructureDefinition(identifier string) (json.RawMessage, bool) {
	return f.Fish(identifier, []semantic.ResourceKind{
		semantic.KindProfile, semantic.KindExtension, semantic.KindLogical,
	})
}

// FishMetadata fishes the tank specifically (the only tier with resources
// cheap enough to summarize without a full export) and returns lightweight
// metadata rather than raw JSON.
func (f *FishingContext) FishMetadata(identifier string, kinds []semantic.ResourceKind) (*FishableMetadata, bool) {
	if f.tank == nil {
		return nil, false
	}
	res, ok := f.tank.Fish(identifier, kinds)
	if !ok {
		return nil, false
	}
	return extractMetadata(f.tank, res), true
}

func extractMetadata(tank *FshTank, res *semantic.FhirResource) *FishableMetadata {
	resourceType := fhirResourceTypeFor(res.Kind)

	var sdType string
	switch res.Kind {
	case semantic.KindProfile:
		sdType = "Profile"
	case semantic.KindExtension:
		sdType = "Extension"
	case semantic.KindLogical:
		sdType = "Logical"
	}

	id := res.Id
	if id == "" {
		id = res.Name
	}
	name := res.Name
	if name == "" {
		name = id
	}

	return &FishableMetadata{
		ID:                      id,
		Name:                    name,
		URL:                     tank.constructCanonicalURL(res, id),
		ResourceType:            resourceType,
		StructureDefinitionType: sdType,
		Parent:                  res.Parent,
	}
}
