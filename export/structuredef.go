package export

import "encoding/json"

// BindingStrength is a FHIR binding strength value.
type BindingStrength string

const (
	BindingRequired   BindingStrength = "required"
	BindingExtensible BindingStrength = "extensible"
	BindingPreferred  BindingStrength = "preferred"
	BindingExample    BindingStrength = "example"
)

// parseBindingStrength maps an FSH binding-strength token (the word inside
// the parenthesized suffix of a ValuesetRule, or "" to mean the default) to
// a BindingStrength, reporting ok=false for anything else.
func parseBindingStrength(s string) (BindingStrength, bool) {
	switch s {
	case "", "required":
		return BindingRequired, true
	case "extensible":
		return BindingExtensible, true
	case "preferred":
		return BindingPreferred, true
	case "example":
		return BindingExample, true
	default:
		return "", false
	}
}

// ElementType is one entry in an ElementDefinition's "type" array.
type ElementType struct {
	Code          string   `json:"code"`
	Profile       []string `json:"profile,omitempty"`
	TargetProfile []string `json:"targetProfile,omitempty"`
}

// ElementBinding is an ElementDefinition's value set binding.
type ElementBinding struct {
	Strength    BindingStrength `json:"strength"`
	Description string          `json:"description,omitempty"`
	ValueSet    string          `json:"valueSet,omitempty"`
}

// ElementConstraint is one invariant attached to an ElementDefinition via
// an ObeysRule.
type ElementConstraint struct {
	Key        string `json:"key"`
	Severity   string `json:"severity,omitempty"`
	Human      string `json:"human"`
	Expression string `json:"expression,omitempty"`
}

// Extension is a minimal FHIR extension instance, just enough to carry and
// filter the uninheritable-extension list during metadata clearing.
type Extension struct {
	URL   string          `json:"url"`
	Value json.RawMessage `json:"value,omitempty"`
}

// ElementDefinition is the mutable, JSON-serializable ElementDefinition
// representation the exporter builds and edits in place. Only the fields a
// profile exporter needs are modeled; unknown input fields are preserved
// via Extra so re-serializing an untouched element round-trips.
type ElementDefinition struct {
	ID          string               `json:"id,omitempty"`
	Path        string               `json:"path"`
	SliceName   string               `json:"sliceName,omitempty"`
	Min         *int                 `json:"min,omitempty"`
	Max         string               `json:"max,omitempty"`
	Type        []ElementType        `json:"type,omitempty"`
	Short       string               `json:"short,omitempty"`
	Definition  string               `json:"definition,omitempty"`
	Comment     string               `json:"comment,omitempty"`
	MustSupport *bool                `json:"mustSupport,omitempty"`
	IsModifier  *bool                `json:"isModifier,omitempty"`
	IsSummary   *bool                `json:"isSummary,omitempty"`
	Binding     *ElementBinding      `json:"binding,omitempty"`
	Constraint  []ElementConstraint  `json:"constraint,omitempty"`
	Pattern     map[string]any       `json:"-"`
	Fixed       map[string]any       `json:"-"`
	Extra       map[string]any       `json:"-"`
}

// MarshalJSON folds Pattern/Fixed (each a single "pattern<Type>" or
// "fixed<Type>" key) and any preserved Extra fields back into the object
// alongside the named fields above.
func (e ElementDefinition) MarshalJSON() ([]byte, error) {
	type alias ElementDefinition
	base, err := json.Marshal(alias(e))
	if err != nil {
		return nil, err
	}
	if len(e.Pattern) == 0 && len(e.Fixed) == 0 && len(e.Extra) == 0 {
		return base, nil
	}
	var merged map[string]any
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	for k, v := range e.Extra {
		if _, exists := merged[k]; !exists {
			merged[k] = v
		}
	}
	for k, v := range e.Pattern {
		merged[k] = v
	}
	for k, v := range e.Fixed {
		merged[k] = v
	}
	return json.Marshal(merged)
}

// UnmarshalJSON captures every field it knows about and preserves the rest
// (patternX/fixedX variants, and anything the simplified model doesn't
// name) in Extra so a parent element's unrecognized data survives a
// fish-mutate-reserialize round trip.
func (e *ElementDefinition) UnmarshalJSON(data []byte) error {
	type alias ElementDefinition
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*e = ElementDefinition(a)

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	known := map[string]bool{
		"id": true, "path": true, "sliceName": true, "min": true, "max": true,
		"type": true, "short": true, "definition": true, "comment": true,
		"mustSupport": true, "isModifier": true, "isSummary": true,
		"binding": true, "constraint": true,
	}
	for k, v := range raw {
		if known[k] {
			continue
		}
		var decoded any
		if err := json.Unmarshal(v, &decoded); err != nil {
			continue
		}
		switch {
		case len(k) > 7 && k[:7] == "pattern":
			if e.Pattern == nil {
				e.Pattern = map[string]any{}
			}
			e.Pattern[k] = decoded
		case len(k) > 5 && k[:5] == "fixed":
			if e.Fixed == nil {
				e.Fixed = map[string]any{}
			}
			e.Fixed[k] = decoded
		default:
			if e.Extra == nil {
				e.Extra = map[string]any{}
			}
			e.Extra[k] = decoded
		}
	}
	return nil
}

// Snapshot is a StructureDefinition's fully-populated element list.
type Snapshot struct {
	Element []ElementDefinition `json:"element"`
}

// Differential is a StructureDefinition's authored-changes-only element
// list.
type Differential struct {
	Element []ElementDefinition `json:"element"`
}

// StructureDefinition is the mutable, JSON-serializable representation the
// exporter seeds from a parent resource and then edits in place.
type StructureDefinition struct {
	ResourceType   string       `json:"resourceType"`
	URL            string       `json:"url"`
	ID             string       `json:"id,omitempty"`
	Name           string       `json:"name"`
	Title          string       `json:"title,omitempty"`
	Status         string       `json:"status"`
	Description    string       `json:"description,omitempty"`
	Experimental   *bool        `json:"experimental,omitempty"`
	Date           string       `json:"date,omitempty"`
	Publisher      string       `json:"publisher,omitempty"`
	Version        string       `json:"version,omitempty"`
	Kind           string       `json:"kind,omitempty"`
	Abstract       bool         `json:"abstract"`
	Type           string       `json:"type"`
	BaseDefinition string       `json:"baseDefinition,omitempty"`
	Derivation     string       `json:"derivation,omitempty"`
	Extension      []Extension  `json:"extension,omitempty"`
	Snapshot       *Snapshot    `json:"snapshot,omitempty"`
	Differential   *Differential `json:"differential,omitempty"`
}

// Clone returns a deep copy, used to seed an exported profile from its
// resolved parent without mutating the cached parent definition.
func (s StructureDefinition) Clone() (StructureDefinition, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return StructureDefinition{}, err
	}
	var out StructureDefinition
	if err := json.Unmarshal(raw, &out); err != nil {
		return StructureDefinition{}, err
	}
	return out, nil
}

// FindElement returns a pointer into sd.Snapshot.Element for the given
// path, or nil if no element has it.
func (sd *StructureDefinition) FindElement(path string) *ElementDefinition {
	if sd.Snapshot == nil {
		return nil
	}
	for i := range sd.Snapshot.Element {
		if sd.Snapshot.Element[i].Path == path {
			return &sd.Snapshot.Element[i]
		}
	}
	return nil
}

// EnsureElement returns the element at path, creating an empty one
// appended to the snapshot if none exists yet.
func (sd *StructureDefinition) EnsureElement(path string) *ElementDefinition {
	if elem := sd.FindElement(path); elem != nil {
		return elem
	}
	if sd.Snapshot == nil {
		sd.Snapshot = &Snapshot{}
	}
	sd.Snapshot.Element = append(sd.Snapshot.Element, ElementDefinition{Path: path})
	return &sd.Snapshot.Element[len(sd.Snapshot.Element)-1]
}
