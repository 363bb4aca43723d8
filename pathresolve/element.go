package pathresolve

import (
	"encoding/json"
	"strconv"
	"strings"
)

// ElementType is one entry in an ElementDefinition's "type" array.
type ElementType struct {
	Code    string
	Profile string // first entry of "profile", if any
}

// ElementDefinition is a thin, read-only view over a FHIR ElementDefinition
// JSON object.
type ElementDefinition struct {
	content map[string]any
}

// NewElementDefinition wraps a decoded ElementDefinition JSON object.
func NewElementDefinition(content map[string]any) ElementDefinition {
	return ElementDefinition{content: content}
}

func (e ElementDefinition) str(key string) string {
	if v, ok := e.content[key].(string); ok {
		return v
	}
	return ""
}

// ID returns the element's "id", or "" if absent.
func (e ElementDefinition) ID() string { return e.str("id") }

// Path returns the element's "path", or "" if absent.
func (e ElementDefinition) Path() string { return e.str("path") }

// SliceName returns the element's "sliceName", or "" if it is not a slice.
func (e ElementDefinition) SliceName() string { return e.str("sliceName") }

// Min returns the element's "min" cardinality bound and whether the field
// was present at all (an element unfolded from a type's own definition, as
// opposed to a real snapshot/differential entry, may carry no cardinality).
func (e ElementDefinition) Min() (int, bool) {
	v, ok := e.content["min"].(float64)
	if !ok {
		return 0, false
	}
	return int(v), true
}

// Max returns the element's "max" cardinality bound: maxUnbounded is true
// for "*", otherwise max holds the parsed integer. found is false if the
// element carried no "max" field or it could not be parsed as "*" or an
// integer.
func (e ElementDefinition) Max() (max int, maxUnbounded bool, found bool) {
	v, ok := e.content["max"].(string)
	if !ok {
		return 0, false, false
	}
	if v == "*" {
		return 0, true, true
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false, false
	}
	return n, false, true
}

// IsChoiceType reports whether the element's path ends in "[x]".
func (e ElementDefinition) IsChoiceType() bool {
	return strings.HasSuffix(e.Path(), "[x]")
}

// Types returns the element's declared FHIR types, in declaration order.
func (e ElementDefinition) Types() []ElementType {
	raw, ok := e.content["type"].([]any)
	if !ok {
		return nil
	}
	var out []ElementType
	for _, item := range raw {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		code, ok := obj["code"].(string)
		if !ok || code == "" {
			continue
		}
		et := ElementType{Code: code}
		if profiles, ok := obj["profile"].([]any); ok && len(profiles) > 0 {
			if p, ok := profiles[0].(string); ok {
				et.Profile = p
			}
		}
		out = append(out, et)
	}
	return out
}

// WithPath returns a copy of the element with its "path" and "id" fields
// rewritten, used to contextualize an unfolded child element into its new
// parent's namespace.
func (e ElementDefinition) WithPath(newPath, newID string) ElementDefinition {
	cloned := make(map[string]any, len(e.content))
	for k, v := range e.content {
		cloned[k] = v
	}
	cloned["path"] = newPath
	if newID != "" {
		cloned["id"] = newID
	}
	return ElementDefinition{content: cloned}
}

// Raw returns the element's underlying JSON object. Callers must not
// mutate the returned map.
func (e ElementDefinition) Raw() map[string]any { return e.content }

// StructureDefinition is a thin, read-only view over a FHIR
// StructureDefinition JSON document.
type StructureDefinition struct {
	content map[string]any
}

// NewStructureDefinition decodes raw FHIR StructureDefinition JSON.
func NewStructureDefinition(raw json.RawMessage) (StructureDefinition, error) {
	var content map[string]any
	if err := json.Unmarshal(raw, &content); err != nil {
		return StructureDefinition{}, err
	}
	return StructureDefinition{content: content}, nil
}

// URL returns the StructureDefinition's canonical "url", or "" if absent.
func (s StructureDefinition) URL() string {
	if v, ok := s.content["url"].(string); ok {
		return v
	}
	return ""
}

// TypeName returns the StructureDefinition's "type" (e.g. "Patient"), or
// "Unknown" if absent.
func (s StructureDefinition) TypeName() string {
	if v, ok := s.content["type"].(string); ok && v != "" {
		return v
	}
	return "Unknown"
}

// Elements returns every ElementDefinition in the snapshot, falling back
// to the differential if there is no snapshot.
func (s StructureDefinition) Elements() []ElementDefinition {
	section, ok := s.content["snapshot"].(map[string]any)
	if !ok {
		section, ok = s.content["differential"].(map[string]any)
		if !ok {
			return nil
		}
	}
	raw, ok := section["element"].([]any)
	if !ok {
		return nil
	}
	out := make([]ElementDefinition, 0, len(raw))
	for _, item := range raw {
		if obj, ok := item.(map[string]any); ok {
			out = append(out, NewElementDefinition(obj))
		}
	}
	return out
}

// FindElementByPath returns the element whose path exactly equals path,
// if any.
func (s StructureDefinition) FindElementByPath(path string) (ElementDefinition, bool) {
	for _, e := range s.Elements() {
		if e.Path() == path {
			return e, true
		}
	}
	return ElementDefinition{}, false
}
