package pathresolve

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// StructureDefinitionFisher resolves a type name or canonical URL to its
// StructureDefinition JSON. [canonical.FishingContext] satisfies this.
type StructureDefinitionFisher interface {
	FishStructureDefinition(identifier string) (rawJSON json.RawMessage, found bool)
}

type cacheKey struct {
	sdURL string
	path  string
}

// Resolver resolves FSH element paths against StructureDefinitions fished
// through a [StructureDefinitionFisher], caching results by (SD url,
// path).
type Resolver struct {
	fisher StructureDefinitionFisher

	mu    sync.RWMutex
	cache map[cacheKey]ElementDefinition
}

// NewResolver creates a path resolver backed by fisher.
func NewResolver(fisher StructureDefinitionFisher) *Resolver {
	return &Resolver{fisher: fisher, cache: make(map[cacheKey]ElementDefinition)}
}

// ResolvePath resolves path (e.g. "name.given", "deceased[x]",
// "component[systolic].value") against the StructureDefinition named by
// structureDefID (an id, name, or canonical URL).
func (r *Resolver) ResolvePath(structureDefID, path string) (ElementDefinition, error) {
	raw, found := r.fisher.FishStructureDefinition(structureDefID)
	if !found {
		return ElementDefinition{}, &PathError{Kind: NotFound, Path: path, BaseType: structureDefID}
	}
	sd, err := NewStructureDefinition(raw)
	if err != nil {
		return ElementDefinition{}, &PathError{Kind: InvalidElement, Detail: err.Error()}
	}

	sdURL := sd.URL()
	if sdURL == "" {
		sdURL = structureDefID
	}
	key := cacheKey{sdURL: sdURL, path: path}

	r.mu.RLock()
	cached, ok := r.cache[key]
	r.mu.RUnlock()
	if ok {
		return cached, nil
	}

	// Fast path: the snapshot already has an element at this exact path.
	if elem, ok := sd.FindElementByPath(path); ok {
		r.store(key, elem)
		return elem, nil
	}

	segments, err := ParsePath(path)
	if err != nil {
		return ElementDefinition{}, err
	}

	elem, err := r.resolveSegments(sd, segments, path)
	if err != nil {
		return ElementDefinition{}, err
	}
	r.store(key, elem)
	return elem, nil
}

func (r *Resolver) store(key cacheKey, elem ElementDefinition) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache[key] = elem
}

// ClearCache discards every cached (SD url, path) -> ElementDefinition
// entry.
func (r *Resolver) ClearCache() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cache = make(map[cacheKey]ElementDefinition)
}

// CacheLen reports how many entries are currently cached.
func (r *Resolver) CacheLen() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.cache)
}

func (r *Resolver) resolveSegments(sd StructureDefinition, segments []Segment, originalPath string) (ElementDefinition, error) {
	currentPath := sd.TypeName()
	elements := sd.Elements()
	var selected ElementDefinition

	for idx, seg := range segments {
		targetPath := currentPath + "." + seg.Base
		if idx == 0 && seg.Base == sd.TypeName() {
			targetPath = seg.Base
		}

		matches := filterByPath(elements, targetPath, seg.Kind == ChoiceBracket)

		if len(matches) == 0 {
			parent, ok := findByExactPath(elements, currentPath)
			if !ok {
				return ElementDefinition{}, &PathError{Kind: NotFound, Path: originalPath, BaseType: sd.TypeName()}
			}
			unfolded, err := r.unfoldElement(parent, targetPath)
			if err != nil {
				return ElementDefinition{}, err
			}
			elements = append(elements, unfolded...)
			matches = filterByPath(elements, targetPath, false)
		}

		elem, err := selectMatch(matches, seg, targetPath, originalPath, sd.TypeName())
		if err != nil {
			return ElementDefinition{}, err
		}
		selected = elem

		if p := elem.Path(); p != "" {
			currentPath = p
		} else {
			currentPath = targetPath
		}
	}

	// Return the element the last segment selected, not merely the first
	// element at its path: sibling slices share one path.
	if len(segments) > 0 && selected.Path() == currentPath {
		return selected, nil
	}
	if elem, ok := findByExactPath(elements, currentPath); ok {
		return elem, nil
	}
	return ElementDefinition{}, &PathError{Kind: NotFound, Path: originalPath, BaseType: sd.TypeName()}
}

func filterByPath(elements []ElementDefinition, targetPath string, allowChoicePrefix bool) []ElementDefinition {
	var out []ElementDefinition
	choicePrefix := strings.TrimSuffix(targetPath, "[x]") + "[x]"
	for _, e := range elements {
		p := e.Path()
		if p == targetPath || (allowChoicePrefix && strings.HasPrefix(p, choicePrefix)) {
			out = append(out, e)
		}
	}
	return out
}

func findByExactPath(elements []ElementDefinition, path string) (ElementDefinition, bool) {
	for _, e := range elements {
		if e.Path() == path {
			return e, true
		}
	}
	return ElementDefinition{}, false
}

func selectMatch(matches []ElementDefinition, seg Segment, targetPath, originalPath, baseType string) (ElementDefinition, error) {
	if seg.Kind != NoBracket {
		return resolveBracket(matches, seg, targetPath)
	}
	switch len(matches) {
	case 0:
		return ElementDefinition{}, &PathError{Kind: NotFound, Path: originalPath, BaseType: baseType}
	case 1:
		return matches[0], nil
	default:
		return ElementDefinition{}, &PathError{Kind: Ambiguous, Path: originalPath, Count: len(matches)}
	}
}

// resolveBracket picks the element a bracket segment names. Slice brackets
// match by sliceName; index, soft-index, and choice-type brackets all
// defer actual element selection to instance export and return the first
// match here.
func resolveBracket(matches []ElementDefinition, seg Segment, targetPath string) (ElementDefinition, error) {
	switch seg.Kind {
	case SliceBracket:
		for _, e := range matches {
			if e.SliceName() == seg.Slice {
				return e, nil
			}
		}
		return ElementDefinition{}, &PathError{Kind: NotFound, Path: fmt.Sprintf("%s[%s]", targetPath, seg.Slice), BaseType: "slice"}
	case IndexBracket:
		if len(matches) == 0 {
			return ElementDefinition{}, &PathError{Kind: NotFound, Path: targetPath, BaseType: "array"}
		}
		return matches[0], nil
	case SoftBracket:
		if len(matches) == 0 {
			return ElementDefinition{}, &PathError{Kind: NotFound, Path: targetPath, BaseType: "array"}
		}
		return matches[0], nil
	case ChoiceBracket:
		if len(matches) == 0 {
			return ElementDefinition{}, &PathError{Kind: NotFound, Path: targetPath + "[x]", BaseType: "choice type"}
		}
		return matches[0], nil
	default:
		return ElementDefinition{}, &PathError{Kind: InvalidElement, Detail: "unhandled bracket kind"}
	}
}

// unfoldElement fetches the StructureDefinition of element's first
// declared type and splices its matching children into the current
// context, rewriting their paths and ids so the parent type's prefix is
// replaced by element's own path.
func (r *Resolver) unfoldElement(element ElementDefinition, targetPath string) ([]ElementDefinition, error) {
	elementPath := element.Path()
	if elementPath == "" {
		elementPath = "unknown"
	}

	types := element.Types()
	if len(types) == 0 {
		return nil, &PathError{Kind: UnfoldError, Path: elementPath, Detail: "no type information available"}
	}
	parentType := types[0]

	raw, found := r.fisher.FishStructureDefinition(parentType.Code)
	if !found {
		return nil, &PathError{Kind: UnfoldError, Path: elementPath, Detail: fmt.Sprintf("type %q not found", parentType.Code)}
	}
	parentSD, err := NewStructureDefinition(raw)
	if err != nil {
		return nil, &PathError{Kind: UnfoldError, Path: elementPath, Detail: err.Error()}
	}

	childName := targetPath
	if idx := strings.LastIndexByte(targetPath, '.'); idx >= 0 {
		childName = targetPath[idx+1:]
	}

	parentTypeName := parentSD.TypeName()
	searchPath := parentTypeName + "." + childName

	var children []ElementDefinition
	for _, e := range parentSD.Elements() {
		p := e.Path()
		if p == searchPath || strings.HasPrefix(p, searchPath+".") {
			children = append(children, e)
		}
	}
	if len(children) == 0 {
		return nil, &PathError{Kind: UnfoldError, Path: elementPath, Detail: fmt.Sprintf("no children found in parent type %q", parentType.Code)}
	}

	elementID := element.ID()
	if elementID == "" {
		elementID = elementPath
	}

	contextualized := make([]ElementDefinition, 0, len(children))
	for _, child := range children {
		newPath := strings.Replace(child.Path(), parentTypeName, elementPath, 1)
		newID := ""
		if child.ID() != "" {
			newID = strings.Replace(child.ID(), parentTypeName, elementID, 1)
		}
		contextualized = append(contextualized, child.WithPath(newPath, newID))
	}
	return contextualized, nil
}
