package canonical

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tidwall/jsonc"
)

// fhirCoreBase is the canonical URL prefix for FHIR's own core resources
// and types, used to resolve a bare built-in name like "Patient" to its
// canonical URL without needing a package on disk.
const fhirCoreBase = "http://hl7.org/fhir/StructureDefinition"

// DefinitionSet is the third and lowest-priority fishing tier: FHIR
// StructureDefinitions, ValueSets, and CodeSystems installed from external
// packages. Unlike the reference implementation, which delegates to a
// network-aware package manager, entries here are loaded once from a local
// directory of package JSON files (the layout an installed FHIR package
// cache already uses: one resource per file) and held in memory for the
// life of the run.
type DefinitionSet struct {
	mu  sync.RWMutex
	byURL  map[string]json.RawMessage
	byID   map[string]json.RawMessage
	byName map[string]json.RawMessage
}

// NewDefinitionSet creates an empty definition set.
func NewDefinitionSet() *DefinitionSet {
	return &DefinitionSet{
		byURL:  make(map[string]json.RawMessage),
		byID:   make(map[string]json.RawMessage),
		byName: make(map[string]json.RawMessage),
	}
}

// LoadDirectory walks dir for *.json files, decoding each as a single FHIR
// resource and indexing it by url/id/name. Files that are not valid JSON
// objects, or that carry none of those fields, are skipped with an error
// describing which file and why; LoadDirectory continues past individual
// file errors and returns them all joined, so one malformed package entry
// does not block the rest from loading.
func (d *DefinitionSet) LoadDirectory(dir string) error {
	var errs []string
	err := filepath.WalkDir(dir, func(path string, entry os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			return nil
		}
		if loadErr := d.loadFile(path); loadErr != nil {
			errs = append(errs, fmt.Sprintf("%s: %s", path, loadErr))
		}
		return nil
	})
	if err != nil {
		return err
	}
	if len(errs) > 0 {
		return fmt.Errorf("failed to load %d definition file(s): %s", len(errs), strings.Join(errs, "; "))
	}
	return nil
}

func (d *DefinitionSet) loadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	clean := jsonc.ToJSON(raw)

	var header struct {
		URL          string `json:"url"`
		ID           string `json:"id"`
		Name         string `json:"name"`
		ResourceType string `json:"resourceType"`
	}
	if err := json.Unmarshal(clean, &header); err != nil {
		return err
	}
	if header.URL == "" && header.ID == "" && header.Name == "" {
		return fmt.Errorf("no url, id, or name field")
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if header.URL != "" {
		d.byURL[header.URL] = clean
	}
	if header.ID != "" {
		d.byID[header.ID] = clean
	}
	if header.Name != "" {
		d.byName[header.Name] = clean
	}
	return nil
}

// Resolve looks up identifier by canonical URL, then id, then name. A bare
// FHIR core resource or type name (e.g. "Patient") that was not loaded
// from any package still resolves, synthesizing its canonical URL under
// fhirCoreBase — this only succeeds for names in [IsBuiltinResource].
func (d *DefinitionSet) Resolve(identifier string, isBuiltin func(string) bool) (json.RawMessage, string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if res, ok := d.byURL[identifier]; ok {
		return res, identifier, true
	}
	if res, ok := d.byID[identifier]; ok {
		return res, identifier, true
	}
	if res, ok := d.byName[identifier]; ok {
		return res, identifier, true
	}
	if isBuiltin != nil && isBuiltin(identifier) {
		url := fhirCoreBase + "/" + identifier
		if res, ok := d.byURL[url]; ok {
			return res, url, true
		}
		return nil, url, true
	}
	return nil, "", false
}

// Len returns the number of distinct canonical URLs loaded.
func (d *DefinitionSet) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.byURL)
}
