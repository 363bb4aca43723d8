package semantic

import "sort"

// SymbolTable indexes a document's [FhirResource] values by name.
//
// It does not deduplicate: two resources sharing a name both live under
// that name's entry, in source order. Flagging the collision is
// blocking/duplicate-definition's job, not the builder's — the table just
// needs to expose every occurrence so that rule can walk them.
type SymbolTable struct {
	byName map[string][]*FhirResource
}

func newSymbolTable() *SymbolTable {
	return &SymbolTable{byName: make(map[string][]*FhirResource)}
}

func (t *SymbolTable) add(res *FhirResource) {
	t.byName[res.Name] = append(t.byName[res.Name], res)
}

// Lookup returns every resource defined under name, in source order. The
// returned slice is nil if name was never defined.
func (t *SymbolTable) Lookup(name string) []*FhirResource {
	return t.byName[name]
}

// Names returns every defined name, sorted.
func (t *SymbolTable) Names() []string {
	names := make([]string, 0, len(t.byName))
	for name := range t.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of distinct names in the table.
func (t *SymbolTable) Len() int {
	return len(t.byName)
}

// AliasEntry is one "Alias: $name = value" declaration.
type AliasEntry struct {
	Name  string
	Value string
}

// AliasTable indexes a document's Alias declarations by name.
//
// Like [SymbolTable], it does not deduplicate: correctness/duplicate-alias
// distinguishes "same name, same value" (a warning) from "same name,
// different values" (an error), which requires seeing every occurrence.
type AliasTable struct {
	byName map[string][]AliasEntry
}

func newAliasTable() *AliasTable {
	return &AliasTable{byName: make(map[string][]AliasEntry)}
}

func (t *AliasTable) add(entry AliasEntry) {
	t.byName[entry.Name] = append(t.byName[entry.Name], entry)
}

// Lookup returns every declaration of alias name, in source order.
func (t *AliasTable) Lookup(name string) []AliasEntry {
	return t.byName[name]
}

// Resolve returns the value of the first declaration of alias name. Most
// callers (e.g. expanding an alias in an exported value set binding) only
// care about the effective value, not the full declaration history.
func (t *AliasTable) Resolve(name string) (string, bool) {
	entries := t.byName[name]
	if len(entries) == 0 {
		return "", false
	}
	return entries[0].Value, true
}

// Names returns every declared alias name, sorted.
func (t *AliasTable) Names() []string {
	names := make([]string, 0, len(t.byName))
	for name := range t.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
