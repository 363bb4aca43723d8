package diag

// Detail provides key-value context for diagnostic issues.
//
// Details are used to add structured information to issues that can be
// programmatically inspected by tools. Use the standard detail key constants
// to ensure consistent key naming across the codebase.
type Detail struct {
	Key   string
	Value string
}

// Standard detail keys for consistent diagnostic metadata.
//
// Use these constants to avoid stringly-typed drift and enable programmatic
// inspection of diagnostic details. Custom detail keys are permitted for
// domain-specific diagnostics; use lower_snake_case for custom keys.
const (
	// DetailKeyExpected is the expected value or type.
	DetailKeyExpected = "expected"

	// DetailKeyGot is the actual value or type received.
	DetailKeyGot = "got"

	// DetailKeyPath is the FHIR element path involved (e.g. "Patient.name.given").
	DetailKeyPath = "path"

	// DetailKeyDefinitionName is the FSH definition name involved (Profile,
	// Extension, ValueSet, CodeSystem, Instance, Invariant, ...).
	DetailKeyDefinitionName = "name"

	// DetailKeyDefinitionKind is the FSH definition kind (e.g. "Profile").
	DetailKeyDefinitionKind = "kind"

	// DetailKeyParent is the parent/base identifier named in a Parent clause.
	DetailKeyParent = "parent"

	// DetailKeyAlias is the alias name involved in an Alias clause.
	DetailKeyAlias = "alias"

	// DetailKeyCanonicalURL is the canonical URL an identifier resolved to,
	// or was expected to resolve to.
	DetailKeyCanonicalURL = "canonical_url"

	// DetailKeyRuleText is the raw rule text (for rules that could not be
	// fully parsed into a typed rule).
	DetailKeyRuleText = "rule"

	// DetailKeyCycle is the cycle participants as a JSON array, used for
	// dependency-graph cycle diagnostics.
	DetailKeyCycle = "cycle"

	// DetailKeyPackName is the rule pack name that produced a diagnostic.
	DetailKeyPackName = "pack"

	// DetailKeyFhirVersion is the FHIR release the diagnostic pertains to.
	DetailKeyFhirVersion = "fhir_version"

	// DetailKeyBracket is the raw bracket annotation text in a path segment
	// (e.g. "[+]", "[Slice1]", "[2]").
	DetailKeyBracket = "bracket"
)

// ExpectedGot creates a pair of details for mismatch diagnostics (e.g. a
// cardinality or type mismatch between a rule and the resolved element).
func ExpectedGot(expected, got string) []Detail {
	return []Detail{
		{Key: DetailKeyExpected, Value: expected},
		{Key: DetailKeyGot, Value: got},
	}
}

// PathContext creates detail entries for diagnostics about a specific
// FHIR element path within a named definition.
func PathContext(definitionName, path string) []Detail {
	return []Detail{
		{Key: DetailKeyDefinitionName, Value: definitionName},
		{Key: DetailKeyPath, Value: path},
	}
}

// DefinitionContext creates detail entries identifying a definition by
// kind and name (e.g. for duplicate-definition diagnostics).
func DefinitionContext(kind, name string) []Detail {
	return []Detail{
		{Key: DetailKeyDefinitionKind, Value: kind},
		{Key: DetailKeyDefinitionName, Value: name},
	}
}

// RuleOrigin creates detail entries identifying the rule pack and rule id
// that produced a diagnostic, for diagnostics carrying provenance.
func RuleOrigin(pack, ruleID string) []Detail {
	return []Detail{
		{Key: DetailKeyPackName, Value: pack},
		{Key: DetailKeyRuleText, Value: ruleID},
	}
}
