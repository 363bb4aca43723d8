package semantic_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fshlint/maki/lexer"
	"github.com/fshlint/maki/location"
	"github.com/fshlint/maki/parser"
	"github.com/fshlint/maki/semantic"
)

func build(t *testing.T, src string) *semantic.Model {
	t.Helper()
	tokens, lexErrs := lexer.Lex([]byte(src))
	require.Empty(t, lexErrs)
	root, parseErrs := parser.Parse(tokens)
	require.Empty(t, parseErrs)
	return semantic.BuildSemanticModel(root, []byte(src), location.MustNewSourceID("test://unit/test.fsh"))
}

func TestBuildSemanticModel_ProfileMetadata(t *testing.T) {
	src := "Profile: MyPatient\n" +
		"Parent: Patient\n" +
		"Id: my-patient\n" +
		"Title: \"My Patient Profile\"\n" +
		"Description: \"A constrained Patient\"\n" +
		"* name 1..1 MS\n" +
		"* birthDate MS\n"
	m := build(t, src)

	resources := m.Resources()
	require.Len(t, resources, 1)
	res := resources[0]
	assert.Equal(t, semantic.KindProfile, res.Kind)
	assert.Equal(t, "MyPatient", res.Name)
	assert.Equal(t, "Patient", res.Parent)
	assert.Equal(t, "my-patient", res.Id)
	assert.Equal(t, "My Patient Profile", res.Title)
	assert.Equal(t, "A constrained Patient", res.Description)

	require.Len(t, res.Rules, 2)

	card := res.Rules[0]
	assert.Equal(t, semantic.RuleCard, card.Kind)
	assert.Equal(t, "name", card.Path)
	require.NotNil(t, card.Cardinality)
	assert.Equal(t, 1, card.Cardinality.Min)
	assert.Equal(t, "1", card.Cardinality.MaxString())
	assert.True(t, card.MustSupport)

	flag := res.Rules[1]
	assert.Equal(t, semantic.RuleFlag, flag.Kind)
	assert.Equal(t, "birthDate", flag.Path)
	assert.True(t, flag.MustSupport)
	assert.Nil(t, flag.Cardinality)

	symbols := m.Symbols().Lookup("MyPatient")
	require.Len(t, symbols, 1)
	assert.Same(t, res, symbols[0])
}

func TestBuildSemanticModel_UnboundedCardinality(t *testing.T) {
	src := "Profile: MyObs\nParent: Observation\n* component 0..* MS\n"
	m := build(t, src)
	res := m.Resources()[0]
	require.Len(t, res.Rules, 1)
	require.NotNil(t, res.Rules[0].Cardinality)
	assert.True(t, res.Rules[0].Cardinality.MaxUnbounded)
	assert.Equal(t, "*", res.Rules[0].Cardinality.MaxString())
}

func TestBuildSemanticModel_OnlyRule(t *testing.T) {
	src := "Profile: MyObs\nParent: Observation\n* value[x] only Quantity or CodeableConcept\n"
	m := build(t, src)
	res := m.Resources()[0]
	require.Len(t, res.Rules, 1)
	only := res.Rules[0]
	assert.Equal(t, semantic.RuleOnly, only.Kind)
	assert.Equal(t, "value[x]", only.Path)
	assert.Equal(t, []string{"Quantity", "CodeableConcept"}, only.OnlyTypes)
}

func TestBuildSemanticModel_OnlyRuleReference(t *testing.T) {
	src := "Extension: MyExt\n* value[x] only Reference(Patient or Group)\n"
	m := build(t, src)
	res := m.Resources()[0]
	require.Len(t, res.Rules, 1)
	assert.Equal(t, []string{"Reference(Patient or Group)"}, res.Rules[0].OnlyTypes)

	var refNames []string
	for _, ref := range m.References() {
		if ref.Context == semantic.RefValue {
			refNames = append(refNames, ref.Name)
		}
	}
	assert.Contains(t, refNames, "Patient")
	assert.Contains(t, refNames, "Group")
}

func TestBuildSemanticModel_ValuesetRule(t *testing.T) {
	src := "Profile: MyObs\nParent: Observation\n* code from MyValueSet (required)\n"
	m := build(t, src)
	res := m.Resources()[0]
	require.Len(t, res.Rules, 1)
	rule := res.Rules[0]
	assert.Equal(t, semantic.RuleValueset, rule.Kind)
	assert.Equal(t, "MyValueSet", rule.ValuesetTarget)
	assert.Equal(t, "required", rule.BindingStrength)
}

func TestBuildSemanticModel_ValuesetRuleBareURL(t *testing.T) {
	src := "Profile: MyObs\nParent: Observation\n* code from http://example.org/vs1 (required)\n"
	m := build(t, src)
	res := m.Resources()[0]
	require.Len(t, res.Rules, 1)
	rule := res.Rules[0]
	assert.Equal(t, semantic.RuleValueset, rule.Kind)
	assert.Equal(t, "http://example.org/vs1", rule.ValuesetTarget)
	assert.Equal(t, "required", rule.BindingStrength)
}

func TestBuildSemanticModel_ValuesetRuleBareURLNoStrength(t *testing.T) {
	src := "Profile: MyObs\nParent: Observation\n* code from http://example.org/vs1\n"
	m := build(t, src)
	res := m.Resources()[0]
	require.Len(t, res.Rules, 1)
	assert.Equal(t, "http://example.org/vs1", res.Rules[0].ValuesetTarget)
}

func TestBuildSemanticModel_ValuesetRuleTrailingCommentStillCut(t *testing.T) {
	src := "Profile: MyObs\nParent: Observation\n* code from MyValueSet (required) // pin this down later\n"
	m := build(t, src)
	res := m.Resources()[0]
	require.Len(t, res.Rules, 1)
	rule := res.Rules[0]
	assert.Equal(t, "MyValueSet", rule.ValuesetTarget)
	assert.Equal(t, "required", rule.BindingStrength)
}

func TestBuildSemanticModel_ContainsRule(t *testing.T) {
	src := "Profile: MyObs\nParent: Observation\n" +
		"* component contains systolic 1..1 MS and diastolic 1..1 MS\n"
	m := build(t, src)
	res := m.Resources()[0]
	require.Len(t, res.Rules, 1)
	rule := res.Rules[0]
	assert.Equal(t, semantic.RuleContains, rule.Kind)
	require.Len(t, rule.ContainsItems, 2)
	assert.Equal(t, "systolic", rule.ContainsItems[0].Name)
	assert.True(t, rule.ContainsItems[0].MustSupport)
	require.NotNil(t, rule.ContainsItems[0].Cardinality)
	assert.Equal(t, 1, rule.ContainsItems[0].Cardinality.Min)
	assert.Equal(t, "diastolic", rule.ContainsItems[1].Name)
}

func TestBuildSemanticModel_ObeysRule(t *testing.T) {
	src := "Profile: MyObs\nParent: Observation\n* obeys inv-1\n"
	m := build(t, src)
	res := m.Resources()[0]
	require.Len(t, res.Rules, 1)
	assert.Equal(t, semantic.RuleObeys, res.Rules[0].Kind)
	assert.Equal(t, []string{"inv-1"}, res.Rules[0].Invariants)
}

func TestBuildSemanticModel_FixedValueRule(t *testing.T) {
	src := "Instance: Foo\nInstanceOf: Patient\nUsage: #example\n* gender = #male\n"
	m := build(t, src)
	res := m.Resources()[0]
	assert.Equal(t, semantic.KindInstance, res.Kind)
	assert.Equal(t, "Patient", res.Parent)
	assert.Equal(t, "example", res.Metadata["Usage"])
	require.Len(t, res.Rules, 1)
	rule := res.Rules[0]
	assert.Equal(t, semantic.RuleFixedValue, rule.Kind)
	assert.Equal(t, "=", rule.Operator)
	assert.Equal(t, "#male", rule.Value)
}

func TestBuildSemanticModel_CaretValueRule(t *testing.T) {
	src := "Profile: MyPatient\nParent: Patient\n^status = #draft\n"
	m := build(t, src)
	res := m.Resources()[0]
	require.Len(t, res.Rules, 1)
	rule := res.Rules[0]
	assert.Equal(t, semantic.RuleCaretValue, rule.Kind)
	assert.Equal(t, "^status", rule.Path)
	assert.Equal(t, "#draft", rule.Value)
}

func TestBuildSemanticModel_FixedValueRuleBareURL(t *testing.T) {
	src := "Profile: MyObs\nParent: Observation\n* system = http://loinc.org\n"
	m := build(t, src)
	res := m.Resources()[0]
	require.Len(t, res.Rules, 1)
	rule := res.Rules[0]
	assert.Equal(t, semantic.RuleFixedValue, rule.Kind)
	assert.Equal(t, "http://loinc.org", rule.Value)
}

func TestBuildSemanticModel_InsertRule(t *testing.T) {
	src := "Profile: MyPatient\nParent: Patient\n* insert MyRuleSet(foo, {bar})\n"
	m := build(t, src)
	res := m.Resources()[0]
	require.Len(t, res.Rules, 1)
	rule := res.Rules[0]
	assert.Equal(t, semantic.RuleInsert, rule.Kind)
	assert.Equal(t, "MyRuleSet", rule.RuleSetName)
	require.Len(t, rule.RuleSetParams, 2)
	assert.Equal(t, "foo", rule.RuleSetParams[0].Text)
	assert.Equal(t, "{bar}", rule.RuleSetParams[1].Text)
}

func TestBuildSemanticModel_Alias(t *testing.T) {
	src := "Alias: $sct = http://snomed.info/sct\nProfile: MyObs\nParent: Observation\n" +
		"* code from $sct\n"
	m := build(t, src)

	value, ok := m.Aliases().Resolve("$sct")
	require.True(t, ok)
	assert.Equal(t, "http://snomed.info/sct", value)

	require.Len(t, m.Resources(), 1)
	rule := m.Resources()[0].Rules[0]
	assert.Equal(t, "$sct", rule.ValuesetTarget)
}

func TestBuildSemanticModel_DuplicateDefinitionsAreNotDeduplicated(t *testing.T) {
	src := "Profile: Dup\nParent: Patient\n" +
		"Profile: Dup\nParent: Practitioner\n"
	m := build(t, src)

	dups := m.Symbols().Lookup("Dup")
	require.Len(t, dups, 2)
	assert.Equal(t, "Patient", dups[0].Parent)
	assert.Equal(t, "Practitioner", dups[1].Parent)
}

func TestBuildSemanticModel_CanonicalURLParent(t *testing.T) {
	src := "Profile: MyPatient\nParent: http://hl7.org/fhir/StructureDefinition/Patient\n"
	m := build(t, src)
	res := m.Resources()[0]
	assert.Equal(t, "http://hl7.org/fhir/StructureDefinition/Patient", res.Parent)
}

func TestBuildSemanticModel_EmptyDocument(t *testing.T) {
	m := build(t, "")
	assert.Empty(t, m.Resources())
	assert.Equal(t, 0, m.Symbols().Len())
}
