package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fshlint/maki/cst"
	"github.com/fshlint/maki/lexer"
	"github.com/fshlint/maki/parser"
)

func parse(t *testing.T, src string) (*cst.Node, []parser.Error) {
	t.Helper()
	tokens, lexErrs := lexer.Lex([]byte(src))
	require.Empty(t, lexErrs)
	return parser.Parse(tokens)
}

func TestParse_Losslessness(t *testing.T) {
	sources := []string{
		"Profile: MyPatient\nParent: Patient\n",
		"Profile: MyPatient\nParent: Patient\nId: my-patient\nTitle: \"My Patient Profile\"\nDescription: \"A test profile\"\n",
		"Instance: Foo\nInstanceOf: Patient\nUsage: #example\n* status = #final\n",
		"Invariant: inv-1\nDescription: \"must have a name\"\nSeverity: #error\nExpression: \"name.exists()\"\n",
		"Alias: $sct = http://snomed.info/sct\n",
		"RuleSet: MyRules(a, b)\n* a 1..1 MS\n",
		"Extension: MyExt\nContext: Patient\n* value[x] only string\n",
		"Profile: Weird\n* this is not even close to valid ][[\n",
		"Profile: MyObs\nParent: Observation\n* code from http://example.org/vs1 (required)\n",
		"Profile: MyObs\nParent: Observation\n* system = http://loinc.org\n",
		"",
		"garbage that starts with no keyword at all\n",
	}
	for _, src := range sources {
		root, _ := parse(t, src)
		assert.Equal(t, src, root.Text(), "source: %q", src)
	}
}

func TestParse_ProfileStructure(t *testing.T) {
	src := "Profile: MyPatient\nParent: Patient\nId: my-patient\nTitle: \"My Patient Profile\"\n* name 1..1 MS\n"
	root, errs := parse(t, src)
	require.Empty(t, errs)

	profile := root.FirstChildNode(cst.KindProfile)
	require.NotNil(t, profile)
	assert.NotNil(t, profile.FirstChildNode(cst.KindParentClause))
	assert.NotNil(t, profile.FirstChildNode(cst.KindIdClause))
	assert.NotNil(t, profile.FirstChildNode(cst.KindTitleClause))
	require.Len(t, profile.ChildNodes(cst.KindCardRule), 1)
}

func TestParse_RuleKinds(t *testing.T) {
	tests := []struct {
		name string
		rule string
		want cst.Kind
	}{
		{"fixed value", "* status = #final\n", cst.KindFixedValueRule},
		{"contains", "* component contains systolic 1..1 MS and diastolic 1..1 MS\n", cst.KindContainsRule},
		{"from binding", "* category from ObservationCategoryVS\n", cst.KindValuesetRule},
		{"only", "* value[x] only string\n", cst.KindOnlyRule},
		{"obeys", "* component obeys inv-1\n", cst.KindObeysRule},
		{"cardinality", "* name 1..1 MS\n", cst.KindCardRule},
		{"caret value", "^status = #active\n", cst.KindCaretValueRule},
		{"insert", "* insert MyRuleSet\n", cst.KindInsertRule},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := "Profile: X\n" + tt.rule
			root, errs := parse(t, src)
			require.Empty(t, errs)
			assert.Equal(t, src, root.Text())

			profile := root.FirstChildNode(cst.KindProfile)
			require.NotNil(t, profile)
			assert.NotNil(t, profile.FirstChildNode(tt.want), "expected a %s node", tt.want)
		})
	}
}

func TestParse_ValuesetRuleBareURLKeepsBindingStrength(t *testing.T) {
	src := "Profile: MyObs\nParent: Observation\n* code from http://example.org/vs1 (required)\n"
	root, errs := parse(t, src)
	require.Empty(t, errs)

	profile := root.FirstChildNode(cst.KindProfile)
	require.NotNil(t, profile)
	rule := profile.FirstChildNode(cst.KindValuesetRule)
	require.NotNil(t, rule)
	assert.Contains(t, rule.Text(), "http://example.org/vs1")
	assert.Contains(t, rule.Text(), "(required)")
}

func TestParse_FixedValueRuleBareURL(t *testing.T) {
	src := "Profile: MyObs\nParent: Observation\n* system = http://loinc.org\n"
	root, errs := parse(t, src)
	require.Empty(t, errs)

	profile := root.FirstChildNode(cst.KindProfile)
	require.NotNil(t, profile)
	rule := profile.FirstChildNode(cst.KindFixedValueRule)
	require.NotNil(t, rule)
	assert.Contains(t, rule.Text(), "http://loinc.org")
}

func TestParse_MultipleDefinitions(t *testing.T) {
	src := "Profile: A\nParent: Patient\n\nProfile: B\nParent: Observation\n"
	root, errs := parse(t, src)
	require.Empty(t, errs)
	assert.Len(t, root.ChildNodes(cst.KindProfile), 2)
}

func TestParse_ErrorRecoveryAtDocumentLevel(t *testing.T) {
	src := "@@@ garbage\nProfile: Recovered\nParent: Patient\n"
	tokens, _ := lexer.Lex([]byte(src))
	root, _ := parser.Parse(tokens)
	assert.Equal(t, src, root.Text())
	assert.NotNil(t, root.FirstChildNode(cst.KindProfile))
}

func TestParse_NeverPanicsOnPathologicalInput(t *testing.T) {
	inputs := []string{
		"[[[[[[[[[[[[[[[[[[[[",
		"* .. .. .. .. ..\n",
		"^^^^^^^^^^^^^^\n",
		"Profile:",
	}
	for _, src := range inputs {
		require.NotPanics(t, func() {
			root, _ := parse(t, src)
			assert.Equal(t, src, root.Text())
		})
	}
}

func FuzzParse_NeverPanicsAndIsLossless(f *testing.F) {
	f.Add([]byte("Profile: X\nParent: Y\n* a.b[0] = \"v\"\n"))
	f.Add([]byte(""))
	f.Add([]byte("[[[[[["))
	f.Fuzz(func(t *testing.T, src []byte) {
		tokens, _ := lexer.Lex(src)
		root, _ := parser.Parse(tokens)
		if root.Text() != string(src) {
			t.Fatalf("lossless violation: got %q, want %q", root.Text(), string(src))
		}
	})
}
