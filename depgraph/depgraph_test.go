package depgraph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fshlint/maki/depgraph"
	"github.com/fshlint/maki/lexer"
	"github.com/fshlint/maki/location"
	"github.com/fshlint/maki/parser"
	"github.com/fshlint/maki/semantic"
)

func model(t *testing.T, name, src string) *semantic.Model {
	t.Helper()
	tokens, lexErrs := lexer.Lex([]byte(src))
	require.Empty(t, lexErrs)
	root, parseErrs := parser.Parse(tokens)
	require.Empty(t, parseErrs)
	return semantic.BuildSemanticModel(root, []byte(src), location.MustNewSourceID("test://unit/"+name+".fsh"))
}

func TestBuildGraph_ParentEdge(t *testing.T) {
	m := model(t, "a", "Profile: MyPatient\nParent: Patient\n")
	g := depgraph.BuildGraph([]*semantic.Model{m})
	assert.True(t, g.HasNode("MyPatient"))
	assert.Equal(t, []string{"Patient"}, g.Dependencies("MyPatient"))
}

func TestBuildGraph_InstanceOfEdge(t *testing.T) {
	m := model(t, "a", "Instance: Foo\nInstanceOf: Patient\nUsage: #example\n")
	g := depgraph.BuildGraph([]*semantic.Model{m})
	edges := g.Edges()
	require.Len(t, edges, 1)
	assert.Equal(t, depgraph.InstanceOf, edges[0].Type)
}

func TestBuildGraph_SkipsPrimitiveParent(t *testing.T) {
	m := model(t, "a", "Profile: MyString\nParent: string\n")
	g := depgraph.BuildGraph([]*semantic.Model{m})
	assert.Empty(t, g.Dependencies("MyString"))
}

func TestBuildGraph_OnlyRuleReferenceAggregation(t *testing.T) {
	m := model(t, "a", "Extension: MyExt\n* value[x] only Reference(Patient or Group)\n")
	g := depgraph.BuildGraph([]*semantic.Model{m})
	deps := g.Dependencies("MyExt")
	assert.ElementsMatch(t, []string{"Patient", "Group"}, deps)
}

func TestBuildGraph_ContainsAndObeysEdges(t *testing.T) {
	src := "Profile: MyObs\nParent: Observation\n" +
		"* extension contains SomeExtension 0..1\n" +
		"* obeys inv-1\n"
	m := model(t, "a", src)
	g := depgraph.BuildGraph([]*semantic.Model{m})
	deps := g.Dependencies("MyObs")
	assert.Contains(t, deps, "Observation")
	assert.Contains(t, deps, "inv-1")
}

func TestBuildGraph_DiamondDependency(t *testing.T) {
	a := model(t, "a", "Profile: A\nParent: B\n")
	b := model(t, "b", "Profile: B\nParent: D\n")
	c := model(t, "c", "Profile: C\nParent: D\n")
	d := model(t, "d", "Profile: D\nParent: Patient\n")
	g := depgraph.BuildGraph([]*semantic.Model{a, b, c, d})

	order, err := g.TopologicalSort()
	require.NoError(t, err)

	pos := make(map[string]int, len(order))
	for i, name := range order {
		pos[name] = i
	}
	assert.Less(t, pos["D"], pos["B"])
	assert.Less(t, pos["D"], pos["C"])
	assert.Less(t, pos["B"], pos["A"])
}

func TestBuildGraph_CircularDependencyDetected(t *testing.T) {
	a := model(t, "a", "Profile: A\nParent: B\n")
	b := model(t, "b", "Profile: B\nParent: A\n")
	g := depgraph.BuildGraph([]*semantic.Model{a, b})

	_, err := g.TopologicalSort()
	require.Error(t, err)
	var report *depgraph.CycleReport
	require.ErrorAs(t, err, &report)
	assert.ElementsMatch(t, []string{"A", "B"}, report.Cycle)
}

func TestBuildGraph_SelfLoopIsCircular(t *testing.T) {
	a := model(t, "a", "Profile: A\nParent: A\n")
	g := depgraph.BuildGraph([]*semantic.Model{a})
	_, err := g.TopologicalSort()
	require.Error(t, err)
}

func TestBuildGraph_ProcessingBatches(t *testing.T) {
	a := model(t, "a", "Profile: A\nParent: B\n")
	b := model(t, "b", "Profile: B\nParent: Patient\n")
	c := model(t, "c", "Profile: C\nParent: Patient\n")
	g := depgraph.BuildGraph([]*semantic.Model{a, b, c})

	batches := g.ProcessingBatches()
	require.Len(t, batches, 3)
	assert.ElementsMatch(t, []string{"Patient"}, batches[0])
	assert.ElementsMatch(t, []string{"B", "C"}, batches[1])
	assert.ElementsMatch(t, []string{"A"}, batches[2])
}

func TestBuildGraph_HasPath(t *testing.T) {
	a := model(t, "a", "Profile: A\nParent: B\n")
	b := model(t, "b", "Profile: B\nParent: Patient\n")
	g := depgraph.BuildGraph([]*semantic.Model{a, b})

	assert.True(t, g.HasPath("A", "Patient"))
	assert.False(t, g.HasPath("Patient", "A"))
	assert.True(t, g.HasPath("A", "A"))
}

func TestBuildGraph_DependentsReverseLookup(t *testing.T) {
	a := model(t, "a", "Profile: A\nParent: Patient\n")
	b := model(t, "b", "Profile: B\nParent: Patient\n")
	g := depgraph.BuildGraph([]*semantic.Model{a, b})

	assert.ElementsMatch(t, []string{"A", "B"}, g.Dependents("Patient"))
}

func TestBuildGraph_AliasResolvedInValuesetBinding(t *testing.T) {
	src := "Alias: $sct = http://snomed.info/sct\n" +
		"Profile: MyObs\nParent: Observation\n* code from $sct\n"
	m := model(t, "a", src)
	g := depgraph.BuildGraph([]*semantic.Model{m})
	assert.Contains(t, g.Dependencies("MyObs"), "http://snomed.info/sct")
}

func TestBuildGraph_StronglyConnectedComponents(t *testing.T) {
	a := model(t, "a", "Profile: A\nParent: B\n")
	b := model(t, "b", "Profile: B\nParent: C\n")
	c := model(t, "c", "Profile: C\nParent: A\n")
	g := depgraph.BuildGraph([]*semantic.Model{a, b, c})

	sccs := g.StronglyConnectedComponents()
	var found bool
	for _, scc := range sccs {
		if len(scc) == 3 {
			found = true
			assert.ElementsMatch(t, []string{"A", "B", "C"}, scc)
		}
	}
	assert.True(t, found)
}

func TestIsPrimitiveType(t *testing.T) {
	assert.True(t, depgraph.IsPrimitiveType("boolean"))
	assert.True(t, depgraph.IsPrimitiveType("dateTime"))
	assert.False(t, depgraph.IsPrimitiveType("Patient"))
}

func TestIsBuiltinResource(t *testing.T) {
	assert.True(t, depgraph.IsBuiltinResource("Patient"))
	assert.True(t, depgraph.IsBuiltinResource("CodeableConcept"))
	assert.False(t, depgraph.IsBuiltinResource("MyCustomProfile"))
}
