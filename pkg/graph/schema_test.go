package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coolbeans/datamap/pkg/label"
	"github.com/coolbeans/datamap/pkg/store"
)

const ex = "http://example.org/onto#"

func named(subject, predicate, object string) store.Triple {
	return store.NewTriple(store.ParseID(subject), store.Named(predicate), store.ParseID(object))
}

func literal(subject, predicate, value, language string) store.Triple {
	return store.NewTriple(store.ParseID(subject), store.Named(predicate), store.Literal(value, language))
}

func tripleSet(triples ...store.Triple) *store.TripleSet {
	return store.NewTripleSetFrom(triples)
}

func TestSchema_DatatypePropertyWithoutEdge(t *testing.T) {
	set := tripleSet(
		named(ex+"Cat", store.RDFType, store.OWLClass),
		named(ex+"name", store.RDFSDomain, ex+"Cat"),
		named(ex+"name", store.RDFType, store.OWLDatatypeProperty),
	)

	model := ProjectSchema(set)

	require.Len(t, model.Nodes, 1)
	assert.Empty(t, model.Edges)

	cat := model.Nodes[0]
	assert.Equal(t, KindClass, cat.Kind)
	assert.Equal(t, ex+"Cat", cat.ID)
	assert.Equal(t, label.NewMultilingual("Cat", "Cat"), cat.Label)
	assert.Nil(t, cat.Definition)
	require.Len(t, cat.DataProperties, 1)
	assert.Equal(t, ex+"name", cat.DataProperties[0].ID)
	assert.Empty(t, cat.DataProperties[0].Range)
	assert.Empty(t, cat.ObjectProperties)
}

func TestSchema_ObjectPropertyBetweenClassesMakesEdge(t *testing.T) {
	set := tripleSet(
		named(ex+"Person", store.RDFType, store.OWLClass),
		named(ex+"Company", store.RDFType, store.RDFSClass),
		named(ex+"worksFor", store.RDFType, store.OWLObjectProperty),
		named(ex+"worksFor", store.RDFSDomain, ex+"Person"),
		named(ex+"worksFor", store.RDFSRange, ex+"Company"),
		literal(ex+"worksFor", store.RDFSLabel, "works for", "en"),
		literal(ex+"worksFor", store.RDFSLabel, "dela za", "sl"),
	)

	model := ProjectSchema(set)

	require.Len(t, model.Nodes, 2)
	assert.Equal(t, ex+"Person", model.Nodes[0].ID)
	assert.Equal(t, ex+"Company", model.Nodes[1].ID)

	person := model.Nodes[0]
	require.Len(t, person.ObjectProperties, 1)
	assert.Equal(t, ObjectProperty{
		ID:    ex + "worksFor",
		Range: ex + "Company",
		Label: label.NewMultilingual("Works for", "Dela za"),
	}, person.ObjectProperties[0])

	require.Len(t, model.Edges, 1)
	assert.Equal(t, Edge{
		ID:     ex + "worksFor",
		Source: ex + "Person",
		Target: ex + "Company",
		Label:  label.NewMultilingual("Works for", "Dela za"),
	}, model.Edges[0])
}

func TestSchema_EdgeRequiresClassRangeAndDomain(t *testing.T) {
	tests := []struct {
		name    string
		triples []store.Triple
	}{
		{
			name: "range is a datatype",
			triples: []store.Triple{
				named(ex+"Person", store.RDFType, store.OWLClass),
				named(ex+"age", store.RDFType, store.OWLDatatypeProperty),
				named(ex+"age", store.RDFSDomain, ex+"Person"),
				named(ex+"age", store.RDFSRange, store.NamespaceXSD+"integer"),
			},
		},
		{
			name: "domain is not a class",
			triples: []store.Triple{
				named(ex+"Company", store.RDFType, store.OWLClass),
				named(ex+"owns", store.RDFType, store.OWLObjectProperty),
				named(ex+"owns", store.RDFSDomain, ex+"Thing"),
				named(ex+"owns", store.RDFSRange, ex+"Company"),
			},
		},
		{
			name: "property is untyped",
			triples: []store.Triple{
				named(ex+"Person", store.RDFType, store.OWLClass),
				named(ex+"knows", store.RDFSDomain, ex+"Person"),
				named(ex+"knows", store.RDFSRange, ex+"Person"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := ProjectSchema(tripleSet(tt.triples...))
			assert.Empty(t, model.Edges)
		})
	}
}

func TestSchema_EdgePerDomain(t *testing.T) {
	set := tripleSet(
		named(ex+"Person", store.RDFType, store.OWLClass),
		named(ex+"Company", store.RDFType, store.OWLClass),
		named(ex+"Address", store.RDFType, store.OWLClass),
		named(ex+"address", store.RDFType, store.OWLObjectProperty),
		named(ex+"address", store.RDFSDomain, ex+"Person"),
		named(ex+"address", store.RDFSDomain, ex+"Company"),
		named(ex+"address", store.RDFSRange, ex+"Address"),
	)

	model := ProjectSchema(set)

	require.Len(t, model.Edges, 2)
	assert.Equal(t, ex+"Person", model.Edges[0].Source)
	assert.Equal(t, ex+"Company", model.Edges[1].Source)
	assert.Equal(t, model.Edges[0].ID, model.Edges[1].ID)
}

func TestSchema_SubClassOf(t *testing.T) {
	set := tripleSet(
		named(ex+"Animal", store.RDFType, store.OWLClass),
		named(ex+"Dog", store.RDFType, store.OWLClass),
		named(ex+"Dog", store.RDFSSubClassOf, ex+"Animal"),
	)

	model := ProjectSchema(set)

	dog, ok := model.Node(ex + "Dog")
	require.True(t, ok)
	require.Len(t, dog.ObjectProperties, 1)
	assert.Equal(t, ObjectProperty{
		ID:    store.RDFSSubClassOf + "_" + ex + "Dog_" + ex + "Animal",
		Range: ex + "Animal",
		Label: label.NewMultilingual("SubClassOf", "Podrazred"),
	}, dog.ObjectProperties[0])
}

func TestSchema_LabelsAndDefinitions(t *testing.T) {
	set := tripleSet(
		named(ex+"Cat", store.RDFType, store.OWLClass),
		literal(ex+"Cat", store.RDFSLabel, "cat", "en"),
		literal(ex+"Cat", store.DCTTitle, "mačka", "sl"),
		literal(ex+"Cat", store.SKOSDefinition, "a small feline", "en"),
	)

	model := ProjectSchema(set)

	require.Len(t, model.Nodes, 1)
	assert.Equal(t, label.NewMultilingual("Cat", "Mačka"), model.Nodes[0].Label)
	assert.Equal(t, label.Multilingual{label.English: "a small feline"}, model.Nodes[0].Definition)
}

func TestSchema_ClassDeclaredTwice(t *testing.T) {
	set := tripleSet(
		named(ex+"Cat", store.RDFType, store.OWLClass),
		named(ex+"Cat", store.RDFType, store.RDFSClass),
	)

	model := ProjectSchema(set)
	assert.Len(t, model.Nodes, 1)
}

func TestSchema_Empty(t *testing.T) {
	model := ProjectSchema(store.NewTripleSet())
	assert.True(t, model.IsEmpty())
	assert.NotNil(t, model.Nodes)
	assert.NotNil(t, model.Edges)
}

func TestSchema_Idempotent(t *testing.T) {
	set := tripleSet(
		named(ex+"Person", store.RDFType, store.OWLClass),
		named(ex+"Company", store.RDFType, store.OWLClass),
		named(ex+"worksFor", store.RDFType, store.OWLObjectProperty),
		named(ex+"worksFor", store.RDFSDomain, ex+"Person"),
		named(ex+"worksFor", store.RDFSRange, ex+"Company"),
	)

	assert.Equal(t, ProjectSchema(set), ProjectSchema(set))
}
