package label

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coolbeans/datamap/pkg/store"
)

const ex = "http://example.org/onto#"

func tripleSet(triples ...store.Triple) *store.TripleSet {
	return store.NewTripleSetFrom(triples)
}

func lit(subject, predicate, value, language string) store.Triple {
	return store.NewTriple(store.Named(subject), store.Named(predicate), store.Literal(value, language))
}

func TestResolveLabel_Capitalizes(t *testing.T) {
	set := tripleSet(lit(ex+"Acme", store.RDFSLabel, "acme", "en"))

	text, ok := ResolveLabel(set, store.Named(ex+"Acme"), English, store.RDFSLabel)
	require.True(t, ok)
	assert.Equal(t, "Acme", text)
}

func TestResolveLabel_CapitalizesMultibyte(t *testing.T) {
	set := tripleSet(lit(ex+"Z", store.RDFSLabel, "čebela", "sl"))

	text, ok := ResolveLabel(set, store.Named(ex+"Z"), Slovenian, store.RDFSLabel)
	require.True(t, ok)
	assert.Equal(t, "Čebela", text)
}

func TestResolveLabel_Miss(t *testing.T) {
	set := tripleSet(
		lit(ex+"Acme", store.RDFSLabel, "acme", "de"),
		store.NewTriple(store.Named(ex+"Acme"), store.Named(store.RDFSLabel), store.Named(ex+"NotALiteral")),
	)

	_, ok := ResolveLabel(set, store.Named(ex+"Acme"), English, store.RDFSLabel)
	assert.False(t, ok)

	_, ok = ResolveLabel(set, store.Named(ex+"Other"), English, store.RDFSLabel)
	assert.False(t, ok)
}

func TestResolveLabel_LanguageTagCaseInsensitive(t *testing.T) {
	set := tripleSet(lit(ex+"A", store.RDFSLabel, "thing", "EN"))

	text, ok := ResolveLabel(set, store.Named(ex+"A"), English, store.RDFSLabel)
	require.True(t, ok)
	assert.Equal(t, "Thing", text)
}

func TestResolveLabels_PriorityPerLanguage(t *testing.T) {
	subject := ex + "Dataset"
	set := tripleSet(
		lit(subject, store.RDFSLabel, "label en", "en"),
		lit(subject, store.RDFSLabel, "oznaka", "sl"),
		lit(subject, store.DCTTitle, "title en", "en"),
		lit(subject, store.RDFSComment, "comment sl", "sl"),
	)

	labels := ResolveLabels(set, store.Named(subject), nil, false)
	assert.Equal(t, Multilingual{English: "Title en", Slovenian: "Oznaka"}, labels)
}

func TestResolveLabels_IDFallback(t *testing.T) {
	set := tripleSet()

	labels := ResolveLabels(set, store.Named("http://x.org/a#Thing"), nil, false)
	assert.Equal(t, Multilingual{English: "Thing", Slovenian: "Thing"}, labels)
}

func TestResolveLabels_MirrorsEnglishIntoSlovenian(t *testing.T) {
	subject := ex + "Cat"
	set := tripleSet(lit(subject, store.RDFSLabel, "cat", "en"))

	labels := ResolveLabels(set, store.Named(subject), nil, false)
	assert.Equal(t, Multilingual{English: "Cat", Slovenian: "Cat"}, labels)
}

func TestResolveLabels_SlovenianOnlyGetsIDForEnglish(t *testing.T) {
	subject := ex + "Macka"
	set := tripleSet(lit(subject, store.RDFSLabel, "mačka", "sl"))

	labels := ResolveLabels(set, store.Named(subject), nil, false)
	assert.Equal(t, Multilingual{English: "Macka", Slovenian: "Mačka"}, labels)
}

func TestResolveLabels_SkipIDFallback(t *testing.T) {
	subject := ex + "Cat"

	assert.Nil(t, ResolveLabels(tripleSet(), store.Named(subject), RangePredicates, true))

	set := tripleSet(lit(subject, store.FOAFName, "felix", "sl"))
	labels := ResolveLabels(set, store.Named(subject), RangePredicates, true)
	assert.Equal(t, Multilingual{Slovenian: "Felix"}, labels)
	assert.False(t, labels.Has(English))
}

func TestResolveLabels_NarrowPredicates(t *testing.T) {
	subject := ex + "Record1"
	set := tripleSet(lit(subject, store.RDFSLabel, "ignored", "en"))

	labels := ResolveLabels(set, store.Named(subject), InstancePredicates, false)
	assert.Equal(t, Multilingual{English: "Record1", Slovenian: "Record1"}, labels)
}

func TestResolveDefinitions_NoMirroring(t *testing.T) {
	subject := ex + "Cat"
	set := tripleSet(lit(subject, store.SKOSDefinition, "a small feline", "en"))

	definitions := ResolveDefinitions(set, store.Named(subject))
	assert.Equal(t, Multilingual{English: "a small feline"}, definitions)
	assert.False(t, definitions.Has(Slovenian))
}

func TestResolveDefinitions_BothAndNone(t *testing.T) {
	subject := ex + "Cat"
	set := tripleSet(
		lit(subject, store.SKOSDefinition, "mačka", "sl"),
		lit(subject, store.SKOSDefinition, "cat", "en"),
	)

	assert.Equal(t, Multilingual{English: "cat", Slovenian: "mačka"}, ResolveDefinitions(set, store.Named(subject)))
	assert.Nil(t, ResolveDefinitions(set, store.Named(ex+"Dog")))
}

func TestIDFromURI(t *testing.T) {
	tests := []struct {
		uri      string
		expected string
	}{
		{"http://x.org/a#B", "B"},
		{"http://x.org/a/B", "B"},
		{"plainstring", "plainstring"},
		{"http://x.org/a/b#", ""},
		{"_:b0", "_:b0"},
	}

	for _, tc := range tests {
		t.Run(tc.uri, func(t *testing.T) {
			assert.Equal(t, tc.expected, IDFromURI(tc.uri))
		})
	}
}

func TestMultilingual_Pick(t *testing.T) {
	assert.Equal(t, "Mačka", Multilingual{English: "Cat", Slovenian: "Mačka"}.Pick(Slovenian))
	assert.Equal(t, "Cat", Multilingual{English: "Cat"}.Pick(Slovenian))
	assert.Equal(t, "", Multilingual(nil).Pick(English))
}

func TestParseLanguage(t *testing.T) {
	language, ok := ParseLanguage(" EN ")
	assert.True(t, ok)
	assert.Equal(t, English, language)

	_, ok = ParseLanguage("de")
	assert.False(t, ok)
}
