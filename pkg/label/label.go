// Package label resolves human-readable, multilingual labels and definitions
// for RDF subjects from a triple set.
//
// A missing label is never an error: resolution either yields nothing or
// falls back to the tail of the identifier.
package label

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/coolbeans/datamap/pkg/store"
)

// Language is a label language code.
type Language string

const (
	// English labels.
	English Language = "en"
	// Slovenian labels.
	Slovenian Language = "sl"
)

// Languages lists every language a label is computed for, in resolution order.
var Languages = []Language{English, Slovenian}

// ParseLanguage maps a configuration value to a supported language.
func ParseLanguage(value string) (Language, bool) {
	switch Language(strings.ToLower(strings.TrimSpace(value))) {
	case English:
		return English, true
	case Slovenian:
		return Slovenian, true
	}
	return "", false
}

// Multilingual maps a language to its text. A nil value means "absent".
// A present key with an empty string is an explicit empty label, which
// blank instance nodes carry.
type Multilingual map[Language]string

// NewMultilingual creates a label with both languages set.
func NewMultilingual(en, sl string) Multilingual {
	return Multilingual{English: en, Slovenian: sl}
}

// Get returns the text for a language.
func (m Multilingual) Get(language Language) string {
	return m[language]
}

// Has reports whether the language key is present.
func (m Multilingual) Has(language Language) bool {
	_, ok := m[language]
	return ok
}

// IsEmpty reports whether no language carries any text.
func (m Multilingual) IsEmpty() bool {
	for _, text := range m {
		if text != "" {
			return false
		}
	}
	return true
}

// Pick returns the text in the preferred language, falling back to any
// other non-empty language in resolution order.
func (m Multilingual) Pick(preferred Language) string {
	if text := m[preferred]; text != "" {
		return text
	}
	for _, language := range Languages {
		if text := m[language]; text != "" {
			return text
		}
	}
	return ""
}

// Clone returns a copy that can be modified independently.
func (m Multilingual) Clone() Multilingual {
	if m == nil {
		return nil
	}
	clone := make(Multilingual, len(m))
	for language, text := range m {
		clone[language] = text
	}
	return clone
}

// DefaultPredicates is the label priority for classes and properties:
// earlier predicates win per language.
var DefaultPredicates = []string{
	store.DCTTitle,
	store.RDFSLabel,
	store.SKOSPrefLabel,
	store.RDFSComment,
}

// InstancePredicates is used for the title of named instance nodes.
var InstancePredicates = []string{store.DCTTitle}

// RangePredicates is used for best-effort labels of object property targets.
var RangePredicates = []string{
	store.DCTTitle,
	store.RDFSLabel,
	store.SKOSPrefLabel,
	store.FOAFName,
	store.RDFSComment,
}

// ResolveLabel returns the first literal of (subject, predicate, *) tagged
// with the language, with its first character capitalized.
func ResolveLabel(set *store.TripleSet, subject store.Term, language Language, predicate string) (string, bool) {
	for _, object := range set.Objects(subject, store.Named(predicate)) {
		if !object.IsLiteral() || !strings.EqualFold(object.Language, string(language)) {
			continue
		}
		return capitalize(object.Value), true
	}
	return "", false
}

// ResolveLabels tries each predicate in priority order for each language and
// keeps the first non-empty hit. Unless skipIDFallback is set, a missing
// English label falls back to the identifier tail and a missing Slovenian
// label mirrors the English one. Returns nil when nothing resolved.
func ResolveLabels(set *store.TripleSet, subject store.Term, predicates []string, skipIDFallback bool) Multilingual {
	if predicates == nil {
		predicates = DefaultPredicates
	}

	result := Multilingual{}
	for _, predicate := range predicates {
		for _, language := range Languages {
			if result[language] != "" {
				continue
			}
			if text, ok := ResolveLabel(set, subject, language, predicate); ok && text != "" {
				result[language] = text
			}
		}
	}

	if !skipIDFallback {
		if result[English] == "" {
			result[English] = IDFromURI(subject.ID())
		}
		if result[Slovenian] == "" {
			result[Slovenian] = result[English]
		}
	}

	if result.IsEmpty() {
		return nil
	}
	return result
}

// ResolveDefinitions returns the skos:definition literal per language.
// Languages without a definition are absent; nothing is mirrored.
func ResolveDefinitions(set *store.TripleSet, subject store.Term) Multilingual {
	var result Multilingual
	for _, language := range Languages {
		for _, object := range set.Objects(subject, store.TermSKOSDefinition) {
			if !object.IsLiteral() || !strings.EqualFold(object.Language, string(language)) {
				continue
			}
			if result == nil {
				result = Multilingual{}
			}
			result[language] = object.Value
			break
		}
	}
	return result
}

// IDFromURI returns the segment after the final "/" or "#", or the whole
// string when it has neither.
func IDFromURI(uri string) string {
	if index := strings.LastIndexAny(uri, "/#"); index != -1 {
		return uri[index+1:]
	}
	return uri
}

func capitalize(text string) string {
	first, size := utf8.DecodeRuneInString(text)
	if first == utf8.RuneError {
		return text
	}
	return string(unicode.ToUpper(first)) + text[size:]
}
