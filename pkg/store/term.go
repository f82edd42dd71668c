package store

import (
	"fmt"
	"strings"
)

// BlankPrefix marks a blank node identifier. Named identifiers are absolute
// IRIs and never start with it, so string identifiers stay unambiguous.
const BlankPrefix = "_:"

// TermKind distinguishes the three RDF term kinds.
type TermKind int

const (
	// KindInvalid is the zero value. A TriplePattern treats it as a wildcard
	// and projections treat it as an unhandled object kind.
	KindInvalid TermKind = iota
	// KindNamed is an IRI.
	KindNamed
	// KindBlank is a blank node scoped to a single query result.
	KindBlank
	// KindLiteral is a string value with an optional language tag or datatype.
	KindLiteral
)

// String returns the kind name.
func (k TermKind) String() string {
	switch k {
	case KindNamed:
		return "named"
	case KindBlank:
		return "blank"
	case KindLiteral:
		return "literal"
	default:
		return "invalid"
	}
}

// Term is an RDF term: Named(iri) | Blank(label) | Literal(value, lang, datatype).
//
// Term is comparable and may be used as a map key.
type Term struct {
	Kind     TermKind
	Value    string // IRI, blank label (without "_:") or lexical value
	Language string // literals only
	Datatype string // literals only, empty for plain and language-tagged literals
}

// Named creates an IRI term.
func Named(iri string) Term {
	return Term{Kind: KindNamed, Value: iri}
}

// Blank creates a blank node term. A leading "_:" is stripped.
func Blank(label string) Term {
	return Term{Kind: KindBlank, Value: strings.TrimPrefix(label, BlankPrefix)}
}

// Literal creates a plain or language-tagged literal.
func Literal(value, language string) Term {
	return Term{Kind: KindLiteral, Value: value, Language: language}
}

// TypedLiteral creates a literal with an explicit datatype IRI.
func TypedLiteral(value, datatype string) Term {
	return Term{Kind: KindLiteral, Value: value, Datatype: datatype}
}

// ParseID turns a graph identifier back into a term: "_:x" is blank,
// anything else is named.
func ParseID(id string) Term {
	if IsBlankID(id) {
		return Blank(id)
	}
	return Named(id)
}

// IsBlankID reports whether a string identifier denotes a blank node.
func IsBlankID(id string) bool {
	return strings.HasPrefix(id, BlankPrefix)
}

// IsNamed reports whether the term is an IRI.
func (t Term) IsNamed() bool { return t.Kind == KindNamed }

// IsBlank reports whether the term is a blank node.
func (t Term) IsBlank() bool { return t.Kind == KindBlank }

// IsLiteral reports whether the term is a literal.
func (t Term) IsLiteral() bool { return t.Kind == KindLiteral }

// IsZero reports whether the term is unset.
func (t Term) IsZero() bool { return t == Term{} }

// ID returns the identifier used for graph elements: the IRI for named
// terms, "_:label" for blank nodes and the lexical value for literals.
func (t Term) ID() string {
	if t.Kind == KindBlank {
		return BlankPrefix + t.Value
	}
	return t.Value
}

// String returns the term in N-Triples syntax.
func (t Term) String() string {
	switch t.Kind {
	case KindNamed:
		return "<" + t.Value + ">"
	case KindBlank:
		return BlankPrefix + t.Value
	case KindLiteral:
		quoted := `"` + escapeLiteralString(t.Value) + `"`
		if t.Language != "" {
			return quoted + "@" + t.Language
		}
		if t.Datatype != "" {
			return quoted + "^^<" + t.Datatype + ">"
		}
		return quoted
	default:
		return fmt.Sprintf("?invalid(%q)", t.Value)
	}
}

// key is the index key of a term. Kind is part of the key so that a
// literal never collides with an IRI of the same text.
func (t Term) key() string {
	return t.String()
}
