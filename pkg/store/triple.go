package store

import "fmt"

// Triple represents an RDF Subject-Predicate-Object statement.
// In a SPARQL CONSTRUCT result:
//   - Subject: a named or blank term
//   - Predicate: always a named term (e.g., rdfs:label)
//   - Object: a named term, blank term or literal
type Triple struct {
	Subject   Term
	Predicate Term
	Object    Term
}

// NewTriple creates a new triple with the given components.
func NewTriple(subject, predicate, object Term) Triple {
	return Triple{
		Subject:   subject,
		Predicate: predicate,
		Object:    object,
	}
}

// Equals checks if two triples have identical components.
func (t Triple) Equals(other Triple) bool {
	return t == other
}

// String returns a human-readable representation of the triple.
func (t Triple) String() string {
	return fmt.Sprintf("%s %s %s", t.Subject, t.Predicate, t.Object)
}

// NTriples returns the triple in N-Triples format.
func (t Triple) NTriples() string {
	return fmt.Sprintf("%s %s %s .", t.Subject, t.Predicate, t.Object)
}

// IsValid returns true if the components have kinds RDF allows in their
// positions: a named or blank subject, a named predicate and any object.
func (t Triple) IsValid() bool {
	if !t.Subject.IsNamed() && !t.Subject.IsBlank() {
		return false
	}
	if !t.Predicate.IsNamed() || t.Predicate.Value == "" {
		return false
	}
	return t.Object.Kind != KindInvalid
}

// TriplePattern represents a pattern for matching triples.
// Zero-value terms act as wildcards that match any value.
type TriplePattern struct {
	Subject   Term
	Predicate Term
	Object    Term
}

// NewTriplePattern creates a new pattern for querying.
// Use Term{} for wildcards.
func NewTriplePattern(subject, predicate, object Term) TriplePattern {
	return TriplePattern{
		Subject:   subject,
		Predicate: predicate,
		Object:    object,
	}
}

// Matches checks if a triple matches this pattern.
func (p TriplePattern) Matches(t Triple) bool {
	if !p.Subject.IsZero() && p.Subject != t.Subject {
		return false
	}
	if !p.Predicate.IsZero() && p.Predicate != t.Predicate {
		return false
	}
	if !p.Object.IsZero() && p.Object != t.Object {
		return false
	}
	return true
}

// WildcardCount returns the number of wildcard components.
func (p TriplePattern) WildcardCount() int {
	count := 0
	if p.Subject.IsZero() {
		count++
	}
	if p.Predicate.IsZero() {
		count++
	}
	if p.Object.IsZero() {
		count++
	}
	return count
}
