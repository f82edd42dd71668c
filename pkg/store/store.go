package store

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// IndexStats contains statistics about a triple set.
type IndexStats struct {
	TotalTriples     int            `json:"total_triples"`
	UniqueSubjects   int            `json:"unique_subjects"`
	UniquePredicates int            `json:"unique_predicates"`
	UniqueObjects    int            `json:"unique_objects"`
	BlankNodes       int            `json:"blank_nodes"`
	Literals         int            `json:"literals"`
	PredicateCounts  map[string]int `json:"predicate_counts"`
}

// TripleSet holds the triples returned by one query execution.
// Duplicates are dropped on insert and iteration follows insertion order,
// which keeps projections deterministic for a given response.
//
// Lookups use three indexes over triple positions:
//   - SPO: Subject -> Predicate -> positions (facts about a subject)
//   - POS: Predicate -> Object -> positions (subjects with property=value)
//   - OSP: Object -> Subject -> positions (subjects pointing to an object)
type TripleSet struct {
	mu sync.RWMutex

	triples []Triple
	seen    map[Triple]struct{}

	spo map[string]map[string][]int
	pos map[string]map[string][]int
	osp map[string]map[string][]int

	predicateCounts map[string]int
}

// NewTripleSet creates an empty triple set with all indexes initialized.
func NewTripleSet() *TripleSet {
	return &TripleSet{
		seen:            make(map[Triple]struct{}),
		spo:             make(map[string]map[string][]int),
		pos:             make(map[string]map[string][]int),
		osp:             make(map[string]map[string][]int),
		predicateCounts: make(map[string]int),
	}
}

// NewTripleSetFrom builds a set from a slice, skipping invalid triples.
func NewTripleSetFrom(triples []Triple) *TripleSet {
	set := NewTripleSet()
	set.BulkAdd(triples)
	return set
}

// Add inserts a triple. Returns nil if successful or if the triple already
// exists (idempotent operation).
func (ts *TripleSet) Add(triple Triple) error {
	if !triple.IsValid() {
		return fmt.Errorf("invalid triple: %s", triple)
	}

	ts.mu.Lock()
	defer ts.mu.Unlock()

	ts.addUnsafe(triple)
	return nil
}

// BulkAdd inserts multiple triples holding the write lock once. Invalid
// triples are skipped. Returns the number of new triples.
func (ts *TripleSet) BulkAdd(triples []Triple) int {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	added := 0
	for _, triple := range triples {
		if !triple.IsValid() {
			continue
		}
		if ts.addUnsafe(triple) {
			added++
		}
	}
	return added
}

func (ts *TripleSet) addUnsafe(triple Triple) bool {
	if _, exists := ts.seen[triple]; exists {
		return false
	}
	ts.seen[triple] = struct{}{}

	position := len(ts.triples)
	ts.triples = append(ts.triples, triple)

	subject := triple.Subject.key()
	predicate := triple.Predicate.key()
	object := triple.Object.key()

	addPosition(ts.spo, subject, predicate, position)
	addPosition(ts.pos, predicate, object, position)
	addPosition(ts.osp, object, subject, position)

	ts.predicateCounts[triple.Predicate.Value]++
	return true
}

func addPosition(index map[string]map[string][]int, outer, inner string, position int) {
	if index[outer] == nil {
		index[outer] = make(map[string][]int)
	}
	index[outer][inner] = append(index[outer][inner], position)
}

// Find returns the triples matching the given terms in insertion order.
// Use Term{} for wildcards.
func (ts *TripleSet) Find(subject, predicate, object Term) []Triple {
	ts.mu.RLock()
	defer ts.mu.RUnlock()

	return ts.findUnsafe(NewTriplePattern(subject, predicate, object))
}

// Exists checks if any triple matches the given terms.
func (ts *TripleSet) Exists(subject, predicate, object Term) bool {
	ts.mu.RLock()
	defer ts.mu.RUnlock()

	if !subject.IsZero() && !predicate.IsZero() && !object.IsZero() {
		_, exists := ts.seen[NewTriple(subject, predicate, object)]
		return exists
	}
	return len(ts.findUnsafe(NewTriplePattern(subject, predicate, object))) > 0
}

// Objects returns the objects of all (subject, predicate, *) triples.
func (ts *TripleSet) Objects(subject, predicate Term) []Term {
	matches := ts.Find(subject, predicate, Term{})
	objects := make([]Term, 0, len(matches))
	for _, triple := range matches {
		objects = append(objects, triple.Object)
	}
	return objects
}

// FirstObject returns the first-inserted object of (subject, predicate, *).
func (ts *TripleSet) FirstObject(subject, predicate Term) (Term, bool) {
	matches := ts.Find(subject, predicate, Term{})
	if len(matches) == 0 {
		return Term{}, false
	}
	return matches[0].Object, true
}

// All returns every triple in insertion order.
func (ts *TripleSet) All() []Triple {
	ts.mu.RLock()
	defer ts.mu.RUnlock()

	result := make([]Triple, len(ts.triples))
	copy(result, ts.triples)
	return result
}

// Count returns the total number of triples in the set.
func (ts *TripleSet) Count() int {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return len(ts.triples)
}

// NTriples returns the set in N-Triples format, one statement per line in
// insertion order.
func (ts *TripleSet) NTriples() string {
	var builder strings.Builder
	for _, triple := range ts.All() {
		builder.WriteString(triple.NTriples())
		builder.WriteByte('\n')
	}
	return builder.String()
}

// Subjects returns all unique subjects in first-seen order.
func (ts *TripleSet) Subjects() []Term {
	ts.mu.RLock()
	defer ts.mu.RUnlock()

	seen := make(map[Term]bool, len(ts.spo))
	subjects := make([]Term, 0, len(ts.spo))
	for _, triple := range ts.triples {
		if !seen[triple.Subject] {
			seen[triple.Subject] = true
			subjects = append(subjects, triple.Subject)
		}
	}
	return subjects
}

// Stats returns statistics about the set.
func (ts *TripleSet) Stats() IndexStats {
	ts.mu.RLock()
	defer ts.mu.RUnlock()

	stats := IndexStats{
		TotalTriples:     len(ts.triples),
		UniqueSubjects:   len(ts.spo),
		UniquePredicates: len(ts.pos),
		UniqueObjects:    len(ts.osp),
		PredicateCounts:  make(map[string]int, len(ts.predicateCounts)),
	}
	for predicate, count := range ts.predicateCounts {
		stats.PredicateCounts[predicate] = count
	}

	blanks := make(map[Term]bool)
	for _, triple := range ts.triples {
		if triple.Subject.IsBlank() {
			blanks[triple.Subject] = true
		}
		switch triple.Object.Kind {
		case KindBlank:
			blanks[triple.Object] = true
		case KindLiteral:
			stats.Literals++
		}
	}
	stats.BlankNodes = len(blanks)

	return stats
}

// findUnsafe picks the most selective index for the bound components and
// filters the candidate positions against the full pattern.
func (ts *TripleSet) findUnsafe(pattern TriplePattern) []Triple {
	var positions []int

	switch {
	case !pattern.Subject.IsZero():
		pMap, ok := ts.spo[pattern.Subject.key()]
		if !ok {
			return nil
		}
		if !pattern.Predicate.IsZero() {
			positions = pMap[pattern.Predicate.key()]
		} else {
			positions = collectPositions(pMap)
		}
	case !pattern.Predicate.IsZero():
		oMap, ok := ts.pos[pattern.Predicate.key()]
		if !ok {
			return nil
		}
		if !pattern.Object.IsZero() {
			positions = oMap[pattern.Object.key()]
		} else {
			positions = collectPositions(oMap)
		}
	case !pattern.Object.IsZero():
		sMap, ok := ts.osp[pattern.Object.key()]
		if !ok {
			return nil
		}
		positions = collectPositions(sMap)
	default:
		result := make([]Triple, len(ts.triples))
		copy(result, ts.triples)
		return result
	}

	results := make([]Triple, 0, len(positions))
	for _, position := range positions {
		triple := ts.triples[position]
		if pattern.Matches(triple) {
			results = append(results, triple)
		}
	}
	return results
}

// collectPositions merges the position lists of an inner index map back
// into insertion order.
func collectPositions(inner map[string][]int) []int {
	total := 0
	for _, list := range inner {
		total += len(list)
	}
	positions := make([]int, 0, total)
	for _, list := range inner {
		positions = append(positions, list...)
	}
	sort.Ints(positions)
	return positions
}
