package query

import (
	"errors"
	"fmt"
	"strings"

	"github.com/coolbeans/datamap/pkg/store"
)

// NamedGraphsQuery lists the distinct named graphs known to the store.
const NamedGraphsQuery = "SELECT DISTINCT ?graph WHERE { GRAPH ?graph { ?s ?p ?o } }"

// NamedGraphVariable is the result variable of NamedGraphsQuery.
const NamedGraphVariable = "graph"

// ExpansionLevel is the number of hops a blank focus sits below the named
// anchor it was resolved to.
type ExpansionLevel int

const (
	// ExpandNone queries the plain one-hop neighborhood.
	ExpandNone ExpansionLevel = 0
	// ExpandOne is used when the blank node hangs directly off the anchor.
	// The one-hop neighborhood already covers it.
	ExpandOne ExpansionLevel = 1
	// ExpandTwo adds a three-hop chain below the anchor.
	ExpandTwo ExpansionLevel = 2
)

// Valid reports whether the level is 0, 1 or 2.
func (l ExpansionLevel) Valid() bool {
	return l >= ExpandNone && l <= ExpandTwo
}

var (
	// ErrInvalidFocus is returned for a focus that cannot be written as an IRI.
	ErrInvalidFocus = errors.New("invalid focus IRI")

	// ErrInvalidExpansion is returned for an expansion level outside 0..2.
	ErrInvalidExpansion = errors.New("invalid expansion level")
)

// Params selects the neighborhood to fetch.
type Params struct {
	// Focus is the IRI to center on. Empty fetches everything in scope.
	Focus string

	// NamedGraph restricts the query to one graph with a FROM clause.
	NamedGraph string

	// Schema selects the schema neighborhood instead of the instance one.
	Schema bool

	// Expansion adds the three-hop chain at ExpandTwo (instance mode only).
	Expansion ExpansionLevel

	// Graphs are the discovered named graphs, used as FROM clauses in
	// instance mode when NamedGraph is empty.
	Graphs []string
}

// NeedsGraphDiscovery reports whether Build expects Params.Graphs to be
// filled from a prior discovery query.
func NeedsGraphDiscovery(namedGraph string, schema bool) bool {
	return namedGraph == "" && !schema
}

// Build synthesizes the normalized CONSTRUCT query text for the parameters.
func Build(params Params) (string, error) {
	constructQuery, err := BuildConstruct(params)
	if err != nil {
		return "", err
	}
	return constructQuery.String(), nil
}

// BuildConstruct synthesizes the CONSTRUCT query structure. It never filters
// results; classification happens in the projections.
func BuildConstruct(params Params) (*ConstructQuery, error) {
	if !params.Expansion.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidExpansion, params.Expansion)
	}

	from, err := fromGraphs(params)
	if err != nil {
		return nil, err
	}

	constructQuery := &ConstructQuery{
		Template: []TriplePattern{{Subject: "?s", Predicate: "?p", Object: "?o"}},
		From:     from,
	}

	if params.Focus == "" {
		constructQuery.Where = []TriplePattern{{Subject: "?s", Predicate: "?p", Object: "?o"}}
		return constructQuery, nil
	}

	if err := validateIRI(params.Focus); err != nil {
		return nil, err
	}

	constructQuery.Prefixes = map[string]string{"rdfs": store.NamespaceRDFS}
	focus := URIRef(params.Focus)
	if params.Schema {
		constructQuery.Union = schemaNeighborhood(focus)
	} else {
		constructQuery.Union = instanceNeighborhood(focus, params.Expansion)
	}

	return constructQuery, nil
}

func fromGraphs(params Params) ([]string, error) {
	if params.NamedGraph != "" {
		if err := validateIRI(params.NamedGraph); err != nil {
			return nil, fmt.Errorf("named graph: %w", err)
		}
		return []string{params.NamedGraph}, nil
	}
	if params.Schema {
		return nil, nil
	}

	graphs := make([]string, 0, len(params.Graphs))
	for _, graph := range params.Graphs {
		if err := validateIRI(graph); err != nil {
			return nil, fmt.Errorf("discovered graph: %w", err)
		}
		graphs = append(graphs, graph)
	}
	return graphs, nil
}

// schemaNeighborhood is the one-hop schema neighborhood of a class: its own
// statements, the properties pointing to or from it and the classes at the
// other end of those properties, plus reverse references.
func schemaNeighborhood(focus string) []GroupPattern {
	return []GroupPattern{
		focusAsSubject(focus),
		{Patterns: []TriplePattern{
			{Subject: "?s", Predicate: "rdfs:domain", Object: focus},
			{Subject: "?s", Predicate: "?p", Object: "?o"},
		}},
		{Patterns: []TriplePattern{
			{Subject: "?p1", Predicate: "rdfs:domain", Object: focus},
			{Subject: "?p1", Predicate: "rdfs:range", Object: "?s"},
			{Subject: "?s", Predicate: "?p", Object: "?o"},
		}},
		{Patterns: []TriplePattern{
			{Subject: "?s", Predicate: "rdfs:range", Object: focus},
			{Subject: "?s", Predicate: "?p", Object: "?o"},
		}},
		{Patterns: []TriplePattern{
			{Subject: "?p1", Predicate: "rdfs:range", Object: focus},
			{Subject: "?p1", Predicate: "rdfs:domain", Object: "?s"},
			{Subject: "?s", Predicate: "?p", Object: "?o"},
		}},
		focusAsObject(focus),
	}
}

// instanceNeighborhood is the one-hop instance neighborhood expanded one
// more hop in both directions. ExpandTwo adds a chain reaching blank nodes
// nested two levels below the focus.
func instanceNeighborhood(focus string, expansion ExpansionLevel) []GroupPattern {
	groups := []GroupPattern{
		focusAsSubject(focus),
		focusAsObject(focus),
		{Patterns: []TriplePattern{
			{Subject: "?s", Predicate: "?p1", Object: focus},
			{Subject: "?s", Predicate: "?p", Object: "?o"},
		}},
		{Patterns: []TriplePattern{
			{Subject: focus, Predicate: "?p1", Object: "?s"},
			{Subject: "?s", Predicate: "?p", Object: "?o"},
		}},
	}

	if expansion == ExpandTwo {
		groups = append(groups, GroupPattern{Patterns: []TriplePattern{
			{Subject: focus, Predicate: "?p1", Object: "?s1"},
			{Subject: "?s1", Predicate: "?p2", Object: "?s"},
			{Subject: "?s", Predicate: "?p", Object: "?o"},
		}})
	}

	return groups
}

func focusAsSubject(focus string) GroupPattern {
	return GroupPattern{
		Bind:     &Bind{Value: focus, Variable: "?s"},
		Patterns: []TriplePattern{{Subject: "?s", Predicate: "?p", Object: "?o"}},
	}
}

func focusAsObject(focus string) GroupPattern {
	return GroupPattern{
		Bind:     &Bind{Value: focus, Variable: "?o"},
		Patterns: []TriplePattern{{Subject: "?s", Predicate: "?p", Object: "?o"}},
	}
}

// validateIRI rejects values that would break out of an IRIREF.
func validateIRI(iri string) error {
	if strings.TrimSpace(iri) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidFocus)
	}
	if store.IsBlankID(iri) {
		return fmt.Errorf("%w: blank node %q cannot be queried directly", ErrInvalidFocus, iri)
	}
	if strings.ContainsAny(iri, "<>\"{}|^`\\ \t\r\n") {
		return fmt.Errorf("%w: %q", ErrInvalidFocus, iri)
	}
	return nil
}
