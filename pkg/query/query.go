// Package query provides SPARQL query data structures and the synthesis of
// bounded-neighborhood CONSTRUCT queries around a focus concept.
package query

import (
	"regexp"
	"sort"
	"strings"
)

// QueryType represents the type of SPARQL query.
type QueryType string

const (
	// SelectQueryType represents a SELECT query.
	SelectQueryType QueryType = "SELECT"
	// ConstructQueryType represents a CONSTRUCT query.
	ConstructQueryType QueryType = "CONSTRUCT"
	// AskQueryType represents an ASK query.
	AskQueryType QueryType = "ASK"
	// DescribeQueryType represents a DESCRIBE query.
	DescribeQueryType QueryType = "DESCRIBE"
)

var queryFormPattern = regexp.MustCompile(`(?is)^\s*(?:(?:PREFIX\s+[^\s]*\s*<[^>]*>|BASE\s*<[^>]*>)\s*)*(SELECT|CONSTRUCT|ASK|DESCRIBE)\b`)

// DetectType returns the query form of queryText, skipping the PREFIX and
// BASE prologue. It returns "" for anything that is not a query, such as
// SPARQL Update requests.
func DetectType(queryText string) QueryType {
	match := queryFormPattern.FindStringSubmatch(queryText)
	if match == nil {
		return ""
	}
	return QueryType(strings.ToUpper(match[1]))
}

// TriplePattern represents a triple pattern in a WHERE clause.
type TriplePattern struct {
	Subject   string // Can be variable (?var), URI (<uri>), or prefixed (rdfs:domain)
	Predicate string
	Object    string
}

// String renders the pattern without the terminating dot.
func (p TriplePattern) String() string {
	return p.Subject + " " + p.Predicate + " " + p.Object
}

// Bind represents a BIND(value AS ?variable) clause.
type Bind struct {
	Value    string
	Variable string
}

// GroupPattern is one braced alternative of a UNION.
type GroupPattern struct {
	Bind     *Bind
	Patterns []TriplePattern
}

// String renders the group as "{ ... }".
func (g GroupPattern) String() string {
	var builder strings.Builder
	builder.WriteString("{ ")
	if g.Bind != nil {
		builder.WriteString("BIND(" + g.Bind.Value + " AS " + g.Bind.Variable + ") . ")
	}
	for index, pattern := range g.Patterns {
		if index > 0 {
			builder.WriteString(" . ")
		}
		builder.WriteString(pattern.String())
	}
	builder.WriteString(" }")
	return builder.String()
}

// ConstructQuery represents a CONSTRUCT query whose WHERE clause is either a
// plain basic graph pattern or a UNION of group patterns.
type ConstructQuery struct {
	Template []TriplePattern   // CONSTRUCT template patterns
	From     []string          // FROM graph IRIs (without brackets)
	Where    []TriplePattern   // WHERE clause triple patterns
	Union    []GroupPattern    // UNION alternatives, used instead of Where when non-empty
	Prefixes map[string]string // Prefix declarations
}

// String renders the query text, normalized to single spaces.
func (q *ConstructQuery) String() string {
	var builder strings.Builder

	prefixes := make([]string, 0, len(q.Prefixes))
	for prefix := range q.Prefixes {
		prefixes = append(prefixes, prefix)
	}
	sort.Strings(prefixes)
	for _, prefix := range prefixes {
		builder.WriteString("PREFIX " + prefix + ": <" + q.Prefixes[prefix] + "> ")
	}

	builder.WriteString("CONSTRUCT { ")
	for index, pattern := range q.Template {
		if index > 0 {
			builder.WriteString(" . ")
		}
		builder.WriteString(pattern.String())
	}
	builder.WriteString(" } ")

	for _, graph := range q.From {
		builder.WriteString("FROM <" + graph + "> ")
	}

	builder.WriteString("WHERE { ")
	if len(q.Union) > 0 {
		for index, group := range q.Union {
			if index > 0 {
				builder.WriteString(" UNION ")
			}
			builder.WriteString(group.String())
		}
	} else {
		for index, pattern := range q.Where {
			if index > 0 {
				builder.WriteString(" . ")
			}
			builder.WriteString(pattern.String())
		}
	}
	builder.WriteString(" }")

	return Normalize(builder.String())
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// Normalize collapses every whitespace run to a single space and trims the
// result.
func Normalize(text string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))
}

// URIRef wraps an IRI in angle brackets.
func URIRef(iri string) string {
	return "<" + iri + ">"
}
