package sparql

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/knakk/rdf"

	"github.com/coolbeans/datamap/pkg/store"
)

// DecodeNTriples parses an N-Triples document into a triple set, preserving
// the order in which statements appear. N-Triples only has labelled blank
// nodes, so distinct blank nodes in the response stay distinct. Statements
// with a term of an unhandled kind are logged and skipped.
func DecodeNTriples(r io.Reader, logger *slog.Logger) (*store.TripleSet, error) {
	if logger == nil {
		logger = slog.Default()
	}
	decoder := rdf.NewTripleDecoder(r, rdf.NTriples)
	set := store.NewTripleSet()

	for {
		decoded, err := decoder.Decode()
		if errors.Is(err, io.EOF) {
			return set, nil
		}
		if err != nil {
			return nil, fmt.Errorf("decode n-triples: %w", err)
		}

		addDecoded(set, store.NewTriple(
			convertTerm(decoded.Subj),
			convertTerm(decoded.Pred),
			convertTerm(decoded.Obj),
		), logger)
	}
}

// addDecoded adds triple to set, or logs it when it cannot be stored.
func addDecoded(set *store.TripleSet, triple store.Triple, logger *slog.Logger) bool {
	if err := set.Add(triple); err != nil {
		logger.Warn("Skipping statement with unhandled term",
			slog.String("subject", triple.Subject.String()),
			slog.String("predicate", triple.Predicate.String()),
			slog.String("object_kind", triple.Object.Kind.String()))
		return false
	}
	return true
}

func convertTerm(term rdf.Term) store.Term {
	switch term.Type() {
	case rdf.TermIRI:
		return store.Named(term.String())
	case rdf.TermBlank:
		return store.Blank(strings.TrimPrefix(term.String(), store.BlankPrefix))
	case rdf.TermLiteral:
		literal, ok := term.(rdf.Literal)
		if !ok {
			return store.Literal(term.String(), "")
		}
		if language := literal.Lang(); language != "" {
			return store.Literal(literal.String(), language)
		}
		datatype := literal.DataType.String()
		if datatype == "" || datatype == store.NamespaceXSD+"string" {
			return store.Literal(literal.String(), "")
		}
		return store.TypedLiteral(literal.String(), datatype)
	default:
		return store.Term{}
	}
}

// Binding is one value of a SELECT result row.
type Binding struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Language string `json:"xml:lang,omitempty"`
	Datatype string `json:"datatype,omitempty"`
}

// Results is a decoded application/sparql-results+json document.
type Results struct {
	Head struct {
		Vars []string `json:"vars"`
	} `json:"head"`
	Results struct {
		Bindings []map[string]Binding `json:"bindings"`
	} `json:"results"`
}

// Values returns the non-empty values bound to variable, in row order.
func (r *Results) Values(variable string) []string {
	var values []string
	for _, row := range r.Results.Bindings {
		if binding, ok := row[variable]; ok && binding.Value != "" {
			values = append(values, binding.Value)
		}
	}
	return values
}

// DecodeResults parses SPARQL JSON results.
func DecodeResults(r io.Reader) (*Results, error) {
	var results Results
	if err := json.NewDecoder(r).Decode(&results); err != nil {
		return nil, fmt.Errorf("decode results: %w", err)
	}
	return &results, nil
}
