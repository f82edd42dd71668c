package store

import (
	"fmt"
	"sort"
	"strings"
)

// TurtleSerializer converts a TripleSet into W3C-compliant Turtle (TTL) format.
type TurtleSerializer struct {
	prefixMappings []PrefixMapping
	namespaceIndex map[string]string // namespace -> prefix
}

// TurtleOption is a functional option for configuring the TurtleSerializer.
type TurtleOption func(*TurtleSerializer)

// NewTurtleSerializer creates a TurtleSerializer with standard prefix declarations.
func NewTurtleSerializer(options ...TurtleOption) *TurtleSerializer {
	serializer := &TurtleSerializer{
		prefixMappings: DefaultPrefixMappings(),
	}

	for _, option := range options {
		option(serializer)
	}

	serializer.rebuildIndexes()

	return serializer
}

// WithPrefix adds or overrides a prefix mapping.
func WithPrefix(prefix, namespace string) TurtleOption {
	return func(serializer *TurtleSerializer) {
		serializer.prefixMappings = append(serializer.prefixMappings, PrefixMapping{
			Prefix:    prefix,
			Namespace: namespace,
		})
	}
}

// WithoutDefaultPrefixes clears default prefixes so only custom ones are used.
func WithoutDefaultPrefixes() TurtleOption {
	return func(serializer *TurtleSerializer) {
		serializer.prefixMappings = nil
	}
}

func (serializer *TurtleSerializer) rebuildIndexes() {
	serializer.namespaceIndex = make(map[string]string, len(serializer.prefixMappings))
	for _, mapping := range serializer.prefixMappings {
		serializer.namespaceIndex[mapping.Namespace] = mapping.Prefix
	}
}

// Serialize converts all triples in the set to Turtle format. Subjects are
// sorted, named subjects before blank ones.
func (serializer *TurtleSerializer) Serialize(set *TripleSet) string {
	var builder strings.Builder

	serializer.writePrefixDeclarations(&builder)

	subjectGroups, subjects := groupBySubject(set)

	for subjectIndex, subject := range subjects {
		if subjectIndex > 0 {
			builder.WriteString("\n")
		}
		serializer.writeSubjectGroup(&builder, subject, subjectGroups[subject])
	}

	return builder.String()
}

func (serializer *TurtleSerializer) writePrefixDeclarations(builder *strings.Builder) {
	sortedPrefixes := make([]PrefixMapping, len(serializer.prefixMappings))
	copy(sortedPrefixes, serializer.prefixMappings)
	sort.Slice(sortedPrefixes, func(i, j int) bool {
		return sortedPrefixes[i].Prefix < sortedPrefixes[j].Prefix
	})

	for _, mapping := range sortedPrefixes {
		fmt.Fprintf(builder, "@prefix %s: <%s> .\n", mapping.Prefix, mapping.Namespace)
	}

	if len(serializer.prefixMappings) > 0 {
		builder.WriteString("\n")
	}
}

func (serializer *TurtleSerializer) writeSubjectGroup(
	builder *strings.Builder,
	subject Term,
	predicateObjectMap map[Term][]Term,
) {
	builder.WriteString(serializer.formatTerm(subject))

	sortedPredicates := serializer.sortPredicatesTypeFirst(predicateObjectMap)

	for predicateIndex, predicate := range sortedPredicates {
		objects := serializer.formatObjects(predicateObjectMap[predicate])

		if predicateIndex == 0 {
			builder.WriteString(" ")
		} else {
			builder.WriteString(" ;\n    ")
		}

		builder.WriteString(serializer.formatPredicate(predicate))

		for objectIndex, object := range objects {
			if objectIndex > 0 {
				builder.WriteString(" ,\n        ")
			} else {
				builder.WriteString(" ")
			}
			builder.WriteString(object)
		}
	}

	builder.WriteString(" .\n")
}

func (serializer *TurtleSerializer) formatObjects(objects []Term) []string {
	formatted := make([]string, 0, len(objects))
	for _, object := range objects {
		formatted = append(formatted, serializer.formatTerm(object))
	}
	sort.Strings(formatted)
	return formatted
}

// formatTerm writes a term using a prefixed name where one applies.
func (serializer *TurtleSerializer) formatTerm(term Term) string {
	switch term.Kind {
	case KindNamed:
		if compacted, ok := serializer.compactURI(term.Value); ok {
			return compacted
		}
		return "<" + escapeIRI(term.Value) + ">"
	case KindLiteral:
		literal := formatLiteral(term.Value)
		if term.Language != "" {
			return literal + "@" + term.Language
		}
		if term.Datatype != "" {
			return literal + "^^" + serializer.formatTerm(Named(term.Datatype))
		}
		return literal
	default:
		return term.String()
	}
}

// formatPredicate formats a predicate, using "a" shorthand for rdf:type.
func (serializer *TurtleSerializer) formatPredicate(predicate Term) string {
	if predicate == TermRDFType {
		return "a"
	}
	return serializer.formatTerm(predicate)
}

// compactURI replaces a full namespace URI with its prefix form.
func (serializer *TurtleSerializer) compactURI(fullURI string) (string, bool) {
	// Try longest namespace match first for correctness
	bestPrefix := ""
	bestNamespace := ""
	for namespace, prefix := range serializer.namespaceIndex {
		if strings.HasPrefix(fullURI, namespace) && len(namespace) > len(bestNamespace) {
			localName := fullURI[len(namespace):]
			if isValidLocalName(localName) {
				bestPrefix = prefix
				bestNamespace = namespace
			}
		}
	}

	if bestNamespace != "" {
		return bestPrefix + ":" + fullURI[len(bestNamespace):], true
	}
	return "", false
}

// sortPredicatesTypeFirst sorts predicates with rdf:type first, then alphabetically.
func (serializer *TurtleSerializer) sortPredicatesTypeFirst(predicateObjectMap map[Term][]Term) []Term {
	predicates := make([]Term, 0, len(predicateObjectMap))
	hasRDFType := false

	for predicate := range predicateObjectMap {
		if predicate == TermRDFType {
			hasRDFType = true
		} else {
			predicates = append(predicates, predicate)
		}
	}

	sort.Slice(predicates, func(i, j int) bool {
		return predicates[i].Value < predicates[j].Value
	})

	if hasRDFType {
		predicates = append([]Term{TermRDFType}, predicates...)
	}

	return predicates
}

// isValidLocalName checks if a string is a valid Turtle local name.
func isValidLocalName(localName string) bool {
	if localName == "" {
		return false
	}
	return !strings.ContainsAny(localName, " \t\n\r<>\"{}|^`\\/#?&=%,;()[]")
}

// formatLiteral wraps a string value in Turtle-compliant double quotes.
func formatLiteral(value string) string {
	escaped := escapeLiteralString(value)

	if strings.Contains(value, "\n") {
		return `"""` + escaped + `"""`
	}

	return `"` + escaped + `"`
}

// escapeLiteralString escapes the characters Turtle string literals cannot hold.
func escapeLiteralString(value string) string {
	var builder strings.Builder
	builder.Grow(len(value) + len(value)/8)

	for _, char := range value {
		switch char {
		case '\\':
			builder.WriteString(`\\`)
		case '"':
			builder.WriteString(`\"`)
		case '\n':
			builder.WriteString(`\n`)
		case '\r':
			builder.WriteString(`\r`)
		case '\t':
			builder.WriteString(`\t`)
		default:
			builder.WriteRune(char)
		}
	}

	return builder.String()
}

// escapeIRI escapes characters not allowed in IRIs within angle brackets.
func escapeIRI(iri string) string {
	var builder strings.Builder
	builder.Grow(len(iri))

	for _, char := range iri {
		switch char {
		case '<':
			builder.WriteString(`\u003C`)
		case '>':
			builder.WriteString(`\u003E`)
		case '"':
			builder.WriteString(`\u0022`)
		case ' ':
			builder.WriteString(`\u0020`)
		case '{':
			builder.WriteString(`\u007B`)
		case '}':
			builder.WriteString(`\u007D`)
		default:
			builder.WriteRune(char)
		}
	}

	return builder.String()
}
