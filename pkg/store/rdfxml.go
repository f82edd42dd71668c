package store

import (
	"fmt"
	"sort"
	"strings"
)

// RDFXMLSerializer converts a TripleSet into RDF/XML.
type RDFXMLSerializer struct {
	prefixMappings []PrefixMapping
	namespaceIndex map[string]string // namespace -> prefix
}

// RDFXMLOption is a functional option for configuring the RDFXMLSerializer.
type RDFXMLOption func(*RDFXMLSerializer)

// NewRDFXMLSerializer creates an RDFXMLSerializer with the default namespace
// declarations.
func NewRDFXMLSerializer(options ...RDFXMLOption) *RDFXMLSerializer {
	serializer := &RDFXMLSerializer{
		prefixMappings: DefaultPrefixMappings(),
	}

	for _, option := range options {
		option(serializer)
	}

	serializer.namespaceIndex = make(map[string]string, len(serializer.prefixMappings))
	for _, mapping := range serializer.prefixMappings {
		serializer.namespaceIndex[mapping.Namespace] = mapping.Prefix
	}

	return serializer
}

// WithRDFXMLPrefix adds or overrides a namespace prefix mapping.
func WithRDFXMLPrefix(prefix, namespace string) RDFXMLOption {
	return func(serializer *RDFXMLSerializer) {
		serializer.prefixMappings = append(serializer.prefixMappings, PrefixMapping{
			Prefix:    prefix,
			Namespace: namespace,
		})
	}
}

// Serialize converts all triples in the set to RDF/XML. Predicates outside
// the known namespaces get generated ns0, ns1, ... prefixes.
func (serializer *RDFXMLSerializer) Serialize(set *TripleSet) string {
	var builder strings.Builder

	subjectGroups, subjects := groupBySubject(set)
	namespaces := serializer.collectNamespaces(subjectGroups)

	serializer.writeXMLHeader(&builder, namespaces)
	for _, subject := range subjects {
		serializer.writeDescription(&builder, subject, subjectGroups[subject], namespaces)
	}
	builder.WriteString("</rdf:RDF>\n")

	return builder.String()
}

// collectNamespaces returns namespace -> prefix for every predicate in use,
// always including rdf.
func (serializer *RDFXMLSerializer) collectNamespaces(subjectGroups map[Term]map[Term][]Term) map[string]string {
	namespaces := map[string]string{NamespaceRDF: "rdf"}

	var unknown []string
	for _, predicates := range subjectGroups {
		for predicate := range predicates {
			if namespace, prefix, ok := serializer.knownNamespace(predicate.Value); ok {
				namespaces[namespace] = prefix
				continue
			}
			namespace, _ := splitIRI(predicate.Value)
			if _, seen := namespaces[namespace]; !seen {
				namespaces[namespace] = ""
				unknown = append(unknown, namespace)
			}
		}
	}

	sort.Strings(unknown)
	for index, namespace := range unknown {
		namespaces[namespace] = fmt.Sprintf("ns%d", index)
	}
	return namespaces
}

func (serializer *RDFXMLSerializer) knownNamespace(iri string) (string, string, bool) {
	bestNamespace := ""
	for namespace := range serializer.namespaceIndex {
		if strings.HasPrefix(iri, namespace) && len(namespace) > len(bestNamespace) &&
			isXMLName(iri[len(namespace):]) {
			bestNamespace = namespace
		}
	}
	if bestNamespace == "" {
		return "", "", false
	}
	return bestNamespace, serializer.namespaceIndex[bestNamespace], true
}

func (serializer *RDFXMLSerializer) writeXMLHeader(builder *strings.Builder, namespaces map[string]string) {
	builder.WriteString("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	builder.WriteString("<rdf:RDF")

	sorted := make([]PrefixMapping, 0, len(namespaces))
	for namespace, prefix := range namespaces {
		sorted = append(sorted, PrefixMapping{Prefix: prefix, Namespace: namespace})
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Prefix < sorted[j].Prefix
	})

	for _, mapping := range sorted {
		fmt.Fprintf(builder, "\n    xmlns:%s=\"%s\"", mapping.Prefix, escapeXMLAttribute(mapping.Namespace))
	}

	builder.WriteString(">\n")
}

// writeDescription writes an rdf:Description block for a single subject.
func (serializer *RDFXMLSerializer) writeDescription(
	builder *strings.Builder,
	subject Term,
	predicateObjectMap map[Term][]Term,
	namespaces map[string]string,
) {
	builder.WriteString("\n")
	if subject.IsBlank() {
		fmt.Fprintf(builder, "  <rdf:Description rdf:nodeID=\"%s\">\n", escapeXMLAttribute(subject.Value))
	} else {
		fmt.Fprintf(builder, "  <rdf:Description rdf:about=\"%s\">\n", escapeXMLAttribute(subject.Value))
	}

	predicates := make([]Term, 0, len(predicateObjectMap))
	for predicate := range predicateObjectMap {
		predicates = append(predicates, predicate)
	}
	sort.Slice(predicates, func(i, j int) bool {
		if (predicates[i] == TermRDFType) != (predicates[j] == TermRDFType) {
			return predicates[i] == TermRDFType
		}
		return predicates[i].Value < predicates[j].Value
	})

	for _, predicate := range predicates {
		element := elementName(predicate.Value, namespaces)

		objects := make([]Term, len(predicateObjectMap[predicate]))
		copy(objects, predicateObjectMap[predicate])
		sort.Slice(objects, func(i, j int) bool {
			return objects[i].String() < objects[j].String()
		})

		for _, object := range objects {
			writeProperty(builder, element, object)
		}
	}

	builder.WriteString("  </rdf:Description>\n")
}

func writeProperty(builder *strings.Builder, element string, object Term) {
	switch {
	case object.IsNamed():
		fmt.Fprintf(builder, "    <%s rdf:resource=\"%s\"/>\n", element, escapeXMLAttribute(object.Value))
	case object.IsBlank():
		fmt.Fprintf(builder, "    <%s rdf:nodeID=\"%s\"/>\n", element, escapeXMLAttribute(object.Value))
	case object.Language != "":
		fmt.Fprintf(builder, "    <%s xml:lang=\"%s\">%s</%s>\n",
			element, escapeXMLAttribute(object.Language), escapeXMLText(object.Value), element)
	case object.Datatype != "":
		fmt.Fprintf(builder, "    <%s rdf:datatype=\"%s\">%s</%s>\n",
			element, escapeXMLAttribute(object.Datatype), escapeXMLText(object.Value), element)
	default:
		fmt.Fprintf(builder, "    <%s>%s</%s>\n", element, escapeXMLText(object.Value), element)
	}
}

func elementName(predicate string, namespaces map[string]string) string {
	bestNamespace := ""
	for namespace := range namespaces {
		if strings.HasPrefix(predicate, namespace) && len(namespace) > len(bestNamespace) &&
			isXMLName(predicate[len(namespace):]) {
			bestNamespace = namespace
		}
	}
	return namespaces[bestNamespace] + ":" + predicate[len(bestNamespace):]
}

// splitIRI splits an IRI after its last '#' or '/'.
func splitIRI(iri string) (string, string) {
	index := strings.LastIndexAny(iri, "#/")
	if index < 0 {
		return "", iri
	}
	return iri[:index+1], iri[index+1:]
}

// isXMLName reports whether local is usable as the local part of an
// element name.
func isXMLName(local string) bool {
	if local == "" {
		return false
	}
	for index, char := range local {
		switch {
		case char == '_' || (char >= 'a' && char <= 'z') || (char >= 'A' && char <= 'Z') || char > 0x7F:
		case index > 0 && (char == '-' || char == '.' || (char >= '0' && char <= '9')):
		default:
			return false
		}
	}
	return true
}

func escapeXMLText(text string) string {
	var builder strings.Builder
	builder.Grow(len(text) + len(text)/8)

	for _, char := range text {
		switch char {
		case '&':
			builder.WriteString("&amp;")
		case '<':
			builder.WriteString("&lt;")
		case '>':
			builder.WriteString("&gt;")
		default:
			builder.WriteRune(char)
		}
	}

	return builder.String()
}

func escapeXMLAttribute(text string) string {
	var builder strings.Builder
	builder.Grow(len(text) + len(text)/8)

	for _, char := range text {
		switch char {
		case '&':
			builder.WriteString("&amp;")
		case '<':
			builder.WriteString("&lt;")
		case '>':
			builder.WriteString("&gt;")
		case '"':
			builder.WriteString("&quot;")
		default:
			builder.WriteRune(char)
		}
	}

	return builder.String()
}
