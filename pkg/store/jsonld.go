package store

import (
	"encoding/json"
	"sort"
	"strings"
)

// JSONLDContext represents a JSON-LD @context document.
type JSONLDContext map[string]interface{}

// JSONLDSerializer converts a TripleSet into JSON-LD.
type JSONLDSerializer struct {
	prefixMappings []PrefixMapping
	namespaceIndex map[string]string // namespace -> prefix
	compactForm    bool
}

// JSONLDOption is a functional option for configuring the JSONLDSerializer.
type JSONLDOption func(*JSONLDSerializer)

// NewJSONLDSerializer creates a JSONLDSerializer producing compact JSON-LD
// with the default prefixes.
func NewJSONLDSerializer(options ...JSONLDOption) *JSONLDSerializer {
	serializer := &JSONLDSerializer{
		prefixMappings: DefaultPrefixMappings(),
		compactForm:    true,
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

// WithJSONLDPrefix adds or overrides a prefix mapping.
func WithJSONLDPrefix(prefix, namespace string) JSONLDOption {
	return func(serializer *JSONLDSerializer) {
		serializer.prefixMappings = append(serializer.prefixMappings, PrefixMapping{
			Prefix:    prefix,
			Namespace: namespace,
		})
	}
}

// WithExpandedForm configures the serializer to output expanded JSON-LD
// (no context, full IRIs, every value in an array).
func WithExpandedForm() JSONLDOption {
	return func(serializer *JSONLDSerializer) {
		serializer.compactForm = false
	}
}

// BuildContext creates the @context document from the prefix mappings.
func (serializer *JSONLDSerializer) BuildContext() JSONLDContext {
	context := make(JSONLDContext, len(serializer.prefixMappings))
	for _, mapping := range serializer.prefixMappings {
		context[mapping.Prefix] = mapping.Namespace
	}
	return context
}

// JSONLDDocument represents a compact JSON-LD document.
type JSONLDDocument struct {
	Context interface{}              `json:"@context,omitempty"`
	Graph   []map[string]interface{} `json:"@graph"`
}

// Serialize converts all triples in the set to JSON-LD. Subjects are
// sorted, named subjects before blank ones.
func (serializer *JSONLDSerializer) Serialize(set *TripleSet) ([]byte, error) {
	subjectGroups, subjects := groupBySubject(set)

	graph := make([]map[string]interface{}, 0, len(subjects))
	for _, subject := range subjects {
		graph = append(graph, serializer.buildNode(subject, subjectGroups[subject]))
	}

	if !serializer.compactForm {
		return json.MarshalIndent(graph, "", "  ")
	}
	return json.MarshalIndent(JSONLDDocument{
		Context: serializer.BuildContext(),
		Graph:   graph,
	}, "", "  ")
}

func (serializer *JSONLDSerializer) buildNode(subject Term, predicateObjectMap map[Term][]Term) map[string]interface{} {
	node := map[string]interface{}{"@id": serializer.reference(subject)}

	for predicate, objects := range predicateObjectMap {
		sorted := make([]Term, len(objects))
		copy(sorted, objects)
		sort.Slice(sorted, func(i, j int) bool {
			return sorted[i].String() < sorted[j].String()
		})

		if predicate == TermRDFType {
			types := make([]interface{}, 0, len(sorted))
			for _, object := range sorted {
				types = append(types, serializer.reference(object))
			}
			node["@type"] = serializer.collapse(types)
			continue
		}

		values := make([]interface{}, 0, len(sorted))
		for _, object := range sorted {
			values = append(values, serializer.value(object))
		}
		node[serializer.iri(predicate.Value)] = serializer.collapse(values)
	}

	return node
}

// value formats an object: node references as {"@id"}, literals as value
// objects. Compact form writes plain literals as bare strings.
func (serializer *JSONLDSerializer) value(object Term) interface{} {
	switch object.Kind {
	case KindNamed, KindBlank:
		return map[string]string{"@id": serializer.reference(object)}
	case KindLiteral:
		switch {
		case object.Language != "":
			return map[string]string{"@value": object.Value, "@language": object.Language}
		case object.Datatype != "":
			return map[string]string{"@value": object.Value, "@type": serializer.iri(object.Datatype)}
		case serializer.compactForm:
			return object.Value
		default:
			return map[string]string{"@value": object.Value}
		}
	default:
		return nil
	}
}

// collapse unwraps single values in compact form.
func (serializer *JSONLDSerializer) collapse(values []interface{}) interface{} {
	if serializer.compactForm && len(values) == 1 {
		return values[0]
	}
	return values
}

func (serializer *JSONLDSerializer) reference(term Term) string {
	if term.IsBlank() {
		return term.ID()
	}
	return serializer.iri(term.Value)
}

// iri compacts an IRI to prefix:local in compact form.
func (serializer *JSONLDSerializer) iri(fullURI string) string {
	if !serializer.compactForm {
		return fullURI
	}

	bestPrefix := ""
	bestNamespace := ""
	for namespace, prefix := range serializer.namespaceIndex {
		if strings.HasPrefix(fullURI, namespace) && len(namespace) > len(bestNamespace) {
			if isValidLocalName(fullURI[len(namespace):]) {
				bestPrefix = prefix
				bestNamespace = namespace
			}
		}
	}
	if bestNamespace == "" {
		return fullURI
	}
	return bestPrefix + ":" + fullURI[len(bestNamespace):]
}

// groupBySubject organizes triples into subject -> predicate -> []object
// and returns the subjects in output order.
func groupBySubject(set *TripleSet) (map[Term]map[Term][]Term, []Term) {
	subjectGroups := make(map[Term]map[Term][]Term)

	for _, triple := range set.All() {
		if _, exists := subjectGroups[triple.Subject]; !exists {
			subjectGroups[triple.Subject] = make(map[Term][]Term)
		}
		subjectGroups[triple.Subject][triple.Predicate] = append(
			subjectGroups[triple.Subject][triple.Predicate],
			triple.Object,
		)
	}

	subjects := make([]Term, 0, len(subjectGroups))
	for subject := range subjectGroups {
		subjects = append(subjects, subject)
	}
	sort.Slice(subjects, func(i, j int) bool {
		if subjects[i].Kind != subjects[j].Kind {
			return subjects[i].Kind < subjects[j].Kind
		}
		return subjects[i].Value < subjects[j].Value
	})

	return subjectGroups, subjects
}
