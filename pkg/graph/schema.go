package graph

import (
	"log/slog"

	"github.com/coolbeans/datamap/pkg/label"
	"github.com/coolbeans/datamap/pkg/store"
)

// SubClassOfLabel is the fixed label of synthesized subclass properties.
var SubClassOfLabel = label.NewMultilingual("SubClassOf", "Podrazred")

// Projector converts triple sets into graph models. It holds no state
// between calls and is safe for concurrent use.
type Projector struct {
	logger *slog.Logger
}

// NewProjector creates a projector that logs skipped terms to logger.
func NewProjector(logger *slog.Logger) *Projector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Projector{logger: logger}
}

// ProjectSchema projects a triple set into the schema view with a default
// projector.
func ProjectSchema(set *store.TripleSet) *Model {
	return NewProjector(nil).Schema(set)
}

// Schema emits one node per declared class with its properties attached,
// followed by edges for properties whose domain and range are both classes.
func (p *Projector) Schema(set *store.TripleSet) *Model {
	model := NewModel()

	for _, class := range classes(set) {
		model.Nodes = append(model.Nodes, classNode(set, class))
	}
	model.Edges = append(model.Edges, schemaEdges(set)...)

	p.logger.Debug("Projected schema view",
		slog.Int("triples", set.Count()),
		slog.Int("nodes", len(model.Nodes)),
		slog.Int("edges", len(model.Edges)))

	return model
}

// classes returns every subject typed owl:Class or rdfs:Class, in first-seen
// order and without duplicates.
func classes(set *store.TripleSet) []store.Term {
	seen := make(map[store.Term]bool)
	var result []store.Term
	for _, triple := range set.Find(store.Term{}, store.TermRDFType, store.Term{}) {
		if triple.Object != store.TermOWLClass && triple.Object != store.TermRDFSClass {
			continue
		}
		if seen[triple.Subject] {
			continue
		}
		seen[triple.Subject] = true
		result = append(result, triple.Subject)
	}
	return result
}

func isClass(set *store.TripleSet, term store.Term) bool {
	if term.IsZero() || term.IsLiteral() {
		return false
	}
	return set.Exists(term, store.TermRDFType, store.TermOWLClass) ||
		set.Exists(term, store.TermRDFType, store.TermRDFSClass)
}

func classNode(set *store.TripleSet, class store.Term) Node {
	node := Node{
		Kind:       KindClass,
		ID:         class.ID(),
		Label:      label.ResolveLabels(set, class, label.DefaultPredicates, false),
		Definition: label.ResolveDefinitions(set, class),
	}

	for _, domain := range set.Find(store.Term{}, store.TermRDFSDomain, class) {
		property := domain.Subject
		rangeID := ""
		if rangeTerm, ok := set.FirstObject(property, store.TermRDFSRange); ok {
			rangeID = rangeTerm.ID()
		}
		propertyLabel := label.ResolveLabels(set, property, label.DefaultPredicates, false)

		if set.Exists(property, store.TermRDFType, store.TermOWLDatatypeProperty) {
			node.DataProperties = append(node.DataProperties, DataProperty{
				ID:    property.ID(),
				Range: rangeID,
				Label: propertyLabel,
			})
		} else {
			node.ObjectProperties = append(node.ObjectProperties, ObjectProperty{
				ID:    property.ID(),
				Range: rangeID,
				Label: propertyLabel,
			})
		}
	}

	for _, subClassOf := range set.Find(class, store.TermRDFSSubClassOf, store.Term{}) {
		node.ObjectProperties = append(node.ObjectProperties, ObjectProperty{
			ID:    syntheticID(subClassOf),
			Range: subClassOf.Object.ID(),
			Label: SubClassOfLabel.Clone(),
		})
	}

	return node
}

// schemaEdges emits one edge per (property, class domain) when the first
// range of an object or datatype property is itself a class. Properties
// ranging over literal datatypes stay node metadata only.
func schemaEdges(set *store.TripleSet) []Edge {
	var edges []Edge
	for _, typed := range set.Find(store.Term{}, store.TermRDFType, store.Term{}) {
		if typed.Object != store.TermOWLObjectProperty && typed.Object != store.TermOWLDatatypeProperty {
			continue
		}
		property := typed.Subject

		rangeTerm, ok := set.FirstObject(property, store.TermRDFSRange)
		if !ok || !isClass(set, rangeTerm) {
			continue
		}

		for _, domain := range set.Find(property, store.TermRDFSDomain, store.Term{}) {
			if !isClass(set, domain.Object) {
				continue
			}
			edges = append(edges, Edge{
				ID:     property.ID(),
				Source: domain.Object.ID(),
				Target: rangeTerm.ID(),
				Label:  label.ResolveLabels(set, property, label.DefaultPredicates, false),
			})
		}
	}
	return edges
}

// syntheticID joins predicate, subject and object so that statements
// sharing a predicate get distinct ids.
func syntheticID(triple store.Triple) string {
	return triple.Predicate.ID() + "_" + triple.Subject.ID() + "_" + triple.Object.ID()
}
