package graph

import (
	"log/slog"

	"github.com/coolbeans/datamap/pkg/label"
	"github.com/coolbeans/datamap/pkg/store"
)

// ProjectInstances projects a triple set into the instance view with a
// default projector.
func ProjectInstances(set *store.TripleSet) *Model {
	return NewProjector(nil).Instances(set)
}

// Instances emits one node per instance candidate and one edge per
// non-literal, non-type statement between two candidates.
func (p *Projector) Instances(set *store.TripleSet) *Model {
	model := NewModel()

	candidates := instanceCandidates(set)
	members := make(map[string]bool, len(candidates))
	for _, candidate := range candidates {
		members[candidate.ID()] = true
		model.Nodes = append(model.Nodes, p.instanceNode(set, candidate))
	}

	for _, triple := range set.All() {
		if triple.Object.IsLiteral() || triple.Predicate == store.TermRDFType {
			continue
		}
		if !members[triple.Subject.ID()] || !members[triple.Object.ID()] {
			continue
		}
		model.Edges = append(model.Edges, Edge{
			ID:     syntheticID(triple),
			Source: triple.Subject.ID(),
			Target: triple.Object.ID(),
			Label:  label.ResolveLabels(set, triple.Predicate, label.DefaultPredicates, false),
		})
	}

	p.logger.Debug("Projected instance view",
		slog.Int("triples", set.Count()),
		slog.Int("nodes", len(model.Nodes)),
		slog.Int("edges", len(model.Edges)))

	return model
}

// instanceCandidates returns subjects of rdf:type statements plus every
// blank object, deduplicated in first-seen order. Blank nodes reached only
// as objects still become nodes.
func instanceCandidates(set *store.TripleSet) []store.Term {
	seen := make(map[store.Term]bool)
	var candidates []store.Term
	add := func(term store.Term) {
		if seen[term] {
			return
		}
		seen[term] = true
		candidates = append(candidates, term)
	}

	for _, triple := range set.All() {
		if triple.Predicate == store.TermRDFType {
			add(triple.Subject)
		}
		if triple.Object.IsBlank() {
			add(triple.Object)
		}
	}
	return candidates
}

func (p *Projector) instanceNode(set *store.TripleSet, subject store.Term) Node {
	node := Node{
		Kind: KindInstance,
		ID:   subject.ID(),
	}
	if subject.IsBlank() {
		node.Label = label.NewMultilingual("", "")
	} else {
		node.Label = label.ResolveLabels(set, subject, label.InstancePredicates, false)
	}

	for _, triple := range set.Find(subject, store.Term{}, store.Term{}) {
		if triple.Predicate == store.TermRDFType {
			node.Classes = append(node.Classes, ClassRef{ID: triple.Object.ID()})
			continue
		}

		switch triple.Object.Kind {
		case store.KindLiteral:
			node.DataProperties = append(node.DataProperties, DataProperty{
				ID:    triple.Predicate.ID(),
				Value: triple.Object.Value,
				Label: label.ResolveLabels(set, triple.Predicate, label.DefaultPredicates, false),
			})
		case store.KindNamed, store.KindBlank:
			node.ObjectProperties = append(node.ObjectProperties, ObjectProperty{
				ID:         triple.Predicate.ID(),
				Range:      triple.Object.ID(),
				Label:      label.ResolveLabels(set, triple.Predicate, label.DefaultPredicates, false),
				RangeLabel: label.ResolveLabels(set, triple.Object, label.RangePredicates, true),
			})
		default:
			p.logger.Warn("Skipping unhandled object kind",
				slog.String("subject", subject.ID()),
				slog.String("predicate", triple.Predicate.ID()),
				slog.String("kind", triple.Object.Kind.String()))
		}
	}

	return node
}
