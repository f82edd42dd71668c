package graph

// HideConcepts returns a copy of the model without the hidden classes,
// without instances whose classes are all hidden, and without edges that
// touch any removed element. Instances without classes are kept.
func HideConcepts(model *Model, hidden []string) *Model {
	result := NewModel()
	if model == nil {
		return result
	}

	hiddenSet := make(map[string]bool, len(hidden))
	for _, uri := range hidden {
		hiddenSet[uri] = true
	}

	removed := make(map[string]bool)
	for _, node := range model.Nodes {
		if hiddenSet[node.ID] || allClassesHidden(node, hiddenSet) {
			removed[node.ID] = true
			continue
		}
		result.Nodes = append(result.Nodes, node)
	}

	for _, edge := range model.Edges {
		if hiddenSet[edge.ID] || hiddenSet[edge.Source] || hiddenSet[edge.Target] {
			continue
		}
		if removed[edge.Source] || removed[edge.Target] {
			continue
		}
		result.Edges = append(result.Edges, edge)
	}

	return result
}

func allClassesHidden(node Node, hidden map[string]bool) bool {
	if len(node.Classes) == 0 {
		return false
	}
	for _, class := range node.Classes {
		if !hidden[class.ID] {
			return false
		}
	}
	return true
}
