package graph

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/coolbeans/datamap/pkg/label"
)

// Node fill colours shared with the web viewer.
const (
	ClassColor    = "#CFA500"
	InstanceColor = "#993399"
)

// maxDOTLabel truncates long DOT labels.
const maxDOTLabel = 30

// Stats contains summary statistics for a model.
type Stats struct {
	TotalNodes  int            `json:"total_nodes" yaml:"total_nodes"`
	TotalEdges  int            `json:"total_edges" yaml:"total_edges"`
	BlankNodes  int            `json:"blank_nodes" yaml:"blank_nodes"`
	NodesByKind map[string]int `json:"nodes_by_kind" yaml:"nodes_by_kind"`
	Classes     map[string]int `json:"classes,omitempty" yaml:"classes,omitempty"`
}

// Stats counts nodes, edges and class memberships.
func (m *Model) Stats() Stats {
	stats := Stats{
		NodesByKind: make(map[string]int),
		Classes:     make(map[string]int),
	}
	stats.TotalNodes = len(m.Nodes)
	stats.TotalEdges = len(m.Edges)
	for _, node := range m.Nodes {
		stats.NodesByKind[string(node.Kind)]++
		if node.IsBlank() {
			stats.BlankNodes++
		}
		for _, class := range node.Classes {
			stats.Classes[class.ID]++
		}
	}
	return stats
}

// cytoscapeElement wraps a node or edge the way Cytoscape expects it.
type cytoscapeElement struct {
	Data any `json:"data"`
}

// ToCytoscapeJSON serializes the model as a flat element list, nodes first,
// each element wrapped in a "data" object.
func (m *Model) ToCytoscapeJSON() ([]byte, error) {
	elements := make([]cytoscapeElement, 0, len(m.Nodes)+len(m.Edges))
	for _, element := range m.Elements() {
		if element.Node != nil {
			elements = append(elements, cytoscapeElement{Data: element.Node})
		} else {
			elements = append(elements, cytoscapeElement{Data: element.Edge})
		}
	}
	return json.MarshalIndent(elements, "", "  ")
}

// ToJSON serializes the model as {"nodes": [...], "edges": [...]}.
func (m *Model) ToJSON() ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}

// ToYAML serializes the model as YAML.
func (m *Model) ToYAML() ([]byte, error) {
	return yaml.Marshal(m)
}

// ToDOT exports the model in DOT format for Graphviz, labelling elements in
// the given language.
func (m *Model) ToDOT(language label.Language) string {
	var sb strings.Builder

	sb.WriteString("digraph DataModel {\n")
	sb.WriteString("  rankdir=LR;\n")
	sb.WriteString("  node [shape=box];\n\n")

	for _, node := range m.Nodes {
		color := InstanceColor
		if node.Kind == KindClass {
			color = ClassColor
		}
		text := dotLabel(node.Label, language, node.ID)
		sb.WriteString(fmt.Sprintf("  \"%s\" [label=\"%s\" style=filled fillcolor=\"%s\"];\n",
			dotEscape(node.ID), text, color))
	}

	sb.WriteString("\n")

	for _, edge := range m.Edges {
		text := dotLabel(edge.Label, language, EdgePredicate(edge))
		sb.WriteString(fmt.Sprintf("  \"%s\" -> \"%s\" [label=\"%s\"];\n",
			dotEscape(edge.Source), dotEscape(edge.Target), text))
	}

	sb.WriteString("}\n")
	return sb.String()
}

func dotLabel(text label.Multilingual, language label.Language, id string) string {
	value := text.Pick(language)
	if value == "" {
		value = label.IDFromURI(id)
	}
	if value == "" {
		value = id
	}
	if runes := []rune(value); len(runes) > maxDOTLabel {
		value = string(runes[:maxDOTLabel]) + "..."
	}
	return dotEscape(value)
}

func dotEscape(value string) string {
	value = strings.ReplaceAll(value, "\\", "\\\\")
	return strings.ReplaceAll(value, "\"", "\\\"")
}

// SortedClasses returns the class ids of stats ordered by descending count,
// then by id.
func (s Stats) SortedClasses() []string {
	ids := make([]string, 0, len(s.Classes))
	for id := range s.Classes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if s.Classes[ids[i]] != s.Classes[ids[j]] {
			return s.Classes[ids[i]] > s.Classes[ids[j]]
		}
		return ids[i] < ids[j]
	})
	return ids
}
