// Package graph projects RDF triple sets into node/edge graphs for
// visualization: a schema view of classes and their properties and an
// instance view of records and their relations.
package graph

import (
	"github.com/coolbeans/datamap/pkg/label"
	"github.com/coolbeans/datamap/pkg/store"
)

// NodeKind distinguishes schema and instance nodes.
type NodeKind string

const (
	// KindClass is a schema class node.
	KindClass NodeKind = "class"
	// KindInstance is a data record node, possibly blank.
	KindInstance NodeKind = "instance"
)

// DataProperty is a literal-valued property. Schema nodes set Range,
// instance nodes set Value.
type DataProperty struct {
	ID    string             `json:"id" yaml:"id"`
	Value string             `json:"value,omitempty" yaml:"value,omitempty"`
	Range string             `json:"range,omitempty" yaml:"range,omitempty"`
	Label label.Multilingual `json:"label,omitempty" yaml:"label,omitempty"`
}

// ObjectProperty points from a node to another named or blank resource.
type ObjectProperty struct {
	ID         string             `json:"id" yaml:"id"`
	Range      string             `json:"range" yaml:"range"`
	Label      label.Multilingual `json:"label,omitempty" yaml:"label,omitempty"`
	RangeLabel label.Multilingual `json:"rangeLabel,omitempty" yaml:"rangeLabel,omitempty"`
}

// ClassRef is a class an instance belongs to. Label and Definition are
// filled by EnrichWithSchema.
type ClassRef struct {
	ID         string             `json:"id" yaml:"id"`
	Label      label.Multilingual `json:"label,omitempty" yaml:"label,omitempty"`
	Definition label.Multilingual `json:"definition,omitempty" yaml:"definition,omitempty"`
}

// Node is a class or instance in the projected graph.
type Node struct {
	Kind             NodeKind           `json:"type" yaml:"type"`
	ID               string             `json:"id" yaml:"id"`
	Label            label.Multilingual `json:"label,omitempty" yaml:"label,omitempty"`
	Definition       label.Multilingual `json:"definition,omitempty" yaml:"definition,omitempty"`
	DataProperties   []DataProperty     `json:"dataProperties,omitempty" yaml:"dataProperties,omitempty"`
	ObjectProperties []ObjectProperty   `json:"objectProperties,omitempty" yaml:"objectProperties,omitempty"`
	Classes          []ClassRef         `json:"classes,omitempty" yaml:"classes,omitempty"`
}

// IsBlank reports whether the node is an anonymous resource.
func (n Node) IsBlank() bool {
	return store.IsBlankID(n.ID)
}

// Edge connects two nodes.
type Edge struct {
	ID     string             `json:"id" yaml:"id"`
	Source string             `json:"source" yaml:"source"`
	Target string             `json:"target" yaml:"target"`
	Label  label.Multilingual `json:"label,omitempty" yaml:"label,omitempty"`
}

// Model is the projected graph. Consumers see nodes first, then edges.
type Model struct {
	Nodes []Node `json:"nodes" yaml:"nodes"`
	Edges []Edge `json:"edges" yaml:"edges"`
}

// NewModel creates an empty model with non-nil slices.
func NewModel() *Model {
	return &Model{
		Nodes: make([]Node, 0),
		Edges: make([]Edge, 0),
	}
}

// Element is one entry of the flattened, Cytoscape-style element list.
// Exactly one of Node or Edge is set.
type Element struct {
	Node *Node
	Edge *Edge
}

// ID returns the element identifier.
func (e Element) ID() string {
	if e.Node != nil {
		return e.Node.ID
	}
	if e.Edge != nil {
		return e.Edge.ID
	}
	return ""
}

// Elements returns nodes followed by edges.
func (m *Model) Elements() []Element {
	elements := make([]Element, 0, len(m.Nodes)+len(m.Edges))
	for i := range m.Nodes {
		elements = append(elements, Element{Node: &m.Nodes[i]})
	}
	for i := range m.Edges {
		elements = append(elements, Element{Edge: &m.Edges[i]})
	}
	return elements
}

// Node returns the first node with the given id.
func (m *Model) Node(id string) (*Node, bool) {
	for i := range m.Nodes {
		if m.Nodes[i].ID == id {
			return &m.Nodes[i], true
		}
	}
	return nil, false
}

// IsEmpty reports whether the model has neither nodes nor edges.
func (m *Model) IsEmpty() bool {
	return m == nil || (len(m.Nodes) == 0 && len(m.Edges) == 0)
}
