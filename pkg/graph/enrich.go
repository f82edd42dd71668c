package graph

import (
	"strings"

	"github.com/coolbeans/datamap/pkg/label"
)

// schemaIndex looks up labels and definitions in a schema model.
type schemaIndex struct {
	elements   map[string]label.Multilingual // schema node and edge id -> label
	definition map[string]label.Multilingual // class id -> definition
	properties map[string]label.Multilingual // property id -> label
}

func newSchemaIndex(schema *Model) *schemaIndex {
	index := &schemaIndex{
		elements:   make(map[string]label.Multilingual),
		definition: make(map[string]label.Multilingual),
		properties: make(map[string]label.Multilingual),
	}
	if schema == nil {
		return index
	}

	for _, node := range schema.Nodes {
		if _, exists := index.elements[node.ID]; !exists && node.Label != nil {
			index.elements[node.ID] = node.Label
		}
		if _, exists := index.definition[node.ID]; !exists && len(node.Definition) > 0 {
			index.definition[node.ID] = node.Definition
		}
	}
	for _, edge := range schema.Edges {
		if _, exists := index.elements[edge.ID]; !exists && edge.Label != nil {
			index.elements[edge.ID] = edge.Label
		}
	}

	// Data properties are searched before object properties.
	for _, node := range schema.Nodes {
		for _, property := range node.DataProperties {
			if _, exists := index.properties[property.ID]; !exists && property.Label != nil {
				index.properties[property.ID] = property.Label
			}
		}
	}
	for _, node := range schema.Nodes {
		for _, property := range node.ObjectProperties {
			if _, exists := index.properties[property.ID]; !exists && property.Label != nil {
				index.properties[property.ID] = property.Label
			}
		}
	}

	return index
}

func fallbackLabel(id string) label.Multilingual {
	tail := label.IDFromURI(id)
	return label.NewMultilingual(tail, tail)
}

func (index *schemaIndex) classLabel(id string) label.Multilingual {
	if found, ok := index.elements[id]; ok {
		return found.Clone()
	}
	return fallbackLabel(id)
}

func (index *schemaIndex) propertyLabel(id string) label.Multilingual {
	if found, ok := index.properties[id]; ok {
		return found.Clone()
	}
	return fallbackLabel(id)
}

func (index *schemaIndex) connectionLabel(predicate string) label.Multilingual {
	if found, ok := index.elements[predicate]; ok {
		return found.Clone()
	}
	if found, ok := index.properties[predicate]; ok {
		return found.Clone()
	}
	return fallbackLabel(predicate)
}

// EnrichWithSchema replaces instance-view labels with the ones declared in
// the schema: class references get the class label and definition, property
// and edge labels get the property label. Anything missing from the schema
// falls back to the identifier tail. The model is modified in place.
func EnrichWithSchema(instances, schema *Model) {
	if instances == nil {
		return
	}
	index := newSchemaIndex(schema)

	for i := range instances.Nodes {
		node := &instances.Nodes[i]
		for j := range node.Classes {
			class := &node.Classes[j]
			class.Label = index.classLabel(class.ID)
			if definition, ok := index.definition[class.ID]; ok {
				class.Definition = definition.Clone()
			}
		}
		for j := range node.DataProperties {
			node.DataProperties[j].Label = index.propertyLabel(node.DataProperties[j].ID)
		}
		for j := range node.ObjectProperties {
			node.ObjectProperties[j].Label = index.propertyLabel(node.ObjectProperties[j].ID)
		}
	}

	for i := range instances.Edges {
		edge := &instances.Edges[i]
		edge.Label = index.connectionLabel(EdgePredicate(*edge))
	}
}

// EdgePredicate recovers the predicate from a synthetic instance edge id
// "predicate_subject_object". Edges without that shape return their id.
func EdgePredicate(edge Edge) string {
	suffix := "_" + edge.Source + "_" + edge.Target
	if predicate, ok := strings.CutSuffix(edge.ID, suffix); ok && predicate != "" {
		return predicate
	}
	return edge.ID
}
