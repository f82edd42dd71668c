// Package store provides the RDF term model, triple sets returned by SPARQL
// CONSTRUCT queries and the vocabulary the projections rely on.
package store

// Namespace URIs of the vocabularies used by the projections.
const (
	// NamespaceRDF is the standard RDF namespace.
	NamespaceRDF = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"

	// NamespaceRDFS is the RDF Schema namespace.
	NamespaceRDFS = "http://www.w3.org/2000/01/rdf-schema#"

	// NamespaceOWL is the Web Ontology Language namespace.
	NamespaceOWL = "http://www.w3.org/2002/07/owl#"

	// NamespaceSKOS is the Simple Knowledge Organization System namespace.
	NamespaceSKOS = "http://www.w3.org/2004/02/skos/core#"

	// NamespaceDCT is the Dublin Core terms namespace.
	NamespaceDCT = "http://purl.org/dc/terms/"

	// NamespaceFOAF is the Friend of a Friend namespace.
	NamespaceFOAF = "http://xmlns.com/foaf/0.1/"

	// NamespaceXSD is the XML Schema namespace for datatypes.
	NamespaceXSD = "http://www.w3.org/2001/XMLSchema#"
)

// RDF and RDFS terms.
const (
	RDFType        = NamespaceRDF + "type"
	RDFSClass      = NamespaceRDFS + "Class"
	RDFSDomain     = NamespaceRDFS + "domain"
	RDFSRange      = NamespaceRDFS + "range"
	RDFSLabel      = NamespaceRDFS + "label"
	RDFSComment    = NamespaceRDFS + "comment"
	RDFSSubClassOf = NamespaceRDFS + "subClassOf"
)

// OWL terms.
const (
	OWLClass            = NamespaceOWL + "Class"
	OWLObjectProperty   = NamespaceOWL + "ObjectProperty"
	OWLDatatypeProperty = NamespaceOWL + "DatatypeProperty"
)

// SKOS, Dublin Core and FOAF terms used for labels and definitions.
const (
	SKOSPrefLabel  = NamespaceSKOS + "prefLabel"
	SKOSDefinition = NamespaceSKOS + "definition"
	DCTTitle       = NamespaceDCT + "title"
	FOAFName       = NamespaceFOAF + "name"
)

// Frequently used predicate and class terms.
var (
	TermRDFType             = Named(RDFType)
	TermRDFSClass           = Named(RDFSClass)
	TermRDFSDomain          = Named(RDFSDomain)
	TermRDFSRange           = Named(RDFSRange)
	TermRDFSSubClassOf      = Named(RDFSSubClassOf)
	TermOWLClass            = Named(OWLClass)
	TermOWLObjectProperty   = Named(OWLObjectProperty)
	TermOWLDatatypeProperty = Named(OWLDatatypeProperty)
	TermSKOSDefinition      = Named(SKOSDefinition)
)

// PrefixMapping associates a short prefix label with its full namespace URI.
type PrefixMapping struct {
	Prefix    string
	Namespace string
}

// DefaultPrefixMappings returns the prefixes used when printing queries and
// Turtle output.
func DefaultPrefixMappings() []PrefixMapping {
	return []PrefixMapping{
		{Prefix: "rdf", Namespace: NamespaceRDF},
		{Prefix: "rdfs", Namespace: NamespaceRDFS},
		{Prefix: "owl", Namespace: NamespaceOWL},
		{Prefix: "skos", Namespace: NamespaceSKOS},
		{Prefix: "dct", Namespace: NamespaceDCT},
		{Prefix: "foaf", Namespace: NamespaceFOAF},
		{Prefix: "xsd", Namespace: NamespaceXSD},
	}
}
