package graph

import "github.com/coolbeans/datamap/pkg/store"

// MaxAncestorLevel bounds the search for a named ancestor of a blank node.
const MaxAncestorLevel = 2

// Ancestor is the nearest named node referencing a blank node and the
// number of hops between them.
type Ancestor struct {
	URI   string `json:"uri"`
	Level int    `json:"level"`
}

// ResolveBlankAncestor finds the named node that references blankID through
// an object property, directly (level 1) or through one intermediate blank
// node (level 2). Only the first referencing node is followed at each hop.
// Returns false for non-blank ids, a nil model, or when no named ancestor
// exists within two hops.
func ResolveBlankAncestor(previous *Model, blankID string) (Ancestor, bool) {
	if previous == nil || !store.IsBlankID(blankID) {
		return Ancestor{}, false
	}

	target := blankID
	for level := 1; level <= MaxAncestorLevel; level++ {
		referrer, ok := findReferrer(previous, target)
		if !ok {
			return Ancestor{}, false
		}
		if !store.IsBlankID(referrer) {
			return Ancestor{URI: referrer, Level: level}, true
		}
		target = referrer
	}
	return Ancestor{}, false
}

// findReferrer returns the id of the first node with an object property
// ranging over target.
func findReferrer(model *Model, target string) (string, bool) {
	for _, node := range model.Nodes {
		for _, property := range node.ObjectProperties {
			if property.Range == target {
				return node.ID, true
			}
		}
	}
	return "", false
}
