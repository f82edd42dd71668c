package graph

import (
	"regexp"
	"unicode/utf8"

	"github.com/coolbeans/datamap/pkg/label"
)

// MinSearchLength is the shortest keyword Search accepts.
const MinSearchLength = 2

// Search returns the ids of nodes and edges matching keyword, in element
// order. The keyword is a case-insensitive regular expression; invalid
// expressions are matched literally.
func Search(model *Model, keyword string) []string {
	if model == nil || utf8.RuneCountInString(keyword) < MinSearchLength {
		return nil
	}

	pattern, err := regexp.Compile("(?i)" + keyword)
	if err != nil {
		pattern = regexp.MustCompile("(?i)" + regexp.QuoteMeta(keyword))
	}

	var matches []string
	for _, node := range model.Nodes {
		if nodeMatches(node, pattern) {
			matches = append(matches, node.ID)
		}
	}
	for _, edge := range model.Edges {
		if pattern.MatchString(edge.ID) || labelMatches(edge.Label, pattern) {
			matches = append(matches, edge.ID)
		}
	}
	return matches
}

func nodeMatches(node Node, pattern *regexp.Regexp) bool {
	if pattern.MatchString(node.ID) ||
		labelMatches(node.Label, pattern) ||
		labelMatches(node.Definition, pattern) {
		return true
	}
	for _, property := range node.DataProperties {
		if pattern.MatchString(property.ID) ||
			pattern.MatchString(property.Value) ||
			labelMatches(property.Label, pattern) {
			return true
		}
	}
	for _, property := range node.ObjectProperties {
		if pattern.MatchString(property.ID) || labelMatches(property.Label, pattern) {
			return true
		}
	}
	return false
}

func labelMatches(text label.Multilingual, pattern *regexp.Regexp) bool {
	for _, language := range label.Languages {
		if value := text.Get(language); value != "" && pattern.MatchString(value) {
			return true
		}
	}
	return false
}
