package richtext

import (
	"math"
	"strings"
)

// WordsPerMinute is the reading speed used by ReadTime.
const WordsPerMinute = 200

// ToPlainText joins the text of every node with a single space. Nodes that
// carry no text (images, embeds) contribute nothing, so no empty words are
// introduced between them.
func ToPlainText(body []Node) string {
	parts := make([]string, 0, len(body))
	for _, n := range body {
		if n.Text != "" {
			parts = append(parts, n.Text)
		}
	}
	return strings.Join(parts, " ")
}

// CountWords returns the number of whitespace-delimited words across every
// block heading and block body.
func CountWords(content []Block) int {
	total := 0
	for _, b := range content {
		total += len(strings.Fields(b.Heading))
		total += len(strings.Fields(ToPlainText(b.Body)))
	}
	return total
}

// ReadTime estimates the reading time of content in whole minutes. The
// result is never below one minute, including for empty content.
func ReadTime(content []Block) int {
	minutes := int(math.Ceil(float64(CountWords(content)) / WordsPerMinute))
	if minutes < 1 {
		return 1
	}
	return minutes
}
