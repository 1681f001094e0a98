package reconcile

import (
	"github.com/fekuna/pantry-service/internal/assistant"
)

// LinesFromParsed turns free-text parse results into import lines.
func LinesFromParsed(items []assistant.ParsedItem) []RawLine {
	lines := make([]RawLine, 0, len(items))
	for _, it := range items {
		line := RawLine{Name: it.Name, Unit: it.Unit}
		if it.Quantity != nil {
			line.Quantity = Quantity(*it.Quantity)
		}
		if it.ExpiryDate != nil {
			line.ExpiryDate = it.ExpiryDate.Format("2006-01-02")
		}
		lines = append(lines, line)
	}
	return lines
}

// LinesFromSuggestions turns restock suggestions into shopping lines.
func LinesFromSuggestions(suggestions []assistant.Suggestion) []RawLine {
	lines := make([]RawLine, 0, len(suggestions))
	for _, s := range suggestions {
		line := RawLine{Name: s.Name, Unit: s.Unit}
		if s.Quantity != nil {
			line.Quantity = Quantity(*s.Quantity)
		}
		lines = append(lines, line)
	}
	return lines
}
