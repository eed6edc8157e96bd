package parser

import (
	"strings"
	"time"
)

// Listing pages mix Japanese and slash/dash formats; unpadded layout digits
// also match zero-padded values.
var dateLayouts = []string{
	"2006年1月2日",
	"2006/1/2",
	"2006-1-2",
	"2006.1.2",
}

// parseListingDate parses a listing date string; the zero time means the
// text carried no recognizable date.
func parseListingDate(text string, loc *time.Location) time.Time {
	text = cleanText(text)
	if text == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if parsed, err := time.ParseInLocation(layout, text, loc); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

// cleanText trims and collapses all runs of whitespace to single spaces.
func cleanText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
