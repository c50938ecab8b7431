package utils

import (
	"regexp"
	"strconv"
	"strings"
)

// LLM output is free-form prose with no contractual format, so everything
// extracted from it goes through these small parsers with explicit fallbacks.

var (
	intPattern          = regexp.MustCompile(`-?\d+`)
	numberedLinePattern = regexp.MustCompile(`^\d+\.\s*(.+)`)
)

// FirstInt returns the first integer embedded in s, e.g. a risk score
// buried in a sentence. ok is false when s contains no number.
func FirstInt(s string) (int, bool) {
	match := intPattern.FindString(s)
	if match == "" {
		return 0, false
	}
	n, err := strconv.Atoi(match)
	if err != nil {
		return 0, false
	}
	return n, true
}

// SplitCommaList parses a comma-separated ingredient reply into trimmed,
// non-empty items, stripping markdown bold markers the model sometimes adds.
func SplitCommaList(s string) []string {
	var items []string
	for _, part := range strings.Split(s, ",") {
		item := strings.TrimSpace(strings.ReplaceAll(part, "**", ""))
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}

// NumberedItems extracts the text of lines beginning with "<n>." from a
// numbered-list reply. Lines without that prefix are ignored.
func NumberedItems(s string) []string {
	var items []string
	for _, line := range strings.Split(s, "\n") {
		m := numberedLinePattern.FindStringSubmatch(strings.TrimSpace(line))
		if m != nil {
			items = append(items, strings.TrimSpace(m[1]))
		}
	}
	return items
}
