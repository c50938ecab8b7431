package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFirstInt(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
		ok    bool
	}{
		{"bare number", "85", 85, true},
		{"number in prose", "The risk level is 72 out of 100.", 72, true},
		{"negative number", "score: -5", -5, true},
		{"first of several", "between 31 and 70", 31, true},
		{"no number", "high risk, probably", 0, false},
		{"empty", "", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FirstInt(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSplitCommaList(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"plain list", "milk, eggs, wheat", []string{"milk", "eggs", "wheat"}},
		{"bold markers stripped", "**Milk**, **Soy Lecithin**", []string{"Milk", "Soy Lecithin"}},
		{"empty segments dropped", "milk,, ,eggs", []string{"milk", "eggs"}},
		{"single item", "peanuts", []string{"peanuts"}},
		{"only separators", ", ,", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitCommaList(tt.input))
		})
	}
}

func TestNumberedItems(t *testing.T) {
	content := "Here are some options:\n1. ImmunoCAP Specific IgE blood test\n2. Skin prick panel\nNot a list line\n3.  Patch test"
	assert.Equal(t, []string{
		"ImmunoCAP Specific IgE blood test",
		"Skin prick panel",
		"Patch test",
	}, NumberedItems(content))

	assert.Nil(t, NumberedItems("no numbered lines here"))
	assert.Nil(t, NumberedItems(""))
}
