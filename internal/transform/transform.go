// Package transform applies the text transformation between extraction and generation.
package transform

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/hyperjump/upcase/internal/models"
)

// Upper returns s with the full Unicode uppercase mapping applied, independent of locale.
// Special casings expand, so "ß" becomes "SS". Uncased characters pass through unchanged.
func Upper(s string) string {
	// cases.Caser keeps state and is not safe for concurrent use; build one per call.
	return cases.Upper(language.Und).String(s)
}

// Apply uppercases every part of t and returns the result. t is not modified.
func Apply(t models.Text) models.Text {
	return t.Map(Upper)
}
