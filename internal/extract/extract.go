// Package extract reads text fields from a browser scope without ever
// failing. Every read either yields trimmed text or models.Unavailable.
package extract

import (
	"strings"

	"github.com/Arsalan80425/Flipkart-Review-Intelligence-System/internal/browser"
	"github.com/Arsalan80425/Flipkart-Review-Intelligence-System/internal/models"
)

// Transform post-processes an extracted value.
type Transform func(string) (string, error)

// Extract returns the trimmed text of the first match of loc under scope.
// A missing element or a failed text read yields Unavailable.
func Extract(scope browser.Scope, loc browser.Locator) models.Field {
	if scope == nil {
		return models.Unavailable
	}
	el, err := scope.FindOne(loc)
	if err != nil {
		return models.Unavailable
	}
	return textOf(el)
}

// ExtractAll returns the trimmed text of every match of loc, in document
// order. Elements whose text cannot be read are Unavailable in place.
func ExtractAll(scope browser.Scope, loc browser.Locator) []models.Field {
	if scope == nil {
		return nil
	}
	elements := scope.FindMany(loc)
	fields := make([]models.Field, len(elements))
	for i, el := range elements {
		fields[i] = textOf(el)
	}
	return fields
}

// At returns fields[i], or Unavailable when i is out of range.
func At(fields []models.Field, i int) models.Field {
	if i < 0 || i >= len(fields) {
		return models.Unavailable
	}
	return fields[i]
}

// Clean applies transforms in order to an available field. The first
// failing transform degrades the field to Unavailable.
func Clean(field models.Field, transforms ...Transform) models.Field {
	value, ok := field.Get()
	if !ok {
		return field
	}
	for _, transform := range transforms {
		var err error
		if value, err = transform(value); err != nil {
			return models.Unavailable
		}
	}
	return models.Value(value)
}

// Remove deletes every occurrence of marker, such as an inline "read more"
// toggle, and trims the result.
func Remove(marker string) Transform {
	return func(s string) (string, error) {
		return strings.TrimSpace(strings.ReplaceAll(s, marker, "")), nil
	}
}

func textOf(el browser.Element) models.Field {
	if el == nil {
		return models.Unavailable
	}
	text, err := el.Text()
	if err != nil {
		return models.Unavailable
	}
	return models.Value(strings.TrimSpace(text))
}
