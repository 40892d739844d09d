package models

import (
	"encoding/json"
	"strings"
)

const (
	// UnavailableText is the sentinel written wherever a value could not be read.
	UnavailableText = "N/A"
	// NoTitle is the default title for a review whose title is unreadable.
	NoTitle = "No Title"
)

// Field is a scraped text value that may be unavailable.
// The zero value is Unavailable.
type Field struct {
	value string
	ok    bool
}

// Unavailable marks a value that could not be read.
var Unavailable = Field{}

// Value wraps a successfully read text.
func Value(s string) Field {
	return Field{value: s, ok: true}
}

// FieldFromPtr maps a nullable column back to a Field.
func FieldFromPtr(s *string) Field {
	if s == nil {
		return Unavailable
	}
	return Value(*s)
}

func (f Field) Available() bool {
	return f.ok
}

func (f Field) Get() (string, bool) {
	return f.value, f.ok
}

// Or returns the value, or def when unavailable.
func (f Field) Or(def string) string {
	if !f.ok {
		return def
	}
	return f.value
}

// Ptr returns nil for Unavailable, for storage in nullable columns.
func (f Field) Ptr() *string {
	if !f.ok {
		return nil
	}
	v := f.value
	return &v
}

// NonEmpty collapses an empty or whitespace-only value to Unavailable.
func (f Field) NonEmpty() Field {
	if !f.ok {
		return f
	}
	v := strings.TrimSpace(f.value)
	if v == "" {
		return Unavailable
	}
	return Value(v)
}

func (f Field) Equal(other Field) bool {
	return f.ok == other.ok && f.value == other.value
}

func (f Field) String() string {
	return f.Or(UnavailableText)
}

func (f Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.String())
}

func (f *Field) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == UnavailableText {
		*f = Unavailable
		return nil
	}
	*f = Value(s)
	return nil
}

// ProductRecord is the product summary read from the landing page.
// Every attribute is present, either as text or as Unavailable.
type ProductRecord struct {
	Title        Field `json:"title"`
	Price        Field `json:"price"`
	Rating       Field `json:"rating"`
	TotalRatings Field `json:"total_ratings"`
	TotalReviews Field `json:"total_reviews"`
}

// Fields lists the attributes in a stable order, keyed by their JSON names.
func (p ProductRecord) Fields() []NamedField {
	return []NamedField{
		{Name: "title", Field: p.Title},
		{Name: "price", Field: p.Price},
		{Name: "rating", Field: p.Rating},
		{Name: "total_ratings", Field: p.TotalRatings},
		{Name: "total_reviews", Field: p.TotalReviews},
	}
}

type NamedField struct {
	Name  string
	Field Field
}
