package util

import (
	"strconv"
	"strings"
)

// CleanField trims an OMDb text field and maps the service's "N/A"
// placeholder to nil.
func CleanField(input string) *string {
	s := strings.TrimSpace(input)
	if s == "" || strings.EqualFold(s, "N/A") {
		return nil
	}
	return StringPtr(s)
}

// ParseRating parses a numeric OMDb field such as imdbRating. "N/A",
// empty and unparseable values map to nil.
func ParseRating(input string) *float64 {
	s := strings.TrimSpace(input)
	if s == "" || strings.EqualFold(s, "N/A") {
		return nil
	}
	parsed, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return FloatPtr(parsed)
}
