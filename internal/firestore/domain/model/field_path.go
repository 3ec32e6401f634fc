package model

import (
	"strings"

	"firestore-client/internal/shared/errors"
	fspath "firestore-client/internal/shared/firestore"
)

// Constants for validation
const (
	MaxFieldPathDepth  = 100  // maximum nesting depth
	MaxFieldNameLength = 1500 // maximum field name length in bytes
)

// FieldPath represents a dot-delimited path to a nested field, e.g.
// "customer.address.city" for data["customer"]["address"]["city"].
type FieldPath struct {
	segments []string
	raw      string
}

// NewFieldPath parses a dot-separated field path. Empty segments are rejected.
func NewFieldPath(path string) (*FieldPath, error) {
	if path == "" {
		return nil, errors.NewValidationError("field path cannot be empty")
	}

	segments := strings.Split(path, fspath.FieldPathDelimiter)
	if len(segments) > MaxFieldPathDepth {
		return nil, errors.NewValidationError("field path exceeds maximum depth").
			WithDetail("field_path", path).
			WithDetail("depth", len(segments))
	}
	for i, segment := range segments {
		if segment == "" || len(segment) > MaxFieldNameLength {
			return nil, errors.NewValidationError("invalid field path segment").
				WithDetail("field_path", path).
				WithDetail("position", i)
		}
	}

	return &FieldPath{segments: segments, raw: path}, nil
}

// Raw returns the original dot-separated string
func (fp *FieldPath) Raw() string {
	return fp.raw
}

// Segments returns the individual path segments
func (fp *FieldPath) Segments() []string {
	return append([]string{}, fp.segments...)
}

// Depth returns the nesting depth (number of segments)
func (fp *FieldPath) Depth() int {
	return len(fp.segments)
}

// String implements Stringer interface
func (fp *FieldPath) String() string {
	return fp.raw
}

// Equal checks if two field paths are equal
func (fp *FieldPath) Equal(other *FieldPath) bool {
	return other != nil && fp.raw == other.raw
}

// Lookup walks data along the path. The second result is false when a
// segment is missing or a non-map value is met before the last segment.
func (fp *FieldPath) Lookup(data map[string]interface{}) (interface{}, bool) {
	var current interface{} = data
	for _, segment := range fp.segments {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current, ok = m[segment]
		if !ok {
			return nil, false
		}
	}
	return current, true
}
