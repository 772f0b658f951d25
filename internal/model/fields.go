package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Fields is a report as submitted by the client: an arbitrary JSON object.
type Fields map[string]any

// serverOwnedFields are never accepted from the client. The server assigns
// them when the report is stored.
var serverOwnedFields = []string{"id", "_id", "userId", "createdAt", "updatedAt", "__v"}

// stringListFields are normalised to a list of strings before a report is
// stored, even if the client submitted a single string.
var stringListFields = []string{"organizer", "resourcePerson"}

// ListFieldError reports a list field whose value cannot be coerced to []string.
type ListFieldError struct {
	Field string
}

func (e *ListFieldError) Error() string {
	return fmt.Sprintf("%s must be a string or a list of strings", e.Field)
}

// NormalizeReportFields returns a copy of f ready to be decoded into a Report:
// server-owned keys are dropped and list fields are coerced to []string.
//
//	{"organizer": "Alice"}          → {"organizer": ["Alice"]}
//	{"organizer": ["Alice", "Bob"]} → unchanged
//	{"userId": "someone-else"}      → key removed
//
// The input map is not modified.
func NormalizeReportFields(f Fields) (Fields, error) {
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}

	for _, k := range serverOwnedFields {
		delete(out, k)
	}

	for _, k := range stringListFields {
		v, ok := out[k]
		if !ok {
			continue
		}
		list, err := NormalizeStringList(k, v)
		if err != nil {
			return nil, err
		}
		out[k] = list
	}

	return out, nil
}

// NormalizeStringList coerces a decoded JSON value to []string.
// nil and "" become an empty list, a bare string becomes a one-element list.
func NormalizeStringList(field string, v any) ([]string, error) {
	switch val := v.(type) {
	case nil:
		return []string{}, nil
	case string:
		if strings.TrimSpace(val) == "" {
			return []string{}, nil
		}
		return []string{val}, nil
	case []string:
		return val, nil
	case []any:
		list := make([]string, 0, len(val))
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				return nil, &ListFieldError{Field: field}
			}
			list = append(list, s)
		}
		return list, nil
	default:
		return nil, &ListFieldError{Field: field}
	}
}

// DecodeReport turns normalised fields into a Report. Only exact known keys
// are type-checked; every other key, whatever its case, lands in Extra as is.
// Type mismatches on known fields surface as *json.UnmarshalTypeError.
func DecodeReport(f Fields) (*Report, error) {
	raw, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("model: encoding report fields: %w", err)
	}

	var r Report
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, err
	}
	return &r, nil
}
