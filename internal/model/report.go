package model

import (
	"encoding/json"
	"time"
)

// DefaultReportType is applied when a report is submitted without a type.
const DefaultReportType = "teaching"

// Report is a loosely-structured document owned by one user.
//
// OPEN SCHEMA:
// Report templates on the frontend differ a lot (event reports, committee
// minutes, teaching logs...). Rather than modelling every template, we keep a
// typed struct for the fields the server actually reasons about and an Extra
// map for everything else. JSON encoding merges Extra back into the top-level
// object, so whatever the client sent comes back out unchanged.
//
//	{"title":"Workshop","venue":"Hall A"}
//	→ Report{Title: "Workshop", Extra: {"venue": "Hall A"}}
//	→ {"title":"Workshop","venue":"Hall A",...}
//
// UserID is never taken from the client. The service overwrites it with the
// caller's id from the session before the report is stored.
type Report struct {
	ID             string    `json:"id"`
	UserID         string    `json:"userId"`
	Title          string    `json:"title"`
	ReportType     string    `json:"reportType"`
	Date           string    `json:"date,omitempty"`
	Description    string    `json:"description,omitempty"`
	ImageURL       string    `json:"imageUrl,omitempty"`
	Organizer      []string  `json:"organizer"`
	ResourcePerson []string  `json:"resourcePerson"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`

	// Extra holds every client-supplied key that is not a known field above.
	Extra map[string]any `json:"-"`
}

// KnownReportFields lists the JSON keys that map onto typed Report fields.
// Matching is exact: "Organizer" or "TITLE" are ordinary extra keys.
// Any other key ends up in Report.Extra.
var KnownReportFields = []string{
	"id", "userId", "title", "reportType", "date", "description", "imageUrl",
	"organizer", "resourcePerson", "createdAt", "updatedAt",
}

// reportJSON has the same fields as Report but none of its methods,
// so encoding/json uses the struct tags without recursing into MarshalJSON.
type reportJSON Report

// MarshalJSON encodes the known fields and merges Extra into the same object.
// A known field always wins over an extra key with the same name.
func (r Report) MarshalJSON() ([]byte, error) {
	if r.Organizer == nil {
		r.Organizer = []string{}
	}
	if r.ResourcePerson == nil {
		r.ResourcePerson = []string{}
	}

	known, err := json.Marshal(reportJSON(r))
	if err != nil {
		return nil, err
	}
	if len(r.Extra) == 0 {
		return known, nil
	}

	merged := make(map[string]json.RawMessage, len(r.Extra)+len(KnownReportFields))
	for k, v := range r.Extra {
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		merged[k] = raw
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(known, &fields); err != nil {
		return nil, err
	}
	for k, v := range fields {
		merged[k] = v
	}

	return json.Marshal(merged)
}

// UnmarshalJSON decodes the known fields into their typed slots and keeps
// every other key in Extra.
//
// The object is split by exact key before anything is decoded, because
// encoding/json matches struct fields case-insensitively:
//
//	{"title":"x","Organizer":"Alice"}
//	→ Report{Title: "x", Extra: {"Organizer": "Alice"}}
//
// A known field with the wrong JSON type (e.g. "title": 42) fails with a
// *json.UnmarshalTypeError whose Field names the offending key.
func (r *Report) UnmarshalJSON(data []byte) error {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}

	known := make(map[string]json.RawMessage, len(KnownReportFields))
	for _, k := range KnownReportFields {
		if v, ok := all[k]; ok {
			known[k] = v
			delete(all, k)
		}
	}

	raw, err := json.Marshal(known)
	if err != nil {
		return err
	}
	var typed reportJSON
	if err := json.Unmarshal(raw, &typed); err != nil {
		return err
	}

	*r = Report(typed)
	r.Extra = nil
	if len(all) == 0 {
		return nil
	}

	r.Extra = make(map[string]any, len(all))
	for k, v := range all {
		var val any
		if err := json.Unmarshal(v, &val); err != nil {
			return err
		}
		r.Extra[k] = val
	}
	return nil
}
