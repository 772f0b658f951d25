package model

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestReportJSON_ExtraFieldsRoundTrip(t *testing.T) {
	in := `{"title":"Workshop","venue":"Hall A","participants":42,"chartData":{"labels":["a","b"]}}`

	var r Report
	if err := json.Unmarshal([]byte(in), &r); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if r.Title != "Workshop" {
		t.Errorf("Title = %q, want %q", r.Title, "Workshop")
	}
	if r.Extra["venue"] != "Hall A" {
		t.Errorf("Extra[venue] = %v, want %q", r.Extra["venue"], "Hall A")
	}
	if _, ok := r.Extra["title"]; ok {
		t.Error("known field title leaked into Extra")
	}

	out, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("decoding marshalled report: %v", err)
	}
	if decoded["venue"] != "Hall A" {
		t.Errorf("venue = %v, want %q", decoded["venue"], "Hall A")
	}
	if decoded["participants"] != float64(42) {
		t.Errorf("participants = %v, want 42", decoded["participants"])
	}
	chart, ok := decoded["chartData"].(map[string]any)
	if !ok {
		t.Fatalf("chartData = %T, want object", decoded["chartData"])
	}
	if labels, _ := chart["labels"].([]any); len(labels) != 2 {
		t.Errorf("chartData.labels = %v, want 2 entries", chart["labels"])
	}
}

func TestReportJSON_KnownFieldWinsOverExtra(t *testing.T) {
	r := Report{
		Title: "real title",
		Extra: map[string]any{"title": "shadow"},
	}

	out, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var decoded map[string]any
	_ = json.Unmarshal(out, &decoded)
	if decoded["title"] != "real title" {
		t.Errorf("title = %v, want %q", decoded["title"], "real title")
	}
}

func TestReportJSON_NilListsEncodeAsEmptyArrays(t *testing.T) {
	out, err := json.Marshal(Report{Title: "x", CreatedAt: time.Now()})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var decoded map[string]any
	_ = json.Unmarshal(out, &decoded)
	for _, key := range []string{"organizer", "resourcePerson"} {
		list, ok := decoded[key].([]any)
		if !ok {
			t.Errorf("%s = %T, want array", key, decoded[key])
			continue
		}
		if len(list) != 0 {
			t.Errorf("%s = %v, want empty", key, list)
		}
	}
}

func TestReportJSON_WrongTypeOnKnownField(t *testing.T) {
	var r Report
	err := json.Unmarshal([]byte(`{"title": 42}`), &r)

	var typeErr *json.UnmarshalTypeError
	if !errors.As(err, &typeErr) {
		t.Fatalf("Unmarshal() error = %v, want *json.UnmarshalTypeError", err)
	}
	if typeErr.Field != "title" {
		t.Errorf("Field = %q, want %q", typeErr.Field, "title")
	}
}

func TestReportJSON_CaseVariantKeysStayInExtra(t *testing.T) {
	in := `{"title":"Real","TITLE":"Shadow","Organizer":"Alice","Date":20240101,"USERID":"u"}`

	var r Report
	if err := json.Unmarshal([]byte(in), &r); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if r.Title != "Real" {
		t.Errorf("Title = %q, want Real", r.Title)
	}
	if len(r.Organizer) != 0 || r.Date != "" || r.UserID != "" {
		t.Errorf("typed fields picked up case variants: %+v", r)
	}

	want := map[string]any{
		"TITLE":     "Shadow",
		"Organizer": "Alice",
		"Date":      20240101.0,
		"USERID":    "u",
	}
	if len(r.Extra) != len(want) {
		t.Fatalf("Extra = %v, want %v", r.Extra, want)
	}
	for k, v := range want {
		if r.Extra[k] != v {
			t.Errorf("Extra[%s] = %v, want %v", k, r.Extra[k], v)
		}
	}
}

func TestDecodeReport_StructuredDescriptiveFields(t *testing.T) {
	r, err := DecodeReport(Fields{
		"title":      "Hackathon",
		"objectives": []any{"a", "b"},
		"outcomes":   map[string]any{"prototypes": 3.0},
		"images":     []any{map[string]any{"url": "https://cdn.example.com/a.png"}},
	})
	if err != nil {
		t.Fatalf("DecodeReport() error = %v", err)
	}

	for _, key := range []string{"objectives", "outcomes", "images"} {
		if _, ok := r.Extra[key]; !ok {
			t.Errorf("Extra[%s] missing", key)
		}
	}
}

func TestNormalizeStringList(t *testing.T) {
	tests := []struct {
		name    string
		in      any
		want    []string
		wantErr bool
	}{
		{"bare string", "Alice", []string{"Alice"}, false},
		{"empty string", "", []string{}, false},
		{"whitespace string", "   ", []string{}, false},
		{"nil", nil, []string{}, false},
		{"list of strings", []any{"Alice", "Bob"}, []string{"Alice", "Bob"}, false},
		{"typed list", []string{"Carol"}, []string{"Carol"}, false},
		{"list with a number", []any{"Alice", 3.0}, nil, true},
		{"object", map[string]any{"name": "Alice"}, nil, true},
		{"number", 7.0, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeStringList("organizer", tt.in)
			if tt.wantErr {
				var listErr *ListFieldError
				if !errors.As(err, &listErr) {
					t.Fatalf("err = %v, want *ListFieldError", err)
				}
				if listErr.Field != "organizer" {
					t.Errorf("Field = %q, want organizer", listErr.Field)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("got[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestNormalizeReportFields(t *testing.T) {
	in := Fields{
		"title":          "Seminar",
		"organizer":      "Alice",
		"resourcePerson": []any{"Dr. Rao"},
		"userId":         "attacker",
		"_id":            "forged",
		"createdAt":      "2001-01-01",
		"venue":          "Hall B",
	}

	out, err := NormalizeReportFields(in)
	if err != nil {
		t.Fatalf("NormalizeReportFields() error = %v", err)
	}

	for _, k := range []string{"userId", "_id", "createdAt"} {
		if _, ok := out[k]; ok {
			t.Errorf("server-owned key %q was kept", k)
		}
	}
	if org, _ := out["organizer"].([]string); len(org) != 1 || org[0] != "Alice" {
		t.Errorf("organizer = %v, want [Alice]", out["organizer"])
	}
	if out["venue"] != "Hall B" {
		t.Errorf("venue = %v, want Hall B", out["venue"])
	}

	// The caller's map is left untouched.
	if in["organizer"] != "Alice" {
		t.Error("NormalizeReportFields modified its input")
	}
}

func TestDecodeReport(t *testing.T) {
	fields, err := NormalizeReportFields(Fields{
		"title":     "Guest lecture",
		"organizer": "Alice",
		"feedback":  []any{map[string]any{"rating": 5.0}},
	})
	if err != nil {
		t.Fatalf("NormalizeReportFields() error = %v", err)
	}

	r, err := DecodeReport(fields)
	if err != nil {
		t.Fatalf("DecodeReport() error = %v", err)
	}
	if r.Title != "Guest lecture" {
		t.Errorf("Title = %q", r.Title)
	}
	if len(r.Organizer) != 1 || r.Organizer[0] != "Alice" {
		t.Errorf("Organizer = %v, want [Alice]", r.Organizer)
	}
	if _, ok := r.Extra["feedback"]; !ok {
		t.Error("feedback should be kept in Extra")
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Alice@Example.COM "); got != "alice@example.com" {
		t.Errorf("NormalizeEmail() = %q", got)
	}
}
