package result

import (
	"encoding/json"
	"testing"
)

func strPtr(s string) *string { return &s }

func TestDocno(t *testing.T) {
	tests := []struct {
		name   string
		trecID *string
		want   string
		known  bool
	}{
		{"known", strPtr("clueweb12-0000tw-00-00000"), "clueweb12-0000tw-00-00000", true},
		{"missing", nil, "uuid-1", false},
		{"empty", strPtr(""), "uuid-1", false},
		{"placeholder", strPtr("UNKNOWN"), "uuid-1", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := Result{UUID: "uuid-1", TrecID: tc.trecID}
			if got := r.Docno(); got != tc.want {
				t.Errorf("Docno = %q, want %q", got, tc.want)
			}
			if got := r.HasKnownTrecID(); got != tc.known {
				t.Errorf("HasKnownTrecID = %v, want %v", got, tc.known)
			}
		})
	}
}

func TestHasExplanation(t *testing.T) {
	if (&Result{}).HasExplanation() {
		t.Error("empty payload reported as present")
	}
	if (&Result{Explanation: json.RawMessage("null")}).HasExplanation() {
		t.Error("null payload reported as present")
	}
	if !(&Result{Explanation: json.RawMessage(`{"value":1}`)}).HasExplanation() {
		t.Error("payload not detected")
	}
}
