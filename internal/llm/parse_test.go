package llm

import (
	"testing"
)

func TestDecodeFields(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     map[string]string
	}{
		{
			name:     "plain json",
			response: `{"candidate_name": "Jane Doe", "position": "Senior Engineer"}`,
			want:     map[string]string{"candidate_name": "Jane Doe", "position": "Senior Engineer"},
		},
		{
			name: "fenced json with prose",
			response: "Here is the extracted information:\n```json\n" +
				`{"job_id": "JOB-250310-001", "interview_date": "2025-03-15"}` + "\n```\nLet me know if you need more.",
			want: map[string]string{"job_id": "JOB-250310-001", "interview_date": "2025-03-15"},
		},
		{
			name:     "numeric and bool values stringified",
			response: `{"mobile": 971501234567, "shortlisted": true}`,
			want:     map[string]string{"mobile": "971501234567", "shortlisted": "true"},
		},
		{
			name:     "empty strings and nested values dropped",
			response: `{"candidate_name": "  ", "extra": {"a": 1}, "tags": ["x"], "email": "j@d.com"}`,
			want:     map[string]string{"email": "j@d.com"},
		},
		{
			name:     "no json degrades to empty",
			response: "I could not find any recruitment information in this email.",
			want:     map[string]string{},
		},
		{
			name:     "malformed json degrades to empty",
			response: `{"candidate_name": "Jane`,
			want:     map[string]string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := decodeFields(tt.response)
			if len(got) != len(tt.want) {
				t.Fatalf("decodeFields() = %v, want %v", got, tt.want)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("field %q = %q, want %q", k, got[k], v)
				}
			}
		})
	}
}

func TestDecodeCommand(t *testing.T) {
	got := decodeCommand("```json\n" + `{"action": "Add_Candidate", "parameters": {"candidate_name": "John Smith", "position": "QA Lead"}}` + "\n```")
	if got.Action != "add_candidate" {
		t.Errorf("action = %q, want %q", got.Action, "add_candidate")
	}
	if got.Parameters["candidate_name"] != "John Smith" {
		t.Errorf("candidate_name = %v, want John Smith", got.Parameters["candidate_name"])
	}

	got = decodeCommand(`{"action": "search"}`)
	if got.Action != "search" {
		t.Errorf("action = %q, want search", got.Action)
	}
	if got.Parameters == nil {
		t.Error("parameters should default to an empty map")
	}

	got = decodeCommand("no structure here")
	if got.Action != "" || got.Parameters != nil {
		t.Errorf("unparsable response should yield zero command, got %+v", got)
	}
}
