package types

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestEnvelope_JSON(t *testing.T) {
	tests := []struct {
		name string
		env  Envelope
		want string
	}{
		{
			name: "success",
			env:  Success("Hello", json.RawMessage(`{"candidates":[]}`)),
			want: `{"ok":true,"result":"Hello","raw":{"candidates":[]}}`,
		},
		{
			name: "success with empty result",
			env:  Success("", nil),
			want: `{"ok":true,"result":"","raw":{}}`,
		},
		{
			name: "failure",
			env:  Failure(MsgMethodNotAllowed),
			want: `{"ok":false,"error":"Method not allowed"}`,
		},
		{
			name: "upstream failure",
			env:  UpstreamFailure(429, `{"error":"quota"}`),
			want: `{"ok":false,"raw":"{\"error\":\"quota\"}","error":"Upstream API error","status":429}`,
		},
		{
			name: "upstream failure with unreadable body",
			env:  UpstreamFailure(500, ""),
			want: `{"ok":false,"raw":"","error":"Upstream API error","status":500}`,
		},
		{
			name: "server failure",
			env:  ServerFailure("dial tcp: connection refused"),
			want: `{"ok":false,"error":"Server error calling Gemini","details":"dial tcp: connection refused"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.env)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("Marshal() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestWriteEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	if err := WriteEnvelope(rec, http.StatusBadRequest, Failure(MsgPromptRequired)); err != nil {
		t.Fatalf("WriteEnvelope() error = %v", err)
	}

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}

	var env Envelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("response is not JSON: %v", err)
	}
	if env.OK || env.Error != MsgPromptRequired {
		t.Errorf("unexpected envelope: %+v", env)
	}
}

func TestWriteJSON_Unencodable(t *testing.T) {
	rec := httptest.NewRecorder()
	if err := WriteJSON(rec, http.StatusOK, map[string]any{"bad": make(chan int)}); err == nil {
		t.Fatal("expected an encoding error")
	}

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	var env Envelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("fallback body is not JSON: %v", err)
	}
	if env.OK || env.Error != MsgInternalError {
		t.Errorf("unexpected envelope: %+v", env)
	}
}
