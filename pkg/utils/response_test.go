package utils

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRespondError(t *testing.T) {
	resp := httptest.NewRecorder()
	RespondError(resp, http.StatusNotFound, "session not found")

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
	if ct := resp.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}
	if body := strings.TrimSpace(resp.Body.String()); body != `{"error":"session not found"}` {
		t.Fatalf("unexpected body %s", body)
	}
}

type chatBody struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

func TestDecodeJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(`{"message":"book","session_id":"s1"}`))
	var body chatBody
	if err := DecodeJSON(httptest.NewRecorder(), req, &body); err != nil {
		t.Fatalf("DecodeJSON err: %v", err)
	}
	if body.Message != "book" || body.SessionID != "s1" {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestDecodeJSONRejectsBadBodies(t *testing.T) {
	for _, raw := range []string{`not json`, `{"message":"a"} {"message":"b"}`, ``} {
		req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(raw))
		var body chatBody
		err := DecodeJSON(httptest.NewRecorder(), req, &body)
		if err == nil {
			t.Fatalf("%q: expected decode error", raw)
		}
		if errors.Is(err, ErrBodyTooLarge) {
			t.Fatalf("%q: unexpected size error", raw)
		}
	}
}

func TestDecodeJSONBodyTooLarge(t *testing.T) {
	raw := `{"message":"` + strings.Repeat("a", MaxBodyBytes) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(raw))
	resp := httptest.NewRecorder()

	var body chatBody
	err := DecodeJSON(resp, req, &body)
	if !errors.Is(err, ErrBodyTooLarge) {
		t.Fatalf("expected ErrBodyTooLarge, got %v", err)
	}

	RespondDecodeError(resp, err)
	if resp.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", resp.Code)
	}
}

func TestRespondDecodeErrorDefaultsToBadRequest(t *testing.T) {
	resp := httptest.NewRecorder()
	RespondDecodeError(resp, errors.New("decode body: EOF"))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}
