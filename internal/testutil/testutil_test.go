package testutil

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func TestAssertStatusCode(t *testing.T) {
	t.Parallel()

	AssertStatusCode(t, http.StatusOK, http.StatusOK)
	AssertStatusCode(t, http.StatusNotFound, http.StatusNotFound)
}

func TestLoopbackRequest(t *testing.T) {
	t.Parallel()

	req := LoopbackRequest(http.MethodPost, "/debug/diag-prune", strings.NewReader("x"))
	if req.Method != http.MethodPost {
		t.Errorf("method = %s, want POST", req.Method)
	}
	if req.URL.Path != "/debug/diag-prune" {
		t.Errorf("path = %s, want /debug/diag-prune", req.URL.Path)
	}
	if req.RemoteAddr != LoopbackAddr {
		t.Errorf("remote addr = %s, want %s", req.RemoteAddr, LoopbackAddr)
	}
}

func TestFormRequest(t *testing.T) {
	t.Parallel()

	req := FormRequest(http.MethodPost, "/chart", url.Values{"grid": {"1,2\n3,1"}})
	if got := req.Header.Get("Content-Type"); got != "application/x-www-form-urlencoded" {
		t.Errorf("content type = %q", got)
	}
	if got := req.FormValue("grid"); got != "1,2\n3,1" {
		t.Errorf("grid = %q, want %q", got, "1,2\n3,1")
	}
}

func TestDecodeJSON(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	rec.Header().Set("Content-Type", "application/json")
	rec.WriteString(`{"status":"ok"}`)

	var got map[string]string
	DecodeJSON(t, rec, &got)
	if got["status"] != "ok" {
		t.Errorf("status = %q, want ok", got["status"])
	}
}
