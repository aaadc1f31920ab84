package httpapi

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aurelio-voice/aurelio-server/internal/knowledge"
	"github.com/aurelio-voice/aurelio-server/internal/session"
)

func newTestAdmin(t *testing.T, bearer string) (*AdminHandler, *http.ServeMux) {
	t.Helper()
	know := knowledge.NewTextFile(filepath.Join(t.TempDir(), "knowledge.txt"))
	h := NewAdminHandler(know, session.NewStore(), bearer)
	mux := http.NewServeMux()
	h.Register(mux)
	return h, mux
}

func TestAdminSystemMessageGetAndPutNoAuth(t *testing.T) {
	_, mux := newTestAdmin(t, "")

	putReq := httptest.NewRequest(http.MethodPut, "/api/system-message", strings.NewReader(`{"message":"be helpful"}`))
	putRec := httptest.NewRecorder()
	mux.ServeHTTP(putRec, putReq)
	if putRec.Code != http.StatusNoContent {
		t.Fatalf("PUT status = %d", putRec.Code)
	}

	getReq := httptest.NewRequest(http.MethodGet, "/api/system-message", nil)
	getRec := httptest.NewRecorder()
	mux.ServeHTTP(getRec, getReq)
	if getRec.Code != http.StatusOK {
		t.Fatalf("GET status = %d", getRec.Code)
	}
	if getRec.Body.String() != "be helpful" {
		t.Errorf("GET body = %q", getRec.Body.String())
	}
}

func TestAdminSystemMessageRequiresBearerWhenConfigured(t *testing.T) {
	_, mux := newTestAdmin(t, "secret-token")

	req := httptest.NewRequest(http.MethodGet, "/api/system-message", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}

	req2 := httptest.NewRequest(http.MethodGet, "/api/system-message", nil)
	req2.Header.Set("Authorization", "Bearer secret-token")
	rec2 := httptest.NewRecorder()
	mux.ServeHTTP(rec2, req2)
	if rec2.Code != http.StatusOK {
		t.Fatalf("authorized status = %d, want 200", rec2.Code)
	}
}

func TestAdminHealthzAndMetricsBypassAuth(t *testing.T) {
	_, mux := newTestAdmin(t, "secret-token")

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz status = %d", rec.Code)
	}

	mreq := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	mrec := httptest.NewRecorder()
	mux.ServeHTTP(mrec, mreq)
	if mrec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", mrec.Code)
	}
}
