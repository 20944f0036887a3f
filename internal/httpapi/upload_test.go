package httpapi

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"cryptobff-gateway/internal/app"
	"cryptobff-gateway/internal/config"
	"cryptobff-gateway/internal/ratelimit"
)

func newImportGateway(t *testing.T) *app.Gateway {
	t.Helper()
	cfg := config.Settings{APIHost: "127.0.0.1", APIPort: 8000}
	return app.New(cfg, ratelimit.NewMemBackend(), zerolog.Nop())
}

func csvUpload(t *testing.T, gw *app.Gateway, body string, idempotencyKey string) *httptest.ResponseRecorder {
	t.Helper()
	router := NewRouter(gw)
	req := httptest.NewRequest(http.MethodPost, "/portfolio/holdings/import", strings.NewReader(body))
	req.Header.Set("Content-Type", "text/csv")
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestImportRejectsNonCSVContentType(t *testing.T) {
	gw := newImportGateway(t)
	router := NewRouter(gw)
	req := httptest.NewRequest(http.MethodPost, "/portfolio/holdings/import", strings.NewReader("x"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", "abc123")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415, got %d", rec.Code)
	}
}

func TestImportRejectsMissingIdempotencyKey(t *testing.T) {
	gw := newImportGateway(t)
	rec := csvUpload(t, gw, "asset,qty\nBTC,1\n", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "client_invalid_contract") {
		t.Fatalf("expected client_invalid_contract, got %s", rec.Body.String())
	}
}

func TestImportRejectsMalformedIdempotencyKey(t *testing.T) {
	gw := newImportGateway(t)
	rec := csvUpload(t, gw, "asset,qty\nBTC,1\n", "has a space")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestImportReplaysIdenticalResultForSameKey(t *testing.T) {
	// S5 — same key, any second body, returns the first result byte for byte.
	gw := newImportGateway(t)

	rec1 := csvUpload(t, gw, "asset,qty\nBTC,1\n", "abc123")
	if rec1.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec1.Code, rec1.Body.String())
	}

	rec2 := csvUpload(t, gw, "asset,qty\nETH,2\nSOL,3\n", "abc123")
	if rec2.Code != http.StatusOK {
		t.Fatalf("expected 200 on replay, got %d", rec2.Code)
	}

	if rec1.Body.String() != rec2.Body.String() {
		t.Fatalf("expected byte-identical replay, got %s vs %s", rec1.Body.String(), rec2.Body.String())
	}
}

func TestImportOversizedUploadReturns413(t *testing.T) {
	// S6 — an upload over the 10 MiB cap is rejected with payload_too_large.
	gw := newImportGateway(t)
	router := NewRouter(gw)

	huge := bytes.Repeat([]byte("a"), maxUpload+1024)
	req := httptest.NewRequest(http.MethodPost, "/portfolio/holdings/import", bytes.NewReader(huge))
	req.Header.Set("Content-Type", "text/csv")
	req.Header.Set("Idempotency-Key", "big-upload")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "payload_too_large") {
		t.Fatalf("expected payload_too_large code, got %s", rec.Body.String())
	}
}
