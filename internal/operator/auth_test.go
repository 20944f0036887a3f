package operator

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCheckBearerAcceptsExactToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/operator/breaker/coingecko/reset", nil)
	req.Header.Set("Authorization", "Bearer operator")
	if !CheckBearer(req) {
		t.Fatalf("expected exact token to be accepted")
	}
}

func TestCheckBearerRejectsWrongToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/operator/breaker/coingecko/reset", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	if CheckBearer(req) {
		t.Fatalf("expected mismatched token to be rejected")
	}
}

func TestCheckBearerRejectsMissingHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/operator/breaker/coingecko/reset", nil)
	if CheckBearer(req) {
		t.Fatalf("expected missing Authorization header to be rejected")
	}
}

func TestCheckBearerRejectsWrongScheme(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/operator/breaker/coingecko/reset", nil)
	req.Header.Set("Authorization", "Basic operator")
	if CheckBearer(req) {
		t.Fatalf("expected non-Bearer scheme to be rejected")
	}
}
