package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func testConfig() Config {
	return Config{Secret: "test-secret", Issuer: "aggregator", TTL: time.Hour}
}

func TestIssueAndParseRoundTrip(t *testing.T) {
	cfg := testConfig()
	token, err := IssueToken(cfg, 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claims, err := Parse(token, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.ClientID != 42 {
		t.Errorf("expected client 42 got %d", claims.ClientID)
	}
	if remaining := time.Until(claims.ExpiresAt); remaining <= 0 || remaining > time.Hour {
		t.Errorf("unexpected expiry %v", claims.ExpiresAt)
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	token, err := IssueToken(testConfig(), 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	other := testConfig()
	other.Secret = "different"
	_, err = Parse(token, other)
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken got %v", err)
	}
}

func TestParseRejectsWrongIssuer(t *testing.T) {
	token, err := IssueToken(testConfig(), 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	other := testConfig()
	other.Issuer = "somebody-else"
	_, err = Parse(token, other)
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken got %v", err)
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	cfg := testConfig()
	cfg.TTL = -time.Minute
	token, err := IssueToken(cfg, 42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = Parse(token, testConfig())
	if !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken got %v", err)
	}
}

func TestParseRejectsEmptyToken(t *testing.T) {
	_, err := Parse("  ", testConfig())
	if !errors.Is(err, ErrMissingToken) {
		t.Fatalf("expected ErrMissingToken got %v", err)
	}
}

func okHandler(t *testing.T, sawClient *int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := FromContext(r.Context())
		if ok && sawClient != nil {
			*sawClient = claims.ClientID
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestMiddlewareAcceptsBearerToken(t *testing.T) {
	cfg := testConfig()
	token, err := IssueToken(cfg, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var sawClient int
	handler := NewMiddleware(cfg, nil).Wrap(okHandler(t, &sawClient))

	req := httptest.NewRequest(http.MethodGet, "/user/7/steps/daily", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if sawClient != 7 {
		t.Errorf("claims not propagated, saw client %d", sawClient)
	}
}

func TestMiddlewareRejectsMissingToken(t *testing.T) {
	handler := NewMiddleware(testConfig(), nil).Wrap(okHandler(t, nil))

	req := httptest.NewRequest(http.MethodGet, "/user/7/steps/daily", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
	var body struct {
		Success bool    `json:"success"`
		Error   *string `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if body.Success || body.Error == nil || *body.Error != "Access token is missing or invalid" {
		t.Errorf("unexpected envelope %s", rec.Body.String())
	}
}

func TestMiddlewareRejectsMalformedHeader(t *testing.T) {
	cfg := testConfig()
	token, err := IssueToken(cfg, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	handler := NewMiddleware(cfg, nil).Wrap(okHandler(t, nil))

	req := httptest.NewRequest(http.MethodGet, "/user/7/steps/daily", nil)
	req.Header.Set("Authorization", "Token "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}

func TestMiddlewareSkipperBypassesAuth(t *testing.T) {
	skipper := func(r *http.Request) bool {
		return !strings.HasPrefix(r.URL.Path, "/user/")
	}
	handler := NewMiddleware(testConfig(), skipper).Wrap(okHandler(t, nil))

	req := httptest.NewRequest(http.MethodPost, "/signup", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
}
