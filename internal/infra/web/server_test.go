//go:build !integration

// File: internal/infra/web/server_test.go
package web

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"telegram-shop-bot/internal/domain/model"
	"telegram-shop-bot/internal/infra/memory"
)

func newTestServer(secret string) (*Server, *memory.SessionRepo) {
	sessions := memory.NewSessionRepo(0)
	limiter := memory.NewRateLimiter(0)
	locks := memory.NewKeyedLock()
	logger := zerolog.New(io.Discard)
	return NewServer(sessions, limiter, locks, secret, &logger), sessions
}

func TestServer_Health(t *testing.T) {
	srv, _ := newTestServer("s3cret")
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestServer_Login(t *testing.T) {
	t.Run("wrong secret is rejected", func(t *testing.T) {
		srv, _ := newTestServer("s3cret")
		body := bytes.NewBufferString(`{"secret":"nope"}`)
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/login", body))

		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
	})

	t.Run("correct secret mints a token", func(t *testing.T) {
		srv, _ := newTestServer("s3cret")
		body := bytes.NewBufferString(`{"secret":"s3cret"}`)
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/login", body))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var resp map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if resp["token"] == "" {
			t.Error("expected a token in the response")
		}
	})

	t.Run("empty configured secret never matches", func(t *testing.T) {
		srv, _ := newTestServer("")
		body := bytes.NewBufferString(`{"secret":""}`)
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/login", body))

		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
	})
}

func TestServer_Stats(t *testing.T) {
	srv, sessions := newTestServer("s3cret")
	sessions.Set(1, model.NewSession(model.StepSelectingCategory))
	sessions.Set(2, model.NewSession(model.StepEnteringQuantity))

	t.Run("requires a token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("reports live state with a valid token", func(t *testing.T) {
		token, err := srv.auth.Mint(httptest.NewRecorder())
		if err != nil {
			t.Fatalf("mint token: %v", err)
		}

		req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		var stats map[string]any
		if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
			t.Fatalf("decode stats: %v", err)
		}
		if got := stats["active_sessions"].(float64); got != 2 {
			t.Errorf("expected 2 active sessions, got %v", got)
		}
	})

	t.Run("rejects a garbage token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
		req.Header.Set("Authorization", "Bearer not.a.jwt")
		rec := httptest.NewRecorder()
		srv.Router().ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})
}
