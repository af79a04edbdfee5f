package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

const testOrigin = "http://localhost:5173"

func newCORSRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(CORS([]string{" " + testOrigin + " ", ""}))
	router.POST("/api/v1/extract", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return router
}

func TestCORSPreflightShortCircuits(t *testing.T) {
	router := newCORSRouter()

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/extract", nil)
	req.Header.Set("Origin", testOrigin)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
	if !strings.Contains(resp.Header().Get("Access-Control-Allow-Headers"), "X-Guest-Id") {
		t.Fatalf("expected guest header to be allowed, got %q", resp.Header().Get("Access-Control-Allow-Headers"))
	}
	if got := resp.Header().Get("Access-Control-Max-Age"); got != "600" {
		t.Fatalf("expected Max-Age 600, got %q", got)
	}
}

func TestCORSAllowedOriginOnPost(t *testing.T) {
	router := newCORSRouter()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/extract", nil)
	req.Header.Set("Origin", testOrigin)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if got := resp.Header().Get("Access-Control-Allow-Origin"); got != testOrigin {
		t.Fatalf("expected Allow-Origin %s, got %q", testOrigin, got)
	}
	if !strings.Contains(resp.Header().Get("Access-Control-Expose-Headers"), "Retry-After") {
		t.Fatalf("expected Retry-After to be exposed")
	}
}

func TestCORSUnknownOriginGetsNoHeaders(t *testing.T) {
	router := newCORSRouter()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/extract", nil)
	req.Header.Set("Origin", "https://evil.example")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected handler to run, got %d", resp.Code)
	}
	if got := resp.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("expected no Allow-Origin, got %q", got)
	}
}
