package httpserver

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"projectboard/pkg/auth"
	"projectboard/pkg/config"
	"projectboard/pkg/trace"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func identityRouter(cfg config.AuthConfig) (*gin.Engine, *int) {
	var resolved int
	r := gin.New()
	r.Use(Identity(cfg, zap.NewNop()))
	r.GET("/whoami", func(c *gin.Context) {
		resolved = UserID(c)
		c.Status(http.StatusOK)
	})
	return r, &resolved
}

func TestIdentity_ValidBearerToken(t *testing.T) {
	t.Parallel()

	cfg := config.AuthConfig{Secret: "test-secret", DemoUserID: 1}
	r, resolved := identityRouter(cfg)

	token, err := auth.GenerateJWT(42, cfg.Secret)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if *resolved != 42 {
		t.Fatalf("resolved user %d, want 42", *resolved)
	}
}

func TestIdentity_FallsBackToDemoUser(t *testing.T) {
	t.Parallel()

	cfg := config.AuthConfig{Secret: "test-secret", DemoUserID: 7}

	cases := map[string]string{
		"no header":     "",
		"invalid token": "Bearer not-a-jwt",
		"wrong scheme":  "Basic dXNlcjpwYXNz",
	}

	for name, header := range cases {
		header := header
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			r, resolved := identityRouter(cfg)
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if *resolved != 7 {
				t.Fatalf("resolved user %d, want demo user 7", *resolved)
			}
		})
	}
}

func TestIdentity_WrongSecretFallsBack(t *testing.T) {
	t.Parallel()

	cfg := config.AuthConfig{Secret: "right-secret", DemoUserID: 3}
	r, resolved := identityRouter(cfg)

	token, err := auth.GenerateJWT(42, "wrong-secret")
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if *resolved != 3 {
		t.Fatalf("resolved user %d, want demo user 3", *resolved)
	}
}

func TestRequestLogger_PropagatesRequestID(t *testing.T) {
	t.Parallel()

	r := gin.New()
	r.Use(RequestLogger(zap.NewNop()))
	var seen string
	r.GET("/ping", func(c *gin.Context) {
		seen = trace.FromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(trace.HeaderName(), "req-abc123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if seen != "req-abc123" {
		t.Fatalf("handler saw request id %q, want req-abc123", seen)
	}
	if got := w.Header().Get(trace.HeaderName()); got != "req-abc123" {
		t.Fatalf("response header %q, want req-abc123", got)
	}

	// Absent inbound id, one is generated and echoed back.
	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Header().Get(trace.HeaderName()) == "" {
		t.Fatalf("expected a generated request id on the response")
	}
}

func TestRequestLogger_LogsResolvedUser(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	cfg := config.AuthConfig{Secret: "test-secret", DemoUserID: 9}
	r := gin.New()
	r.Use(RequestLogger(logger))
	r.Use(Identity(cfg, zap.NewNop()))
	r.GET("/ping", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	entries := logs.FilterMessage("HTTP Request").All()
	if len(entries) != 1 {
		t.Fatalf("expected one request log entry, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["user_id"] != int64(9) {
		t.Fatalf("request log user_id = %v, want 9", fields["user_id"])
	}
}
