package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/community-reservations/internal/config"
	"github.com/iliyamo/community-reservations/internal/model"
	"github.com/iliyamo/community-reservations/internal/utils"
)

const secret = "test-secret"

func protected(roles ...string) *echo.Echo {
	e := echo.New()
	g := e.Group("", JWTAuth(secret))
	if len(roles) > 0 {
		g.Use(RequireRole(roles...))
	}
	g.GET("/me", func(c echo.Context) error {
		who, _ := Identity(c)
		return c.String(http.StatusOK, who.UserID+"|"+who.Role+"|"+who.Unit)
	})
	return e
}

func bearer(t *testing.T, who model.Identity) string {
	t.Helper()
	tok, err := utils.NewAccessToken(secret, who, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	return "Bearer " + tok.Token
}

func TestJWTAuth(t *testing.T) {
	resident := model.Identity{UserID: "u-1", Role: model.RoleResident, Unit: "A-1"}
	tests := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"missing header", "", http.StatusUnauthorized, "missing bearer token"},
		{"garbage token", "Bearer abc.def.ghi", http.StatusUnauthorized, "invalid token"},
		{"unknown role", bearer(t, model.Identity{UserID: "u-2", Role: "OWNER"}), http.StatusUnauthorized, "invalid claims"},
		{"resident", bearer(t, resident), http.StatusOK, "u-1|RESIDENT|A-1"},
	}
	e := protected()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			if rec.Code != tt.status || !strings.Contains(rec.Body.String(), tt.body) {
				t.Fatalf("got %d %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	e := protected(model.RoleAdmin)
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", bearer(t, model.Identity{UserID: "u-1", Role: model.RoleResident}))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("resident on admin route: %d", rec.Code)
	}

	req.Header.Set("Authorization", bearer(t, model.Identity{UserID: "a-1", Role: model.RoleAdmin}))
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin: %d", rec.Code)
	}
}

func TestRateKeyStrategies(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/reservations", nil)
	req.Header.Set(echo.HeaderXRealIP, "10.0.0.1")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/reservations")
	c.Set(identityKey, model.Identity{UserID: "u-9", Role: model.RoleResident})

	tests := map[string]string{
		"ip":         "rl:ip:10.0.0.1",
		"user":       "rl:user:u-9",
		"user_route": "rl:user:u-9:route:POST /v1/reservations",
		"":           "rl:ip:10.0.0.1:user:u-9:route:POST /v1/reservations",
	}
	for strategy, want := range tests {
		got := rateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: strategy}, c)
		if got != want {
			t.Errorf("strategy %q: key = %q, want %q", strategy, got, want)
		}
	}
}

func TestCachePayloadRoundTrip(t *testing.T) {
	hdr := http.Header{"Content-Type": {"application/json"}}
	bs, err := encodePayload(http.StatusOK, hdr, []byte(`{"areas":[]}`))
	if err != nil {
		t.Fatal(err)
	}
	status, got, body, ok := decodePayload(bs)
	if !ok || status != http.StatusOK || got.Get("Content-Type") != "application/json" || string(body) != `{"areas":[]}` {
		t.Fatalf("decoded %d %v %q %v", status, got, body, ok)
	}
	if _, _, _, ok := decodePayload(bs[:5]); ok {
		t.Fatal("short payload decoded")
	}
}

func TestDisabledMiddlewaresPassThrough(t *testing.T) {
	e := echo.New()
	e.GET("/x", func(c echo.Context) error { return c.String(http.StatusOK, "ok") },
		NewTokenBucket(config.RateLimitConfig{Enabled: true}, nil, nil),
		NewResponseCache(config.CacheConfig{Enabled: true}, nil, nil).Middleware())
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	if rec.Code != http.StatusOK || rec.Header().Get("X-Cache") != "" {
		t.Fatalf("got %d headers %v", rec.Code, rec.Header())
	}
}
