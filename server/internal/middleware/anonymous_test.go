package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/uigen-dev/uigen/server/internal/config"
)

func TestAnonymousID(t *testing.T) {
	cfg := config.Default()
	cfg.AnonWorkTTL = time.Hour

	var seen string
	h := AnonymousID(cfg)(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = GetAnonymousID(r.Context())
	}))

	t.Run("issues a cookie when missing", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		if _, err := uuid.Parse(seen); err != nil {
			t.Fatalf("anonymous id %q is not a UUID", seen)
		}
		cookies := rec.Result().Cookies()
		if len(cookies) != 1 || cookies[0].Name != AnonCookieName || cookies[0].Value != seen {
			t.Fatalf("cookies = %+v, want one %s cookie with %s", cookies, AnonCookieName, seen)
		}
		if cookies[0].MaxAge != 3600 {
			t.Errorf("MaxAge = %d, want 3600", cookies[0].MaxAge)
		}
	})

	t.Run("reuses a valid cookie", func(t *testing.T) {
		id := uuid.New().String()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: AnonCookieName, Value: id})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if seen != id {
			t.Errorf("anonymous id = %q, want %q", seen, id)
		}
		if len(rec.Result().Cookies()) != 0 {
			t.Error("should not reissue a valid cookie")
		}
	})

	t.Run("replaces a malformed cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: AnonCookieName, Value: "../../etc"})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if seen == "../../etc" {
			t.Error("malformed anonymous id should be replaced")
		}
		if len(rec.Result().Cookies()) != 1 {
			t.Error("expected a fresh cookie")
		}
	})
}

func TestGetAnonymousID_Empty(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if id := GetAnonymousID(req.Context()); id != "" {
		t.Errorf("GetAnonymousID() = %q, want empty", id)
	}
}
