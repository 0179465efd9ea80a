package sessioncookie

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/edumap/desk/internal/services/web/platform/requestmeta"
)

func TestWriteAndRead(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "https://desk.edumap.kz/school-registration/sign-in", nil)
	Write(rec, req, " session-1 ", time.Hour, requestmeta.SchemePolicy{})

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("cookies = %d, want 1", len(cookies))
	}
	cookie := cookies[0]
	if cookie.Name != Name || cookie.Value != "session-1" {
		t.Fatalf("cookie = %+v", cookie)
	}
	if !cookie.HttpOnly || !cookie.Secure || cookie.SameSite != http.SameSiteLaxMode {
		t.Fatalf("cookie flags = %+v", cookie)
	}
	if cookie.MaxAge != 3600 {
		t.Fatalf("MaxAge = %d, want 3600", cookie.MaxAge)
	}

	next := httptest.NewRequest(http.MethodGet, "/", nil)
	next.AddCookie(cookie)
	if id, ok := Read(next); !ok || id != "session-1" {
		t.Fatalf("Read() = %q, %t", id, ok)
	}
}

func TestReadMissingOrBlank(t *testing.T) {
	t.Parallel()

	if _, ok := Read(nil); ok {
		t.Fatal("nil request must not read a session")
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, ok := Read(req); ok {
		t.Fatal("missing cookie must not read a session")
	}
	req.AddCookie(&http.Cookie{Name: Name, Value: "  "})
	if _, ok := Read(req); ok {
		t.Fatal("blank cookie must not read a session")
	}
}

func TestClear(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	Clear(rec, httptest.NewRequest(http.MethodPost, "/", nil), requestmeta.SchemePolicy{})
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge != -1 || cookies[0].Secure {
		t.Fatalf("cookies = %+v", cookies)
	}
}
