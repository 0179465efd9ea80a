package i18nhttp

import (
	"net/http"
	"net/http/httptest"
	"testing"

	platformi18n "github.com/edumap/desk/internal/platform/i18n"
)

func TestResolveLocale(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		target      string
		cookie      string
		wantLocale  platformi18n.Locale
		wantPersist bool
	}{
		{name: "default", target: "/", wantLocale: platformi18n.LocaleRU},
		{name: "query", target: "/?lang=en", wantLocale: platformi18n.LocaleEN, wantPersist: true},
		{name: "query beats cookie", target: "/?lang=ru", cookie: "en", wantLocale: platformi18n.LocaleRU, wantPersist: true},
		{name: "cookie", target: "/", cookie: "en", wantLocale: platformi18n.LocaleEN},
		{name: "invalid query falls to cookie", target: "/?lang=zz", cookie: "en", wantLocale: platformi18n.LocaleEN},
		{name: "invalid cookie normalizes", target: "/", cookie: "de", wantLocale: platformi18n.LocaleRU},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodGet, "http://example.com"+tc.target, nil)
			if tc.cookie != "" {
				req.AddCookie(&http.Cookie{Name: LangCookieName, Value: tc.cookie})
			}
			locale, persist := ResolveLocale(req)
			if locale != tc.wantLocale {
				t.Fatalf("locale = %q, want %q", locale, tc.wantLocale)
			}
			if persist != tc.wantPersist {
				t.Fatalf("persist = %t, want %t", persist, tc.wantPersist)
			}
		})
	}
}

func TestResolveLocaleNilRequest(t *testing.T) {
	t.Parallel()

	if locale, persist := ResolveLocale(nil); locale != platformi18n.DefaultLocale || persist {
		t.Fatalf("ResolveLocale(nil) = %q, %t", locale, persist)
	}
}

func TestLocalizerPersistsExplicitChoice(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/?lang=en", nil)
	loc := Localizer(rec, req)
	if loc.Locale() != platformi18n.LocaleEN {
		t.Fatalf("locale = %q, want en", loc.Locale())
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != LangCookieName || cookies[0].Value != "en" {
		t.Fatalf("cookies = %+v, want persisted en locale", cookies)
	}
	if cookies[0].MaxAge <= 0 {
		t.Fatalf("MaxAge = %d, want persistent cookie", cookies[0].MaxAge)
	}

	rec = httptest.NewRecorder()
	_ = Localizer(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if got := len(rec.Result().Cookies()); got != 0 {
		t.Fatalf("implicit locale wrote %d cookies, want 0", got)
	}
}

func TestBuildLanguageOptions(t *testing.T) {
	t.Parallel()

	options := BuildLanguageOptions(platformi18n.NewLocalizer(platformi18n.LocaleEN), "/school-registration", "x=1")
	if len(options) != 2 {
		t.Fatalf("len(options) = %d, want 2", len(options))
	}
	if options[0].Label != "RU" || options[0].Active {
		t.Fatalf("options[0] = %+v", options[0])
	}
	if options[0].Title != "Russian" {
		t.Fatalf("options[0].Title = %q, want Russian", options[0].Title)
	}
	if !options[1].Active || options[1].URL != "/school-registration?lang=en&x=1" {
		t.Fatalf("options[1] = %+v", options[1])
	}
}

func TestLanguageURL(t *testing.T) {
	t.Parallel()

	if got := LanguageURL("", "", platformi18n.LocaleRU); got != "/?lang=ru" {
		t.Fatalf("LanguageURL = %q", got)
	}
	if got := LanguageURL("/a", "lang=en&page=2", platformi18n.LocaleRU); got != "/a?lang=ru&page=2" {
		t.Fatalf("LanguageURL = %q", got)
	}
}
