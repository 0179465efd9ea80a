// Package i18nhttp resolves and persists the UI locale over HTTP.
package i18nhttp

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	platformi18n "github.com/edumap/desk/internal/platform/i18n"
)

const (
	// LangParam is the query parameter used to select a language.
	LangParam = "lang"
	// LangCookieName stores the user's language preference.
	LangCookieName = "EDUMAP_WEB_LOCALE"
)

const langCookieMaxAge = 365 * 24 * time.Hour

// LanguageOption represents a supported language option in UI surfaces.
type LanguageOption struct {
	Locale platformi18n.Locale
	Label  string
	Title  string
	URL    string
	Active bool
}

// ResolveLocale determines the locale for the request.
//
// The query parameter wins over the stored cookie, and the default locale
// applies when neither holds a supported value. The bool reports whether the
// query parameter selected the locale and should be persisted.
func ResolveLocale(r *http.Request) (platformi18n.Locale, bool) {
	if r == nil {
		return platformi18n.DefaultLocale, false
	}

	if r.URL != nil {
		if langValue := strings.TrimSpace(r.URL.Query().Get(LangParam)); langValue != "" {
			if locale, ok := platformi18n.Parse(langValue); ok {
				return locale, true
			}
		}
	}

	if cookie, err := r.Cookie(LangCookieName); err == nil {
		return platformi18n.Normalize(cookie.Value), false
	}

	return platformi18n.DefaultLocale, false
}

// SetLocaleCookie persists the selected locale on the response.
func SetLocaleCookie(w http.ResponseWriter, locale platformi18n.Locale) {
	if w == nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     LangCookieName,
		Value:    string(platformi18n.Normalize(string(locale))),
		Path:     "/",
		MaxAge:   int(langCookieMaxAge.Seconds()),
		SameSite: http.SameSiteLaxMode,
	})
}

// Localizer resolves the request locale, persists an explicit choice, and
// returns a localizer for it.
func Localizer(w http.ResponseWriter, r *http.Request) platformi18n.Localizer {
	locale, persist := ResolveLocale(r)
	if persist {
		SetLocaleCookie(w, locale)
	}
	return platformi18n.NewLocalizer(locale)
}

// BuildLanguageOptions returns the locale toggle entries for the current page.
func BuildLanguageOptions(loc platformi18n.Localizer, path string, rawQuery string) []LanguageOption {
	active := loc.Locale()
	locales := platformi18n.SupportedLocales()
	options := make([]LanguageOption, 0, len(locales))
	for _, locale := range locales {
		options = append(options, LanguageOption{
			Locale: locale,
			Label:  strings.ToUpper(string(locale)),
			Title:  loc.T("language." + string(locale)),
			URL:    LanguageURL(path, rawQuery, locale),
			Active: locale == active,
		})
	}
	return options
}

// LanguageURL returns the current URL with the language param updated.
func LanguageURL(path string, rawQuery string, locale platformi18n.Locale) string {
	path = strings.TrimSpace(path)
	if path == "" {
		path = "/"
	}
	query, err := url.ParseQuery(rawQuery)
	if err != nil {
		query = url.Values{}
	}
	query.Set(LangParam, string(locale))
	return (&url.URL{Path: path, RawQuery: query.Encode()}).String()
}
