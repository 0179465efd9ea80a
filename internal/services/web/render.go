package web

import (
	"bytes"
	"net/http"

	"github.com/a-h/templ"
	"github.com/sirupsen/logrus"

	"github.com/edumap/desk/internal/services/shared/i18nhttp"
	"github.com/edumap/desk/internal/services/web/platform/httpx"
	"github.com/edumap/desk/internal/services/web/templates"
)

// pageContext resolves the request locale, persisting a ?lang= choice.
func pageContext(w http.ResponseWriter, r *http.Request, titleKey, descriptionKey string) templates.PageContext {
	return templates.PageContext{
		Loc:            i18nhttp.Localizer(w, r),
		CurrentPath:    r.URL.Path,
		CurrentQuery:   r.URL.RawQuery,
		TitleKey:       titleKey,
		DescriptionKey: descriptionKey,
	}
}

// writePage buffers the component so a render failure still yields a clean 500.
func (h *handler) writePage(w http.ResponseWriter, r *http.Request, component templ.Component) {
	var buf bytes.Buffer
	if err := component.Render(r.Context(), &buf); err != nil {
		h.log.WithError(err).WithField("request_id", httpx.RequestIDFrom(r.Context())).Error("render page")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// requireSameOrigin rejects form posts without same-origin proof.
func (h *handler) requireSameOrigin(w http.ResponseWriter, r *http.Request) bool {
	if h.policy.SameOrigin(r) {
		return true
	}
	h.log.WithFields(logrus.Fields{
		"path":       r.URL.Path,
		"origin":     r.Header.Get("Origin"),
		"request_id": httpx.RequestIDFrom(r.Context()),
	}).Warn("cross-origin form post rejected")
	http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
	return false
}
