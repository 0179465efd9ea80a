package web

import (
	"net/http"

	"github.com/edumap/desk/internal/services/web/templates"
)

// handleHome renders the landing page.
func (h *handler) handleHome(w http.ResponseWriter, r *http.Request) {
	page := pageContext(w, r, "home.metaTitle", "home.metaDescription")
	h.writePage(w, r, templates.HomePage(page))
}
