// Package templates renders desk pages as templ components.
package templates

import (
	platformi18n "github.com/edumap/desk/internal/platform/i18n"
	"github.com/edumap/desk/internal/services/shared/i18nhttp"
)

// PageContext is the layout state shared by every page.
type PageContext struct {
	Loc          platformi18n.Localizer
	CurrentPath  string
	CurrentQuery string
	TitleKey     string
	// DescriptionKey is optional.
	DescriptionKey string
}

// Lang returns the html lang attribute value.
func (p PageContext) Lang() string {
	return p.Loc.Locale().String()
}

// Languages returns the locale toggle entries for the page.
func (p PageContext) Languages() []i18nhttp.LanguageOption {
	return i18nhttp.BuildLanguageOptions(p.Loc, p.CurrentPath, p.CurrentQuery)
}
