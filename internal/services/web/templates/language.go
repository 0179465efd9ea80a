package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// LocaleToggle renders the RU/EN switch as plain links.
func LocaleToggle(page PageContext) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw(`<nav class="locale-toggle"`)
		h.attr("aria-label", page.Loc.T("language.label"))
		h.raw(`>`)
		for _, option := range page.Languages() {
			class := "locale-button"
			if option.Active {
				class += " locale-active"
			}
			h.raw(`<a`)
			h.attr("class", class)
			h.href(option.URL)
			h.attr("hreflang", option.Locale.String())
			h.attr("title", option.Title)
			if option.Active {
				h.attr("aria-current", "true")
			}
			h.raw(`>`)
			h.text(option.Label)
			h.raw(`</a>`)
		}
		h.raw(`</nav>`)
		return h.err
	})
}
