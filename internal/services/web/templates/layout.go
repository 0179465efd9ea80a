package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// StylesheetPath is the embedded stylesheet URL.
const StylesheetPath = "/static/site.css"

// Layout wraps children in the document shell.
func Layout(page PageContext) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw(`<!doctype html><html`)
		h.attr("lang", page.Lang())
		h.raw(`><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1"><title>`)
		h.text(page.Loc.T(page.TitleKey))
		h.raw(`</title>`)
		if page.DescriptionKey != "" {
			h.raw(`<meta name="description"`)
			h.attr("content", page.Loc.T(page.DescriptionKey))
			h.raw(`>`)
		}
		h.raw(`<link rel="stylesheet"`)
		h.attr("href", StylesheetPath)
		h.raw(`></head><body>`)
		h.render(ctx, templ.GetChildren(ctx))
		h.raw(`</body></html>`)
		return h.err
	})
}

// Page renders body inside the layout.
func Page(page PageContext, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return Layout(page).Render(templ.WithChildren(ctx, body), w)
	})
}
