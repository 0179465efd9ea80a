package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"github.com/edumap/desk/internal/services/web/routepath"
)

var homeSteps = []struct {
	number string
	title  string
	text   string
}{
	{number: "01", title: "home.step1.title", text: "home.step1.text"},
	{number: "02", title: "home.step2.title", text: "home.step2.text"},
	{number: "03", title: "home.step3.title", text: "home.step3.text"},
}

// HomePage renders the landing page.
func HomePage(page PageContext) templ.Component {
	return Page(page, homeBody(page))
}

func homeBody(page PageContext) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		loc := page.Loc
		h.raw(`<div class="page"><main class="main">`)
		h.render(ctx, LocaleToggle(page))
		h.raw(`<div class="badge">`)
		h.text(loc.T("home.badge"))
		h.raw(`</div><h1>`)
		h.text(loc.T("home.title"))
		h.raw(`</h1><p class="lede">`)
		h.text(loc.T("home.lede"))
		h.raw(`</p><div class="actions"><a class="primary"`)
		h.href(routepath.SchoolRegistration)
		h.raw(`>`)
		h.text(loc.T("home.primary"))
		h.raw(`</a><a class="secondary"`)
		h.href(routepath.Steps)
		h.raw(`>`)
		h.text(loc.T("home.secondary"))
		h.raw(`</a></div><div class="panel" id="steps">`)
		for _, step := range homeSteps {
			h.raw(`<div><span>`)
			h.text(step.number)
			h.raw(`</span><h3>`)
			h.text(loc.T(step.title))
			h.raw(`</h3><p>`)
			h.text(loc.T(step.text))
			h.raw(`</p></div>`)
		}
		h.raw(`</div></main></div>`)
		return h.err
	})
}
