package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"

	"github.com/edumap/desk/internal/services/web/routepath"
)

// Notice is a rendered status line.
type Notice struct {
	// Kind is success, info or error.
	Kind string
	Text string
}

// Submission describes an ECP already recorded on the user's profile.
type Submission struct {
	FileName string
	FileSize int64
}

// RegistrationView is the state of the school-registration page.
type RegistrationView struct {
	SignedIn    bool
	Email       string
	LoginNotice *Notice
	ECPNotice   *Notice
	Submission  *Submission
	// MaxFileBytes is shown under the file input in KB; zero omits it.
	MaxFileBytes int64
}

// RegistrationPage renders the school-registration flow.
func RegistrationPage(page PageContext, view RegistrationView) templ.Component {
	return Page(page, registrationBody(page, view))
}

func registrationBody(page PageContext, view RegistrationView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		loc := page.Loc
		h.raw(`<div class="page"><div class="topbar"><a class="back"`)
		h.href(routepath.Root)
		h.raw(`>`)
		h.text(loc.T("school.back"))
		h.raw(`</a>`)
		h.render(ctx, LocaleToggle(page))
		h.raw(`</div><div class="grid"><aside class="info"><div class="tag">`)
		h.text(loc.T("school.tag"))
		h.raw(`</div><h1>`)
		h.text(loc.T("school.title"))
		h.raw(`</h1><p>`)
		h.text(loc.T("school.lede"))
		h.raw(`</p><ul>`)
		for _, key := range []string{"school.bullet1", "school.bullet2", "school.bullet3"} {
			h.raw(`<li>`)
			h.text(loc.T(key))
			h.raw(`</li>`)
		}
		h.raw(`</ul><div class="note">`)
		h.text(loc.T("school.note"))
		h.raw(`</div></aside><section class="content">`)
		h.render(ctx, accountCard(page, view))
		h.render(ctx, ecpCard(page, view))
		h.raw(`</section></div></div>`)
		return h.err
	})
}

func accountCard(page PageContext, view RegistrationView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		loc := page.Loc
		h.raw(`<div class="card" id="account"><header><h2>`)
		h.text(loc.T("school.account"))
		h.raw(`</h2><p>`)
		h.text(loc.T("school.accountHint"))
		h.raw(`</p></header>`)
		if view.SignedIn {
			h.raw(`<div class="session"><div><strong>`)
			h.text(view.Email)
			h.raw(`</strong><span>`)
			h.text(loc.T("school.signedIn"))
			h.raw(`</span></div><form method="post"`)
			h.attr("action", routepath.SignOut)
			h.raw(`><button class="ghost" type="submit">`)
			h.text(loc.T("school.signOut"))
			h.raw(`</button></form></div>`)
			h.render(ctx, statusLine(view.LoginNotice, "login-status"))
		} else {
			h.raw(`<form method="post" class="login-form"`)
			h.attr("action", routepath.SignIn)
			h.raw(`><label>`)
			h.text(loc.T("school.email"))
			h.raw(`<input type="email" name="email" autocomplete="email" placeholder="school@email.kz"></label><label>`)
			h.text(loc.T("school.password"))
			h.raw(`<input type="password" name="password" autocomplete="current-password" placeholder="••••••••"></label><button class="primary" type="submit">`)
			h.text(loc.T("school.signIn"))
			h.raw(`</button>`)
			h.render(ctx, statusLine(view.LoginNotice, "login-status"))
			h.raw(`</form>`)
		}
		h.raw(`</div>`)
		return h.err
	})
}

func ecpCard(page PageContext, view RegistrationView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		loc := page.Loc
		h.raw(`<div class="card" id="ecp"><header><h2>`)
		h.text(loc.T("school.ecpTitle"))
		h.raw(`</h2><p>`)
		h.text(loc.T("school.ecpHint"))
		h.raw(`</p></header>`)
		if view.Submission != nil {
			h.raw(`<p class="current">`)
			h.text(loc.Sprintf("school.ecpCurrent", view.Submission.FileName, view.Submission.FileSize))
			h.raw(`</p>`)
		}
		h.raw(`<form method="post" enctype="multipart/form-data" class="form"`)
		h.attr("action", routepath.ECPUpload)
		h.raw(`><div class="actions"><label class="field"><span>`)
		h.text(loc.T("school.ecpFile"))
		h.raw(`</span><input type="file" name="ecp_file" accept=".p12,.pfx">`)
		if view.MaxFileBytes > 0 {
			h.raw(`<small class="limit" id="ecp-limit">`)
			h.text(loc.Sprintf("school.ecpLimit", view.MaxFileBytes/1024))
			h.raw(`</small>`)
		}
		h.raw(`</label><label class="field"><span>`)
		h.text(loc.T("school.ecpPassword"))
		h.raw(`</span><input type="password" name="ecp_password" autocomplete="off" placeholder="••••••"></label></div><div class="actions"><button class="primary" type="submit">`)
		h.text(loc.T("school.ecpButton"))
		h.raw(`</button><a class="ghost"`)
		h.href(routepath.SupportMailto)
		h.raw(`>`)
		h.text(loc.T("school.needHelp"))
		h.raw(`</a></div>`)
		h.render(ctx, statusLine(view.ECPNotice, "ecp-status"))
		h.raw(`</form></div>`)
		return h.err
	})
}

func statusLine(notice *Notice, id string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		if notice == nil || notice.Text == "" {
			return nil
		}
		h := &htmlWriter{w: w}
		h.raw(`<p role="status"`)
		h.attr("id", id)
		h.attr("class", "status status-"+notice.Kind)
		h.raw(`>`)
		h.text(notice.Text)
		h.raw(`</p>`)
		return h.err
	})
}
