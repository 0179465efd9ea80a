package web

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	platformi18n "github.com/edumap/desk/internal/platform/i18n"
	"github.com/edumap/desk/internal/services/web/platform/flash"
	"github.com/edumap/desk/internal/services/web/platform/httpx"
	"github.com/edumap/desk/internal/services/web/platform/requestmeta"
	"github.com/edumap/desk/internal/services/web/platform/sessioncookie"
	"github.com/edumap/desk/internal/services/web/routepath"
	"github.com/edumap/desk/internal/services/web/session"
	"github.com/edumap/desk/internal/services/web/templates"
	"github.com/edumap/desk/internal/supabase"
)

// maxLoginFormBytes bounds the urlencoded sign-in body.
const maxLoginFormBytes = 16 << 10

// Metadata keys written on ECP submission.
const (
	metaECPFileName    = "ecp_file_name"
	metaECPFileSize    = "ecp_file_size"
	metaECPStatus      = "ecp_status"
	metaECPSubmittedAt = "ecp_submitted_at"
)

// handleRegistration renders the school-registration page for the current
// browser, consuming any pending flash notice.
func (h *handler) handleRegistration(w http.ResponseWriter, r *http.Request) {
	page := pageContext(w, r, "school.metaTitle", "")
	view := templates.RegistrationView{MaxFileBytes: h.ecpMaxBytes}

	if notice, ok := flash.ReadAndClear(w, r, h.policy); ok {
		rendered := renderNotice(page.Loc, notice)
		switch notice.Scope {
		case flash.ScopeLogin:
			view.LoginNotice = rendered
		case flash.ScopeECP:
			view.ECPNotice = rendered
		}
	}
	if sess := h.currentSession(w, r); sess != nil {
		view.SignedIn = true
		view.Email = sess.User.Email
		view.Submission = submissionFromMetadata(sess.User.Metadata)
	}
	h.writePage(w, r, templates.RegistrationPage(page, view))
}

// handleSignIn exchanges email and password for a server-side session.
func (h *handler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	if !h.requireSameOrigin(w, r) {
		return
	}
	if h.sessions == nil {
		h.metrics.SignIn("unconfigured")
		h.redirectWithNotice(w, r, flash.Error(flash.ScopeLogin, "school.supabaseMissing"))
		return
	}
	clientIP := requestmeta.ClientIP(r)
	if !h.limiter.Allow(clientIP) {
		h.metrics.SignIn("rate_limited")
		h.log.WithField("client_ip", clientIP).Info("sign-in rate limited")
		h.redirectWithNotice(w, r, flash.Error(flash.ScopeLogin, "school.loginRateLimited"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxLoginFormBytes)
	if err := r.ParseForm(); err != nil {
		h.metrics.SignIn("invalid")
		h.redirectWithNotice(w, r, flash.Error(flash.ScopeLogin, "school.loginMissing"))
		return
	}
	email := strings.ToLower(strings.TrimSpace(r.PostForm.Get("email")))
	password := r.PostForm.Get("password")
	if email == "" || password == "" {
		h.metrics.SignIn("invalid")
		h.redirectWithNotice(w, r, flash.Error(flash.ScopeLogin, "school.loginMissing"))
		return
	}

	sess, err := h.sessions.SignIn(r.Context(), email, password)
	if err != nil {
		h.metrics.SignIn("rejected")
		h.log.WithError(err).WithFields(logrus.Fields{
			"request_id": httpx.RequestIDFrom(r.Context()),
			"status":     apiStatus(err),
		}).Info("sign-in rejected")
		h.redirectWithNotice(w, r, flash.Raw(flash.ScopeLogin, supabase.Message(err)))
		return
	}
	h.metrics.SignIn("success")
	sessioncookie.Write(w, r, sess.ID, h.sessionTTL, h.policy)
	h.redirectWithNotice(w, r, flash.Success(flash.ScopeLogin, "school.loginSuccess"))
}

// handleSignOut ends the browser session. Without a backend it only redirects.
func (h *handler) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if !h.requireSameOrigin(w, r) {
		return
	}
	if h.sessions == nil {
		httpx.WriteRedirect(w, r, routepath.SchoolRegistration)
		return
	}
	if id, ok := sessioncookie.Read(r); ok {
		if err := h.sessions.SignOut(r.Context(), id); err != nil {
			h.log.WithError(err).Warn("sign out")
		}
	}
	sessioncookie.Clear(w, r, h.policy)
	httpx.WriteRedirect(w, r, routepath.SchoolRegistration)
}

// currentSession resolves the session cookie, clearing it when the session is gone.
func (h *handler) currentSession(w http.ResponseWriter, r *http.Request) *session.Session {
	if h.sessions == nil {
		return nil
	}
	id, ok := sessioncookie.Read(r)
	if !ok {
		return nil
	}
	sess, err := h.sessions.Current(r.Context(), id)
	if errors.Is(err, session.ErrNoSession) {
		sessioncookie.Clear(w, r, h.policy)
		return nil
	}
	if err != nil {
		h.log.WithError(err).Warn("load session")
		return nil
	}
	return sess
}

func (h *handler) redirectWithNotice(w http.ResponseWriter, r *http.Request, notice flash.Notice) {
	flash.Write(w, r, notice, h.policy)
	httpx.WriteRedirect(w, r, routepath.SchoolRegistration)
}

func renderNotice(loc platformi18n.Localizer, notice flash.Notice) *templates.Notice {
	text := notice.Message
	if text == "" {
		args := make([]any, 0, len(notice.Args))
		for _, arg := range notice.Args {
			args = append(args, arg)
		}
		text = loc.Sprintf(notice.Key, args...)
	}
	return &templates.Notice{Kind: string(notice.Kind), Text: text}
}

func submissionFromMetadata(metadata map[string]any) *templates.Submission {
	name, _ := metadata[metaECPFileName].(string)
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	size, _ := metadataInt(metadata[metaECPFileSize])
	return &templates.Submission{FileName: name, FileSize: size}
}

// metadataInt reads a size that may have crossed a JSON boundary.
func metadataInt(value any) (int64, bool) {
	switch v := value.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		if v < 0 || v > math.MaxInt64 || v != math.Trunc(v) {
			return 0, false
		}
		return int64(v), true
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	default:
		return 0, false
	}
}

func apiStatus(err error) int {
	var apiErr *supabase.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}
