// Package flash carries one-shot status notices across post/redirect/get.
package flash

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/edumap/desk/internal/services/web/platform/requestmeta"
)

// CookieName is the cookie holding the pending notice.
const CookieName = "desk_flash"

// Scope names the page section a notice belongs to.
type Scope string

const (
	ScopeLogin Scope = "login"
	ScopeECP   Scope = "ecp"
)

// Kind classifies notice presentation.
type Kind string

const (
	KindSuccess Kind = "success"
	KindInfo    Kind = "info"
	KindError   Kind = "error"
)

// Notice is one status line. Key is a dictionary key; Message, when set, is
// shown verbatim instead.
type Notice struct {
	Scope   Scope  `json:"scope"`
	Kind    Kind   `json:"kind"`
	Key     string `json:"key,omitempty"`
	Message string `json:"message,omitempty"`
	// Args fill numeric placeholders in the translated Key.
	Args []int64 `json:"args,omitempty"`
}

// Success returns a success notice for key.
func Success(scope Scope, key string) Notice {
	return Notice{Scope: scope, Kind: KindSuccess, Key: key}
}

// Error returns an error notice for key.
func Error(scope Scope, key string) Notice {
	return Notice{Scope: scope, Kind: KindError, Key: key}
}

// Raw returns an error notice showing message as is.
func Raw(scope Scope, message string) Notice {
	return Notice{Scope: scope, Kind: KindError, Message: message}
}

// Write stores notice for the next page render.
func Write(w http.ResponseWriter, r *http.Request, notice Notice, policy requestmeta.SchemePolicy) {
	if w == nil {
		return
	}
	normalized, ok := normalize(notice)
	if !ok {
		return
	}
	payload, err := json.Marshal(normalized)
	if err != nil {
		return
	}
	cookie := base(r, policy)
	cookie.Value = base64.RawURLEncoding.EncodeToString(payload)
	http.SetCookie(w, cookie)
}

// ReadAndClear returns the pending notice and expires its cookie.
func ReadAndClear(w http.ResponseWriter, r *http.Request, policy requestmeta.SchemePolicy) (Notice, bool) {
	if r == nil {
		return Notice{}, false
	}
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return Notice{}, false
	}
	if w != nil {
		expired := base(r, policy)
		expired.MaxAge = -1
		http.SetCookie(w, expired)
	}
	return decode(cookie.Value)
}

func base(r *http.Request, policy requestmeta.SchemePolicy) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Path:     "/",
		HttpOnly: true,
		Secure:   policy.IsHTTPS(r),
		SameSite: http.SameSiteLaxMode,
	}
}

func decode(raw string) (Notice, bool) {
	decoded, err := base64.RawURLEncoding.DecodeString(strings.TrimSpace(raw))
	if err != nil || len(decoded) == 0 {
		return Notice{}, false
	}
	var notice Notice
	if err := json.Unmarshal(decoded, &notice); err != nil {
		return Notice{}, false
	}
	return normalize(notice)
}

func normalize(notice Notice) (Notice, bool) {
	notice.Key = strings.TrimSpace(notice.Key)
	notice.Message = strings.TrimSpace(notice.Message)
	if notice.Key == "" && notice.Message == "" {
		return Notice{}, false
	}
	switch notice.Scope {
	case ScopeLogin, ScopeECP:
	default:
		return Notice{}, false
	}
	switch notice.Kind {
	case KindSuccess, KindInfo, KindError:
	default:
		return Notice{}, false
	}
	return notice, true
}
