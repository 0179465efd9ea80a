// Package requestmeta derives scheme, origin and client address from requests.
package requestmeta

import (
	"net"
	"net/http"
	"net/url"
	"strings"
)

// SchemePolicy controls how the request scheme is resolved.
//
// X-Forwarded-Proto is only honored when TrustForwardedProto is set, since
// any client can send it.
type SchemePolicy struct {
	TrustForwardedProto bool
}

// Scheme returns "https" or "http" for r.
func (p SchemePolicy) Scheme(r *http.Request) string {
	if r == nil {
		return ""
	}
	if p.TrustForwardedProto {
		if forwarded := strings.ToLower(strings.TrimSpace(r.Header.Get("X-Forwarded-Proto"))); forwarded == "http" || forwarded == "https" {
			return forwarded
		}
	}
	if r.URL != nil {
		if scheme := strings.ToLower(r.URL.Scheme); scheme == "http" || scheme == "https" {
			return scheme
		}
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}

// IsHTTPS reports whether cookies for r should be marked Secure.
func (p SchemePolicy) IsHTTPS(r *http.Request) bool {
	return p.Scheme(r) == "https"
}

// SameOrigin reports whether the Origin header, or the Referer when Origin
// is absent, names the same scheme, host and port as the request.
func (p SchemePolicy) SameOrigin(r *http.Request) bool {
	if r == nil {
		return false
	}
	self := p.origin(r)
	if self.host == "" {
		return false
	}
	claim := strings.TrimSpace(r.Header.Get("Origin"))
	if claim == "" {
		claim = strings.TrimSpace(r.Header.Get("Referer"))
	}
	if claim == "" {
		return false
	}
	parsed, err := url.Parse(claim)
	if err != nil {
		return false
	}
	other := newOrigin(parsed.Scheme, parsed.Hostname(), parsed.Port())
	return other.host != "" && other == self
}

// ClientIP returns the host part of RemoteAddr, which chi's RealIP
// middleware rewrites from proxy headers.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}

type origin struct {
	scheme string
	host   string
	port   string
}

func (p SchemePolicy) origin(r *http.Request) origin {
	host := r.Host
	if host == "" && r.URL != nil {
		host = r.URL.Host
	}
	parsed, err := url.Parse("//" + strings.TrimSpace(host))
	if err != nil {
		return origin{}
	}
	return newOrigin(p.Scheme(r), parsed.Hostname(), parsed.Port())
}

func newOrigin(scheme, host, port string) origin {
	scheme = strings.ToLower(strings.TrimSpace(scheme))
	if port == "" {
		switch scheme {
		case "https":
			port = "443"
		case "http":
			port = "80"
		}
	}
	return origin{scheme: scheme, host: strings.ToLower(strings.TrimSpace(host)), port: port}
}
