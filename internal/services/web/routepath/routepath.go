// Package routepath stores canonical HTTP paths for desk pages.
package routepath

import (
	"net/url"
	"strings"
)

const (
	Root               = "/"
	Health             = "/healthz"
	Metrics            = "/metrics"
	StaticPrefix       = "/static/"
	Steps              = "#steps"
	SchoolRegistration = "/school-registration"
	SignIn             = SchoolRegistration + "/sign-in"
	SignOut            = SchoolRegistration + "/sign-out"
	ECPUpload          = SchoolRegistration + "/ecp"
	SupportMailto      = "mailto:support@edumap.kz"
)

// WithQuery appends rawQuery to path when it is non-empty and parses.
func WithQuery(path string, rawQuery string) string {
	rawQuery = strings.TrimPrefix(strings.TrimSpace(rawQuery), "?")
	if rawQuery == "" {
		return path
	}
	if _, err := url.ParseQuery(rawQuery); err != nil {
		return path
	}
	return path + "?" + rawQuery
}
