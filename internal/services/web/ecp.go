package web

import (
	"errors"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"

	"github.com/edumap/desk/internal/services/web/platform/flash"
	"github.com/edumap/desk/internal/services/web/platform/httpx"
	"github.com/edumap/desk/internal/services/web/platform/sessioncookie"
	"github.com/edumap/desk/internal/services/web/session"
)

const (
	ecpFileField     = "ecp_file"
	ecpPasswordField = "ecp_password"
	ecpStatusValue   = "submitted"
	minECPPassword   = 6
	multipartMemory  = 1 << 20
)

var ecpExtensions = map[string]bool{".p12": true, ".pfx": true}

// handleECPUpload records a certificate submission on the signed-in user.
// The file is inspected for name and size only; the password is checked for
// length and dropped.
func (h *handler) handleECPUpload(w http.ResponseWriter, r *http.Request) {
	if !h.requireSameOrigin(w, r) {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.ecpMaxBytes+multipartOverhead)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.rejectECP(w, r, "too_large", h.tooLargeNotice())
			return
		}
		h.rejectECP(w, r, "invalid", flash.Error(flash.ScopeECP, "school.ecpMissing"))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	header := certificateHeader(r.MultipartForm)
	if header == nil {
		h.rejectECP(w, r, "invalid", flash.Error(flash.ScopeECP, "school.ecpMissing"))
		return
	}
	password := strings.TrimSpace(r.PostFormValue(ecpPasswordField))
	if utf8.RuneCountInString(password) < minECPPassword {
		h.rejectECP(w, r, "invalid", flash.Error(flash.ScopeECP, "school.ecpPassShort"))
		return
	}
	if header.Size > h.ecpMaxBytes {
		h.rejectECP(w, r, "too_large", h.tooLargeNotice())
		return
	}

	id, ok := sessioncookie.Read(r)
	if h.sessions == nil || !ok {
		h.rejectECP(w, r, "signed_out", flash.Error(flash.ScopeECP, "school.ecpSigninRequired"))
		return
	}
	if _, err := h.sessions.Current(r.Context(), id); err != nil {
		if !errors.Is(err, session.ErrNoSession) {
			h.log.WithError(err).Warn("load session for ecp")
		}
		h.rejectECP(w, r, "signed_out", flash.Error(flash.ScopeECP, "school.ecpSigninRequired"))
		return
	}

	if !h.waitProcessing(r) {
		h.metrics.ECPUpload("canceled")
		return
	}

	fileName := filepath.Base(header.Filename)
	_, err := h.sessions.UpdateUserMetadata(r.Context(), id, map[string]any{
		metaECPFileName:    fileName,
		metaECPFileSize:    header.Size,
		metaECPStatus:      ecpStatusValue,
		metaECPSubmittedAt: h.now().UTC().Format(time.RFC3339),
	})
	if errors.Is(err, session.ErrNoSession) {
		h.rejectECP(w, r, "signed_out", flash.Error(flash.ScopeECP, "school.ecpSigninRequired"))
		return
	}
	if err != nil {
		h.log.WithError(err).WithField("request_id", httpx.RequestIDFrom(r.Context())).Warn("record ecp submission")
		h.rejectECP(w, r, "failed", flash.Error(flash.ScopeECP, "school.ecpFailed"))
		return
	}

	h.metrics.ECPUpload("submitted")
	h.log.WithFields(logrus.Fields{
		"session_id": id,
		"file_name":  fileName,
		"file_size":  header.Size,
	}).Info("ecp submitted")
	h.redirectWithNotice(w, r, flash.Success(flash.ScopeECP, "school.ecpUploaded"))
}

func (h *handler) rejectECP(w http.ResponseWriter, r *http.Request, outcome string, notice flash.Notice) {
	h.metrics.ECPUpload(outcome)
	h.redirectWithNotice(w, r, notice)
}

func (h *handler) tooLargeNotice() flash.Notice {
	notice := flash.Error(flash.ScopeECP, "school.ecpTooLarge")
	notice.Args = []int64{h.ecpMaxBytes / 1024}
	return notice
}

// waitProcessing holds the request for the configured delay. It returns
// false when the client went away first.
func (h *handler) waitProcessing(r *http.Request) bool {
	if h.ecpDelay <= 0 {
		return true
	}
	timer := time.NewTimer(h.ecpDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-r.Context().Done():
		return false
	}
}

// certificateHeader returns the uploaded certificate part, or nil when no
// non-empty .p12/.pfx file was sent.
func certificateHeader(form *multipart.Form) *multipart.FileHeader {
	if form == nil {
		return nil
	}
	files := form.File[ecpFileField]
	if len(files) == 0 {
		return nil
	}
	header := files[0]
	name := strings.TrimSpace(header.Filename)
	if name == "" || header.Size <= 0 {
		return nil
	}
	if !ecpExtensions[strings.ToLower(filepath.Ext(name))] {
		return nil
	}
	return header
}
