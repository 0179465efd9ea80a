package supabase

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// APIError is a non-2xx GoTrue response.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("supabase auth: %s", strings.ToLower(http.StatusText(e.Status)))
}

// Message returns the text shown to users for err: the backend's own
// message when there is one.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Error()
	}
	return err.Error()
}

// IsStatus reports whether err is an APIError with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

var messageFields = []string{"msg", "error_description", "message", "error"}

func parseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{Status: status}
	if !gjson.ValidBytes(body) {
		apiErr.Message = strings.TrimSpace(string(body))
		return apiErr
	}
	for _, field := range messageFields {
		if value := strings.TrimSpace(gjson.GetBytes(body, field).String()); value != "" {
			apiErr.Message = value
			break
		}
	}
	if code := gjson.GetBytes(body, "error_code"); code.Exists() {
		apiErr.Code = code.String()
	} else if code := gjson.GetBytes(body, "code"); code.Type == gjson.String {
		apiErr.Code = code.String()
	}
	return apiErr
}
