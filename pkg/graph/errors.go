package graph

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Category buckets an upstream failure by what an operator can do about it.
type Category string

const (
	// CategoryAuth covers 401s and identity-not-found responses. The fix is
	// re-consent, so these are never retried.
	CategoryAuth Category = "auth"
	// CategoryPermission covers 403s. The fix is granting scopes.
	CategoryPermission Category = "permission"
	// CategoryService covers transient upstream outages (5xx).
	CategoryService Category = "service"
	// CategoryTimeout covers deadline and transport timeouts.
	CategoryTimeout Category = "timeout"
	// CategoryOther is everything we cannot map, kept for manual triage.
	CategoryOther Category = "other"
)

// Error is a classified upstream failure. It always carries the tenant the
// request was made for and, when the upstream returned its JSON error
// envelope, the diagnostic code from it.
type Error struct {
	TenantID   string
	StatusCode int
	Code       string
	Message    string
	Category   Category
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%d %s - tenant %s: %s - %s", e.StatusCode, http.StatusText(e.StatusCode), e.TenantID, e.Code, e.Message)
	}
	return fmt.Sprintf("%d %s - tenant %s: %s", e.StatusCode, http.StatusText(e.StatusCode), e.TenantID, e.Message)
}

type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func categoryForStatus(status int) Category {
	switch status {
	case http.StatusUnauthorized:
		return CategoryAuth
	case http.StatusForbidden:
		return CategoryPermission
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return CategoryService
	case http.StatusRequestTimeout:
		return CategoryTimeout
	default:
		return CategoryOther
	}
}

// newError builds a classified error from a response status and body. The
// body may or may not be the upstream error envelope; anything unparsable is
// kept as the raw message.
func newError(tenantID string, status int, body []byte) *Error {
	e := &Error{
		TenantID:   tenantID,
		StatusCode: status,
		Category:   categoryForStatus(status),
	}

	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err == nil && env.Error.Code != "" {
		e.Code = env.Error.Code
		e.Message = env.Error.Message
	} else if len(body) > 0 {
		msg := string(body)
		if len(msg) > 512 {
			msg = msg[:512]
		}
		e.Message = msg
	}

	return e
}
