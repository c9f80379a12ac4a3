package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/adplane/ads-control-plane/services"
)

// Platform error codes that indicate throttling. These are retried no
// matter which HTTP status carried them.
var retryablePlatformCodes = map[int]bool{
	4:   true, // application request limit
	17:  true, // user request limit
	32:  true, // page request limit
	613: true, // custom rate limit
}

// Subcode for ad-account-level throttling. Retried regardless of status
// and of the outer code.
const subcodeAccountThrottle = 2446079

// PlatformError is the error object the platform embeds in failure bodies
type PlatformError struct {
	Message     string          `json:"message"`
	Type        string          `json:"type"`
	Code        int             `json:"code"`
	Subcode     int             `json:"error_subcode,omitempty"`
	UserTitle   string          `json:"error_user_title,omitempty"`
	UserMessage string          `json:"error_user_msg,omitempty"`
	TraceID     string          `json:"fbtrace_id,omitempty"`
	ErrorData   json.RawMessage `json:"error_data,omitempty"`
	IsTransient bool            `json:"is_transient,omitempty"`
}

type errorEnvelope struct {
	Error *PlatformError `json:"error"`
}

// parsePlatformError extracts the platform error object from a failure
// body. Returns nil when the body is not the platform's error shape.
func parsePlatformError(body []byte) *PlatformError {
	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil
	}
	return envelope.Error
}

// Retryable reports whether the platform error is a throttling signal
func (e *PlatformError) Retryable() bool {
	if e == nil {
		return false
	}
	return retryablePlatformCodes[e.Code] || e.Subcode == subcodeAccountThrottle || e.IsTransient
}

// PermissionDenied reports whether the error means the credential lacks
// access to the object, as opposed to the object not existing
func (e *PlatformError) PermissionDenied() bool {
	if e == nil {
		return false
	}
	return e.Code == 10 || (e.Code >= 200 && e.Code <= 299)
}

// NotFound reports whether the error means the object does not exist
func (e *PlatformError) NotFound() bool {
	if e == nil {
		return false
	}
	return e.Type == "GraphMethodException" || (e.Code == 100 && e.Subcode == 33)
}

// InvalidCredential reports whether the access token itself was rejected
func (e *PlatformError) InvalidCredential() bool {
	return e != nil && e.Code == 190
}

// Flatten renders the nested platform error as a single line suitable for
// logs and client-facing messages
func (e *PlatformError) Flatten() string {
	if e == nil {
		return ""
	}

	parts := []string{fmt.Sprintf("code=%d", e.Code)}
	if e.Subcode != 0 {
		parts = append(parts, fmt.Sprintf("subcode=%d", e.Subcode))
	}
	if e.Type != "" {
		parts = append(parts, "type="+e.Type)
	}
	if e.Message != "" {
		parts = append(parts, "message="+quoteFragment(e.Message))
	}
	if e.UserTitle != "" {
		parts = append(parts, "user_title="+quoteFragment(e.UserTitle))
	}
	if e.UserMessage != "" {
		parts = append(parts, "user_msg="+quoteFragment(e.UserMessage))
	}
	if len(e.ErrorData) > 0 {
		var compact bytes.Buffer
		if err := json.Compact(&compact, e.ErrorData); err == nil {
			parts = append(parts, "error_data="+compact.String())
		}
	}
	if e.TraceID != "" {
		parts = append(parts, "trace="+e.TraceID)
	}

	return strings.Join(parts, " ")
}

// quoteFragment quotes a free-text fragment and collapses embedded
// newlines so the flattened form stays on one line
func quoteFragment(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", "")
	return fmt.Sprintf("%q", s)
}

// terminalError converts an exhausted or non-retryable platform failure
// into the domain error taxonomy
func terminalError(req *Request, status, attempts int, platformErr *PlatformError, body []byte) error {
	details := map[string]interface{}{
		"http_status": status,
		"attempts":    attempts,
		"path":        req.Path,
	}

	if platformErr == nil {
		msg := fmt.Sprintf("platform returned status %d for %s %s", status, req.Method, req.Path)
		if len(body) > 0 {
			msg = fmt.Sprintf("%s: %s", msg, truncateBody(body))
		}
		domainErr := services.NewDomainError(services.ErrorTypeExternal, services.CodeUpstreamError, msg, nil)
		domainErr.Details = details
		return domainErr
	}

	details["platform_code"] = platformErr.Code
	if platformErr.Subcode != 0 {
		details["platform_subcode"] = platformErr.Subcode
	}
	if platformErr.TraceID != "" {
		details["fbtrace_id"] = platformErr.TraceID
	}

	flat := platformErr.Flatten()

	var domainErr *services.DomainError
	switch {
	case platformErr.NotFound():
		domainErr = services.NewDomainError(services.ErrorTypeNotFound, services.CodeNotFound,
			fmt.Sprintf("platform object not found at %s: %s", req.Path, flat), nil)
	case platformErr.PermissionDenied():
		domainErr = services.NewDomainError(services.ErrorTypePermission, services.CodePermissionDenied,
			fmt.Sprintf("platform denied access to %s: %s", req.Path, flat), nil)
	case platformErr.InvalidCredential():
		domainErr = services.NewDomainError(services.ErrorTypeCredential, services.CodeCredentialMissing,
			fmt.Sprintf("platform rejected the access token for %s: %s", req.Path, flat), nil)
	case platformErr.Retryable():
		domainErr = services.NewDomainError(services.ErrorTypeRateLimit, services.CodePlatformThrottled,
			fmt.Sprintf("platform throttled %s %s after %d attempts: %s", req.Method, req.Path, attempts, flat), nil)
	default:
		domainErr = services.NewDomainError(services.ErrorTypeExternal, services.CodeUpstreamError,
			fmt.Sprintf("platform error on %s %s: %s", req.Method, req.Path, flat), nil)
	}

	domainErr.Details = details
	return domainErr
}

// truncateBody keeps non-JSON failure bodies loggable
func truncateBody(body []byte) string {
	const max = 256
	s := strings.TrimSpace(string(body))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}

// networkError wraps a transport-level failure once retries are exhausted
func networkError(req *Request, attempts int, err error) error {
	domainErr := services.NewDomainError(services.ErrorTypeExternal, services.CodeUpstreamError,
		fmt.Sprintf("platform unreachable for %s %s after %d attempts", req.Method, req.Path, attempts), err)
	domainErr.Details = map[string]interface{}{
		"attempts": attempts,
		"path":     req.Path,
	}
	return domainErr
}

// statusRetryable reports whether the HTTP status alone warrants a retry
func statusRetryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}
