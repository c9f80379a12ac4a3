package services

import (
	"errors"
	"fmt"
)

// ErrorType represents the type/category of error
type ErrorType string

const (
	ErrorTypeNotFound        ErrorType = "not_found"
	ErrorTypeValidation      ErrorType = "validation"
	ErrorTypeUnauthorized    ErrorType = "unauthorized"
	ErrorTypeForbidden       ErrorType = "forbidden"
	ErrorTypeCredential      ErrorType = "credential"
	ErrorTypeIsolation       ErrorType = "isolation"
	ErrorTypeRateLimit       ErrorType = "rate_limit"
	ErrorTypePolicyViolation ErrorType = "policy_violation"
	ErrorTypeCompliance      ErrorType = "compliance"
	ErrorTypePermission      ErrorType = "permission"
	ErrorTypePageResolution  ErrorType = "page_resolution"
	ErrorTypeCooldown        ErrorType = "cooldown"
	ErrorTypeConflict        ErrorType = "conflict"
	ErrorTypeInternal        ErrorType = "internal"
	ErrorTypeExternal        ErrorType = "external"
)

// Machine-readable error codes. The code is carried separately from the
// message but also appears verbatim inside it, so callers may either
// inspect the field or string-match.
const (
	CodeNotFound            = "NOT_FOUND"
	CodeValidation          = "VALIDATION_FAILED"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeForbidden           = "FORBIDDEN"
	CodeCredentialMissing   = "CREDENTIAL_MISSING"
	CodeTenantIsolation     = "TENANT_ISOLATION"
	CodeMutationRateLimit   = "MUTATION_RATE_LIMIT"
	CodePlatformThrottled   = "PLATFORM_THROTTLED"
	CodePolicyViolation     = "POLICY_VIOLATION"
	CodeComplianceRequired  = "COMPLIANCE_REQUIRED"
	CodePermissionDenied    = "PERMISSION_DENIED"
	CodeDefaultPageRequired = "DEFAULT_PAGE_REQUIRED"
	CodeAccountCooldown     = "ACCOUNT_COOLDOWN"
	CodeConflict            = "CONFLICT"
	CodeInternal            = "INTERNAL"
	CodeUpstreamError       = "UPSTREAM_ERROR"
)

// DomainError represents a structured error with additional context
type DomainError struct {
	Type        ErrorType
	Code        string
	Message     string
	Err         error
	Details     map[string]interface{}
	Remediation []string
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (%v)", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap implements errors.Unwrap
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type && (t.Code == "" || e.Code == t.Code)
}

// WithDetail adds a detail to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithRemediation attaches ordered operator remediation steps
func (e *DomainError) WithRemediation(steps ...string) *DomainError {
	e.Remediation = steps
	return e
}

// NewDomainError creates a new domain error. The code is prefixed onto the
// message so it survives plain string propagation.
func NewDomainError(errType ErrorType, code, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Code:    code,
		Message: fmt.Sprintf("%s: %s", code, message),
		Err:     err,
		Details: make(map[string]interface{}),
	}
}

// Domain error variables

var (
	// Not Found Errors
	ErrTenantNotFound        = NewDomainError(ErrorTypeNotFound, CodeNotFound, "tenant not found", nil)
	ErrAccountNotFound       = NewDomainError(ErrorTypeNotFound, CodeNotFound, "ad account not found", nil)
	ErrCampaignNotFound      = NewDomainError(ErrorTypeNotFound, CodeNotFound, "campaign not found", nil)
	ErrAdSetNotFound         = NewDomainError(ErrorTypeNotFound, CodeNotFound, "ad set not found", nil)
	ErrAdNotFound            = NewDomainError(ErrorTypeNotFound, CodeNotFound, "ad not found", nil)
	ErrPageNotFound          = NewDomainError(ErrorTypeNotFound, CodeNotFound, "page not found", nil)
	ErrDsaSettingsNotFound   = NewDomainError(ErrorTypeNotFound, CodeNotFound, "disclosure settings not found", nil)
	ErrPageSelectionNotFound = NewDomainError(ErrorTypeNotFound, CodeNotFound, "page selection not found", nil)
	ErrAssetNotFound         = NewDomainError(ErrorTypeNotFound, CodeNotFound, "asset not found", nil)

	// Validation Errors
	ErrInvalidInput        = NewDomainError(ErrorTypeValidation, CodeValidation, "invalid input", nil)
	ErrInvalidStatusFilter = NewDomainError(ErrorTypeValidation, CodeValidation, "invalid status filter", nil)
	ErrInvalidDatePreset   = NewDomainError(ErrorTypeValidation, CodeValidation, "invalid date preset", nil)
	ErrInvalidBudget       = NewDomainError(ErrorTypeValidation, CodeValidation, "invalid budget value", nil)
	ErrInvalidResourceKind = NewDomainError(ErrorTypeValidation, CodeValidation, "invalid resource kind", nil)

	// Authorization Errors
	ErrUnauthorized = NewDomainError(ErrorTypeUnauthorized, CodeUnauthorized, "unauthorized", nil)
	ErrInvalidToken = NewDomainError(ErrorTypeUnauthorized, CodeUnauthorized, "invalid authentication token", nil)
	ErrTokenExpired = NewDomainError(ErrorTypeUnauthorized, CodeUnauthorized, "authentication token expired", nil)

	// Permission Errors
	ErrForbidden        = NewDomainError(ErrorTypeForbidden, CodeForbidden, "access forbidden", nil)
	ErrPermissionDenied = NewDomainError(ErrorTypePermission, CodePermissionDenied, "platform permission denied", nil)

	// Credential Configuration Errors
	ErrCredentialMissing = NewDomainError(ErrorTypeCredential, CodeCredentialMissing, "no platform credential configured for tenant", nil)

	// Isolation Errors
	ErrTenantIsolation = NewDomainError(ErrorTypeIsolation, CodeTenantIsolation, "resource belongs to another tenant", nil)

	// Policy Errors
	ErrMutationRateExceeded   = NewDomainError(ErrorTypeRateLimit, CodeMutationRateLimit, "hourly mutation limit exceeded", nil)
	ErrPolicyViolation        = NewDomainError(ErrorTypePolicyViolation, CodePolicyViolation, "mutation rejected by policy", nil)
	ErrExplicitBudgetRequired = NewDomainError(ErrorTypePolicyViolation, CodePolicyViolation, "operation requires an explicit budget", nil)

	// Compliance Errors
	ErrComplianceRequired = NewDomainError(ErrorTypeCompliance, CodeComplianceRequired, "EU disclosure settings required", nil)

	// Page Resolution Errors
	ErrDefaultPageRequired = NewDomainError(ErrorTypePageResolution, CodeDefaultPageRequired, "default page required", nil)

	// Cooldown Errors
	ErrAccountCooldown = NewDomainError(ErrorTypeCooldown, CodeAccountCooldown, "ad account is in rate-limit cooldown", nil)

	// Conflict Errors
	ErrDuplicateTenant  = NewDomainError(ErrorTypeConflict, CodeConflict, "tenant already exists", nil)
	ErrConcurrentUpdate = NewDomainError(ErrorTypeConflict, CodeConflict, "concurrent update detected", nil)

	// Internal Errors
	ErrInternal          = NewDomainError(ErrorTypeInternal, CodeInternal, "internal server error", nil)
	ErrDatabaseError     = NewDomainError(ErrorTypeInternal, CodeInternal, "database error", nil)
	ErrTransactionFailed = NewDomainError(ErrorTypeInternal, CodeInternal, "transaction failed", nil)

	// External Platform Errors
	ErrPlatformUnavailable = NewDomainError(ErrorTypeExternal, CodeUpstreamError, "advertising platform unavailable", nil)
	ErrPlatformTimeout     = NewDomainError(ErrorTypeExternal, CodeUpstreamError, "advertising platform timeout", nil)
	ErrPlatformError       = NewDomainError(ErrorTypeExternal, CodeUpstreamError, "advertising platform error", nil)
)

// Error type checking helper functions

// IsNotFoundError checks if an error is a not found error
func IsNotFoundError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeNotFound
	}
	return false
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeValidation
	}
	return false
}

// IsUnauthorizedError checks if an error is an unauthorized error
func IsUnauthorizedError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeUnauthorized
	}
	return false
}

// IsForbiddenError checks if an error is a forbidden error
func IsForbiddenError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeForbidden
	}
	return false
}

// IsCredentialError checks if an error is a credential configuration error
func IsCredentialError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeCredential
	}
	return false
}

// IsIsolationError checks if an error is a tenant isolation error
func IsIsolationError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeIsolation
	}
	return false
}

// IsRateLimitError checks if an error is a mutation rate limit error
func IsRateLimitError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeRateLimit
	}
	return false
}

// IsPolicyViolationError checks if an error is a policy violation error
func IsPolicyViolationError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypePolicyViolation
	}
	return false
}

// IsComplianceError checks if an error is a compliance error
func IsComplianceError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeCompliance
	}
	return false
}

// IsPermissionError checks if an error is a platform permission error.
// Distinct from a compliance error: it means the metadata lookup failed,
// not that disclosure settings are missing.
func IsPermissionError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypePermission
	}
	return false
}

// IsPageResolutionError checks if an error is a page resolution error
func IsPageResolutionError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypePageResolution
	}
	return false
}

// IsCooldownError checks if an error is an account cooldown error
func IsCooldownError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeCooldown
	}
	return false
}

// IsConflictError checks if an error is a conflict error
func IsConflictError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeConflict
	}
	return false
}

// IsInternalError checks if an error is an internal error
func IsInternalError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeInternal
	}
	return false
}

// IsExternalError checks if an error is an external platform error
func IsExternalError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeExternal
	}
	return false
}

// GetErrorType returns the ErrorType of a domain error, or empty string if not a domain error
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ""
}

// GetErrorCode returns the machine-readable code of a domain error, or empty string
func GetErrorCode(err error) string {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return ""
}

// GetErrorDetails returns the details map of a domain error, or nil if not a domain error
func GetErrorDetails(err error) map[string]interface{} {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Details
	}
	return nil
}

// GetRemediation returns the remediation steps of a domain error, or nil
func GetRemediation(err error) []string {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Remediation
	}
	return nil
}

// WrapError wraps an error with additional context
func WrapError(errType ErrorType, code, message string, err error) error {
	return NewDomainError(errType, code, message, err)
}

// WrapInternal wraps an error as an internal error
func WrapInternal(message string, err error) error {
	return NewDomainError(ErrorTypeInternal, CodeInternal, message, err)
}

// WrapExternal wraps an error as an external platform error
func WrapExternal(message string, err error) error {
	return NewDomainError(ErrorTypeExternal, CodeUpstreamError, message, err)
}
