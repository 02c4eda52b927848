package errors

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/yukikurage/learning-platform-api/internal/constants"
)

// Generic error codes. Domain codes (AUTH_001, WS_002, ...) are declared next
// to the service that raises them.
const (
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeInvalidInput       = "INVALID_INPUT"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeConflict           = "CONFLICT"
	ErrCodeInvalidState       = "INVALID_STATE"
	ErrCodeUpstreamFailure    = "UPSTREAM_FAILURE"
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	ErrCodeAccountLocked      = "AUTH_005"
)

// Kind classifies an error and decides its HTTP status.
type Kind string

const (
	KindAuthentication Kind = "authentication"
	KindAccountLocked  Kind = "account_locked"
	KindValidation     Kind = "validation"
	KindForbidden      Kind = "forbidden"
	KindNotFound       Kind = "not_found"
	KindConflict       Kind = "conflict"
	KindGone           Kind = "gone"
	KindInvalidState   Kind = "invalid_state"
	KindRateLimited    Kind = "rate_limited"
	KindUpstream       Kind = "upstream"
	KindUnavailable    Kind = "unavailable"
	KindInternal       Kind = "internal"
)

var kindStatus = map[Kind]int{
	KindAuthentication: http.StatusUnauthorized,
	KindAccountLocked:  http.StatusTooManyRequests,
	KindValidation:     http.StatusBadRequest,
	KindForbidden:      http.StatusForbidden,
	KindNotFound:       http.StatusNotFound,
	KindConflict:       http.StatusConflict,
	KindGone:           http.StatusGone,
	KindInvalidState:   http.StatusConflict,
	KindRateLimited:    http.StatusTooManyRequests,
	KindUpstream:       http.StatusBadGateway,
	KindUnavailable:    http.StatusServiceUnavailable,
	KindInternal:       http.StatusInternalServerError,
}

// Status returns the HTTP status code for a kind.
func (k Kind) Status() int {
	if s, ok := kindStatus[k]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// FieldError is one per-field validation message.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is the typed error every service returns for expected failures.
// Code is the stable contract with clients; Message is for humans.
type Error struct {
	Kind       Kind
	Code       string
	Message    string
	Fields     []FieldError
	RetryAfter int
	Details    map[string]interface{}

	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches on kind and code so that sentinel values compare equal to
// copies carrying extra details.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Code == e.Code
}

// WithCause returns a copy of e wrapping cause.
func (e *Error) WithCause(cause error) *Error {
	cp := *e
	cp.cause = cause
	return &cp
}

// WithDetails returns a copy of e with details merged in.
func (e *Error) WithDetails(details map[string]interface{}) *Error {
	cp := *e
	cp.Details = make(map[string]interface{}, len(e.Details)+len(details))
	for k, v := range e.Details {
		cp.Details[k] = v
	}
	for k, v := range details {
		cp.Details[k] = v
	}
	return &cp
}

func newError(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func NewAuthentication(code, message string) *Error {
	return newError(KindAuthentication, code, message)
}

// NewAccountLocked reports a locked account; retryAfter is in seconds.
func NewAccountLocked(retryAfter int) *Error {
	e := newError(KindAccountLocked, ErrCodeAccountLocked, "Account is temporarily locked")
	e.RetryAfter = retryAfter
	return e
}

func NewValidation(code, message string, fields ...FieldError) *Error {
	e := newError(KindValidation, code, message)
	e.Fields = fields
	return e
}

// NewForbidden builds a ForbiddenError whose code is the machine-readable reason.
func NewForbidden(reason, message string, requiredRoles ...string) *Error {
	e := newError(KindForbidden, reason, message)
	if len(requiredRoles) > 0 {
		e.Details = map[string]interface{}{"required_roles": requiredRoles}
	}
	return e
}

func NewNotFound(code, message string) *Error {
	return newError(KindNotFound, code, message)
}

func NewConflict(code, message string) *Error {
	return newError(KindConflict, code, message)
}

func NewGone(code, message string) *Error {
	return newError(KindGone, code, message)
}

func NewInvalidState(code, message string) *Error {
	return newError(KindInvalidState, code, message)
}

func NewRateLimited(code, message string, retryAfter int) *Error {
	e := newError(KindRateLimited, code, message)
	e.RetryAfter = retryAfter
	return e
}

// NewUpstream wraps a failure of an external collaborator.
func NewUpstream(message string, cause error) *Error {
	return newError(KindUpstream, ErrCodeUpstreamFailure, message).WithCause(cause)
}

func NewUnavailable(message string) *Error {
	return newError(KindUnavailable, ErrCodeServiceUnavailable, message)
}

// KindOf returns the kind of err, or KindInternal when err is untyped.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// CodeOf returns the stable code of err, or INTERNAL_ERROR when err is untyped.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrCodeInternalError
}

// APIError represents a standardized API error response
type APIError struct {
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Fields     []FieldError           `json:"fields,omitempty"`
	RetryAfter int                    `json:"retry_after,omitempty"`
	Details    map[string]interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// NewAPIError creates a new APIError
func NewAPIError(code, message string) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
	}
}

// RespondWithError sends an error response
func RespondWithError(c *gin.Context, statusCode int, err *APIError) {
	if err.RetryAfter > 0 {
		c.Header("Retry-After", strconv.Itoa(err.RetryAfter))
	}
	c.JSON(statusCode, err)
}

// Respond translates err into a response. Typed errors keep their code;
// anything else is logged in full and downgraded to INTERNAL_ERROR.
func Respond(c *gin.Context, err error) {
	var e *Error
	if !errors.As(err, &e) {
		loggerFrom(c).WithError(err).Error("unhandled error")
		InternalError(c, "")
		return
	}

	if e.Kind == KindUpstream || e.Kind == KindInternal {
		loggerFrom(c).WithError(err).WithField("code", e.Code).Error("request failed")
	}

	RespondWithError(c, e.Kind.Status(), &APIError{
		Code:       e.Code,
		Message:    e.Message,
		Fields:     e.Fields,
		RetryAfter: e.RetryAfter,
		Details:    e.Details,
	})
}

// FromBindingError converts a gin binding failure into a ValidationError.
func FromBindingError(err error) *Error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return NewValidation(ErrCodeInvalidInput, "Invalid request body")
	}

	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{
			Field:   fe.Field(),
			Message: fieldMessage(fe),
		})
	}
	return NewValidation(ErrCodeInvalidInput, "Invalid request body", fields...)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	default:
		return fmt.Sprintf("failed on %s", fe.Tag())
	}
}

func loggerFrom(c *gin.Context) logrus.FieldLogger {
	if v, ok := c.Get(constants.ContextKeyLogger); ok {
		if entry, ok := v.(*logrus.Entry); ok {
			return entry
		}
	}
	return logrus.StandardLogger()
}

// Helper functions for common error responses

// Unauthorized sends a 401 response
func Unauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "Authentication required"
	}
	RespondWithError(c, http.StatusUnauthorized, NewAPIError(ErrCodeUnauthorized, message))
}

// BadRequest sends a 400 response
func BadRequest(c *gin.Context, message string) {
	if message == "" {
		message = "Invalid request"
	}
	RespondWithError(c, http.StatusBadRequest, NewAPIError(ErrCodeInvalidInput, message))
}

// NotFound sends a 404 response
func NotFound(c *gin.Context, message string) {
	if message == "" {
		message = "Resource not found"
	}
	RespondWithError(c, http.StatusNotFound, NewAPIError(ErrCodeNotFound, message))
}

// InternalError sends a 500 response
func InternalError(c *gin.Context, message string) {
	if message == "" {
		message = "Internal server error"
	}
	RespondWithError(c, http.StatusInternalServerError, NewAPIError(ErrCodeInternalError, message))
}

// ServiceUnavailable sends a 503 response
func ServiceUnavailable(c *gin.Context, message string) {
	if message == "" {
		message = "Service temporarily unavailable"
	}
	RespondWithError(c, http.StatusServiceUnavailable, NewAPIError(ErrCodeServiceUnavailable, message))
}
