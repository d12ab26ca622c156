package kubeclient

import (
	"errors"
	"fmt"
	"net/http"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// ErrorCode classifies every error returned by a Client.
type ErrorCode string

const (
	ErrorCodeNotFound         ErrorCode = "NotFound"
	ErrorCodeAlreadyExists    ErrorCode = "AlreadyExists"
	ErrorCodeConflict         ErrorCode = "Conflict"
	ErrorCodeInvalidated      ErrorCode = "Invalidated"
	ErrorCodeForbidden        ErrorCode = "Forbidden"
	ErrorCodeUnauthorized     ErrorCode = "Unauthorized"
	ErrorCodeInvalid          ErrorCode = "Invalid"
	ErrorCodeDecodeFailure    ErrorCode = "DecodeFailure"
	ErrorCodeTransportFailure ErrorCode = "TransportFailure"
	ErrorCodeInternal         ErrorCode = "Internal"
)

// DomainError is the typed outcome of a failed operation. Status holds
// the HTTP status code when the server answered, zero otherwise.
type DomainError struct {
	Code    ErrorCode
	Message string
	Status  int32
	Cause   error
}

func (e *DomainError) Error() string {
	if e.Message == "" && e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Cause
}

// statusReasonToCode maps Kubernetes StatusReason values to error codes.
// Reasons missing here fall back to codeForHTTPStatus.
var statusReasonToCode = map[metav1.StatusReason]ErrorCode{
	metav1.StatusReasonUnauthorized:       ErrorCodeUnauthorized,
	metav1.StatusReasonForbidden:          ErrorCodeForbidden,
	metav1.StatusReasonNotFound:           ErrorCodeNotFound,
	metav1.StatusReasonAlreadyExists:      ErrorCodeAlreadyExists,
	metav1.StatusReasonConflict:           ErrorCodeConflict,
	metav1.StatusReasonGone:               ErrorCodeInvalidated,
	metav1.StatusReasonExpired:            ErrorCodeInvalidated,
	metav1.StatusReasonInvalid:            ErrorCodeInvalid,
	metav1.StatusReasonBadRequest:         ErrorCodeInvalid,
	metav1.StatusReasonMethodNotAllowed:   ErrorCodeInvalid,
	metav1.StatusReasonNotAcceptable:      ErrorCodeInvalid,
	metav1.StatusReasonServerTimeout:      ErrorCodeTransportFailure,
	metav1.StatusReasonTimeout:            ErrorCodeTransportFailure,
	metav1.StatusReasonTooManyRequests:    ErrorCodeTransportFailure,
	metav1.StatusReasonServiceUnavailable: ErrorCodeTransportFailure,
	metav1.StatusReasonInternalError:      ErrorCodeTransportFailure,
}

func codeForHTTPStatus(code int32) ErrorCode {
	switch {
	case code == http.StatusGone:
		return ErrorCodeInvalidated
	case code == http.StatusUnauthorized:
		return ErrorCodeUnauthorized
	case code == http.StatusForbidden:
		return ErrorCodeForbidden
	case code == http.StatusNotFound:
		return ErrorCodeNotFound
	case code == http.StatusConflict:
		return ErrorCodeConflict
	case code == http.StatusTooManyRequests, code == http.StatusRequestTimeout, code >= 500:
		return ErrorCodeTransportFailure
	case code >= 400:
		return ErrorCodeInvalid
	default:
		return ErrorCodeInternal
	}
}

// WrapError converts a transport error into a *DomainError. Errors that
// are already domain errors are returned unchanged.
func WrapError(err error) error {
	if err == nil {
		return nil
	}

	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return err
	}

	var apiStatus apierrors.APIStatus
	if !errors.As(err, &apiStatus) {
		return &DomainError{Code: ErrorCodeTransportFailure, Message: err.Error(), Cause: err}
	}

	status := apiStatus.Status()
	code, ok := statusReasonToCode[status.Reason]
	if !ok {
		code = codeForHTTPStatus(status.Code)
	}

	return &DomainError{
		Code:    code,
		Message: status.Message,
		Status:  status.Code,
		Cause:   err,
	}
}

func decodeError(err error, format string, args ...any) error {
	return &DomainError{
		Code:    ErrorCodeDecodeFailure,
		Message: fmt.Sprintf(format, args...),
		Cause:   err,
	}
}

// CodeOf returns the ErrorCode carried by err, or "" if err is not a
// *DomainError.
func CodeOf(err error) ErrorCode {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return ""
}

func IsNotFound(err error) bool         { return CodeOf(err) == ErrorCodeNotFound }
func IsAlreadyExists(err error) bool    { return CodeOf(err) == ErrorCodeAlreadyExists }
func IsConflict(err error) bool         { return CodeOf(err) == ErrorCodeConflict }
func IsInvalidated(err error) bool      { return CodeOf(err) == ErrorCodeInvalidated }
func IsDecodeFailure(err error) bool    { return CodeOf(err) == ErrorCodeDecodeFailure }
func IsTransportFailure(err error) bool { return CodeOf(err) == ErrorCodeTransportFailure }

// IsTerminal reports whether a watch must stop on err: authentication and
// authorization failures and every other client-side rejection except
// Gone. Invalidated, decode and transport failures are not terminal.
func IsTerminal(err error) bool {
	switch CodeOf(err) {
	case ErrorCodeForbidden, ErrorCodeUnauthorized, ErrorCodeNotFound,
		ErrorCodeInvalid, ErrorCodeAlreadyExists, ErrorCodeConflict:
		return true
	default:
		return false
	}
}
