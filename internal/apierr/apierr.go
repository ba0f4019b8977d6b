// Package apierr carries the error taxonomy as typed errors,
// so the edge layer has one place to translate them to HTTP status codes
// instead of repeating http.Error literals in every handler (generalizing
// status literals scattered across every handler.
package apierr

import "fmt"

// Kind is one of the enumerated error kinds.
type Kind int

const (
	KindValidation Kind = iota
	KindNotConfigured
	KindNotFound
	KindAccessDenied
	KindStoreError
	KindInternal
)

// Error is a typed error carrying enough context for the edge to pick a
// status code and message without re-inspecting error strings.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Status maps the error kind to its HTTP status code.
func (e *Error) Status() int {
	switch e.Kind {
	case KindValidation:
		return 400
	case KindNotConfigured, KindNotFound:
		return 404
	case KindAccessDenied:
		return 403
	case KindStoreError, KindInternal:
		return 500
	default:
		return 500
	}
}

func Validation(field string) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf("invalid or missing field %q", field)}
}

func NotConfigured(appID, platform string) *Error {
	return &Error{Kind: KindNotConfigured, Message: fmt.Sprintf("not configured: app_id=%q platform=%q", appID, platform)}
}

func UserNotFound(account string) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("user not found: %q", account)}
}

func DeviceNotFound(account, appID, deviceID string) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("device not found: account=%q app_id=%q device_id=%q", account, appID, deviceID)}
}

func AccessDenied() *Error {
	return &Error{Kind: KindAccessDenied, Message: "access denied by access list"}
}

func Store(err error) *Error {
	return &Error{Kind: KindStoreError, Message: "token store error", Err: err}
}

func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}
