// ABOUTME: Error taxonomy for publish failures, built on goliatone/go-errors.
// ABOUTME: Distinguishes config, format, remote rejection, and transport failures.
package apperr

import (
	"errors"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
)

// Text codes carried by every taxonomy error.
const (
	CodeConfig           = "CONFIG_ERROR"
	CodeFormat           = "FORMAT_ERROR"
	CodeRemoteRejection  = "REMOTE_REJECTION"
	CodeTransportFailure = "TRANSPORT_FAILURE"
)

// Sentinels wrapped by the constructors below.
var (
	ErrConfig    = errors.New("config error")
	ErrFormat    = errors.New("format error")
	ErrRejected  = errors.New("remote rejection")
	ErrTransport = errors.New("transport failure")
)

// Config reports missing or invalid instance settings or secrets.
func Config(format string, args ...any) error {
	return goerrors.Wrap(ErrConfig, goerrors.CategoryValidation, fmt.Sprintf(format, args...)).
		WithTextCode(CodeConfig)
}

// Format reports a note that does not have the required shape.
func Format(format string, args ...any) error {
	return goerrors.Wrap(ErrFormat, goerrors.CategoryValidation, fmt.Sprintf(format, args...)).
		WithTextCode(CodeFormat)
}

// RemoteRejection reports a non-2xx Admin API response, body included verbatim.
func RemoteRejection(status int, body string) error {
	return goerrors.Wrap(ErrRejected, goerrors.CategoryCommand, fmt.Sprintf("remote API returned %d: %s", status, body)).
		WithTextCode(CodeRemoteRejection)
}

// TransportFailure reports a request that never got a response.
func TransportFailure(err error) error {
	return goerrors.Wrap(ErrTransport, goerrors.CategoryCommand, fmt.Sprintf("remote API request failed: %v", err)).
		WithTextCode(CodeTransportFailure)
}

// Is reports whether err carries the given text code.
func Is(err error, code string) bool {
	var e *goerrors.Error
	if errors.As(err, &e) {
		return e.TextCode == code
	}
	return false
}
