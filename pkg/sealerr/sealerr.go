// Package sealerr defines the error taxonomy shared by every layer of the
// client: crypto primitives fail with plain errors, but everything that
// crosses a protocol or transport boundary fails with one of the typed
// errors below so callers can branch on Code/Kind without string matching.
package sealerr

import "fmt"

// UserError codes. Caller fault, not retryable without changing the call.
const (
	CodeInvalidPackage                  = "InvalidPackage"
	CodeInvalidThreshold                = "InvalidThreshold"
	CodeInvalidCiphertext               = "InvalidCiphertext"
	CodeUnsupportedFeature              = "UnsupportedFeature"
	CodeUnsupportedNetwork              = "UnsupportedNetwork"
	CodeInvalidKeyServer                = "InvalidKeyServer"
	CodeInconsistentKeyServers          = "InconsistentKeyServers"
	CodeInvalidPersonalMessageSignature = "InvalidPersonalMessageSignature"
	CodeExpiredSessionKey               = "ExpiredSessionKey"
)

// UserError reports caller-side misuse of the API.
type UserError struct {
	Code   string
	Detail string
}

func (e *UserError) Error() string {
	if e.Detail == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Detail)
}

// NewUserError builds a UserError with the given code and detail.
func NewUserError(code, detail string) *UserError {
	return &UserError{Code: code, Detail: detail}
}

// ServerError codes, as returned by the key-server HTTP daemon.
const (
	CodeInvalidPTB              = "InvalidPTB"
	CodeServerInvalidPackage    = "InvalidPackage"
	CodeOldPackageVersion       = "OldPackageVersion"
	CodeInvalidSignature        = "InvalidSignature"
	CodeInvalidSessionSignature = "InvalidSessionSignature"
	CodeNoAccess                = "NoAccess"
	CodeInvalidCertificate      = "InvalidCertificate"
	CodeInternalError           = "InternalError"
	CodeGeneralError            = "GeneralError"
)

// ServerError wraps a failure reported by a key server, carrying enough
// context (RequestID, HTTPStatus) to correlate with server-side logs.
type ServerError struct {
	Code       string
	HTTPStatus int
	RequestID  string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error %s (status %d, request %s)", e.Code, e.HTTPStatus, e.RequestID)
}

// TransportKind classifies a failure that never reached the protocol layer.
type TransportKind int

const (
	TransportNetwork TransportKind = iota
	TransportTimeout
	TransportAborted
)

func (k TransportKind) String() string {
	switch k {
	case TransportNetwork:
		return "network"
	case TransportTimeout:
		return "timeout"
	case TransportAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// TransportError reports a failure below the protocol layer: the request
// never produced a parseable response. Aborted transport errors (cancelled
// because the threshold was already met) must never be folded into the
// error budget — see MajorityError.
type TransportError struct {
	Kind  TransportKind
	Cause error
}

func (e *TransportError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("transport error: %s", e.Kind)
	}
	return fmt.Sprintf("transport error: %s: %v", e.Kind, e.Cause)
}

func (e *TransportError) Unwrap() error { return e.Cause }

// InsufficientSharesError reports that fetchKeys() succeeded for fewer
// servers than the envelope's threshold requires.
type InsufficientSharesError struct {
	Have int
	Need int
}

func (e *InsufficientSharesError) Error() string {
	return fmt.Sprintf("insufficient shares: have %d, need %d", e.Have, e.Need)
}

// codeOf extracts a comparable "kind" for majority-voting purposes: the
// UserError/ServerError Code, the TransportError Kind, or the error's own
// message as a last resort.
func codeOf(err error) string {
	switch e := err.(type) {
	case *UserError:
		return "user:" + e.Code
	case *ServerError:
		return "server:" + e.Code
	case *TransportError:
		return "transport:" + e.Kind.String()
	default:
		return "other:" + err.Error()
	}
}

// MajorityError implements the §7 propagation policy: fetchKeys surfaces
// the error kind most frequently observed across tried servers, with ties
// broken by first occurrence. Aborted transport errors must be filtered
// out by the caller before invoking this - they never belong in the
// error budget.
func MajorityError(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	counts := make(map[string]int)
	first := make(map[string]error)
	order := make([]string, 0, len(errs))
	for _, err := range errs {
		if err == nil {
			continue
		}
		code := codeOf(err)
		if _, seen := first[code]; !seen {
			first[code] = err
			order = append(order, code)
		}
		counts[code]++
	}
	var best string
	bestCount := -1
	for _, code := range order {
		if counts[code] > bestCount {
			bestCount = counts[code]
			best = code
		}
	}
	if best == "" {
		return errs[0]
	}
	return first[best]
}
