package apiclient

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorKind is the closed set of categories a failed call is classified into.
type ErrorKind string

const (
	KindNetwork             ErrorKind = "NETWORK_ERROR"
	KindUnauthorized        ErrorKind = "UNAUTHORIZED"
	KindPermission          ErrorKind = "PERMISSION_ERROR"
	KindBusiness            ErrorKind = "BUSINESS_ERROR"
	KindInsufficientBalance ErrorKind = "INSUFFICIENT_BALANCE"
	KindNotFound            ErrorKind = "NOT_FOUND"
	KindServiceUnavailable  ErrorKind = "SERVICE_UNAVAILABLE"
	KindServiceTimeout      ErrorKind = "SERVICE_TIMEOUT"
	KindServer              ErrorKind = "SERVER_ERROR"
	KindUnknown             ErrorKind = "UNKNOWN_ERROR"
)

var allKinds = []ErrorKind{
	KindNetwork,
	KindUnauthorized,
	KindPermission,
	KindBusiness,
	KindInsufficientBalance,
	KindNotFound,
	KindServiceUnavailable,
	KindServiceTimeout,
	KindServer,
	KindUnknown,
}

// Kinds returns every ErrorKind.
func Kinds() []ErrorKind {
	out := make([]ErrorKind, len(allKinds))
	copy(out, allKinds)
	return out
}

// ParseErrorKind resolves a case-insensitive kind name.
func ParseErrorKind(s string) (ErrorKind, error) {
	want := ErrorKind(strings.ToUpper(strings.TrimSpace(s)))
	for _, k := range allKinds {
		if k == want {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown error kind %q", s)
}

func (k ErrorKind) String() string { return string(k) }

// ClassifiedError is returned for every failed call made through Client.
type ClassifiedError struct {
	Kind       ErrorKind `json:"type"`
	Message    string    `json:"message"`
	StatusCode int       `json:"status,omitempty"`
	Method     string    `json:"method,omitempty"`
	URL        string    `json:"url,omitempty"`
	Original   error     `json:"-"`
}

func (e *ClassifiedError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *ClassifiedError) Unwrap() error { return e.Original }

// HTTPError is the original error recorded for responses with a failing status.
type HTTPError struct {
	StatusCode int
	Body       []byte
	Header     http.Header
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http response status %d", e.StatusCode)
}

// AsClassified extracts a ClassifiedError from err's chain.
func AsClassified(err error) (*ClassifiedError, bool) {
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// IsKind reports whether err carries a ClassifiedError of kind k.
func IsKind(err error, k ErrorKind) bool {
	ce, ok := AsClassified(err)
	return ok && ce.Kind == k
}
