package connection

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/yndnr/staffdesk-go/internal/core/domain"
)

// TransportError is a failed API call: either no response at all (Cause
// set, StatusCode zero) or a non-2xx response.
type TransportError struct {
	Method     string
	URL        string
	StatusCode int
	Body       []byte
	// Authenticated is set when the request carried a bearer token.
	Authenticated bool
	Cause         error
}

func (e *TransportError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Cause)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}

// ResponseBody returns the raw error response so the message can be read
// from it.
func (e *TransportError) ResponseBody() []byte {
	return e.Body
}

// Unauthorized reports whether the backend answered 401.
func (e *TransportError) Unauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// Is matches domain.ErrTransport for every transport error and
// domain.ErrSessionExpired for a 401 on an authenticated request.
func (e *TransportError) Is(target error) bool {
	var de *domain.DomainError
	if !errors.As(target, &de) {
		return false
	}
	switch de.Code {
	case domain.ErrTransport.Code:
		return true
	case domain.ErrSessionExpired.Code:
		return e.Unauthorized() && e.Authenticated
	}
	return false
}

// StatusCode returns the HTTP status of err, or 0 when err is not a
// transport error with a response.
func StatusCode(err error) int {
	var te *TransportError
	if errors.As(err, &te) {
		return te.StatusCode
	}
	return 0
}
