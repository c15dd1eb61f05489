package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/yndnr/staffdesk-go/internal/core/domain"
)

// API is the request pipeline as seen by the services. Paths are
// relative to the API root.
type API interface {
	Get(ctx context.Context, path string) ([]byte, error)
	Post(ctx context.Context, path string, body any) ([]byte, error)
	Put(ctx context.Context, path string, body any) ([]byte, error)
	Patch(ctx context.Context, path string, body any) ([]byte, error)
	Delete(ctx context.Context, path string) ([]byte, error)
}

// Hooks are the callbacks the pipeline needs from the session manager.
type Hooks struct {
	// Token returns the current bearer token, empty when logged out.
	Token func() string
	// OnUnauthorized is called on every 401 response.
	OnUnauthorized func()
}

// ClientFactory builds the API client once the hooks are known.
type ClientFactory func(Hooks) API

var validate = validator.New(validator.WithRequiredStructEnabled())

// validatePayload checks v against its validate tags.
func validatePayload(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return domain.ErrValidation.WithCause(err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describeFieldError(fe))
	}
	return domain.ErrValidation.WithDetails(strings.Join(msgs, "; "))
}

func describeFieldError(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "fqdn":
		return fmt.Sprintf("%s must be a domain name", field)
	case "gtefield":
		return fmt.Sprintf("%s must not be before %s", field, fe.Param())
	case "nefield":
		return fmt.Sprintf("%s must differ from %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", field, fe.Tag())
	}
}

// requireID rejects empty identifiers before they turn into a path.
func requireID(kind, id string) error {
	if strings.TrimSpace(id) == "" {
		return domain.ErrMissingArgument.WithDetails(kind + " id is required")
	}
	if id == "." || id == ".." {
		return domain.ErrValidation.WithDetails("invalid " + kind + " id " + id)
	}
	return nil
}

// idPath returns collection/<id> with id escaped as a single path segment.
func idPath(collection, id string) string {
	return collection + "/" + url.PathEscape(id)
}

// withQuery appends non-empty query parameters to path.
func withQuery(path string, params map[string]string) string {
	q := url.Values{}
	for k, v := range params {
		if v != "" {
			q.Set(k, v)
		}
	}
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}
