package service

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Sentinel errors for the failure classes callers branch on.
var (
	// ErrUnauthorized marks a 401 from the server. Whether to react (for
	// example by signing out) is the caller's decision, not the gateway's.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotAuthenticated marks an operation attempted with no resolved
	// identity.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrMissingCredential marks a successful auth response that carried no
	// token. Treated as a failure, never as success.
	ErrMissingCredential = errors.New("no token in response")
)

// RequestError is a non-success HTTP response from the server.
type RequestError struct {
	StatusCode int
	Message    string
}

func (e *RequestError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed: HTTP %d", e.StatusCode)
}

// Is reports ErrUnauthorized for 401 responses so callers can branch with
// errors.Is instead of inspecting status codes.
func (e *RequestError) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}

// ValidationError is a local pre-flight check failure. Nothing was sent to
// the server and no state was touched.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate runs struct tag validation on v and converts the first failure
// into a *ValidationError.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &ValidationError{Field: strings.ToLower(fe.Field()), Reason: reasonFor(fe)}
	}
	return err
}

func reasonFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "email":
		return "must be a valid email address"
	case "max":
		return "must be " + fe.Param() + " characters or less"
	case "min":
		return "cannot be empty"
	default:
		return fe.Tag()
	}
}
