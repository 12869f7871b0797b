package core

import (
	"fmt"
	"strings"
)

// Violation is a single validation failure. Violations are data, never
// panics or control flow: validators accumulate every applicable rule's
// result so the caller can present all problems at once.
type Violation struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func violation(code, format string, args ...any) Violation {
	return Violation{Code: code, Message: fmt.Sprintf(format, args...)}
}

// ValidationError carries an accumulated violation list across a service
// boundary. It matches errors.Is(err, ErrValidation) so the HTTP layer can
// map it without knowing the concrete type.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.Code
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(msgs, ", "))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }
