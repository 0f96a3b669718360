package resolve

import "fmt"

// Kind classifies a validation failure. Each kind is itself an error, so
// callers can test for it with errors.Is.
type Kind string

func (k Kind) Error() string { return string(k) }

const (
	InvalidName          Kind = "invalid name"
	InvalidPort          Kind = "invalid port"
	MissingRequiredField Kind = "missing required field"
	InvalidField         Kind = "invalid field"
)

// ValidationError reports a deployment description problem with a suggested fix.
type ValidationError struct {
	Kind       Kind
	Field      string // dotted path, e.g. "services[0].ports[1].host"
	Message    string // what's wrong
	Suggestion string // how to fix it
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Field, e.Kind, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Kind
}

func fail(kind Kind, field, format string, args ...any) *ValidationError {
	return &ValidationError{Kind: kind, Field: field, Message: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) hint(s string) *ValidationError {
	e.Suggestion = s
	return e
}

// Within prefixes the field path with the location of the enclosing entry.
func (e *ValidationError) Within(prefix string) *ValidationError {
	if e.Field == "" {
		e.Field = prefix
	} else {
		e.Field = prefix + "." + e.Field
	}
	return e
}
