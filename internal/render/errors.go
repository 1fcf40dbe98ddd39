package render

import (
	"fmt"
	"strings"
)

// RenderError reports a failure while producing one output file.
type RenderError struct {
	Op   string
	Path string
	Err  error
}

func (e *RenderError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("render: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("render: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// FieldError is one schema violation.
type FieldError struct {
	Field   string
	Message string
}

// SchemaError reports a site index that does not match its schema.
type SchemaError struct {
	Errors []FieldError
}

func (e *SchemaError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		msgs = append(msgs, fe.Field+": "+fe.Message)
	}
	return "site index does not match schema: " + strings.Join(msgs, "; ")
}
