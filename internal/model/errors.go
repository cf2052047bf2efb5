package model

import "fmt"

// SchemaError reports a structural problem in decoded election input, such as a
// missing required field or a negative vote count.
type SchemaError struct {
	Path string
	Msg  string
	Err  error
}

func (e *SchemaError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("schema: %s", e.Msg)
	}
	return fmt.Sprintf("schema: %s: %s", e.Path, e.Msg)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

// NewSchemaError builds a SchemaError for the given JSON path.
func NewSchemaError(path, msg string, err error) *SchemaError {
	return &SchemaError{Path: path, Msg: msg, Err: err}
}
