package extract

import "fmt"

// MissingFieldError reports a required Dublin Core field that is absent
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field %q", e.Field)
}

// MalformedDateError reports a date list that does not yield a year
type MalformedDateError struct {
	Value string
	Err   error
}

func (e *MalformedDateError) Error() string {
	if e.Err == nil {
		return "malformed date: no date values"
	}
	return fmt.Sprintf("malformed date %q: %v", e.Value, e.Err)
}

func (e *MalformedDateError) Unwrap() error {
	return e.Err
}
