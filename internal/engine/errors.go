package engine

// ValidationError reports a missing or malformed request parameter. It is
// returned before the source is touched.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(msg string) error {
	return &ValidationError{Message: msg}
}
