package qa

import "fmt"

// ErrorKind classifies answering failures.
type ErrorKind string

const (
	KindContextTooLarge        ErrorKind = "context_too_large"
	KindModelTransportFailure  ErrorKind = "model_transport_failure"
	KindMalformedModelResponse ErrorKind = "malformed_model_response"
)

// AnsweringError is the single terminal error for a failed turn.
type AnsweringError struct {
	Kind ErrorKind
	Err  error
}

func (e *AnsweringError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("answering failed (%s): %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("answering failed (%s)", e.Kind)
}

func (e *AnsweringError) Unwrap() error { return e.Err }
