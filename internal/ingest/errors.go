package ingest

import "errors"

// Kind classifies a pipeline failure. Caller-fixable kinds carry a specific,
// safe message; everything else is surfaced to callers as a single generic
// message and logged in full on the operator channel.
type Kind string

const (
	KindMissingAuth        Kind = "missing_auth"
	KindMissingParameters  Kind = "missing_parameters"
	KindPayloadTooLarge    Kind = "payload_too_large"
	KindEmptyInput         Kind = "empty_input"
	KindTooManyRows        Kind = "too_many_rows"
	KindExtractionService  Kind = "extraction_service_error"
	KindExtractionContract Kind = "extraction_contract_violation"
	KindConfiguration      Kind = "configuration_error"
	KindPersistence        Kind = "persistence_error"
	KindUnknown            Kind = "unknown_failure"
)

// Error is a classified pipeline failure. Message is safe to show to the
// caller only for caller-fixable kinds; Err holds the full internal cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func wrapError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the classification of err, or KindUnknown for anything that
// did not originate in this pipeline.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindUnknown
}

// CallerMessage returns the user-safe message for caller-fixable failures and
// ok=false for everything else.
func CallerMessage(err error) (string, bool) {
	var pe *Error
	if !errors.As(err, &pe) {
		return "", false
	}
	switch pe.Kind {
	case KindMissingParameters, KindPayloadTooLarge, KindEmptyInput, KindTooManyRows:
		return pe.Message, true
	}
	return "", false
}
