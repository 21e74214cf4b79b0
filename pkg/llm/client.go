// Package llm is the structured-output adapter (C4): one call shape in
// front of interchangeable providers, with strict completed/incomplete/
// refused handling so a caller can never mistake a partial answer for a
// finished one (spec §4.4, P8).
package llm

import (
	"context"
	"encoding/json"
	"fmt"
)

// CompletionStatus is the closed set of states a structured call can end
// in. Only Completed carries data a caller may use.
type CompletionStatus string

const (
	Completed  CompletionStatus = "completed"
	Incomplete CompletionStatus = "incomplete"
	Refused    CompletionStatus = "refused"
)

// CallRequest is the one shape every provider backend accepts. Schema is
// the JSON Schema (already a compiled Draft2020 document's source text)
// the response must conform to; providers that support native structured
// output pass it through as a tool/response-format constraint, providers
// that don't must still have the caller validate the result against it.
type CallRequest struct {
	Model        string
	SystemPrompt string
	UserContent  string
	SchemaName   string
	Schema       json.RawMessage
}

// StructuredClient is the one interface every analyzer and correlator
// call site depends on. Temperature is always 0 (determinism per §4.4);
// no SamplingOptions is exposed because nothing in this system wants one.
type StructuredClient interface {
	CallStructured(ctx context.Context, req CallRequest) (json.RawMessage, CompletionStatus, error)
}

// IncompleteError is returned (never silently swallowed) when the
// underlying provider truncated its response before satisfying the schema.
type IncompleteError struct {
	Model  string
	Reason string
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("llm: %s returned incomplete response: %s", e.Model, e.Reason)
}

// RefusedError is returned when the provider declined to answer (safety
// refusal, policy block, or similar). Like IncompleteError, the caller
// must raise, per P8 — there is no default payload to fall back to.
type RefusedError struct {
	Model  string
	Reason string
}

func (e *RefusedError) Error() string {
	return fmt.Sprintf("llm: %s refused: %s", e.Model, e.Reason)
}

// TransientError marks a failure worth retrying (rate limit, 5xx, network
// timeout). Anything else is treated as permanent by the retry wrapper.
type TransientError struct {
	Err        error
	RetryAfter *int // seconds, if the provider told us
}

func (e *TransientError) Error() string { return fmt.Sprintf("llm: transient: %v", e.Err) }
func (e *TransientError) Unwrap() error { return e.Err }

// classify wraps a provider's raw result into the three-state contract. A
// provider backend calls this once at the end of its CallStructured method instead
// of returning ad hoc errors, so every backend enforces §4.4 the same way.
func classify(model string, status CompletionStatus, reason string, payload json.RawMessage) (json.RawMessage, CompletionStatus, error) {
	switch status {
	case Completed:
		return payload, Completed, nil
	case Incomplete:
		return nil, Incomplete, &IncompleteError{Model: model, Reason: reason}
	case Refused:
		return nil, Refused, &RefusedError{Model: model, Reason: reason}
	default:
		return nil, Incomplete, &IncompleteError{Model: model, Reason: fmt.Sprintf("unrecognized status %q", status)}
	}
}
