package extract

import "errors"

var (
	// ErrEmptyInput: the caller handed us blank text; no network call is
	// attempted.
	ErrEmptyInput = errors.New("input text is empty")

	// ErrEngineUnavailable: the completion engine could not be reached.
	// Recoverable; the user should retry or check connectivity.
	ErrEngineUnavailable = errors.New("completion engine unavailable")

	// ErrExtractionTimeout: the engine took longer than the configured
	// timeout. Recoverable; retry is a caller concern.
	ErrExtractionTimeout = errors.New("extraction timed out")

	// ErrMalformedResponse: the engine responded but no parseable JSON
	// array could be found in its output.
	ErrMalformedResponse = errors.New("no action array found in engine response")

	// ErrNoActions: the response parsed but normalization yielded zero
	// usable actions.
	ErrNoActions = errors.New("no actions could be extracted")
)
