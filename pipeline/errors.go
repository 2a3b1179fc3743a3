package pipeline

import (
	"errors"
	"fmt"
)

type Kind string

const (
	KindInvalidInput       Kind = "invalid_input"
	KindSessionUnavailable Kind = "session_unavailable"
	// KindNavigationFailed means the search results page itself could not be loaded.
	KindNavigationFailed Kind = "navigation_failed"
	// KindFetchFailed is returned by FetchURL when its only page fails.
	KindFetchFailed Kind = "fetch_failed"
)

// PipelineError aborts a whole invocation. Per-result failures never
// produce one; they are reported inline.
type PipelineError struct {
	Kind Kind
	Err  error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the PipelineError in err's chain, or "".
func KindOf(err error) Kind {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}
