package memory

import (
	"errors"
	"fmt"
)

// ErrCollaboratorTimeout reports that an embedding or summarization call did
// not complete within Config.CollaboratorTimeout. It is wrapped in the
// corresponding *EmbedError or *SummarizeError.
var ErrCollaboratorTimeout = errors.New("memory: collaborator call timed out")

// ErrStateNotFound is returned (wrapped) by StateStore.Load when no persisted
// state exists for the agent. It is not a failure: a manager constructed
// without prior state simply starts with two empty tiers.
var ErrStateNotFound = errors.New("memory: no persisted state")

// EmbedError wraps a failure from the embedding collaborator.
type EmbedError struct {
	Err error
}

func (e *EmbedError) Error() string {
	return fmt.Sprintf("memory: embedding collaborator: %v", e.Err)
}

func (e *EmbedError) Unwrap() error { return e.Err }

// SummarizeError wraps a failure from the summarization collaborator.
type SummarizeError struct {
	Err error
}

func (e *SummarizeError) Error() string {
	return fmt.Sprintf("memory: summarization collaborator: %v", e.Err)
}

func (e *SummarizeError) Unwrap() error { return e.Err }

// CorruptStateError reports persisted state that exists but cannot be
// decoded. The manager recovers from it by starting with empty tiers; the
// corrupt file is left on disk for inspection.
type CorruptStateError struct {
	Path string
	Err  error
}

func (e *CorruptStateError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("memory: corrupt persisted state: %v", e.Err)
	}
	return fmt.Sprintf("memory: corrupt persisted state at %s: %v", e.Path, e.Err)
}

func (e *CorruptStateError) Unwrap() error { return e.Err }
