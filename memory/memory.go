package memory

import (
	"context"
	"time"
)

// Embedder converts text to a fixed-length vector for similarity search.
// Implementations: MockEmbedder (testing), ONNXEmbedder (local), OpenAI
// embedder (API-based). The vector length must equal Dimensions() for every
// call; the manager's tier indices are built at that dimension and changing
// the embedding model requires rebuilding them from scratch.
type Embedder interface {
	// Embed converts a single text to an embedding vector.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the embedding vector size.
	Dimensions() int
}

// Summarizer condenses an ordered sequence of experiences into one text.
// The manager calls it during promotion with every short-term experience in
// insertion order.
type Summarizer interface {
	Summarize(ctx context.Context, texts []string) (string, error)
}

// Event is one observability record emitted by the manager. Events are
// fire-and-forget: no memory operation depends on a sink for correctness.
type Event struct {
	Time    time.Time
	AgentID string
	Kind    string
	Payload map[string]any
}

// Event kinds emitted by the Manager.
const (
	EventMemoryAdded    = "memory_added"
	EventMemoryPromoted = "memory_promoted"
	EventRetrieval      = "memory_retrieval"
	EventStateFallback  = "state_fallback"
)

// EventSink receives manager activity events. It is injected at construction
// rather than looked up through ambient state; the logging or UI collaborator
// implements it. A sink must not block for long and may not fail: panics are
// swallowed by the manager.
type EventSink interface {
	OnEvent(Event)
}

// NopSink discards all events. It is the default sink.
type NopSink struct{}

func (NopSink) OnEvent(Event) {}

// State is the full persisted representation of a manager: both tiers'
// records plus each tier's serialized index. A manager reconstructed from a
// State answers retrievals identically to the manager that saved it.
type State struct {
	ShortTerm  []Record `json:"short_term"`
	LongTerm   []Record `json:"long_term"`
	ShortIndex []byte   `json:"short_index"`
	LongIndex  []byte   `json:"long_index"`
}

// StateStore persists manager state across restarts, keyed by agent identity.
// Implementations: persist.FileStore (one JSON file per agent).
type StateStore interface {
	// Save durably replaces the stored state for agentID. Implementations
	// must replace atomically: a failed save leaves any prior state intact.
	Save(agentID string, st *State) error

	// Load returns the stored state for agentID. It returns an error
	// wrapping ErrStateNotFound when no state exists, and a
	// *CorruptStateError when state exists but cannot be decoded.
	Load(agentID string) (*State, error)
}
