package memory

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Kind classifies what a record remembers.
type Kind string

const (
	// KindConversation is one conversational exchange (user turn plus
	// assistant reply).
	KindConversation Kind = "conversation"

	// KindSummary is a consolidated record produced by promotion. Summary
	// records carry SourceCount.
	KindSummary Kind = "summary"

	// KindHistoryQuery is an exchange in which the user asked about the
	// conversation history itself.
	KindHistoryQuery Kind = "history_query"
)

// Metadata describes a record. Recognized fields are typed; anything else a
// caller attaches rides along in Extra and survives persistence unchanged.
type Metadata struct {
	// Kind classifies the record. Empty is allowed for free-form memories.
	Kind Kind

	// Timestamp is set by the manager when the record is created.
	Timestamp time.Time

	// Importance ranks retrieval results (descending). Nil means 0.
	Importance *float64

	// SourceCount is the number of short-term records consolidated into a
	// summary. Set only on KindSummary records.
	SourceCount *int

	// Extra holds unrecognized metadata keys for forward compatibility.
	Extra map[string]any
}

// importance returns the ranking weight, defaulting to 0 when unset.
func (m Metadata) importance() float64 {
	if m.Importance == nil {
		return 0
	}
	return *m.Importance
}

// Metadata marshals as a single flat object so that unknown keys written by
// newer code round-trip through older readers.

func (m Metadata) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(m.Extra)+4)
	for k, v := range m.Extra {
		out[k] = v
	}
	if m.Kind != "" {
		out["type"] = string(m.Kind)
	}
	if !m.Timestamp.IsZero() {
		out["timestamp"] = m.Timestamp.Format(time.RFC3339Nano)
	}
	if m.Importance != nil {
		out["importance"] = *m.Importance
	}
	if m.SourceCount != nil {
		out["source_count"] = *m.SourceCount
	}
	return json.Marshal(out)
}

func (m *Metadata) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*m = Metadata{}
	for key, val := range raw {
		switch key {
		case "type":
			var s string
			if err := json.Unmarshal(val, &s); err != nil {
				return fmt.Errorf("metadata type: %w", err)
			}
			m.Kind = Kind(s)
		case "timestamp":
			var s string
			if err := json.Unmarshal(val, &s); err != nil {
				return fmt.Errorf("metadata timestamp: %w", err)
			}
			ts, err := time.Parse(time.RFC3339Nano, s)
			if err != nil {
				return fmt.Errorf("metadata timestamp: %w", err)
			}
			m.Timestamp = ts
		case "importance":
			var f float64
			if err := json.Unmarshal(val, &f); err != nil {
				return fmt.Errorf("metadata importance: %w", err)
			}
			m.Importance = &f
		case "source_count":
			var n int
			if err := json.Unmarshal(val, &n); err != nil {
				return fmt.Errorf("metadata source_count: %w", err)
			}
			m.SourceCount = &n
		default:
			var v any
			if err := json.Unmarshal(val, &v); err != nil {
				return fmt.Errorf("metadata %s: %w", key, err)
			}
			if m.Extra == nil {
				m.Extra = make(map[string]any)
			}
			m.Extra[key] = v
		}
	}
	return nil
}

// Record is one remembered experience: its text, its metadata, and the
// embedding it is indexed under. Embedding length is fixed at the manager's
// configured dimension for the record's whole lifetime.
type Record struct {
	ID         string    `json:"id"`
	Experience string    `json:"experience"`
	Metadata   Metadata  `json:"metadata"`
	Embedding  []float32 `json:"embedding"`
}

// NewRecord builds a record with a fresh ID.
func NewRecord(experience string, meta Metadata, embedding []float32) Record {
	return Record{
		ID:         uuid.New().String(),
		Experience: experience,
		Metadata:   meta,
		Embedding:  embedding,
	}
}
