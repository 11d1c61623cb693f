package memory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Config holds Manager configuration.
type Config struct {
	// Dimensions is the embedding vector size shared by both tier indices.
	// Defaults to the embedder's Dimensions().
	Dimensions int

	// PromotionThreshold is the short-term size at which accumulated
	// records are summarized into one long-term record. Default: 5.
	PromotionThreshold int

	// DefaultK is the result count used when Retrieve is called with
	// k <= 0. Default: 5.
	DefaultK int

	// CollaboratorTimeout bounds each embedding and summarization call.
	// Zero disables the bound. Default: 30s.
	CollaboratorTimeout time.Duration
}

// DefaultConfig returns sensible defaults.
var DefaultConfig = Config{
	PromotionThreshold:  5,
	DefaultK:            5,
	CollaboratorTimeout: 30 * time.Second,
}

// Option configures the manager.
type Option func(*Manager)

// WithStore sets the persistence backend. Without a store the manager keeps
// state in memory only.
func WithStore(s StateStore) Option {
	return func(m *Manager) {
		m.store = s
	}
}

// WithSink sets the activity event sink.
func WithSink(s EventSink) Option {
	return func(m *Manager) {
		m.sink = s
	}
}

// WithConfig replaces the default configuration.
func WithConfig(cfg Config) Option {
	return func(m *Manager) {
		m.cfg = cfg
	}
}

// Manager owns one short-term and one long-term tier for a single agent
// identity. New experiences land in the short-term tier; once it reaches the
// promotion threshold its records are summarized into a single long-term
// record and the short-term tier is cleared. Every successful Add is
// persisted before it returns.
//
// A manager is safe for concurrent use: Add serializes behind a write lock
// so the records/index correspondence can never be observed torn, and
// Retrieve runs under a read lock so reads may overlap each other.
type Manager struct {
	agentID    string
	cfg        Config
	embedder   Embedder
	summarizer Summarizer
	store      StateStore
	sink       EventSink

	mu        sync.RWMutex
	shortTerm *Tier
	longTerm  *Tier
}

// NewManager creates a manager for the given agent identity. When a store is
// configured, prior persisted state is loaded; missing state starts the
// manager empty, and corrupt state falls back to empty tiers (emitting a
// state_fallback event) rather than blocking startup — the corrupt file is
// left in place.
func NewManager(agentID string, embedder Embedder, summarizer Summarizer, opts ...Option) (*Manager, error) {
	if agentID == "" {
		return nil, fmt.Errorf("memory: agent id is required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("memory: embedder is required")
	}
	if summarizer == nil {
		return nil, fmt.Errorf("memory: summarizer is required")
	}

	m := &Manager{
		agentID:    agentID,
		cfg:        DefaultConfig,
		embedder:   embedder,
		summarizer: summarizer,
		sink:       NopSink{},
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.cfg.Dimensions <= 0 {
		m.cfg.Dimensions = embedder.Dimensions()
	}
	if m.cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("memory: embedding dimension must be positive, got %d", m.cfg.Dimensions)
	}
	if m.cfg.PromotionThreshold <= 0 {
		m.cfg.PromotionThreshold = DefaultConfig.PromotionThreshold
	}
	if m.cfg.DefaultK <= 0 {
		m.cfg.DefaultK = DefaultConfig.DefaultK
	}

	var err error
	if m.shortTerm, err = NewTier(m.cfg.Dimensions); err != nil {
		return nil, err
	}
	if m.longTerm, err = NewTier(m.cfg.Dimensions); err != nil {
		return nil, err
	}

	if m.store != nil {
		if err := m.loadState(); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// loadState restores tiers from the store. The fallback decision is made
// here, visibly: NotFound means a fresh start, anything undecodable means
// fresh tiers plus a state_fallback event.
func (m *Manager) loadState() error {
	st, err := m.store.Load(m.agentID)
	if err != nil {
		if errors.Is(err, ErrStateNotFound) {
			return nil
		}
		m.emit(EventStateFallback, map[string]any{"error": err.Error()})
		return nil
	}

	short, err := restoreTier(m.cfg.Dimensions, st.ShortTerm, st.ShortIndex)
	if err != nil {
		m.emit(EventStateFallback, map[string]any{"error": err.Error()})
		return nil
	}
	long, err := restoreTier(m.cfg.Dimensions, st.LongTerm, st.LongIndex)
	if err != nil {
		m.emit(EventStateFallback, map[string]any{"error": err.Error()})
		return nil
	}

	m.shortTerm = short
	m.longTerm = long
	return nil
}

// AgentID returns the identity this manager is scoped to.
func (m *Manager) AgentID() string {
	return m.agentID
}

// Add embeds an experience, appends it to the short-term tier, promotes when
// the tier reaches the threshold, and persists the full state.
//
// A failed embedding or a dimension mismatch leaves the store untouched. A
// failed persistence write is returned while the in-memory state stays
// correct and usable. A failed promotion leaves the short-term records in
// place (they keep accumulating), is returned to the caller, and does not
// prevent the appended record from being persisted.
func (m *Manager) Add(ctx context.Context, experience string, meta *Metadata) error {
	embedding, err := m.embed(ctx, experience)
	if err != nil {
		return err
	}

	md := Metadata{}
	if meta != nil {
		md = *meta
	}
	md.Timestamp = time.Now()

	rec := NewRecord(experience, md, embedding)

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.shortTerm.Append(rec); err != nil {
		return err
	}

	m.emit(EventMemoryAdded, map[string]any{
		"experience": preview(experience, previewLen),
		"metadata":   md,
	})

	var promoteErr error
	if m.shortTerm.Len() >= m.cfg.PromotionThreshold {
		promoteErr = m.promote(ctx)
	}

	if err := m.persistLocked(); err != nil {
		return err
	}
	return promoteErr
}

// promote consolidates the whole short-term tier into one long-term summary
// record. All-or-nothing: the short-term tier is cleared only after the
// summary record is stored. Callers hold the write lock.
func (m *Manager) promote(ctx context.Context) error {
	records := m.shortTerm.Records()
	texts := make([]string, len(records))
	for i, rec := range records {
		texts[i] = rec.Experience
	}

	summary, err := m.summarize(ctx, texts)
	if err != nil {
		return err
	}
	embedding, err := m.embed(ctx, summary)
	if err != nil {
		return err
	}

	sourceCount := len(records)
	rec := NewRecord(summary, Metadata{
		Kind:        KindSummary,
		Timestamp:   time.Now(),
		SourceCount: &sourceCount,
	}, embedding)

	if err := m.longTerm.Append(rec); err != nil {
		return err
	}
	m.shortTerm.Clear()

	m.emit(EventMemoryPromoted, map[string]any{
		"source_count": sourceCount,
		"summary":      preview(summary, previewLen),
	})
	return nil
}

// Retrieve embeds the query, searches both tiers for up to k candidates
// each, and returns the merged pool re-ranked by importance (descending),
// truncated to k.
//
// Note the ranking: vector distance only decides which records enter the
// candidate pool. Final order is importance, with ties keeping the merged
// order (short-term results before long-term). Records never assigned an
// importance all rank equally at 0.
func (m *Manager) Retrieve(ctx context.Context, query string, k int) ([]Record, error) {
	if k <= 0 {
		k = m.cfg.DefaultK
	}

	m.mu.RLock()
	empty := m.shortTerm.Len() == 0 && m.longTerm.Len() == 0
	m.mu.RUnlock()
	if empty {
		// No embedding call when there is nothing to search.
		return nil, nil
	}

	embedding, err := m.embed(ctx, query)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	short, err := m.shortTerm.Search(embedding, k)
	if err != nil {
		return nil, err
	}
	long, err := m.longTerm.Search(embedding, k)
	if err != nil {
		return nil, err
	}

	merged := make([]Record, 0, len(short)+len(long))
	merged = append(merged, short...)
	merged = append(merged, long...)

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Metadata.importance() > merged[j].Metadata.importance()
	})
	if len(merged) > k {
		merged = merged[:k]
	}

	m.emit(EventRetrieval, map[string]any{
		"query": query,
		"found": len(merged),
	})
	return merged, nil
}

// ShortTerm returns a copy of the short-term records in insertion order.
func (m *Manager) ShortTerm() []Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Record(nil), m.shortTerm.Records()...)
}

// LongTerm returns a copy of the long-term records in insertion order.
func (m *Manager) LongTerm() []Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]Record(nil), m.longTerm.Records()...)
}

// persistLocked writes the full state through the store. Callers hold the
// write lock.
func (m *Manager) persistLocked() error {
	if m.store == nil {
		return nil
	}

	shortRecords, shortIndex, err := m.shortTerm.snapshot()
	if err != nil {
		return fmt.Errorf("memory: snapshot short-term tier: %w", err)
	}
	longRecords, longIndex, err := m.longTerm.snapshot()
	if err != nil {
		return fmt.Errorf("memory: snapshot long-term tier: %w", err)
	}

	st := &State{
		ShortTerm:  shortRecords,
		LongTerm:   longRecords,
		ShortIndex: shortIndex,
		LongIndex:  longIndex,
	}
	if err := m.store.Save(m.agentID, st); err != nil {
		return fmt.Errorf("memory: persist state: %w", err)
	}
	return nil
}

func (m *Manager) embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := m.collaboratorContext(ctx)
	defer cancel()

	embedding, err := m.embedder.Embed(ctx, text)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &EmbedError{Err: ErrCollaboratorTimeout}
		}
		return nil, &EmbedError{Err: err}
	}
	return embedding, nil
}

func (m *Manager) summarize(ctx context.Context, texts []string) (string, error) {
	ctx, cancel := m.collaboratorContext(ctx)
	defer cancel()

	summary, err := m.summarizer.Summarize(ctx, texts)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", &SummarizeError{Err: ErrCollaboratorTimeout}
		}
		return "", &SummarizeError{Err: err}
	}
	return summary, nil
}

func (m *Manager) collaboratorContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.cfg.CollaboratorTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, m.cfg.CollaboratorTimeout)
}

// emit delivers an event to the sink. Sink failures never abort the calling
// memory operation.
func (m *Manager) emit(kind string, payload map[string]any) {
	defer func() {
		_ = recover()
	}()
	m.sink.OnEvent(Event{
		Time:    time.Now(),
		AgentID: m.agentID,
		Kind:    kind,
		Payload: payload,
	})
}

const previewLen = 100

// preview truncates text for event payloads.
func preview(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
