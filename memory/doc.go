// Package memory provides a tiered, persistent memory store for
// conversational agents.
//
// Experiences land in a recency-bounded short-term tier; when it reaches the
// promotion threshold the whole tier is summarized into one consolidated
// record in the long-term tier. Both tiers pair an ordered record list with
// an exact-L2 vector index, and retrieval merges nearest-neighbor candidates
// from both before re-ranking by importance.
//
// Architecture:
//   - index.Flat: exact squared-L2 vector index with binary snapshots
//   - Tier: record list + index for one tier, kept in 1:1 correspondence
//   - Manager: orchestrates both tiers, promotion, and persistence
//   - StateStore: durable state per agent identity (persist.FileStore)
//   - Embedder / Summarizer: language-model collaborators, injected
//   - EventSink: activity observability, injected (agentlog.Logger)
//
// Minimal wiring:
//
//	embedder := mock.New()
//	store, _ := persist.NewFileStore("data")
//	mgr, err := memory.NewManager("agent-1", embedder, summarizer,
//		memory.WithStore(store),
//	)
//	if err != nil { ... }
//
//	err = mgr.Add(ctx, "User: What is the capital of France?\nAssistant: Paris.",
//		&memory.Metadata{Kind: memory.KindConversation})
//	records, err := mgr.Retrieve(ctx, "France", 5)
//
// One manager exclusively owns its tiers; sharing a store file between
// processes or managers is not supported.
package memory
