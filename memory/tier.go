package memory

import (
	"fmt"

	"github.com/statefulmind/recall-go-sdk/memory/index"
)

// Tier is one memory tier: an ordered record list paired with a vector index.
// Position i in records always corresponds to the i-th vector in the index;
// every mutation below preserves that correspondence.
type Tier struct {
	records []Record
	index   *index.Flat
}

// NewTier creates an empty tier at the given embedding dimension.
func NewTier(dim int) (*Tier, error) {
	idx, err := index.NewFlat(dim)
	if err != nil {
		return nil, err
	}
	return &Tier{index: idx}, nil
}

// restoreTier rebuilds a tier from persisted records and index bytes.
// The reconstructed pair must be self-consistent and match the configured
// dimension, otherwise the persisted state counts as corrupt.
func restoreTier(dim int, records []Record, indexBytes []byte) (*Tier, error) {
	idx, err := index.Deserialize(indexBytes)
	if err != nil {
		return nil, err
	}
	if idx.Dim() != dim {
		return nil, fmt.Errorf("persisted index dimension %d does not match configured dimension %d", idx.Dim(), dim)
	}
	if idx.Len() != len(records) {
		return nil, fmt.Errorf("persisted index holds %d vectors for %d records", idx.Len(), len(records))
	}
	return &Tier{records: records, index: idx}, nil
}

// Len returns the number of records in the tier.
func (t *Tier) Len() int {
	return len(t.records)
}

// Records returns the tier's records in insertion order. The returned slice
// is shared; callers must not mutate it.
func (t *Tier) Records() []Record {
	return t.records
}

// Append adds one record, updating the record list and the index as a single
// logical step. The record's embedding is precomputed by the caller. If the
// index rejects the embedding (dimension mismatch), the tier is unchanged.
func (t *Tier) Append(rec Record) error {
	if err := t.index.Add(rec.Embedding); err != nil {
		return err
	}
	t.records = append(t.records, rec)
	return nil
}

// Search returns up to k records nearest to the query embedding, in
// ascending distance order.
func (t *Tier) Search(query []float32, k int) ([]Record, error) {
	neighbors, err := t.index.Search(query, k)
	if err != nil {
		return nil, err
	}
	results := make([]Record, 0, len(neighbors))
	for _, n := range neighbors {
		// Guard against out-of-range positions from a damaged index.
		if n.Position < 0 || n.Position >= len(t.records) {
			continue
		}
		results = append(results, t.records[n.Position])
	}
	return results, nil
}

// Clear empties the record list and resets the index. Used by promotion.
func (t *Tier) Clear() {
	t.records = nil
	t.index.Reset()
}

// snapshot serializes the tier for persistence.
func (t *Tier) snapshot() ([]Record, []byte, error) {
	indexBytes, err := t.index.Serialize()
	if err != nil {
		return nil, nil, err
	}
	records := make([]Record, len(t.records))
	copy(records, t.records)
	return records, indexBytes, nil
}
