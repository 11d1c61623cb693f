package memory_test

import (
	"errors"
	"testing"

	"github.com/statefulmind/recall-go-sdk/memory"
	"github.com/statefulmind/recall-go-sdk/memory/index"
)

func record(experience string, embedding []float32) memory.Record {
	return memory.NewRecord(experience, memory.Metadata{Kind: memory.KindConversation}, embedding)
}

func TestTier_AppendAndSearch(t *testing.T) {
	tier, err := memory.NewTier(2)
	if err != nil {
		t.Fatalf("NewTier: %v", err)
	}

	tier.Append(record("far", []float32{10, 10}))
	tier.Append(record("near", []float32{1, 1}))
	tier.Append(record("mid", []float32{5, 5}))

	got, err := tier.Search([]float32{0, 0}, 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d results, want 2", len(got))
	}
	if got[0].Experience != "near" || got[1].Experience != "mid" {
		t.Errorf("results = [%s, %s], want [near, mid]", got[0].Experience, got[1].Experience)
	}
}

func TestTier_AppendDimensionMismatchLeavesNoPartialState(t *testing.T) {
	tier, _ := memory.NewTier(4)

	err := tier.Append(record("bad", []float32{1, 2, 3}))
	var dimErr *index.DimensionError
	if !errors.As(err, &dimErr) {
		t.Fatalf("Append = %v, want DimensionError", err)
	}
	if tier.Len() != 0 {
		t.Fatalf("Len = %d after rejected append, want 0", tier.Len())
	}

	// The tier must still accept well-formed records afterwards.
	if err := tier.Append(record("good", []float32{1, 2, 3, 4})); err != nil {
		t.Fatalf("Append after rejection: %v", err)
	}
	got, err := tier.Search([]float32{1, 2, 3, 4}, 1)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 || got[0].Experience != "good" {
		t.Fatalf("Search = %+v, want the one good record", got)
	}
}

func TestTier_Clear(t *testing.T) {
	tier, _ := memory.NewTier(2)
	tier.Append(record("a", []float32{1, 0}))
	tier.Append(record("b", []float32{0, 1}))

	tier.Clear()
	if tier.Len() != 0 {
		t.Fatalf("Len = %d after Clear, want 0", tier.Len())
	}

	// Position numbering restarts at zero.
	tier.Append(record("c", []float32{2, 2}))
	got, err := tier.Search([]float32{2, 2}, 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 || got[0].Experience != "c" {
		t.Fatalf("Search after Clear = %+v, want only record c", got)
	}
}

func TestTier_LenTracksIndex(t *testing.T) {
	tier, _ := memory.NewTier(2)
	for i := 0; i < 7; i++ {
		if err := tier.Append(record("r", []float32{float32(i), 0})); err != nil {
			t.Fatalf("Append %d: %v", i, err)
		}
		results, err := tier.Search([]float32{0, 0}, 100)
		if err != nil {
			t.Fatalf("Search: %v", err)
		}
		if len(results) != i+1 {
			t.Fatalf("after %d appends: search returned %d records, want %d", i+1, len(results), i+1)
		}
	}
}
