package persist_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/statefulmind/recall-go-sdk/memory"
	"github.com/statefulmind/recall-go-sdk/memory/index"
	"github.com/statefulmind/recall-go-sdk/memory/persist"
)

func sampleState(t *testing.T) *memory.State {
	t.Helper()
	idx, err := index.NewFlat(2)
	if err != nil {
		t.Fatalf("NewFlat: %v", err)
	}
	if err := idx.Add([]float32{1, 2}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	indexBytes, err := idx.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	empty, _ := index.NewFlat(2)
	emptyBytes, _ := empty.Serialize()

	return &memory.State{
		ShortTerm: []memory.Record{
			memory.NewRecord("User: hi\nAssistant: hello", memory.Metadata{Kind: memory.KindConversation}, []float32{1, 2}),
		},
		LongTerm:   nil,
		ShortIndex: indexBytes,
		LongIndex:  emptyBytes,
	}
}

func TestFileStore_SaveLoadRoundTrip(t *testing.T) {
	store, err := persist.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	in := sampleState(t)
	if err := store.Save("alpha", in); err != nil {
		t.Fatalf("Save: %v", err)
	}

	out, err := store.Load("alpha")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(out.ShortTerm) != 1 {
		t.Fatalf("loaded %d short-term records, want 1", len(out.ShortTerm))
	}
	rec := out.ShortTerm[0]
	if rec.ID != in.ShortTerm[0].ID {
		t.Errorf("record ID = %s, want %s", rec.ID, in.ShortTerm[0].ID)
	}
	if rec.Experience != in.ShortTerm[0].Experience {
		t.Errorf("experience = %q, want %q", rec.Experience, in.ShortTerm[0].Experience)
	}
	if rec.Metadata.Kind != memory.KindConversation {
		t.Errorf("kind = %q, want conversation", rec.Metadata.Kind)
	}
	if len(rec.Embedding) != 2 || rec.Embedding[0] != 1 || rec.Embedding[1] != 2 {
		t.Errorf("embedding = %v, want [1 2]", rec.Embedding)
	}

	// Index bytes survive unchanged and still deserialize.
	restored, err := index.Deserialize(out.ShortIndex)
	if err != nil {
		t.Fatalf("Deserialize loaded index: %v", err)
	}
	if restored.Len() != 1 || restored.Dim() != 2 {
		t.Errorf("restored index len=%d dim=%d, want 1/2", restored.Len(), restored.Dim())
	}
}

func TestFileStore_LoadMissing(t *testing.T) {
	store, err := persist.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	_, err = store.Load("nobody")
	if !errors.Is(err, memory.ErrStateNotFound) {
		t.Fatalf("Load = %v, want ErrStateNotFound", err)
	}
}

func TestFileStore_LoadCorrupt(t *testing.T) {
	dir := t.TempDir()
	store, err := persist.NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if err := os.WriteFile(store.Path("beta"), []byte("][ definitely not json"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	_, err = store.Load("beta")
	var corruptErr *memory.CorruptStateError
	if !errors.As(err, &corruptErr) {
		t.Fatalf("Load = %v, want CorruptStateError", err)
	}
	if corruptErr.Path != store.Path("beta") {
		t.Errorf("corrupt path = %s, want %s", corruptErr.Path, store.Path("beta"))
	}

	// The corrupt file stays on disk.
	if _, err := os.Stat(store.Path("beta")); err != nil {
		t.Errorf("corrupt file was removed: %v", err)
	}
}

func TestFileStore_SaveReplacesWholeFile(t *testing.T) {
	dir := t.TempDir()
	store, err := persist.NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	first := sampleState(t)
	if err := store.Save("gamma", first); err != nil {
		t.Fatalf("Save: %v", err)
	}

	second := sampleState(t)
	second.ShortTerm = append(second.ShortTerm,
		memory.NewRecord("User: more\nAssistant: sure", memory.Metadata{}, []float32{3, 4}))
	if err := store.Save("gamma", second); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	out, err := store.Load("gamma")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(out.ShortTerm) != 2 {
		t.Fatalf("loaded %d records after replace, want 2", len(out.ShortTerm))
	}

	// No temp files left behind.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".tmp" {
			t.Errorf("leftover temp file %s", e.Name())
		}
	}
}

func TestFileStore_PathPerAgent(t *testing.T) {
	store, err := persist.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	if err := store.Save("a1", sampleState(t)); err != nil {
		t.Fatalf("Save a1: %v", err)
	}
	if err := store.Save("a2", sampleState(t)); err != nil {
		t.Fatalf("Save a2: %v", err)
	}

	if store.Path("a1") == store.Path("a2") {
		t.Fatal("two agents share one state file")
	}
	if _, err := store.Load("a1"); err != nil {
		t.Errorf("Load a1: %v", err)
	}
	if _, err := store.Load("a2"); err != nil {
		t.Errorf("Load a2: %v", err)
	}
}
