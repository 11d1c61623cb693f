package memory_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/statefulmind/recall-go-sdk/memory"
)

func TestMetadata_JSONRoundTrip(t *testing.T) {
	importance := 0.8
	sourceCount := 5
	ts := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

	in := memory.Metadata{
		Kind:        memory.KindSummary,
		Timestamp:   ts,
		Importance:  &importance,
		SourceCount: &sourceCount,
		Extra: map[string]any{
			"session": "abc-123",
			"turn":    float64(7),
		},
	}

	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var out memory.Metadata
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if out.Kind != memory.KindSummary {
		t.Errorf("Kind = %q, want %q", out.Kind, memory.KindSummary)
	}
	if !out.Timestamp.Equal(ts) {
		t.Errorf("Timestamp = %v, want %v", out.Timestamp, ts)
	}
	if out.Importance == nil || *out.Importance != importance {
		t.Errorf("Importance = %v, want %v", out.Importance, importance)
	}
	if out.SourceCount == nil || *out.SourceCount != sourceCount {
		t.Errorf("SourceCount = %v, want %v", out.SourceCount, sourceCount)
	}
	if out.Extra["session"] != "abc-123" || out.Extra["turn"] != float64(7) {
		t.Errorf("Extra = %v, want session/turn preserved", out.Extra)
	}
}

func TestMetadata_MarshalFlatObject(t *testing.T) {
	in := memory.Metadata{
		Kind:  memory.KindConversation,
		Extra: map[string]any{"channel": "web"},
	}

	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	// Recognized and extra keys share one flat object.
	var flat map[string]any
	if err := json.Unmarshal(data, &flat); err != nil {
		t.Fatalf("Unmarshal into map: %v", err)
	}
	if flat["type"] != "conversation" {
		t.Errorf("type = %v, want conversation", flat["type"])
	}
	if flat["channel"] != "web" {
		t.Errorf("channel = %v, want web", flat["channel"])
	}
	if _, ok := flat["importance"]; ok {
		t.Error("unset importance was serialized")
	}
	if _, ok := flat["source_count"]; ok {
		t.Error("unset source_count was serialized")
	}
	if _, ok := flat["timestamp"]; ok {
		t.Error("zero timestamp was serialized")
	}
}

func TestMetadata_UnknownKeysSurviveRoundTrip(t *testing.T) {
	raw := []byte(`{"type":"conversation","timestamp":"2026-01-02T03:04:05Z","mood":"curious","score":0.25}`)

	var md memory.Metadata
	if err := json.Unmarshal(raw, &md); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if md.Extra["mood"] != "curious" {
		t.Errorf("Extra[mood] = %v, want curious", md.Extra["mood"])
	}

	again, err := json.Marshal(md)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var flat map[string]any
	if err := json.Unmarshal(again, &flat); err != nil {
		t.Fatalf("Unmarshal into map: %v", err)
	}
	if flat["mood"] != "curious" || flat["score"] != 0.25 {
		t.Errorf("round-tripped object = %v, want mood and score preserved", flat)
	}
}

func TestNewRecord_AssignsID(t *testing.T) {
	a := memory.NewRecord("one", memory.Metadata{}, []float32{1})
	b := memory.NewRecord("two", memory.Metadata{}, []float32{2})

	if a.ID == "" || b.ID == "" {
		t.Fatal("NewRecord left ID empty")
	}
	if a.ID == b.ID {
		t.Fatalf("two records share ID %s", a.ID)
	}
}
