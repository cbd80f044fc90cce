package queue

import (
	"encoding/json"
	"testing"
)

type samplePayload struct {
	Trader string  `json:"trader"`
	Profit float64 `json:"profit"`
}

func TestParsePayloadTypedValue(t *testing.T) {
	in := samplePayload{Trader: "t1", Profit: 42}

	got, err := ParsePayload[samplePayload](in)
	if err != nil {
		t.Fatalf("parse value: %v", err)
	}
	if got.Trader != "t1" || got.Profit != 42 {
		t.Fatalf("unexpected result %+v", got)
	}

	got, err = ParsePayload[samplePayload](&in)
	if err != nil {
		t.Fatalf("parse pointer: %v", err)
	}
	if got != &in {
		t.Fatalf("pointer payload must pass through")
	}
}

func TestParsePayloadRawJSON(t *testing.T) {
	raw := json.RawMessage(`{"trader":"t1","profit":7.5}`)
	got, err := ParsePayload[samplePayload](raw)
	if err != nil {
		t.Fatalf("parse raw: %v", err)
	}
	if got.Trader != "t1" || got.Profit != 7.5 {
		t.Fatalf("unexpected result %+v", got)
	}
}

func TestParsePayloadMap(t *testing.T) {
	// decoded queue messages arrive as generic maps
	m := map[string]interface{}{"trader": "t1", "profit": 3.0}
	got, err := ParsePayload[samplePayload](m)
	if err != nil {
		t.Fatalf("parse map: %v", err)
	}
	if got.Trader != "t1" || got.Profit != 3 {
		t.Fatalf("unexpected result %+v", got)
	}
}

func TestParsePayloadRejectsUnknownType(t *testing.T) {
	if _, err := ParsePayload[samplePayload](42); err == nil {
		t.Fatalf("expected error for unsupported payload type")
	}
	if _, err := ParsePayload[samplePayload](json.RawMessage(`{bad`)); err == nil {
		t.Fatalf("expected error for malformed JSON")
	}
}
