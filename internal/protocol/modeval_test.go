package protocol

import (
	"encoding/json"
	"testing"
)

func TestModeValUnmarshal(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantHex bool
		wantInt int
	}{
		{name: "integer representation", payload: `{"mode_val": 3}`, wantInt: 3},
		{name: "hex string representation", payload: `{"mode_val": "ff00aa"}`, wantHex: true, wantInt: 0xff00aa},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var field struct {
				ModeVal ModeVal `json:"mode_val"`
			}
			if err := json.Unmarshal([]byte(tt.payload), &field); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if field.ModeVal.IsHex() != tt.wantHex {
				t.Errorf("IsHex() = %v, want %v", field.ModeVal.IsHex(), tt.wantHex)
			}
			got, ok := field.ModeVal.Int()
			if !ok || got != tt.wantInt {
				t.Errorf("Int() = %d,%v, want %d,true", got, ok, tt.wantInt)
			}
		})
	}
}

func TestModeValRoundTrip(t *testing.T) {
	for _, original := range []string{`3`, `"ff00aa"`} {
		var v ModeVal
		if err := json.Unmarshal([]byte(original), &v); err != nil {
			t.Fatalf("Unmarshal(%s) error = %v", original, err)
		}
		out, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("Marshal error = %v", err)
		}
		if string(out) != original {
			t.Errorf("round trip = %s, want %s (wire shape preserved)", out, original)
		}
	}
}

func TestModeValRejectsOtherShapes(t *testing.T) {
	var v ModeVal
	if err := json.Unmarshal([]byte(`{"nested": true}`), &v); err == nil {
		t.Error("expected error for object-shaped mode_val")
	}
}

func TestModeValHexConversion(t *testing.T) {
	if got := ModeValInt(255).Hex(); got != "ff" {
		t.Errorf("Hex() = %q, want ff", got)
	}
	if _, ok := ModeValHex("not-hex").Int(); ok {
		t.Error("Int() on invalid hex should report ok=false")
	}
}
