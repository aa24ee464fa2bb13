package tui

import (
	"testing"
	"time"

	"github.com/extago/extalife/internal/protocol"
)

func TestUpsertMergesPartialUpdates(t *testing.T) {
	m := MonitorModel{rows: make(map[string]*row)}

	m.upsert("11-1", protocol.Data{"alias": "Kitchen", "power": float64(0)}, time.Now(), false)
	m.upsert("11-1", protocol.Data{"power": float64(1)}, time.Now(), true)

	r := m.rows["11-1"]
	if r.data["alias"] != "Kitchen" {
		t.Error("partial update dropped fields the notification did not mention")
	}
	if r.data["power"] != float64(1) {
		t.Errorf("power = %v, want 1", r.data["power"])
	}
	if !r.pushed {
		t.Error("row not marked as pushed")
	}
}

func TestUpsertKeepsOrderSorted(t *testing.T) {
	m := MonitorModel{rows: make(map[string]*row)}

	for _, id := range []string{"9-1", "11-2", "11-1"} {
		m.upsert(id, protocol.Data{}, time.Now(), false)
	}

	want := []string{"11-1", "11-2", "9-1"} // lexicographic
	for i, id := range want {
		if m.order[i] != id {
			t.Fatalf("order = %v, want %v", m.order, want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 24); got != "short" {
		t.Errorf("truncate(short) = %q", got)
	}
	if got := truncate("a very long channel alias here", 10); got != "a very ..." {
		t.Errorf("truncate = %q", got)
	}
}

func TestRelativeAge(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{d: time.Second, want: "now"},
		{d: 30 * time.Second, want: "30s ago"},
		{d: 5 * time.Minute, want: "5m ago"},
		{d: 2 * time.Hour, want: "2h ago"},
	}
	for _, tt := range tests {
		if got := relativeAge(tt.d); got != tt.want {
			t.Errorf("relativeAge(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
