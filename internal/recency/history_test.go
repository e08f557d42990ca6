package recency

import (
	"fmt"
	"math/rand"
	"reflect"
	"testing"

	"github.com/atomicstack/tab-popup-control/internal/tab"
)

func tabs(ids ...string) []tab.Tab {
	out := make([]tab.Tab, len(ids))
	for i, id := range ids {
		out[i] = tab.Tab{ID: tab.ID(id), Title: id}
	}
	return out
}

func ids(tabs []tab.Tab) []tab.ID {
	out := make([]tab.ID, len(tabs))
	for i, t := range tabs {
		out[i] = t.ID
	}
	return out
}

func TestRecordMovesToFrontWithoutDuplicates(t *testing.T) {
	h := New(0)
	h.Record("a")
	h.Record("b")
	h.Record("a")
	h.Record("a")
	want := []tab.ID{"a", "b"}
	if got := h.Snapshot(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestRecordInvariantsUnderRandomSequences(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	h := New(DefaultLimit)
	for i := 0; i < 5000; i++ {
		id := tab.ID(fmt.Sprintf("t%d", rng.Intn(80)))
		h.Record(id)
		snap := h.Snapshot()
		if snap[0] != id {
			t.Fatalf("step %d: expected %s at front, got %s", i, id, snap[0])
		}
		if len(snap) > DefaultLimit {
			t.Fatalf("step %d: history grew to %d", i, len(snap))
		}
		seen := make(map[tab.ID]struct{}, len(snap))
		for _, existing := range snap {
			if _, dup := seen[existing]; dup {
				t.Fatalf("step %d: duplicate id %s in %v", i, existing, snap)
			}
			seen[existing] = struct{}{}
		}
	}
	if h.Len() != DefaultLimit {
		t.Fatalf("expected history saturated at %d, got %d", DefaultLimit, h.Len())
	}
}

func TestRecordTruncatesOldest(t *testing.T) {
	h := New(3)
	for _, id := range []tab.ID{"a", "b", "c", "d"} {
		h.Record(id)
	}
	want := []tab.ID{"d", "c", "b"}
	if got := h.Snapshot(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestForget(t *testing.T) {
	h := New(0)
	h.Record("a")
	h.Record("b")
	h.Forget("a")
	h.Forget("missing")
	want := []tab.ID{"b"}
	if got := h.Snapshot(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestOrderIsStablePartition(t *testing.T) {
	h := New(0)
	h.Record("A")
	h.Record("C")
	got := ids(h.Order(tabs("A", "B", "C", "D")))
	want := []tab.ID{"C", "A", "B", "D"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestOrderIgnoresHistoryOutsideCandidates(t *testing.T) {
	h := New(0)
	h.Record("elsewhere")
	h.Record("B")
	got := ids(h.Order(tabs("A", "B")))
	want := []tab.ID{"B", "A"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if len(h.Order(nil)) != 0 {
		t.Fatalf("expected empty order for no candidates")
	}
}

func TestForgottenTabSortsAsUnknownUntilRecordedAgain(t *testing.T) {
	h := New(0)
	h.Record("B")
	h.Record("C")
	h.Forget("C")
	got := ids(h.Order(tabs("A", "B", "C")))
	if want := []tab.ID{"B", "A", "C"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for _, id := range h.Snapshot() {
		if id == "C" {
			t.Fatalf("expected C forgotten, history %v", h.Snapshot())
		}
	}
	h.Record("C")
	got = ids(h.Order(tabs("A", "B", "C")))
	if want := []tab.ID{"C", "B", "A"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}
