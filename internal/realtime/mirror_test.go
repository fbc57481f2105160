package realtime

import (
	"testing"
)

type msg struct {
	ID   string
	Corr string
	Text string
}

func msgID(m msg) string   { return m.ID }
func msgCorr(m msg) string { return m.Corr }

func seeded() *Mirror[msg] {
	m := NewMirror(msgID, msgCorr)
	m.Reset([]msg{{ID: "a", Text: "one"}, {ID: "b", Text: "two"}, {ID: "c", Text: "three"}})
	return m
}

func Test_Mirror_Insert_AppendsAtTail(t *testing.T) {
	m := seeded()
	before := m.Items()

	if out := m.Apply(Change[msg]{Type: Insert, Record: msg{ID: "d", Text: "four"}}); out != Appended {
		t.Fatalf("want Appended, got %v", out)
	}
	got := m.Items()
	if len(got) != len(before)+1 {
		t.Fatalf("insert must grow by exactly one: %d -> %d", len(before), len(got))
	}
	for i := range before {
		if got[i] != before[i] {
			t.Fatalf("prior order changed at %d: %+v", i, got)
		}
	}
	if got[len(got)-1].ID != "d" {
		t.Fatalf("new entry must be at the tail, got %+v", got)
	}
}

func Test_Mirror_Update_ReplacesOnlyMatchingID(t *testing.T) {
	m := seeded()

	if out := m.Apply(Change[msg]{Type: Update, Record: msg{ID: "b", Text: "edited"}}); out != Replaced {
		t.Fatalf("want Replaced, got %v", out)
	}
	got := m.Items()
	if len(got) != 3 {
		t.Fatalf("update must not change length, got %d", len(got))
	}
	want := []string{"one", "edited", "three"}
	for i, w := range want {
		if got[i].Text != w {
			t.Fatalf("item %d: want %q got %q", i, w, got[i].Text)
		}
	}
}

func Test_Mirror_Update_UnknownIDIsIgnored(t *testing.T) {
	m := seeded()
	if out := m.Apply(Change[msg]{Type: Update, Record: msg{ID: "zzz", Text: "x"}}); out != Ignored {
		t.Fatalf("want Ignored, got %v", out)
	}
	if m.Len() != 3 {
		t.Fatalf("length changed: %d", m.Len())
	}
}

func Test_Mirror_Insert_EchoOfOptimisticCopyIsMerged(t *testing.T) {
	m := seeded()
	// optimistic local copy: no server id yet, only the correlation id
	m.Apply(Change[msg]{Type: Insert, Record: msg{Corr: "k1", Text: "sending"}})
	if m.Len() != 4 {
		t.Fatalf("optimistic insert should append, len=%d", m.Len())
	}

	// server echo carries the real id and the same correlation id
	out := m.Apply(Change[msg]{Type: Insert, Record: msg{ID: "srv-1", Corr: "k1", Text: "sent"}})
	if out != Replaced {
		t.Fatalf("echo must be merged, got %v", out)
	}
	got := m.Items()
	if len(got) != 4 || got[3].ID != "srv-1" || got[3].Text != "sent" {
		t.Fatalf("echo not merged in place: %+v", got)
	}
}

func Test_Mirror_Insert_DuplicateIDIsMerged(t *testing.T) {
	m := seeded()
	if out := m.Apply(Change[msg]{Type: Insert, Record: msg{ID: "a", Text: "again"}}); out != Replaced {
		t.Fatalf("want Replaced, got %v", out)
	}
	if m.Len() != 3 {
		t.Fatalf("duplicate insert must not grow the list, len=%d", m.Len())
	}
}

func Test_Mirror_NilCorrelation(t *testing.T) {
	m := NewMirror[msg](msgID, nil)
	m.Apply(Change[msg]{Type: Insert, Record: msg{ID: "1", Corr: "same"}})
	m.Apply(Change[msg]{Type: Insert, Record: msg{ID: "2", Corr: "same"}})
	if m.Len() != 2 {
		t.Fatalf("without correlation func only ids dedupe, len=%d", m.Len())
	}
}
