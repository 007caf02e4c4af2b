package insight

import (
	"fmt"
	"testing"
)

func TestLogNewestFirst(t *testing.T) {
	l := NewLog(10)
	for i := 1; i <= 3; i++ {
		l.Push(Insight{Category: Spark, Content: fmt.Sprintf("idea-%d", i), Tick: uint64(i)})
	}

	got := l.List()
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0].Content != "idea-3" || got[2].Content != "idea-1" {
		t.Errorf("order = %q .. %q", got[0].Content, got[2].Content)
	}
}

func TestLogEvictsOldest(t *testing.T) {
	l := NewLog(50)
	for i := 1; i <= 51; i++ {
		l.Push(Insight{Category: Spark, Content: fmt.Sprintf("idea-%d", i)})
	}

	if l.Len() != 50 {
		t.Fatalf("len = %d, want 50", l.Len())
	}
	got := l.List()
	if got[0].Content != "idea-51" {
		t.Errorf("newest = %q, want idea-51", got[0].Content)
	}
	for _, in := range got {
		if in.Content == "idea-1" {
			t.Error("oldest entry still retrievable after eviction")
		}
	}
}

func TestLogCustomCapScenario(t *testing.T) {
	// 60 journal-style entries with a 15-entry cap: exactly the last 15
	// retrievable, most recent first.
	l := NewLog(15)
	for i := 1; i <= 60; i++ {
		l.Push(Insight{Category: Resource, Content: fmt.Sprintf("entry-%d", i)})
	}

	got := l.List()
	if len(got) != 15 {
		t.Fatalf("len = %d, want 15", len(got))
	}
	for i, in := range got {
		want := fmt.Sprintf("entry-%d", 60-i)
		if in.Content != want {
			t.Fatalf("list[%d] = %q, want %q", i, in.Content, want)
		}
	}
}

func TestLogDefaultCap(t *testing.T) {
	l := NewLog(0)
	if l.Cap() != DefaultCap {
		t.Errorf("cap = %d, want %d", l.Cap(), DefaultCap)
	}
}
