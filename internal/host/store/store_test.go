package store

import (
	"encoding/json"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// openTestStore opens an in-memory SQLite store.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	s, err := New(db)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return s
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open("postgres", "dsn")
	if err == nil {
		t.Fatal("expected error for unknown driver")
	}
	if !strings.Contains(err.Error(), "unknown driver") {
		t.Errorf("error = %q, want to contain %q", err.Error(), "unknown driver")
	}
}

func TestPutState_UpsertOverwrites(t *testing.T) {
	s := openTestStore(t)

	if err := s.PutState("guardian/health", "ok"); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := s.PutState("guardian/health", "degraded"); err != nil {
		t.Fatalf("put again: %v", err)
	}

	got, ok, err := s.GetState("guardian/health")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok {
		t.Fatal("key not found after put")
	}
	if got != "degraded" {
		t.Errorf("value = %q, want %q", got, "degraded")
	}
}

func TestGetState_Missing(t *testing.T) {
	s := openTestStore(t)
	_, ok, err := s.GetState("never/written")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ok {
		t.Error("ok = true for missing key")
	}
}

func TestAmbitionForDay_NewestWins(t *testing.T) {
	s := openTestStore(t)

	if err := s.AddAmbition("2026-08-30", "first draft"); err != nil {
		t.Fatal(err)
	}
	if err := s.AddAmbition("2026-08-30", "revised goal"); err != nil {
		t.Fatal(err)
	}
	if err := s.AddAmbition("2026-08-29", "yesterday"); err != nil {
		t.Fatal(err)
	}

	got, ok, err := s.AmbitionForDay("2026-08-30")
	if err != nil {
		t.Fatalf("ambition for day: %v", err)
	}
	if !ok {
		t.Fatal("no ambition found")
	}
	if got != "revised goal" {
		t.Errorf("ambition = %q, want %q", got, "revised goal")
	}

	_, ok, err = s.AmbitionForDay("2026-01-01")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("ok = true for day with no ambition")
	}
}

func TestAmbitionHistory_OldestFirstCapped(t *testing.T) {
	s := openTestStore(t)
	days := []string{"d1", "d2", "d3", "d4"}
	for _, d := range days {
		if err := s.AddAmbition(d, "goal "+d); err != nil {
			t.Fatal(err)
		}
	}

	recs, err := s.AmbitionHistory(3)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("len = %d, want 3", len(recs))
	}
	// The newest three, replayed oldest first.
	want := []string{"d2", "d3", "d4"}
	for i, rec := range recs {
		if rec.DayKey != want[i] {
			t.Errorf("recs[%d].DayKey = %q, want %q", i, rec.DayKey, want[i])
		}
	}
}

func TestJournal_BatchRoundTrip(t *testing.T) {
	s := openTestStore(t)

	batch := []JournalRecord{
		{DayKey: "2026-08-30", AgentName: "guardian", Tick: 1000, Entry: "ran 4 checks"},
		{DayKey: "2026-08-30", AgentName: "cocreator", Tick: 1000, Entry: "1 commitment held"},
	}
	if err := s.AddJournal(batch); err != nil {
		t.Fatalf("add journal: %v", err)
	}
	if err := s.AddJournal(nil); err != nil {
		t.Fatalf("empty batch should be a no-op: %v", err)
	}

	recs, err := s.JournalForDay("2026-08-30")
	if err != nil {
		t.Fatalf("journal for day: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("len = %d, want 2", len(recs))
	}
	if recs[0].AgentName != "guardian" || recs[1].AgentName != "cocreator" {
		t.Errorf("order = %q, %q; want guardian then cocreator", recs[0].AgentName, recs[1].AgentName)
	}
}

func TestRecentInsights_NewestFirst(t *testing.T) {
	s := openTestStore(t)
	for i, content := range []string{"one", "two", "three"} {
		if err := s.AddInsight(InsightRecord{Category: "spark", Content: content, Origin: 1, Tick: uint64(i)}); err != nil {
			t.Fatal(err)
		}
	}

	recs, err := s.RecentInsights(2)
	if err != nil {
		t.Fatalf("recent insights: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("len = %d, want 2", len(recs))
	}
	if recs[0].Content != "three" || recs[1].Content != "two" {
		t.Errorf("got %q, %q; want three then two", recs[0].Content, recs[1].Content)
	}
}

func TestTakeSnapshot_CoversAllTables(t *testing.T) {
	s := openTestStore(t)
	if err := s.PutState("k", "v"); err != nil {
		t.Fatal(err)
	}
	if err := s.AddAmbition("2026-08-30", "goal"); err != nil {
		t.Fatal(err)
	}
	if err := s.AddJournal([]JournalRecord{{DayKey: "2026-08-30", AgentName: "guardian", Tick: 5, Entry: "x"}}); err != nil {
		t.Fatal(err)
	}
	if err := s.AddInsight(InsightRecord{Category: "feeling", Content: "steady", Origin: 2, Tick: 7}); err != nil {
		t.Fatal(err)
	}

	snap, err := s.TakeSnapshot()
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.State["k"] != "v" {
		t.Errorf("State[k] = %q, want %q", snap.State["k"], "v")
	}
	if len(snap.Ambitions) != 1 || len(snap.Journal) != 1 || len(snap.Insights) != 1 {
		t.Errorf("snapshot counts = %d/%d/%d, want 1/1/1",
			len(snap.Ambitions), len(snap.Journal), len(snap.Insights))
	}

	data, err := snap.Marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded Snapshot
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("snapshot JSON does not round-trip: %v", err)
	}
	if decoded.State["k"] != "v" {
		t.Errorf("decoded State[k] = %q, want %q", decoded.State["k"], "v")
	}
}
