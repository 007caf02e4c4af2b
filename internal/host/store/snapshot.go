package store

import (
	"encoding/json"
	"fmt"
	"time"
)

// Snapshot is a full JSON export of the store, the payload the backup
// layer pushes off-site.
type Snapshot struct {
	TakenAt   time.Time         `json:"taken_at"`
	State     map[string]string `json:"state"`
	Ambitions []AmbitionRecord  `json:"ambitions"`
	Journal   []JournalRecord   `json:"journal"`
	Insights  []InsightRecord   `json:"insights"`
}

// TakeSnapshot reads the entire store into a Snapshot.
func (s *Store) TakeSnapshot() (*Snapshot, error) {
	snap := &Snapshot{TakenAt: time.Now().UTC(), State: make(map[string]string)}

	var state []StateEntry
	if err := s.db.Find(&state).Error; err != nil {
		return nil, fmt.Errorf("store: snapshot state: %w", err)
	}
	for _, e := range state {
		snap.State[e.Key] = e.Value
	}
	if err := s.db.Order("id ASC").Find(&snap.Ambitions).Error; err != nil {
		return nil, fmt.Errorf("store: snapshot ambitions: %w", err)
	}
	if err := s.db.Order("id ASC").Find(&snap.Journal).Error; err != nil {
		return nil, fmt.Errorf("store: snapshot journal: %w", err)
	}
	if err := s.db.Order("id ASC").Find(&snap.Insights).Error; err != nil {
		return nil, fmt.Errorf("store: snapshot insights: %w", err)
	}
	return snap, nil
}

// Marshal renders the snapshot as indented JSON.
func (s *Snapshot) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("store: marshal snapshot: %w", err)
	}
	return data, nil
}
