// Package store is the host-side persistence layer. The runtime keeps
// nothing durable; everything it asks the host to remember lands here.
package store

import (
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// StateEntry is an opaque key/value pair persisted on behalf of the
// runtime.
type StateEntry struct {
	Key       string `gorm:"primaryKey;size:191"`
	Value     string `gorm:"type:text"`
	UpdatedAt time.Time
}

// AmbitionRecord is one day's shared goal. A day may have several rows
// if the ambition changed; the newest wins.
type AmbitionRecord struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	DayKey    string `gorm:"size:32;index;not null"`
	Text      string `gorm:"type:text"`
	CreatedAt time.Time
}

// JournalRecord is one agent's entry from a journal batch.
type JournalRecord struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	DayKey    string `gorm:"size:32;index"`
	AgentName string `gorm:"size:64"`
	Tick      uint64
	Entry     string `gorm:"type:text"`
	CreatedAt time.Time
}

// InsightRecord mirrors the runtime's bounded insight log, unbounded on
// the host side.
type InsightRecord struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	Category  string `gorm:"size:16;index"`
	Content   string `gorm:"type:text"`
	Origin    int
	Tick      uint64
	CreatedAt time.Time
}

// AllModels returns the GORM models for migration.
func AllModels() []interface{} {
	return []interface{}{
		&StateEntry{},
		&AmbitionRecord{},
		&JournalRecord{},
		&InsightRecord{},
	}
}

// Store wraps a GORM handle with the host's persistence operations.
type Store struct {
	db *gorm.DB
}

// Open connects to the configured database and migrates the schema.
// driver is "sqlite" or "mysql".
func Open(driver, dsn string) (*Store, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "mysql":
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("store: unknown driver %q", driver)
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", driver, err)
	}
	return New(db)
}

// New wraps an existing GORM handle and migrates the schema. Tests use
// it with in-memory sqlite.
func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return nil, fmt.Errorf("store: auto-migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// DB exposes the underlying handle for the dashboard's read paths.
func (s *Store) DB() *gorm.DB { return s.db }

// PutState upserts an opaque key/value pair.
func (s *Store) PutState(key, value string) error {
	entry := StateEntry{Key: key, Value: value}
	result := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry)
	if result.Error != nil {
		return fmt.Errorf("store: put state %q: %w", key, result.Error)
	}
	return nil
}

// GetState returns the stored value for key, reporting whether it exists.
func (s *Store) GetState(key string) (string, bool, error) {
	var entry StateEntry
	result := s.db.Where("key = ?", key).First(&entry)
	if result.Error == gorm.ErrRecordNotFound {
		return "", false, nil
	}
	if result.Error != nil {
		return "", false, fmt.Errorf("store: get state %q: %w", key, result.Error)
	}
	return entry.Value, true, nil
}

// AddAmbition records a new ambition for the given day.
func (s *Store) AddAmbition(dayKey, text string) error {
	rec := AmbitionRecord{DayKey: dayKey, Text: text}
	if err := s.db.Create(&rec).Error; err != nil {
		return fmt.Errorf("store: add ambition for %s: %w", dayKey, err)
	}
	return nil
}

// AmbitionForDay returns the newest ambition recorded under dayKey,
// reporting whether one exists.
func (s *Store) AmbitionForDay(dayKey string) (string, bool, error) {
	var rec AmbitionRecord
	result := s.db.Where("day_key = ?", dayKey).Order("id DESC").First(&rec)
	if result.Error == gorm.ErrRecordNotFound {
		return "", false, nil
	}
	if result.Error != nil {
		return "", false, fmt.Errorf("store: ambition for %s: %w", dayKey, result.Error)
	}
	return rec.Text, true, nil
}

// AmbitionHistory returns up to n ambition records, oldest first, so
// replaying them preserves history order.
func (s *Store) AmbitionHistory(n int) ([]AmbitionRecord, error) {
	var recs []AmbitionRecord
	if err := s.db.Order("id DESC").Limit(n).Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("store: ambition history: %w", err)
	}
	for i, j := 0, len(recs)-1; i < j; i, j = i+1, j-1 {
		recs[i], recs[j] = recs[j], recs[i]
	}
	return recs, nil
}

// AddJournal stores one batch of journal entries.
func (s *Store) AddJournal(entries []JournalRecord) error {
	if len(entries) == 0 {
		return nil
	}
	if err := s.db.Create(&entries).Error; err != nil {
		return fmt.Errorf("store: add journal batch: %w", err)
	}
	return nil
}

// JournalForDay returns all journal entries recorded under dayKey in
// arrival order.
func (s *Store) JournalForDay(dayKey string) ([]JournalRecord, error) {
	var recs []JournalRecord
	if err := s.db.Where("day_key = ?", dayKey).Order("id ASC").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("store: journal for %s: %w", dayKey, err)
	}
	return recs, nil
}

// AddInsight stores one insight observation.
func (s *Store) AddInsight(rec InsightRecord) error {
	if err := s.db.Create(&rec).Error; err != nil {
		return fmt.Errorf("store: add insight: %w", err)
	}
	return nil
}

// RecentInsights returns up to n insights, newest first.
func (s *Store) RecentInsights(n int) ([]InsightRecord, error) {
	var recs []InsightRecord
	if err := s.db.Order("id DESC").Limit(n).Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("store: recent insights: %w", err)
	}
	return recs, nil
}
