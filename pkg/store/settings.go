// Package store persists user settings (polling interval, provider
// credentials) in SQLite and notifies subscribers of changes.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const (
	keyInterval    = "update_interval_minutes"
	keyCredentials = "credentials"

	// DefaultIntervalMinutes applies when no interval was ever stored.
	DefaultIntervalMinutes = 5
)

// ChangeKind identifies which setting a ChangeEvent refers to.
type ChangeKind string

const (
	KindInterval    ChangeKind = "interval"
	KindCredentials ChangeKind = "credentials"
)

// ChangeEvent is delivered to subscribers after a setting is persisted.
type ChangeEvent struct {
	Kind ChangeKind
}

// Settings manages the SQLite-backed settings table.
type Settings struct {
	db *sql.DB

	mu   sync.Mutex
	subs []chan ChangeEvent
}

// NewSettings opens (creating if necessary) the settings database.
// WAL mode lets external writers update settings while the daemon runs.
func NewSettings(dbPath string) (*Settings, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping sqlite db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	s := &Settings{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("schema migration failed: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Settings) Close() error {
	return s.db.Close()
}

func (s *Settings) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("failed to create settings table: %w", err)
	}
	return nil
}

// Subscribe registers a listener for setting changes. The channel is
// buffered; a subscriber that falls behind loses events rather than
// blocking the writer.
func (s *Settings) Subscribe() <-chan ChangeEvent {
	ch := make(chan ChangeEvent, 8)
	s.mu.Lock()
	s.subs = append(s.subs, ch)
	s.mu.Unlock()
	return ch
}

func (s *Settings) notify(kind ChangeKind) {
	s.mu.Lock()
	subs := make([]chan ChangeEvent, len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- ChangeEvent{Kind: kind}:
		default:
			log.Printf("settings subscriber behind, dropping %s event", kind)
		}
	}
}

func (s *Settings) get(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read setting %s: %w", key, err)
	}
	return value, true, nil
}

func (s *Settings) put(key, value string) error {
	_, err := s.db.Exec(
		"INSERT INTO settings (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP) "+
			"ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at",
		key, value)
	if err != nil {
		return fmt.Errorf("failed to write setting %s: %w", key, err)
	}
	return nil
}

// UpdateIntervalMinutes returns the stored polling interval, falling back to
// the default for missing or invalid values.
func (s *Settings) UpdateIntervalMinutes() int {
	value, ok, err := s.get(keyInterval)
	if err != nil {
		log.Printf("failed to read interval, using default: %v", err)
		return DefaultIntervalMinutes
	}
	if !ok {
		return DefaultIntervalMinutes
	}
	minutes, err := strconv.Atoi(value)
	if err != nil || minutes <= 0 {
		log.Printf("invalid stored interval %q, using default", value)
		return DefaultIntervalMinutes
	}
	return minutes
}

// UpdateInterval returns the polling interval as a duration.
func (s *Settings) UpdateInterval() time.Duration {
	return time.Duration(s.UpdateIntervalMinutes()) * time.Minute
}

// SetUpdateIntervalMinutes persists a new polling interval and notifies
// subscribers.
func (s *Settings) SetUpdateIntervalMinutes(minutes int) error {
	if minutes <= 0 {
		return fmt.Errorf("interval must be positive, got %d", minutes)
	}
	if err := s.put(keyInterval, strconv.Itoa(minutes)); err != nil {
		return err
	}
	s.notify(KindInterval)
	return nil
}

// Credentials returns the per-provider credential map. Providers with no
// configured credential are absent from the map.
func (s *Settings) Credentials() map[string]string {
	value, ok, err := s.get(keyCredentials)
	if err != nil {
		log.Printf("failed to read credentials: %v", err)
		return map[string]string{}
	}
	if !ok {
		return map[string]string{}
	}
	creds := map[string]string{}
	if err := json.Unmarshal([]byte(value), &creds); err != nil {
		log.Printf("corrupt credentials blob, ignoring: %v", err)
		return map[string]string{}
	}
	return creds
}

// Credential returns the credential for one provider, or "".
func (s *Settings) Credential(providerID string) string {
	return s.Credentials()[providerID]
}

// SetCredential stores or, for an empty value, removes a provider
// credential, then notifies subscribers.
func (s *Settings) SetCredential(providerID, value string) error {
	creds := s.Credentials()
	if value == "" {
		delete(creds, providerID)
	} else {
		creds[providerID] = value
	}
	blob, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}
	if err := s.put(keyCredentials, string(blob)); err != nil {
		return err
	}
	s.notify(KindCredentials)
	return nil
}

// Reload re-announces both settings to subscribers. Used on SIGHUP so that
// edits made by an external writer (sqlite3 CLI, another process) take
// effect without restarting.
func (s *Settings) Reload() {
	s.notify(KindInterval)
	s.notify(KindCredentials)
}
