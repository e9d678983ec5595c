// Package storage is the client's local storage: a small persistent
// string key/value table in sqlite, holding the same keys the web client
// kept in the browser (userId, botCount, importedNumberCount, delay_<id>).
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const (
	KeyUserID              = "userId"
	KeyBotCount            = "botCount"
	KeyImportedNumberCount = "importedNumberCount"
	DelayPrefix            = "delay_"
)

type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the store at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	db.SetMaxOpenConns(1)

	createSQL := `CREATE TABLE IF NOT EXISTS kv (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);`
	if _, err := db.Exec(createSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table kv: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the value for key and whether it was present.
func (s *Store) Get(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, true, nil
}

func (s *Store) Set(key, value string) error {
	_, err := s.db.Exec(`INSERT INTO kv(key, value) VALUES(?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (s *Store) Remove(key string) error {
	if _, err := s.db.Exec(`DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	return nil
}

// Keys lists the keys starting with prefix, sorted.
func (s *Store) Keys(prefix string) ([]string, error) {
	rows, err := s.db.Query(`SELECT key FROM kv WHERE substr(key, 1, ?) = ? ORDER BY key`, len(prefix), prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan key: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// RemovePrefix deletes every key starting with prefix and reports how many
// went away.
func (s *Store) RemovePrefix(prefix string) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM kv WHERE substr(key, 1, ?) = ?`, len(prefix), prefix)
	if err != nil {
		return 0, fmt.Errorf("failed to remove %s* keys: %w", prefix, err)
	}
	return res.RowsAffected()
}

func (s *Store) getInt(key string) (int64, bool, error) {
	raw, ok, err := s.Get(key)
	if err != nil || !ok {
		return 0, ok, err
	}
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("invalid integer in %s: %q", key, raw)
	}
	return n, true, nil
}

func (s *Store) setInt(key string, n int64) error {
	return s.Set(key, strconv.FormatInt(n, 10))
}

// UserID returns the stored current user id, 0 when unset.
func (s *Store) UserID() (int64, error) {
	id, _, err := s.getInt(KeyUserID)
	return id, err
}

func (s *Store) SetUserID(id int64) error {
	if id <= 0 {
		return fmt.Errorf("user id must be positive, got %d", id)
	}
	return s.setInt(KeyUserID, id)
}

// BotCount returns the number of bot replies a broadcast triggers. It is
// never below 1.
func (s *Store) BotCount() (int, error) {
	n, ok, err := s.getInt(KeyBotCount)
	if err != nil {
		return 1, err
	}
	if !ok || n < 1 {
		return 1, nil
	}
	return int(n), nil
}

func (s *Store) SetBotCount(n int) error {
	if n < 1 {
		n = 1
	}
	return s.setInt(KeyBotCount, int64(n))
}

func (s *Store) ImportedNumberCount() (int, error) {
	n, _, err := s.getInt(KeyImportedNumberCount)
	return int(n), err
}

func (s *Store) SetImportedNumberCount(n int) error {
	return s.setInt(KeyImportedNumberCount, int64(n))
}

// DelayKey is the storage key for a reply's delay.
func DelayKey(replyID int64) string {
	return DelayPrefix + strconv.FormatInt(replyID, 10)
}

// Delay returns the reply delay. Missing keys read as zero.
func (s *Store) Delay(replyID int64) (time.Duration, error) {
	ms, _, err := s.getInt(DelayKey(replyID))
	if err != nil {
		return 0, err
	}
	if ms < 0 {
		ms = 0
	}
	return time.Duration(ms) * time.Millisecond, nil
}

// SetDelay stores the delay in milliseconds. Negative delays are stored as 0.
func (s *Store) SetDelay(replyID int64, d time.Duration) error {
	if d < 0 {
		d = 0
	}
	return s.setInt(DelayKey(replyID), d.Milliseconds())
}

// ClearDelays removes every delay_* key.
func (s *Store) ClearDelays() (int64, error) {
	return s.RemovePrefix(DelayPrefix)
}

// ReplyDelay pairs a reply id with its stored delay.
type ReplyDelay struct {
	ReplyID int64
	Delay   time.Duration
}

// Delays returns every stored delay ordered by ascending reply id. Keys whose
// suffix is not a number are skipped.
func (s *Store) Delays() ([]ReplyDelay, error) {
	keys, err := s.Keys(DelayPrefix)
	if err != nil {
		return nil, err
	}

	var delays []ReplyDelay
	for _, key := range keys {
		id, err := strconv.ParseInt(strings.TrimPrefix(key, DelayPrefix), 10, 64)
		if err != nil {
			continue
		}
		d, err := s.Delay(id)
		if err != nil {
			continue
		}
		delays = append(delays, ReplyDelay{ReplyID: id, Delay: d})
	}

	sort.Slice(delays, func(i, j int) bool { return delays[i].ReplyID < delays[j].ReplyID })
	return delays, nil
}
