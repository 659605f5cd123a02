// Package store persists profiles, their host entries and the active profile
// pointer in a local SQLite database.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// DefaultProfile is the profile used when nothing else is selected.
const DefaultProfile = "default"

const (
	driverName      = "sqlite"
	activeKey       = "active_profile"
	schemaVersion   = 1
	busyTimeoutMsec = 5000
)

// ErrStorageUnavailable wraps every failure of the underlying database.
var ErrStorageUnavailable = errors.New("storage unavailable")

// Entry is a single host to address mapping.
type Entry struct {
	Host    string `db:"host"`
	Address string `db:"address"`
}

// ProfileInfo describes a stored profile.
type ProfileInfo struct {
	Name       string    `db:"name"`
	CreatedAt  time.Time `db:"created_at"`
	EntryCount int       `db:"entry_count"`
}

// Store is the SQLite-backed profile store.
type Store struct {
	db *sqlx.DB
}

// Open opens or creates the database at path and applies the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, storageErr("create data directory", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)", path, busyTimeoutMsec)
	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, storageErr("open database", err)
	}

	// One connection keeps the pragmas and transactions on the same handle.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, storageErr("connect to database", err)
	}

	s := New(db)
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// New wraps an existing database handle without touching the schema.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	var version int
	if err := s.db.GetContext(ctx, &version, "PRAGMA user_version"); err != nil {
		return storageErr("read schema version", err)
	}
	if version >= schemaVersion {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return storageErr("begin migration", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, schema); err != nil {
		return storageErr("create schema", err)
	}
	if _, err := tx.ExecContext(ctx, seedActive, activeKey, DefaultProfile); err != nil {
		return storageErr("seed active profile", err)
	}
	if _, err := tx.ExecContext(ctx, seedProfile, DefaultProfile); err != nil {
		return storageErr("seed default profile", err)
	}
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return storageErr("set schema version", err)
	}

	if err := tx.Commit(); err != nil {
		return storageErr("commit migration", err)
	}
	return nil
}

// CreateProfile registers name. Existing profiles are left untouched.
func (s *Store) CreateProfile(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO profiles (name) VALUES (?)`, name)
	if err != nil {
		return storageErr("create profile", err)
	}
	return nil
}

// DeleteProfile removes the profile and its entries. It reports whether the
// profile existed; entries of an unregistered name are left alone.
func (s *Store) DeleteProfile(ctx context.Context, name string) (bool, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, storageErr("begin delete profile", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM profiles WHERE name = ?`, name)
	if err != nil {
		return false, storageErr("delete profile", err)
	}
	removed, err := affected(res)
	if err != nil {
		return false, err
	}
	if !removed {
		return false, nil
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM entries WHERE profile_name = ?`, name); err != nil {
		return false, storageErr("delete profile entries", err)
	}

	if err := tx.Commit(); err != nil {
		return false, storageErr("commit delete profile", err)
	}
	return true, nil
}

// SetActiveProfile overwrites the active profile pointer. The name is not
// required to be a registered profile.
func (s *Store) SetActiveProfile(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO meta (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		activeKey, name)
	if err != nil {
		return storageErr("set active profile", err)
	}
	return nil
}

// GetActiveProfile returns the active profile, or DefaultProfile when the
// pointer is unset.
func (s *Store) GetActiveProfile(ctx context.Context) (string, error) {
	var name sql.NullString
	err := s.db.GetContext(ctx, &name, `SELECT value FROM meta WHERE key = ?`, activeKey)
	if errors.Is(err, sql.ErrNoRows) {
		return DefaultProfile, nil
	}
	if err != nil {
		return "", storageErr("get active profile", err)
	}
	if !name.Valid || name.String == "" {
		return DefaultProfile, nil
	}
	return name.String, nil
}

// ListProfiles returns all profile names in lexicographic order.
func (s *Store) ListProfiles(ctx context.Context) ([]string, error) {
	names := []string{}
	if err := s.db.SelectContext(ctx, &names, `SELECT name FROM profiles ORDER BY name`); err != nil {
		return nil, storageErr("list profiles", err)
	}
	return names, nil
}

// ListProfileInfo returns every profile with its entry count, ordered by name.
func (s *Store) ListProfileInfo(ctx context.Context) ([]ProfileInfo, error) {
	infos := []ProfileInfo{}
	err := s.db.SelectContext(ctx, &infos,
		`SELECT p.name, p.created_at, COUNT(e.host) AS entry_count
		 FROM profiles p
		 LEFT JOIN entries e ON e.profile_name = p.name
		 GROUP BY p.name, p.created_at
		 ORDER BY p.name`)
	if err != nil {
		return nil, storageErr("list profile info", err)
	}
	return infos, nil
}

// ProfileExists reports whether name is a registered profile.
func (s *Store) ProfileExists(ctx context.Context, name string) (bool, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM profiles WHERE name = ?`, name); err != nil {
		return false, storageErr("check profile", err)
	}
	return n > 0, nil
}

// UpsertEntry inserts the entry or replaces the address of an existing one.
func (s *Store) UpsertEntry(ctx context.Context, profile, host, address string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO entries (profile_name, host, address) VALUES (?, ?, ?)
		 ON CONFLICT(profile_name, host) DO UPDATE SET address = excluded.address`,
		profile, host, address)
	if err != nil {
		return storageErr("upsert entry", err)
	}
	return nil
}

// DeleteEntry removes the entry and reports whether it existed.
func (s *Store) DeleteEntry(ctx context.Context, profile, host string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM entries WHERE profile_name = ? AND host = ?`, profile, host)
	if err != nil {
		return false, storageErr("delete entry", err)
	}
	return affected(res)
}

// UpdateEntry changes the address of an existing entry. It never creates a
// row and reports whether one existed.
func (s *Store) UpdateEntry(ctx context.Context, profile, host, address string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE entries SET address = ? WHERE profile_name = ? AND host = ?`,
		address, profile, host)
	if err != nil {
		return false, storageErr("update entry", err)
	}
	return affected(res)
}

// GetEntries returns the entries of profile in no particular order.
func (s *Store) GetEntries(ctx context.Context, profile string) ([]Entry, error) {
	entries := []Entry{}
	err := s.db.SelectContext(ctx, &entries,
		`SELECT host, address FROM entries WHERE profile_name = ?`, profile)
	if err != nil {
		return nil, storageErr("get entries", err)
	}
	return entries, nil
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, storageErr("read affected rows", err)
	}
	return n > 0, nil
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorageUnavailable, op, err)
}
