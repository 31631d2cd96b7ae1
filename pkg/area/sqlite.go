package area

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	// register the "sqlite" driver
	_ "modernc.org/sqlite"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS items (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
)`

// sqliteMaxParams stays below the host parameter limit of older sqlite builds
const sqliteMaxParams = 500

// SQLite implements Area on top of a single sqlite table
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens the database at path and creates the items table.
// ":memory:" opens a private in-memory database.
func OpenSQLite(path string) (*SQLite, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	dsn := ":memory:"
	if path != dsn {
		dsn = filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if path == ":memory:" {
		// every connection would otherwise see its own database
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create items table: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Get(keys []string, cb func(items Items, err error)) {
	go func() {
		items, err := s.get(context.Background(), keys)
		if cb != nil {
			cb(items, err)
		}
	}()
}

func (s *SQLite) Set(items Items, cb func(err error)) {
	values := make(Items, len(items))
	for k, v := range items {
		values[k] = v
	}
	go func() {
		callback(cb, s.tx(context.Background(), func(tx *sql.Tx) error {
			for k, v := range values {
				if _, err := tx.Exec(`INSERT INTO items (key, value) VALUES (?, ?)
					ON CONFLICT(key) DO UPDATE SET value = excluded.value`, k, v); err != nil {
					return errors.Wrapf(err, "failed to write %q", k)
				}
			}
			return nil
		}))
	}()
}

func (s *SQLite) Remove(keys []string, cb func(err error)) {
	keys = append([]string(nil), keys...)
	go func() {
		callback(cb, s.tx(context.Background(), func(tx *sql.Tx) error {
			for _, k := range keys {
				if _, err := tx.Exec(`DELETE FROM items WHERE key = ?`, k); err != nil {
					return errors.Wrapf(err, "failed to remove %q", k)
				}
			}
			return nil
		}))
	}()
}

func (s *SQLite) Clear(cb func(err error)) {
	go func() {
		_, err := s.db.Exec(`DELETE FROM items`)
		callback(cb, err)
	}()
}

func (s *SQLite) GetBytesInUse(keys []string, cb func(bytes int64, err error)) {
	go func() {
		n, err := s.bytesInUse(context.Background(), keys)
		if cb != nil {
			cb(n, err)
		}
	}()
}

func (s *SQLite) Quota() Quota {
	return Quota{}
}

// Close closes the sqlite handle
func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// ------------------------------------------------------------------------------------------------
// ~ Private methods
// ------------------------------------------------------------------------------------------------

func (s *SQLite) get(ctx context.Context, keys []string) (Items, error) {
	const query = `SELECT key, value FROM items`
	items := Items{}
	if keys == nil {
		return items, s.queryItems(ctx, items, query)
	}
	for _, batch := range batches(keys, sqliteMaxParams) {
		if err := s.queryItems(ctx, items, query+` WHERE key IN (`+placeholders(len(batch))+`)`, batch...); err != nil {
			return nil, err
		}
	}
	return items, nil
}

func (s *SQLite) queryItems(ctx context.Context, items Items, query string, args ...any) error {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return err
		}
		items[k] = v
	}
	return rows.Err()
}

func (s *SQLite) bytesInUse(ctx context.Context, keys []string) (int64, error) {
	const query = `SELECT COALESCE(SUM(length(CAST(key AS BLOB)) + length(CAST(value AS BLOB))), 0) FROM items`
	if keys == nil {
		var n int64
		err := s.db.QueryRowContext(ctx, query).Scan(&n)
		return n, err
	}
	var total int64
	for _, batch := range batches(keys, sqliteMaxParams) {
		var n int64
		if err := s.db.QueryRowContext(ctx, query+` WHERE key IN (`+placeholders(len(batch))+`)`, batch...).Scan(&n); err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

func (s *SQLite) tx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// batches splits keys into query arguments of at most size entries
func batches(keys []string, size int) [][]any {
	var ret [][]any
	for len(keys) > 0 {
		n := min(size, len(keys))
		batch := make([]any, n)
		for i, k := range keys[:n] {
			batch[i] = k
		}
		ret = append(ret, batch)
		keys = keys[n:]
	}
	return ret
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
