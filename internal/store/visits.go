package store

import (
	"database/sql"
	"errors"
	"fmt"
)

// IncrementPostVisit adds one visit to slug and returns the new count.
func (db *DB) IncrementPostVisit(slug string) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	var count int64
	err := db.conn.QueryRow(
		`INSERT INTO post_visits (slug, count, updated_at) VALUES (?, 1, unixepoch())
		 ON CONFLICT(slug) DO UPDATE SET count = count + 1, updated_at = excluded.updated_at
		 RETURNING count`,
		slug,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("increment post visit: %w", err)
	}
	return count, nil
}

// PostVisits returns the visit count of every slug seen so far.
func (db *DB) PostVisits() (map[string]int64, error) {
	rows, err := db.conn.Query(`SELECT slug, count FROM post_visits`)
	if err != nil {
		return nil, fmt.Errorf("get post visits: %w", err)
	}
	defer rows.Close()

	visits := make(map[string]int64)
	for rows.Next() {
		var slug string
		var count int64
		if err := rows.Scan(&slug, &count); err != nil {
			return nil, fmt.Errorf("scan post visits: %w", err)
		}
		visits[slug] = count
	}
	return visits, rows.Err()
}

// PostVisit returns the visit count for one slug; unknown slugs have zero.
func (db *DB) PostVisit(slug string) (int64, error) {
	var count int64
	err := db.conn.QueryRow(`SELECT count FROM post_visits WHERE slug = ?`, slug).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get post visit: %w", err)
	}
	return count, nil
}

// IncrementCounter adds one to the named counter and returns the new value.
func (db *DB) IncrementCounter(name string) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	var value int64
	err := db.conn.QueryRow(
		`INSERT INTO counters (name, value) VALUES (?, 1)
		 ON CONFLICT(name) DO UPDATE SET value = value + 1
		 RETURNING value`,
		name,
	).Scan(&value)
	if err != nil {
		return 0, fmt.Errorf("increment counter %s: %w", name, err)
	}
	return value, nil
}

// Counter returns the named counter, zero when it was never incremented.
func (db *DB) Counter(name string) (int64, error) {
	var value int64
	err := db.conn.QueryRow(`SELECT value FROM counters WHERE name = ?`, name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get counter %s: %w", name, err)
	}
	return value, nil
}

// AddVisitor records a visitor id. It reports whether the id was new.
func (db *DB) AddVisitor(id string) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	res, err := db.conn.Exec(`INSERT OR IGNORE INTO visitors (id) VALUES (?)`, id)
	if err != nil {
		return false, fmt.Errorf("add visitor: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// VisitorCount returns the number of distinct visitors recorded.
func (db *DB) VisitorCount() (int64, error) {
	var n int64
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM visitors`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count visitors: %w", err)
	}
	return n, nil
}

// MetaGet returns a value from the meta table.
func (db *DB) MetaGet(key string) (string, bool, error) {
	var value string
	err := db.conn.QueryRow(`SELECT value FROM meta WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get meta %s: %w", key, err)
	}
	return value, true, nil
}

// MetaSetIfAbsent stores value under key unless the key exists, and returns
// the value now stored.
func (db *DB) MetaSetIfAbsent(key, value string) (string, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	if _, err := db.conn.Exec(`INSERT OR IGNORE INTO meta (key, value) VALUES (?, ?)`, key, value); err != nil {
		return "", fmt.Errorf("set meta %s: %w", key, err)
	}
	var stored string
	if err := db.conn.QueryRow(`SELECT value FROM meta WHERE key = ?`, key).Scan(&stored); err != nil {
		return "", fmt.Errorf("get meta %s: %w", key, err)
	}
	return stored, nil
}
