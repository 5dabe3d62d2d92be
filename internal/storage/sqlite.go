// Package storage reads and edits a Zenit SQLite database directly, serving
// as a snapshot source for the dashboard.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/woozymasta/zenit-dash/internal/dashboard"
	_ "modernc.org/sqlite" // Driver sqlite
)

// ErrNotFound is returned when a node does not exist.
var ErrNotFound = errors.New("node not found")

const selectNodes = `
	SELECT application, ip, port,
	       COALESCE(version, ''), COALESCE(country_code, ''), COALESCE(type, ''),
	       COALESCE(server_name, ''), COALESCE(map_name, ''),
	       COALESCE(players, 0), COALESCE(max_players, 0),
	       COALESCE(game_version, ''), COALESCE(game_name, ''), COALESCE(server_os, ''),
	       COALESCE(count, 0), first_seen, last_seen
	FROM nodes`

// Repository manages the SQLite database connection.
type Repository struct {
	db *sql.DB
}

// New initializes a new SQLite connection, sets connection pool parameters, and runs migrations.
func New(ctx context.Context, dbPath string) (*Repository, error) {
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(1 * time.Hour)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open database %s: %w", dbPath, err)
	}

	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Repository{db: db}, nil
}

// Close closes the underlying database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// Records returns every node, most recently seen first.
func (r *Repository) Records(ctx context.Context) ([]dashboard.Record, error) {
	rows, err := r.db.QueryContext(ctx, selectNodes+" ORDER BY last_seen DESC")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	records := make([]dashboard.Record, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

// Node returns one node by its key, or ErrNotFound.
func (r *Repository) Node(ctx context.Context, key dashboard.NodeKey) (*dashboard.Record, error) {
	row := r.db.QueryRowContext(ctx, selectNodes+" WHERE application = ? AND ip = ? AND port = ?",
		key.Application, key.IP, key.Port)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &rec, nil
}

// DeleteNode removes a specific node identified by app, ip, and port.
func (r *Repository) DeleteNode(ctx context.Context, key dashboard.NodeKey) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM nodes WHERE application = ? AND ip = ? AND port = ?`,
		key.Application, key.IP, key.Port)

	return err
}

// InsertRecords writes records in one transaction, replacing existing nodes.
func (r *Repository) InsertRecords(ctx context.Context, records []dashboard.Record) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT OR REPLACE INTO nodes (
		application, ip, port, version, country_code, type,
		server_name, map_name, players, max_players, game_version, game_name, server_os,
		count, first_seen, last_seen
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	for _, n := range records {
		if _, err := stmt.ExecContext(ctx,
			n.Application, n.IP, int64(n.Port), n.Version, n.CountryCode, n.Type,
			n.ServerName, n.MapName, int64(n.Players), int64(n.MaxPlayers), n.GameVersion, n.GameName, n.ServerOS,
			int64(n.Count), n.FirstSeen.Time(), n.LastSeen.Time(),
		); err != nil {
			return fmt.Errorf("insert %s: %w", n.Key(), err)
		}
	}

	return tx.Commit()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (dashboard.Record, error) {
	var (
		n                           dashboard.Record
		port, players, maxPl, count int64
		firstSeen, lastSeen         any
	)

	if err := s.Scan(
		&n.Application, &n.IP, &port, &n.Version, &n.CountryCode, &n.Type,
		&n.ServerName, &n.MapName, &players, &maxPl, &n.GameVersion, &n.GameName, &n.ServerOS,
		&count, &firstSeen, &lastSeen,
	); err != nil {
		return n, err
	}

	n.Port = dashboard.Number(port)
	n.Players = dashboard.Number(players)
	n.MaxPlayers = dashboard.Number(maxPl)
	n.Count = dashboard.Number(count)
	n.FirstSeen = seenTimestamp(firstSeen)
	n.LastSeen = seenTimestamp(lastSeen)

	return n, nil
}

// seenTimestamp maps a raw DATETIME column value to a Timestamp. Text the
// driver could not parse as a time is kept as an unparsable Timestamp so a
// single bad row does not fail the whole load.
func seenTimestamp(v any) dashboard.Timestamp {
	switch t := v.(type) {
	case time.Time:
		return dashboard.NewTimestamp(t)
	case string:
		return dashboard.ParseTimestamp(t)
	case []byte:
		return dashboard.ParseTimestamp(string(t))
	case int64:
		return dashboard.NewTimestamp(time.Unix(t, 0))
	default:
		return dashboard.Timestamp{}
	}
}
