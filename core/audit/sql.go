package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	sqliteSchema = `CREATE TABLE IF NOT EXISTS prediction_logs (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        ts INTEGER NOT NULL,
        request_id TEXT NOT NULL,
        outcome TEXT NOT NULL,
        record TEXT NOT NULL
    );`
	postgresSchema = `CREATE TABLE IF NOT EXISTS prediction_logs (
        id BIGSERIAL PRIMARY KEY,
        ts BIGINT NOT NULL,
        request_id TEXT NOT NULL,
        outcome TEXT NOT NULL,
        record JSONB NOT NULL
    );`
)

type logRow struct {
	Record string `db:"record"`
}

// SQLStore persists records in a prediction_logs table. Timestamps are
// stored as unix milliseconds.
type SQLStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens or creates the database at path and ensures schema.
func NewSQLiteStore(path string) (*SQLStore, error) {
	return openSQL("sqlite", path, sqliteSchema)
}

// NewPostgresStore connects with the given DSN and ensures schema.
func NewPostgresStore(dsn string) (*SQLStore, error) {
	return openSQL("postgres", dsn, postgresSchema)
}

func openSQL(driver, dsn, schema string) (*SQLStore, error) {
	db, err := sqlx.Connect(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s audit store: %w", driver, err)
	}
	if _, err := db.Exec(schema); err != nil {
		if cerr := db.Close(); cerr != nil {
			return nil, fmt.Errorf("close db: %v (schema err: %w)", cerr, err)
		}
		return nil, err
	}
	return &SQLStore{db: db}, nil
}

// Append writes the record to the database.
func (s *SQLStore) Append(ctx context.Context, rec Record) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, s.db.Rebind(
		`INSERT INTO prediction_logs (ts, request_id, outcome, record) VALUES (?, ?, ?, ?)`),
		rec.Timestamp.UnixMilli(), rec.RequestID, string(rec.Outcome), string(b))
	return err
}

// Query returns records matching q, oldest first.
func (s *SQLStore) Query(ctx context.Context, q Query) ([]Record, error) {
	var (
		where []string
		args  []any
	)
	if !q.Start.IsZero() {
		where = append(where, "ts >= ?")
		args = append(args, q.Start.UnixMilli())
	}
	if !q.End.IsZero() {
		where = append(where, "ts <= ?")
		args = append(args, q.End.UnixMilli())
	}
	if q.Outcome != "" {
		where = append(where, "outcome = ?")
		args = append(args, string(q.Outcome))
	}
	query := `SELECT record FROM prediction_logs`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY ts DESC, id DESC`
	if q.Limit > 0 {
		query += fmt.Sprintf(` LIMIT %d`, q.Limit)
	}
	var rows []logRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	res := make([]Record, len(rows))
	for i, row := range rows {
		var r Record
		if err := json.Unmarshal([]byte(row.Record), &r); err != nil {
			return nil, fmt.Errorf("unmarshal record: %w", err)
		}
		res[len(rows)-1-i] = r
	}
	return res, nil
}

// Close closes the underlying database.
func (s *SQLStore) Close() error { return s.db.Close() }
