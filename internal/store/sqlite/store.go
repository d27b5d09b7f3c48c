// Package sqlite implements store.Store on a single SQLite table of JSON records.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/boatyard/boatyard-server/internal/domain"
	"github.com/boatyard/boatyard-server/internal/store"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// fieldPattern restricts filter fields to plain JSON member names.
var fieldPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Store provides SQLite-backed persistence. Ids come from one AUTOINCREMENT
// column, so they are unique across kinds and never reused.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open creates a new SQLite store at the given path.
// It configures WAL mode, sets pragmas, and applies the schema.
func Open(path string, logger *slog.Logger) (*Store, error) {
	// busy_timeout is per connection, so it goes in the DSN to reach every pooled one.
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("exec schema: %w", err)
	}

	if logger != nil {
		logger.Info("SQLite database opened successfully", "path", path)
	}

	return &Store{db: db, logger: logger}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the connection.
func (s *Store) Ping(ctx context.Context) error {
	return wrapErr(s.db.PingContext(ctx), "ping")
}

// Create inserts a record and returns its row id.
func (s *Store) Create(ctx context.Context, kind domain.Kind, attrs store.Attributes) (int64, error) {
	data, err := json.Marshal(attrs)
	if err != nil {
		return 0, fmt.Errorf("marshal attributes: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `INSERT INTO entities (kind, attrs) VALUES (?, ?)`, string(kind), string(data))
	if err != nil {
		return 0, wrapErr(err, "insert")
	}
	return res.LastInsertId()
}

// Get returns the attributes of kind/id.
func (s *Store) Get(ctx context.Context, kind domain.Kind, id int64) (store.Attributes, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT attrs FROM entities WHERE kind = ? AND id = ?`, string(kind), id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, wrapErr(err, "get")
	}
	return store.DecodeAttributes([]byte(data))
}

// Update replaces the attributes of kind/id.
func (s *Store) Update(ctx context.Context, kind domain.Kind, id int64, attrs store.Attributes) error {
	data, err := json.Marshal(attrs)
	if err != nil {
		return fmt.Errorf("marshal attributes: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `UPDATE entities SET attrs = ? WHERE kind = ? AND id = ?`, string(data), string(kind), id)
	if err != nil {
		return wrapErr(err, "update")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrapErr(err, "update")
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Delete removes kind/id if present.
func (s *Store) Delete(ctx context.Context, kind domain.Kind, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM entities WHERE kind = ? AND id = ?`, string(kind), id)
	return wrapErr(err, "delete")
}

// Query returns one page of matching records. The cursor is the last id returned.
func (s *Store) Query(ctx context.Context, q store.Query) (*store.Page, error) {
	after, err := decodeIDCursor(q.Cursor)
	if err != nil {
		return nil, err
	}

	where, args, err := whereClause(q.Kind, q.Filters)
	if err != nil {
		return nil, err
	}
	where += " AND id > ?"
	args = append(args, after)

	query := `SELECT id, attrs FROM entities WHERE ` + where + ` ORDER BY id`
	if q.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, q.Limit+1)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrapErr(err, "query")
	}
	defer rows.Close()

	page := &store.Page{Items: []store.Record{}}
	for rows.Next() {
		var (
			id   int64
			data string
		)
		if err := rows.Scan(&id, &data); err != nil {
			return nil, wrapErr(err, "scan")
		}
		if q.Limit > 0 && len(page.Items) == q.Limit {
			page.NextCursor = store.EncodeCursor(strconv.FormatInt(page.Items[len(page.Items)-1].ID, 10))
			break
		}
		attrs, err := store.DecodeAttributes([]byte(data))
		if err != nil {
			return nil, err
		}
		page.Items = append(page.Items, store.Record{ID: id, Attributes: attrs})
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(err, "query")
	}
	return page, nil
}

// Count returns the number of matching records.
func (s *Store) Count(ctx context.Context, kind domain.Kind, filters []store.Filter) (int, error) {
	where, args, err := whereClause(kind, filters)
	if err != nil {
		return 0, err
	}

	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entities WHERE `+where, args...).Scan(&n); err != nil {
		return 0, wrapErr(err, "count")
	}
	return n, nil
}

func whereClause(kind domain.Kind, filters []store.Filter) (string, []any, error) {
	var b strings.Builder
	b.WriteString("kind = ?")
	args := []any{string(kind)}

	for _, f := range filters {
		if !fieldPattern.MatchString(f.Field) {
			return "", nil, fmt.Errorf("invalid filter field %q", f.Field)
		}
		b.WriteString(" AND json_extract(attrs, '$." + f.Field + "') = ?")
		args = append(args, store.Scalar(f.Value))
	}
	return b.String(), args, nil
}

func decodeIDCursor(cursor string) (int64, error) {
	raw, err := store.DecodeCursor(cursor)
	if err != nil || raw == "" {
		return 0, err
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 0 {
		return 0, store.ErrInvalidCursor.WithCause(fmt.Errorf("cursor %q is not an id", raw))
	}
	return id, nil
}

// wrapErr reports connection-level failures as store.ErrUnavailable.
func wrapErr(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, sql.ErrConnDone), strings.Contains(err.Error(), "database is closed"):
		return store.ErrUnavailable.WithCause(fmt.Errorf("sqlite %s: %w", op, err))
	default:
		return fmt.Errorf("sqlite %s: %w", op, err)
	}
}
