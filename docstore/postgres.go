package docstore

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"

	// Registers the pgx database/sql driver under the name "pgx".
	_ "github.com/jackc/pgx/v5/stdlib"
)

//go:embed migrations/*.sql
var migrations embed.FS

// PostgresStore keeps every document in a single JSONB table keyed by
// (collection, id). Filters compile to data->> predicates so matching runs
// inside the database, unlike the Redis backend.
type PostgresStore struct {
	db *sql.DB
}

// OpenPostgres connects to dsn with the pgx driver, applies pending
// migrations, and returns the store.
func OpenPostgres(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

// NewPostgresStore wraps an already opened connection pool. Callers own the
// pool lifecycle and migrations.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate applies the embedded goose migrations.
func Migrate(db *sql.DB) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("%w: migrate: %v", ErrUnavailable, err)
	}
	return nil
}

// Close releases the underlying pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

// Create stores a new document under a generated UUID.
func (s *PostgresStore) Create(ctx context.Context, collection string, fields Fields) (Document, error) {
	id := uuid.NewString()
	data, err := json.Marshal(fields)
	if err != nil {
		return Document{}, err
	}

	const query = `INSERT INTO documents (collection, id, data) VALUES ($1, $2, $3)`
	if _, err := s.db.ExecContext(ctx, query, collection, id, data); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return Document{ID: id, Fields: cloneFields(fields)}, nil
}

// Get fetches one document by ID.
func (s *PostgresStore) Get(ctx context.Context, collection, id string) (Document, error) {
	const query = `SELECT data FROM documents WHERE collection = $1 AND id = $2`

	var data []byte
	err := s.db.QueryRowContext(ctx, query, collection, id).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return decodeDocument(id, data)
}

// List returns the documents of a collection matching q. Equality filters
// compare the JSONB text projection; less-than filters cast to numeric.
func (s *PostgresStore) List(ctx context.Context, collection string, q Query) ([]Document, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT id, data FROM documents WHERE collection = $1`)
	args := []any{collection}

	for _, f := range q.Filters {
		args = append(args, filterArg(f))
		switch f.Op {
		case OpLt:
			sb.WriteString(` AND (data->>'` + jsonKey(f.Field) + `')::numeric < $` + strconv.Itoa(len(args)))
		default:
			sb.WriteString(` AND data->>'` + jsonKey(f.Field) + `' = $` + strconv.Itoa(len(args)))
		}
	}

	if q.OrderBy != "" {
		sb.WriteString(` ORDER BY data->>'` + jsonKey(q.OrderBy) + `'`)
		if q.Desc {
			sb.WriteString(` DESC`)
		}
	}
	if q.Limit > 0 {
		sb.WriteString(` LIMIT ` + strconv.Itoa(q.Limit))
	}

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer rows.Close()

	docs := []Document{}
	for rows.Next() {
		var (
			id   string
			data []byte
		)
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		doc, decErr := decodeDocument(id, data)
		if decErr != nil {
			return nil, decErr
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return docs, nil
}

// Update merges fields into an existing document via jsonb concatenation.
func (s *PostgresStore) Update(ctx context.Context, collection, id string, fields Fields) (Document, error) {
	patch, err := json.Marshal(fields)
	if err != nil {
		return Document{}, err
	}

	const query = `UPDATE documents SET data = data || $3::jsonb WHERE collection = $1 AND id = $2 RETURNING data`

	var data []byte
	err = s.db.QueryRowContext(ctx, query, collection, id, patch).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return decodeDocument(id, data)
}

// Delete removes a document; deleting an absent document is a no-op.
func (s *PostgresStore) Delete(ctx context.Context, collection, id string) error {
	const query = `DELETE FROM documents WHERE collection = $1 AND id = $2`
	if _, err := s.db.ExecContext(ctx, query, collection, id); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// filterArg flattens filter values to the text/numeric form the SQL
// predicates expect.
func filterArg(f Filter) any {
	if f.Op == OpLt {
		if n, ok := toFloat(f.Value); ok {
			return n
		}
		return f.Value
	}
	switch v := f.Value.(type) {
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	}
	if n, ok := toFloat(f.Value); ok {
		// data->> projects numbers as text; match integer rendering.
		if n == float64(int64(n)) {
			return strconv.FormatInt(int64(n), 10)
		}
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return stringify(f.Value)
}

// jsonKey guards against quote injection through field names. Field names
// come from code, not users, but the predicate is assembled by string
// concatenation so the guard stays.
func jsonKey(field string) string {
	return strings.ReplaceAll(field, "'", "")
}
