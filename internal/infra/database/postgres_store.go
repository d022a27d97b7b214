package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/DioGolang/GoData/internal/application/port/outbound"
	"github.com/DioGolang/GoData/internal/domain/entity"
	"github.com/lib/pq"
)

const pgUniqueViolation = "23505"

var identRe = regexp.MustCompile(`[^a-zA-Z0-9_]+`)

// PostgresStore keeps each collection as a JSONB table inside a schema named
// after the database. Documents are stored in their json encoding.
type PostgresStore struct {
	db       *sql.DB
	database string
	schema   string
	release  func(ctx context.Context) error
}

func NewPostgresStore(db *sql.DB, database string) *PostgresStore {
	return &PostgresStore{
		db:       db,
		database: database,
		schema:   pgIdent(database),
		release:  func(context.Context) error { return db.Close() },
	}
}

func pgIdent(name string) string {
	return strings.ToLower(identRe.ReplaceAllString(name, "_"))
}

func (s *PostgresStore) table(collection string) string {
	return pq.QuoteIdentifier(s.schema) + "." + pq.QuoteIdentifier(pgIdent(collection))
}

func (s *PostgresStore) Database() string { return s.database }

func (s *PostgresStore) EnsureCollections(ctx context.Context, collections ...string) error {
	if _, err := s.db.ExecContext(ctx, "CREATE SCHEMA IF NOT EXISTS "+pq.QuoteIdentifier(s.schema)); err != nil {
		return fmt.Errorf("create schema %s: %w", s.schema, err)
	}
	for _, c := range collections {
		q := "CREATE TABLE IF NOT EXISTS " + s.table(c) + " (id TEXT PRIMARY KEY, doc JSONB NOT NULL)"
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table %s: %w", c, err)
		}
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, collection, id string, out any) error {
	var raw []byte
	err := s.db.QueryRowContext(ctx, "SELECT doc FROM "+s.table(collection)+" WHERE id = $1", id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return outbound.ErrNoDocument
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func (s *PostgresStore) FindAll(ctx context.Context, collection string, out any) error {
	return s.list(ctx, "SELECT doc FROM "+s.table(collection)+" ORDER BY id", out)
}

// FindAllProjected builds the projected document in SQL from the json field names of
// the destination element type.
func (s *PostgresStore) FindAllProjected(ctx context.Context, collection string, out any) error {
	fields, err := projectedFields(out, "json")
	if err != nil {
		return err
	}
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, pq.QuoteLiteral(f)+", doc->"+pq.QuoteLiteral(f))
	}
	q := "SELECT jsonb_build_object(" + strings.Join(parts, ", ") + ") FROM " + s.table(collection) + " ORDER BY id"
	return s.list(ctx, q, out)
}

func (s *PostgresStore) list(ctx context.Context, query string, out any) error {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	var docs [][]byte
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return err
		}
		docs = append(docs, raw)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	return decodeList(docs, out)
}

func (s *PostgresStore) Begin(ctx context.Context) (outbound.StoreTx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &postgresTx{store: s, tx: tx}, nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) Close(ctx context.Context) error {
	return s.release(ctx)
}

type postgresTx struct {
	store *PostgresStore
	tx    *sql.Tx
}

func (t *postgresTx) Insert(ctx context.Context, collection string, docs []entity.Entity) error {
	return t.write(ctx, "INSERT INTO "+t.store.table(collection)+" (id, doc) VALUES ($1, $2)", docs)
}

func (t *postgresTx) Replace(ctx context.Context, collection string, docs []entity.Entity) error {
	q := "INSERT INTO " + t.store.table(collection) + " (id, doc) VALUES ($1, $2) ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc"
	return t.write(ctx, q, docs)
}

func (t *postgresTx) write(ctx context.Context, query string, docs []entity.Entity) error {
	raw, ids, err := encodeDocs(docs)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if _, err := t.tx.ExecContext(ctx, query, id, raw[id]); err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation {
				return fmt.Errorf("%w: %s", outbound.ErrDuplicateID, id)
			}
			return err
		}
	}
	return nil
}

func (t *postgresTx) Delete(ctx context.Context, collection string, ids []string) error {
	_, err := t.tx.ExecContext(ctx, "DELETE FROM "+t.store.table(collection)+" WHERE id = ANY($1)", pq.Array(ids))
	return err
}

func (t *postgresTx) Disable(ctx context.Context, collection string, ids []string, audit outbound.Audit) error {
	at, err := json.Marshal(audit.At)
	if err != nil {
		return err
	}
	q := "UPDATE " + t.store.table(collection) +
		" SET doc = doc || jsonb_build_object('" + fieldDisabled + "', true, '" + fieldUpdatedAt + "', $2::jsonb, '" + fieldUpdatedBy + "', $3::text)" +
		" WHERE id = ANY($1)"
	_, err = t.tx.ExecContext(ctx, q, pq.Array(ids), string(at), audit.ActorID)
	return err
}

func (t *postgresTx) Commit(_ context.Context) error {
	return t.tx.Commit()
}

func (t *postgresTx) Rollback(_ context.Context) error {
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	return nil
}
