package database

import (
	"context"
	"database/sql/driver"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/DioGolang/GoData/internal/application/port/outbound"
	"github.com/DioGolang/GoData/internal/domain/entity"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPostgresMock(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresStore(db, "Main-DB"), mock
}

func TestPostgresStore_FindByID(t *testing.T) {
	ctx := context.Background()
	s, mock := newPostgresMock(t)
	q := `SELECT doc FROM "main_db"."notes" WHERE id = $1`
	mock.ExpectQuery(q).WithArgs("1").
		WillReturnRows(sqlmock.NewRows([]string{"doc"}).AddRow([]byte(`{"id":"1","title":"a"}`)))
	mock.ExpectQuery(q).WithArgs("2").
		WillReturnRows(sqlmock.NewRows([]string{"doc"}))

	var n entity.Note
	err := s.FindByID(ctx, "notes", "1", &n)
	missErr := s.FindByID(ctx, "notes", "2", &entity.Note{})

	require.NoError(t, err)
	assert.Equal(t, "a", n.Title)
	assert.ErrorIs(t, missErr, outbound.ErrNoDocument)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_FindAllProjected(t *testing.T) {
	ctx := context.Background()
	s, mock := newPostgresMock(t)
	mock.ExpectQuery(`SELECT jsonb_build_object('id', doc->'id', 'title', doc->'title', 'author', doc->'author', 'disabled', doc->'disabled') FROM "main_db"."notes" ORDER BY id`).
		WillReturnRows(sqlmock.NewRows([]string{"jsonb_build_object"}).
			AddRow([]byte(`{"id":"1","title":"a","author":null,"disabled":false}`)))

	var out []entity.NoteSummary
	err := s.FindAllProjected(ctx, "notes", &out)

	require.NoError(t, err)
	assert.Equal(t, []entity.NoteSummary{{ID: "1", Title: "a"}}, out)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_FindAllEmpty(t *testing.T) {
	s, mock := newPostgresMock(t)
	mock.ExpectQuery(`SELECT doc FROM "main_db"."notes" ORDER BY id`).
		WillReturnRows(sqlmock.NewRows([]string{"doc"}))

	out := []entity.Note{}
	err := s.FindAll(context.Background(), "notes", &out)

	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestPostgresStore_CommitWrites(t *testing.T) {
	//Arrange
	ctx := context.Background()
	s, mock := newPostgresMock(t)
	at := fixedNow
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "main_db"."notes" (id, doc) VALUES ($1, $2)`).
		WithArgs("1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM "main_db"."notes" WHERE id = ANY($1)`).
		WithArgs(pqArray{"2", "3"}).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "main_db"."notes" SET doc = doc || jsonb_build_object('disabled', true, 'updatedAt', $2::jsonb, 'updatedBy', $3::text) WHERE id = ANY($1)`).
		WithArgs(pqArray{"4"}, `"2024-03-01T12:00:00Z"`, "frank").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	//Act
	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Insert(ctx, "notes", []entity.Entity{&entity.Note{Base: entity.Base{ID: "1"}}}))
	require.NoError(t, tx.Delete(ctx, "notes", []string{"2", "3"}))
	require.NoError(t, tx.Disable(ctx, "notes", []string{"4"}, outbound.Audit{ActorID: "frank", At: at}))
	err = tx.Commit(ctx)

	//Assert
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DuplicateInsert(t *testing.T) {
	ctx := context.Background()
	s, mock := newPostgresMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "main_db"."notes" (id, doc) VALUES ($1, $2)`).
		WillReturnError(&pq.Error{Code: pgUniqueViolation})
	mock.ExpectRollback()

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	err = tx.Insert(ctx, "notes", []entity.Entity{&entity.Note{Base: entity.Base{ID: "1"}}})

	assert.ErrorIs(t, err, outbound.ErrDuplicateID)
	assert.NoError(t, tx.Rollback(ctx))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_EnsureCollections(t *testing.T) {
	s, mock := newPostgresMock(t)
	mock.ExpectExec(`CREATE SCHEMA IF NOT EXISTS "main_db"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS "main_db"."notes" (id TEXT PRIMARY KEY, doc JSONB NOT NULL)`).
		WillReturnError(errors.New("permission denied"))

	err := s.EnsureCollections(context.Background(), "notes")

	assert.ErrorContains(t, err, "permission denied")
	assert.NoError(t, mock.ExpectationsWereMet())
}

// pqArray matches the driver value pq.Array produces for a string slice.
type pqArray []string

func (a pqArray) Match(v driver.Value) bool {
	want, err := pq.Array([]string(a)).Value()
	if err != nil {
		return false
	}
	return v == want
}
