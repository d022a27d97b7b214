package database

import (
	"context"
	"testing"

	"github.com/DioGolang/GoData/internal/application/port/outbound"
	"github.com/DioGolang/GoData/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_CommitIsAllOrNothing(t *testing.T) {
	//Arrange
	ctx := context.Background()
	s := NewMemoryStore("main")
	seed, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, seed.Insert(ctx, "notes", []entity.Entity{&entity.Note{Base: entity.Base{ID: "1"}, Title: "a"}}))
	require.NoError(t, seed.Commit(ctx))

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Insert(ctx, "notes", []entity.Entity{&entity.Note{Base: entity.Base{ID: "2"}, Title: "b"}}))
	require.NoError(t, tx.Insert(ctx, "notes", []entity.Entity{&entity.Note{Base: entity.Base{ID: "1"}, Title: "dup"}}))

	//Act
	err = tx.Commit(ctx)

	//Assert
	assert.ErrorIs(t, err, outbound.ErrDuplicateID)
	var all []entity.Note
	require.NoError(t, s.FindAll(ctx, "notes", &all))
	require.Len(t, all, 1)
	assert.Equal(t, "a", all[0].Title)
	assert.ErrorIs(t, tx.Commit(ctx), outbound.ErrTxDone)
}

func TestMemoryStore_CopiesOnReadAndWrite(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore("main")
	n := &entity.Note{Base: entity.Base{ID: "1"}, Title: "before", Tags: []string{"x"}}
	tx, _ := s.Begin(ctx)
	require.NoError(t, tx.Insert(ctx, "notes", []entity.Entity{n}))
	require.NoError(t, tx.Commit(ctx))

	n.Title = "mutated"
	var got entity.Note
	require.NoError(t, s.FindByID(ctx, "notes", "1", &got))
	got.Tags[0] = "y"

	var again entity.Note
	require.NoError(t, s.FindByID(ctx, "notes", "1", &again))
	assert.Equal(t, "before", again.Title)
	assert.Equal(t, []string{"x"}, again.Tags)
}

func TestMemoryStore_KeepsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore("main")
	tx, _ := s.Begin(ctx)
	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, tx.Replace(ctx, "notes", []entity.Entity{&entity.Note{Base: entity.Base{ID: id}}}))
	}
	require.NoError(t, tx.Delete(ctx, "notes", []string{"a", "zzz"}))
	require.NoError(t, tx.Commit(ctx))

	var all []entity.Note
	require.NoError(t, s.FindAll(ctx, "notes", &all))

	require.Len(t, all, 2)
	assert.Equal(t, "c", all[0].ID)
	assert.Equal(t, "b", all[1].ID)
}

func TestMemoryStore_RollbackDiscards(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore("main")
	tx, _ := s.Begin(ctx)
	require.NoError(t, tx.Insert(ctx, "notes", []entity.Entity{&entity.Note{Base: entity.Base{ID: "1"}}}))

	require.NoError(t, tx.Rollback(ctx))

	assert.ErrorIs(t, s.FindByID(ctx, "notes", "1", &entity.Note{}), outbound.ErrNoDocument)
	assert.ErrorIs(t, tx.Insert(ctx, "notes", nil), outbound.ErrTxDone)
}

func TestMemoryStore_Closed(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore("main")
	require.NoError(t, s.EnsureCollections(ctx, "notes"))
	require.NoError(t, s.Ping(ctx))

	require.NoError(t, s.Close(ctx))

	assert.ErrorIs(t, s.Ping(ctx), ErrStoreClosed)
	_, err := s.Begin(ctx)
	assert.ErrorIs(t, err, ErrStoreClosed)
	assert.ErrorIs(t, s.FindAll(ctx, "notes", &[]entity.Note{}), ErrStoreClosed)
}

func TestMemoryStore_RejectsBadDestination(t *testing.T) {
	s := NewMemoryStore("main")

	err := s.FindAll(context.Background(), "notes", []entity.Note{})

	assert.ErrorContains(t, err, "pointer to a slice")
}
