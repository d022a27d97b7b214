package app

import (
	"context"
	"testing"

	"github.com/DioGolang/GoData/configs"
	"github.com/DioGolang/GoData/internal/application/dataservice"
	"github.com/DioGolang/GoData/internal/domain/entity"
	"github.com/DioGolang/GoData/internal/infra/web/handler"
	"github.com/DioGolang/GoData/pkg/dataerr"
	"github.com/DioGolang/GoData/pkg/logger"
	"github.com/DioGolang/GoData/pkg/mapper"
	"github.com/DioGolang/GoData/pkg/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryConf() *configs.Conf {
	return &configs.Conf{
		StoreDriver:     "memory",
		Databases:       []string{"main", "archive"},
		DefaultDatabase: "main",
		SnowflakeNode:   1,
	}
}

func TestNewServices_OverMemoryStores(t *testing.T) {
	ctx := context.Background()
	uows, err := OpenUnitsOfWork(ctx, memoryConf(), logger.NewNop(), metrics.NewNoop())
	require.NoError(t, err)
	defer uows.Close(ctx)

	services, err := NewServices(uows, logger.NewNop(), metrics.NewNoop())
	require.NoError(t, err)

	assert.Equal(t, []string{"archive", "main"}, services.Databases())
	assert.Equal(t, []string{"audit", "notes"}, services.Collections())

	notes, err := dataservice.GetCrud[entity.Note](services)
	require.NoError(t, err)
	defer notes.Close(ctx)
	id, err := notes.Add(ctx, &entity.Note{Title: "wired"}, dataservice.WithCommit())
	require.NoError(t, err)
	summary, err := dataservice.GetAs[entity.NoteSummary, entity.Note](ctx, notes, id)
	require.NoError(t, err)
	assert.Equal(t, "wired", summary.Title)
}

func TestNewMapper_NoteInputs(t *testing.T) {
	m := NewMapper()

	n, err := mapper.To[entity.Note](m, handler.CreateNoteInput{Title: " todo ", Tags: []string{"a"}})
	require.NoError(t, err)
	assert.Equal(t, "todo", n.Title)

	_, err = mapper.To[entity.Note](m, handler.CreateNoteInput{})
	assert.ErrorIs(t, err, dataerr.ErrInvalidArgument)
}

func TestOpenUnitsOfWork_BadConfig(t *testing.T) {
	cfg := memoryConf()
	cfg.DefaultDatabase = "missing"

	_, err := OpenUnitsOfWork(context.Background(), cfg, logger.NewNop(), metrics.NewNoop())

	assert.Error(t, err)
}
