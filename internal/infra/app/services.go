package app

import (
	"context"
	"fmt"

	"github.com/DioGolang/GoData/configs"
	"github.com/DioGolang/GoData/internal/application/dataservice"
	"github.com/DioGolang/GoData/internal/application/port/outbound"
	"github.com/DioGolang/GoData/internal/application/usecase/audit"
	"github.com/DioGolang/GoData/internal/domain/entity"
	"github.com/DioGolang/GoData/internal/infra/database"
	"github.com/DioGolang/GoData/internal/infra/web/handler"
	"github.com/DioGolang/GoData/pkg/logger"
	"github.com/DioGolang/GoData/pkg/mapper"
	"github.com/DioGolang/GoData/pkg/metrics"
	"go.opentelemetry.io/otel"
)

const NotesCollection = "notes"

// OpenUnitsOfWork opens the configured stores and the unit of work factory over them.
func OpenUnitsOfWork(ctx context.Context, cfg *configs.Conf, log logger.Logger, m metrics.Metrics, hooks ...outbound.CommitHook) (*database.UnitOfWorkFactory, error) {
	ids, err := entity.NewIDGenerator(cfg.SnowflakeNode)
	if err != nil {
		return nil, fmt.Errorf("id generator: %w", err)
	}

	stores, err := database.Open(ctx, database.Config{
		Driver:            cfg.StoreDriver,
		URI:               cfg.StoreURI,
		Databases:         cfg.Databases,
		MongoTransactions: cfg.MongoTransactions,
		Breaker: database.BreakerSettings{
			MaxFailures: cfg.BreakerFailures,
			OpenTimeout: cfg.BreakerTimeout,
		},
	}, log, m)
	if err != nil {
		return nil, err
	}

	uows, err := database.NewUnitOfWorkFactory(ids, cfg.DefaultDatabase, stores,
		database.WithLogger(log),
		database.WithMetrics(m),
		database.WithHooks(hooks...),
	)
	if err != nil {
		for _, s := range stores {
			_ = s.Close(ctx)
		}
		return nil, err
	}
	if err := uows.EnsureCollections(ctx, NotesCollection, audit.Collection); err != nil {
		_ = uows.Close(ctx)
		return nil, fmt.Errorf("ensure collections: %w", err)
	}
	return uows, nil
}

// NewMapper declares every conversion the data services use.
func NewMapper() *mapper.Registry {
	m := mapper.New()
	mapper.Auto[entity.Note, entity.NoteSummary](m)
	handler.RegisterNoteMappings(m)
	return m
}

// NewServices registers the data services of every entity with the stock interceptors.
func NewServices(uows outbound.UnitOfWorkFactory, log logger.Logger, m metrics.Metrics) (*dataservice.Factory, error) {
	reg := dataservice.NewRegistry(uows, NewMapper(),
		dataservice.WithInterceptors(dataservice.TargetAll,
			dataservice.Tracing(otel.Tracer("godata/dataservice")),
			dataservice.Logging(log),
			dataservice.Metrics(m),
		),
	)
	dataservice.Register(reg, NotesCollection, database.RepositoryFor[entity.Note])
	dataservice.Register(reg, audit.Collection, database.RepositoryFor[entity.AuditEntry])
	return reg.Build()
}
