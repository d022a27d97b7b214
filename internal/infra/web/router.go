package web

import (
	"net/http"

	"github.com/DioGolang/GoData/internal/application/dataservice"
	"github.com/DioGolang/GoData/internal/domain/entity"
	"github.com/DioGolang/GoData/internal/infra/web/handler"
	appmw "github.com/DioGolang/GoData/internal/infra/web/middleware"
	"github.com/DioGolang/GoData/pkg/logger"
	"github.com/DioGolang/GoData/pkg/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/riandyrn/otelchi"
)

type RouterConfig struct {
	ServiceName    string
	Services       dataservice.Resolver
	Logger         logger.Logger
	Metrics        metrics.Metrics
	MetricsHandler http.Handler
	Health         http.Handler
	RateLimiter    *appmw.IPDispatcher
}

func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(otelchi.Middleware(cfg.ServiceName, otelchi.WithChiRoutes(r)))
	r.Use(appmw.RequestLogger(cfg.Logger))
	r.Use(appmw.MetricsWrapper(cfg.Metrics))

	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}
	if cfg.Health != nil {
		r.Handle("/health", cfg.Health)
	}

	r.Group(func(r chi.Router) {
		if cfg.RateLimiter != nil {
			r.Use(cfg.RateLimiter.Handler(cfg.Logger))
		}
		notes := handler.NewCollection[entity.Note, entity.NoteSummary](cfg.Services, handler.DecodeNote, cfg.Logger)
		r.Mount("/api/v1/notes", notes.Routes())
	})
	return r
}
