package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/DioGolang/GoData/internal/application/dataservice"
	"github.com/DioGolang/GoData/pkg/dataerr"
	"github.com/DioGolang/GoData/pkg/logger"
	"github.com/go-chi/chi/v5"
)

const (
	HeaderActorID = "X-Actor-ID"
	maxBodyBytes  = 1 << 20
)

// DecodeFunc reads a request body into an input shape the collection's mapper
// converts to the record type.
type DecodeFunc func(r *http.Request) (any, error)

// Collection serves one registered entity type T over HTTP. S is its summary shape,
// returned when the client asks for ?view=summary.
type Collection[T, S any] struct {
	Services dataservice.Resolver
	Decode   DecodeFunc
	Logger   logger.Logger
}

func NewCollection[T, S any](services dataservice.Resolver, decode DecodeFunc, log logger.Logger) *Collection[T, S] {
	return &Collection[T, S]{Services: services, Decode: decode, Logger: log}
}

func (h *Collection[T, S]) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Delete("/{id}", h.Delete)
	r.Post("/{id}/disable", h.Disable)
	return r
}

type createdResponse struct {
	ID string `json:"id"`
}

func (h *Collection[T, S]) List(w http.ResponseWriter, r *http.Request) {
	svc, err := dataservice.GetReadOnlyFrom[T](h.Services, database(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	defer svc.Close(r.Context())

	if summary(r) {
		out, err := dataservice.GetAllAs[S, T](r.Context(), svc, r.URL.Query().Get("project") == "true")
		h.respond(w, r, http.StatusOK, out, err)
		return
	}
	out, err := svc.GetAll(r.Context())
	h.respond(w, r, http.StatusOK, out, err)
}

func (h *Collection[T, S]) Get(w http.ResponseWriter, r *http.Request) {
	svc, err := dataservice.GetReadOnlyFrom[T](h.Services, database(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	defer svc.Close(r.Context())

	id := chi.URLParam(r, "id")
	if summary(r) {
		out, err := dataservice.GetAs[S, T](r.Context(), svc, id)
		h.respond(w, r, http.StatusOK, out, err)
		return
	}
	out, err := svc.Get(r.Context(), id)
	h.respond(w, r, http.StatusOK, out, err)
}

func (h *Collection[T, S]) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	in, err := h.Decode(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if !errors.As(err, &tooLarge) {
			err = dataerr.InvalidArgument("http.Create", err.Error())
		}
		h.fail(w, r, err)
		return
	}

	svc, err := dataservice.GetCrudFrom[T](h.Services, database(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	defer svc.Close(r.Context())

	id, err := svc.AddFrom(r.Context(), in, dataservice.WithCommit(), dataservice.WithActor(actor(r)))
	h.respond(w, r, http.StatusCreated, createdResponse{ID: id}, err)
}

func (h *Collection[T, S]) Delete(w http.ResponseWriter, r *http.Request) {
	h.write(w, r, func(svc dataservice.CrudService[T], id string, opts ...dataservice.WriteOption) error {
		return svc.Delete(r.Context(), id, opts...)
	})
}

func (h *Collection[T, S]) Disable(w http.ResponseWriter, r *http.Request) {
	h.write(w, r, func(svc dataservice.CrudService[T], id string, opts ...dataservice.WriteOption) error {
		return svc.Disable(r.Context(), id, opts...)
	})
}

func (h *Collection[T, S]) write(w http.ResponseWriter, r *http.Request, fn func(dataservice.CrudService[T], string, ...dataservice.WriteOption) error) {
	svc, err := dataservice.GetCrudFrom[T](h.Services, database(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	defer svc.Close(r.Context())

	if err := fn(svc, chi.URLParam(r, "id"), dataservice.WithCommit(), dataservice.WithActor(actor(r))); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Collection[T, S]) respond(w http.ResponseWriter, r *http.Request, status int, body any, err error) {
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.Logger.Warn(r.Context(), "failed to write response", logger.WithError(err))
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

func (h *Collection[T, S]) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		h.Logger.Error(r.Context(), "request failed", logger.String("path", r.URL.Path), logger.WithError(err))
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: err.Error(), Kind: dataerr.KindOf(err).String()})
}

// StatusFor maps an error kind to an HTTP status.
func StatusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, dataerr.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, dataerr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, dataerr.ErrConfiguration):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func database(r *http.Request) string { return r.URL.Query().Get("db") }

func actor(r *http.Request) string { return r.Header.Get(HeaderActorID) }

func summary(r *http.Request) bool { return r.URL.Query().Get("view") == "summary" }
