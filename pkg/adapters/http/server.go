package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/aretw0/durafsm"
	"github.com/aretw0/durafsm/internal/logging"
	"github.com/aretw0/durafsm/pkg/domain"
	"github.com/aretw0/durafsm/pkg/ports"
)

// maxBodyBytes caps request bodies (contexts and payloads).
const maxBodyBytes = 1 << 20

// Server exposes a bound machine over HTTP.
type Server[C any] struct {
	machine *durafsm.Machine[C]
	logger  *slog.Logger
}

// Option configures the handler.
type Option func(*options)

type options struct {
	logger *slog.Logger
	cors   bool
}

// WithLogger sets the logger used for request failures.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithCORS allows cross-origin requests from any origin.
func WithCORS() Option {
	return func(o *options) {
		o.cors = true
	}
}

// NewHandler creates a new HTTP handler for the machine.
//
//	GET    /machine                         definition summary
//	GET    /actors                          actor ids (adapter must support List)
//	POST   /actors                          {"id": "...", "context": ...}
//	GET    /actors/{id}                     snapshot
//	DELETE /actors/{id}                     (adapter must support Delete)
//	POST   /actors/{id}/events/{event}      body is the event payload (optional JSON)
func NewHandler[C any](machine *durafsm.Machine[C], opts ...Option) http.Handler {
	o := &options{logger: logging.NewNop()}
	for _, opt := range opts {
		opt(o)
	}

	s := &Server[C]{machine: machine, logger: o.logger}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/machine", s.describe)
	r.Route("/actors", func(r chi.Router) {
		r.Get("/", s.list)
		r.Post("/", s.create)
		r.Get("/{id}", s.get)
		r.Delete("/{id}", s.delete)
		r.Post("/{id}/events/{event}", s.send)
	})

	if o.cors {
		return enableCORS(r)
	}
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// MachineResponse describes the bound definition.
type MachineResponse struct {
	Name    string   `json:"name,omitempty"`
	Initial string   `json:"initial"`
	States  []string `json:"states"`
	Events  []string `json:"events"`
}

// CreateRequest is the body of POST /actors. A missing context uses the definition seed.
type CreateRequest[C any] struct {
	ID      string `json:"id"`
	Context *C     `json:"context,omitempty"`
}

// SendResponse is the body returned by POST /actors/{id}/events/{event}.
type SendResponse[C any] struct {
	Handled  bool               `json:"handled"`
	Snapshot domain.Snapshot[C] `json:"snapshot"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

func (s *Server[C]) describe(w http.ResponseWriter, r *http.Request) {
	def := s.machine.Definition()
	s.writeJSON(w, http.StatusOK, MachineResponse{
		Name:    def.Name(),
		Initial: def.Initial(),
		States:  def.States(),
		Events:  def.Events(),
	})
}

func (s *Server[C]) list(w http.ResponseWriter, r *http.Request) {
	lister, ok := s.machine.Adapter().(ports.Lister)
	if !ok {
		s.writeError(w, http.StatusNotImplemented, errors.ErrUnsupported)
		return
	}
	ids, err := lister.List(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ids)
}

func (s *Server[C]) create(w http.ResponseWriter, r *http.Request) {
	var body CreateRequest[C]
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	c := domain.CloneContext(s.machine.Definition().Seed())
	if body.Context != nil {
		c = *body.Context
	}

	actor, err := s.machine.CreateActor(r.Context(), body.ID, c)
	if err != nil {
		s.fail(w, err)
		return
	}
	w.Header().Set("Location", "/actors/"+actor.ID())
	s.writeJSON(w, http.StatusCreated, actor.Snapshot())
}

func (s *Server[C]) get(w http.ResponseWriter, r *http.Request) {
	actor, err := s.machine.GetActor(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, err)
		return
	}
	if actor == nil {
		s.writeError(w, http.StatusNotFound, domain.ErrActorNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, actor.Snapshot())
}

func (s *Server[C]) delete(w http.ResponseWriter, r *http.Request) {
	deleter, ok := s.machine.Adapter().(ports.Deleter)
	if !ok {
		s.writeError(w, http.StatusNotImplemented, errors.ErrUnsupported)
		return
	}
	if err := deleter.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server[C]) send(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	event := chi.URLParam(r, "event")

	var payload any
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	actor, err := s.machine.GetActor(r.Context(), id)
	if err != nil {
		s.fail(w, err)
		return
	}
	if actor == nil {
		s.writeError(w, http.StatusNotFound, domain.ErrActorNotFound)
		return
	}

	next, err := actor.Send(r.Context(), event, payload)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, SendResponse[C]{
		Handled:  next != actor,
		Snapshot: next.Snapshot(),
	})
}

// fail maps domain errors to status codes.
func (s *Server[C]) fail(w http.ResponseWriter, err error) {
	var entryErr *domain.EntryError
	switch {
	case errors.Is(err, domain.ErrEmptyID), errors.Is(err, domain.ErrInvalidID):
		s.writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, domain.ErrActorNotFound):
		s.writeError(w, http.StatusNotFound, err)
	case errors.Is(err, domain.ErrActorAlreadyExists), errors.Is(err, domain.ErrConflict):
		s.writeError(w, http.StatusConflict, err)
	case errors.As(err, &entryErr):
		s.writeError(w, http.StatusUnprocessableEntity, err)
	default:
		s.logger.Error("request failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, err)
	}
}

func (s *Server[C]) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

func (s *Server[C]) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "error", err)
	}
}
