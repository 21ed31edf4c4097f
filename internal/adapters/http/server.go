// Package http exposes the registry as a JSON API.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/switchyard-io/switchyard/internal/logging"
	"github.com/switchyard-io/switchyard/pkg/domain"
	"github.com/switchyard-io/switchyard/pkg/registry"
)

// Server wires the registry into a chi router.
type Server struct {
	reg    *registry.Registry
	logger *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request error logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewHandler creates a new HTTP handler for the registry.
//
// Definition bodies accept literal transitions only: handler transitions
// hold function values and must be registered in code.
func NewHandler(reg *registry.Registry, opts ...Option) http.Handler {
	s := &Server{
		reg:    reg,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/machines", func(r chi.Router) {
		r.Get("/", s.listMachines)
		r.Route("/{id}", func(r chi.Router) {
			r.Put("/", s.registerMachine)
			r.Get("/", s.getMachine)
			r.Delete("/", s.unregisterMachine)
			r.Post("/events", s.sendEvent)
			r.Patch("/context", s.updateContext)
			r.Post("/reset", s.resetMachine)
			r.Get("/history", s.getHistory)
		})
	})
	return r
}

// definitionBody mirrors the YAML definition schema for JSON requests.
type definitionBody struct {
	Initial     string                       `json:"initial"`
	States      map[string]map[string]any    `json:"states"`
	Context     map[string]any               `json:"context"`
	Transitions map[string]map[string]string `json:"transitions"`
}

type eventBody struct {
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

type resetBody struct {
	ClearHistory bool `json:"clear_history"`
}

func (s *Server) registerMachine(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body definitionBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	def := domain.Definition{
		Initial: domain.StateID(body.Initial),
		Context: body.Context,
	}
	if len(body.States) > 0 {
		def.States = make(map[domain.StateID]map[string]any, len(body.States))
		for state, meta := range body.States {
			def.States[domain.StateID(state)] = meta
		}
	}
	if len(body.Transitions) > 0 {
		def.Transitions = make(map[domain.StateID]map[domain.EventID]domain.Transition, len(body.Transitions))
		for from, events := range body.Transitions {
			row := make(map[domain.EventID]domain.Transition, len(events))
			for event, target := range events {
				if target == "" {
					http.Error(w, fmt.Sprintf("transition %s/%s has an empty target", from, event), http.StatusBadRequest)
					return
				}
				row[domain.EventID(event)] = domain.To(domain.StateID(target))
			}
			def.Transitions[domain.StateID(from)] = row
		}
	}

	m := s.reg.Register(id, def)
	if m == nil {
		http.Error(w, "Machine id cannot be empty", http.StatusBadRequest)
		return
	}
	s.writeJSON(w, http.StatusCreated, m)
}

func (s *Server) getMachine(w http.ResponseWriter, r *http.Request) {
	m := s.reg.Machine(chi.URLParam(r, "id"))
	if m == nil {
		http.Error(w, "Machine not found", http.StatusNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, m)
}

func (s *Server) listMachines(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"machines": s.reg.List()})
}

func (s *Server) unregisterMachine(w http.ResponseWriter, r *http.Request) {
	s.reg.Unregister(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) sendEvent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var body eventBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if body.Event == "" {
		http.Error(w, "Event name is required", http.StatusBadRequest)
		return
	}

	res, err := s.reg.Send(id, domain.EventID(body.Event), body.Payload)
	if err != nil {
		if errors.Is(err, domain.ErrNotRegistered) {
			http.Error(w, "Machine not found", http.StatusNotFound)
			return
		}
		http.Error(w, fmt.Sprintf("Send error: %v", err), http.StatusInternalServerError)
		return
	}
	// A missed transition is a normal result, not an HTTP error.
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) updateContext(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if s.reg.Machine(id) == nil {
		http.Error(w, "Machine not found", http.StatusNotFound)
		return
	}

	var patch map[string]any
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	s.reg.UpdateContext(id, patch)
	s.writeJSON(w, http.StatusOK, map[string]any{"context": s.reg.Context(id)})
}

func (s *Server) resetMachine(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if s.reg.Machine(id) == nil {
		http.Error(w, "Machine not found", http.StatusNotFound)
		return
	}

	var body resetBody
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}
	}

	s.reg.Reset(id, body.ClearHistory)
	s.writeJSON(w, http.StatusOK, s.reg.Machine(id))
}

func (s *Server) getHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if s.reg.Machine(id) == nil {
		http.Error(w, "Machine not found", http.StatusNotFound)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if _, err := fmt.Sscanf(raw, "%d", &limit); err != nil {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
	}

	records := s.reg.History(id, limit)
	s.writeJSON(w, http.StatusOK, map[string]any{"history": records})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "err", err)
	}
}
