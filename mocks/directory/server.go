package main

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

const (
	statusOK           = "Successfully processed request."
	statusRateLimited  = "Too many requests."
	statusNotFound     = "Not found."
	statusInvalidInput = "Invalid input."
)

type server struct {
	store    *store
	throttle *throttle
	logger   *slog.Logger
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(s.rateLimit)

	r.Route("/api/v1/employee", func(r chi.Router) {
		r.Get("/", s.handleList)
		r.Get("/{id}", s.handleGet)
		r.Post("/", s.handleCreate)
		r.Delete("/", s.handleDelete)
	})
	return r
}

func (s *server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.throttle.allow() {
			s.logger.Info("rate limited", "method", r.Method, "path", r.URL.Path)
			writeEnvelope(w, http.StatusTooManyRequests, nil, statusRateLimited)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *server) handleList(w http.ResponseWriter, _ *http.Request) {
	writeEnvelope(w, http.StatusOK, s.store.list(), statusOK)
}

func (s *server) handleGet(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeEnvelope(w, http.StatusNotFound, nil, statusNotFound)
		return
	}
	e, ok := s.store.get(id)
	if !ok {
		writeEnvelope(w, http.StatusNotFound, nil, statusNotFound)
		return
	}
	writeEnvelope(w, http.StatusOK, e, statusOK)
}

func (s *server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var in createInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil || !valid(in) {
		writeEnvelope(w, http.StatusBadRequest, nil, statusInvalidInput)
		return
	}
	e := s.store.create(in)
	s.logger.Info("employee created", "id", e.ID, "name", e.Name)
	writeEnvelope(w, http.StatusOK, e, statusOK)
}

func (s *server) handleDelete(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || strings.TrimSpace(body.Name) == "" {
		writeEnvelope(w, http.StatusBadRequest, nil, statusInvalidInput)
		return
	}
	if !s.store.deleteByName(body.Name) {
		writeEnvelope(w, http.StatusNotFound, false, statusNotFound)
		return
	}
	s.logger.Info("employee deleted", "name", body.Name)
	writeEnvelope(w, http.StatusOK, true, statusOK)
}

func valid(in createInput) bool {
	return strings.TrimSpace(in.Name) != "" &&
		strings.TrimSpace(in.Title) != "" &&
		in.Salary > 0 &&
		in.Age >= 16 && in.Age <= 75
}

func writeEnvelope(w http.ResponseWriter, status int, data any, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"data": data, "status": message})
}
