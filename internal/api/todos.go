package api

import (
	"net/http"

	"github.com/ideamans/go-sheetdb/internal/ops"
)

func (s *Server) listTodos(w http.ResponseWriter, r *http.Request) {
	important, err := queryBool(r, "important")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	q := r.URL.Query()
	records, err := s.svc.ListTodos(r.Context(), callerFrom(r), ops.TodoFilter{
		Status:    q.Get("status"),
		Category:  q.Get("category"),
		Important: important,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, list(records))
}

func (s *Server) createTodo(w http.ResponseWriter, r *http.Request) {
	var body map[string]interface{}
	if err := decodeJSON(w, r, &body); err != nil {
		s.respondError(w, r, err)
		return
	}
	rec, err := s.svc.CreateTodo(r.Context(), callerFrom(r), body)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, rec)
}

func (s *Server) updateTodo(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	var body map[string]interface{}
	if err := decodeJSON(w, r, &body); err != nil {
		s.respondError(w, r, err)
		return
	}
	rec, err := s.svc.UpdateTodo(r.Context(), callerFrom(r), id, body)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

func (s *Server) deleteTodo(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.svc.DeleteTodo(r.Context(), callerFrom(r), id); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
