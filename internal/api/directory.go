package api

import (
	"net/http"
)

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	records, err := s.svc.ListUsers(r.Context(), callerFrom(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, list(records))
}

func (s *Server) createUser(w http.ResponseWriter, r *http.Request) {
	var body map[string]interface{}
	if err := decodeJSON(w, r, &body); err != nil {
		s.respondError(w, r, err)
		return
	}
	rec, err := s.svc.CreateUser(r.Context(), callerFrom(r), body)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, rec)
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	rec, err := s.svc.GetUser(r.Context(), callerFrom(r), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

func (s *Server) updateUser(w http.ResponseWriter, r *http.Request) {
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
	rec, err := s.svc.UpdateUser(r.Context(), callerFrom(r), id, body)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.svc.DeleteUser(r.Context(), callerFrom(r), id); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listDepartments(w http.ResponseWriter, r *http.Request) {
	records, err := s.svc.ListDepartments(r.Context(), callerFrom(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, list(records))
}

func (s *Server) createDepartment(w http.ResponseWriter, r *http.Request) {
	var body map[string]interface{}
	if err := decodeJSON(w, r, &body); err != nil {
		s.respondError(w, r, err)
		return
	}
	rec, err := s.svc.CreateDepartment(r.Context(), callerFrom(r), body)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, rec)
}

func (s *Server) updateDepartment(w http.ResponseWriter, r *http.Request) {
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
	rec, err := s.svc.UpdateDepartment(r.Context(), callerFrom(r), id, body)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

func (s *Server) deleteDepartment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.svc.DeleteDepartment(r.Context(), callerFrom(r), id); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
