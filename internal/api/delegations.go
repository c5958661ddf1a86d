package api

import (
	"fmt"
	"net/http"

	"github.com/ideamans/go-sheetdb/internal/ops"
)

func (s *Server) listDelegations(w http.ResponseWriter, r *http.Request) {
	important, err := queryBool(r, "important")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	q := r.URL.Query()
	records, err := s.svc.ListDelegations(r.Context(), callerFrom(r), ops.DelegationFilter{
		Status:     q.Get("status"),
		Category:   q.Get("category"),
		AssignedTo: q.Get("assigned_to"),
		Important:  important,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, list(records))
}

func (s *Server) createDelegation(w http.ResponseWriter, r *http.Request) {
	var body map[string]interface{}
	if err := decodeJSON(w, r, &body); err != nil {
		s.respondError(w, r, err)
		return
	}
	rec, err := s.svc.CreateDelegation(r.Context(), callerFrom(r), body)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, rec)
}

func (s *Server) getDelegation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	rec, err := s.svc.GetDelegation(r.Context(), callerFrom(r), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

func (s *Server) updateDelegation(w http.ResponseWriter, r *http.Request) {
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
	rec, err := s.svc.UpdateDelegation(r.Context(), callerFrom(r), id, body)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

func (s *Server) deleteDelegation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.svc.DeleteDelegation(r.Context(), callerFrom(r), id); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) trashDelegation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	rec, err := s.svc.TrashDelegation(r.Context(), callerFrom(r), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

func (s *Server) restoreDelegation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	rec, err := s.svc.RestoreDelegation(r.Context(), callerFrom(r), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

type importantRequest struct {
	Important *bool `json:"important"`
}

func (s *Server) setDelegationImportant(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	var body importantRequest
	if err := decodeJSON(w, r, &body); err != nil {
		s.respondError(w, r, err)
		return
	}
	if body.Important == nil {
		s.respondError(w, r, fmt.Errorf("%w: important is required", errBadRequest))
		return
	}
	rec, err := s.svc.SetDelegationImportant(r.Context(), callerFrom(r), id, *body.Important)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

func (s *Server) listRemarks(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	records, err := s.svc.ListRemarks(r.Context(), callerFrom(r), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, list(records))
}

type remarkRequest struct {
	Remark string `json:"remark"`
}

func (s *Server) addRemark(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	var body remarkRequest
	if err := decodeJSON(w, r, &body); err != nil {
		s.respondError(w, r, err)
		return
	}
	rec, err := s.svc.AddRemark(r.Context(), callerFrom(r), id, body.Remark)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, rec)
}

func (s *Server) listHistory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	records, err := s.svc.ListHistory(r.Context(), callerFrom(r), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, list(records))
}
