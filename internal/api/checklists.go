package api

import (
	"net/http"

	"github.com/ideamans/go-sheetdb/internal/ops"
)

func (s *Server) listChecklists(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	records, err := s.svc.ListChecklists(r.Context(), callerFrom(r), ops.ChecklistFilter{
		Status:  q.Get("status"),
		GroupID: q.Get("group_id"),
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, list(records))
}

func (s *Server) createChecklist(w http.ResponseWriter, r *http.Request) {
	var body map[string]interface{}
	if err := decodeJSON(w, r, &body); err != nil {
		s.respondError(w, r, err)
		return
	}
	rec, err := s.svc.CreateChecklist(r.Context(), callerFrom(r), body)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, rec)
}

type seriesResponse struct {
	GroupID string `json:"group_id"`
	Created int    `json:"created"`
}

func (s *Server) createRecurringChecklist(w http.ResponseWriter, r *http.Request) {
	var def ops.RecurringChecklist
	if err := decodeJSON(w, r, &def); err != nil {
		s.respondError(w, r, err)
		return
	}
	groupID, n, err := s.svc.CreateRecurringChecklist(r.Context(), callerFrom(r), def)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, seriesResponse{GroupID: groupID, Created: n})
}

func (s *Server) updateChecklist(w http.ResponseWriter, r *http.Request) {
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
	rec, err := s.svc.UpdateChecklist(r.Context(), callerFrom(r), id, body)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

func (s *Server) deleteChecklist(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.svc.DeleteChecklist(r.Context(), callerFrom(r), id); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type groupResponse struct {
	GroupID  string `json:"group_id"`
	Affected int    `json:"affected"`
}

func (s *Server) updateChecklistGroup(w http.ResponseWriter, r *http.Request) {
	var body map[string]interface{}
	if err := decodeJSON(w, r, &body); err != nil {
		s.respondError(w, r, err)
		return
	}
	groupID := r.PathValue("group")
	n, err := s.svc.UpdateChecklistGroup(r.Context(), callerFrom(r), groupID, body)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, groupResponse{GroupID: groupID, Affected: n})
}

func (s *Server) deleteChecklistGroup(w http.ResponseWriter, r *http.Request) {
	groupID := r.PathValue("group")
	n, err := s.svc.DeleteChecklistGroup(r.Context(), callerFrom(r), groupID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, groupResponse{GroupID: groupID, Affected: n})
}
