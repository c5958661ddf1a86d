package api

import (
	"net/http"
)

func (s *Server) listNotifications(w http.ResponseWriter, r *http.Request) {
	unread, err := queryBool(r, "unread")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	records, err := s.svc.ListNotifications(r.Context(), callerFrom(r), unread != nil && *unread)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, list(records))
}

func (s *Server) markNotificationRead(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.svc.MarkNotificationRead(r.Context(), callerFrom(r), id); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) markAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	n, err := s.svc.MarkAllNotificationsRead(r.Context(), callerFrom(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"updated": n})
}

func (s *Server) deleteNotification(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := s.svc.DeleteNotification(r.Context(), callerFrom(r), id); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
