// Package api exposes the ops services as a JSON HTTP API. Errors are
// written as RFC 7807 problem details.
package api

import (
	"net/http"

	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/ideamans/go-sheetdb/internal/ops"
)

// Options configures the HTTP surface.
type Options struct {
	CORSOrigins []string
	Logger      *zap.Logger
}

// Server routes requests to the ops service.
type Server struct {
	svc  *ops.Service
	log  *zap.Logger
	mux  *http.ServeMux
	cors []string
}

func New(svc *ops.Service, opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{svc: svc, log: log.Named("api"), mux: http.NewServeMux(), cors: opts.CORSOrigins}
	s.routes()
	return s
}

func (s *Server) routes() {
	m := s.mux
	m.HandleFunc("GET /health", s.health)

	m.HandleFunc("GET /api/delegations", s.listDelegations)
	m.HandleFunc("POST /api/delegations", s.createDelegation)
	m.HandleFunc("GET /api/delegations/{id}", s.getDelegation)
	m.HandleFunc("PATCH /api/delegations/{id}", s.updateDelegation)
	m.HandleFunc("DELETE /api/delegations/{id}", s.deleteDelegation)
	m.HandleFunc("POST /api/delegations/{id}/trash", s.trashDelegation)
	m.HandleFunc("POST /api/delegations/{id}/restore", s.restoreDelegation)
	m.HandleFunc("PUT /api/delegations/{id}/important", s.setDelegationImportant)
	m.HandleFunc("GET /api/delegations/{id}/remarks", s.listRemarks)
	m.HandleFunc("POST /api/delegations/{id}/remarks", s.addRemark)
	m.HandleFunc("GET /api/delegations/{id}/history", s.listHistory)

	m.HandleFunc("GET /api/users", s.listUsers)
	m.HandleFunc("POST /api/users", s.createUser)
	m.HandleFunc("GET /api/users/{id}", s.getUser)
	m.HandleFunc("PATCH /api/users/{id}", s.updateUser)
	m.HandleFunc("DELETE /api/users/{id}", s.deleteUser)

	m.HandleFunc("GET /api/departments", s.listDepartments)
	m.HandleFunc("POST /api/departments", s.createDepartment)
	m.HandleFunc("PATCH /api/departments/{id}", s.updateDepartment)
	m.HandleFunc("DELETE /api/departments/{id}", s.deleteDepartment)

	m.HandleFunc("GET /api/notifications", s.listNotifications)
	m.HandleFunc("POST /api/notifications/read-all", s.markAllNotificationsRead)
	m.HandleFunc("PATCH /api/notifications/{id}/read", s.markNotificationRead)
	m.HandleFunc("DELETE /api/notifications/{id}", s.deleteNotification)

	m.HandleFunc("GET /api/checklists", s.listChecklists)
	m.HandleFunc("POST /api/checklists", s.createChecklist)
	m.HandleFunc("POST /api/checklists/recurring", s.createRecurringChecklist)
	m.HandleFunc("PATCH /api/checklists/{id}", s.updateChecklist)
	m.HandleFunc("DELETE /api/checklists/{id}", s.deleteChecklist)
	m.HandleFunc("PATCH /api/checklists/groups/{group}", s.updateChecklistGroup)
	m.HandleFunc("DELETE /api/checklists/groups/{group}", s.deleteChecklistGroup)

	m.HandleFunc("GET /api/todos", s.listTodos)
	m.HandleFunc("POST /api/todos", s.createTodo)
	m.HandleFunc("PATCH /api/todos/{id}", s.updateTodo)
	m.HandleFunc("DELETE /api/todos/{id}", s.deleteTodo)
}

// Handler returns the routes wrapped in the middleware chain.
// Order: CORS → access log → recovery → identity → routes.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = Identity(h)
	h = Recovery(s.log)(h)
	h = AccessLog(s.log)(h)

	c := cors.New(cors.Options{
		AllowedOrigins:   s.cors,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", HeaderUserID, HeaderUserName, HeaderUserRole, HeaderRequestID},
		ExposedHeaders:   []string{HeaderRequestID},
		AllowCredentials: true,
	})
	return c.Handler(h)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
