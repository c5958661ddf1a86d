package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	sheetdb "github.com/ideamans/go-sheetdb"
	"github.com/ideamans/go-sheetdb/internal/ops"
)

const maxBodyBytes = 1 << 20

// Problem is an RFC 7807 problem details body.
type Problem struct {
	Type      string `json:"type"`
	Title     string `json:"title"`
	Status    int    `json:"status"`
	Detail    string `json:"detail,omitempty"`
	Instance  string `json:"instance,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		respondProblem(w, nil, http.StatusInternalServerError, "failed to encode response")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}

func respondProblem(w http.ResponseWriter, r *http.Request, status int, detail string) {
	p := Problem{
		Type:   problemType(status),
		Title:  http.StatusText(status),
		Status: status,
		Detail: detail,
	}
	if r != nil {
		p.Instance = r.URL.Path
		p.RequestID = requestID(r)
	}

	payload, err := json.Marshal(p)
	if err != nil {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("internal server error"))
		return
	}
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}

// respondError maps service and storage errors to a status code.
// Unexpected errors are logged and their text withheld.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	detail := err.Error()
	switch status {
	case http.StatusInternalServerError:
		s.log.Error("request failed", zap.String("request_id", requestID(r)), zap.Error(err))
		detail = "internal server error"
	case http.StatusBadGateway:
		s.log.Warn("storage unavailable", zap.String("request_id", requestID(r)), zap.Error(err))
		detail = "storage backend unavailable"
	}
	respondProblem(w, r, status, detail)
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, sheetdb.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, sheetdb.ErrValidation), errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, ops.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, sheetdb.ErrConflict):
		return http.StatusConflict
	case sheetdb.TransportError.Has(err), errors.Is(err, sheetdb.ErrTableMissing):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func problemType(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "https://datatracker.ietf.org/doc/html/rfc7231#section-6.5.1"
	case http.StatusUnauthorized:
		return "https://datatracker.ietf.org/doc/html/rfc7235#section-3.1"
	case http.StatusForbidden:
		return "https://datatracker.ietf.org/doc/html/rfc7231#section-6.5.3"
	case http.StatusNotFound:
		return "https://datatracker.ietf.org/doc/html/rfc7231#section-6.5.4"
	case http.StatusConflict:
		return "https://datatracker.ietf.org/doc/html/rfc7231#section-6.5.8"
	case http.StatusInternalServerError:
		return "https://datatracker.ietf.org/doc/html/rfc7231#section-6.6.1"
	case http.StatusBadGateway:
		return "https://datatracker.ietf.org/doc/html/rfc7231#section-6.6.3"
	}
	return "about:blank"
}

var errBadRequest = errors.New("bad request")

// decodeJSON reads a JSON body into dest. Numbers in maps stay json.Number
// so ids and amounts keep their text.
func decodeJSON(w http.ResponseWriter, r *http.Request, dest interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(dest); err != nil {
		return fmt.Errorf("%w: invalid JSON: %v", errBadRequest, err)
	}
	return nil
}

func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid id %q", errBadRequest, raw)
	}
	return id, nil
}

// queryBool parses an optional boolean query parameter.
func queryBool(r *http.Request, key string) (*bool, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be a boolean", errBadRequest, key)
	}
	return &b, nil
}

// list keeps empty results as [] rather than null.
func list(records []*sheetdb.Record) []*sheetdb.Record {
	if records == nil {
		return []*sheetdb.Record{}
	}
	return records
}
