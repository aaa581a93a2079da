package models

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Problem is an RFC 7807 response body.
type Problem struct {
	Type   string `json:"type,omitempty"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
	Extra  any    `json:"extra,omitempty"`
}

func WriteProblem(w http.ResponseWriter, status int, title, detail string, extra any) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Problem{
		Type:   "about:blank",
		Title:  title,
		Status: status,
		Detail: detail,
		Extra:  extra,
	})
}

// WriteError maps the error taxonomy onto HTTP statuses.
func WriteError(w http.ResponseWriter, err error) {
	var inUse *InUseError
	var verr *ValidationError
	var rerr *ReferenceError
	switch {
	case errors.As(err, &inUse):
		WriteProblem(w, http.StatusConflict, "In use", err.Error(), map[string]any{
			"target": inUse.Target, "id": inUse.ID, "usage": inUse.Usage,
		})
	case errors.Is(err, ErrSiteNotFound):
		WriteProblem(w, http.StatusNotFound, "Site not found", err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		WriteProblem(w, http.StatusNotFound, "Not found", err.Error(), nil)
	case errors.Is(err, ErrDuplicateKey):
		WriteProblem(w, http.StatusConflict, "Duplicate", err.Error(), nil)
	case errors.As(err, &verr):
		WriteProblem(w, http.StatusUnprocessableEntity, "Validation failed", err.Error(), map[string]string{"field": verr.Field})
	case errors.As(err, &rerr):
		WriteProblem(w, http.StatusUnprocessableEntity, "Invalid reference", err.Error(), map[string]any{"field": rerr.Field, "id": rerr.ID})
	case errors.Is(err, ErrInvalidReplacement):
		WriteProblem(w, http.StatusUnprocessableEntity, "Invalid replacement", err.Error(), nil)
	case errors.Is(err, ErrValidation), errors.Is(err, ErrInvalidReference):
		WriteProblem(w, http.StatusUnprocessableEntity, "Validation failed", err.Error(), nil)
	default:
		WriteProblem(w, http.StatusInternalServerError, "Internal error", err.Error(), nil)
	}
}
