package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/me/cinedex/internal/catalog"
	"github.com/me/cinedex/pkg/model"
)

// requestID generates a unique request identifier.
func requestID() string {
	return "req_" + uuid.New().String()[:8]
}

// respondOK writes a success response with the standard envelope.
func respondOK(w http.ResponseWriter, reqID string, data any) {
	respondJSON(w, http.StatusOK, reqID, data, nil, nil)
}

// respondCreated writes a 201 response with the standard envelope.
func respondCreated(w http.ResponseWriter, reqID string, data any) {
	respondJSON(w, http.StatusCreated, reqID, data, nil, nil)
}

// respondList writes a success response with pagination.
func respondList(w http.ResponseWriter, reqID string, data any, pg *model.Pagination) {
	respondJSON(w, http.StatusOK, reqID, data, pg, nil)
}

// respondError writes an error response with the standard envelope.
func respondError(w http.ResponseWriter, reqID string, status int, apiErr *model.APIError) {
	respondJSON(w, status, reqID, nil, nil, apiErr)
}

func respondJSON(w http.ResponseWriter, status int, reqID string, data any, pg *model.Pagination, apiErr *model.APIError) {
	resp := model.Response{
		RequestID:  reqID,
		Timestamp:  time.Now().UTC(),
		Data:       data,
		Pagination: pg,
		Error:      apiErr,
	}
	if apiErr != nil {
		resp.Status = "error"
	} else {
		resp.Status = "ok"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

// respondFailure maps a service error to its status code and envelope.
// Unclassified errors are logged and reported as INTERNAL_ERROR without
// their text.
func (s *Server) respondFailure(w http.ResponseWriter, r *http.Request, err error) {
	reqID := RequestIDFromContext(r.Context())

	var unsupported *model.UnsupportedEntityError
	var apiErr *model.APIError
	switch {
	case errors.As(err, &unsupported):
		respondError(w, reqID, http.StatusNotFound, unsupported.APIError())
	case errors.As(err, &apiErr):
		status := http.StatusBadRequest
		switch apiErr.Code {
		case model.ErrNotFound:
			status = http.StatusNotFound
		case model.ErrUnauthorized:
			status = http.StatusUnauthorized
		case model.ErrForbidden:
			status = http.StatusForbidden
		case model.ErrInternal:
			status = http.StatusInternalServerError
		}
		respondError(w, reqID, status, apiErr)
	case catalog.IsNotFound(err):
		respondError(w, reqID, http.StatusNotFound, &model.APIError{Code: model.ErrNotFound, Message: err.Error()})
	case errors.Is(err, catalog.ErrInvalidCredentials):
		respondError(w, reqID, http.StatusUnauthorized, &model.APIError{Code: model.ErrUnauthorized, Message: err.Error()})
	default:
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "request_id", reqID, "error", err)
		respondError(w, reqID, http.StatusInternalServerError, model.NewInternalError("internal error"))
	}
}

// decodeBody reads a JSON request body into v.
func decodeBody(r *http.Request, v any) *model.APIError {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &model.APIError{
			Code:    model.ErrValidation,
			Message: "invalid JSON body: " + err.Error(),
		}
	}
	return nil
}
