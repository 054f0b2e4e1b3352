package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/leapstack-labs/gridsql/internal/dberror"
	"github.com/leapstack-labs/gridsql/internal/mutate"
	"github.com/leapstack-labs/gridsql/pkg/core"
)

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Kind    string `json:"kind,omitempty"`
}

// badRequestError marks request decoding failures.
type badRequestError struct{ err error }

func (e *badRequestError) Error() string { return e.err.Error() }
func (e *badRequestError) Unwrap() error { return e.err }

func badRequest(err error) error { return &badRequestError{err: err} }

// classify maps an error to an HTTP status and response body.
func classify(err error) (int, errorBody) {
	var (
		unknownTable  *core.UnknownTableError
		unknownCheck  *core.UnknownCheckError
		unknownColumn *core.UnknownColumnError
		malformed     *core.MalformedFilterError
		invalidAgg    *core.InvalidAggregateError
		dataSource    *core.DataSourceError
		bad           *badRequestError
	)

	switch {
	case errors.As(err, &unknownTable):
		return http.StatusNotFound, errorBody{Error: "unknown_table", Message: err.Error()}
	case errors.As(err, &unknownCheck):
		return http.StatusNotFound, errorBody{Error: "unknown_check", Message: err.Error()}
	case errors.As(err, &unknownColumn):
		return http.StatusBadRequest, errorBody{Error: "unknown_column", Message: err.Error()}
	case errors.As(err, &malformed):
		return http.StatusBadRequest, errorBody{Error: "malformed_filter", Message: err.Error()}
	case errors.As(err, &invalidAgg):
		return http.StatusBadRequest, errorBody{Error: "invalid_aggregate", Message: err.Error()}
	case errors.Is(err, core.ErrLimitRequired), errors.Is(err, core.ErrNegativeOffset),
		errors.Is(err, mutate.ErrMissingRowID):
		return http.StatusBadRequest, errorBody{Error: "invalid_options", Message: err.Error()}
	case errors.As(err, &bad):
		return http.StatusBadRequest, errorBody{Error: "bad_request", Message: err.Error()}
	case errors.As(err, &dataSource):
		return http.StatusBadGateway, errorBody{
			Error:   "data_source",
			Message: dberror.UserMessage(err),
			Kind:    dberror.Classify(err).String(),
		}
	default:
		return http.StatusInternalServerError, errorBody{Error: "internal", Message: "internal server error"}
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := classify(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"error", err)
	} else {
		s.logger.Debug("request rejected", "path", r.URL.Path, "status", status, "error", err)
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
