package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/leapstack-labs/gridsql/internal/dberror"
	"github.com/leapstack-labs/gridsql/internal/mutate"
	"github.com/leapstack-labs/gridsql/internal/query"
	"github.com/leapstack-labs/gridsql/pkg/core"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

type tablesResponse struct {
	Tables []string `json:"tables"`
}

type columnsResponse struct {
	Columns []core.Column `json:"columns"`
}

type editsRequest struct {
	Edits []mutate.EditDescriptor `json:"edits"`
}

type editsResponse struct {
	Results []mutate.EditResult `json:"results"`
}

type healthResponse struct {
	Status string `json:"status"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody{
			Error:   "data_source",
			Message: dberror.UserMessage(err),
		})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

func (s *Server) handleListTables(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, tablesResponse{Tables: s.svc.ListTables()})
}

func (s *Server) handleColumns(w http.ResponseWriter, r *http.Request) {
	cols, err := s.svc.GetColumns(chi.URLParam(r, "table"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, columnsResponse{Columns: cols})
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	opts, err := query.DecodeOptions(body)
	if err != nil {
		s.writeError(w, r, badRequest(err))
		return
	}
	if opts.Limit > s.cfg.MaxLimit {
		opts.Limit = s.cfg.MaxLimit
	}

	res, err := s.svc.RunQuery(r.Context(), chi.URLParam(r, "table"), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleEdits(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var req editsRequest
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, r, badRequest(fmt.Errorf("invalid edits body: %w", err)))
		return
	}

	results, err := s.svc.ApplyEdits(r.Context(), chi.URLParam(r, "table"), req.Edits)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, editsResponse{Results: results})
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.RunCheck(r.Context(), chi.URLParam(r, "check"), chi.URLParam(r, "table"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, badRequest(fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit))
		}
		return nil, badRequest(fmt.Errorf("read body: %w", err))
	}
	return body, nil
}
