package web

import (
	"net/http"
	"strings"

	"github.com/JonMunkholm/cruisecheck/internal/core"
	"github.com/JonMunkholm/cruisecheck/internal/history"
	"github.com/go-chi/chi/v5"
)

type messagesResponse struct {
	DatasetID string        `json:"datasetId"`
	Count     int           `json:"count"`
	Messages  []messageView `json:"messages"`
}

// handleMessages returns the stored messages of a dataset's latest check.
func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	id, err := datasetParam(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	msgs, err := s.checker.Messages(id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, messagesResponse{
		DatasetID: id,
		Count:     len(msgs),
		Messages:  newMessageViews(msgs),
	})
}

// handleDeleteMessages removes a dataset's stored messages.
func (s *Server) handleDeleteMessages(w http.ResponseWriter, r *http.Request) {
	id, err := datasetParam(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	unlock, err := s.limiter.LockDataset(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer unlock()

	deleted, err := s.checker.Forget(id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if !deleted {
		s.respondError(w, r, core.ErrNotChecked)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type historyResponse struct {
	DatasetID string        `json:"datasetId,omitempty"`
	Runs      []history.Run `json:"runs"`
}

// handleHistory lists recorded check runs, newest first, optionally for
// one dataset.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		s.respondError(w, r, errHistoryDisabled)
		return
	}

	var id string
	if raw := chi.URLParam(r, "datasetID"); strings.TrimSpace(raw) != "" {
		var err error
		if id, err = core.NormalizeDatasetID(raw); err != nil {
			s.respondError(w, r, err)
			return
		}
	}

	runs, err := s.history.ListRuns(r.Context(), id, parseIntParam(r, "limit", history.DefaultListLimit))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, historyResponse{DatasetID: id, Runs: runs})
}

type healthResponse struct {
	Status      string                  `json:"status"`
	Checks      core.CheckLimiterStatus `json:"checks"`
	History     bool                    `json:"history"`
	ColumnTypes int                     `json:"columnTypes"`
}

// handleHealth reports liveness and checker load.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:      "ok",
		Checks:      s.limiter.Status(),
		History:     s.history != nil,
		ColumnTypes: s.checker.Catalog().Len(),
	})
}
