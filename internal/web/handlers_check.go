package web

import (
	"net/http"

	"github.com/JonMunkholm/cruisecheck/internal/logging"
)

// handleCheck runs the quality check on the submitted dataset and returns
// its flags, messages and status. With ?include=data the standardized
// dataset is returned as well.
func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	id, err := datasetParam(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	ctx := WithRequestMetadata(r.Context(), r, id)
	r = r.WithContext(ctx)

	d, stats, err := s.readDataset(w, r, id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		s.respondError(w, r, err)
		return
	}
	defer s.limiter.Release()

	unlock, err := s.limiter.LockDataset(ctx, id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer unlock()

	res, err := s.checker.Check(ctx, d)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	logging.FromContext(ctx).Info("dataset checked",
		"run_id", res.RunID.String(),
		"status", res.Status.String(),
		"rows", stats.Rows,
		"guessed_columns", stats.GuessedColumns,
	)
	writeJSON(w, http.StatusOK, newCheckResponse(res, d, r.URL.Query().Get("include") == "data"))
}

// handleSpecPreview returns the engine specification a check of the
// submitted dataset would use, without running it.
func (s *Server) handleSpecPreview(w http.ResponseWriter, r *http.Request) {
	id, err := datasetParam(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	r = r.WithContext(WithRequestMetadata(r.Context(), r, id))

	d, stats, err := s.readDataset(w, r, id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	spec, err := s.checker.Plan(d)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	doc, err := spec.Marshal()
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, specResponse{
		DatasetID:      id,
		Strategy:       spec.Strategy.String(),
		Rows:           stats.Rows,
		GuessedColumns: stats.GuessedColumns,
		Spec:           string(doc),
	})
}

// handleColumnTypes lists the column types a dataset may declare.
func (s *Server) handleColumnTypes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newColumnTypeViews(s.checker.Catalog()))
}
