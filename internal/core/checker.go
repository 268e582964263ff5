package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// DefaultCheckTimeout bounds one check run when no WithTimeout option is given.
const DefaultCheckTimeout = 5 * time.Minute

// RunSummary describes one finished check run for the history log.
type RunSummary struct {
	RunID            uuid.UUID
	DatasetID        string
	Strategy         string
	Status           string
	NumRows          int
	NumColumns       int
	ErrorRows        int
	WarningRows      int
	MessageCount     int
	GeopositionError bool
	EngineFailed     bool
	DataHash         string
	IPAddress        string
	UserAgent        string
	Duration         time.Duration
	CheckedAt        time.Time
}

// RunRecorder persists run summaries.
type RunRecorder interface {
	RecordRun(ctx context.Context, run RunSummary) error
}

// CheckResult is everything a check run produces for the caller.
type CheckResult struct {
	RunID            uuid.UUID
	DatasetID        string
	Strategy         TemporalStrategy
	Status           CheckStatus
	Flags            []FlagSet // one per column, including appended columns
	Assignment       *Assignment
	Messages         []Message
	AppendedColumns  int
	GeopositionError bool
	EngineErr        error  // set when the engine failed to process the dataset
	Fingerprint      string // hash of the dataset as submitted
	CheckedAt        time.Time
}

// Checker runs the full quality-check pipeline for one dataset at a time.
// It holds no per-dataset state between runs.
type Checker struct {
	catalog  *Catalog
	engine   Engine
	store    *MessageStore
	recorder RunRecorder
	maxRows  int
	timeout  time.Duration
}

// CheckerOption configures a Checker.
type CheckerOption func(*Checker)

// WithCatalog replaces the default column type catalog.
func WithCatalog(c *Catalog) CheckerOption {
	return func(ch *Checker) { ch.catalog = c }
}

// WithRecorder records a summary of every run.
func WithRecorder(r RunRecorder) CheckerOption {
	return func(ch *Checker) { ch.recorder = r }
}

// WithMaxRows rejects datasets with more than n rows. Zero means no limit.
func WithMaxRows(n int) CheckerOption {
	return func(ch *Checker) { ch.maxRows = n }
}

// WithTimeout bounds each run, engine included. An engine that exceeds it
// fails the run as Unacceptable. Values <= 0 keep the default.
func WithTimeout(d time.Duration) CheckerOption {
	return func(ch *Checker) {
		if d > 0 {
			ch.timeout = d
		}
	}
}

// NewChecker creates a Checker.
func NewChecker(engine Engine, store *MessageStore, opts ...CheckerOption) *Checker {
	c := &Checker{
		catalog: DefaultCatalog,
		engine:  engine,
		store:   store,
		timeout: DefaultCheckTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Catalog returns the column type catalog in use.
func (c *Checker) Catalog() *Catalog { return c.catalog }

// Plan selects the temporal strategy and builds the engine specification
// without running the engine.
func (c *Checker) Plan(d *Dataset) (*SpecDocument, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	strategy, err := SelectDatasetStrategy(d)
	if err != nil {
		return nil, err
	}
	return BuildSpec(d, strategy)
}

// Check runs the pipeline on d, mutating it in place: measured values are
// standardized and missing calendar columns are appended.
//
// Classification errors are returned before the engine is called. An engine
// failure is not an error: the result has status Unacceptable, no flags, and
// no message record is written.
func (c *Checker) Check(ctx context.Context, d *Dataset) (*CheckResult, error) {
	start := time.Now()

	id, err := NormalizeDatasetID(d.ID)
	if err != nil {
		return nil, err
	}
	d.ID = id
	if c.maxRows > 0 && d.NumRows() > c.maxRows {
		return nil, &StructuralError{
			Reason: fmt.Sprintf("dataset has %d rows, limit is %d", d.NumRows(), c.maxRows),
		}
	}

	spec, err := c.Plan(d)
	if err != nil {
		return nil, err
	}
	idx := BuildColumnIndices(d)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	logger := slog.With("dataset", id, "strategy", spec.Strategy.String())
	logger.Debug("check started", "rows", d.NumRows(), "columns", d.NumColumns())

	result := &CheckResult{
		RunID:       uuid.New(),
		DatasetID:   id,
		Strategy:    spec.Strategy,
		Fingerprint: Fingerprint(d),
		CheckedAt:   start.UTC(),
	}

	out, err := RunEngine(ctx, c.engine, spec, d)
	if err != nil {
		var engineErr *EngineProcessingError
		if !errors.As(err, &engineErr) {
			return nil, err
		}
		logger.Warn("engine failed to process dataset", "error", err)
		result.Status = DeriveStatus(nil)
		result.EngineErr = err
		c.record(ctx, result, d, start)
		return result, nil
	}

	msgs, err := ClassifyMessages(out, d)
	if err != nil {
		return nil, err
	}
	assignment, err := AssignFlags(msgs, d, idx)
	if err != nil {
		return nil, err
	}

	// The record is only written once standardization is known to succeed,
	// and d is only changed once the record is saved.
	std, err := prepareStandardize(d, out.Rows, c.catalog)
	if err != nil {
		return nil, err
	}
	if err := c.store.Write(id, msgs); err != nil {
		return nil, fmt.Errorf("save messages: %w", err)
	}
	appended := std.apply(d)
	for i := 0; i < appended; i++ {
		assignment.Flags = append(assignment.Flags, newFlagSet())
	}

	result.Status = DeriveStatus(assignment)
	result.Flags = assignment.Flags
	result.Assignment = assignment
	result.Messages = msgs
	result.AppendedColumns = appended
	result.GeopositionError = assignment.GeopositionError

	logger.Info("check completed",
		"status", result.Status.String(),
		"messages", len(msgs),
		"error_rows", assignment.ErrorRows,
		"warning_rows", assignment.WarningRows,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	c.record(ctx, result, d, start)
	return result, nil
}

// Messages returns the stored messages of a dataset's latest check.
func (c *Checker) Messages(datasetID string) ([]Message, error) {
	return c.store.Read(datasetID)
}

// Forget deletes the stored messages of a dataset.
func (c *Checker) Forget(datasetID string) (bool, error) {
	return c.store.Delete(datasetID)
}

// record writes the run summary. Failures are logged, never returned.
func (c *Checker) record(ctx context.Context, res *CheckResult, d *Dataset, start time.Time) {
	if c.recorder == nil {
		return
	}
	summary := RunSummary{
		RunID:            res.RunID,
		DatasetID:        res.DatasetID,
		Strategy:         res.Strategy.String(),
		Status:           res.Status.String(),
		NumRows:          d.NumRows(),
		NumColumns:       d.NumColumns(),
		MessageCount:     len(res.Messages),
		GeopositionError: res.GeopositionError,
		EngineFailed:     res.EngineErr != nil,
		DataHash:         res.Fingerprint,
		IPAddress:        GetIPAddressFromContext(ctx),
		UserAgent:        GetUserAgentFromContext(ctx),
		Duration:         time.Since(start),
		CheckedAt:        res.CheckedAt,
	}
	if res.Assignment != nil {
		summary.ErrorRows = res.Assignment.ErrorRows
		summary.WarningRows = res.Assignment.WarningRows
	}
	if err := c.recorder.RecordRun(ctx, summary); err != nil {
		slog.Error("failed to record check run", "dataset", res.DatasetID, "error", err)
	}
}
