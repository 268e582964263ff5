package core

// engine.go adapts an external validation engine to the pipeline.
//
// The adapter marshals the dataset rows, runs the engine and translates any
// failure (returned error, panic, or a result not marked processed) into an
// EngineProcessingError. It also enforces that the engine's standardized rows
// line up one-to-one with the input rows.

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// MessageKind distinguishes data diagnostics from metadata diagnostics.
type MessageKind int

const (
	KindData MessageKind = iota
	KindMetadata
)

// EngineMessage is a raw diagnostic as reported by the engine.
type EngineMessage struct {
	Kind       MessageKind
	Severity   Severity
	Row        int    // 1-based, 0 = not row-specific
	Column     int    // 1-based, 0 = not column-specific
	ColumnName string // header or canonical name when Column is not known
	Text       string
}

// StdRow is the engine's normalized view of one input row.
type StdRow struct {
	Values    map[string]string // standardized value per SpecColumn.Key
	Longitude float64           // NaN when unparsable
	Latitude  float64           // NaN when unparsable
	Time      time.Time
	TimeOK    bool
}

// EngineResult is the full output of one engine run.
type EngineResult struct {
	ProcessedOK bool
	Rows        []StdRow
	Messages    []EngineMessage
}

// Engine validates a dataset against a column specification.
type Engine interface {
	Run(ctx context.Context, spec *SpecDocument, rows [][]string) (*EngineResult, error)
}

// EngineFunc adapts a function to the Engine interface.
type EngineFunc func(ctx context.Context, spec *SpecDocument, rows [][]string) (*EngineResult, error)

func (f EngineFunc) Run(ctx context.Context, spec *SpecDocument, rows [][]string) (*EngineResult, error) {
	return f(ctx, spec, rows)
}

// RunEngine invokes the engine for a dataset. Engine-side failures are
// returned as *EngineProcessingError; a row count mismatch is a *StructuralError.
func RunEngine(ctx context.Context, e Engine, spec *SpecDocument, d *Dataset) (result *EngineResult, err error) {
	rows := make([][]string, len(d.Rows))
	for i, row := range d.Rows {
		rows[i] = append([]string(nil), row...)
	}

	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = &EngineProcessingError{Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	result, err = e.Run(ctx, spec, rows)
	if err != nil {
		return nil, &EngineProcessingError{Err: err}
	}
	if result == nil || !result.ProcessedOK {
		return nil, &EngineProcessingError{Err: fmt.Errorf("engine did not process dataset %s", d.ID)}
	}
	if len(result.Rows) != len(d.Rows) {
		return nil, &StructuralError{
			Reason: fmt.Sprintf("engine returned %d standardized rows for %d input rows",
				len(result.Rows), len(d.Rows)),
		}
	}

	resolveColumnNames(result.Messages, d)
	return result, nil
}

// resolveColumnNames fills in Column for messages that name a column by header
// or canonical name only.
func resolveColumnNames(msgs []EngineMessage, d *Dataset) {
	for i := range msgs {
		m := &msgs[i]
		if m.Column != 0 || m.ColumnName == "" {
			continue
		}
		for j, c := range d.Columns {
			if strings.EqualFold(c.Header, m.ColumnName) || c.Type.StdName == m.ColumnName {
				m.Column = j + 1
				break
			}
		}
	}
}
