package core

// errors.go defines the typed errors raised by the checking pipeline.
//
// Classification errors (missing temporal spec, unclassified columns, bad units)
// are the uploader's to fix. Contract errors (unrecognized or ambiguous engine
// messages, out-of-range indices, structural mismatches) mean the engine or the
// stored data broke an assumption and are never silently tolerated.

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotChecked is returned when no message file exists for a dataset.
	ErrNotChecked = errors.New("dataset has not been checked")

	// ErrInvalidDatasetID is returned for identifiers that cannot name a dataset.
	ErrInvalidDatasetID = errors.New("invalid dataset id")

	// ErrTooManyChecks is returned when the check limiter cannot admit a request.
	ErrTooManyChecks = errors.New("too many checks in progress")
)

// MissingTemporalSpecError reports that no supported combination of temporal
// columns is present.
type MissingTemporalSpecError struct {
	Present []string // temporal column types that were found
}

func (e *MissingTemporalSpecError) Error() string {
	if len(e.Present) == 0 {
		return "missing temporal spec: no date or time columns"
	}
	return fmt.Sprintf("missing temporal spec: incomplete date/time columns (%s)",
		strings.Join(e.Present, ", "))
}

// UnclassifiedColumnError reports a column still typed UNKNOWN.
type UnclassifiedColumnError struct {
	Column int    // 1-based
	Header string // user header
}

func (e *UnclassifiedColumnError) Error() string {
	return fmt.Sprintf("unclassified column %d (%q): data type not specified", e.Column, e.Header)
}

// UnitMappingError reports a declared unit that is not accepted by its column type.
type UnitMappingError struct {
	Column   int // 1-based, zero when unknown
	Type     string
	Unit     string
	Accepted []string
}

func (e *UnitMappingError) Error() string {
	col := ""
	if e.Column > 0 {
		col = fmt.Sprintf("column %d: ", e.Column)
	}
	if e.Accepted == nil {
		return fmt.Sprintf("%sunit mapping: unknown column type %s", col, e.Type)
	}
	return fmt.Sprintf("%sunit mapping: unexpected unit %q for %s (accepted: %s)",
		col, e.Unit, e.Type, strings.Join(e.Accepted, ", "))
}

// EngineProcessingError wraps a failure of the validation engine itself.
type EngineProcessingError struct {
	Err error
}

func (e *EngineProcessingError) Error() string {
	if e.Err == nil {
		return "engine processing failed"
	}
	return "engine processing failed: " + e.Err.Error()
}

func (e *EngineProcessingError) Unwrap() error {
	return e.Err
}

// UnrecognizedMessageError reports an engine data message matching no known category.
type UnrecognizedMessageError struct {
	Text string
}

func (e *UnrecognizedMessageError) Error() string {
	return fmt.Sprintf("unrecognized engine message: %q", e.Text)
}

// AmbiguousMessageError reports an engine data message matching several categories.
type AmbiguousMessageError struct {
	Text       string
	Categories []Category
}

func (e *AmbiguousMessageError) Error() string {
	names := make([]string, len(e.Categories))
	for i, c := range e.Categories {
		names[i] = c.String()
	}
	return fmt.Sprintf("ambiguous engine message %q matches %s", e.Text, strings.Join(names, ", "))
}

// IndexRangeError reports a row or column index outside the dataset.
type IndexRangeError struct {
	Kind  string // "row" or "column"
	Index int
	Max   int
}

func (e *IndexRangeError) Error() string {
	return fmt.Sprintf("index out of range: %s %d (dataset has %d)", e.Kind, e.Index, e.Max)
}

// StructuralError reports a shape mismatch between a dataset and the data
// returned for it.
type StructuralError struct {
	Reason string
}

func (e *StructuralError) Error() string {
	return "structural mismatch: " + e.Reason
}

// RecordCorruptError reports an unreadable line in a message file.
type RecordCorruptError struct {
	Line   int
	Reason string
}

func (e *RecordCorruptError) Error() string {
	return fmt.Sprintf("corrupt message record at line %d: %s", e.Line, e.Reason)
}

// IsClassificationError reports whether err is caused by how the uploader
// described the columns.
func IsClassificationError(err error) bool {
	var (
		mt *MissingTemporalSpecError
		uc *UnclassifiedColumnError
		um *UnitMappingError
	)
	return errors.As(err, &mt) || errors.As(err, &uc) || errors.As(err, &um)
}

// IsContractError reports whether err means the engine output or stored data
// violated an invariant of the pipeline.
func IsContractError(err error) bool {
	var (
		ur *UnrecognizedMessageError
		am *AmbiguousMessageError
		ir *IndexRangeError
		se *StructuralError
		rc *RecordCorruptError
	)
	return errors.As(err, &ur) || errors.As(err, &am) || errors.As(err, &ir) ||
		errors.As(err, &se) || errors.As(err, &rc)
}
