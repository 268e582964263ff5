// Package ingest turns an uploaded delimited text file into a core.Dataset.
//
// The first non-blank record is the header. Each column's type, unit and
// missing-value marker come from explicit declarations when the caller
// supplies them; otherwise the type is guessed from the header text and the
// type's standard unit is assumed. Columns that cannot be guessed are left
// UNKNOWN so the checker reports them for reclassification.
package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/JonMunkholm/cruisecheck/internal/core"
)

// ctxCheckInterval is how many records are read between context checks.
const ctxCheckInterval = 5000

// Declaration describes one column as declared by the submitter. Columns
// are matched by Header (case-insensitive) when set, else by position.
type Declaration struct {
	Header  string `json:"header,omitempty"`
	Type    string `json:"type"`
	Unit    string `json:"unit,omitempty"`
	Missing string `json:"missing,omitempty"`
}

// Options controls how a file is read.
type Options struct {
	DatasetID    string
	Declarations []Declaration
	Delimiter    rune // default ','
	MaxRows      int  // 0 means unlimited
	Catalog      *core.Catalog
}

// Stats describes what was read.
type Stats struct {
	Bytes          int64
	Rows           int
	GuessedColumns int
	UnknownColumns []string
	Duration       time.Duration
}

var (
	// ErrEmptyFile is returned when the file has no header record.
	ErrEmptyFile = errors.New("file has no header row")

	// ErrUnknownColumnType is returned when a declaration names a type
	// missing from the catalog.
	ErrUnknownColumnType = errors.New("unknown column type")
)

// ReadDataset parses r into a dataset.
func ReadDataset(ctx context.Context, r io.Reader, opts Options) (*core.Dataset, *Stats, error) {
	start := time.Now()
	catalog := opts.Catalog
	if catalog == nil {
		catalog = core.DefaultCatalog
	}

	counter := &countingReader{r: newCleanReader(r)}
	cr := csv.NewReader(counter)
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = false
	if opts.Delimiter != 0 {
		cr.Comma = opts.Delimiter
	}

	header, err := readHeader(cr)
	if err != nil {
		return nil, nil, err
	}

	columns, guessed, err := ResolveColumns(header, opts.Declarations, catalog)
	if err != nil {
		return nil, nil, err
	}

	d := &core.Dataset{ID: opts.DatasetID, Columns: columns}
	for {
		if len(d.Rows)%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}
		}
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, readError(err)
		}
		if isEmptyRow(record) {
			continue
		}
		if len(record) != len(columns) {
			line, _ := cr.FieldPos(0)
			return nil, nil, &core.StructuralError{
				Reason: fmt.Sprintf("line %d has %d values, header has %d", line, len(record), len(columns)),
			}
		}
		if opts.MaxRows > 0 && len(d.Rows) >= opts.MaxRows {
			return nil, nil, &core.StructuralError{
				Reason: fmt.Sprintf("file has more than %d data rows", opts.MaxRows),
			}
		}
		for i := range record {
			record[i] = CleanCell(record[i])
		}
		d.Rows = append(d.Rows, record)
	}

	stats := &Stats{
		Bytes:          counter.n,
		Rows:           len(d.Rows),
		GuessedColumns: guessed,
		Duration:       time.Since(start),
	}
	for _, c := range columns {
		if c.Type.Role == core.RoleUnknown {
			stats.UnknownColumns = append(stats.UnknownColumns, c.Header)
		}
	}

	slog.Debug("dataset file parsed",
		"dataset_id", opts.DatasetID,
		"bytes", stats.Bytes,
		"rows", stats.Rows,
		"columns", len(columns),
		"guessed_columns", stats.GuessedColumns,
		"unknown_columns", len(stats.UnknownColumns),
	)
	return d, stats, nil
}

func readHeader(cr *csv.Reader) ([]string, error) {
	for {
		record, err := cr.Read()
		if err == io.EOF {
			return nil, ErrEmptyFile
		}
		if err != nil {
			return nil, readError(err)
		}
		if isEmptyRow(record) {
			continue
		}
		header := make([]string, len(record))
		for i, h := range record {
			header[i] = CleanCell(h)
		}
		return header, nil
	}
}

// readError reports malformed records as structural errors. Failures of
// the underlying reader, such as an oversized request body, pass through.
func readError(err error) error {
	var perr *csv.ParseError
	if errors.As(err, &perr) {
		return &core.StructuralError{Reason: err.Error()}
	}
	return fmt.Errorf("read dataset: %w", err)
}

// ResolveColumns builds the column list for header from declarations,
// guessing any column left undeclared. It returns how many were guessed.
func ResolveColumns(header []string, decls []Declaration, catalog *core.Catalog) ([]core.Column, int, error) {
	byHeader := make(map[string]Declaration)
	var positional []Declaration
	for _, d := range decls {
		if d.Header != "" {
			byHeader[strings.ToLower(strings.TrimSpace(d.Header))] = d
		} else {
			positional = append(positional, d)
		}
	}
	if len(positional) > len(header) {
		return nil, 0, &core.StructuralError{
			Reason: fmt.Sprintf("%d column declarations for %d columns", len(positional), len(header)),
		}
	}

	columns := make([]core.Column, len(header))
	guessed := 0
	for i, h := range header {
		decl, ok := byHeader[strings.ToLower(h)]
		if !ok && i < len(positional) {
			decl, ok = positional[i], true
		}
		if !ok {
			columns[i] = GuessColumn(h, catalog)
			guessed++
			continue
		}

		ct, found := catalog.Lookup(strings.ToUpper(strings.TrimSpace(decl.Type)))
		if !found {
			return nil, 0, fmt.Errorf("column %d (%s): %w %q", i+1, h, ErrUnknownColumnType, decl.Type)
		}
		unit := decl.Unit
		if unit == "" && len(ct.Units) > 0 {
			unit = ct.Units[0]
		}
		columns[i] = core.Column{Type: ct, Header: h, Unit: unit, Missing: decl.Missing}
	}
	return columns, guessed, nil
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// CleanCell trims whitespace and unwraps spreadsheet text formulas (="...").
func CleanCell(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) && len(s) >= 3 {
		s = s[2 : len(s)-1]
	}
	return s
}
