package web

// handlers_common.go holds request parsing shared by the check and spec
// preview handlers. A dataset arrives in one of three forms:
//
//	application/json     {"columns": [...declarations], "rows": [[...], ...]}
//	multipart/form-data  "file" (delimited text), optional "columns" and "delimiter"
//	anything else        the body is the delimited text itself
//
// Columns declared without a type, and undeclared file columns, are guessed
// from their header.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/JonMunkholm/cruisecheck/internal/core"
	"github.com/JonMunkholm/cruisecheck/internal/ingest"
	"github.com/go-chi/chi/v5"
)

// multipartMemory is how much of a multipart form is held in memory before
// spilling to temporary files.
const multipartMemory = 32 << 20

// datasetRequest is the JSON form of a dataset submission.
type datasetRequest struct {
	Columns []ingest.Declaration `json:"columns"`
	Rows    [][]string           `json:"rows"`
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

// datasetParam returns the normalized dataset ID from the URL.
func datasetParam(r *http.Request) (string, error) {
	return core.NormalizeDatasetID(chi.URLParam(r, "datasetID"))
}

// readDataset decodes the request body into a dataset named id.
func (s *Server) readDataset(w http.ResponseWriter, r *http.Request, id string) (*core.Dataset, *ingest.Stats, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Checker.MaxBodySize)

	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		mediaType = ""
	}

	opts := ingest.Options{
		DatasetID: id,
		MaxRows:   s.cfg.Checker.MaxRows,
		Catalog:   s.checker.Catalog(),
	}

	switch mediaType {
	case "application/json":
		return s.readJSONDataset(r, opts)

	case "multipart/form-data":
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			return nil, nil, bodyError(err)
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			return nil, nil, invalidRequest(errors.New("no file provided"))
		}
		defer file.Close()

		if raw := r.FormValue("columns"); raw != "" {
			if err := json.Unmarshal([]byte(raw), &opts.Declarations); err != nil {
				return nil, nil, invalidRequest(fmt.Errorf("columns: %w", err))
			}
		}
		if opts.Delimiter, err = parseDelimiter(r.FormValue("delimiter")); err != nil {
			return nil, nil, err
		}
		return readDelimited(r, file, opts)

	default:
		if opts.Delimiter, err = parseDelimiter(r.URL.Query().Get("delimiter")); err != nil {
			return nil, nil, err
		}
		return readDelimited(r, r.Body, opts)
	}
}

func readDelimited(r *http.Request, body io.Reader, opts ingest.Options) (*core.Dataset, *ingest.Stats, error) {
	d, stats, err := ingest.ReadDataset(r.Context(), body, opts)
	if err != nil {
		return nil, nil, bodyError(err)
	}
	return d, stats, nil
}

func (s *Server) readJSONDataset(r *http.Request, opts ingest.Options) (*core.Dataset, *ingest.Stats, error) {
	var req datasetRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return nil, nil, bodyError(err)
	}
	if len(req.Columns) == 0 {
		return nil, nil, invalidRequest(errors.New("no columns declared"))
	}
	if opts.MaxRows > 0 && len(req.Rows) > opts.MaxRows {
		return nil, nil, &core.StructuralError{
			Reason: fmt.Sprintf("dataset has more than %d data rows", opts.MaxRows),
		}
	}

	header := make([]string, len(req.Columns))
	typed := make([]ingest.Declaration, 0, len(req.Columns))
	for i, decl := range req.Columns {
		header[i] = strings.TrimSpace(decl.Header)
		if header[i] == "" {
			header[i] = "column " + strconv.Itoa(i+1)
		}
		if strings.TrimSpace(decl.Type) == "" {
			continue
		}
		decl.Header = header[i]
		typed = append(typed, decl)
	}

	columns, guessed, err := ingest.ResolveColumns(header, typed, opts.Catalog)
	if err != nil {
		return nil, nil, bodyError(err)
	}

	for _, row := range req.Rows {
		for i := range row {
			row[i] = ingest.CleanCell(row[i])
		}
	}
	d := &core.Dataset{ID: opts.DatasetID, Columns: columns, Rows: req.Rows}

	stats := &ingest.Stats{Rows: len(req.Rows), GuessedColumns: guessed}
	for _, c := range columns {
		if c.Type.Role == core.RoleUnknown {
			stats.UnknownColumns = append(stats.UnknownColumns, c.Header)
		}
	}
	return d, stats, nil
}

// bodyError classifies a decoding failure. Oversized bodies, structural
// errors and cancellation keep their identity; everything else is the
// client's malformed input.
func bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	var structural *core.StructuralError
	switch {
	case errors.As(err, &tooLarge), errors.As(err, &structural):
		return err
	case errors.Is(err, errInvalidRequest),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, io.EOF):
		return invalidRequest(errors.New("empty request body"))
	}
	return invalidRequest(err)
}

// parseDelimiter accepts a single character or the word "tab".
func parseDelimiter(s string) (rune, error) {
	switch {
	case s == "":
		return 0, nil
	case strings.EqualFold(s, "tab"):
		return '\t', nil
	case utf8.RuneCountInString(s) == 1:
		r, _ := utf8.DecodeRuneInString(s)
		if r == '"' || r == '\r' || r == '\n' || r == utf8.RuneError {
			break
		}
		return r, nil
	}
	return 0, invalidRequest(fmt.Errorf("unsupported delimiter %q", s))
}
