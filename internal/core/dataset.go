package core

import (
	"fmt"
	"regexp"
	"strings"
)

// Column is one declared column of a dataset.
type Column struct {
	Type    ColumnType
	Header  string // user-supplied header
	Unit    string // user-declared unit; must be one of Type.Units
	Missing string // missing-value marker; empty means none declared
}

// Dataset is a cruise's tabular data plus per-column metadata. Rows are stored
// row-major and every row has exactly len(Columns) cells.
type Dataset struct {
	ID      string
	Columns []Column
	Rows    [][]string
}

// NumColumns returns the number of declared columns.
func (d *Dataset) NumColumns() int { return len(d.Columns) }

// NumRows returns the number of data rows.
func (d *Dataset) NumRows() int { return len(d.Rows) }

// Validate checks the structural invariants of the dataset.
func (d *Dataset) Validate() error {
	if _, err := NormalizeDatasetID(d.ID); err != nil {
		return err
	}
	if len(d.Columns) == 0 {
		return &StructuralError{Reason: "dataset has no columns"}
	}
	for i, row := range d.Rows {
		if len(row) != len(d.Columns) {
			return &StructuralError{
				Reason: fmt.Sprintf("row %d has %d values, expected %d", i+1, len(row), len(d.Columns)),
			}
		}
	}
	return nil
}

// TypeNames returns the declared type name of every column in order.
func (d *Dataset) TypeNames() []string {
	names := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		names[i] = c.Type.Name
	}
	return names
}

// appendColumn adds a column and fills every row with values[i].
func (d *Dataset) appendColumn(col Column, values []string) {
	d.Columns = append(d.Columns, col)
	for i := range d.Rows {
		d.Rows[i] = append(d.Rows[i], values[i])
	}
}

// ColumnIndices maps a column type name to the 0-based position of the first
// column declared with that type.
type ColumnIndices map[string]int

// BuildColumnIndices indexes the dataset's columns by type.
func BuildColumnIndices(d *Dataset) ColumnIndices {
	idx := make(ColumnIndices, len(d.Columns))
	for i, c := range d.Columns {
		if _, seen := idx[c.Type.Name]; !seen {
			idx[c.Type.Name] = i
		}
	}
	return idx
}

// Index returns the position of the column of the given type.
func (ci ColumnIndices) Index(typeName string) (int, bool) {
	i, ok := ci[typeName]
	return i, ok
}

// Has reports whether a column of the given type exists.
func (ci ColumnIndices) Has(typeName string) bool {
	_, ok := ci[typeName]
	return ok
}

var datasetIDPattern = regexp.MustCompile(`^[A-Z0-9-]{12,15}$`)

// NormalizeDatasetID uppercases and trims an expocode and checks that it has
// 12 to 15 characters drawn from A-Z, 0-9 and '-'.
func NormalizeDatasetID(id string) (string, error) {
	upper := strings.ToUpper(strings.TrimSpace(id))
	if !datasetIDPattern.MatchString(upper) {
		return "", fmt.Errorf("%w: %q", ErrInvalidDatasetID, id)
	}
	return upper, nil
}
