package core

// woce.go assigns WOCE quality flags to dataset cells from classified messages.
//
// Flags are recomputed from scratch on every check run. Errors become hard
// (WOCE-4) flags and warnings soft (WOCE-3) flags. Hard always wins on a
// shared cell, and user-supplied WOCE columns override every measured column
// of their CO2 group.

import (
	"fmt"
	"sort"
	"strings"
)

// Flag values understood in user WOCE columns.
const (
	WoceBad          = "4"
	WoceQuestionable = "3"
)

// RowSet is a set of 0-based row indices.
type RowSet map[int]struct{}

func (s RowSet) Add(row int) { s[row] = struct{}{} }

func (s RowSet) Has(row int) bool {
	_, ok := s[row]
	return ok
}

func (s RowSet) Len() int { return len(s) }

// Remove deletes every row of other from s.
func (s RowSet) Remove(other RowSet) {
	for row := range other {
		delete(s, row)
	}
}

// Sorted returns the rows in ascending order.
func (s RowSet) Sorted() []int {
	rows := make([]int, 0, len(s))
	for row := range s {
		rows = append(rows, row)
	}
	sort.Ints(rows)
	return rows
}

// FlagSet holds the flagged rows of one column. Hard and Soft are disjoint
// after assignment.
type FlagSet struct {
	Hard RowSet
	Soft RowSet
}

func newFlagSet() FlagSet {
	return FlagSet{Hard: RowSet{}, Soft: RowSet{}}
}

// Assignment is the outcome of flag assignment for one dataset.
type Assignment struct {
	Flags            []FlagSet // one per column
	NoColumnHard     RowSet    // rows with an error not tied to a column
	NoColumnSoft     RowSet    // rows with a warning not tied to a column
	UserHard         RowSet    // rows the user flagged 4
	UserSoft         RowSet    // rows the user flagged 3
	ErrorRows        int
	WarningRows      int
	GeopositionError bool
}

// temporalFanOut lists the temporal fields that receive column-less flags.
var temporalFanOut = map[TemporalField]bool{
	FieldTimestamp: true, FieldDate: true, FieldTime: true,
	FieldYear: true, FieldMonth: true, FieldDay: true,
	FieldHour: true, FieldMinute: true, FieldSecond: true,
	FieldDayOfYear: true,
}

// AssignFlags computes the flag sets of every column of d from msgs.
func AssignFlags(msgs []Message, d *Dataset, idx ColumnIndices) (*Assignment, error) {
	numCols, numRows := d.NumColumns(), d.NumRows()
	a := &Assignment{
		Flags:        make([]FlagSet, numCols),
		NoColumnHard: RowSet{},
		NoColumnSoft: RowSet{},
		UserHard:     RowSet{},
		UserSoft:     RowSet{},
	}
	for i := range a.Flags {
		a.Flags[i] = newFlagSet()
	}

	var fanOut []int
	for i, c := range d.Columns {
		if c.Type.Role == RoleTemporal && temporalFanOut[c.Type.Temporal] {
			fanOut = append(fanOut, i)
		}
	}

	for _, m := range msgs {
		if m.Row == 0 {
			continue
		}
		if m.Row < 0 || m.Row > numRows {
			return nil, &IndexRangeError{Kind: "row", Index: m.Row, Max: numRows}
		}
		if m.Column < 0 || m.Column > numCols {
			return nil, &IndexRangeError{Kind: "column", Index: m.Column, Max: numCols}
		}
		row := m.Row - 1

		if m.Column == 0 {
			switch m.Severity {
			case SeverityError:
				a.NoColumnHard.Add(row)
			case SeverityWarning:
				a.NoColumnSoft.Add(row)
			}
			for _, col := range fanOut {
				a.flag(col, row, m.Severity)
			}
			continue
		}
		a.flag(m.Column-1, row, m.Severity)
	}
	a.resolveConflicts()

	a.applyUserFlags(d)
	a.resolveConflicts()

	a.count()
	a.GeopositionError = a.hasGeopositionError(d, idx)
	return a, nil
}

func (a *Assignment) flag(col, row int, sev Severity) {
	switch sev {
	case SeverityError:
		a.Flags[col].Hard.Add(row)
	case SeverityWarning:
		a.Flags[col].Soft.Add(row)
	}
}

func (a *Assignment) resolveConflicts() {
	for _, fs := range a.Flags {
		fs.Soft.Remove(fs.Hard)
	}
	a.UserSoft.Remove(a.UserHard)
	a.NoColumnSoft.Remove(a.NoColumnHard)
}

// applyUserFlags copies user WOCE-4 and WOCE-3 values onto every measured
// column of the flag column's CO2 group.
func (a *Assignment) applyUserFlags(d *Dataset) {
	for fc, flagCol := range d.Columns {
		if flagCol.Type.Role != RoleFlag {
			continue
		}
		var targets []int
		for i, c := range d.Columns {
			if c.Type.Role == RoleMeasured && c.Type.Group != GroupNone && c.Type.Group == flagCol.Type.Group {
				targets = append(targets, i)
			}
		}
		for row, cells := range d.Rows {
			var sev Severity
			switch strings.TrimSpace(cells[fc]) {
			case WoceBad:
				sev = SeverityError
				a.UserHard.Add(row)
			case WoceQuestionable:
				sev = SeverityWarning
				a.UserSoft.Add(row)
			default:
				continue
			}
			for _, col := range targets {
				a.flag(col, row, sev)
			}
		}
	}
}

func (a *Assignment) count() {
	hard := RowSet{}
	soft := RowSet{}
	for _, fs := range a.Flags {
		for row := range fs.Hard {
			hard.Add(row)
		}
		for row := range fs.Soft {
			soft.Add(row)
		}
	}
	soft.Remove(hard)
	a.ErrorRows = hard.Len()
	a.WarningRows = soft.Len()
}

func (a *Assignment) hasGeopositionError(d *Dataset, idx ColumnIndices) bool {
	if !idx.Has(TypeLongitude) || !idx.Has(TypeLatitude) {
		return true
	}
	for i, c := range d.Columns {
		positional := c.Type.Name == TypeLongitude || c.Type.Name == TypeLatitude
		if (c.Type.Role == RoleTemporal || positional) && a.Flags[i].Hard.Len() > 0 {
			return true
		}
	}
	return false
}

// StatusKind is the overall verdict of a check.
type StatusKind int

const (
	StatusAcceptable StatusKind = iota
	StatusWarnings
	StatusErrors
	StatusUnacceptable
)

// CheckStatus summarizes a check run.
type CheckStatus struct {
	Kind  StatusKind
	Count int // rows counted for StatusErrors and StatusWarnings
}

func (s CheckStatus) String() string {
	switch s.Kind {
	case StatusUnacceptable:
		return "Unacceptable"
	case StatusErrors:
		return fmt.Sprintf("%d errors", s.Count)
	case StatusWarnings:
		return fmt.Sprintf("%d warnings", s.Count)
	default:
		return "No warnings"
	}
}

// MarshalText renders the status string.
func (s CheckStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// DeriveStatus computes the check status. A nil assignment means the engine
// failed to process the dataset.
func DeriveStatus(a *Assignment) CheckStatus {
	switch {
	case a == nil:
		return CheckStatus{Kind: StatusUnacceptable}
	case a.ErrorRows > 0:
		return CheckStatus{Kind: StatusErrors, Count: a.ErrorRows}
	case a.WarningRows > 0:
		return CheckStatus{Kind: StatusWarnings, Count: a.WarningRows}
	default:
		return CheckStatus{Kind: StatusAcceptable}
	}
}
