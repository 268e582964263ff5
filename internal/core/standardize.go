package core

import (
	"fmt"
	"strconv"
)

// Sentinel values written where a calendar field cannot be derived.
const (
	MissingInt   = "-99"
	MissingFloat = "-1.0E34"
)

// calendarColumns are the six fields every standardized dataset carries.
var calendarColumns = []struct {
	typeName string
	field    TemporalField
}{
	{TypeYear, FieldYear},
	{TypeMonth, FieldMonth},
	{TypeDay, FieldDay},
	{TypeHour, FieldHour},
	{TypeMinute, FieldMinute},
	{TypeSecond, FieldSecond},
}

// Standardize rewrites the measured columns of d with the engine's
// standardized values and appends any calendar columns the dataset lacks.
// Values are matched to columns by SpecColumn key. It returns the number of
// appended columns. On error d is left unchanged.
func Standardize(d *Dataset, rows []StdRow, catalog *Catalog) (int, error) {
	p, err := prepareStandardize(d, rows, catalog)
	if err != nil {
		return 0, err
	}
	return p.apply(d), nil
}

// standardization holds every change to a dataset, computed before any of
// them is applied.
type standardization struct {
	cells    map[int][]string // dataset column index -> new value per row
	appended []Column
	values   [][]string // per appended column
}

func prepareStandardize(d *Dataset, rows []StdRow, catalog *Catalog) (*standardization, error) {
	if len(rows) != len(d.Rows) {
		return nil, &StructuralError{
			Reason: fmt.Sprintf("%d standardized rows for %d data rows", len(rows), len(d.Rows)),
		}
	}

	p := &standardization{cells: make(map[int][]string)}
	present := make(map[TemporalField]bool)
	keys := measuredKeys(d)
	for i, c := range d.Columns {
		switch c.Type.Role {
		case RoleMeasured:
			values := make([]string, len(rows))
			for r, std := range rows {
				value, ok := std.Values[keys[i]]
				if !ok {
					return nil, &StructuralError{
						Reason: fmt.Sprintf("no standardized value for %s in row %d", keys[i], r+1),
					}
				}
				values[r] = value
			}
			p.cells[i] = values
		case RoleTemporal:
			present[c.Type.Temporal] = true
		}
	}

	for _, cc := range calendarColumns {
		if present[cc.field] {
			continue
		}
		values := make([]string, len(rows))
		for r, std := range rows {
			values[r] = calendarValue(std, cc.field)
		}
		t := catalog.MustLookup(cc.typeName)
		p.appended = append(p.appended, Column{Type: t, Header: t.StdName, Unit: t.Units[0]})
		p.values = append(p.values, values)
	}
	return p, nil
}

// apply writes the prepared changes into d and returns the number of
// appended columns.
func (p *standardization) apply(d *Dataset) int {
	for col, values := range p.cells {
		for r, v := range values {
			d.Rows[r][col] = v
		}
	}
	for i, c := range p.appended {
		d.appendColumn(c, p.values[i])
	}
	return len(p.appended)
}

func calendarValue(row StdRow, f TemporalField) string {
	if !row.TimeOK {
		if f == FieldSecond {
			return MissingFloat
		}
		return MissingInt
	}
	t := row.Time.UTC()
	switch f {
	case FieldYear:
		return strconv.Itoa(t.Year())
	case FieldMonth:
		return strconv.Itoa(int(t.Month()))
	case FieldDay:
		return strconv.Itoa(t.Day())
	case FieldHour:
		return strconv.Itoa(t.Hour())
	case FieldMinute:
		return strconv.Itoa(t.Minute())
	default:
		sec := float64(t.Second()) + float64(t.Nanosecond())/1e9
		return strconv.FormatFloat(sec, 'f', -1, 64)
	}
}
