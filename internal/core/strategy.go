package core

import "sort"

// TemporalStrategy names the combination of columns used to rebuild each
// row's timestamp.
type TemporalStrategy int

const (
	StrategyNone TemporalStrategy = iota
	StrategyTimestamp
	StrategyDateTime
	StrategyYearDaySecond
	StrategyYearDecimalDay
	StrategyYMDTime
	StrategyYMDHMS
)

var strategyNames = map[TemporalStrategy]string{
	StrategyTimestamp:      "TIMESTAMP",
	StrategyDateTime:       "DATE_TIME",
	StrategyYearDaySecond:  "YEAR_DAY_SECOND",
	StrategyYearDecimalDay: "YEAR_DECIMAL_DAY",
	StrategyYMDTime:        "YMD_TIME",
	StrategyYMDHMS:         "YMD_HMS",
}

func (s TemporalStrategy) String() string {
	if name, ok := strategyNames[s]; ok {
		return name
	}
	return "NONE"
}

// ParseStrategy is the inverse of String.
func ParseStrategy(name string) (TemporalStrategy, bool) {
	for s, n := range strategyNames {
		if n == name {
			return s, true
		}
	}
	return StrategyNone, false
}

// Fields returns the temporal fields a strategy reads. Optional fields are
// included; SECOND is optional for YMD_HMS.
func (s TemporalStrategy) Fields() []TemporalField {
	switch s {
	case StrategyYMDHMS:
		return []TemporalField{FieldYear, FieldMonth, FieldDay, FieldHour, FieldMinute, FieldSecond}
	case StrategyYMDTime:
		return []TemporalField{FieldYear, FieldMonth, FieldDay, FieldTime}
	case StrategyYearDaySecond:
		return []TemporalField{FieldYear, FieldDayOfYear, FieldSecondOfDay}
	case StrategyYearDecimalDay:
		return []TemporalField{FieldYear, FieldDayOfYear}
	case StrategyDateTime:
		return []TemporalField{FieldDate, FieldTime}
	case StrategyTimestamp:
		return []TemporalField{FieldTimestamp}
	default:
		return nil
	}
}

// Uses reports whether the strategy reads the given field.
func (s TemporalStrategy) Uses(f TemporalField) bool {
	for _, field := range s.Fields() {
		if field == f {
			return true
		}
	}
	return false
}

// SelectStrategy picks the temporal strategy for a set of column types.
// Richer decompositions win over looser ones; the result depends only on which
// temporal fields are present, never on column order.
func SelectStrategy(types []ColumnType) (TemporalStrategy, error) {
	present := make(map[TemporalField]bool)
	for _, t := range types {
		if t.Role == RoleTemporal {
			present[t.Temporal] = true
		}
	}
	has := func(fields ...TemporalField) bool {
		for _, f := range fields {
			if !present[f] {
				return false
			}
		}
		return true
	}

	switch {
	case has(FieldYear, FieldMonth, FieldDay, FieldHour, FieldMinute):
		return StrategyYMDHMS, nil
	case has(FieldYear, FieldMonth, FieldDay, FieldTime):
		return StrategyYMDTime, nil
	case has(FieldYear, FieldDayOfYear):
		if present[FieldSecondOfDay] {
			return StrategyYearDaySecond, nil
		}
		return StrategyYearDecimalDay, nil
	case has(FieldDate, FieldTime):
		return StrategyDateTime, nil
	case has(FieldTimestamp):
		return StrategyTimestamp, nil
	}

	found := make([]string, 0, len(present))
	for f := range present {
		found = append(found, f.String())
	}
	sort.Strings(found)
	return StrategyNone, &MissingTemporalSpecError{Present: found}
}

// SelectDatasetStrategy is SelectStrategy over a dataset's declared columns.
func SelectDatasetStrategy(d *Dataset) (TemporalStrategy, error) {
	types := make([]ColumnType, len(d.Columns))
	for i, c := range d.Columns {
		types[i] = c.Type
	}
	return SelectStrategy(types)
}
