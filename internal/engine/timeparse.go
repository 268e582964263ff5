package engine

// timeparse.go rebuilds a row's timestamp from its temporal columns according
// to the dataset's temporal strategy.

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/cruisecheck/internal/core"
)

// cellReader returns the trimmed value of a temporal slot in a row, or false
// if the slot is absent, empty, or holds the missing-value marker.
type cellReader func(f core.TemporalField) (string, bool)

func slotReader(spec *core.SpecDocument, row []string) cellReader {
	return func(f core.TemporalField) (string, bool) {
		slot, ok := spec.Slot(f)
		if !ok || slot.Column < 1 || slot.Column > len(row) {
			return "", false
		}
		v := strings.TrimSpace(row[slot.Column-1])
		if v == "" || (slot.Missing != "" && v == slot.Missing) {
			return "", false
		}
		return v, true
	}
}

// rowTime computes the UTC time of a row.
func rowTime(spec *core.SpecDocument, row []string) (time.Time, error) {
	cell := slotReader(spec, row)

	switch spec.Strategy {
	case core.StrategyYMDHMS:
		y, mo, d, err := ymd(cell)
		if err != nil {
			return time.Time{}, err
		}
		h, err := intField(cell, core.FieldHour)
		if err != nil {
			return time.Time{}, err
		}
		mi, err := intField(cell, core.FieldMinute)
		if err != nil {
			return time.Time{}, err
		}
		sec := 0.0
		if v, ok := cell(core.FieldSecond); ok {
			if sec, err = strconv.ParseFloat(v, 64); err != nil {
				return time.Time{}, fmt.Errorf("second %q: %w", v, err)
			}
		}
		return buildTime(y, mo, d, h, mi, sec)

	case core.StrategyYMDTime:
		y, mo, d, err := ymd(cell)
		if err != nil {
			return time.Time{}, err
		}
		v, ok := cell(core.FieldTime)
		if !ok {
			return time.Time{}, fmt.Errorf("time missing")
		}
		h, mi, sec, err := parseClock(v)
		if err != nil {
			return time.Time{}, err
		}
		return buildTime(y, mo, d, h, mi, sec)

	case core.StrategyDateTime:
		dv, ok := cell(core.FieldDate)
		if !ok {
			return time.Time{}, fmt.Errorf("date missing")
		}
		slot, _ := spec.Slot(core.FieldDate)
		y, mo, d, err := parseDate(dv, slot.Unit)
		if err != nil {
			return time.Time{}, err
		}
		tv, ok := cell(core.FieldTime)
		if !ok {
			return time.Time{}, fmt.Errorf("time missing")
		}
		h, mi, sec, err := parseClock(tv)
		if err != nil {
			return time.Time{}, err
		}
		return buildTime(y, mo, d, h, mi, sec)

	case core.StrategyTimestamp:
		v, ok := cell(core.FieldTimestamp)
		if !ok {
			return time.Time{}, fmt.Errorf("timestamp missing")
		}
		slot, _ := spec.Slot(core.FieldTimestamp)
		datePart, clockPart, found := strings.Cut(strings.Replace(v, "T", " ", 1), " ")
		if !found {
			return time.Time{}, fmt.Errorf("timestamp %q has no time part", v)
		}
		y, mo, d, err := parseDate(datePart, slot.Unit)
		if err != nil {
			return time.Time{}, err
		}
		h, mi, sec, err := parseClock(strings.TrimSuffix(strings.TrimSpace(clockPart), "Z"))
		if err != nil {
			return time.Time{}, err
		}
		return buildTime(y, mo, d, h, mi, sec)

	case core.StrategyYearDaySecond, core.StrategyYearDecimalDay:
		y, err := intField(cell, core.FieldYear)
		if err != nil {
			return time.Time{}, err
		}
		dv, ok := cell(core.FieldDayOfYear)
		if !ok {
			return time.Time{}, fmt.Errorf("day of year missing")
		}
		doy, err := strconv.ParseFloat(dv, 64)
		if err != nil {
			return time.Time{}, fmt.Errorf("day of year %q: %w", dv, err)
		}
		slot, _ := spec.Slot(core.FieldDayOfYear)
		jan := 1
		if slot.JanFirst != nil {
			jan = *slot.JanFirst
		}
		days := doy - float64(jan)
		if days < 0 || days >= 366 {
			return time.Time{}, fmt.Errorf("day of year %g out of range", doy)
		}
		jan1 := time.Date(y, time.January, 1, 0, 0, 0, 0, time.UTC)
		var t time.Time
		if spec.Strategy == core.StrategyYearDaySecond {
			sv, ok := cell(core.FieldSecondOfDay)
			if !ok {
				return time.Time{}, fmt.Errorf("second of day missing")
			}
			sec, err := strconv.ParseFloat(sv, 64)
			if err != nil {
				return time.Time{}, fmt.Errorf("second of day %q: %w", sv, err)
			}
			if sec < 0 || sec >= 86401 {
				return time.Time{}, fmt.Errorf("second of day %g out of range", sec)
			}
			t = jan1.AddDate(0, 0, int(days)).Add(time.Duration(math.Round(sec * float64(time.Second))))
		} else {
			t = jan1.Add(time.Duration(math.Round(days * 86400 * float64(time.Second))))
		}
		if t.Year() != y {
			return time.Time{}, fmt.Errorf("day of year %g past end of %d", doy, y)
		}
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unsupported temporal strategy %s", spec.Strategy)
}

func ymd(cell cellReader) (int, int, int, error) {
	y, err := intField(cell, core.FieldYear)
	if err != nil {
		return 0, 0, 0, err
	}
	mo, err := intField(cell, core.FieldMonth)
	if err != nil {
		return 0, 0, 0, err
	}
	d, err := intField(cell, core.FieldDay)
	if err != nil {
		return 0, 0, 0, err
	}
	return y, mo, d, nil
}

func intField(cell cellReader, f core.TemporalField) (int, error) {
	v, ok := cell(f)
	if !ok {
		return 0, fmt.Errorf("%s missing", f)
	}
	n, err := parseInt(v)
	if err != nil {
		return 0, fmt.Errorf("%s %q: %w", f, v, err)
	}
	return n, nil
}

// parseInt accepts integers written as floats with no fractional part, e.g. "12.0".
func parseInt(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("not a whole number")
	}
	return int(f), nil
}

// parseDate reads a date written in one of the accepted layouts
// (yyyy-mm-dd, mm-dd-yyyy, dd-mm-yyyy, mm-dd-yy, dd-mm-yy). Dashes, slashes
// and dots are all accepted as separators.
func parseDate(s, layout string) (year, month, day int, err error) {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == '-' || r == '/' || r == '.' })
	order := strings.Split(layout, "-")
	if len(parts) != 3 || len(order) != 3 {
		return 0, 0, 0, fmt.Errorf("date %q does not match %s", s, layout)
	}
	for i, field := range order {
		n, convErr := strconv.Atoi(parts[i])
		if convErr != nil {
			return 0, 0, 0, fmt.Errorf("date %q does not match %s", s, layout)
		}
		switch field {
		case "yyyy":
			year = n
		case "yy":
			year = expandYear(n)
		case "mm":
			month = n
		case "dd":
			day = n
		default:
			return 0, 0, 0, fmt.Errorf("unsupported date layout %q", layout)
		}
	}
	return year, month, day, nil
}

// expandYear maps two-digit years to 1950-2049.
func expandYear(yy int) int {
	if yy >= 50 {
		return 1900 + yy
	}
	return 2000 + yy
}

// parseClock reads hh:mm:ss, hh:mm:ss.sss or hh:mm.
func parseClock(s string) (hour, minute int, second float64, err error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, 0, 0, fmt.Errorf("time %q is not hh:mm:ss", s)
	}
	if hour, err = strconv.Atoi(parts[0]); err != nil {
		return 0, 0, 0, fmt.Errorf("time %q is not hh:mm:ss", s)
	}
	if minute, err = strconv.Atoi(parts[1]); err != nil {
		return 0, 0, 0, fmt.Errorf("time %q is not hh:mm:ss", s)
	}
	if len(parts) == 3 {
		if second, err = strconv.ParseFloat(parts[2], 64); err != nil {
			return 0, 0, 0, fmt.Errorf("time %q is not hh:mm:ss", s)
		}
	}
	return hour, minute, second, nil
}

func buildTime(y, mo, d, h, mi int, sec float64) (time.Time, error) {
	switch {
	case mo < 1 || mo > 12:
		return time.Time{}, fmt.Errorf("month %d out of range", mo)
	case d < 1 || d > 31:
		return time.Time{}, fmt.Errorf("day %d out of range", d)
	case h < 0 || h > 23:
		return time.Time{}, fmt.Errorf("hour %d out of range", h)
	case mi < 0 || mi > 59:
		return time.Time{}, fmt.Errorf("minute %d out of range", mi)
	case sec < 0 || sec >= 60:
		return time.Time{}, fmt.Errorf("second %g out of range", sec)
	}
	whole := math.Floor(sec)
	nanos := int(math.Round((sec - whole) * 1e9))
	t := time.Date(y, time.Month(mo), d, h, mi, int(whole), nanos, time.UTC)
	if t.Day() != d {
		return time.Time{}, fmt.Errorf("%04d-%02d-%02d is not a calendar date", y, mo, d)
	}
	return t, nil
}
