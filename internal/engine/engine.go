// Package engine is the built-in validation engine for cruise datasets.
//
// It reads a column specification, rebuilds every row's timestamp, converts
// measured values into canonical units and runs the configured checks:
// value ranges, required values, time ordering and gaps, ship speed between
// positions, constant runs and jumps. Checks are driven by a YAML rule set
// (see rules.yaml) that can be replaced at startup.
package engine

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/JonMunkholm/cruisecheck/internal/core"
)

// ctxCheckInterval is how many rows are processed between context checks.
const ctxCheckInterval = 1000

// Engine implements core.Engine.
type Engine struct {
	rules *Rules
}

// New creates an engine. A nil rule set uses the built-in rules.
func New(rules *Rules) (*Engine, error) {
	if rules == nil {
		var err error
		if rules, err = DefaultRules(); err != nil {
			return nil, err
		}
	}
	return &Engine{rules: rules}, nil
}

// Rules returns the engine's rule set.
func (e *Engine) Rules() *Rules { return e.rules }

// run holds the state of one engine invocation.
type run struct {
	rules  *Rules
	spec   *core.SpecDocument
	rows   [][]string
	out    *core.EngineResult
	values map[string][]float64 // canonical values per column key, NaN when absent
	lonCol int
	latCol int
}

// Run validates rows against spec.
func (e *Engine) Run(ctx context.Context, spec *core.SpecDocument, rows [][]string) (*core.EngineResult, error) {
	r := &run{
		rules:  e.rules,
		spec:   spec,
		rows:   rows,
		out:    &core.EngineResult{Rows: make([]core.StdRow, len(rows))},
		values: make(map[string][]float64, len(spec.Columns)),
	}
	if c, ok := spec.ColumnByName("longitude"); ok {
		r.lonCol = c.Column
	}
	if c, ok := spec.ColumnByName("latitude"); ok {
		r.latCol = c.Column
	}
	if r.lonCol == 0 || r.latCol == 0 {
		r.metadata(core.SeverityError, "Longitude and latitude columns are required to place the cruise")
	}

	for i := range rows {
		if i%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if err := r.standardizeRow(i); err != nil {
			return nil, err
		}
	}

	r.checkTimes()
	r.checkSpeed()
	for _, col := range spec.Columns {
		rule, ok := r.rules.Column(col.StdName)
		if !ok {
			continue
		}
		if rule.Constant {
			r.checkConstant(col)
		}
		if rule.Jump {
			r.checkJump(col)
		}
	}

	r.out.ProcessedOK = true
	return r.out, nil
}

func (r *run) message(sev core.Severity, row, col int, format string, args ...any) {
	r.out.Messages = append(r.out.Messages, core.EngineMessage{
		Kind:     core.KindData,
		Severity: sev,
		Row:      row,
		Column:   col,
		Text:     fmt.Sprintf(format, args...),
	})
}

func (r *run) metadata(sev core.Severity, text string) {
	r.out.Messages = append(r.out.Messages, core.EngineMessage{
		Kind:     core.KindMetadata,
		Severity: sev,
		Text:     text,
	})
}

// standardizeRow parses the time and every measured value of row i.
func (r *run) standardizeRow(i int) error {
	row := r.rows[i]
	std := core.StdRow{
		Values:    make(map[string]string, len(r.spec.Columns)),
		Longitude: math.NaN(),
		Latitude:  math.NaN(),
	}

	// The parse error is not quoted in the message: it may echo cell text
	// that would confuse message classification.
	if t, err := rowTime(r.spec, row); err == nil {
		std.Time = t
		std.TimeOK = true
	} else {
		r.message(core.SeverityError, i+1, 0, "Unable to build a timestamp for this row")
	}

	for _, col := range r.spec.Columns {
		if col.Column < 1 || col.Column > len(row) {
			return fmt.Errorf("column %d of %s outside row of %d values", col.Column, col.StdName, len(row))
		}
		vals, ok := r.values[col.Key]
		if !ok {
			vals = make([]float64, len(r.rows))
			r.values[col.Key] = vals
		}
		vals[i] = math.NaN()

		raw := strings.TrimSpace(row[col.Column-1])
		rule, _ := r.rules.Column(col.StdName)

		if raw == "" || (col.Missing != "" && raw == col.Missing) {
			std.Values[col.Key] = row[col.Column-1]
			if rule != nil && rule.Required {
				r.message(core.SeverityError, i+1, col.Column, "Missing required value for %s", col.StdName)
			}
			continue
		}

		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			std.Values[col.Key] = row[col.Column-1]
			r.message(core.SeverityError, i+1, col.Column,
				"%s value is not a number and is outside the extreme range", col.StdName)
			continue
		}

		if rule != nil {
			if conv, ok := rule.Convert[col.Unit]; ok {
				v = conv.Apply(v)
			}
			if rule.Extreme != nil && !rule.Extreme.Contains(v) {
				r.message(core.SeverityError, i+1, col.Column,
					"%s value %s is outside the extreme range [%g, %g]",
					col.StdName, formatValue(v), rule.Extreme.Min, rule.Extreme.Max)
			} else if rule.Expected != nil && !rule.Expected.Contains(v) {
				r.message(core.SeverityWarning, i+1, col.Column,
					"%s value %s is outside the expected range [%g, %g]",
					col.StdName, formatValue(v), rule.Expected.Min, rule.Expected.Max)
			}
		}
		if col.StdName == "longitude" {
			v = normalizeLongitude(v)
		}

		vals[i] = v
		std.Values[col.Key] = formatValue(v)
		switch col.Column {
		case r.lonCol:
			std.Longitude = v
		case r.latCol:
			std.Latitude = v
		}
	}

	r.out.Rows[i] = std
	return nil
}

// checkTimes reports rows earlier than their predecessor and large gaps.
func (r *run) checkTimes() {
	prev := -1
	for i, row := range r.out.Rows {
		if !row.TimeOK {
			continue
		}
		if prev >= 0 {
			dt := row.Time.Sub(r.out.Rows[prev].Time)
			switch {
			case dt < 0:
				r.message(core.SeverityError, i+1, 0,
					"Row timestamp %s is earlier than the previous row", row.Time.Format(core.TimestampLayout))
			case r.rules.Gap.WarnDays > 0 && dt.Hours()/24 > r.rules.Gap.WarnDays:
				r.message(core.SeverityWarning, i+1, 0,
					"Consecutive measurements are %.2f days apart", dt.Hours()/24)
			}
		}
		prev = i
	}
}

// checkSpeed reports implausible ship speeds between consecutive positions.
func (r *run) checkSpeed() {
	if r.rules.Speed.WarnKnots <= 0 && r.rules.Speed.ErrorKnots <= 0 {
		return
	}
	prev := -1
	for i, row := range r.out.Rows {
		if !row.TimeOK || math.IsNaN(row.Longitude) || math.IsNaN(row.Latitude) {
			continue
		}
		if prev >= 0 {
			p := r.out.Rows[prev]
			hours := row.Time.Sub(p.Time).Hours()
			if hours > 0 {
				knots := distanceNM(p.Latitude, p.Longitude, row.Latitude, row.Longitude) / hours
				switch {
				case r.rules.Speed.ErrorKnots > 0 && knots > r.rules.Speed.ErrorKnots:
					r.message(core.SeverityError, i+1, 0, "Ship speed of %.1f knots is not possible", knots)
				case r.rules.Speed.WarnKnots > 0 && knots > r.rules.Speed.WarnKnots:
					r.message(core.SeverityWarning, i+1, 0, "Ship speed of %.1f knots is questionable", knots)
				}
			}
		}
		prev = i
	}
}

// checkConstant reports runs of identical values at least MinRows long.
func (r *run) checkConstant(col core.SpecColumn) {
	minRows := r.rules.Constant.MinRows
	if minRows <= 1 {
		return
	}
	vals := r.values[col.Key]
	start := 0
	flush := func(end int) {
		if end-start >= minRows && !math.IsNaN(vals[start]) {
			for row := start; row < end; row++ {
				r.message(core.SeverityWarning, row+1, col.Column,
					"%s value %s is constant for %d rows", col.StdName, formatValue(vals[start]), end-start)
			}
		}
	}
	for i := 1; i <= len(vals); i++ {
		if i < len(vals) && vals[i] == vals[start] {
			continue
		}
		flush(i)
		start = i
	}
}

// checkJump reports changes between consecutive values that lie more than
// Sigma standard deviations from the mean change.
func (r *run) checkJump(col core.SpecColumn) {
	if r.rules.Jump.Sigma <= 0 {
		return
	}
	vals := r.values[col.Key]
	type delta struct {
		row int
		d   float64
	}
	var deltas []delta
	prev := -1
	for i, v := range vals {
		if math.IsNaN(v) {
			continue
		}
		if prev >= 0 {
			deltas = append(deltas, delta{row: i, d: v - vals[prev]})
		}
		prev = i
	}
	if len(deltas) < r.rules.Jump.MinRows || len(deltas) < 2 {
		return
	}

	var sum, sumSq float64
	for _, d := range deltas {
		sum += d.d
	}
	mean := sum / float64(len(deltas))
	for _, d := range deltas {
		sumSq += (d.d - mean) * (d.d - mean)
	}
	std := math.Sqrt(sumSq / float64(len(deltas)-1))
	if std == 0 {
		return
	}
	for _, d := range deltas {
		if n := math.Abs(d.d-mean) / std; n > r.rules.Jump.Sigma {
			r.message(core.SeverityWarning, d.row+1, col.Column,
				"%s change of %s is %.1f standard deviations from the mean change",
				col.StdName, formatValue(d.d), n)
		}
	}
}

// formatValue renders a canonical value rounded to six decimals.
func formatValue(v float64) string {
	return strconv.FormatFloat(math.Round(v*1e6)/1e6, 'f', -1, 64)
}

// normalizeLongitude maps a longitude into [-180, 180).
func normalizeLongitude(lon float64) float64 {
	lon = math.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	return lon - 180
}

const earthRadiusNM = 3440.065

// distanceNM returns the great-circle distance in nautical miles.
func distanceNM(lat1, lon1, lat2, lon2 float64) float64 {
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLon := (lon2 - lon1) * rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusNM * math.Asin(math.Min(1, math.Sqrt(a)))
}

var _ core.Engine = (*Engine)(nil)
