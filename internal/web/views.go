package web

// views.go defines the JSON shapes returned by the API. Core types hold NaN
// coordinates and zero-based flag sets; views translate them into JSON-safe,
// one-based values.

import (
	"math"
	"time"

	"github.com/JonMunkholm/cruisecheck/internal/core"
)

type messageView struct {
	Severity    string   `json:"severity"`
	Category    string   `json:"category"`
	Row         int      `json:"row,omitempty"`
	Column      int      `json:"column,omitempty"`
	ColumnName  string   `json:"columnName,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Timestamp   string   `json:"timestamp,omitempty"`
	Explanation string   `json:"explanation"`
}

func newMessageView(m core.Message) messageView {
	v := messageView{
		Severity:    m.Severity.String(),
		Category:    m.Category.String(),
		ColumnName:  m.ColumnName,
		Timestamp:   m.Timestamp,
		Explanation: m.Explanation,
	}
	if m.Row > 0 {
		v.Row = m.Row
	}
	if m.Column > 0 {
		v.Column = m.Column
	}
	if !math.IsNaN(m.Longitude) && !math.IsNaN(m.Latitude) {
		lon, lat := m.Longitude, m.Latitude
		v.Longitude, v.Latitude = &lon, &lat
	}
	return v
}

func newMessageViews(msgs []core.Message) []messageView {
	out := make([]messageView, len(msgs))
	for i, m := range msgs {
		out[i] = newMessageView(m)
	}
	return out
}

type columnFlagsView struct {
	Column int    `json:"column"`
	Header string `json:"header"`
	Type   string `json:"type"`
	Bad    []int  `json:"woce4"`
	Quest  []int  `json:"woce3"`
}

type columnView struct {
	Header  string `json:"header"`
	Type    string `json:"type"`
	Unit    string `json:"unit,omitempty"`
	Missing string `json:"missing,omitempty"`
}

type dataView struct {
	Columns []columnView `json:"columns"`
	Rows    [][]string   `json:"rows"`
}

type checkResponse struct {
	RunID            string            `json:"runId"`
	DatasetID        string            `json:"datasetId"`
	Strategy         string            `json:"strategy"`
	Status           string            `json:"status"`
	NumRows          int               `json:"numRows"`
	ErrorRows        int               `json:"errorRows"`
	WarningRows      int               `json:"warningRows"`
	GeopositionError bool              `json:"geopositionError"`
	AppendedColumns  int               `json:"appendedColumns"`
	EngineError      string            `json:"engineError,omitempty"`
	Fingerprint      string            `json:"fingerprint"`
	Flags            []columnFlagsView `json:"flags"`
	Messages         []messageView     `json:"messages"`
	Data             *dataView         `json:"data,omitempty"`
	CheckedAt        time.Time         `json:"checkedAt"`
}

// newCheckResponse renders a result; d is the dataset after standardization.
func newCheckResponse(res *core.CheckResult, d *core.Dataset, includeData bool) checkResponse {
	resp := checkResponse{
		RunID:            res.RunID.String(),
		DatasetID:        res.DatasetID,
		Strategy:         res.Strategy.String(),
		Status:           res.Status.String(),
		NumRows:          d.NumRows(),
		GeopositionError: res.GeopositionError,
		AppendedColumns:  res.AppendedColumns,
		Fingerprint:      res.Fingerprint,
		Flags:            make([]columnFlagsView, 0, len(res.Flags)),
		Messages:         newMessageViews(res.Messages),
		CheckedAt:        res.CheckedAt,
	}
	if res.Assignment != nil {
		resp.ErrorRows = res.Assignment.ErrorRows
		resp.WarningRows = res.Assignment.WarningRows
	}
	if res.EngineErr != nil {
		resp.EngineError = core.MapError(res.EngineErr).Message
	}

	for i, fs := range res.Flags {
		if fs.Hard.Len() == 0 && fs.Soft.Len() == 0 {
			continue
		}
		col := d.Columns[i]
		resp.Flags = append(resp.Flags, columnFlagsView{
			Column: i + 1,
			Header: col.Header,
			Type:   col.Type.Name,
			Bad:    oneBased(fs.Hard.Sorted()),
			Quest:  oneBased(fs.Soft.Sorted()),
		})
	}

	if includeData {
		data := &dataView{Columns: make([]columnView, len(d.Columns)), Rows: d.Rows}
		for i, c := range d.Columns {
			data.Columns[i] = columnView{Header: c.Header, Type: c.Type.Name, Unit: c.Unit, Missing: c.Missing}
		}
		resp.Data = data
	}
	return resp
}

func oneBased(rows []int) []int {
	out := make([]int, len(rows))
	for i, r := range rows {
		out[i] = r + 1
	}
	return out
}

type columnTypeView struct {
	Name     string   `json:"name"`
	StdName  string   `json:"stdName"`
	Role     string   `json:"role"`
	Temporal string   `json:"temporal,omitempty"`
	Units    []string `json:"units"`
}

func newColumnTypeViews(c *core.Catalog) []columnTypeView {
	all := c.All()
	out := make([]columnTypeView, 0, len(all))
	for _, t := range all {
		v := columnTypeView{Name: t.Name, StdName: t.StdName, Role: t.Role.String(), Units: t.Units}
		if t.Temporal != core.FieldNone {
			v.Temporal = t.Temporal.String()
		}
		out = append(out, v)
	}
	return out
}

type specResponse struct {
	DatasetID      string `json:"datasetId"`
	Strategy       string `json:"strategy"`
	Rows           int    `json:"rows"`
	GuessedColumns int    `json:"guessedColumns"`
	Spec           string `json:"spec"`
}
