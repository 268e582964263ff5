package core

import (
	"math"
	"strings"
)

// fragmentRule maps a fragment of engine message text to a category.
type fragmentRule struct {
	fragment string
	category Category
}

// fragmentRules is matched case-sensitively. Every data message must match
// exactly one category; two fragments of the same category may both match.
var fragmentRules = []fragmentRule{
	{"expected range", CategoryRange},
	{"extreme range", CategoryRange},
	{"timestamp", CategoryTimeOrder},
	{"Ship speed", CategorySpeed},
	{"Missing required value", CategoryMissing},
	{"constant for", CategoryConstant},
	{"standard deviations", CategoryJump},
	{"days apart", CategoryGap},
	{"Unhandled exception", CategoryEngineError},
}

// Classify returns the category of an engine message. Metadata messages are
// tagged directly; data messages are matched against the fragment table.
func Classify(m EngineMessage) (Category, error) {
	if m.Kind == KindMetadata {
		return CategoryMetadata, nil
	}

	var matched []Category
	for _, rule := range fragmentRules {
		if !strings.Contains(m.Text, rule.fragment) {
			continue
		}
		dup := false
		for _, c := range matched {
			if c == rule.category {
				dup = true
				break
			}
		}
		if !dup {
			matched = append(matched, rule.category)
		}
	}

	switch len(matched) {
	case 0:
		return CategoryUnknown, &UnrecognizedMessageError{Text: m.Text}
	case 1:
		return matched[0], nil
	default:
		return CategoryUnknown, &AmbiguousMessageError{Text: m.Text, Categories: matched}
	}
}

// ClassifyMessages classifies every engine message and attaches the position
// and time of the reported row when the engine resolved them.
func ClassifyMessages(result *EngineResult, d *Dataset) ([]Message, error) {
	msgs := make([]Message, 0, len(result.Messages))
	for _, em := range result.Messages {
		cat, err := Classify(em)
		if err != nil {
			return nil, err
		}
		m := NewMessage(em.Severity, cat, em.Row, em.Column, em.Text)
		if em.Column >= 1 && em.Column <= len(d.Columns) {
			m.ColumnName = d.Columns[em.Column-1].Header
		} else if em.ColumnName != "" {
			m.ColumnName = em.ColumnName
		}
		if em.Row >= 1 && em.Row <= len(result.Rows) {
			r := result.Rows[em.Row-1]
			if !math.IsNaN(r.Longitude) && !math.IsNaN(r.Latitude) {
				m.Longitude = r.Longitude
				m.Latitude = r.Latitude
			}
			if r.TimeOK {
				m.Timestamp = r.Time.UTC().Format(TimestampLayout)
			}
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

// TimestampLayout is the layout of message timestamps.
const TimestampLayout = "2006-01-02 15:04:05"
