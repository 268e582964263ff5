package core

import "math"

// Severity of a diagnostic. Errors map to WOCE-4, warnings to WOCE-3.
type Severity int

const (
	SeverityUnknown Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "WARNING"
	case SeverityError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseSeverity parses a severity name, returning SeverityUnknown for anything else.
func ParseSeverity(s string) Severity {
	switch s {
	case "WARNING":
		return SeverityWarning
	case "ERROR":
		return SeverityError
	default:
		return SeverityUnknown
	}
}

// Category is the classified kind of a diagnostic.
type Category int

const (
	CategoryUnknown Category = iota
	CategoryMetadata
	CategoryRange
	CategoryTimeOrder
	CategorySpeed
	CategoryMissing
	CategoryConstant
	CategoryJump
	CategoryGap
	CategoryEngineError
)

var categoryNames = map[Category]string{
	CategoryUnknown:     "UNKNOWN",
	CategoryMetadata:    "METADATA",
	CategoryRange:       "DATA_RANGE",
	CategoryTimeOrder:   "DATA_TIME",
	CategorySpeed:       "DATA_SPEED",
	CategoryMissing:     "DATA_MISSING",
	CategoryConstant:    "DATA_CONSTANT",
	CategoryJump:        "DATA_JUMP",
	CategoryGap:         "DATA_GAP",
	CategoryEngineError: "DATA_ERROR",
}

func (c Category) String() string {
	if name, ok := categoryNames[c]; ok {
		return name
	}
	return "UNKNOWN"
}

// ParseCategory parses a category name, returning CategoryUnknown for anything else.
func ParseCategory(s string) Category {
	for c, name := range categoryNames {
		if name == s {
			return c
		}
	}
	return CategoryUnknown
}

// Message is a classified diagnostic attached to a dataset.
type Message struct {
	Severity    Severity
	Category    Category
	Row         int     // 1-based; 0 = not row-specific; -1 = unknown
	Column      int     // 1-based; 0 = not column-specific; -1 = unknown
	ColumnName  string  // header of Column, if known
	Longitude   float64 // NaN when unresolved
	Latitude    float64 // NaN when unresolved
	Timestamp   string  // "2006-01-02 15:04:05" or empty when unresolved
	Explanation string
}

// NewMessage returns a message with unresolved coordinates.
func NewMessage(sev Severity, cat Category, row, col int, text string) Message {
	return Message{
		Severity:    sev,
		Category:    cat,
		Row:         row,
		Column:      col,
		Longitude:   math.NaN(),
		Latitude:    math.NaN(),
		Explanation: text,
	}
}
