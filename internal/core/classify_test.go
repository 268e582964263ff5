package core

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		msg     EngineMessage
		want    Category
		wantErr error
	}{
		{"metadata", EngineMessage{Kind: KindMetadata, Text: "anything at all"}, CategoryMetadata, nil},
		{"range", EngineMessage{Text: "SST value 40 outside expected range 0 to 35"}, CategoryRange, nil},
		{"extreme range", EngineMessage{Text: "salinity 80 outside extreme range"}, CategoryRange, nil},
		{"time order", EngineMessage{Text: "timestamp earlier than previous row"}, CategoryTimeOrder, nil},
		{"speed", EngineMessage{Text: "Ship speed of 90 knots"}, CategorySpeed, nil},
		{"missing", EngineMessage{Text: "Missing required value for longitude"}, CategoryMissing, nil},
		{"constant", EngineMessage{Text: "SST constant for 50 rows"}, CategoryConstant, nil},
		{"jump", EngineMessage{Text: "change of 9 standard deviations"}, CategoryJump, nil},
		{"gap", EngineMessage{Text: "rows 3 days apart"}, CategoryGap, nil},
		{"engine error", EngineMessage{Text: "Unhandled exception in check"}, CategoryEngineError, nil},
		{"same category twice", EngineMessage{Text: "outside expected range and extreme range"}, CategoryRange, nil},
		{"case sensitive", EngineMessage{Text: "ship speed of 90 knots"}, CategoryUnknown, &UnrecognizedMessageError{}},
		{"unrecognized", EngineMessage{Text: "cosmic rays detected"}, CategoryUnknown, &UnrecognizedMessageError{}},
		{"ambiguous", EngineMessage{Text: "Ship speed outside expected range"}, CategoryUnknown, &AmbiguousMessageError{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Classify(tt.msg)
			switch tt.wantErr.(type) {
			case nil:
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
			case *UnrecognizedMessageError:
				var target *UnrecognizedMessageError
				if !errors.As(err, &target) {
					t.Fatalf("err = %v, want *UnrecognizedMessageError", err)
				}
			case *AmbiguousMessageError:
				var target *AmbiguousMessageError
				if !errors.As(err, &target) || len(target.Categories) != 2 {
					t.Fatalf("err = %v, want *AmbiguousMessageError with 2 categories", err)
				}
			}
			if got != tt.want {
				t.Errorf("Classify = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassifyMessages_AttachesRowContext(t *testing.T) {
	d := timestampDataset("2005-01-01 00:00:00", "2005-01-01 00:01:00")
	when := time.Date(2005, 1, 1, 0, 1, 0, 0, time.UTC)
	result := &EngineResult{
		ProcessedOK: true,
		Rows: []StdRow{
			{Longitude: math.NaN(), Latitude: math.NaN()},
			{Longitude: 10.5, Latitude: -20.25, Time: when, TimeOK: true},
		},
		Messages: []EngineMessage{
			{Severity: SeverityError, Row: 2, Column: 4, Text: "SST outside expected range"},
			{Severity: SeverityWarning, Row: 1, ColumnName: "pressure", Text: "Missing required value"},
			{Kind: KindMetadata, Severity: SeverityWarning, Text: "cruise name absent"},
		},
	}

	msgs, err := ClassifyMessages(result, d)
	if err != nil {
		t.Fatalf("ClassifyMessages: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("got %d messages", len(msgs))
	}

	first := msgs[0]
	if first.ColumnName != "SST" || first.Longitude != 10.5 || first.Latitude != -20.25 {
		t.Errorf("first = %+v", first)
	}
	if first.Timestamp != "2005-01-01 00:01:00" {
		t.Errorf("timestamp = %q", first.Timestamp)
	}

	second := msgs[1]
	if second.ColumnName != "pressure" || !math.IsNaN(second.Longitude) || second.Timestamp != "" {
		t.Errorf("second = %+v", second)
	}

	if msgs[2].Category != CategoryMetadata || msgs[2].Row != 0 {
		t.Errorf("metadata = %+v", msgs[2])
	}
}

func TestClassifyMessages_StopsOnUnrecognized(t *testing.T) {
	d := timestampDataset("2005-01-01 00:00:00")
	result := &EngineResult{
		ProcessedOK: true,
		Rows:        make([]StdRow, 1),
		Messages:    []EngineMessage{{Severity: SeverityError, Row: 1, Text: "flux capacitor overload"}},
	}
	if _, err := ClassifyMessages(result, d); !IsContractError(err) {
		t.Errorf("err = %v, want contract error", err)
	}
}
