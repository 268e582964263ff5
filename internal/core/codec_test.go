package core

import (
	"math"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestEncodeList_EdgeCases(t *testing.T) {
	tests := []struct {
		name string
		list []string
	}{
		{"nil", nil},
		{"empty", []string{}},
		{"empty strings", []string{"", ""}},
		{"separators", []string{"a,b", `"quoted"`, "x:y", "[", "]"}},
		{"newline", []string{"line one\nline two"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line, err := EncodeList(tt.list)
			if err != nil {
				t.Fatalf("EncodeList: %v", err)
			}
			if strings.Contains(line, "\n") {
				t.Errorf("encoded line contains a newline: %q", line)
			}
			got, err := DecodeList(line)
			if err != nil {
				t.Fatalf("DecodeList: %v", err)
			}
			if len(got) != len(tt.list) {
				t.Fatalf("got %d items, want %d", len(got), len(tt.list))
			}
			for i := range got {
				if got[i] != tt.list[i] {
					t.Errorf("item %d = %q, want %q", i, got[i], tt.list[i])
				}
			}
		})
	}
}

func TestDecodeList_Malformed(t *testing.T) {
	for _, line := range []string{"", "not a list", `["unterminated`, `{"a":1}`} {
		if _, err := DecodeList(line); err == nil {
			t.Errorf("DecodeList(%q) succeeded", line)
		}
	}
}

func TestEncodeMessage_Tokens(t *testing.T) {
	m := NewMessage(SeverityError, CategoryRange, 12, 4, "SST 99 outside expected range")
	m.ColumnName = "SST"
	m.Longitude = -10.25
	m.Latitude = 50
	m.Timestamp = "2005-01-01 00:01:00"

	line, err := EncodeMessage(m)
	if err != nil {
		t.Fatalf("EncodeMessage: %v", err)
	}
	tokens, err := DecodeList(line)
	if err != nil {
		t.Fatalf("DecodeList: %v", err)
	}
	want := []string{
		"SCMsgType:DATA_RANGE",
		"SCMsgSeverity:ERROR",
		"SCMsgRowNumber:12",
		"SCMsgLongitude:-10.25",
		"SCMsgLatitude:50",
		"SCMsgTimestamp:2005-01-01 00:01:00",
		"SCMsgColumnNumber:4",
		"SCMsgColumnName:SST",
		"SCMsgMessage:SST 99 outside expected range",
	}
	if strings.Join(tokens, "|") != strings.Join(want, "|") {
		t.Errorf("tokens = %q\nwant     %q", tokens, want)
	}
}

func TestDecodeMessage_Defaults(t *testing.T) {
	m, err := DecodeMessage(`["SCMsgType:METADATA","SCMsgSeverity:WARNING","SCMsgLongitude:east","SCMsgMessage:no cruise name"]`)
	if err != nil {
		t.Fatalf("DecodeMessage: %v", err)
	}
	if m.Row != -1 || m.Column != -1 {
		t.Errorf("row/column = %d/%d, want -1/-1", m.Row, m.Column)
	}
	if !math.IsNaN(m.Longitude) || !math.IsNaN(m.Latitude) {
		t.Errorf("position = %v,%v, want NaN", m.Longitude, m.Latitude)
	}
	if m.Category != CategoryMetadata || m.Severity != SeverityWarning {
		t.Errorf("category/severity = %v/%v", m.Category, m.Severity)
	}

	if _, err := DecodeMessage(`["no separator here"]`); err == nil {
		t.Error("token without separator should fail")
	}
}

func TestProperty_ListRoundTrip(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("DecodeList inverts EncodeList", prop.ForAll(
		func(list []string) bool {
			line, err := EncodeList(list)
			if err != nil || strings.ContainsAny(line, "\r\n") {
				return false
			}
			got, err := DecodeList(line)
			if err != nil || len(got) != len(list) {
				return false
			}
			for i := range got {
				if got[i] != list[i] {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.AnyString()),
	))

	properties.TestingRun(t)
}

func TestProperty_MessageRoundTrip(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("explanations survive newlines and backslashes", prop.ForAll(
		func(parts []string, row, column int) bool {
			text := strings.Join(parts, "\n")
			m := NewMessage(SeverityWarning, CategoryJump, row, column, text)
			line, err := EncodeMessage(m)
			if err != nil || strings.Contains(line, "\n") {
				return false
			}
			got, err := DecodeMessage(line)
			if err != nil {
				return false
			}
			return got.Explanation == text &&
				got.Row == row && got.Column == column &&
				got.Severity == SeverityWarning && got.Category == CategoryJump
		},
		gen.SliceOf(gen.OneGenOf(gen.AlphaString(), gen.Const(`a\nb`), gen.Const(`\`), gen.Const("x:y"))),
		gen.IntRange(1, 100000),
		gen.IntRange(1, 500),
	))

	properties.TestingRun(t)
}
