package core

// codec.go encodes messages as single-line records of KEY:VALUE tokens.

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Record keys.
const (
	keyType      = "SCMsgType"
	keySeverity  = "SCMsgSeverity"
	keyRow       = "SCMsgRowNumber"
	keyLongitude = "SCMsgLongitude"
	keyLatitude  = "SCMsgLatitude"
	keyTimestamp = "SCMsgTimestamp"
	keyColumn    = "SCMsgColumnNumber"
	keyColName   = "SCMsgColumnName"
	keyMessage   = "SCMsgMessage"

	keySeparator = ":"
)

// EncodeList encodes a list of strings as a single line. DecodeList(EncodeList(l))
// returns l for every list, including empty lists and empty strings.
func EncodeList(list []string) (string, error) {
	if list == nil {
		list = []string{}
	}
	b, err := json.Marshal(list)
	if err != nil {
		return "", fmt.Errorf("encode list: %w", err)
	}
	return string(b), nil
}

// DecodeList is the inverse of EncodeList.
func DecodeList(line string) ([]string, error) {
	var list []string
	if err := json.Unmarshal([]byte(line), &list); err != nil {
		return nil, err
	}
	if list == nil {
		list = []string{}
	}
	return list, nil
}

// escapeNewlines replaces newlines with the two characters `\n`. Backslashes
// are doubled first so that unescapeNewlines restores the text exactly.
func escapeNewlines(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, "\n", `\n`)
}

func unescapeNewlines(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case 'n':
				b.WriteByte('\n')
				i++
				continue
			case '\\':
				b.WriteByte('\\')
				i++
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// messageTokens returns the ordered KEY:VALUE tokens of a message. Row,
// position, time and column tokens are emitted only when resolved.
func messageTokens(m Message) []string {
	tokens := make([]string, 0, 9)
	add := func(key, value string) {
		tokens = append(tokens, key+keySeparator+value)
	}

	add(keyType, m.Category.String())
	add(keySeverity, m.Severity.String())
	if m.Row > 0 {
		add(keyRow, strconv.Itoa(m.Row))
	}
	if !math.IsNaN(m.Longitude) && !math.IsNaN(m.Latitude) {
		add(keyLongitude, strconv.FormatFloat(m.Longitude, 'g', -1, 64))
		add(keyLatitude, strconv.FormatFloat(m.Latitude, 'g', -1, 64))
	}
	if m.Timestamp != "" {
		add(keyTimestamp, m.Timestamp)
	}
	if m.Column > 0 {
		add(keyColumn, strconv.Itoa(m.Column))
	}
	if m.ColumnName != "" {
		add(keyColName, m.ColumnName)
	}
	add(keyMessage, escapeNewlines(m.Explanation))
	return tokens
}

// EncodeMessage renders a message as one record line.
func EncodeMessage(m Message) (string, error) {
	return EncodeList(messageTokens(m))
}

// DecodeMessage parses one record line. Missing or unparsable fields take
// their defaults; only an unreadable line is an error.
func DecodeMessage(line string) (Message, error) {
	tokens, err := DecodeList(line)
	if err != nil {
		return Message{}, fmt.Errorf("decode tokens: %w", err)
	}

	fields := make(map[string]string, len(tokens))
	for _, tok := range tokens {
		key, value, ok := strings.Cut(tok, keySeparator)
		if !ok {
			return Message{}, fmt.Errorf("token without key separator: %q", tok)
		}
		fields[key] = value
	}

	m := Message{
		Severity:    ParseSeverity(fields[keySeverity]),
		Category:    ParseCategory(fields[keyType]),
		Row:         parseIntDefault(fields[keyRow], -1),
		Column:      parseIntDefault(fields[keyColumn], -1),
		ColumnName:  fields[keyColName],
		Longitude:   parseFloatDefault(fields[keyLongitude]),
		Latitude:    parseFloatDefault(fields[keyLatitude]),
		Timestamp:   fields[keyTimestamp],
		Explanation: unescapeNewlines(fields[keyMessage]),
	}
	return m, nil
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return v
}

func parseFloatDefault(s string) float64 {
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
