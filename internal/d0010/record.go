// Package d0010 parses the pipe-delimited D0010 flow-file format used to
// convey electricity meter readings between industry parties.
package d0010

import (
	"strings"
)

// RecordType classifies a flow-file line by its record-type code
type RecordType string

const (
	RecordHeader     RecordType = "ZHV"
	RecordMeterPoint RecordType = "026"
	RecordMeter      RecordType = "028"
	RecordReading    RecordType = "030"
	RecordTrailer    RecordType = "ZPT"
	RecordUnknown    RecordType = "unknown"
)

// Record is one tokenized flow-file line: its classified type, the raw
// record-type code as it appeared, and the remaining fields in order.
type Record struct {
	Type   RecordType
	Code   string
	Fields []string
}

// ParseLine tokenizes a single flow-file line. Lines are split on '|';
// the first field is the record-type code and is stripped from Fields.
// D0010 lines conventionally end with a trailing delimiter, so a single
// trailing empty field is dropped to keep positional access stable.
// Returns ok=false for blank lines, which are skipped silently.
func ParseLine(line string) (Record, bool) {
	if strings.TrimSpace(line) == "" {
		return Record{}, false
	}

	parts := strings.Split(line, "|")
	code := strings.TrimSpace(parts[0])
	fields := parts[1:]
	if len(fields) > 0 && fields[len(fields)-1] == "" {
		fields = fields[:len(fields)-1]
	}

	rec := Record{Code: code, Fields: fields}
	switch code {
	case "ZHV":
		rec.Type = RecordHeader
	case "026":
		rec.Type = RecordMeterPoint
	case "028":
		rec.Type = RecordMeter
	case "030":
		rec.Type = RecordReading
	case "ZPT":
		rec.Type = RecordTrailer
	default:
		rec.Type = RecordUnknown
	}

	return rec, true
}

// Field returns the i-th field, or the empty string when the record is too
// short. Short records fail the relevant field validation rather than
// panicking on positional access.
func (r Record) Field(i int) string {
	if i < 0 || i >= len(r.Fields) {
		return ""
	}
	return r.Fields[i]
}
