package d0010_test

import (
	"testing"

	"github.com/meterflow/d0010-ingest/internal/d0010"
)

func TestParseLine_MeterPointRecord(t *testing.T) {
	rec, ok := d0010.ParseLine("026|1200023305967|")

	if !ok {
		t.Fatal("Expected line to parse")
	}
	if rec.Type != d0010.RecordMeterPoint {
		t.Errorf("Expected type %s, got %s", d0010.RecordMeterPoint, rec.Type)
	}
	if len(rec.Fields) != 1 {
		t.Fatalf("Expected 1 field, got %d", len(rec.Fields))
	}
	if rec.Fields[0] != "1200023305967" {
		t.Errorf("Expected MPAN field 1200023305967, got %q", rec.Fields[0])
	}
}

func TestParseLine_ReadingRecordFieldOrder(t *testing.T) {
	rec, ok := d0010.ParseLine("030|S|56311.0|20230615120000|")

	if !ok {
		t.Fatal("Expected line to parse")
	}
	if rec.Type != d0010.RecordReading {
		t.Errorf("Expected type %s, got %s", d0010.RecordReading, rec.Type)
	}
	if rec.Field(0) != "S" {
		t.Errorf("Expected register id S, got %q", rec.Field(0))
	}
	if rec.Field(1) != "56311.0" {
		t.Errorf("Expected value 56311.0, got %q", rec.Field(1))
	}
	if rec.Field(2) != "20230615120000" {
		t.Errorf("Expected timestamp 20230615120000, got %q", rec.Field(2))
	}
}

func TestParseLine_TrailingDelimiterStrippedOnce(t *testing.T) {
	rec, _ := d0010.ParseLine("028|S95109289|D|")

	if len(rec.Fields) != 2 {
		t.Errorf("Expected trailing empty field stripped, got %d fields", len(rec.Fields))
	}

	// An explicit empty field before the trailing delimiter survives
	rec, _ = d0010.ParseLine("030|S|56311.0|20230615120000||")
	if len(rec.Fields) != 4 {
		t.Errorf("Expected 4 fields with explicit empty reading type, got %d", len(rec.Fields))
	}
}

func TestParseLine_BlankLineSkipped(t *testing.T) {
	if _, ok := d0010.ParseLine(""); ok {
		t.Error("Expected empty line to be skipped")
	}
	if _, ok := d0010.ParseLine("   \t"); ok {
		t.Error("Expected whitespace-only line to be skipped")
	}
}

func TestParseLine_HeaderAndTrailer(t *testing.T) {
	rec, _ := d0010.ParseLine("ZHV|0000001|D0010002|X|MRKT|B|UDMS|20230615000000||||OPER|")
	if rec.Type != d0010.RecordHeader {
		t.Errorf("Expected header type, got %s", rec.Type)
	}

	rec, _ = d0010.ParseLine("ZPT|0000001|4||1|20230615000000|")
	if rec.Type != d0010.RecordTrailer {
		t.Errorf("Expected trailer type, got %s", rec.Type)
	}
}

func TestParseLine_UnknownRecordType(t *testing.T) {
	rec, ok := d0010.ParseLine("027|something|else|")

	if !ok {
		t.Fatal("Expected unknown line to still parse")
	}
	if rec.Type != d0010.RecordUnknown {
		t.Errorf("Expected unknown type, got %s", rec.Type)
	}
	if rec.Code != "027" {
		t.Errorf("Expected raw code 027, got %q", rec.Code)
	}
}

func TestField_OutOfRange(t *testing.T) {
	rec, _ := d0010.ParseLine("026|1200023305967|")

	if rec.Field(5) != "" {
		t.Errorf("Expected empty string for missing field, got %q", rec.Field(5))
	}
	if rec.Field(-1) != "" {
		t.Errorf("Expected empty string for negative index, got %q", rec.Field(-1))
	}
}
