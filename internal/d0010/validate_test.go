package d0010_test

import (
	"testing"
	"time"

	"github.com/meterflow/d0010-ingest/internal/d0010"
)

func TestValidateMPAN_Valid(t *testing.T) {
	mpan, err := d0010.ValidateMPAN("1200023305967")

	if err != nil {
		t.Fatalf("Expected valid MPAN, got error: %v", err)
	}
	if mpan != "1200023305967" {
		t.Errorf("Expected MPAN 1200023305967, got %q", mpan)
	}
}

func TestValidateMPAN_TooShort(t *testing.T) {
	_, err := d0010.ValidateMPAN("12000233059")

	if err == nil {
		t.Fatal("Expected error for 11-digit MPAN")
	}
	if err.Kind != d0010.KindInvalidMPAN {
		t.Errorf("Expected kind %s, got %s", d0010.KindInvalidMPAN, err.Kind)
	}
}

func TestValidateMPAN_NonDigits(t *testing.T) {
	_, err := d0010.ValidateMPAN("12000233059AB")

	if err == nil {
		t.Fatal("Expected error for non-digit MPAN")
	}
	if err.Kind != d0010.KindInvalidMPAN {
		t.Errorf("Expected kind %s, got %s", d0010.KindInvalidMPAN, err.Kind)
	}
}

func TestValidateSerial(t *testing.T) {
	serial, err := d0010.ValidateSerial("  S95109289 ")
	if err != nil {
		t.Fatalf("Expected valid serial, got error: %v", err)
	}
	if serial != "S95109289" {
		t.Errorf("Expected trimmed serial S95109289, got %q", serial)
	}

	_, err = d0010.ValidateSerial("   ")
	if err == nil {
		t.Fatal("Expected error for blank serial")
	}
	if err.Kind != d0010.KindEmptySerial {
		t.Errorf("Expected kind %s, got %s", d0010.KindEmptySerial, err.Kind)
	}
}

func TestValidateReadingValue_Valid(t *testing.T) {
	value, err := d0010.ValidateReadingValue("56311.0")

	if err != nil {
		t.Fatalf("Expected valid value, got error: %v", err)
	}
	if value.String() != "56311" {
		t.Errorf("Expected value 56311, got %s", value)
	}
}

func TestValidateReadingValue_Negative(t *testing.T) {
	_, err := d0010.ValidateReadingValue("-10.5")

	if err == nil {
		t.Fatal("Expected error for negative value")
	}
	if err.Kind != d0010.KindInvalidValue {
		t.Errorf("Expected kind %s, got %s", d0010.KindInvalidValue, err.Kind)
	}
}

func TestValidateReadingValue_NotANumber(t *testing.T) {
	_, err := d0010.ValidateReadingValue("not-a-number")

	if err == nil {
		t.Fatal("Expected error for non-numeric value")
	}
	if err.Kind != d0010.KindInvalidValue {
		t.Errorf("Expected kind %s, got %s", d0010.KindInvalidValue, err.Kind)
	}
}

func TestValidateReadingTime_Valid(t *testing.T) {
	loc, locErr := time.LoadLocation("Europe/London")
	if locErr != nil {
		t.Fatalf("Failed to load timezone: %v", locErr)
	}
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	readingAt, err := d0010.ValidateReadingTime("20230615120000", loc, now)
	if err != nil {
		t.Fatalf("Expected valid timestamp, got error: %v", err)
	}

	expected := time.Date(2023, 6, 15, 12, 0, 0, 0, loc)
	if !readingAt.Equal(expected) {
		t.Errorf("Expected %v, got %v", expected, readingAt)
	}
}

func TestValidateReadingTime_Future(t *testing.T) {
	loc, _ := time.LoadLocation("Europe/London")
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := d0010.ValidateReadingTime("20991231235959", loc, now)

	if err == nil {
		t.Fatal("Expected error for future timestamp")
	}
	if err.Kind != d0010.KindFutureDate {
		t.Errorf("Expected kind %s, got %s", d0010.KindFutureDate, err.Kind)
	}
}

func TestValidateReadingTime_BadFormat(t *testing.T) {
	loc, _ := time.LoadLocation("Europe/London")
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := d0010.ValidateReadingTime("2023-06-15 12:00", loc, now)

	if err == nil {
		t.Fatal("Expected error for malformed timestamp")
	}
	if err.Kind != d0010.KindInvalidDateFormat {
		t.Errorf("Expected kind %s, got %s", d0010.KindInvalidDateFormat, err.Kind)
	}
}

func TestCheckRegisterID(t *testing.T) {
	if warn := d0010.CheckRegisterID("S"); warn != nil {
		t.Errorf("Expected no warning for register S, got %v", warn)
	}
	if warn := d0010.CheckRegisterID("A1"); warn != nil {
		t.Errorf("Expected no warning for register A1, got %v", warn)
	}

	warn := d0010.CheckRegisterID("ZZ")
	if warn == nil {
		t.Fatal("Expected warning for unknown register id")
	}
	if warn.Kind != d0010.KindUnknownRegisterID {
		t.Errorf("Expected kind %s, got %s", d0010.KindUnknownRegisterID, warn.Kind)
	}
	if !warn.Kind.IsWarning() {
		t.Error("Expected unknown register id to be a warning, not a failure")
	}
}

func TestCheckMeterType(t *testing.T) {
	for _, mt := range []string{"D", "C", "P"} {
		if warn := d0010.CheckMeterType(mt); warn != nil {
			t.Errorf("Expected no warning for meter type %s, got %v", mt, warn)
		}
	}

	warn := d0010.CheckMeterType("X")
	if warn == nil {
		t.Fatal("Expected warning for unknown meter type")
	}
	if warn.Kind != d0010.KindUnknownMeterType {
		t.Errorf("Expected kind %s, got %s", d0010.KindUnknownMeterType, warn.Kind)
	}
}

func TestNormalizeReadingType(t *testing.T) {
	if rt, warn := d0010.NormalizeReadingType(""); rt != "ACTUAL" || warn != nil {
		t.Errorf("Expected empty to default to ACTUAL with no warning, got %s %v", rt, warn)
	}
	if rt, _ := d0010.NormalizeReadingType("C"); rt != "CUSTOMER" {
		t.Errorf("Expected C to map to CUSTOMER, got %s", rt)
	}
	if rt, _ := d0010.NormalizeReadingType("E"); rt != "ESTIMATED" {
		t.Errorf("Expected E to map to ESTIMATED, got %s", rt)
	}

	rt, warn := d0010.NormalizeReadingType("Q")
	if rt != "ACTUAL" {
		t.Errorf("Expected unknown token to fall back to ACTUAL, got %s", rt)
	}
	if warn == nil || warn.Kind != d0010.KindUnknownReadingType {
		t.Errorf("Expected %s warning, got %v", d0010.KindUnknownReadingType, warn)
	}
}
