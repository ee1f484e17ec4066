package d0010

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrorKind identifies a validation failure class
type ErrorKind string

const (
	KindInvalidMPAN        ErrorKind = "invalid_mpan"
	KindEmptySerial        ErrorKind = "empty_serial"
	KindInvalidValue       ErrorKind = "invalid_value"
	KindInvalidDateFormat  ErrorKind = "invalid_date_format"
	KindFutureDate         ErrorKind = "future_date"
	KindOrphanMeter        ErrorKind = "orphan_meter"
	KindOrphanReading      ErrorKind = "orphan_reading"
	KindUnknownRecordType  ErrorKind = "unknown_record_type"
	KindUnknownRegisterID  ErrorKind = "unknown_register_id"
	KindUnknownMeterType   ErrorKind = "unknown_meter_type"
	KindUnknownReadingType ErrorKind = "unknown_reading_type"
)

// IsWarning reports whether the kind only flags a record rather than
// rejecting it. Business codes evolve, so unrecognized register, meter-type
// and reading-type codes are accepted with a warning.
func (k ErrorKind) IsWarning() bool {
	switch k {
	case KindUnknownRegisterID, KindUnknownMeterType, KindUnknownReadingType:
		return true
	}
	return false
}

// ValidationError is a recoverable per-record failure or warning
type ValidationError struct {
	Kind    ErrorKind
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func newError(kind ErrorKind, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// TimestampLayout is the fixed 14-character reading timestamp format
const TimestampLayout = "20060102150405"

var knownRegisterIDs = map[string]bool{
	"S": true, "TO": true, "DY": true, "NT": true, "EV": true, "WK": true,
	"01": true, "02": true, "03": true, "A1": true, "A2": true,
}

var knownMeterTypes = map[string]bool{
	"D": true, "C": true, "P": true,
}

// ValidateMPAN checks that the value is exactly 13 ASCII digits
func ValidateMPAN(raw string) (string, *ValidationError) {
	mpan := strings.TrimSpace(raw)
	if len(mpan) != 13 {
		return "", newError(KindInvalidMPAN, "MPAN %q must be exactly 13 digits, got %d characters", mpan, len(mpan))
	}
	for i := 0; i < len(mpan); i++ {
		if mpan[i] < '0' || mpan[i] > '9' {
			return "", newError(KindInvalidMPAN, "MPAN %q contains non-digit characters", mpan)
		}
	}
	return mpan, nil
}

// ValidateSerial checks that the meter serial number is non-empty after trimming
func ValidateSerial(raw string) (string, *ValidationError) {
	serial := strings.TrimSpace(raw)
	if serial == "" {
		return "", newError(KindEmptySerial, "meter serial number is empty")
	}
	return serial, nil
}

// ValidateReadingValue parses the register value as a non-negative decimal
func ValidateReadingValue(raw string) (decimal.Decimal, *ValidationError) {
	value, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Decimal{}, newError(KindInvalidValue, "reading value %q is not a decimal number", raw)
	}
	if value.IsNegative() {
		return decimal.Decimal{}, newError(KindInvalidValue, "reading value %s is negative", value)
	}
	return value, nil
}

// ValidateReadingTime parses the fixed YYYYMMDDHHMMSS timestamp in the given
// civil timezone and rejects instants after now
func ValidateReadingTime(raw string, loc *time.Location, now time.Time) (time.Time, *ValidationError) {
	readingAt, err := time.ParseInLocation(TimestampLayout, strings.TrimSpace(raw), loc)
	if err != nil {
		return time.Time{}, newError(KindInvalidDateFormat, "reading timestamp %q does not match YYYYMMDDHHMMSS", raw)
	}
	if readingAt.After(now) {
		return time.Time{}, newError(KindFutureDate, "reading timestamp %s is in the future", readingAt.Format(time.RFC3339))
	}
	return readingAt, nil
}

// CheckRegisterID returns a warning for a register-id outside the known set
func CheckRegisterID(registerID string) *ValidationError {
	if !knownRegisterIDs[registerID] {
		return newError(KindUnknownRegisterID, "unrecognized register id %q accepted", registerID)
	}
	return nil
}

// CheckMeterType returns a warning for a meter-type code outside {D, C, P}
func CheckMeterType(meterType string) *ValidationError {
	if !knownMeterTypes[meterType] {
		return newError(KindUnknownMeterType, "unrecognized meter type %q accepted", meterType)
	}
	return nil
}

// NormalizeReadingType maps the optional 030 reading-type token to its
// canonical name. Empty means ACTUAL; unknown tokens fall back to ACTUAL
// with a warning.
func NormalizeReadingType(raw string) (string, *ValidationError) {
	switch strings.TrimSpace(raw) {
	case "", "A":
		return "ACTUAL", nil
	case "C":
		return "CUSTOMER", nil
	case "E":
		return "ESTIMATED", nil
	}
	return "ACTUAL", newError(KindUnknownReadingType, "unrecognized reading type %q, recorded as ACTUAL", raw)
}
