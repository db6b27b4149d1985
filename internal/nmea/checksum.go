package nmea

import (
	"errors"
	"fmt"
)

// ErrUnsupportedChecksumFormat is returned by FormatChecksum for unknown formats.
var ErrUnsupportedChecksumFormat = errors.New("nmea: unsupported checksum format")

// Checksum XOR-folds every byte of payload.
func Checksum(payload string) byte {
	cs := byte(0)
	for i := 0; i < len(payload); i++ {
		cs ^= payload[i]
	}
	return cs
}

// ChecksumString returns the checksum of payload as two uppercase hex digits.
func ChecksumString(payload string) string {
	return fmt.Sprintf("%02X", Checksum(payload))
}

// ValidateChecksum compares an existing checksum with a computed one.
// Both are expected in canonical uppercase; the comparison is case-sensitive.
func ValidateChecksum(existing, computed string) bool {
	return existing != "" && existing == computed
}

// FormatChecksum renders cs using "X2" (uppercase, the wire format) or "x2".
func FormatChecksum(cs byte, format string) (string, error) {
	switch format {
	case "X2":
		return fmt.Sprintf("%02X", cs), nil
	case "x2":
		return fmt.Sprintf("%02x", cs), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedChecksumFormat, format)
	}
}
