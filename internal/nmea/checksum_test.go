package nmea

import (
	"errors"
	"testing"
)

const exampleRMC = "$GPRMC,081836,A,3751.65,S,14507.36,E,000.0,360.0,130998,011.3,E*62"

func TestChecksum_KnownLine(t *testing.T) {
	got := ChecksumString("GPRMC,081836,A,3751.65,S,14507.36,E,000.0,360.0,130998,011.3,E")
	if got != "62" {
		t.Fatalf("checksum=%s want 62", got)
	}
}

func TestChecksum_AppendThenValidate(t *testing.T) {
	lines := []string{
		"$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,",
		"$GPGSA,A,3,04,05,,09,12,,,24,,,,,2.5,1.3,2.1",
		"$GNRMC,,V,,,,,,,,,",
		"$GPHDT,274.07,T",
	}
	for _, line := range lines {
		tok := Tokenize(line)
		if tok.Valid {
			t.Fatalf("%s: valid without checksum", line)
		}
		withCS := tok.AppendChecksum()
		if !withCS.Valid {
			t.Fatalf("%s: not valid after AppendChecksum (text=%s)", line, withCS.Text)
		}
		if withCS.ExistingChecksum != withCS.CorrectChecksum {
			t.Fatalf("%s: existing=%s correct=%s", line, withCS.ExistingChecksum, withCS.CorrectChecksum)
		}
	}
}

func TestChecksum_SingleBitFlipInvalidates(t *testing.T) {
	star := len(exampleRMC) - 3
	for i := 1; i < star; i++ {
		b := []byte(exampleRMC)
		b[i] ^= 0x01
		tok := Tokenize(string(b))
		if tok.Valid {
			t.Fatalf("flip at %d (%q) still valid", i, string(b))
		}
	}
}

func TestValidateChecksum(t *testing.T) {
	cases := []struct {
		existing, computed string
		want               bool
	}{
		{"62", "62", true},
		{"62", "63", false},
		{"", "", false},
		{"3b", "3B", false},
	}
	for _, tc := range cases {
		if got := ValidateChecksum(tc.existing, tc.computed); got != tc.want {
			t.Fatalf("ValidateChecksum(%q,%q)=%v want %v", tc.existing, tc.computed, got, tc.want)
		}
	}
}

func TestFormatChecksum(t *testing.T) {
	if s, err := FormatChecksum(0x3b, "X2"); err != nil || s != "3B" {
		t.Fatalf("X2: %q %v", s, err)
	}
	if s, err := FormatChecksum(0x0a, "x2"); err != nil || s != "0a" {
		t.Fatalf("x2: %q %v", s, err)
	}
	if _, err := FormatChecksum(0x3b, "D"); !errors.Is(err, ErrUnsupportedChecksumFormat) {
		t.Fatalf("err=%v want ErrUnsupportedChecksumFormat", err)
	}
}
