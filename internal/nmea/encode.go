package nmea

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const defaultTalker = "GP"

// build renders fields into a checksummed line and decodes it back, so an
// encoded sentence carries exactly what a receiver would parse.
func build(talker, code string, fields []string) *Sentence {
	if talker == "" {
		talker = defaultTalker
	}
	line := "$" + talker + code + "," + strings.Join(fields, ",")
	return Dispatch(Tokenize(line).AppendChecksum())
}

func formatFloat(v float64, decimals int) string {
	if math.IsNaN(v) {
		return ""
	}
	return Invariant.FormatFloat(v, decimals)
}

func formatInt(v int) string {
	if v == InvalidCount {
		return ""
	}
	return strconv.Itoa(v)
}

// formatDegreesMinutes renders |v| as d..dmm.mmmm with degDigits degree digits.
func formatDegreesMinutes(v float64, degDigits int, pos, neg string) (string, string) {
	if math.IsNaN(v) {
		return "", ""
	}
	hemi := pos
	if v < 0 {
		hemi = neg
		v = -v
	}
	total := math.Round(v*60*10000) / 10000
	deg := math.Floor(total / 60)
	mins := total - deg*60
	return fmt.Sprintf("%0*d%07.4f", degDigits, int(deg), mins), hemi
}

func formatPosition(p Position) []string {
	if p.IsInvalid() {
		return []string{"", "", "", ""}
	}
	lat, ns := formatDegreesMinutes(float64(p.Latitude), 2, "N", "S")
	lon, ew := formatDegreesMinutes(float64(p.Longitude), 3, "E", "W")
	return []string{lat, ns, lon, ew}
}

func formatTimeSpan(d time.Duration) string {
	if d == InvalidTimeSpan || d < 0 {
		return ""
	}
	// Truncate: rounding 23:59:59.9995 up would render hour 24.
	d = d.Truncate(time.Millisecond)
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	s := (d % time.Minute) / time.Second
	ms := (d % time.Second) / time.Millisecond
	return fmt.Sprintf("%02d%02d%02d.%03d", int(h), int(m), int(s), int(ms))
}

func timeOfDay(t time.Time) time.Duration {
	if t.IsZero() {
		return InvalidTimeSpan
	}
	t = t.UTC()
	return t.Sub(time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC))
}

// Two-digit years decode into this window (see expandYear).
const (
	firstTwoDigitYear = 1980
	lastTwoDigitYear  = 2079
)

func inTwoDigitYearWindow(t time.Time) bool {
	y := t.UTC().Year()
	return y >= firstTwoDigitYear && y <= lastTwoDigitYear
}

func formatDate(t time.Time) string {
	if t.IsZero() || !inTwoDigitYearWindow(t) {
		return ""
	}
	t = t.UTC()
	return fmt.Sprintf("%02d%02d%02d", t.Day(), int(t.Month()), t.Year()%100)
}

func formatStatus(s FixStatus) string {
	if s == FixStatusFix {
		return "A"
	}
	return "V"
}
