package nmea

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// InvalidTimeSpan marks a missing time-of-day.
const InvalidTimeSpan = time.Duration(math.MinInt64)

// InvalidCount marks a missing integer field.
const InvalidCount = -1

var (
	errBadTime      = errors.New("bad hhmmss time")
	errBadDate      = errors.New("bad ddmmyy date")
	errBadDegrees   = errors.New("bad degrees/minutes")
	errMissingField = errors.New("missing paired field")
)

// FieldError reports a field whose text could not be decoded.
type FieldError struct {
	Index int
	Text  string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("nmea: field %d %q: %v", e.Index, e.Text, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// Fields decodes typed values from positional sentence fields.
//
// Every decoder is total: an index beyond the fields or an empty field yields
// the type's Invalid sentinel with a nil error; text that cannot be decoded
// yields the sentinel and a *FieldError.
type Fields struct {
	values []string
	format NumberFormat
}

// NewFields wraps values using the Invariant number format.
func NewFields(values []string) Fields {
	return Fields{values: values, format: Invariant}
}

// WithFormat returns a copy of f that parses numbers with nf.
func (f Fields) WithFormat(nf NumberFormat) Fields {
	f.format = nf
	return f
}

func (f Fields) Len() int { return len(f.values) }

// text returns the field at i and whether it is present and non-empty.
func (f Fields) text(i int) (string, bool) {
	if i < 0 || i >= len(f.values) || f.values[i] == "" {
		return "", false
	}
	return f.values[i], true
}

func (f Fields) float(i int) (float64, bool, error) {
	s, ok := f.text(i)
	if !ok {
		return 0, false, nil
	}
	v, err := f.format.ParseFloat(s)
	if err != nil {
		return 0, false, &FieldError{Index: i, Text: s, Err: err}
	}
	return v, true, nil
}

func (f Fields) Azimuth(i int) (Azimuth, error) {
	v, ok, err := f.float(i)
	if !ok {
		return InvalidAzimuth, err
	}
	return Azimuth(v), nil
}

func (f Fields) Distance(i int) (Distance, error) {
	v, ok, err := f.float(i)
	if !ok {
		return InvalidDistance, err
	}
	return Distance(v), nil
}

func (f Fields) Speed(i int) (Speed, error) {
	v, ok, err := f.float(i)
	if !ok {
		return InvalidSpeed, err
	}
	return Speed(v), nil
}

// DilutionOfPrecision is Invalid for non-positive values.
func (f Fields) DilutionOfPrecision(i int) (DilutionOfPrecision, error) {
	v, ok, err := f.float(i)
	if !ok || v <= 0 {
		return InvalidDilutionOfPrecision, err
	}
	return DilutionOfPrecision(v), nil
}

// Int decodes an integer field, InvalidCount when missing.
func (f Fields) Int(i int) (int, error) {
	s, ok := f.text(i)
	if !ok {
		return InvalidCount, nil
	}
	v, err := f.format.ParseInt(s)
	if err != nil {
		return InvalidCount, &FieldError{Index: i, Text: s, Err: err}
	}
	return v, nil
}

// FixMethod maps 0/1/2 to NoFix/Fix2D/Fix3D. With noFixAt1 the raw value is
// decremented first, for sentences (GSA) that count from 1.
func (f Fields) FixMethod(i int, noFixAt1 bool) FixMethod {
	s, ok := f.text(i)
	if !ok {
		return FixMethodUnknown
	}
	v, err := f.format.ParseInt(s)
	if err != nil {
		return FixMethodUnknown
	}
	if noFixAt1 {
		v--
	}
	switch v {
	case 0:
		return FixMethodNoFix
	case 1:
		return FixMethodFix2D
	case 2:
		return FixMethodFix3D
	default:
		return FixMethodUnknown
	}
}

func (f Fields) FixMode(i int) FixMode {
	s, _ := f.text(i)
	switch s {
	case "A":
		return FixModeAutomatic
	case "M":
		return FixModeManual
	default:
		return FixModeUnknown
	}
}

func (f Fields) FixQuality(i int) FixQuality {
	s, ok := f.text(i)
	if !ok {
		return FixQualityUnknown
	}
	v, err := f.format.ParseInt(s)
	if err != nil || v < int(FixQualityNoFix) || v > int(FixQualitySimulated) {
		return FixQualityUnknown
	}
	return FixQuality(v)
}

// FixStatus is Fix only for "A" (any case). A missing flag is NoFix, not
// Unknown.
func (f Fields) FixStatus(i int) FixStatus {
	s, _ := f.text(i)
	if strings.EqualFold(s, "A") {
		return FixStatusFix
	}
	return FixStatusNoFix
}

// Position decodes ddmm.mmmm,N/S,dddmm.mmmm,E/W. Any hemisphere other than
// exactly "N" is south and other than exactly "E" is west.
func (f Fields) Position(lat, latHemi, lon, lonHemi int) (Position, error) {
	latS, ok1 := f.text(lat)
	latH, ok2 := f.text(latHemi)
	lonS, ok3 := f.text(lon)
	lonH, ok4 := f.text(lonHemi)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return InvalidPosition, nil
	}
	latV, err := f.degreesMinutes(latS, 2)
	if err != nil {
		return InvalidPosition, &FieldError{Index: lat, Text: latS, Err: err}
	}
	lonV, err := f.degreesMinutes(lonS, 3)
	if err != nil {
		return InvalidPosition, &FieldError{Index: lon, Text: lonS, Err: err}
	}
	if latH != "N" {
		latV = -latV
	}
	if lonH != "E" {
		lonV = -lonV
	}
	return Position{Latitude: Latitude(latV), Longitude: Longitude(lonV)}, nil
}

func (f Fields) degreesMinutes(s string, degDigits int) (float64, error) {
	if len(s) < degDigits+1 {
		return 0, errBadDegrees
	}
	deg, err := f.format.ParseInt(s[:degDigits])
	if err != nil || deg < 0 {
		return 0, errBadDegrees
	}
	mins, err := f.format.ParseFloat(s[degDigits:])
	if err != nil || mins < 0 || mins >= 60 {
		return 0, errBadDegrees
	}
	return float64(deg) + mins/60, nil
}

// MagneticVariation decodes a degrees value and an E/W flag; exactly "E" is
// east (positive), anything else west.
func (f Fields) MagneticVariation(value, hemi int) (Longitude, error) {
	v, ok, err := f.float(value)
	if !ok {
		return InvalidLongitude, err
	}
	if h, _ := f.text(hemi); h != "E" {
		v = -v
	}
	return Longitude(v), nil
}

// UTCTimeSpan decodes hhmmss[.f] into the time since midnight.
func (f Fields) UTCTimeSpan(i int) (time.Duration, error) {
	s, ok := f.text(i)
	if !ok {
		return InvalidTimeSpan, nil
	}
	d, err := f.timeOfDay(s)
	if err != nil {
		return InvalidTimeSpan, &FieldError{Index: i, Text: s, Err: err}
	}
	return d, nil
}

// UTCDateTime combines an hhmmss[.f] field and a ddmmyy field.
//
// The zero time is returned when either index is beyond the fields or both
// fields are empty. A single empty field is a decode error.
func (f Fields) UTCDateTime(timeIdx, dateIdx int) (time.Time, error) {
	if timeIdx >= len(f.values) || dateIdx >= len(f.values) {
		return time.Time{}, nil
	}
	ts, tok := f.text(timeIdx)
	ds, dok := f.text(dateIdx)
	if !tok && !dok {
		return time.Time{}, nil
	}
	if !tok {
		return time.Time{}, &FieldError{Index: timeIdx, Err: errMissingField}
	}
	tod, err := f.timeOfDay(ts)
	if err != nil {
		return time.Time{}, &FieldError{Index: timeIdx, Text: ts, Err: err}
	}
	if !dok {
		return time.Time{}, &FieldError{Index: dateIdx, Err: errMissingField}
	}
	if len(ds) != 6 {
		return time.Time{}, &FieldError{Index: dateIdx, Text: ds, Err: errBadDate}
	}
	day, err1 := f.format.ParseInt(ds[0:2])
	month, err2 := f.format.ParseInt(ds[2:4])
	yy, err3 := f.format.ParseInt(ds[4:6])
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, &FieldError{Index: dateIdx, Text: ds, Err: errBadDate}
	}
	t, err := dateAt(expandYear(yy), month, day, tod)
	if err != nil {
		return time.Time{}, &FieldError{Index: dateIdx, Text: ds, Err: err}
	}
	return t, nil
}

// ZonedDateTime decodes the ZDA layout: hhmmss[.f], day, month, 4-digit year.
func (f Fields) ZonedDateTime(timeIdx, dayIdx, monthIdx, yearIdx int) (time.Time, error) {
	ts, ok := f.text(timeIdx)
	if !ok {
		return time.Time{}, nil
	}
	tod, err := f.timeOfDay(ts)
	if err != nil {
		return time.Time{}, &FieldError{Index: timeIdx, Text: ts, Err: err}
	}
	day, err := f.Int(dayIdx)
	if err != nil {
		return time.Time{}, err
	}
	month, err := f.Int(monthIdx)
	if err != nil {
		return time.Time{}, err
	}
	year, err := f.Int(yearIdx)
	if err != nil {
		return time.Time{}, err
	}
	if day == InvalidCount || month == InvalidCount || year == InvalidCount {
		return time.Time{}, &FieldError{Index: dayIdx, Err: errMissingField}
	}
	t, err := dateAt(year, month, day, tod)
	if err != nil {
		return time.Time{}, &FieldError{Index: dayIdx, Text: fmt.Sprintf("%d/%d/%d", day, month, year), Err: err}
	}
	return t, nil
}

// Satellites decodes (prn, elevation, azimuth, snr) groups starting at start.
// Groups with an empty PRN are skipped.
func (f Fields) Satellites(start int) ([]Satellite, error) {
	var out []Satellite
	for i := start; i < len(f.values); i += 4 {
		prn, err := f.Int(i)
		if err != nil {
			return out, err
		}
		if prn == InvalidCount {
			continue
		}
		sat := Satellite{PRN: prn}
		if sat.Elevation, err = f.Int(i + 1); err != nil {
			return out, err
		}
		if sat.Azimuth, err = f.Int(i + 2); err != nil {
			return out, err
		}
		if sat.SNR, err = f.Int(i + 3); err != nil {
			return out, err
		}
		out = append(out, sat)
	}
	return out, nil
}

// PRNs decodes the non-empty integer fields in [start, end).
func (f Fields) PRNs(start, end int) ([]int, error) {
	var out []int
	for i := start; i < end; i++ {
		v, err := f.Int(i)
		if err != nil {
			return out, err
		}
		if v != InvalidCount {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f Fields) timeOfDay(s string) (time.Duration, error) {
	if len(s) < 6 {
		return 0, errBadTime
	}
	hh, err1 := f.format.ParseInt(s[0:2])
	mm, err2 := f.format.ParseInt(s[2:4])
	ss, err3 := f.format.ParseInt(s[4:6])
	if err1 != nil || err2 != nil || err3 != nil || hh < 0 || hh > 23 || mm < 0 || mm > 59 || ss < 0 || ss > 60 {
		return 0, errBadTime
	}
	ms := 0
	if len(s) > 6 {
		if s[6] != f.format.separator() {
			return 0, errBadTime
		}
		frac, err := f.format.ParseFloat("0" + s[6:])
		if err != nil {
			return 0, errBadTime
		}
		ms = int(math.Round(frac * 1000))
	}
	return time.Duration(hh)*time.Hour +
		time.Duration(mm)*time.Minute +
		time.Duration(ss)*time.Second +
		time.Duration(ms)*time.Millisecond, nil
}

// expandYear maps a two-digit year onto 1980..2079.
func expandYear(yy int) int {
	if yy >= 80 {
		return 1900 + yy
	}
	return 2000 + yy
}

func dateAt(year, month, day int, tod time.Duration) (time.Time, error) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, errBadDate
	}
	midnight := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if midnight.Day() != day {
		return time.Time{}, errBadDate
	}
	return midnight.Add(tod), nil
}
