package nmea

import "time"

// RMC: recommended minimum specific GNSS data.
//
//	0: time (hhmmss.sss)   6: speed over ground (knots)
//	1: status (A/V)        7: course over ground (deg true)
//	2: latitude            8: date (ddmmyy)
//	3: N/S                 9: magnetic variation (deg)
//	4: longitude          10: E/W
//	5: E/W
const rmcCaps = CapUTCDateTime | CapFixStatus | CapPosition | CapSpeed | CapBearing | CapMagneticVariation

func decodeRMC(s *Sentence, f Fields) {
	var err error
	s.fixStatus = f.FixStatus(1)
	if s.utc, err = f.UTCDateTime(0, 8); err != nil {
		s.addErr(err)
	}
	if s.position, err = f.Position(2, 3, 4, 5); err != nil {
		s.addErr(err)
	}
	if s.speed, err = f.Speed(6); err != nil {
		s.addErr(err)
	}
	if s.bearing, err = f.Azimuth(7); err != nil {
		s.addErr(err)
	}
	if s.magVar, err = f.MagneticVariation(9, 10); err != nil {
		s.addErr(err)
	}
}

// RMC holds the values of an RMC sentence to encode. The date is two-digit,
// so a Time outside 1980..2079 is left out entirely (time and date empty).
type RMC struct {
	Talker            string
	Time              time.Time
	Status            FixStatus
	Position          Position
	Speed             Speed
	Bearing           Azimuth
	MagneticVariation Longitude
}

func (r RMC) Sentence() *Sentence {
	t := r.Time
	if !inTwoDigitYearWindow(t) {
		t = time.Time{}
	}
	fields := make([]string, 0, 11)
	fields = append(fields, formatTimeSpan(timeOfDay(t)), formatStatus(r.Status))
	fields = append(fields, formatPosition(r.Position)...)
	fields = append(fields,
		formatFloat(float64(r.Speed), 2),
		formatFloat(float64(r.Bearing), 2),
		formatDate(t),
	)
	mv, ew := formatFloat(absf(float64(r.MagneticVariation)), 1), ""
	if mv != "" {
		ew = "E"
		if r.MagneticVariation < 0 {
			ew = "W"
		}
	}
	fields = append(fields, mv, ew)
	return build(r.Talker, "RMC", fields)
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
