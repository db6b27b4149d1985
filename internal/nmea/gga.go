package nmea

import "time"

// GGA: fix data.
//
//	0: time           6: satellites in use
//	1-4: position     7: HDOP
//	5: fix quality    8: altitude (9: M)
//	                 10: geoidal separation (11: M)
const ggaCaps = CapUTCTimeSpan | CapPosition | CapFixQuality | CapFixedSatelliteCount |
	CapHDOP | CapAltitude | CapGeoidalSeparation

func decodeGGA(s *Sentence, f Fields) {
	var err error
	if s.utcSpan, err = f.UTCTimeSpan(0); err != nil {
		s.addErr(err)
	}
	if s.position, err = f.Position(1, 2, 3, 4); err != nil {
		s.addErr(err)
	}
	s.fixQuality = f.FixQuality(5)
	if s.fixedCount, err = f.Int(6); err != nil {
		s.addErr(err)
	}
	if s.hdop, err = f.DilutionOfPrecision(7); err != nil {
		s.addErr(err)
	}
	if s.altitude, err = f.Distance(8); err != nil {
		s.addErr(err)
	}
	if s.geoidSep, err = f.Distance(10); err != nil {
		s.addErr(err)
	}
}

// GGA holds the values of a GGA sentence to encode. A negative
// SatellitesInUse is omitted.
type GGA struct {
	Talker            string
	Time              time.Duration
	Position          Position
	Quality           FixQuality
	SatellitesInUse   int
	HDOP              DilutionOfPrecision
	Altitude          Distance
	GeoidalSeparation Distance
}

func (g GGA) Sentence() *Sentence {
	fields := make([]string, 0, 14)
	fields = append(fields, formatTimeSpan(g.Time))
	fields = append(fields, formatPosition(g.Position)...)
	quality := ""
	if g.Quality != FixQualityUnknown {
		quality = formatInt(int(g.Quality))
	}
	sats := ""
	if g.SatellitesInUse >= 0 {
		sats = formatInt(g.SatellitesInUse)
	}
	fields = append(fields,
		quality,
		sats,
		formatFloat(float64(g.HDOP), 1),
		formatFloat(float64(g.Altitude), 1), unitIf(g.Altitude, "M"),
		formatFloat(float64(g.GeoidalSeparation), 1), unitIf(g.GeoidalSeparation, "M"),
		"", "",
	)
	return build(g.Talker, "GGA", fields)
}

func unitIf(d Distance, unit string) string {
	if d.IsInvalid() {
		return ""
	}
	return unit
}
