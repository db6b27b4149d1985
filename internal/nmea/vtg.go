package nmea

// VTG: track made good and ground speed.
//
//	0: track true (1: T)  2: track magnetic (3: M)
//	4: speed knots (5: N) 6: speed km/h (7: K)
const vtgCaps = CapBearing | CapSpeed

func decodeVTG(s *Sentence, f Fields) {
	var err error
	if s.bearing, err = f.Azimuth(0); err != nil {
		s.addErr(err)
	}
	if s.speed, err = f.Speed(4); err != nil {
		s.addErr(err)
	}
}

// VTG holds the values of a VTG sentence to encode.
type VTG struct {
	Talker  string
	Bearing Azimuth
	Speed   Speed
}

func (v VTG) Sentence() *Sentence {
	kmh := InvalidSpeed
	if !v.Speed.IsInvalid() {
		kmh = Speed(v.Speed.KilometersPerHour())
	}
	fields := []string{
		formatFloat(float64(v.Bearing), 2), "T",
		"", "M",
		formatFloat(float64(v.Speed), 2), "N",
		formatFloat(float64(kmh), 2), "K",
	}
	return build(v.Talker, "VTG", fields)
}
