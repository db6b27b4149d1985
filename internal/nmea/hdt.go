package nmea

// HDT: true heading. 0: heading (1: T)
const hdtCaps = CapHeading

func decodeHDT(s *Sentence, f Fields) {
	var err error
	if s.heading, err = f.Azimuth(0); err != nil {
		s.addErr(err)
	}
}

// HDT holds the values of an HDT sentence to encode.
type HDT struct {
	Talker  string
	Heading Azimuth
}

func (h HDT) Sentence() *Sentence {
	return build(h.Talker, "HDT", []string{formatFloat(float64(h.Heading), 2), "T"})
}
