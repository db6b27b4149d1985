package nmea

// GSV: satellites in view, up to four per message.
//
//	0: total messages  1: message number  2: satellites in view
//	3..: groups of (PRN, elevation, azimuth, SNR)
const gsvCaps = CapSatellites

func decodeGSV(s *Sentence, f Fields) {
	var err error
	if s.satMsgs, err = f.Int(0); err != nil {
		s.addErr(err)
	}
	if s.satMsg, err = f.Int(1); err != nil {
		s.addErr(err)
	}
	if s.satsInView, err = f.Int(2); err != nil {
		s.addErr(err)
	}
	if s.satellites, err = f.Satellites(3); err != nil {
		s.addErr(err)
	}
}

// GSV holds the values of one GSV message to encode.
type GSV struct {
	Talker     string
	Total      int
	Number     int
	InView     int
	Satellites []Satellite
}

func (g GSV) Sentence() *Sentence {
	fields := []string{formatInt(g.Total), formatInt(g.Number), formatInt(g.InView)}
	for i, sat := range g.Satellites {
		if i == 4 {
			break
		}
		fields = append(fields,
			formatInt(sat.PRN), formatInt(sat.Elevation), formatInt(sat.Azimuth), formatInt(sat.SNR))
	}
	return build(g.Talker, "GSV", fields)
}
