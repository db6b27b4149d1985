package nmea

// GSA: DOP and active satellites.
//
//	0: mode (A/M)
//	1: fix type (1 none, 2 2D, 3 3D)
//	2-13: PRNs of satellites used
//	14: PDOP, 15: HDOP, 16: VDOP
const gsaCaps = CapFixMode | CapFixMethod | CapFixedSatellites | CapFixedSatelliteCount |
	CapMeanDOP | CapHDOP | CapVDOP

const gsaPRNSlots = 12

func decodeGSA(s *Sentence, f Fields) {
	var err error
	s.fixMode = f.FixMode(0)
	s.fixMethod = f.FixMethod(1, true)
	if s.fixedSats, err = f.PRNs(2, 2+gsaPRNSlots); err != nil {
		s.addErr(err)
	}
	s.fixedCount = len(s.fixedSats)
	if s.mdop, err = f.DilutionOfPrecision(14); err != nil {
		s.addErr(err)
	}
	if s.hdop, err = f.DilutionOfPrecision(15); err != nil {
		s.addErr(err)
	}
	if s.vdop, err = f.DilutionOfPrecision(16); err != nil {
		s.addErr(err)
	}
}

// GSA holds the values of a GSA sentence to encode. Only the first 12 PRNs are
// written.
type GSA struct {
	Talker string
	Mode   FixMode
	Method FixMethod
	PRNs   []int
	PDOP   DilutionOfPrecision
	HDOP   DilutionOfPrecision
	VDOP   DilutionOfPrecision
}

func (g GSA) Sentence() *Sentence {
	fields := make([]string, 0, 17)
	mode := ""
	switch g.Mode {
	case FixModeAutomatic:
		mode = "A"
	case FixModeManual:
		mode = "M"
	}
	method := ""
	if g.Method != FixMethodUnknown {
		method = formatInt(int(g.Method) + 1)
	}
	fields = append(fields, mode, method)
	for i := 0; i < gsaPRNSlots; i++ {
		if i < len(g.PRNs) {
			fields = append(fields, formatInt(g.PRNs[i]))
		} else {
			fields = append(fields, "")
		}
	}
	fields = append(fields,
		formatFloat(float64(g.PDOP), 1),
		formatFloat(float64(g.HDOP), 1),
		formatFloat(float64(g.VDOP), 1),
	)
	return build(g.Talker, "GSA", fields)
}
