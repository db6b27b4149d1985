package nmea

type decodeFunc func(s *Sentence, f Fields)

type variant struct {
	kind   Kind
	caps   Capability
	decode decodeFunc
}

// registry maps a command word, '$' included, to its variant. It is built
// once and only read afterwards.
var registry = buildRegistry()

func buildRegistry() map[string]variant {
	r := make(map[string]variant)
	add := func(code string, v variant, talkers ...string) {
		for _, t := range talkers {
			r["$"+t+code] = v
		}
	}
	add("RMC", variant{KindRMC, rmcCaps, decodeRMC}, "GP", "GN")
	add("GGA", variant{KindGGA, ggaCaps, decodeGGA}, "GP", "GN")
	add("GSA", variant{KindGSA, gsaCaps, decodeGSA}, "GP", "GN")
	add("GSV", variant{KindGSV, gsvCaps, decodeGSV}, "GP", "GN", "GL")
	add("GLL", variant{KindGLL, gllCaps, decodeGLL}, "GP", "GN")
	add("VTG", variant{KindVTG, vtgCaps, decodeVTG}, "GP", "GN")
	add("HDT", variant{KindHDT, hdtCaps, decodeHDT}, "GP", "HE")
	add("ZDA", variant{KindZDA, zdaCaps, decodeZDA}, "GP", "GN")
	return r
}

// Dispatch builds the sentence variant for t's command word.
//
// Malformed lines and unrecognized command words yield a KindUnknown sentence
// with no capabilities; that is a normal outcome, not an error.
func Dispatch(t Tokenized) *Sentence {
	s := newSentence(t)
	if t.Malformed {
		return s
	}
	v, ok := registry[t.CommandWord]
	if !ok {
		return s
	}
	s.Kind = v.kind
	s.caps = v.caps
	v.decode(s, NewFields(t.Fields))
	return s
}

// Parse tokenizes and dispatches one line.
func Parse(line string) *Sentence {
	return Dispatch(Tokenize(line))
}

// Supported reports whether commandWord (e.g. "$GPRMC") has a variant.
func Supported(commandWord string) bool {
	_, ok := registry[commandWord]
	return ok
}
