package nmea

import "time"

// GLL: geographic position.
//
//	0-3: position  4: time  5: status (A/V)
const gllCaps = CapPosition | CapUTCTimeSpan | CapFixStatus

func decodeGLL(s *Sentence, f Fields) {
	var err error
	if s.position, err = f.Position(0, 1, 2, 3); err != nil {
		s.addErr(err)
	}
	if s.utcSpan, err = f.UTCTimeSpan(4); err != nil {
		s.addErr(err)
	}
	s.fixStatus = f.FixStatus(5)
}

// GLL holds the values of a GLL sentence to encode.
type GLL struct {
	Talker   string
	Position Position
	Time     time.Duration
	Status   FixStatus
}

func (g GLL) Sentence() *Sentence {
	fields := append(formatPosition(g.Position), formatTimeSpan(g.Time), formatStatus(g.Status))
	return build(g.Talker, "GLL", fields)
}
