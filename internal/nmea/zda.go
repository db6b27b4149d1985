package nmea

import (
	"fmt"
	"time"
)

// ZDA: date and time.
//
//	0: time  1: day  2: month  3: year (4 digits)  4-5: local zone (ignored)
const zdaCaps = CapUTCDateTime

func decodeZDA(s *Sentence, f Fields) {
	var err error
	if s.utc, err = f.ZonedDateTime(0, 1, 2, 3); err != nil {
		s.addErr(err)
	}
}

// ZDA holds the values of a ZDA sentence to encode.
type ZDA struct {
	Talker string
	Time   time.Time
}

func (z ZDA) Sentence() *Sentence {
	fields := []string{"", "", "", "", "", ""}
	if !z.Time.IsZero() {
		t := z.Time.UTC()
		fields[0] = formatTimeSpan(timeOfDay(t))
		fields[1] = fmt.Sprintf("%02d", t.Day())
		fields[2] = fmt.Sprintf("%02d", int(t.Month()))
		fields[3] = fmt.Sprintf("%04d", t.Year())
		fields[4], fields[5] = "00", "00"
	}
	return build(z.Talker, "ZDA", fields)
}
