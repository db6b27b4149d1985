package nmea

import (
	"strings"
	"time"

	"go.uber.org/multierr"
)

// Kind identifies the sentence variant.
type Kind int

const (
	KindUnknown Kind = iota
	KindRMC
	KindGGA
	KindGSA
	KindGSV
	KindGLL
	KindVTG
	KindHDT
	KindZDA
)

var kindNames = [...]string{"unknown", "RMC", "GGA", "GSA", "GSV", "GLL", "VTG", "HDT", "ZDA"}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Capability is a set of semantic values a sentence variant carries.
type Capability uint32

const (
	CapPosition Capability = 1 << iota
	CapBearing
	CapHeading
	CapSpeed
	CapMagneticVariation
	CapFixStatus
	CapFixMode
	CapFixMethod
	CapFixQuality
	CapUTCDateTime
	CapUTCTimeSpan
	CapHDOP
	CapVDOP
	CapMeanDOP
	CapAltitude
	CapGeoidalSeparation
	CapSatellites
	CapFixedSatellites
	CapFixedSatelliteCount
)

// Sentence is a tokenized line plus the typed values its variant declares.
//
// Getters for capabilities the sentence does not have return Invalid
// sentinels; check Has first. Decoded values are fixed at construction.
type Sentence struct {
	Tokenized
	Kind Kind

	caps Capability
	err  error

	position   Position
	bearing    Azimuth
	heading    Azimuth
	speed      Speed
	magVar     Longitude
	fixStatus  FixStatus
	fixMode    FixMode
	fixMethod  FixMethod
	fixQuality FixQuality
	utc        time.Time
	utcSpan    time.Duration
	hdop       DilutionOfPrecision
	vdop       DilutionOfPrecision
	mdop       DilutionOfPrecision
	altitude   Distance
	geoidSep   Distance
	satellites []Satellite
	satMsg     int
	satMsgs    int
	satsInView int
	fixedSats  []int
	fixedCount int
}

func newSentence(t Tokenized) *Sentence {
	return &Sentence{
		Tokenized:  t,
		position:   InvalidPosition,
		bearing:    InvalidAzimuth,
		heading:    InvalidAzimuth,
		speed:      InvalidSpeed,
		magVar:     InvalidLongitude,
		fixMethod:  FixMethodUnknown,
		fixQuality: FixQualityUnknown,
		utcSpan:    InvalidTimeSpan,
		hdop:       InvalidDilutionOfPrecision,
		vdop:       InvalidDilutionOfPrecision,
		mdop:       InvalidDilutionOfPrecision,
		altitude:   InvalidDistance,
		geoidSep:   InvalidDistance,
		satMsg:     InvalidCount,
		satMsgs:    InvalidCount,
		satsInView: InvalidCount,
		fixedCount: InvalidCount,
	}
}

// Has reports whether the sentence declares every capability in c.
func (s *Sentence) Has(c Capability) bool { return s.caps&c == c && c != 0 }

// Capabilities returns the declared capability set.
func (s *Sentence) Capabilities() Capability { return s.caps }

// Err returns the field decode errors met while building the sentence.
func (s *Sentence) Err() error { return s.err }

func (s *Sentence) addErr(err error) {
	s.err = multierr.Append(s.err, err)
}

func (s *Sentence) Position() Position                    { return s.position }
func (s *Sentence) Bearing() Azimuth                      { return s.bearing }
func (s *Sentence) Heading() Azimuth                      { return s.heading }
func (s *Sentence) Speed() Speed                          { return s.speed }
func (s *Sentence) MagneticVariation() Longitude          { return s.magVar }
func (s *Sentence) FixStatus() FixStatus                  { return s.fixStatus }
func (s *Sentence) FixMode() FixMode                      { return s.fixMode }
func (s *Sentence) FixMethod() FixMethod                  { return s.fixMethod }
func (s *Sentence) FixQuality() FixQuality                { return s.fixQuality }
func (s *Sentence) UTCDateTime() time.Time                { return s.utc }
func (s *Sentence) UTCTimeSpan() time.Duration            { return s.utcSpan }
func (s *Sentence) HorizontalDOP() DilutionOfPrecision    { return s.hdop }
func (s *Sentence) VerticalDOP() DilutionOfPrecision      { return s.vdop }
func (s *Sentence) MeanDOP() DilutionOfPrecision          { return s.mdop }
func (s *Sentence) Altitude() Distance                    { return s.altitude }
func (s *Sentence) GeoidalSeparation() Distance           { return s.geoidSep }
func (s *Sentence) FixedSatelliteCount() int              { return s.fixedCount }
func (s *Sentence) SatellitesInView() int                 { return s.satsInView }
func (s *Sentence) Satellites() []Satellite               { return append([]Satellite(nil), s.satellites...) }
func (s *Sentence) FixedSatellites() []int                { return append([]int(nil), s.fixedSats...) }
func (s *Sentence) SatelliteMessage() (number, total int) { return s.satMsg, s.satMsgs }

// Format renders the sentence with its checksum written in format ("X2" or
// "x2"). A sentence without checksum gets one appended.
func (s *Sentence) Format(format string) (string, error) {
	if s.Malformed {
		return s.Text, nil
	}
	cs, err := FormatChecksum(Checksum(payloadOf(s.Text)), format)
	if err != nil {
		return "", err
	}
	text := s.Text
	if i := strings.IndexByte(text, '*'); i >= 0 {
		text = text[:i]
	}
	return text + "*" + cs, nil
}

func payloadOf(text string) string {
	if i := strings.IndexByte(text, '$'); i >= 0 {
		text = text[i+1:]
	}
	if i := strings.IndexByte(text, '*'); i >= 0 {
		text = text[:i]
	}
	return text
}
