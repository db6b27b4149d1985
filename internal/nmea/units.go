package nmea

import (
	"fmt"
	"math"
)

// Azimuth is an angle in degrees clockwise from true north.
type Azimuth float64

// Distance is a length in meters.
type Distance float64

// Speed is a speed in knots.
type Speed float64

// DilutionOfPrecision is a unitless DOP value; valid values are > 0.
type DilutionOfPrecision float64

// Latitude is a signed angle in decimal degrees, north positive.
type Latitude float64

// Longitude is a signed angle in decimal degrees, east positive. It is also
// used for magnetic variation.
type Longitude float64

// Invalid sentinels. Use the IsInvalid methods to test for them.
var (
	InvalidAzimuth             = Azimuth(math.NaN())
	InvalidDistance            = Distance(math.NaN())
	InvalidSpeed               = Speed(math.NaN())
	InvalidDilutionOfPrecision = DilutionOfPrecision(math.NaN())
	InvalidLatitude            = Latitude(math.NaN())
	InvalidLongitude           = Longitude(math.NaN())
	InvalidPosition            = Position{Latitude: InvalidLatitude, Longitude: InvalidLongitude}
)

// MaximumDilutionOfPrecision is the worst DOP a receiver reports.
const MaximumDilutionOfPrecision DilutionOfPrecision = 50

const (
	metersPerFoot     = 0.3048
	metersPerSecPerKt = 0.514444444444444
)

func (a Azimuth) IsInvalid() bool             { return math.IsNaN(float64(a)) }
func (d Distance) IsInvalid() bool            { return math.IsNaN(float64(d)) }
func (s Speed) IsInvalid() bool               { return math.IsNaN(float64(s)) }
func (d DilutionOfPrecision) IsInvalid() bool { return math.IsNaN(float64(d)) }
func (l Latitude) IsInvalid() bool            { return math.IsNaN(float64(l)) }
func (l Longitude) IsInvalid() bool           { return math.IsNaN(float64(l)) }

// Feet converts d to feet.
func (d Distance) Feet() float64 { return float64(d) / metersPerFoot }

// MetersPerSecond converts s to m/s.
func (s Speed) MetersPerSecond() float64 { return float64(s) * metersPerSecPerKt }

// KilometersPerHour converts s to km/h.
func (s Speed) KilometersPerHour() float64 { return float64(s) * 1.852 }

// Position is a latitude/longitude pair in decimal degrees.
type Position struct {
	Latitude  Latitude
	Longitude Longitude
}

func (p Position) IsInvalid() bool {
	return p.Latitude.IsInvalid() || p.Longitude.IsInvalid()
}

func (p Position) String() string {
	if p.IsInvalid() {
		return "invalid"
	}
	return fmt.Sprintf("%.6f,%.6f", float64(p.Latitude), float64(p.Longitude))
}

// Satellite is one satellite-in-view record. Elevation, Azimuth and SNR are -1
// when the receiver omitted them.
type Satellite struct {
	PRN       int `json:"prn"`
	Elevation int `json:"elevation"`
	Azimuth   int `json:"azimuth"`
	SNR       int `json:"snr"`
}

// Tracked reports whether the receiver has a signal for the satellite.
func (s Satellite) Tracked() bool { return s.SNR > 0 }
