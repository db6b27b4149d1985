// Package sim generates the NMEA stream of a receiver flying a fixed
// figure-eight, for bench testing without hardware.
package sim

import (
	"math"
	"time"

	"gpsfuse/internal/nmea"
)

type Receiver struct {
	CenterLatDeg float64
	CenterLonDeg float64
	AltFeet      int
	RadiusNm     float64
	Period       time.Duration
	Talker       string
}

// simulated fix geometry
var (
	simPRNs = []int{2, 5, 12, 15, 18, 24, 25, 29}
	simHDOP = nmea.DilutionOfPrecision(0.9)
	simVDOP = nmea.DilutionOfPrecision(1.3)
	simPDOP = nmea.DilutionOfPrecision(1.6)
)

func (r Receiver) period() time.Duration {
	if r.Period <= 0 {
		return 120 * time.Second
	}
	return r.Period
}

func (r Receiver) radiusNm() float64 {
	if r.RadiusNm <= 0 {
		return 0.5
	}
	return r.RadiusNm
}

// Position returns a point on the figure-eight around the center, and the
// instantaneous track and ground speed.
func (r Receiver) Position(now time.Time) (latDeg, lonDeg, trackDeg, groundKt float64) {
	period := r.period()
	radiusNm := r.radiusNm()

	// ~60 NM per degree of latitude.
	radiusDeg := radiusNm / 60.0

	phase := float64(now.UnixNano()%period.Nanoseconds()) / float64(period.Nanoseconds())

	//	x = cos(2πt)      east-west, scaled by cos(lat) for longitude
	//	y = 0.5*sin(4πt)  north-south
	w := 2 * math.Pi * phase
	x := math.Cos(w)
	y := 0.5 * math.Sin(2*w)

	latDeg = r.CenterLatDeg + radiusDeg*y
	lonDeg = r.CenterLonDeg + (radiusDeg*x)/math.Cos(r.CenterLatDeg*math.Pi/180.0)

	vx := -math.Sin(w)
	vy := math.Cos(2 * w)
	trackDeg = math.Mod(math.Atan2(vx, vy)*180/math.Pi+360, 360)

	// d/dt of the path in NM per second, times 3600.
	scale := 2 * math.Pi / period.Seconds()
	groundKt = radiusNm * scale * math.Hypot(vx, vy) * 3600
	return latDeg, lonDeg, trackDeg, groundKt
}

// AltitudeFeet is a sinusoid of +/-500 ft around AltFeet, on a vertical
// period half the horizontal one (at least 30s).
func (r Receiver) AltitudeFeet(now time.Time) float64 {
	base := r.AltFeet
	if base == 0 {
		base = 3000
	}
	vp := r.period() / 2
	if vp < 30*time.Second {
		vp = 30 * time.Second
	}
	phase := float64(now.UnixNano()%vp.Nanoseconds()) / float64(vp.Nanoseconds())
	return float64(base) + 500*math.Sin(2*math.Pi*phase)
}

// Sentences renders one epoch at now as GGA, GSA and RMC, in the order a
// typical receiver emits them.
func (r Receiver) Sentences(now time.Time) []*nmea.Sentence {
	now = now.UTC()
	lat, lon, trk, kt := r.Position(now)
	pos := nmea.Position{Latitude: nmea.Latitude(lat), Longitude: nmea.Longitude(lon)}
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	return []*nmea.Sentence{
		nmea.GGA{
			Talker:            r.Talker,
			Time:              now.Sub(midnight),
			Position:          pos,
			Quality:           nmea.FixQualityGPSFix,
			SatellitesInUse:   len(simPRNs),
			HDOP:              simHDOP,
			Altitude:          nmea.Distance(r.AltitudeFeet(now) * 0.3048),
			GeoidalSeparation: nmea.InvalidDistance,
		}.Sentence(),
		nmea.GSA{
			Talker: r.Talker,
			Mode:   nmea.FixModeAutomatic,
			Method: nmea.FixMethodFix3D,
			PRNs:   simPRNs,
			PDOP:   simPDOP,
			HDOP:   simHDOP,
			VDOP:   simVDOP,
		}.Sentence(),
		nmea.RMC{
			Talker:            r.Talker,
			Time:              now,
			Status:            nmea.FixStatusFix,
			Position:          pos,
			Speed:             nmea.Speed(kt),
			Bearing:           nmea.Azimuth(trk),
			MagneticVariation: nmea.InvalidLongitude,
		}.Sentence(),
	}
}
