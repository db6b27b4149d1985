package gps

import (
	"math"
	"time"

	"gpsfuse/internal/nmea"
)

// Snapshot is the JSON view of the service and its fused state. Values the
// receiver has not supplied are omitted.
type Snapshot struct {
	Enabled bool `json:"enabled"`
	Running bool `json:"running"`
	Fixed   bool `json:"fixed"`

	Source string `json:"source,omitempty"`
	Device string `json:"device,omitempty"`
	Baud   int    `json:"baud,omitempty"`
	Link   string `json:"link,omitempty"`

	LatDeg     *float64         `json:"lat_deg,omitempty"`
	LonDeg     *float64         `json:"lon_deg,omitempty"`
	AltM       *float64         `json:"alt_m,omitempty"`
	GeoidSepM  *float64         `json:"geoid_sep_m,omitempty"`
	GroundKt   *float64         `json:"ground_kt,omitempty"`
	TrackDeg   *float64         `json:"track_deg,omitempty"`
	HeadingDeg *float64         `json:"heading_deg,omitempty"`
	MagVarDeg  *float64         `json:"mag_var_deg,omitempty"`
	HDOP       *float64         `json:"hdop,omitempty"`
	VDOP       *float64         `json:"vdop,omitempty"`
	PDOP       *float64         `json:"pdop,omitempty"`
	FixQuality string           `json:"fix_quality"`
	FixMethod  string           `json:"fix_method"`
	FixMode    string           `json:"fix_mode"`
	FixStatus  string           `json:"fix_status"`
	SatsInUse  *int             `json:"sats_in_use,omitempty"`
	FixedPRNs  []int            `json:"fixed_prns,omitempty"`
	Satellites []nmea.Satellite `json:"satellites,omitempty"`
	UTC        string           `json:"utc,omitempty"`

	Lines     uint64 `json:"lines"`
	Fused     uint64 `json:"fused"`
	Skipped   uint64 `json:"skipped"`
	LastError string `json:"last_error,omitempty"`
}

func optFloat(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

// Snapshot renders the state; service fields are left empty.
func (s State) Snapshot() Snapshot {
	out := Snapshot{
		Fixed:      s.IsFixed(),
		AltM:       optFloat(float64(s.Altitude)),
		GeoidSepM:  optFloat(float64(s.GeoidalSeparation)),
		GroundKt:   optFloat(float64(s.Speed)),
		TrackDeg:   optFloat(float64(s.Bearing)),
		HeadingDeg: optFloat(float64(s.Heading)),
		MagVarDeg:  optFloat(float64(s.MagneticVariation)),
		HDOP:       optFloat(float64(s.HDOP)),
		VDOP:       optFloat(float64(s.VDOP)),
		PDOP:       optFloat(float64(s.MeanDOP)),
		FixQuality: s.FixQuality.String(),
		FixMethod:  s.FixMethod.String(),
		FixMode:    s.FixMode.String(),
		FixStatus:  s.FixStatus.String(),
		FixedPRNs:  s.FixedSatellites,
		Satellites: s.Satellites,
	}
	if !s.Position.IsInvalid() {
		out.LatDeg = optFloat(float64(s.Position.Latitude))
		out.LonDeg = optFloat(float64(s.Position.Longitude))
	}
	if s.FixedSatelliteCount != nmea.InvalidCount {
		v := s.FixedSatelliteCount
		out.SatsInUse = &v
	}
	if !s.UTCDateTime.IsZero() {
		out.UTC = s.UTCDateTime.UTC().Format(time.RFC3339Nano)
	}
	return out
}
