package gps

import (
	"time"

	"gpsfuse/internal/nmea"
)

// SynthesizeRMC renders the fused state as an RMC sentence, for re-broadcast
// to consumers that only understand NMEA.
func SynthesizeRMC(st State, talker string) *nmea.Sentence {
	status := nmea.FixStatusNoFix
	if st.IsFixed() {
		status = nmea.FixStatusFix
	}
	return nmea.RMC{
		Talker:            talker,
		Time:              st.UTCDateTime,
		Status:            status,
		Position:          st.Position,
		Speed:             st.Speed,
		Bearing:           st.Bearing,
		MagneticVariation: st.MagneticVariation,
	}.Sentence()
}

// SynthesizeGGA renders the fused state as a GGA sentence. The satellite
// count falls back to the GSA PRN list when no GGA count was seen.
func SynthesizeGGA(st State, talker string) *nmea.Sentence {
	sats := st.FixedSatelliteCount
	if sats == nmea.InvalidCount && len(st.FixedSatellites) > 0 {
		sats = len(st.FixedSatellites)
	}
	quality := st.FixQuality
	if quality == nmea.FixQualityUnknown {
		quality = nmea.FixQualityNoFix
		if st.IsFixed() {
			quality = nmea.FixQualityGPSFix
		}
	}
	tod := nmea.InvalidTimeSpan
	if !st.UTCDateTime.IsZero() {
		t := st.UTCDateTime.UTC()
		tod = t.Sub(time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC))
	}
	return nmea.GGA{
		Talker:            talker,
		Time:              tod,
		Position:          st.Position,
		Quality:           quality,
		SatellitesInUse:   sats,
		HDOP:              st.HDOP,
		Altitude:          st.Altitude,
		GeoidalSeparation: st.GeoidalSeparation,
	}.Sentence()
}

// Frames renders the fused state as CRLF-terminated RMC and GGA lines, ready
// to write to a socket.
func Frames(st State, talker string) [][]byte {
	out := make([][]byte, 0, 2)
	for _, s := range []*nmea.Sentence{SynthesizeRMC(st, talker), SynthesizeGGA(st, talker)} {
		out = append(out, []byte(s.Text+"\r\n"))
	}
	return out
}
