package sim

import (
	"math"
	"strings"
	"testing"
	"time"

	"gpsfuse/internal/nmea"
)

func TestReceiver_Position_Invariants(t *testing.T) {
	r := Receiver{
		CenterLatDeg: 45.0,
		CenterLonDeg: -122.0,
		RadiusNm:     1.0,
		Period:       60 * time.Second,
	}

	now := time.Date(2025, 12, 20, 19, 0, 0, 0, time.UTC)
	for i := 0; i < 60; i++ {
		lat, lon, trk, kt := r.Position(now.Add(time.Duration(i) * time.Second))
		for _, v := range []float64{lat, lon, trk, kt} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Fatalf("i=%d non-finite output lat=%v lon=%v trk=%v kt=%v", i, lat, lon, trk, kt)
			}
		}
		if trk < 0 || trk >= 360 {
			t.Fatalf("track out of range: %v", trk)
		}
		if kt <= 0 {
			t.Fatalf("ground speed must be positive: %v", kt)
		}

		radiusDeg := r.RadiusNm / 60.0
		if math.Abs(lat-r.CenterLatDeg) > radiusDeg*1.01 {
			t.Fatalf("lat offset too large: got %f want <= %f", math.Abs(lat-r.CenterLatDeg), radiusDeg)
		}
		maxLonDeg := radiusDeg / math.Cos(r.CenterLatDeg*math.Pi/180.0)
		if math.Abs(lon-r.CenterLonDeg) > maxLonDeg*1.01 {
			t.Fatalf("lon offset too large: got %f want <= %f", math.Abs(lon-r.CenterLonDeg), maxLonDeg)
		}
	}
}

func TestReceiver_Position_DeterministicForNow(t *testing.T) {
	r := Receiver{CenterLatDeg: 1, CenterLonDeg: 2, RadiusNm: 0.5, Period: 120 * time.Second}
	now := time.Date(2025, 12, 20, 19, 0, 0, 123, time.UTC)

	lat1, lon1, trk1, kt1 := r.Position(now)
	lat2, lon2, trk2, kt2 := r.Position(now)
	if lat1 != lat2 || lon1 != lon2 || trk1 != trk2 || kt1 != kt2 {
		t.Fatalf("expected deterministic result for same now")
	}
}

func TestReceiver_AltitudeBounds(t *testing.T) {
	r := Receiver{AltFeet: 1000}
	now := time.Date(2025, 12, 20, 19, 0, 0, 0, time.UTC)
	for i := 0; i < 120; i++ {
		alt := r.AltitudeFeet(now.Add(time.Duration(i) * time.Second))
		if alt < 500 || alt > 1500 {
			t.Fatalf("altitude out of range: %v", alt)
		}
	}
}

func TestReceiver_SentencesDecode(t *testing.T) {
	r := Receiver{CenterLatDeg: 47.5, CenterLonDeg: 8.5, RadiusNm: 1, Talker: "GN"}
	now := time.Date(2025, 6, 1, 12, 30, 15, 0, time.UTC)

	sents := r.Sentences(now)
	if len(sents) != 3 {
		t.Fatalf("len=%d want 3", len(sents))
	}
	wantKinds := []nmea.Kind{nmea.KindGGA, nmea.KindGSA, nmea.KindRMC}
	for i, s := range sents {
		if s.Kind != wantKinds[i] {
			t.Fatalf("sentence %d kind=%v want %v", i, s.Kind, wantKinds[i])
		}
		if !s.Valid || s.Err() != nil {
			t.Fatalf("sentence %d valid=%v err=%v text=%q", i, s.Valid, s.Err(), s.Text)
		}
		if !strings.HasPrefix(s.CommandWord, "$GN") {
			t.Fatalf("sentence %d command word=%q", i, s.CommandWord)
		}
	}

	rmc := sents[2]
	if !rmc.UTCDateTime().Equal(now) {
		t.Fatalf("rmc time=%v want %v", rmc.UTCDateTime(), now)
	}
	lat, lon, _, _ := r.Position(now)
	p := rmc.Position()
	if math.Abs(float64(p.Latitude)-lat) > 1e-5 || math.Abs(float64(p.Longitude)-lon) > 1e-5 {
		t.Fatalf("rmc position=%v want %f,%f", p, lat, lon)
	}
	if sents[1].FixMethod() != nmea.FixMethodFix3D || len(sents[1].FixedSatellites()) != len(simPRNs) {
		t.Fatalf("gsa method=%v prns=%v", sents[1].FixMethod(), sents[1].FixedSatellites())
	}
}
