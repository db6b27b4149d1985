package gps

import (
	"math"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"gpsfuse/internal/nmea"
)

const (
	lineRMC       = "$GPRMC,081836,A,3751.65,S,14507.36,E,000.0,360.0,130998,011.3,E*62"
	lineRMCNoFix  = "$GPRMC,123519,V,,,,,,,230394,,*33"
	lineGGA       = "$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*47"
	lineGGAHDOP95 = "$GPGGA,123519,4807.038,N,01131.000,E,1,08,9.5,545.4,M,46.9,M,,*42"
	lineGGANoFix  = "$GPGGA,123519,4807.038,N,01131.000,E,0,00,,,M,,M,,*52"
	lineGSA       = "$GPGSA,A,3,04,05,,09,12,,,24,,,,,2.5,1.3,2.1*39"
	lineGSAVDOP9  = "$GPGSA,A,3,04,05,,09,12,,,24,,,,,2.5,1.3,9.0*33"
	lineGSV1      = "$GPGSV,2,1,08,01,40,083,46,02,17,308,41,12,07,344,39,14,22,228,45*75"
	lineGSV2      = "$GPGSV,2,2,08,15,10,100,30,16,20,200,,,,,,,,,*71"
	lineGLGSV70   = "$GLGSV,1,1,01,70,30,120,40*57"
	lineGLGSV71   = "$GLGSV,1,1,01,71,25,200,38*5C"
	lineHDT       = "$GPHDT,274.07,T*03"
	lineHDTBadCS  = "$GPHDT,274.07,T*04"
)

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func startedInterpreter(t *testing.T, cfg InterpreterConfig) *Interpreter {
	t.Helper()
	in := NewInterpreter(cfg)
	in.Start()
	return in
}

func feed(t *testing.T, in *Interpreter, lines ...string) {
	t.Helper()
	for _, line := range lines {
		if !in.Parse(nmea.Parse(line)) {
			t.Fatalf("Parse(%q) rejected", line)
		}
	}
}

func TestInterpreter_EndToEndRMC(t *testing.T) {
	in := startedInterpreter(t, InterpreterConfig{})
	feed(t, in, lineRMC)

	pos := in.Position()
	if !near(float64(pos.Latitude), -(37+51.65/60)) || !near(float64(pos.Longitude), 145+7.36/60) {
		t.Fatalf("position=%v", pos)
	}
	if in.Speed() != 0 || in.Bearing() != 360 {
		t.Fatalf("speed=%v bearing=%v", in.Speed(), in.Bearing())
	}
	if want := time.Date(1998, 9, 13, 8, 18, 36, 0, time.UTC); !in.UTCDateTime().Equal(want) {
		t.Fatalf("utc=%v want %v", in.UTCDateTime(), want)
	}
	if in.FixStatus() != nmea.FixStatusFix || !in.IsFixed() {
		t.Fatalf("status=%v fixed=%v", in.FixStatus(), in.IsFixed())
	}
	if !near(float64(in.MagneticVariation()), 11.3) {
		t.Fatalf("magvar=%v", in.MagneticVariation())
	}
	if !in.Altitude().IsInvalid() || !in.HorizontalDOP().IsInvalid() {
		t.Fatalf("values without a producer must stay invalid")
	}
}

func TestInterpreter_NotRunning(t *testing.T) {
	in := NewInterpreter(InterpreterConfig{})
	if in.Running() {
		t.Fatalf("running before Start")
	}
	if in.Parse(nmea.Parse(lineRMC)) {
		t.Fatalf("Parse accepted before Start")
	}
	if !in.Position().IsInvalid() {
		t.Fatalf("position=%v", in.Position())
	}
	if in.Parse(nil) {
		t.Fatalf("Parse(nil) accepted")
	}
}

func TestInterpreter_StopResets(t *testing.T) {
	in := startedInterpreter(t, InterpreterConfig{})
	feed(t, in, lineGGA, lineGSA)
	in.Stop()
	if in.Running() {
		t.Fatalf("running after Stop")
	}
	st := in.State()
	if !st.Position.IsInvalid() || st.FixQuality != nmea.FixQualityUnknown || st.FixedSatelliteCount != nmea.InvalidCount || len(st.FixedSatellites) != 0 {
		t.Fatalf("state not reset: %+v", st)
	}
	if in.Parse(nmea.Parse(lineGGA)) {
		t.Fatalf("Parse accepted after Stop")
	}
}

func TestInterpreter_SkipsBadChecksumAndUnknown(t *testing.T) {
	in := startedInterpreter(t, InterpreterConfig{})
	if in.Parse(nmea.Parse(lineHDTBadCS)) {
		t.Fatalf("bad checksum accepted")
	}
	if in.Parse(nmea.Parse("$GPTXT,01,01,02,ANTSTATUS=OK*3B")) {
		t.Fatalf("unknown sentence accepted")
	}
	if in.Parse(nmea.Parse("garbage")) {
		t.Fatalf("malformed line accepted")
	}
	if in.Parse(nmea.Parse("$GPRMC,081836,A,37x1.65,S,14507.36,E,000.0,360.0,130998,011.3,E*2F")) {
		t.Fatalf("sentence with decode error accepted")
	}
	if !in.Heading().IsInvalid() || !in.Position().IsInvalid() {
		t.Fatalf("state changed: heading=%v position=%v", in.Heading(), in.Position())
	}
	fused, skipped := in.Counts()
	if fused != 0 || skipped != 4 {
		t.Fatalf("fused=%d skipped=%d", fused, skipped)
	}

	feed(t, in, lineHDT)
	if !near(float64(in.Heading()), 274.07) {
		t.Fatalf("heading=%v", in.Heading())
	}
}

func TestInterpreter_HDOPGatesPosition(t *testing.T) {
	in := startedInterpreter(t, InterpreterConfig{MaxHDOP: 5})
	feed(t, in, lineGGAHDOP95)

	if !in.Position().IsInvalid() {
		t.Fatalf("position accepted with HDOP 9.5: %v", in.Position())
	}
	if !near(float64(in.HorizontalDOP()), 9.5) {
		t.Fatalf("hdop=%v", in.HorizontalDOP())
	}
	// VDOP is unknown, so the vertical gate stays open.
	if !near(float64(in.Altitude()), 545.4) {
		t.Fatalf("altitude=%v", in.Altitude())
	}

	// The stored HDOP keeps gating sentences without their own DOP.
	feed(t, in, lineRMC)
	if !in.Position().IsInvalid() || !in.Bearing().IsInvalid() || !in.Speed().IsInvalid() {
		t.Fatalf("rmc accepted while HDOP high")
	}
	// Non-gated fields still flow.
	if in.FixStatus() != nmea.FixStatusFix {
		t.Fatalf("status=%v", in.FixStatus())
	}

	feed(t, in, lineGSA, lineRMC)
	if in.Position().IsInvalid() {
		t.Fatalf("position rejected after HDOP improved")
	}
}

func TestInterpreter_VDOPGatesAltitude(t *testing.T) {
	in := startedInterpreter(t, InterpreterConfig{MaxVDOP: 5})
	feed(t, in, lineGSAVDOP9, lineGGA)

	if !in.Altitude().IsInvalid() || !in.GeoidalSeparation().IsInvalid() {
		t.Fatalf("altitude accepted with VDOP 9: %v", in.Altitude())
	}
	if in.Position().IsInvalid() {
		t.Fatalf("position should pass the horizontal gate")
	}
	if !near(float64(in.VerticalDOP()), 9) || !near(float64(in.MeanDOP()), 2.5) {
		t.Fatalf("vdop=%v pdop=%v", in.VerticalDOP(), in.MeanDOP())
	}
}

func TestInterpreter_DefaultDOPLimit(t *testing.T) {
	in := NewInterpreter(InterpreterConfig{})
	if in.cfg.MaxHDOP != nmea.MaximumDilutionOfPrecision || in.cfg.MaxVDOP != nmea.MaximumDilutionOfPrecision {
		t.Fatalf("limits=%v/%v", in.cfg.MaxHDOP, in.cfg.MaxVDOP)
	}
}

func TestInterpreter_FixRequired(t *testing.T) {
	now := time.Date(2024, 6, 1, 15, 0, 0, 0, time.UTC)
	in := startedInterpreter(t, InterpreterConfig{FixRequired: true, Now: func() time.Time { return now }})

	feed(t, in, lineGGANoFix)
	if !in.Position().IsInvalid() || !in.Altitude().IsInvalid() || !in.UTCDateTime().IsZero() {
		t.Fatalf("gated values updated without fix")
	}
	if in.FixQuality() != nmea.FixQualityNoFix {
		t.Fatalf("quality=%v", in.FixQuality())
	}

	feed(t, in, lineRMCNoFix)
	if in.FixStatus() != nmea.FixStatusNoFix || !in.UTCDateTime().IsZero() {
		t.Fatalf("status=%v utc=%v", in.FixStatus(), in.UTCDateTime())
	}

	// Eligibility is decided before this sentence's own status is applied.
	feed(t, in, lineRMC)
	if !in.Position().IsInvalid() {
		t.Fatalf("first fixed RMC should still be gated")
	}
	if in.FixStatus() != nmea.FixStatusFix {
		t.Fatalf("status=%v", in.FixStatus())
	}
	feed(t, in, lineRMC)
	if in.Position().IsInvalid() {
		t.Fatalf("position rejected once fixed")
	}
}

func TestInterpreter_FixQualityEnablesSameSentence(t *testing.T) {
	in := startedInterpreter(t, InterpreterConfig{FixRequired: true})
	feed(t, in, lineGGA)
	if in.Position().IsInvalid() || in.Altitude().IsInvalid() {
		t.Fatalf("gga with quality 1 should pass its own fix gate")
	}
}

func TestInterpreter_TimeOnlyUsesClockDate(t *testing.T) {
	now := time.Date(2024, 6, 1, 23, 59, 0, 0, time.FixedZone("x", -5*3600))
	in := startedInterpreter(t, InterpreterConfig{Now: func() time.Time { return now }})
	feed(t, in, lineGGA)

	want := time.Date(2024, 6, 2, 12, 35, 19, 0, time.UTC)
	if !in.UTCDateTime().Equal(want) {
		t.Fatalf("utc=%v want %v", in.UTCDateTime(), want)
	}
	if !in.State().LocalDateTime().Equal(want) {
		t.Fatalf("local=%v", in.State().LocalDateTime())
	}
}

func TestInterpreter_SatelliteCycle(t *testing.T) {
	in := startedInterpreter(t, InterpreterConfig{})
	feed(t, in, lineGSV1, lineGSV2)
	sats := in.Satellites()
	if len(sats) != 6 {
		t.Fatalf("sats=%d want 6", len(sats))
	}
	if sats[5].PRN != 16 || sats[5].SNR != nmea.InvalidCount {
		t.Fatalf("last sat=%+v", sats[5])
	}

	feed(t, in, lineGSV1)
	if got := len(in.Satellites()); got != 4 {
		t.Fatalf("sats after new cycle=%d want 4", got)
	}

	feed(t, in, lineGSA)
	if diff := cmp.Diff([]int{4, 5, 9, 12, 24}, in.FixedSatellites()); diff != "" {
		t.Fatalf("fixed prns (-want +got):\n%s", diff)
	}
	if in.FixedSatelliteCount() != 5 || in.FixMode() != nmea.FixModeAutomatic || in.FixMethod() != nmea.FixMethodFix3D {
		t.Fatalf("count=%d mode=%v method=%v", in.FixedSatelliteCount(), in.FixMode(), in.FixMethod())
	}
}

func TestInterpreter_SatelliteCyclePerTalker(t *testing.T) {
	in := startedInterpreter(t, InterpreterConfig{})
	prns := func() []int {
		var out []int
		for _, sat := range in.Satellites() {
			out = append(out, sat.PRN)
		}
		return out
	}

	feed(t, in, lineGSV1, lineGSV2, lineGLGSV70)
	if diff := cmp.Diff([]int{70, 1, 2, 12, 14, 15, 16}, prns()); diff != "" {
		t.Fatalf("prns (-want +got):\n%s", diff)
	}

	// A new GLONASS cycle replaces only the GLONASS entries.
	feed(t, in, lineGLGSV71)
	if diff := cmp.Diff([]int{71, 1, 2, 12, 14, 15, 16}, prns()); diff != "" {
		t.Fatalf("prns after GL cycle (-want +got):\n%s", diff)
	}

	// And a new GPS cycle only the GPS ones.
	feed(t, in, lineGSV1)
	if diff := cmp.Diff([]int{71, 1, 2, 12, 14}, prns()); diff != "" {
		t.Fatalf("prns after GP cycle (-want +got):\n%s", diff)
	}

	in.Stop()
	in.Start()
	if got := len(in.Satellites()); got != 0 {
		t.Fatalf("sats after restart=%d", got)
	}
}

func TestInterpreter_StateIsCopy(t *testing.T) {
	in := startedInterpreter(t, InterpreterConfig{})
	feed(t, in, lineGSV1)
	st := in.State()
	st.Satellites[0].PRN = 99
	if in.Satellites()[0].PRN == 99 {
		t.Fatalf("State shares the satellite slice")
	}
}

func TestInterpreter_ConcurrentParseAndRead(t *testing.T) {
	in := startedInterpreter(t, InterpreterConfig{})
	lines := []string{lineRMC, lineGGA, lineGSA, lineGSV1, lineGSV2, lineHDT}

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				in.Parse(nmea.Parse(lines[i%len(lines)]))
			}
		}()
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				st := in.State()
				_ = st.IsFixed()
				_ = in.Position()
				_ = in.Satellites()
			}
		}()
	}
	wg.Wait()

	fused, skipped := in.Counts()
	if fused != 800 || skipped != 0 {
		t.Fatalf("fused=%d skipped=%d", fused, skipped)
	}
}
