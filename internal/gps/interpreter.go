package gps

import (
	"sort"
	"sync"
	"time"

	"gpsfuse/internal/nmea"
)

// InterpreterConfig tunes how sentences are fused.
type InterpreterConfig struct {
	// FixRequired drops time, position and altitude updates until the
	// receiver reports a fix.
	FixRequired bool

	// Position, bearing, heading and speed are accepted only while the
	// current HDOP is at most MaxHDOP; altitude likewise with VDOP. Zero means
	// nmea.MaximumDilutionOfPrecision.
	MaxHDOP nmea.DilutionOfPrecision
	MaxVDOP nmea.DilutionOfPrecision

	// Now supplies the calendar date for time-only sentences. Defaults to
	// time.Now.
	Now func() time.Time
}

// State is the fused GPS snapshot. Values no sentence has supplied hold their
// Invalid sentinel.
type State struct {
	Position            nmea.Position
	Altitude            nmea.Distance
	GeoidalSeparation   nmea.Distance
	Speed               nmea.Speed
	Bearing             nmea.Azimuth
	Heading             nmea.Azimuth
	FixMethod           nmea.FixMethod
	FixQuality          nmea.FixQuality
	FixMode             nmea.FixMode
	FixStatus           nmea.FixStatus
	HDOP                nmea.DilutionOfPrecision
	VDOP                nmea.DilutionOfPrecision
	MeanDOP             nmea.DilutionOfPrecision
	MagneticVariation   nmea.Longitude
	Satellites          []nmea.Satellite
	FixedSatellites     []int
	FixedSatelliteCount int
	UTCDateTime         time.Time
}

func defaultState() State {
	return State{
		Position:            nmea.InvalidPosition,
		Altitude:            nmea.InvalidDistance,
		GeoidalSeparation:   nmea.InvalidDistance,
		Speed:               nmea.InvalidSpeed,
		Bearing:             nmea.InvalidAzimuth,
		Heading:             nmea.InvalidAzimuth,
		FixMethod:           nmea.FixMethodUnknown,
		FixQuality:          nmea.FixQualityUnknown,
		FixMode:             nmea.FixModeUnknown,
		FixStatus:           nmea.FixStatusUnknown,
		HDOP:                nmea.InvalidDilutionOfPrecision,
		VDOP:                nmea.InvalidDilutionOfPrecision,
		MeanDOP:             nmea.InvalidDilutionOfPrecision,
		MagneticVariation:   nmea.InvalidLongitude,
		FixedSatelliteCount: nmea.InvalidCount,
	}
}

func (s State) clone() State {
	s.Satellites = append([]nmea.Satellite(nil), s.Satellites...)
	s.FixedSatellites = append([]int(nil), s.FixedSatellites...)
	return s
}

// IsFixed reports whether any fix indicator says the receiver has a fix.
func (s State) IsFixed() bool {
	return s.FixStatus == nmea.FixStatusFix ||
		s.FixMethod == nmea.FixMethodFix2D || s.FixMethod == nmea.FixMethodFix3D ||
		s.FixQuality > nmea.FixQualityNoFix
}

// LocalDateTime is UTCDateTime in the host's local zone.
func (s State) LocalDateTime() time.Time {
	if s.UTCDateTime.IsZero() {
		return time.Time{}
	}
	return s.UTCDateTime.Local()
}

// Interpreter fuses decoded sentences into one State.
//
// A single mutex covers each Parse call, so readers never observe a state
// that mixes two sentences mid-update.
type Interpreter struct {
	cfg InterpreterConfig

	mu      sync.RWMutex
	running bool
	state   State
	fused   uint64
	skipped uint64

	// GSV cycles per talker (GP, GL, ...); State.Satellites is their union.
	satsByTalker map[string][]nmea.Satellite
}

func NewInterpreter(cfg InterpreterConfig) *Interpreter {
	if cfg.MaxHDOP <= 0 || cfg.MaxHDOP.IsInvalid() {
		cfg.MaxHDOP = nmea.MaximumDilutionOfPrecision
	}
	if cfg.MaxVDOP <= 0 || cfg.MaxVDOP.IsInvalid() {
		cfg.MaxVDOP = nmea.MaximumDilutionOfPrecision
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Interpreter{cfg: cfg, state: defaultState()}
}

// Start resets the state and begins accepting sentences.
func (in *Interpreter) Start() {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.state = defaultState()
	in.satsByTalker = make(map[string][]nmea.Satellite)
	in.running = true
}

// Stop resets the state and stops accepting sentences. It is safe to call
// concurrently with Parse.
func (in *Interpreter) Stop() {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.state = defaultState()
	in.satsByTalker = nil
	in.running = false
}

func (in *Interpreter) Running() bool {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.running
}

// Parse fuses one sentence and reports whether it was applied.
//
// Unrecognized sentences, sentences without a valid checksum and sentences
// with field decode errors are skipped. The order below matters: time first
// for latency, DOP before the values it gates, descriptive fields last.
func (in *Interpreter) Parse(s *nmea.Sentence) bool {
	if s == nil {
		return false
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	if !in.running {
		return false
	}
	if s.Kind == nmea.KindUnknown || !s.Valid || s.Err() != nil {
		in.skipped++
		return false
	}
	st := &in.state

	if s.Has(nmea.CapFixMethod) {
		st.FixMethod = s.FixMethod()
	}
	if s.Has(nmea.CapFixQuality) {
		st.FixQuality = s.FixQuality()
	}

	// Evaluated once; the fix status applied below does not change it.
	eligible := !in.cfg.FixRequired || st.IsFixed()

	if eligible {
		if s.Has(nmea.CapUTCDateTime) {
			st.UTCDateTime = s.UTCDateTime()
		} else if s.Has(nmea.CapUTCTimeSpan) {
			if span := s.UTCTimeSpan(); span != nmea.InvalidTimeSpan && span != 0 {
				st.UTCDateTime = stitchDate(in.cfg.Now(), span)
			}
		}
	}

	if s.Has(nmea.CapHDOP) {
		st.HDOP = s.HorizontalDOP()
	}
	if s.Has(nmea.CapVDOP) {
		st.VDOP = s.VerticalDOP()
	}
	if s.Has(nmea.CapMeanDOP) {
		st.MeanDOP = s.MeanDOP()
	}

	if eligible {
		if withinDOP(st.HDOP, in.cfg.MaxHDOP) {
			if s.Has(nmea.CapPosition) {
				st.Position = s.Position()
			}
			if s.Has(nmea.CapBearing) {
				st.Bearing = s.Bearing()
			}
			if s.Has(nmea.CapHeading) {
				st.Heading = s.Heading()
			}
			if s.Has(nmea.CapSpeed) {
				st.Speed = s.Speed()
			}
		}
		if withinDOP(st.VDOP, in.cfg.MaxVDOP) {
			if s.Has(nmea.CapAltitude) {
				st.Altitude = s.Altitude()
			}
			if s.Has(nmea.CapGeoidalSeparation) {
				st.GeoidalSeparation = s.GeoidalSeparation()
			}
		}
	}

	if s.Has(nmea.CapFixMode) {
		st.FixMode = s.FixMode()
	}
	if s.Has(nmea.CapFixStatus) {
		st.FixStatus = s.FixStatus()
	}
	if s.Has(nmea.CapMagneticVariation) {
		st.MagneticVariation = s.MagneticVariation()
	}
	if s.Has(nmea.CapSatellites) {
		// A new GSV cycle replaces that talker's list; later messages extend it.
		talker := talkerOf(s.CommandWord)
		if n, _ := s.SatelliteMessage(); n <= 1 {
			in.satsByTalker[talker] = s.Satellites()
		} else {
			in.satsByTalker[talker] = append(in.satsByTalker[talker], s.Satellites()...)
		}
		st.Satellites = in.allSatellites()
	}
	if s.Has(nmea.CapFixedSatellites) {
		st.FixedSatellites = s.FixedSatellites()
	}
	if s.Has(nmea.CapFixedSatelliteCount) {
		st.FixedSatelliteCount = s.FixedSatelliteCount()
	}

	in.fused++
	return true
}

// talkerOf returns the two-letter talker of a command word like "$GLGSV".
func talkerOf(commandWord string) string {
	if len(commandWord) < 3 {
		return ""
	}
	return commandWord[1:3]
}

// allSatellites joins the per-talker lists in talker order.
func (in *Interpreter) allSatellites() []nmea.Satellite {
	talkers := make([]string, 0, len(in.satsByTalker))
	n := 0
	for t, sats := range in.satsByTalker {
		talkers = append(talkers, t)
		n += len(sats)
	}
	sort.Strings(talkers)
	out := make([]nmea.Satellite, 0, n)
	for _, t := range talkers {
		out = append(out, in.satsByTalker[t]...)
	}
	return out
}

// withinDOP accepts when no DOP is known yet.
func withinDOP(d, limit nmea.DilutionOfPrecision) bool {
	return d.IsInvalid() || d <= limit
}

// stitchDate puts a time of day on now's UTC calendar date. Near midnight the
// date can be off by one.
func stitchDate(now time.Time, tod time.Duration) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).Add(tod)
}

// State returns a copy of the fused state.
func (in *Interpreter) State() State {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.state.clone()
}

// Counts returns how many sentences were fused and skipped since creation.
func (in *Interpreter) Counts() (fused, skipped uint64) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.fused, in.skipped
}

func (in *Interpreter) Position() nmea.Position {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.state.Position
}

func (in *Interpreter) Altitude() nmea.Distance {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.state.Altitude
}

func (in *Interpreter) GeoidalSeparation() nmea.Distance {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.state.GeoidalSeparation
}

func (in *Interpreter) Speed() nmea.Speed {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.state.Speed
}

func (in *Interpreter) Bearing() nmea.Azimuth {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.state.Bearing
}

func (in *Interpreter) Heading() nmea.Azimuth {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.state.Heading
}

func (in *Interpreter) FixMethod() nmea.FixMethod {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.state.FixMethod
}

func (in *Interpreter) FixQuality() nmea.FixQuality {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.state.FixQuality
}

func (in *Interpreter) FixMode() nmea.FixMode {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.state.FixMode
}

func (in *Interpreter) FixStatus() nmea.FixStatus {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.state.FixStatus
}

func (in *Interpreter) IsFixed() bool {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.state.IsFixed()
}

func (in *Interpreter) HorizontalDOP() nmea.DilutionOfPrecision {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.state.HDOP
}

func (in *Interpreter) VerticalDOP() nmea.DilutionOfPrecision {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.state.VDOP
}

func (in *Interpreter) MeanDOP() nmea.DilutionOfPrecision {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.state.MeanDOP
}

func (in *Interpreter) MagneticVariation() nmea.Longitude {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.state.MagneticVariation
}

func (in *Interpreter) Satellites() []nmea.Satellite {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return append([]nmea.Satellite(nil), in.state.Satellites...)
}

func (in *Interpreter) FixedSatellites() []int {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return append([]int(nil), in.state.FixedSatellites...)
}

func (in *Interpreter) FixedSatelliteCount() int {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.state.FixedSatelliteCount
}

func (in *Interpreter) UTCDateTime() time.Time {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return in.state.UTCDateTime
}
