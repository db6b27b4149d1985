package nmea

// FixMethod is the fix dimension reported by GSA.
type FixMethod int

const (
	FixMethodUnknown FixMethod = iota - 1
	FixMethodNoFix
	FixMethodFix2D
	FixMethodFix3D
)

func (m FixMethod) String() string {
	switch m {
	case FixMethodNoFix:
		return "no_fix"
	case FixMethodFix2D:
		return "2d"
	case FixMethodFix3D:
		return "3d"
	default:
		return "unknown"
	}
}

// FixMode is the receiver's fix selection mode.
type FixMode int

const (
	FixModeUnknown FixMode = iota
	FixModeAutomatic
	FixModeManual
)

func (m FixMode) String() string {
	switch m {
	case FixModeAutomatic:
		return "automatic"
	case FixModeManual:
		return "manual"
	default:
		return "unknown"
	}
}

// FixQuality is the GGA fix quality indicator. Values 0..8 match the wire.
type FixQuality int

const (
	FixQualityUnknown FixQuality = iota - 1
	FixQualityNoFix
	FixQualityGPSFix
	FixQualityDifferentialGPSFix
	FixQualityPulsePerSecond
	FixQualityFixedRTK
	FixQualityFloatRTK
	FixQualityEstimated
	FixQualityManualInput
	FixQualitySimulated
)

var fixQualityNames = [...]string{
	"no_fix", "gps", "dgps", "pps", "rtk_fixed", "rtk_float", "estimated", "manual", "simulated",
}

func (q FixQuality) String() string {
	if q < FixQualityNoFix || int(q) >= len(fixQualityNames) {
		return "unknown"
	}
	return fixQualityNames[q]
}

// FixStatus is the A/V validity flag of RMC and GLL.
type FixStatus int

const (
	FixStatusUnknown FixStatus = iota
	FixStatusNoFix
	FixStatusFix
)

func (s FixStatus) String() string {
	switch s {
	case FixStatusNoFix:
		return "no_fix"
	case FixStatusFix:
		return "fix"
	default:
		return "unknown"
	}
}
