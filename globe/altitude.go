package globe

// AltitudeMode selects how a position's altitude is interpreted.
type AltitudeMode uint8

const (
	// Absolute altitudes are meters above the ellipsoid.
	Absolute AltitudeMode = iota

	// ClampToGround ignores the altitude and places the position on the
	// terrain surface.
	ClampToGround

	// RelativeToGround altitudes are meters above the terrain surface.
	RelativeToGround
)

// String returns the mode name.
func (m AltitudeMode) String() string {
	switch m {
	case Absolute:
		return "Absolute"
	case ClampToGround:
		return "ClampToGround"
	case RelativeToGround:
		return "RelativeToGround"
	default:
		return "Unknown"
	}
}
