// Topology and position tables for the dual-camera zoom stage.
//
// The motion controller drives four stepper motors through two connectors,
// one per camera. Each connector carries a zoom motor and a focus motor,
// addressed by single-letter G-code axis designators. The tables below bind
// camera sides to connectors, connectors to motor letters, and named zoom
// levels to calibrated absolute coordinates.

package zoom

import (
	"fmt"

	zerr "zoomctl/pkg/errors"
)

// Side identifies one physical camera's motor pair.
type Side int

const (
	Left Side = iota
	Right
)

// Sides lists both sides in transmission order.
var Sides = [...]Side{Left, Right}

// String returns the side name
func (s Side) String() string {
	switch s {
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return fmt.Sprintf("side(%d)", int(s))
	}
}

func (s Side) valid() bool {
	return s == Left || s == Right
}

// ParseSide parses a side name.
func ParseSide(name string) (Side, error) {
	switch name {
	case "left":
		return Left, nil
	case "right":
		return Right, nil
	default:
		return 0, zerr.ValidationError(fmt.Sprintf("unknown side '%s' (want 'left' or 'right')", name))
	}
}

// Axis identifies one motor of a camera's pair.
type Axis int

const (
	Zoom Axis = iota
	Focus
)

// Axes lists both axes in transmission order.
var Axes = [...]Axis{Zoom, Focus}

// String returns the axis name
func (a Axis) String() string {
	switch a {
	case Zoom:
		return "zoom"
	case Focus:
		return "focus"
	default:
		return fmt.Sprintf("axis(%d)", int(a))
	}
}

func (a Axis) valid() bool {
	return a == Zoom || a == Focus
}

// ParseAxis parses an axis name.
func ParseAxis(name string) (Axis, error) {
	switch name {
	case "zoom":
		return Zoom, nil
	case "focus":
		return Focus, nil
	default:
		return 0, zerr.ValidationError(fmt.Sprintf("unknown axis '%s' (want 'zoom' or 'focus')", name))
	}
}

// Level is a named zoom preset. In focuses far objects, Out close ones,
// Inter sits between them.
type Level int

const (
	In Level = iota
	Inter
	Out
)

// String returns the level name
func (l Level) String() string {
	switch l {
	case In:
		return "in"
	case Inter:
		return "inter"
	case Out:
		return "out"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// ParseLevel parses a zoom level name.
func ParseLevel(name string) (Level, error) {
	switch name {
	case "in":
		return In, nil
	case "inter":
		return Inter, nil
	case "out":
		return Out, nil
	default:
		return 0, zerr.ValidationError(fmt.Sprintf("unknown zoom level '%s' (want 'in', 'inter' or 'out')", name))
	}
}

// Coordinate and feed-rate bounds. Each axis has its own travel; the
// controller rejects nothing, so every value is checked host-side before
// a single byte is written.
const (
	ZoomMin  = 0
	ZoomMax  = 600
	FocusMin = 0
	FocusMax = 500

	SpeedMin     = 4000
	SpeedMax     = 40000
	DefaultSpeed = 10000
)

// Position is an absolute coordinate pair for one camera.
type Position struct {
	Zoom  int
	Focus int
}

// Calibration is the immutable per-deployment wiring and preset data a
// driver is constructed with. The zero value is unusable; start from
// DefaultCalibration and override positions as calibrated per unit.
type Calibration struct {
	// Connectors binds each side to its controller connector id.
	Connectors map[Side]string

	// Motors binds each (connector, axis) to its G-code motor letter.
	Motors map[string]map[Axis]byte

	// Positions holds the calibrated coordinates for each named level,
	// per side: the left and right optics have independent ranges.
	Positions map[Side]map[Level]Position
}

// DefaultCalibration returns the stock wiring and factory preset positions.
func DefaultCalibration() Calibration {
	return Calibration{
		Connectors: map[Side]string{
			Left:  "J1",
			Right: "J2",
		},
		Motors: map[string]map[Axis]byte{
			"J1": {Zoom: 'X', Focus: 'Y'},
			"J2": {Zoom: 'Z', Focus: 'A'},
		},
		Positions: map[Side]map[Level]Position{
			Left: {
				In:    {Zoom: 457, Focus: 70},
				Inter: {Zoom: 270, Focus: 331},
				Out:   {Zoom: 0, Focus: 455},
			},
			Right: {
				In:    {Zoom: 457, Focus: 42},
				Inter: {Zoom: 270, Focus: 321},
				Out:   {Zoom: 0, Focus: 445},
			},
		},
	}
}

// Letter returns the motor letter bound to (side, axis). The calibration
// must have passed Validate; lookups never fail afterwards.
func (c Calibration) Letter(side Side, axis Axis) byte {
	return c.Motors[c.Connectors[side]][axis]
}

// Resolve looks up the calibrated position for a named level. It fails
// only on a table miss, which with closed enumerations indicates a
// calibration constructed by hand with missing entries.
func (c Calibration) Resolve(side Side, level Level) (Position, error) {
	levels, ok := c.Positions[side]
	if !ok {
		return Position{}, zerr.UnknownLevelError(side.String(), level.String())
	}
	pos, ok := levels[level]
	if !ok {
		return Position{}, zerr.UnknownLevelError(side.String(), level.String())
	}
	return pos, nil
}

// Validate checks that the calibration is complete and that every preset
// position lies within its axis travel. Drivers refuse to construct on an
// invalid calibration so later lookups cannot fail.
func (c Calibration) Validate() error {
	for _, side := range Sides {
		connector, ok := c.Connectors[side]
		if !ok {
			return zerr.ValidationError(fmt.Sprintf("calibration: no connector for side '%s'", side))
		}
		motors, ok := c.Motors[connector]
		if !ok {
			return zerr.ValidationError(fmt.Sprintf("calibration: no motors for connector '%s'", connector))
		}
		for _, axis := range Axes {
			if _, ok := motors[axis]; !ok {
				return zerr.ValidationError(fmt.Sprintf("calibration: no motor letter for connector '%s' axis '%s'", connector, axis))
			}
		}
		for _, level := range [...]Level{In, Inter, Out} {
			pos, err := c.Resolve(side, level)
			if err != nil {
				return err
			}
			if pos.Zoom < ZoomMin || pos.Zoom > ZoomMax {
				return zerr.RangeError(fmt.Sprintf("calibration %s/%s zoom", side, level), pos.Zoom, ZoomMin, ZoomMax)
			}
			if pos.Focus < FocusMin || pos.Focus > FocusMax {
				return zerr.RangeError(fmt.Sprintf("calibration %s/%s focus", side, level), pos.Focus, FocusMin, FocusMax)
			}
		}
	}
	return nil
}

// validateValue checks a coordinate against its axis travel.
func validateValue(axis Axis, value int) error {
	switch axis {
	case Zoom:
		if value < ZoomMin || value > ZoomMax {
			return zerr.RangeError("zoom", value, ZoomMin, ZoomMax)
		}
	case Focus:
		if value < FocusMin || value > FocusMax {
			return zerr.RangeError("focus", value, FocusMin, FocusMax)
		}
	default:
		return zerr.ValidationError(fmt.Sprintf("unknown axis %d", int(axis)))
	}
	return nil
}
