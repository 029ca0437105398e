package zoom

import (
	"testing"

	zerr "zoomctl/pkg/errors"
)

func TestDefaultCalibrationIsValid(t *testing.T) {
	if err := DefaultCalibration().Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestEveryLevelResolvesWithinTravel(t *testing.T) {
	cal := DefaultCalibration()
	for _, side := range Sides {
		for _, level := range [...]Level{In, Inter, Out} {
			pos, err := cal.Resolve(side, level)
			if err != nil {
				t.Fatalf("Resolve(%s, %s): %v", side, level, err)
			}
			if pos.Zoom < ZoomMin || pos.Zoom > ZoomMax {
				t.Errorf("%s/%s zoom %d outside [%d, %d]", side, level, pos.Zoom, ZoomMin, ZoomMax)
			}
			if pos.Focus < FocusMin || pos.Focus > FocusMax {
				t.Errorf("%s/%s focus %d outside [%d, %d]", side, level, pos.Focus, FocusMin, FocusMax)
			}
		}
	}
}

func TestMotorLetterBindings(t *testing.T) {
	cal := DefaultCalibration()
	tests := []struct {
		side Side
		axis Axis
		want byte
	}{
		{Left, Zoom, 'X'},
		{Left, Focus, 'Y'},
		{Right, Zoom, 'Z'},
		{Right, Focus, 'A'},
	}
	for _, tt := range tests {
		if got := cal.Letter(tt.side, tt.axis); got != tt.want {
			t.Errorf("Letter(%s, %s) = %c, want %c", tt.side, tt.axis, got, tt.want)
		}
	}
}

func TestSidesCalibratedIndependently(t *testing.T) {
	cal := DefaultCalibration()
	leftIn, _ := cal.Resolve(Left, In)
	rightIn, _ := cal.Resolve(Right, In)
	if leftIn == rightIn {
		t.Error("left and right 'in' presets identical; expected per-side calibration")
	}
}

func TestResolveMissingEntry(t *testing.T) {
	cal := Calibration{
		Connectors: map[Side]string{Left: "J1", Right: "J2"},
		Motors: map[string]map[Axis]byte{
			"J1": {Zoom: 'X', Focus: 'Y'},
			"J2": {Zoom: 'Z', Focus: 'A'},
		},
		Positions: map[Side]map[Level]Position{
			Left: {In: {Zoom: 100, Focus: 100}},
		},
	}

	if _, err := cal.Resolve(Right, In); !zerr.Is(err, zerr.ErrUnknownLevel) {
		t.Errorf("error = %v, want unknown level error for missing side", err)
	}
	if _, err := cal.Resolve(Left, Out); !zerr.Is(err, zerr.ErrUnknownLevel) {
		t.Errorf("error = %v, want unknown level error for missing level", err)
	}
}

func TestValidateCatchesOutOfTravelPreset(t *testing.T) {
	cal := DefaultCalibration()
	cal.Positions[Left][In] = Position{Zoom: 601, Focus: 70}

	if err := cal.Validate(); !zerr.IsRange(err) {
		t.Errorf("error = %v, want range error for out-of-travel preset", err)
	}
}

func TestValidateCatchesMissingMotor(t *testing.T) {
	cal := DefaultCalibration()
	delete(cal.Motors["J2"], Focus)

	if err := cal.Validate(); !zerr.IsValidation(err) {
		t.Errorf("error = %v, want validation error for missing motor letter", err)
	}
}

func TestParseHelpers(t *testing.T) {
	if s, err := ParseSide("left"); err != nil || s != Left {
		t.Errorf("ParseSide(left) = %v, %v", s, err)
	}
	if _, err := ParseSide("middle"); !zerr.IsValidation(err) {
		t.Errorf("ParseSide(middle) error = %v, want validation error", err)
	}
	if a, err := ParseAxis("focus"); err != nil || a != Focus {
		t.Errorf("ParseAxis(focus) = %v, %v", a, err)
	}
	if _, err := ParseAxis("tilt"); !zerr.IsValidation(err) {
		t.Errorf("ParseAxis(tilt) error = %v, want validation error", err)
	}
	if l, err := ParseLevel("inter"); err != nil || l != Inter {
		t.Errorf("ParseLevel(inter) = %v, %v", l, err)
	}
	if _, err := ParseLevel("far"); !zerr.IsValidation(err) {
		t.Errorf("ParseLevel(far) error = %v, want validation error", err)
	}
}

func TestEnumStrings(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{Left.String(), "left"},
		{Right.String(), "right"},
		{Zoom.String(), "zoom"},
		{Focus.String(), "focus"},
		{In.String(), "in"},
		{Inter.String(), "inter"},
		{Out.String(), "out"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("String() = %q, want %q", tt.got, tt.want)
		}
	}
}
