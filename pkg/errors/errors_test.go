package errors

import (
	stderrors "errors"
	"strings"
	"testing"
)

func TestRangeErrorMessage(t *testing.T) {
	err := RangeError("zoom", 700, 0, 600)

	if err.Code != ErrRange {
		t.Errorf("Code = %s, want %s", err.Code, ErrRange)
	}
	if !strings.Contains(err.Error(), "700") {
		t.Errorf("Error() = %q, want value in message", err.Error())
	}
	if !strings.Contains(err.Error(), "[0, 600]") {
		t.Errorf("Error() = %q, want bounds in message", err.Error())
	}
	if err.Context["value"] != 700 {
		t.Errorf("Context[value] = %v, want 700", err.Context["value"])
	}
}

func TestWrapUnwrap(t *testing.T) {
	cause := stderrors.New("read timed out")
	err := ProtocolError("G1 X457 F10000", cause)

	if !stderrors.Is(err, cause) {
		t.Error("wrapped cause not reachable through errors.Is")
	}
	if err.Unwrap() != cause {
		t.Errorf("Unwrap() = %v, want %v", err.Unwrap(), cause)
	}
}

func TestCodePredicates(t *testing.T) {
	tests := []struct {
		name string
		err  error
		pred func(error) bool
		want bool
	}{
		{"connection", ConnectionError("open failed", nil), IsConnection, true},
		{"range", RangeError("focus", -1, 0, 500), IsRange, true},
		{"validation", ValidationError("unknown side"), IsValidation, true},
		{"unknown level on validation predicate", UnknownLevelError("left", "far"), IsValidation, true},
		{"protocol", ProtocolError("G92 X0 Y0", nil), IsProtocol, true},
		{"range is not protocol", RangeError("zoom", 999, 0, 600), IsProtocol, false},
		{"plain error", stderrors.New("boom"), IsRange, false},
	}

	for _, tt := range tests {
		if got := tt.pred(tt.err); got != tt.want {
			t.Errorf("%s: predicate = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestErrorWithoutCause(t *testing.T) {
	err := New(ErrValidation, "unknown axis 'tilt'")
	if err.Unwrap() != nil {
		t.Error("Unwrap should be nil for errors without a cause")
	}
	if !strings.HasPrefix(err.Error(), "[VALIDATION]") {
		t.Errorf("Error() = %q, want code prefix", err.Error())
	}
}
