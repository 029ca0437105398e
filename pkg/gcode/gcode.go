// Package gcode builds the G-code lines spoken by the zoom stage motion
// controller. The dialect is small: one configuration command, absolute
// coordinated moves with a feed rate, and a set-position command used to
// redefine the software origin during homing.
package gcode

import (
	"strconv"
	"strings"
)

const (
	// InitSequence configures the controller's closed-loop and step
	// parameters. It is sent once, immediately after opening the port.
	InitSequence = "G100 P9 L144 N0 S0 F1 R1"

	// Ack is the acknowledgment line the controller sends after a
	// well-received command, with the line terminator already stripped.
	Ack = "ok"
)

// Word pairs a motor letter with a target coordinate.
type Word struct {
	Letter byte
	Value  int
}

// Move builds an absolute coordinated move carrying one feed rate,
// e.g. "G1 X457 Y70 F10000". The controller starts all addressed motors
// together, so a multi-word move is how both cameras are driven in sync.
func Move(feed int, words ...Word) string {
	var b strings.Builder
	b.WriteString("G1")
	for _, w := range words {
		b.WriteByte(' ')
		b.WriteByte(w.Letter)
		b.WriteString(strconv.Itoa(w.Value))
	}
	b.WriteString(" F")
	b.WriteString(strconv.Itoa(feed))
	return b.String()
}

// SetZero redefines the current position of the given motors as coordinate
// zero without moving them, e.g. "G92 X0 Y0".
func SetZero(letters ...byte) string {
	var b strings.Builder
	b.WriteString("G92")
	for _, l := range letters {
		b.WriteByte(' ')
		b.WriteByte(l)
		b.WriteByte('0')
	}
	return b.String()
}
