// Package zoom implements the motor command protocol driver for a
// dual-camera optical zoom stage. It translates semantic requests
// ("set the left camera to level 'in'") into G-code lines for the stage's
// motion controller and sequences them over a line-oriented serial channel
// with strict request/acknowledgment discipline.
//
// The driver is synchronous and single-owner: every write is followed by a
// blocking read of one acknowledgment line with a bounded timeout. It is not
// safe for concurrent use; callers driving it from multiple goroutines must
// serialize access externally, since the underlying transport is a single
// physical line that cannot interleave commands.
package zoom

import (
	"fmt"
	"time"

	zerr "zoomctl/pkg/errors"
	"zoomctl/pkg/gcode"
	"zoomctl/pkg/log"
	"zoomctl/pkg/serial"
)

// Homing overshoot targets. After the coordinate frame is zeroed at the
// current position, commanding a negative target larger than the full
// travel of the axis guarantees the stage reaches its physical hard stop
// regardless of where it started.
const (
	homeZoomOvershoot  = -1200
	homeFocusOvershoot = -600
)

// LineConn is the abstract duplex channel the driver owns: newline-framed
// writes and line-delimited, timeout-bounded reads. *serial.LineConn
// implements it; tests substitute an in-memory channel.
type LineConn interface {
	WriteLine(line string) error
	ReadLine() (string, error)
	Close() error
}

var _ LineConn = (*serial.LineConn)(nil)

// Config holds driver construction parameters.
type Config struct {
	// Device is the serial device path (e.g., /dev/ttyACM0).
	Device string

	// BaudRate is the serial bit rate (default: 115200).
	BaudRate int

	// ReadTimeout bounds every acknowledgment read (default: 10s).
	ReadTimeout time.Duration

	// Speed is the initial feed rate, applied to every move until
	// changed via SetSpeed (default: 10000; legal range 4000..40000).
	Speed int

	// StrictAcks makes every move transaction require a literal "ok"
	// acknowledgment. When false (the default) any line read counts as
	// command completion, favoring liveness over content-strictness for
	// routine moves; the initialization handshake is always strict.
	StrictAcks bool

	// SettleDelay is how long homing waits for the overshoot moves to
	// finish mechanically. The controller sends no motion-complete
	// signal, so the driver sleeps conservatively (default: 1s).
	SettleDelay time.Duration

	// Calibration is the wiring and preset table data. Nil selects
	// DefaultCalibration.
	Calibration *Calibration
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Device:      "/dev/ttyACM0",
		BaudRate:    115200,
		ReadTimeout: 10 * time.Second,
		Speed:       DefaultSpeed,
		SettleDelay: time.Second,
	}
}

// Driver owns one controller session: the open line channel, the topology
// and position tables, and the configured feed rate.
type Driver struct {
	conn       LineConn
	cal        Calibration
	speed      int
	strictAcks bool
	settle     time.Duration
	logger     *log.Logger
}

// Connect opens the serial port, clears stale buffered bytes and runs the
// initialization handshake. On any failure the port is closed and a
// connection error is returned; the driver performs no retries.
func Connect(cfg Config) (*Driver, error) {
	port, err := serial.Open(serial.Config{
		Device:      cfg.Device,
		BaudRate:    cfg.BaudRate,
		ReadTimeout: cfg.ReadTimeout,
	})
	if err != nil {
		return nil, zerr.ConnectionError("opening serial port", err)
	}
	if err := port.Flush(); err != nil {
		port.Close()
		return nil, zerr.ConnectionError("flushing serial port", err)
	}
	return Initialize(serial.NewLineConn(port), cfg)
}

// Initialize runs the configuration handshake on an already-open line
// channel and returns a ready driver. The controller must answer the fixed
// configuration line with a literal "ok"; anything else (or a read timeout)
// fails with a connection error and closes the channel.
func Initialize(conn LineConn, cfg Config) (*Driver, error) {
	if cfg.Speed == 0 {
		cfg.Speed = DefaultSpeed
	}
	if cfg.SettleDelay == 0 {
		cfg.SettleDelay = time.Second
	}
	if cfg.Speed < SpeedMin || cfg.Speed > SpeedMax {
		conn.Close()
		return nil, zerr.RangeError("speed", cfg.Speed, SpeedMin, SpeedMax)
	}

	cal := DefaultCalibration()
	if cfg.Calibration != nil {
		cal = *cfg.Calibration
	}
	if err := cal.Validate(); err != nil {
		conn.Close()
		return nil, err
	}

	d := &Driver{
		conn:       conn,
		cal:        cal,
		speed:      cfg.Speed,
		strictAcks: cfg.StrictAcks,
		settle:     cfg.SettleDelay,
		logger:     log.GetLogger("zoom"),
	}

	if err := conn.WriteLine(gcode.InitSequence); err != nil {
		conn.Close()
		return nil, zerr.ConnectionError("sending init sequence", err)
	}
	ack, err := conn.ReadLine()
	if err != nil {
		conn.Close()
		return nil, zerr.ConnectionError(
			"zoom controller did not answer the init sequence, check that the control board is correctly plugged in", err)
	}
	if ack != gcode.Ack {
		conn.Close()
		return nil, zerr.ConnectionError(
			fmt.Sprintf("zoom controller answered %q to the init sequence, check that the control board is correctly plugged in", ack), nil)
	}

	d.logger.WithFields(log.Fields{"speed": d.speed, "strict_acks": d.strictAcks}).Info("controller initialized")
	return d, nil
}

// Close releases the session. The driver is unusable afterwards.
func (d *Driver) Close() error {
	return d.conn.Close()
}

// Speed returns the feed rate applied to move commands.
func (d *Driver) Speed() int {
	return d.speed
}

// SetSpeed stores a new feed rate for all subsequent moves. An out-of-range
// value is rejected and the prior speed stays in effect.
func (d *Driver) SetSpeed(value int) error {
	if value < SpeedMin || value > SpeedMax {
		return zerr.RangeError("speed", value, SpeedMin, SpeedMax)
	}
	d.speed = value
	return nil
}

// ResolveLevel returns the calibrated absolute coordinates for a named
// zoom level on one side.
func (d *Driver) ResolveLevel(side Side, level Level) (Position, error) {
	return d.cal.Resolve(side, level)
}

// transact writes one command line and reads its acknowledgment. A read
// timeout means the controller is desynchronized or unresponsive; that is
// surfaced and never retried, since a blind retry could double-apply a move.
func (d *Driver) transact(line string) error {
	if err := d.conn.WriteLine(line); err != nil {
		return zerr.ConnectionError(fmt.Sprintf("writing command '%s'", line), err)
	}
	d.logger.WithField("line", line).Debug("sent")

	ack, err := d.conn.ReadLine()
	if err != nil {
		return zerr.ProtocolError(line, err)
	}
	d.logger.WithField("ack", ack).Debug("acknowledged")

	if d.strictAcks && ack != gcode.Ack {
		return zerr.New(zerr.ErrProtocol,
			fmt.Sprintf("unexpected acknowledgment %q for command '%s'", ack, line))
	}
	return nil
}

// SendAxisCommand moves one motor to an absolute coordinate at the
// configured speed. The value is range-checked before any byte is written.
func (d *Driver) SendAxisCommand(side Side, axis Axis, value int) error {
	if !side.valid() {
		return zerr.ValidationError(fmt.Sprintf("unknown side %d", int(side)))
	}
	if err := validateValue(axis, value); err != nil {
		return err
	}
	line := gcode.Move(d.speed, gcode.Word{Letter: d.cal.Letter(side, axis), Value: value})
	return d.transact(line)
}

// SetRaw moves both motors of one side to explicit coordinates, zoom axis
// first. Both values are validated before the first line is sent, so a bad
// focus value never leaves the zoom motor moved on its own.
func (d *Driver) SetRaw(side Side, zoomValue, focusValue int) error {
	if !side.valid() {
		return zerr.ValidationError(fmt.Sprintf("unknown side %d", int(side)))
	}
	if err := validateValue(Zoom, zoomValue); err != nil {
		return err
	}
	if err := validateValue(Focus, focusValue); err != nil {
		return err
	}
	if err := d.SendAxisCommand(side, Zoom, zoomValue); err != nil {
		return err
	}
	return d.SendAxisCommand(side, Focus, focusValue)
}

// SendLevel moves one camera to a named zoom level: the level is resolved
// through the position table and sent as two sequential single-axis lines,
// zoom then focus, each individually acknowledged.
func (d *Driver) SendLevel(side Side, level Level) error {
	pos, err := d.ResolveLevel(side, level)
	if err != nil {
		return err
	}
	return d.SetRaw(side, pos.Zoom, pos.Focus)
}

// sendDual moves the same axis of both cameras in one combined line so
// both motors start together under a single feed rate.
func (d *Driver) sendDual(axis Axis, leftValue, rightValue int) error {
	if err := validateValue(axis, leftValue); err != nil {
		return err
	}
	if err := validateValue(axis, rightValue); err != nil {
		return err
	}
	line := gcode.Move(d.speed,
		gcode.Word{Letter: d.cal.Letter(Left, axis), Value: leftValue},
		gcode.Word{Letter: d.cal.Letter(Right, axis), Value: rightValue},
	)
	return d.transact(line)
}

// SendDualZoom starts a synchronized zoom move on both cameras. Both values
// are validated against the zoom range before anything is sent.
func (d *Driver) SendDualZoom(leftValue, rightValue int) error {
	return d.sendDual(Zoom, leftValue, rightValue)
}

// SendDualFocus starts a synchronized focus move on both cameras. Both
// values are validated against the focus range before anything is sent.
func (d *Driver) SendDualFocus(leftValue, rightValue int) error {
	return d.sendDual(Focus, leftValue, rightValue)
}

// MoveDual moves both cameras to named levels with synchronized motion:
// one combined zoom line, then one combined focus line.
func (d *Driver) MoveDual(leftLevel, rightLevel Level) error {
	leftPos, err := d.ResolveLevel(Left, leftLevel)
	if err != nil {
		return err
	}
	rightPos, err := d.ResolveLevel(Right, rightLevel)
	if err != nil {
		return err
	}
	if err := d.SendDualZoom(leftPos.Zoom, rightPos.Zoom); err != nil {
		return err
	}
	return d.SendDualFocus(leftPos.Focus, rightPos.Focus)
}

// SendBatch transmits a set of single-axis updates as consecutive lines.
// All side and axis keys are validated before anything is sent; after that
// each entry is range-checked and acknowledged as it goes out, in a fixed
// order (left before right, zoom before focus). There is no atomicity
// across the batch: a later entry's failure does not roll back earlier
// successfully-sent entries.
func (d *Driver) SendBatch(requests map[Side]map[Axis]int) error {
	for side, axes := range requests {
		if !side.valid() {
			return zerr.ValidationError(fmt.Sprintf("unknown side %d in batch", int(side)))
		}
		for axis := range axes {
			if !axis.valid() {
				return zerr.ValidationError(fmt.Sprintf("unknown axis %d in batch for side '%s'", int(axis), side))
			}
		}
	}

	for _, side := range Sides {
		axes, ok := requests[side]
		if !ok {
			continue
		}
		for _, axis := range Axes {
			value, ok := axes[axis]
			if !ok {
				continue
			}
			if err := d.SendAxisCommand(side, axis, value); err != nil {
				return err
			}
		}
	}
	return nil
}

// Home re-zeroes one side's motor position counters against the physical
// hard stops. The sequence is fixed: redefine the current coordinates as
// zero, overshoot both axes past their hard stops (focus first, then zoom),
// wait for the mechanics to settle, and zero again at the stop. One side at
// a time; the single serial line serializes all traffic anyway.
func (d *Driver) Home(side Side) error {
	if !side.valid() {
		return zerr.ValidationError(fmt.Sprintf("unknown side %d", int(side)))
	}
	zoomLetter := d.cal.Letter(side, Zoom)
	focusLetter := d.cal.Letter(side, Focus)

	d.logger.WithField("side", side.String()).Info("homing")

	if err := d.transact(gcode.SetZero(zoomLetter, focusLetter)); err != nil {
		return err
	}
	if err := d.transact(gcode.Move(d.speed, gcode.Word{Letter: focusLetter, Value: homeFocusOvershoot})); err != nil {
		return err
	}
	if err := d.transact(gcode.Move(d.speed, gcode.Word{Letter: zoomLetter, Value: homeZoomOvershoot})); err != nil {
		return err
	}

	// No motion-complete signal exists; sleep until the stage has
	// certainly hit both hard stops.
	time.Sleep(d.settle)

	return d.transact(gcode.SetZero(zoomLetter, focusLetter))
}
