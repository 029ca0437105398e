// zoomctl is a command-line tool for driving the dual-camera zoom stage.
//
// Usage:
//
//	zoomctl [options] <command> [args]
//
// Commands:
//
//	list                          List candidate serial devices
//	ping                          Open the port and run the init handshake
//	level <side> <level>          Move one camera to a named level (in/inter/out)
//	dual <left-level> <right-level>  Move both cameras, motion synchronized
//	raw <side> <zoom> <focus>     Move one camera to explicit coordinates
//	axis <side> <axis> <value>    Move a single motor
//	dualraw <axis> <left> <right> Move the same axis of both cameras together
//	home <side>                   Re-zero one side against its hard stops
//
// Options:
//
//	-config string    YAML deployment config (optional)
//	-device string    Serial device path (overrides config)
//	-baud int         Baud rate (overrides config)
//	-timeout duration Acknowledgment read timeout (overrides config)
//	-speed int        Feed rate 4000..40000 (overrides config)
//	-strict           Require literal "ok" acknowledgments on moves
//	-socket           Treat -device as a Unix socket path (mock-controller)
//	-verbose          Enable DEBUG protocol tracing
//
// Examples:
//
//	zoomctl -device /dev/ttyACM0 level left in
//	zoomctl -config configs/zoom.yaml dual in out
//	zoomctl -device /tmp/zoom_controller -socket home left
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"zoomctl/pkg/config"
	"zoomctl/pkg/log"
	"zoomctl/pkg/serial"
	"zoomctl/pkg/zoom"
)

func main() {
	configFile := flag.String("config", "", "YAML deployment config")
	device := flag.String("device", "", "Serial device path")
	baud := flag.Int("baud", 0, "Baud rate")
	timeout := flag.Duration("timeout", 0, "Acknowledgment read timeout")
	speed := flag.Int("speed", 0, "Feed rate (4000..40000)")
	strict := flag.Bool("strict", false, "Require literal 'ok' acknowledgments on moves")
	socket := flag.Bool("socket", false, "Treat -device as a Unix socket path")
	verbose := flag.Bool("verbose", false, "Enable DEBUG protocol tracing")
	flag.Parse()

	if *verbose {
		logger := log.New("zoomctl")
		logger.SetLevel(log.DEBUG)
		log.SetDefaultLogger(logger)
	}

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	if args[0] == "list" {
		ports, err := serial.ListPorts()
		if err != nil {
			fail(err)
		}
		for _, p := range ports {
			fmt.Println(p)
		}
		return
	}

	cfg := buildDriverConfig(*configFile, *device, *baud, *timeout, *speed, *strict)

	driver, err := connect(cfg, *socket)
	if err != nil {
		fail(err)
	}
	defer driver.Close()

	if err := run(driver, args); err != nil {
		fail(err)
	}
}

// buildDriverConfig layers explicit flags over the config file (or the
// built-in defaults when no file is given).
func buildDriverConfig(configFile, device string, baud int, timeout time.Duration, speed int, strict bool) zoom.Config {
	base := config.Default()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			fail(err)
		}
		base = loaded
	}

	cfg := base.DriverConfig()
	if device != "" {
		cfg.Device = device
	}
	if baud != 0 {
		cfg.BaudRate = baud
	}
	if timeout != 0 {
		cfg.ReadTimeout = timeout
	}
	if speed != 0 {
		cfg.Speed = speed
	}
	if strict {
		cfg.StrictAcks = true
	}
	return cfg
}

func connect(cfg zoom.Config, socket bool) (*zoom.Driver, error) {
	if !socket {
		return zoom.Connect(cfg)
	}
	port, err := serial.OpenSocket(cfg.Device, cfg.ReadTimeout)
	if err != nil {
		return nil, err
	}
	return zoom.Initialize(serial.NewLineConn(port), cfg)
}

func run(driver *zoom.Driver, args []string) error {
	switch args[0] {
	case "ping":
		fmt.Println("controller initialized")
		return nil

	case "level":
		if len(args) != 3 {
			return usageError("level <side> <level>")
		}
		side, err := zoom.ParseSide(args[1])
		if err != nil {
			return err
		}
		level, err := zoom.ParseLevel(args[2])
		if err != nil {
			return err
		}
		return driver.SendLevel(side, level)

	case "dual":
		if len(args) != 3 {
			return usageError("dual <left-level> <right-level>")
		}
		leftLevel, err := zoom.ParseLevel(args[1])
		if err != nil {
			return err
		}
		rightLevel, err := zoom.ParseLevel(args[2])
		if err != nil {
			return err
		}
		return driver.MoveDual(leftLevel, rightLevel)

	case "raw":
		if len(args) != 4 {
			return usageError("raw <side> <zoom> <focus>")
		}
		side, err := zoom.ParseSide(args[1])
		if err != nil {
			return err
		}
		zoomValue, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("bad zoom value %q", args[2])
		}
		focusValue, err := strconv.Atoi(args[3])
		if err != nil {
			return fmt.Errorf("bad focus value %q", args[3])
		}
		return driver.SetRaw(side, zoomValue, focusValue)

	case "axis":
		if len(args) != 4 {
			return usageError("axis <side> <axis> <value>")
		}
		side, err := zoom.ParseSide(args[1])
		if err != nil {
			return err
		}
		axis, err := zoom.ParseAxis(args[2])
		if err != nil {
			return err
		}
		value, err := strconv.Atoi(args[3])
		if err != nil {
			return fmt.Errorf("bad value %q", args[3])
		}
		return driver.SendAxisCommand(side, axis, value)

	case "dualraw":
		if len(args) != 4 {
			return usageError("dualraw <axis> <left> <right>")
		}
		axis, err := zoom.ParseAxis(args[1])
		if err != nil {
			return err
		}
		left, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("bad left value %q", args[2])
		}
		right, err := strconv.Atoi(args[3])
		if err != nil {
			return fmt.Errorf("bad right value %q", args[3])
		}
		if axis == zoom.Zoom {
			return driver.SendDualZoom(left, right)
		}
		return driver.SendDualFocus(left, right)

	case "home":
		if len(args) != 2 {
			return usageError("home <side>")
		}
		side, err := zoom.ParseSide(args[1])
		if err != nil {
			return err
		}
		return driver.Home(side)

	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func usageError(usage string) error {
	return fmt.Errorf("usage: zoomctl %s", usage)
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
