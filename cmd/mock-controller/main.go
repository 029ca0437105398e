// mock-controller simulates the zoom stage's G-code motion controller for
// testing the host tools without hardware. It listens on a Unix socket,
// answers every well-formed line with "ok\r\n", and tracks the absolute
// position of each motor letter (honoring G92 re-zeroing).
//
// Usage:
//
//	mock-controller -socket /tmp/zoom_controller [-trace]
//
// Point zoomctl or zoomd at the socket with their -socket flag.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
)

// controllerState tracks the simulated motor positions.
type controllerState struct {
	mu         sync.Mutex
	positions  map[byte]int
	configured bool
	feed       int
}

func newControllerState() *controllerState {
	return &controllerState{positions: make(map[byte]int)}
}

// apply interprets one G-code line and returns the acknowledgment.
func (s *controllerState) apply(line string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "ok"
	}

	switch fields[0] {
	case "G100":
		// Closed-loop/step configuration; accept and remember.
		s.configured = true
	case "G1":
		for _, word := range fields[1:] {
			letter := word[0]
			value, err := strconv.Atoi(word[1:])
			if err != nil {
				return fmt.Sprintf("error: bad word %q", word)
			}
			if letter == 'F' {
				s.feed = value
				continue
			}
			s.positions[letter] = value
		}
	case "G92":
		for _, word := range fields[1:] {
			letter := word[0]
			value, err := strconv.Atoi(word[1:])
			if err != nil {
				return fmt.Sprintf("error: bad word %q", word)
			}
			s.positions[letter] = value
		}
	default:
		return fmt.Sprintf("error: unknown command %q", fields[0])
	}
	return "ok"
}

func (s *controllerState) snapshot() map[byte]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[byte]int, len(s.positions))
	for k, v := range s.positions {
		out[k] = v
	}
	return out
}

func handleConnection(conn net.Conn, state *controllerState, trace bool) {
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		ack := state.apply(line)
		if trace {
			fmt.Printf("<- %s\n-> %s %v\n", line, ack, state.snapshot())
		}
		if _, err := fmt.Fprintf(conn, "%s\r\n", ack); err != nil {
			return
		}
	}
}

func main() {
	socketPath := flag.String("socket", "/tmp/zoom_controller", "Unix socket path to listen on")
	trace := flag.Bool("trace", false, "Print all traffic and motor positions")
	flag.Parse()

	os.Remove(*socketPath)
	listener, err := net.Listen("unix", *socketPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: listen on %s: %v\n", *socketPath, err)
		os.Exit(1)
	}
	defer listener.Close()
	defer os.Remove(*socketPath)

	fmt.Printf("Simulated zoom controller listening on %s\n", *socketPath)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		listener.Close()
		os.Remove(*socketPath)
		os.Exit(0)
	}()

	state := newControllerState()
	for {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		go handleConnection(conn, state, *trace)
	}
}
