// zoomd exposes the zoom stage driver to remote callers over HTTP and
// websocket. It owns the single serial session and serializes all access to
// it behind one mutex, since the controller handles one command at a time.
//
// Usage:
//
//	zoomd -device /dev/ttyACM0 [-addr :8600] [options]
//
// REST endpoints (POST, JSON bodies):
//
//	/zoom/level     {"side": "left", "level": "in"}
//	/zoom/dual      {"left": "in", "right": "out"}
//	/zoom/raw       {"side": "left", "zoom": 457, "focus": 70}
//	/zoom/axis      {"side": "left", "axis": "zoom", "value": 457}
//	/zoom/dual_raw  {"axis": "zoom", "left": 300, "right": 300}
//	/zoom/home      {"side": "left"}
//	/zoom/speed     {"speed": 20000}
//
// GET /zoom/status reports the configured speed and device. The /websocket
// endpoint accepts the same operations as JSON messages of the form
// {"method": "level", "params": {...}} and answers {"result": ...} or
// {"error": ...}.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"zoomctl/pkg/config"
	zerr "zoomctl/pkg/errors"
	"zoomctl/pkg/log"
	"zoomctl/pkg/serial"
	"zoomctl/pkg/zoom"
)

// Server owns the driver and serializes command traffic.
type Server struct {
	mu     sync.Mutex
	driver *zoom.Driver
	device string

	wsUpgrader websocket.Upgrader
	logger     *log.Logger
}

func newServer(driver *zoom.Driver, device string) *Server {
	return &Server{
		driver: driver,
		device: device,
		wsUpgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: log.GetLogger("zoomd"),
	}
}

type commandParams struct {
	Side  string `json:"side"`
	Axis  string `json:"axis"`
	Level string `json:"level"`
	Left  any    `json:"left"`
	Right any    `json:"right"`
	Zoom  int    `json:"zoom"`
	Focus int    `json:"focus"`
	Value int    `json:"value"`
	Speed int    `json:"speed"`
}

// dispatch routes one operation to the driver under the session mutex.
func (s *Server) dispatch(method string, p commandParams) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch method {
	case "level":
		side, err := zoom.ParseSide(p.Side)
		if err != nil {
			return nil, err
		}
		level, err := zoom.ParseLevel(p.Level)
		if err != nil {
			return nil, err
		}
		return "ok", s.driver.SendLevel(side, level)

	case "dual":
		leftLevel, err := zoom.ParseLevel(asString(p.Left))
		if err != nil {
			return nil, err
		}
		rightLevel, err := zoom.ParseLevel(asString(p.Right))
		if err != nil {
			return nil, err
		}
		return "ok", s.driver.MoveDual(leftLevel, rightLevel)

	case "raw":
		side, err := zoom.ParseSide(p.Side)
		if err != nil {
			return nil, err
		}
		return "ok", s.driver.SetRaw(side, p.Zoom, p.Focus)

	case "axis":
		side, err := zoom.ParseSide(p.Side)
		if err != nil {
			return nil, err
		}
		axis, err := zoom.ParseAxis(p.Axis)
		if err != nil {
			return nil, err
		}
		return "ok", s.driver.SendAxisCommand(side, axis, p.Value)

	case "dual_raw":
		axis, err := zoom.ParseAxis(p.Axis)
		if err != nil {
			return nil, err
		}
		left, err := asInt(p.Left)
		if err != nil {
			return nil, err
		}
		right, err := asInt(p.Right)
		if err != nil {
			return nil, err
		}
		if axis == zoom.Zoom {
			return "ok", s.driver.SendDualZoom(left, right)
		}
		return "ok", s.driver.SendDualFocus(left, right)

	case "home":
		side, err := zoom.ParseSide(p.Side)
		if err != nil {
			return nil, err
		}
		return "ok", s.driver.Home(side)

	case "speed":
		if err := s.driver.SetSpeed(p.Speed); err != nil {
			return nil, err
		}
		return map[string]any{"speed": s.driver.Speed()}, nil

	case "status":
		return map[string]any{
			"device": s.device,
			"speed":  s.driver.Speed(),
		}, nil

	default:
		return nil, zerr.ValidationError(fmt.Sprintf("unknown method '%s'", method))
	}
}

// asString tolerates clients sending levels directly as JSON strings.
func asString(v any) string {
	s, _ := v.(string)
	return s
}

// asInt tolerates JSON numbers arriving as float64.
func asInt(v any) (int, error) {
	f, ok := v.(float64)
	if !ok {
		return 0, zerr.ValidationError(fmt.Sprintf("expected a number, got %T", v))
	}
	return int(f), nil
}

// statusCode maps driver error categories onto HTTP statuses: request
// defects are the client's to fix, protocol trouble is the controller's.
func statusCode(err error) int {
	switch {
	case zerr.IsRange(err), zerr.IsValidation(err):
		return http.StatusBadRequest
	case zerr.IsProtocol(err):
		return http.StatusBadGateway
	case zerr.IsConnection(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleCommand(method string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if method != "status" && r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var params commandParams
		if r.Body != nil && r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]any{"error": "bad request body"})
				return
			}
		}

		result, err := s.dispatch(method, params)
		if err != nil {
			s.logger.WithError(err).WithField("method", method).Warn("command failed")
			writeJSON(w, statusCode(err), map[string]any{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"result": result})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// wsMessage is one websocket command frame.
type wsMessage struct {
	Method string        `json:"method"`
	Params commandParams `json:"params"`
	ID     any           `json:"id,omitempty"`
}

type wsReply struct {
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
	ID     any    `json:"id,omitempty"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	s.logger.WithField("remote", r.RemoteAddr).Info("websocket client connected")

	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			s.logger.WithField("remote", r.RemoteAddr).Info("websocket client disconnected")
			return
		}

		reply := wsReply{ID: msg.ID}
		result, err := s.dispatch(msg.Method, msg.Params)
		if err != nil {
			reply.Error = err.Error()
		} else {
			reply.Result = result
		}
		if err := conn.WriteJSON(reply); err != nil {
			return
		}
	}
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/zoom/level", s.handleCommand("level"))
	mux.HandleFunc("/zoom/dual", s.handleCommand("dual"))
	mux.HandleFunc("/zoom/raw", s.handleCommand("raw"))
	mux.HandleFunc("/zoom/axis", s.handleCommand("axis"))
	mux.HandleFunc("/zoom/dual_raw", s.handleCommand("dual_raw"))
	mux.HandleFunc("/zoom/home", s.handleCommand("home"))
	mux.HandleFunc("/zoom/speed", s.handleCommand("speed"))
	mux.HandleFunc("/zoom/status", s.handleCommand("status"))
	mux.HandleFunc("/websocket", s.handleWebSocket)
	return mux
}

func main() {
	addr := flag.String("addr", ":8600", "HTTP listen address")
	configFile := flag.String("config", "", "YAML deployment config")
	device := flag.String("device", "", "Serial device path (overrides config)")
	baud := flag.Int("baud", 0, "Baud rate (overrides config)")
	timeout := flag.Duration("timeout", 0, "Acknowledgment read timeout (overrides config)")
	speed := flag.Int("speed", 0, "Feed rate 4000..40000 (overrides config)")
	strict := flag.Bool("strict", false, "Require literal 'ok' acknowledgments on moves")
	socket := flag.Bool("socket", false, "Treat -device as a Unix socket path")
	flag.Parse()

	base := config.Default()
	if *configFile != "" {
		loaded, err := config.Load(*configFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		base = loaded
	}

	cfg := base.DriverConfig()
	if *device != "" {
		cfg.Device = *device
	}
	if *baud != 0 {
		cfg.BaudRate = *baud
	}
	if *timeout != 0 {
		cfg.ReadTimeout = *timeout
	}
	if *speed != 0 {
		cfg.Speed = *speed
	}
	if *strict {
		cfg.StrictAcks = true
	}

	var driver *zoom.Driver
	var err error
	if *socket {
		var port *serial.Port
		port, err = serial.OpenSocket(cfg.Device, cfg.ReadTimeout)
		if err == nil {
			driver, err = zoom.Initialize(serial.NewLineConn(port), cfg)
		}
	} else {
		driver, err = zoom.Connect(cfg)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer driver.Close()

	server := newServer(driver, cfg.Device)
	server.logger.WithField("addr", *addr).Info("zoomd listening")

	httpServer := &http.Server{
		Addr:              *addr,
		Handler:           server.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	if err := httpServer.ListenAndServe(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
