package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"zoomctl/pkg/zoom"
)

// ackConn acknowledges every line and records the traffic.
type ackConn struct {
	writes []string
}

func (c *ackConn) WriteLine(line string) error {
	c.writes = append(c.writes, line)
	return nil
}

func (c *ackConn) ReadLine() (string, error) { return "ok", nil }
func (c *ackConn) Close() error              { return nil }

func newTestServer(t *testing.T) (*Server, *ackConn) {
	t.Helper()
	conn := &ackConn{}
	cfg := zoom.DefaultConfig()
	cfg.SettleDelay = time.Millisecond
	driver, err := zoom.Initialize(conn, cfg)
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	conn.writes = nil
	return newServer(driver, "/dev/test"), conn
}

func postJSON(t *testing.T, mux *http.ServeMux, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestLevelEndpoint(t *testing.T) {
	server, conn := newTestServer(t)
	rec := postJSON(t, server.routes(), "/zoom/level", `{"side":"left","level":"in"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if len(conn.writes) != 2 || conn.writes[0] != "G1 X457 F10000" {
		t.Errorf("traffic = %v", conn.writes)
	}
}

func TestLevelEndpointRejectsUnknownSide(t *testing.T) {
	server, conn := newTestServer(t)
	rec := postJSON(t, server.routes(), "/zoom/level", `{"side":"center","level":"in"}`)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if len(conn.writes) != 0 {
		t.Errorf("traffic sent for invalid request: %v", conn.writes)
	}
}

func TestDualRawEndpointRangeError(t *testing.T) {
	server, conn := newTestServer(t)
	rec := postJSON(t, server.routes(), "/zoom/dual_raw", `{"axis":"zoom","left":700,"right":300}`)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if len(conn.writes) != 0 {
		t.Errorf("traffic sent despite range error: %v", conn.writes)
	}
}

func TestSpeedEndpoint(t *testing.T) {
	server, _ := newTestServer(t)
	mux := server.routes()

	rec := postJSON(t, mux, "/zoom/speed", `{"speed":20000}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = postJSON(t, mux, "/zoom/speed", `{"speed":999999}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}

	// Prior speed survives the rejected update.
	req := httptest.NewRequest(http.MethodGet, "/zoom/status", nil)
	recStatus := httptest.NewRecorder()
	mux.ServeHTTP(recStatus, req)

	var body struct {
		Result struct {
			Speed int `json:"speed"`
		} `json:"result"`
	}
	if err := json.Unmarshal(recStatus.Body.Bytes(), &body); err != nil {
		t.Fatalf("status body: %v", err)
	}
	if body.Result.Speed != 20000 {
		t.Errorf("speed = %d, want 20000", body.Result.Speed)
	}
}

func TestHomeEndpoint(t *testing.T) {
	server, conn := newTestServer(t)
	rec := postJSON(t, server.routes(), "/zoom/home", `{"side":"right"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if len(conn.writes) != 4 || conn.writes[0] != "G92 Z0 A0" {
		t.Errorf("homing traffic = %v", conn.writes)
	}
}

func TestCommandEndpointsRejectGet(t *testing.T) {
	server, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/zoom/level", nil)
	rec := httptest.NewRecorder()
	server.routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", rec.Code)
	}
}
