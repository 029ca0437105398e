package serial

import (
	"testing"

	"golang.org/x/sys/unix"
)

// chunkStream feeds scripted read chunks and records writes.
type chunkStream struct {
	chunks  [][]byte
	written []byte
	closed  bool
}

func (s *chunkStream) Read(buf []byte) (int, error) {
	if len(s.chunks) == 0 {
		return 0, ErrTimeout
	}
	n := copy(buf, s.chunks[0])
	if n == len(s.chunks[0]) {
		s.chunks = s.chunks[1:]
	} else {
		s.chunks[0] = s.chunks[0][n:]
	}
	return n, nil
}

func (s *chunkStream) Write(buf []byte) (int, error) {
	s.written = append(s.written, buf...)
	return len(buf), nil
}

func (s *chunkStream) Close() error {
	s.closed = true
	return nil
}

func TestWriteLineAppendsNewline(t *testing.T) {
	stream := &chunkStream{}
	conn := NewLineConn(stream)

	if err := conn.WriteLine("G1 X457 F10000"); err != nil {
		t.Fatalf("WriteLine: %v", err)
	}
	if got := string(stream.written); got != "G1 X457 F10000\n" {
		t.Errorf("written = %q, want newline-terminated line", got)
	}
}

func TestReadLineStripsTerminator(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"crlf", "ok\r\n", "ok"},
		{"lf only", "ok\n", "ok"},
		{"empty line", "\r\n", ""},
	}

	for _, tt := range tests {
		conn := NewLineConn(&chunkStream{chunks: [][]byte{[]byte(tt.input)}})
		got, err := conn.ReadLine()
		if err != nil {
			t.Fatalf("%s: ReadLine: %v", tt.name, err)
		}
		if got != tt.want {
			t.Errorf("%s: ReadLine = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestReadLineAcrossChunks(t *testing.T) {
	stream := &chunkStream{chunks: [][]byte{[]byte("o"), []byte("k\r"), []byte("\nerror\r\n")}}
	conn := NewLineConn(stream)

	first, err := conn.ReadLine()
	if err != nil {
		t.Fatalf("first ReadLine: %v", err)
	}
	if first != "ok" {
		t.Errorf("first line = %q, want ok", first)
	}

	second, err := conn.ReadLine()
	if err != nil {
		t.Fatalf("second ReadLine: %v", err)
	}
	if second != "error" {
		t.Errorf("second line = %q, want error", second)
	}
}

func TestReadLineTimeout(t *testing.T) {
	conn := NewLineConn(&chunkStream{chunks: [][]byte{[]byte("partial line ")}})

	if _, err := conn.ReadLine(); err != ErrTimeout {
		t.Errorf("ReadLine error = %v, want ErrTimeout", err)
	}
}

func TestCloseClosesStream(t *testing.T) {
	stream := &chunkStream{}
	conn := NewLineConn(stream)
	if err := conn.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !stream.closed {
		t.Error("underlying stream not closed")
	}
}

func TestBaudRateToSpeed(t *testing.T) {
	speed, err := baudRateToSpeed(115200)
	if err != nil {
		t.Fatalf("baudRateToSpeed(115200): %v", err)
	}
	if speed != unix.B115200 {
		t.Errorf("speed = %v, want B115200", speed)
	}

	if _, err := baudRateToSpeed(123456); err == nil {
		t.Error("expected error for unsupported baud rate")
	}
}
