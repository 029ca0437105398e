package serial

import (
	"bytes"
	"strings"
)

// ByteStream is the minimal surface line framing needs from a port.
// *Port satisfies it; tests may substitute an in-memory stream.
type ByteStream interface {
	Read(buf []byte) (int, error)
	Write(buf []byte) (int, error)
	Close() error
}

// LineConn frames a duplex byte stream into newline-terminated lines.
// Writes append the line terminator; reads strip it.
type LineConn struct {
	stream  ByteStream
	pending []byte // bytes read past the last returned line
}

// NewLineConn wraps a byte stream in line framing.
func NewLineConn(s ByteStream) *LineConn {
	return &LineConn{stream: s}
}

// WriteLine writes one newline-terminated line.
func (c *LineConn) WriteLine(line string) error {
	_, err := c.stream.Write([]byte(line + "\n"))
	return err
}

// ReadLine blocks until one full line is available and returns it with the
// trailing line terminator ("\n" or "\r\n") stripped. A timeout from the
// underlying stream surfaces unchanged (ErrTimeout for *Port).
func (c *LineConn) ReadLine() (string, error) {
	for {
		if i := bytes.IndexByte(c.pending, '\n'); i >= 0 {
			line := string(c.pending[:i])
			c.pending = c.pending[i+1:]
			return strings.TrimSuffix(line, "\r"), nil
		}

		buf := make([]byte, 256)
		n, err := c.stream.Read(buf)
		if err != nil {
			return "", err
		}
		c.pending = append(c.pending, buf[:n]...)
	}
}

// Close closes the underlying stream.
func (c *LineConn) Close() error {
	return c.stream.Close()
}
