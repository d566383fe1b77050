package singleinstance

// This file defines the API for single-instance ownership and capture-once delegation.

import (
	"context"
	"fmt"
	"strings"
)

// Server owns the TCP endpoint and answers capture-once requests.
type Server interface {
	// Start listens on the first port of the configured range and accepts client requests.
	Start(ctx context.Context) error
	// Port returns the bound TCP port, or 0 if not started.
	Port() int
	// Next returns the next accepted connection as a Conn, or ctx error.
	Next(ctx context.Context) (Conn, error)
	// Close releases ownership and stops accepting clients.
	Close() error
}

// Conn represents one client connection and exposes request + response API.
type Conn interface {
	// Request returns the parsed client request.
	Request() Request
	// RespondSuccess sends success. For stdout mode, send text; for clipboard mode, send empty text.
	RespondSuccess(text string) error
	// RespondError sends an error with human-readable message.
	RespondError(msg string) error
	// Close closes the underlying connection.
	Close() error
}

// Mode selects what the resident does with the captured region.
type Mode string

const (
	ModeText Mode = "TEXT"
	ModeCode Mode = "CODE"
)

// Request represents a single capture-once client request.
type Request struct {
	Mode           Mode
	OutputToStdout bool
}

// Line is the request's wire form, e.g. "CODE STDOUT\n".
func (r Request) Line() string {
	mode := r.Mode
	if mode == "" {
		mode = ModeText
	}
	out := "CLIPBOARD"
	if r.OutputToStdout {
		out = "STDOUT"
	}
	return string(mode) + " " + out + "\n"
}

// ParseRequest reads a request line. Unknown modes fall back to text recognition.
func ParseRequest(line string) (Request, error) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return Request{}, fmt.Errorf("malformed request line %q", strings.TrimSpace(line))
	}
	req := Request{Mode: ModeText}
	if Mode(fields[0]) == ModeCode {
		req.Mode = ModeCode
	}
	switch fields[1] {
	case "STDOUT":
		req.OutputToStdout = true
	case "CLIPBOARD":
	default:
		return Request{}, fmt.Errorf("unknown output %q", fields[1])
	}
	return req, nil
}

// Client attempts to delegate a capture to a resident server.
type Client interface {
	// TryCaptureOnce scans the port range, performs the handshake, and delegates to the resident.
	// If no resident is found, returns delegated=false, err=nil.
	TryCaptureOnce(ctx context.Context, req Request) (delegated bool, text string, err error)
}

// NewServer returns TCP implementation.
func NewServer() Server { return newTcpServer() }

// NewClient returns TCP implementation.
func NewClient() Client { return newTcpClient() }
