package singleinstance

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"
)

const (
	pingTimeout    = 300 * time.Millisecond
	requestTimeout = 2 * time.Second
)

type tcpClient struct{}

func newTcpClient() Client { return &tcpClient{} }

// TryCaptureOnce only bounds the scan and dial by ctx. The reply waits as long
// as the user takes to draw a region.
func (c *tcpClient) TryCaptureOnce(ctx context.Context, req Request) (bool, string, error) {
	timeout := timeoutFrom(ctx, requestTimeout)
	addr, _, ok := scan(ctx, timeout)
	if !ok {
		return false, "", nil
	}
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		// Answered PING a moment ago, gone now.
		return false, "", nil
	}
	defer conn.Close()

	if _, err := io.WriteString(conn, req.Line()); err != nil {
		return true, "", fmt.Errorf("sending request: %w", err)
	}
	return readReply(bufio.NewReader(conn))
}

// DetectResidentPort reports the port of a resident that answers PING.
func DetectResidentPort(ctx context.Context) (int, bool) {
	_, port, ok := scan(ctx, timeoutFrom(ctx, pingTimeout))
	return port, ok
}

func readReply(br *bufio.Reader) (bool, string, error) {
	status, err := br.ReadString('\n')
	if err != nil {
		return true, "", fmt.Errorf("reading reply: %w", err)
	}
	body, _ := io.ReadAll(br)
	switch status {
	case statusSuccess:
		return true, string(body), nil
	case statusError:
		return true, "", errors.New(string(body))
	default:
		return true, "", fmt.Errorf("unexpected reply %q", strings.TrimSpace(status))
	}
}

func scan(ctx context.Context, timeout time.Duration) (string, int, bool) {
	r := Ports()
	for port := r.Start; port <= r.End; port++ {
		if ctx.Err() != nil {
			break
		}
		addr := net.JoinHostPort(residentHost, strconv.Itoa(port))
		if ping(addr, timeout) {
			return addr, port, true
		}
	}
	return "", 0, false
}

func timeoutFrom(ctx context.Context, def time.Duration) time.Duration {
	if dl, ok := ctx.Deadline(); ok {
		if d := time.Until(dl); d > 0 {
			return d
		}
	}
	return def
}

func ping(addr string, timeout time.Duration) bool {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return false
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(timeout))
	if _, err := io.WriteString(conn, pingRequest); err != nil {
		return false
	}
	resp, err := bufio.NewReader(conn).ReadString('\n')
	return err == nil && resp == pongResponse
}
