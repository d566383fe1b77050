package singleinstance

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	residentHost     = "127.0.0.1"
	pingRequest      = "PING\n"
	pongResponse     = "PONG\n"
	statusSuccess    = "SUCCESS\n"
	statusError      = "ERROR\n"
	handshakeTimeout = 3 * time.Second
)

// tcpServer implements Server over TCP loopback.
type tcpServer struct {
	mu       sync.Mutex
	lis      net.Listener
	port     int
	incoming chan *tcpConn
	done     chan struct{}
	once     sync.Once
}

func newTcpServer() Server {
	return &tcpServer{incoming: make(chan *tcpConn, 8), done: make(chan struct{})}
}

// Start binds only the first port of the range; an occupied port means another
// resident owns it.
func (s *tcpServer) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lis != nil {
		return nil
	}
	port := Ports().Start
	addr := net.JoinHostPort(residentHost, strconv.Itoa(port))
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("singleinstance: bind %s: %w", addr, err)
	}
	s.lis, s.port = lis, port
	log.Printf("singleinstance: listening on %s", addr)
	go s.serve(ctx, lis)
	return nil
}

func (s *tcpServer) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port
}

func (s *tcpServer) serve(ctx context.Context, lis net.Listener) {
	for {
		c, err := lis.Accept()
		if err != nil {
			return
		}
		go func() {
			tc, ok := handshake(c)
			if !ok {
				return
			}
			select {
			case s.incoming <- tc:
			case <-ctx.Done():
				_ = c.Close()
			case <-s.done:
				_ = c.Close()
			}
		}()
	}
}

// handshake reads the first line. PINGs and malformed requests are answered
// and closed here; a request is passed on with its deadline cleared.
func handshake(c net.Conn) (*tcpConn, bool) {
	_ = c.SetDeadline(time.Now().Add(handshakeTimeout))
	tc := &tcpConn{c: c, br: bufio.NewReader(c), w: bufio.NewWriter(c)}
	line, _ := tc.br.ReadString('\n')
	if line == pingRequest {
		_ = tc.write(pongResponse)
		_ = c.Close()
		return nil, false
	}
	req, err := ParseRequest(line)
	if err != nil {
		log.Printf("singleinstance: rejecting %s: %v", c.RemoteAddr(), err)
		_ = tc.RespondError(err.Error())
		_ = c.Close()
		return nil, false
	}
	_ = c.SetDeadline(time.Time{})
	tc.r = req
	log.Printf("singleinstance: %s from %s", strings.TrimSpace(req.Line()), c.RemoteAddr())
	return tc, true
}

func (s *tcpServer) Next(ctx context.Context) (Conn, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.done:
		return nil, net.ErrClosed
	case tc := <-s.incoming:
		return tc, nil
	}
}

func (s *tcpServer) Close() error {
	s.once.Do(func() { close(s.done) })
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lis == nil {
		return nil
	}
	err := s.lis.Close()
	s.lis = nil
	return err
}

type tcpConn struct {
	c  net.Conn
	r  Request
	br *bufio.Reader
	w  *bufio.Writer
}

func (tc *tcpConn) Request() Request { return tc.r }

func (tc *tcpConn) write(s string) error {
	if _, err := tc.w.WriteString(s); err != nil {
		return err
	}
	return tc.w.Flush()
}

// RespondSuccess sends SUCCESS followed by text, which is empty in clipboard mode.
func (tc *tcpConn) RespondSuccess(text string) error { return tc.write(statusSuccess + text) }

func (tc *tcpConn) RespondError(msg string) error { return tc.write(statusError + msg) }

func (tc *tcpConn) Close() error { return tc.c.Close() }
