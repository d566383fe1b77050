package eventloop

import (
	"context"
	"sync"
	"testing"
	"time"

	"screen-sniper/src/singleinstance"
)

type fakeServer struct {
	conns chan singleinstance.Conn
}

func (s *fakeServer) Start(context.Context) error { return nil }
func (s *fakeServer) Port() int                   { return 49999 }
func (s *fakeServer) Close() error                { return nil }

func (s *fakeServer) Next(ctx context.Context) (singleinstance.Conn, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case c := <-s.conns:
		return c, nil
	}
}

type fakeConn struct {
	mu     sync.Mutex
	errMsg string
	closed bool
	done   chan struct{}
}

func newFakeConn() *fakeConn { return &fakeConn{done: make(chan struct{})} }

func (c *fakeConn) Request() singleinstance.Request {
	return singleinstance.Request{Mode: singleinstance.ModeText}
}
func (c *fakeConn) RespondSuccess(string) error { return nil }

func (c *fakeConn) RespondError(msg string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errMsg = msg
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.done)
	}
	return nil
}

func TestPostRunsInOrder(t *testing.T) {
	l := New(Options{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	var got []int
	done := make(chan struct{})
	for i := 0; i < 100; i++ {
		l.Post(func() { got = append(got, i) })
	}
	l.Post(func() { close(done) })

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("posted funcs did not run")
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("out of order at %d: %v", i, got)
		}
	}
}

func TestPostFromLoopDoesNotBlock(t *testing.T) {
	l := New(Options{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	done := make(chan struct{})
	l.Post(func() {
		for i := 0; i < 1000; i++ {
			l.Post(func() {})
		}
		l.Post(func() { close(done) })
	})
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("nested posts deadlocked")
	}
}

func TestPanicInPostedFuncIsRecovered(t *testing.T) {
	l := New(Options{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	done := make(chan struct{})
	l.Post(func() { panic("boom") })
	l.Post(func() { close(done) })
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("loop died after panic")
	}
}

func TestBusyRejectsDelegatedRequest(t *testing.T) {
	srv := &fakeServer{conns: make(chan singleinstance.Conn, 1)}
	handled := make(chan singleinstance.Conn, 1)
	l := New(Options{
		Server:    srv,
		Busy:      func() bool { return true },
		OnRequest: func(c singleinstance.Conn) { handled <- c },
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	conn := newFakeConn()
	srv.conns <- conn
	select {
	case <-conn.done:
	case <-time.After(2 * time.Second):
		t.Fatal("busy request was not closed")
	}
	conn.mu.Lock()
	msg := conn.errMsg
	conn.mu.Unlock()
	if msg != BusyMessage {
		t.Fatalf("got error %q, want %q", msg, BusyMessage)
	}
	select {
	case <-handled:
		t.Fatal("busy request reached the handler")
	default:
	}
}

func TestIdleRequestIsHandled(t *testing.T) {
	srv := &fakeServer{conns: make(chan singleinstance.Conn, 1)}
	handled := make(chan singleinstance.Conn, 1)
	port := make(chan int, 1)
	l := New(Options{
		Server:    srv,
		Busy:      func() bool { return false },
		OnRequest: func(c singleinstance.Conn) { handled <- c },
		OnListen:  func(p int) { port <- p },
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Run(ctx)

	if p := <-port; p != 49999 {
		t.Fatalf("OnListen got %d", p)
	}
	conn := newFakeConn()
	srv.conns <- conn
	select {
	case c := <-handled:
		if c != conn {
			t.Fatal("handler got a different conn")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("request not handled")
	}
}
