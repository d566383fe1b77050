package eventloop

import (
	"context"
	"fmt"
	"log"
	"sync"

	"screen-sniper/src/singleinstance"
)

// BusyMessage is sent to delegating clients while a capture is running.
const BusyMessage = "Busy, please retry"

// Loop is the single goroutine that owns capture and application state.
// Everything else reaches it through Post.
type Loop struct {
	mu    sync.Mutex
	queue []func()
	wake  chan struct{}

	srv       singleinstance.Server
	busy      func() bool
	onRequest func(conn singleinstance.Conn)
	onListen  func(port int)
}

type Options struct {
	// Server accepts delegated captures; nil disables delegation.
	Server singleinstance.Server
	// Busy reports whether a capture is in progress. Requests arriving while
	// it returns true are rejected, not queued.
	Busy func() bool
	// OnRequest handles an accepted request on the loop. It owns conn.
	OnRequest func(conn singleinstance.Conn)
	// OnListen is told the bound port once the server is up.
	OnListen func(port int)
}

func New(opts Options) *Loop {
	return &Loop{
		wake:      make(chan struct{}, 1),
		srv:       opts.Server,
		busy:      opts.Busy,
		onRequest: opts.OnRequest,
		onListen:  opts.OnListen,
	}
}

// Post schedules fn on the loop. It never blocks and is safe from any goroutine.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	l.queue = append(l.queue, fn)
	l.mu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Run processes posted functions and delegated requests until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	var reqCh chan singleinstance.Conn
	if l.srv != nil {
		if err := l.srv.Start(ctx); err != nil {
			return fmt.Errorf("single instance server: %w", err)
		}
		defer l.srv.Close()
		if p := l.srv.Port(); p > 0 {
			log.Printf("eventloop: resident listening on 127.0.0.1:%d", p)
			if l.onListen != nil {
				l.onListen(p)
			}
		}

		// Accept in the background so posted work is never starved.
		reqCh = make(chan singleinstance.Conn, 4)
		go func() {
			defer close(reqCh)
			for {
				conn, err := l.srv.Next(ctx)
				if err != nil {
					return
				}
				select {
				case reqCh <- conn:
				case <-ctx.Done():
					_ = conn.Close()
					return
				}
			}
		}()
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
			l.drain()
		case conn, ok := <-reqCh:
			if !ok {
				reqCh = nil
				continue
			}
			l.handleConn(conn)
		}
	}
}

func (l *Loop) drain() {
	for {
		l.mu.Lock()
		if len(l.queue) == 0 {
			l.mu.Unlock()
			return
		}
		fn := l.queue[0]
		l.queue[0] = nil
		l.queue = l.queue[1:]
		l.mu.Unlock()
		l.run(fn)
	}
}

func (l *Loop) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("eventloop: PANIC in posted func: %v", r)
		}
	}()
	fn()
}

func (l *Loop) handleConn(conn singleinstance.Conn) {
	if l.busy != nil && l.busy() {
		log.Printf("eventloop: capture in progress, rejecting delegated request")
		_ = conn.RespondError(BusyMessage)
		_ = conn.Close()
		return
	}
	if l.onRequest == nil {
		_ = conn.RespondError("capture requests are not accepted")
		_ = conn.Close()
		return
	}
	l.run(func() { l.onRequest(conn) })
}
