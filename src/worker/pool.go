package worker

import (
	"context"
	"log"
	"runtime"
	"sync"
)

// Job is blocking work that must stay off the UI loop: compositor captures,
// recognizer round-trips, barcode decoding.
type Job func(ctx context.Context) (any, error)

// ResultCallback is invoked on job completion (from a worker goroutine).
// The caller should pass a closure that posts back into the UI loop.
type ResultCallback func(result any, err error)

// Pool is a fixed-size worker pool with a 1-slot input queue (strict back-pressure).
type Pool struct {
	jobs      chan job
	wg        sync.WaitGroup
	closeOnce sync.Once
}

type job struct {
	ctx  context.Context
	name string
	run  Job
	cb   ResultCallback
}

// New creates a worker pool. Size defaults to NumCPU when size<=0. Queue is 1 slot.
func New(size int) *Pool {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	p := &Pool{jobs: make(chan job, 1)}
	p.start(size)
	return p
}

func (p *Pool) start(n int) {
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for j := range p.jobs {
				p.runJob(j)
			}
		}()
	}
}

func (p *Pool) runJob(j job) {
	var (
		result any
		err    error
	)
	func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("worker: PANIC in %s: %v", j.name, r)
				err = errPanic{r}
			}
		}()
		if cerr := j.ctx.Err(); cerr != nil {
			err = cerr
			return
		}
		result, err = j.run(j.ctx)
	}()
	log.Printf("worker: %s finished, err=%v", j.name, err)
	if j.cb != nil {
		j.cb(result, err)
	}
}

// Submit enqueues a job if the single-slot queue is free. Returns false if dropped.
func (p *Pool) Submit(ctx context.Context, name string, run Job, cb ResultCallback) bool {
	select {
	case p.jobs <- job{ctx: ctx, name: name, run: run, cb: cb}:
		return true
	default:
		log.Printf("worker: queue full, dropping %s", name)
		return false
	}
}

// Close stops the pool after draining current work.
func (p *Pool) Close() {
	p.closeOnce.Do(func() {
		close(p.jobs)
		p.wg.Wait()
	})
}

type errPanic struct{ v any }

func (e errPanic) Error() string { return "worker job panicked" }
