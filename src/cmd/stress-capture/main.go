package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"screen-sniper/src/singleinstance"
)

type stressOptions struct {
	n        int
	mode     string
	output   string
	deadline time.Duration
}

// tally counts how the resident answered each client.
type tally struct {
	ok       int32
	busy     int32
	absent   int32
	failures int32
}

func (t *tally) record(delegated bool, err error) {
	switch {
	case err != nil && strings.Contains(strings.ToLower(err.Error()), "busy"):
		atomic.AddInt32(&t.busy, 1)
	case err != nil:
		atomic.AddInt32(&t.failures, 1)
	case delegated:
		atomic.AddInt32(&t.ok, 1)
	default:
		atomic.AddInt32(&t.absent, 1)
	}
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	opts := &stressOptions{}
	cmd := newRootCmd(opts)
	return cmd.Execute()
}

func newRootCmd(opts *stressOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "stress-capture",
		Short:         "Fire concurrent capture-once requests at a resident instance",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := opts.request()
			if err != nil {
				return err
			}
			runWithOptions(*opts, req, singleinstance.NewClient, os.Stdout)
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.n, "n", 50, "number of clients to launch")
	cmd.Flags().StringVar(&opts.mode, "mode", "text", "text|code: what the resident should read")
	cmd.Flags().StringVar(&opts.output, "output", "stdout", "stdout|clipboard: where the resident delivers the result")
	cmd.Flags().DurationVar(&opts.deadline, "deadline", 5*time.Second, "per-client timeout")

	return cmd
}

func (o stressOptions) request() (singleinstance.Request, error) {
	req := singleinstance.Request{}
	switch o.mode {
	case "text":
		req.Mode = singleinstance.ModeText
	case "code":
		req.Mode = singleinstance.ModeCode
	default:
		return req, fmt.Errorf("unknown mode %q", o.mode)
	}
	switch o.output {
	case "stdout":
		req.OutputToStdout = true
	case "clipboard":
	default:
		return req, fmt.Errorf("unknown output %q", o.output)
	}
	return req, nil
}

func runWithOptions(opts stressOptions, req singleinstance.Request, newClient func() singleinstance.Client, w io.Writer) *tally {
	var wg sync.WaitGroup
	t := &tally{}

	start := time.Now()
	for i := 0; i < opts.n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), opts.deadline)
			defer cancel()
			delegated, _, err := newClient().TryCaptureOnce(ctx, req)
			t.record(delegated, err)
		}()
	}
	wg.Wait()
	fmt.Fprintf(w, "launched=%d ok=%d busy=%d absent=%d err=%d elapsed=%s\n",
		opts.n, t.ok, t.busy, t.absent, t.failures, time.Since(start))
	return t
}
