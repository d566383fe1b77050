package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"screen-sniper/src/app"
	"screen-sniper/src/config"
	"screen-sniper/src/logutil"
	"screen-sniper/src/runtimeinit"
	"screen-sniper/src/singleinstance"
	"screen-sniper/src/tray"
)

type mainOptions struct {
	captureOnce bool
	code        bool
	stdout      bool
	apiKeyPath  string
}

func main() {
	// Ensure DPI awareness before creating any windows or querying metrics
	enableDPIAwareness()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	opts := &mainOptions{}
	cmd := newRootCmd(opts)
	cmd.SetArgs(normalizeLegacyArgs(os.Args)[1:])
	return cmd.Execute()
}

func newRootCmd(opts *mainOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "screen-sniper",
		Short:         "Copy text or barcodes from any region of the screen",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.captureOnce {
				return runCaptureOnce(*opts)
			}
			return runResident(*opts)
		},
	}

	cmd.Flags().BoolVar(&opts.captureOnce, "capture-once", false, "Capture one region and exit (delegates to a running instance when possible)")
	cmd.Flags().BoolVar(&opts.code, "code", false, "With --capture-once, read a QR/bar code instead of text")
	cmd.Flags().BoolVar(&opts.stdout, "stdout", false, "With --capture-once, print the result instead of copying it")
	cmd.Flags().StringVar(&opts.apiKeyPath, "api-key-path", "", "Path to API key file (highest precedence)")

	return cmd
}

// normalizeLegacyArgs maps single-dash long flags and the old --run-once
// spellings onto the current flags.
func normalizeLegacyArgs(args []string) []string {
	if len(args) == 0 {
		return []string{"screen-sniper"}
	}

	normalized := make([]string, 0, len(args)+1)
	normalized = append(normalized, args[0])
	for _, arg := range args[1:] {
		switch {
		case arg == "--run-once" || arg == "-run-once":
			normalized = append(normalized, "--capture-once")
		case arg == "--run-once-std" || arg == "-run-once-std":
			normalized = append(normalized, "--capture-once", "--stdout")
		case arg == "-capture-once" || arg == "-code" || arg == "-stdout" || arg == "-api-key-path":
			normalized = append(normalized, "-"+arg)
		case strings.HasPrefix(arg, "-api-key-path="):
			normalized = append(normalized, "-"+arg)
		default:
			normalized = append(normalized, arg)
		}
	}
	return normalized
}

func requestFor(opts mainOptions) singleinstance.Request {
	req := singleinstance.Request{Mode: singleinstance.ModeText, OutputToStdout: opts.stdout}
	if opts.code {
		req.Mode = singleinstance.ModeCode
	}
	return req
}

func loadConfig(opts mainOptions, showErrors bool) (*config.Config, error) {
	boot := runtimeinit.Defaults(config.LoadOptions{APIKeyPathOverride: opts.apiKeyPath}, logutil.Setup)
	boot.ShowBlockingError = showErrors
	return runtimeinit.Bootstrap(boot)
}

func runCaptureOnce(opts mainOptions) error {
	// Load .env early so SINGLEINSTANCE_PORT_* are applied before delegation scan
	_, _ = config.LoadWithOptions(config.LoadOptions{APIKeyPathOverride: opts.apiKeyPath})

	req := requestFor(opts)
	var standaloneErr error
	err := handleCaptureOnceWithDelegation(req, singleinstance.NewClient(), func() {
		standaloneErr = runStandalone(opts, req)
	})
	if err != nil {
		return err
	}
	return standaloneErr
}

// handleCaptureOnceWithDelegation asks a resident to do the capture and only
// runs fallback when no resident answered. A resident that answers with an
// error (busy, cancelled) is final.
func handleCaptureOnceWithDelegation(req singleinstance.Request, client singleinstance.Client, fallback func()) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	delegated, text, err := client.TryCaptureOnce(ctx, req)
	switch {
	case delegated && err != nil:
		return fmt.Errorf("resident instance: %w", err)
	case delegated:
		log.Printf("Delegated to resident")
		if req.OutputToStdout {
			fmt.Print(text)
		}
		return nil
	case err != nil:
		log.Printf("Delegation error: %v; falling back to standalone", err)
	default:
		log.Printf("No resident detected (not delegated), running standalone")
	}
	fallback()
	return nil
}

// runStandalone performs one capture in this process, printing or copying the result.
func runStandalone(opts mainOptions, req singleinstance.Request) error {
	cfg, err := loadConfig(opts, false)
	if err != nil {
		return err
	}

	p := newPlatform()
	s, err := newStack(cfg, p, nil)
	if err != nil {
		return err
	}

	conn := newLocalConn(req)
	p.runOnce(func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		conn.onClose = cancel
		s.loop.Post(func() { s.app.HandleRequest(conn) })
		_ = s.loop.Run(ctx)
		s.close()
		p.quit()
	})

	if conn.err != "" {
		return errors.New(conn.err)
	}
	if req.OutputToStdout {
		fmt.Print(conn.text)
	}
	log.Printf("capture once completed (%d chars)", len(conn.text))
	return nil
}

func runResident(opts mainOptions) error {
	cfg, err := loadConfig(opts, true)
	if err != nil {
		return err
	}

	// ---------- SINGLE-INSTANCE PRE-FLIGHT ----------
	detectCtx, detectCancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	port, running := singleinstance.DetectResidentPort(detectCtx)
	detectCancel()
	if running {
		log.Printf("Pre-flight: resident answered on port %d", port)
		return fmt.Errorf("one is already running on port %d", port)
	}
	startPort := singleinstance.Ports().Start
	listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", startPort))
	if err != nil {
		log.Printf("Pre-flight: port %d busy → resident already exists", startPort)
		return fmt.Errorf("one is already running on port %d", startPort)
	}
	// We claimed the port; release it so the event loop can re-bind.
	_ = listener.Close()
	// ------------------------------------------------

	p := newPlatform()
	s, err := newStack(cfg, p, singleinstance.NewServer())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		<-ch
		cancel()
	}()

	log.Printf("Screen Sniper initialized (ocr=%s, hotkeys=%s)", cfg.OCRProvider, cfg.HotkeyBackend)
	tooltip := tray.DefaultTooltip
	if sc, ok := cfg.Shortcuts[app.ActionCaptureText]; ok {
		tooltip = fmt.Sprintf("Screen Sniper - Press %s to capture", sc)
	}

	p.runResident(tray.Options{
		State:   s.state,
		Post:    s.loop.Post,
		Perform: s.app.Perform,
		Quit:    cancel,
		Tooltip: tooltip,
	}, func() {
		s.start(ctx)
		if err := s.loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("event loop stopped: %v", err)
		}
		s.close()
		p.quit()
	})
	return nil
}

// localConn answers a capture request made by this very process.
type localConn struct {
	req     singleinstance.Request
	text    string
	err     string
	onClose func()
}

func newLocalConn(req singleinstance.Request) *localConn { return &localConn{req: req} }

func (c *localConn) Request() singleinstance.Request { return c.req }

func (c *localConn) RespondSuccess(text string) error {
	c.text = text
	return nil
}

func (c *localConn) RespondError(msg string) error {
	c.err = msg
	return nil
}

func (c *localConn) Close() error {
	if c.onClose != nil {
		c.onClose()
	}
	return nil
}
