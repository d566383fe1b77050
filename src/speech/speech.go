// Package speech reads recognized text aloud through the platform's speech command.
package speech

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"sync"
)

const (
	// DefaultRate is the words-per-minute value the rest of the app treats as normal speed.
	DefaultRate = 180
	minRate     = 0.4
	maxRate     = 1.2
)

// ErrUnsupported means no speech command is available on this system.
var ErrUnsupported = errors.New("text to speech unavailable")

// NormalizeRate maps words per minute onto the 0.4..1.2 multiplier range.
func NormalizeRate(wpm float64) float64 {
	r := wpm / DefaultRate
	if r < minRate {
		return minRate
	}
	if r > maxRate {
		return maxRate
	}
	return r
}

// Command builds the argv that speaks text at wpm on goos, plus what to feed
// the process on stdin. Text goes through stdin wherever the command can read
// it there, so recognized text is never parsed as options. lookPath decides
// between alternatives where a platform has more than one.
func Command(goos, text string, wpm float64, lookPath func(string) (string, error)) (argv []string, stdin string, err error) {
	rate := NormalizeRate(wpm)
	switch goos {
	case "darwin":
		return []string{"say", "-r", strconv.Itoa(int(rate * DefaultRate)), "-f", "-"}, text, nil
	case "windows":
		// SAPI rate is -10..10 with 0 as normal.
		sapi := int((rate - 1) * 10)
		script := fmt.Sprintf("Add-Type -AssemblyName System.Speech; "+
			"$s = New-Object System.Speech.Synthesis.SpeechSynthesizer; $s.Rate = %d; "+
			"$s.Speak([Console]::In.ReadToEnd())", sapi)
		return []string{"powershell", "-NoProfile", "-NonInteractive", "-Command", script}, text, nil
	default:
		for _, bin := range []string{"espeak-ng", "espeak"} {
			if _, err := lookPath(bin); err == nil {
				return []string{bin, "-s", strconv.Itoa(int(rate * 175)), "--stdin"}, text, nil
			}
		}
		// spd-say has no stdin mode; "--" ends option parsing.
		if _, err := lookPath("spd-say"); err == nil {
			return []string{"spd-say", "-w", "-r", strconv.Itoa(int((rate - 1) * 100)), "--", text}, "", nil
		}
		return nil, "", ErrUnsupported
	}
}

// Speaker runs at most one utterance at a time; a new Speak interrupts the previous one.
type Speaker struct {
	mu      sync.Mutex
	cancel  context.CancelFunc
	running bool
	seq     uint64

	onChange func(speaking bool)

	goos     string
	lookPath func(string) (string, error)
	start    func(ctx context.Context, argv []string, stdin string) (wait func() error, err error)
}

func NewSpeaker() *Speaker {
	return &Speaker{goos: runtime.GOOS, lookPath: exec.LookPath, start: startCommand}
}

// Speak starts reading text at wpm and returns once the command is running.
func (s *Speaker) Speak(text string, wpm float64) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	argv, stdin, err := Command(s.goos, text, wpm, s.lookPath)
	if err != nil {
		return err
	}

	s.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	wait, err := s.start(ctx, argv, stdin)
	if err != nil {
		cancel()
		return fmt.Errorf("start %s: %w", argv[0], err)
	}

	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.cancel = cancel
	s.running = true
	s.mu.Unlock()
	s.changed(true)

	go func() {
		if err := wait(); err != nil && ctx.Err() == nil {
			log.Printf("speech: %s exited: %v", argv[0], err)
		}
		cancel()
		s.mu.Lock()
		finished := s.seq == seq && s.running
		if finished {
			s.running = false
			s.cancel = nil
		}
		s.mu.Unlock()
		if finished {
			s.changed(false)
		}
	}()
	return nil
}

// Stop interrupts the current utterance, if any.
func (s *Speaker) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	wasRunning := s.running
	s.cancel = nil
	s.running = false
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	if wasRunning {
		s.changed(false)
	}
}

// OnChange registers fn to be told when speech starts or stops. fn runs on
// whichever goroutine observed the change.
func (s *Speaker) OnChange(fn func(speaking bool)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

func (s *Speaker) changed(speaking bool) {
	s.mu.Lock()
	fn := s.onChange
	s.mu.Unlock()
	if fn != nil {
		fn(speaking)
	}
}

func (s *Speaker) Speaking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func startCommand(ctx context.Context, argv []string, stdin string) (func() error, error) {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return cmd.Wait, nil
}
