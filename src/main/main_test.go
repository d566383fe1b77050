package main

import (
	"context"
	"errors"
	"strings"
	"testing"

	"screen-sniper/src/singleinstance"
)

func TestNormalizeLegacyArgs(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		out  []string
	}{
		{
			name: "Normalizes long single dash flags",
			in:   []string{"screen-sniper", "-capture-once", "-api-key-path", "/tmp/key"},
			out:  []string{"screen-sniper", "--capture-once", "--api-key-path", "/tmp/key"},
		},
		{
			name: "Normalizes equals form",
			in:   []string{"screen-sniper", "-capture-once", "-api-key-path=/tmp/key"},
			out:  []string{"screen-sniper", "--capture-once", "--api-key-path=/tmp/key"},
		},
		{
			name: "Maps run-once",
			in:   []string{"screen-sniper", "-run-once"},
			out:  []string{"screen-sniper", "--capture-once"},
		},
		{
			name: "Maps run-once-std",
			in:   []string{"screen-sniper", "--run-once-std", "-code"},
			out:  []string{"screen-sniper", "--capture-once", "--stdout", "--code"},
		},
		{
			name: "Leaves other flags unchanged",
			in:   []string{"screen-sniper", "--capture-once", "--other"},
			out:  []string{"screen-sniper", "--capture-once", "--other"},
		},
		{
			name: "Empty args",
			in:   nil,
			out:  []string{"screen-sniper"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := normalizeLegacyArgs(tt.in)
			if len(got) != len(tt.out) {
				t.Fatalf("Expected %v, got %v", tt.out, got)
			}
			for i := range got {
				if got[i] != tt.out[i] {
					t.Fatalf("Expected arg[%d]=%q, got %q", i, tt.out[i], got[i])
				}
			}
		})
	}
}

func TestNewRootCmdParsesFlags(t *testing.T) {
	opts := &mainOptions{}
	cmd := newRootCmd(opts)
	if err := cmd.ParseFlags([]string{"--capture-once", "--code", "--stdout", "--api-key-path", "/tmp/key"}); err != nil {
		t.Fatalf("ParseFlags failed: %v", err)
	}
	if !opts.captureOnce || !opts.code || !opts.stdout {
		t.Fatalf("flags not set: %+v", *opts)
	}
	if opts.apiKeyPath != "/tmp/key" {
		t.Fatalf("Expected apiKeyPath=/tmp/key, got %q", opts.apiKeyPath)
	}
}

func TestRequestFor(t *testing.T) {
	req := requestFor(mainOptions{})
	if req.Mode != singleinstance.ModeText || req.OutputToStdout {
		t.Fatalf("default request = %+v", req)
	}
	req = requestFor(mainOptions{code: true, stdout: true})
	if req.Mode != singleinstance.ModeCode || !req.OutputToStdout {
		t.Fatalf("code request = %+v", req)
	}
}

type fakeClient struct {
	delegated bool
	text      string
	err       error
	called    bool
	req       singleinstance.Request
}

func (f *fakeClient) TryCaptureOnce(ctx context.Context, req singleinstance.Request) (bool, string, error) {
	f.called = true
	f.req = req
	return f.delegated, f.text, f.err
}

func TestHandleCaptureOnceWithDelegation_Delegated(t *testing.T) {
	client := &fakeClient{delegated: true}
	fallbackCalled := false

	err := handleCaptureOnceWithDelegation(singleinstance.Request{Mode: singleinstance.ModeCode}, client, func() {
		fallbackCalled = true
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !client.called {
		t.Fatal("Expected client.TryCaptureOnce to be called")
	}
	if client.req.Mode != singleinstance.ModeCode {
		t.Fatalf("request not forwarded: %+v", client.req)
	}
	if fallbackCalled {
		t.Fatal("Did not expect fallback when delegation succeeds")
	}
}

func TestHandleCaptureOnceWithDelegation_NoResidentFallback(t *testing.T) {
	client := &fakeClient{delegated: false}
	fallbackCalled := false

	err := handleCaptureOnceWithDelegation(singleinstance.Request{}, client, func() {
		fallbackCalled = true
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !fallbackCalled {
		t.Fatal("Expected fallback when no resident is delegated")
	}
}

func TestHandleCaptureOnceWithDelegation_DelegationErrorFallback(t *testing.T) {
	client := &fakeClient{err: errors.New("connection reset")}
	fallbackCalled := false

	if err := handleCaptureOnceWithDelegation(singleinstance.Request{}, client, func() {
		fallbackCalled = true
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !fallbackCalled {
		t.Fatal("Expected fallback when delegation returns an error")
	}
}

func TestHandleCaptureOnceWithDelegation_ResidentErrorIsFinal(t *testing.T) {
	client := &fakeClient{delegated: true, err: errors.New("busy, please retry")}
	fallbackCalled := false

	err := handleCaptureOnceWithDelegation(singleinstance.Request{}, client, func() {
		fallbackCalled = true
	})
	if err == nil || !strings.Contains(err.Error(), "busy") {
		t.Fatalf("expected the resident's error, got %v", err)
	}
	if fallbackCalled {
		t.Fatal("Did not expect fallback after the resident answered")
	}
}

func TestLocalConnRecordsResponse(t *testing.T) {
	closed := false
	conn := newLocalConn(singleinstance.Request{OutputToStdout: true})
	conn.onClose = func() { closed = true }

	if !conn.Request().OutputToStdout {
		t.Fatal("request not kept")
	}
	_ = conn.RespondSuccess("hello")
	_ = conn.Close()
	if conn.text != "hello" || conn.err != "" || !closed {
		t.Fatalf("conn = %+v closed=%v", conn, closed)
	}
}
