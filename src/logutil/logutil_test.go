package logutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain", "plain"},
		{"a\nb\r\nc", `a\nb\n\nc`},
		{"tab\there", `tab\there`},
		{"bell\x07", "bell?"},
		{"del\x7f", "del?"},
		{"日本語", "日本語"},
	}
	for _, tt := range tests {
		if got := Sanitize(tt.in); got != tt.want {
			t.Errorf("Sanitize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeTruncates(t *testing.T) {
	got := Sanitize(strings.Repeat("x", 250))
	if len(got) != maxLogLength+3 || !strings.HasSuffix(got, "...") {
		t.Errorf("Sanitize kept %d bytes: %q", len(got), got)
	}
}

func TestRedactKey(t *testing.T) {
	if got := RedactKey("short"); got != "********" {
		t.Errorf("RedactKey(short) = %q", got)
	}
	if got := RedactKey("sk-or-1234567890abcd"); got != "sk-o...abcd" {
		t.Errorf("RedactKey = %q", got)
	}
}

func TestRotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "debug.log")
	w, err := OpenRotating(path, 10, 2)
	if err != nil {
		t.Fatalf("OpenRotating: %v", err)
	}
	defer w.Close()

	for _, line := range []string{"aaaaaaaa\n", "bbbbbbbb\n", "cccccccc\n", "dddddddd\n"} {
		if _, err := w.Write([]byte(line)); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}

	read := func(p string) string {
		b, err := os.ReadFile(p)
		if err != nil {
			t.Fatalf("read %s: %v", p, err)
		}
		return string(b)
	}
	if got := read(path); got != "dddddddd\n" {
		t.Errorf("current = %q", got)
	}
	if got := read(path + ".1"); got != "cccccccc\n" {
		t.Errorf(".1 = %q", got)
	}
	if got := read(path + ".2"); got != "bbbbbbbb\n" {
		t.Errorf(".2 = %q", got)
	}
	if _, err := os.Stat(path + ".3"); !os.IsNotExist(err) {
		t.Errorf("expected only 2 archives, .3 err=%v", err)
	}
}
