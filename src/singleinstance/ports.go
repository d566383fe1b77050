package singleinstance

import (
	"os"
	"strconv"
)

const (
	defaultPortStart = 49620
	defaultPortEnd   = 49670
)

// PortRange is the inclusive span of loopback ports a resident may own. The
// resident binds Start; clients scan the whole range.
type PortRange struct {
	Start, End int
}

// Ports reads SINGLEINSTANCE_PORT_START and SINGLEINSTANCE_PORT_END, keeping
// the defaults for unset or invalid values, clamped to [1024, 65535].
func Ports() PortRange {
	r := PortRange{
		Start: envPort("SINGLEINSTANCE_PORT_START", defaultPortStart),
		End:   envPort("SINGLEINSTANCE_PORT_END", defaultPortEnd),
	}
	r.Start = max(r.Start, 1024)
	r.End = min(r.End, 65535)
	if r.End < r.Start {
		r.Start, r.End = r.End, r.Start
	}
	return r
}

func envPort(key string, def int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return def
}
