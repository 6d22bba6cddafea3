package infrastructure

import (
	"os/exec"
	"sync"
)

// TranscoderProbe detects whether the transcoding binary is reachable on PATH.
// The lookup runs once; the environment is assumed not to change mid-run.
type TranscoderProbe struct {
	binary   string
	lookPath func(string) (string, error)

	once  sync.Once
	path  string
	found bool
}

// NewTranscoderProbe creates a probe for the given binary name (e.g. "ffmpeg")
func NewTranscoderProbe(binary string) *TranscoderProbe {
	return NewTranscoderProbeWithLookup(binary, exec.LookPath)
}

// NewTranscoderProbeWithLookup creates a probe with a custom PATH lookup
func NewTranscoderProbeWithLookup(binary string, lookPath func(string) (string, error)) *TranscoderProbe {
	return &TranscoderProbe{
		binary:   binary,
		lookPath: lookPath,
	}
}

// Detect reports whether the binary is available
func (p *TranscoderProbe) Detect() bool {
	p.once.Do(func() {
		if p.binary == "" {
			return
		}
		path, err := p.lookPath(p.binary)
		if err != nil {
			return
		}
		p.path = path
		p.found = true
	})
	return p.found
}

// Path returns the resolved binary location, empty when not found
func (p *TranscoderProbe) Path() string {
	p.Detect()
	return p.path
}
