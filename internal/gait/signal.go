// Package gait locates repeating gait-cycle landmarks in underfoot pressure
// recordings. A template built from a manually marked excerpt is slid across
// arbitrarily long target buffers; shape matches are resolved into ordered,
// non-overlapping detected cycles with per-role landmark positions.
package gait

import (
	"fmt"
	"sort"
)

// Signal holds one channel of underfoot pressure samples. Sample indices are
// implicit: Values[i] is the sample at index i, so the buffer is contiguous
// and gap-free by construction. SampleRate (samples per second) is carried
// for reporting only; matching never consults it.
type Signal struct {
	Values     []float64
	SampleRate float64
}

// NewSignal wraps values in a Signal. It does not copy.
func NewSignal(values []float64, sampleRate float64) (*Signal, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("signal must contain at least one sample")
	}
	return &Signal{Values: values, SampleRate: sampleRate}, nil
}

// Len returns the number of samples in the buffer.
func (s *Signal) Len() int {
	return len(s.Values)
}

// Slice returns the samples in [lo, hi), with both bounds clamped to the
// buffer. The returned slice aliases the buffer; callers must not mutate it.
func (s *Signal) Slice(lo, hi int) []float64 {
	if lo < 0 {
		lo = 0
	}
	if hi > len(s.Values) {
		hi = len(s.Values)
	}
	if lo >= hi {
		return nil
	}
	return s.Values[lo:hi]
}

// Duration returns the buffer length in seconds, or 0 if the sample rate is
// unknown. Reporting only.
func (s *Signal) Duration() float64 {
	if s.SampleRate <= 0 {
		return 0
	}
	return float64(len(s.Values)) / s.SampleRate
}

// Recording is a set of synchronized channels sharing one sample index space,
// e.g. the per-sensor columns of one walking trial.
type Recording struct {
	channels map[string]*Signal
}

// NewRecording creates an empty recording.
func NewRecording() *Recording {
	return &Recording{channels: make(map[string]*Signal)}
}

// AddChannel registers a named channel. All channels in one recording must
// have the same length (they are synchronized samples of the same trial).
func (r *Recording) AddChannel(name string, sig *Signal) error {
	if sig == nil || sig.Len() == 0 {
		return fmt.Errorf("channel %q: signal must contain at least one sample", name)
	}
	for existing, other := range r.channels {
		if other.Len() != sig.Len() {
			return fmt.Errorf("channel %q has %d samples but channel %q has %d; channels must be synchronized",
				name, sig.Len(), existing, other.Len())
		}
		break
	}
	r.channels[name] = sig
	return nil
}

// Channel returns the named channel, or nil if absent.
func (r *Recording) Channel(name string) *Signal {
	return r.channels[name]
}

// ChannelNames returns the channel names in sorted order.
func (r *Recording) ChannelNames() []string {
	names := make([]string, 0, len(r.channels))
	for name := range r.channels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
