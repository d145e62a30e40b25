package gait

import (
	"testing"
)

func TestNewSignal(t *testing.T) {
	if _, err := NewSignal(nil, 100); err == nil {
		t.Error("empty signal should fail")
	}

	sig, err := NewSignal([]float64{1, 2, 3}, 100)
	if err != nil {
		t.Fatalf("NewSignal: %v", err)
	}
	if sig.Len() != 3 {
		t.Errorf("Len() = %d, want 3", sig.Len())
	}
	if sig.Duration() != 0.03 {
		t.Errorf("Duration() = %v, want 0.03", sig.Duration())
	}
}

func TestSignalSlice(t *testing.T) {
	sig := &Signal{Values: []float64{0, 1, 2, 3, 4}}

	tests := []struct {
		name   string
		lo, hi int
		want   int
	}{
		{"interior", 1, 4, 3},
		{"clamped low", -5, 2, 2},
		{"clamped high", 3, 99, 2},
		{"empty", 4, 2, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := len(sig.Slice(tt.lo, tt.hi)); got != tt.want {
				t.Errorf("Slice(%d, %d) len = %d, want %d", tt.lo, tt.hi, got, tt.want)
			}
		})
	}
}

func TestRecordingChannels(t *testing.T) {
	rec := NewRecording()
	left := &Signal{Values: make([]float64, 10)}
	right := &Signal{Values: make([]float64, 10)}

	if err := rec.AddChannel("left", left); err != nil {
		t.Fatalf("AddChannel: %v", err)
	}
	if err := rec.AddChannel("right", right); err != nil {
		t.Fatalf("AddChannel: %v", err)
	}

	if err := rec.AddChannel("bad", &Signal{Values: make([]float64, 7)}); err == nil {
		t.Error("mismatched channel length should fail")
	}
	if err := rec.AddChannel("empty", &Signal{}); err == nil {
		t.Error("empty channel should fail")
	}

	names := rec.ChannelNames()
	if len(names) != 2 || names[0] != "left" || names[1] != "right" {
		t.Errorf("ChannelNames() = %v", names)
	}
	if rec.Channel("left") != left {
		t.Error("Channel(left) did not return the registered signal")
	}
	if rec.Channel("missing") != nil {
		t.Error("Channel(missing) should be nil")
	}
}
