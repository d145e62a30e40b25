package gait

import (
	"fmt"
	"math"
	"math/rand"
)

// SyntheticWalkConfig controls synthetic pressure-trace generation. Useful
// for demos and for exercising the matcher against recordings with a known
// ground truth.
type SyntheticWalkConfig struct {
	// Cycles is the number of gait cycles in the trace.
	Cycles int

	// CycleSpan is the nominal cycle length in samples.
	CycleSpan int

	// GapSamples is the stretch of non-cyclic activity between cycles.
	GapSamples int

	// NoiseAmplitude scales the zero-mean noise added to the whole trace,
	// relative to the unit-height cycle shape.
	NoiseAmplitude float64

	// CadenceJitter stretches each cycle by a random factor in
	// [1-CadenceJitter, 1+CadenceJitter].
	CadenceJitter float64

	// SampleRate is carried onto the generated signal. Reporting only.
	SampleRate float64

	Seed int64
}

// DefaultSyntheticWalkConfig generates ten mildly noisy cycles with a little
// cadence drift, roughly the texture of a real pressure insole trace.
func DefaultSyntheticWalkConfig() SyntheticWalkConfig {
	return SyntheticWalkConfig{
		Cycles:         10,
		CycleSpan:      120,
		GapSamples:     50,
		NoiseAmplitude: 0.05,
		CadenceJitter:  0.05,
		SampleRate:     100,
		Seed:           1,
	}
}

// cycleShape evaluates the canonical underfoot pressure curve at phase
// t in [0, 1): a heel-strike bump followed by a forefoot push-off bump.
func cycleShape(t float64) float64 {
	heel := math.Exp(-((t - 0.2) / 0.12) * ((t - 0.2) / 0.12))
	forefoot := 0.9 * math.Exp(-((t-0.65)/0.15)*((t-0.65)/0.15))
	return heel + forefoot
}

// GenerateWalk builds a synthetic pressure trace plus the marking session an
// operator would have produced for its first cycle. The first cycle always
// has the nominal span so the template is built at scale 1.0.
func GenerateWalk(cfg SyntheticWalkConfig) (*Signal, MarkingSession, error) {
	if cfg.Cycles < 1 || cfg.CycleSpan < 10 {
		return nil, MarkingSession{}, fmt.Errorf("need at least 1 cycle of >= 10 samples, got %d x %d", cfg.Cycles, cfg.CycleSpan)
	}
	if cfg.GapSamples < 0 || cfg.NoiseAmplitude < 0 || cfg.CadenceJitter < 0 || cfg.CadenceJitter >= 1 {
		return nil, MarkingSession{}, fmt.Errorf("invalid synthetic walk parameters")
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	var values []float64

	for c := 0; c < cfg.Cycles; c++ {
		span := cfg.CycleSpan
		if c > 0 && cfg.CadenceJitter > 0 {
			stretch := 1 + (2*rng.Float64()-1)*cfg.CadenceJitter
			span = int(math.Round(float64(cfg.CycleSpan) * stretch))
		}
		for i := 0; i < span; i++ {
			t := float64(i) / float64(span)
			values = append(values, cycleShape(t)+cfg.NoiseAmplitude*rng.NormFloat64())
		}
		if c < cfg.Cycles-1 {
			for i := 0; i < cfg.GapSamples; i++ {
				values = append(values, cfg.NoiseAmplitude*rng.NormFloat64())
			}
		}
	}

	span := float64(cfg.CycleSpan)
	session := MarkingSession{
		Channel: "synthetic",
		Marks: []Landmark{
			{Role: HeelStrike, Index: int(math.Round(0.02 * span))},
			{Role: MidStance, Index: int(math.Round(0.45 * span))},
			{Role: ToeOff, Index: int(math.Round(0.98 * span))},
		},
	}

	return &Signal{Values: values, SampleRate: cfg.SampleRate}, session, nil
}
