package gait

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// ErrDegenerateTemplate is returned when the reference excerpt has zero
// variance (a flat trace cannot describe a cycle shape).
var ErrDegenerateTemplate = errors.New("reference excerpt is flat; cannot build a template")

// TemplateConfig controls template construction.
type TemplateConfig struct {
	// Length is the fixed number of points the reference shape is resampled to.
	Length int

	// Margin is the number of extra samples included on each side of the
	// first/last landmark, clamped to the excerpt bounds.
	Margin int
}

// DefaultTemplateConfig returns the defaults used for underfoot pressure data.
func DefaultTemplateConfig() TemplateConfig {
	return TemplateConfig{Length: 200, Margin: 0}
}

// Validate checks the template parameters.
func (c TemplateConfig) Validate() error {
	if c.Length < 2 {
		return fmt.Errorf("%w: template length must be >= 2, got %d", ErrInvalidConfiguration, c.Length)
	}
	if c.Margin < 0 {
		return fmt.Errorf("%w: margin must be >= 0, got %d", ErrInvalidConfiguration, c.Margin)
	}
	return nil
}

// RoleOffset is a landmark's fractional position in [0, 1) along the
// template's normalized time axis.
type RoleOffset struct {
	Role   Role
	Offset float64
}

// Template is the normalized reference shape plus per-role landmark offsets.
// Read-only once built; the matcher borrows it and never mutates it.
type Template struct {
	shape      []float64    // length cfg.Length, zero mean, unit variance
	offsets    []RoleOffset // monotonically increasing in role order
	nativeSpan int          // extracted excerpt length in source samples
}

// BuildTemplate derives a Template from a reference excerpt and its validated
// landmarks. The excerpt samples from the first landmark minus the margin to
// the last landmark plus the margin (clamped to the buffer) are resampled to
// cfg.Length points and z-score normalized, so matching is invariant to the
// target's absolute amplitude and baseline. Pure function of its inputs.
func BuildTemplate(excerpt *Signal, landmarks *LandmarkSet, cfg TemplateConfig) (*Template, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if landmarks.Last().Index >= excerpt.Len() {
		return nil, fmt.Errorf("%w: landmark index %d not in [0, %d)", ErrIndexOutOfRange, landmarks.Last().Index, excerpt.Len())
	}

	lo := landmarks.First().Index - cfg.Margin
	if lo < 0 {
		lo = 0
	}
	hi := landmarks.Last().Index + cfg.Margin + 1
	if hi > excerpt.Len() {
		hi = excerpt.Len()
	}
	segment := excerpt.Slice(lo, hi)
	if len(segment) < 2 {
		return nil, fmt.Errorf("%w: excerpt spans %d samples", ErrDegenerateTemplate, len(segment))
	}

	shape := make([]float64, cfg.Length)
	resampleInto(shape, segment)

	mean, std := stat.MeanStdDev(shape, nil)
	if std == 0 {
		return nil, ErrDegenerateTemplate
	}
	for i := range shape {
		shape[i] = (shape[i] - mean) / std
	}

	span := len(segment)
	offsets := make([]RoleOffset, 0, landmarks.Len())
	for _, m := range landmarks.Marks() {
		offsets = append(offsets, RoleOffset{
			Role:   m.Role,
			Offset: float64(m.Index-lo) / float64(span),
		})
	}

	return &Template{shape: shape, offsets: offsets, nativeSpan: span}, nil
}

// Len returns the fixed template length L.
func (t *Template) Len() int {
	return len(t.shape)
}

// NativeSpan returns the extracted excerpt length in source samples, the
// window size a scale factor of 1.0 corresponds to.
func (t *Template) NativeSpan() int {
	return t.nativeSpan
}

// Shape returns a copy of the normalized template shape.
func (t *Template) Shape() []float64 {
	return append([]float64(nil), t.shape...)
}

// Offsets returns a copy of the per-role landmark offsets, in role order.
func (t *Template) Offsets() []RoleOffset {
	return append([]RoleOffset(nil), t.offsets...)
}
