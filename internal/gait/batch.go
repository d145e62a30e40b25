package gait

import (
	"context"
	"fmt"
)

// BatchConfig bundles the per-stage parameters for a multi-channel run.
type BatchConfig struct {
	Roles    []Role
	Template TemplateConfig
	Matcher  MatcherConfig

	// UpsampleFactor interpolates each channel to this multiple of its native
	// density before template extraction. 1 disables upsampling.
	UpsampleFactor int

	// Smooth is applied after upsampling when SmoothEnabled is set. Raw
	// upsampled pressure traces are spiky; smoothing stabilizes the scores.
	Smooth        SmoothConfig
	SmoothEnabled bool
}

// DefaultBatchConfig returns a batch configuration with all stage defaults.
func DefaultBatchConfig() BatchConfig {
	return BatchConfig{
		Roles:          DefaultRoleOrder(),
		Template:       DefaultTemplateConfig(),
		Matcher:        DefaultMatcherConfig(),
		UpsampleFactor: 1,
		Smooth:         DefaultSmoothConfig(),
		SmoothEnabled:  false,
	}
}

// Validate checks all stage parameters eagerly.
func (c BatchConfig) Validate() error {
	if err := c.Template.Validate(); err != nil {
		return err
	}
	if err := c.Matcher.Validate(); err != nil {
		return err
	}
	if c.UpsampleFactor < 1 {
		return fmt.Errorf("%w: upsample factor must be >= 1, got %d", ErrInvalidConfiguration, c.UpsampleFactor)
	}
	if c.SmoothEnabled {
		if err := c.Smooth.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ChannelResult is the outcome of scanning one channel of a recording.
type ChannelResult struct {
	Channel string

	// Signal is the conditioned (upsampled, smoothed) channel the scan ran
	// over. Landmark indices in Results refer to this buffer.
	Signal *Signal

	Template *Template
	Results  *ResultSet
}

// RunBatch builds a template from each marked channel and scans that channel
// with it, returning per-channel results in channel-name order. Every marked
// channel must exist in the recording; channels without a session are
// skipped. Mirrors the operator workflow of marking one excerpt per sensor
// and sweeping the whole trial with it.
func RunBatch(ctx context.Context, rec *Recording, sessions []MarkingSession, cfg BatchConfig) ([]ChannelResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	byChannel := make(map[string]MarkingSession, len(sessions))
	for _, s := range sessions {
		if rec.Channel(s.Channel) == nil {
			return nil, fmt.Errorf("marking session references unknown channel %q", s.Channel)
		}
		if _, dup := byChannel[s.Channel]; dup {
			return nil, fmt.Errorf("duplicate marking session for channel %q", s.Channel)
		}
		byChannel[s.Channel] = s
	}

	var out []ChannelResult
	for _, name := range rec.ChannelNames() {
		session, ok := byChannel[name]
		if !ok {
			continue
		}

		sig := rec.Channel(name)
		indices := make([]int, len(session.Marks))
		for i, m := range session.Marks {
			indices[i] = m.Index
		}

		conditioned, mapped, err := Upsample(sig, cfg.UpsampleFactor, indices)
		if err != nil {
			return nil, fmt.Errorf("channel %q: %w", name, err)
		}
		if cfg.SmoothEnabled {
			smoothed, err := Smooth(conditioned.Values, cfg.Smooth)
			if err != nil {
				return nil, fmt.Errorf("channel %q: %w", name, err)
			}
			conditioned = &Signal{Values: smoothed, SampleRate: conditioned.SampleRate}
		}

		marks := make([]Landmark, len(session.Marks))
		for i, m := range session.Marks {
			marks[i] = Landmark{Role: m.Role, Index: mapped[i]}
		}
		landmarks, err := NewLandmarkSet(cfg.Roles, marks, conditioned.Len())
		if err != nil {
			return nil, fmt.Errorf("channel %q: %w", name, err)
		}

		tmpl, err := BuildTemplate(conditioned, landmarks, cfg.Template)
		if err != nil {
			return nil, fmt.Errorf("channel %q: %w", name, err)
		}

		matcher, err := NewMatcher(tmpl, cfg.Matcher)
		if err != nil {
			return nil, err
		}
		results, err := matcher.Scan(ctx, conditioned)
		if err != nil {
			return nil, err
		}

		out = append(out, ChannelResult{
			Channel:  name,
			Signal:   conditioned,
			Template: tmpl,
			Results:  results,
		})
	}
	return out, nil
}
