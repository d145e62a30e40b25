package gait

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/stat"
)

func TestBuildTemplate(t *testing.T) {
	excerpt, ls := referenceExcerpt(t, 150)
	cfg := DefaultTemplateConfig()

	tmpl, err := BuildTemplate(excerpt, ls, cfg)
	if err != nil {
		t.Fatalf("BuildTemplate: %v", err)
	}

	if tmpl.Len() != cfg.Length {
		t.Errorf("Len() = %d, want %d", tmpl.Len(), cfg.Length)
	}
	wantSpan := ls.Last().Index - ls.First().Index + 1
	if tmpl.NativeSpan() != wantSpan {
		t.Errorf("NativeSpan() = %d, want %d", tmpl.NativeSpan(), wantSpan)
	}

	shape := tmpl.Shape()
	mean, std := stat.MeanStdDev(shape, nil)
	if math.Abs(mean) > 1e-9 {
		t.Errorf("shape mean = %v, want 0", mean)
	}
	if math.Abs(std-1) > 1e-9 {
		t.Errorf("shape stddev = %v, want 1", std)
	}

	offsets := tmpl.Offsets()
	if len(offsets) != ls.Len() {
		t.Fatalf("got %d offsets, want %d", len(offsets), ls.Len())
	}
	prev := -1.0
	for _, ro := range offsets {
		if ro.Offset < 0 || ro.Offset >= 1 {
			t.Errorf("offset for %q = %v, want in [0, 1)", ro.Role, ro.Offset)
		}
		if ro.Offset <= prev {
			t.Errorf("offsets not increasing at %q", ro.Role)
		}
		prev = ro.Offset
	}
	if offsets[0].Offset != 0 {
		t.Errorf("first offset = %v, want 0 with zero margin", offsets[0].Offset)
	}
}

func TestBuildTemplateMargin(t *testing.T) {
	excerpt, ls := referenceExcerpt(t, 150)
	cfg := DefaultTemplateConfig()
	cfg.Margin = 1

	tmpl, err := BuildTemplate(excerpt, ls, cfg)
	if err != nil {
		t.Fatalf("BuildTemplate: %v", err)
	}
	wantSpan := ls.Last().Index - ls.First().Index + 1 + 2*cfg.Margin
	if tmpl.NativeSpan() != wantSpan {
		t.Errorf("NativeSpan() = %d, want %d", tmpl.NativeSpan(), wantSpan)
	}
	if got := tmpl.Offsets()[0].Offset; got == 0 {
		t.Error("first offset should be inset by the margin")
	}

	// Margin larger than the excerpt clamps to the buffer bounds.
	cfg.Margin = 10000
	tmpl, err = BuildTemplate(excerpt, ls, cfg)
	if err != nil {
		t.Fatalf("BuildTemplate with large margin: %v", err)
	}
	if tmpl.NativeSpan() != excerpt.Len() {
		t.Errorf("NativeSpan() = %d, want clamped to %d", tmpl.NativeSpan(), excerpt.Len())
	}
}

func TestBuildTemplateDegenerate(t *testing.T) {
	flat := make([]float64, 100)
	for i := range flat {
		flat[i] = 3.3
	}
	sig := &Signal{Values: flat, SampleRate: 100}
	ls, err := NewLandmarkSet(nil, []Landmark{{HeelStrike, 10}, {ToeOff, 90}}, 100)
	if err != nil {
		t.Fatalf("NewLandmarkSet: %v", err)
	}

	_, err = BuildTemplate(sig, ls, DefaultTemplateConfig())
	if !errors.Is(err, ErrDegenerateTemplate) {
		t.Fatalf("BuildTemplate(flat) err = %v, want ErrDegenerateTemplate", err)
	}
}

func TestBuildTemplateInvalidConfig(t *testing.T) {
	excerpt, ls := referenceExcerpt(t, 150)

	for _, cfg := range []TemplateConfig{
		{Length: 0, Margin: 0},
		{Length: 1, Margin: 0},
		{Length: 200, Margin: -1},
	} {
		if _, err := BuildTemplate(excerpt, ls, cfg); !errors.Is(err, ErrInvalidConfiguration) {
			t.Errorf("BuildTemplate(%+v) err = %v, want ErrInvalidConfiguration", cfg, err)
		}
	}
}

func TestBuildTemplateLandmarkBeyondExcerpt(t *testing.T) {
	excerpt, _ := referenceExcerpt(t, 150)
	ls, err := NewLandmarkSet(nil, []Landmark{{HeelStrike, 10}, {ToeOff, 500}}, 600)
	if err != nil {
		t.Fatalf("NewLandmarkSet: %v", err)
	}
	if _, err := BuildTemplate(excerpt, ls, DefaultTemplateConfig()); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("BuildTemplate err = %v, want ErrIndexOutOfRange", err)
	}
}
