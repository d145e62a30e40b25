package gait

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/stat"
)

func TestResampleInto(t *testing.T) {
	t.Run("identity at equal length", func(t *testing.T) {
		src := []float64{1, 4, 2, 8, 5}
		dst := make([]float64, 5)
		resampleInto(dst, src)
		for i := range src {
			if math.Abs(dst[i]-src[i]) > 1e-12 {
				t.Errorf("dst[%d] = %v, want %v", i, dst[i], src[i])
			}
		}
	})

	t.Run("linear ramp stays linear", func(t *testing.T) {
		src := make([]float64, 50)
		for i := range src {
			src[i] = 2*float64(i) + 3
		}
		dst := make([]float64, 200)
		resampleInto(dst, src)

		// Endpoints are preserved and interior points lie on the same line.
		if dst[0] != src[0] || math.Abs(dst[199]-src[49]) > 1e-9 {
			t.Errorf("endpoints = %v, %v; want %v, %v", dst[0], dst[199], src[0], src[49])
		}
		for i := range dst {
			x := float64(i) * 49 / 199
			want := 2*x + 3
			if math.Abs(dst[i]-want) > 1e-9 {
				t.Fatalf("dst[%d] = %v, want %v", i, dst[i], want)
			}
		}
	})
}

func TestUpsample(t *testing.T) {
	n := 60
	values := make([]float64, n)
	for i := range values {
		values[i] = math.Sin(2 * math.Pi * float64(i) / 30)
	}
	sig := &Signal{Values: values, SampleRate: 66}
	indices := []int{5, 20, 50}

	up, mapped, err := Upsample(sig, 30, indices)
	if err != nil {
		t.Fatalf("Upsample: %v", err)
	}
	if up.Len() != n*30 {
		t.Errorf("Len() = %d, want %d", up.Len(), n*30)
	}
	if up.SampleRate != 66*30 {
		t.Errorf("SampleRate = %v, want %v", up.SampleRate, 66.0*30)
	}

	prev := -1
	for i, j := range mapped {
		if j <= prev || j >= up.Len() {
			t.Fatalf("mapped[%d] = %d, not strictly increasing in bounds", i, j)
		}
		prev = j

		// Mapped positions land near the proportional location and keep the
		// original amplitude exactly.
		want := float64(indices[i]) * float64(up.Len()-1) / float64(n-1)
		if math.Abs(float64(j)-want) > float64(30) {
			t.Errorf("mapped[%d] = %d, want near %v", i, j, want)
		}
		if up.Values[j] != values[indices[i]] {
			t.Errorf("value at mapped[%d] = %v, want %v preserved", i, up.Values[j], values[indices[i]])
		}
	}

	t.Run("factor one is a copy", func(t *testing.T) {
		same, mapped, err := Upsample(sig, 1, indices)
		if err != nil {
			t.Fatalf("Upsample: %v", err)
		}
		if same.Len() != n || mapped[0] != indices[0] {
			t.Errorf("factor 1 changed the signal")
		}
	})

	t.Run("bad inputs", func(t *testing.T) {
		if _, _, err := Upsample(sig, 0, nil); err == nil {
			t.Error("factor 0 should fail")
		}
		if _, _, err := Upsample(sig, 2, []int{n}); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("out-of-range index err = %v, want ErrIndexOutOfRange", err)
		}
	})
}

func TestSmoothConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		cfg  SmoothConfig
		ok   bool
	}{
		{"defaults", DefaultSmoothConfig(), true},
		{"even window", SmoothConfig{Window: 10, Order: 3}, false},
		{"zero window", SmoothConfig{Window: 0, Order: 3}, false},
		{"window too small for order", SmoothConfig{Window: 3, Order: 3}, false},
		{"negative order", SmoothConfig{Window: 11, Order: -1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.ok && err != nil {
				t.Errorf("Validate() = %v, want nil", err)
			}
			if !tt.ok && !errors.Is(err, ErrInvalidConfiguration) {
				t.Errorf("Validate() = %v, want ErrInvalidConfiguration", err)
			}
		})
	}
}

func TestSmoothPreservesCubic(t *testing.T) {
	// A Savitzky-Golay filter of order 3 reproduces cubic polynomials exactly
	// away from the edge padding.
	n := 100
	values := make([]float64, n)
	for i := range values {
		x := float64(i) / 10
		values[i] = 0.5*x*x*x - 2*x*x + x + 4
	}

	cfg := SmoothConfig{Window: 11, Order: 3}
	out, err := Smooth(values, cfg)
	if err != nil {
		t.Fatalf("Smooth: %v", err)
	}
	if len(out) != n {
		t.Fatalf("len = %d, want %d", len(out), n)
	}

	half := (cfg.Window - 1) / 2
	for i := half; i < n-half; i++ {
		if math.Abs(out[i]-values[i]) > 1e-6 {
			t.Fatalf("out[%d] = %v, want %v", i, out[i], values[i])
		}
	}
}

func TestSmoothReducesNoise(t *testing.T) {
	sig, _, err := GenerateWalk(SyntheticWalkConfig{
		Cycles: 4, CycleSpan: 200, GapSamples: 0,
		NoiseAmplitude: 0.2, SampleRate: 100, Seed: 9,
	})
	if err != nil {
		t.Fatalf("GenerateWalk: %v", err)
	}

	out, err := Smooth(sig.Values, SmoothConfig{Window: 21, Order: 3})
	if err != nil {
		t.Fatalf("Smooth: %v", err)
	}

	// High-frequency energy (first differences) must drop.
	if r, s := diffVariance(sig.Values), diffVariance(out); s >= r {
		t.Errorf("smoothing did not reduce first-difference variance: %v -> %v", r, s)
	}
}

func diffVariance(values []float64) float64 {
	diffs := make([]float64, len(values)-1)
	for i := 1; i < len(values); i++ {
		diffs[i-1] = values[i] - values[i-1]
	}
	return stat.Variance(diffs, nil)
}

func TestSmoothShortSignal(t *testing.T) {
	_, err := Smooth(make([]float64, 10), SmoothConfig{Window: 21, Order: 3})
	if !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("Smooth(short) err = %v, want ErrInvalidConfiguration", err)
	}
}
