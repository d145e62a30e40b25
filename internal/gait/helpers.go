package gait

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"
	"gonum.org/v1/gonum/mat"
)

// resampleInto linearly resamples src onto len(dst) points spanning the same
// normalized time axis [0, 1]. len(src) must be >= 2 and len(dst) >= 2.
func resampleInto(dst, src []float64) {
	n := len(src)
	m := len(dst)
	step := float64(n-1) / float64(m-1)
	for i := 0; i < m; i++ {
		x := float64(i) * step
		j := int(x)
		if j >= n-1 {
			dst[i] = src[n-1]
			continue
		}
		frac := x - float64(j)
		dst[i] = src[j] + frac*(src[j+1]-src[j])
	}
}

// Upsample interpolates sig to factor times its native density using an Akima
// spline and maps the given sample indices onto the upsampled axis. The
// original sample values at the mapped indices are preserved exactly so that
// landmark amplitudes survive interpolation. Mirrors the manual-marking
// workflow of upsampling sparse pressure traces before template extraction.
func Upsample(sig *Signal, factor int, indices []int) (*Signal, []int, error) {
	if factor < 1 {
		return nil, nil, fmt.Errorf("upsample factor must be >= 1, got %d", factor)
	}
	n := sig.Len()
	if n < 2 {
		return nil, nil, fmt.Errorf("cannot upsample a signal of %d samples", n)
	}
	for _, idx := range indices {
		if idx < 0 || idx >= n {
			return nil, nil, fmt.Errorf("%w: index %d not in [0, %d)", ErrIndexOutOfRange, idx, n)
		}
	}
	if factor == 1 {
		out := append([]float64(nil), sig.Values...)
		return &Signal{Values: out, SampleRate: sig.SampleRate}, append([]int(nil), indices...), nil
	}

	xs := make([]float64, n)
	floats.Span(xs, 0, float64(n-1))

	m := n * factor
	xNew := make([]float64, m)
	floats.Span(xNew, 0, float64(n-1))
	yNew := make([]float64, m)

	if n >= 5 {
		var spline interp.AkimaSpline
		if err := spline.Fit(xs, sig.Values); err != nil {
			return nil, nil, fmt.Errorf("fitting upsample spline: %w", err)
		}
		for i, x := range xNew {
			yNew[i] = spline.Predict(x)
		}
	} else {
		// Too few points for a stable spline fit.
		resampleInto(yNew, sig.Values)
	}

	newIndices := make([]int, len(indices))
	for i, idx := range indices {
		x := float64(idx)
		j := sort.SearchFloat64s(xNew, x)
		if j >= m {
			j = m - 1
		}
		newIndices[i] = j
		yNew[j] = sig.Values[idx]
	}

	return &Signal{Values: yNew, SampleRate: sig.SampleRate * float64(factor)}, newIndices, nil
}

// SmoothConfig holds Savitzky-Golay smoothing parameters.
type SmoothConfig struct {
	// Window is the filter window length in samples. Must be odd and positive.
	Window int

	// Order is the order of the fitted polynomial. Must satisfy Window >= Order+2.
	Order int
}

// DefaultSmoothConfig returns the window and order tuned for upsampled
// underfoot pressure traces.
func DefaultSmoothConfig() SmoothConfig {
	return SmoothConfig{Window: 93, Order: 3}
}

// Validate checks the smoothing parameters.
func (c SmoothConfig) Validate() error {
	if c.Window < 1 || c.Window%2 != 1 {
		return fmt.Errorf("%w: smoothing window must be a positive odd number, got %d", ErrInvalidConfiguration, c.Window)
	}
	if c.Order < 0 || c.Window < c.Order+2 {
		return fmt.Errorf("%w: smoothing window %d too small for polynomial order %d", ErrInvalidConfiguration, c.Window, c.Order)
	}
	return nil
}

// Smooth applies a Savitzky-Golay filter to values and returns the smoothed
// copy. The signal is padded at both ends with values mirrored about the edge
// samples so the output has the same length as the input.
func Smooth(values []float64, cfg SmoothConfig) ([]float64, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	n := len(values)
	if n < cfg.Window {
		return nil, fmt.Errorf("%w: signal of %d samples shorter than smoothing window %d", ErrInvalidConfiguration, n, cfg.Window)
	}

	coeffs := savitzkyGolayCoeffs(cfg.Window, cfg.Order)
	half := (cfg.Window - 1) / 2

	// Mirror-pad so the convolution stays "valid" over the original extent.
	padded := make([]float64, 0, n+2*half)
	for i := half; i >= 1; i-- {
		padded = append(padded, values[0]-math.Abs(values[i]-values[0]))
	}
	padded = append(padded, values...)
	for i := n - 2; i >= n-1-half; i-- {
		padded = append(padded, values[n-1]+math.Abs(values[i]-values[n-1]))
	}

	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = floats.Dot(coeffs, padded[i:i+cfg.Window])
	}
	return out, nil
}

// savitzkyGolayCoeffs computes the smoothing (zeroth-derivative) convolution
// coefficients: the first row of the pseudo-inverse of the Vandermonde matrix
// over the centered window.
func savitzkyGolayCoeffs(window, order int) []float64 {
	half := (window - 1) / 2
	b := mat.NewDense(window, order+1, nil)
	for k := -half; k <= half; k++ {
		for p := 0; p <= order; p++ {
			b.Set(k+half, p, math.Pow(float64(k), float64(p)))
		}
	}

	// pinv(B) = (B' B)^-1 B'; row 0 is the smoothing kernel.
	var btb mat.Dense
	btb.Mul(b.T(), b)
	var inv mat.Dense
	if err := inv.Inverse(&btb); err != nil {
		// B'B is positive definite for any valid window/order pair.
		panic(fmt.Sprintf("savitzky-golay normal matrix not invertible: %v", err))
	}
	var pinv mat.Dense
	pinv.Mul(&inv, b.T())

	return mat.Row(nil, 0, &pinv)
}
