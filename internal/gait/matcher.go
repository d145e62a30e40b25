package gait

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sort"
	"sync"

	"gonum.org/v1/gonum/stat"
)

// ErrInvalidConfiguration is returned when scan or smoothing parameters are
// malformed. Raised at construction time so a running scan never fails on
// setup problems.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// MatcherConfig controls how a template is scanned across a target buffer.
type MatcherConfig struct {
	// ScaleMin and ScaleMax bound the stretch factors tried at each start
	// position, as multiples of the template's native span. Cadence varies
	// across a long recording, so each position is scored at several window
	// lengths and the best one wins.
	ScaleMin float64
	ScaleMax float64

	// ScaleStep is the increment between tried scale factors.
	ScaleStep float64

	// AcceptanceThreshold is the minimum correlation score, in [-1, 1], for a
	// local maximum to become a detected cycle.
	AcceptanceThreshold float64

	// Workers is the number of goroutines the start-position range is sharded
	// across. Zero means GOMAXPROCS. Results are identical regardless of the
	// worker count.
	Workers int
}

// DefaultMatcherConfig returns the defaults tuned for underfoot pressure data.
func DefaultMatcherConfig() MatcherConfig {
	return MatcherConfig{
		ScaleMin:            0.85,
		ScaleMax:            1.15,
		ScaleStep:           0.01,
		AcceptanceThreshold: 0.8,
		Workers:             0,
	}
}

// Validate checks the scan parameters.
func (c MatcherConfig) Validate() error {
	if c.ScaleMin <= 0 {
		return fmt.Errorf("%w: scale minimum must be > 0, got %v", ErrInvalidConfiguration, c.ScaleMin)
	}
	if c.ScaleMax < c.ScaleMin {
		return fmt.Errorf("%w: scale range %v-%v has low > high", ErrInvalidConfiguration, c.ScaleMin, c.ScaleMax)
	}
	if c.ScaleStep <= 0 {
		return fmt.Errorf("%w: scale step must be > 0, got %v", ErrInvalidConfiguration, c.ScaleStep)
	}
	if c.AcceptanceThreshold < -1 || c.AcceptanceThreshold > 1 {
		return fmt.Errorf("%w: acceptance threshold must be in [-1, 1], got %v", ErrInvalidConfiguration, c.AcceptanceThreshold)
	}
	if c.Workers < 0 {
		return fmt.Errorf("%w: workers must be >= 0, got %d", ErrInvalidConfiguration, c.Workers)
	}
	return nil
}

// matchCandidate is the best-scoring trial at one start position. Ephemeral;
// consumed by peak selection and suppression inside Scan.
type matchCandidate struct {
	start  int
	window int
	scale  float64
	score  float64
}

// Matcher slides a template across target buffers and resolves matches into
// non-overlapping detected cycles. It borrows the template read-only; one
// matcher may scan any number of buffers.
type Matcher struct {
	tmpl    *Template
	cfg     MatcherConfig
	scales  []float64
	windows []int // per-scale window length in target samples
	minWin  int
}

// NewMatcher validates the configuration against the template and returns a
// ready matcher. All setup errors surface here, never mid-scan.
func NewMatcher(tmpl *Template, cfg MatcherConfig) (*Matcher, error) {
	if tmpl == nil {
		return nil, fmt.Errorf("%w: nil template", ErrInvalidConfiguration)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	m := &Matcher{tmpl: tmpl, cfg: cfg}
	for s := cfg.ScaleMin; s <= cfg.ScaleMax+cfg.ScaleStep/2; s += cfg.ScaleStep {
		w := int(math.Round(s * float64(tmpl.NativeSpan())))
		if w < 2 {
			w = 2
		}
		m.scales = append(m.scales, s)
		m.windows = append(m.windows, w)
		if m.minWin == 0 || w < m.minWin {
			m.minWin = w
		}
	}
	return m, nil
}

// Scan slides the template across target and returns the ordered,
// non-overlapping detected cycles. A target shorter than the smallest trial
// window yields an empty result set, not an error; so does a scan in which no
// position clears the acceptance threshold. The context is polled once per
// start position; on cancellation Scan returns the context's error and no
// partial results.
func (m *Matcher) Scan(ctx context.Context, target *Signal) (*ResultSet, error) {
	n := target.Len()
	last := n - m.minWin
	if last < 0 {
		return newResultSet(nil), nil
	}

	// Per-position best candidates. Shards write disjoint ranges, so the
	// merge before suppression is in start order by construction and the
	// outcome is independent of the partitioning.
	best := make([]matchCandidate, last+1)

	workers := m.cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > last+1 {
		workers = last + 1
	}
	chunk := (last + 1 + workers - 1) / workers

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > last+1 {
			hi = last + 1
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			m.scanRange(ctx, target.Values, best, lo, hi)
		}(lo, hi)
	}
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	accepted := m.selectPeaks(best)
	kept := suppressOverlaps(accepted)
	return newResultSet(m.resolveCycles(kept)), nil
}

// scanRange scores start positions [lo, hi) and records the per-position best
// candidate across all trial scales.
func (m *Matcher) scanRange(ctx context.Context, values []float64, best []matchCandidate, lo, hi int) {
	n := len(values)
	scratch := make([]float64, m.tmpl.Len())
	scores := make([]float64, len(m.scales))

	for i := lo; i < hi; i++ {
		select {
		case <-ctx.Done():
			return
		default:
		}

		bestK := -1
		for k, w := range m.windows {
			if i+w > n {
				scores[k] = math.Inf(-1)
				continue
			}
			if k > 0 && m.windows[k-1] == w && !math.IsInf(scores[k-1], -1) {
				scores[k] = scores[k-1]
			} else {
				resampleInto(scratch, values[i:i+w])
				r := stat.Correlation(m.tmpl.shape, scratch, nil)
				if math.IsNaN(r) {
					// Flat window: no shape to compare against.
					r = 0
				}
				scores[k] = r
			}
			if bestK < 0 || scores[k] > scores[bestK] {
				bestK = k
			}
		}

		cand := matchCandidate{
			start:  i,
			window: m.windows[bestK],
			scale:  m.scales[bestK],
			score:  scores[bestK],
		}
		m.refineScale(&cand, scores, bestK, n-i)
		best[i] = cand
	}
}

// refineScale sharpens the winning scale by fitting a parabola through the
// score-vs-scale triplet around the best tested step. Only the window used
// for landmark mapping moves; the reported score stays the tested one, so
// raising the threshold cannot admit new matches.
func (m *Matcher) refineScale(cand *matchCandidate, scores []float64, bestK, maxWin int) {
	if bestK <= 0 || bestK >= len(scores)-1 {
		return
	}
	left, right := scores[bestK-1], scores[bestK+1]
	if math.IsInf(left, -1) || math.IsInf(right, -1) {
		return
	}
	denom := left - 2*scores[bestK] + right
	if denom >= 0 {
		return
	}
	delta := 0.5 * (left - right) / denom
	if delta > 0.5 {
		delta = 0.5
	} else if delta < -0.5 {
		delta = -0.5
	}

	refined := m.scales[bestK] + delta*m.cfg.ScaleStep
	w := int(math.Round(refined * float64(m.tmpl.NativeSpan())))
	if w < 2 {
		w = 2
	}
	if w > maxWin {
		w = maxWin
	}
	cand.scale = refined
	cand.window = w
}

// selectPeaks keeps the candidates that are local score maxima over start
// position and clear the acceptance threshold.
func (m *Matcher) selectPeaks(best []matchCandidate) []matchCandidate {
	var accepted []matchCandidate
	for i := range best {
		s := best[i].score
		if s < m.cfg.AcceptanceThreshold {
			continue
		}
		prev := math.Inf(-1)
		if i > 0 {
			prev = best[i-1].score
		}
		next := math.Inf(-1)
		if i < len(best)-1 {
			next = best[i+1].score
		}
		if s >= prev && s > next {
			accepted = append(accepted, best[i])
		}
	}
	return accepted
}

// suppressOverlaps applies non-maximum suppression: when two accepted
// candidates' windows overlap, the higher score wins (lower start index on
// ties). Returns survivors ordered by start index.
func suppressOverlaps(accepted []matchCandidate) []matchCandidate {
	byScore := append([]matchCandidate(nil), accepted...)
	sort.SliceStable(byScore, func(a, b int) bool {
		if byScore[a].score != byScore[b].score {
			return byScore[a].score > byScore[b].score
		}
		return byScore[a].start < byScore[b].start
	})

	var kept []matchCandidate
	for _, c := range byScore {
		overlaps := false
		for _, k := range kept {
			if c.start < k.start+k.window && k.start < c.start+c.window {
				overlaps = true
				break
			}
		}
		if !overlaps {
			kept = append(kept, c)
		}
	}

	sort.Slice(kept, func(a, b int) bool { return kept[a].start < kept[b].start })
	return kept
}

// resolveCycles maps the template's landmark offsets back into absolute
// sample indices within each surviving window.
func (m *Matcher) resolveCycles(kept []matchCandidate) []DetectedCycle {
	offsets := m.tmpl.offsets
	cycles := make([]DetectedCycle, 0, len(kept))
	for _, c := range kept {
		marks := make(map[Role]int, len(offsets))
		for _, ro := range offsets {
			idx := c.start + int(math.Round(ro.Offset*float64(c.window)))
			if idx > c.start+c.window-1 {
				idx = c.start + c.window - 1
			}
			marks[ro.Role] = idx
		}
		cycles = append(cycles, DetectedCycle{
			Start:     c.start,
			End:       c.start + c.window,
			Score:     c.score,
			Scale:     c.scale,
			Landmarks: marks,
		})
	}
	return cycles
}
