package gait

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// DetectedCycle is one matched gait cycle in the target buffer. Immutable
// once emitted into a ResultSet.
type DetectedCycle struct {
	// Start and End bound the matched window as [Start, End) in target
	// sample indices.
	Start int
	End   int

	// Score is the normalized cross-correlation against the template, in
	// [-1, 1].
	Score float64

	// Scale is the stretch factor applied to the template's native span to
	// fit this cycle.
	Scale float64

	// Landmarks maps each template role to its absolute sample index within
	// the matched window.
	Landmarks map[Role]int
}

// ResultSet is the ordered sequence of detected cycles produced by one scan.
// The matcher retains no reference to it after returning; it is never
// mutated after construction.
type ResultSet struct {
	cycles []DetectedCycle
}

func newResultSet(cycles []DetectedCycle) *ResultSet {
	return &ResultSet{cycles: cycles}
}

// Len returns the number of detected cycles.
func (rs *ResultSet) Len() int {
	return len(rs.cycles)
}

// At returns the i-th detected cycle in start-index order.
func (rs *ResultSet) At(i int) DetectedCycle {
	return rs.cycles[i]
}

// Cycles returns a copy of the detected cycles in start-index order.
func (rs *ResultSet) Cycles() []DetectedCycle {
	return append([]DetectedCycle(nil), rs.cycles...)
}

// WriteCSV serializes the result set as a flat table: one row per cycle with
// start_index, end_index, score, and one column per configured role's
// landmark index. Roles the template did not carry are left empty.
func (rs *ResultSet) WriteCSV(w io.Writer, roles []Role) error {
	cw := csv.NewWriter(w)

	header := []string{"start_index", "end_index", "score"}
	for _, r := range roles {
		header = append(header, string(r))
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing result header: %w", err)
	}

	row := make([]string, 0, len(header))
	for _, c := range rs.cycles {
		row = row[:0]
		row = append(row,
			strconv.Itoa(c.Start),
			strconv.Itoa(c.End),
			strconv.FormatFloat(c.Score, 'f', 6, 64),
		)
		for _, r := range roles {
			if idx, ok := c.Landmarks[r]; ok {
				row = append(row, strconv.Itoa(idx))
			} else {
				row = append(row, "")
			}
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing result row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
