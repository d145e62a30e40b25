package gait

import (
	"errors"
	"fmt"
)

// Role identifies a gait-phase landmark within one cycle.
type Role string

// Canonical gait-phase roles. A cycle visits roles in a fixed sequence; a
// landmark set may label any subsequence of that order.
const (
	HeelStrike Role = "heel_strike"
	FootFlat   Role = "foot_flat"
	MidStance  Role = "mid_stance"
	HeelOff    Role = "heel_off"
	ToeOff     Role = "toe_off"
)

// DefaultRoleOrder returns the canonical gait-phase sequence for one cycle.
func DefaultRoleOrder() []Role {
	return []Role{HeelStrike, FootFlat, MidStance, HeelOff, ToeOff}
}

// Validation errors raised when a landmark set is constructed. All landmark
// problems are reported at construction time, never during a scan.
var (
	ErrInvalidLandmarkOrder  = errors.New("landmark roles violate the configured role order")
	ErrIndexOutOfRange       = errors.New("landmark index outside the reference excerpt")
	ErrInsufficientLandmarks = errors.New("at least two landmarks are required to bound a cycle")
)

// Landmark is one manually placed marker: a gait-phase role tied to a sample
// index in the reference excerpt.
type Landmark struct {
	Role  Role `json:"role"`
	Index int  `json:"index"`
}

// LandmarkSet is a validated, ordered collection of landmarks on a single
// reference excerpt. Immutable once constructed.
type LandmarkSet struct {
	order []Role
	marks []Landmark
}

// NewLandmarkSet validates marks against the configured role order and the
// excerpt bounds [0, excerptLen). Roles must form a subsequence of order (no
// repeats, no reordering) and indices must be strictly increasing.
func NewLandmarkSet(order []Role, marks []Landmark, excerptLen int) (*LandmarkSet, error) {
	if len(marks) < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrInsufficientLandmarks, len(marks))
	}
	if len(order) == 0 {
		order = DefaultRoleOrder()
	}

	next := 0 // cursor into order; advances monotonically
	prevIndex := -1
	for i, m := range marks {
		pos := -1
		for j := next; j < len(order); j++ {
			if order[j] == m.Role {
				pos = j
				break
			}
		}
		if pos < 0 {
			return nil, fmt.Errorf("%w: role %q at position %d", ErrInvalidLandmarkOrder, m.Role, i)
		}
		next = pos + 1

		if m.Index < 0 || m.Index >= excerptLen {
			return nil, fmt.Errorf("%w: index %d not in [0, %d)", ErrIndexOutOfRange, m.Index, excerptLen)
		}
		if m.Index <= prevIndex {
			return nil, fmt.Errorf("%w: index %d at position %d does not increase", ErrInvalidLandmarkOrder, m.Index, i)
		}
		prevIndex = m.Index
	}

	ls := &LandmarkSet{
		order: append([]Role(nil), order...),
		marks: append([]Landmark(nil), marks...),
	}
	return ls, nil
}

// Len returns the number of landmarks.
func (ls *LandmarkSet) Len() int {
	return len(ls.marks)
}

// Marks returns a copy of the validated landmarks in order.
func (ls *LandmarkSet) Marks() []Landmark {
	return append([]Landmark(nil), ls.marks...)
}

// First returns the first landmark.
func (ls *LandmarkSet) First() Landmark {
	return ls.marks[0]
}

// Last returns the last landmark.
func (ls *LandmarkSet) Last() Landmark {
	return ls.marks[len(ls.marks)-1]
}

// CycleSpan is the sample distance between the first and last landmark.
func (ls *LandmarkSet) CycleSpan() int {
	return ls.Last().Index - ls.First().Index
}

// RoleOrder returns a copy of the role order this set was validated against.
func (ls *LandmarkSet) RoleOrder() []Role {
	return append([]Role(nil), ls.order...)
}
