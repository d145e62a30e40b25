package gait

import (
	"encoding/json"
	"fmt"
	"io"
)

// MarkingSession is the immutable artifact a manual labeling surface emits:
// the channel that was plotted and the ordered landmarks the operator placed
// on it. The engine consumes sessions; it never talks to the UI directly.
type MarkingSession struct {
	Channel string     `json:"channel"`
	Marks   []Landmark `json:"marks"`
}

// Landmarks validates the session's marks against the role order and the
// channel length, returning the engine-side landmark set.
func (s *MarkingSession) Landmarks(order []Role, channelLen int) (*LandmarkSet, error) {
	ls, err := NewLandmarkSet(order, s.Marks, channelLen)
	if err != nil {
		return nil, fmt.Errorf("session for channel %q: %w", s.Channel, err)
	}
	return ls, nil
}

// ReadMarkingSessions decodes a JSON array of marking sessions, the on-disk
// form the labeling surface saves.
func ReadMarkingSessions(r io.Reader) ([]MarkingSession, error) {
	var sessions []MarkingSession
	if err := json.NewDecoder(r).Decode(&sessions); err != nil {
		return nil, fmt.Errorf("decoding marking sessions: %w", err)
	}
	for i, s := range sessions {
		if s.Channel == "" {
			return nil, fmt.Errorf("marking session %d has no channel name", i)
		}
	}
	return sessions, nil
}

// WriteMarkingSessions encodes sessions as indented JSON.
func WriteMarkingSessions(w io.Writer, sessions []MarkingSession) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(sessions); err != nil {
		return fmt.Errorf("encoding marking sessions: %w", err)
	}
	return nil
}
