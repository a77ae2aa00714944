package services

import (
	"github.com/reglet-dev/composer/internal/domain/entities"
	"github.com/reglet-dev/composer/internal/domain/values"
)

// ModeSelector picks one candidate by mode rank: the first explicit
// candidate, else the first packaged one, else the first implicit one.
// Enumeration order breaks ties within a rank.
type ModeSelector[T any] struct {
	modeOf func(T) values.Mode
}

// NewModeSelector creates a selector reading the mode of a candidate with modeOf.
func NewModeSelector[T any](modeOf func(T) values.Mode) *ModeSelector[T] {
	return &ModeSelector[T]{modeOf: modeOf}
}

// Select returns the best candidate accepted by isCandidate.
// A nil isCandidate accepts every candidate.
func (s *ModeSelector[T]) Select(candidates []T, isCandidate func(T) bool) (T, bool) {
	var zero T

	accepted := make([]T, 0, len(candidates))
	for _, c := range candidates {
		if isCandidate == nil || isCandidate(c) {
			accepted = append(accepted, c)
		}
	}

	for _, mode := range values.RankedModes() {
		for _, c := range accepted {
			if s.modeOf(c) == mode {
				return c, true
			}
		}
	}
	return zero, false
}

// NewProfileSelector returns the selector used to choose among packaged profiles.
func NewProfileSelector() *ModeSelector[*entities.ComponentProfile] {
	return NewModeSelector(func(p *entities.ComponentProfile) values.Mode {
		return p.ProfileMode()
	})
}
