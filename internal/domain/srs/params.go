package srs

import (
	"errors"
	"fmt"
	"time"

	"github.com/phrazzld/kanji-api/internal/domain"
)

// LevelCount is the number of boxes on the mastery ladder.
const LevelCount = domain.MaxMasteryLevel + 1

// ErrInvalidParams is returned when a ladder configuration breaks its invariants.
var ErrInvalidParams = errors.New("invalid srs parameters")

// Params defines all configurable parameters for the mastery ladder
type Params struct {
	// IntervalDays maps a mastery level to the days until the next review.
	// It is non-decreasing in level.
	IntervalDays [LevelCount]int

	// Level adjustments for review results
	CorrectStep   int
	IncorrectStep int
}

// ParamsConfig allows overriding the default parameters when creating a new Params instance
type ParamsConfig struct {
	IntervalDays  []int
	CorrectStep   int
	IncorrectStep int
}

// NewDefaultParams creates a new Params instance with default values
func NewDefaultParams() *Params {
	return &Params{
		IntervalDays:  [LevelCount]int{0, 1, 3, 7, 14, 30},
		CorrectStep:   1,
		IncorrectStep: 2,
	}
}

// NewParams creates a new Params instance with custom configuration. Zero
// values keep the defaults; an interval table, when given, must hold exactly
// one non-negative entry per level and never decrease.
func NewParams(config ParamsConfig) (*Params, error) {
	params := NewDefaultParams()

	if len(config.IntervalDays) > 0 {
		if len(config.IntervalDays) != LevelCount {
			return nil, fmt.Errorf("%w: need %d intervals, got %d",
				ErrInvalidParams, LevelCount, len(config.IntervalDays))
		}
		for level, days := range config.IntervalDays {
			if days < 0 {
				return nil, fmt.Errorf("%w: negative interval at level %d", ErrInvalidParams, level)
			}
			if level > 0 && days < config.IntervalDays[level-1] {
				return nil, fmt.Errorf("%w: interval decreases at level %d", ErrInvalidParams, level)
			}
			params.IntervalDays[level] = days
		}
	}

	if config.CorrectStep < 0 || config.IncorrectStep < 0 {
		return nil, fmt.Errorf("%w: steps cannot be negative", ErrInvalidParams)
	}
	if config.CorrectStep > 0 {
		params.CorrectStep = config.CorrectStep
	}
	if config.IncorrectStep > 0 {
		params.IncorrectStep = config.IncorrectStep
	}

	return params, nil
}

// Interval returns the scheduling delay for level, clamping out-of-range levels.
func (p *Params) Interval(level int) time.Duration {
	return time.Duration(p.IntervalDays[clampLevel(level)]) * 24 * time.Hour
}
