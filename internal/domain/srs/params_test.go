package srs

import (
	"errors"
	"testing"
	"time"
)

func TestNewDefaultParams(t *testing.T) {
	t.Parallel()
	params := NewDefaultParams()

	expected := [LevelCount]int{0, 1, 3, 7, 14, 30}
	if params.IntervalDays != expected {
		t.Errorf("IntervalDays = %v, want %v", params.IntervalDays, expected)
	}
	if params.CorrectStep != 1 {
		t.Errorf("CorrectStep = %d, want 1", params.CorrectStep)
	}
	if params.IncorrectStep != 2 {
		t.Errorf("IncorrectStep = %d, want 2", params.IncorrectStep)
	}

	for level := 1; level < LevelCount; level++ {
		if params.IntervalDays[level] < params.IntervalDays[level-1] {
			t.Errorf("interval table decreases at level %d", level)
		}
	}
}

func TestNewParams(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		config  ParamsConfig
		wantErr bool
		check   func(t *testing.T, p *Params)
	}{
		{
			name:   "zero config keeps defaults",
			config: ParamsConfig{},
			check: func(t *testing.T, p *Params) {
				if *p != *NewDefaultParams() {
					t.Errorf("expected defaults, got %+v", p)
				}
			},
		},
		{
			name:   "custom table and steps",
			config: ParamsConfig{IntervalDays: []int{0, 2, 4, 8, 16, 32}, CorrectStep: 2, IncorrectStep: 1},
			check: func(t *testing.T, p *Params) {
				if p.IntervalDays[5] != 32 || p.CorrectStep != 2 || p.IncorrectStep != 1 {
					t.Errorf("overrides not applied: %+v", p)
				}
			},
		},
		{
			name:    "short table",
			config:  ParamsConfig{IntervalDays: []int{0, 1, 3}},
			wantErr: true,
		},
		{
			name:    "decreasing table",
			config:  ParamsConfig{IntervalDays: []int{0, 1, 3, 2, 14, 30}},
			wantErr: true,
		},
		{
			name:    "negative interval",
			config:  ParamsConfig{IntervalDays: []int{-1, 1, 3, 7, 14, 30}},
			wantErr: true,
		},
		{
			name:    "negative step",
			config:  ParamsConfig{IncorrectStep: -1},
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			p, err := NewParams(tc.config)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidParams) {
					t.Fatalf("expected ErrInvalidParams, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tc.check(t, p)
		})
	}
}

func TestParamsInterval(t *testing.T) {
	t.Parallel()
	p := NewDefaultParams()
	day := 24 * time.Hour

	if got := p.Interval(0); got != 0 {
		t.Errorf("Interval(0) = %v, want 0", got)
	}
	if got := p.Interval(3); got != 7*day {
		t.Errorf("Interval(3) = %v, want %v", got, 7*day)
	}
	if got := p.Interval(9); got != 30*day {
		t.Errorf("Interval(9) should clamp to top level, got %v", got)
	}
	if got := p.Interval(-3); got != 0 {
		t.Errorf("Interval(-3) should clamp to level 0, got %v", got)
	}
}
