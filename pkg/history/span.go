package history

import (
	"time"
)

const (
	hoursPerDay  = 24
	daysPerWeek  = 7
	daysPerMonth = 30
)

// Span is the time covered by a history, from its oldest to its newest commit.
type Span struct {
	Newest time.Time `json:"newest" yaml:"newest"`
	Oldest time.Time `json:"oldest" yaml:"oldest"`
	// Days is the fractional number of days between Oldest and Newest.
	Days float64 `json:"days" yaml:"days"`
	// Clamped is set when a zero span was widened to a single day.
	Clamped bool `json:"clamped,omitempty" yaml:"clamped,omitempty"`
}

// Weeks returns the span length in weeks.
func (s Span) Weeks() float64 {
	return s.Days / daysPerWeek
}

// Months returns the span length in 30-day months.
func (s Span) Months() float64 {
	return s.Days / daysPerMonth
}

// IsZero reports whether the span covers no time at all.
func (s Span) IsZero() bool {
	return s.Days == 0
}

func (s Span) rates(total int) Rates {
	value := float64(total)

	return Rates{
		Daily:   value / s.Days,
		Weekly:  value / s.Weeks(),
		Monthly: value / s.Months(),
	}
}

// ComputeSpan measures the span of a newest-first commit sequence. The first
// record is taken as the newest and the last as the oldest; an out-of-order
// history yields the absolute difference.
func ComputeSpan(commits []CommitRecord) (Span, error) {
	if len(commits) == 0 {
		return Span{}, ErrEmptyHistory
	}

	newest := commits[0].When
	oldest := commits[len(commits)-1].When

	return Span{
		Newest: newest,
		Oldest: oldest,
		Days:   newest.Sub(oldest).Abs().Hours() / hoursPerDay,
	}, nil
}
