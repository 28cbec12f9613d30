package srs

import (
	"math"
	"time"

	"github.com/stellae/stellae-api/internal/domain"
)

// Scheduling constants. There is deliberately no upper bound on interval
// growth, no jitter, and no ease factor tracked separately from the
// interval itself.
const (
	// growthFactor multiplies the previous interval on a remembered outcome.
	growthFactor = 2.5

	// minIntervalDays is the floor for every computed interval: a first
	// successful review and a forgotten card both land here.
	minIntervalDays = 1
)

// Result holds the scheduler's output for one graded review.
type Result struct {
	// IntervalDays is the new review interval, always >= 1.
	IntervalDays int

	// NextDueAt is the instant of computation plus IntervalDays days.
	NextDueAt time.Time
}

// Schedule computes the new interval and due timestamp for one review.
//
// The rule:
//   - Forgotten resets the interval to 1 day unconditionally, independent
//     of the prior interval.
//   - Remembered on a never-reviewed node (previous interval 0) yields 1 day.
//   - Remembered otherwise yields ceil(previous x 2.5).
//
// Schedule is pure and total over non-negative input: any previousIntervalDays
// >= 0 produces a defined result. Negative input is a contract violation by
// the caller (intervals are only ever produced by this function or by the
// zero default on a new node) and is clamped to the first-review case rather
// than propagated.
func Schedule(previousIntervalDays int, outcome domain.ReviewOutcome, now time.Time) Result {
	interval := minIntervalDays

	if outcome == domain.ReviewOutcomeRemembered && previousIntervalDays > 0 {
		interval = int(math.Ceil(float64(previousIntervalDays) * growthFactor))
	}

	return Result{
		IntervalDays: interval,
		NextDueAt:    now.AddDate(0, 0, interval),
	}
}
