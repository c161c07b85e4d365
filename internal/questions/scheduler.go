package questions

import (
	"math"
	"time"

	"github.com/groundschool/backend/internal/models"
)

// Review cadence bounds in days. The formula output is clamped to this
// range no matter how large the exponential term grows.
const (
	minIntervalDays = 1
	maxIntervalDays = 60
)

// SuccessRate returns the fraction of presentations answered correctly.
// Returns 0 when the question has never been shown.
func SuccessRate(timesCorrect, timesShown int) float64 {
	if timesShown <= 0 {
		return 0
	}
	return float64(timesCorrect) / float64(timesShown)
}

// ReviewIntervalDays computes how many days after the last presentation a
// question should next be shown.
//
// The base interval doubles with each correct answer and is damped by the
// success rate: a 0% rate yields half the exponential value, a 100% rate
// the full value. Struggling learners (<50% rate) get the interval halved
// with a one-day floor; confident learners (>80% rate) get a 20% extension.
func ReviewIntervalDays(timesCorrect, timesShown int) int {
	rate := SuccessRate(timesCorrect, timesShown)

	interval := math.Pow(2, float64(timesCorrect)) * (0.5 + 0.5*rate)

	if rate < 0.5 {
		interval = math.Max(1, interval*0.5)
	} else if rate > 0.8 {
		interval = interval * 1.2
	}

	days := int(math.Round(interval))
	if days < minIntervalDays {
		days = minIntervalDays
	}
	if days > maxIntervalDays {
		days = maxIntervalDays
	}
	return days
}

// NextReviewDate returns the earliest date the question should be shown
// again. Unseen questions (nil lastShown or zero exposure) are eligible
// immediately. A computed date already in the past collapses to now —
// overdue questions are due, not scheduled backwards.
//
// Pure and deterministic given its inputs; never reads the clock itself.
func NextReviewDate(lastShown *time.Time, timesCorrect, timesShown int, now time.Time) time.Time {
	if lastShown == nil || timesShown <= 0 {
		return now
	}

	days := ReviewIntervalDays(timesCorrect, timesShown)
	next := lastShown.AddDate(0, 0, days)

	if next.Before(now) {
		return now
	}
	return next
}

// IsDue reports whether a question's next review date has arrived.
func IsDue(rec models.ExposureRecord, now time.Time) bool {
	return !NextReviewDate(rec.LastShown, rec.TimesCorrect, rec.TimesShown, now).After(now)
}
