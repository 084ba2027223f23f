package engine

import (
	"time"

	"solfege-learning-service/internal/domain"
)

// streakBonusBase is the tier-1 streak bonus; higher tiers are multiples.
const streakBonusBase = 5

// StreakBonus returns the additive point bonus for the current streak length.
// Tiers: <3 days none, 3-6 base, 7-29 double, 30+ triple.
func StreakBonus(streak int) int {
	switch {
	case streak >= 30:
		return 3 * streakBonusBase
	case streak >= 7:
		return 2 * streakBonusBase
	case streak >= 3:
		return streakBonusBase
	}
	return 0
}

// dayOf truncates a timestamp to its UTC calendar day. All day arithmetic
// happens on these values so boundaries never depend on process wall-clock
// or local timezones.
func dayOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// weekStart returns the most recent Sunday 00:00 UTC at or before t.
func weekStart(t time.Time) time.Time {
	day := dayOf(t)
	return day.AddDate(0, 0, -int(day.Weekday()))
}

// UpdateStreak applies one qualifying activity at time now to a learner's
// streak and weekly-goal counters. weight is the weekly-progress increment
// for this activity (1 per completed module, for example).
//
// Streak rule: same UTC day leaves the streak untouched; exactly one day
// later extends it; a gap of two or more days starts a new streak at 1. A
// zero LastActivityAt (brand-new learner) also starts at 1.
//
// Weekly rule: progress resets to zero whenever the previous activity
// predates the current week's Sunday 00:00 UTC, then the weight is added.
func UpdateStreak(l domain.Learner, now time.Time, weight int) domain.StreakUpdate {
	up := domain.StreakUpdate{
		Streak:         l.Streak,
		LongestStreak:  l.LongestStreak,
		WeeklyProgress: l.WeeklyProgress,
	}

	today := dayOf(now)
	switch {
	case l.LastActivityAt.IsZero():
		up.Streak = 1
		up.Reset = true
	default:
		last := dayOf(l.LastActivityAt)
		switch gap := int(today.Sub(last).Hours() / 24); {
		case gap <= 0:
			// same day, streak unchanged
		case gap == 1:
			up.Streak = l.Streak + 1
			up.Extended = true
		default:
			up.Streak = 1
			up.Reset = true
		}
	}
	if up.Streak > up.LongestStreak {
		up.LongestStreak = up.Streak
	}

	if l.LastActivityAt.Before(weekStart(now)) {
		up.WeeklyProgress = 0
		up.WeeklyReset = true
	}
	up.WeeklyProgress += weight

	up.Bonus = StreakBonus(up.Streak)
	return up
}
