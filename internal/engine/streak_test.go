package engine

import (
	"testing"
	"time"

	"solfege-learning-service/internal/domain"
)

var monday = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC) // a Monday

func TestStreakExtends(t *testing.T) {
	l := domain.Learner{Streak: 3, LongestStreak: 5, LastActivityAt: monday.AddDate(0, 0, -1)}

	up := UpdateStreak(l, monday, 1)
	if up.Streak != 4 || !up.Extended || up.Reset {
		t.Fatalf("next-day activity should extend streak, got %+v", up)
	}
	if up.LongestStreak != 5 {
		t.Fatalf("longest streak should be untouched, got %d", up.LongestStreak)
	}
}

func TestStreakSameDayUnchanged(t *testing.T) {
	morning := monday.Add(-3 * time.Hour)
	l := domain.Learner{Streak: 3, LongestStreak: 3, LastActivityAt: morning}

	up := UpdateStreak(l, monday, 1)
	if up.Streak != 3 || up.Extended || up.Reset {
		t.Fatalf("same-day activity must not change streak, got %+v", up)
	}
}

func TestStreakResetsToOne(t *testing.T) {
	l := domain.Learner{Streak: 12, LongestStreak: 12, LastActivityAt: monday.AddDate(0, 0, -3)}

	up := UpdateStreak(l, monday, 1)
	if up.Streak != 1 || !up.Reset {
		t.Fatalf("a 2+ day gap should reset streak to 1, got %+v", up)
	}
	if up.LongestStreak != 12 {
		t.Fatalf("longest streak must survive a reset, got %d", up.LongestStreak)
	}
}

func TestStreakFirstActivity(t *testing.T) {
	up := UpdateStreak(domain.Learner{}, monday, 1)
	if up.Streak != 1 || up.LongestStreak != 1 {
		t.Fatalf("first activity starts a streak of 1, got %+v", up)
	}
}

func TestStreakLongestTracks(t *testing.T) {
	l := domain.Learner{Streak: 7, LongestStreak: 7, LastActivityAt: monday.AddDate(0, 0, -1)}
	up := UpdateStreak(l, monday, 1)
	if up.Streak != 8 || up.LongestStreak != 8 {
		t.Fatalf("longest streak should follow a new record, got %+v", up)
	}
}

func TestStreakDayBoundaryIsUTC(t *testing.T) {
	// 23:30 UTC yesterday then 00:30 UTC today is consecutive days.
	lateYesterday := time.Date(2025, 3, 9, 23, 30, 0, 0, time.UTC)
	earlyToday := time.Date(2025, 3, 10, 0, 30, 0, 0, time.UTC)

	l := domain.Learner{Streak: 1, LongestStreak: 1, LastActivityAt: lateYesterday}
	up := UpdateStreak(l, earlyToday, 1)
	if up.Streak != 2 || !up.Extended {
		t.Fatalf("UTC midnight should be the day boundary, got %+v", up)
	}
}

func TestWeeklyResetBoundary(t *testing.T) {
	sunday := time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC) // week start

	// Last active just before Sunday 00:00: weekly progress resets.
	l := domain.Learner{WeeklyProgress: 4, LastActivityAt: sunday.Add(-time.Minute)}
	up := UpdateStreak(l, monday, 1)
	if !up.WeeklyReset || up.WeeklyProgress != 1 {
		t.Fatalf("activity before week start should reset weekly progress, got %+v", up)
	}

	// Last active just after Sunday 00:00: progress accumulates.
	l = domain.Learner{WeeklyProgress: 4, LastActivityAt: sunday.Add(time.Minute)}
	up = UpdateStreak(l, monday, 1)
	if up.WeeklyReset || up.WeeklyProgress != 5 {
		t.Fatalf("same-week activity should accumulate, got %+v", up)
	}
}

func TestStreakBonusTiers(t *testing.T) {
	cases := []struct {
		streak, want int
	}{
		{0, 0}, {1, 0}, {2, 0},
		{3, 5}, {6, 5},
		{7, 10}, {29, 10},
		{30, 15}, {100, 15},
	}
	for _, tc := range cases {
		if got := StreakBonus(tc.streak); got != tc.want {
			t.Fatalf("streak %d: expected bonus %d, got %d", tc.streak, tc.want, got)
		}
	}
}
