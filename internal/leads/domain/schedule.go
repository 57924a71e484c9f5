package domain

import "time"

// MaxTouchPoints is the length of the outreach sequence. A lead that
// completes all touch points without a response is marked lost.
const MaxTouchPoints = 13

// touchPointDays maps a touch-point ordinal (1..13) to its offset in days
// from lead creation. Offsets are non-decreasing; the due time for ordinal n
// is created_at + touchPointDays[n].
var touchPointDays = map[int]int{
	1:  0,
	2:  1,
	3:  3,
	4:  5,
	5:  7,
	6:  10,
	7:  13,
	8:  16,
	9:  19,
	10: 22,
	11: 25,
	12: 27,
	13: 30,
}

// NextTouchPointTime calculates when the next touch point is due, given how
// many touch points have already been completed (0..13). Returns nil once the
// sequence is exhausted.
//
// The first touch point is clamped to "now": a lead ingested later than its
// nominal CRM creation instant still gets an immediate first touch instead of
// a due time in the past.
func NextTouchPointTime(leadCreatedAt time.Time, completedTouchPoints int) *time.Time {
	return nextTouchPointTimeAt(leadCreatedAt, completedTouchPoints, time.Now())
}

func nextTouchPointTimeAt(leadCreatedAt time.Time, completedTouchPoints int, now time.Time) *time.Time {
	nextOrdinal := completedTouchPoints + 1
	if nextOrdinal > MaxTouchPoints {
		return nil
	}

	days, ok := DaysForTouchPoint(nextOrdinal)
	if !ok {
		return nil
	}

	next := leadCreatedAt.AddDate(0, 0, days)
	if nextOrdinal == 1 && now.After(next) {
		return &now
	}

	return &next
}

// DaysForTouchPoint returns the day offset for a touch-point ordinal, or
// false if the ordinal is outside the schedule.
func DaysForTouchPoint(ordinal int) (int, bool) {
	days, ok := touchPointDays[ordinal]
	return days, ok
}

// ShouldMarkAsLost reports whether a lead has exhausted the sequence without
// a response and must leave outreach permanently.
func ShouldMarkAsLost(touchPointCount int, hasResponded bool) bool {
	return touchPointCount >= MaxTouchPoints && !hasResponded
}
