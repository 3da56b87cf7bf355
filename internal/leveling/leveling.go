// Package leveling maps cumulative XP to a level and the progress towards the next one.
//
// level(xp) = floor(sqrt(xp / 100)) + 1, so level n starts at (n-1)^2 * 100 XP.
package leveling

import "math"

const xpPerLevelUnit = 100

// maxThresholdBase is the largest n-1 whose threshold fits in an int64.
const maxThresholdBase = 303700049

type Progress struct {
	CurrentLevel int64   `json:"currentLevel"`
	NextLevel    int64   `json:"nextLevel"`
	XPIntoLevel  int64   `json:"xpIntoLevel"`
	XPSpan       int64   `json:"xpSpan"`
	Percent      float64 `json:"percent"`
}

// Level returns the level reached with xp. Negative xp counts as zero.
func Level(xp int64) int64 {
	if xp <= 0 {
		return 1
	}
	return isqrt(xp/xpPerLevelUnit) + 1
}

// XPThresholdForLevel is the minimum XP needed to reach level n. Levels past
// the int64 range saturate at math.MaxInt64.
func XPThresholdForLevel(n int64) int64 {
	if n <= 1 {
		return 0
	}
	if n-1 > maxThresholdBase {
		return math.MaxInt64
	}
	return (n - 1) * (n - 1) * xpPerLevelUnit
}

func ProgressFor(xp int64) Progress {
	if xp < 0 {
		xp = 0
	}
	current := Level(xp)
	next := current + 1
	floor := XPThresholdForLevel(current)
	span := XPThresholdForLevel(next) - floor
	into := xp - floor

	percent := float64(into) / float64(span) * 100
	percent = math.Max(0, math.Min(100, percent))

	return Progress{
		CurrentLevel: current,
		NextLevel:    next,
		XPIntoLevel:  into,
		XPSpan:       span,
		Percent:      math.Round(percent*100) / 100,
	}
}

// isqrt is floor(sqrt(n)) without float rounding at perfect squares.
func isqrt(n int64) int64 {
	if n < 2 {
		return n
	}
	r := int64(math.Sqrt(float64(n)))
	for r*r > n {
		r--
	}
	for (r+1)*(r+1) <= n {
		r++
	}
	return r
}
