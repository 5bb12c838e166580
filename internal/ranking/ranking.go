// Package ranking computes the time-decayed "hot" score used to order story feeds.
//
// score = (likes + 1) / ageHours^Gravity
//
// The +1 keeps fresh, unliked stories from scoring zero, and the super-linear
// gravity lets age dominate accumulated likes. Scores are never persisted:
// they depend on the instant they are computed at.
package ranking

import (
	"math"
	"sort"
	"time"
)

const (
	// Gravity is the exponent applied to the story age in hours.
	Gravity = 1.8

	// MinAge is the smallest age used in the denominator. Stories created
	// "now" (or in the future, through clock skew) are treated as this old.
	MinAge = time.Second
)

// OrderExpr is the PostgreSQL rendering of Score. It expects the alias s for
// the stories table and a single bind parameter holding the reference instant.
const OrderExpr = "(s.num_likes + 1) / POWER(GREATEST(EXTRACT(EPOCH FROM (CAST(? AS timestamptz) - s.created_at)), 1) / 3600.0, 1.8) DESC"

// Score returns the hot score of a story with numLikes likes created at createdAt,
// evaluated at now.
func Score(numLikes int, createdAt, now time.Time) float64 {
	age := now.Sub(createdAt)
	if age < MinAge {
		age = MinAge
	}
	return float64(numLikes+1) / math.Pow(age.Hours(), Gravity)
}

// Candidate is anything that can be ranked.
type Candidate interface {
	RankInputs() (numLikes int, createdAt time.Time)
}

// Sort orders items by descending score at now. Equal scores keep no particular order.
func Sort[T Candidate](items []T, now time.Time) {
	score := func(it T) float64 {
		likes, created := it.RankInputs()
		return Score(likes, created, now)
	}
	sort.Slice(items, func(i, j int) bool {
		return score(items[i]) > score(items[j])
	})
}
