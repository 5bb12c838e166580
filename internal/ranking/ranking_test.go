package ranking

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type item struct {
	name    string
	likes   int
	created time.Time
}

func (i item) RankInputs() (int, time.Time) { return i.likes, i.created }

func TestScore(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		likes    int
		age      time.Duration
		expected float64
	}{
		{"one hour, ten likes", 10, time.Hour, 11},
		{"ten hours, one like", 1, 10 * time.Hour, 2 / math.Pow(10, 1.8)},
		{"one hour, no likes", 0, time.Hour, 1},
		{"two hours, three likes", 3, 2 * time.Hour, 4 / math.Pow(2, 1.8)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(tt.likes, now.Add(-tt.age), now)
			assert.InDelta(t, tt.expected, got, 1e-9)
		})
	}
}

func TestScore_ClampsAge(t *testing.T) {
	now := time.Now()
	fresh := Score(0, now, now)
	future := Score(0, now.Add(time.Minute), now)

	assert.False(t, math.IsInf(fresh, 0))
	assert.False(t, math.IsNaN(fresh))
	assert.Equal(t, fresh, future)
	assert.InDelta(t, 1/math.Pow(MinAge.Hours(), Gravity), fresh, 1e-6)
}

func TestScore_DecaysWithAge(t *testing.T) {
	now := time.Now()
	prev := math.Inf(1)
	for h := 1; h <= 48; h++ {
		s := Score(5, now.Add(-time.Duration(h)*time.Hour), now)
		assert.Less(t, s, prev)
		prev = s
	}
}

func TestSort(t *testing.T) {
	now := time.Now()
	items := []item{
		{"old-popular", 1, now.Add(-10 * time.Hour)},
		{"fresh-liked", 10, now.Add(-time.Hour)},
		{"fresh-quiet", 0, now.Add(-2 * time.Hour)},
	}

	Sort(items, now)

	names := make([]string, len(items))
	for i, it := range items {
		names[i] = it.name
	}
	assert.Equal(t, []string{"fresh-liked", "fresh-quiet", "old-popular"}, names)
}

func TestSort_Empty(t *testing.T) {
	var items []item
	assert.NotPanics(t, func() { Sort(items, time.Now()) })
}
