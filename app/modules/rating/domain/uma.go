package ratingdomain

import (
	"cmp"
	"math"
	"slices"
)

// ResolveUma returns one uma value per participant. points must already be in
// finishing order; participants with equal points share the mean of their slots.
func ResolveUma(points []int64, umaTable []int64) []float64 {
	resolved := make([]float64, len(points))
	slot := func(i int) float64 {
		if i < len(umaTable) {
			return float64(umaTable[i])
		}
		return 0
	}

	for start := 0; start < len(points); {
		end := start + 1
		for end < len(points) && points[end] == points[start] {
			end++
		}
		var sum float64
		for i := start; i < end; i++ {
			sum += slot(i)
		}
		mean := sum / float64(end-start)
		for i := start; i < end; i++ {
			resolved[i] = mean
		}
		start = end
	}
	return resolved
}

// SortByFinish returns a copy of participants ordered by points descending.
// Equal points keep their input order.
func SortByFinish(participants []Participant) []Participant {
	sorted := slices.Clone(participants)
	slices.SortStableFunc(sorted, func(a, b Participant) int {
		return cmp.Compare(b.Points, a.Points)
	})
	return sorted
}

// Delta is the rating contribution of one participant in one match.
type Delta struct {
	UserID int64
	Points int64
	Uma    float64
	Change int64
}

// ComputeDeltas resolves uma over the finishing order and returns the scaled
// rating change of every participant, in finishing order.
func ComputeDeltas(participants []Participant, rules RuleSet) []Delta {
	sorted := SortByFinish(participants)
	points := make([]int64, len(sorted))
	for i, p := range sorted {
		points[i] = p.Points
	}
	uma := ResolveUma(points, rules.UmaTable)

	target := rules.TargetPoints()
	deltas := make([]Delta, len(sorted))
	for i, p := range sorted {
		deltas[i] = Delta{
			UserID: p.UserID,
			Points: p.Points,
			Uma:    uma[i],
			Change: (p.Points - target) + int64(math.Round(uma[i]*Scale)),
		}
	}
	return deltas
}
