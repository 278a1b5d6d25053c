package bake

import (
	gomath "math"
	"slices"
)

// RateScore ranks a rate combination: lower sum first, then lower
// population variance for a more uniform split.
func RateScore(rates [4]int) (sum, variance float64) {
	for _, r := range rates {
		sum += float64(r)
	}
	mean := sum / 4
	for _, r := range rates {
		d := float64(r) - mean
		variance += d * d
	}
	return sum, variance / 4
}

func scoreLess(aSum, aVar, bSum, bVar float64) bool {
	if aSum != bSum {
		return aSum < bSum
	}
	return aVar < bVar
}

// Pareto walks rows by ascending epsilon, keeping the best-scoring rates
// seen so far, and emits one row per valid epsilon carrying those rates.
// Rows with a negative or non-finite epsilon are skipped. Rows with equal
// epsilon keep their input order.
func Pareto(rows []Row) []ParetoRow {
	valid := make([]Row, 0, len(rows))
	for _, r := range rows {
		if r.Epsilon < 0 || gomath.IsNaN(r.Epsilon) || gomath.IsInf(r.Epsilon, 0) {
			continue
		}
		valid = append(valid, r)
	}
	slices.SortStableFunc(valid, func(a, b Row) int {
		switch {
		case a.Epsilon < b.Epsilon:
			return -1
		case a.Epsilon > b.Epsilon:
			return 1
		}
		return 0
	})

	out := make([]ParetoRow, 0, len(valid))
	var best [4]int
	var bestSum, bestVar float64
	for i, r := range valid {
		sum, variance := RateScore(r.Rates)
		if i == 0 || scoreLess(sum, variance, bestSum, bestVar) {
			best, bestSum, bestVar = r.Rates, sum, variance
		}
		out = append(out, ParetoRow{
			QuadID:        r.QuadID,
			Verts:         r.Verts,
			EpsilonTarget: r.Epsilon,
			Rates:         best,
		})
	}
	return out
}
