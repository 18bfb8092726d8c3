package stats

import (
	"cmp"
	"slices"

	"github.com/verte-zerg/klava/internal/model"
)

// TroubleChars returns up to n characters worth watching: the most
// mistyped first, then the slowest by mean latency between correct
// keystrokes.
func TroubleChars(aggs []model.CharAggregate, n int) []string {
	if n <= 0 || len(aggs) == 0 {
		return nil
	}
	ranked := slices.Clone(aggs)
	slices.SortFunc(ranked, func(a, b model.CharAggregate) int {
		if c := cmp.Compare(b.Incorrect, a.Incorrect); c != 0 {
			return c
		}
		if c := cmp.Compare(meanLatency(b), meanLatency(a)); c != 0 {
			return c
		}
		return cmp.Compare(a.Char, b.Char)
	})
	out := make([]string, 0, min(n, len(ranked)))
	for _, agg := range ranked[:min(n, len(ranked))] {
		out = append(out, agg.Char)
	}
	return out
}

func meanLatency(agg model.CharAggregate) float64 {
	if agg.LatencyCount == 0 {
		return 0
	}
	return float64(agg.LatencySumMs) / float64(agg.LatencyCount)
}
