package stats

import (
	"slices"
	"testing"

	"github.com/verte-zerg/klava/internal/model"
)

func TestTroubleCharsRanksMistakesThenLatency(t *testing.T) {
	aggs := []model.CharAggregate{
		{Char: "о", Correct: 40, Incorrect: 0, LatencySumMs: 4000, LatencyCount: 40},
		{Char: "ж", Correct: 3, Incorrect: 4, LatencySumMs: 900, LatencyCount: 3},
		{Char: "щ", Correct: 2, Incorrect: 4, LatencySumMs: 1200, LatencyCount: 2},
		{Char: "ы", Correct: 9, Incorrect: 0, LatencySumMs: 2700, LatencyCount: 9},
		{Char: "а", Correct: 30, Incorrect: 1},
	}
	got := TroubleChars(aggs, 4)
	want := []string{"щ", "ж", "а", "ы"}
	if !slices.Equal(got, want) {
		t.Fatalf("TroubleChars = %v, want %v", got, want)
	}
	if aggs[0].Char != "о" {
		t.Fatalf("input order must be left untouched")
	}
}

func TestTroubleCharsBounds(t *testing.T) {
	aggs := []model.CharAggregate{{Char: "к", Incorrect: 1}}
	if got := TroubleChars(aggs, 0); got != nil {
		t.Fatalf("expected nil for n=0, got %v", got)
	}
	if got := TroubleChars(nil, 3); got != nil {
		t.Fatalf("expected nil for no data, got %v", got)
	}
	if got := TroubleChars(aggs, 5); !slices.Equal(got, []string{"к"}) {
		t.Fatalf("expected the single char, got %v", got)
	}
}
