package stats

import (
	"math"
	"time"
)

// MinElapsed is the floor applied to session duration so that an
// instantaneous session never divides by zero.
const MinElapsed = 600 * time.Millisecond

// Result holds the final figures of a session.
type Result struct {
	WPM          int           `json:"wpm"`
	Accuracy     int           `json:"accuracy"`
	CorrectChars int           `json:"correctChars"`
	TotalTyped   int           `json:"totalTyped"`
	Mistakes     int           `json:"mistakes"`
	ElapsedMs    int64         `json:"elapsedMs"`
	Elapsed      time.Duration `json:"-"`
}

// Compute derives words per minute and accuracy percent. A word is five
// correct characters.
func Compute(elapsed time.Duration, correctChars, totalTyped, mistakes int) Result {
	minutes := max(elapsed, MinElapsed).Minutes()
	wpm := math.Round(float64(correctChars) / 5.0 / minutes)
	if math.IsNaN(wpm) || math.IsInf(wpm, 0) {
		wpm = 0
	}
	accuracy := 0.0
	if totalTyped > 0 {
		accuracy = math.Round(float64(totalTyped-mistakes) / float64(totalTyped) * 100)
	}
	return Result{
		WPM:          int(wpm),
		Accuracy:     int(accuracy),
		CorrectChars: correctChars,
		TotalTyped:   totalTyped,
		Mistakes:     mistakes,
		ElapsedMs:    elapsed.Milliseconds(),
		Elapsed:      elapsed,
	}
}
