package engine

import (
	"cmp"
	"slices"
	"time"

	"github.com/verte-zerg/klava/internal/model"
	"github.com/verte-zerg/klava/internal/stats"
)

// View is a read-only snapshot of the session for renderers.
type View struct {
	Chars          []model.Char
	Cursor         int
	Mode           model.Mode
	Goal           int
	CompletedWords int
	// WordGoal is the counter denominator: the goal in word mode, the
	// generated pool size in time mode.
	WordGoal   int
	Remaining  int
	TimerEpoch uint64
	// TimerRunning is true while the countdown needs one tick per second.
	TimerRunning bool
	Mistakes     int
	TotalTyped   int
	Started      bool
	Active       bool
	Finished     bool
	Result       stats.Result
}

// View returns a snapshot of the current session.
func (e *Engine) View() View {
	return View{
		Chars:          slices.Clone(e.chars),
		Cursor:         e.cursor,
		Mode:           e.mode,
		Goal:           e.goal,
		CompletedWords: e.completedWords,
		WordGoal:       e.target,
		Remaining:      e.countdown.Remaining(),
		TimerEpoch:     e.countdown.Epoch(),
		TimerRunning:   e.countdown.Running(),
		Mistakes:       e.mistakes,
		TotalTyped:     e.totalTyped,
		Started:        !e.startedAt.IsZero(),
		Active:         e.active,
		Finished:       e.finished,
		Result:         e.result,
	}
}

// Mode returns the current session mode.
func (e *Engine) Mode() model.Mode {
	return e.mode
}

// Goal returns the current session goal.
func (e *Engine) Goal() int {
	return e.goal
}

// Record returns the persistable record of a finished session. ok is false
// while the session is running or when nothing was typed.
func (e *Engine) Record(lang string) (model.SessionStats, []model.CharStats, bool) {
	if !e.finished || e.startedAt.IsZero() {
		return model.SessionStats{}, nil, false
	}
	session := model.SessionStats{
		StartedAt:      e.startedAt,
		EndedAt:        e.endedAt,
		Lang:           lang,
		Mode:           e.mode,
		Goal:           e.goal,
		CompletedWords: e.completedWords,
		CorrectChars:   e.result.CorrectChars,
		TotalTyped:     e.totalTyped,
		Mistakes:       e.mistakes,
		WPM:            e.result.WPM,
		Accuracy:       e.result.Accuracy,
		DurationMs:     e.endedAt.Sub(e.startedAt).Milliseconds(),
	}
	chars := make([]model.CharStats, 0, len(e.charStats))
	for ch, entry := range e.charStats {
		chars = append(chars, model.CharStats{
			Char:         string(ch),
			Correct:      entry.correct,
			Incorrect:    entry.incorrect,
			LatencySumMs: entry.latencySumMs,
			LatencyCount: entry.latencyCount,
		})
	}
	slices.SortFunc(chars, func(a, b model.CharStats) int {
		return cmp.Compare(a.Char, b.Char)
	})
	return session, chars, true
}

// Elapsed returns the time since the first keystroke, or the final
// duration once the session has ended.
func (e *Engine) Elapsed() time.Duration {
	switch {
	case e.startedAt.IsZero():
		return 0
	case e.finished:
		return e.endedAt.Sub(e.startedAt)
	default:
		return e.now().Sub(e.startedAt)
	}
}
