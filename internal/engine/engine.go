// Package engine implements the typing session state machine.
//
// An Engine owns exactly one session at a time. It is driven by OnKey and
// OnTick and never schedules work on its own; callers serialize both onto a
// single goroutine and re-read View after every call.
package engine

import (
	"fmt"
	"slices"
	"time"

	"github.com/verte-zerg/klava/internal/generator"
	"github.com/verte-zerg/klava/internal/model"
	"github.com/verte-zerg/klava/internal/stats"
	"github.com/verte-zerg/klava/internal/timer"
)

type charStat struct {
	correct      int
	incorrect    int
	latencySumMs int64
	latencyCount int64
}

// Transition describes what a single OnKey or OnTick call changed.
type Transition struct {
	Changed  bool
	Started  bool
	Reset    bool
	Finished bool
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// WithWeakFocus biases generation toward words containing weak characters.
func WithWeakFocus(weak map[rune]struct{}, factor float64) Option {
	return func(e *Engine) {
		e.SetWeakFocus(weak, factor)
	}
}

// Engine tracks one typing session.
type Engine struct {
	gen        *generator.Generator
	words      []string
	weakSet    map[rune]struct{}
	weakFactor float64
	now        func() time.Time

	mode   model.Mode
	goal   int
	target int

	chars          []model.Char
	cursor         int
	mistakes       int
	totalTyped     int
	completedWords int
	startedAt      time.Time
	endedAt        time.Time
	active         bool
	finished       bool
	result         stats.Result
	countdown      timer.Countdown

	charStats     map[rune]*charStat
	prevCorrectAt time.Time
}

// New builds an Engine and generates its first session.
func New(gen *generator.Generator, words []string, mode model.Mode, goal int, opts ...Option) (*Engine, error) {
	e := &Engine{
		gen:   gen,
		words: words,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.Reset(mode, goal); err != nil {
		return nil, err
	}
	return e, nil
}

// SetWeakFocus changes the weak character set used by the next Reset.
func (e *Engine) SetWeakFocus(weak map[rune]struct{}, factor float64) {
	e.weakSet = weak
	e.weakFactor = factor
}

// Reset discards the current session and generates a new one. On error the
// previous session is left untouched.
func (e *Engine) Reset(mode model.Mode, goal int) error {
	var (
		target model.Target
		err    error
	)
	if len(e.weakSet) > 0 {
		target, err = e.gen.GenerateWeighted(mode, goal, e.words, e.weakSet, e.weakFactor)
	} else {
		target, err = e.gen.Generate(mode, goal, e.words)
	}
	if err != nil {
		return fmt.Errorf("failed to generate session: %w", err)
	}

	// Word sessions carry no countdown; arming zero clears any leftover.
	armed := 0
	if mode == model.ModeTime {
		armed = goal
	}
	e.countdown.Arm(armed)
	e.mode = mode
	e.goal = goal
	e.target = target.Words
	e.chars = target.Chars
	e.cursor = 0
	e.mistakes = 0
	e.totalTyped = 0
	e.completedWords = 0
	e.startedAt = time.Time{}
	e.endedAt = time.Time{}
	e.active = true
	e.finished = false
	e.result = stats.Result{}
	e.charStats = map[rune]*charStat{}
	e.prevCorrectAt = time.Time{}
	return nil
}

// OnKey applies one input event.
func (e *Engine) OnKey(k Key) Transition {
	if k.Kind == KeyRestart {
		if err := e.Reset(e.mode, e.goal); err != nil {
			return Transition{}
		}
		return Transition{Changed: true, Reset: true}
	}
	if !e.active {
		return Transition{}
	}
	if k.Kind == KeyBackspace {
		return e.backspace()
	}
	typed, ok := k.typed()
	if !ok {
		return Transition{}
	}
	return e.advance(typed)
}

// OnTick consumes one countdown second for the timer armed at epoch.
func (e *Engine) OnTick(epoch uint64) Transition {
	if !e.active {
		return Transition{}
	}
	expired, ok := e.countdown.Tick(epoch)
	if !ok {
		return Transition{}
	}
	if expired {
		e.finish()
		return Transition{Changed: true, Finished: true}
	}
	return Transition{Changed: true}
}

// Finish ends the session if it is still running and returns its result.
func (e *Engine) Finish() stats.Result {
	if e.active {
		e.finish()
	}
	return e.result
}

func (e *Engine) backspace() Transition {
	if e.cursor == 0 {
		return Transition{}
	}
	e.cursor--
	c := e.chars[e.cursor]
	if c.Extra {
		e.chars = slices.Delete(e.chars, e.cursor, e.cursor+1)
		return Transition{Changed: true}
	}
	if c.IsSeparator() && c.Status == model.StatusCorrect {
		e.completedWords--
	}
	e.chars[e.cursor].Status = model.StatusPending
	return Transition{Changed: true}
}

func (e *Engine) advance(typed rune) Transition {
	if e.cursor >= len(e.chars) {
		return Transition{}
	}
	t := Transition{Changed: true}
	if e.startedAt.IsZero() {
		e.startedAt = e.now()
		if e.mode == model.ModeTime {
			e.countdown.Start(e.goal)
		}
		t.Started = true
	}

	current := e.chars[e.cursor]
	if current.IsSeparator() && typed != model.Separator {
		extra := model.Char{Value: typed, Status: model.StatusIncorrect, Extra: true}
		e.chars = slices.Insert(e.chars, e.cursor, extra)
		e.cursor++
		e.mistakes++
		e.totalTyped++
	} else {
		e.totalTyped++
		if typed == current.Value {
			e.chars[e.cursor].Status = model.StatusCorrect
			if current.IsSeparator() {
				e.completedWords++
			}
		} else {
			e.chars[e.cursor].Status = model.StatusIncorrect
			e.mistakes++
		}
		e.recordChar(current.Value, typed)
		e.cursor++
	}

	if e.mode == model.ModeWords && e.cursor == len(e.chars) {
		e.completedWords = e.goal
		e.finish()
		t.Finished = true
	}
	return t
}

func (e *Engine) recordChar(expected, typed rune) {
	if expected == model.Separator {
		return
	}
	entry, ok := e.charStats[expected]
	if !ok {
		entry = &charStat{}
		e.charStats[expected] = entry
	}
	if typed != expected {
		entry.incorrect++
		return
	}
	entry.correct++
	now := e.now()
	if !e.prevCorrectAt.IsZero() {
		entry.latencySumMs += now.Sub(e.prevCorrectAt).Milliseconds()
		entry.latencyCount++
	}
	e.prevCorrectAt = now
}

func (e *Engine) finish() {
	e.active = false
	e.finished = true
	e.countdown.Cancel()
	e.endedAt = e.now()
	elapsed := time.Duration(0)
	if !e.startedAt.IsZero() {
		elapsed = e.endedAt.Sub(e.startedAt)
	}
	e.result = stats.Compute(elapsed, e.correctChars(), e.totalTyped, e.mistakes)
}

func (e *Engine) correctChars() int {
	n := 0
	for _, c := range e.chars {
		if c.Status == model.StatusCorrect {
			n++
		}
	}
	return n
}
