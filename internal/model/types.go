// Package model defines shared data structures.
package model

import "time"

// Mode selects how a session ends.
type Mode string

const (
	// ModeWords ends the session once a fixed number of words is typed.
	ModeWords Mode = "words"
	// ModeTime ends the session when the countdown reaches zero.
	ModeTime Mode = "time"
)

// Separator delimits words in a target sequence.
const Separator = ' '

// Status is the correctness mark of a single character.
type Status uint8

const (
	StatusPending Status = iota
	StatusCorrect
	StatusIncorrect
)

func (s Status) String() string {
	switch s {
	case StatusCorrect:
		return "correct"
	case StatusIncorrect:
		return "incorrect"
	default:
		return "pending"
	}
}

// Char is one position of a session sequence. Extra characters are typed
// over-runs inserted in front of a separator and are always incorrect.
type Char struct {
	Value  rune
	Status Status
	Extra  bool
}

// IsSeparator reports whether c is a real (non-extra) word separator.
func (c Char) IsSeparator() bool {
	return !c.Extra && c.Value == Separator
}

// Target is a generated sequence ready to be typed.
type Target struct {
	Chars []Char
	Words int
}

// Config defines practice settings.
type Config struct {
	Lang       string  `validate:"required,max=16"`
	Mode       Mode    `validate:"required,oneof=words time"`
	Goal       int     `validate:"gt=0,lte=3600"`
	Source     string  `validate:"required,oneof=static file remote"`
	SourceURL  string  `validate:"omitempty,url"`
	WordList   string  `validate:"required_if=Source file"`
	FocusWeak  bool    `validate:"-"`
	WeakTop    int     `validate:"gte=0"`
	WeakFactor float64 `validate:"gte=0"`
	WeakWindow int     `validate:"gte=0"`
}

// StatsConfig defines filters and options for stats output.
type StatsConfig struct {
	Lang        string
	Mode        Mode
	Since       *time.Time
	Last        int
	CurveWindow int
	Chars       string
}

// SessionStats captures a completed typing session.
type SessionStats struct {
	UUID           string
	StartedAt      time.Time
	EndedAt        time.Time
	Lang           string
	Mode           Mode
	Goal           int
	CompletedWords int
	CorrectChars   int
	TotalTyped     int
	Mistakes       int
	WPM            int
	Accuracy       int
	DurationMs     int64
}

// CharStats stores per-character stats for a session.
type CharStats struct {
	Char         string
	Correct      int
	Incorrect    int
	LatencySumMs int64
	LatencyCount int64
}

// CharAggregate aggregates character stats across sessions.
type CharAggregate struct {
	Char         string
	Correct      int
	Incorrect    int
	LatencySumMs int64
	LatencyCount int64
}

// SessionAggregate summarizes a session for reporting.
type SessionAggregate struct {
	SessionID    int64
	EndedAt      time.Time
	Mode         Mode
	Goal         int
	WPM          int
	Accuracy     int
	CorrectChars int
	TotalTyped   int
	Mistakes     int
	DurationMs   int64
}
