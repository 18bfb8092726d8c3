package server

import (
	"errors"
	"unicode/utf8"

	"github.com/verte-zerg/klava/internal/engine"
	"github.com/verte-zerg/klava/internal/model"
	"github.com/verte-zerg/klava/internal/stats"
)

// Client frame types.
const (
	MsgKey   = "key"
	MsgReset = "reset"
)

// Server frame types.
const (
	MsgView   = "view"
	MsgResult = "result"
	MsgError  = "error"
)

// ClientMsg is a frame sent by the browser.
type ClientMsg struct {
	Type string `json:"t" validate:"required,oneof=key reset"`
	Key  string `json:"k" validate:"omitempty,oneof=rune space backspace restart other"`
	Rune string `json:"r" validate:"omitempty,max=8"`
	Mode string `json:"m" validate:"omitempty,oneof=words time"`
	Goal int    `json:"g" validate:"gte=0,lte=3600"`
}

// ServerMsg is a frame sent to the browser.
type ServerMsg struct {
	Type  string `json:"t"`
	Value any    `json:"v,omitempty"`
	Err   string `json:"err,omitempty"`
}

// CharFrame is one rendered position.
type CharFrame struct {
	Value  string `json:"c"`
	Status string `json:"s"`
	Extra  bool   `json:"x,omitempty"`
}

// ViewFrame mirrors engine.View for the wire.
type ViewFrame struct {
	Chars          []CharFrame   `json:"chars"`
	Cursor         int           `json:"cursor"`
	Mode           model.Mode    `json:"mode"`
	Goal           int           `json:"goal"`
	CompletedWords int           `json:"completed"`
	WordGoal       int           `json:"wordGoal"`
	Remaining      int           `json:"remaining"`
	Mistakes       int           `json:"mistakes"`
	TotalTyped     int           `json:"totalTyped"`
	Started        bool          `json:"started"`
	Active         bool          `json:"active"`
	Finished       bool          `json:"finished"`
	Result         *stats.Result `json:"result,omitempty"`
}

func newViewFrame(v engine.View) ViewFrame {
	chars := make([]CharFrame, len(v.Chars))
	for i, c := range v.Chars {
		chars[i] = CharFrame{Value: string(c.Value), Status: c.Status.String(), Extra: c.Extra}
	}
	frame := ViewFrame{
		Chars:          chars,
		Cursor:         v.Cursor,
		Mode:           v.Mode,
		Goal:           v.Goal,
		CompletedWords: v.CompletedWords,
		WordGoal:       v.WordGoal,
		Remaining:      v.Remaining,
		Mistakes:       v.Mistakes,
		TotalTyped:     v.TotalTyped,
		Started:        v.Started,
		Active:         v.Active,
		Finished:       v.Finished,
	}
	if v.Finished {
		result := v.Result
		frame.Result = &result
	}
	return frame
}

var (
	errMissingKey  = errors.New("key frame needs a key kind")
	errBadRune     = errors.New("rune key needs exactly one character")
	errMissingMode = errors.New("reset frame needs a mode")
)

// keyFromMessage maps a validated key frame to engine input.
func keyFromMessage(msg ClientMsg) (engine.Key, error) {
	switch msg.Key {
	case "":
		return engine.Key{}, errMissingKey
	case "rune":
		if utf8.RuneCountInString(msg.Rune) != 1 {
			return engine.Key{}, errBadRune
		}
		r, _ := utf8.DecodeRuneInString(msg.Rune)
		return engine.RuneKey(r), nil
	case "space":
		return engine.Key{Kind: engine.KeySpace, Rune: ' '}, nil
	case "backspace":
		return engine.Key{Kind: engine.KeyBackspace}, nil
	case "restart":
		return engine.Key{Kind: engine.KeyRestart}, nil
	default:
		return engine.Key{Kind: engine.KeyOther}, nil
	}
}

// resetTarget resolves the mode and goal of a reset frame. A missing goal
// selects the mode's default preset.
func resetTarget(msg ClientMsg) (model.Mode, int, error) {
	mode, ok := model.ParseMode(msg.Mode)
	if !ok {
		return "", 0, errMissingMode
	}
	goal := msg.Goal
	if goal == 0 {
		goal = model.DefaultGoal(mode)
	}
	return mode, goal, nil
}
