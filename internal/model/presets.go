package model

import "slices"

var presets = map[Mode][]int{
	ModeWords: {10, 25, 50},
	ModeTime:  {15, 30, 60},
}

// Presets returns the selectable goals for mode: word counts in word mode,
// seconds in time mode.
func Presets(mode Mode) []int {
	return slices.Clone(presets[mode])
}

// DefaultGoal returns the goal a mode starts with.
func DefaultGoal(mode Mode) int {
	if mode == ModeTime {
		return 30
	}
	return 25
}

// NextPreset returns the preset after goal, wrapping around. A goal that is
// not a preset moves to the first one.
func NextPreset(mode Mode, goal int) int {
	list := presets[mode]
	if len(list) == 0 {
		return goal
	}
	i := slices.Index(list, goal)
	return list[(i+1)%len(list)]
}

// Toggle returns the other mode.
func (m Mode) Toggle() Mode {
	if m == ModeTime {
		return ModeWords
	}
	return ModeTime
}

// ParseMode validates a mode name.
func ParseMode(name string) (Mode, bool) {
	switch Mode(name) {
	case ModeWords, ModeTime:
		return Mode(name), true
	default:
		return "", false
	}
}
