// Package generator builds typing target sequences.
package generator

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/verte-zerg/klava/internal/model"
)

// TimePoolWords is the number of words drawn for a time-bounded session.
// The session runs until the timer, so the pool only has to be long enough.
const TimePoolWords = 100

// ErrEmptyVocabulary is returned when there are no words to draw from.
var ErrEmptyVocabulary = errors.New("empty vocabulary")

// Generator produces randomized typing targets.
type Generator struct {
	rnd *rand.Rand
}

// New returns a Generator seeded with the current time.
func New() *Generator {
	return NewWithSeed(time.Now().UnixNano())
}

// NewWithSeed returns a Generator with a fixed seed.
func NewWithSeed(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

// WordCount returns how many words a session of the given mode and goal needs.
func WordCount(mode model.Mode, goal int) int {
	if mode == model.ModeTime {
		return TimePoolWords
	}
	return goal
}

// Generate selects words uniformly with replacement and joins them into a target.
func (g *Generator) Generate(mode model.Mode, goal int, words []string) (model.Target, error) {
	count, err := checkArgs(mode, goal, words)
	if err != nil {
		return model.Target{}, err
	}
	picked := make([]string, 0, count)
	for i := 0; i < count; i++ {
		picked = append(picked, words[g.rnd.Intn(len(words))])
	}
	return Build(picked), nil
}

// GenerateWeighted selects words with a bias toward weak characters.
func (g *Generator) GenerateWeighted(mode model.Mode, goal int, words []string, weakSet map[rune]struct{}, factor float64) (model.Target, error) {
	count, err := checkArgs(mode, goal, words)
	if err != nil {
		return model.Target{}, err
	}
	weights := make([]float64, len(words))
	total := 0.0
	for i, word := range words {
		weakCount := 0
		for _, r := range strings.ToLower(word) {
			if _, ok := weakSet[r]; ok {
				weakCount++
			}
		}
		w := 1.0 + float64(weakCount)*factor
		weights[i] = w
		total += w
	}

	picked := make([]string, 0, count)
	for i := 0; i < count; i++ {
		r := g.rnd.Float64() * total
		acc := 0.0
		idx := len(words) - 1
		for j, w := range weights {
			acc += w
			if r <= acc {
				idx = j
				break
			}
		}
		picked = append(picked, words[idx])
	}
	return Build(picked), nil
}

// Build lower-cases words and joins them with single separators.
func Build(words []string) model.Target {
	size := 0
	for _, word := range words {
		size += len(word) + 1
	}
	chars := make([]model.Char, 0, size)
	for i, word := range words {
		if i > 0 {
			chars = append(chars, model.Char{Value: model.Separator})
		}
		for _, r := range strings.ToLower(word) {
			chars = append(chars, model.Char{Value: r})
		}
	}
	return model.Target{Chars: chars, Words: len(words)}
}

func checkArgs(mode model.Mode, goal int, words []string) (int, error) {
	if len(words) == 0 {
		return 0, ErrEmptyVocabulary
	}
	switch mode {
	case model.ModeWords, model.ModeTime:
	default:
		return 0, fmt.Errorf("unknown mode %q", mode)
	}
	if goal <= 0 {
		return 0, fmt.Errorf("goal must be > 0, got %d", goal)
	}
	return WordCount(mode, goal), nil
}
