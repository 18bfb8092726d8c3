package tui

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/klava/internal/engine"
	"github.com/verte-zerg/klava/internal/generator"
	"github.com/verte-zerg/klava/internal/model"
	"github.com/verte-zerg/klava/internal/store"
)

func newTestModel(t *testing.T, st *store.Store, mode model.Mode, goal int) *Model {
	t.Helper()
	eng, err := engine.New(generator.NewWithSeed(1), []string{"да"}, mode, goal)
	if err != nil {
		t.Fatalf("engine.New failed: %v", err)
	}
	cfg := model.Config{Lang: "ru", Mode: mode, Goal: goal, Source: "static"}
	return NewModel(cfg, st, eng, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestRenderFooterFormats(t *testing.T) {
	m := newTestModel(t, nil, model.ModeWords, 25)
	m.hasLast = true
	m.lastWPM = 72
	m.lastAcc = 98
	m.allCorrect = 600
	m.allTyped = 100
	m.allMistakes = 3
	m.allDuration = 120000

	out := m.renderFooter()
	for _, want := range []string{"words 25", "Last 72 WPM · 98%", "All-time 60.0 WPM", "97.0%"} {
		if !strings.Contains(out, want) {
			t.Fatalf("footer missing %q: %s", want, out)
		}
	}
}

func TestRenderHeaderShowsElapsedInWordMode(t *testing.T) {
	v := engine.View{Mode: model.ModeWords, CompletedWords: 3, WordGoal: 25}
	if got := renderHeader(v, 0); !strings.Contains(got, "3/25") || strings.Contains(got, "·") {
		t.Fatalf("expected bare progress before typing, got %q", got)
	}
	v.Started = true
	if got := renderHeader(v, 12*time.Second+400*time.Millisecond); !strings.Contains(got, "3/25 · 12s") {
		t.Fatalf("expected elapsed seconds, got %q", got)
	}
	timed := engine.View{Mode: model.ModeTime, Remaining: 17, Started: true}
	if got := renderHeader(timed, 13*time.Second); !strings.Contains(got, "17s") || strings.Contains(got, "13s") {
		t.Fatalf("expected countdown only in time mode, got %q", got)
	}
}

func TestTypingFinishesAndPersists(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "klava.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	m := newTestModel(t, st, model.ModeWords, 2)

	m.Update(runes("да"))
	m.Update(tea.KeyMsg{Type: tea.KeySpace})
	m.Update(runes("д"))
	m.Update(runes("а"))

	v := m.engine.View()
	if !v.Finished || v.Result.Accuracy != 100 {
		t.Fatalf("expected finished session, got %+v", v)
	}
	if !strings.Contains(m.View(), "Accuracy  100%") {
		t.Fatalf("expected result screen, got %q", m.View())
	}
	sessions, err := st.ListSessions(context.Background(), model.StatsConfig{Lang: "ru"})
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(sessions) != 1 || sessions[0].Goal != 2 || sessions[0].Mode != model.ModeWords {
		t.Fatalf("expected one stored session, got %+v", sessions)
	}
	if !m.hasLast || m.lastAcc != 100 {
		t.Fatalf("expected footer to track last session")
	}

	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if v := m.engine.View(); !v.Active || v.Cursor != 0 {
		t.Fatalf("expected restart on tab")
	}
}

func TestTimeModeTickLoop(t *testing.T) {
	m := newTestModel(t, nil, model.ModeTime, 2)

	_, cmd := m.Update(runes("д"))
	if cmd == nil {
		t.Fatalf("expected first keystroke to schedule a tick")
	}
	epoch := m.engine.View().TimerEpoch

	if cmd := m.handleTick(tickMsg{epoch: epoch - 1}); cmd != nil {
		t.Fatalf("stale tick must not reschedule")
	}
	if cmd := m.handleTick(tickMsg{epoch: epoch}); cmd == nil {
		t.Fatalf("expected next tick to be scheduled")
	}
	if got := m.engine.View().Remaining; got != 1 {
		t.Fatalf("expected 1 second left, got %d", got)
	}
	if cmd := m.handleTick(tickMsg{epoch: epoch}); cmd != nil {
		t.Fatalf("expired timer must stop the loop")
	}
	if !m.engine.View().Finished {
		t.Fatalf("expected session to finish on expiry")
	}
}

func TestModeAndGoalSwitching(t *testing.T) {
	m := newTestModel(t, nil, model.ModeWords, 25)

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlG})
	if got := m.engine.Goal(); got != 50 {
		t.Fatalf("expected goal 50, got %d", got)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlO})
	if m.engine.Mode() != model.ModeTime || m.engine.Goal() != 30 {
		t.Fatalf("expected time 30, got %s %d", m.engine.Mode(), m.engine.Goal())
	}
	if got := m.engine.View().Remaining; got != 30 {
		t.Fatalf("expected countdown armed at 30, got %d", got)
	}
	if !strings.Contains(m.View(), "30s") {
		t.Fatalf("expected countdown header")
	}
}

func TestKeysFromMsg(t *testing.T) {
	cases := []struct {
		name string
		msg  tea.KeyMsg
		want []engine.Key
	}{
		{"backspace", tea.KeyMsg{Type: tea.KeyBackspace}, []engine.Key{{Kind: engine.KeyBackspace}}},
		{"space", tea.KeyMsg{Type: tea.KeySpace}, []engine.Key{{Kind: engine.KeySpace, Rune: ' '}}},
		{"rune", runes("ж"), []engine.Key{{Kind: engine.KeyRune, Rune: 'ж'}}},
		{"paste", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("кот"), Paste: true}, nil},
		{"alt", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x"), Alt: true}, nil},
		{"arrow", tea.KeyMsg{Type: tea.KeyLeft}, nil},
	}
	for _, tc := range cases {
		got := keysFromMsg(tc.msg)
		if len(got) != len(tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
			}
		}
	}
}
