// Package tui provides the Bubble Tea typing interface.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/klava/internal/engine"
	"github.com/verte-zerg/klava/internal/model"
	statsPkg "github.com/verte-zerg/klava/internal/stats"
	"github.com/verte-zerg/klava/internal/store"
)

// tickMsg carries the epoch of the countdown it was scheduled for.
type tickMsg struct {
	epoch uint64
}

// Model implements the Bubble Tea typing UI.
type Model struct {
	config            model.Config
	store             *store.Store
	engine            *engine.Engine
	logger            *slog.Logger
	keys              keyMap
	help              help.Model
	weakNoticePrinted bool

	width  int
	height int

	lastWPM int
	lastAcc int
	hasLast bool

	allCorrect  int
	allTyped    int
	allMistakes int
	allDuration int64
}

var (
	correctStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	incorrectStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	extraStyle       = incorrectStyle.Strikethrough(true)
	pendingStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	currentWordStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	headerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	footerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	resultStyle      = correctStyle.Bold(true).Padding(1, 4).Border(lipgloss.RoundedBorder())
)

// NewModel constructs a typing TUI model around a ready engine. st may be
// nil, in which case sessions are not persisted.
func NewModel(cfg model.Config, st *store.Store, eng *engine.Engine, logger *slog.Logger) *Model {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Model{
		config: cfg,
		store:  st,
		engine: eng,
		logger: logger,
		keys:   defaultKeyMap(),
		help:   help.New(),
	}
	m.loadFooterStats()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil
	case tickMsg:
		return m, m.handleTick(msg)
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Restart):
			m.engine.OnKey(engine.Key{Kind: engine.KeyRestart})
			return m, nil
		case key.Matches(msg, m.keys.ToggleMode):
			mode := m.engine.Mode().Toggle()
			m.reset(mode, model.DefaultGoal(mode))
			return m, nil
		case key.Matches(msg, m.keys.CycleGoal):
			mode := m.engine.Mode()
			m.reset(mode, model.NextPreset(mode, m.engine.Goal()))
			return m, nil
		}
		var cmds []tea.Cmd
		for _, k := range keysFromMsg(msg) {
			cmds = append(cmds, m.apply(m.engine.OnKey(k)))
		}
		return m, tea.Batch(cmds...)
	default:
		return m, nil
	}
}

func (m *Model) handleTick(msg tickMsg) tea.Cmd {
	tr := m.engine.OnTick(msg.epoch)
	if !tr.Changed {
		return nil
	}
	if tr.Finished {
		m.finishSession()
		return nil
	}
	return tick(msg.epoch)
}

// apply reacts to a keystroke transition: the first keystroke of a time
// session arms the tick loop and a finished session is persisted.
func (m *Model) apply(tr engine.Transition) tea.Cmd {
	if tr.Finished {
		m.finishSession()
		return nil
	}
	if v := m.engine.View(); tr.Started && v.TimerRunning {
		return tick(v.TimerEpoch)
	}
	return nil
}

func tick(epoch uint64) tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return tickMsg{epoch: epoch}
	})
}

func (m *Model) reset(mode model.Mode, goal int) {
	if err := m.engine.Reset(mode, goal); err != nil {
		m.logger.Error("failed to reset session", "mode", mode, "goal", goal, "error", err)
		return
	}
	m.config.Mode = mode
	m.config.Goal = goal
}

// View implements tea.Model.
func (m *Model) View() string {
	v := m.engine.View()
	if len(v.Chars) == 0 {
		return ""
	}
	var content string
	if v.Finished {
		content = renderResult(v)
	} else {
		contentWidth := int(float64(m.width) * 0.70)
		if m.width == 0 {
			contentWidth = 0
		} else if contentWidth < 1 {
			contentWidth = 1
		}
		text := wrapStyledRunes(buildStyledRunes(v.Chars, v.Cursor), contentWidth)
		content = lipgloss.JoinVertical(lipgloss.Left, renderHeader(v, m.engine.Elapsed()), "", text)
		if contentWidth > 0 {
			content = lipgloss.NewStyle().Width(contentWidth).Render(content)
		}
	}
	if m.width == 0 || m.height == 0 {
		return content
	}
	footer := m.renderFooter()
	if m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	body := lipgloss.Place(m.width, m.height-2, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	helpLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, m.help.View(m.keys))
	return body + "\n" + footerLine + "\n" + helpLine
}

// renderHeader shows the countdown in time mode. Word mode shows progress
// and, once typing has begun, the elapsed seconds.
func renderHeader(v engine.View, elapsed time.Duration) string {
	if v.Mode == model.ModeTime {
		return headerStyle.Render(fmt.Sprintf("%ds", v.Remaining))
	}
	progress := fmt.Sprintf("%d/%d", v.CompletedWords, v.WordGoal)
	if v.Started {
		progress += fmt.Sprintf(" · %ds", int(elapsed/time.Second))
	}
	return headerStyle.Render(progress)
}

func renderResult(v engine.View) string {
	lines := []string{
		fmt.Sprintf("WPM       %d", v.Result.WPM),
		fmt.Sprintf("Accuracy  %d%%", v.Result.Accuracy),
		footerStyle.Render(fmt.Sprintf("%s %d · tab to restart", v.Mode, v.Goal)),
	}
	return resultStyle.Render(strings.Join(lines, "\n"))
}

func (m *Model) renderFooter() string {
	v := m.engine.View()
	segments := []string{fmt.Sprintf("%s %d", v.Mode, v.Goal)}
	if m.hasLast {
		segments = append(segments, fmt.Sprintf("Last %d WPM · %d%%", m.lastWPM, m.lastAcc))
	}
	if m.allDuration > 0 {
		wpm, _, acc := statsPkg.SessionMetrics(m.allCorrect, m.allTyped, m.allMistakes, m.allDuration)
		segments = append(segments, fmt.Sprintf("All-time %.1f WPM · %.1f%%", wpm, acc*100))
	}
	return footerStyle.Render(strings.Join(segments, "  "))
}

func (m *Model) loadFooterStats() {
	if m.store == nil {
		return
	}
	sessions, err := m.store.ListSessions(context.Background(), model.StatsConfig{Lang: m.config.Lang})
	if err != nil {
		m.logger.Error("failed to load session stats", "error", err)
		return
	}
	if len(sessions) == 0 {
		return
	}
	last := sessions[len(sessions)-1]
	m.lastWPM = last.WPM
	m.lastAcc = last.Accuracy
	m.hasLast = true
	for _, s := range sessions {
		m.allCorrect += s.CorrectChars
		m.allTyped += s.TotalTyped
		m.allMistakes += s.Mistakes
		m.allDuration += s.DurationMs
	}
}

func (m *Model) finishSession() {
	record, chars, ok := m.engine.Record(m.config.Lang)
	if !ok {
		return
	}
	m.lastWPM = record.WPM
	m.lastAcc = record.Accuracy
	m.hasLast = true
	m.allCorrect += record.CorrectChars
	m.allTyped += record.TotalTyped
	m.allMistakes += record.Mistakes
	m.allDuration += record.DurationMs

	if m.store == nil {
		return
	}
	if _, err := m.store.InsertSession(context.Background(), record, chars); err != nil {
		m.logger.Error("failed to save session", "error", err)
		return
	}
	m.logger.Debug("session saved", "mode", record.Mode, "goal", record.Goal, "wpm", record.WPM, "accuracy", record.Accuracy)
	if m.config.FocusWeak {
		m.refreshWeakSet()
	}
}

func (m *Model) refreshWeakSet() {
	aggs, err := m.store.GetWeakChars(context.Background(), m.config.WeakWindow, m.config.Lang)
	if err != nil {
		m.logger.Error("failed to load weak chars", "error", err)
		return
	}
	if len(aggs) == 0 {
		if !m.weakNoticePrinted {
			m.logger.Info("no stats available for weak-char focus yet; using normal generator")
			m.weakNoticePrinted = true
		}
		m.engine.SetWeakFocus(nil, 0)
		return
	}
	m.engine.SetWeakFocus(statsPkg.SelectWeakChars(aggs, m.config.WeakTop), m.config.WeakFactor)
}
