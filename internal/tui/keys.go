package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/klava/internal/engine"
)

type keyMap struct {
	Restart    key.Binding
	ToggleMode key.Binding
	CycleGoal  key.Binding
	Quit       key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Restart: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "restart"),
		),
		ToggleMode: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("ctrl+o", "words/time"),
		),
		CycleGoal: key.NewBinding(
			key.WithKeys("ctrl+g"),
			key.WithHelp("ctrl+g", "goal"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "esc"),
			key.WithHelp("esc", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Restart, k.ToggleMode, k.CycleGoal, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

// keysFromMsg maps a terminal key event to engine input. Pasted text is
// dropped since it is not typing.
func keysFromMsg(msg tea.KeyMsg) []engine.Key {
	switch msg.Type {
	case tea.KeyBackspace, tea.KeyDelete:
		return []engine.Key{{Kind: engine.KeyBackspace}}
	case tea.KeySpace:
		return []engine.Key{{Kind: engine.KeySpace, Rune: ' '}}
	case tea.KeyRunes:
		if msg.Paste || msg.Alt {
			return nil
		}
		keys := make([]engine.Key, 0, len(msg.Runes))
		for _, r := range msg.Runes {
			keys = append(keys, engine.RuneKey(r))
		}
		return keys
	default:
		return nil
	}
}
