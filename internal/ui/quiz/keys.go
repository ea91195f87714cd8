package quiz

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

type keyMap struct {
	Options [4]key.Binding
	Next    key.Binding
	Quit    key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Options: [4]key.Binding{
			key.NewBinding(key.WithKeys("a", "1"), key.WithHelp("a-d/1-4", "answer")),
			key.NewBinding(key.WithKeys("b", "2")),
			key.NewBinding(key.WithKeys("c", "3")),
			key.NewBinding(key.WithKeys("d", "4")),
		},
		Next: key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "next question")),
		Quit: key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Options[0], k.Next, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

// optionFor returns the option index bound to msg.
func (k keyMap) optionFor(msg tea.KeyMsg) (int, bool) {
	for i, b := range k.Options {
		if key.Matches(msg, b) {
			return i, true
		}
	}
	return 0, false
}
