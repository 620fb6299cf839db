package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"

	"github.com/Akashdeep-Patra/gitsync/internal/config"
)

// KeyMap holds the bindings of the working-tree view.
type KeyMap struct {
	Quit    key.Binding
	Up      key.Binding
	Down    key.Binding
	Stage   key.Binding
	Diff    key.Binding
	Discard key.Binding
	Refresh key.Binding
	Back    key.Binding
}

// NewKeyMap builds bindings from configured key lists.
func NewKeyMap(kb config.KeyBindings) KeyMap {
	return KeyMap{
		Quit:    binding(kb.Quit, "quit"),
		Up:      binding(kb.Up, "up"),
		Down:    binding(kb.Down, "down"),
		Stage:   binding(kb.Stage, "stage/unstage"),
		Diff:    binding(kb.Diff, "diff/expand"),
		Discard: binding(kb.Discard, "discard"),
		Refresh: binding(kb.Refresh, "refresh"),
		Back:    binding(kb.Back, "back"),
	}
}

// DefaultKeyMap returns the default bindings.
func DefaultKeyMap() KeyMap { return NewKeyMap(config.DefaultKeyBindings()) }

func binding(keys, desc string) key.Binding {
	var names, list []string
	for _, k := range strings.Split(keys, ",") {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		names = append(names, k)
		list = append(list, k)
		// Older terminals report the space bar as " ".
		if k == "space" {
			list = append(list, " ")
		}
	}
	return key.NewBinding(key.WithKeys(list...), key.WithHelp(strings.Join(names, "/"), desc))
}

// ShortHelp lists the bindings shown in the help bar.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Stage, k.Diff, k.Discard, k.Refresh, k.Quit}
}
