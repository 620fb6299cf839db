package config

// KeyBindings maps TUI actions to keys. Each value is a comma-separated
// list of key names as bubbletea reports them.
type KeyBindings struct {
	Quit    string `mapstructure:"quit"`
	Up      string `mapstructure:"up"`
	Down    string `mapstructure:"down"`
	Stage   string `mapstructure:"stage"`
	Diff    string `mapstructure:"diff"`
	Discard string `mapstructure:"discard"`
	Refresh string `mapstructure:"refresh"`
	Back    string `mapstructure:"back"`
}

// DefaultKeyBindings returns the default key bindings.
func DefaultKeyBindings() KeyBindings {
	return KeyBindings{
		Quit:    "q,ctrl+c",
		Up:      "k,up",
		Down:    "j,down",
		Stage:   "space",
		Diff:    "enter",
		Discard: "x",
		Refresh: "r",
		Back:    "esc",
	}
}
