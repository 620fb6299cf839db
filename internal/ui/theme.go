package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/Akashdeep-Patra/gitsync/internal/git"
)

// Theme holds all colours for the application.
type Theme struct {
	Surface      lipgloss.Color
	SurfaceHover lipgloss.Color
	Border       lipgloss.Color

	Text        lipgloss.Color
	TextMuted   lipgloss.Color
	TextSubtle  lipgloss.Color
	TextInverse lipgloss.Color

	Primary   lipgloss.Color
	Secondary lipgloss.Color

	Added     lipgloss.Color
	Modified  lipgloss.Color
	Deleted   lipgloss.Color
	Renamed   lipgloss.Color
	Conflict  lipgloss.Color
	Untracked lipgloss.Color

	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	Info    lipgloss.Color

	BranchHead lipgloss.Color
}

// DarkTheme is the default palette (Catppuccin Mocha).
func DarkTheme() Theme {
	return Theme{
		Surface:      lipgloss.Color("#282840"),
		SurfaceHover: lipgloss.Color("#313152"),
		Border:       lipgloss.Color("#3b3b5c"),

		Text:        lipgloss.Color("#cdd6f4"),
		TextMuted:   lipgloss.Color("#9399b2"),
		TextSubtle:  lipgloss.Color("#6c7086"),
		TextInverse: lipgloss.Color("#1e1e2e"),

		Primary:   lipgloss.Color("#89b4fa"),
		Secondary: lipgloss.Color("#b4befe"),

		Added:     lipgloss.Color("#a6e3a1"),
		Modified:  lipgloss.Color("#f9e2af"),
		Deleted:   lipgloss.Color("#f38ba8"),
		Renamed:   lipgloss.Color("#89dceb"),
		Conflict:  lipgloss.Color("#fab387"),
		Untracked: lipgloss.Color("#9399b2"),

		Success: lipgloss.Color("#a6e3a1"),
		Warning: lipgloss.Color("#f9e2af"),
		Error:   lipgloss.Color("#f38ba8"),
		Info:    lipgloss.Color("#89b4fa"),

		BranchHead: lipgloss.Color("#89b4fa"),
	}
}

// LightTheme is the light palette (Catppuccin Latte).
func LightTheme() Theme {
	return Theme{
		Surface:      lipgloss.Color("#e6e9ef"),
		SurfaceHover: lipgloss.Color("#dce0e8"),
		Border:       lipgloss.Color("#bcc0cc"),

		Text:        lipgloss.Color("#4c4f69"),
		TextMuted:   lipgloss.Color("#6c6f85"),
		TextSubtle:  lipgloss.Color("#8c8fa1"),
		TextInverse: lipgloss.Color("#eff1f5"),

		Primary:   lipgloss.Color("#1e66f5"),
		Secondary: lipgloss.Color("#7287fd"),

		Added:     lipgloss.Color("#40a02b"),
		Modified:  lipgloss.Color("#df8e1d"),
		Deleted:   lipgloss.Color("#d20f39"),
		Renamed:   lipgloss.Color("#04a5e5"),
		Conflict:  lipgloss.Color("#fe640b"),
		Untracked: lipgloss.Color("#6c6f85"),

		Success: lipgloss.Color("#40a02b"),
		Warning: lipgloss.Color("#df8e1d"),
		Error:   lipgloss.Color("#d20f39"),
		Info:    lipgloss.Color("#1e66f5"),

		BranchHead: lipgloss.Color("#1e66f5"),
	}
}

// ThemeByName returns the named theme, dark for anything unknown.
func ThemeByName(name string) Theme {
	if name == "light" {
		return LightTheme()
	}
	return DarkTheme()
}

// Styles holds pre-computed lipgloss styles derived from a Theme.
type Styles struct {
	Theme Theme

	StatusBar lipgloss.Style
	HelpBar   lipgloss.Style
	Title     lipgloss.Style
	Muted     lipgloss.Style
	KeyBind   lipgloss.Style
	KeyDesc   lipgloss.Style

	ListItem     lipgloss.Style
	ListSelected lipgloss.Style
	Folder       lipgloss.Style

	// Git file statuses
	FileAdded     lipgloss.Style
	FileModified  lipgloss.Style
	FileDeleted   lipgloss.Style
	FileRenamed   lipgloss.Style
	FileConflict  lipgloss.Style
	FileUntracked lipgloss.Style
	FileStaged    lipgloss.Style

	// Diff
	DiffFile       lipgloss.Style
	DiffAdded      lipgloss.Style
	DiffRemoved    lipgloss.Style
	DiffContext    lipgloss.Style
	DiffHunkHeader lipgloss.Style
	DiffMeta       lipgloss.Style
	DiffLineNum    lipgloss.Style
	DiffEscape     lipgloss.Style
	DiffTrailing   lipgloss.Style
}

// NewStyles builds all styles from the given theme.
func NewStyles(t Theme) Styles {
	s := Styles{Theme: t}

	s.StatusBar = lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface).Padding(0, 1)
	s.HelpBar = lipgloss.NewStyle().Foreground(t.TextSubtle).Padding(0, 1)
	s.Title = lipgloss.NewStyle().Foreground(t.Text).Bold(true)
	s.Muted = lipgloss.NewStyle().Foreground(t.TextMuted)
	s.KeyBind = lipgloss.NewStyle().Foreground(t.Primary).Bold(true)
	s.KeyDesc = lipgloss.NewStyle().Foreground(t.TextMuted)

	s.ListItem = lipgloss.NewStyle().Foreground(t.Text).PaddingLeft(2)
	s.ListSelected = lipgloss.NewStyle().Foreground(t.Text).Background(t.SurfaceHover).Bold(true).PaddingLeft(1)
	s.Folder = lipgloss.NewStyle().Foreground(t.Secondary)

	s.FileAdded = lipgloss.NewStyle().Foreground(t.Added)
	s.FileModified = lipgloss.NewStyle().Foreground(t.Modified)
	s.FileDeleted = lipgloss.NewStyle().Foreground(t.Deleted).Strikethrough(true)
	s.FileRenamed = lipgloss.NewStyle().Foreground(t.Renamed)
	s.FileConflict = lipgloss.NewStyle().Foreground(t.Conflict).Bold(true)
	s.FileUntracked = lipgloss.NewStyle().Foreground(t.Untracked)
	s.FileStaged = lipgloss.NewStyle().Foreground(t.Success).Bold(true)

	s.DiffFile = lipgloss.NewStyle().Foreground(t.Primary).Bold(true)
	s.DiffAdded = lipgloss.NewStyle().Foreground(t.Added)
	s.DiffRemoved = lipgloss.NewStyle().Foreground(t.Deleted)
	s.DiffContext = lipgloss.NewStyle().Foreground(t.TextMuted)
	s.DiffHunkHeader = lipgloss.NewStyle().Foreground(t.Secondary).Italic(true)
	s.DiffMeta = lipgloss.NewStyle().Foreground(t.TextSubtle)
	s.DiffLineNum = lipgloss.NewStyle().Foreground(t.TextSubtle).Width(5).Align(lipgloss.Right)
	s.DiffEscape = lipgloss.NewStyle().Foreground(t.TextInverse).Background(t.Warning)
	s.DiffTrailing = lipgloss.NewStyle().Background(t.Error)

	return s
}

// DefaultStyles returns styles using the dark theme.
func DefaultStyles() Styles {
	return NewStyles(DarkTheme())
}

// FileStyle returns the style and one-letter code for a file's flags.
func (s Styles) FileStyle(f git.Flags) (lipgloss.Style, string) {
	switch f.Primary() {
	case git.StatusAdded:
		return s.FileAdded, "A"
	case git.StatusModified:
		return s.FileModified, "M"
	case git.StatusDeleted:
		return s.FileDeleted, "D"
	case git.StatusRenamed:
		return s.FileRenamed, "R"
	case git.StatusCopied:
		return s.FileRenamed, "C"
	case git.StatusUnmerged:
		return s.FileConflict, "U"
	case git.StatusUntracked:
		return s.FileUntracked, "?"
	case git.StatusIgnored:
		return s.Muted, "!"
	default:
		return s.Muted, " "
	}
}
