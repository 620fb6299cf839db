package ui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Akashdeep-Patra/gitsync/internal/repo"
)

// StatusBarData carries the info displayed in the bottom status bar.
type StatusBarData struct {
	Branch  string
	State   repo.State
	Files   int
	Staged  int
	Message string // transient info/error message
	IsError bool
	Dir     string
}

// RenderStatusBar renders the bottom status bar.
//
//	main │ 3 changed, 1 staged                     repo-name
func RenderStatusBar(styles Styles, data StatusBarData, width int) string {
	t := styles.Theme
	sep := lipgloss.NewStyle().Foreground(t.Border).Faint(true).Render(" │ ")

	branch := data.Branch
	if branch == "" {
		branch = "-"
	}
	left := " " + lipgloss.NewStyle().Foreground(t.BranchHead).Bold(true).Render(branch)

	switch data.State {
	case repo.Loading:
		left += sep + lipgloss.NewStyle().Foreground(t.Info).Render("loading…")
	case repo.NotInitialised:
		left += sep + lipgloss.NewStyle().Foreground(t.TextInverse).Background(t.Warning).
			Bold(true).Padding(0, 1).Render("NOT A REPOSITORY")
	default:
		if data.Files == 0 {
			left += sep + lipgloss.NewStyle().Foreground(t.Success).Render("✓ clean")
		} else {
			left += sep + lipgloss.NewStyle().Foreground(t.Modified).
				Render(fmt.Sprintf("%d changed, %d staged", data.Files, data.Staged))
		}
	}

	var right string
	if data.Message != "" {
		fg := t.Info
		if data.IsError {
			fg = t.Error
		}
		msg := strings.Join(strings.Fields(strings.ReplaceAll(data.Message, "\n", " ")), " ")
		right = lipgloss.NewStyle().Foreground(fg).Render(msg) + " "
	} else if width >= 60 && data.Dir != "" {
		right = lipgloss.NewStyle().Foreground(t.TextSubtle).Render(filepath.Base(data.Dir)) + " "
	}

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 1
		right = Truncate(right, max(width-lipgloss.Width(left)-1, 0))
	}
	return styles.StatusBar.Width(width).Render(left + strings.Repeat(" ", gap) + right)
}

// RenderHelpBar renders key hints from the key map.
func RenderHelpBar(styles Styles, keys KeyMap, width int) string {
	var parts []string
	for _, b := range keys.ShortHelp() {
		h := b.Help()
		parts = append(parts, styles.KeyBind.Render(h.Key)+" "+styles.KeyDesc.Render(h.Desc))
	}
	return styles.HelpBar.Render(Truncate(strings.Join(parts, "  "), width-2))
}
