package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/samber/lo"

	"github.com/lukaszraczylo/hostctl/internal/manager"
	"github.com/lukaszraczylo/hostctl/internal/store"
)

// ProfileList shows the registered profiles and the entries of the selected
// one.
type ProfileList struct {
	profiles []manager.Profile
	cursor   int

	entriesFor string
	entries    []store.Entry

	width  int
	height int
}

// NewProfileList creates an empty list.
func NewProfileList() *ProfileList {
	return &ProfileList{}
}

// SetProfiles replaces the profiles. The cursor stays on the same name when
// it is still present.
func (l *ProfileList) SetProfiles(profiles []manager.Profile) {
	selected := l.SelectedName()
	l.profiles = profiles

	if _, idx, ok := lo.FindIndexOf(profiles, func(p manager.Profile) bool {
		return p.Name == selected
	}); ok {
		l.cursor = idx
	}
	if l.cursor >= len(l.profiles) {
		l.cursor = max(0, len(l.profiles)-1)
	}
}

// SetEntries stores the entries shown for profile.
func (l *ProfileList) SetEntries(profile string, entries []store.Entry) {
	l.entriesFor = profile
	l.entries = entries
}

// SetSize sets the view dimensions.
func (l *ProfileList) SetSize(width, height int) {
	l.width = width
	l.height = height
}

// MoveUp moves the cursor up.
func (l *ProfileList) MoveUp() bool {
	if l.cursor > 0 {
		l.cursor--
		return true
	}
	return false
}

// MoveDown moves the cursor down.
func (l *ProfileList) MoveDown() bool {
	if l.cursor < len(l.profiles)-1 {
		l.cursor++
		return true
	}
	return false
}

// Selected returns the profile under the cursor.
func (l *ProfileList) Selected() *manager.Profile {
	if l.cursor >= 0 && l.cursor < len(l.profiles) {
		return &l.profiles[l.cursor]
	}
	return nil
}

// SelectedName returns the name of the profile under the cursor.
func (l *ProfileList) SelectedName() string {
	if p := l.Selected(); p != nil {
		return p.Name
	}
	return ""
}

// Active returns the active profile name, if it is registered.
func (l *ProfileList) Active() string {
	if p, ok := lo.Find(l.profiles, func(p manager.Profile) bool { return p.Active }); ok {
		return p.Name
	}
	return ""
}

// Len returns the number of profiles.
func (l *ProfileList) Len() int {
	return len(l.profiles)
}

// View renders the profile table followed by the selected profile's entries.
func (l *ProfileList) View() string {
	if len(l.profiles) == 0 {
		return "\n" + helpDescStyle.Render("  No profiles. Press 'n' to create one.") + "\n"
	}

	var sb strings.Builder

	sb.WriteString(sectionStyle.Render(fmt.Sprintf(" PROFILES (%d)", len(l.profiles))))
	sb.WriteString("\n")

	rows := lo.Map(l.profiles, func(p manager.Profile, _ int) []string {
		return []string{
			ActiveMarker(p.Active),
			truncate(p.Name, 30),
			fmt.Sprintf("%d", p.EntryCount),
			p.CreatedAt.Local().Format("2006-01-02 15:04"),
		}
	})

	t := table.New().
		Border(lipgloss.HiddenBorder()).
		Headers("", "PROFILE", "ENTRIES", "CREATED").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().
					Bold(true).
					Foreground(colorHeader).
					Padding(0, 1)
			}

			base := lipgloss.NewStyle().Padding(0, 1)
			if row == l.cursor {
				return base.Background(colorSelectedBg).Foreground(colorSelectedFg)
			}
			if row >= 0 && row < len(l.profiles) && l.profiles[row].Active {
				return base.Foreground(colorSuccess)
			}
			return base
		})

	sb.WriteString(t.Render())
	sb.WriteString("\n")
	sb.WriteString(l.entriesView())

	return sb.String()
}

func (l *ProfileList) entriesView() string {
	name := l.SelectedName()
	if name == "" || l.entriesFor != name {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(sectionStyle.Render(fmt.Sprintf(" %s (%d)", strings.ToUpper(name), len(l.entries))))
	sb.WriteString("\n")

	if len(l.entries) == 0 {
		sb.WriteString(helpDescStyle.Render("  No entries. Press '+' to add one."))
		sb.WriteString("\n")
		return sb.String()
	}

	rows := lo.Map(l.entries, func(e store.Entry, _ int) []string {
		return []string{truncate(e.Host, 40), truncate(e.Address, 39)}
	})

	t := table.New().
		Border(lipgloss.HiddenBorder()).
		Headers("HOST", "ADDRESS").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return lipgloss.NewStyle().
					Bold(true).
					Foreground(colorHeader).
					Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})

	sb.WriteString(t.Render())
	sb.WriteString("\n")
	return sb.String()
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
