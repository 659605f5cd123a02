package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/samber/lo"

	"github.com/lukaszraczylo/hostctl/internal/hosts"
)

// backupListWidth is the width of the backup table next to the preview.
const backupListWidth = 44

// BackupPicker is the cursor over the hosts file backups. The selected
// backup's content is shown in the model's preview viewport.
type BackupPicker struct {
	backups    []hosts.BackupInfo
	cursor     int
	confirming bool
}

// NewBackupPicker creates an empty picker.
func NewBackupPicker() *BackupPicker {
	return &BackupPicker{}
}

// SetBackups replaces the listed backups and leaves confirmation.
func (b *BackupPicker) SetBackups(backups []hosts.BackupInfo) {
	b.backups = backups
	b.confirming = false
	b.cursor = min(b.cursor, max(0, len(backups)-1))
}

func (b *BackupPicker) MoveUp() bool {
	if b.cursor == 0 {
		return false
	}
	b.cursor--
	return true
}

func (b *BackupPicker) MoveDown() bool {
	if b.cursor >= len(b.backups)-1 {
		return false
	}
	b.cursor++
	return true
}

// Selected returns the name of the backup under the cursor.
func (b *BackupPicker) Selected() string {
	if b.cursor < len(b.backups) {
		return b.backups[b.cursor].Name
	}
	return ""
}

func (b *BackupPicker) Len() int {
	return len(b.backups)
}

// Confirm asks for restore confirmation of the selected backup.
func (b *BackupPicker) Confirm() {
	b.confirming = b.Selected() != ""
}

func (b *BackupPicker) Confirming() bool {
	return b.confirming
}

func (b *BackupPicker) Cancel() {
	b.confirming = false
}

// View renders the backup table.
func (b *BackupPicker) View() string {
	if len(b.backups) == 0 {
		return helpDescStyle.Render("  No backups yet. One is taken before every apply.")
	}

	rows := lo.Map(b.backups, func(info hosts.BackupInfo, _ int) []string {
		return []string{
			info.ModTime.Local().Format("2006-01-02 15:04:05"),
			formatSize(info.Size),
		}
	})

	return table.New().
		Border(lipgloss.HiddenBorder()).
		Headers("TAKEN", "SIZE").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			base := lipgloss.NewStyle().Padding(0, 1)
			switch {
			case row == table.HeaderRow:
				return base.Bold(true).Foreground(colorHeader)
			case row == b.cursor:
				return base.Background(colorSelectedBg).Foreground(colorSelectedFg)
			}
			return base
		}).
		Render()
}

// confirmView asks whether to overwrite target with the selected backup.
func (b *BackupPicker) confirmView(target string) string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Restore Backup"))
	sb.WriteString("\n\n")
	sb.WriteString(warningStyle.Render(fmt.Sprintf("Overwrite %s with %s?", target, b.Selected())))
	sb.WriteString("\n\n")
	sb.WriteString(helpDescStyle.Render("y restore • n/Esc keep current"))
	return dialogStyle.Render(sb.String())
}

// formatSize formats bytes to human readable format.
func formatSize(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
	)

	switch {
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
