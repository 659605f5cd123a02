// Package tui provides the interactive profile browser.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lukaszraczylo/hostctl/internal/hosts"
	"github.com/lukaszraczylo/hostctl/internal/manager"
	"github.com/lukaszraczylo/hostctl/internal/store"
)

// Backend is the set of profile operations the browser drives.
type Backend interface {
	Profiles(ctx context.Context) ([]manager.Profile, error)
	Entries(ctx context.Context, explicit string) (string, []store.Entry, error)
	Render(ctx context.Context, explicit string) (string, string, error)
	Apply(ctx context.Context, explicit string) (string, error)
	UseProfile(ctx context.Context, name string) error
	CreateProfile(ctx context.Context, name string) error
	DeleteProfile(ctx context.Context, name string) error
	AddEntry(ctx context.Context, explicit, host, address string) (string, error)
}

// Backups gives access to hosts file backups. It may be nil.
type Backups interface {
	Path() string
	ListBackups() ([]hosts.BackupInfo, error)
	ReadBackup(name string) (string, error)
	RestoreBackup(name string) error
}

// ViewMode represents the current view mode.
type ViewMode int

const (
	ViewList ViewMode = iota
	ViewForm
	ViewPreview
	ViewBackups
	ViewHelp
	ViewConfirmDelete
)

const messageTimeout = 3 * time.Second

// Model is the main Bubble Tea model.
type Model struct {
	ctx     context.Context
	backend Backend
	backups Backups

	mode         ViewMode
	list         *ProfileList
	form         *Form
	preview      viewport.Model
	previewName  string
	backupPicker *BackupPicker

	width         int
	height        int
	message       string
	messageStyle  string // "error" or "success"
	messageTime   time.Time
	pendingDelete string
}

type (
	profilesMsg struct {
		profiles []manager.Profile
		err      error
	}
	entriesMsg struct {
		profile string
		entries []store.Entry
		err     error
	}
	previewMsg struct {
		profile string
		content string
		err     error
	}
	// resultMsg reports a finished mutation.
	resultMsg struct {
		text string
		err  error
	}
	backupsMsg struct {
		backups []hosts.BackupInfo
		err     error
	}
	backupContentMsg struct {
		name    string
		content string
		err     error
	}
	clearMsgMsg struct{}
)

// NewModel creates a new TUI model. backups may be nil.
func NewModel(ctx context.Context, backend Backend, backups Backups) *Model {
	return &Model{
		ctx:          ctx,
		backend:      backend,
		backups:      backups,
		mode:         ViewList,
		list:         NewProfileList(),
		form:         NewForm(),
		preview:      viewport.New(80, 20),
		backupPicker: NewBackupPicker(),
	}
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.refresh(),
		tea.SetWindowTitle("hostctl"),
	)
}

func (m *Model) refresh() tea.Cmd {
	return func() tea.Msg {
		profiles, err := m.backend.Profiles(m.ctx)
		return profilesMsg{profiles: profiles, err: err}
	}
}

func (m *Model) loadEntries(profile string) tea.Cmd {
	if profile == "" {
		return nil
	}
	return func() tea.Msg {
		_, entries, err := m.backend.Entries(m.ctx, profile)
		return entriesMsg{profile: profile, entries: entries, err: err}
	}
}

func (m *Model) renderPreview(profile string) tea.Cmd {
	return func() tea.Msg {
		_, content, err := m.backend.Render(m.ctx, profile)
		return previewMsg{profile: profile, content: content, err: err}
	}
}

func (m *Model) useProfile(name string) tea.Cmd {
	return func() tea.Msg {
		err := m.backend.UseProfile(m.ctx, name)
		return resultMsg{text: fmt.Sprintf("Active profile: %s", name), err: err}
	}
}

func (m *Model) applyProfile(name string) tea.Cmd {
	return func() tea.Msg {
		_, err := m.backend.Apply(m.ctx, name)
		return resultMsg{text: fmt.Sprintf("Applied profile: %s", name), err: err}
	}
}

func (m *Model) createProfile(name string) tea.Cmd {
	return func() tea.Msg {
		err := m.backend.CreateProfile(m.ctx, name)
		return resultMsg{text: fmt.Sprintf("Created profile: %s", name), err: err}
	}
}

func (m *Model) deleteProfile(name string) tea.Cmd {
	return func() tea.Msg {
		err := m.backend.DeleteProfile(m.ctx, name)
		return resultMsg{text: fmt.Sprintf("Deleted profile: %s", name), err: err}
	}
}

func (m *Model) addEntry(profile, host, address string) tea.Cmd {
	return func() tea.Msg {
		_, err := m.backend.AddEntry(m.ctx, profile, host, address)
		return resultMsg{text: fmt.Sprintf("Added %s -> %s to %s", host, address, profile), err: err}
	}
}

func (m *Model) refreshBackups() tea.Cmd {
	return func() tea.Msg {
		backups, err := m.backups.ListBackups()
		return backupsMsg{backups: backups, err: err}
	}
}

func (m *Model) fetchBackupContent(name string) tea.Cmd {
	if name == "" {
		return nil
	}
	return func() tea.Msg {
		content, err := m.backups.ReadBackup(name)
		return backupContentMsg{name: name, content: content, err: err}
	}
}

func (m *Model) restoreBackup(name string) tea.Cmd {
	return func() tea.Msg {
		err := m.backups.RestoreBackup(name)
		return resultMsg{text: "Restored hosts file from backup", err: err}
	}
}

func (m *Model) clearMsg() tea.Cmd {
	return tea.Tick(messageTimeout, func(time.Time) tea.Msg {
		return clearMsgMsg{}
	})
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width, msg.Height-10)
		m.form.SetSize(msg.Width, msg.Height)
		m.layoutPreview()

	case tea.KeyMsg:
		if cmd := m.handleKey(msg); cmd != nil {
			cmds = append(cmds, cmd)
		}

	case profilesMsg:
		if msg.err != nil {
			m.setError(fmt.Sprintf("Refresh failed: %v", msg.err))
			cmds = append(cmds, m.clearMsg())
			break
		}
		m.list.SetProfiles(msg.profiles)
		if cmd := m.loadEntries(m.list.SelectedName()); cmd != nil {
			cmds = append(cmds, cmd)
		}

	case entriesMsg:
		if msg.err != nil {
			m.setError(fmt.Sprintf("Loading entries failed: %v", msg.err))
			cmds = append(cmds, m.clearMsg())
			break
		}
		m.list.SetEntries(msg.profile, msg.entries)

	case previewMsg:
		if msg.err != nil {
			m.setError(fmt.Sprintf("Preview failed: %v", msg.err))
			cmds = append(cmds, m.clearMsg())
			break
		}
		m.mode = ViewPreview
		m.showPreview(msg.profile, msg.content)

	case resultMsg:
		if msg.err != nil {
			m.setError(msg.err.Error())
		} else {
			m.setSuccess(msg.text)
		}
		if m.mode == ViewBackups {
			m.backupPicker.Cancel()
			m.mode = ViewList
		}
		cmds = append(cmds, m.refresh(), m.clearMsg())

	case backupsMsg:
		if msg.err != nil {
			m.setError(fmt.Sprintf("Listing backups failed: %v", msg.err))
			cmds = append(cmds, m.clearMsg())
			break
		}
		m.backupPicker.SetBackups(msg.backups)
		if cmd := m.fetchBackupContent(m.backupPicker.Selected()); cmd != nil {
			cmds = append(cmds, cmd)
		}

	case backupContentMsg:
		if msg.name != m.backupPicker.Selected() {
			break
		}
		if msg.err != nil {
			m.showPreview(msg.name, errorMsgStyle.Render(msg.err.Error()))
			break
		}
		m.showPreview(msg.name, msg.content)

	case clearMsgMsg:
		if time.Since(m.messageTime) >= messageTimeout {
			m.message = ""
		}

	default:
		if m.mode == ViewForm {
			cmds = append(cmds, m.form.Update(msg))
		}
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.String() == "ctrl+c" {
		return tea.Quit
	}

	switch m.mode {
	case ViewList:
		return m.handleListKey(msg)
	case ViewForm:
		return m.handleFormKey(msg)
	case ViewPreview:
		return m.handlePreviewKey(msg)
	case ViewBackups:
		return m.handleBackupKey(msg)
	case ViewHelp:
		return m.handleHelpKey(msg)
	case ViewConfirmDelete:
		return m.handleConfirmDeleteKey(msg)
	}
	return nil
}

func (m *Model) handleListKey(msg tea.KeyMsg) tea.Cmd {
	selected := m.list.SelectedName()

	switch msg.String() {
	case "q":
		return tea.Quit
	case "up", "k":
		if m.list.MoveUp() {
			return m.loadEntries(m.list.SelectedName())
		}
	case "down", "j":
		if m.list.MoveDown() {
			return m.loadEntries(m.list.SelectedName())
		}
	case "enter":
		if selected != "" {
			return m.useProfile(selected)
		}
	case "a":
		if selected != "" {
			return m.applyProfile(selected)
		}
	case "t":
		if selected != "" {
			return m.renderPreview(selected)
		}
	case "n":
		m.form.InitProfile()
		m.mode = ViewForm
	case "+":
		if selected != "" {
			m.form.InitEntry(selected)
			m.mode = ViewForm
		}
	case "d":
		if selected != "" {
			m.pendingDelete = selected
			m.mode = ViewConfirmDelete
		}
	case "b":
		if m.backups != nil {
			m.mode = ViewBackups
			m.showPreview("", "")
			return m.refreshBackups()
		}
	case "?":
		m.mode = ViewHelp
	case "r":
		return m.refresh()
	}
	return nil
}

func (m *Model) handleFormKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		m.mode = ViewList
		return nil
	case "enter":
		if errMsg := m.form.Validate(); errMsg != "" {
			m.setError(errMsg)
			return m.clearMsg()
		}
		m.mode = ViewList
		name, address := m.form.Values()
		if m.form.Kind() == FormProfile {
			return m.createProfile(name)
		}
		return m.addEntry(m.form.Profile(), name, address)
	}

	return m.form.Update(msg)
}

func (m *Model) handlePreviewKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc", "q", "t":
		m.mode = ViewList
		return nil
	}

	var cmd tea.Cmd
	m.preview, cmd = m.preview.Update(msg)
	return cmd
}

func (m *Model) handleBackupKey(msg tea.KeyMsg) tea.Cmd {
	picker := m.backupPicker

	if picker.Confirming() {
		switch msg.String() {
		case "y", "Y":
			return m.restoreBackup(picker.Selected())
		case "n", "N", "esc":
			picker.Cancel()
		}
		return nil
	}

	moved := false
	switch msg.String() {
	case "esc", "q":
		m.mode = ViewList
		return nil
	case "up", "k":
		moved = picker.MoveUp()
	case "down", "j":
		moved = picker.MoveDown()
	case "enter":
		picker.Confirm()
		return nil
	case "r":
		return m.refreshBackups()
	default:
		var cmd tea.Cmd
		m.preview, cmd = m.preview.Update(msg)
		return cmd
	}

	if !moved {
		return nil
	}
	m.showPreview("", "")
	return m.fetchBackupContent(picker.Selected())
}

func (m *Model) handleHelpKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc", "q", "?":
		m.mode = ViewList
	}
	return nil
}

func (m *Model) handleConfirmDeleteKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "y", "Y":
		name := m.pendingDelete
		m.pendingDelete = ""
		m.mode = ViewList
		return m.deleteProfile(name)
	case "n", "N", "esc":
		m.pendingDelete = ""
		m.mode = ViewList
	}
	return nil
}

func (m *Model) setError(msg string) {
	m.message = msg
	m.messageStyle = "error"
	m.messageTime = time.Now()
}

func (m *Model) setSuccess(msg string) {
	m.message = msg
	m.messageStyle = "success"
	m.messageTime = time.Now()
}

// View renders the UI.
func (m *Model) View() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("hostctl - Hosts Profiles"))
	sb.WriteString("\n\n")

	switch m.mode {
	case ViewList:
		sb.WriteString(m.list.View())
	case ViewForm:
		sb.WriteString(m.form.View())
	case ViewPreview:
		sb.WriteString(m.previewView())
	case ViewBackups:
		sb.WriteString(m.backupsView())
	case ViewHelp:
		sb.WriteString(m.helpView())
	case ViewConfirmDelete:
		sb.WriteString(m.confirmDeleteView())
	}

	if m.message != "" {
		sb.WriteString("\n")
		if m.messageStyle == "error" {
			sb.WriteString(errorMsgStyle.Render(m.message))
		} else {
			sb.WriteString(successMsgStyle.Render(m.message))
		}
	}

	currentLines := strings.Count(sb.String(), "\n") + 1

	footerHeight := 2
	var helpBarContent string
	if m.mode == ViewList {
		helpBarContent = m.helpBar()
		footerHeight += strings.Count(helpBarContent, "\n") + 2
	}

	if remaining := m.height - currentLines - footerHeight; remaining > 0 {
		sb.WriteString(strings.Repeat("\n", remaining))
	}

	if m.mode == ViewList {
		sb.WriteString("\n")
		sb.WriteString(helpBarContent)
	}
	sb.WriteString("\n")
	sb.WriteString(m.statusBar())

	return sb.String()
}

func (m *Model) helpBar() string {
	items := []struct{ key, desc string }{
		{"↑↓/jk", "Navigate"},
		{"Enter", "Use"},
		{"a", "Apply"},
		{"t", "Preview"},
		{"n", "New profile"},
		{"+", "Add entry"},
		{"d", "Delete"},
		{"b", "Backups"},
		{"?", "Help"},
		{"q", "Quit"},
	}

	const separator = "  "

	var lines []string
	var current string
	for _, item := range items {
		rendered := helpKeyStyle.Render(item.key) + ": " + item.desc
		if current == "" {
			current = rendered
			continue
		}
		if m.width > 0 && lipgloss.Width(current+separator+rendered) > m.width {
			lines = append(lines, current)
			current = rendered
			continue
		}
		current += separator + rendered
	}
	if current != "" {
		lines = append(lines, current)
	}

	return helpBarStyle.Render(strings.Join(lines, "\n"))
}

func (m *Model) statusBar() string {
	active := m.list.Active()
	if active == "" {
		active = "none"
	}
	return statusBarStyle.Render(fmt.Sprintf("active: %s  |  %d profiles", active, m.list.Len()))
}

func (m *Model) previewView() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Preview: " + m.previewName))
	sb.WriteString("\n\n")
	sb.WriteString(m.preview.View())
	sb.WriteString("\n\n")
	sb.WriteString(helpDescStyle.Render(fmt.Sprintf("%3.f%% • ↑↓ scroll • Esc close", m.preview.ScrollPercent()*100)))

	return sb.String()
}

// showPreview loads content into the preview viewport.
func (m *Model) showPreview(name, content string) {
	m.previewName = name
	m.preview.SetContent(content)
	m.preview.GotoTop()
	m.layoutPreview()
}

// layoutPreview sizes the preview viewport for the current view. In the
// backups view it sits to the right of the backup table.
func (m *Model) layoutPreview() {
	width := m.width - 4
	if m.mode == ViewBackups {
		width = m.width - backupListWidth - 6
	}
	m.preview.Width = max(20, width)
	m.preview.Height = max(5, m.height-8)
}

func (m *Model) backupsView() string {
	picker := m.backupPicker
	if picker.Confirming() {
		return picker.confirmView(m.backups.Path())
	}

	left := sectionStyle.Render(fmt.Sprintf(" BACKUPS (%d)", picker.Len())) + "\n" + picker.View()
	if picker.Len() == 0 {
		return left + "\n\n" + helpDescStyle.Render("Esc back")
	}

	right := helpDescStyle.Render("Loading...")
	if name := picker.Selected(); m.previewName == name {
		right = titleStyle.Render(name) + "\n" + m.preview.View()
	}

	var sb strings.Builder
	sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(backupListWidth).Render(left),
		panelStyle.Render(right),
	))
	sb.WriteString("\n")
	sb.WriteString(helpDescStyle.Render(fmt.Sprintf("↑↓ select • PgUp/PgDn scroll (%3.f%%) • Enter restore • r reload • Esc back", m.preview.ScrollPercent()*100)))
	return sb.String()
}

func (m *Model) helpView() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Help"))
	sb.WriteString("\n\n")

	help := []struct{ key, desc string }{
		{"↑/↓ or j/k", "Navigate profiles"},
		{"Enter", "Make selected profile active"},
		{"a", "Apply selected profile to the hosts file"},
		{"t", "Preview rendered hosts file"},
		{"n", "Create a profile"},
		{"+", "Add an entry to the selected profile"},
		{"d", "Delete selected profile"},
		{"b", "Open backup manager"},
		{"r", "Refresh"},
		{"?", "Toggle this help"},
		{"q", "Quit"},
	}

	for _, h := range help {
		sb.WriteString(fmt.Sprintf("  %s  %s\n",
			helpKeyStyle.Width(15).Render(h.key),
			helpDescStyle.Render(h.desc)))
	}

	sb.WriteString("\n")
	sb.WriteString(helpDescStyle.Render("Press ? or Esc to close"))

	return dialogStyle.Render(sb.String())
}

func (m *Model) confirmDeleteView() string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render("Confirm Delete"))
	sb.WriteString("\n\n")
	sb.WriteString(warningStyle.Render("Delete this profile and all of its entries?"))
	sb.WriteString("\n\n")
	sb.WriteString(fmt.Sprintf("  Profile: %s\n", helpKeyStyle.Render(m.pendingDelete)))
	sb.WriteString("\n")
	sb.WriteString(helpDescStyle.Render("y confirm • n/Esc cancel"))

	return dialogStyle.Render(sb.String())
}

// Run starts the TUI application.
func Run(ctx context.Context, backend Backend, backups Backups) error {
	p := tea.NewProgram(NewModel(ctx, backend, backups), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
