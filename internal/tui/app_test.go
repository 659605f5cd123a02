package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lukaszraczylo/hostctl/internal/hosts"
	"github.com/lukaszraczylo/hostctl/internal/manager"
	"github.com/lukaszraczylo/hostctl/internal/store"
)

type fakeBackend struct {
	active   string
	profiles []string
	entries  map[string][]store.Entry
	applied  []string
	err      error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		active:   "default",
		profiles: []string{"default", "work"},
		entries: map[string][]store.Entry{
			"work": {{Host: "api.local", Address: "10.0.0.1"}},
		},
	}
}

func (f *fakeBackend) Profiles(context.Context) ([]manager.Profile, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []manager.Profile
	for _, name := range f.profiles {
		out = append(out, manager.Profile{Name: name, EntryCount: len(f.entries[name]), Active: name == f.active})
	}
	return out, nil
}

func (f *fakeBackend) Entries(_ context.Context, explicit string) (string, []store.Entry, error) {
	return explicit, f.entries[explicit], f.err
}

func (f *fakeBackend) Render(_ context.Context, explicit string) (string, string, error) {
	if f.err != nil {
		return "", "", f.err
	}
	content := ""
	for _, e := range f.entries[explicit] {
		content += e.Address + " " + e.Host + "\n"
	}
	return explicit, content, nil
}

func (f *fakeBackend) Apply(_ context.Context, explicit string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.applied = append(f.applied, explicit)
	return explicit, nil
}

func (f *fakeBackend) UseProfile(_ context.Context, name string) error {
	f.active = name
	return f.err
}

func (f *fakeBackend) CreateProfile(_ context.Context, name string) error {
	f.profiles = append(f.profiles, name)
	return f.err
}

func (f *fakeBackend) DeleteProfile(_ context.Context, name string) error {
	for i, p := range f.profiles {
		if p == name {
			f.profiles = append(f.profiles[:i], f.profiles[i+1:]...)
			delete(f.entries, name)
			return nil
		}
	}
	return manager.ErrProfileNotFound
}

func (f *fakeBackend) AddEntry(_ context.Context, explicit, host, address string) (string, error) {
	f.entries[explicit] = append(f.entries[explicit], store.Entry{Host: host, Address: address})
	return explicit, f.err
}

type fakeBackups struct {
	backups  []hosts.BackupInfo
	contents map[string]string
	restored string
}

func (f *fakeBackups) Path() string {
	return "/etc/hosts"
}

func (f *fakeBackups) ListBackups() ([]hosts.BackupInfo, error) {
	return f.backups, nil
}

func (f *fakeBackups) ReadBackup(name string) (string, error) {
	if content, ok := f.contents[name]; ok {
		return content, nil
	}
	if f.contents != nil {
		return "", errors.New("backup vanished")
	}
	return "content of " + name, nil
}

func (f *fakeBackups) RestoreBackup(name string) error {
	f.restored = name
	return nil
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// send feeds msg to the model and returns the command it produced.
func send(m *Model, msg tea.Msg) tea.Cmd {
	_, cmd := m.Update(msg)
	return cmd
}

// run executes a command known to perform a single backend call and feeds
// the result back into the model.
func run(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	require.NotNil(t, cmd)
	send(m, cmd())
}

// load refreshes profiles and the selected profile's entries.
func load(t *testing.T, m *Model) {
	t.Helper()
	run(t, m, m.refresh())
	if name := m.list.SelectedName(); name != "" {
		run(t, m, m.loadEntries(name))
	}
}

func typeText(m *Model, text string) {
	for _, r := range text {
		send(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func newTestModel(t *testing.T) (*Model, *fakeBackend) {
	t.Helper()
	backend := newFakeBackend()
	m := NewModel(context.Background(), backend, &fakeBackups{})
	send(m, tea.WindowSizeMsg{Width: 120, Height: 40})
	load(t, m)
	return m, backend
}

func TestModel_InitialLoad(t *testing.T) {
	m, _ := newTestModel(t)

	assert.Equal(t, 2, m.list.Len())
	assert.Equal(t, "default", m.list.Active())
	assert.Contains(t, m.View(), "PROFILES (2)")
	assert.Contains(t, m.View(), "active: default")
}

func TestModel_NavigateLoadsEntries(t *testing.T) {
	m, _ := newTestModel(t)

	run(t, m, send(m, key("j")))
	assert.Equal(t, "work", m.list.SelectedName())
	assert.Contains(t, m.View(), "api.local")

	assert.Nil(t, send(m, key("down")))
	run(t, m, send(m, key("k")))
	assert.Equal(t, "default", m.list.SelectedName())
}

func TestModel_UseProfile(t *testing.T) {
	m, backend := newTestModel(t)

	send(m, key("j"))
	run(t, m, send(m, key("enter")))

	assert.Equal(t, "work", backend.active)
	assert.Equal(t, "Active profile: work", m.message)
	assert.Equal(t, "success", m.messageStyle)

	load(t, m)
	assert.Equal(t, "work", m.list.Active())
}

func TestModel_ApplyProfile(t *testing.T) {
	m, backend := newTestModel(t)

	send(m, key("j"))
	run(t, m, send(m, key("a")))

	assert.Equal(t, []string{"work"}, backend.applied)
	assert.Equal(t, "Applied profile: work", m.message)
}

func TestModel_ApplyError(t *testing.T) {
	m, backend := newTestModel(t)
	backend.err = hosts.ErrTargetMissing

	run(t, m, send(m, key("a")))

	assert.Equal(t, "error", m.messageStyle)
	assert.Contains(t, m.message, "hosts file does not exist")
}

func TestModel_Preview(t *testing.T) {
	m, _ := newTestModel(t)

	send(m, key("j"))
	run(t, m, send(m, key("t")))

	assert.Equal(t, ViewPreview, m.mode)
	assert.Contains(t, m.View(), "Preview: work")
	assert.Contains(t, m.View(), "10.0.0.1 api.local")

	send(m, key("esc"))
	assert.Equal(t, ViewList, m.mode)
}

func TestModel_NewProfile(t *testing.T) {
	m, backend := newTestModel(t)

	send(m, key("n"))
	require.Equal(t, ViewForm, m.mode)
	assert.Equal(t, FormProfile, m.form.Kind())

	typeText(m, "staging")
	run(t, m, send(m, key("enter")))

	assert.Equal(t, ViewList, m.mode)
	assert.Contains(t, backend.profiles, "staging")
	assert.Equal(t, "Created profile: staging", m.message)
}

func TestModel_NewProfile_Validation(t *testing.T) {
	m, backend := newTestModel(t)

	send(m, key("n"))
	assert.NotNil(t, send(m, key("enter")))

	assert.Equal(t, ViewForm, m.mode)
	assert.Equal(t, "Profile name is required", m.message)
	assert.Len(t, backend.profiles, 2)

	send(m, key("esc"))
	assert.Equal(t, ViewList, m.mode)
}

func TestModel_AddEntry(t *testing.T) {
	m, backend := newTestModel(t)

	send(m, key("j"))
	send(m, key("+"))
	require.Equal(t, ViewForm, m.mode)
	assert.Equal(t, FormEntry, m.form.Kind())
	assert.Equal(t, "work", m.form.Profile())

	typeText(m, "db.local")
	send(m, key("tab"))
	for i := 0; i < len("127.0.0.1"); i++ {
		send(m, tea.KeyMsg{Type: tea.KeyBackspace})
	}
	typeText(m, "10.0.0.5")
	run(t, m, send(m, key("enter")))

	assert.Contains(t, backend.entries["work"], store.Entry{Host: "db.local", Address: "10.0.0.5"})
}

func TestModel_DeleteProfile(t *testing.T) {
	m, backend := newTestModel(t)

	send(m, key("j"))
	send(m, key("d"))
	require.Equal(t, ViewConfirmDelete, m.mode)
	assert.Contains(t, m.View(), "Profile: ")

	t.Run("cancel", func(t *testing.T) {
		assert.Nil(t, send(m, key("n")))
		assert.Equal(t, ViewList, m.mode)
		assert.Len(t, backend.profiles, 2)
	})

	t.Run("confirm", func(t *testing.T) {
		send(m, key("d"))
		run(t, m, send(m, key("y")))
		assert.Equal(t, []string{"default"}, backend.profiles)

		load(t, m)
		assert.Equal(t, 1, m.list.Len())
	})
}

func TestModel_Backups(t *testing.T) {
	backend := newFakeBackend()
	backups := &fakeBackups{backups: []hosts.BackupInfo{
		{Name: "hosts.2.bak", ModTime: time.Now(), Size: 10},
		{Name: "hosts.1.bak", ModTime: time.Now(), Size: 2048},
	}}
	m := NewModel(context.Background(), backend, backups)
	send(m, tea.WindowSizeMsg{Width: 120, Height: 40})
	load(t, m)

	cmd := send(m, key("b"))
	require.Equal(t, ViewBackups, m.mode)
	assert.Contains(t, m.View(), "BACKUPS (0)")

	run(t, m, cmd)
	assert.Equal(t, 2, m.backupPicker.Len())
	assert.Contains(t, m.View(), "Loading...")

	run(t, m, m.fetchBackupContent(m.backupPicker.Selected()))
	assert.Equal(t, "hosts.2.bak", m.previewName)
	assert.Contains(t, m.View(), "content of hosts.2.bak")
	assert.Contains(t, m.View(), "2.0 KB")

	run(t, m, send(m, key("j")))
	assert.Equal(t, "hosts.1.bak", m.backupPicker.Selected())
	assert.Equal(t, "hosts.1.bak", m.previewName)
	assert.Nil(t, send(m, key("j")))

	t.Run("cancel restore", func(t *testing.T) {
		send(m, key("enter"))
		require.True(t, m.backupPicker.Confirming())
		assert.Contains(t, m.View(), "Overwrite /etc/hosts with hosts.1.bak?")

		assert.Nil(t, send(m, key("esc")))
		assert.False(t, m.backupPicker.Confirming())
		assert.Equal(t, ViewBackups, m.mode)
	})

	t.Run("confirm restore", func(t *testing.T) {
		send(m, key("enter"))
		run(t, m, send(m, key("y")))

		assert.Equal(t, "hosts.1.bak", backups.restored)
		assert.Equal(t, ViewList, m.mode)
		assert.False(t, m.backupPicker.Confirming())
	})
}

func TestModel_BackupPreviewScroll(t *testing.T) {
	long := strings.Repeat("127.0.0.1 host.local\n", 200)
	backups := &fakeBackups{
		backups:  []hosts.BackupInfo{{Name: "hosts.1.bak", ModTime: time.Now()}},
		contents: map[string]string{"hosts.1.bak": long},
	}
	m := NewModel(context.Background(), newFakeBackend(), backups)
	send(m, tea.WindowSizeMsg{Width: 120, Height: 40})

	run(t, m, send(m, key("b")))
	run(t, m, m.fetchBackupContent("hosts.1.bak"))
	assert.Equal(t, 120-backupListWidth-6, m.preview.Width)
	require.Zero(t, m.preview.YOffset)

	send(m, tea.KeyMsg{Type: tea.KeyPgDown})
	assert.Positive(t, m.preview.YOffset)
	assert.Equal(t, ViewBackups, m.mode)
}

func TestModel_BackupReadError(t *testing.T) {
	backups := &fakeBackups{
		backups:  []hosts.BackupInfo{{Name: "hosts.1.bak", ModTime: time.Now()}},
		contents: map[string]string{},
	}
	m := NewModel(context.Background(), newFakeBackend(), backups)
	send(m, tea.WindowSizeMsg{Width: 120, Height: 40})

	run(t, m, send(m, key("b")))
	run(t, m, m.fetchBackupContent("hosts.1.bak"))

	assert.Contains(t, m.View(), "backup vanished")
}

func TestModel_BackupsDisabled(t *testing.T) {
	m := NewModel(context.Background(), newFakeBackend(), nil)

	assert.Nil(t, send(m, key("b")))
	assert.Equal(t, ViewList, m.mode)
}

func TestModel_RefreshError(t *testing.T) {
	m, backend := newTestModel(t)
	backend.err = errors.New("storage unavailable")

	run(t, m, send(m, key("r")))

	assert.Equal(t, "error", m.messageStyle)
	assert.Contains(t, m.message, "Refresh failed")
}

func TestModel_HelpAndQuit(t *testing.T) {
	m, _ := newTestModel(t)

	send(m, key("?"))
	assert.Equal(t, ViewHelp, m.mode)
	assert.Contains(t, m.View(), "Navigate profiles")
	send(m, key("?"))
	assert.Equal(t, ViewList, m.mode)

	cmd := send(m, key("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	cmd = send(m, key("ctrl+c"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestModel_ClearMessage(t *testing.T) {
	m, _ := newTestModel(t)

	m.setSuccess("done")
	send(m, clearMsgMsg{})
	assert.Equal(t, "done", m.message)

	m.messageTime = time.Now().Add(-messageTimeout)
	send(m, clearMsgMsg{})
	assert.Empty(t, m.message)
}
