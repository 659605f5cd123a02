package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// FormKind selects what the form creates.
type FormKind int

const (
	FormProfile FormKind = iota
	FormEntry
)

// FormField represents a form field index.
type FormField int

const (
	FieldName FormField = iota
	FieldAddress
	FieldCount
)

// Form collects a new profile name or a new host entry.
type Form struct {
	kind    FormKind
	profile string
	fields  []textinput.Model
	focus   FormField
	width   int
}

// NewForm creates a new form.
func NewForm() *Form {
	fields := make([]textinput.Model, FieldCount)

	fields[FieldName] = textinput.New()
	fields[FieldName].CharLimit = 253

	fields[FieldAddress] = textinput.New()
	fields[FieldAddress].Placeholder = "127.0.0.1"
	fields[FieldAddress].CharLimit = 45 // IPv6 max

	return &Form{fields: fields}
}

// InitProfile prepares the form for a new profile name.
func (f *Form) InitProfile() {
	f.reset(FormProfile, "")
	f.fields[FieldName].Placeholder = "staging"
}

// InitEntry prepares the form for a new entry in profile.
func (f *Form) InitEntry(profile string) {
	f.reset(FormEntry, profile)
	f.fields[FieldName].Placeholder = "api.local"
	f.fields[FieldAddress].SetValue("127.0.0.1")
}

func (f *Form) reset(kind FormKind, profile string) {
	f.kind = kind
	f.profile = profile
	for i := range f.fields {
		f.fields[i].Reset()
		f.fields[i].Blur()
	}
	f.focus = FieldName
	f.fields[FieldName].Focus()
}

// Kind returns what the form creates.
func (f *Form) Kind() FormKind {
	return f.kind
}

// Profile returns the profile an entry form adds to.
func (f *Form) Profile() string {
	return f.profile
}

// SetSize sets the form dimensions.
func (f *Form) SetSize(width, height int) {
	f.width = width

	inputWidth := min(50, width-10)
	for i := range f.fields {
		f.fields[i].Width = inputWidth
	}
}

// Update handles input events.
func (f *Form) Update(msg tea.Msg) tea.Cmd {
	if key, ok := msg.(tea.KeyMsg); ok && f.kind == FormEntry {
		switch key.String() {
		case "tab", "down", "shift+tab", "up":
			f.switchField()
			return nil
		}
	}

	var cmd tea.Cmd
	f.fields[f.focus], cmd = f.fields[f.focus].Update(msg)
	return cmd
}

// Two fields only, so next and previous are the same move.
func (f *Form) switchField() {
	f.fields[f.focus].Blur()
	f.focus = (f.focus + 1) % FieldCount
	f.fields[f.focus].Focus()
}

// Values returns the trimmed name (profile or host) and address.
func (f *Form) Values() (name, address string) {
	return strings.TrimSpace(f.fields[FieldName].Value()),
		strings.TrimSpace(f.fields[FieldAddress].Value())
}

// Validate returns a message describing the first missing value.
func (f *Form) Validate() string {
	name, address := f.Values()

	if f.kind == FormProfile {
		if name == "" {
			return "Profile name is required"
		}
		return ""
	}

	if name == "" {
		return "Host is required"
	}
	if address == "" {
		return "Address is required"
	}
	return ""
}

// View renders the form.
func (f *Form) View() string {
	var sb strings.Builder

	if f.kind == FormProfile {
		sb.WriteString(titleStyle.Render("New Profile"))
		sb.WriteString("\n\n")
		f.writeField(&sb, "Name:", FieldName)
		sb.WriteString("\n")
		sb.WriteString(helpDescStyle.Render("Enter save • Esc cancel"))
		return dialogStyle.Render(sb.String())
	}

	sb.WriteString(titleStyle.Render("Add Entry to " + f.profile))
	sb.WriteString("\n\n")
	f.writeField(&sb, "Host:", FieldName)
	f.writeField(&sb, "Address:", FieldAddress)
	sb.WriteString("\n")
	sb.WriteString(helpDescStyle.Render("Tab/↓ next • Shift+Tab/↑ prev • Enter save • Esc cancel"))

	return dialogStyle.Render(sb.String())
}

func (f *Form) writeField(sb *strings.Builder, label string, field FormField) {
	sb.WriteString(inputLabelStyle.Render(label))
	sb.WriteString("\n")
	style := inputStyle
	if f.focus == field {
		style = inputFocusStyle
	}
	sb.WriteString(style.Render(f.fields[field].View()))
	sb.WriteString("\n\n")
}
