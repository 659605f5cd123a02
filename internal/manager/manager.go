// Package manager implements the profile and entry operations behind the
// hostctl commands on top of the store, renderer and applier.
package manager

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/lukaszraczylo/hostctl/internal/hosts"
	"github.com/lukaszraczylo/hostctl/internal/store"
)

var (
	// ErrProfileNotFound is returned when a profile is not registered.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrEntryNotFound is returned when a host has no entry in a profile.
	ErrEntryNotFound = errors.New("entry not found")
)

// ValidationError describes a rejected argument.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Store is the persistence used by the manager.
type Store interface {
	CreateProfile(ctx context.Context, name string) error
	DeleteProfile(ctx context.Context, name string) (bool, error)
	SetActiveProfile(ctx context.Context, name string) error
	GetActiveProfile(ctx context.Context) (string, error)
	ListProfiles(ctx context.Context) ([]string, error)
	ListProfileInfo(ctx context.Context) ([]store.ProfileInfo, error)
	UpsertEntry(ctx context.Context, profile, host, address string) error
	DeleteEntry(ctx context.Context, profile, host string) (bool, error)
	UpdateEntry(ctx context.Context, profile, host, address string) (bool, error)
	GetEntries(ctx context.Context, profile string) ([]store.Entry, error)
}

// Renderer produces hosts file content for a profile.
type Renderer interface {
	Render(profile string, entries []hosts.Entry) (string, error)
}

// Applier writes or previews hosts file content.
type Applier interface {
	Apply(content string) error
	DryRun(w io.Writer, content string) error
	Current() (string, error)
}

// Profile is a registered profile as shown to the user.
type Profile struct {
	Name       string
	CreatedAt  time.Time
	EntryCount int
	Active     bool
}

// Manager coordinates profile resolution, storage and hosts file output.
type Manager struct {
	store    Store
	renderer Renderer
	applier  Applier
	log      zerolog.Logger
}

// New creates a manager.
func New(s Store, r Renderer, a Applier, logger zerolog.Logger) *Manager {
	return &Manager{
		store:    s,
		renderer: r,
		applier:  a,
		log:      logger,
	}
}

// ResolveProfile picks the profile an operation works on: the explicit name
// verbatim when given, otherwise the active profile, otherwise the default
// profile.
func (m *Manager) ResolveProfile(ctx context.Context, explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}

	active, err := m.store.GetActiveProfile(ctx)
	if err != nil {
		return "", err
	}
	if active == "" {
		return store.DefaultProfile, nil
	}
	return active, nil
}

// AddEntry creates or replaces the entry for host. The profile does not have
// to be registered. It returns the profile the entry was written to.
func (m *Manager) AddEntry(ctx context.Context, explicit, host, address string) (string, error) {
	host, address = strings.TrimSpace(host), strings.TrimSpace(address)
	if err := requireValue("host", host); err != nil {
		return "", err
	}
	if err := requireValue("address", address); err != nil {
		return "", err
	}

	profile, err := m.ResolveProfile(ctx, explicit)
	if err != nil {
		return "", err
	}

	if err := m.store.UpsertEntry(ctx, profile, host, address); err != nil {
		return "", err
	}

	m.log.Debug().Str("profile", profile).Str("host", host).Str("address", address).Msg("entry added")
	return profile, nil
}

// RemoveEntry deletes the entry for host.
func (m *Manager) RemoveEntry(ctx context.Context, explicit, host string) (string, error) {
	host = strings.TrimSpace(host)
	if err := requireValue("host", host); err != nil {
		return "", err
	}

	profile, err := m.ResolveProfile(ctx, explicit)
	if err != nil {
		return "", err
	}

	removed, err := m.store.DeleteEntry(ctx, profile, host)
	if err != nil {
		return "", err
	}
	if !removed {
		return "", fmt.Errorf("%w: %s in profile %s", ErrEntryNotFound, host, profile)
	}

	m.log.Debug().Str("profile", profile).Str("host", host).Msg("entry removed")
	return profile, nil
}

// UpdateEntry changes the address of an existing entry.
func (m *Manager) UpdateEntry(ctx context.Context, explicit, host, address string) (string, error) {
	host, address = strings.TrimSpace(host), strings.TrimSpace(address)
	if err := requireValue("host", host); err != nil {
		return "", err
	}
	if err := requireValue("address", address); err != nil {
		return "", err
	}

	profile, err := m.ResolveProfile(ctx, explicit)
	if err != nil {
		return "", err
	}

	updated, err := m.store.UpdateEntry(ctx, profile, host, address)
	if err != nil {
		return "", err
	}
	if !updated {
		return "", fmt.Errorf("%w: %s in profile %s", ErrEntryNotFound, host, profile)
	}

	m.log.Debug().Str("profile", profile).Str("host", host).Str("address", address).Msg("entry updated")
	return profile, nil
}

// Entries returns the resolved profile and its entries sorted by host.
func (m *Manager) Entries(ctx context.Context, explicit string) (string, []store.Entry, error) {
	profile, err := m.ResolveProfile(ctx, explicit)
	if err != nil {
		return "", nil, err
	}

	entries, err := m.store.GetEntries(ctx, profile)
	if err != nil {
		return "", nil, err
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Host < entries[j].Host
	})
	return profile, entries, nil
}

// Render resolves a registered profile and renders its hosts file content.
func (m *Manager) Render(ctx context.Context, explicit string) (string, string, error) {
	profile, err := m.ResolveProfile(ctx, explicit)
	if err != nil {
		return "", "", err
	}

	if err := m.requireProfile(ctx, profile); err != nil {
		return "", "", err
	}

	entries, err := m.store.GetEntries(ctx, profile)
	if err != nil {
		return "", "", err
	}

	content, err := m.renderer.Render(profile, toHostEntries(entries))
	if err != nil {
		return "", "", err
	}
	return profile, content, nil
}

// Apply renders the profile and replaces the hosts file with it.
func (m *Manager) Apply(ctx context.Context, explicit string) (string, error) {
	profile, content, err := m.Render(ctx, explicit)
	if err != nil {
		return "", err
	}

	if err := m.applier.Apply(content); err != nil {
		return "", err
	}

	m.log.Info().Str("profile", profile).Msg("profile applied")
	return profile, nil
}

// Sync applies the profile only when the hosts file differs from the
// rendered content. It reports whether a write happened.
func (m *Manager) Sync(ctx context.Context, explicit string) (string, bool, error) {
	profile, content, err := m.Render(ctx, explicit)
	if err != nil {
		return "", false, err
	}

	current, err := m.applier.Current()
	if err != nil {
		return "", false, err
	}
	if current == content {
		m.log.Debug().Str("profile", profile).Msg("hosts file up to date")
		return profile, false, nil
	}

	if err := m.applier.Apply(content); err != nil {
		return "", false, err
	}

	m.log.Info().Str("profile", profile).Msg("profile applied")
	return profile, true, nil
}

// Test renders the profile to w without touching the hosts file.
func (m *Manager) Test(ctx context.Context, explicit string, w io.Writer) (string, error) {
	profile, content, err := m.Render(ctx, explicit)
	if err != nil {
		return "", err
	}

	if err := m.applier.DryRun(w, content); err != nil {
		return "", err
	}
	return profile, nil
}

// Current returns the present hosts file content.
func (m *Manager) Current() (string, error) {
	return m.applier.Current()
}

// CreateProfile registers a profile. Creating an existing profile is a no-op.
func (m *Manager) CreateProfile(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if err := requireValue("profile", name); err != nil {
		return err
	}
	if err := m.store.CreateProfile(ctx, name); err != nil {
		return err
	}

	m.log.Debug().Str("profile", name).Msg("profile created")
	return nil
}

// DeleteProfile removes a profile and its entries.
func (m *Manager) DeleteProfile(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if err := requireValue("profile", name); err != nil {
		return err
	}

	removed, err := m.store.DeleteProfile(ctx, name)
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}

	m.log.Debug().Str("profile", name).Msg("profile deleted")
	return nil
}

// UseProfile makes name the active profile. The name is stored as given.
func (m *Manager) UseProfile(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if err := requireValue("profile", name); err != nil {
		return err
	}
	if err := m.store.SetActiveProfile(ctx, name); err != nil {
		return err
	}

	m.log.Debug().Str("profile", name).Msg("active profile changed")
	return nil
}

// ActiveProfile returns the resolved active profile name.
func (m *Manager) ActiveProfile(ctx context.Context) (string, error) {
	return m.ResolveProfile(ctx, "")
}

// Profiles lists registered profiles in name order, marking the active one.
func (m *Manager) Profiles(ctx context.Context) ([]Profile, error) {
	active, err := m.ResolveProfile(ctx, "")
	if err != nil {
		return nil, err
	}

	infos, err := m.store.ListProfileInfo(ctx)
	if err != nil {
		return nil, err
	}

	return lo.Map(infos, func(info store.ProfileInfo, _ int) Profile {
		return Profile{
			Name:       info.Name,
			CreatedAt:  info.CreatedAt,
			EntryCount: info.EntryCount,
			Active:     info.Name == active,
		}
	}), nil
}

func (m *Manager) requireProfile(ctx context.Context, name string) error {
	names, err := m.store.ListProfiles(ctx)
	if err != nil {
		return err
	}
	if !lo.Contains(names, name) {
		return fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	return nil
}

func toHostEntries(entries []store.Entry) []hosts.Entry {
	return lo.Map(entries, func(e store.Entry, _ int) hosts.Entry {
		return hosts.Entry{Host: e.Host, Address: e.Address}
	})
}

func requireValue(field, value string) error {
	if value == "" {
		return ValidationError{Field: field, Message: "must not be empty"}
	}
	return nil
}
