// Package hosts renders profile entries into hosts file content and writes
// that content to the system hosts file.
package hosts

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"text/template"
)

// ErrRender is returned when hosts content cannot be produced.
var ErrRender = errors.New("render failed")

// Entry is one line of rendered output.
type Entry struct {
	Host    string
	Address string
}

// RenderOptions controls the static parts of the rendered file.
type RenderOptions struct {
	// Header adds comment lines naming the profile.
	Header bool
	// Preamble lines are written before the profile entries.
	Preamble []string
	// Template replaces the built-in text/template when non-empty. It sees
	// .Header, .Profile, .Preamble and .Entries (each with .Host, .Address).
	Template string
}

// DefaultTemplate is the built-in hosts file layout.
const DefaultTemplate = `{{- if .Header -}}
# Managed by hostctl - do not edit by hand
# Profile: {{ .Profile }}

{{ end -}}
{{- range .Preamble }}{{ . }}
{{ end -}}
{{- if and .Preamble .Entries }}
{{ end -}}
{{- range .Entries }}{{ .Address }} {{ .Host }}
{{ end -}}
`

// Renderer turns a profile's entries into hosts file content.
type Renderer struct {
	opts RenderOptions
	tmpl *template.Template
}

// NewRenderer creates a renderer, parsing opts.Template when set.
func NewRenderer(opts RenderOptions) (*Renderer, error) {
	text := opts.Template
	if text == "" {
		text = DefaultTemplate
	}

	tmpl, err := template.New("hosts").Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("%w: parse template: %w", ErrRender, err)
	}

	return &Renderer{opts: opts, tmpl: tmpl}, nil
}

type templateData struct {
	Header   bool
	Profile  string
	Preamble []string
	Entries  []Entry
}

// Render produces the hosts file for profile. Entries are sorted by host so
// equal input always yields identical output.
func (r *Renderer) Render(profile string, entries []Entry) (string, error) {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Host != sorted[j].Host {
			return sorted[i].Host < sorted[j].Host
		}
		return sorted[i].Address < sorted[j].Address
	})

	preamble := make([]string, 0, len(r.opts.Preamble))
	for _, line := range r.opts.Preamble {
		if line = strings.TrimSpace(line); line != "" {
			preamble = append(preamble, line)
		}
	}

	var sb strings.Builder
	err := r.tmpl.Execute(&sb, templateData{
		Header:   r.opts.Header,
		Profile:  profile,
		Preamble: preamble,
		Entries:  sorted,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRender, err)
	}

	return sb.String(), nil
}
