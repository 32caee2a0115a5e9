// ABOUTME: Interactive route picker choosing instance, content type, and slug.
// ABOUTME: Implements the publisher's Prompter by running a bubbletea program.
package tui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/2389-research/ghostpost/internal/document"
	"github.com/2389-research/ghostpost/internal/models"
	"github.com/2389-research/ghostpost/internal/publish"
)

// PickStep is the current picker step.
type PickStep int

const (
	PickInstance PickStep = iota
	PickType
	PickSlug
	PickDone
)

var (
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

var contentTypes = []models.ContentType{models.TypePost, models.TypePage}

// PickerModel is the bubbletea model for choosing a share route.
type PickerModel struct {
	req       publish.RouteRequest
	step      PickStep
	cursor    int
	instance  string
	ctype     models.ContentType
	slug      textinput.Model
	cancelled bool
}

// NewPickerModel creates a picker for the request. A single configured
// instance is selected without asking.
func NewPickerModel(req publish.RouteRequest) PickerModel {
	in := textinput.New()
	in.Placeholder = "post-slug"
	in.Width = 50
	in.SetValue(req.DefaultSlug)

	m := PickerModel{req: req, step: PickInstance, slug: in}
	if len(req.Instances) == 1 {
		m.instance = req.Instances[0]
		m.step = PickType
	}
	return m
}

// Init implements tea.Model.
func (m PickerModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m PickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		if m.step == PickSlug {
			var cmd tea.Cmd
			m.slug, cmd = m.slug.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	switch key.Type {
	case tea.KeyCtrlC, tea.KeyEscape:
		m.cancelled = true
		return m, tea.Quit
	}

	switch m.step {
	case PickInstance:
		return m.updateChoice(key, len(m.req.Instances), func(m *PickerModel, i int) {
			m.instance = m.req.Instances[i]
			m.step = PickType
		})
	case PickType:
		return m.updateChoice(key, len(contentTypes), func(m *PickerModel, i int) {
			m.ctype = contentTypes[i]
			m.step = PickSlug
			m.slug.Focus()
		})
	case PickSlug:
		if key.Type == tea.KeyEnter {
			slug, err := document.Slugify(m.slug.Value())
			if err != nil || slug == "" {
				return m, nil
			}
			m.slug.SetValue(slug)
			m.step = PickDone
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.slug, cmd = m.slug.Update(key)
		return m, cmd
	}
	return m, nil
}

// updateChoice moves the cursor over n options and calls choose on Enter.
func (m PickerModel) updateChoice(key tea.KeyMsg, n int, choose func(*PickerModel, int)) (tea.Model, tea.Cmd) {
	if n == 0 {
		m.cancelled = true
		return m, tea.Quit
	}
	switch key.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < n-1 {
			m.cursor++
		}
	case "enter":
		choose(&m, m.cursor)
		m.cursor = 0
		if m.step == PickSlug {
			return m, textinput.Blink
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m PickerModel) View() string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(titleStyle.Render(fmt.Sprintf("Publish %q", m.req.Note)))
	b.WriteString("\n\n")

	if m.instance != "" {
		b.WriteString(fmt.Sprintf("  %s %s\n", labelStyle.Render("Instance:"), m.instance))
	}
	if m.ctype != "" {
		b.WriteString(fmt.Sprintf("  %s %s\n", labelStyle.Render("Type:"), m.ctype))
	}
	if m.instance != "" || m.ctype != "" {
		b.WriteString("\n")
	}

	switch m.step {
	case PickInstance:
		b.WriteString(stepStyle.Render("Choose a Ghost instance"))
		b.WriteString("\n")
		for i, name := range m.req.Instances {
			b.WriteString(renderOption(name, i == m.cursor))
		}
	case PickType:
		b.WriteString(stepStyle.Render("Publish as"))
		b.WriteString("\n")
		for i, ct := range contentTypes {
			b.WriteString(renderOption(string(ct), i == m.cursor))
		}
	case PickSlug:
		b.WriteString(stepStyle.Render("Slug"))
		b.WriteString("\n")
		b.WriteString(m.slug.View())
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(promptStyle.Render("enter select • esc cancel"))
	b.WriteString("\n")
	return b.String()
}

func renderOption(label string, selected bool) string {
	if selected {
		return cursorStyle.Render("> ") + selectedStyle.Render(label) + "\n"
	}
	return "  " + label + "\n"
}

// Route returns the chosen route. ok is false when the picker was cancelled
// or not finished.
func (m PickerModel) Route() (models.Route, bool) {
	if m.cancelled || m.step != PickDone {
		return models.Route{}, false
	}
	return models.Route{
		Instance: m.instance,
		Type:     m.ctype,
		Slug:     m.slug.Value(),
	}, true
}

// Prompter asks for routes on a terminal.
type Prompter struct {
	In  io.Reader
	Out io.Writer
}

// PromptRoute implements publish.Prompter.
func (p Prompter) PromptRoute(ctx context.Context, req publish.RouteRequest) (models.Route, bool, error) {
	if len(req.Instances) == 0 {
		return models.Route{}, false, fmt.Errorf("no Ghost instances configured; run 'ghostpost setup'")
	}

	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if p.In != nil {
		opts = append(opts, tea.WithInput(p.In))
	}
	if p.Out != nil {
		opts = append(opts, tea.WithOutput(p.Out))
	}

	final, err := tea.NewProgram(NewPickerModel(req), opts...).Run()
	if err != nil {
		return models.Route{}, false, fmt.Errorf("route picker failed: %w", err)
	}
	route, ok := final.(PickerModel).Route()
	return route, ok, nil
}
