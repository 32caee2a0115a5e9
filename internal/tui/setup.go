// ABOUTME: Interactive TUI wizard for connecting a Ghost instance.
// ABOUTME: 3-step bubbletea model collecting instance name, site URL, and admin key.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// DefaultInstanceName is offered when no name is typed.
const DefaultInstanceName = "blog"

// Step represents the current wizard step.
type Step int

const (
	StepName Step = iota
	StepURL
	StepAdminKey
	StepValidating
	StepDone
	StepFailed
)

const (
	inputName = iota
	inputURL
	inputKey
)

// validationResultMsg carries the result of an async validation attempt.
type validationResultMsg struct {
	err error
}

// ValidateFn checks a site URL and admin key against the live instance.
type ValidateFn func(ctx context.Context, siteURL, adminKey string) error

// cancelHolder shares a cancel function across bubbletea model copies.
// tea.Model methods take value receivers, so it must be a pointer field.
type cancelHolder struct {
	cancel context.CancelFunc
}

// SetupModel is the bubbletea model for the setup wizard.
type SetupModel struct {
	step          Step
	inputs        [3]textinput.Model
	spinner       spinner.Model
	validateFn    ValidateFn
	cancelCtx     *cancelHolder
	validationErr error
	quitting      bool
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	brandStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	stepStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	promptStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// NewSetupModel creates a setup wizard, pre-filled with an existing instance's values.
func NewSetupModel(name, siteURL, adminKey string) SetupModel {
	nameInput := textinput.New()
	nameInput.Placeholder = DefaultInstanceName
	nameInput.Focus()
	nameInput.Width = 50
	if name != "" {
		nameInput.SetValue(name)
	}

	urlInput := textinput.New()
	urlInput.Placeholder = "https://example.ghost.io"
	urlInput.Width = 50
	if siteURL != "" {
		urlInput.SetValue(siteURL)
	}

	keyInput := textinput.New()
	keyInput.Placeholder = "id:secret"
	keyInput.EchoMode = textinput.EchoPassword
	keyInput.Width = 50
	if adminKey != "" {
		keyInput.SetValue(adminKey)
	}

	s := spinner.New()
	s.Spinner = spinner.Dot

	return SetupModel{
		step:       StepName,
		inputs:     [3]textinput.Model{nameInput, urlInput, keyInput},
		spinner:    s,
		validateFn: ValidateConnection,
		cancelCtx:  &cancelHolder{},
	}
}

// Init implements tea.Model.
func (m SetupModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m SetupModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEscape:
			m.quitting = true
			if m.cancelCtx.cancel != nil {
				m.cancelCtx.cancel()
			}
			return m, tea.Quit
		}

		switch m.step {
		case StepName, StepURL, StepAdminKey:
			return m.updateInput(msg)
		case StepFailed:
			return m.updateFailed(msg)
		}

	case validationResultMsg:
		m.cancelCtx.cancel = nil
		if msg.err == nil {
			m.step = StepDone
			return m, tea.Quit
		}
		m.validationErr = msg.err
		m.step = StepFailed
		return m, nil

	case spinner.TickMsg:
		if m.step == StepValidating {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
	}

	return m, nil
}

func (m SetupModel) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyEnter {
		idx := int(m.step)

		switch m.step {
		case StepName:
			if strings.TrimSpace(m.inputs[inputName].Value()) == "" {
				m.inputs[inputName].SetValue(DefaultInstanceName)
			}
		case StepURL:
			val := strings.TrimRight(strings.TrimSpace(m.inputs[inputURL].Value()), "/")
			val = strings.TrimSuffix(val, "/ghost")
			if val == "" {
				return m, nil
			}
			if !strings.Contains(val, "://") {
				val = "https://" + val
			}
			m.inputs[inputURL].SetValue(val)
		case StepAdminKey:
			if strings.TrimSpace(m.inputs[inputKey].Value()) == "" {
				return m, nil
			}
		}

		m.inputs[idx].Blur()

		switch m.step {
		case StepName:
			m.step = StepURL
			m.inputs[inputURL].Focus()
			return m, textinput.Blink
		case StepURL:
			m.step = StepAdminKey
			m.inputs[inputKey].Focus()
			return m, textinput.Blink
		case StepAdminKey:
			m.step = StepValidating
			return m, tea.Batch(m.startValidation(), m.spinner.Tick)
		}
	}

	idx := int(m.step)
	var cmd tea.Cmd
	m.inputs[idx], cmd = m.inputs[idx].Update(msg)
	return m, cmd
}

func (m SetupModel) updateFailed(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyRunes {
		switch msg.Runes[0] {
		case 'r':
			m.step = StepValidating
			m.validationErr = nil
			return m, tea.Batch(m.startValidation(), m.spinner.Tick)
		case 's':
			m.step = StepDone
			return m, tea.Quit
		case 'q':
			m.quitting = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m SetupModel) startValidation() tea.Cmd {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelCtx.cancel = cancel
	siteURL := m.inputs[inputURL].Value()
	adminKey := strings.TrimSpace(m.inputs[inputKey].Value())
	fn := m.validateFn
	return func() tea.Msg {
		return validationResultMsg{err: fn(ctx, siteURL, adminKey)}
	}
}

// View implements tea.Model.
func (m SetupModel) View() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(brandStyle.Render("   GHOSTPOST"))
	b.WriteString(titleStyle.Render(" - Setup"))
	b.WriteString("\n\n")
	b.WriteString("Connect a Ghost site. Create a custom integration in Ghost Admin to get an admin key.\n\n")

	name := m.inputs[inputName].Value()
	siteURL := m.inputs[inputURL].Value()

	switch m.step {
	case StepName:
		b.WriteString(stepStyle.Render("Step 1 of 3: Instance name"))
		b.WriteString("\n")
		b.WriteString(promptStyle.Render("(press Enter for default)"))
		b.WriteString("\n")
		b.WriteString(m.inputs[inputName].View())
		b.WriteString("\n")

	case StepURL:
		b.WriteString(fmt.Sprintf("  Instance: %s\n\n", name))
		b.WriteString(stepStyle.Render("Step 2 of 3: Site URL"))
		b.WriteString("\n")
		b.WriteString(m.inputs[inputURL].View())
		b.WriteString("\n")

	case StepAdminKey:
		b.WriteString(fmt.Sprintf("  Instance: %s\n", name))
		b.WriteString(fmt.Sprintf("  Site URL: %s\n\n", siteURL))
		b.WriteString(stepStyle.Render("Step 3 of 3: Admin API key"))
		b.WriteString("\n")
		b.WriteString(m.inputs[inputKey].View())
		b.WriteString("\n")

	case StepValidating:
		b.WriteString(fmt.Sprintf("  Instance: %s\n", name))
		b.WriteString(fmt.Sprintf("  Site URL: %s\n", siteURL))
		b.WriteString(fmt.Sprintf("  Admin key: %s\n\n", strings.Repeat("*", len(m.inputs[inputKey].Value()))))
		b.WriteString(m.spinner.View())
		b.WriteString(" Checking admin key...")
		b.WriteString("\n")

	case StepDone:
		b.WriteString(successStyle.Render("✓ Connected!"))
		b.WriteString("\n")

	case StepFailed:
		errMsg := "unknown error"
		if m.validationErr != nil {
			errMsg = m.validationErr.Error()
		}
		b.WriteString(errorStyle.Render(fmt.Sprintf("✗ Validation failed: %s", errMsg)))
		b.WriteString("\n\n")
		b.WriteString(promptStyle.Render("[r]etry  [s]ave anyway  [q]uit"))
		b.WriteString("\n")
	}

	return b.String()
}

// Result returns the entered values.
func (m SetupModel) Result() (name, siteURL, adminKey string) {
	return strings.TrimSpace(m.inputs[inputName].Value()),
		m.inputs[inputURL].Value(),
		strings.TrimSpace(m.inputs[inputKey].Value())
}

// ShouldSave returns true if the wizard completed (via validation success or
// "save anyway") and the user did not cancel with Ctrl+C, Escape, or 'q'.
func (m SetupModel) ShouldSave() bool {
	return m.step == StepDone && !m.quitting
}
