package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fahmaliyi/totpvault/breach"
	"github.com/fahmaliyi/totpvault/vault"
)

type model struct {
	app        *App
	ctx        context.Context
	entries    []vault.Credential
	cursor     int
	state      string // "table", "addEntry", "confirmBreach", "copyAuth", "busy"
	textInputs []textinput.Model
	master     textinput.Model
	pending    pendingEntry
	msg        string
	errMsg     string
}

type pendingEntry struct {
	service, username, password string
	breaches                    int
}

type breachMsg struct{ count int }

type auditMsg struct{ results []AuditResult }

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Underline(true)
	msgStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	selectedStyle = lipgloss.NewStyle().Background(lipgloss.Color("57")).Foreground(lipgloss.Color("0"))
)

// RunTUI starts the interactive TUI. Unsaved changes are saved when it exits.
func RunTUI(ctx context.Context, a *App) error {
	p := tea.NewProgram(newModel(ctx, a), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("failed to run tui: %w", err)
	}
	return a.flush()
}

func newModel(ctx context.Context, a *App) model {
	inputs := make([]textinput.Model, 3)
	for i, placeholder := range []string{"Service", "Username", "Password"} {
		ti := textinput.New()
		ti.Placeholder = placeholder
		ti.CharLimit = 64
		inputs[i] = ti
	}
	inputs[2].EchoMode = textinput.EchoPassword
	inputs[2].EchoCharacter = '*'

	master := textinput.New()
	master.Placeholder = "Master password"
	master.EchoMode = textinput.EchoPassword
	master.EchoCharacter = '*'

	return model{
		app:        a,
		ctx:        ctx,
		entries:    a.Vault.List(),
		state:      "table",
		textInputs: inputs,
		master:     master,
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && k.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.state {
	case "table":
		return updateTable(m, msg)
	case "addEntry":
		return updateAddEntry(m, msg)
	case "confirmBreach":
		return updateConfirmBreach(m, msg)
	case "copyAuth":
		return updateCopyAuth(m, msg)
	case "busy":
		return updateBusy(m, msg)
	default:
		return m, nil
	}
}

func (m model) View() string {
	var s string
	switch m.state {
	case "table", "busy":
		s = viewTable(m)
	case "addEntry":
		s = viewAddEntry(m)
	case "confirmBreach":
		s = viewConfirmBreach(m)
	case "copyAuth":
		s = viewCopyAuth(m)
	default:
		return "Unknown state"
	}
	if m.msg != "" {
		s += "\n\n" + msgStyle.Render(m.msg)
	}
	if m.errMsg != "" {
		s += "\n\n" + errStyle.Render(m.errMsg)
	}
	return s
}

func (m *model) setMsg(msg string) {
	m.msg, m.errMsg = msg, ""
}

func (m *model) setErr(msg string) {
	m.msg, m.errMsg = "", msg
}

func (m *model) refresh() {
	m.entries = m.app.Vault.List()
	if m.cursor >= len(m.entries) {
		m.cursor = max(len(m.entries)-1, 0)
	}
}

// --- Table ---
func updateTable(m model, msg tea.Msg) (model, tea.Cmd) {
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch k.String() {
	case "q":
		return m, tea.Quit
	case "j", "down":
		if m.cursor < len(m.entries)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "a":
		m.state = "addEntry"
		m.setMsg("")
		return m, m.focus(0)
	case "d":
		if len(m.entries) == 0 {
			return m, nil
		}
		c, err := m.app.Delete(m.cursor + 1)
		if err != nil {
			m.setErr(err.Error())
		} else {
			m.setMsg("Removed: " + c.Service)
		}
		m.refresh()
	case "c", "enter":
		if len(m.entries) == 0 {
			return m, nil
		}
		m.state = "copyAuth"
		m.setMsg("")
		m.master.SetValue("")
		return m, m.master.Focus()
	case "b":
		if len(m.entries) == 0 {
			return m, nil
		}
		m.state = "busy"
		m.setMsg("Checking all stored passwords for breaches...")
		a, ctx := m.app, m.ctx
		return m, func() tea.Msg { return auditMsg{results: a.Audit(ctx)} }
	}
	return m, nil
}

func viewTable(m model) string {
	s := titleStyle.Render("Vault Entries") + "\n\n"
	if len(m.entries) == 0 {
		s += "No credentials stored.\n"
	}
	for i, e := range m.entries {
		line := fmt.Sprintf("%3d  %-30s  %-30s", i+1, e.Service, e.Username)
		if i == m.cursor {
			line = selectedStyle.Render(line)
		}
		s += line + "\n"
	}
	s += "\nCommands: j/k=move, a=add, d=delete, c=copy, b=breach audit, q=quit"
	return s
}

// --- Breach audit ---
func updateBusy(m model, msg tea.Msg) (model, tea.Cmd) {
	r, ok := msg.(auditMsg)
	if !ok {
		return m, nil
	}
	m.state = "table"

	var lines []string
	for _, res := range r.results {
		switch {
		case res.Count > 0:
			lines = append(lines, fmt.Sprintf("%s (%s): found %d times in breaches", res.Credential.Service, res.Credential.Username, res.Count))
		case res.Count == breach.Unknown:
			lines = append(lines, fmt.Sprintf("%s (%s): could not be checked", res.Credential.Service, res.Credential.Username))
		}
	}
	if len(lines) == 0 {
		m.setMsg("No compromised passwords found.")
	} else {
		m.setErr(strings.Join(lines, "\n"))
	}
	return m, nil
}

// --- Copy ---
func updateCopyAuth(m model, msg tea.Msg) (model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.String() {
		case "esc":
			m.master.Blur()
			m.master.SetValue("")
			m.state = "table"
			return m, nil
		case "enter":
			pw := m.master.Value()
			m.master.Blur()
			m.master.SetValue("")
			m.state = "table"

			c, err := m.app.Copy(m.cursor+1, pw)
			switch {
			case errors.Is(err, ErrAccessDenied):
				m.setErr("Incorrect master password. Access denied.")
			case err != nil:
				m.setErr(err.Error())
			default:
				m.setMsg(fmt.Sprintf("Password for %s copied to clipboard.", c.Service))
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.master, cmd = m.master.Update(msg)
	return m, cmd
}

func viewCopyAuth(m model) string {
	e := m.entries[m.cursor]
	return titleStyle.Render("Copy password for "+e.Service) + "\n\n" +
		"Re-enter master password to confirm: " + m.master.View() +
		"\n\nPress Enter to copy, Esc to cancel"
}

// --- Add Entry ---
func updateAddEntry(m model, msg tea.Msg) (model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch k.String() {
		case "tab", "shift+tab", "down", "up":
			return m, m.focusNext(k.String() == "shift+tab" || k.String() == "up")
		case "esc":
			m.resetInputs()
			m.state = "table"
			return m, nil
		case "ctrl+g":
			pw, err := GeneratePassword(DefaultGeneratedLen, DefaultPolicy)
			if err != nil {
				m.setErr(err.Error())
				return m, nil
			}
			m.textInputs[2].SetValue(pw)
			m.setMsg("Generated a password.")
			return m, nil
		case "enter":
			if !m.textInputs[len(m.textInputs)-1].Focused() {
				return m, m.focusNext(false)
			}
			if !allInputsFilled(m.textInputs) {
				m.setErr("All fields are required.")
				return m, nil
			}
			m.pending = pendingEntry{
				service:  m.textInputs[0].Value(),
				username: m.textInputs[1].Value(),
				password: m.textInputs[2].Value(),
			}
			if m.app.Breach == nil {
				return saveAddEntry(m), nil
			}
			m.setMsg("Checking password against known breaches...")
			a, ctx, pw := m.app, m.ctx, m.pending.password
			return m, func() tea.Msg { return breachMsg{count: a.Breach.Check(ctx, pw)} }
		}
	}

	if b, ok := msg.(breachMsg); ok {
		switch {
		case b.count > 0:
			m.pending.breaches = b.count
			m.state = "confirmBreach"
			m.setMsg("")
			return m, nil
		case b.count == breach.Unknown && m.app.StrictBreach:
			m.setErr("Unable to verify the password against known breaches. Password not saved.")
			return m, nil
		}
		return saveAddEntry(m), nil
	}

	// Update the focused text input
	var cmds []tea.Cmd
	for i := range m.textInputs {
		if m.textInputs[i].Focused() {
			var cmd tea.Cmd
			m.textInputs[i], cmd = m.textInputs[i].Update(msg)
			cmds = append(cmds, cmd)
		}
	}
	return m, tea.Batch(cmds...)
}

func (m *model) focus(i int) tea.Cmd {
	for j := range m.textInputs {
		m.textInputs[j].Blur()
	}
	return m.textInputs[i].Focus()
}

// Focus next or previous input
func (m *model) focusNext(backward bool) tea.Cmd {
	n := len(m.textInputs)
	for i := 0; i < n; i++ {
		if m.textInputs[i].Focused() {
			if backward {
				return m.focus((i - 1 + n) % n)
			}
			return m.focus((i + 1) % n)
		}
	}
	return m.focus(0)
}

func (m *model) resetInputs() {
	for i := range m.textInputs {
		m.textInputs[i].SetValue("")
		m.textInputs[i].Blur()
	}
	m.pending = pendingEntry{}
}

// Save the entry to vault
func saveAddEntry(m model) model {
	p := m.pending
	if err := m.app.Add(p.service, p.username, p.password); err != nil {
		m.state = "addEntry"
		m.setErr(err.Error())
		return m
	}

	m.resetInputs()
	m.refresh()
	m.cursor = len(m.entries) - 1
	m.state = "table"
	m.setMsg("Credential added successfully.")
	return m
}

func viewAddEntry(m model) string {
	s := titleStyle.Render("Add New Entry") + "\n\n"
	for i, ti := range m.textInputs {
		s += fmt.Sprintf("%s: %s\n", ti.Placeholder, ti.View())
		if i < len(m.textInputs)-1 {
			s += "\n"
		}
	}
	s += "\nPress Enter to save, Ctrl+G to generate a password, Esc to cancel"
	return s
}

func allInputsFilled(inputs []textinput.Model) bool {
	for _, ti := range inputs {
		if strings.TrimSpace(ti.Value()) == "" {
			return false
		}
	}
	return true
}

// --- Breached password confirmation ---
func updateConfirmBreach(m model, msg tea.Msg) (model, tea.Cmd) {
	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch k.String() {
	case "y", "Y":
		return saveAddEntry(m), nil
	case "n", "N", "esc":
		m.state = "addEntry"
		m.textInputs[2].SetValue("")
		m.pending = pendingEntry{}
		m.setMsg("Password not saved. Please try again with a different password.")
		return m, m.focus(2)
	}
	return m, nil
}

func viewConfirmBreach(m model) string {
	return errStyle.Render(fmt.Sprintf("WARNING: This password has been found in %d data breaches!", m.pending.breaches)) +
		"\n\nDo you still want to use this password? (y/n)"
}
