package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/entitle/classfile"
	"github.com/wippyai/entitle/rewrite"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	methodStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	descStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	checkedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// tracePage is the number of trace lines shown at once.
const tracePage = 30

type modelState int

const (
	stateSelectMethod modelState = iota
	stateFilter
	stateShowTrace
)

type interactiveModel struct {
	err      error
	rewriter *rewrite.Rewriter
	filename string
	data     []byte
	methods  []methodInfo
	visible  []methodInfo
	filter   textinput.Model
	selected int
	offset   int
	state    modelState
	loaded   bool
}

type loadedMsg struct {
	err     error
	methods []methodInfo
}

func newInteractiveModel(filename string, data []byte, r *rewrite.Rewriter) *interactiveModel {
	ti := textinput.New()
	ti.Placeholder = "name or descriptor"
	ti.Prompt = "filter: "
	ti.Width = 40
	return &interactiveModel{
		filename: filename,
		data:     data,
		rewriter: r,
		filter:   ti,
		state:    stateSelectMethod,
	}
}

func (m *interactiveModel) Init() tea.Cmd {
	return m.loadClass
}

func (m *interactiveModel) loadClass() tea.Msg {
	methods, err := loadMethods(m.data, m.rewriter)
	return loadedMsg{methods: methods, err: err}
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.state == stateFilter {
			return m.updateFilter(msg)
		}
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "up", "k":
			switch m.state {
			case stateSelectMethod:
				if m.selected > 0 {
					m.selected--
				}
			case stateShowTrace:
				if m.offset > 0 {
					m.offset--
				}
			}

		case "down", "j":
			switch m.state {
			case stateSelectMethod:
				if m.selected < len(m.visible)-1 {
					m.selected++
				}
			case stateShowTrace:
				if m.offset < len(m.traceLines())-1 {
					m.offset++
				}
			}

		case "/":
			if m.state == stateSelectMethod {
				m.state = stateFilter
				return m, m.filter.Focus()
			}

		case "enter":
			switch m.state {
			case stateSelectMethod:
				if len(m.visible) > 0 {
					m.state = stateShowTrace
					m.offset = 0
				}
			case stateShowTrace:
				m.state = stateSelectMethod
			}

		case "esc":
			switch m.state {
			case stateShowTrace:
				m.state = stateSelectMethod
			case stateSelectMethod:
				m.filter.SetValue("")
				m.applyFilter()
			}
		}

	case loadedMsg:
		m.loaded = true
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.methods = msg.methods
		m.applyFilter()
	}

	return m, nil
}

func (m *interactiveModel) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "enter", "esc":
		if msg.String() == "esc" {
			m.filter.SetValue("")
		}
		m.filter.Blur()
		m.state = stateSelectMethod
		m.applyFilter()
		return m, nil
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.applyFilter()
	return m, cmd
}

func (m *interactiveModel) applyFilter() {
	m.visible = filterMethods(m.methods, m.filter.Value())
	if m.selected >= len(m.visible) {
		m.selected = max(len(m.visible)-1, 0)
	}
}

func (m *interactiveModel) traceLines() []string {
	if len(m.visible) == 0 {
		return nil
	}
	return strings.Split(strings.TrimRight(m.visible[m.selected].trace, "\n"), "\n")
}

func (m *interactiveModel) View() string {
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}
	if !m.loaded {
		return "Loading class..."
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("Entitle"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectMethod, stateFilter:
		if m.state == stateFilter || m.filter.Value() != "" {
			b.WriteString(m.filter.View())
			b.WriteString("\n\n")
		}
		if len(m.visible) == 0 {
			b.WriteString("No methods match.\n")
		}
		for i, meth := range m.visible {
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + meth.key()))
			} else {
				b.WriteString("  " + m.formatMethod(meth))
			}
			if meth.instrumented {
				b.WriteString(" ")
				b.WriteString(checkedStyle.Render("[checked]"))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		if m.state == stateFilter {
			b.WriteString(helpStyle.Render("enter apply • esc clear"))
		} else {
			b.WriteString(helpStyle.Render("↑/↓ select • enter trace • / filter • q quit"))
		}

	case stateShowTrace:
		meth := m.visible[m.selected]
		b.WriteString(fmt.Sprintf("Trace of %s\n\n", m.formatMethod(meth)))
		lines := m.traceLines()
		if meth.trace == "" {
			b.WriteString("(no code)\n")
		} else {
			end := min(m.offset+tracePage, len(lines))
			for _, line := range lines[m.offset:end] {
				b.WriteString(line)
				b.WriteString("\n")
			}
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ scroll • enter back • q quit"))
	}

	return b.String()
}

func (m *interactiveModel) formatMethod(meth methodInfo) string {
	s := methodStyle.Render(meth.name) + descStyle.Render(meth.desc)
	switch {
	case meth.access&classfile.AccNative != 0:
		s += " native"
	case meth.access&classfile.AccAbstract != 0:
		s += " abstract"
	}
	return s
}

func runInteractive(filename string, data []byte, r *rewrite.Rewriter) error {
	p := tea.NewProgram(newInteractiveModel(filename, data, r), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
