// Package edit is an interactive terminal editor for a session's category
// set. It operates on an in-memory copy; the caller decides what to do
// with the result (normally appending a user-edit version).
package edit

import (
	"fmt"
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/imadezze/ClassificationAlloBrain/internal/category"
)

// field indexes within one category.
const (
	fieldName = iota
	fieldDescription
	fieldBoundary
	fieldCount
)

var fieldLabels = [fieldCount]string{"Name", "Description", "Boundary"}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	hintStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).MarginTop(1)
)

// Model is the editor state.
type Model struct {
	categories category.Set
	cursor     int
	field      int

	editing bool
	input   textinput.Model

	saved   bool
	done    bool
	message string
}

// NewModel creates an editor over a copy of set.
func NewModel(set category.Set) Model {
	copied := make(category.Set, len(set))
	copy(copied, set)

	ti := textinput.New()
	ti.CharLimit = 300

	return Model{categories: copied, input: ti}
}

// Result returns the edited set and whether the user chose to save.
func (m Model) Result() (category.Set, bool) {
	return m.categories, m.saved
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if m.editing {
		return m.updateEditing(key)
	}
	return m.updateBrowsing(key)
}

func (m Model) updateBrowsing(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.message = ""
	switch key.String() {
	case "ctrl+c", "q", "esc":
		m.done = true
		return m, tea.Quit
	case "up", "k":
		m.moveCursor(-1)
	case "down", "j":
		m.moveCursor(1)
	case "left", "h":
		m.moveField(-1)
	case "right", "l", "tab":
		m.moveField(1)
	case "enter", "e":
		if len(m.categories) > 0 {
			m.editing = true
			m.input.SetValue(m.fieldValue())
			m.input.Focus()
			return m, textinput.Blink
		}
	case "a":
		m.addCategory()
	case "d":
		m.deleteSelected()
	case "s":
		if err := m.categories.Validate(); err != nil {
			m.message = err.Error()
			return m, nil
		}
		m.saved = true
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) updateEditing(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "enter":
		m.setFieldValue(m.input.Value())
		m.editing = false
		m.input.Blur()
		return m, nil
	case "esc":
		m.editing = false
		m.input.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(key)
	return m, cmd
}

func (m *Model) moveCursor(delta int) {
	next := m.cursor + delta
	if next >= 0 && next < len(m.categories) {
		m.cursor = next
	}
}

func (m *Model) moveField(delta int) {
	m.field = (m.field + delta + fieldCount) % fieldCount
}

func (m *Model) addCategory() {
	m.categories = append(m.categories, category.Category{Name: "New Category"})
	m.cursor = len(m.categories) - 1
	m.field = fieldName
}

func (m *Model) deleteSelected() {
	if len(m.categories) == 0 {
		return
	}
	m.categories = append(m.categories[:m.cursor], m.categories[m.cursor+1:]...)
	if m.cursor >= len(m.categories) && m.cursor > 0 {
		m.cursor--
	}
}

func (m Model) fieldValue() string {
	c := m.categories[m.cursor]
	switch m.field {
	case fieldName:
		return c.Name
	case fieldDescription:
		return c.Description
	default:
		return c.Boundary
	}
}

func (m *Model) setFieldValue(v string) {
	c := &m.categories[m.cursor]
	switch m.field {
	case fieldName:
		c.Name = strings.TrimSpace(v)
	case fieldDescription:
		c.Description = v
	default:
		c.Boundary = v
	}
}

func (m Model) View() tea.View {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Edit Categories"))
	b.WriteString("\n\n")

	if len(m.categories) == 0 {
		b.WriteString("No categories. Press a to add one.\n")
	}

	for i, c := range m.categories {
		cursor := "  "
		if i == m.cursor {
			cursor = selectedStyle.Render("> ")
		}
		b.WriteString(fmt.Sprintf("%s%s\n", cursor, renderField(c.Name, i == m.cursor && m.field == fieldName)))
		b.WriteString(fmt.Sprintf("    %s %s\n", labelStyle.Render("desc:"), renderField(c.Description, i == m.cursor && m.field == fieldDescription)))
		b.WriteString(fmt.Sprintf("    %s %s\n", labelStyle.Render("bounds:"), renderField(c.Boundary, i == m.cursor && m.field == fieldBoundary)))
	}

	if m.editing {
		b.WriteString(fmt.Sprintf("\n%s %s\n", labelStyle.Render(fieldLabels[m.field]+":"), m.input.View()))
	}
	if m.message != "" {
		b.WriteString("\n" + errorStyle.Render(m.message) + "\n")
	}

	hints := "↑↓ category · ←→ field · enter edit · a add · d delete · s save · q cancel"
	if m.editing {
		hints = "enter apply · esc discard"
	}
	b.WriteString(hintStyle.Render(hints))

	return tea.NewView(b.String())
}

func renderField(v string, selected bool) string {
	if v == "" {
		v = "(empty)"
	}
	if selected {
		return selectedStyle.Render(v)
	}
	return v
}

// Run opens the editor and blocks until the user saves or cancels.
// Returns the edited set and whether it should be persisted.
func Run(set category.Set) (category.Set, bool, error) {
	p := tea.NewProgram(NewModel(set))
	final, err := p.Run()
	if err != nil {
		return nil, false, fmt.Errorf("run editor: %w", err)
	}
	m, ok := final.(Model)
	if !ok {
		return nil, false, fmt.Errorf("run editor: unexpected model type %T", final)
	}
	edited, saved := m.Result()
	return edited, saved, nil
}
