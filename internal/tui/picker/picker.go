// Package picker implements the interactive provider selector used by
// commands that take an optional provider id.
package picker

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/provdeck-ai/provdeck/internal/provider"
	"github.com/provdeck-ai/provdeck/internal/tui"
)

// Model is a cursor list over provider summaries with an optional filter.
type Model struct {
	title     string
	items     []provider.Summary
	visible   []int // indexes into items, in display order
	cursor    int
	filter    textinput.Model
	filtering bool

	selected  string
	done      bool
	cancelled bool
}

// New builds a picker over items. The caller passes a non-empty list in the
// order it should be shown.
func New(title string, items []provider.Summary) Model {
	ti := textinput.New()
	ti.Prompt = "/ "
	ti.Placeholder = "type to filter"
	ti.CharLimit = 64
	ti.Width = 40

	m := Model{title: title, items: items, filter: ti}
	m.refresh()
	return m
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.filtering {
		return m.updateFiltering(msg)
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "j", "down":
			if m.cursor < len(m.visible)-1 {
				m.cursor++
			}
		case "k", "up":
			if m.cursor > 0 {
				m.cursor--
			}
		case "G":
			m.cursor = max(0, len(m.visible)-1)
		case "g":
			m.cursor = 0
		case "/":
			m.filtering = true
			m.filter.Focus()
			return m, textinput.Blink
		case "enter":
			if m.cursor < len(m.visible) {
				m.selected = m.items[m.visible[m.cursor]].ID
				m.done = true
				return m, tea.Quit
			}
		case "esc":
			if m.filter.Value() != "" {
				m.filter.SetValue("")
				m.refresh()
				return m, nil
			}
			m.cancelled = true
			m.done = true
			return m, tea.Quit
		case "q", "ctrl+c":
			m.cancelled = true
			m.done = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m Model) updateFiltering(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			m.filtering = false
			m.filter.Blur()
			return m, nil
		case "esc":
			m.filtering = false
			m.filter.Blur()
			m.filter.SetValue("")
			m.refresh()
			return m, nil
		case "ctrl+c":
			m.cancelled = true
			m.done = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.refresh()
	return m, cmd
}

func (m Model) View() string {
	if m.done {
		return ""
	}

	s := tui.Title.Render(m.title) + "\n"

	if m.filtering || m.filter.Value() != "" {
		s += "  " + m.filter.View() + "\n\n"
	}

	if len(m.visible) == 0 {
		s += tui.Dimmed.Render("  No matching providers") + "\n"
	} else {
		header := fmt.Sprintf("    %-22s %-22s %-12s %s",
			tui.Header.Render("NAME"),
			tui.Header.Render("ID"),
			tui.Header.Render("KEY"),
			tui.Header.Render("URL"),
		)
		s += header + "\n"

		for i, idx := range m.visible {
			item := m.items[idx]

			cursor := "  "
			rowStyle := tui.Dimmed
			if i == m.cursor {
				cursor = tui.Selected.Render("> ")
				rowStyle = tui.Selected
			}

			dot := " "
			if item.Active {
				dot = tui.ActiveDot
			}

			key := item.MaskedSecret
			if key == "" {
				key = "-"
			}

			row := fmt.Sprintf("%-22s %-22s %-12s %s",
				rowStyle.Render(trim(item.Name, 20)),
				rowStyle.Render(trim(item.ID, 20)),
				rowStyle.Render(key),
				rowStyle.Render(trim(item.BaseURL, 36)),
			)
			s += cursor + dot + " " + row + "\n"
		}
	}

	s += "\n" + tui.Help.Render("  ↑/↓ navigate • / filter • enter select • esc cancel")
	return s
}

// Done reports whether the picker has finished, by selection or cancel.
func (m Model) Done() bool {
	return m.done
}

// Selection returns the chosen provider id. ok is false when the user
// cancelled instead of selecting.
func (m Model) Selection() (id string, ok bool) {
	if m.cancelled || m.selected == "" {
		return "", false
	}
	return m.selected, true
}

// refresh recomputes the visible rows from the current filter text and keeps
// the cursor on a valid row.
func (m *Model) refresh() {
	q := strings.ToLower(strings.TrimSpace(m.filter.Value()))
	m.visible = m.visible[:0]
	for i, item := range m.items {
		if q == "" ||
			strings.Contains(strings.ToLower(item.Name), q) ||
			strings.Contains(strings.ToLower(item.ID), q) {
			m.visible = append(m.visible, i)
		}
	}
	if m.cursor >= len(m.visible) {
		m.cursor = max(0, len(m.visible)-1)
	}
}

func trim(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
