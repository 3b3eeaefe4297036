package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

type pickerKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Choose key.Binding
	Quit   key.Binding
}

func (k pickerKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Choose, k.Quit}
}

func (k pickerKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var pickerKeys = pickerKeyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Choose: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "open"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "esc", "ctrl+c"),
		key.WithHelp("q", "cancel"),
	),
}

// pickerModel is a scrolling result list.
type pickerModel struct {
	items  []Item
	cursor int
	offset int
	height int
	chosen int
	done   bool
	styles Styles
	help   help.Model
}

func newPickerModel(items []Item, styles Styles) *pickerModel {
	return &pickerModel{
		items:  items,
		chosen: -1,
		height: 10,
		styles: styles,
		help:   help.New(),
	}
}

// Init implements tea.Model.
func (m *pickerModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		// Two lines per item, two for help and spacing
		m.height = max((msg.Height-2)/2, 1)
		m.help.Width = msg.Width
		m.scroll()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, pickerKeys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, pickerKeys.Down):
			if m.cursor < len(m.items)-1 {
				m.cursor++
			}
		case key.Matches(msg, pickerKeys.Choose):
			m.chosen = m.cursor
			m.done = true
			return m, tea.Quit
		case key.Matches(msg, pickerKeys.Quit):
			m.done = true
			return m, tea.Quit
		}
		m.scroll()
	}
	return m, nil
}

// scroll keeps the cursor inside the visible window.
func (m *pickerModel) scroll() {
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+m.height {
		m.offset = m.cursor - m.height + 1
	}
}

// View implements tea.Model.
func (m *pickerModel) View() string {
	if m.done {
		return ""
	}

	var b strings.Builder
	end := min(m.offset+m.height, len(m.items))
	for i := m.offset; i < end; i++ {
		it := m.items[i]
		marker, name := "  ", m.styles.Header.Render(it.Name())
		if i == m.cursor {
			marker, name = m.styles.Selected.Render("> "), m.styles.Selected.Render(it.Name())
		}
		fmt.Fprintf(&b, "%s%s %s\n", marker, m.styles.Rank.Render(fmt.Sprintf("%d.", i)), name)
		fmt.Fprintf(&b, "    %s\n", m.styles.Dim.Render(it.Path))
	}
	b.WriteString("\n" + m.help.View(pickerKeys))
	return b.String()
}

// Pick shows items in an interactive list and returns the index chosen,
// or -1 when the user cancels or there is nothing to choose.
func Pick(ctx context.Context, items []Item, cfg Config) (int, error) {
	if len(items) == 0 {
		return -1, nil
	}

	opts := []tea.ProgramOption{tea.WithContext(ctx), tea.WithOutput(cfg.Output)}
	if cfg.Input != nil {
		opts = append(opts, tea.WithInput(cfg.Input))
	}

	final, err := tea.NewProgram(newPickerModel(items, cfg.Styles()), opts...).Run()
	if err != nil {
		return -1, fmt.Errorf("result picker: %w", err)
	}
	return final.(*pickerModel).chosen, nil
}
