package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/gerunddev/orgtree/internal/styles"
)

// header and footer lines around the viewport
const pagerChrome = 4

type pagerModel struct {
	title    string
	content  string
	viewport viewport.Model
	ready    bool
}

// NewPager creates a scrollable view of content
func NewPager(title, content string) pagerModel {
	return pagerModel{title: title, content: content}
}

func (m pagerModel) Init() tea.Cmd {
	return nil
}

func (m pagerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		height := max(msg.Height-pagerChrome, 1)
		if !m.ready {
			m.viewport = viewport.New(msg.Width, height)
			m.viewport.SetContent(m.content)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = height
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m pagerModel) View() string {
	if !m.ready {
		return "\n  Loading..."
	}

	var b strings.Builder
	b.WriteString(styles.TitleStyle.Render(m.title))
	b.WriteString("\n\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(styles.HelpStyle.Render(fmt.Sprintf("↑/k up • ↓/j down • q quit • %3.f%%", m.viewport.ScrollPercent()*100)))
	return b.String()
}

// RunPager shows content full screen until the user quits
func RunPager(title, content string) error {
	p := tea.NewProgram(NewPager(title, content), tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("failed to run pager: %w", err)
	}
	return nil
}

// RenderMarkdown renders markdown for the terminal. It falls back to the
// markdown itself if glamour fails.
func RenderMarkdown(md string, width int) string {
	if width <= 0 {
		width = 100
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return md
	}

	out, err := renderer.Render(md)
	if err != nil {
		return md
	}
	return out
}
