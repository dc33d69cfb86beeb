package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/gerunddev/orgtree/internal/styles"
)

// FileStatus describes a source relative to its last rendering
type FileStatus string

const (
	StatusCurrent FileStatus = "current"
	StatusStale   FileStatus = "stale"
	StatusNew     FileStatus = "new"
	StatusError   FileStatus = "error"
)

// Icon returns the status marker shown in the table
func (s FileStatus) Icon() string {
	switch s {
	case StatusCurrent:
		return "✓"
	case StatusStale:
		return "●"
	case StatusNew:
		return "+"
	}
	return "✗"
}

// FileInfo is one row of the browser
type FileInfo struct {
	Rel      string
	Path     string
	Status   FileStatus
	Headings int
	Todos    int
}

// BrowseData holds the scanned source directory
type BrowseData struct {
	SourceDir string
	OutputDir string
	Format    string
	Files     []FileInfo
}

// Pending counts files that the next build would render
func (d *BrowseData) Pending() int {
	n := 0
	for _, f := range d.Files {
		if f.Status == StatusStale || f.Status == StatusNew {
			n++
		}
	}
	return n
}

// BrowseMsg is sent when browse data is ready
type BrowseMsg struct {
	Data *BrowseData
	Err  error
}

// PreviewMsg is sent when a preview has been rendered
type PreviewMsg struct {
	Content string
	Err     error
}

// PreviewFunc renders the file at path for display
type PreviewFunc func(path string, width int) (string, error)

type browseModel struct {
	spinner    spinner.Model
	table      table.Model
	viewport   viewport.Model
	data       *BrowseData
	err        error
	ready      bool
	previewing bool
	selected   *FileInfo
	width      int
	height     int
	preview    PreviewFunc
}

// InitBrowseModel creates a new source browser model
func InitBrowseModel(preview PreviewFunc) browseModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.SpinnerStyle

	columns := []table.Column{
		{Title: "File", Width: 50},
		{Title: "Status", Width: 12},
		{Title: "Headings", Width: 10},
		{Title: "Todos", Width: 8},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(20),
	)

	ts := table.DefaultStyles()
	ts.Header = ts.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color(styles.Border)).
		BorderBottom(true).
		Bold(false)
	ts.Selected = ts.Selected.
		Foreground(lipgloss.Color(styles.Background)).
		Background(lipgloss.Color(styles.Yellow)).
		Bold(false)
	t.SetStyles(ts)

	vp := viewport.New(100, 20)
	vp.Style = styles.PagerStyle

	return browseModel{
		spinner:  s,
		table:    t,
		viewport: vp,
		preview:  preview,
	}
}

func (m browseModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetHeight(max(msg.Height-12, 3))
		m.viewport.Width = max(msg.Width-4, 20)
		m.viewport.Height = max(msg.Height-6, 3)

	case tea.KeyMsg:
		if m.previewing {
			switch msg.String() {
			case "ctrl+c":
				return m, tea.Quit
			case "q", "esc":
				m.previewing = false
				return m, nil
			}
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		}

		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "enter", "p":
			if m.data != nil && len(m.data.Files) > 0 {
				idx := m.table.Cursor()
				if idx < len(m.data.Files) {
					m.selected = &m.data.Files[idx]
					m.previewing = true
					m.viewport.SetContent(styles.DimStyle.Render("Rendering..."))
					return m, m.loadPreview(m.selected.Path)
				}
			}
			return m, nil
		}
		m.table, cmd = m.table.Update(msg)
		return m, cmd

	case BrowseMsg:
		m.ready = true
		m.data = msg.Data
		m.err = msg.Err

		if m.data != nil {
			rows := make([]table.Row, 0, len(m.data.Files))
			for _, f := range m.data.Files {
				rows = append(rows, table.Row{
					f.Rel,
					fmt.Sprintf("%s %s", f.Status.Icon(), f.Status),
					fmt.Sprintf("%d", f.Headings),
					fmt.Sprintf("%d", f.Todos),
				})
			}
			m.table.SetRows(rows)
		}
		return m, nil

	case PreviewMsg:
		if msg.Err != nil {
			m.viewport.SetContent(styles.Failure(msg.Err.Error()))
		} else {
			m.viewport.SetContent(msg.Content)
		}
		m.viewport.GotoTop()
		return m, nil

	case spinner.TickMsg:
		if !m.ready {
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
	}

	return m, nil
}

func (m browseModel) View() string {
	var b strings.Builder

	b.WriteString(styles.TitleStyle.Render("orgtree sources"))
	b.WriteString("\n\n")

	if m.err != nil {
		return styles.Failure("Error: "+m.err.Error()) + "\n"
	}

	if !m.ready || m.data == nil {
		b.WriteString(fmt.Sprintf("%s Scanning sources...\n", m.spinner.View()))
		return b.String()
	}

	if m.previewing && m.selected != nil {
		b.WriteString(styles.LabelStyle.Render("Preview: " + m.selected.Rel))
		b.WriteString("\n")
		b.WriteString(m.viewport.View())
		b.WriteString("\n")
		b.WriteString(styles.HelpStyle.Render(fmt.Sprintf("↑/k up • ↓/j down • esc/q back • %3.f%%", m.viewport.ScrollPercent()*100)))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(fmt.Sprintf("  Source: %s\n", styles.ValueStyle.Render(m.data.SourceDir)))
	b.WriteString(fmt.Sprintf("  Output: %s (%s)\n", styles.ValueStyle.Render(m.data.OutputDir), m.data.Format))
	if pending := m.data.Pending(); pending > 0 {
		b.WriteString("  " + styles.HighlightStyle.Render(fmt.Sprintf("● %d file(s) need rendering", pending)))
	} else {
		b.WriteString("  " + styles.Success("All outputs current"))
	}
	b.WriteString("\n\n")
	b.WriteString(styles.TableStyle.Render(m.table.View()))
	b.WriteString("\n\n")
	b.WriteString(styles.HelpStyle.Render("↑/k up • ↓/j down • enter/p preview • q quit"))
	b.WriteString("\n")

	return b.String()
}

func (m browseModel) loadPreview(path string) tea.Cmd {
	preview := m.preview
	width := m.viewport.Width - 4
	return func() tea.Msg {
		if preview == nil {
			return PreviewMsg{Err: fmt.Errorf("no preview available")}
		}
		content, err := preview(path, width)
		return PreviewMsg{Content: content, Err: err}
	}
}
