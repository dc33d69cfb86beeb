package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"

	"github.com/gerunddev/orgtree/internal/build"
	"github.com/gerunddev/orgtree/internal/styles"
)

// buildModel is the Bubble Tea model for the build progress display
type buildModel struct {
	spinner  spinner.Model
	status   string
	complete bool
	result   *build.Result
	err      error
}

// BuildMsg is sent when the build completes
type BuildMsg struct {
	Result *build.Result
	Err    error
}

// InitBuildModel creates a new build progress model
func InitBuildModel(status string) buildModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.SpinnerStyle

	return buildModel{
		spinner: s,
		status:  status,
	}
}

func (m buildModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m buildModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		}

	case BuildMsg:
		m.complete = true
		m.result = msg.Result
		m.err = msg.Err
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m buildModel) View() string {
	if !m.complete {
		return fmt.Sprintf("\n%s %s\n\n", m.spinner.View(), m.status)
	}
	return Summary(m.result, m.err)
}

// Summary formats a finished build for the terminal
func Summary(r *build.Result, err error) string {
	if err != nil {
		return styles.Failure("Build failed: "+err.Error()) + "\n"
	}

	took := styles.HelpStyle.Render(fmt.Sprintf("Completed in %v", r.EndTime.Sub(r.StartTime).Round(time.Millisecond)))

	if len(r.Rendered) == 0 && len(r.Errors) == 0 {
		return styles.Success(fmt.Sprintf("Nothing to render (%d unchanged)", r.Skipped)) + "\n" + took + "\n"
	}

	verb := "Rendered"
	if r.DryRun {
		verb = "Would render"
	}
	msg := styles.Success(fmt.Sprintf("%s %d file(s), %s", verb, len(r.Rendered), humanize.Bytes(uint64(r.Bytes))))
	if r.Skipped > 0 {
		msg += styles.DimStyle.Render(fmt.Sprintf(", %d unchanged", r.Skipped))
	}
	if len(r.Errors) > 0 {
		msg += ", " + styles.ErrorStyle.Render(fmt.Sprintf("%d error(s)", len(r.Errors)))
	}
	msg += "\n"

	for _, e := range r.Errors {
		msg += "  " + styles.Failure(e.Error()) + "\n"
	}
	if len(r.Removed) > 0 {
		msg += styles.DimStyle.Render(fmt.Sprintf("Forgot %d deleted source(s)", len(r.Removed))) + "\n"
	}

	return msg + took + "\n"
}
