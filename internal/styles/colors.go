package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/gerunddev/orgtree/ast"
)

// Monokai Pro color palette
const (
	Background = "#2D2A2E"
	Foreground = "#FCFCFA"

	Red     = "#FF6188"
	Orange  = "#FC9867"
	Yellow  = "#FFD866"
	Green   = "#A9DC76"
	Cyan    = "#78DCE8"
	Purple  = "#AB9DF2"
	Comment = "#727072"
	Border  = "#5B595C"
)

// Status output
var (
	SuccessStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(Green))
	ErrorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color(Red))
	WarningStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(Orange))
	DimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color(Comment))
	TitleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(Red))
	LabelStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(Cyan))
	ValueStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color(Foreground))
	HighlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(Yellow)).Bold(true)
	SpinnerStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color(Red))
	HelpStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color(Comment))

	TableStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(Border))

	PagerStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(Border)).
			Padding(0, 1)
)

// Tree dump
var (
	blockStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(Cyan))
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(Red))
	inlineStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color(Purple))
	linkStyle    = lipgloss.NewStyle().Underline(true).Foreground(lipgloss.Color(Green))
	leafStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color(Comment))
)

// KindStyle returns the style used for k in tree dumps.
func KindStyle(k ast.Kind) lipgloss.Style {
	switch k {
	case ast.Document, ast.Heading:
		return headingStyle
	case ast.Link:
		return linkStyle
	case ast.Bold, ast.Italic, ast.Underline, ast.Strikethrough, ast.Code, ast.Verbatim:
		return inlineStyle
	case ast.Text, ast.Comment, ast.HorizontalRule, ast.FootnoteRef, ast.Timestamp:
		return leafStyle
	}
	return blockStyle
}

// Success renders "✓ msg".
func Success(msg string) string {
	return SuccessStyle.Render("✓ " + msg)
}

// Failure renders "✗ msg".
func Failure(msg string) string {
	return ErrorStyle.Render("✗ " + msg)
}

// Warning renders "⚠ msg".
func Warning(msg string) string {
	return WarningStyle.Render("⚠ " + msg)
}
