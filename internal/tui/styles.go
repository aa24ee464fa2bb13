package tui

import "github.com/charmbracelet/lipgloss"

// Color palette for the monitor UI
var (
	PrimaryColor = lipgloss.Color("#7D56F4") // Purple - headers, borders
	SuccessColor = lipgloss.Color("#43BF6D") // Green - on states, fresh updates
	ErrorColor   = lipgloss.Color("#FF5555") // Red - errors, disconnects
	WarningColor = lipgloss.Color("#FFA500") // Orange - stale data
	MutedColor   = lipgloss.Color("#626262") // Gray - secondary info
	TextColor    = lipgloss.Color("#FFFFFF") // White - main content
)

var (
	// TitleStyle is for the monitor header line
	TitleStyle = lipgloss.NewStyle().
			Foreground(TextColor).
			Bold(true)

	// SubtitleStyle is for the controller address/identity line
	SubtitleStyle = lipgloss.NewStyle().
			Foreground(MutedColor)

	// TableHeaderStyle is for the channel table header row
	TableHeaderStyle = lipgloss.NewStyle().
				Foreground(PrimaryColor).
				Bold(true)

	// RowStyle is for ordinary table rows
	RowStyle = lipgloss.NewStyle().
			Foreground(TextColor)

	// RowFreshStyle highlights a row that just received a notification
	RowFreshStyle = lipgloss.NewStyle().
			Foreground(SuccessColor)

	// StateOnStyle and StateOffStyle color the channel state cell
	StateOnStyle  = lipgloss.NewStyle().Foreground(SuccessColor)
	StateOffStyle = lipgloss.NewStyle().Foreground(MutedColor)

	// ErrorStyle is for error lines in the status bar
	ErrorStyle = lipgloss.NewStyle().
			Foreground(ErrorColor)

	// StatusBarStyle frames the bottom help/status line
	StatusBarStyle = lipgloss.NewStyle().
			Foreground(MutedColor)

	// HeaderBorderStyle frames the monitor header
	HeaderBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(PrimaryColor).
				Padding(0, 1)
)
