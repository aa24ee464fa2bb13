package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/extago/extalife/internal/channels"
	"github.com/extago/extalife/internal/controller"
	"github.com/extago/extalife/internal/protocol"
)

// freshWindow is how long a row stays highlighted after a notification.
const freshWindow = 3 * time.Second

type monitorKeyMap struct {
	Refresh key.Binding
	Quit    key.Binding
}

func (k monitorKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Refresh, k.Quit}
}

func (k monitorKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Refresh, k.Quit}}
}

// Messages
type channelsLoadedMsg []channels.Record
type fetchFailedMsg struct{ err error }
type channelEventMsg channels.Event
type eventStreamClosedMsg struct{}
type tickMsg time.Time

type row struct {
	id        string
	data      protocol.Data
	updatedAt time.Time
	pushed    bool // last change came from a notification
}

// MonitorModel is the live channel dashboard.
type MonitorModel struct {
	client *controller.Client
	sub    *channels.Subscription

	rows    map[string]*row
	order   []string
	loading bool
	err     error

	spinner spinner.Model
	help    help.Model
	keys    monitorKeyMap

	width  int
	height int
}

// NewMonitor creates a monitor over an already connected client.
func NewMonitor(client *controller.Client) MonitorModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(PrimaryColor)

	return MonitorModel{
		client:  client,
		sub:     client.Broker().Subscribe(),
		rows:    make(map[string]*row),
		loading: true,
		spinner: sp,
		help:    help.New(),
		keys: monitorKeyMap{
			Refresh: key.NewBinding(
				key.WithKeys("r"),
				key.WithHelp("r", "refresh"),
			),
			Quit: key.NewBinding(
				key.WithKeys("q", "ctrl+c"),
				key.WithHelp("q", "quit"),
			),
		},
	}
}

// Init implements tea.Model
func (m MonitorModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetchChannels(), m.waitForEvent(), tick())
}

func (m MonitorModel) fetchChannels() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		records, err := client.Channels(ctx)
		if err != nil {
			return fetchFailedMsg{err: err}
		}
		return channelsLoadedMsg(records)
	}
}

func (m MonitorModel) waitForEvent() tea.Cmd {
	events := m.sub.Events()
	return func() tea.Msg {
		event, ok := <-events
		if !ok {
			return eventStreamClosedMsg{}
		}
		return channelEventMsg(event)
	}
}

// tick drives the fresh-row highlight decay.
func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model
func (m MonitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.sub.Close()
			return m, tea.Quit
		case key.Matches(msg, m.keys.Refresh):
			m.loading = true
			m.err = nil
			return m, tea.Batch(m.spinner.Tick, m.fetchChannels())
		}
		return m, nil

	case channelsLoadedMsg:
		m.loading = false
		m.err = nil
		now := time.Now()
		for _, record := range msg {
			m.upsert(record.ID, record.Data, now, false)
		}
		return m, nil

	case fetchFailedMsg:
		m.loading = false
		m.err = msg.err
		return m, nil

	case channelEventMsg:
		event := channels.Event(msg)
		if event.Topic.ID != "" {
			m.upsert(event.Topic.ID, event.Data, time.Now(), event.Topic.Kind == channels.KindNotification)
		}
		return m, m.waitForEvent()

	case eventStreamClosedMsg:
		return m, tea.Quit

	case tickMsg:
		return m, tick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// upsert merges incoming data into a row, keeping fields the update did
// not mention. Notifications carry only the changed state fields.
func (m *MonitorModel) upsert(id string, data protocol.Data, at time.Time, pushed bool) {
	existing, ok := m.rows[id]
	if !ok {
		existing = &row{id: id, data: make(protocol.Data, len(data))}
		m.rows[id] = existing
		m.order = append(m.order, id)
		sort.Strings(m.order)
	}
	for k, v := range data {
		existing.data[k] = v
	}
	existing.updatedAt = at
	existing.pushed = pushed
}

// View implements tea.Model
func (m MonitorModel) View() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	if m.loading && len(m.rows) == 0 {
		b.WriteString(fmt.Sprintf("\n %s fetching channels...\n", m.spinner.View()))
	} else {
		b.WriteString(m.renderTable())
	}

	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(ErrorStyle.Render(" error: " + m.err.Error()))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(StatusBarStyle.Render(m.help.View(m.keys)))
	b.WriteString("\n")
	return b.String()
}

func (m MonitorModel) renderHeader() string {
	title := TitleStyle.Render("Exta Life Monitor")
	name := m.client.Name()
	if name == "" {
		name = "EFC-01"
	}
	subtitle := SubtitleStyle.Render(fmt.Sprintf("%s  %s:%d  %s",
		name, m.client.Host(), m.client.Port(), m.connState()))
	return HeaderBorderStyle.Render(title + "\n" + subtitle)
}

func (m MonitorModel) connState() string {
	if m.client.Connected() {
		return StateOnStyle.Render("connected")
	}
	return ErrorStyle.Render("disconnected")
}

func (m MonitorModel) renderTable() string {
	var b strings.Builder

	header := fmt.Sprintf(" %-8s %-24s %-10s %-10s %-10s", "CHANNEL", "ALIAS", "TYPE", "STATE", "UPDATED")
	b.WriteString(TableHeaderStyle.Render(header))
	b.WriteString("\n")

	now := time.Now()
	for _, id := range m.order {
		r := m.rows[id]
		line := fmt.Sprintf(" %-8s %-24s %-10s %-10s %-10s",
			r.id,
			truncate(stringOr(r.data["alias"], "-"), 24),
			deviceType(r.data),
			stateCell(r.data),
			relativeAge(now.Sub(r.updatedAt)))

		style := RowStyle
		if r.pushed && now.Sub(r.updatedAt) < freshWindow {
			style = RowFreshStyle
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}

	if len(m.order) == 0 {
		b.WriteString(SubtitleStyle.Render(" no channels"))
		b.WriteString("\n")
	}
	return b.String()
}

func deviceType(data protocol.Data) string {
	if t, ok := data["type"].(float64); ok {
		return protocol.DeviceModel(int(t)).String()
	}
	if t, ok := data["type"].(int); ok {
		return protocol.DeviceModel(t).String()
	}
	return "-"
}

// stateCell picks the most useful state field a channel carries.
func stateCell(data protocol.Data) string {
	if power, ok := data["power"].(float64); ok {
		if power > 0 {
			return StateOnStyle.Render("on")
		}
		return StateOffStyle.Render("off")
	}
	if value, ok := data["value"]; ok && value != nil {
		return fmt.Sprintf("%v", value)
	}
	if temp, ok := data["temperature"]; ok && temp != nil {
		return fmt.Sprintf("%v", temp)
	}
	return "-"
}

func stringOr(v any, fallback string) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return fallback
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

func relativeAge(d time.Duration) string {
	switch {
	case d < 2*time.Second:
		return "now"
	case d < time.Minute:
		return fmt.Sprintf("%ds ago", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	default:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	}
}

// Run starts the monitor over a connected client and blocks until the user
// quits.
func Run(client *controller.Client) error {
	p := tea.NewProgram(NewMonitor(client), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
