package components

import (
	"fmt"
	"sort"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	connUpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
	connDownStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)
)

// ConnectionStatus is one upstream connection's last known state.
type ConnectionStatus struct {
	Name       string
	Connected  bool
	Latency    time.Duration
	LastUpdate time.Time
}

// StatusComponent tracks upstream connections and renders them as status
// bar segments. Rendering order is stable regardless of update order.
type StatusComponent struct {
	byName map[string]ConnectionStatus
}

// NewStatusComponent returns an empty status tracker.
func NewStatusComponent() *StatusComponent {
	return &StatusComponent{byName: make(map[string]ConnectionStatus)}
}

// Update records the latest state for a connection, keyed by name.
func (s *StatusComponent) Update(status ConnectionStatus) {
	s.byName[status.Name] = status
}

// Segments returns one rendered string per connection, sorted by name.
func (s *StatusComponent) Segments() []string {
	names := make([]string, 0, len(s.byName))
	for name := range s.byName {
		names = append(names, name)
	}
	sort.Strings(names)

	segments := make([]string, 0, len(names))
	for _, name := range names {
		conn := s.byName[name]
		if !conn.Connected {
			segments = append(segments, connDownStyle.Render("○ "+name+" (disconnected)"))
			continue
		}
		label := "● " + name
		if conn.Latency > 0 {
			label += fmt.Sprintf(" (%dms)", conn.Latency.Milliseconds())
		}
		segments = append(segments, connUpStyle.Render(label))
	}
	return segments
}

// View renders all connections on one line.
func (s *StatusComponent) View() string {
	segments := s.Segments()
	if len(segments) == 0 {
		return "no connections"
	}
	out := segments[0]
	for _, seg := range segments[1:] {
		out += "  " + seg
	}
	return out
}
