package app

import (
	"fmt"
	"io"
	"time"

	"github.com/kbukum/samuelizer/logger"
)

// SummaryItem is one wired subsystem.
type SummaryItem struct {
	Name    string
	Details string
}

// Summary records what New wired, for the serve banner and debug logs.
type Summary struct {
	serviceName     string
	version         string
	startupDuration time.Duration
	items           []SummaryItem
	routes          []string
}

// NewSummary creates an empty summary.
func NewSummary(serviceName, version string) *Summary {
	return &Summary{serviceName: serviceName, version: version}
}

// SetStartupDuration records how long New took.
func (s *Summary) SetStartupDuration(d time.Duration) {
	s.startupDuration = d
}

// Add records a subsystem.
func (s *Summary) Add(name, details string) {
	s.items = append(s.items, SummaryItem{Name: name, Details: details})
}

// TrackRoute records an HTTP route.
func (s *Summary) TrackRoute(method, path string) {
	s.routes = append(s.routes, method+" "+path)
}

// Items returns the recorded subsystems in order.
func (s *Summary) Items() []SummaryItem {
	return append([]SummaryItem(nil), s.items...)
}

// Log writes the summary at debug level.
func (s *Summary) Log(log *logger.Logger) {
	fields := logger.Fields(
		"version", s.version,
		logger.FieldDuration, s.startupDuration.Milliseconds(),
	)
	for _, it := range s.items {
		fields[it.Name] = it.Details
	}
	log.Debug("Application wired", fields)
}

// Write renders the summary as a tree.
func (s *Summary) Write(w io.Writer) {
	fmt.Fprintf(w, "\n%s v%s ready in %.2fs\n\n", s.serviceName, s.version, s.startupDuration.Seconds())
	writeTree(w, "Components", len(s.items), func(i int) string {
		return s.items[i].Name + ": " + s.items[i].Details
	})
	if len(s.routes) > 0 {
		fmt.Fprintln(w)
		writeTree(w, "Routes", len(s.routes), func(i int) string { return s.routes[i] })
	}
	fmt.Fprintln(w)
}

func writeTree(w io.Writer, title string, n int, line func(int) string) {
	fmt.Fprintln(w, title)
	for i := 0; i < n; i++ {
		prefix := "├──"
		if i == n-1 {
			prefix = "└──"
		}
		fmt.Fprintf(w, "   %s %s\n", prefix, line(i))
	}
}

// Summary returns the startup summary.
func (a *App) Summary() *Summary { return a.summary }
