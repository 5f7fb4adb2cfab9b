package bootstrap

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/kbukum/injectkit/component"
	"github.com/kbukum/injectkit/di"
)

// ComponentStatus holds the tracked status of a component during bootstrap.
type ComponentStatus struct {
	Name    string
	Status  string
	Healthy bool
}

// RouteInfo represents a registered HTTP route.
type RouteInfo struct {
	Method  string
	Path    string
	Handler string
}

// Summary tracks and displays the application bootstrap process.
type Summary struct {
	serviceName     string
	version         string
	startupDuration time.Duration
	components      []ComponentStatus
	bindings        []di.BindingInfo
	routes          []RouteInfo
	tasks           []string
}

// NewSummary creates a new bootstrap summary tracker.
func NewSummary(serviceName, version string) *Summary {
	return &Summary{
		serviceName: serviceName,
		version:     version,
	}
}

// SetStartupDuration records the total startup time.
func (s *Summary) SetStartupDuration(d time.Duration) {
	s.startupDuration = d
}

// TrackComponent adds a component's bootstrap status to the summary.
func (s *Summary) TrackComponent(name, status string, healthy bool) {
	s.components = append(s.components, ComponentStatus{
		Name:    name,
		Status:  status,
		Healthy: healthy,
	})
}

// TrackBinding records an injector binding.
func (s *Summary) TrackBinding(info di.BindingInfo) {
	s.bindings = append(s.bindings, info)
}

// TrackRoute records an HTTP route.
func (s *Summary) TrackRoute(method, path, handler string) {
	s.routes = append(s.routes, RouteInfo{
		Method:  method,
		Path:    path,
		Handler: handler,
	})
}

// TrackTask records an admin task.
func (s *Summary) TrackTask(name string) {
	s.tasks = append(s.tasks, name)
}

// Bindings returns the tracked bindings.
func (s *Summary) Bindings() []di.BindingInfo { return s.bindings }

// Routes returns the tracked routes.
func (s *Summary) Routes() []RouteInfo { return s.routes }

// Display writes the bootstrap summary including the given health results.
func (s *Summary) Display(w io.Writer, healths []component.Health) {
	fmt.Fprintf(w, "\n🚀 %s v%s started in %.2fs\n\n",
		s.serviceName, s.version, s.startupDuration.Seconds())

	s.writeComponents(w)

	lines := make([]string, len(s.bindings))
	for i, b := range s.bindings {
		scope := b.Scope.String()
		if b.Deferred {
			scope += ", deferred"
		}
		mark := "⚡"
		if b.Initialized {
			mark = "✅"
		}
		lines[i] = fmt.Sprintf("%s %s [%s]", mark, b.Key, scope)
	}
	writeTree(w, fmt.Sprintf("💉 Bindings (%d)", len(lines)), lines)

	lines = make([]string, len(s.routes))
	for i, r := range s.routes {
		lines[i] = fmt.Sprintf("%-7s %s → %s", r.Method, r.Path, r.Handler)
	}
	writeTree(w, fmt.Sprintf("🌐 Routes (%d)", len(lines)), lines)

	writeTree(w, "🛠️  Tasks", s.tasks)

	lines = make([]string, len(healths))
	for i, h := range healths {
		lines[i] = fmt.Sprintf("%s %s: %s", healthStatusIcon(h.Status), h.Name, strings.ToLower(string(h.Status)))
		if h.Message != "" {
			lines[i] += " (" + h.Message + ")"
		}
	}
	writeTree(w, "🏥 Health Check", lines)

	fmt.Fprintln(w)
}

func (s *Summary) writeComponents(w io.Writer) {
	if len(s.components) == 0 {
		fmt.Fprintln(w, "   └── No components registered")
		return
	}
	fmt.Fprintln(w, "📦 Components")
	healthy := 0
	for i, c := range s.components {
		fmt.Fprintf(w, "   %s %s %s (%s)\n", treePrefix(i, len(s.components)), statusIcon(c.Status, c.Healthy), c.Name, c.Status)
		if c.Healthy {
			healthy++
		}
	}
	if total := len(s.components); healthy == total {
		fmt.Fprintf(w, "\n✅ All components healthy (%d/%d)\n", healthy, total)
	} else {
		fmt.Fprintf(w, "\n⚠️  Some components have issues (%d/%d healthy)\n", healthy, total)
	}
}

// writeTree prints a titled section, skipped when there are no lines.
func writeTree(w io.Writer, title string, lines []string) {
	if len(lines) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s\n", title)
	for i, line := range lines {
		fmt.Fprintf(w, "   %s %s\n", treePrefix(i, len(lines)), line)
	}
}

func treePrefix(i, n int) string {
	if i == n-1 {
		return "└──"
	}
	return "├──"
}

func statusIcon(status string, healthy bool) string {
	if !healthy {
		return "❌"
	}
	switch status {
	case "active", "initialized", "connected", "healthy":
		return "✅"
	case "inactive", "disabled":
		return "⏸️"
	default:
		return "⚠️"
	}
}

func healthStatusIcon(status component.HealthStatus) string {
	switch status {
	case component.StatusHealthy:
		return "✅"
	case component.StatusDegraded:
		return "⚠️"
	case component.StatusUnhealthy:
		return "❌"
	default:
		return "❓"
	}
}
