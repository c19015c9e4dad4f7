package progress

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/rv-tools/multibuild/internal/domain/values"
)

// Palette.
var (
	accent = lipgloss.Color("99")
	green  = lipgloss.Color("76")
	red    = lipgloss.Color("204")
	yellow = lipgloss.Color("214")
	dim    = lipgloss.Color("243")
)

// Renderer writes one line per progress event. It is meant to be passed to
// Tracker.Subscribe.
type Renderer struct {
	mu sync.Mutex
	w  io.Writer

	accent  lipgloss.Style
	success lipgloss.Style
	failure lipgloss.Style
	warn    lipgloss.Style
	muted   lipgloss.Style
	bold    lipgloss.Style
}

// NewRenderer creates a renderer writing to w. Without color every style is a
// no-op.
func NewRenderer(w io.Writer, color bool) *Renderer {
	r := &Renderer{w: w}
	if !color {
		plain := lipgloss.NewStyle()
		r.accent, r.success, r.failure, r.warn, r.muted, r.bold = plain, plain, plain, plain, plain, plain
		return r
	}

	lr := lipgloss.NewRenderer(w)
	r.accent = lr.NewStyle().Foreground(accent)
	r.success = lr.NewStyle().Foreground(green)
	r.failure = lr.NewStyle().Foreground(red)
	r.warn = lr.NewStyle().Foreground(yellow)
	r.muted = lr.NewStyle().Foreground(dim)
	r.bold = lr.NewStyle().Bold(true)
	return r
}

// Handle renders ev.
func (r *Renderer) Handle(ev Event) {
	line := r.format(ev)
	if line == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	_, _ = fmt.Fprintln(r.w, line)
}

func (r *Renderer) format(ev Event) string {
	task := ev.Task
	indent := strings.Repeat("  ", task.Depth)

	switch ev.Kind {
	case EventStarted:
		line := indent + r.accent.Render("●") + " " + r.title(task)
		if task.Description != "" {
			line += " " + r.muted.Render(task.Description)
		}
		return line

	case EventReported:
		if task.Total <= 0 {
			return ""
		}
		return fmt.Sprintf("%s%s %s %s", indent, r.muted.Render("»"), task.Name,
			r.muted.Render(fmt.Sprintf("[%d/%d]", task.Current, task.Total)))

	case EventFinished:
		icon, style := r.statusStyle(task.Status)
		elapsed := task.Finished.Sub(task.Started).Round(10 * time.Millisecond)
		return fmt.Sprintf("%s%s %s %s", indent, icon, style.Render(task.Name),
			r.muted.Render(fmt.Sprintf("%s in %s", task.Status, elapsed)))
	}
	return ""
}

func (r *Renderer) title(task Task) string {
	if task.Depth == 0 {
		return r.bold.Render(task.Name)
	}
	return task.Name
}

func (r *Renderer) statusStyle(status values.Status) (string, lipgloss.Style) {
	switch status {
	case values.StatusSucceeded:
		return r.success.Render("✓"), lipgloss.NewStyle()
	case values.StatusFailed:
		return r.failure.Render("✗"), r.failure
	case values.StatusCanceled:
		return r.warn.Render("!"), r.warn
	default:
		return r.muted.Render("-"), r.muted
	}
}
