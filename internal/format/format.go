// Package format renders messages, status lines and tables for terminal and
// hook output.
package format

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/agent-chat/agent-chat/pkg/color"
	"github.com/agent-chat/agent-chat/pkg/model"
	"github.com/charmbracelet/lipgloss"
)

// Message renders "[name HH:MM]: body" in local time.
func Message(name string, at time.Time, body string) string {
	return fmt.Sprintf("[%s %s]: %s", name, at.Local().Format("15:04"), body)
}

// MessageColor is Message with the name and time styled.
func MessageColor(name string, at time.Time, body string) string {
	return fmt.Sprintf("[%s %s]: %s", color.Name(name), color.Dim(at.Local().Format("15:04")), body)
}

// Messages renders one line per message.
func Messages(msgs []*model.Message) string {
	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		lines = append(lines, Message(m.Author, m.Time(), m.Body))
	}
	return strings.Join(lines, "\n")
}

// Plural returns "N unread message" or "N unread messages".
func Plural(n int) string {
	if n == 1 {
		return "1 unread message"
	}
	return fmt.Sprintf("%d unread messages", n)
}

// Status is the terse stop-hook line. Zero unread renders nothing.
func Status(n int) string {
	if n <= 0 {
		return ""
	}
	return "[agent-chat: " + Plural(n) + "]"
}

// Senders returns the distinct authors in first-seen order.
func Senders(msgs []*model.Message) []string {
	seen := map[string]bool{}
	var out []string
	for _, m := range msgs {
		if !seen[m.Author] {
			seen[m.Author] = true
			out = append(out, m.Author)
		}
	}
	return out
}

// HookContext is the additionalContext text injected before a tool call.
func HookContext(msgs []*model.Message) string {
	if len(msgs) == 0 {
		return ""
	}
	return fmt.Sprintf("agent-chat: %s from %s\n%s",
		Plural(len(msgs)), strings.Join(Senders(msgs), ", "), Messages(msgs))
}

// LockWarning is the message shown when a file about to be edited is claimed.
func LockWarning(path string, lock *model.LockEntry) string {
	return fmt.Sprintf("WARNING: %s is locked by %s (pattern: %s). Coordinate before editing.",
		path, lock.Owner, lock.Glob)
}

// Overlaps summarises focuses that share words with a new focus.
func Overlaps(focuses []model.FocusEntry) string {
	if len(focuses) == 0 {
		return ""
	}
	parts := make([]string, 0, len(focuses))
	for _, f := range focuses {
		parts = append(parts, fmt.Sprintf("%s (%q)", f.Owner, f.Focus))
	}
	sort.Strings(parts)
	return "Possible overlap with " + strings.Join(parts, ", ")
}

// Remaining renders a TTL countdown in whole seconds.
func Remaining(d time.Duration) string {
	return fmt.Sprintf("%ds", int64(d/time.Second))
}

// Table pads columns on the plain text, then styles the header row.
type Table struct {
	header []string
	rows   [][]string
}

// NewTable starts a table with the given column titles.
func NewTable(header ...string) *Table {
	return &Table{header: header}
}

// Row appends a row.
func (t *Table) Row(cells ...string) {
	t.rows = append(t.rows, cells)
}

// String renders the table with the last column unpadded.
func (t *Table) String() string {
	widths := make([]int, len(t.header))
	for i, h := range t.header {
		widths[i] = lipgloss.Width(h)
	}
	for _, r := range t.rows {
		for i, c := range r {
			if i < len(widths) && lipgloss.Width(c) > widths[i] {
				widths[i] = lipgloss.Width(c)
			}
		}
	}

	var b strings.Builder
	line := func(cells []string, style func(string) string) {
		for i, c := range cells {
			if i > 0 {
				b.WriteString("  ")
			}
			cell := c
			if i < len(cells)-1 && i < len(widths) {
				cell = c + strings.Repeat(" ", widths[i]-lipgloss.Width(c))
			}
			b.WriteString(style(cell))
		}
		b.WriteString("\n")
	}
	line(t.header, color.Header)
	for _, r := range t.rows {
		line(r, func(s string) string { return s })
	}
	return b.String()
}
