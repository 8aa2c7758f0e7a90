package main

import (
	"fmt"
	"strconv"
	"strings"

	"jarvis/internal/session"
)

const watchURL = "https://www.youtube.com/watch?v="

var panelTitles = map[session.Panel]string{
	session.PanelEmail:   "COMMS",
	session.PanelTasks:   "TASK PROTOCOLS",
	session.PanelSearch:  "GLOBAL SEARCH",
	session.PanelMedia:   "MEDIA BAY",
	session.PanelSystem:  "SYSTEM DIAGNOSTICS",
	session.PanelScanner: "SECTOR SCANNER",
}

// renderPanel draws the open panel, or "" when none is open.
func renderPanel(st styles, s session.Snapshot, width int) string {
	title, ok := panelTitles[s.Panel]
	if !ok {
		return ""
	}

	var body string
	switch s.Panel {
	case session.PanelEmail:
		body = emailPanel(st, s.Email)
	case session.PanelTasks:
		body = tasksPanel(st, s)
	case session.PanelSearch:
		body = searchPanel(st, s.Search)
	case session.PanelMedia:
		body = mediaPanel(st, s.Media)
	case session.PanelSystem:
		body = systemPanel(s.Metrics)
	case session.PanelScanner:
		body = scannerPanel(st, s)
	}

	return st.panel.Width(width).Render(st.panelHead.Render(title) + "\n\n" + body)
}

func emailPanel(st styles, d session.EmailDraft) string {
	field := func(name, v string) string {
		if v == "" {
			v = st.muted.Render("(empty)")
		}
		return st.muted.Render(name+": ") + v
	}
	return strings.Join([]string{
		field("To", d.To),
		field("Subject", d.Subject),
		"",
		field("Body", d.Body),
		"",
		st.muted.Render("/to /subject /body edit · /send transmits"),
	}, "\n")
}

func tasksPanel(st styles, s session.Snapshot) string {
	var b strings.Builder
	if len(s.Tasks) == 0 {
		b.WriteString(st.muted.Render("No directives on record."))
	}
	for i, t := range s.Tasks {
		box := "[ ]"
		line := t.Title
		if t.Completed {
			box = "[x]"
			line = st.done.Render(line)
		}
		prio := string(t.Priority)
		if t.Priority == session.PriorityHigh {
			prio = st.high.Render(prio)
		}
		fmt.Fprintf(&b, "%2d %s %s %s", i+1, box, line, st.muted.Render("· ")+prio)
		if t.Provisional() {
			b.WriteString(st.muted.Render(" (syncing)"))
		}
		b.WriteByte('\n')
	}

	if rs := s.ActiveReminders(); len(rs) > 0 {
		b.WriteString("\n" + st.panelHead.Render("CHRONOMETER") + "\n")
		for _, r := range rs {
			fmt.Fprintf(&b, "  %s %s\n", st.indicator.Render(r.Due.Format("15:04")), r.Text)
		}
	}

	switch s.Calendar {
	case session.SyncSyncing:
		b.WriteString("\n" + st.muted.Render("Calendar: syncing..."))
	case session.SyncSynced:
		b.WriteString("\n" + st.ok.Render("Calendar: synced"))
	case session.SyncError:
		b.WriteString("\n" + st.warn.Render("Calendar: sync failed"))
	}
	return strings.TrimRight(b.String(), "\n")
}

func searchPanel(st styles, results []session.SearchResult) string {
	if len(results) == 0 {
		return st.muted.Render("No search in progress.")
	}
	var lines []string
	for _, r := range results {
		lines = append(lines, st.title.Render(r.Title), r.Snippet, st.muted.Render(r.Link), "")
	}
	return strings.TrimRight(strings.Join(lines, "\n"), "\n")
}

func mediaPanel(st styles, m session.Media) string {
	if m.Query == "" {
		return st.muted.Render("Media Bay idle.")
	}
	if m.VideoID == "" {
		return fmt.Sprintf("Locating %q...", m.Query)
	}
	return fmt.Sprintf("Now streaming %q\n%s", m.Query, st.indicator.Render(watchURL+m.VideoID))
}

func systemPanel(m session.Metrics) string {
	return strings.Join([]string{
		gauge("CPU ", m.CPU),
		gauge("RAM ", m.RAM),
		"TEMP " + strconv.FormatFloat(m.Temp, 'f', 1, 64) + "°C",
	}, "\n")
}

func gauge(label string, pct int) string {
	const width = 20
	pct = max(0, min(100, pct))
	filled := pct * width / 100
	return fmt.Sprintf("%s[%s%s] %3d%%", label, strings.Repeat("█", filled), strings.Repeat("░", width-filled), pct)
}

func scannerPanel(st styles, s session.Snapshot) string {
	if s.Scanning {
		return st.indicator.Render("Scanning sector...")
	}
	if len(s.Scan) == 0 {
		return st.muted.Render("No sector indexed.")
	}
	var b strings.Builder
	for _, f := range s.Scan {
		b.WriteString("› " + f + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
