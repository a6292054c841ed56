package views

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"tui/db"
	"tui/styles"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type dashboardDataMsg struct {
	stats     []db.SourceStats
	runs      []db.SearchRun
	runCount  int
	seenCount int
	err       error
}

type logTailMsg struct {
	lines   []string
	modTime time.Time
}

type Dashboard struct {
	db            *db.Client
	width, height int
	stats         []db.SourceStats
	runs          []db.SearchRun
	runCount      int
	seenCount     int
	err           error
	logLines      []string
	logPath       string
	logScroll     int       // scroll offset (0 = bottom/newest)
	logViewport   int       // visible lines
	logBuffer     int       // total lines to keep
	logModTime    time.Time // last modification time of log file
}

func NewDashboard(dbClient *db.Client, logPath string) Dashboard {
	if logPath == "" {
		logPath = "search.log"
	}
	return Dashboard{
		db:          dbClient,
		logPath:     logPath,
		logViewport: 20,
		logBuffer:   200,
	}
}

func (d Dashboard) Init() tea.Cmd {
	return tea.Batch(d.Refresh(), d.RefreshLog())
}

func (d Dashboard) Refresh() tea.Cmd {
	return func() tea.Msg {
		stats, err := d.db.GetSourceStats()
		if err != nil {
			return dashboardDataMsg{err: err}
		}
		runs, _ := d.db.GetRecentRuns(12)
		runCount, _ := d.db.GetRunCount()
		seenCount, _ := d.db.GetSeenCount()
		return dashboardDataMsg{stats: stats, runs: runs, runCount: runCount, seenCount: seenCount}
	}
}

func (d Dashboard) RefreshLog() tea.Cmd {
	return func() tea.Msg {
		lines, modTime := readLastLines(d.logPath, d.logBuffer)
		return logTailMsg{lines, modTime}
	}
}

func readLastLines(path string, n int) ([]string, time.Time) {
	info, err := os.Stat(path)
	if err != nil {
		return []string{"(no log file)"}, time.Time{}
	}
	modTime := info.ModTime()

	f, err := os.Open(path)
	if err != nil {
		return []string{"(no log file)"}, time.Time{}
	}
	defer f.Close()

	var allLines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		allLines = append(allLines, scanner.Text())
	}

	if len(allLines) == 0 {
		return []string{"(empty log)"}, modTime
	}

	start := len(allLines) - n
	if start < 0 {
		start = 0
	}
	return allLines[start:], modTime
}

func (d Dashboard) SetSize(w, h int) Dashboard {
	d.width = w
	d.height = h
	return d
}

func (d Dashboard) Update(msg tea.Msg) (Dashboard, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardDataMsg:
		d.err = msg.err
		if msg.err == nil {
			d.stats = msg.stats
			d.runs = msg.runs
			d.runCount = msg.runCount
			d.seenCount = msg.seenCount
		}
	case logTailMsg:
		d.logLines = msg.lines
		d.logModTime = msg.modTime
	case tea.KeyMsg:
		maxScroll := len(d.logLines) - d.logViewport
		if maxScroll < 0 {
			maxScroll = 0
		}
		switch msg.String() {
		case "up", "k":
			d.logScroll = min(d.logScroll+1, maxScroll)
		case "down", "j":
			d.logScroll = max(d.logScroll-1, 0)
		case "pgup":
			d.logScroll = min(d.logScroll+10, maxScroll)
		case "pgdown":
			d.logScroll = max(d.logScroll-10, 0)
		case "home":
			d.logScroll = maxScroll
		case "end":
			d.logScroll = 0
		}
	}
	return d, nil
}

func (d Dashboard) View() string {
	if d.err != nil {
		return styles.StatusError.Render(fmt.Sprintf("Run log unavailable: %v", d.err))
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		styles.Title.Render("Búsquedas"),
		d.renderStatCards(),
		"",
		d.renderSourceCards(),
		"",
		styles.Title.Render("Recent Runs"),
		d.renderRunsTable(),
		"",
		d.renderLogTail(),
	)
}

func (d Dashboard) renderStatCards() string {
	var newTotal, fallbacks int
	for _, s := range d.stats {
		newTotal += s.ListingsNew
		fallbacks += s.FallbackRuns
	}
	cards := []string{
		d.renderStatCard("Runs", fmt.Sprintf("%d", d.runCount)),
		d.renderStatCard("Sources", fmt.Sprintf("%d", len(d.stats))),
		d.renderStatCard("Seen", fmt.Sprintf("%d", d.seenCount)),
		d.renderStatCard("New", fmt.Sprintf("%d", newTotal)),
		d.renderStatCard("Fallbacks", fmt.Sprintf("%d", fallbacks)),
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

func (d Dashboard) renderStatCard(label, value string) string {
	content := lipgloss.JoinVertical(lipgloss.Center,
		styles.StatValue.Render(value),
		styles.StatLabel.Render(label),
	)
	return styles.CardBorder.Width(16).Render(content)
}

func (d Dashboard) renderSourceCards() string {
	if len(d.stats) == 0 {
		return styles.Muted.Render("No searches recorded yet")
	}

	var cards []string
	for _, s := range d.stats {
		cards = append(cards, d.renderSourceCard(s))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cards...)
}

func (d Dashboard) renderSourceCard(s db.SourceStats) string {
	status, statusStyle := statusBadge(s.LastStatus)

	lastRun := "never"
	if s.LastRunAt != nil {
		lastRun = relativeTime(*s.LastRunAt)
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		styles.StatValue.Render(truncate(s.Source, 22)),
		statusStyle.Render(status),
		styles.StatLabel.Render(fmt.Sprintf("Last: %s", lastRun)),
		styles.StatLabel.Render(fmt.Sprintf("Runs: %d", s.Runs)),
		styles.StatLabel.Render(fmt.Sprintf("Avg found: %.1f", s.AvgListings)),
		styles.StatLabel.Render(fmt.Sprintf("Empty: %.0f%%", s.EmptyRate*100)),
	)
	return styles.SearchCardBorder.Width(26).Render(content)
}

func statusBadge(status string) (string, lipgloss.Style) {
	switch status {
	case "completed":
		return "✓ completed", styles.StatusSuccess
	case "empty":
		return "○ empty", styles.StatusPending
	case "failed":
		return "✗ failed", styles.StatusError
	case "running":
		return "◐ running", styles.StatusPending
	}
	return "○ never run", styles.StatusPending
}

func (d Dashboard) renderRunsTable() string {
	if len(d.runs) == 0 {
		return styles.Muted.Render("No runs yet")
	}

	header := fmt.Sprintf("%-18s %-10s %-8s %4s %6s %4s  %s",
		"Source", "Status", "Started", "Tier", "Found", "New", "Query")
	rows := styles.TableHeader.Render(header) + "\n"

	queryWidth := d.width - 60
	for _, r := range d.runs {
		_, statusStyle := statusBadge(r.Status)
		row := fmt.Sprintf("%-18s %s %-8s %4d %6d %4d  %s",
			truncate(r.Source, 18),
			statusStyle.Render(fmt.Sprintf("%-10s", r.Status)),
			r.StartedAt.Format("15:04:05"),
			r.Tier,
			r.ListingsFound,
			r.ListingsNew,
			truncate(r.Query, queryWidth),
		)
		rows += row + "\n"
	}
	return rows
}

func (d Dashboard) renderLogTail() string {
	if len(d.logLines) == 0 {
		return styles.LogBox.Width(d.width - 4).Render(styles.Muted.Render("(waiting for logs...)"))
	}

	total := len(d.logLines)
	endIdx := total - d.logScroll
	startIdx := endIdx - d.logViewport
	if startIdx < 0 {
		startIdx = 0
	}

	var lines []string
	for _, line := range d.logLines[startIdx:endIdx] {
		lines = append(lines, styleLogLine(line, d.width-8))
	}

	scrollInfo := styles.StatusSuccess.Render(" ● LIVE ")
	if d.logScroll > 0 {
		scrollInfo = styles.StatusPending.Render(fmt.Sprintf(" ↑%d ", d.logScroll))
	} else if !d.logModTime.IsZero() && time.Since(d.logModTime) > 10*time.Minute {
		scrollInfo = styles.Muted.Render(" ● IDLE ")
	}

	header := styles.Title.Render("Log") + scrollInfo +
		styles.Muted.Render(fmt.Sprintf("[%d-%d/%d]", startIdx+1, endIdx, total))
	return styles.LogBox.Width(d.width - 4).Render(header + "\n" + strings.Join(lines, "\n"))
}

// styleLogLine colours by the "[level]" tag the daemon writes after the
// timestamp.
func styleLogLine(line string, maxWidth int) string {
	line = truncate(line, maxWidth)

	tsEnd := 0
	if len(line) > 19 && line[4] == '/' {
		tsEnd = 19
	}
	ts, rest := line[:tsEnd], line[tsEnd:]

	switch {
	case strings.Contains(rest, "[error]"):
		rest = styles.StatusError.Render(rest)
	case strings.Contains(rest, "[warn]") || strings.Contains(rest, "Warning:"):
		rest = styles.StatusPending.Render(rest)
	case strings.Contains(rest, "[info]"):
		rest = styles.LogInfo.Render(rest)
	}
	if ts == "" {
		return rest
	}
	return styles.LogTimestamp.Render(ts) + rest
}

func relativeTime(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if len(s) <= max {
		return s
	}
	if max <= 1 {
		return "…"
	}
	return s[:max-1] + "…"
}
