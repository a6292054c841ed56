package main

import (
	"fmt"
	"os"
	"time"

	"tui/db"
	"tui/styles"
	"tui/views"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"
)

const (
	pollEvery = 30 * time.Second
	logEvery  = 2 * time.Second
)

// app wraps the dashboard and tracks the seen-listing count itself, so a
// watcher pass that finds something is announced between refreshes.
type app struct {
	db        *db.Client
	dashboard views.Dashboard
	width     int

	seen      int
	seenStart int // -1 until the first poll lands
	paused    bool

	banner      string
	bannerUntil time.Time
}

type seenPollMsg struct {
	seen int
	err  error
}

type logTickMsg time.Time

func newApp(dbClient *db.Client, logPath string) app {
	return app{
		db:        dbClient,
		dashboard: views.NewDashboard(dbClient, logPath),
		seenStart: -1,
	}
}

func (a app) Init() tea.Cmd {
	return tea.Batch(a.dashboard.Init(), a.pollSeen(0), tickLog())
}

func (a app) pollSeen(after time.Duration) tea.Cmd {
	fetch := func() tea.Msg {
		n, err := a.db.GetSeenCount()
		return seenPollMsg{seen: n, err: err}
	}
	if after == 0 {
		return fetch
	}
	return tea.Tick(after, func(time.Time) tea.Msg { return fetch() })
}

func tickLog() tea.Cmd {
	return tea.Tick(logEvery, func(t time.Time) tea.Msg { return logTickMsg(t) })
}

func (a *app) announce(text string) {
	a.banner = text
	a.bannerUntil = time.Now().Add(4 * time.Second)
}

func (a app) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return a, tea.Quit
		case "r":
			a.announce("Refreshed")
			return a, tea.Batch(a.dashboard.Refresh(), a.pollSeen(0))
		case "p":
			a.paused = !a.paused
			if a.paused {
				a.announce("Auto refresh paused")
			} else {
				a.announce("Auto refresh on")
			}
			return a, nil
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.dashboard = a.dashboard.SetSize(msg.Width, msg.Height-2)

	case seenPollMsg:
		if msg.err == nil {
			if a.seenStart < 0 {
				a.seenStart = msg.seen
			} else if msg.seen > a.seen {
				a.announce(fmt.Sprintf("%d new listings", msg.seen-a.seen))
			}
			a.seen = msg.seen
		}
		if !a.paused {
			cmds = append(cmds, a.dashboard.Refresh())
		}
		cmds = append(cmds, a.pollSeen(pollEvery))

	case logTickMsg:
		if !a.paused {
			cmds = append(cmds, a.dashboard.RefreshLog())
		}
		cmds = append(cmds, tickLog())
	}

	var cmd tea.Cmd
	a.dashboard, cmd = a.dashboard.Update(msg)
	cmds = append(cmds, cmd)

	return a, tea.Batch(cmds...)
}

func (a app) View() string {
	return lipgloss.JoinVertical(lipgloss.Left, a.dashboard.View(), a.statusLine())
}

func (a app) statusLine() string {
	keys := "↑/↓ log  r refresh  p pause  q quit"
	if a.paused {
		keys = "[paused]  " + keys
	}
	left := keys
	if a.seenStart >= 0 {
		left = fmt.Sprintf("seen %d (+%d this session)  %s", a.seen, a.seen-a.seenStart, keys)
	}

	right := ""
	if time.Now().Before(a.bannerUntil) {
		right = styles.Notification.Render(a.banner)
	}

	gap := max(a.width-lipgloss.Width(left)-lipgloss.Width(right)-2, 0)
	return styles.StatusBar.Render(left) + lipgloss.NewStyle().Width(gap).Render("") + right
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	_ = godotenv.Load()

	dbClient, err := db.New(os.Getenv("DATABASE_URL"), envOr("DB_PATH", "searches.db"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening run log: %v\n", err)
		os.Exit(1)
	}

	_, err = tea.NewProgram(newApp(dbClient, envOr("LOG_PATH", "search.log")), tea.WithAltScreen()).Run()
	dbClient.Close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
