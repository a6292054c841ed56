package main

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestApp_AnnouncesNewListings(t *testing.T) {
	a := newApp(nil, "")

	next, _ := a.Update(seenPollMsg{seen: 10})
	a = next.(app)
	if a.seenStart != 10 || a.banner != "" {
		t.Fatalf("first poll sets the baseline without a banner, got start=%d banner=%q", a.seenStart, a.banner)
	}

	next, _ = a.Update(seenPollMsg{seen: 13})
	a = next.(app)
	if a.banner != "3 new listings" {
		t.Fatalf("unexpected banner %q", a.banner)
	}
	if !strings.Contains(a.statusLine(), "seen 13 (+3 this session)") {
		t.Fatalf("unexpected status line %q", a.statusLine())
	}
}

func TestApp_PauseToggle(t *testing.T) {
	a := newApp(nil, "")
	key := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("p")}

	next, _ := a.Update(key)
	a = next.(app)
	if !a.paused || !strings.Contains(a.statusLine(), "[paused]") {
		t.Fatalf("expected paused state")
	}

	next, _ = a.Update(key)
	if next.(app).paused {
		t.Fatalf("second press should resume")
	}
}
