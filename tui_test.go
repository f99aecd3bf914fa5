package main

import (
	"strings"
	"testing"
	"time"

	"github.com/rivo/tview"
)

func TestFillTableRows(t *testing.T) {
	doc := NewDocument()
	RenderUsers(doc, []User{
		{Username: "a", DisplayName: "Alice", Online: true},
		{Username: "b", DisplayName: "[red]Bob", Online: false},
	})

	table := tview.NewTable()
	fillTable(table, usersHeader, doc.Rows(IDUsersBody))

	if got := table.GetRowCount(); got != 3 {
		t.Fatalf("expected header + 2 rows, got %d", got)
	}
	if got := table.GetCell(0, 1).Text; got != "Display name" {
		t.Fatalf("header cell = %q", got)
	}
	if got := table.GetCell(1, 2).Text; got != "Online" {
		t.Fatalf("status cell = %q", got)
	}
	if got := table.GetCell(2, 1).Text; got != tview.Escape("[red]Bob") {
		t.Fatalf("expected style tags escaped, got %q", got)
	}
}

func TestFillTablePlaceholder(t *testing.T) {
	doc := NewDocument()
	RenderCalls(doc, nil, utcFormatter())

	table := tview.NewTable()
	fillTable(table, callsHeader, doc.Rows(IDCallsBody))
	if got := table.GetRowCount(); got != 2 {
		t.Fatalf("expected header + placeholder, got %d rows", got)
	}
	if got := table.GetCell(1, 0).Text; got != emptyCallsMessage {
		t.Fatalf("placeholder cell = %q", got)
	}
}

func TestStatusLine(t *testing.T) {
	doc := NewDocument()
	doc.SetText(IDLastUpdated, "Live at 3/5/2024, 2:07:09 PM")
	now := time.Date(2024, 3, 5, 14, 8, 0, 0, time.UTC)

	got := statusLine(doc.State(), ModeStream, now.Add(-10*time.Second), now)
	for _, want := range []string{"[stream]", "Live at", "10 seconds ago", "r refresh"} {
		if !strings.Contains(got, want) {
			t.Fatalf("status line %q missing %q", got, want)
		}
	}

	doc.SetDisabled(IDRefreshBtn, true)
	doc.SetText(IDRefreshBtn, refreshingLabel)
	if got := statusLine(doc.State(), ModePoll, time.Time{}, now); !strings.Contains(got, refreshingLabel) || strings.Contains(got, "ago") {
		t.Fatalf("unexpected status line while loading: %q", got)
	}
}
