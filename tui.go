package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

var (
	usersHeader = []string{"Username", "Display name", "Status"}
	callsHeader = []string{"ID", "Caller", "Callee", "Status", "Started"}
)

// tuiView renders the document in a terminal: metrics on top, the two tables
// below and a status line. Keys: r refresh, q quit.
type tuiView struct {
	app    *tview.Application
	stats  *tview.TextView
	users  *tview.Table
	calls  *tview.Table
	status *tview.TextView

	dash    *Dashboard
	metrics *Metrics
	log     *Logger
}

func newTUIView(dash *Dashboard, m *Metrics, log *Logger) *tuiView {
	makeTable := func(title string) *tview.Table {
		t := tview.NewTable().SetFixed(1, 0)
		t.SetBorder(true).SetTitle(title).SetTitleAlign(tview.AlignLeft)
		return t
	}

	v := &tuiView{
		app:     tview.NewApplication(),
		stats:   tview.NewTextView().SetDynamicColors(true).SetWrap(false),
		users:   makeTable(" Users "),
		calls:   makeTable(" Calls "),
		status:  tview.NewTextView().SetDynamicColors(true).SetWrap(false),
		dash:    dash,
		metrics: m,
		log:     log,
	}
	v.stats.SetTextColor(tcell.ColorYellow)

	layout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(v.stats, 2, 0, false).
		AddItem(v.users, 0, 1, false).
		AddItem(v.calls, 0, 1, false).
		AddItem(v.status, 1, 0, false)

	v.app.SetRoot(layout, true)
	return v
}

// run blocks until the user quits or ctx ends.
func (v *tuiView) run(ctx context.Context, quit func()) error {
	v.app.SetInputCapture(func(ev *tcell.EventKey) *tcell.EventKey {
		switch ev.Rune() {
		case 'r', 'R':
			go func() {
				if err := v.dash.Refresh(ctx); err != nil {
					v.log.Debugf("manual refresh: %v", err)
				}
			}()
			return nil
		case 'q', 'Q':
			quit()
			return nil
		}
		return ev
	})

	changes, unsubscribe := v.dash.Document().Subscribe()
	defer unsubscribe()

	go func() {
		tick := time.NewTicker(time.Second)
		defer tick.Stop()
		for {
			select {
			case <-ctx.Done():
				v.app.Stop()
				return
			case <-changes:
			case <-tick.C:
			}
			v.app.QueueUpdateDraw(v.sync)
		}
	}()

	v.sync()
	return v.app.Run()
}

// sync copies the current document into the widgets.
func (v *tuiView) sync() {
	st := v.dash.Document().State()

	v.stats.SetText(fmt.Sprintf(
		"Total users [white]%s[yellow]   Online [white]%s[yellow]   Active calls [white]%s[yellow]   Messages today [white]%s",
		st.Text(IDMetricTotal), st.Text(IDMetricOnline), st.Text(IDMetricCalls), st.Text(IDMetricMessages)))

	fillTable(v.users, usersHeader, st.Rows(IDUsersBody))
	fillTable(v.calls, callsHeader, st.Rows(IDCallsBody))

	v.status.SetText(statusLine(st, v.dash.Mode(), v.metrics.LastApplied(), time.Now()))
}

func statusLine(st DocumentState, mode string, lastApplied, now time.Time) string {
	parts := []string{"[" + mode + "]"}
	if s := st.Text(IDLastUpdated); s != "" {
		parts = append(parts, tview.Escape(s))
	}
	if !lastApplied.IsZero() {
		parts = append(parts, "("+humanize.RelTime(lastApplied, now, "ago", "from now")+")")
	}
	if el := st.Elements[IDRefreshBtn]; el.Disabled {
		parts = append(parts, el.Text)
	}
	parts = append(parts, "r refresh  q quit")
	return strings.Join(parts, "  ")
}

// fillTable writes header plus rows. Placeholder rows occupy the first column.
func fillTable(t *tview.Table, header []string, rows []Row) {
	t.Clear()
	for col, h := range header {
		t.SetCell(0, col, tview.NewTableCell(h).
			SetTextColor(tcell.ColorYellow).
			SetSelectable(false).
			SetExpansion(1))
	}
	for i, row := range rows {
		for col, c := range row.Cells {
			cell := tview.NewTableCell(tview.Escape(c.Text)).SetExpansion(1)
			switch {
			case row.Placeholder:
				cell.SetTextColor(tcell.ColorGray)
			case c.Class == classOnline:
				cell.SetTextColor(tcell.ColorGreen)
			case c.Class == classOffline:
				cell.SetTextColor(tcell.ColorRed)
			}
			t.SetCell(i+1, col, cell)
		}
	}
}
