package main

import (
	"sync"
	"time"
)

// Element ids shared by every surface. They are the dashboard's only
// contract with its markup.
const (
	IDMetricTotal    = "metric-total"
	IDMetricOnline   = "metric-online"
	IDMetricCalls    = "metric-calls"
	IDMetricMessages = "metric-messages"
	IDUsersBody      = "users-body"
	IDCallsBody      = "calls-body"
	IDLastUpdated    = "last-updated"
	IDRefreshBtn     = "refresh-btn"
)

const (
	usersColumns = 3
	callsColumns = 5

	// fallback span for ShowError when a body has no data-columns
	defaultColumns = 3

	refreshLabel    = "Refresh Data"
	refreshingLabel = "Refreshing..."
)

type Cell struct {
	Text    string `json:"text"`
	Class   string `json:"class,omitempty"`
	Colspan int    `json:"colspan,omitempty"`
}

type Row struct {
	Cells       []Cell `json:"cells"`
	Placeholder bool   `json:"placeholder,omitempty"`
}

// Element is the state of one addressable node on the page.
type Element struct {
	ID       string `json:"id"`
	Text     string `json:"text,omitempty"`
	Disabled bool   `json:"disabled,omitempty"`
	Columns  int    `json:"columns,omitempty"`
	Rows     []Row  `json:"rows,omitempty"`
}

// DocumentState is a point-in-time copy of the document.
type DocumentState struct {
	Version   uint64             `json:"version"`
	UpdatedAt time.Time          `json:"updated_at"`
	Elements  map[string]Element `json:"elements"`
}

func (s DocumentState) Text(id string) string { return s.Elements[id].Text }
func (s DocumentState) Rows(id string) []Row  { return s.Elements[id].Rows }

// Document holds page state. Every write replaces a whole element attribute;
// readers never observe a half-written table.
type Document struct {
	mu        sync.RWMutex
	elems     map[string]*Element
	version   uint64
	updatedAt time.Time

	subMu sync.Mutex
	subs  map[chan struct{}]struct{}
}

func NewDocument() *Document {
	d := &Document{
		elems: make(map[string]*Element),
		subs:  make(map[chan struct{}]struct{}),
	}
	for _, id := range []string{IDMetricTotal, IDMetricOnline, IDMetricCalls, IDMetricMessages} {
		d.elems[id] = &Element{ID: id, Text: "0"}
	}
	d.elems[IDUsersBody] = &Element{ID: IDUsersBody, Columns: usersColumns}
	d.elems[IDCallsBody] = &Element{ID: IDCallsBody, Columns: callsColumns}
	d.elems[IDLastUpdated] = &Element{ID: IDLastUpdated}
	d.elems[IDRefreshBtn] = &Element{ID: IDRefreshBtn, Text: refreshLabel}
	return d
}

func (d *Document) update(id string, fn func(e *Element)) {
	d.mu.Lock()
	e, ok := d.elems[id]
	if !ok {
		e = &Element{ID: id}
		d.elems[id] = e
	}
	fn(e)
	d.version++
	d.updatedAt = time.Now()
	d.mu.Unlock()
	d.notify()
}

func (d *Document) SetText(id, text string) {
	d.update(id, func(e *Element) { e.Text = text })
}

func (d *Document) SetDisabled(id string, disabled bool) {
	d.update(id, func(e *Element) { e.Disabled = disabled })
}

// SetColumns sets the data-columns value used by ShowError.
func (d *Document) SetColumns(id string, n int) {
	d.update(id, func(e *Element) { e.Columns = n })
}

// SetRows replaces the rows of a table body.
func (d *Document) SetRows(id string, rows []Row) {
	d.update(id, func(e *Element) { e.Rows = rows })
}

func (d *Document) Text(id string) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if e, ok := d.elems[id]; ok {
		return e.Text
	}
	return ""
}

func (d *Document) Disabled(id string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if e, ok := d.elems[id]; ok {
		return e.Disabled
	}
	return false
}

func (d *Document) Columns(id string) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if e, ok := d.elems[id]; ok {
		return e.Columns
	}
	return 0
}

func (d *Document) Rows(id string) []Row {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if e, ok := d.elems[id]; ok {
		return cloneRows(e.Rows)
	}
	return nil
}

// State returns a deep copy of every element.
func (d *Document) State() DocumentState {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := DocumentState{
		Version:   d.version,
		UpdatedAt: d.updatedAt,
		Elements:  make(map[string]Element, len(d.elems)),
	}
	for id, e := range d.elems {
		cp := *e
		cp.Rows = cloneRows(e.Rows)
		out.Elements[id] = cp
	}
	return out
}

// Subscribe returns a channel that receives a signal after each change.
// Signals coalesce: a slow reader sees one pending signal, not a backlog.
func (d *Document) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	d.subMu.Lock()
	d.subs[ch] = struct{}{}
	d.subMu.Unlock()
	cancel := func() {
		d.subMu.Lock()
		delete(d.subs, ch)
		d.subMu.Unlock()
	}
	return ch, cancel
}

func (d *Document) notify() {
	d.subMu.Lock()
	defer d.subMu.Unlock()
	for ch := range d.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func cloneRows(rows []Row) []Row {
	if rows == nil {
		return nil
	}
	out := make([]Row, len(rows))
	for i, r := range rows {
		out[i] = Row{Cells: append([]Cell(nil), r.Cells...), Placeholder: r.Placeholder}
	}
	return out
}
