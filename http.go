package main

import (
	"context"
	"html/template"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

type HTTPConfig struct {
	Addr      string
	Log       *Logger
	Dashboard *Dashboard
	M         *Metrics
	// Reload is the page's self-refresh period; zero disables it.
	Reload time.Duration
}

type HTTPServer struct {
	cfg HTTPConfig
}

func NewHTTPServer(cfg HTTPConfig) *http.Server {
	hs := &HTTPServer{cfg: cfg}
	return &http.Server{
		Addr:         cfg.Addr,
		Handler:      hs.routes(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
}

func (hs *HTTPServer) routes() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/", hs.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/refresh", hs.handleRefresh).Methods(http.MethodPost)
	r.HandleFunc("/api/document", hs.handleDocument).Methods(http.MethodGet)
	r.HandleFunc("/health", hs.handleHealth).Methods(http.MethodGet)
	return r
}

func (hs *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	snap := hs.cfg.M.Snapshot()
	snap["mode"] = hs.cfg.Dashboard.Mode()
	writeJSON(w, snap)
}

func (hs *HTTPServer) handleDocument(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, hs.cfg.Dashboard.Document().State())
}

// handleRefresh is the manual refresh button. The one-shot fetch runs in the
// background so the redirected page can show the loading state.
func (hs *HTTPServer) handleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := context.WithoutCancel(r.Context())
	go func() {
		if err := hs.cfg.Dashboard.Refresh(ctx); err != nil {
			hs.cfg.Log.Debugf("manual refresh: %v", err)
		}
	}()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (hs *HTTPServer) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")

	data := pageData{
		State:  hs.cfg.Dashboard.Document().State(),
		Mode:   hs.cfg.Dashboard.Mode(),
		Reload: int(hs.cfg.Reload / time.Second),
	}
	// Poll quickly until the in-flight refresh lands.
	if data.El(IDRefreshBtn).Disabled {
		data.Reload = loadingReload
	}
	if err := pageTmpl.Execute(w, data); err != nil {
		hs.cfg.Log.Errorf("render page: %v", err)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	enc := json.NewEncoder(w)
	_ = enc.Encode(v)
}

const loadingReload = 1

type pageData struct {
	State  DocumentState
	Mode   string
	Reload int
}

func (p pageData) El(id string) Element { return p.State.Elements[id] }

var pageTmpl = template.Must(template.New("page").Parse(pageHTML))

const pageHTML = `<!doctype html>
<html>
<head>
  <meta charset="utf-8"/>
  <meta name="viewport" content="width=device-width, initial-scale=1"/>
  {{- if gt .Reload 0}}
  <meta http-equiv="refresh" content="{{.Reload}}"/>
  {{- end}}
  <title>admin dashboard</title>
</head>
<body>
<header>
  <b>admin dashboard</b> <span class="muted">{{.Mode}}</span>
  <span id="last-updated">{{(.El "last-updated").Text}}</span>
  <form method="post" action="/refresh">
    {{- $btn := .El "refresh-btn"}}
    <button id="refresh-btn" type="submit"{{if $btn.Disabled}} disabled{{end}}>{{$btn.Text}}</button>
  </form>
</header>
<main>
  <section class="metrics">
    <div>Total users <span id="metric-total">{{(.El "metric-total").Text}}</span></div>
    <div>Online <span id="metric-online">{{(.El "metric-online").Text}}</span></div>
    <div>Active calls <span id="metric-calls">{{(.El "metric-calls").Text}}</span></div>
    <div>Messages today <span id="metric-messages">{{(.El "metric-messages").Text}}</span></div>
  </section>
  <h3>Users</h3>
  <table>
    <thead><tr><th>Username</th><th>Display name</th><th>Status</th></tr></thead>
    {{template "body" (.El "users-body")}}
  </table>
  <h3>Calls</h3>
  <table>
    <thead><tr><th>ID</th><th>Caller</th><th>Callee</th><th>Status</th><th>Started</th></tr></thead>
    {{template "body" (.El "calls-body")}}
  </table>
</main>
</body>
</html>
{{define "body"}}<tbody id="{{.ID}}" data-columns="{{.Columns}}">
{{- range .Rows}}
  <tr>{{range .Cells}}<td{{if .Colspan}} colspan="{{.Colspan}}"{{end}}{{if .Class}} class="{{.Class}}"{{end}}>{{.Text}}</td>{{end}}</tr>
{{- end}}
</tbody>{{end}}`
