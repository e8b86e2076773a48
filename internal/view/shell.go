package view

import (
	"bytes"
	"embed"
	"encoding/json"
	"html/template"
	"net/http"

	"writer/pkg/logger"
)

//go:embed templates/shell.html
var templates embed.FS

var shellTemplate = template.Must(template.ParseFS(templates, "templates/shell.html"))

// ShellHandler serves the single HTML entry document. Routing then happens
// client-side on the fragment, so only "/" is served.
type ShellHandler struct {
	Router *Router
	Title  string
}

func NewShellHandler(router *Router) *ShellHandler {
	return &ShellHandler{Router: router, Title: "Writer"}
}

func (h *ShellHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	routesJSON, err := json.Marshal(h.Router.Routes())
	if err != nil {
		logger.Sugar.Errorf("Failed to encode route table: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	err = shellTemplate.Execute(&buf, struct {
		Title      string
		Initial    Match
		RoutesJSON template.JS
	}{
		Title:      h.Title,
		Initial:    h.Router.Resolve("/"),
		RoutesJSON: template.JS(routesJSON),
	})
	if err != nil {
		logger.Sugar.Errorf("Failed to render shell: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

// ResolveHandler answers GET /api/routes/resolve?location=... with the matched view.
func (h *ShellHandler) ResolveHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	match := h.Router.ResolveLocation(r.URL.Query().Get("location"))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(match)
}
