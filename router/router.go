package router

import (
	"net/http"

	docHandler "writer/internal/document"
	"writer/internal/document/service"
	"writer/internal/view"
	"writer/middleware"
	"writer/socket"
)

// Options configures the cross-cutting middleware.
type Options struct {
	JWTSecret  string
	CORSOrigin string
}

func Setup(docService *service.DocumentService, hub *socket.Hub, views *view.Router, opts Options) http.Handler {
	mux := http.NewServeMux()
	auth := middleware.Auth(opts.JWTSecret)
	protected := func(h http.HandlerFunc) http.Handler {
		return auth(middleware.RequestLogger(h))
	}

	// WebSocket change feed
	mux.Handle("/ws", protected(func(w http.ResponseWriter, r *http.Request) {
		socket.ServeWs(hub, w, r)
	}))

	// REST API
	documents := docHandler.NewDocumentHandler(docService)
	mux.Handle("/api/documents", protected(documents.GetDocuments))
	mux.Handle("/api/documents/get", protected(documents.GetDocument))
	mux.Handle("/api/documents/save", protected(documents.SaveDocument))

	// Views: the shell is public, routing happens on the fragment.
	shell := view.NewShellHandler(views)
	mux.Handle("/api/routes/resolve", middleware.RequestLogger(http.HandlerFunc(shell.ResolveHandler)))
	mux.Handle("/", middleware.RequestLogger(shell))

	origin := opts.CORSOrigin
	if origin == "" {
		origin = "*"
	}
	return middleware.CORS(origin)(mux)
}
