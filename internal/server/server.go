// Package server is the REST front for the Tidsreg bridge. It mirrors the
// tool surface as plain HTTP endpoints so browser-based clients can use it.
package server

import (
	"net/http"

	"github.com/Sozary/tidsreg/internal/utils"
	"github.com/Sozary/tidsreg/pkg/tidsreg"
)

type Server struct {
	Client *tidsreg.Client
}

func New(client *tidsreg.Client) *Server {
	return &Server{Client: client}
}

func (s *Server) Start(addr string) error {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /api/login", s.handleLogin)
	mux.HandleFunc("GET /api/customers", s.handleCustomers)
	mux.HandleFunc("GET /api/projects", s.handleProjects)
	mux.HandleFunc("GET /api/phases", s.handlePhases)
	mux.HandleFunc("GET /api/activities", s.handleActivities)
	mux.HandleFunc("GET /api/kinds", s.handleKinds)
	mux.HandleFunc("GET /api/hours", s.handleHours)
	mux.HandleFunc("GET /api/tools", s.handleTools)

	utils.Log.Infof("Starting Tidsreg HTTP server on %s", addr)
	return http.ListenAndServe(addr, cors(mux))
}

// cors allows any origin on all routes; the bridge is meant to be exposed
// through a local tunnel to browser-based clients.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
