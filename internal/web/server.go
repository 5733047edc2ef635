package web

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/ayothedoc/funnel/internal/analytics"
	"github.com/ayothedoc/funnel/internal/attribution"
	"github.com/ayothedoc/funnel/internal/audit"
	"github.com/ayothedoc/funnel/internal/checkout"
	"github.com/ayothedoc/funnel/internal/config"
	"github.com/ayothedoc/funnel/internal/content"
	"github.com/ayothedoc/funnel/internal/leads"
)

// Deps bundles the services the HTTP layer routes to.
type Deps struct {
	Config    *config.Config
	Posts     content.PostRepository
	Playbooks content.PlaybookRepository
	Sinks     *leads.Chain
	Audits    *audit.Service
	Tracker   *attribution.Tracker
	Resolver  *checkout.Resolver
	Emitter   *analytics.Emitter
}

// NewServer creates and configures the HTTP server for the funnel API.
func NewServer(deps Deps, bind string, port int) *http.Server {
	h := &Handlers{
		cfg:       deps.Config,
		posts:     deps.Posts,
		playbooks: deps.Playbooks,
		sinks:     deps.Sinks,
		audits:    deps.Audits,
		tracker:   deps.Tracker,
		resolver:  deps.Resolver,
		emitter:   deps.Emitter,
	}

	mux := http.NewServeMux()

	// Routes using Go 1.22+ pattern syntax. Literal segments win over
	// wildcards, so /api/blog/categories is never swallowed by {slug}.
	mux.HandleFunc("GET /api/blog", h.HandleListPosts)
	mux.HandleFunc("GET /api/blog/categories", h.HandleCategories)
	mux.HandleFunc("GET /api/blog/recent", h.HandleRecentPosts)
	mux.HandleFunc("GET /api/blog/category/{category}", h.HandlePostsByCategory)
	mux.HandleFunc("GET /api/blog/{slug}", h.HandleGetPost)

	mux.HandleFunc("GET /api/automation", h.HandlePlaybookIndex)
	mux.HandleFunc("GET /api/automation/filters", h.HandlePlaybookFilters)
	mux.HandleFunc("GET /api/automation/{slug}", h.HandleGetPlaybook)

	mux.HandleFunc("POST /api/leads", h.HandleSubmitLead)
	mux.HandleFunc("POST /api/business-audit", h.HandleBusinessAudit)
	mux.HandleFunc("GET /api/checkout/{product}", h.HandleCheckout)
	mux.HandleFunc("GET /api/health", h.HandleHealth)

	mux.HandleFunc("GET /config.js", h.HandleConfigJS)
	mux.HandleFunc("GET /robots.txt", h.HandleRobots)
	mux.HandleFunc("GET /sitemap.xml", h.HandleSitemap)

	// Everything else is the SPA shell.
	mux.HandleFunc("/", h.HandleSPA)

	handler := recoverPanics(corsHeaders(securityHeaders(mux)))

	return &http.Server{
		Addr:    fmt.Sprintf("%s:%d", bind, port),
		Handler: handler,
	}
}

// corsHeaders echoes the request origin so the dev client on another port can
// call the API with credentials.
func corsHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Credentials", "true")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// securityHeaders adds security-related HTTP headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}

// recoverPanics maps handler panics to a 500 with a logged stack trace; no
// request may crash the process.
func recoverPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				log.Printf("panic serving %s %s: %v\n%s", r.Method, r.URL.Path, rec, debug.Stack())
				renderJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// Run starts the HTTP server and handles graceful shutdown on SIGINT/SIGTERM.
func Run(srv *http.Server) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	log.Printf("funnel server running at http://%s", srv.Addr)

	if strings.Contains(srv.Addr, "0.0.0.0") || strings.Contains(srv.Addr, "::") {
		log.Printf("WARNING: Server is binding to all interfaces and may be accessible from the network")
	}

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		log.Println("Shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}
