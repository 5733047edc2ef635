package web

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/ayothedoc/funnel/internal/analytics"
	"github.com/ayothedoc/funnel/internal/attribution"
	"github.com/ayothedoc/funnel/internal/audit"
	"github.com/ayothedoc/funnel/internal/checkout"
	"github.com/ayothedoc/funnel/internal/config"
	"github.com/ayothedoc/funnel/internal/content"
	"github.com/ayothedoc/funnel/internal/errors"
	"github.com/ayothedoc/funnel/internal/leads"
)

// visitorCookie carries the durable visitor ID the attribution tracker keys
// snapshots by.
const visitorCookie = "ay_vid"

// Handlers contains HTTP route handlers for the funnel API.
type Handlers struct {
	cfg       *config.Config
	posts     content.PostRepository
	playbooks content.PlaybookRepository
	sinks     *leads.Chain
	audits    *audit.Service
	tracker   *attribution.Tracker
	resolver  *checkout.Resolver
	emitter   *analytics.Emitter
}

// --- blog ---

// HandleListPosts handles GET /api/blog.
func (h *Handlers) HandleListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts.ListPosts()
	if err != nil {
		renderError(w, err, "Failed to fetch posts")
		return
	}
	renderJSON(w, http.StatusOK, posts)
}

// HandleCategories handles GET /api/blog/categories.
func (h *Handlers) HandleCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.posts.Categories()
	if err != nil {
		renderError(w, err, "Failed to fetch categories")
		return
	}
	renderJSON(w, http.StatusOK, categories)
}

// HandleRecentPosts handles GET /api/blog/recent?limit=N.
func (h *Handlers) HandleRecentPosts(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", 3)
	posts, err := h.posts.RecentPosts(limit)
	if err != nil {
		renderError(w, err, "Failed to fetch recent posts")
		return
	}
	renderJSON(w, http.StatusOK, posts)
}

// HandlePostsByCategory handles GET /api/blog/category/{category}.
func (h *Handlers) HandlePostsByCategory(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts.PostsByCategory(r.PathValue("category"))
	if err != nil {
		renderError(w, err, "Failed to fetch posts")
		return
	}
	renderJSON(w, http.StatusOK, posts)
}

// HandleGetPost handles GET /api/blog/{slug}.
func (h *Handlers) HandleGetPost(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	post, err := h.posts.GetPost(slug)
	if err != nil {
		renderError(w, err, "Failed to fetch post")
		return
	}
	if post == nil {
		renderError(w, errors.NewNotFound("post", slug), "")
		return
	}
	renderJSON(w, http.StatusOK, post)
}

// --- automation playbooks ---

// HandlePlaybookIndex handles GET /api/automation.
func (h *Handlers) HandlePlaybookIndex(w http.ResponseWriter, r *http.Request) {
	index, err := h.playbooks.Index()
	if err != nil {
		renderError(w, err, "Failed to fetch automation playbooks")
		return
	}
	renderJSON(w, http.StatusOK, index)
}

// HandlePlaybookFilters handles GET /api/automation/filters.
func (h *Handlers) HandlePlaybookFilters(w http.ResponseWriter, r *http.Request) {
	filters, err := h.playbooks.Filters()
	if err != nil {
		renderError(w, err, "Failed to fetch filters")
		return
	}
	renderJSON(w, http.StatusOK, filters)
}

// HandleGetPlaybook handles GET /api/automation/{slug}.
func (h *Handlers) HandleGetPlaybook(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	playbook, err := h.playbooks.GetPlaybook(slug)
	if err != nil {
		renderError(w, err, "Failed to fetch playbook")
		return
	}
	if playbook == nil {
		renderError(w, errors.NewNotFound("playbook", slug), "")
		return
	}
	renderJSON(w, http.StatusOK, playbook)
}

// --- leads ---

// HandleSubmitLead handles POST /api/leads. Sink failures are logged but the
// response is uniform success whenever validation passes.
func (h *Handlers) HandleSubmitLead(w http.ResponseWriter, r *http.Request) {
	var lead leads.Lead
	if err := json.NewDecoder(r.Body).Decode(&lead); err != nil {
		renderError(w, errors.NewInvalidRequest("invalid JSON body"), "")
		return
	}

	if err := lead.Validate(); err != nil {
		renderError(w, err, "")
		return
	}

	if lead.Source == "" {
		lead.Source = h.leadSource(r)
	}

	h.sinks.Submit(r.Context(), &lead)

	renderJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Lead captured successfully",
		"data": map[string]string{
			"firstName": lead.FirstName,
			"email":     lead.Email,
		},
	})
}

// leadSource derives a source tag from the visitor's attribution when the
// payload carries none.
func (h *Handlers) leadSource(r *http.Request) string {
	source := "website"
	if cookie, err := r.Cookie(visitorCookie); err == nil {
		if attr, err := h.tracker.Attribution(cookie.Value); err == nil {
			if utmSource := attr["utm_source"]; utmSource != "" {
				source = "contact_" + utmSource
			}
		}
	}
	return source
}

// --- business audit ---

// HandleBusinessAudit handles POST /api/business-audit.
func (h *Handlers) HandleBusinessAudit(w http.ResponseWriter, r *http.Request) {
	var req audit.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderError(w, errors.NewInvalidRequest("invalid JSON body"), "")
		return
	}

	log.Printf("received audit request for %s (%s)", req.Email, req.BusinessType)

	resp, err := h.audits.Run(r.Context(), &req)
	if err != nil {
		renderError(w, err, "Failed to generate audit report")
		return
	}
	renderJSON(w, http.StatusOK, resp)
}

// --- checkout ---

// HandleCheckout handles GET /api/checkout/{product}: resolve the payment
// link, emit the click event, then hand the visitor off.
func (h *Handlers) HandleCheckout(w http.ResponseWriter, r *http.Request) {
	product := r.PathValue("product")
	cta := r.URL.Query().Get("cta")
	if cta == "" {
		cta = product
	}
	entryPath := r.URL.Query().Get("from")
	if entryPath == "" {
		entryPath = r.Referer()
	}

	res := h.resolver.Resolve(product)
	h.emitter.Emit(r.Context(), h.visitorID(r), checkout.ClickEvent(cta, res, entryPath))

	http.Redirect(w, r, res.URL, http.StatusFound)
}

// --- infrastructure endpoints ---

// HandleHealth handles GET /api/health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	renderJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HandleConfigJS handles GET /config.js, serving the runtime config global
// for deployments where build-time injection is unavailable.
func (h *Handlers) HandleConfigJS(w http.ResponseWriter, r *http.Request) {
	cfg := map[string]any{
		"gaMeasurementId": h.cfg.GAMeasurementID,
		"stripe": map[string]string{
			"roadmap": h.cfg.StripeLinks["roadmap"],
			"sprint":  h.cfg.StripeLinks["sprint"],
			"care":    h.cfg.StripeLinks["care"],
		},
	}
	payload, err := json.Marshal(cfg)
	if err != nil {
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	fmt.Fprintf(w, "window.__AY_CONFIG__ = %s;\n", payload)
}

// HandleSPA serves the built client bundle for any non-API path, falling back
// to index.html so the client-side router takes over. This is also where
// navigations get stamped into the attribution tracker.
func (h *Handlers) HandleSPA(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		renderJSON(w, http.StatusNotFound, map[string]string{"error": "Not found"})
		return
	}

	h.trackNavigation(w, r)

	path := filepath.Join(h.cfg.PublicDir, filepath.Clean("/"+r.URL.Path))
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		http.ServeFile(w, r, path)
		return
	}
	http.ServeFile(w, r, filepath.Join(h.cfg.PublicDir, "index.html"))
}

// trackNavigation ensures a visitor cookie exists and records the navigation.
// Only page loads are tracked, not asset requests.
func (h *Handlers) trackNavigation(w http.ResponseWriter, r *http.Request) {
	if filepath.Ext(r.URL.Path) != "" {
		return
	}

	id := h.visitorID(r)
	if _, err := r.Cookie(visitorCookie); err != nil {
		http.SetCookie(w, &http.Cookie{
			Name:     visitorCookie,
			Value:    id,
			Path:     "/",
			MaxAge:   int((2 * 365 * 24 * time.Hour).Seconds()),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}

	if err := h.tracker.Track(id, r.URL, r.Referer(), time.Now()); err != nil {
		log.Printf("attribution tracking failed: %v", err)
	}
}

// visitorID returns the visitor's cookie value, minting a new ULID when the
// cookie is absent.
func (h *Handlers) visitorID(r *http.Request) string {
	if cookie, err := r.Cookie(visitorCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	s := r.URL.Query().Get(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}
