package web

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ayothedoc/funnel/internal/analytics"
	"github.com/ayothedoc/funnel/internal/attribution"
	"github.com/ayothedoc/funnel/internal/audit"
	"github.com/ayothedoc/funnel/internal/checkout"
	"github.com/ayothedoc/funnel/internal/config"
	"github.com/ayothedoc/funnel/internal/content"
	"github.com/ayothedoc/funnel/internal/leads"
)

type stubGenerator struct{ report string }

func (g *stubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return g.report, nil
}

type stubMailer struct{}

func (m *stubMailer) Send(ctx context.Context, to, subject, html string) error { return nil }

type testEnv struct {
	server   *httptest.Server
	fileSink *leads.FileSink
	dataDir  string
}

// newTestEnv wires the full handler stack over temp directories and in-memory
// fakes. The audit generator is stubbed; everything else is real.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	contentDir := t.TempDir()
	dataDir := t.TempDir()
	publicDir := t.TempDir()

	post := `---
title: Hello World
excerpt: First post
date: "2025-05-01"
category: Automation
---
# Hello

Welcome.
`
	if err := os.WriteFile(filepath.Join(contentDir, "hello-world.md"), []byte(post), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if err := os.WriteFile(filepath.Join(publicDir, "index.html"), []byte("<html>app shell</html>"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if err := os.WriteFile(filepath.Join(publicDir, "style.css"), []byte("body{}"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg := &config.Config{
		PublicDir: publicDir,
		SiteURL:   "https://www.ayothedoc.com",
		StripeLinks: map[string]string{
			"roadmap": "https://buy.stripe.com/abc123",
		},
	}

	fileSink := leads.NewFileSink(dataDir)
	sinks := leads.NewChain(fileSink)

	deps := Deps{
		Config:    cfg,
		Posts:     content.NewFilePostRepository(contentDir),
		Playbooks: content.NewFilePlaybookRepository(filepath.Join(dataDir, "programmatic-seo")),
		Sinks:     sinks,
		Audits:    audit.NewService(&stubGenerator{report: "## Summary\n\nAutomate."}, &stubMailer{}, sinks, ""),
		Tracker:   attribution.NewTracker(attribution.NewMemStore()),
		Resolver:  checkout.NewResolver(cfg.StripeLinks),
		Emitter:   analytics.NewEmitter("", ""),
	}

	srv := httptest.NewServer(NewServer(deps, "127.0.0.1", 0).Handler)
	t.Cleanup(srv.Close)

	return &testEnv{server: srv, fileSink: fileSink, dataDir: dataDir}
}

func (e *testEnv) get(t *testing.T, path string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(e.server.URL + path)
	if err != nil {
		t.Fatalf("GET %s error = %v", path, err)
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	return resp, body
}

func (e *testEnv) postJSON(t *testing.T, path, payload string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Post(e.server.URL+path, "application/json", strings.NewReader(payload))
	if err != nil {
		t.Fatalf("POST %s error = %v", path, err)
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	return resp, body
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.get(t, "/api/health")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var got map[string]string
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["status"] != "ok" {
		t.Errorf("status field = %q, want ok", got["status"])
	}
	if got["timestamp"] == "" {
		t.Error("timestamp is empty")
	}
}

func TestBlogEndpoints(t *testing.T) {
	env := newTestEnv(t)

	t.Run("list", func(t *testing.T) {
		resp, body := env.get(t, "/api/blog")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
		var posts []content.PostMeta
		if err := json.Unmarshal(body, &posts); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if len(posts) != 1 || posts[0].Slug != "hello-world" {
			t.Errorf("posts = %v, want the seeded post", posts)
		}
	})

	t.Run("get", func(t *testing.T) {
		resp, body := env.get(t, "/api/blog/hello-world")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
		var post content.Post
		if err := json.Unmarshal(body, &post); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if !strings.Contains(post.HTML, "<h1") {
			t.Errorf("HTML missing rendered heading: %q", post.HTML)
		}
	})

	t.Run("missing slug", func(t *testing.T) {
		resp, body := env.get(t, "/api/blog/nope")
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", resp.StatusCode)
		}
		var got map[string]string
		if err := json.Unmarshal(body, &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if got["error"] == "" {
			t.Error("error field is empty")
		}
	})

	t.Run("categories is not treated as a slug", func(t *testing.T) {
		resp, body := env.get(t, "/api/blog/categories")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
		var categories []string
		if err := json.Unmarshal(body, &categories); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if len(categories) != 1 || categories[0] != "Automation" {
			t.Errorf("categories = %v, want [Automation]", categories)
		}
	})

	t.Run("recent respects limit", func(t *testing.T) {
		resp, body := env.get(t, "/api/blog/recent?limit=1")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
		var posts []content.PostMeta
		if err := json.Unmarshal(body, &posts); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if len(posts) != 1 {
			t.Errorf("got %d posts, want 1", len(posts))
		}
	})
}

func TestPlaybookEndpoints_Unseeded(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.get(t, "/api/automation")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var index content.PlaybookIndex
	if err := json.Unmarshal(body, &index); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(index.Pages) != 0 {
		t.Errorf("pages = %v, want empty", index.Pages)
	}

	resp, _ = env.get(t, "/api/automation/nope")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestSubmitLead(t *testing.T) {
	env := newTestEnv(t)

	t.Run("valid", func(t *testing.T) {
		resp, body := env.postJSON(t, "/api/leads", `{"firstName":"Ada","email":"ada@example.com","company":"Engines"}`)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}

		var got map[string]any
		if err := json.Unmarshal(body, &got); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if got["success"] != true {
			t.Errorf("success = %v, want true", got["success"])
		}
		if got["message"] != "Lead captured successfully" {
			t.Errorf("message = %v", got["message"])
		}

		records, err := env.fileSink.ReadAll()
		if err != nil {
			t.Fatalf("ReadAll() error = %v", err)
		}
		if len(records) != 1 || records[0].Email != "ada@example.com" {
			t.Errorf("records = %v, want the submitted lead", records)
		}
		if records[0].Source != "website" {
			t.Errorf("source = %q, want default %q", records[0].Source, "website")
		}
	})

	t.Run("missing fields", func(t *testing.T) {
		resp, _ := env.postJSON(t, "/api/leads", `{"firstName":"Ada"}`)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", resp.StatusCode)
		}
	})

	t.Run("invalid JSON", func(t *testing.T) {
		resp, _ := env.postJSON(t, "/api/leads", `{not json`)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", resp.StatusCode)
		}
	})
}

func TestSubmitLead_SourceFromAttribution(t *testing.T) {
	env := newTestEnv(t)

	// Land on the site with a campaign; the SPA handler sets the visitor
	// cookie and records the touch.
	resp, _ := env.get(t, "/offer?utm_source=google")
	var visitor *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "ay_vid" {
			visitor = c
		}
	}
	if visitor == nil {
		t.Fatal("no ay_vid cookie set on page load")
	}

	req, err := http.NewRequest(http.MethodPost, env.server.URL+"/api/leads",
		strings.NewReader(`{"firstName":"Ada","email":"ada@example.com"}`))
	if err != nil {
		t.Fatalf("NewRequest() error = %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(visitor)

	leadResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST /api/leads error = %v", err)
	}
	leadResp.Body.Close()
	if leadResp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", leadResp.StatusCode)
	}

	records, err := env.fileSink.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].Source != "contact_google" {
		t.Errorf("source = %q, want %q", records[0].Source, "contact_google")
	}
}

func TestBusinessAudit(t *testing.T) {
	env := newTestEnv(t)

	payload := `{
		"name": "Ada Lovelace",
		"email": "ada@example.com",
		"website": "https://unreachable.invalid",
		"businessType": "Consulting",
		"currentChallenges": "manual invoicing",
		"timeSpentDaily": 4
	}`

	resp, body := env.postJSON(t, "/api/business-audit", payload)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", resp.StatusCode, body)
	}

	var got audit.Response
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !got.Success || got.Message != audit.MessageSent {
		t.Errorf("response = %+v, want sent success", got)
	}

	// The audit lead landed in the file tier.
	records, err := env.fileSink.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(records) != 1 || records[0].Audit == nil {
		t.Fatalf("records = %v, want one audit lead", records)
	}
	if records[0].Source != audit.LeadSource {
		t.Errorf("source = %q, want %q", records[0].Source, audit.LeadSource)
	}
}

func TestBusinessAudit_Validation(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.postJSON(t, "/api/business-audit", `{"name":"Ada"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestCheckout(t *testing.T) {
	env := newTestEnv(t)
	client := &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	t.Run("configured product redirects to stripe", func(t *testing.T) {
		resp, err := client.Get(env.server.URL + "/api/checkout/roadmap?cta=offer-hero&from=/offer")
		if err != nil {
			t.Fatalf("GET error = %v", err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusFound {
			t.Fatalf("status = %d, want 302", resp.StatusCode)
		}
		if loc := resp.Header.Get("Location"); loc != "https://buy.stripe.com/abc123" {
			t.Errorf("Location = %q, want the stripe link", loc)
		}
	})

	t.Run("unconfigured product falls back to contact", func(t *testing.T) {
		resp, err := client.Get(env.server.URL + "/api/checkout/sprint")
		if err != nil {
			t.Fatalf("GET error = %v", err)
		}
		resp.Body.Close()

		if resp.StatusCode != http.StatusFound {
			t.Fatalf("status = %d, want 302", resp.StatusCode)
		}
		if loc := resp.Header.Get("Location"); loc != "/contact" {
			t.Errorf("Location = %q, want /contact", loc)
		}
	})
}

func TestConfigJS(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.get(t, "/config.js")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/javascript") {
		t.Errorf("Content-Type = %q", ct)
	}
	if cc := resp.Header.Get("Cache-Control"); cc != "no-store" {
		t.Errorf("Cache-Control = %q, want no-store", cc)
	}
	if !strings.HasPrefix(string(body), "window.__AY_CONFIG__ = {") {
		t.Errorf("body = %q, want the config global", body)
	}
	if !strings.Contains(string(body), "https://buy.stripe.com/abc123") {
		t.Error("body missing the configured stripe link")
	}
}

func TestRobotsAndSitemap(t *testing.T) {
	env := newTestEnv(t)

	t.Run("robots", func(t *testing.T) {
		resp, body := env.get(t, "/robots.txt")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
		text := string(body)
		if !strings.Contains(text, "Disallow: /api/") {
			t.Errorf("robots.txt missing API disallow: %q", text)
		}
		if !strings.Contains(text, "Sitemap: https://www.ayothedoc.com/sitemap.xml") {
			t.Errorf("robots.txt missing sitemap line: %q", text)
		}
	})

	t.Run("sitemap", func(t *testing.T) {
		resp, body := env.get(t, "/sitemap.xml")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
		xml := string(body)
		if !strings.Contains(xml, "<loc>https://www.ayothedoc.com/blog</loc>") {
			t.Errorf("sitemap missing the blog route: %q", xml)
		}
		if !strings.Contains(xml, "<loc>https://www.ayothedoc.com/blog/hello-world</loc>") {
			t.Errorf("sitemap missing the post URL: %q", xml)
		}
	})
}

func TestSPA(t *testing.T) {
	env := newTestEnv(t)

	t.Run("unknown path serves the shell and sets the visitor cookie", func(t *testing.T) {
		resp, body := env.get(t, "/some/client/route")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
		if !strings.Contains(string(body), "app shell") {
			t.Errorf("body = %q, want index.html content", body)
		}

		var cookie *http.Cookie
		for _, c := range resp.Cookies() {
			if c.Name == "ay_vid" {
				cookie = c
			}
		}
		if cookie == nil {
			t.Fatal("no ay_vid cookie set")
		}
		if !cookie.HttpOnly || cookie.Path != "/" {
			t.Errorf("cookie = %+v, want HttpOnly with root path", cookie)
		}
	})

	t.Run("static asset is served without tracking", func(t *testing.T) {
		resp, body := env.get(t, "/style.css")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status = %d, want 200", resp.StatusCode)
		}
		if string(body) != "body{}" {
			t.Errorf("body = %q, want the css file", body)
		}
		for _, c := range resp.Cookies() {
			if c.Name == "ay_vid" {
				t.Error("asset request set the visitor cookie")
			}
		}
	})

	t.Run("unknown API path gets JSON 404", func(t *testing.T) {
		resp, body := env.get(t, "/api/does-not-exist")
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", resp.StatusCode)
		}
		var got map[string]string
		if err := json.Unmarshal(body, &got); err != nil {
			t.Fatalf("unmarshal: %v (body %q)", err, body)
		}
		if got["error"] != "Not found" {
			t.Errorf("error = %q, want Not found", got["error"])
		}
	})
}

func TestCORS(t *testing.T) {
	env := newTestEnv(t)

	req, err := http.NewRequest(http.MethodOptions, env.server.URL+"/api/leads", nil)
	if err != nil {
		t.Fatalf("NewRequest() error = %v", err)
	}
	req.Header.Set("Origin", "http://localhost:5173")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("OPTIONS error = %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("Allow-Origin = %q, want the request origin echoed", got)
	}
	if got := resp.Header.Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Errorf("Allow-Credentials = %q, want true", got)
	}
}

func TestSecurityHeaders(t *testing.T) {
	env := newTestEnv(t)

	resp, _ := env.get(t, "/api/health")
	if got := resp.Header.Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
	if got := resp.Header.Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q, want DENY", got)
	}
}
