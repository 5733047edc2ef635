package web

import (
	"encoding/xml"
	"fmt"
	"net/http"
	"time"
)

// staticRoutes are the client-side pages always present in the sitemap.
var staticRoutes = []string{
	"/",
	"/blog",
	"/automation",
	"/contact",
	"/offer",
	"/checklist",
	"/business-audit",
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// HandleRobots handles GET /robots.txt.
func (h *Handlers) HandleRobots(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "User-agent: *\nAllow: /\nDisallow: /api/\n\nSitemap: %s/sitemap.xml\n", h.cfg.SiteURL)
}

// HandleSitemap handles GET /sitemap.xml, enumerating static routes plus
// every published post and indexed playbook.
func (h *Handlers) HandleSitemap(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC().Format("2006-01-02")

	set := urlSet{Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9"}
	for _, route := range staticRoutes {
		set.URLs = append(set.URLs, sitemapURL{Loc: h.cfg.SiteURL + route, LastMod: now})
	}
	for _, slug := range h.posts.Slugs() {
		set.URLs = append(set.URLs, sitemapURL{Loc: h.cfg.SiteURL + "/blog/" + slug})
	}
	for _, slug := range h.playbooks.Slugs() {
		set.URLs = append(set.URLs, sitemapURL{Loc: h.cfg.SiteURL + "/automation/" + slug})
	}

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	fmt.Fprint(w, xml.Header)
	_ = xml.NewEncoder(w).Encode(set)
}
