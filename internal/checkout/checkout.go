package checkout

import (
	"strings"

	"github.com/ayothedoc/funnel/internal/analytics"
)

// DefaultFallbackPath is where a visitor lands when no payment link is
// configured for a product.
const DefaultFallbackPath = "/contact"

// Build-time payment links, injectable per product with
// -ldflags "-X .../internal/checkout.buildRoadmapLink=...". Runtime
// configuration always wins over these.
var (
	buildRoadmapLink string
	buildSprintLink  string
	buildCareLink    string
)

var buildTimeLinks = map[string]string{
	"roadmap": buildRoadmapLink,
	"sprint":  buildSprintLink,
	"care":    buildCareLink,
}

// Resolution is the outcome of resolving a product's checkout destination.
type Resolution struct {
	URL string
	// External destinations (http-prefixed) open the hosted checkout;
	// internal ones navigate within the app.
	External bool
	// Configured reports whether a real payment link was found, as opposed
	// to the contact fallback.
	Configured bool
}

// Resolver resolves payment links from runtime configuration with a
// build-time fallback.
type Resolver struct {
	// Links is the runtime-injected product → payment link map.
	Links map[string]string
	// FallbackPath defaults to DefaultFallbackPath.
	FallbackPath string
}

// NewResolver creates a resolver over the runtime link map.
func NewResolver(links map[string]string) *Resolver {
	return &Resolver{Links: links, FallbackPath: DefaultFallbackPath}
}

// Resolve returns the destination for a product: runtime link, build-time
// link, then the internal fallback path.
func (r *Resolver) Resolve(productKey string) Resolution {
	link := strings.TrimSpace(r.Links[productKey])
	if link == "" {
		link = strings.TrimSpace(buildTimeLinks[productKey])
	}

	if link == "" {
		fallback := r.FallbackPath
		if fallback == "" {
			fallback = DefaultFallbackPath
		}
		return Resolution{URL: fallback, External: strings.HasPrefix(fallback, "http")}
	}

	return Resolution{
		URL:        link,
		External:   strings.HasPrefix(link, "http"),
		Configured: true,
	}
}

// ClickEvent builds the analytics event emitted before handing the visitor
// off, carrying the call-to-action id, the destination kind, whether a real
// checkout link existed, and the page the click came from.
func ClickEvent(cta string, res Resolution, entryPath string) analytics.Event {
	destination := res.URL
	if res.External {
		destination = "stripe"
	}
	return analytics.Event{
		Name: "checkout_click",
		Params: map[string]any{
			"cta":          cta,
			"destination":  destination,
			"has_checkout": res.Configured,
			"entry_path":   entryPath,
		},
	}
}
