package audit

import (
	"context"
	"io"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"
)

// PlaceholderSiteText substitutes for the website content whenever the fetch
// fails; the audit proceeds without it.
const PlaceholderSiteText = "Website content could not be analyzed"

const (
	scrapeTimeout   = 10 * time.Second
	scrapeMaxChars  = 3000
	scrapeUserAgent = "Mozilla/5.0 (compatible; AyothedocBot/1.0)"
)

var (
	scriptRe = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleRe  = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	tagRe    = regexp.MustCompile(`<[^>]*>`)
	spaceRe  = regexp.MustCompile(`\s+`)
)

// Scraper fetches a prospect's website and reduces it to plain text bounded
// to a fixed character budget, to keep prompts small.
type Scraper struct {
	HTTPClient *http.Client
	MaxChars   int
}

// NewScraper creates a scraper with the fixed fetch timeout.
func NewScraper() *Scraper {
	return &Scraper{
		HTTPClient: &http.Client{Timeout: scrapeTimeout},
		MaxChars:   scrapeMaxChars,
	}
}

// Fetch returns the stripped page text, or the placeholder on any failure.
// This step never fails the audit.
func (s *Scraper) Fetch(ctx context.Context, website string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, website, nil)
	if err != nil {
		log.Printf("could not fetch website content: %v", err)
		return PlaceholderSiteText
	}
	req.Header.Set("User-Agent", scrapeUserAgent)

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		log.Printf("could not fetch website content: %v", err)
		return PlaceholderSiteText
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("could not fetch website content: status %d", resp.StatusCode)
		return PlaceholderSiteText
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		log.Printf("could not read website content: %v", err)
		return PlaceholderSiteText
	}

	return s.stripHTML(string(body))
}

// stripHTML removes script/style blocks and all remaining tags, collapses
// whitespace, and truncates to the character budget.
func (s *Scraper) stripHTML(html string) string {
	text := scriptRe.ReplaceAllString(html, "")
	text = styleRe.ReplaceAllString(text, "")
	text = tagRe.ReplaceAllString(text, " ")
	text = spaceRe.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)

	max := s.MaxChars
	if max <= 0 {
		max = scrapeMaxChars
	}
	if len(text) > max {
		text = text[:max]
	}
	return text
}
