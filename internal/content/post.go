package content

import (
	"bytes"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// PostMeta is the front-matter of a blog post plus its slug.
type PostMeta struct {
	Slug      string   `json:"slug"`
	Title     string   `json:"title"`
	Excerpt   string   `json:"excerpt"`
	Date      string   `json:"date"`
	Category  string   `json:"category"`
	ReadTime  string   `json:"readTime"`
	Image     string   `json:"image"`
	Published bool     `json:"published"`
	Author    string   `json:"author"`
	Tags      []string `json:"tags"`
}

// Post is a single post with its body rendered to HTML.
type Post struct {
	Meta PostMeta `json:"meta"`
	HTML string   `json:"html"`
}

// postFrontMatter mirrors the YAML block at the top of each post file.
// Published is a pointer so an absent key defaults to published.
type postFrontMatter struct {
	Title     string   `yaml:"title"`
	Excerpt   string   `yaml:"excerpt"`
	Date      string   `yaml:"date"`
	Category  string   `yaml:"category"`
	ReadTime  string   `yaml:"readTime"`
	Image     string   `yaml:"image"`
	Published *bool    `yaml:"published"`
	Author    string   `yaml:"author"`
	Tags      []string `yaml:"tags"`
}

func (fm *postFrontMatter) toMeta(slug string) PostMeta {
	tags := fm.Tags
	if tags == nil {
		tags = []string{}
	}
	return PostMeta{
		Slug:      slug,
		Title:     fm.Title,
		Excerpt:   fm.Excerpt,
		Date:      fm.Date,
		Category:  fm.Category,
		ReadTime:  fm.ReadTime,
		Image:     fm.Image,
		Published: fm.Published == nil || *fm.Published,
		Author:    fm.Author,
		Tags:      tags,
	}
}

// markdown is the shared goldmark instance. WithUnsafe keeps raw HTML blocks
// in the source intact, matching how post bodies were authored.
var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithParserOptions(
		parser.WithAutoHeadingID(),
	),
	goldmark.WithRendererOptions(
		gmhtml.WithUnsafe(),
	),
)

// RenderMarkdown converts Markdown text to HTML.
func RenderMarkdown(src []byte) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert(src, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// dateLayouts are tried in order when sorting posts by date.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006-01-02 15:04:05",
	"January 2, 2006",
}

// parseDate returns the zero time when no layout matches, which sorts the
// post last.
func parseDate(s string) time.Time {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
