package content

import (
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/adrg/frontmatter"
)

// PostRepository is a read-only view over the posts directory. It exists so
// the filesystem backing can later be swapped for a database without touching
// the handlers.
type PostRepository interface {
	ListPosts() ([]PostMeta, error)
	GetPost(slug string) (*Post, error)
	Categories() ([]string, error)
	RecentPosts(limit int) ([]PostMeta, error)
	PostsByCategory(category string) ([]PostMeta, error)
	Slugs() []string
}

// FilePostRepository reads Markdown posts with YAML front-matter from disk.
type FilePostRepository struct {
	// Override skips directory probing when set (tests, CONTENT_DIR).
	Override string
}

// NewFilePostRepository creates a repository rooted at dir, or with default
// probing when dir is empty.
func NewFilePostRepository(dir string) *FilePostRepository {
	return &FilePostRepository{Override: dir}
}

// postsDir resolves the posts directory: explicit override, deployed path,
// then development path. The deployed path is created when nothing exists so
// a fresh install serves an empty blog instead of erroring.
func (r *FilePostRepository) postsDir() string {
	if r.Override != "" {
		return r.Override
	}

	prodPath := filepath.Join("content", "posts")
	devPath := filepath.Join("..", "content", "posts")

	if _, err := os.Stat(prodPath); err == nil {
		return prodPath
	}
	if _, err := os.Stat(devPath); err == nil {
		return devPath
	}

	if err := os.MkdirAll(prodPath, 0755); err != nil {
		log.Printf("could not create posts directory %s: %v", prodPath, err)
	}
	return prodPath
}

// ListPosts returns all published posts sorted by date descending. Files with
// unreadable front-matter are skipped with a logged error.
func (r *FilePostRepository) ListPosts() ([]PostMeta, error) {
	dir := r.postsDir()
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []PostMeta{}, nil
		}
		return nil, err
	}

	posts := make([]PostMeta, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".md") && !strings.HasSuffix(name, ".mdx") {
			continue
		}
		slug := strings.TrimSuffix(strings.TrimSuffix(name, ".mdx"), ".md")

		meta, _, err := r.readFile(filepath.Join(dir, name), slug)
		if err != nil {
			log.Printf("skipping post %s: %v", name, err)
			continue
		}
		if !meta.Published {
			continue
		}
		posts = append(posts, meta)
	}

	sort.SliceStable(posts, func(i, j int) bool {
		return parseDate(posts[i].Date).After(parseDate(posts[j].Date))
	})

	return posts, nil
}

// GetPost returns a single post with its body rendered to HTML. Unpublished
// posts are returned too; listing is where the published filter applies, so a
// draft stays previewable by anyone who knows the slug.
func (r *FilePostRepository) GetPost(slug string) (*Post, error) {
	if !safeSlug(slug) {
		return nil, nil
	}

	dir := r.postsDir()
	path := filepath.Join(dir, slug+".md")
	if _, err := os.Stat(path); err != nil {
		path = filepath.Join(dir, slug+".mdx")
		if _, err := os.Stat(path); err != nil {
			return nil, nil
		}
	}

	meta, body, err := r.readFile(path, slug)
	if err != nil {
		return nil, err
	}

	html, err := RenderMarkdown(body)
	if err != nil {
		return nil, err
	}

	return &Post{Meta: meta, HTML: html}, nil
}

// Categories returns the distinct non-empty categories across published posts.
func (r *FilePostRepository) Categories() ([]string, error) {
	posts, err := r.ListPosts()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	categories := make([]string, 0)
	for _, p := range posts {
		if p.Category == "" || seen[p.Category] {
			continue
		}
		seen[p.Category] = true
		categories = append(categories, p.Category)
	}
	return categories, nil
}

// RecentPosts returns the newest posts, up to limit (default 3).
func (r *FilePostRepository) RecentPosts(limit int) ([]PostMeta, error) {
	if limit <= 0 {
		limit = 3
	}
	posts, err := r.ListPosts()
	if err != nil {
		return nil, err
	}
	if len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

// PostsByCategory returns published posts whose category matches exactly.
func (r *FilePostRepository) PostsByCategory(category string) ([]PostMeta, error) {
	posts, err := r.ListPosts()
	if err != nil {
		return nil, err
	}
	filtered := make([]PostMeta, 0)
	for _, p := range posts {
		if p.Category == category {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

// Slugs returns the slugs of all published posts (sitemap enumeration).
func (r *FilePostRepository) Slugs() []string {
	posts, err := r.ListPosts()
	if err != nil {
		return nil
	}
	slugs := make([]string, 0, len(posts))
	for _, p := range posts {
		slugs = append(slugs, p.Slug)
	}
	return slugs
}

// readFile parses a post file into meta and remaining Markdown body.
func (r *FilePostRepository) readFile(path, slug string) (PostMeta, []byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return PostMeta{}, nil, err
	}
	defer f.Close()

	var fm postFrontMatter
	body, err := frontmatter.Parse(f, &fm)
	if err != nil {
		return PostMeta{}, nil, err
	}

	return fm.toMeta(slug), body, nil
}

// safeSlug rejects slugs that could escape the posts directory.
func safeSlug(slug string) bool {
	if slug == "" || slug == "." || slug == ".." {
		return false
	}
	return !strings.ContainsAny(slug, "/\\")
}
