package content

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// PlaybookSummary is one entry in the playbook index.
type PlaybookSummary struct {
	Slug            string `json:"slug"`
	Title           string `json:"title"`
	MetaDescription string `json:"metaDescription"`
	Tool            string `json:"tool"`
	UseCase         string `json:"useCase"`
	Industry        string `json:"industry"`
	Excerpt         string `json:"excerpt"`
	ReadTime        int    `json:"readTime"`
	DatePublished   string `json:"datePublished"`
}

// PlaybookIndex aggregates all playbook summaries.
type PlaybookIndex struct {
	Pages []PlaybookSummary `json:"pages"`
}

// PlaybookSections holds the pre-rendered HTML blocks of a playbook page.
type PlaybookSections struct {
	Intro    string `json:"intro"`
	Benefits string `json:"benefits"`
	Workflow string `json:"workflow"`
	Steps    string `json:"steps"`
	Results  string `json:"results"`
	FAQ      string `json:"faq"`
}

// Playbook is a full automation playbook page.
type Playbook struct {
	Slug            string           `json:"slug"`
	Title           string           `json:"title"`
	MetaDescription string           `json:"metaDescription"`
	Tool            string           `json:"tool"`
	UseCase         string           `json:"useCase"`
	Industry        string           `json:"industry"`
	DatePublished   string           `json:"datePublished"`
	ReadTime        int              `json:"readTime"`
	Excerpt         string           `json:"excerpt"`
	Sections        PlaybookSections `json:"sections"`
}

// PlaybookFilters are the distinct facet values across the index.
type PlaybookFilters struct {
	Tools      []string `json:"tools"`
	UseCases   []string `json:"useCases"`
	Industries []string `json:"industries"`
}

// PlaybookRepository is a read-only view over the playbook JSON files.
type PlaybookRepository interface {
	Index() (*PlaybookIndex, error)
	Filters() (*PlaybookFilters, error)
	GetPlaybook(slug string) (*Playbook, error)
	Slugs() []string
}

// FilePlaybookRepository reads the pre-generated playbook JSON from disk.
// Playbooks assume seeded data; a missing directory yields empty results.
type FilePlaybookRepository struct {
	Override string
}

// NewFilePlaybookRepository creates a repository rooted at dir, or with
// default probing when dir is empty.
func NewFilePlaybookRepository(dir string) *FilePlaybookRepository {
	return &FilePlaybookRepository{Override: dir}
}

func (r *FilePlaybookRepository) dataDir() string {
	if r.Override != "" {
		return r.Override
	}

	prodPath := filepath.Join("data", "programmatic-seo")
	devPath := filepath.Join("..", "data", "programmatic-seo")

	if _, err := os.Stat(prodPath); err == nil {
		return prodPath
	}
	if _, err := os.Stat(devPath); err == nil {
		return devPath
	}
	return prodPath
}

// Index returns all playbook summaries, or an empty index when no data is
// seeded.
func (r *FilePlaybookRepository) Index() (*PlaybookIndex, error) {
	data, err := os.ReadFile(filepath.Join(r.dataDir(), "index.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return &PlaybookIndex{Pages: []PlaybookSummary{}}, nil
		}
		return nil, err
	}

	var index PlaybookIndex
	if err := json.Unmarshal(data, &index); err != nil {
		return nil, err
	}
	if index.Pages == nil {
		index.Pages = []PlaybookSummary{}
	}
	return &index, nil
}

// Filters returns the distinct tool/useCase/industry values across the index.
func (r *FilePlaybookRepository) Filters() (*PlaybookFilters, error) {
	index, err := r.Index()
	if err != nil {
		return nil, err
	}

	return &PlaybookFilters{
		Tools:      distinct(index.Pages, func(p PlaybookSummary) string { return p.Tool }),
		UseCases:   distinct(index.Pages, func(p PlaybookSummary) string { return p.UseCase }),
		Industries: distinct(index.Pages, func(p PlaybookSummary) string { return p.Industry }),
	}, nil
}

// GetPlaybook returns a single playbook page, or nil when no file matches.
func (r *FilePlaybookRepository) GetPlaybook(slug string) (*Playbook, error) {
	if !safeSlug(slug) {
		return nil, nil
	}

	data, err := os.ReadFile(filepath.Join(r.dataDir(), "pages", slug+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var playbook Playbook
	if err := json.Unmarshal(data, &playbook); err != nil {
		return nil, err
	}
	return &playbook, nil
}

// Slugs returns the slugs of all indexed playbooks (sitemap enumeration).
func (r *FilePlaybookRepository) Slugs() []string {
	index, err := r.Index()
	if err != nil {
		return nil
	}
	slugs := make([]string, 0, len(index.Pages))
	for _, p := range index.Pages {
		slugs = append(slugs, p.Slug)
	}
	return slugs
}

func distinct(pages []PlaybookSummary, field func(PlaybookSummary) string) []string {
	seen := make(map[string]bool)
	values := make([]string, 0)
	for _, p := range pages {
		v := field(p)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		values = append(values, v)
	}
	return values
}
