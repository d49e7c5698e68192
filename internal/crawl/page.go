package crawl

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PageType distinguishes documentation pages from blog posts. Pages of
// each type are saved under their own directory and carry the type in
// their index metadata.
type PageType string

const (
	TypeDoc  PageType = "doc"
	TypeBlog PageType = "blog"
)

// Page is one crawled page, persisted as a single JSON file and later
// consumed by the ingestion pipeline.
type Page struct {
	Path    string   `json:"path"`
	Title   string   `json:"title"`
	Content string   `json:"content"`
	URL     string   `json:"url"`
	Type    PageType `json:"type"`
}

// Dir returns the directory name pages of this type are saved under.
func (t PageType) Dir() string {
	switch t {
	case TypeBlog:
		return "wegic-blog"
	default:
		return "wegic-docs"
	}
}

// Filename derives a filesystem-safe name from a page path: the
// leading slash is stripped, remaining slashes become "--", and any
// other non-alphanumeric character becomes "-".
func Filename(pagePath string) string {
	name := strings.TrimPrefix(pagePath, "/")
	name = strings.ReplaceAll(name, "/", "--")

	var sb strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-':
			sb.WriteRune(r)
		default:
			sb.WriteRune('-')
		}
	}
	return sb.String() + ".json"
}

// Save writes the page as pretty-printed JSON under
// baseDir/<type dir>/<derived filename>, creating directories as needed.
func (p Page) Save(baseDir string) (string, error) {
	dir := filepath.Join(baseDir, p.Type.Dir())
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("creating content directory: %w", err)
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling page %q: %w", p.Path, err)
	}

	path := filepath.Join(dir, Filename(p.Path))
	if err := os.WriteFile(path, data, 0o640); err != nil {
		return "", fmt.Errorf("writing page file: %w", err)
	}
	return path, nil
}

// LoadPage reads a page JSON file written by Save.
func LoadPage(path string) (Page, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Page{}, fmt.Errorf("reading page file: %w", err)
	}

	var page Page
	if err := json.Unmarshal(data, &page); err != nil {
		return Page{}, fmt.Errorf("parsing page file %q: %w", filepath.Base(path), err)
	}
	return page, nil
}
