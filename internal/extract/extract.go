// Package extract reads source files and pulls out the text and metadata the
// ingestion pipeline stores. Markdown files may carry YAML front matter;
// front matter is stripped from the indexed text and mined for title,
// authors, publication date, and DOI. Plain text files are taken verbatim.
// PDFs yield per-page text plus whatever the information dictionary carries.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"scholargraph/pkg/types"
)

// Metadata is what could be learned about a document beyond its text.
type Metadata struct {
	Title       string
	Authors     []string
	PublishedAt *time.Time
	DOI         string
	Tags        []string
}

// Result is the extracted text plus metadata for one source file.
type Result struct {
	Content string
	Meta    Metadata
}

// supported file extensions, lowercased
var supportedExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
	".txt":      true,
	".pdf":      true,
}

// Supported reports whether the file's extension is one extraction handles.
func Supported(path string) bool {
	return supportedExtensions[strings.ToLower(filepath.Ext(path))]
}

// File extracts text and metadata from the file at path.
func File(path string) (*Result, error) {
	if !Supported(path) {
		return nil, fmt.Errorf("%w: %s", types.ErrUnsupportedFormat, filepath.Ext(path))
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".pdf" {
		return pdfFile(path)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if ext == ".txt" {
		return &Result{
			Content: string(raw),
			Meta:    Metadata{Title: titleFromFilename(path)},
		}, nil
	}
	return markdown(path, string(raw)), nil
}

// frontMatter mirrors the YAML keys commonly found in paper notes. Both the
// singular and plural author keys are accepted.
type frontMatter struct {
	Title   string    `yaml:"title"`
	Author  yamlList  `yaml:"author"`
	Authors yamlList  `yaml:"authors"`
	Date    yamlValue `yaml:"date"`
	DOI     string    `yaml:"doi"`
	Tags    yamlList  `yaml:"tags"`
}

// yamlList accepts either a scalar or a sequence of scalars.
type yamlList []string

func (l *yamlList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*l = yamlList{node.Value}
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := node.Decode(&items); err != nil {
			return err
		}
		*l = items
		return nil
	}
	return fmt.Errorf("unexpected YAML node kind %d", node.Kind)
}

// yamlValue captures a scalar regardless of how the YAML parser would
// otherwise type it (dates in particular).
type yamlValue string

func (v *yamlValue) UnmarshalYAML(node *yaml.Node) error {
	*v = yamlValue(node.Value)
	return nil
}

func markdown(path, content string) *Result {
	body, fm := splitFrontMatter(content)

	meta := Metadata{}
	if fm != nil {
		meta.Title = strings.TrimSpace(fm.Title)
		if len(fm.Author) > 0 {
			meta.Authors = fm.Author
		} else if len(fm.Authors) > 0 {
			meta.Authors = fm.Authors
		}
		meta.DOI = strings.TrimSpace(fm.DOI)
		meta.Tags = fm.Tags
		meta.PublishedAt = parseDate(string(fm.Date))
	}
	if meta.Title == "" {
		meta.Title = titleFromHeading(body)
	}
	if meta.Title == "" {
		meta.Title = titleFromFilename(path)
	}

	return &Result{Content: body, Meta: meta}
}

// splitFrontMatter strips a leading YAML front matter block delimited by
// "---" lines. Malformed front matter is left in place so no text is lost.
func splitFrontMatter(content string) (string, *frontMatter) {
	if !strings.HasPrefix(content, "---\n") && !strings.HasPrefix(content, "---\r\n") {
		return content, nil
	}
	rest := content[strings.Index(content, "\n")+1:]
	end := strings.Index(rest, "\n---")
	if end < 0 {
		return content, nil
	}
	block := rest[:end]
	body := rest[end+len("\n---"):]
	if i := strings.Index(body, "\n"); i >= 0 {
		body = body[i+1:]
	} else {
		body = ""
	}

	var fm frontMatter
	if err := yaml.Unmarshal([]byte(block), &fm); err != nil {
		return content, nil
	}
	return strings.TrimLeft(body, "\n"), &fm
}

var (
	h1Pattern      = regexp.MustCompile(`(?m)^#\s+(.+)$`)
	headingPattern = regexp.MustCompile(`(?m)^#{1,6}\s+(.+)$`)
)

// titleFromHeading prefers the first H1, then any heading.
func titleFromHeading(content string) string {
	if m := h1Pattern.FindStringSubmatch(content); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := headingPattern.FindStringSubmatch(content); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

// titleFromFilename turns "scaling_laws-v2.md" into "scaling laws v2".
func titleFromFilename(path string) string {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.NewReplacer("_", " ", "-", " ").Replace(name)
	return strings.Join(strings.Fields(name), " ")
}

// dateFormats are tried in order when parsing a publication date.
var dateFormats = []string{
	time.RFC3339,
	"2006-01-02",
	"2006/01/02",
	"January 2, 2006",
	"2 January 2006",
	"2006",
}

func parseDate(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, value); err == nil {
			return &t
		}
	}
	return nil
}
