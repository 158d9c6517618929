package posts

import (
	"bytes"
	"fmt"

	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"
)

// ParseFrontMatter splits raw post text into its metadata block and body.
// YAML (---), TOML (+++) and JSON (;;;) blocks are recognized. Text without
// a block yields an empty map and the full text as body.
func ParseFrontMatter(raw []byte) (map[string]any, string, error) {
	meta := map[string]any{}
	body, err := frontmatter.Parse(bytes.NewReader(raw), &meta)
	if err != nil {
		return nil, "", fmt.Errorf("front matter: %w", err)
	}
	if meta == nil {
		meta = map[string]any{}
	}
	return meta, string(body), nil
}

// frontMatterDoc fixes the key order of written front matter.
type frontMatterDoc struct {
	Title       string   `yaml:"title"`
	Date        string   `yaml:"date,omitempty"`
	Description string   `yaml:"description,omitempty"`
	Tags        []string `yaml:"tags,flow"`
	Category    string   `yaml:"category,omitempty"`
}

// MarshalFrontMatter renders meta as a YAML front matter block followed by body.
func MarshalFrontMatter(meta PostMeta, body string) ([]byte, error) {
	doc := frontMatterDoc{
		Title:       meta.Title,
		Date:        meta.Date,
		Description: meta.Description,
		Tags:        meta.Tags,
		Category:    meta.Category,
	}
	if doc.Tags == nil {
		doc.Tags = []string{}
	}
	val, err := yaml.Marshal(&doc)
	if err != nil {
		return nil, fmt.Errorf("marshal front matter: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(val)
	buf.WriteString("---\n")
	buf.WriteString(body)
	return buf.Bytes(), nil
}
