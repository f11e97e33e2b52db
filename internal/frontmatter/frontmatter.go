// Package frontmatter extracts resource metadata from the YAML block at the
// top of a Markdown document.
package frontmatter

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const delim = "---"

// Metadata is what a document says about itself.
type Metadata struct {
	Title       string
	Description string
	Tags        []string
	// Properties holds the remaining scalar keys in textual form.
	Properties map[string]string
}

// Parse reads the frontmatter of data. A document without frontmatter yields
// empty Metadata and no error; malformed YAML is an error.
func Parse(data []byte) (*Metadata, error) {
	block, ok := split(data)
	if !ok {
		return &Metadata{}, nil
	}

	var fm map[string]any
	if err := yaml.Unmarshal(block, &fm); err != nil {
		return nil, fmt.Errorf("parsing frontmatter: %w", err)
	}

	md := &Metadata{Properties: make(map[string]string)}
	for key, raw := range fm {
		switch strings.ToLower(key) {
		case "title":
			md.Title = scalar(raw)
		case "description", "summary":
			if md.Description == "" {
				md.Description = scalar(raw)
			}
		case "tags", "keywords":
			md.Tags = append(md.Tags, list(raw)...)
		default:
			if s := scalar(raw); s != "" {
				md.Properties[strings.ToLower(key)] = s
			}
		}
	}
	sort.Strings(md.Tags)
	return md, nil
}

// split returns the YAML between the leading delimiters.
func split(data []byte) ([]byte, bool) {
	trimmed := bytes.TrimLeft(data, "\ufeff\n\r")
	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, false
	}
	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, false
	}
	return rest[:idx], true
}

// scalar renders a YAML scalar as text; collections render as "".
func scalar(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case bool:
		return strconv.FormatBool(x)
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Time:
		return x.UTC().Format("2006-01-02")
	}
	return ""
}

// list accepts either a YAML sequence or a comma-separated string.
func list(v any) []string {
	var out []string
	switch x := v.(type) {
	case []any:
		for _, item := range x {
			if s := scalar(item); s != "" {
				out = append(out, s)
			}
		}
	case string:
		for _, s := range strings.Split(x, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}
