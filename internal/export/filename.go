package export

import (
	"regexp"
	"strings"
	"time"

	"jasper-go/internal/model"
)

var unsafeChars = regexp.MustCompile(`[^a-z0-9]+`)

func slug(s string, max int) string {
	s = strings.Trim(unsafeChars.ReplaceAllString(strings.ToLower(s), "-"), "-")
	if len(s) > max {
		s = strings.TrimRight(s[:max], "-")
	}
	return s
}

// Filename derives an export file name that records the filter used, e.g.
// "jasper-tags-go+rust-search-parsers-20261018T101500Z.json.zst".
func Filename(q model.Query, f Format, c Compression, encrypted bool, at time.Time) string {
	parts := []string{"jasper"}
	if len(q.Tags) > 0 {
		tags := make([]string, 0, len(q.Tags))
		for _, t := range q.Tags {
			if s := slug(t, 24); s != "" {
				tags = append(tags, s)
			}
		}
		if len(tags) > 0 {
			sep := "+"
			if q.Logic == model.TagLogicAny && len(tags) > 1 {
				sep = "_or_"
			}
			parts = append(parts, "tags", strings.Join(tags, sep))
		}
	}
	if s := slug(q.Text, 40); s != "" {
		parts = append(parts, "search", s)
	}
	if q.Class != "" {
		parts = append(parts, string(q.Class))
	}
	if len(parts) == 1 {
		parts = append(parts, "all")
	}
	parts = append(parts, at.UTC().Format("20060102T150405Z"))

	name := strings.Join(parts, "-") + f.Extension() + c.Extension()
	if encrypted {
		name += ".age"
	}
	return name
}
