package jasper

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"jasper-go/internal/model"
)

const (
	DefaultSuggestionLimit = 10
	MaxSuggestionLimit     = 100
	maxTagLength           = 64
	maxPropertyKeyLength   = 64
)

// NormalizeTag returns the canonical spelling of a tag: trimmed, lowercased,
// without a leading '#', inner whitespace runs replaced by '-'.
func NormalizeTag(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "#")
	s = strings.ToLower(strings.Join(strings.Fields(s), "-"))
	if s == "" {
		return "", invalid("tag", "must not be empty")
	}
	if len(s) > maxTagLength {
		return "", invalid("tag", "longer than %d bytes", maxTagLength)
	}
	for _, r := range s {
		if unicode.IsControl(r) || r == ',' {
			return "", invalid("tag", "contains %q", r)
		}
	}
	return s, nil
}

// normalizeTagPrefix is NormalizeTag for partial input; empty is allowed.
func normalizeTagPrefix(raw string) string {
	s := strings.TrimPrefix(strings.TrimSpace(raw), "#")
	return strings.ToLower(strings.Join(strings.Fields(s), "-"))
}

// NormalizePropertyKey trims and lowercases a property key.
func NormalizePropertyKey(raw string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return "", invalid("key", "must not be empty")
	}
	if len(s) > maxPropertyKeyLength {
		return "", invalid("key", "longer than %d bytes", maxPropertyKeyLength)
	}
	if strings.ContainsFunc(s, unicode.IsSpace) {
		return "", invalid("key", "must not contain whitespace")
	}
	return s, nil
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultSuggestionLimit
	case limit > MaxSuggestionLimit:
		return MaxSuggestionLimit
	}
	return limit
}

// TagIndex produces ranked autocomplete suggestions from the store's usage
// counters. Counters are maintained by the store inside the same transaction
// as the tag or property mutation that changes them.
type TagIndex struct {
	db Database
}

// NewTagIndex creates a TagIndex over db.
func NewTagIndex(db Database) *TagIndex {
	return &TagIndex{db: db}
}

// Suggest returns up to limit tags starting with prefix, ranked by usage
// count descending, then last use descending, then name. Tags in excluding
// are skipped.
func (ti *TagIndex) Suggest(ctx context.Context, prefix string, excluding []string, limit int) ([]string, error) {
	skip := make([]string, 0, len(excluding))
	for _, e := range excluding {
		if n, err := NormalizeTag(e); err == nil {
			skip = append(skip, n)
		}
	}
	tags, err := ti.db.SuggestTags(ctx, normalizeTagPrefix(prefix), skip, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("suggesting tags: %w", err)
	}
	return tags, nil
}

// SuggestFor suggests tags for a resource, excluding the tags it already has.
func (ti *TagIndex) SuggestFor(ctx context.Context, resourceID, prefix string, limit int) ([]string, error) {
	res, err := ti.db.GetResource(ctx, resourceID)
	if err != nil {
		return nil, err
	}
	return ti.Suggest(ctx, prefix, res.Tags, limit)
}

// SuggestKeys ranks property keys with the same rule as Suggest.
func (ti *TagIndex) SuggestKeys(ctx context.Context, prefix string, excluding []string, limit int) ([]string, error) {
	keys, err := ti.db.SuggestPropertyKeys(ctx, strings.ToLower(strings.TrimSpace(prefix)), excluding, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("suggesting property keys: %w", err)
	}
	return keys, nil
}

// SuggestValues ranks the values previously used with key.
func (ti *TagIndex) SuggestValues(ctx context.Context, key, prefix string, limit int) ([]model.PropertyValue, error) {
	k, err := NormalizePropertyKey(key)
	if err != nil {
		return nil, err
	}
	values, err := ti.db.SuggestPropertyValues(ctx, k, prefix, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("suggesting values for %s: %w", k, err)
	}
	return values, nil
}

// Tags lists every tag with its usage statistics.
func (ti *TagIndex) Tags(ctx context.Context) ([]model.Tag, error) {
	tags, err := ti.db.ListTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}
	return tags, nil
}

// Prune deletes tags nobody uses any more and returns how many went.
func (ti *TagIndex) Prune(ctx context.Context) (int, error) {
	n, err := ti.db.PruneTags(ctx)
	if err != nil {
		return 0, fmt.Errorf("pruning tags: %w", err)
	}
	return n, nil
}
