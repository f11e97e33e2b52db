package jasper_test

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"jasper-go/internal/jasper"
	"jasper-go/internal/model"
)

func TestNormalizeTag(t *testing.T) {
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{raw: "go", want: "go"},
		{raw: "  Go  ", want: "go"},
		{raw: "#Rust", want: "rust"},
		{raw: "machine   learning", want: "machine-learning"},
		{raw: "Über", want: "über"},
		{raw: "", wantErr: true},
		{raw: "   ", wantErr: true},
		{raw: "#", wantErr: true},
		{raw: "a,b", wantErr: true},
		{raw: "tab\x00null", wantErr: true},
		{raw: strings.Repeat("x", 65), wantErr: true},
	}
	for _, tt := range tests {
		got, err := jasper.NormalizeTag(tt.raw)
		if tt.wantErr {
			if !errors.Is(err, jasper.ErrInvalidInput) {
				t.Errorf("NormalizeTag(%q) error = %v, want ErrInvalidInput", tt.raw, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("NormalizeTag(%q) error = %v", tt.raw, err)
			continue
		}
		if got != tt.want {
			t.Errorf("NormalizeTag(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestNormalizePropertyKey(t *testing.T) {
	if got, err := jasper.NormalizePropertyKey(" Author "); err != nil || got != "author" {
		t.Errorf("NormalizePropertyKey() = %q, %v", got, err)
	}
	for _, raw := range []string{"", "two words", strings.Repeat("k", 65)} {
		if _, err := jasper.NormalizePropertyKey(raw); !errors.Is(err, jasper.ErrInvalidInput) {
			t.Errorf("NormalizePropertyKey(%q) error = %v, want ErrInvalidInput", raw, err)
		}
	}
}

func TestTagIndex_Suggest(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	add := func(url string, tags ...string) string {
		h.clock.Advance(time.Minute)
		return h.addURL(t, url, "x", jasper.Metadata{Tags: tags})
	}
	add("https://a.example", "go", "gopher")
	add("https://b.example", "go", "golang")
	last := add("https://c.example", "go", "gopher", "rust")

	tests := []struct {
		name   string
		prefix string
		limit  int
		want   []string
	}{
		{"ranked by usage", "go", 10, []string{"go", "gopher", "golang"}},
		{"prefix normalized", "#GO", 10, []string{"go", "gopher", "golang"}},
		{"limit", "go", 2, []string{"go", "gopher"}},
		{"no prefix", "", 10, []string{"go", "gopher", "rust", "golang"}},
		{"no match", "zz", 10, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := h.mgr.TagIndex().Suggest(ctx, tt.prefix, nil, tt.limit)
			if err != nil {
				t.Fatalf("Suggest() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Suggest(%q) = %v, want %v", tt.prefix, got, tt.want)
			}
		})
	}

	t.Run("excludes tags the resource already has", func(t *testing.T) {
		got, err := h.mgr.SuggestTags(ctx, last, "", 10)
		if err != nil {
			t.Fatalf("SuggestTags() error = %v", err)
		}
		if !reflect.DeepEqual(got, []string{"golang"}) {
			t.Errorf("SuggestTags() = %v, want [golang]", got)
		}
	})

	t.Run("ties broken by most recent use", func(t *testing.T) {
		h.clock.Advance(time.Minute)
		if err := h.mgr.Tag(ctx, last, "golang"); err != nil {
			t.Fatal(err)
		}
		h.clock.Advance(time.Minute)
		add("https://d.example", "rust")
		got, _ := h.mgr.TagIndex().Suggest(ctx, "", nil, 10)
		// rust, golang and gopher tie on two uses; the most recently used wins.
		want := []string{"go", "rust", "golang", "gopher"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Suggest() = %v, want %v", got, want)
		}
	})
}

func TestTagIndex_PropertySuggestions(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	a := h.addURL(t, "https://a.example", "x", jasper.Metadata{Properties: map[string]model.PropertyValue{
		"author": model.StringValue("Ada Lovelace"),
		"year":   model.NumberValue(1843),
	}})
	h.addURL(t, "https://b.example", "x", jasper.Metadata{Properties: map[string]model.PropertyValue{
		"author": model.StringValue("Ada Lovelace"),
	}})
	h.addURL(t, "https://c.example", "x", jasper.Metadata{Properties: map[string]model.PropertyValue{
		"author": model.StringValue("Alan Turing"),
	}})

	keys, err := h.mgr.SuggestPropertyKeys(ctx, "", "", 10)
	if err != nil {
		t.Fatalf("SuggestPropertyKeys() error = %v", err)
	}
	if !reflect.DeepEqual(keys, []string{"author", "year"}) {
		t.Errorf("SuggestPropertyKeys() = %v", keys)
	}
	keys, _ = h.mgr.SuggestPropertyKeys(ctx, a, "", 10)
	if len(keys) != 0 {
		t.Errorf("SuggestPropertyKeys(%s) = %v, want none", a, keys)
	}

	values, err := h.mgr.SuggestPropertyValues(ctx, "Author", "a", 10)
	if err != nil {
		t.Fatalf("SuggestPropertyValues() error = %v", err)
	}
	var got []string
	for _, v := range values {
		got = append(got, v.String())
	}
	if !reflect.DeepEqual(got, []string{"Ada Lovelace", "Alan Turing"}) {
		t.Errorf("SuggestPropertyValues() = %v", got)
	}
}

func TestTagIndex_SuggestsUnusedTagsUntilPruned(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := h.addURL(t, "https://a.example", "x", jasper.Metadata{Tags: []string{"historic"}})

	if err := h.mgr.Untag(ctx, id, "historic"); err != nil {
		t.Fatalf("Untag() error = %v", err)
	}
	got, err := h.mgr.TagIndex().Suggest(ctx, "hist", nil, 10)
	if err != nil {
		t.Fatalf("Suggest() error = %v", err)
	}
	if !reflect.DeepEqual(got, []string{"historic"}) {
		t.Errorf("Suggest(hist) = %v after untag, want [historic]", got)
	}

	if _, err := h.mgr.TagIndex().Prune(ctx); err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	got, _ = h.mgr.TagIndex().Suggest(ctx, "hist", nil, 10)
	if len(got) != 0 {
		t.Errorf("Suggest(hist) = %v after prune, want none", got)
	}
}

func TestTagIndex_Prune(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := h.addURL(t, "https://a.example", "x", jasper.Metadata{Tags: []string{"temp", "keep"}})
	if err := h.mgr.Untag(ctx, id, "temp"); err != nil {
		t.Fatal(err)
	}

	n, err := h.mgr.TagIndex().Prune(ctx)
	if err != nil {
		t.Fatalf("Prune() error = %v", err)
	}
	if n != 1 {
		t.Errorf("Prune() = %d, want 1", n)
	}
	tags, _ := h.mgr.TagIndex().Tags(ctx)
	if len(tags) != 1 || tags[0].Name != "keep" || tags[0].UsageCount != 1 {
		t.Errorf("Tags() = %+v", tags)
	}
}
