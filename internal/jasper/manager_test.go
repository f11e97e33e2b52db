package jasper_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"jasper-go/internal/fs"
	"jasper-go/internal/jasper"
	"jasper-go/internal/model"
	"jasper-go/internal/testutil"
)

func TestLifecycleManager_AddExternal(t *testing.T) {
	t.Run("creates an external resource", func(t *testing.T) {
		h := newHarness(t)
		res, err := h.mgr.AddExternal(context.Background(), " https://example.com/a ", jasper.Metadata{
			Title: "A",
			Tags:  []string{"#Reading List", "reading-list", "Go"},
		})
		if err != nil {
			t.Fatalf("AddExternal() error = %v", err)
		}
		if res.Class != model.ClassExternal {
			t.Errorf("class = %s, want %s", res.Class, model.ClassExternal)
		}
		if res.ContentHash != "" {
			t.Errorf("content hash = %q, want empty", res.ContentHash)
		}
		if !res.Accessible || res.VerificationStatus != model.VerificationUnverified {
			t.Errorf("accessible = %v, status = %s", res.Accessible, res.VerificationStatus)
		}
		if len(res.Locations) != 1 || res.Locations[0].Value != "https://example.com/a" || !res.Locations[0].IsPrimary {
			t.Errorf("locations = %+v", res.Locations)
		}
		wantTags := []string{"go", "reading-list"}
		if len(res.Tags) != len(wantTags) || res.Tags[0] != wantTags[0] || res.Tags[1] != wantTags[1] {
			t.Errorf("tags = %v, want %v", res.Tags, wantTags)
		}
	})

	t.Run("defaults the title to the url", func(t *testing.T) {
		h := newHarness(t)
		res, err := h.mgr.AddExternal(context.Background(), "https://example.com/untitled", jasper.Metadata{})
		if err != nil {
			t.Fatalf("AddExternal() error = %v", err)
		}
		if res.Title != "https://example.com/untitled" {
			t.Errorf("title = %q", res.Title)
		}
	})

	t.Run("rejects invalid urls", func(t *testing.T) {
		h := newHarness(t)
		for _, raw := range []string{"", "not a url", "ftp://example.com/file", "file:///etc/passwd"} {
			if _, err := h.mgr.AddExternal(context.Background(), raw, jasper.Metadata{}); !errors.Is(err, jasper.ErrInvalidInput) {
				t.Errorf("AddExternal(%q) error = %v, want ErrInvalidInput", raw, err)
			}
		}
	})

	t.Run("rejects invalid tags", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.mgr.AddExternal(context.Background(), "https://example.com", jasper.Metadata{Tags: []string{"a,b"}})
		if !errors.Is(err, jasper.ErrInvalidInput) {
			t.Errorf("AddExternal() error = %v, want ErrInvalidInput", err)
		}
	})
}

func TestLifecycleManager_AddInternal(t *testing.T) {
	t.Run("hashes the file and uses its name as title", func(t *testing.T) {
		h := newHarness(t)
		h.fs.AddFile("/home/user/report.pdf", []byte("%PDF-1.7 body"))

		res, err := h.mgr.AddInternal(context.Background(), "/home/user/report.pdf", jasper.Metadata{})
		if err != nil {
			t.Fatalf("AddInternal() error = %v", err)
		}
		if res.Class != model.ClassInternal {
			t.Errorf("class = %s, want %s", res.Class, model.ClassInternal)
		}
		if res.Title != "report.pdf" {
			t.Errorf("title = %q, want report.pdf", res.Title)
		}
		if res.ContentHash != testutil.SHA256Digest([]byte("%PDF-1.7 body")) {
			t.Errorf("content hash = %q", res.ContentHash)
		}
		if !res.CreatedAt.Equal(testutil.FixedClock().Now()) {
			t.Errorf("created_at = %v", res.CreatedAt)
		}
	})

	t.Run("fills metadata from markdown frontmatter", func(t *testing.T) {
		h := newHarness(t)
		doc := "---\ntitle: Notes on Parsing\ntags: [parsing, Go]\nauthor: ada\nrating: 4\n---\n# Body\n"
		h.fs.AddFile("/notes/parsing.md", []byte(doc))

		res, err := h.mgr.AddInternal(context.Background(), "/notes/parsing.md", jasper.Metadata{
			Tags:       []string{"#Papers"},
			Properties: map[string]model.PropertyValue{"Author": model.StringValue("grace")},
		})
		if err != nil {
			t.Fatalf("AddInternal() error = %v", err)
		}
		if res.Title != "Notes on Parsing" {
			t.Errorf("title = %q", res.Title)
		}
		want := []string{"go", "papers", "parsing"}
		if len(res.Tags) != 3 || res.Tags[0] != want[0] || res.Tags[1] != want[1] || res.Tags[2] != want[2] {
			t.Errorf("tags = %v, want %v", res.Tags, want)
		}
		author, ok := res.Property("author")
		if !ok || author.Value.String() != "grace" {
			t.Errorf("author = %+v, want the caller's value to win", author)
		}
		rating, ok := res.Property("rating")
		if n, isNum := rating.Value.Number(); !ok || !isNum || n != 4 {
			t.Errorf("rating = %+v, want number 4", rating)
		}
	})

	t.Run("caller title beats frontmatter", func(t *testing.T) {
		h := newHarness(t)
		h.fs.AddFile("/notes/x.md", []byte("---\ntitle: From file\n---\n"))
		res, err := h.mgr.AddInternal(context.Background(), "/notes/x.md", jasper.Metadata{Title: "Mine"})
		if err != nil {
			t.Fatalf("AddInternal() error = %v", err)
		}
		if res.Title != "Mine" {
			t.Errorf("title = %q, want Mine", res.Title)
		}
	})

	t.Run("rejects duplicate content", func(t *testing.T) {
		h := newHarness(t)
		first := h.addFile(t, "/a/one.txt", "same", jasper.Metadata{})
		h.fs.AddFile("/b/two.txt", []byte("same"))

		_, err := h.mgr.AddInternal(context.Background(), "/b/two.txt", jasper.Metadata{})
		if !errors.Is(err, jasper.ErrDuplicateContent) {
			t.Fatalf("AddInternal() error = %v, want ErrDuplicateContent", err)
		}
		var dup *jasper.DuplicateContentError
		if !errors.As(err, &dup) || dup.ExistingID != first {
			t.Errorf("duplicate error = %+v, want existing id %s", dup, first)
		}

		if _, err := h.mgr.AddInternal(context.Background(), "/b/two.txt", jasper.Metadata{AllowDuplicate: true}); err != nil {
			t.Errorf("AddInternal() with AllowDuplicate error = %v", err)
		}
	})

	t.Run("rejects missing files and directories", func(t *testing.T) {
		h := newHarness(t)
		h.fs.AddDirectory("/data")
		for _, p := range []string{"", "/nowhere.txt", "/data"} {
			if _, err := h.mgr.AddInternal(context.Background(), p, jasper.Metadata{}); !errors.Is(err, jasper.ErrInvalidInput) {
				t.Errorf("AddInternal(%q) error = %v, want ErrInvalidInput", p, err)
			}
		}
	})
}

func TestLifecycleManager_Update(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := h.addURL(t, "https://example.com", "x", jasper.Metadata{Title: "Old"})

	h.clock.Advance(time.Minute)
	title, desc := "  New  ", "about things"
	res, err := h.mgr.Update(ctx, id, model.ResourceUpdate{Title: &title, Description: &desc})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if res.Title != "New" || res.Description != desc {
		t.Errorf("after update: title %q, description %q", res.Title, res.Description)
	}
	if !res.ModifiedAt.After(res.CreatedAt) {
		t.Errorf("modified_at %v not after created_at %v", res.ModifiedAt, res.CreatedAt)
	}

	blank := "   "
	if _, err := h.mgr.Update(ctx, id, model.ResourceUpdate{Title: &blank}); !errors.Is(err, jasper.ErrInvalidInput) {
		t.Errorf("Update() with blank title error = %v, want ErrInvalidInput", err)
	}
	if _, err := h.mgr.Update(ctx, "missing", model.ResourceUpdate{Title: &title}); !errors.Is(err, jasper.ErrNotFound) {
		t.Errorf("Update() of missing id error = %v, want ErrNotFound", err)
	}
}

func TestLifecycleManager_RecordAccess(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := h.addURL(t, "https://example.com", "x", jasper.Metadata{})

	at := h.clock.Tick(2 * time.Hour)
	if err := h.mgr.RecordAccess(ctx, id); err != nil {
		t.Fatalf("RecordAccess() error = %v", err)
	}
	res, _ := h.mgr.Get(ctx, id)
	if res.LastAccessedAt == nil || !res.LastAccessedAt.Equal(at) {
		t.Errorf("last accessed = %v, want %v", res.LastAccessedAt, at)
	}
	if err := h.mgr.RecordAccess(ctx, "missing"); !errors.Is(err, jasper.ErrNotFound) {
		t.Errorf("RecordAccess() of missing id error = %v, want ErrNotFound", err)
	}
}

func TestLifecycleManager_TagsAndProperties(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := h.addURL(t, "https://example.com", "x", jasper.Metadata{})

	if err := h.mgr.Tag(ctx, id, "#Research"); err != nil {
		t.Fatalf("Tag() error = %v", err)
	}
	if err := h.mgr.Tag(ctx, id, "research"); err != nil {
		t.Fatalf("Tag() twice error = %v", err)
	}
	if n, _ := h.mgr.CountByTag(ctx, "RESEARCH"); n != 1 {
		t.Errorf("CountByTag() = %d, want 1", n)
	}

	if err := h.mgr.Untag(ctx, id, "research"); err != nil {
		t.Fatalf("Untag() error = %v", err)
	}
	if err := h.mgr.Untag(ctx, id, "never-attached"); err != nil {
		t.Errorf("Untag() of absent tag error = %v", err)
	}
	if n, _ := h.mgr.CountByTag(ctx, "research"); n != 0 {
		t.Errorf("CountByTag() after untag = %d, want 0", n)
	}

	if err := h.mgr.SetProperty(ctx, id, "Year", model.NumberValue(2024)); err != nil {
		t.Fatalf("SetProperty() error = %v", err)
	}
	if err := h.mgr.SetProperty(ctx, id, "year", model.NumberValue(2025)); err != nil {
		t.Fatalf("SetProperty() replace error = %v", err)
	}
	res, _ := h.mgr.Get(ctx, id)
	if len(res.Properties) != 1 {
		t.Fatalf("properties = %+v, want one", res.Properties)
	}
	if n, _ := res.Properties[0].Value.Number(); n != 2025 {
		t.Errorf("year = %v, want 2025", res.Properties[0].Value)
	}

	if err := h.mgr.SetProperty(ctx, id, "has space", model.StringValue("x")); !errors.Is(err, jasper.ErrInvalidInput) {
		t.Errorf("SetProperty() with bad key error = %v, want ErrInvalidInput", err)
	}
	if err := h.mgr.RemoveProperty(ctx, id, "year"); err != nil {
		t.Fatalf("RemoveProperty() error = %v", err)
	}
	if err := h.mgr.RemoveProperty(ctx, id, "year"); err != nil {
		t.Errorf("RemoveProperty() twice error = %v", err)
	}
	res, _ = h.mgr.Get(ctx, id)
	if len(res.Properties) != 0 {
		t.Errorf("properties after removal = %+v", res.Properties)
	}

	if err := h.mgr.Tag(ctx, "missing", "x"); !errors.Is(err, jasper.ErrNotFound) {
		t.Errorf("Tag() of missing id error = %v, want ErrNotFound", err)
	}
}

func TestLifecycleManager_Locations(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := h.addFile(t, "/data/paper.pdf", "%PDF", jasper.Metadata{})
	fileLoc := mustGet(t, h, id).Locations[0]

	urlLoc, err := h.mgr.AddLocation(ctx, id, model.LocationHTTPURL, "https://mirror.example.com/paper.pdf", false)
	if err != nil {
		t.Fatalf("AddLocation() error = %v", err)
	}
	res := mustGet(t, h, id)
	if res.Class != model.ClassInternal || len(res.Locations) != 2 {
		t.Errorf("after AddLocation: class %s, %d locations", res.Class, len(res.Locations))
	}

	if _, err := h.mgr.AddLocation(ctx, id, model.LocationHTTPURL, "gopher://x", false); !errors.Is(err, jasper.ErrInvalidInput) {
		t.Errorf("AddLocation() bad url error = %v, want ErrInvalidInput", err)
	}
	if _, err := h.mgr.AddLocation(ctx, id, model.LocationFilePath, "/not/there", false); !errors.Is(err, jasper.ErrInvalidInput) {
		t.Errorf("AddLocation() missing file error = %v, want ErrInvalidInput", err)
	}
	if _, err := h.mgr.AddLocation(ctx, id, "carrier-pigeon", "x", false); !errors.Is(err, jasper.ErrInvalidInput) {
		t.Errorf("AddLocation() unknown type error = %v, want ErrInvalidInput", err)
	}

	if err := h.mgr.SetPrimaryLocation(ctx, id, urlLoc.ID); err != nil {
		t.Fatalf("SetPrimaryLocation() error = %v", err)
	}
	if p := mustGet(t, h, id).PrimaryLocation(); p == nil || p.ID != urlLoc.ID {
		t.Errorf("primary = %+v, want %s", p, urlLoc.ID)
	}

	// Removing the file leaves only the URL, so the resource becomes external.
	if err := h.mgr.RemoveLocation(ctx, id, fileLoc.ID); err != nil {
		t.Fatalf("RemoveLocation() error = %v", err)
	}
	res = mustGet(t, h, id)
	if res.Class != model.ClassExternal {
		t.Errorf("class after removing file = %s, want %s", res.Class, model.ClassExternal)
	}

	err = h.mgr.RemoveLocation(ctx, id, urlLoc.ID)
	if !errors.Is(err, jasper.ErrLastLocation) {
		t.Errorf("RemoveLocation() of last location error = %v, want ErrLastLocation", err)
	}
	if err := h.mgr.RemoveLocation(ctx, id, "no-such-location"); !errors.Is(err, jasper.ErrNotFound) {
		t.Errorf("RemoveLocation() unknown location error = %v, want ErrNotFound", err)
	}
}

func TestLifecycleManager_RemovePrimaryPromotesOldest(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := h.addURL(t, "https://example.com/one", "x", jasper.Metadata{})
	first := mustGet(t, h, id).Locations[0]

	h.clock.Advance(time.Second)
	second, _ := h.mgr.AddLocation(ctx, id, model.LocationHTTPURL, "https://example.com/two", false)
	h.clock.Advance(time.Second)
	third, _ := h.mgr.AddLocation(ctx, id, model.LocationHTTPURL, "https://example.com/three", true)

	if err := h.mgr.RemoveLocation(ctx, id, third.ID); err != nil {
		t.Fatalf("RemoveLocation() error = %v", err)
	}
	if p := mustGet(t, h, id).PrimaryLocation(); p == nil || p.ID != first.ID {
		t.Errorf("primary after removal = %+v, want oldest %s (not %s)", p, first.ID, second.ID)
	}
}

func TestLifecycleManager_Search(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	goID := h.addURL(t, "https://go.dev", "x", jasper.Metadata{Title: "The Go language", Tags: []string{"go", "lang"}})
	h.clock.Advance(time.Minute)
	rustID := h.addURL(t, "https://rust-lang.org", "x", jasper.Metadata{Title: "Rust", Tags: []string{"rust", "lang"}})
	h.clock.Advance(time.Minute)
	noteID := h.addFile(t, "/notes/go-tips.txt", "tips", jasper.Metadata{Title: "Go tips", Tags: []string{"go"}})

	tests := []struct {
		name string
		q    model.Query
		want []string
	}{
		{"everything newest first", model.Query{}, []string{noteID, rustID, goID}},
		{"any tag", model.Query{Tags: []string{"GO", "rust"}}, []string{noteID, rustID, goID}},
		{"all tags", model.Query{Tags: []string{"go", "lang"}, Logic: model.TagLogicAll}, []string{goID}},
		{"text in title", model.Query{Text: "go"}, []string{noteID, goID}},
		{"text in primary location", model.Query{Text: "rust-lang.org"}, []string{rustID}},
		{"class", model.Query{Class: model.ClassInternal}, []string{noteID}},
		{"title ascending", model.Query{Sort: model.SortTitle, Ascending: true}, []string{noteID, rustID, goID}},
		{"paged", model.Query{Limit: 1, Offset: 1}, []string{rustID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := h.mgr.Search(ctx, tt.q)
			if err != nil {
				t.Fatalf("Search() error = %v", err)
			}
			var got []string
			for _, r := range page.Resources {
				got = append(got, r.ID)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Search() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("Search() = %v, want %v", got, tt.want)
				}
			}
		})
	}

	page, err := h.mgr.Search(ctx, model.Query{Limit: 1})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if page.Total != 3 || len(page.Resources) != 1 {
		t.Errorf("page total = %d, len = %d", page.Total, len(page.Resources))
	}
	if page, _ := h.mgr.Search(ctx, model.Query{}); page.Limit != jasper.DefaultSearchLimit {
		t.Errorf("default limit = %d, want %d", page.Limit, jasper.DefaultSearchLimit)
	}
	if _, err := h.mgr.Search(ctx, model.Query{Sort: "popularity"}); !errors.Is(err, jasper.ErrInvalidInput) {
		t.Errorf("Search() with bad sort error = %v, want ErrInvalidInput", err)
	}
}

func TestLifecycleManager_Delete(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := h.addFile(t, "/data/a.txt", "a", jasper.Metadata{Tags: []string{"keep", "drop"}})
	other := h.addFile(t, "/data/b.txt", "b", jasper.Metadata{Tags: []string{"keep"}})
	if _, err := h.mgr.Archive(ctx, id, jasper.ArchiveOptions{}); err != nil {
		t.Fatalf("Archive() error = %v", err)
	}

	if err := h.mgr.Delete(ctx, id); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := h.mgr.Get(ctx, id); !errors.Is(err, jasper.ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}
	if err := h.mgr.Delete(ctx, id); !errors.Is(err, jasper.ErrNotFound) {
		t.Errorf("Delete() twice error = %v, want ErrNotFound", err)
	}
	if n, _ := h.mgr.CountByTag(ctx, "keep"); n != 1 {
		t.Errorf("CountByTag(keep) = %d, want 1", n)
	}
	suggestions, _ := h.mgr.SuggestTags(ctx, "", "", 10)
	if !reflect.DeepEqual(suggestions, []string{"keep", "drop"}) {
		t.Errorf("SuggestTags() = %v, want the unused tag retained last", suggestions)
	}
	if _, err := h.mgr.Get(ctx, other); err != nil {
		t.Errorf("Get() of other resource error = %v", err)
	}

	// Same bytes can be added again once the original is gone.
	h.fs.AddFile("/data/a2.txt", []byte("a"))
	if _, err := h.mgr.AddInternal(ctx, "/data/a2.txt", jasper.Metadata{}); err != nil {
		t.Errorf("AddInternal() after delete error = %v", err)
	}
}

func TestLifecycleManager_AddDirectory(t *testing.T) {
	root := t.TempDir()
	files := map[string]string{
		"a.txt":         "alpha",
		"b.md":          "---\ntitle: Bee\n---\nbody",
		"dup.txt":       "alpha",
		"sub/c.txt":     "gamma",
		".hidden/d.txt": "delta",
		"e.txt~":        "scratch",
	}
	for name, content := range files {
		p := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	newManager := func(t *testing.T) *jasper.LifecycleManager {
		db := testutil.NewTestDatabase(t)
		return jasper.NewLifecycleManager(db, nil, testutil.NewTestHasher(), fs.NewOSFilesystemManager(), nil, nil, nil, nil)
	}

	t.Run("top level only", func(t *testing.T) {
		mgr := newManager(t)
		result, err := mgr.AddDirectory(context.Background(), root, jasper.Metadata{Title: "ignored", Tags: []string{"imported"}}, false)
		if err != nil {
			t.Fatalf("AddDirectory() error = %v", err)
		}
		if len(result.Added) != 2 {
			t.Fatalf("added %d resources, want 2", len(result.Added))
		}
		titles := map[string]bool{}
		for _, r := range result.Added {
			titles[r.Title] = true
			if !r.HasTag("imported") {
				t.Errorf("%s missing shared tag", r.Title)
			}
		}
		if !titles["a.txt"] || !titles["Bee"] {
			t.Errorf("titles = %v, want a.txt and Bee", titles)
		}
		dupPath := filepath.Join(root, "dup.txt")
		if err := result.Skipped[dupPath]; !errors.Is(err, jasper.ErrDuplicateContent) {
			t.Errorf("skipped[%s] = %v, want ErrDuplicateContent", dupPath, err)
		}
	})

	t.Run("recursive", func(t *testing.T) {
		mgr := newManager(t)
		result, err := mgr.AddDirectory(context.Background(), root, jasper.Metadata{}, true)
		if err != nil {
			t.Fatalf("AddDirectory() error = %v", err)
		}
		if len(result.Added) != 3 {
			t.Errorf("added %d resources, want 3 (hidden and scratch files skipped)", len(result.Added))
		}
	})

	t.Run("not a directory", func(t *testing.T) {
		mgr := newManager(t)
		_, err := mgr.AddDirectory(context.Background(), filepath.Join(root, "a.txt"), jasper.Metadata{}, false)
		if !errors.Is(err, jasper.ErrInvalidInput) {
			t.Errorf("AddDirectory() on a file error = %v, want ErrInvalidInput", err)
		}
	})
}

func mustGet(t *testing.T, h *harness, id string) *model.Resource {
	t.Helper()
	res, err := h.mgr.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get(%s) error = %v", id, err)
	}
	return res
}
