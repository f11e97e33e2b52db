package database

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"jasper-go/internal/jasper"
	"jasper-go/internal/model"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testIDs struct {
	mu sync.Mutex
	n  int
}

func (g *testIDs) New() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("id-%d", g.n)
}

// newTestDB creates a new in-memory database with schema applied.
func newTestDB(t *testing.T) (*SQLiteDatabase, *testClock) {
	t.Helper()

	clock := &testClock{now: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)}
	db, err := NewSQLiteDatabase(":memory:", clock, &testIDs{})
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}

	if _, err := db.db.Exec(Schema); err != nil {
		db.Close()
		t.Fatalf("failed to apply schema: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db, clock
}

func webLocation(url string) model.Location {
	return model.Location{Type: model.LocationHTTPURL, Value: url, Accessible: true}
}

func createTestResource(t *testing.T, db *SQLiteDatabase, title, url string, tags ...string) *model.Resource {
	t.Helper()
	res, err := db.CreateResource(context.Background(), &model.Resource{Title: title, Tags: tags}, webLocation(url), jasper.CreateOptions{})
	if err != nil {
		t.Fatalf("CreateResource(%q) error = %v", title, err)
	}
	return res
}

func TestSQLiteDatabase_CreateResource(t *testing.T) {
	ctx := context.Background()

	t.Run("creates resource with primary location and tags", func(t *testing.T) {
		db, clock := newTestDB(t)

		res := createTestResource(t, db, "Go Memory Model", "https://go.dev/ref/mem", "go", "concurrency")

		if res.ID != "id-1" {
			t.Errorf("ID = %q, want id-1", res.ID)
		}
		if res.Class != model.ClassExternal {
			t.Errorf("Class = %q, want %q", res.Class, model.ClassExternal)
		}
		if !res.CreatedAt.Equal(clock.Now()) || !res.ModifiedAt.Equal(clock.Now()) {
			t.Errorf("timestamps = %v/%v, want %v", res.CreatedAt, res.ModifiedAt, clock.Now())
		}
		if len(res.Locations) != 1 || !res.Locations[0].IsPrimary {
			t.Fatalf("Locations = %+v, want one primary", res.Locations)
		}
		if res.VerificationStatus != model.VerificationUnverified {
			t.Errorf("VerificationStatus = %q, want unverified", res.VerificationStatus)
		}
		if len(res.Tags) != 2 || res.Tags[0] != "concurrency" || res.Tags[1] != "go" {
			t.Errorf("Tags = %v, want [concurrency go]", res.Tags)
		}

		tags, err := db.ListTags(ctx)
		if err != nil {
			t.Fatalf("ListTags() error = %v", err)
		}
		for _, tag := range tags {
			if tag.UsageCount != 1 {
				t.Errorf("tag %s UsageCount = %d, want 1", tag.Name, tag.UsageCount)
			}
		}
	})

	t.Run("stores properties", func(t *testing.T) {
		db, _ := newTestDB(t)

		in := &model.Resource{
			Title: "Paper",
			Properties: []model.Property{
				{Key: "year", Value: model.NumberValue(2019)},
				{Key: "venue", Value: model.StringValue("SOSP")},
			},
		}
		res, err := db.CreateResource(ctx, in, webLocation("https://example.com/p.pdf"), jasper.CreateOptions{})
		if err != nil {
			t.Fatalf("CreateResource() error = %v", err)
		}
		p, ok := res.Property("year")
		if !ok {
			t.Fatal("property year missing")
		}
		if n, ok := p.Value.Number(); !ok || n != 2019 {
			t.Errorf("year = %v (%v), want 2019", n, ok)
		}
	})

	t.Run("rejects duplicate content hash", func(t *testing.T) {
		db, _ := newTestDB(t)

		first, err := db.CreateResource(ctx, &model.Resource{Title: "a", ContentHash: "sha256:abc"}, webLocation("https://a.example"), jasper.CreateOptions{})
		if err != nil {
			t.Fatalf("CreateResource() error = %v", err)
		}

		_, err = db.CreateResource(ctx, &model.Resource{Title: "b", ContentHash: "sha256:abc"}, webLocation("https://b.example"), jasper.CreateOptions{})
		if !errors.Is(err, jasper.ErrDuplicateContent) {
			t.Fatalf("CreateResource() error = %v, want ErrDuplicateContent", err)
		}
		var dup *jasper.DuplicateContentError
		if !errors.As(err, &dup) || dup.ExistingID != first.ID {
			t.Errorf("DuplicateContentError = %+v, want ExistingID %s", dup, first.ID)
		}

		page, _ := db.Search(ctx, model.Query{})
		if page.Total != 1 {
			t.Errorf("Total = %d after rejected create, want 1", page.Total)
		}
	})

	t.Run("allows duplicate when requested", func(t *testing.T) {
		db, _ := newTestDB(t)

		opts := jasper.CreateOptions{AllowDuplicate: true}
		if _, err := db.CreateResource(ctx, &model.Resource{Title: "a", ContentHash: "sha256:abc"}, webLocation("https://a.example"), opts); err != nil {
			t.Fatalf("first CreateResource() error = %v", err)
		}
		if _, err := db.CreateResource(ctx, &model.Resource{Title: "b", ContentHash: "sha256:abc"}, webLocation("https://b.example"), opts); err != nil {
			t.Fatalf("second CreateResource() error = %v", err)
		}
		ids, err := db.FindByContentHash(ctx, "sha256:abc")
		if err != nil {
			t.Fatalf("FindByContentHash() error = %v", err)
		}
		if len(ids) != 2 {
			t.Errorf("FindByContentHash() = %v, want 2 ids", ids)
		}
	})

	t.Run("rejects empty title", func(t *testing.T) {
		db, _ := newTestDB(t)

		_, err := db.CreateResource(ctx, &model.Resource{Title: "  "}, webLocation("https://a.example"), jasper.CreateOptions{})
		if !errors.Is(err, jasper.ErrInvalidInput) {
			t.Errorf("CreateResource() error = %v, want ErrInvalidInput", err)
		}
	})
}

func TestSQLiteDatabase_GetResource(t *testing.T) {
	db, _ := newTestDB(t)

	_, err := db.GetResource(context.Background(), "missing")
	if !errors.Is(err, jasper.ErrNotFound) {
		t.Errorf("GetResource() error = %v, want ErrNotFound", err)
	}
}

func TestSQLiteDatabase_UpdateResource(t *testing.T) {
	ctx := context.Background()
	db, clock := newTestDB(t)
	res := createTestResource(t, db, "Old", "https://a.example")

	clock.Advance(time.Hour)
	title, desc := "New", "described"
	got, err := db.UpdateResource(ctx, res.ID, model.ResourceUpdate{Title: &title, Description: &desc})
	if err != nil {
		t.Fatalf("UpdateResource() error = %v", err)
	}
	if got.Title != "New" || got.Description != "described" {
		t.Errorf("got %q/%q, want New/described", got.Title, got.Description)
	}
	if !got.ModifiedAt.Equal(clock.Now()) {
		t.Errorf("ModifiedAt = %v, want %v", got.ModifiedAt, clock.Now())
	}
	if !got.CreatedAt.Equal(res.CreatedAt) {
		t.Errorf("CreatedAt changed: %v -> %v", res.CreatedAt, got.CreatedAt)
	}

	if _, err := db.UpdateResource(ctx, "missing", model.ResourceUpdate{Title: &title}); !errors.Is(err, jasper.ErrNotFound) {
		t.Errorf("UpdateResource(missing) error = %v, want ErrNotFound", err)
	}
}

func TestSQLiteDatabase_MarkAccessed(t *testing.T) {
	ctx := context.Background()
	db, clock := newTestDB(t)
	res := createTestResource(t, db, "Doc", "https://a.example")

	clock.Advance(time.Minute)
	if err := db.MarkAccessed(ctx, res.ID, clock.Now()); err != nil {
		t.Fatalf("MarkAccessed() error = %v", err)
	}
	got, _ := db.GetResource(ctx, res.ID)
	if got.LastAccessedAt == nil || !got.LastAccessedAt.Equal(clock.Now()) {
		t.Errorf("LastAccessedAt = %v, want %v", got.LastAccessedAt, clock.Now())
	}
	if !got.ModifiedAt.Equal(res.ModifiedAt) {
		t.Errorf("ModifiedAt changed on access")
	}

	if err := db.MarkAccessed(ctx, "missing", clock.Now()); !errors.Is(err, jasper.ErrNotFound) {
		t.Errorf("MarkAccessed(missing) error = %v, want ErrNotFound", err)
	}
}

func TestSQLiteDatabase_DeleteResource(t *testing.T) {
	ctx := context.Background()
	db, _ := newTestDB(t)

	res := createTestResource(t, db, "Doomed", "https://a.example", "shared", "solo")
	createTestResource(t, db, "Survivor", "https://b.example", "shared")
	if err := db.SetProperty(ctx, res.ID, "author", model.StringValue("knuth")); err != nil {
		t.Fatalf("SetProperty() error = %v", err)
	}

	if err := db.DeleteResource(ctx, res.ID); err != nil {
		t.Fatalf("DeleteResource() error = %v", err)
	}

	if _, err := db.GetResource(ctx, res.ID); !errors.Is(err, jasper.ErrNotFound) {
		t.Errorf("GetResource() after delete error = %v, want ErrNotFound", err)
	}
	locs, _ := db.FindLocations(ctx, model.LocationHTTPURL, "https://a.example")
	if len(locs) != 0 {
		t.Errorf("locations survived delete: %v", locs)
	}

	counts := map[string]int64{}
	tags, _ := db.ListTags(ctx)
	for _, tag := range tags {
		counts[tag.Name] = tag.UsageCount
	}
	if counts["shared"] != 1 {
		t.Errorf("shared UsageCount = %d, want 1", counts["shared"])
	}
	if c, ok := counts["solo"]; !ok || c != 0 {
		t.Errorf("solo = %d (present %v), want 0 and still present", c, ok)
	}

	keys, _ := db.SuggestPropertyKeys(ctx, "", nil, 10)
	if len(keys) != 1 || keys[0] != "author" {
		t.Errorf("SuggestPropertyKeys() = %v after delete, want the retained key [author]", keys)
	}

	if err := db.DeleteResource(ctx, res.ID); !errors.Is(err, jasper.ErrNotFound) {
		t.Errorf("second DeleteResource() error = %v, want ErrNotFound", err)
	}
}

func TestSQLiteDatabase_Locations(t *testing.T) {
	ctx := context.Background()

	t.Run("adding a primary location demotes the old one", func(t *testing.T) {
		db, _ := newTestDB(t)
		res := createTestResource(t, db, "Doc", "https://a.example")

		loc, err := db.AddLocation(ctx, res.ID, model.Location{Type: model.LocationFilePath, Value: "/tmp/doc.pdf", IsPrimary: true, Accessible: true})
		if err != nil {
			t.Fatalf("AddLocation() error = %v", err)
		}

		got, _ := db.GetResource(ctx, res.ID)
		primary := got.PrimaryLocation()
		if primary == nil || primary.ID != loc.ID {
			t.Fatalf("PrimaryLocation() = %+v, want %s", primary, loc.ID)
		}
		if got.Class != model.ClassInternal {
			t.Errorf("Class = %q, want internal", got.Class)
		}
		n := 0
		for _, l := range got.Locations {
			if l.IsPrimary {
				n++
			}
		}
		if n != 1 {
			t.Errorf("primary count = %d, want 1", n)
		}
	})

	t.Run("cannot remove the last location", func(t *testing.T) {
		db, _ := newTestDB(t)
		res := createTestResource(t, db, "Doc", "https://a.example")

		err := db.RemoveLocation(ctx, res.ID, res.Locations[0].ID)
		if !errors.Is(err, jasper.ErrLastLocation) {
			t.Errorf("RemoveLocation() error = %v, want ErrLastLocation", err)
		}
	})

	t.Run("removing the primary promotes the oldest remaining", func(t *testing.T) {
		db, clock := newTestDB(t)
		res := createTestResource(t, db, "Doc", "https://a.example")

		clock.Advance(time.Minute)
		older, _ := db.AddLocation(ctx, res.ID, webLocation("https://mirror1.example"))
		clock.Advance(time.Minute)
		if _, err := db.AddLocation(ctx, res.ID, webLocation("https://mirror2.example")); err != nil {
			t.Fatalf("AddLocation() error = %v", err)
		}

		if err := db.RemoveLocation(ctx, res.ID, res.Locations[0].ID); err != nil {
			t.Fatalf("RemoveLocation() error = %v", err)
		}
		got, _ := db.GetResource(ctx, res.ID)
		if p := got.PrimaryLocation(); p == nil || p.ID != older.ID {
			t.Errorf("PrimaryLocation() = %+v, want %s", p, older.ID)
		}
	})

	t.Run("set primary", func(t *testing.T) {
		db, _ := newTestDB(t)
		res := createTestResource(t, db, "Doc", "https://a.example")
		mirror, _ := db.AddLocation(ctx, res.ID, webLocation("https://mirror.example"))

		if err := db.SetPrimaryLocation(ctx, res.ID, mirror.ID); err != nil {
			t.Fatalf("SetPrimaryLocation() error = %v", err)
		}
		got, _ := db.GetResource(ctx, res.ID)
		if p := got.PrimaryLocation(); p == nil || p.ID != mirror.ID {
			t.Errorf("PrimaryLocation() = %+v, want %s", p, mirror.ID)
		}
	})

	t.Run("location of another resource is not found", func(t *testing.T) {
		db, _ := newTestDB(t)
		a := createTestResource(t, db, "A", "https://a.example")
		b := createTestResource(t, db, "B", "https://b.example")
		if _, err := db.AddLocation(ctx, a.ID, webLocation("https://a2.example")); err != nil {
			t.Fatalf("AddLocation() error = %v", err)
		}

		err := db.RemoveLocation(ctx, a.ID, b.Locations[0].ID)
		if !errors.Is(err, jasper.ErrNotFound) {
			t.Errorf("RemoveLocation() error = %v, want ErrNotFound", err)
		}
		err = db.SetPrimaryLocation(ctx, a.ID, b.Locations[0].ID)
		if !errors.Is(err, jasper.ErrNotFound) {
			t.Errorf("SetPrimaryLocation() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("rejects unknown location type", func(t *testing.T) {
		db, _ := newTestDB(t)
		res := createTestResource(t, db, "Doc", "https://a.example")

		_, err := db.AddLocation(ctx, res.ID, model.Location{Type: "carrier-pigeon", Value: "coop 4"})
		if !errors.Is(err, jasper.ErrInvalidInput) {
			t.Errorf("AddLocation() error = %v, want ErrInvalidInput", err)
		}
	})
}

func TestSQLiteDatabase_RecordArchival(t *testing.T) {
	ctx := context.Background()
	db, clock := newTestDB(t)
	res := createTestResource(t, db, "Doc", "https://a.example")

	clock.Advance(time.Hour)
	loc, err := db.RecordArchival(ctx, res.ID, model.Location{Value: "addr-1", Size: 2048, Cost: 0.000002, Accessible: true}, "sha256:feed")
	if err != nil {
		t.Fatalf("RecordArchival() error = %v", err)
	}
	if loc.Type != model.LocationArchival || loc.Size != 2048 {
		t.Errorf("location = %+v", loc)
	}

	got, _ := db.GetResource(ctx, res.ID)
	if got.Class != model.ClassExternalArchived {
		t.Errorf("Class = %q, want external-archived", got.Class)
	}
	if got.ContentHash != "sha256:feed" {
		t.Errorf("ContentHash = %q, want sha256:feed", got.ContentHash)
	}
	if !got.ModifiedAt.Equal(clock.Now()) {
		t.Errorf("ModifiedAt = %v, want %v", got.ModifiedAt, clock.Now())
	}
	if p := got.PrimaryLocation(); p == nil || p.Type != model.LocationHTTPURL {
		t.Errorf("archival copy should not take over the primary: %+v", p)
	}

	// An existing hash is kept.
	if _, err := db.RecordArchival(ctx, res.ID, model.Location{Value: "addr-2"}, "sha256:other"); err != nil {
		t.Fatalf("second RecordArchival() error = %v", err)
	}
	got, _ = db.GetResource(ctx, res.ID)
	if got.ContentHash != "sha256:feed" {
		t.Errorf("ContentHash = %q, want sha256:feed", got.ContentHash)
	}
	if n := len(got.LocationsOfType(model.LocationArchival)); n != 2 {
		t.Errorf("archival locations = %d, want 2", n)
	}
}

func TestSQLiteDatabase_SetLocationStatus(t *testing.T) {
	ctx := context.Background()
	db, clock := newTestDB(t)
	res := createTestResource(t, db, "Doc", "https://a.example")
	locID := res.Locations[0].ID

	if err := db.SetLocationStatus(ctx, locID, false, clock.Now()); err != nil {
		t.Fatalf("SetLocationStatus() error = %v", err)
	}
	got, _ := db.GetResource(ctx, res.ID)
	if got.Accessible || got.VerificationStatus != model.VerificationFailed {
		t.Errorf("resource = accessible %v, status %q; want false, failed", got.Accessible, got.VerificationStatus)
	}
	if got.Locations[0].LastVerified == nil {
		t.Error("LastVerified not recorded")
	}

	if err := db.SetLocationStatus(ctx, locID, true, clock.Now()); err != nil {
		t.Fatalf("SetLocationStatus() error = %v", err)
	}
	got, _ = db.GetResource(ctx, res.ID)
	if !got.Accessible || got.VerificationStatus != model.VerificationVerified {
		t.Errorf("resource = accessible %v, status %q; want true, verified", got.Accessible, got.VerificationStatus)
	}

	if err := db.SetLocationStatus(ctx, "missing", true, clock.Now()); !errors.Is(err, jasper.ErrNotFound) {
		t.Errorf("SetLocationStatus(missing) error = %v, want ErrNotFound", err)
	}
}

func TestSQLiteDatabase_Tags(t *testing.T) {
	ctx := context.Background()

	t.Run("add is idempotent", func(t *testing.T) {
		db, _ := newTestDB(t)
		res := createTestResource(t, db, "Doc", "https://a.example")

		added, err := db.AddTag(ctx, res.ID, "rust")
		if err != nil || !added {
			t.Fatalf("AddTag() = %v, %v; want true, nil", added, err)
		}
		added, err = db.AddTag(ctx, res.ID, "rust")
		if err != nil || added {
			t.Fatalf("second AddTag() = %v, %v; want false, nil", added, err)
		}
		if n, _ := db.CountByTag(ctx, "rust"); n != 1 {
			t.Errorf("CountByTag() = %d, want 1", n)
		}
		tags, _ := db.ListTags(ctx)
		if len(tags) != 1 || tags[0].UsageCount != 1 {
			t.Errorf("ListTags() = %+v, want rust with count 1", tags)
		}
	})

	t.Run("remove decrements and keeps the tag", func(t *testing.T) {
		db, _ := newTestDB(t)
		res := createTestResource(t, db, "Doc", "https://a.example", "rust")

		removed, err := db.RemoveTag(ctx, res.ID, "rust")
		if err != nil || !removed {
			t.Fatalf("RemoveTag() = %v, %v; want true, nil", removed, err)
		}
		removed, err = db.RemoveTag(ctx, res.ID, "rust")
		if err != nil || removed {
			t.Fatalf("second RemoveTag() = %v, %v; want false, nil", removed, err)
		}
		if removed, err := db.RemoveTag(ctx, res.ID, "never-seen"); err != nil || removed {
			t.Errorf("RemoveTag(unknown) = %v, %v; want false, nil", removed, err)
		}

		tags, _ := db.ListTags(ctx)
		if len(tags) != 1 || tags[0].UsageCount != 0 {
			t.Errorf("ListTags() = %+v, want rust with count 0", tags)
		}

		pruned, err := db.PruneTags(ctx)
		if err != nil || pruned != 1 {
			t.Errorf("PruneTags() = %d, %v; want 1, nil", pruned, err)
		}
	})

	t.Run("tagging a missing resource fails", func(t *testing.T) {
		db, _ := newTestDB(t)
		if _, err := db.AddTag(ctx, "missing", "x"); !errors.Is(err, jasper.ErrNotFound) {
			t.Errorf("AddTag() error = %v, want ErrNotFound", err)
		}
	})
}

func TestSQLiteDatabase_SuggestTags(t *testing.T) {
	ctx := context.Background()
	db, clock := newTestDB(t)

	// alpha: 2 uses, older; algebra: 2 uses, newer; algo: 1 use; beta: 3 uses
	r1 := createTestResource(t, db, "One", "https://1.example", "alpha", "beta")
	clock.Advance(time.Minute)
	r2 := createTestResource(t, db, "Two", "https://2.example", "alpha", "beta", "algo")
	clock.Advance(time.Minute)
	createTestResource(t, db, "Three", "https://3.example", "algebra", "beta")
	clock.Advance(time.Minute)
	if _, err := db.AddTag(ctx, r1.ID, "algebra"); err != nil {
		t.Fatalf("AddTag() error = %v", err)
	}

	tests := []struct {
		name      string
		prefix    string
		excluding []string
		limit     int
		want      []string
	}{
		{"ranked by count then recency", "al", nil, 10, []string{"algebra", "alpha", "algo"}},
		{"all tags", "", nil, 10, []string{"beta", "algebra", "alpha", "algo"}},
		{"excluding", "al", []string{"algebra"}, 10, []string{"alpha", "algo"}},
		{"limit", "", nil, 2, []string{"beta", "algebra"}},
		{"no match", "zzz", nil, 10, []string{}},
		{"like metacharacters are literal", "%", nil, 10, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.SuggestTags(ctx, tt.prefix, tt.excluding, tt.limit)
			if err != nil {
				t.Fatalf("SuggestTags() error = %v", err)
			}
			if fmt.Sprint(got) != fmt.Sprint(tt.want) {
				t.Errorf("SuggestTags() = %v, want %v", got, tt.want)
			}
		})
	}

	// A tag whose last use is removed is kept for suggestions and ranks last.
	if _, err := db.RemoveTag(ctx, r2.ID, "algo"); err != nil {
		t.Fatalf("RemoveTag() error = %v", err)
	}
	got, _ := db.SuggestTags(ctx, "al", nil, 10)
	if fmt.Sprint(got) != "[algebra alpha algo]" {
		t.Errorf("SuggestTags(al) = %v after last use removed, want [algebra alpha algo]", got)
	}

	// Pruning is what makes it disappear.
	if n, err := db.PruneTags(ctx); err != nil || n != 1 {
		t.Fatalf("PruneTags() = %d, %v; want 1, nil", n, err)
	}
	got, _ = db.SuggestTags(ctx, "algo", nil, 10)
	if len(got) != 0 {
		t.Errorf("SuggestTags(algo) = %v after prune, want none", got)
	}
}

func TestSQLiteDatabase_Properties(t *testing.T) {
	ctx := context.Background()
	db, clock := newTestDB(t)
	a := createTestResource(t, db, "A", "https://a.example")
	b := createTestResource(t, db, "B", "https://b.example")

	set := func(id, key string, v model.PropertyValue) {
		t.Helper()
		if err := db.SetProperty(ctx, id, key, v); err != nil {
			t.Fatalf("SetProperty(%s) error = %v", key, err)
		}
	}
	set(a.ID, "author", model.StringValue("lamport"))
	clock.Advance(time.Minute)
	set(b.ID, "author", model.StringValue("liskov"))
	set(a.ID, "year", model.NumberValue(1978))
	clock.Advance(time.Minute)
	set(a.ID, "read", model.BoolValue(true))
	set(a.ID, "author", model.StringValue("lamport"))

	keys, err := db.SuggestPropertyKeys(ctx, "", nil, 10)
	if err != nil {
		t.Fatalf("SuggestPropertyKeys() error = %v", err)
	}
	if fmt.Sprint(keys) != "[author read year]" {
		t.Errorf("SuggestPropertyKeys() = %v, want [author read year]", keys)
	}

	keys, _ = db.SuggestPropertyKeys(ctx, "", []string{"author"}, 10)
	if fmt.Sprint(keys) != "[read year]" {
		t.Errorf("SuggestPropertyKeys(excluding author) = %v, want [read year]", keys)
	}

	values, err := db.SuggestPropertyValues(ctx, "author", "l", 10)
	if err != nil {
		t.Fatalf("SuggestPropertyValues() error = %v", err)
	}
	if len(values) != 2 {
		t.Fatalf("SuggestPropertyValues() = %v, want 2 values", values)
	}

	yearValues, _ := db.SuggestPropertyValues(ctx, "year", "", 10)
	if len(yearValues) != 1 || yearValues[0].Type() != model.PropertyNumber {
		t.Errorf("year values = %v, want one number", yearValues)
	}

	removed, err := db.RemoveProperty(ctx, a.ID, "year")
	if err != nil || !removed {
		t.Fatalf("RemoveProperty() = %v, %v; want true, nil", removed, err)
	}
	removed, _ = db.RemoveProperty(ctx, a.ID, "year")
	if removed {
		t.Error("second RemoveProperty() = true, want false")
	}
	keys, _ = db.SuggestPropertyKeys(ctx, "", nil, 10)
	if fmt.Sprint(keys) != "[author read year]" {
		t.Errorf("SuggestPropertyKeys() = %v after removal, want year retained last", keys)
	}

	got, _ := db.GetResource(ctx, a.ID)
	if len(got.Properties) != 2 {
		t.Errorf("Properties = %+v, want author and read", got.Properties)
	}
}

func TestSQLiteDatabase_Search(t *testing.T) {
	ctx := context.Background()
	db, clock := newTestDB(t)

	golang := createTestResource(t, db, "Effective Go", "https://go.dev/doc/effective_go", "go", "style")
	clock.Advance(time.Minute)
	rustRes := createTestResource(t, db, "The Rust Book", "https://doc.rust-lang.org/book", "rust")
	clock.Advance(time.Minute)
	both := createTestResource(t, db, "Systems languages compared", "https://example.com/langs", "go", "rust")
	clock.Advance(time.Minute)
	if _, err := db.RecordArchival(ctx, rustRes.ID, model.Location{Value: "addr"}, ""); err != nil {
		t.Fatalf("RecordArchival() error = %v", err)
	}

	ids := func(p *model.Page) string {
		var out []string
		for _, r := range p.Resources {
			out = append(out, r.ID)
		}
		return fmt.Sprint(out)
	}

	tests := []struct {
		name      string
		query     model.Query
		want      []string
		wantTotal int
	}{
		{"everything newest first", model.Query{}, []string{rustRes.ID, both.ID, golang.ID}, 3},
		{"any tag", model.Query{Tags: []string{"go", "rust"}}, []string{rustRes.ID, both.ID, golang.ID}, 3},
		{"all tags", model.Query{Tags: []string{"go", "rust"}, Logic: model.TagLogicAll}, []string{both.ID}, 1},
		{"tag and text", model.Query{Tags: []string{"go"}, Text: "effective"}, []string{golang.ID}, 1},
		{"text over primary location", model.Query{Text: "rust-lang"}, []string{rustRes.ID}, 1},
		{"class", model.Query{Class: model.ClassExternalArchived}, []string{rustRes.ID}, 1},
		{"sort by title ascending", model.Query{Sort: model.SortTitle, Ascending: true}, []string{golang.ID, both.ID, rustRes.ID}, 3},
		{"paginated", model.Query{Limit: 1, Offset: 1}, []string{both.ID}, 3},
		{"unknown tag", model.Query{Tags: []string{"cobol"}}, []string{}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := db.Search(ctx, tt.query)
			if err != nil {
				t.Fatalf("Search() error = %v", err)
			}
			if got := ids(page); got != fmt.Sprint(tt.want) {
				t.Errorf("Search() = %s, want %v", got, tt.want)
			}
			if page.Total != tt.wantTotal {
				t.Errorf("Total = %d, want %d", page.Total, tt.wantTotal)
			}
		})
	}

	t.Run("results are hydrated", func(t *testing.T) {
		page, _ := db.Search(ctx, model.Query{Tags: []string{"rust"}, Logic: model.TagLogicAll})
		for _, r := range page.Resources {
			if len(r.Locations) == 0 || !r.HasTag("rust") {
				t.Errorf("resource %s not hydrated: %+v", r.ID, r)
			}
		}
	})

	t.Run("invalid query", func(t *testing.T) {
		if _, err := db.Search(ctx, model.Query{Sort: "size"}); err == nil {
			t.Error("Search() expected error for unknown sort")
		}
	})
}

func TestSQLiteDatabase_ImportResource(t *testing.T) {
	ctx := context.Background()
	db, _ := newTestDB(t)

	created := time.Date(2020, 5, 1, 8, 0, 0, 0, time.UTC)
	res := &model.Resource{
		ID:                 "7c9e6679-7425-40de-944b-e07fc1f90ae7",
		Title:              "Imported",
		CreatedAt:          created,
		ModifiedAt:         created,
		Accessible:         true,
		VerificationStatus: model.VerificationVerified,
		Tags:               []string{"legacy"},
		Locations: []model.Location{
			{ID: "loc-a", Type: model.LocationArchival, Value: "addr-a", Accessible: true},
			{ID: "loc-b", Type: model.LocationHTTPURL, Value: "https://a.example", IsPrimary: true, Accessible: true},
		},
	}

	ok, err := db.ImportResource(ctx, res)
	if err != nil || !ok {
		t.Fatalf("ImportResource() = %v, %v; want true, nil", ok, err)
	}
	ok, err = db.ImportResource(ctx, res)
	if err != nil || ok {
		t.Fatalf("second ImportResource() = %v, %v; want false, nil", ok, err)
	}

	got, err := db.GetResource(ctx, res.ID)
	if err != nil {
		t.Fatalf("GetResource() error = %v", err)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, created)
	}
	if p := got.PrimaryLocation(); p == nil || p.ID != "loc-b" {
		t.Errorf("PrimaryLocation() = %+v, want loc-b", p)
	}
	if got.Class != model.ClassExternalArchived {
		t.Errorf("Class = %q, want external-archived", got.Class)
	}

	if _, err := db.ImportResource(ctx, &model.Resource{ID: "x", Title: "no locations"}); !errors.Is(err, jasper.ErrInvalidInput) {
		t.Errorf("ImportResource(no locations) error = %v, want ErrInvalidInput", err)
	}
}

func TestSQLiteDatabase_BackupTo(t *testing.T) {
	ctx := context.Background()
	db, _ := newTestDB(t)
	createTestResource(t, db, "Kept", "https://a.example", "backup")

	dest := filepath.Join(t.TempDir(), "copy.db")
	if err := db.BackupTo(dest); err != nil {
		t.Fatalf("BackupTo() error = %v", err)
	}
	if _, err := os.Stat(dest); err != nil {
		t.Fatalf("backup not written: %v", err)
	}

	copyDB, err := NewSQLiteDatabase(dest, nil, nil)
	if err != nil {
		t.Fatalf("opening backup: %v", err)
	}
	defer copyDB.Close()

	page, err := copyDB.Search(ctx, model.Query{Tags: []string{"backup"}})
	if err != nil {
		t.Fatalf("Search() on backup error = %v", err)
	}
	if page.Total != 1 {
		t.Errorf("backup Total = %d, want 1", page.Total)
	}
}

func TestSnakeCase(t *testing.T) {
	tests := map[string]string{
		"ID":                 "id",
		"ResourceID":         "resource_id",
		"ContentHash":        "content_hash",
		"LastAccessedAt":     "last_accessed_at",
		"VerificationStatus": "verification_status",
		"TagID":              "tag_id",
	}
	for in, want := range tests {
		if got := snakeCase(in); got != want {
			t.Errorf("snakeCase(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestEscapeLike(t *testing.T) {
	if got := escapeLike(`50%_off\`); got != `50\%\_off\\` {
		t.Errorf("escapeLike() = %q", got)
	}
}
