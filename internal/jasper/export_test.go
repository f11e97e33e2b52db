package jasper_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"jasper-go/internal/encryption"
	"jasper-go/internal/export"
	"jasper-go/internal/jasper"
	"jasper-go/internal/model"
	"jasper-go/internal/testutil"
)

// populate adds an archived file, a tagged URL and a plain URL.
func populate(t *testing.T, h *harness) (fileID, urlID, plainID string) {
	t.Helper()
	ctx := context.Background()

	fileID = h.addFile(t, "/notes/paper.txt", "paper body", jasper.Metadata{
		Title:      "Paper",
		Tags:       []string{"go", "papers"},
		Properties: map[string]model.PropertyValue{"year": model.NumberValue(2024), "read": model.BoolValue(true)},
	})
	h.clock.Advance(time.Minute)
	if _, err := h.mgr.Archive(ctx, fileID, jasper.ArchiveOptions{}); err != nil {
		t.Fatalf("Archive() error = %v", err)
	}
	h.clock.Advance(time.Minute)
	urlID = h.addURL(t, "https://go.dev/blog", "blog", jasper.Metadata{Title: "Go blog", Description: "news", Tags: []string{"go"}})
	h.clock.Advance(time.Minute)
	plainID = h.addURL(t, "https://example.com/misc", "misc", jasper.Metadata{Title: "Misc"})
	return fileID, urlID, plainID
}

func TestExportImport_JSONRoundTrip(t *testing.T) {
	src := newHarness(t)
	populate(t, src)
	ctx := context.Background()

	dir := t.TempDir()
	result, err := src.mgr.Export(ctx, model.Query{}, dir, jasper.ExportOptions{Format: export.FormatJSON})
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if result.Count != 3 {
		t.Errorf("exported %d resources, want 3", result.Count)
	}
	if filepath.Base(result.Path) != "jasper-all-20260301T090300Z.json" {
		t.Errorf("export file = %s", filepath.Base(result.Path))
	}
	info, err := os.Stat(result.Path)
	if err != nil {
		t.Fatalf("export file missing: %v", err)
	}
	if info.Size() != result.Bytes {
		t.Errorf("result bytes = %d, file size = %d", result.Bytes, info.Size())
	}
	leftovers, _ := filepath.Glob(filepath.Join(dir, ".export-*"))
	if len(leftovers) != 0 {
		t.Errorf("temp files left behind: %v", leftovers)
	}

	dst := newHarness(t)
	f, err := os.Open(result.Path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	imported, err := dst.mgr.Import(ctx, f, jasper.ImportOptions{})
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if imported.Format != export.FormatJSON || imported.Imported != 3 || imported.Skipped != 0 {
		t.Errorf("Import() = %+v", imported)
	}

	want, _ := src.mgr.Search(ctx, model.Query{})
	for _, w := range want.Resources {
		got, err := dst.mgr.Get(ctx, w.ID)
		if err != nil {
			t.Fatalf("Get(%s) after import error = %v", w.ID, err)
		}
		assertSameResource(t, got, w)
	}

	// The same file again changes nothing.
	again, err := dst.mgr.Import(ctx, bytes.NewReader(mustRead(t, result.Path)), jasper.ImportOptions{})
	if err != nil {
		t.Fatalf("second Import() error = %v", err)
	}
	if again.Imported != 0 || again.Skipped != 3 {
		t.Errorf("second Import() = %+v, want everything skipped", again)
	}
}

func assertSameResource(t *testing.T, got, want *model.Resource) {
	t.Helper()
	if got.Title != want.Title || got.Description != want.Description || got.ContentHash != want.ContentHash {
		t.Errorf("%s: scalar fields differ: got %q/%q/%q", want.ID, got.Title, got.Description, got.ContentHash)
	}
	if got.Class != want.Class {
		t.Errorf("%s: class = %s, want %s", want.ID, got.Class, want.Class)
	}
	if !got.CreatedAt.Equal(want.CreatedAt) || !got.ModifiedAt.Equal(want.ModifiedAt) {
		t.Errorf("%s: timestamps = %v/%v, want %v/%v", want.ID, got.CreatedAt, got.ModifiedAt, want.CreatedAt, want.ModifiedAt)
	}
	if strings.Join(got.Tags, ",") != strings.Join(want.Tags, ",") {
		t.Errorf("%s: tags = %v, want %v", want.ID, got.Tags, want.Tags)
	}
	if len(got.Locations) != len(want.Locations) {
		t.Fatalf("%s: %d locations, want %d", want.ID, len(got.Locations), len(want.Locations))
	}
	for i := range want.Locations {
		g, w := got.Locations[i], want.Locations[i]
		if g.ID != w.ID || g.Type != w.Type || g.Value != w.Value || g.IsPrimary != w.IsPrimary || g.Size != w.Size {
			t.Errorf("%s: location %d = %+v, want %+v", want.ID, i, g, w)
		}
	}
	if len(got.Properties) != len(want.Properties) {
		t.Fatalf("%s: %d properties, want %d", want.ID, len(got.Properties), len(want.Properties))
	}
	for i := range want.Properties {
		g, w := got.Properties[i], want.Properties[i]
		if g.Key != w.Key || g.Value != w.Value {
			t.Errorf("%s: property %d = %s=%v, want %s=%v", want.ID, i, g.Key, g.Value, w.Key, w.Value)
		}
	}
}

func mustRead(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestExportImport_CompressedEncryptedCBOR(t *testing.T) {
	for _, c := range []export.Compression{export.CompressionZstd, export.CompressionLZ4} {
		t.Run(string(c), func(t *testing.T) {
			src := newHarness(t)
			fileID, _, _ := populate(t, src)
			ctx := context.Background()

			var buf bytes.Buffer
			result, err := src.mgr.WriteExport(ctx, &buf, model.Query{}, jasper.ExportOptions{
				Format:      export.FormatCBOR,
				Compression: c,
				Encrypt:     true,
			})
			if err != nil {
				t.Fatalf("WriteExport() error = %v", err)
			}
			if result.Bytes != int64(buf.Len()) {
				t.Errorf("result bytes = %d, buffer = %d", result.Bytes, buf.Len())
			}
			if !encryption.IsTestEncrypted(buf.Bytes()) {
				t.Fatal("export is not encrypted")
			}

			dst := newHarness(t)
			if _, err := dst.mgr.Import(ctx, bytes.NewReader(buf.Bytes()), jasper.ImportOptions{}); err == nil {
				t.Error("Import() of encrypted data without a decryptor succeeded")
			}

			imported, err := dst.mgr.Import(ctx, &buf, jasper.ImportOptions{Decryptor: &encryption.TestDecryptionContext{}})
			if err != nil {
				t.Fatalf("Import() error = %v", err)
			}
			if imported.Format != export.FormatCBOR || imported.Imported != 3 {
				t.Errorf("Import() = %+v", imported)
			}
			res, err := dst.mgr.Get(ctx, fileID)
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if res.Class != model.ClassInternalArchived {
				t.Errorf("class = %s, want %s", res.Class, model.ClassInternalArchived)
			}
		})
	}
}

func TestWriteExport_EncryptRequiresKeys(t *testing.T) {
	db := testutil.NewTestDatabase(t)
	mgr := jasper.NewLifecycleManager(db, nil, testutil.NewTestHasher(), testutil.NewMockFilesystemManager(), nil, nil, nil, nil)

	_, err := mgr.WriteExport(context.Background(), &bytes.Buffer{}, model.Query{}, jasper.ExportOptions{Encrypt: true})
	if !errors.Is(err, jasper.ErrInvalidInput) {
		t.Errorf("WriteExport() error = %v, want ErrInvalidInput", err)
	}
}

func TestWriteExport_FilteredList(t *testing.T) {
	h := newHarness(t)
	populate(t, h)

	var buf bytes.Buffer
	result, err := h.mgr.WriteExport(context.Background(), &buf, model.Query{Tags: []string{"#Go"}, Sort: model.SortTitle, Ascending: true}, jasper.ExportOptions{Format: export.FormatList})
	if err != nil {
		t.Fatalf("WriteExport() error = %v", err)
	}
	if result.Count != 2 {
		t.Errorf("count = %d, want 2", result.Count)
	}
	want := "https://go.dev/blog\n/notes/paper.txt\n"
	if buf.String() != want {
		t.Errorf("list export = %q, want %q", buf.String(), want)
	}
}

func TestWriteExport_Bookmarks(t *testing.T) {
	h := newHarness(t)
	populate(t, h)

	var buf bytes.Buffer
	if _, err := h.mgr.WriteExport(context.Background(), &buf, model.Query{}, jasper.ExportOptions{Format: export.FormatBookmarks}); err != nil {
		t.Fatalf("WriteExport() error = %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"<!DOCTYPE NETSCAPE-Bookmark-file-1>",
		`<A HREF="https://go.dev/blog"`,
		`<A HREF="file:///notes/paper.txt"`,
		">" + export.UntaggedFolder + "</H3>",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("bookmarks missing %q", want)
		}
	}
}

func TestExport_Database(t *testing.T) {
	h := newHarness(t)
	populate(t, h)

	result, err := h.mgr.Export(context.Background(), model.Query{Tags: []string{"go"}}, t.TempDir(), jasper.ExportOptions{Format: export.FormatDatabase})
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	// The database copy ignores the filter and holds everything.
	if result.Count != 3 {
		t.Errorf("count = %d, want 3", result.Count)
	}
	if !strings.HasSuffix(result.Path, ".db") {
		t.Errorf("path = %s, want .db", result.Path)
	}
	if data := mustRead(t, result.Path); !bytes.HasPrefix(data, []byte("SQLite format 3\x00")) {
		t.Errorf("export is not a SQLite database")
	}
}

func TestExportImport_ArchiveIndex(t *testing.T) {
	src := newHarness(t)
	fileID, _, _ := populate(t, src)
	ctx := context.Background()

	var buf bytes.Buffer
	result, err := src.mgr.WriteExport(ctx, &buf, model.Query{}, jasper.ExportOptions{Format: export.FormatArchiveIndex})
	if err != nil {
		t.Fatalf("WriteExport() error = %v", err)
	}
	if !strings.Contains(buf.String(), `"arweave_hashes"`) || !strings.Contains(buf.String(), "https://gateway.test/") {
		t.Errorf("archive index = %s", buf.String())
	}
	if result.Count != 3 {
		t.Errorf("count = %d, want 3 resources considered", result.Count)
	}

	dst := newHarness(t)
	imported, err := dst.mgr.Import(ctx, &buf, jasper.ImportOptions{})
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if imported.Format != export.FormatArchiveIndex || imported.Imported != 1 {
		t.Errorf("Import() = %+v, want only the archived resource", imported)
	}
	res, err := dst.mgr.Get(ctx, fileID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if res.Class != model.ClassExternalArchived || res.Title != "Paper" {
		t.Errorf("imported resource = %s %q", res.Class, res.Title)
	}
}

func TestImport_Rejects(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	tests := []struct {
		name string
		data string
		opts jasper.ImportOptions
	}{
		{"list format", "https://example.com\n", jasper.ImportOptions{Format: export.FormatList}},
		{"broken json", `{"resources": [`, jasper.ImportOptions{}},
		{"future version", `{"version": 99, "resources": []}`, jasper.ImportOptions{}},
		{"resource without locations", `{"version": 1, "resources": [{"id": "x", "title": "t", "locations": []}]}`, jasper.ImportOptions{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.mgr.Import(ctx, strings.NewReader(tt.data), tt.opts)
			if !errors.Is(err, jasper.ErrInvalidInput) {
				t.Errorf("Import() error = %v, want ErrInvalidInput", err)
			}
		})
	}

	page, _ := h.mgr.Search(ctx, model.Query{})
	if page.Total != 0 {
		t.Errorf("rejected imports left %d resources", page.Total)
	}
}

func TestImport_NormalizesTags(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	dump := `{"version": 1, "resources": [{
		"id": "r1", "title": "T",
		"tags": ["#Go", "go", "Machine Learning"],
		"locations": [{"id": "l1", "type": "http-url", "value": "https://example.com", "is_primary": true, "accessible": true}]
	}]}`

	if _, err := h.mgr.Import(ctx, strings.NewReader(dump), jasper.ImportOptions{}); err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	res, err := h.mgr.Get(ctx, "r1")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(res.Tags, ",") != "go,machine-learning" {
		t.Errorf("tags = %v", res.Tags)
	}
}
