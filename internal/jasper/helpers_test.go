package jasper_test

import (
	"context"
	"testing"

	"jasper-go/internal/database"
	"jasper-go/internal/jasper"
	"jasper-go/internal/testutil"
)

// harness bundles a manager with the fakes behind it.
type harness struct {
	db        *database.SQLiteDatabase
	fs        *testutil.MockFilesystemManager
	transport jasper.Transport
	fetcher   *testutil.StubFetcher
	clock     *testutil.StubClock
	archiver  *jasper.ArchivalCoordinator
	mgr       *jasper.LifecycleManager
}

type harnessOption func(*harnessConfig)

type harnessConfig struct {
	transport jasper.Transport
	packager  func(jasper.Fetcher) jasper.Packager
	archive   jasper.ArchiveConfig
}

func withTransport(t jasper.Transport) harnessOption {
	return func(c *harnessConfig) { c.transport = t }
}

func withPackager(newPackager func(jasper.Fetcher) jasper.Packager) harnessOption {
	return func(c *harnessConfig) { c.packager = newPackager }
}

func withArchiveConfig(cfg jasper.ArchiveConfig) harnessOption {
	return func(c *harnessConfig) { c.archive = cfg }
}

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()
	cfg := harnessConfig{transport: testutil.NewTestTransport()}
	for _, o := range opts {
		o(&cfg)
	}

	clock := testutil.FixedClock()
	db := testutil.NewTestDatabaseWith(t, clock, testutil.NewStubIDGenerator())
	fsmgr := testutil.NewMockFilesystemManager()
	fetcher := testutil.NewStubFetcher()
	hasher := testutil.NewTestHasher()
	var packager jasper.Packager
	if cfg.packager != nil {
		packager = cfg.packager(fetcher)
	}

	archiver := jasper.NewArchivalCoordinator(db, cfg.transport, fetcher, packager, hasher, fsmgr, jasper.NewNopLogger(), clock, cfg.archive)
	mgr := jasper.NewLifecycleManager(db, archiver, hasher, fsmgr, fetcher, testutil.NewTestEncryptor(), jasper.NewNopLogger(), clock)

	return &harness{
		db:        db,
		fs:        fsmgr,
		transport: cfg.transport,
		fetcher:   fetcher,
		clock:     clock,
		archiver:  archiver,
		mgr:       mgr,
	}
}

// addFile puts content on the mock filesystem and registers it.
func (h *harness) addFile(t *testing.T, path string, content string, meta jasper.Metadata) string {
	t.Helper()
	h.fs.AddFile(path, []byte(content))
	res, err := h.mgr.AddInternal(context.Background(), path, meta)
	if err != nil {
		t.Fatalf("AddInternal(%s) error = %v", path, err)
	}
	return res.ID
}

// addURL serves body at url and registers it.
func (h *harness) addURL(t *testing.T, url, body string, meta jasper.Metadata) string {
	t.Helper()
	h.fetcher.Serve(url, "text/html; charset=utf-8", []byte(body))
	res, err := h.mgr.AddExternal(context.Background(), url, meta)
	if err != nil {
		t.Fatalf("AddExternal(%s) error = %v", url, err)
	}
	return res.ID
}
