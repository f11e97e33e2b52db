package testutil

import (
	"testing"

	"jasper-go/internal/database"
	"jasper-go/internal/jasper"
	"jasper-go/internal/transport"
)

// Env is a lifecycle manager wired to in-memory fakes, for tests of the
// surfaces built on top of it.
type Env struct {
	DB        *database.SQLiteDatabase
	FS        *MockFilesystemManager
	Fetcher   *StubFetcher
	Clock     *StubClock
	Transport *transport.MemoryTransport
	Manager   *jasper.LifecycleManager
}

// NewTestEnv builds an Env on FixedClock and sequential ids.
func NewTestEnv(t *testing.T) *Env {
	t.Helper()
	clock := FixedClock()
	db := NewTestDatabaseWith(t, clock, NewStubIDGenerator())
	fsmgr := NewMockFilesystemManager()
	fetcher := NewStubFetcher()
	hasher := NewTestHasher()
	tr := NewTestTransport()

	archiver := jasper.NewArchivalCoordinator(db, tr, fetcher, nil, hasher, fsmgr, nil, clock, jasper.ArchiveConfig{})
	mgr := jasper.NewLifecycleManager(db, archiver, hasher, fsmgr, fetcher, NewTestEncryptor(), nil, clock)
	return &Env{DB: db, FS: fsmgr, Fetcher: fetcher, Clock: clock, Transport: tr, Manager: mgr}
}
