package jasper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"jasper-go/internal/model"
)

// Archival tag names. The first three are always present and identify the
// upload; callers cannot override them.
const (
	TagResourceID  = "Resource-Id"
	TagTitle       = "Title"
	TagArchivedAt  = "Archived-At"
	TagAppName     = "App-Name"
	TagContentType = "Content-Type"
	TagContentHash = "Content-Hash"
	TagPackaging   = "Packaging"
	TagSourceURL   = "Source-Url"
	TagType        = "Type"
)

const (
	packagingPackaged = "packaged"
	packagingRaw      = "raw"
	packagingLocal    = "local"
)

// DefaultCostPerKiB is the fallback price used when the transport cannot
// estimate an upload.
const DefaultCostPerKiB = 0.000001

// ArchiveConfig holds the coordinator's policy settings.
type ArchiveConfig struct {
	AppName string
	// PackageExternal inlines subresources of fetched pages before upload.
	// When false the fetched bytes are uploaded as they are.
	PackageExternal bool
	DefaultTags     map[string]string
	CostPerKiB      float64
}

// ArchiveOptions are per-call archival settings.
type ArchiveOptions struct {
	Tags map[string]string
	// Primary promotes the new archival location to primary.
	Primary bool
}

// ArchivalCoordinator moves resources to the archival network. At most one
// archival per resource id runs at a time within the process.
type ArchivalCoordinator struct {
	db        Database
	transport Transport
	fetcher   Fetcher
	packager  Packager
	hasher    Hasher
	fsmgr     FilesystemManager
	logger    Logger
	clock     Clock
	cfg       ArchiveConfig

	mu       sync.Mutex
	inflight map[string]struct{}
}

// NewArchivalCoordinator creates a coordinator. fetcher and packager may be nil
// when only internal resources are archived; logger and clock default to
// NopLogger and RealClock.
func NewArchivalCoordinator(db Database, transport Transport, fetcher Fetcher, packager Packager, hasher Hasher, fsmgr FilesystemManager, logger Logger, clock Clock, cfg ArchiveConfig) *ArchivalCoordinator {
	if logger == nil {
		logger = NewNopLogger()
	}
	if clock == nil {
		clock = RealClock{}
	}
	if cfg.AppName == "" {
		cfg.AppName = "Jasper"
	}
	if cfg.CostPerKiB <= 0 {
		cfg.CostPerKiB = DefaultCostPerKiB
	}
	return &ArchivalCoordinator{
		db:        db,
		transport: transport,
		fetcher:   fetcher,
		packager:  packager,
		hasher:    hasher,
		fsmgr:     fsmgr,
		logger:    logger,
		clock:     clock,
		cfg:       cfg,
		inflight:  make(map[string]struct{}),
	}
}

func (c *ArchivalCoordinator) acquire(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, busy := c.inflight[id]; busy {
		return false
	}
	c.inflight[id] = struct{}{}
	return true
}

func (c *ArchivalCoordinator) release(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inflight, id)
}

// Reserve claims the in-flight slot for id so no archival can start until
// release is called. ok is false when the slot is already held.
func (c *ArchivalCoordinator) Reserve(id string) (release func(), ok bool) {
	if !c.acquire(id) {
		return nil, false
	}
	return func() { c.release(id) }, true
}

// InProgress reports whether an archival of id is running.
func (c *ArchivalCoordinator) InProgress(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, busy := c.inflight[id]
	return busy
}

// payload is the byte stream to upload plus what we learned producing it.
type payload struct {
	body        []byte
	contentType string
	digest      string // digest of the source bytes, before packaging
	packaging   string
	sourceURL   string
}

// Archive uploads the resource's current content and records the returned
// address as a new archival location.
//
// Nothing is written unless the transport confirms the upload. Cancelling
// ctx before the transport is invoked leaves the resource untouched.
func (c *ArchivalCoordinator) Archive(ctx context.Context, id string, opts ArchiveOptions) (*model.ArchivalReceipt, error) {
	if !c.acquire(id) {
		return nil, &ConcurrentArchivalError{ResourceID: id}
	}
	defer c.release(id)

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("archiving resource %s: %w", id, err)
	}

	res, err := c.db.GetResource(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading resource: %w", err)
	}

	c.logger.Info("archive started", "resource", id, "class", res.Class, "transport", c.transport.Name())

	p, err := c.load(ctx, res)
	if err != nil {
		c.logger.Error("archive source unavailable", "resource", id, "error", err)
		return nil, err
	}

	// The bytes being uploaded win over a stored hash that has gone stale.
	contentHash := p.digest
	if contentHash == "" {
		contentHash = res.ContentHash
	}
	if res.ContentHash != "" && contentHash != res.ContentHash {
		c.logger.Info("content changed since last hash", "resource", id, "stored", res.ContentHash, "current", contentHash)
	}
	dup, err := c.duplicates(ctx, id, contentHash)
	if err != nil {
		return nil, err
	}
	if dup != nil {
		c.logger.Warn("possible duplicate", "resource", id, "hash", contentHash, "others", dup.ResourceIDs)
	}

	now := c.clock.Now()
	tags := c.buildTags(res, p, contentHash, opts.Tags, now)

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("archiving resource %s: %w", id, err)
	}

	result, err := c.transport.Upload(ctx, bytes.NewReader(p.body), int64(len(p.body)), tags)
	if err == nil && (result == nil || result.Address == "") {
		err = errors.New("transport returned no address")
	}
	if err != nil {
		c.logger.Error("archive upload failed", "resource", id, "transport", c.transport.Name(), "error", err)
		return nil, &ArchivalTransportError{ResourceID: id, Transport: c.transport.Name(), Err: err}
	}

	size := result.Size
	if size == 0 {
		size = int64(len(p.body))
	}
	cost := result.Cost
	if cost == 0 {
		cost = EstimateBySize(size, c.cfg.CostPerKiB)
	}

	// The upload is permanent; record it even if the caller gives up now.
	loc, err := c.db.RecordArchival(context.WithoutCancel(ctx), id, model.Location{
		Type:       model.LocationArchival,
		Value:      result.Address,
		IsPrimary:  opts.Primary,
		Accessible: true,
		Size:       size,
		Cost:       cost,
	}, p.digest)
	if err != nil {
		c.logger.Error("recording archival failed", "resource", id, "address", result.Address, "error", err)
		return nil, fmt.Errorf("recording archival %s for resource %s: %w", result.Address, id, err)
	}

	updated, err := c.db.GetResource(context.WithoutCancel(ctx), id)
	if err != nil {
		return nil, fmt.Errorf("reloading resource: %w", err)
	}

	c.logger.Info("archive complete", "resource", id, "address", result.Address, "size", size, "class", updated.Class)

	return &model.ArchivalReceipt{
		ResourceID:  id,
		LocationID:  loc.ID,
		Address:     result.Address,
		Link:        c.transport.Link(result.Address),
		ContentHash: updated.ContentHash,
		Size:        size,
		Cost:        cost,
		Tags:        tags,
		ArchivedAt:  now,
		Class:       updated.Class,
		Duplicate:   dup,
	}, nil
}

// duplicates finds other resources sharing contentHash.
func (c *ArchivalCoordinator) duplicates(ctx context.Context, id, contentHash string) (*model.PossibleDuplicate, error) {
	if contentHash == "" {
		return nil, nil
	}
	ids, err := c.db.FindByContentHash(ctx, contentHash)
	if err != nil {
		return nil, fmt.Errorf("checking duplicates: %w", err)
	}
	var others []string
	for _, other := range ids {
		if other != id {
			others = append(others, other)
		}
	}
	if len(others) == 0 {
		return nil, nil
	}
	return &model.PossibleDuplicate{ContentHash: contentHash, ResourceIDs: others}, nil
}

func (c *ArchivalCoordinator) buildTags(res *model.Resource, p *payload, contentHash string, extra map[string]string, now time.Time) map[string]string {
	tags := make(map[string]string, len(c.cfg.DefaultTags)+len(extra)+9)
	for k, v := range c.cfg.DefaultTags {
		tags[k] = v
	}
	for k, v := range extra {
		tags[k] = v
	}
	tags[TagAppName] = c.cfg.AppName
	tags[TagContentType] = p.contentType
	tags[TagPackaging] = p.packaging
	tags[TagType] = string(res.Class)
	if contentHash != "" {
		tags[TagContentHash] = contentHash
	}
	if p.sourceURL != "" {
		tags[TagSourceURL] = p.sourceURL
	}
	tags[TagResourceID] = res.ID
	tags[TagTitle] = res.Title
	tags[TagArchivedAt] = now.UTC().Format(time.RFC3339)
	return tags
}

// load produces the bytes to upload: local content for resources with a file
// location, fetched (and usually packaged) content for the rest.
func (c *ArchivalCoordinator) load(ctx context.Context, res *model.Resource) (*payload, error) {
	if loc := pickLocation(res, model.LocationFilePath); loc != nil {
		return c.loadLocal(res, loc)
	}
	if loc := pickLocation(res, model.LocationHTTPURL); loc != nil {
		return c.loadRemote(ctx, res, loc)
	}
	return nil, invalid("resource", "%s has no file or URL location to archive from", res.ID)
}

// pickLocation prefers the primary location of type t, then the first
// accessible one, then any.
func pickLocation(res *model.Resource, t model.LocationType) *model.Location {
	var first, accessible *model.Location
	for i := range res.Locations {
		l := &res.Locations[i]
		if l.Type != t {
			continue
		}
		if l.IsPrimary {
			return l
		}
		if first == nil {
			first = l
		}
		if accessible == nil && l.Accessible {
			accessible = l
		}
	}
	if accessible != nil {
		return accessible
	}
	return first
}

func (c *ArchivalCoordinator) loadLocal(res *model.Resource, loc *model.Location) (*payload, error) {
	if c.fsmgr == nil {
		return nil, fmt.Errorf("no filesystem configured for local resource %s", res.ID)
	}
	path, err := c.fsmgr.Resolve(loc.Value)
	if err != nil {
		return nil, invalid("path", "resource %s: %v", res.ID, err)
	}
	if path.IsDir() {
		return nil, invalid("path", "resource %s: %s is a directory", res.ID, path)
	}
	f, err := c.fsmgr.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	body, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	ct := mime.TypeByExtension(filepath.Ext(path.String()))
	if ct == "" {
		ct = http.DetectContentType(body)
	}
	return &payload{
		body:        body,
		contentType: ct,
		digest:      c.hasher.Sum(body),
		packaging:   packagingLocal,
	}, nil
}

func (c *ArchivalCoordinator) loadRemote(ctx context.Context, res *model.Resource, loc *model.Location) (*payload, error) {
	if c.fetcher == nil {
		return nil, fmt.Errorf("no fetcher configured for external resource %s", res.ID)
	}
	doc, err := c.fetcher.Fetch(ctx, loc.Value)
	if err != nil {
		return nil, &ArchivalTransportError{ResourceID: res.ID, Transport: "fetch", Err: err}
	}

	p := &payload{
		body:        doc.Body,
		contentType: doc.ContentType,
		digest:      c.hasher.Sum(doc.Body),
		packaging:   packagingRaw,
		sourceURL:   loc.Value,
	}
	if !c.cfg.PackageExternal || c.packager == nil {
		return p, nil
	}

	pkg, err := c.packager.Package(ctx, doc)
	if err != nil {
		return nil, &ArchivalTransportError{ResourceID: res.ID, Transport: "fetch", Err: fmt.Errorf("packaging: %w", err)}
	}
	c.logger.Debug("packaged page", "resource", res.ID, "inlined", pkg.Inlined, "size", len(pkg.Body))
	p.body = pkg.Body
	p.contentType = pkg.ContentType
	p.packaging = packagingPackaged
	return p, nil
}

// History lists the archival copies of a resource, newest first.
func (c *ArchivalCoordinator) History(ctx context.Context, id string) ([]model.ArchivalCopy, error) {
	res, err := c.db.GetResource(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading resource: %w", err)
	}
	var copies []model.ArchivalCopy
	for _, l := range res.LocationsOfType(model.LocationArchival) {
		copies = append(copies, model.ArchivalCopy{
			LocationID: l.ID,
			Address:    l.Value,
			Link:       c.transport.Link(l.Value),
			Size:       l.Size,
			Cost:       l.Cost,
			ArchivedAt: l.CreatedAt,
			IsPrimary:  l.IsPrimary,
		})
	}
	sort.SliceStable(copies, func(i, j int) bool {
		return copies[i].ArchivedAt.After(copies[j].ArchivedAt)
	})
	return copies, nil
}
