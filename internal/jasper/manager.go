package jasper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"jasper-go/internal/frontmatter"
	"jasper-go/internal/model"
)

const (
	DefaultSearchLimit = 50
	MaxSearchLimit     = 500
)

// Metadata is caller-supplied descriptive data for a new resource.
type Metadata struct {
	Title          string
	Description    string
	Tags           []string
	Properties     map[string]model.PropertyValue
	AllowDuplicate bool
}

// LifecycleManager is the entry point for every resource operation. It
// validates input, delegates to the store, the tag index and the archival
// coordinator, and returns errors from the package taxonomy.
type LifecycleManager struct {
	db        Database
	tags      *TagIndex
	archiver  *ArchivalCoordinator
	hasher    Hasher
	fsmgr     FilesystemManager
	prober    Prober
	encryptor Encryptor
	logger    Logger
	clock     Clock
}

// NewLifecycleManager wires a manager. prober and encryptor may be nil when
// remote verification or encrypted exports are not needed.
func NewLifecycleManager(db Database, archiver *ArchivalCoordinator, hasher Hasher, fsmgr FilesystemManager, prober Prober, encryptor Encryptor, logger Logger, clock Clock) *LifecycleManager {
	if logger == nil {
		logger = NewNopLogger()
	}
	if clock == nil {
		clock = RealClock{}
	}
	return &LifecycleManager{
		db:        db,
		tags:      NewTagIndex(db),
		archiver:  archiver,
		hasher:    hasher,
		fsmgr:     fsmgr,
		prober:    prober,
		encryptor: encryptor,
		logger:    logger,
		clock:     clock,
	}
}

// TagIndex exposes the suggestion index.
func (m *LifecycleManager) TagIndex() *TagIndex { return m.tags }

// ValidateURL accepts absolute http and https URLs with a host.
func ValidateURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if err := validation.Validate(raw, validation.Required, is.URL); err != nil {
		return nil, invalid("url", "%q: %v", raw, err)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, invalid("url", "%q: %v", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, invalid("url", "%q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return nil, invalid("url", "%q: missing host", raw)
	}
	return u, nil
}

// AddExternal registers a URL with no local copy.
func (m *LifecycleManager) AddExternal(ctx context.Context, rawURL string, meta Metadata) (*model.Resource, error) {
	u, err := ValidateURL(rawURL)
	if err != nil {
		return nil, err
	}
	res, err := m.newResource(meta, u.String())
	if err != nil {
		return nil, err
	}

	created, err := m.db.CreateResource(ctx, res, model.Location{
		Type:       model.LocationHTTPURL,
		Value:      u.String(),
		IsPrimary:  true,
		Accessible: true,
	}, CreateOptions{AllowDuplicate: meta.AllowDuplicate})
	if err != nil {
		return nil, fmt.Errorf("adding %s: %w", u, err)
	}
	m.logger.Info("resource added", "id", created.ID, "class", created.Class, "url", u.String())
	return created, nil
}

// AddInternal registers a local file. The file is hashed for deduplication;
// markdown frontmatter fills in metadata the caller left empty.
func (m *LifecycleManager) AddInternal(ctx context.Context, rawPath string, meta Metadata) (*model.Resource, error) {
	if strings.TrimSpace(rawPath) == "" {
		return nil, invalid("path", "must not be empty")
	}
	path, err := m.fsmgr.Resolve(rawPath)
	if err != nil {
		return nil, invalid("path", "%v", err)
	}
	if path.IsDir() {
		return nil, invalid("path", "%s is a directory", path)
	}

	f, err := m.fsmgr.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	data, err := io.ReadAll(f)
	f.Close()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if isMarkdown(path.String()) {
		fm, err := frontmatter.Parse(data)
		if err != nil {
			m.logger.Warn("ignoring malformed frontmatter", "path", path.String(), "error", err)
		} else {
			meta = mergeFrontmatter(meta, fm)
		}
	}

	res, err := m.newResource(meta, filepath.Base(path.String()))
	if err != nil {
		return nil, err
	}
	digest, _, err := m.hasher.SumReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("hashing %s: %w", path, err)
	}
	res.ContentHash = digest

	created, err := m.db.CreateResource(ctx, res, model.Location{
		Type:       model.LocationFilePath,
		Value:      path.String(),
		IsPrimary:  true,
		Accessible: true,
	}, CreateOptions{AllowDuplicate: meta.AllowDuplicate})
	if err != nil {
		return nil, fmt.Errorf("adding %s: %w", path, err)
	}
	m.logger.Info("resource added", "id", created.ID, "class", created.Class, "path", path.String(), "hash", digest)
	return created, nil
}

func isMarkdown(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return true
	}
	return false
}

// mergeFrontmatter fills empty fields of meta from fm.
func mergeFrontmatter(meta Metadata, fm *frontmatter.Metadata) Metadata {
	if fm == nil {
		return meta
	}
	if meta.Title == "" {
		meta.Title = fm.Title
	}
	if meta.Description == "" {
		meta.Description = fm.Description
	}
	meta.Tags = append(append([]string{}, fm.Tags...), meta.Tags...)
	if len(fm.Properties) > 0 {
		props := make(map[string]model.PropertyValue, len(fm.Properties)+len(meta.Properties))
		for k, v := range fm.Properties {
			props[k] = model.InferPropertyValue(v)
		}
		for k, v := range meta.Properties {
			props[k] = v
		}
		meta.Properties = props
	}
	return meta
}

// newResource validates metadata into an unsaved resource.
func (m *LifecycleManager) newResource(meta Metadata, fallbackTitle string) (*model.Resource, error) {
	title := strings.TrimSpace(meta.Title)
	if title == "" {
		title = fallbackTitle
	}
	res := &model.Resource{
		Title:       title,
		Description: strings.TrimSpace(meta.Description),
	}

	seen := make(map[string]bool)
	for _, raw := range meta.Tags {
		tag, err := NormalizeTag(raw)
		if err != nil {
			return nil, err
		}
		if !seen[tag] {
			seen[tag] = true
			res.Tags = append(res.Tags, tag)
		}
	}

	for rawKey, v := range meta.Properties {
		key, err := NormalizePropertyKey(rawKey)
		if err != nil {
			return nil, err
		}
		res.Properties = append(res.Properties, model.Property{Key: key, Value: v})
	}
	return res, nil
}

// Get returns a resource by id.
func (m *LifecycleManager) Get(ctx context.Context, id string) (*model.Resource, error) {
	return m.db.GetResource(ctx, id)
}

// Update edits title and description. An empty title is rejected.
func (m *LifecycleManager) Update(ctx context.Context, id string, update model.ResourceUpdate) (*model.Resource, error) {
	if update.Title != nil {
		t := strings.TrimSpace(*update.Title)
		if t == "" {
			return nil, invalid("title", "must not be empty")
		}
		update.Title = &t
	}
	if update.Empty() {
		return m.db.GetResource(ctx, id)
	}
	res, err := m.db.UpdateResource(ctx, id, update)
	if err != nil {
		return nil, fmt.Errorf("updating %s: %w", id, err)
	}
	return res, nil
}

// RecordAccess stamps the resource's last access time.
func (m *LifecycleManager) RecordAccess(ctx context.Context, id string) error {
	if err := m.db.MarkAccessed(ctx, id, m.clock.Now()); err != nil {
		return fmt.Errorf("recording access to %s: %w", id, err)
	}
	return nil
}

// Tag attaches a tag. Tagging twice is a no-op.
func (m *LifecycleManager) Tag(ctx context.Context, id, tagName string) error {
	tag, err := NormalizeTag(tagName)
	if err != nil {
		return err
	}
	added, err := m.db.AddTag(ctx, id, tag)
	if err != nil {
		return fmt.Errorf("tagging %s: %w", id, err)
	}
	if added {
		m.logger.Debug("tag added", "id", id, "tag", tag)
	}
	return nil
}

// Untag detaches a tag. Removing an absent tag is a no-op.
func (m *LifecycleManager) Untag(ctx context.Context, id, tagName string) error {
	tag, err := NormalizeTag(tagName)
	if err != nil {
		return err
	}
	removed, err := m.db.RemoveTag(ctx, id, tag)
	if err != nil {
		return fmt.Errorf("untagging %s: %w", id, err)
	}
	if removed {
		m.logger.Debug("tag removed", "id", id, "tag", tag)
	}
	return nil
}

// SetProperty sets a typed property value, replacing any previous value for key.
func (m *LifecycleManager) SetProperty(ctx context.Context, id, key string, value model.PropertyValue) error {
	k, err := NormalizePropertyKey(key)
	if err != nil {
		return err
	}
	if err := m.db.SetProperty(ctx, id, k, value); err != nil {
		return fmt.Errorf("setting %s on %s: %w", k, id, err)
	}
	return nil
}

// RemoveProperty deletes a property. Removing an absent property is a no-op.
func (m *LifecycleManager) RemoveProperty(ctx context.Context, id, key string) error {
	k, err := NormalizePropertyKey(key)
	if err != nil {
		return err
	}
	if _, err := m.db.RemoveProperty(ctx, id, k); err != nil {
		return fmt.Errorf("removing %s from %s: %w", k, id, err)
	}
	return nil
}

// AddLocation attaches another place the resource can be retrieved from.
func (m *LifecycleManager) AddLocation(ctx context.Context, id string, t model.LocationType, value string, primary bool) (*model.Location, error) {
	value = strings.TrimSpace(value)
	switch t {
	case model.LocationHTTPURL:
		u, err := ValidateURL(value)
		if err != nil {
			return nil, err
		}
		value = u.String()
	case model.LocationFilePath:
		p, err := m.fsmgr.Resolve(value)
		if err != nil {
			return nil, invalid("path", "%v", err)
		}
		value = p.String()
	case model.LocationArchival:
		if value == "" {
			return nil, invalid("address", "must not be empty")
		}
	default:
		return nil, invalid("type", "unknown location type %q", t)
	}

	loc, err := m.db.AddLocation(ctx, id, model.Location{Type: t, Value: value, IsPrimary: primary, Accessible: true})
	if err != nil {
		return nil, fmt.Errorf("adding location to %s: %w", id, err)
	}
	return loc, nil
}

// RemoveLocation detaches a location; the last one cannot be removed.
func (m *LifecycleManager) RemoveLocation(ctx context.Context, id, locationID string) error {
	if err := m.db.RemoveLocation(ctx, id, locationID); err != nil {
		return fmt.Errorf("removing location from %s: %w", id, err)
	}
	return nil
}

// SetPrimaryLocation promotes a location to primary.
func (m *LifecycleManager) SetPrimaryLocation(ctx context.Context, id, locationID string) error {
	if err := m.db.SetPrimaryLocation(ctx, id, locationID); err != nil {
		return fmt.Errorf("setting primary location of %s: %w", id, err)
	}
	return nil
}

// Archive uploads the resource to the archival network.
func (m *LifecycleManager) Archive(ctx context.Context, id string, opts ArchiveOptions) (*model.ArchivalReceipt, error) {
	if m.archiver == nil {
		return nil, fmt.Errorf("no archival transport configured")
	}
	return m.archiver.Archive(ctx, id, opts)
}

// ArchivalHistory lists the resource's archival copies, newest first.
func (m *LifecycleManager) ArchivalHistory(ctx context.Context, id string) ([]model.ArchivalCopy, error) {
	if m.archiver == nil {
		return nil, fmt.Errorf("no archival transport configured")
	}
	return m.archiver.History(ctx, id)
}

// EstimateArchival prices archiving the given resources.
func (m *LifecycleManager) EstimateArchival(ctx context.Context, ids []string) (*CostEstimate, error) {
	if m.archiver == nil {
		return nil, fmt.Errorf("no archival transport configured")
	}
	return m.archiver.Estimate(ctx, ids)
}

// Search normalizes the query and applies the default page size.
func (m *LifecycleManager) Search(ctx context.Context, q model.Query) (*model.Page, error) {
	q, err := m.normalizeQuery(q)
	if err != nil {
		return nil, err
	}
	switch {
	case q.Limit <= 0:
		q.Limit = DefaultSearchLimit
	case q.Limit > MaxSearchLimit:
		q.Limit = MaxSearchLimit
	}
	page, err := m.db.Search(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("searching: %w", err)
	}
	return page, nil
}

func (m *LifecycleManager) normalizeQuery(q model.Query) (model.Query, error) {
	if err := q.Validate(); err != nil {
		return q, invalid("query", "%v", err)
	}
	q.Text = strings.TrimSpace(q.Text)
	tags := make([]string, 0, len(q.Tags))
	for _, raw := range q.Tags {
		tag, err := NormalizeTag(raw)
		if err != nil {
			return q, err
		}
		tags = append(tags, tag)
	}
	q.Tags = tags
	if q.Logic == "" {
		q.Logic = model.TagLogicAny
	}
	return q, nil
}

// CountByTag returns how many resources carry the tag.
func (m *LifecycleManager) CountByTag(ctx context.Context, tagName string) (int, error) {
	tag, err := NormalizeTag(tagName)
	if err != nil {
		return 0, err
	}
	return m.db.CountByTag(ctx, tag)
}

// Delete removes a resource and everything attached to it. Archived copies
// on the archival network are permanent and are not affected.
func (m *LifecycleManager) Delete(ctx context.Context, id string) error {
	if m.archiver != nil {
		release, ok := m.archiver.Reserve(id)
		if !ok {
			return &ConcurrentArchivalError{ResourceID: id}
		}
		defer release()
	}
	if err := m.db.DeleteResource(ctx, id); err != nil {
		return fmt.Errorf("deleting %s: %w", id, err)
	}
	m.logger.Info("resource deleted", "id", id)
	return nil
}

// SuggestTags proposes tags for the resource being edited (resourceID may be empty).
func (m *LifecycleManager) SuggestTags(ctx context.Context, resourceID, prefix string, limit int) ([]string, error) {
	if resourceID == "" {
		return m.tags.Suggest(ctx, prefix, nil, limit)
	}
	return m.tags.SuggestFor(ctx, resourceID, prefix, limit)
}

// SuggestPropertyKeys proposes property keys, skipping those the resource already has.
func (m *LifecycleManager) SuggestPropertyKeys(ctx context.Context, resourceID, prefix string, limit int) ([]string, error) {
	var excluding []string
	if resourceID != "" {
		res, err := m.db.GetResource(ctx, resourceID)
		if err != nil {
			return nil, err
		}
		for _, p := range res.Properties {
			excluding = append(excluding, p.Key)
		}
	}
	return m.tags.SuggestKeys(ctx, prefix, excluding, limit)
}

// SuggestPropertyValues proposes values previously used with key.
func (m *LifecycleManager) SuggestPropertyValues(ctx context.Context, key, prefix string, limit int) ([]model.PropertyValue, error) {
	return m.tags.SuggestValues(ctx, key, prefix, limit)
}

// DirectoryResult reports a bulk add.
type DirectoryResult struct {
	Added   []*model.Resource
	Skipped map[string]error // path to the reason it was not added
}

// AddDirectory adds every file under dir as an internal resource sharing
// meta. Files whose content is already stored are skipped, not failed.
func (m *LifecycleManager) AddDirectory(ctx context.Context, dir string, meta Metadata, recursive bool) (*DirectoryResult, error) {
	lister, ok := m.fsmgr.(DirectoryLister)
	if !ok {
		return nil, fmt.Errorf("filesystem does not support listing directories")
	}
	root, err := m.fsmgr.Resolve(dir)
	if err != nil {
		return nil, invalid("path", "%v", err)
	}
	if !root.IsDir() {
		return nil, invalid("path", "%s is not a directory", root)
	}
	files, err := lister.FindFiles(root, recursive)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", root, err)
	}

	result := &DirectoryResult{Skipped: make(map[string]error)}
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		fileMeta := meta
		fileMeta.Title = ""
		res, err := m.AddInternal(ctx, f.String(), fileMeta)
		switch {
		case err == nil:
			result.Added = append(result.Added, res)
		case errors.Is(err, ErrDuplicateContent), errors.Is(err, ErrInvalidInput):
			result.Skipped[f.String()] = err
		default:
			return result, err
		}
	}
	return result, nil
}
