package jasper

import (
	"context"
	"time"

	"jasper-go/internal/model"
)

// CreateOptions controls resource creation.
type CreateOptions struct {
	// AllowDuplicate permits creating a resource whose content hash is
	// already held by another resource.
	AllowDuplicate bool
}

// Database is the resource store. Every mutating method runs in a single
// transaction: on error nothing is written.
type Database interface {
	// Resource operations

	// CreateResource inserts res with initial as its primary location, together
	// with res.Tags and res.Properties. res.ID is assigned when empty.
	// Fails with DuplicateContentError when res.ContentHash is already held
	// and opts.AllowDuplicate is false.
	CreateResource(ctx context.Context, res *model.Resource, initial model.Location, opts CreateOptions) (*model.Resource, error)

	// GetResource returns the resource with its locations, tags and properties.
	GetResource(ctx context.Context, id string) (*model.Resource, error)

	// UpdateResource applies update and bumps ModifiedAt.
	UpdateResource(ctx context.Context, id string, update model.ResourceUpdate) (*model.Resource, error)

	// DeleteResource removes the resource and everything it owns, decrementing
	// tag and property-key usage.
	DeleteResource(ctx context.Context, id string) error

	// MarkAccessed sets LastAccessedAt without touching ModifiedAt.
	MarkAccessed(ctx context.Context, id string, at time.Time) error

	// FindByContentHash returns the ids of resources holding the digest.
	FindByContentHash(ctx context.Context, contentHash string) ([]string, error)

	// ImportResource inserts a fully-populated resource, keeping its id and
	// timestamps. Returns false without writing if the id already exists.
	ImportResource(ctx context.Context, res *model.Resource) (bool, error)

	// Location operations

	// AddLocation attaches loc to the resource. If loc.IsPrimary is set the
	// previous primary is cleared in the same transaction.
	AddLocation(ctx context.Context, resourceID string, loc model.Location) (*model.Location, error)

	// RemoveLocation detaches a location. Fails with LastLocationError when it
	// is the only one. Removing the primary promotes the oldest remaining location.
	RemoveLocation(ctx context.Context, resourceID, locationID string) error

	// SetPrimaryLocation makes locationID the resource's only primary location.
	SetPrimaryLocation(ctx context.Context, resourceID, locationID string) error

	// RecordArchival attaches an archival location and, when the resource has no
	// content hash yet, records contentHash. Bumps ModifiedAt.
	RecordArchival(ctx context.Context, resourceID string, loc model.Location, contentHash string) (*model.Location, error)

	// FindLocations returns all locations of type t whose value equals value.
	FindLocations(ctx context.Context, t model.LocationType, value string) ([]model.Location, error)

	// ListLocations returns every location of type t.
	ListLocations(ctx context.Context, t model.LocationType) ([]model.Location, error)

	// SetLocationStatus records a reachability check result and recomputes the
	// owning resource's Accessible and VerificationStatus.
	SetLocationStatus(ctx context.Context, locationID string, accessible bool, at time.Time) error

	// Query operations

	// Search applies the tag filter, then the text filter, then ordering and pagination.
	Search(ctx context.Context, q model.Query) (*model.Page, error)

	// CountByTag returns the number of resources carrying the tag.
	CountByTag(ctx context.Context, tag string) (int, error)

	// Tag operations

	// AddTag attaches tag to the resource and bumps its usage count.
	// Returns false if the resource already carried it.
	AddTag(ctx context.Context, resourceID, tag string) (bool, error)

	// RemoveTag detaches tag and decrements its usage count.
	// Returns false if the resource did not carry it.
	RemoveTag(ctx context.Context, resourceID, tag string) (bool, error)

	// SuggestTags ranks tags starting with prefix by usage count, then last
	// use, then name, skipping the excluded names.
	SuggestTags(ctx context.Context, prefix string, excluding []string, limit int) ([]string, error)

	// ListTags returns every tag in suggestion order.
	ListTags(ctx context.Context) ([]model.Tag, error)

	// PruneTags deletes tags whose usage count is zero.
	PruneTags(ctx context.Context) (int, error)

	// Property operations

	// SetProperty creates or replaces the property value for key.
	SetProperty(ctx context.Context, resourceID, key string, value model.PropertyValue) error

	// RemoveProperty deletes the property. Returns false if it was absent.
	RemoveProperty(ctx context.Context, resourceID, key string) (bool, error)

	// SuggestPropertyKeys ranks property keys like SuggestTags.
	SuggestPropertyKeys(ctx context.Context, prefix string, excluding []string, limit int) ([]string, error)

	// SuggestPropertyValues ranks the values used with key.
	SuggestPropertyValues(ctx context.Context, key, prefix string, limit int) ([]model.PropertyValue, error)

	// Maintenance

	// BackupTo writes a consistent copy of the database file to path.
	BackupTo(path string) error

	// CheckMigrations reports whether the schema is at the latest version.
	CheckMigrations() error

	// Close closes the database connection.
	Close() error
}
