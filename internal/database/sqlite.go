package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"jasper-go/internal/database/migrations"
	"jasper-go/internal/database/sqlc"
	"jasper-go/internal/jasper"
	"jasper-go/internal/model"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteDatabase implements jasper.Database on SQLite. Static queries go
// through the sqlc-generated layer; queries with variable IN lists go
// through sqlx.
type SQLiteDatabase struct {
	db      *sql.DB
	dbx     *sqlx.DB
	queries *sqlc.Queries
	path    string
	clock   jasper.Clock
	ids     jasper.IDGenerator
}

// NewSQLiteDatabase opens the database at path (or ":memory:") without
// migrating it. clock and ids default to the real implementations when nil.
func NewSQLiteDatabase(path string, clock jasper.Clock, ids jasper.IDGenerator) (*SQLiteDatabase, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	s := NewSQLiteDatabaseFromDB(db, clock, ids)
	s.path = path
	return s, nil
}

// NewSQLiteDatabaseFromDB wraps an already configured connection.
func NewSQLiteDatabaseFromDB(db *sql.DB, clock jasper.Clock, ids jasper.IDGenerator) *SQLiteDatabase {
	if clock == nil {
		clock = jasper.RealClock{}
	}
	if ids == nil {
		ids = jasper.UUIDGenerator{}
	}
	return &SQLiteDatabase{
		db:      db,
		dbx:     newSqlx(db),
		queries: sqlc.New(db),
		clock:   clock,
		ids:     ids,
	}
}

// OpenConnection opens SQLite with foreign keys enforced. File databases use
// WAL and a busy timeout; in-memory databases are pinned to one connection
// because each connection would otherwise see its own empty database.
func OpenConnection(path string) (*sql.DB, error) {
	dsn := "file:" + path + "?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL"
	memory := path == ":memory:"
	if memory {
		dsn = ":memory:?_foreign_keys=on"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if memory {
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// Migrate applies pending schema migrations.
func (s *SQLiteDatabase) Migrate() error {
	return migrations.MigrateUp(s.db)
}

// Path returns the database file path, or "" for wrapped connections.
func (s *SQLiteDatabase) Path() string { return s.path }

func (s *SQLiteDatabase) now() time.Time { return s.clock.Now().UTC() }

// withTx runs fn in a transaction, committing only if fn succeeds.
func (s *SQLiteDatabase) withTx(ctx context.Context, fn func(q *sqlc.Queries) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(s.queries.WithTx(tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func resourceNotFound(id string) error {
	return &jasper.NotFoundError{Kind: "resource", ID: id}
}

// requireResource returns the resource row or NotFoundError.
func requireResource(ctx context.Context, q *sqlc.Queries, id string) (sqlc.Resource, error) {
	r, err := q.GetResourceByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return r, resourceNotFound(id)
	}
	if err != nil {
		return r, fmt.Errorf("finding resource %s: %w", id, err)
	}
	return r, nil
}

// requireLocation returns the location if it belongs to resourceID.
func requireLocation(ctx context.Context, q *sqlc.Queries, resourceID, locationID string) (sqlc.Location, error) {
	loc, err := q.GetLocationByID(ctx, locationID)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && loc.ResourceID != resourceID) {
		return loc, &jasper.NotFoundError{Kind: "location", ID: locationID}
	}
	if err != nil {
		return loc, fmt.Errorf("finding location %s: %w", locationID, err)
	}
	return loc, nil
}

// loadResource assembles the full resource using q, which may be bound to a transaction.
func loadResource(ctx context.Context, q *sqlc.Queries, id string) (*model.Resource, error) {
	r, err := requireResource(ctx, q, id)
	if err != nil {
		return nil, err
	}
	locs, err := q.GetLocationsByResourceID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading locations: %w", err)
	}
	tags, err := q.GetTagsByResourceID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading tags: %w", err)
	}
	props, err := q.GetPropertiesByResourceID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading properties: %w", err)
	}

	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = t.Name
	}
	return toResource(r, locs, names, props), nil
}

// Resource operations

func (s *SQLiteDatabase) CreateResource(ctx context.Context, res *model.Resource, initial model.Location, opts jasper.CreateOptions) (*model.Resource, error) {
	if strings.TrimSpace(res.Title) == "" {
		return nil, &jasper.InvalidInputError{Field: "title", Reason: "must not be empty"}
	}
	if !initial.Type.Valid() {
		return nil, &jasper.InvalidInputError{Field: "location", Reason: fmt.Sprintf("unknown type %q", initial.Type)}
	}

	id := res.ID
	if id == "" {
		id = s.ids.New()
	}
	now := s.now()

	err := s.withTx(ctx, func(q *sqlc.Queries) error {
		if res.ContentHash != "" && !opts.AllowDuplicate {
			existing, err := q.GetResourceIDsByContentHash(ctx, nullString(res.ContentHash))
			if err != nil {
				return fmt.Errorf("checking content hash: %w", err)
			}
			if len(existing) > 0 {
				return &jasper.DuplicateContentError{ContentHash: res.ContentHash, ExistingID: existing[0]}
			}
		}

		_, err := q.InsertResource(ctx, sqlc.InsertResourceParams{
			ID:                 id,
			ContentHash:        nullString(res.ContentHash),
			Title:              res.Title,
			Description:        res.Description,
			CreatedAt:          now,
			ModifiedAt:         now,
			Accessible:         true,
			VerificationStatus: string(model.VerificationUnverified),
		})
		if err != nil {
			return fmt.Errorf("inserting resource: %w", err)
		}

		initial.IsPrimary = true
		if _, err := s.insertLocation(ctx, q, id, initial, now); err != nil {
			return err
		}
		for _, tag := range res.Tags {
			if _, err := attachTag(ctx, q, id, tag, now); err != nil {
				return err
			}
		}
		for _, p := range res.Properties {
			if err := putProperty(ctx, q, id, p.Key, p.Value, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetResource(ctx, id)
}

func (s *SQLiteDatabase) GetResource(ctx context.Context, id string) (*model.Resource, error) {
	return loadResource(ctx, s.queries, id)
}

func (s *SQLiteDatabase) UpdateResource(ctx context.Context, id string, update model.ResourceUpdate) (*model.Resource, error) {
	err := s.withTx(ctx, func(q *sqlc.Queries) error {
		r, err := requireResource(ctx, q, id)
		if err != nil {
			return err
		}
		params := sqlc.UpdateResourceFieldsParams{
			Title:       r.Title,
			Description: r.Description,
			ContentHash: r.ContentHash,
			ModifiedAt:  s.now(),
			ID:          id,
		}
		if update.Title != nil {
			params.Title = *update.Title
		}
		if update.Description != nil {
			params.Description = *update.Description
		}
		if update.ContentHash != nil {
			params.ContentHash = nullString(*update.ContentHash)
		}
		if _, err := q.UpdateResourceFields(ctx, params); err != nil {
			return fmt.Errorf("updating resource: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.GetResource(ctx, id)
}

func (s *SQLiteDatabase) DeleteResource(ctx context.Context, id string) error {
	return s.withTx(ctx, func(q *sqlc.Queries) error {
		if _, err := requireResource(ctx, q, id); err != nil {
			return err
		}
		tags, err := q.GetTagsByResourceID(ctx, id)
		if err != nil {
			return fmt.Errorf("loading tags: %w", err)
		}
		for _, t := range tags {
			if err := q.DecrementTagUsage(ctx, t.ID); err != nil {
				return fmt.Errorf("decrementing tag %s: %w", t.Name, err)
			}
		}
		props, err := q.GetPropertiesByResourceID(ctx, id)
		if err != nil {
			return fmt.Errorf("loading properties: %w", err)
		}
		for _, p := range props {
			if err := q.DecrementPropertyKeyUsage(ctx, p.Key); err != nil {
				return fmt.Errorf("decrementing property key %s: %w", p.Key, err)
			}
		}
		if _, err := q.DeleteResourceByID(ctx, id); err != nil {
			return fmt.Errorf("deleting resource: %w", err)
		}
		return nil
	})
}

func (s *SQLiteDatabase) MarkAccessed(ctx context.Context, id string, at time.Time) error {
	n, err := s.queries.UpdateResourceLastAccessed(ctx, sqlc.UpdateResourceLastAccessedParams{
		LastAccessedAt: sql.NullTime{Time: at.UTC(), Valid: true},
		ID:             id,
	})
	if err != nil {
		return fmt.Errorf("marking resource accessed: %w", err)
	}
	if n == 0 {
		return resourceNotFound(id)
	}
	return nil
}

func (s *SQLiteDatabase) FindByContentHash(ctx context.Context, contentHash string) ([]string, error) {
	if contentHash == "" {
		return nil, nil
	}
	ids, err := s.queries.GetResourceIDsByContentHash(ctx, nullString(contentHash))
	if err != nil {
		return nil, fmt.Errorf("finding resources by content hash: %w", err)
	}
	return ids, nil
}

func (s *SQLiteDatabase) ImportResource(ctx context.Context, res *model.Resource) (bool, error) {
	if res.ID == "" {
		return false, &jasper.InvalidInputError{Field: "id", Reason: "must not be empty"}
	}
	if len(res.Locations) == 0 {
		return false, &jasper.InvalidInputError{Field: "locations", Reason: fmt.Sprintf("resource %s has none", res.ID)}
	}
	now := s.now()
	created := false

	err := s.withTx(ctx, func(q *sqlc.Queries) error {
		_, err := q.GetResourceByID(ctx, res.ID)
		if err == nil {
			return nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("checking resource %s: %w", res.ID, err)
		}

		createdAt, modifiedAt := res.CreatedAt, res.ModifiedAt
		if createdAt.IsZero() {
			createdAt = now
		}
		if modifiedAt.IsZero() {
			modifiedAt = createdAt
		}
		status := res.VerificationStatus
		if status == "" {
			status = model.VerificationUnverified
		}
		title := res.Title
		if strings.TrimSpace(title) == "" {
			title = res.Locations[0].Value
		}
		_, err = q.InsertResource(ctx, sqlc.InsertResourceParams{
			ID:                 res.ID,
			ContentHash:        nullString(res.ContentHash),
			Title:              title,
			Description:        res.Description,
			CreatedAt:          createdAt.UTC(),
			ModifiedAt:         modifiedAt.UTC(),
			LastAccessedAt:     nullTime(res.LastAccessedAt),
			Accessible:         res.Accessible,
			VerificationStatus: string(status),
		})
		if err != nil {
			return fmt.Errorf("inserting resource %s: %w", res.ID, err)
		}

		primary := 0
		for i, l := range res.Locations {
			if l.IsPrimary {
				primary = i
				break
			}
		}
		for i, l := range res.Locations {
			l.IsPrimary = i == primary
			at := l.CreatedAt
			if at.IsZero() {
				at = createdAt
			}
			if _, err := s.insertLocation(ctx, q, res.ID, l, at); err != nil {
				return err
			}
		}
		for _, tag := range res.Tags {
			if _, err := attachTag(ctx, q, res.ID, tag, now); err != nil {
				return err
			}
		}
		for _, p := range res.Properties {
			if err := putProperty(ctx, q, res.ID, p.Key, p.Value, now); err != nil {
				return err
			}
		}
		created = true
		return nil
	})
	return created, err
}

// Location operations

// insertLocation writes loc for resourceID. An empty loc.ID is generated.
func (s *SQLiteDatabase) insertLocation(ctx context.Context, q *sqlc.Queries, resourceID string, loc model.Location, at time.Time) (sqlc.Location, error) {
	if !loc.Type.Valid() {
		return sqlc.Location{}, &jasper.InvalidInputError{Field: "location", Reason: fmt.Sprintf("unknown type %q", loc.Type)}
	}
	if strings.TrimSpace(loc.Value) == "" {
		return sqlc.Location{}, &jasper.InvalidInputError{Field: "location", Reason: "value must not be empty"}
	}
	id := loc.ID
	if id == "" {
		id = s.ids.New()
	}
	row, err := q.InsertLocation(ctx, sqlc.InsertLocationParams{
		ID:           id,
		ResourceID:   resourceID,
		LocationType: string(loc.Type),
		Value:        loc.Value,
		IsPrimary:    loc.IsPrimary,
		Accessible:   loc.Accessible,
		LastVerified: nullTime(loc.LastVerified),
		SizeBytes:    sql.NullInt64{Int64: loc.Size, Valid: loc.Size > 0},
		Cost:         sql.NullFloat64{Float64: loc.Cost, Valid: loc.Cost > 0},
		CreatedAt:    at.UTC(),
	})
	if err != nil {
		return row, fmt.Errorf("inserting location: %w", err)
	}
	return row, nil
}

func (s *SQLiteDatabase) AddLocation(ctx context.Context, resourceID string, loc model.Location) (*model.Location, error) {
	var row sqlc.Location
	err := s.withTx(ctx, func(q *sqlc.Queries) error {
		if _, err := requireResource(ctx, q, resourceID); err != nil {
			return err
		}
		now := s.now()
		if loc.IsPrimary {
			if err := q.ClearPrimaryLocation(ctx, resourceID); err != nil {
				return fmt.Errorf("clearing primary location: %w", err)
			}
		}
		var err error
		if row, err = s.insertLocation(ctx, q, resourceID, loc, now); err != nil {
			return err
		}
		return q.TouchResource(ctx, sqlc.TouchResourceParams{ModifiedAt: now, ID: resourceID})
	})
	if err != nil {
		return nil, err
	}
	l := toLocation(row)
	return &l, nil
}

func (s *SQLiteDatabase) RemoveLocation(ctx context.Context, resourceID, locationID string) error {
	return s.withTx(ctx, func(q *sqlc.Queries) error {
		if _, err := requireResource(ctx, q, resourceID); err != nil {
			return err
		}
		loc, err := requireLocation(ctx, q, resourceID, locationID)
		if err != nil {
			return err
		}
		count, err := q.CountLocationsByResourceID(ctx, resourceID)
		if err != nil {
			return fmt.Errorf("counting locations: %w", err)
		}
		if count <= 1 {
			return &jasper.LastLocationError{ResourceID: resourceID, LocationID: locationID}
		}
		if err := q.DeleteLocationByID(ctx, locationID); err != nil {
			return fmt.Errorf("deleting location: %w", err)
		}
		if loc.IsPrimary {
			next, err := q.GetOldestLocationByResourceID(ctx, resourceID)
			if err != nil {
				return fmt.Errorf("finding replacement primary: %w", err)
			}
			if err := q.MarkLocationPrimary(ctx, next.ID); err != nil {
				return fmt.Errorf("promoting location %s: %w", next.ID, err)
			}
		}
		return q.TouchResource(ctx, sqlc.TouchResourceParams{ModifiedAt: s.now(), ID: resourceID})
	})
}

func (s *SQLiteDatabase) SetPrimaryLocation(ctx context.Context, resourceID, locationID string) error {
	return s.withTx(ctx, func(q *sqlc.Queries) error {
		if _, err := requireResource(ctx, q, resourceID); err != nil {
			return err
		}
		loc, err := requireLocation(ctx, q, resourceID, locationID)
		if err != nil {
			return err
		}
		if loc.IsPrimary {
			return nil
		}
		if err := q.ClearPrimaryLocation(ctx, resourceID); err != nil {
			return fmt.Errorf("clearing primary location: %w", err)
		}
		if err := q.MarkLocationPrimary(ctx, locationID); err != nil {
			return fmt.Errorf("marking primary location: %w", err)
		}
		return q.TouchResource(ctx, sqlc.TouchResourceParams{ModifiedAt: s.now(), ID: resourceID})
	})
}

func (s *SQLiteDatabase) RecordArchival(ctx context.Context, resourceID string, loc model.Location, contentHash string) (*model.Location, error) {
	loc.Type = model.LocationArchival
	var row sqlc.Location
	err := s.withTx(ctx, func(q *sqlc.Queries) error {
		if _, err := requireResource(ctx, q, resourceID); err != nil {
			return err
		}
		now := s.now()
		if loc.IsPrimary {
			if err := q.ClearPrimaryLocation(ctx, resourceID); err != nil {
				return fmt.Errorf("clearing primary location: %w", err)
			}
		}
		var err error
		if row, err = s.insertLocation(ctx, q, resourceID, loc, now); err != nil {
			return err
		}
		if contentHash != "" {
			err := q.SetResourceContentHashIfNull(ctx, sqlc.SetResourceContentHashIfNullParams{
				ContentHash: nullString(contentHash),
				ID:          resourceID,
			})
			if err != nil {
				return fmt.Errorf("recording content hash: %w", err)
			}
		}
		return q.TouchResource(ctx, sqlc.TouchResourceParams{ModifiedAt: now, ID: resourceID})
	})
	if err != nil {
		return nil, err
	}
	l := toLocation(row)
	return &l, nil
}

func (s *SQLiteDatabase) FindLocations(ctx context.Context, t model.LocationType, value string) ([]model.Location, error) {
	rows, err := s.queries.GetLocationsByTypeAndValue(ctx, sqlc.GetLocationsByTypeAndValueParams{
		LocationType: string(t),
		Value:        value,
	})
	if err != nil {
		return nil, fmt.Errorf("finding locations: %w", err)
	}
	return toLocations(rows), nil
}

func (s *SQLiteDatabase) ListLocations(ctx context.Context, t model.LocationType) ([]model.Location, error) {
	rows, err := s.queries.GetLocationsByType(ctx, string(t))
	if err != nil {
		return nil, fmt.Errorf("listing locations: %w", err)
	}
	return toLocations(rows), nil
}

func (s *SQLiteDatabase) SetLocationStatus(ctx context.Context, locationID string, accessible bool, at time.Time) error {
	return s.withTx(ctx, func(q *sqlc.Queries) error {
		loc, err := q.GetLocationByID(ctx, locationID)
		if errors.Is(err, sql.ErrNoRows) {
			return &jasper.NotFoundError{Kind: "location", ID: locationID}
		}
		if err != nil {
			return fmt.Errorf("finding location: %w", err)
		}
		err = q.UpdateLocationStatus(ctx, sqlc.UpdateLocationStatusParams{
			Accessible:   accessible,
			LastVerified: sql.NullTime{Time: at.UTC(), Valid: true},
			ID:           locationID,
		})
		if err != nil {
			return fmt.Errorf("updating location status: %w", err)
		}

		locs, err := q.GetLocationsByResourceID(ctx, loc.ResourceID)
		if err != nil {
			return fmt.Errorf("loading locations: %w", err)
		}
		reachable := false
		for _, l := range locs {
			reachable = reachable || l.Accessible
		}
		status := model.VerificationFailed
		if reachable {
			status = model.VerificationVerified
		}
		return q.UpdateResourceVerification(ctx, sqlc.UpdateResourceVerificationParams{
			Accessible:         reachable,
			VerificationStatus: string(status),
			ID:                 loc.ResourceID,
		})
	})
}

// Tag operations

// attachTag links tag to the resource and bumps its counter when the link is new.
func attachTag(ctx context.Context, q *sqlc.Queries, resourceID, name string, now time.Time) (bool, error) {
	tag, err := q.UpsertTag(ctx, name)
	if err != nil {
		return false, fmt.Errorf("upserting tag %s: %w", name, err)
	}
	n, err := q.InsertResourceTag(ctx, sqlc.InsertResourceTagParams{
		ResourceID: resourceID,
		TagID:      tag.ID,
		AddedAt:    now,
	})
	if err != nil {
		return false, fmt.Errorf("tagging resource: %w", err)
	}
	if n == 0 {
		return false, nil
	}
	err = q.IncrementTagUsage(ctx, sqlc.IncrementTagUsageParams{
		LastUsed: sql.NullTime{Time: now, Valid: true},
		ID:       tag.ID,
	})
	if err != nil {
		return false, fmt.Errorf("incrementing tag %s: %w", name, err)
	}
	return true, nil
}

func (s *SQLiteDatabase) AddTag(ctx context.Context, resourceID, tag string) (bool, error) {
	var added bool
	err := s.withTx(ctx, func(q *sqlc.Queries) error {
		if _, err := requireResource(ctx, q, resourceID); err != nil {
			return err
		}
		now := s.now()
		var err error
		if added, err = attachTag(ctx, q, resourceID, tag, now); err != nil || !added {
			return err
		}
		return q.TouchResource(ctx, sqlc.TouchResourceParams{ModifiedAt: now, ID: resourceID})
	})
	return added, err
}

func (s *SQLiteDatabase) RemoveTag(ctx context.Context, resourceID, name string) (bool, error) {
	var removed bool
	err := s.withTx(ctx, func(q *sqlc.Queries) error {
		if _, err := requireResource(ctx, q, resourceID); err != nil {
			return err
		}
		tag, err := q.GetTagByName(ctx, name)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("finding tag %s: %w", name, err)
		}
		n, err := q.DeleteResourceTag(ctx, sqlc.DeleteResourceTagParams{ResourceID: resourceID, TagID: tag.ID})
		if err != nil {
			return fmt.Errorf("untagging resource: %w", err)
		}
		if n == 0 {
			return nil
		}
		removed = true
		if err := q.DecrementTagUsage(ctx, tag.ID); err != nil {
			return fmt.Errorf("decrementing tag %s: %w", name, err)
		}
		return q.TouchResource(ctx, sqlc.TouchResourceParams{ModifiedAt: s.now(), ID: resourceID})
	})
	return removed, err
}

func (s *SQLiteDatabase) CountByTag(ctx context.Context, tag string) (int, error) {
	n, err := s.queries.CountResourcesByTagName(ctx, tag)
	if err != nil {
		return 0, fmt.Errorf("counting resources by tag: %w", err)
	}
	return int(n), nil
}

func (s *SQLiteDatabase) ListTags(ctx context.Context) ([]model.Tag, error) {
	rows, err := s.queries.ListTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing tags: %w", err)
	}
	tags := make([]model.Tag, len(rows))
	for i, r := range rows {
		tags[i] = model.Tag{Name: r.Name, UsageCount: r.UsageCount, LastUsed: timePtr(r.LastUsed)}
	}
	return tags, nil
}

func (s *SQLiteDatabase) PruneTags(ctx context.Context) (int, error) {
	n, err := s.queries.DeleteUnusedTags(ctx)
	if err != nil {
		return 0, fmt.Errorf("pruning tags: %w", err)
	}
	return int(n), nil
}

// Property operations

// putProperty upserts a property, counting the key once per resource.
func putProperty(ctx context.Context, q *sqlc.Queries, resourceID, key string, value model.PropertyValue, now time.Time) error {
	_, err := q.GetProperty(ctx, sqlc.GetPropertyParams{ResourceID: resourceID, Key: key})
	isNew := errors.Is(err, sql.ErrNoRows)
	if err != nil && !isNew {
		return fmt.Errorf("finding property %s: %w", key, err)
	}

	err = q.UpsertProperty(ctx, sqlc.UpsertPropertyParams{
		ResourceID: resourceID,
		Key:        key,
		Value:      value.String(),
		ValueType:  string(value.Type()),
		UpdatedAt:  now,
	})
	if err != nil {
		return fmt.Errorf("writing property %s: %w", key, err)
	}

	used := sql.NullTime{Time: now, Valid: true}
	if isNew {
		err = q.IncrementPropertyKeyUsage(ctx, sqlc.IncrementPropertyKeyUsageParams{Key: key, LastUsed: used})
	} else {
		err = q.TouchPropertyKey(ctx, sqlc.TouchPropertyKeyParams{LastUsed: used, Key: key})
	}
	if err != nil {
		return fmt.Errorf("updating property key %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteDatabase) SetProperty(ctx context.Context, resourceID, key string, value model.PropertyValue) error {
	return s.withTx(ctx, func(q *sqlc.Queries) error {
		if _, err := requireResource(ctx, q, resourceID); err != nil {
			return err
		}
		now := s.now()
		if err := putProperty(ctx, q, resourceID, key, value, now); err != nil {
			return err
		}
		return q.TouchResource(ctx, sqlc.TouchResourceParams{ModifiedAt: now, ID: resourceID})
	})
}

func (s *SQLiteDatabase) RemoveProperty(ctx context.Context, resourceID, key string) (bool, error) {
	var removed bool
	err := s.withTx(ctx, func(q *sqlc.Queries) error {
		if _, err := requireResource(ctx, q, resourceID); err != nil {
			return err
		}
		n, err := q.DeleteProperty(ctx, sqlc.DeletePropertyParams{ResourceID: resourceID, Key: key})
		if err != nil {
			return fmt.Errorf("deleting property %s: %w", key, err)
		}
		if n == 0 {
			return nil
		}
		removed = true
		if err := q.DecrementPropertyKeyUsage(ctx, key); err != nil {
			return fmt.Errorf("decrementing property key %s: %w", key, err)
		}
		return q.TouchResource(ctx, sqlc.TouchResourceParams{ModifiedAt: s.now(), ID: resourceID})
	})
	return removed, err
}

func (s *SQLiteDatabase) SuggestPropertyValues(ctx context.Context, key, prefix string, limit int) ([]model.PropertyValue, error) {
	rows, err := s.queries.SuggestPropertyValues(ctx, sqlc.SuggestPropertyValuesParams{
		Key:   key,
		Value: likePrefix(prefix),
		Limit: int64(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("suggesting property values: %w", err)
	}
	values := make([]model.PropertyValue, 0, len(rows))
	for _, r := range rows {
		v, err := model.ParsePropertyValue(model.PropertyType(r.ValueType), r.Value)
		if err != nil {
			v = model.StringValue(r.Value)
		}
		values = append(values, v)
	}
	return values, nil
}

// Maintenance

func (s *SQLiteDatabase) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db)
}

// BackupTo writes a consistent copy of the database to destPath using
// VACUUM INTO. destPath must not exist.
func (s *SQLiteDatabase) BackupTo(destPath string) error {
	if _, err := s.db.Exec("VACUUM INTO ?", destPath); err != nil {
		return fmt.Errorf("backing up database: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

var _ jasper.Database = (*SQLiteDatabase)(nil)
