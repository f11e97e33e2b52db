package database

import (
	"database/sql"
	"strings"
	"time"
	"unicode"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/reflectx"

	"jasper-go/internal/database/sqlc"
	"jasper-go/internal/model"
)

// newSqlx wraps db so sqlx scans columns straight into the sqlc row types.
func newSqlx(db *sql.DB) *sqlx.DB {
	dbx := sqlx.NewDb(db, "sqlite3")
	dbx.Mapper = reflectx.NewMapperFunc("db", snakeCase)
	return dbx
}

// snakeCase maps Go field names to column names: ResourceID -> resource_id.
func snakeCase(name string) string {
	runes := []rune(name)
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) && i > 0 {
			prevLower := unicode.IsLower(runes[i-1])
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if prevLower || (unicode.IsUpper(runes[i-1]) && nextLower) {
				b.WriteByte('_')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}

func toLocation(l sqlc.Location) model.Location {
	return model.Location{
		ID:           l.ID,
		ResourceID:   l.ResourceID,
		Type:         model.LocationType(l.LocationType),
		Value:        l.Value,
		IsPrimary:    l.IsPrimary,
		Accessible:   l.Accessible,
		LastVerified: timePtr(l.LastVerified),
		CreatedAt:    l.CreatedAt.UTC(),
		Size:         l.SizeBytes.Int64,
		Cost:         l.Cost.Float64,
	}
}

func toLocations(rows []sqlc.Location) []model.Location {
	locs := make([]model.Location, len(rows))
	for i, r := range rows {
		locs[i] = toLocation(r)
	}
	return locs
}

func toProperty(p sqlc.Property) model.Property {
	v, err := model.ParsePropertyValue(model.PropertyType(p.ValueType), p.Value)
	if err != nil {
		v = model.StringValue(p.Value)
	}
	return model.Property{
		ResourceID: p.ResourceID,
		Key:        p.Key,
		Value:      v,
		UpdatedAt:  p.UpdatedAt.UTC(),
	}
}

func toResource(r sqlc.Resource, locs []sqlc.Location, tags []string, props []sqlc.Property) *model.Resource {
	res := &model.Resource{
		ID:                 r.ID,
		ContentHash:        r.ContentHash.String,
		Title:              r.Title,
		Description:        r.Description,
		CreatedAt:          r.CreatedAt.UTC(),
		ModifiedAt:         r.ModifiedAt.UTC(),
		LastAccessedAt:     timePtr(r.LastAccessedAt),
		Accessible:         r.Accessible,
		VerificationStatus: model.VerificationStatus(r.VerificationStatus),
		Locations:          toLocations(locs),
		Tags:               tags,
	}
	if res.Tags == nil {
		res.Tags = []string{}
	}
	for _, p := range props {
		res.Properties = append(res.Properties, toProperty(p))
	}
	res.Class = model.DeriveClass(res.Locations)
	return res
}

// escapeLike escapes LIKE metacharacters for use with ESCAPE '\'.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func likePrefix(prefix string) string {
	return escapeLike(prefix) + "%"
}
