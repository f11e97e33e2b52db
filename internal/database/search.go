package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"jasper-go/internal/database/sqlc"
	"jasper-go/internal/model"
)

// hydrateBatch bounds the IN lists used to load related rows.
const hydrateBatch = 500

const (
	hasArchival = `EXISTS (SELECT 1 FROM locations l WHERE l.resource_id = r.id AND l.location_type = 'archival-address')`
	hasFile     = `EXISTS (SELECT 1 FROM locations l WHERE l.resource_id = r.id AND l.location_type = 'file-path')`
)

var classPredicates = map[model.ResourceClass]string{
	model.ClassExternal:         "NOT " + hasArchival + " AND NOT " + hasFile,
	model.ClassInternal:         "NOT " + hasArchival + " AND " + hasFile,
	model.ClassExternalArchived: hasArchival + " AND NOT " + hasFile,
	model.ClassInternalArchived: hasArchival + " AND " + hasFile,
}

var sortColumns = map[model.SortField]string{
	model.SortModified: "r.modified_at",
	model.SortCreated:  "r.created_at",
	model.SortTitle:    "r.title COLLATE NOCASE",
	model.SortAccessed: "r.last_accessed_at",
}

// Search narrows by tags first, then matches text against title,
// description and the primary location, then sorts and paginates.
func (s *SQLiteDatabase) Search(ctx context.Context, q model.Query) (*model.Page, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}

	var (
		from  = "resources r"
		where []string
		args  []any
	)

	if tags := uniqueStrings(q.Tags); len(tags) > 0 {
		need := 1
		if q.Logic == model.TagLogicAll {
			need = len(tags)
		}
		from = `(SELECT rt.resource_id AS id
			FROM resource_tags rt JOIN tags t ON t.id = rt.tag_id
			WHERE t.name IN (?)
			GROUP BY rt.resource_id
			HAVING COUNT(DISTINCT rt.tag_id) >= ?) c
		JOIN resources r ON r.id = c.id`
		args = append(args, tags, need)
	}

	if text := strings.TrimSpace(q.Text); text != "" {
		where = append(where, `(r.title LIKE ? ESCAPE '\' OR r.description LIKE ? ESCAPE '\'
			OR EXISTS (SELECT 1 FROM locations pl WHERE pl.resource_id = r.id AND pl.is_primary = 1 AND pl.value LIKE ? ESCAPE '\'))`)
		pattern := "%" + escapeLike(text) + "%"
		args = append(args, pattern, pattern, pattern)
	}

	if q.Class != "" {
		where = append(where, classPredicates[q.Class])
	}

	body := " FROM " + from
	if len(where) > 0 {
		body += " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := s.selectIn(ctx, &total, "SELECT COUNT(*)"+body, args...); err != nil {
		return nil, fmt.Errorf("counting search results: %w", err)
	}

	sortCol := sortColumns[q.Sort]
	if sortCol == "" {
		sortCol = sortColumns[model.SortModified]
	}
	dir := "DESC"
	if q.Ascending {
		dir = "ASC"
	}
	query := "SELECT r.*" + body + " ORDER BY " + sortCol + " " + dir + ", r.id " + dir
	if q.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, q.Limit, q.Offset)
	} else if q.Offset > 0 {
		query += " LIMIT -1 OFFSET ?"
		args = append(args, q.Offset)
	}

	var rows []sqlc.Resource
	if err := s.selectIn(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("searching resources: %w", err)
	}
	resources, err := s.hydrate(ctx, rows)
	if err != nil {
		return nil, err
	}
	return &model.Page{Resources: resources, Total: total, Limit: q.Limit, Offset: q.Offset}, nil
}

// selectIn expands slice arguments into IN lists before running the query.
// dest may be a slice or a single scannable value.
func (s *SQLiteDatabase) selectIn(ctx context.Context, dest any, query string, args ...any) error {
	query, args, err := sqlx.In(query, args...)
	if err != nil {
		return err
	}
	query = s.dbx.Rebind(query)
	if _, ok := dest.(*int); ok {
		return s.dbx.GetContext(ctx, dest, query, args...)
	}
	return s.dbx.SelectContext(ctx, dest, query, args...)
}

type resourceTagName struct {
	ResourceID string
	Name       string
}

// hydrate loads locations, tags and properties for rows in batches.
func (s *SQLiteDatabase) hydrate(ctx context.Context, rows []sqlc.Resource) ([]*model.Resource, error) {
	locs := make(map[string][]sqlc.Location, len(rows))
	tags := make(map[string][]string, len(rows))
	props := make(map[string][]sqlc.Property, len(rows))

	for start := 0; start < len(rows); start += hydrateBatch {
		end := min(start+hydrateBatch, len(rows))
		ids := make([]string, 0, end-start)
		for _, r := range rows[start:end] {
			ids = append(ids, r.ID)
		}

		var ls []sqlc.Location
		err := s.selectIn(ctx, &ls, `SELECT * FROM locations WHERE resource_id IN (?) ORDER BY created_at, id`, ids)
		if err != nil {
			return nil, fmt.Errorf("loading locations: %w", err)
		}
		for _, l := range ls {
			locs[l.ResourceID] = append(locs[l.ResourceID], l)
		}

		var ts []resourceTagName
		err = s.selectIn(ctx, &ts, `SELECT rt.resource_id, t.name FROM resource_tags rt
			JOIN tags t ON t.id = rt.tag_id
			WHERE rt.resource_id IN (?) ORDER BY t.name`, ids)
		if err != nil {
			return nil, fmt.Errorf("loading tags: %w", err)
		}
		for _, t := range ts {
			tags[t.ResourceID] = append(tags[t.ResourceID], t.Name)
		}

		var ps []sqlc.Property
		err = s.selectIn(ctx, &ps, `SELECT * FROM properties WHERE resource_id IN (?) ORDER BY key`, ids)
		if err != nil {
			return nil, fmt.Errorf("loading properties: %w", err)
		}
		for _, p := range ps {
			props[p.ResourceID] = append(props[p.ResourceID], p)
		}
	}

	out := make([]*model.Resource, len(rows))
	for i, r := range rows {
		out[i] = toResource(r, locs[r.ID], tags[r.ID], props[r.ID])
	}
	return out, nil
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
