package database

import (
	"context"
	"fmt"
)

// rankedNames ranks rows of table by usage_count desc, then last_used desc,
// then name, skipping excluded names. Rows whose count fell to zero stay
// suggestible until pruned and rank last. table and column are trusted constants.
func (s *SQLiteDatabase) rankedNames(ctx context.Context, table, column, prefix string, excluding []string, limit int) ([]string, error) {
	query := `SELECT ` + column + ` FROM ` + table + ` WHERE ` + column + ` LIKE ? ESCAPE '\'`
	args := []any{likePrefix(prefix)}
	if ex := uniqueStrings(excluding); len(ex) > 0 {
		query += ` AND ` + column + ` NOT IN (?)`
		args = append(args, ex)
	}
	query += ` ORDER BY usage_count DESC, last_used DESC, ` + column + ` ASC LIMIT ?`
	args = append(args, limit)

	names := []string{}
	if err := s.selectIn(ctx, &names, query, args...); err != nil {
		return nil, err
	}
	return names, nil
}

func (s *SQLiteDatabase) SuggestTags(ctx context.Context, prefix string, excluding []string, limit int) ([]string, error) {
	names, err := s.rankedNames(ctx, "tags", "name", prefix, excluding, limit)
	if err != nil {
		return nil, fmt.Errorf("suggesting tags: %w", err)
	}
	return names, nil
}

func (s *SQLiteDatabase) SuggestPropertyKeys(ctx context.Context, prefix string, excluding []string, limit int) ([]string, error) {
	keys, err := s.rankedNames(ctx, "property_keys", "key", prefix, excluding, limit)
	if err != nil {
		return nil, fmt.Errorf("suggesting property keys: %w", err)
	}
	return keys, nil
}
