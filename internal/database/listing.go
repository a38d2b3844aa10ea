package database

import (
	"context"
	"fmt"
	"strings"

	"arc-go/internal/arc"
)

// ListFiles returns Current files filtered and ordered per q.
// The ORDER BY clause is assembled from validated enums, so only the
// filter values are bound as parameters.
func (s *SQLiteDatabase) ListFiles(ctx context.Context, q arc.ListQuery) ([]*arc.FileSummary, error) {
	query, args := buildListQuery(q)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing files: %w", err)
	}
	defer rows.Close()

	result := []*arc.FileSummary{}
	for rows.Next() {
		var f arc.FileSummary
		if err := rows.Scan(&f.ID, &f.Filename, &f.Size); err != nil {
			return nil, fmt.Errorf("scanning file row: %w", err)
		}
		result = append(result, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing files: %w", err)
	}
	return result, nil
}

func buildListQuery(q arc.ListQuery) (string, []any) {
	var b strings.Builder
	args := []any{string(arc.StateCurrent)}

	b.WriteString("SELECT id, filename, size FROM files WHERE state = ?")

	for _, f := range []struct{ column, value string }{
		{"author", q.Author},
		{"filename", q.Filename},
	} {
		if f.value == "" {
			continue
		}
		if q.Match == arc.MatchExact {
			b.WriteString(" AND " + f.column + " = ?")
		} else {
			b.WriteString(" AND instr(" + f.column + ", ?) > 0")
		}
		args = append(args, f.value)
	}

	dir := "ASC"
	if q.Order == arc.OrderDesc {
		dir = "DESC"
	}
	if q.SortKey == arc.SortBySize {
		b.WriteString(" ORDER BY size " + dir + ", id " + dir)
	} else {
		b.WriteString(" ORDER BY id " + dir)
	}

	return b.String(), args
}
