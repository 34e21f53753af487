package surrealdb

import (
	"context"
	"fmt"

	"github.com/surrealdb/surrealdb.go"
)

// selectRecords runs a single SELECT and returns its rows.
func selectRecords[T any](ctx context.Context, db *surrealdb.DB, sql string, vars map[string]any) ([]T, error) {
	results, err := surrealdb.Query[[]T](ctx, db, sql, vars)
	if err != nil {
		return nil, err
	}
	if results == nil || len(*results) == 0 {
		return nil, nil
	}
	r := (*results)[0]
	if r.Status != "" && r.Status != "OK" {
		return nil, fmt.Errorf("query status %s", r.Status)
	}
	return r.Result, nil
}

func limitClause(limit int) string {
	if limit > 0 {
		return fmt.Sprintf(" LIMIT %d", limit)
	}
	return ""
}
