package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/redisom/internal/db"
)

// Search executes FT.SEARCH and parses the reply into keys and field maps.
func (s *Store) Search(ctx context.Context, q *db.SearchQuery) (*db.SearchResult, error) {
	if q.Index == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if q.Query == "" {
		return nil, fmt.Errorf("query is required")
	}

	args := buildSearchArgs(q)

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, db.OpFTSearch, cmd).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpFTSearch, Err: err}
	}

	res, err := parseSearchResult(raw)
	if err != nil {
		return nil, &db.Error{Op: db.OpFTSearch, Err: err}
	}
	return res, nil
}

func buildSearchArgs(q *db.SearchQuery) []string {
	args := []string{q.Index, q.Query}

	if q.SortBy != "" {
		dir := "ASC"
		if q.SortDesc {
			dir = "DESC"
		}
		args = append(args, "SORTBY", q.SortBy, dir)
	}

	args = append(args, "LIMIT", strconv.Itoa(q.Offset), strconv.Itoa(q.Limit))

	if len(q.Params) > 0 {
		args = append(args, "PARAMS", strconv.Itoa(len(q.Params)))
		args = append(args, q.Params...)
	}

	if q.Dialect > 0 {
		args = append(args, "DIALECT", strconv.Itoa(q.Dialect))
	}

	return args
}

// parseSearchResult decodes the RESP2 reply shape:
// [total, key1, fields1, key2, fields2, ...]. A row that does not follow
// the 2-stride layout fails the whole parse rather than being skipped.
func parseSearchResult(raw []rueidis.RedisMessage) (*db.SearchResult, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("empty search reply")
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}

	rows := raw[1:]
	if len(rows)%2 != 0 {
		return nil, fmt.Errorf("odd search reply length %d", len(raw))
	}

	docs := make([]db.SearchDoc, 0, len(rows)/2)
	for i := 0; i+1 < len(rows); i += 2 {
		key, err := rows[i].ToString()
		if err != nil {
			return nil, fmt.Errorf("parse key at %d: %w", i, err)
		}

		fields, err := rows[i+1].ToArray()
		if err != nil {
			return nil, fmt.Errorf("parse fields for %s: %w", key, err)
		}

		docs = append(docs, db.SearchDoc{
			Key:    key,
			Fields: parseFieldPairs(fields),
		})
	}

	return &db.SearchResult{Total: total, Docs: docs}, nil
}

func parseFieldPairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			continue
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}
