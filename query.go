package redisom

import (
	"context"
	"fmt"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/kailas-cloud/redisom/internal/db"
)

// defaultLimit caps result pages when the caller does not set one.
const defaultLimit = 10

// Query is a fluent search over documents of type T. Builder methods
// accumulate state; terminal methods compile the predicates into query
// syntax, run the search and decode the hits.
type Query[T any] struct {
	repo     *Repository[T]
	preds    []Predicate[T]
	offset   int
	limit    int
	sortBy   string
	sortDesc bool
	knn      *knnClause
}

type knnClause struct {
	field string
	k     int
	vec   any
}

// Where adds predicates; multiple calls accumulate as a conjunction.
func (q *Query[T]) Where(ps ...Predicate[T]) *Query[T] {
	q.preds = append(q.preds, ps...)
	return q
}

// Offset skips the first n hits.
func (q *Query[T]) Offset(n int) *Query[T] {
	q.offset = n
	return q
}

// Limit caps the number of returned hits.
func (q *Query[T]) Limit(n int) *Query[T] {
	q.limit = n
	return q
}

// SortBy orders hits ascending by an indexed field.
func (q *Query[T]) SortBy(field string) *Query[T] {
	q.sortBy = field
	q.sortDesc = false
	return q
}

// SortByDesc orders hits descending by an indexed field.
func (q *Query[T]) SortByDesc(field string) *Query[T] {
	q.sortBy = field
	q.sortDesc = true
	return q
}

// KNN restricts hits to the k nearest neighbors of vec on a vector
// field. Predicates already on the query become the pre-filter. vec is
// []float32 or []float64.
func (q *Query[T]) KNN(field string, k int, vec any) *Query[T] {
	q.knn = &knnClause{field: field, k: k, vec: vec}
	return q
}

// Find runs the search and decodes all hits on the current page.
func (q *Query[T]) Find(ctx context.Context) ([]*T, error) {
	_, docs, err := q.FindWithTotal(ctx)
	return docs, err
}

// FindWithTotal runs the search and also reports the total number of
// matching documents, for pagination past the current page.
func (q *Query[T]) FindWithTotal(ctx context.Context) (int64, []*T, error) {
	sq, err := q.compile()
	if err != nil {
		return 0, nil, err
	}
	res, err := q.repo.store.Search(ctx, sq)
	if err != nil {
		return 0, nil, err
	}
	docs := make([]*T, 0, len(res.Docs))
	for _, d := range res.Docs {
		rec, err := decodeDoc[T](d)
		if err != nil {
			return 0, nil, err
		}
		docs = append(docs, rec)
	}
	return res.Total, docs, nil
}

// First returns the first hit, or ErrNotFound when nothing matches.
func (q *Query[T]) First(ctx context.Context) (*T, error) {
	q.limit = 1
	docs, err := q.Find(ctx)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, ErrNotFound
	}
	return docs[0], nil
}

// Count returns the number of matching documents without fetching any.
func (q *Query[T]) Count(ctx context.Context) (int64, error) {
	sq, err := q.compile()
	if err != nil {
		return 0, err
	}
	sq.Offset, sq.Limit = 0, 0
	res, err := q.repo.store.Search(ctx, sq)
	if err != nil {
		return 0, err
	}
	return res.Total, nil
}

// IDs returns the primary keys of matching documents, without decoding
// document bodies.
func (q *Query[T]) IDs(ctx context.Context) ([]string, error) {
	sq, err := q.compile()
	if err != nil {
		return nil, err
	}
	res, err := q.repo.store.Search(ctx, sq)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(res.Docs))
	for _, d := range res.Docs {
		ids = append(ids, q.repo.idFromKey(d.Key))
	}
	return ids, nil
}

// Scored pairs a decoded document with its vector distance. The value is
// the engine's raw distance for the index's metric; smaller means closer
// for L2 and cosine.
type Scored[T any] struct {
	Doc   *T
	Score float64
}

// FindScored runs a KNN search and returns hits with their distances.
func (q *Query[T]) FindScored(ctx context.Context) ([]Scored[T], error) {
	if q.knn == nil {
		return nil, fmt.Errorf("%w: scored search needs a KNN clause", ErrInvalidOperator)
	}
	sq, err := q.compile()
	if err != nil {
		return nil, err
	}
	fd, _ := q.repo.schema.Field(q.knn.field)
	scoreField := "__" + fd.Alias + "_score"

	res, err := q.repo.store.Search(ctx, sq)
	if err != nil {
		return nil, err
	}
	hits := make([]Scored[T], 0, len(res.Docs))
	for _, d := range res.Docs {
		rec, err := decodeDoc[T](d)
		if err != nil {
			return nil, err
		}
		hit := Scored[T]{Doc: rec}
		if s, ok := d.Fields[scoreField]; ok {
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				hit.Score = f
			}
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

func (q *Query[T]) compile() (*db.SearchQuery, error) {
	s := q.repo.schema

	filter, err := And(q.preds...).Render()
	if err != nil {
		return nil, err
	}

	sq := &db.SearchQuery{
		Index:  s.IndexName(),
		Query:  filter,
		Offset: q.offset,
		Limit:  q.limit,
	}
	if sq.Limit <= 0 {
		sq.Limit = defaultLimit
	}

	if q.sortBy != "" {
		fd, ok := s.Field(q.sortBy)
		if !ok {
			return nil, fmt.Errorf("%w: %s has no indexed field %q", ErrFieldNotIndexed, s.TypeName(), q.sortBy)
		}
		sq.SortBy = fd.Alias
		sq.SortDesc = q.sortDesc
	}

	if q.knn != nil {
		if err := q.applyKNN(sq); err != nil {
			return nil, err
		}
	}
	return sq, nil
}

func (q *Query[T]) applyKNN(sq *db.SearchQuery) error {
	s := q.repo.schema
	fd, ok := s.Field(q.knn.field)
	if !ok {
		return fmt.Errorf("%w: %s has no indexed field %q", ErrFieldNotIndexed, s.TypeName(), q.knn.field)
	}
	if fd.IndexType != IndexVector {
		return fmt.Errorf("%w: KNN on %s field %s", ErrInvalidOperator, fd.IndexType, fd.Alias)
	}
	if q.knn.k <= 0 {
		return fmt.Errorf("%w: k must be positive", ErrInvalidOperator)
	}
	vec, err := toFloat32Slice(q.knn.vec)
	if err != nil {
		return fmt.Errorf("%w: field %s: %v", ErrInvalidOperator, fd.Alias, err)
	}
	if fd.VectorDim > 0 && len(vec) != fd.VectorDim {
		return fmt.Errorf("%w: field %s wants dim %d, got %d", ErrInvalidOperator, fd.Alias, fd.VectorDim, len(vec))
	}

	knnPart := fmt.Sprintf("[KNN %d @%s $BLOB]", q.knn.k, fd.Alias)
	if sq.Query == "*" {
		sq.Query = "*=>" + knnPart
	} else {
		sq.Query = "(" + sq.Query + ")=>" + knnPart
	}
	sq.Params = append(sq.Params, "BLOB", vectorBlob(vec))
	sq.Dialect = 2
	return nil
}

func decodeDoc[T any](d db.SearchDoc) (*T, error) {
	raw, ok := d.Fields[db.DocRootField]
	if !ok {
		return nil, fmt.Errorf("%w: hit %s has no document body", ErrMalformedResponse, d.Key)
	}
	rec := new(T)
	if err := json.Unmarshal([]byte(raw), rec); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", ErrSerialization, d.Key, err)
	}
	return rec, nil
}
