package redisom

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/kailas-cloud/redisom/internal/db"
)

// Repository provides typed document access for one record type: keys
// are "<prefix>:<id>", bodies live as JSON documents under the root
// path. The record type must declare a string primary key, either a
// field tagged `rom:"pk"` or a top-level ID field.
type Repository[T any] struct {
	store  db.Store
	schema *Schema
}

// RepositoryOption adjusts repository construction.
type RepositoryOption func(*repoConfig)

type repoConfig struct {
	prefix string
}

// WithKeyPrefix overrides the key prefix derived from the type name.
func WithKeyPrefix(prefix string) RepositoryOption {
	return func(c *repoConfig) { c.prefix = prefix }
}

// NewRepository compiles the schema for T and binds it to the client's
// store. Returns ErrNoPrimaryKey when T declares no usable key field.
func NewRepository[T any](c *Client, opts ...RepositoryOption) (*Repository[T], error) {
	s, err := Model[T]()
	if err != nil {
		return nil, err
	}

	var cfg repoConfig
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.prefix != "" {
		s = s.WithPrefix(cfg.prefix)
	}

	if !s.HasPrimaryKey() {
		return nil, fmt.Errorf("%w: %s", ErrNoPrimaryKey, s.TypeName())
	}

	return &Repository[T]{store: c.store, schema: s}, nil
}

// Schema returns the compiled schema backing this repository.
func (r *Repository[T]) Schema() *Schema {
	return r.schema
}

// Key returns the storage key for a primary key value.
func (r *Repository[T]) Key(id string) string {
	return r.schema.Prefix + ":" + id
}

func (r *Repository[T]) idFromKey(key string) string {
	return strings.TrimPrefix(key, r.schema.Prefix+":")
}

// Save writes the record as a JSON document, generating a primary key
// when the record has none, and returns the key value.
func (r *Repository[T]) Save(ctx context.Context, rec *T) (string, error) {
	id, err := r.ensureID(rec)
	if err != nil {
		return "", err
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("%w: encode %s: %w", ErrSerialization, r.schema.TypeName(), err)
	}

	key := r.Key(id)
	if err := r.store.JSONSet(ctx, key, db.DocRootField, data); err != nil {
		return "", fmt.Errorf("json.set %s: %w", key, err)
	}
	return id, nil
}

// SaveAll saves records independently: one record failing to serialize
// or write does not stop the rest. The returned ids align with recs;
// failed entries stay empty. Errors are joined.
func (r *Repository[T]) SaveAll(ctx context.Context, recs ...*T) ([]string, error) {
	ids := make([]string, len(recs))
	var errs []error
	for i, rec := range recs {
		id, err := r.Save(ctx, rec)
		if err != nil {
			errs = append(errs, fmt.Errorf("record %d: %w", i, err))
			continue
		}
		ids[i] = id
	}
	return ids, errors.Join(errs...)
}

// Get fetches a record by primary key. Returns ErrNotFound for a
// missing key.
func (r *Repository[T]) Get(ctx context.Context, id string) (*T, error) {
	key := r.Key(id)
	raw, err := r.store.JSONGet(ctx, key, db.DocRootField)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, fmt.Errorf("%w: %s %q", ErrNotFound, r.schema.TypeName(), id)
		}
		return nil, fmt.Errorf("json.get %s: %w", key, err)
	}

	// JSON.GET with an explicit path wraps the value in an array.
	var recs []T
	if err := json.Unmarshal(raw, &recs); err != nil {
		return nil, fmt.Errorf("%w: decode %s %q: %w", ErrSerialization, r.schema.TypeName(), id, err)
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("%w: %s %q", ErrNotFound, r.schema.TypeName(), id)
	}
	return &recs[0], nil
}

// Delete removes a record by primary key. Deleting a missing record is
// a no-op.
func (r *Repository[T]) Delete(ctx context.Context, id string) error {
	key := r.Key(id)
	if err := r.store.Del(ctx, key); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	return nil
}

// Unset clears one indexed field inside a stored document, leaving the
// rest of the document in place.
func (r *Repository[T]) Unset(ctx context.Context, id, field string) error {
	fd, ok := r.schema.Field(field)
	if !ok {
		return fmt.Errorf("%w: %s has no indexed field %q", ErrFieldNotIndexed, r.schema.TypeName(), field)
	}
	key := r.Key(id)
	if err := r.store.JSONDel(ctx, key, fd.QueryPath); err != nil {
		return fmt.Errorf("json.del %s %s: %w", key, fd.QueryPath, err)
	}
	return nil
}

// AllIDs lists every stored primary key under the repository's prefix,
// sorted for deterministic ordering. Unlike Search, this never depends
// on the index existing.
func (r *Repository[T]) AllIDs(ctx context.Context) ([]string, error) {
	keys, err := r.store.Scan(ctx, r.schema.Prefix+":*")
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", r.schema.Prefix, err)
	}
	sort.Strings(keys)
	ids := make([]string, 0, len(keys))
	for _, k := range keys {
		ids = append(ids, r.idFromKey(k))
	}
	return ids, nil
}

// Count returns the number of indexed documents for this type.
func (r *Repository[T]) Count(ctx context.Context) (int64, error) {
	return r.Search().Count(ctx)
}

// Search starts a query over documents of this type.
func (r *Repository[T]) Search(preds ...Predicate[T]) *Query[T] {
	return &Query[T]{repo: r, preds: preds}
}

// Field references an indexed field of T, same as F[T].
func (r *Repository[T]) Field(name string) Field[T] {
	return F[T](name)
}

func (r *Repository[T]) ensureID(rec *T) (string, error) {
	v := reflect.ValueOf(rec).Elem()
	f := v.FieldByIndex(r.schema.pkPath)
	if id := f.String(); id != "" {
		return id, nil
	}
	id := uuid.NewString()
	f.SetString(id)
	return id, nil
}
