package redisom

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/redisom/internal/db"
)

// Migrator reconciles search indexes with compiled schemas. Migration
// drops and re-creates each index; documents are never touched, only
// the index definitions. Between drop and create there is a window with
// no index, during which direct key lookups still work.
type Migrator struct {
	store db.IndexAdmin
	log   *zap.Logger
}

// NewMigrator builds a migrator on the client's store.
func NewMigrator(c *Client) *Migrator {
	return &Migrator{store: c.store, log: c.log}
}

// Migrate brings the store's indexes in line with the given schemas.
// A nil or field-less schema is logged and skipped. A failure on one
// schema does not stop the rest; all failures are joined and returned
// after the pass completes.
func (m *Migrator) Migrate(ctx context.Context, schemas ...*Schema) error {
	existing, err := m.store.ListIndexes(ctx)
	if err != nil {
		return fmt.Errorf("%w: list indexes: %w", ErrIndexOperation, err)
	}
	known := make(map[string]bool, len(existing))
	for _, name := range existing {
		known[name] = true
	}

	var errs []error
	for _, s := range schemas {
		if err := m.migrateOne(ctx, s, known); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Migrator) migrateOne(ctx context.Context, s *Schema, known map[string]bool) error {
	if s == nil {
		m.log.Warn("skipping nil schema")
		return nil
	}
	if len(s.Fields) == 0 {
		m.log.Warn("skipping type with no indexed fields", zap.String("type", s.TypeName()))
		return nil
	}

	name := s.IndexName()
	if known[name] {
		if err := m.store.DropIndex(ctx, name); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
			return fmt.Errorf("%w: drop %s: %w", ErrIndexOperation, name, err)
		}
	}

	if err := m.store.CreateIndex(ctx, indexDefinition(s)); err != nil {
		return fmt.Errorf("%w: create %s: %w", ErrIndexOperation, name, err)
	}

	m.log.Info("index migrated",
		zap.String("index", name),
		zap.String("type", s.TypeName()),
		zap.Int("fields", len(s.Fields)))
	return nil
}

// Drop removes the indexes for the given schemas. Missing indexes are
// ignored; failures are joined. Documents are preserved.
func (m *Migrator) Drop(ctx context.Context, schemas ...*Schema) error {
	var errs []error
	for _, s := range schemas {
		if s == nil {
			continue
		}
		name := s.IndexName()
		if err := m.store.DropIndex(ctx, name); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
			errs = append(errs, fmt.Errorf("%w: drop %s: %w", ErrIndexOperation, name, err))
			continue
		}
		m.log.Info("index dropped", zap.String("index", name))
	}
	return errors.Join(errs...)
}

// IndexStatus describes the live state of one schema's index.
type IndexStatus struct {
	Name       string
	Exists     bool
	NumDocs    int64
	Attributes []IndexAttribute
}

// IndexAttribute is one attribute of a live index.
type IndexAttribute struct {
	Path  string
	Alias string
	Type  string
}

// Status reports the live index state for each schema.
func (m *Migrator) Status(ctx context.Context, schemas ...*Schema) ([]IndexStatus, error) {
	out := make([]IndexStatus, 0, len(schemas))
	for _, s := range schemas {
		if s == nil {
			continue
		}
		name := s.IndexName()
		info, err := m.store.IndexInfo(ctx, name)
		if err != nil {
			if errors.Is(err, db.ErrIndexNotFound) {
				out = append(out, IndexStatus{Name: name})
				continue
			}
			return nil, fmt.Errorf("%w: info %s: %w", ErrIndexOperation, name, err)
		}

		st := IndexStatus{
			Name:       name,
			Exists:     true,
			NumDocs:    info.NumDocs,
			Attributes: make([]IndexAttribute, 0, len(info.Attributes)),
		}
		for _, a := range info.Attributes {
			st.Attributes = append(st.Attributes, IndexAttribute{Path: a.Path, Alias: a.Alias, Type: a.Type})
		}
		out = append(out, st)
	}
	return out, nil
}

// indexDefinition maps a compiled schema onto a store index definition.
func indexDefinition(s *Schema) *db.IndexDefinition {
	def := &db.IndexDefinition{
		Name:     s.IndexName(),
		Storage:  db.StorageJSON,
		Prefixes: []string{s.Prefix + ":"},
		Fields:   make([]db.IndexField, 0, len(s.Fields)),
	}
	for i := range s.Fields {
		fd := &s.Fields[i]
		def.Fields = append(def.Fields, db.IndexField{
			Path:          fd.QueryPath,
			Alias:         fd.Alias,
			Type:          dbFieldType(fd.IndexType),
			Sortable:      fd.Sortable,
			Separator:     fd.Separator,
			CaseSensitive: fd.CaseSensitive,
			VectorDim:     fd.VectorDim,
			VectorMetric:  db.DistanceMetric(fd.VectorMetric),
		})
	}
	return def
}

func dbFieldType(t IndexType) db.FieldType {
	switch t {
	case IndexTag:
		return db.FieldTag
	case IndexText:
		return db.FieldText
	case IndexNumeric:
		return db.FieldNumeric
	case IndexGeo:
		return db.FieldGeo
	case IndexVector:
		return db.FieldVector
	default:
		return db.FieldText
	}
}
