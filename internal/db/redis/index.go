package redis

import (
	"context"
	"errors"
	"strconv"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/redisom/internal/db"
)

// CreateIndex creates an FT index from the given definition.
func (s *Store) CreateIndex(ctx context.Context, def *db.IndexDefinition) error {
	args, err := buildCreateArgs(def)
	if err != nil {
		return err
	}

	cmd := s.b().Arbitrary("FT.CREATE").Args(args...).Build()
	if err := s.do(ctx, db.OpFTCreate, cmd).Error(); err != nil {
		if isRedisErr(err, "index already exists") {
			return db.ErrIndexExists
		}
		return &db.Error{Op: db.OpFTCreate, Err: err}
	}
	return nil
}

// DropIndex removes an FT index by name. Documents stay in place: the drop
// is issued without DD.
func (s *Store) DropIndex(ctx context.Context, name string) error {
	cmd := s.b().Arbitrary("FT.DROPINDEX").Args(name).Build()
	if err := s.do(ctx, db.OpFTDrop, cmd).Error(); err != nil {
		if isRedisErr(err, "unknown index name") {
			return db.ErrIndexNotFound
		}
		return &db.Error{Op: db.OpFTDrop, Err: err}
	}
	return nil
}

// ListIndexes returns the names of all FT indexes via FT._LIST.
func (s *Store) ListIndexes(ctx context.Context) ([]string, error) {
	cmd := s.b().Arbitrary("FT._LIST").Build()
	names, err := s.do(ctx, db.OpFTList, cmd).AsStrSlice()
	if err != nil {
		return nil, &db.Error{Op: db.OpFTList, Err: err}
	}
	return names, nil
}

// IndexInfo fetches and parses the FT.INFO reply for an index.
func (s *Store) IndexInfo(ctx context.Context, name string) (*db.IndexInfo, error) {
	cmd := s.b().Arbitrary("FT.INFO").Args(name).Build()
	raw, err := s.do(ctx, db.OpFTInfo, cmd).ToArray()
	if err != nil {
		if isRedisErr(err, "unknown index name") {
			return nil, db.ErrIndexNotFound
		}
		return nil, &db.Error{Op: db.OpFTInfo, Err: err}
	}
	return parseIndexInfo(raw)
}

func buildCreateArgs(idx *db.IndexDefinition) ([]string, error) {
	if err := idx.Validate(); err != nil {
		return nil, err
	}

	args := []string{idx.Name}

	storage := idx.Storage
	if storage == "" {
		storage = db.StorageJSON
	}
	args = append(args, "ON", string(storage))

	if len(idx.Prefixes) > 0 {
		args = append(args, "PREFIX", strconv.Itoa(len(idx.Prefixes)))
		args = append(args, idx.Prefixes...)
	}

	args = append(args, "SCHEMA")

	for i := range idx.Fields {
		fieldArgs, err := buildFieldArgs(&idx.Fields[i])
		if err != nil {
			return nil, err
		}
		args = append(args, fieldArgs...)
	}

	return args, nil
}

func buildFieldArgs(f *db.IndexField) ([]string, error) {
	if f.Path == "" {
		return nil, errors.New("field path is required")
	}

	args := []string{f.Path}

	if f.Alias != "" {
		args = append(args, "AS", f.Alias)
	}

	switch f.Type {
	case db.FieldNumeric:
		args = append(args, "NUMERIC")

	case db.FieldText:
		args = append(args, "TEXT")

	case db.FieldGeo:
		args = append(args, "GEO")

	case db.FieldTag:
		args = append(args, "TAG")
		if f.Separator != "" {
			args = append(args, "SEPARATOR", f.Separator)
		}
		if f.CaseSensitive {
			args = append(args, "CASESENSITIVE")
		}

	case db.FieldVector:
		if f.VectorDim <= 0 {
			return nil, errors.New("vector DIM must be positive")
		}
		metric := f.VectorMetric
		if metric == "" {
			metric = db.DistanceCosine
		}
		args = append(args,
			"VECTOR", "FLAT", "6",
			"TYPE", "FLOAT32",
			"DIM", strconv.Itoa(f.VectorDim),
			"DISTANCE_METRIC", string(metric),
		)

	default:
		return nil, errors.New("unknown field type")
	}

	if f.Sortable && f.Type != db.FieldVector {
		args = append(args, "SORTABLE")
	}

	return args, nil
}

// parseIndexInfo extracts the subset of the FT.INFO reply callers care
// about. The reply is a flat key-value array; attributes nest one array
// per schema field.
func parseIndexInfo(raw []rueidis.RedisMessage) (*db.IndexInfo, error) {
	info := &db.IndexInfo{}

	for i := 0; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}
		switch key {
		case "index_name":
			if name, err := raw[i+1].ToString(); err == nil {
				info.Name = name
			}
		case "num_docs":
			if n, err := raw[i+1].AsInt64(); err == nil {
				info.NumDocs = n
			}
		case "attributes":
			attrs, err := raw[i+1].ToArray()
			if err != nil {
				continue
			}
			for _, a := range attrs {
				entry, err := a.ToArray()
				if err != nil {
					continue
				}
				info.Attributes = append(info.Attributes, parseAttribute(entry))
			}
		}
	}

	return info, nil
}

// parseAttribute walks one attribute entry. Values follow their keys;
// bare flags like SORTABLE carry no value and are skipped.
func parseAttribute(entry []rueidis.RedisMessage) db.IndexAttribute {
	var attr db.IndexAttribute

	for i := 0; i < len(entry); i++ {
		key, err := entry[i].ToString()
		if err != nil {
			continue
		}
		if i+1 >= len(entry) {
			break
		}
		val, err := entry[i+1].ToString()
		if err != nil {
			continue
		}
		switch key {
		case "identifier":
			attr.Path = val
			i++
		case "attribute":
			attr.Alias = val
			i++
		case "type":
			attr.Type = val
			i++
		}
	}

	return attr
}
