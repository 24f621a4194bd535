package db

import (
	"errors"
	"strconv"
	"strings"
)

// StorageType defines the document storage backend for FT indexes (HASH or JSON).
type StorageType string

const (
	// StorageHash indexes documents stored as Redis hashes.
	StorageHash StorageType = "HASH"
	// StorageJSON indexes documents stored as JSON.
	StorageJSON StorageType = "JSON"
)

// DistanceMetric used by FT.SEARCH vector similarity queries.
type DistanceMetric string

const (
	// DistanceL2 is Euclidean distance.
	DistanceL2 DistanceMetric = "L2"
	// DistanceIP is inner product distance.
	DistanceIP DistanceMetric = "IP"
	// DistanceCosine is cosine distance.
	DistanceCosine DistanceMetric = "COSINE"
)

// FieldType enumerates supported FT index attribute types.
type FieldType int

const (
	// FieldNumeric is a numeric range attribute.
	FieldNumeric FieldType = iota
	// FieldTag is an exact-match tag attribute.
	FieldTag
	// FieldText is a full-text attribute.
	FieldText
	// FieldGeo is a geographic point attribute.
	FieldGeo
	// FieldVector is a vector similarity attribute.
	FieldVector
)

// String returns the FT.CREATE token for the field type.
func (t FieldType) String() string {
	switch t {
	case FieldNumeric:
		return "NUMERIC"
	case FieldTag:
		return "TAG"
	case FieldText:
		return "TEXT"
	case FieldGeo:
		return "GEO"
	case FieldVector:
		return "VECTOR"
	default:
		return "UNKNOWN"
	}
}

// IndexField describes a single attribute in an FT index schema.
// Path is the JSONPath identifier, Alias the query-side attribute name.
type IndexField struct {
	Path  string
	Alias string
	Type  FieldType

	Sortable bool

	// TAG options
	Separator     string
	CaseSensitive bool

	// VECTOR options (FLAT, FLOAT32)
	VectorDim    int
	VectorMetric DistanceMetric
}

// IndexDefinition is a complete FT index definition used by FT.CREATE.
type IndexDefinition struct {
	Name     string
	Storage  StorageType
	Prefixes []string
	Fields   []IndexField
}

// Validate checks that the index definition is well-formed.
func (idx *IndexDefinition) Validate() error {
	if idx.Name == "" {
		return errors.New("index name is required")
	}
	if !IsValidIdentifier(idx.Name) {
		return errors.New("index name contains invalid characters")
	}
	if len(idx.Fields) == 0 {
		return errors.New("at least one field is required")
	}

	seen := make(map[string]bool)
	for i := range idx.Fields {
		f := &idx.Fields[i]
		if f.Path == "" {
			return errors.New("field path is required at index " + strconv.Itoa(i))
		}
		key := f.Path
		if f.Alias != "" {
			key = f.Alias
		}
		if seen[key] {
			return errors.New("duplicate field: " + key)
		}
		seen[key] = true

		if f.Type == FieldVector && f.VectorDim <= 0 {
			return errors.New("vector field requires positive DIM")
		}
	}

	return nil
}

// String returns a debug representation resembling the FT.CREATE command.
func (idx *IndexDefinition) String() string {
	parts := []string{"FT.CREATE", idx.Name}
	if idx.Storage != "" {
		parts = append(parts, "ON", string(idx.Storage))
	}
	if len(idx.Prefixes) > 0 {
		parts = append(parts, "PREFIX", strconv.Itoa(len(idx.Prefixes)))
		parts = append(parts, idx.Prefixes...)
	}
	parts = append(parts, "SCHEMA")
	for i := range idx.Fields {
		f := &idx.Fields[i]
		parts = append(parts, f.Path)
		if f.Alias != "" {
			parts = append(parts, "AS", f.Alias)
		}
		parts = append(parts, f.Type.String())
		if f.Sortable {
			parts = append(parts, "SORTABLE")
		}
	}
	return strings.Join(parts, " ")
}

// IndexAttribute is one attribute reported by FT.INFO.
type IndexAttribute struct {
	Path  string // identifier (JSONPath)
	Alias string // attribute (query-side name)
	Type  string // TAG, TEXT, NUMERIC, GEO, VECTOR
}

// IndexInfo is the parsed subset of an FT.INFO reply.
type IndexInfo struct {
	Name       string
	NumDocs    int64
	Attributes []IndexAttribute
}

// IsValidIdentifier returns true if s matches [a-zA-Z0-9_:-]+.
func IsValidIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		isAlpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		isDigit := r >= '0' && r <= '9'
		isSpecial := r == '_' || r == ':' || r == '-'
		if !isAlpha && !isDigit && !isSpecial {
			return false
		}
	}
	return true
}
