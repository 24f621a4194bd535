package redisom

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"sync"
	"time"
)

const tagKey = "rom"

// IndexType classifies a field for the search index. Each leaf field of a
// compiled schema carries exactly one index type.
type IndexType int

const (
	// IndexTag matches exact values, optionally multi-valued.
	IndexTag IndexType = iota
	// IndexText is tokenized full-text.
	IndexText
	// IndexNumeric supports range queries.
	IndexNumeric
	// IndexGeo supports radius queries over lon/lat points.
	IndexGeo
	// IndexVector supports KNN similarity queries.
	IndexVector
)

func (t IndexType) String() string {
	switch t {
	case IndexTag:
		return "tag"
	case IndexText:
		return "text"
	case IndexNumeric:
		return "numeric"
	case IndexGeo:
		return "geo"
	case IndexVector:
		return "vector"
	default:
		return "unknown"
	}
}

// DistanceMetric selects the similarity function of a vector field.
type DistanceMetric string

const (
	DistanceL2     DistanceMetric = "L2"
	DistanceIP     DistanceMetric = "IP"
	DistanceCosine DistanceMetric = "COSINE"
)

// numericKind records how a numeric field's Go type behaves under strict
// range bounds: integer kinds shift by one, floating-point kinds use the
// store's open-interval syntax.
type numericKind int

const (
	numNone numericKind = iota
	numInt
	numFloat
	numTime
)

// FieldDescriptor is one leaf attribute of a compiled schema.
type FieldDescriptor struct {
	// Name is the declared Go field name ("City" for a nested leaf).
	Name string
	// Alias is the query-side attribute name, derived from QueryPath with
	// separators replaced by "__" and wildcards removed.
	Alias string
	// QueryPath locates the value inside the JSON document ("$.address.city").
	QueryPath string
	IndexType IndexType

	Sortable bool

	// Tag options.
	Separator     string
	CaseSensitive bool

	// Vector options.
	VectorDim    int
	VectorMetric DistanceMetric

	numKind numericKind
}

// Schema is the ordered list of leaf field descriptors for one record
// type, plus its key prefix and primary key binding. Schemas are compiled
// once per type and cached; they are immutable after construction.
type Schema struct {
	typ     reflect.Type
	Prefix  string
	Fields  []FieldDescriptor
	byAlias map[string]int

	pkPath []int
	pkName string
}

// IndexName returns the store-side index name for this schema.
func (s *Schema) IndexName() string {
	return s.Prefix + ":idx"
}

// TypeName returns the Go name of the compiled record type.
func (s *Schema) TypeName() string {
	return s.typ.Name()
}

// Field looks up a leaf descriptor by alias. Dotted paths are accepted and
// normalized the same way aliases are derived ("address.city" finds
// "address__city").
func (s *Schema) Field(alias string) (*FieldDescriptor, bool) {
	i, ok := s.byAlias[normalizeAlias(alias)]
	if !ok {
		return nil, false
	}
	return &s.Fields[i], true
}

// HasPrimaryKey reports whether the record type declares a primary key.
func (s *Schema) HasPrimaryKey() bool {
	return len(s.pkPath) > 0
}

// WithPrefix returns a copy of the schema bound to a different key prefix.
// The descriptor list is shared: prefixes never affect flattening.
func (s *Schema) WithPrefix(prefix string) *Schema {
	cp := *s
	cp.Prefix = prefix
	return &cp
}

// schemaCache maps reflect.Type to *Schema. Compilation is a pure function
// of the type declaration, so concurrent compiles of the same type are
// harmless: LoadOrStore keeps the first result.
var schemaCache sync.Map

// Model compiles (or fetches the cached) schema for record type T.
func Model[T any]() (*Schema, error) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %s is not a struct", ErrUnsupportedSchema, t)
	}

	if cached, ok := schemaCache.Load(t); ok {
		return cached.(*Schema), nil
	}

	s, err := compileSchema(t)
	if err != nil {
		return nil, err
	}

	actual, _ := schemaCache.LoadOrStore(t, s)
	return actual.(*Schema), nil
}

func compileSchema(t reflect.Type) (*Schema, error) {
	visited := map[reflect.Type]bool{}
	fields, err := flattenStruct(t, "", "", visited)
	if err != nil {
		return nil, err
	}

	byAlias := make(map[string]int, len(fields))
	for i := range fields {
		alias := fields[i].Alias
		if _, dup := byAlias[alias]; dup {
			return nil, fmt.Errorf("%w: duplicate alias %q in %s", ErrUnsupportedSchema, alias, t)
		}
		byAlias[alias] = i
	}

	s := &Schema{
		typ:     t,
		Prefix:  strings.ToLower(t.Name()),
		Fields:  fields,
		byAlias: byAlias,
	}

	s.pkPath, s.pkName, err = findPrimaryKey(t, nil)
	if err != nil {
		return nil, err
	}

	return s, nil
}

// flattenStruct walks t's declared fields depth-first and emits one leaf
// descriptor per indexed field. pathPrefix and aliasPrefix carry the
// enclosing document path without the "$." head, e.g. "address." / "address__".
func flattenStruct(t reflect.Type, pathPrefix, aliasPrefix string, visited map[reflect.Type]bool) ([]FieldDescriptor, error) {
	if visited[t] {
		return nil, fmt.Errorf("%w: %s nests itself", ErrCyclicSchema, t)
	}
	visited[t] = true
	defer delete(visited, t)

	var out []FieldDescriptor

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)

		if f.Anonymous && !f.IsExported() {
			continue
		}
		if f.Anonymous && f.Tag.Get("json") == "" {
			et := f.Type
			for et.Kind() == reflect.Pointer {
				et = et.Elem()
			}
			if et.Kind() == reflect.Struct && !isLeafStruct(et) {
				// Embedded records flatten inline, matching encoding/json.
				inner, err := flattenStruct(et, pathPrefix, aliasPrefix, visited)
				if err != nil {
					return nil, err
				}
				out = append(out, inner...)
				continue
			}
		}

		if !f.IsExported() {
			continue
		}

		jsonName, jsonSkip := jsonFieldName(f)
		rawTag := f.Tag.Get(tagKey)
		if rawTag == "-" {
			continue
		}

		var rt romTag
		if rawTag != "" {
			var err error
			rt, err = parseRomTag(rawTag, f.Name)
			if err != nil {
				return nil, err
			}
		}

		if jsonSkip {
			if rt.indexed {
				return nil, fmt.Errorf("%w: field %s is indexed but excluded from serialization", ErrUnsupportedSchema, f.Name)
			}
			continue
		}

		// Containers of records flatten without a tag of their own; their
		// leaves carry the annotations. Everything else needs a tag to be
		// part of the schema.
		if !rt.indexed && !isRecordContainer(f.Type) {
			continue
		}

		descs, err := compileField(f, jsonName, pathPrefix, aliasPrefix, rt, visited)
		if err != nil {
			return nil, err
		}
		out = append(out, descs...)
	}

	return out, nil
}

// compileField emits the descriptor(s) for one declared field, dispatching
// on its shape.
func compileField(f reflect.StructField, jsonName, pathPrefix, aliasPrefix string, rt romTag, visited map[reflect.Type]bool) ([]FieldDescriptor, error) {
	ft := f.Type
	for ft.Kind() == reflect.Pointer {
		ft = ft.Elem()
	}

	path := pathPrefix + jsonName
	alias := aliasPrefix + sanitizeAlias(jsonName)

	// An explicit index type always yields exactly one attribute; the
	// shape only decides between the plain and multi-value path.
	if rt.hasExplicit {
		if isScalarSlice(ft) {
			path += "[*]"
		}
		return []FieldDescriptor{makeDescriptor(f.Name, alias, path, rt.explicit, rt, scalarNumericKind(elemOrSelf(ft)))}, nil
	}

	switch {
	case isLeafStruct(ft), isScalarKind(ft.Kind()), isByteSlice(ft), isFloatSlice(ft):
		it, nk, err := inferIndexType(ft, f.Name)
		if err != nil {
			return nil, err
		}
		if it == IndexVector && rt.dim == 0 {
			return nil, fmt.Errorf("%w: vector field %s needs dim=", ErrUnsupportedSchema, f.Name)
		}
		return []FieldDescriptor{makeDescriptor(f.Name, alias, path, it, rt, nk)}, nil

	case ft.Kind() == reflect.Struct:
		return flattenStruct(ft, path+".", alias+"__", visited)

	case ft.Kind() == reflect.Slice || ft.Kind() == reflect.Array:
		et := ft.Elem()
		for et.Kind() == reflect.Pointer {
			et = et.Elem()
		}
		if et.Kind() == reflect.Struct && !isLeafStruct(et) {
			return flattenStruct(et, path+"[*].", alias+"__", visited)
		}
		if et.Kind() == reflect.Slice || et.Kind() == reflect.Map {
			return nil, fmt.Errorf("%w: field %s nests containers inside an array", ErrUnsupportedSchema, f.Name)
		}
		it, nk, err := inferIndexType(et, f.Name)
		if err != nil {
			return nil, err
		}
		return []FieldDescriptor{makeDescriptor(f.Name, alias, path+"[*]", it, rt, nk)}, nil

	case ft.Kind() == reflect.Map:
		if ft.Key().Kind() != reflect.String {
			return nil, fmt.Errorf("%w: field %s has non-string map keys", ErrUnsupportedSchema, f.Name)
		}
		vt := ft.Elem()
		for vt.Kind() == reflect.Pointer {
			vt = vt.Elem()
		}
		if vt.Kind() == reflect.Struct && !isLeafStruct(vt) {
			inner, err := flattenStruct(vt, path+".*.", alias+"__", visited)
			if err != nil {
				return nil, err
			}
			if len(inner) > 0 {
				return inner, nil
			}
			if rt.indexed {
				// Value type exposes no indexed fields: keep the whole map
				// queryable as an opaque tag blob.
				return []FieldDescriptor{makeDescriptor(f.Name, alias, path, IndexTag, rt, numNone)}, nil
			}
			return nil, nil
		}
		return nil, fmt.Errorf("%w: field %s is a map of scalars", ErrUnsupportedSchema, f.Name)

	default:
		return nil, fmt.Errorf("%w: field %s has unindexable kind %s", ErrUnsupportedSchema, f.Name, ft.Kind())
	}
}

func makeDescriptor(name, alias, path string, it IndexType, rt romTag, nk numericKind) FieldDescriptor {
	return FieldDescriptor{
		Name:          name,
		Alias:         alias,
		QueryPath:     "$." + path,
		IndexType:     it,
		Sortable:      rt.sortable,
		Separator:     rt.separator,
		CaseSensitive: rt.caseSensitive,
		VectorDim:     rt.dim,
		VectorMetric:  rt.metric,
		numKind:       nk,
	}
}

// inferIndexType maps a scalar-ish Go type to its index type per the
// default rules: string→text, numbers→numeric, bool→tag, time→numeric
// epoch seconds, []float→vector, GeoPoint→geo, []byte→text, else text.
func inferIndexType(t reflect.Type, fieldName string) (IndexType, numericKind, error) {
	switch {
	case t == timeType || t == romTimeType:
		return IndexNumeric, numTime, nil
	case t == geoPointType:
		return IndexGeo, numNone, nil
	case isByteSlice(t):
		return IndexText, numNone, nil
	case isFloatSlice(t):
		return IndexVector, numNone, nil
	}

	switch t.Kind() {
	case reflect.String:
		return IndexText, numNone, nil
	case reflect.Bool:
		return IndexTag, numNone, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return IndexNumeric, numInt, nil
	case reflect.Float32, reflect.Float64:
		return IndexNumeric, numFloat, nil
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.UnsafePointer:
		return 0, numNone, fmt.Errorf("%w: field %s has unindexable kind %s", ErrUnsupportedSchema, fieldName, t.Kind())
	default:
		return IndexText, numNone, nil
	}
}

func scalarNumericKind(t reflect.Type) numericKind {
	switch {
	case t == timeType || t == romTimeType:
		return numTime
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return numInt
	case reflect.Float32, reflect.Float64:
		return numFloat
	default:
		return numNone
	}
}

var (
	timeType     = reflect.TypeOf(time.Time{})
	romTimeType  = reflect.TypeOf(Time{})
	geoPointType = reflect.TypeOf(GeoPoint{})
)

// isLeafStruct reports whether a struct type is indexed as a single value
// rather than flattened.
func isLeafStruct(t reflect.Type) bool {
	return t == timeType || t == romTimeType || t == geoPointType
}

func isScalarKind(k reflect.Kind) bool {
	switch k {
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func isByteSlice(t reflect.Type) bool {
	return t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8
}

func isFloatSlice(t reflect.Type) bool {
	if t.Kind() != reflect.Slice {
		return false
	}
	k := t.Elem().Kind()
	return k == reflect.Float32 || k == reflect.Float64
}

// isRecordContainer reports whether a field's type nests record leaves:
// a struct, a slice of structs or a string-keyed map of structs, after
// pointer dereference. Leaf structs like time.Time do not count.
func isRecordContainer(t reflect.Type) bool {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Struct:
		return !isLeafStruct(t)
	case reflect.Slice, reflect.Array:
		e := t.Elem()
		for e.Kind() == reflect.Pointer {
			e = e.Elem()
		}
		return e.Kind() == reflect.Struct && !isLeafStruct(e)
	case reflect.Map:
		if t.Key().Kind() != reflect.String {
			return false
		}
		v := t.Elem()
		for v.Kind() == reflect.Pointer {
			v = v.Elem()
		}
		return v.Kind() == reflect.Struct && !isLeafStruct(v)
	default:
		return false
	}
}

// isScalarSlice reports whether t is a slice whose elements index as a
// multi-value attribute ([]string, []int) rather than as one value
// ([]byte, []float32).
func isScalarSlice(t reflect.Type) bool {
	if t.Kind() != reflect.Slice && t.Kind() != reflect.Array {
		return false
	}
	if isByteSlice(t) || isFloatSlice(t) {
		return false
	}
	return isScalarKind(t.Elem().Kind())
}

func elemOrSelf(t reflect.Type) reflect.Type {
	if isScalarSlice(t) {
		return t.Elem()
	}
	return t
}

// romTag holds the parsed `rom` struct tag options for one field.
type romTag struct {
	pk          bool
	indexed     bool
	explicit    IndexType
	hasExplicit bool

	sortable      bool
	separator     string
	caseSensitive bool
	dim           int
	metric        DistanceMetric
}

func parseRomTag(tag, fieldName string) (romTag, error) {
	var rt romTag

	for _, part := range strings.Split(tag, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, val, hasVal := strings.Cut(part, "=")

		switch key {
		case "pk":
			rt.pk = true
		case "index":
			rt.indexed = true
		case "tag", "text", "numeric", "geo", "vector":
			if rt.hasExplicit {
				return rt, fmt.Errorf("%w: conflicting index types on field %s", ErrUnsupportedSchema, fieldName)
			}
			rt.indexed = true
			rt.hasExplicit = true
			rt.explicit = indexTypeByName(key)
		case "sortable":
			rt.sortable = true
		case "separator":
			if !hasVal || val == "" {
				return rt, fmt.Errorf("%w: separator needs a value on field %s", ErrUnsupportedSchema, fieldName)
			}
			rt.separator = val
		case "casesensitive":
			rt.caseSensitive = true
		case "dim":
			n, err := strconv.Atoi(val)
			if err != nil || n <= 0 {
				return rt, fmt.Errorf("%w: invalid dim %q on field %s", ErrUnsupportedSchema, val, fieldName)
			}
			rt.dim = n
		case "metric":
			switch DistanceMetric(val) {
			case DistanceL2, DistanceIP, DistanceCosine:
				rt.metric = DistanceMetric(val)
			default:
				return rt, fmt.Errorf("%w: invalid metric %q on field %s", ErrUnsupportedSchema, val, fieldName)
			}
		default:
			return rt, fmt.Errorf("%w: unknown option %q on field %s", ErrUnsupportedSchema, key, fieldName)
		}
	}

	if rt.hasExplicit && rt.explicit == IndexVector && rt.dim == 0 {
		return rt, fmt.Errorf("%w: vector field %s needs dim=", ErrUnsupportedSchema, fieldName)
	}

	return rt, nil
}

func indexTypeByName(name string) IndexType {
	switch name {
	case "tag":
		return IndexTag
	case "text":
		return IndexText
	case "numeric":
		return IndexNumeric
	case "geo":
		return IndexGeo
	default:
		return IndexVector
	}
}

// findPrimaryKey locates the `rom:"pk"` field, descending embedded
// structs. Falls back to a top-level string field named ID.
func findPrimaryKey(t reflect.Type, base []int) ([]int, string, error) {
	var path []int
	var name string

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)

		if f.Anonymous && f.IsExported() && f.Type.Kind() == reflect.Struct && !isLeafStruct(f.Type) {
			p, n, err := findPrimaryKey(f.Type, append(append([]int{}, base...), i))
			if err != nil {
				return nil, "", err
			}
			if p != nil {
				if path != nil {
					return nil, "", fmt.Errorf("%w: duplicate pk fields %s and %s", ErrUnsupportedSchema, name, n)
				}
				path, name = p, n
			}
			continue
		}

		if !f.IsExported() {
			continue
		}
		rawTag := f.Tag.Get(tagKey)
		if rawTag == "" || rawTag == "-" {
			continue
		}
		rt, err := parseRomTag(rawTag, f.Name)
		if err != nil {
			return nil, "", err
		}
		if !rt.pk {
			continue
		}
		if f.Type.Kind() != reflect.String {
			return nil, "", fmt.Errorf("%w: pk field %s must be a string", ErrUnsupportedSchema, f.Name)
		}
		if path != nil {
			return nil, "", fmt.Errorf("%w: duplicate pk fields %s and %s", ErrUnsupportedSchema, name, f.Name)
		}
		path = append(append([]int{}, base...), i)
		name = f.Name
	}

	if path == nil && len(base) == 0 {
		if f, ok := t.FieldByName("ID"); ok && f.Type.Kind() == reflect.String && f.IsExported() {
			return f.Index, "ID", nil
		}
	}

	return path, name, nil
}

// jsonFieldName resolves the document field name the same way
// encoding/json does: tag name first, Go name otherwise.
func jsonFieldName(f reflect.StructField) (string, bool) {
	tag := f.Tag.Get("json")
	if tag == "-" {
		return "", true
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		return f.Name, false
	}
	return name, false
}

// sanitizeAlias strips store-reserved characters from an attribute name.
func sanitizeAlias(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

// normalizeAlias lets callers reference nested leaves by their document
// path: dots become the alias separator, wildcards disappear.
func normalizeAlias(s string) string {
	s = strings.ReplaceAll(s, "[*]", "")
	s = strings.ReplaceAll(s, ".*", "")
	s = strings.ReplaceAll(s, ".", "__")
	return s
}
