package redisom

import (
	"encoding/binary"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// tagEscaper backslash-prefixes the store's reserved punctuation inside
// tag literals. Text, geo and vector literals pass through unescaped.
var tagEscaper = strings.NewReplacer(
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	" ", "\\ ",
)

func escapeTag(s string) string {
	return tagEscaper.Replace(s)
}

// renderTerm converts a value into the exact-match literal for the
// field's index type.
func renderTerm(fd *FieldDescriptor, v any) (string, error) {
	switch fd.IndexType {
	case IndexTag:
		s, err := stringifyScalar(v)
		if err != nil {
			return "", fmt.Errorf("%w: field %s: %v", ErrInvalidOperator, fd.Alias, err)
		}
		return escapeTag(s), nil
	case IndexNumeric:
		lit, err := numericLiteral(fd, v)
		if err != nil {
			return "", err
		}
		return lit.text, nil
	default:
		s, err := stringifyScalar(v)
		if err != nil {
			return "", fmt.Errorf("%w: field %s: %v", ErrInvalidOperator, fd.Alias, err)
		}
		return s, nil
	}
}

// stringifyScalar renders a scalar value without escaping.
func stringifyScalar(v any) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case []byte:
		return string(s), nil
	case bool:
		return strconv.FormatBool(s), nil
	case time.Time:
		return strconv.FormatInt(s.Unix(), 10), nil
	case Time:
		return strconv.FormatInt(s.Unix(), 10), nil
	case GeoPoint:
		return s.String(), nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.String(), nil
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'g', -1, 64), nil
	default:
		return "", fmt.Errorf("value of type %T is not a scalar", v)
	}
}

// numLiteral is a rendered numeric bound plus the information strict
// inequalities need: integer bounds shift by one, fractional bounds use
// the store's open-interval prefix.
type numLiteral struct {
	text  string
	isInt bool
	i     int64
	f     float64
}

func numericLiteral(fd *FieldDescriptor, v any) (numLiteral, error) {
	switch n := v.(type) {
	case time.Time:
		return intLiteral(n.Unix()), nil
	case Time:
		return intLiteral(n.Unix()), nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return intLiteral(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return numLiteral{}, fmt.Errorf("%w: field %s: value %d overflows", ErrInvalidOperator, fd.Alias, u)
		}
		return intLiteral(int64(u)), nil
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		// A whole-valued float against an integer-kinded field keeps
		// integer strict-bound semantics.
		if (fd.numKind == numInt || fd.numKind == numTime) && f == math.Trunc(f) &&
			f >= math.MinInt64 && f <= math.MaxInt64 {
			return intLiteral(int64(f)), nil
		}
		return numLiteral{
			text: strconv.FormatFloat(f, 'g', -1, 64),
			f:    f,
		}, nil
	default:
		return numLiteral{}, fmt.Errorf("%w: field %s: value of type %T is not numeric", ErrInvalidOperator, fd.Alias, v)
	}
}

func intLiteral(i int64) numLiteral {
	return numLiteral{text: strconv.FormatInt(i, 10), isInt: true, i: i, f: float64(i)}
}

// lowerBound renders the min side of a range: strict integer bounds shift
// up by one, strict fractional bounds use the open-interval prefix.
func (n numLiteral) lowerBound(strict bool) string {
	if !strict {
		return n.text
	}
	if n.isInt {
		return strconv.FormatInt(n.i+1, 10)
	}
	return "(" + n.text
}

// upperBound renders the max side of a range.
func (n numLiteral) upperBound(strict bool) string {
	if !strict {
		return n.text
	}
	if n.isInt {
		return strconv.FormatInt(n.i-1, 10)
	}
	return "(" + n.text
}

// vectorBlob renders a float vector as the little-endian FLOAT32 byte
// string PARAMS expects.
func vectorBlob(v []float32) string {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return string(buf)
}

// toFloat32Slice accepts []float32 or []float64 vector values.
func toFloat32Slice(v any) ([]float32, error) {
	switch vec := v.(type) {
	case []float32:
		return vec, nil
	case []float64:
		out := make([]float32, len(vec))
		for i, f := range vec {
			out[i] = float32(f)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("value of type %T is not a float vector", v)
	}
}
