package redisom

import (
	"fmt"
	"strconv"
	"strings"
)

// Field is a typed reference to an indexed attribute of record type T.
// The schema lookup happens when a predicate renders, so constructing a
// reference to a missing field is legal until the query compiles.
type Field[T any] struct {
	name string
}

// F references an indexed field of T by alias or dotted path:
// F[User]("email"), F[User]("address.city").
func F[T any](name string) Field[T] {
	return Field[T]{name: name}
}

func (f Field[T]) descriptor() (*FieldDescriptor, error) {
	s, err := Model[T]()
	if err != nil {
		return nil, err
	}
	fd, ok := s.Field(f.name)
	if !ok {
		return nil, fmt.Errorf("%w: %s has no indexed field %q", ErrFieldNotIndexed, s.TypeName(), f.name)
	}
	return fd, nil
}

func (f Field[T]) numericDescriptor() (*FieldDescriptor, error) {
	fd, err := f.descriptor()
	if err != nil {
		return nil, err
	}
	if fd.IndexType != IndexNumeric {
		return nil, fmt.Errorf("%w: range operator on %s field %s", ErrInvalidOperator, fd.IndexType, fd.Alias)
	}
	return fd, nil
}

// Eq matches records whose field equals v.
func (f Field[T]) Eq(v any) Predicate[T] {
	return newPredicate[T](func() (string, error) {
		fd, err := f.descriptor()
		if err != nil {
			return "", err
		}
		return renderEq(fd, v)
	})
}

// Neq matches records whose field does not equal v.
func (f Field[T]) Neq(v any) Predicate[T] {
	return newPredicate[T](func() (string, error) {
		fd, err := f.descriptor()
		if err != nil {
			return "", err
		}
		s, err := renderEq(fd, v)
		if err != nil {
			return "", err
		}
		return "-" + s, nil
	})
}

// Gt matches records whose numeric field is strictly greater than v.
func (f Field[T]) Gt(v any) Predicate[T] {
	return f.rangeFrom(v, true)
}

// Gte matches records whose numeric field is greater than or equal to v.
func (f Field[T]) Gte(v any) Predicate[T] {
	return f.rangeFrom(v, false)
}

// Lt matches records whose numeric field is strictly less than v.
func (f Field[T]) Lt(v any) Predicate[T] {
	return f.rangeTo(v, true)
}

// Lte matches records whose numeric field is less than or equal to v.
func (f Field[T]) Lte(v any) Predicate[T] {
	return f.rangeTo(v, false)
}

// Between matches records whose numeric field lies in [lo, hi].
func (f Field[T]) Between(lo, hi any) Predicate[T] {
	return newPredicate[T](func() (string, error) {
		fd, err := f.numericDescriptor()
		if err != nil {
			return "", err
		}
		loLit, err := numericLiteral(fd, lo)
		if err != nil {
			return "", err
		}
		hiLit, err := numericLiteral(fd, hi)
		if err != nil {
			return "", err
		}
		return rangeQuery(fd, loLit.text, hiLit.text), nil
	})
}

// In matches records whose field equals any of the given values.
func (f Field[T]) In(vs ...any) Predicate[T] {
	return newPredicate[T](func() (string, error) {
		fd, err := f.descriptor()
		if err != nil {
			return "", err
		}
		if len(vs) == 0 {
			return "", fmt.Errorf("%w: membership on %s needs at least one value", ErrInvalidOperator, fd.Alias)
		}
		if fd.IndexType == IndexTag {
			terms := make([]string, 0, len(vs))
			for _, v := range vs {
				t, err := renderTerm(fd, v)
				if err != nil {
					return "", err
				}
				terms = append(terms, t)
			}
			return "@" + fd.Alias + ":{" + strings.Join(terms, "|") + "}", nil
		}
		parts := make([]string, 0, len(vs))
		for _, v := range vs {
			s, err := renderEq(fd, v)
			if err != nil {
				return "", err
			}
			parts = append(parts, s)
		}
		if len(parts) == 1 {
			return parts[0], nil
		}
		return "(" + strings.Join(parts, " | ") + ")", nil
	})
}

// GeoWithin matches records whose geo field lies within radius of center.
func (f Field[T]) GeoWithin(center GeoPoint, radius float64, unit GeoUnit) Predicate[T] {
	return newPredicate[T](func() (string, error) {
		fd, err := f.descriptor()
		if err != nil {
			return "", err
		}
		if fd.IndexType != IndexGeo {
			return "", fmt.Errorf("%w: geo operator on %s field %s", ErrInvalidOperator, fd.IndexType, fd.Alias)
		}
		if !unit.valid() {
			return "", fmt.Errorf("%w: unknown geo unit %q", ErrInvalidOperator, unit)
		}
		return "@" + fd.Alias + ":[" +
			strconv.FormatFloat(center.Longitude, 'f', -1, 64) + " " +
			strconv.FormatFloat(center.Latitude, 'f', -1, 64) + " " +
			strconv.FormatFloat(radius, 'f', -1, 64) + " " +
			string(unit) + "]", nil
	})
}

func (f Field[T]) rangeFrom(v any, strict bool) Predicate[T] {
	return newPredicate[T](func() (string, error) {
		fd, err := f.numericDescriptor()
		if err != nil {
			return "", err
		}
		lit, err := numericLiteral(fd, v)
		if err != nil {
			return "", err
		}
		return rangeQuery(fd, lit.lowerBound(strict), "+inf"), nil
	})
}

func (f Field[T]) rangeTo(v any, strict bool) Predicate[T] {
	return newPredicate[T](func() (string, error) {
		fd, err := f.numericDescriptor()
		if err != nil {
			return "", err
		}
		lit, err := numericLiteral(fd, v)
		if err != nil {
			return "", err
		}
		return rangeQuery(fd, "-inf", lit.upperBound(strict)), nil
	})
}

func renderEq(fd *FieldDescriptor, v any) (string, error) {
	term, err := renderTerm(fd, v)
	if err != nil {
		return "", err
	}
	switch fd.IndexType {
	case IndexTag:
		return "(@" + fd.Alias + ":{" + term + "})", nil
	case IndexNumeric:
		return "@" + fd.Alias + ":[" + term + " " + term + "]", nil
	default:
		return "@" + fd.Alias + ":(" + term + ")", nil
	}
}

func rangeQuery(fd *FieldDescriptor, min, max string) string {
	return "@" + fd.Alias + ":[" + min + " " + max + "]"
}
