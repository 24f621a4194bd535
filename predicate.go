package redisom

import "strings"

// Predicate is a lazily compiled filter over documents of type T.
// Construction never fails; invalid fields or operators surface as an
// error when the predicate renders into query syntax.
type Predicate[T any] struct {
	render func() (string, error)
}

func newPredicate[T any](fn func() (string, error)) Predicate[T] {
	return Predicate[T]{render: fn}
}

// Render compiles the predicate into search query syntax.
func (p Predicate[T]) Render() (string, error) {
	if p.render == nil {
		return "*", nil
	}
	return p.render()
}

// Raw wraps a hand-written query fragment as a predicate. The fragment
// is passed to the engine verbatim.
func Raw[T any](query string) Predicate[T] {
	return newPredicate[T](func() (string, error) {
		return query, nil
	})
}

// And matches documents satisfying every given predicate.
func And[T any](ps ...Predicate[T]) Predicate[T] {
	return joinPredicates(" ", ps)
}

// Or matches documents satisfying at least one of the given predicates.
func Or[T any](ps ...Predicate[T]) Predicate[T] {
	return joinPredicates(" | ", ps)
}

// Not negates a predicate.
func Not[T any](p Predicate[T]) Predicate[T] {
	return newPredicate[T](func() (string, error) {
		s, err := p.Render()
		if err != nil {
			return "", err
		}
		return "(-" + s + ")", nil
	})
}

// And combines this predicate with more conjuncts.
func (p Predicate[T]) And(qs ...Predicate[T]) Predicate[T] {
	return And(append([]Predicate[T]{p}, qs...)...)
}

// Or combines this predicate with more alternatives.
func (p Predicate[T]) Or(qs ...Predicate[T]) Predicate[T] {
	return Or(append([]Predicate[T]{p}, qs...)...)
}

// Not negates this predicate.
func (p Predicate[T]) Not() Predicate[T] {
	return Not(p)
}

func joinPredicates[T any](sep string, ps []Predicate[T]) Predicate[T] {
	switch len(ps) {
	case 0:
		return newPredicate[T](func() (string, error) { return "*", nil })
	case 1:
		return ps[0]
	}
	return newPredicate[T](func() (string, error) {
		parts := make([]string, 0, len(ps))
		for _, p := range ps {
			s, err := p.Render()
			if err != nil {
				return "", err
			}
			parts = append(parts, s)
		}
		return "(" + strings.Join(parts, sep) + ")", nil
	})
}
