package redisom

import "errors"

// Sentinel errors returned by schema compilation, predicate rendering,
// persistence and search. Wrapped errors carry detail; match with errors.Is.
var (
	// ErrNotFound is returned when no document exists for the requested id.
	ErrNotFound = errors.New("redisom: not found")

	// ErrNoPrimaryKey is returned when a record type declares no primary
	// key field and an operation needs one.
	ErrNoPrimaryKey = errors.New("redisom: no primary key field")

	// ErrFieldNotIndexed is returned when a predicate or sort references a
	// field with no schema entry.
	ErrFieldNotIndexed = errors.New("redisom: field not indexed")

	// ErrInvalidOperator is returned when an operator is applied to a field
	// whose index type cannot support it, or to an incompatible value.
	ErrInvalidOperator = errors.New("redisom: invalid operator for index type")

	// ErrUnsupportedSchema is returned when a record type cannot be
	// flattened into an index schema.
	ErrUnsupportedSchema = errors.New("redisom: unsupported schema")

	// ErrCyclicSchema is returned when nested record types form a cycle.
	ErrCyclicSchema = errors.New("redisom: cyclic schema")

	// ErrSerialization is returned when a document body cannot be encoded
	// or decoded.
	ErrSerialization = errors.New("redisom: serialization failure")

	// ErrMalformedResponse is returned when a search response does not
	// follow the expected wire shape.
	ErrMalformedResponse = errors.New("redisom: malformed search response")

	// ErrIndexOperation is returned when the store rejects an index
	// create or drop.
	ErrIndexOperation = errors.New("redisom: index operation failed")
)
