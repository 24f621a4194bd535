package db

import (
	"context"
	"time"
)

// Store is the full command boundary against the document store.
// Consumers depend on the narrow sub-interfaces, never on Store itself.
type Store interface {
	Pinger
	DocumentStore
	IndexAdmin
	Searcher
	Close()
}

// Pinger checks store connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// DocumentStore provides JSON document and key operations.
type DocumentStore interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	JSONDel(ctx context.Context, key, path string) error
	Del(ctx context.Context, key string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// IndexAdmin provides FT index lifecycle operations.
type IndexAdmin interface {
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	DropIndex(ctx context.Context, name string) error
	ListIndexes(ctx context.Context) ([]string, error)
	IndexInfo(ctx context.Context, name string) (*IndexInfo, error)
}

// Searcher executes FT.SEARCH queries.
type Searcher interface {
	Search(ctx context.Context, q *SearchQuery) (*SearchResult, error)
}

// CommandObserver is notified after every store command with the command
// name, its duration, and the resulting error (nil on success).
type CommandObserver interface {
	ObserveCommand(op string, elapsed time.Duration, err error)
}

// SearchQuery describes a single FT.SEARCH invocation.
type SearchQuery struct {
	Index string
	Query string

	// SortBy orders results by an index attribute alias when non-empty.
	SortBy   string
	SortDesc bool

	// Result window. Limit 0 with Offset 0 asks for the match count only.
	Offset int
	Limit  int

	// Params are name/value pairs passed via PARAMS (vector blobs).
	// Dialect is emitted when > 0; parameterized queries require dialect 2.
	Params  []string
	Dialect int
}

// SearchDoc is one (key, fields) pair of a search response. For indexes over
// JSON documents the serialized document rides under the "$" field.
type SearchDoc struct {
	Key    string
	Fields map[string]string
}

// SearchResult is the decoded shape of an FT.SEARCH reply.
type SearchResult struct {
	Total int64
	Docs  []SearchDoc
}

// DocRootField is the field name carrying the serialized JSON document in
// search responses over JSON indexes.
const DocRootField = "$"
