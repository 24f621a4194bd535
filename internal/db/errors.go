package db

import "errors"

// Sentinel errors for store operations.
var (
	ErrKeyNotFound   = errors.New("db: key not found")
	ErrIndexNotFound = errors.New("db: index not found")
	ErrIndexExists   = errors.New("db: index already exists")
)

// Op constants map to store command names for error context.
const (
	OpPing     = "PING"
	OpJSONSet  = "JSON.SET"
	OpJSONGet  = "JSON.GET"
	OpJSONDel  = "JSON.DEL"
	OpDel      = "DEL"
	OpScan     = "SCAN"
	OpFTCreate = "FT.CREATE"
	OpFTDrop   = "FT.DROPINDEX"
	OpFTList   = "FT._LIST"
	OpFTInfo   = "FT.INFO"
	OpFTSearch = "FT.SEARCH"
)

// Error wraps an underlying error with the command name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
