// Package storage provides evidence storage backends.
//
// SQLiteStorage is the durable backend. It can run on either of two
// database/sql drivers: "sqlite" (modernc.org/sqlite, pure Go, the default
// and the only choice for CGO_ENABLED=0 builds) or "sqlite3"
// (github.com/mattn/go-sqlite3, cgo). Both share one schema, so a database
// written by one can be read by the other.
//
// MemoryStorage keeps records in a map and mirrors the SQLite filter and
// sort semantics.
//
// Use New to build the backend named in configuration:
//
//	store, err := storage.New(cfg.Evidence, logger)
package storage
