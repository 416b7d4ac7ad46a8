package handlers

import (
	"database/sql"

	"github.com/Dreamsoft-CPU/rawmats-api/internal/chat"
	"github.com/Dreamsoft-CPU/rawmats-api/internal/geo"
	"github.com/Dreamsoft-CPU/rawmats-api/internal/search"
	"github.com/Dreamsoft-CPU/rawmats-api/internal/storage"
)

// Handlers holds all dependencies for the HTTP handlers.
type Handlers struct {
	DB      *sql.DB
	Storage storage.Storage
	Hub     *chat.Hub      // realtime message push
	Geo     *geo.Client    // geocoding proxy upstream
	Search  *search.Syncer // best-effort search index sync
}

// Querier is the common subset of *sql.DB and *sql.Tx used by the shared
// read helpers, so they work both in and out of a transaction.
type Querier interface {
	QueryRow(query string, args ...interface{}) *sql.Row
}
