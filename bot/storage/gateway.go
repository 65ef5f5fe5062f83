// Package storage is the Postgres persistence gateway: profiles, sentences,
// videos, votes, and classrooms behind one sqlx-backed type.
package storage

import (
	"errors"

	"github.com/jmoiron/sqlx"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("storage: not found")

// Gateway executes all database operations for the bot.
type Gateway struct {
	db *sqlx.DB
}

// New wraps an open database handle.
func New(db *sqlx.DB) *Gateway {
	return &Gateway{db: db}
}
