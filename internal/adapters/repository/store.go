// Package repository stores leaderboard scores and serves them ranked.
package repository

import (
	"context"
	"time"
)

// Record is one accepted leaderboard score.
type Record struct {
	ID          string
	Name        string
	Score       float64
	SubmittedAt time.Time
}

// Entry represents a ranked leaderboard row.
type Entry struct {
	Rank        int
	ID          string
	Name        string
	Score       float64
	SubmittedAt time.Time
}

// Store provides read/write access to the leaderboard.
type Store interface {
	// Insert adds a record. Returns ErrDuplicate when the ID is already stored.
	Insert(ctx context.Context, rec Record) error

	// TopN returns the top-N entries ordered by score desc; ties keep the
	// earlier submission first and share a rank.
	TopN(ctx context.Context, n int) ([]Entry, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) int

	// Close releases background resources.
	Close() error
}

// Driver names accepted by Open.
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Open builds the Store selected by driver. path is only used by the SQLite driver.
func Open(ctx context.Context, driver, path string, opts ...Option) (Store, error) {
	switch driver {
	case "", DriverMemory:
		return NewTreapStore(ctx, opts...), nil
	case DriverSQLite:
		return NewSQLiteStore(ctx, path, opts...)
	default:
		return nil, ErrUnknownDriver
	}
}

// assignRanksWithTies assigns dense ranks: equal scores share a rank and the
// next distinct score takes the following rank. entries must already be sorted.
func assignRanksWithTies(entries []Entry) {
	rank := 0
	for i := range entries {
		if i == 0 || entries[i].Score != entries[i-1].Score {
			rank++
		}
		entries[i].Rank = rank
	}
}
