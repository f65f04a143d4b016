package store

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
)

// DB is the slice of pgxpool.Pool the store needs. pgxmock's pool interface
// satisfies it too, which keeps the store testable without a live database.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store bundles all persistence operations against the matchup database.
type Store struct {
	db        DB
	logger    *logrus.Logger
	chunkSize int
}

// New creates a Store. chunkSize caps how many player identifiers one batch
// read query may carry; larger id lists are split and the results
// concatenated.
func New(db DB, chunkSize int, logger *logrus.Logger) *Store {
	if chunkSize <= 0 {
		chunkSize = 100
	}
	return &Store{db: db, logger: logger, chunkSize: chunkSize}
}

// chunkIDs splits ids into slices of at most size elements.
func chunkIDs(ids []int64, size int) [][]int64 {
	if len(ids) == 0 {
		return nil
	}
	var chunks [][]int64
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}
