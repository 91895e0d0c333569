package repository

import (
	"context"

	"github.com/kindred-app/kindred-backend/internal/domain"
)

type MatchRepository interface {
	GetByID(ctx context.Context, id string) (*domain.MatchRecord, error)
	// GetHistoryByUser returns every record touching the user, regardless of
	// status. The batch resolver consults this to never re-propose a pair.
	GetHistoryByUser(ctx context.Context, userID string) ([]*domain.MatchRecord, error)
	// GetVisibleByUser returns records whose visibility flag is set for the
	// caller's side.
	GetVisibleByUser(ctx context.Context, userID string) ([]*domain.MatchRecord, error)
	CountCreatedToday(ctx context.Context, userID string) (int, error)
	// CreateBatch inserts all records in a single transaction. Insertion is a
	// pure insert on the unique pair key and never overwrites; it returns the
	// number of rows actually inserted.
	CreateBatch(ctx context.Context, records []*domain.MatchRecord) (int, error)
	// UpdateConditional applies the record's current field values only if the
	// stored version still equals expectedVersion, then bumps the version.
	// Returns domain.ErrVersionConflict when the record moved underneath us.
	UpdateConditional(ctx context.Context, rec *domain.MatchRecord, expectedVersion int) error
	SetAIFields(ctx context.Context, matchID, blurb string, icebreakers []string) error
}
