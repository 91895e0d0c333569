package repository

import (
	"context"

	"github.com/kindred-app/kindred-backend/internal/domain"
)

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// ListMatchable returns the daily-batch pool: users that are active and
	// have completed personality analysis.
	ListMatchable(ctx context.Context) ([]*domain.User, error)
}
