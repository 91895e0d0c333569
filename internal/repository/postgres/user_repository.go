package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/kindred-app/kindred-backend/internal/domain"
	"github.com/kindred-app/kindred-backend/internal/repository"
)

type userRepository struct {
	db *sqlx.DB
}

func NewUserRepository(db *sqlx.DB) repository.UserRepository {
	return &userRepository{db: db}
}

const userColumns = `
	id, gender, seeking, relationship_goal, relationship_status, city, age,
	use_similarity, use_complementary, use_multidimensional, use_dealbreaker,
	trait_openness, trait_conscientiousness, trait_extraversion,
	trait_agreeableness, trait_neuroticism,
	attachment_style, communication_style, deal_breakers, must_haves,
	is_active, is_analysis_complete
`

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT` + userColumns + `FROM users WHERE id = $1`
	row := r.db.QueryRowContext(ctx, query, id)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (r *userRepository) ListMatchable(ctx context.Context) ([]*domain.User, error) {
	query := `SELECT` + userColumns + `
		FROM users
		WHERE is_active = true AND is_analysis_complete = true
		ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list matchable users: %w", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanUser reads a user row, folding the five nullable trait columns into a
// single optional vector: the vector exists only when all five are present.
func scanUser(row rowScanner) (*domain.User, error) {
	var (
		user                                  domain.User
		openness, conscientiousness           sql.NullFloat64
		extraversion, agreeableness, neurotic sql.NullFloat64
	)

	err := row.Scan(
		&user.ID, &user.Gender, &user.Seeking, &user.RelationshipGoal,
		&user.RelationshipStatus, &user.City, &user.Age,
		&user.UseSimilarity, &user.UseComplementary,
		&user.UseMultiDimensional, &user.UseDealBreaker,
		&openness, &conscientiousness, &extraversion, &agreeableness, &neurotic,
		&user.AttachmentStyle, &user.CommunicationStyle,
		pq.Array(&user.DealBreakers), pq.Array(&user.MustHaves),
		&user.IsActive, &user.IsAnalysisComplete,
	)
	if err != nil {
		return nil, err
	}

	if openness.Valid && conscientiousness.Valid && extraversion.Valid &&
		agreeableness.Valid && neurotic.Valid {
		user.Traits = &domain.TraitVector{
			Openness:          openness.Float64,
			Conscientiousness: conscientiousness.Float64,
			Extraversion:      extraversion.Float64,
			Agreeableness:     agreeableness.Float64,
			Neuroticism:       neurotic.Float64,
		}
	}

	return &user, nil
}
