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

type matchRepository struct {
	db *sqlx.DB
}

func NewMatchRepository(db *sqlx.DB) repository.MatchRepository {
	return &matchRepository{db: db}
}

const matchColumns = `
	id, pair_key, user1_id, user2_id, match_type,
	score1, score2, algorithm1, algorithm2, reason1, reason2, combined_score,
	action1, action2,
	second_chance_offered1, second_chance_offered2,
	second_chance_response1, second_chance_response2,
	user1_expressed_interest, user2_notified_of_interest,
	match_status, chat_unlocked, visible_to_user1, visible_to_user2,
	last_action_by, last_action_at, total_interactions,
	created_at, interest_expressed_at, love_at, deleted_at, deleted_reason,
	notification_pending_user1, notification_pending_user2,
	notification_sent_user1, notification_sent_user2,
	ai_blurb, icebreakers, version
`

func (r *matchRepository) GetByID(ctx context.Context, id string) (*domain.MatchRecord, error) {
	query := `SELECT` + matchColumns + `FROM matches WHERE id = $1`
	rec, err := scanMatch(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrMatchNotFound
		}
		return nil, mapDBErr(err)
	}
	return rec, nil
}

func (r *matchRepository) GetHistoryByUser(ctx context.Context, userID string) ([]*domain.MatchRecord, error) {
	query := `SELECT` + matchColumns + `
		FROM matches
		WHERE user1_id = $1 OR user2_id = $1
		ORDER BY created_at DESC
	`
	return r.queryMatches(ctx, query, userID)
}

func (r *matchRepository) GetVisibleByUser(ctx context.Context, userID string) ([]*domain.MatchRecord, error) {
	query := `SELECT` + matchColumns + `
		FROM matches
		WHERE (user1_id = $1 AND visible_to_user1 = true)
		   OR (user2_id = $1 AND visible_to_user2 = true)
		ORDER BY created_at DESC
	`
	return r.queryMatches(ctx, query, userID)
}

func (r *matchRepository) CountCreatedToday(ctx context.Context, userID string) (int, error) {
	var count int
	query := `
		SELECT COUNT(*) FROM matches
		WHERE (user1_id = $1 OR user2_id = $1)
		  AND created_at >= date_trunc('day', now())
	`
	if err := r.db.GetContext(ctx, &count, query, userID); err != nil {
		return 0, mapDBErr(err)
	}
	return count, nil
}

// CreateBatch persists a whole sweep's records in one transaction. The
// unique pair_key index makes insertion a pure insert: a record that raced in
// from another run is left untouched.
func (r *matchRepository) CreateBatch(ctx context.Context, records []*domain.MatchRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, mapDBErr(err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO matches (
			id, pair_key, user1_id, user2_id, match_type,
			score1, score2, algorithm1, algorithm2, reason1, reason2, combined_score,
			action1, action2,
			second_chance_offered1, second_chance_offered2,
			second_chance_response1, second_chance_response2,
			user1_expressed_interest, user2_notified_of_interest,
			match_status, chat_unlocked, visible_to_user1, visible_to_user2,
			last_action_by, total_interactions, deleted_reason,
			notification_pending_user1, notification_pending_user2,
			notification_sent_user1, notification_sent_user2,
			ai_blurb, icebreakers, version
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
		        $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26,
		        $27, $28, $29, $30, $31, $32, $33, $34)
		ON CONFLICT (pair_key) DO NOTHING
	`

	inserted := 0
	for _, m := range records {
		res, err := tx.ExecContext(ctx, query,
			m.ID, m.PairKey, m.User1ID, m.User2ID, m.Type,
			m.Score1, m.Score2, m.Algorithm1, m.Algorithm2, m.Reason1, m.Reason2, m.CombinedScore,
			m.Action1, m.Action2,
			m.SecondChanceOffered1, m.SecondChanceOffered2,
			m.SecondChanceResponse1, m.SecondChanceResponse2,
			m.User1ExpressedInterest, m.User2NotifiedOfInterest,
			m.Status, m.ChatUnlocked, m.VisibleToUser1, m.VisibleToUser2,
			m.LastActionBy, m.TotalInteractions, m.DeletedReason,
			m.NotificationPendingUser1, m.NotificationPendingUser2,
			m.NotificationSentUser1, m.NotificationSentUser2,
			m.AIBlurb, pq.Array(m.Icebreakers), m.Version,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to insert match %s: %w", m.PairKey, mapDBErr(err))
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, mapDBErr(err)
	}
	return inserted, nil
}

func (r *matchRepository) UpdateConditional(ctx context.Context, rec *domain.MatchRecord, expectedVersion int) error {
	query := `
		UPDATE matches SET
			action1 = $1, action2 = $2,
			second_chance_offered1 = $3, second_chance_offered2 = $4,
			second_chance_response1 = $5, second_chance_response2 = $6,
			user1_expressed_interest = $7, user2_notified_of_interest = $8,
			match_status = $9, chat_unlocked = $10,
			visible_to_user1 = $11, visible_to_user2 = $12,
			last_action_by = $13, last_action_at = $14, total_interactions = $15,
			interest_expressed_at = $16, love_at = $17,
			deleted_at = $18, deleted_reason = $19,
			notification_pending_user1 = $20, notification_pending_user2 = $21,
			notification_sent_user1 = $22, notification_sent_user2 = $23,
			version = version + 1
		WHERE id = $24 AND version = $25
	`
	res, err := r.db.ExecContext(ctx, query,
		rec.Action1, rec.Action2,
		rec.SecondChanceOffered1, rec.SecondChanceOffered2,
		rec.SecondChanceResponse1, rec.SecondChanceResponse2,
		rec.User1ExpressedInterest, rec.User2NotifiedOfInterest,
		rec.Status, rec.ChatUnlocked,
		rec.VisibleToUser1, rec.VisibleToUser2,
		rec.LastActionBy, rec.LastActionAt, rec.TotalInteractions,
		rec.InterestExpressedAt, rec.LoveAt,
		rec.DeletedAt, rec.DeletedReason,
		rec.NotificationPendingUser1, rec.NotificationPendingUser2,
		rec.NotificationSentUser1, rec.NotificationSentUser2,
		rec.ID, expectedVersion,
	)
	if err != nil {
		return mapDBErr(err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return mapDBErr(err)
	}
	if rows == 0 {
		// Either the record is gone or another actor got there first.
		var exists bool
		if err := r.db.GetContext(ctx, &exists,
			`SELECT EXISTS (SELECT 1 FROM matches WHERE id = $1)`, rec.ID); err != nil {
			return mapDBErr(err)
		}
		if !exists {
			return domain.ErrMatchNotFound
		}
		return domain.ErrVersionConflict
	}

	rec.Version = expectedVersion + 1
	return nil
}

func (r *matchRepository) SetAIFields(ctx context.Context, matchID, blurb string, icebreakers []string) error {
	query := `UPDATE matches SET ai_blurb = $1, icebreakers = $2 WHERE id = $3`
	res, err := r.db.ExecContext(ctx, query, blurb, pq.Array(icebreakers), matchID)
	if err != nil {
		return mapDBErr(err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return domain.ErrMatchNotFound
	}
	return nil
}

func (r *matchRepository) queryMatches(ctx context.Context, query string, args ...interface{}) ([]*domain.MatchRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapDBErr(err)
	}
	defer rows.Close()

	var records []*domain.MatchRecord
	for rows.Next() {
		rec, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func scanMatch(row rowScanner) (*domain.MatchRecord, error) {
	var m domain.MatchRecord
	err := row.Scan(
		&m.ID, &m.PairKey, &m.User1ID, &m.User2ID, &m.Type,
		&m.Score1, &m.Score2, &m.Algorithm1, &m.Algorithm2, &m.Reason1, &m.Reason2, &m.CombinedScore,
		&m.Action1, &m.Action2,
		&m.SecondChanceOffered1, &m.SecondChanceOffered2,
		&m.SecondChanceResponse1, &m.SecondChanceResponse2,
		&m.User1ExpressedInterest, &m.User2NotifiedOfInterest,
		&m.Status, &m.ChatUnlocked, &m.VisibleToUser1, &m.VisibleToUser2,
		&m.LastActionBy, &m.LastActionAt, &m.TotalInteractions,
		&m.CreatedAt, &m.InterestExpressedAt, &m.LoveAt, &m.DeletedAt, &m.DeletedReason,
		&m.NotificationPendingUser1, &m.NotificationPendingUser2,
		&m.NotificationSentUser1, &m.NotificationSentUser2,
		&m.AIBlurb, pq.Array(&m.Icebreakers), &m.Version,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// mapDBErr folds transient persistence failures into the retryable
// unavailable kind; everything else bubbles up untouched.
func mapDBErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}
	return err
}
