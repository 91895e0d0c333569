package batch

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/kindred-app/kindred-backend/internal/domain"
	"github.com/kindred-app/kindred-backend/internal/logger"
	"github.com/kindred-app/kindred-backend/internal/repository"
	"github.com/kindred-app/kindred-backend/internal/usecase/matching"
)

// Locker guards against overlapping sweeps. Acquire returns false when
// another run already holds the lock.
type Locker interface {
	Acquire(ctx context.Context, ttl time.Duration) (bool, error)
	Release(ctx context.Context) error
}

// Summary reports what one sweep produced.
type Summary struct {
	UsersProcessed int           `json:"users_processed"`
	RecordsCreated int           `json:"records_created"`
	MutualMatches  int           `json:"mutual_matches"`
	OneWayMatches  int           `json:"one_way_matches"`
	Duration       time.Duration `json:"-"`
	DurationMS     int64         `json:"duration_ms"`
}

type Config struct {
	DailyLimit     int
	ScoreThreshold int
	RunLockTTL     time.Duration
}

// Resolver runs the daily sweep: score every eligible pair per user, keep
// proposals above the threshold up to each user's remaining daily slots,
// then reconcile the surviving proposals into match records.
type Resolver struct {
	users   repository.UserRepository
	matches repository.MatchRepository
	locker  Locker
	cfg     Config
	log     *slog.Logger
	now     func() time.Time
}

func NewResolver(users repository.UserRepository, matches repository.MatchRepository, locker Locker, cfg Config) *Resolver {
	return &Resolver{
		users:   users,
		matches: matches,
		locker:  locker,
		cfg:     cfg,
		log:     logger.With("component", "batch"),
		now:     time.Now,
	}
}

// BaseConfig exposes the configured defaults so callers can build per-run
// overrides on top of them.
func (r *Resolver) BaseConfig() Config {
	return r.cfg
}

// Run executes one sweep with the configured defaults.
func (r *Resolver) Run(ctx context.Context) (*Summary, error) {
	return r.RunWith(ctx, r.cfg)
}

// RunWith executes one sweep with explicit settings. A per-user failure
// skips that user and the sweep continues; only pool-level failures abort
// the run.
func (r *Resolver) RunWith(ctx context.Context, cfg Config) (*Summary, error) {
	if r.locker != nil {
		ok, err := r.locker.Acquire(ctx, cfg.RunLockTTL)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, domain.ErrBatchRunning
		}
		defer func() {
			if err := r.locker.Release(context.WithoutCancel(ctx)); err != nil {
				r.log.Warn("failed to release run lock", "error", err)
			}
		}()
	}

	start := r.now()
	r.log.Info("batch sweep started",
		"daily_limit", cfg.DailyLimit, "score_threshold", cfg.ScoreThreshold)

	pool, err := r.users.ListMatchable(ctx)
	if err != nil {
		return nil, err
	}

	summary := &Summary{}
	byPair := make(map[string][]matching.Proposal)

	for _, user := range pool {
		proposals, err := r.proposalsFor(ctx, user, pool, cfg)
		if err != nil {
			r.log.Warn("skipping user in sweep", "user_id", user.ID, "error", err)
			continue
		}
		summary.UsersProcessed++
		for _, p := range proposals {
			key := p.PairKey()
			byPair[key] = append(byPair[key], p)
		}
	}

	records := r.reconcile(byPair, start)
	for _, rec := range records {
		if rec.Type == domain.MatchTypeMutual {
			summary.MutualMatches++
		} else {
			summary.OneWayMatches++
		}
	}

	created, err := r.matches.CreateBatch(ctx, records)
	if err != nil {
		return nil, err
	}
	summary.RecordsCreated = created
	summary.Duration = r.now().Sub(start)
	summary.DurationMS = summary.Duration.Milliseconds()

	r.log.Info("batch sweep finished",
		"users_processed", summary.UsersProcessed,
		"records_created", summary.RecordsCreated,
		"mutual", summary.MutualMatches,
		"one_way", summary.OneWayMatches,
		"duration", summary.Duration)
	return summary, nil
}

// proposalsFor produces one user's ranked, slot-limited proposals.
func (r *Resolver) proposalsFor(ctx context.Context, user *domain.User, pool []*domain.User, cfg Config) ([]matching.Proposal, error) {
	createdToday, err := r.matches.CountCreatedToday(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	slots := cfg.DailyLimit - createdToday
	if slots <= 0 {
		return nil, nil
	}

	history, err := r.matches.GetHistoryByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	candidates := matching.EligibleCandidates(user, pool, history)

	var proposals []matching.Proposal
	for _, cand := range candidates {
		p := matching.Evaluate(user, cand)
		if p.Score >= cfg.ScoreThreshold {
			proposals = append(proposals, p)
		}
	}

	// Highest score first; ties break on candidate id so reruns over the same
	// pool pick the same winners.
	sort.SliceStable(proposals, func(i, j int) bool {
		if proposals[i].Score != proposals[j].Score {
			return proposals[i].Score > proposals[j].Score
		}
		return proposals[i].CandidateID < proposals[j].CandidateID
	})
	if len(proposals) > slots {
		proposals = proposals[:slots]
	}
	return proposals, nil
}

// reconcile collapses proposals by pair key: both directions surviving makes
// a mutual record, a lone direction makes a one-way record proposed by its
// actor.
func (r *Resolver) reconcile(byPair map[string][]matching.Proposal, now time.Time) []*domain.MatchRecord {
	keys := make([]string, 0, len(byPair))
	for k := range byPair {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var records []*domain.MatchRecord
	for _, key := range keys {
		ps := byPair[key]
		switch len(ps) {
		case 1:
			records = append(records, r.oneWayRecord(ps[0], now))
		case 2:
			records = append(records, r.mutualRecord(ps[0], ps[1], now))
		default:
			r.log.Warn("unexpected proposal count for pair", "pair_key", key, "count", len(ps))
		}
	}
	return records
}

func (r *Resolver) mutualRecord(a, b matching.Proposal, now time.Time) *domain.MatchRecord {
	// Side 1 is the lexicographically smaller id, matching the pair key.
	if a.ActorID > b.ActorID {
		a, b = b, a
	}
	return &domain.MatchRecord{
		ID:             uuid.New().String(),
		PairKey:        domain.PairKey(a.ActorID, b.ActorID),
		User1ID:        a.ActorID,
		User2ID:        b.ActorID,
		Type:           domain.MatchTypeMutual,
		Score1:         a.Score,
		Score2:         b.Score,
		Algorithm1:     a.Algorithm,
		Algorithm2:     b.Algorithm,
		Reason1:        a.Reason,
		Reason2:        b.Reason,
		CombinedScore:  int(math.Round(float64(a.Score+b.Score) / 2)),
		Status:         domain.MatchStatusPending,
		VisibleToUser1: true,
		VisibleToUser2: true,
		CreatedAt:      now,
		Version:        1,
	}
}

func (r *Resolver) oneWayRecord(p matching.Proposal, now time.Time) *domain.MatchRecord {
	// The proposing actor is always side 1; the record stays hidden from the
	// candidate until interest is expressed.
	return &domain.MatchRecord{
		ID:             uuid.New().String(),
		PairKey:        p.PairKey(),
		User1ID:        p.ActorID,
		User2ID:        p.CandidateID,
		Type:           domain.MatchTypeOneWay,
		Score1:         p.Score,
		Algorithm1:     p.Algorithm,
		Reason1:        p.Reason,
		Status:         domain.MatchStatusPending,
		VisibleToUser1: true,
		VisibleToUser2: false,
		CreatedAt:      now,
		Version:        1,
	}
}
