package lifecycle

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kindred-app/kindred-backend/internal/domain"
	"github.com/kindred-app/kindred-backend/internal/repository"
)

// fakeMatchRepo is an in-memory repository with real compare-and-swap
// semantics, so engine retry behavior can be exercised without a database.
type fakeMatchRepo struct {
	mu      sync.Mutex
	records map[string]*domain.MatchRecord

	// beforeUpdate runs inside UpdateConditional before the version check,
	// letting tests inject a concurrent writer.
	beforeUpdate func()
}

var _ repository.MatchRepository = (*fakeMatchRepo)(nil)

func newFakeMatchRepo(records ...*domain.MatchRecord) *fakeMatchRepo {
	r := &fakeMatchRepo{records: make(map[string]*domain.MatchRecord)}
	for _, rec := range records {
		cp := *rec
		r.records[rec.ID] = &cp
	}
	return r
}

func (r *fakeMatchRepo) GetByID(_ context.Context, id string) (*domain.MatchRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return nil, domain.ErrMatchNotFound
	}
	cp := *rec
	return &cp, nil
}

func (r *fakeMatchRepo) GetHistoryByUser(_ context.Context, userID string) ([]*domain.MatchRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.MatchRecord
	for _, rec := range r.records {
		if rec.HasUser(userID) {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeMatchRepo) GetVisibleByUser(_ context.Context, userID string) ([]*domain.MatchRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.MatchRecord
	for _, rec := range r.records {
		if side := rec.SideOf(userID); side != 0 && rec.VisibleTo(side) {
			cp := *rec
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeMatchRepo) CountCreatedToday(_ context.Context, userID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, rec := range r.records {
		if rec.HasUser(userID) {
			count++
		}
	}
	return count, nil
}

func (r *fakeMatchRepo) CreateBatch(_ context.Context, records []*domain.MatchRecord) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inserted := 0
	for _, rec := range records {
		exists := false
		for _, have := range r.records {
			if have.PairKey == rec.PairKey {
				exists = true
				break
			}
		}
		if exists {
			continue
		}
		cp := *rec
		r.records[rec.ID] = &cp
		inserted++
	}
	return inserted, nil
}

func (r *fakeMatchRepo) UpdateConditional(_ context.Context, rec *domain.MatchRecord, expectedVersion int) error {
	if r.beforeUpdate != nil {
		hook := r.beforeUpdate
		r.beforeUpdate = nil
		hook()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.records[rec.ID]
	if !ok {
		return domain.ErrMatchNotFound
	}
	if stored.Version != expectedVersion {
		return domain.ErrVersionConflict
	}
	cp := *rec
	cp.Version = expectedVersion + 1
	r.records[rec.ID] = &cp
	rec.Version = cp.Version
	return nil
}

func (r *fakeMatchRepo) SetAIFields(_ context.Context, matchID, blurb string, icebreakers []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[matchID]
	if !ok {
		return domain.ErrMatchNotFound
	}
	rec.AIBlurb = blurb
	rec.Icebreakers = icebreakers
	return nil
}

type emitted struct {
	matchID string
	event   EventType
}

type fakeNotifier struct {
	mu          sync.Mutex
	events      []emitted
	retractions []string
}

func (n *fakeNotifier) Emit(_ context.Context, rec *domain.MatchRecord, event EventType) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, emitted{matchID: rec.ID, event: event})
}

func (n *fakeNotifier) ScheduleRetraction(rec *domain.MatchRecord) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.retractions = append(n.retractions, rec.ID)
}

func TestEngineLikePersistsAndEmits(t *testing.T) {
	repo := newFakeMatchRepo(mutualRecord())
	notifier := &fakeNotifier{}
	engine := NewEngine(repo, notifier, nil)

	result, err := engine.Like(context.Background(), "m1", "u1", false)
	require.NoError(t, err)
	assert.False(t, result.IsLoveMatch)

	stored, err := repo.GetByID(context.Background(), "m1")
	require.NoError(t, err)
	assert.Equal(t, domain.ActionLike, stored.Action1)
	assert.Equal(t, 2, stored.Version, "version bumps on every committed transition")

	require.Len(t, notifier.events, 1)
	assert.Equal(t, EventStatusChange, notifier.events[0].event)
}

func TestEngineRemovalSchedulesRetraction(t *testing.T) {
	repo := newFakeMatchRepo(mutualRecord())
	notifier := &fakeNotifier{}
	engine := NewEngine(repo, notifier, nil)

	_, err := engine.Pass(context.Background(), "m1", "u1", false)
	require.NoError(t, err)
	result, err := engine.Pass(context.Background(), "m1", "u2", false)
	require.NoError(t, err)

	// Closing the record must arm retraction of the pair's fan-out entries.
	assert.True(t, result.IsDeleted)
	assert.Equal(t, []string{"m1"}, notifier.retractions)
}

func TestEngineLoveMatchDoesNotRetract(t *testing.T) {
	repo := newFakeMatchRepo(mutualRecord())
	notifier := &fakeNotifier{}
	engine := NewEngine(repo, notifier, nil)

	_, err := engine.Like(context.Background(), "m1", "u1", false)
	require.NoError(t, err)
	result, err := engine.Like(context.Background(), "m1", "u2", false)
	require.NoError(t, err)

	assert.True(t, result.IsLoveMatch)
	assert.Empty(t, notifier.retractions, "love is terminal; its notifications stay")
}

func TestEngineOneWayDeclineSchedulesRetraction(t *testing.T) {
	rec := oneWayRecord()
	rec.User1ExpressedInterest = true
	rec.VisibleToUser2 = true
	repo := newFakeMatchRepo(rec)
	notifier := &fakeNotifier{}
	engine := NewEngine(repo, notifier, nil)

	result, err := engine.Pass(context.Background(), "m2", "u2", false)
	require.NoError(t, err)

	assert.True(t, result.IsDeleted)
	assert.Equal(t, []string{"m2"}, notifier.retractions)
}

func TestEngineIdempotentRepeatSkipsPersistAndEmit(t *testing.T) {
	repo := newFakeMatchRepo(mutualRecord())
	notifier := &fakeNotifier{}
	engine := NewEngine(repo, notifier, nil)

	_, err := engine.Like(context.Background(), "m1", "u1", false)
	require.NoError(t, err)
	_, err = engine.Like(context.Background(), "m1", "u1", false)
	require.NoError(t, err)

	stored, _ := repo.GetByID(context.Background(), "m1")
	assert.Equal(t, 2, stored.Version, "repeat must not bump the version")
	assert.Len(t, notifier.events, 1, "repeat must not re-emit")
}

func TestEngineRetriesOnVersionConflict(t *testing.T) {
	repo := newFakeMatchRepo(mutualRecord())
	notifier := &fakeNotifier{}
	engine := NewEngine(repo, notifier, nil)

	// A concurrent like from u2 lands between u1's read and write. The
	// engine re-reads and replays, so u1's like becomes the love-completing
	// action.
	repo.beforeUpdate = func() {
		_, err := engine.Like(context.Background(), "m1", "u2", false)
		require.NoError(t, err)
	}

	result, err := engine.Like(context.Background(), "m1", "u1", false)
	require.NoError(t, err)
	assert.True(t, result.IsLoveMatch)

	stored, _ := repo.GetByID(context.Background(), "m1")
	assert.Equal(t, domain.MatchStatusLove, stored.Status)
	assert.Equal(t, domain.ActionLike, stored.Action1)
	assert.Equal(t, domain.ActionLike, stored.Action2)
}

func TestEngineGetMatchDetails(t *testing.T) {
	repo := newFakeMatchRepo(oneWayRecord())
	engine := NewEngine(repo, &fakeNotifier{}, nil)

	details, err := engine.GetMatchDetails(context.Background(), "m2", "u1")
	require.NoError(t, err)
	assert.Equal(t, "user1", details.Side)

	// Hidden side reads as missing, stranger as forbidden.
	_, err = engine.GetMatchDetails(context.Background(), "m2", "u2")
	assert.ErrorIs(t, err, domain.ErrMatchNotFound)
	_, err = engine.GetMatchDetails(context.Background(), "m2", "stranger")
	assert.ErrorIs(t, err, domain.ErrForbidden)
	_, err = engine.GetMatchDetails(context.Background(), "missing", "u1")
	assert.ErrorIs(t, err, domain.ErrMatchNotFound)
}

func TestEngineListMatchesFiltersVisibility(t *testing.T) {
	repo := newFakeMatchRepo(mutualRecord(), oneWayRecord())
	engine := NewEngine(repo, &fakeNotifier{}, nil)

	u1Matches, err := engine.ListMatches(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, u1Matches, 2)

	u2Matches, err := engine.ListMatches(context.Background(), "u2")
	require.NoError(t, err)
	assert.Len(t, u2Matches, 1, "the unrevealed one-way record stays hidden")
}
