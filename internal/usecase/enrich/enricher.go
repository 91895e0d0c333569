package enrich

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/kindred-app/kindred-backend/internal/domain"
	"github.com/kindred-app/kindred-backend/internal/logger"
	"github.com/kindred-app/kindred-backend/internal/repository"
)

// Generator produces conversation material for a fresh love match.
type Generator interface {
	GenerateMatchBlurb(ctx context.Context, reason1, reason2 string) (string, error)
	GenerateIcebreakers(ctx context.Context, reason1, reason2 string) ([]string, error)
}

// Enricher decorates love matches with an AI blurb and icebreakers in the
// background. Results are written straight to the match row; any failure
// just logs, the match itself is already committed.
type Enricher struct {
	gen     Generator
	matches repository.MatchRepository
	log     *slog.Logger
	wg      sync.WaitGroup
}

func NewEnricher(gen Generator, matches repository.MatchRepository) *Enricher {
	return &Enricher{
		gen:     gen,
		matches: matches,
		log:     logger.With("component", "enrich"),
	}
}

func (e *Enricher) EnrichLoveMatch(ctx context.Context, rec *domain.MatchRecord) {
	if e.gen == nil {
		return
	}
	matchID := rec.ID
	reason1, reason2 := rec.Reason1, rec.Reason2

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		gctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
		defer cancel()

		blurb, err := e.gen.GenerateMatchBlurb(gctx, reason1, reason2)
		if err != nil {
			e.log.Warn("blurb generation failed", "match_id", matchID, "error", err)
			return
		}
		icebreakers, err := e.gen.GenerateIcebreakers(gctx, reason1, reason2)
		if err != nil {
			e.log.Warn("icebreaker generation failed", "match_id", matchID, "error", err)
			icebreakers = nil
		}

		if err := e.matches.SetAIFields(gctx, matchID, blurb, icebreakers); err != nil {
			e.log.Warn("failed to store ai fields", "match_id", matchID, "error", err)
			return
		}
		e.log.Info("love match enriched", "match_id", matchID, "icebreakers", len(icebreakers))
	}()
}

// Wait blocks until in-flight enrichments finish; used on shutdown and in
// tests.
func (e *Enricher) Wait() {
	e.wg.Wait()
}
