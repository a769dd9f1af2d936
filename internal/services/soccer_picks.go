package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/picksrocket/picksrocket/internal/config"
	"github.com/picksrocket/picksrocket/internal/picks"
	"github.com/picksrocket/picksrocket/internal/providers"
	"github.com/picksrocket/picksrocket/internal/types"
	"github.com/picksrocket/picksrocket/internal/workers"
)

const (
	soccerPicksNote = "Top 6 seleccionados por credibilidad (mercado), confianza y probabilidad. Las selecciones son probabilísticas."
	soccerPicksTopN = 6
	defaultLeague   = "eng.1"
)

// SoccerPicksResult is the outcome of one soccer generation run
type SoccerPicksResult struct {
	League string             `json:"league"`
	Picks  []picks.SoccerPick `json:"picks"`
	Note   string             `json:"note"`
}

// SoccerPicksService generates one best pick per fixture across a league's
// upcoming slate.
type SoccerPicksService struct {
	edge        *providers.EdgeClient
	logger      *logrus.Logger
	fanoutLimit int
}

// NewSoccerPicksService creates the soccer pick generation service
func NewSoccerPicksService(edge *providers.EdgeClient, cfg *config.Config, logger *logrus.Logger) *SoccerPicksService {
	return &SoccerPicksService{
		edge:        edge,
		logger:      logger,
		fanoutLimit: cfg.FanoutConcurrency,
	}
}

// Generate fetches the league slate, projects every fixture with bounded
// concurrency, and returns the ranked best-per-event picks. A fixture whose
// projection call fails is skipped rather than failing the run.
func (s *SoccerPicksService) Generate(ctx context.Context, league string) (*SoccerPicksResult, error) {
	if league == "" {
		league = defaultLeague
	}

	games, err := s.edge.GamesWithOdds(ctx, types.SportSoccer, providers.GamesQuery{League: league})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch soccer games: %w", err)
	}

	results := workers.MapLimit(ctx, games, s.fanoutLimit, func(ctx context.Context, g types.Game) (*types.SoccerProjection, error) {
		return s.edge.SoccerGameProjection(ctx, g.EventID, league)
	})

	var candidates []picks.SoccerPick
	projected := 0
	for _, r := range results {
		if !r.Ok() || r.Value == nil {
			if r.Err != nil {
				s.logger.WithError(r.Err).WithField("league", league).Debug("Skipping fixture after projection failure")
			}
			continue
		}
		projected++
		candidates = append(candidates, picks.BuildSoccerCandidates(*r.Value)...)
	}

	best := picks.DedupeByEventBest(candidates)
	picks.RankSoccerPicks(best)
	if len(best) > soccerPicksTopN {
		best = best[:soccerPicksTopN]
	}
	if best == nil {
		best = []picks.SoccerPick{}
	}

	s.logger.WithFields(logrus.Fields{
		"league":     league,
		"games":      len(games),
		"projected":  projected,
		"candidates": len(candidates),
		"picks":      len(best),
	}).Info("Generated soccer picks")

	return &SoccerPicksResult{League: league, Picks: best, Note: soccerPicksNote}, nil
}

// Tournaments lists the selectable soccer competitions
func (s *SoccerPicksService) Tournaments(ctx context.Context) ([]types.SoccerTournament, error) {
	return s.edge.SoccerTournaments(ctx)
}
