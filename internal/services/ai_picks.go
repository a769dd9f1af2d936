package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/picksrocket/picksrocket/internal/config"
	"github.com/picksrocket/picksrocket/internal/picks"
	"github.com/picksrocket/picksrocket/internal/providers"
	"github.com/picksrocket/picksrocket/internal/types"
	"github.com/picksrocket/picksrocket/internal/workers"
)

const (
	maxReportedErrors = 20

	assumptionsNote = "Estas recomendaciones usan líneas por defecto (o overrides) si no tienes líneas reales del book para props. Ajusta 'book_line' o integra un proveedor de props para precisión."
)

// AIPicksRequest is the body of the player-prop pick generation call. NFL
// requests use Season/SeasonType/Week; NBA requests require an 8-digit Date.
type AIPicksRequest struct {
	Season        int                `json:"season"`
	SeasonType    int                `json:"season_type"`
	Week          int                `json:"week"`
	Date          string             `json:"date"`
	MaxGames      int                `json:"max_games"`
	PicksCount    int                `json:"picks_count"`
	LinesOverride map[string]float64 `json:"lines_override"`
}

// AIPicksDiagnostics counts what happened during one generation run
type AIPicksDiagnostics struct {
	Games         int `json:"games"`
	Candidates    int `json:"candidates"`
	ProjectionsOK int `json:"projections_ok"`
	Errors        int `json:"errors"`
}

// CandidateError records one failed projection call. Failed candidates never
// occupy a pick slot; they surface here instead.
type CandidateError struct {
	Error      string `json:"error"`
	Team       string `json:"team"`
	Opp        string `json:"opp"`
	PlayerName string `json:"player_name"`
	MarketType string `json:"market_type"`
}

// AIPicksResult is the outcome of one generation run. Picks carry cover
// probability on the 0..1 scale; the HTTP layer converts for responses.
type AIPicksResult struct {
	Sport       types.Sport
	GeneratedAt time.Time
	Picks       []picks.PlayerPick
	Diagnostics AIPicksDiagnostics
	Note        string
	Errors      []CandidateError
}

// AIPicksService generates ranked player-prop picks for NFL and NBA slates
type AIPicksService struct {
	edge          *providers.EdgeClient
	logger        *logrus.Logger
	fanoutLimit   int
	picksCount    int
	nflSeason     int
	nflSeasonType int
	nflWeek       int
}

// NewAIPicksService creates the pick generation service
func NewAIPicksService(edge *providers.EdgeClient, cfg *config.Config, logger *logrus.Logger) *AIPicksService {
	return &AIPicksService{
		edge:          edge,
		logger:        logger,
		fanoutLimit:   cfg.FanoutConcurrency,
		picksCount:    cfg.PicksCount,
		nflSeason:     cfg.NFLSeason,
		nflSeasonType: cfg.NFLSeasonType,
		nflWeek:       cfg.NFLWeek,
	}
}

type candidate struct {
	game       types.Game
	team       string
	opp        string
	player     types.RosterPlayer
	marketType string
	bookLine   float64
}

type teamPair struct {
	game types.Game
	team string
	opp  string
}

// Generate runs the full pipeline: slate fetch, roster fan-out, candidate
// construction, projection fan-out, scoring, ranking, selection.
func (s *AIPicksService) Generate(ctx context.Context, sport types.Sport, req AIPicksRequest) (*AIPicksResult, error) {
	if sport != types.SportNFL && sport != types.SportNBA {
		return nil, fmt.Errorf("unsupported sport %q", sport)
	}

	picksCount := req.PicksCount
	if picksCount <= 0 {
		picksCount = s.picksCount
	}

	season := req.Season
	seasonType := req.SeasonType
	week := req.Week
	if season <= 0 {
		season = s.nflSeason
	}
	if seasonType <= 0 {
		seasonType = s.nflSeasonType
	}
	if week <= 0 {
		week = s.nflWeek
	}

	var query providers.GamesQuery
	if sport == types.SportNFL {
		query = providers.GamesQuery{Season: season, SeasonType: seasonType, Week: week}
	} else {
		if len(req.Date) < 8 {
			return nil, fmt.Errorf("nba requires date in YYYYMMDD: %w", ErrInvalidRequest)
		}
		query = providers.GamesQuery{Date: req.Date}
		// Upstream rejects season_type/week below 1 on NBA calls.
		if seasonType < 1 {
			seasonType = 1
		}
		if week < 1 {
			week = 1
		}
	}

	games, err := s.edge.GamesWithOdds(ctx, sport, query)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch games: %w", err)
	}

	result := &AIPicksResult{
		Sport:       sport,
		GeneratedAt: time.Now().UTC(),
		Picks:       []picks.PlayerPick{},
		Note:        assumptionsNote,
		Errors:      []CandidateError{},
	}
	result.Diagnostics.Games = len(games)

	if len(games) == 0 {
		return result, nil
	}
	if req.MaxGames > 0 && len(games) > req.MaxGames {
		games = games[:req.MaxGames]
		result.Diagnostics.Games = len(games)
	}

	pairs := buildTeamPairs(games)
	rosters := s.fetchRosters(ctx, sport, pairs)

	candidates := s.buildCandidates(sport, pairs, rosters, req.LinesOverride)
	result.Diagnostics.Candidates = len(candidates)
	if len(candidates) == 0 {
		return result, nil
	}

	results := workers.MapLimit(ctx, candidates, s.fanoutLimit, func(ctx context.Context, c candidate) (picks.PlayerPick, error) {
		return s.projectCandidate(ctx, sport, c, season, seasonType, week)
	})

	okPicks := make([]picks.PlayerPick, 0, len(results))
	for _, r := range results {
		if r.Ok() {
			okPicks = append(okPicks, r.Value)
			continue
		}
		if len(result.Errors) < maxReportedErrors {
			c := candidates[r.Index]
			result.Errors = append(result.Errors, CandidateError{
				Error:      r.Err.Error(),
				Team:       c.team,
				Opp:        c.opp,
				PlayerName: c.player.Name,
				MarketType: c.marketType,
			})
		}
	}
	result.Diagnostics.ProjectionsOK = len(okPicks)
	result.Diagnostics.Errors = len(result.Errors)

	picks.RankPicks(okPicks)
	result.Picks = picks.SelectTopN(okPicks, picksCount)

	s.logger.WithFields(logrus.Fields{
		"sport":          string(sport),
		"games":          result.Diagnostics.Games,
		"candidates":     result.Diagnostics.Candidates,
		"projections_ok": result.Diagnostics.ProjectionsOK,
		"errors":         result.Diagnostics.Errors,
		"picks":          len(result.Picks),
	}).Info("Generated AI picks")

	return result, nil
}

func buildTeamPairs(games []types.Game) []teamPair {
	pairs := make([]teamPair, 0, len(games)*2)
	for _, g := range games {
		if g.HomeTeam == nil || g.AwayTeam == nil {
			continue
		}
		h, a := g.HomeTeam.Abbr, g.AwayTeam.Abbr
		if h == "" || a == "" {
			continue
		}
		pairs = append(pairs, teamPair{game: g, team: h, opp: a})
		pairs = append(pairs, teamPair{game: g, team: a, opp: h})
	}
	return pairs
}

// fetchRosters loads each distinct team's roster once per run. A failed
// roster fetch maps the team to nil so its candidates are simply skipped.
func (s *AIPicksService) fetchRosters(ctx context.Context, sport types.Sport, pairs []teamPair) map[string][]types.RosterPlayer {
	seen := make(map[string]bool, len(pairs))
	teams := make([]string, 0, len(pairs))
	for _, tp := range pairs {
		if !seen[tp.team] {
			seen[tp.team] = true
			teams = append(teams, tp.team)
		}
	}

	results := workers.MapLimit(ctx, teams, s.fanoutLimit, func(ctx context.Context, team string) ([]types.RosterPlayer, error) {
		return s.edge.TeamRoster(ctx, sport, team)
	})

	rosters := make(map[string][]types.RosterPlayer, len(teams))
	for i, r := range results {
		if r.Ok() {
			rosters[teams[i]] = r.Value
		} else {
			s.logger.WithError(r.Err).WithField("team", teams[i]).Warn("Failed to fetch roster")
			rosters[teams[i]] = nil
		}
	}
	return rosters
}

func (s *AIPicksService) buildCandidates(sport types.Sport, pairs []teamPair, rosters map[string][]types.RosterPlayer, linesOverride map[string]float64) []candidate {
	var candidates []candidate
	for _, tp := range pairs {
		for _, p := range picks.KeyPlayers(rosters[tp.team], sport) {
			market := picks.FindPlayerMarketType(sport, p.Position)
			if market == picks.MarketUnknown {
				continue
			}
			bookLine := picks.DefaultLine(sport, market)
			if override, ok := linesOverride[market]; ok && override != 0 {
				bookLine = override
			}
			candidates = append(candidates, candidate{
				game:       tp.game,
				team:       tp.team,
				opp:        tp.opp,
				player:     p,
				marketType: market,
				bookLine:   bookLine,
			})
		}
	}
	return candidates
}

func (s *AIPicksService) projectCandidate(ctx context.Context, sport types.Sport, c candidate, season, seasonType, week int) (picks.PlayerPick, error) {
	payload, err := s.edge.AutoProjectionReport(ctx, sport, providers.ProjectionRequest{
		Sport:        string(sport),
		AthleteID:    c.player.AthleteID.String(),
		EventID:      c.game.EventID,
		Season:       season,
		SeasonType:   seasonType,
		Week:         week,
		PlayerName:   c.player.Name,
		PlayerTeam:   c.team,
		OpponentTeam: c.opp,
		Position:     c.player.Position,
		MarketType:   c.marketType,
		BookLine:     c.bookLine,
	})
	if err != nil {
		return picks.PlayerPick{}, err
	}

	summary := picks.SummarizeProjection(payload)
	margin := picks.DirectionAndMargin(summary.ProjectedValue, summary.BookLine)
	effectivePct := picks.EffectiveMarginPct(summary.SafetyMarginPct, margin.Pct)

	pick := picks.PlayerPick{
		Matchup:         c.game.Matchup,
		EventID:         c.game.EventID,
		Team:            c.team,
		Opp:             c.opp,
		AthleteID:       c.player.AthleteID.String(),
		PlayerName:      c.player.Name,
		Position:        c.player.Position,
		MarketType:      c.marketType,
		BookLine:        summary.BookLine,
		Projection:      summary.ProjectedValue,
		Edge:            summary.Edge,
		Direction:       margin.Direction,
		MarginAbs:       margin.Abs,
		MarginPct:       effectivePct,
		ProbCover:       picks.EstimateProbCover(effectivePct),
		Confidence:      picks.ConfidenceFromMargin(effectivePct),
		Tier:            summary.Tier,
		SafetyMarginPct: summary.SafetyMarginPct,
		Raw:             payload,
	}
	if c.game.Odds != nil {
		pick.Provider = c.game.Odds.Provider
		pick.Details = c.game.Odds.Details
		pick.OverUnder = c.game.Odds.OverUnder
	}
	return pick, nil
}
