package services

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/picksrocket/picksrocket/internal/config"
	"github.com/picksrocket/picksrocket/internal/picks"
	"github.com/picksrocket/picksrocket/internal/providers"
	"github.com/picksrocket/picksrocket/internal/types"
	"github.com/picksrocket/picksrocket/internal/workers"
)

const (
	gamePicksNote = "Proyección de equipo (beta) usando motor de puntos por jugador + puntos de banca. Recomendado: validar líneas antes de apostar."

	fallbackAvgPoints = 20.5
	gamePicksTopN     = 6
)

var dateRe = regexp.MustCompile(`^\d{8}$`)

// GamePicksRequest configures one team-projection run. Date is YYYYMMDD.
type GamePicksRequest struct {
	Date           string   `json:"date"`
	Season         int      `json:"season"`
	SeasonType     int      `json:"season_type"`
	Week           int      `json:"week"`
	MaxGames       int      `json:"max_games"`
	PlayersPerTeam int      `json:"players_per_team"`
	BenchPoints    *float64 `json:"bench_points"`
}

// GamePick is one spread or total recommendation for a game
type GamePick struct {
	Market     string   `json:"market"`
	Type       string   `json:"type,omitempty"`
	Label      string   `json:"label"`
	Diff       float64  `json:"diff"`
	Confidence string   `json:"confidence"`
	HomeSpread *float64 `json:"homeSpread,omitempty"`
	TotalLine  *float64 `json:"totalLine,omitempty"`
	EventID    string   `json:"event_id,omitempty"`
	Matchup    string   `json:"matchup,omitempty"`
}

// PlayerProjection is one player's contribution to a team total
type PlayerProjection struct {
	AthleteID string  `json:"athlete_id"`
	Name      string  `json:"name"`
	Position  string  `json:"position,omitempty"`
	Line      float64 `json:"line"`
	Proj      float64 `json:"proj"`
	Edge      float64 `json:"edge"`
}

// GameModel is the aggregate projection for one game
type GameModel struct {
	ProjectedHome       float64 `json:"projected_home"`
	ProjectedAway       float64 `json:"projected_away"`
	ProjectedTotal      float64 `json:"projected_total"`
	ProjectedMarginHome float64 `json:"projected_margin_home"`
}

// GameInputs echoes the knobs used for one run
type GameInputs struct {
	PlayersPerTeam int     `json:"players_per_team"`
	BenchPoints    float64 `json:"bench_points"`
	Season         int     `json:"season"`
	SeasonType     int     `json:"season_type"`
	Week           int     `json:"week"`
}

// GameDetail is the full per-game breakdown returned alongside the top picks
type GameDetail struct {
	EventID    string          `json:"event_id"`
	Matchup    string          `json:"matchup"`
	HomeTeam   *types.TeamRef  `json:"home_team,omitempty"`
	AwayTeam   *types.TeamRef  `json:"away_team,omitempty"`
	Odds       *types.GameOdds `json:"odds,omitempty"`
	Model      GameModel       `json:"model"`
	SpreadPick *GamePick       `json:"spreadPick"`
	TotalPick  *GamePick       `json:"totalPick"`
	Inputs     GameInputs      `json:"inputs"`
}

// GamePicksResult is the outcome of one team-projection run
type GamePicksResult struct {
	Date  string       `json:"date"`
	Top6  []GamePick   `json:"top6"`
	Games []GameDetail `json:"games"`
	Note  string       `json:"note"`
}

// GamePicksService builds NBA spread and total picks from aggregated player
// point projections.
type GamePicksService struct {
	edge        *providers.EdgeClient
	logger      *logrus.Logger
	fanoutLimit int
}

// NewGamePicksService creates the team-projection service
func NewGamePicksService(edge *providers.EdgeClient, cfg *config.Config, logger *logrus.Logger) *GamePicksService {
	return &GamePicksService{
		edge:        edge,
		logger:      logger,
		fanoutLimit: cfg.FanoutConcurrency,
	}
}

// Generate runs the aggregator for every game on the requested date
func (s *GamePicksService) Generate(ctx context.Context, req GamePicksRequest) (*GamePicksResult, error) {
	if !dateRe.MatchString(req.Date) {
		return nil, fmt.Errorf("date requerido en formato YYYYMMDD: %w", ErrInvalidRequest)
	}

	season := req.Season
	if season <= 0 {
		season = 2024
	}
	seasonType := req.SeasonType
	if seasonType <= 0 {
		seasonType = 2
	}
	week := req.Week
	if week < 1 {
		week = 1
	}
	maxGames := clampInt(defaultInt(req.MaxGames, 6), 1, 12)
	playersPerTeam := clampInt(defaultInt(req.PlayersPerTeam, 8), 5, 10)
	benchPoints := 28.0
	if req.BenchPoints != nil {
		benchPoints = clampFloat(*req.BenchPoints, 0, 60)
	}

	games, err := s.edge.GamesWithOdds(ctx, types.SportNBA, providers.GamesQuery{Date: req.Date})
	if err != nil {
		return nil, fmt.Errorf("no se pudo obtener games-with-odds: %w", err)
	}
	if len(games) > maxGames {
		games = games[:maxGames]
	}

	inputs := GameInputs{
		PlayersPerTeam: playersPerTeam,
		BenchPoints:    benchPoints,
		Season:         season,
		SeasonType:     seasonType,
		Week:           week,
	}

	results := workers.MapLimit(ctx, games, s.fanoutLimit, func(ctx context.Context, g types.Game) (GameDetail, error) {
		return s.buildGameDetail(ctx, g, inputs)
	})

	out := &GamePicksResult{
		Date:  req.Date,
		Top6:  []GamePick{},
		Games: []GameDetail{},
		Note:  gamePicksNote,
	}

	var allPicks []GamePick
	for _, r := range results {
		if !r.Ok() {
			s.logger.WithError(r.Err).Warn("Skipping game after projection failure")
			continue
		}
		detail := r.Value
		out.Games = append(out.Games, detail)
		if detail.SpreadPick != nil {
			p := *detail.SpreadPick
			p.EventID = detail.EventID
			p.Matchup = detail.Matchup
			p.Type = "Spread"
			allPicks = append(allPicks, p)
		}
		if detail.TotalPick != nil {
			p := *detail.TotalPick
			p.EventID = detail.EventID
			p.Matchup = detail.Matchup
			p.Type = "Total"
			allPicks = append(allPicks, p)
		}
	}

	sort.SliceStable(allPicks, func(i, j int) bool {
		a, b := allPicks[i], allPicks[j]
		if ra, rb := picks.GamePickConfidenceRank(a.Confidence), picks.GamePickConfidenceRank(b.Confidence); ra != rb {
			return ra > rb
		}
		return math.Abs(a.Diff) > math.Abs(b.Diff)
	})
	if len(allPicks) > gamePicksTopN {
		allPicks = allPicks[:gamePicksTopN]
	}
	out.Top6 = append(out.Top6, allPicks...)

	return out, nil
}

func (s *GamePicksService) buildGameDetail(ctx context.Context, g types.Game, inputs GameInputs) (GameDetail, error) {
	detail := GameDetail{
		EventID:  g.EventID,
		Matchup:  g.Matchup,
		HomeTeam: g.HomeTeam,
		AwayTeam: g.AwayTeam,
		Odds:     g.Odds,
		Inputs:   inputs,
	}
	if g.HomeTeam == nil || g.AwayTeam == nil {
		return detail, fmt.Errorf("game %s is missing team info", g.EventID)
	}
	home, away := g.HomeTeam.Abbr, g.AwayTeam.Abbr

	homeTotal, _ := s.teamProjection(ctx, g.EventID, home, away, inputs)
	awayTotal, _ := s.teamProjection(ctx, g.EventID, away, home, inputs)

	detail.Model = GameModel{
		ProjectedHome:       homeTotal,
		ProjectedAway:       awayTotal,
		ProjectedTotal:      homeTotal + awayTotal,
		ProjectedMarginHome: homeTotal - awayTotal,
	}

	var details string
	var totalLine float64
	if g.Odds != nil {
		details = g.Odds.Details
		if g.Odds.OverUnder != nil {
			totalLine = *g.Odds.OverUnder
		}
	}

	if homeSpread, ok := picks.HomeSpreadFromDetails(details, home); ok {
		diff := detail.Model.ProjectedMarginHome + homeSpread
		pickHomeCovers := diff > 0
		spread := homeSpread
		detail.SpreadPick = &GamePick{
			Market:     "spread",
			Label:      picks.SpreadPickLabel(home, away, homeSpread, pickHomeCovers),
			Diff:       diff,
			Confidence: picks.ConfidenceFromDiff(diff, math.Abs(homeSpread)),
			HomeSpread: &spread,
		}
	}

	if totalLine != 0 {
		diff := detail.Model.ProjectedTotal - totalLine
		label := fmt.Sprintf("Over %g", totalLine)
		if diff < 0 {
			label = fmt.Sprintf("Under %g", totalLine)
		}
		line := totalLine
		detail.TotalPick = &GamePick{
			Market:     "total",
			Label:      label,
			Diff:       diff,
			Confidence: picks.ConfidenceFromDiff(diff, totalLine),
			TotalLine:  &line,
		}
	}

	return detail, nil
}

// teamProjection sums projected points for the team's rotation prefix plus
// the bench constant. Players whose projection call fails or comes back
// non-positive are left out of the sum.
func (s *GamePicksService) teamProjection(ctx context.Context, eventID, team, opp string, inputs GameInputs) (float64, []PlayerProjection) {
	roster, err := s.edge.TeamRoster(ctx, types.SportNBA, team)
	if err != nil {
		s.logger.WithError(err).WithField("team", team).Warn("Failed to fetch roster for team projection")
		return inputs.BenchPoints, nil
	}
	if len(roster) > inputs.PlayersPerTeam {
		roster = roster[:inputs.PlayersPerTeam]
	}

	var projected []PlayerProjection
	sum := 0.0
	for _, p := range roster {
		line := s.avgRecentPoints(ctx, p.AthleteID.String())
		payload, err := s.edge.AutoProjectionReport(ctx, types.SportNBA, providers.ProjectionRequest{
			Sport:        string(types.SportNBA),
			AthleteID:    p.AthleteID.String(),
			EventID:      eventID,
			Season:       inputs.Season,
			SeasonType:   inputs.SeasonType,
			Week:         inputs.Week,
			PlayerName:   p.Name,
			PlayerTeam:   team,
			OpponentTeam: opp,
			Position:     p.Position,
			MarketType:   "points",
			BookLine:     line,
		})
		if err != nil {
			continue
		}

		summary := picks.SummarizeProjection(payload)
		if summary.ProjectedValue <= 0 {
			continue
		}
		book := summary.BookLine
		edge := summary.Edge
		if book == 0 {
			book = line
			edge = summary.ProjectedValue - book
		}
		projected = append(projected, PlayerProjection{
			AthleteID: p.AthleteID.String(),
			Name:      p.Name,
			Position:  p.Position,
			Line:      line,
			Proj:      summary.ProjectedValue,
			Edge:      edge,
		})
		sum += summary.ProjectedValue
	}

	return sum + inputs.BenchPoints, projected
}

// avgRecentPoints averages the trailing five points entries from the gamelog
// payload, falling back to a league-ish constant when nothing usable exists.
func (s *GamePicksService) avgRecentPoints(ctx context.Context, athleteID string) float64 {
	payload, err := s.edge.PlayerGamelog(ctx, types.SportNBA, athleteID)
	if err != nil || payload == nil {
		return fallbackAvgPoints
	}
	nums := extractNumbersByKey(payload, map[string]bool{"points": true, "pts": true}, nil)
	if len(nums) == 0 {
		return fallbackAvgPoints
	}
	if len(nums) > 5 {
		nums = nums[len(nums)-5:]
	}
	sum := 0.0
	for _, n := range nums {
		sum += n
	}
	avg := sum / float64(len(nums))
	if avg <= 0 {
		return fallbackAvgPoints
	}
	return avg
}

// extractNumbersByKey walks an arbitrary decoded JSON value collecting finite
// numbers stored under the wanted keys, at any depth. Map keys are visited in
// sorted order so the trailing-window slice is deterministic.
func extractNumbersByKey(v any, keys map[string]bool, out []float64) []float64 {
	switch t := v.(type) {
	case []any:
		for _, it := range t {
			out = extractNumbersByKey(it, keys, out)
		}
	case map[string]any:
		names := make([]string, 0, len(t))
		for k := range t {
			names = append(names, k)
		}
		sort.Strings(names)
		for _, k := range names {
			if keys[strings.ToLower(k)] {
				if n, ok := asFiniteNumber(t[k]); ok {
					out = append(out, n)
				}
			}
			out = extractNumbersByKey(t[k], keys, out)
		}
	}
	return out
}

func asFiniteNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		if !math.IsNaN(n) && !math.IsInf(n, 0) {
			return n, true
		}
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return f, true
		}
	}
	return 0, false
}

func defaultInt(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
