package types

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// CacheProvider defines the interface for caching services
type CacheProvider interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) bool
}

// BreakerProvider wraps outbound calls with circuit breaker protection
type BreakerProvider interface {
	Execute(service string, fn func() (interface{}, error)) (interface{}, error)
}

// HealthStatus represents the health status of the service
type HealthStatus struct {
	Status    string            `json:"status"`
	Service   string            `json:"service"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// Sport represents the sports the dashboard serves
type Sport string

const (
	SportNFL    Sport = "nfl"
	SportNBA    Sport = "nba"
	SportSoccer Sport = "soccer"
)

// TeamRef identifies a team inside a game row
type TeamRef struct {
	Name string `json:"name"`
	Abbr string `json:"abbr"`
}

// GameOdds is the book snapshot attached to a game. Details is free text in
// the form "<FAV_ABBR> <spread>", e.g. "BOS -11.5".
type GameOdds struct {
	Provider  string   `json:"provider,omitempty"`
	Details   string   `json:"details,omitempty"`
	OverUnder *float64 `json:"over_under,omitempty"`
}

// Game is one upcoming matchup as returned by the edge backend. Immutable
// once fetched; the service never mutates it.
type Game struct {
	EventID  string    `json:"event_id"`
	Matchup  string    `json:"matchup"`
	HomeTeam *TeamRef  `json:"home_team,omitempty"`
	AwayTeam *TeamRef  `json:"away_team,omitempty"`
	Odds     *GameOdds `json:"odds,omitempty"`
}

// GamesResponse wraps the backend games-with-odds payload
type GamesResponse struct {
	Games []Game `json:"games"`
}

// RosterPlayer is one player on a team roster. The backend sends athlete_id
// as either a string or a number; AthleteID normalizes both to a string so
// it can be used as a map key.
type RosterPlayer struct {
	AthleteID FlexibleID `json:"athlete_id"`
	Name      string     `json:"name"`
	Position  string     `json:"position,omitempty"`
}

// RosterResponse wraps the backend roster payload
type RosterResponse struct {
	Players []RosterPlayer `json:"players"`
}

// FlexibleID accepts JSON strings and numbers and stores both as a string
type FlexibleID string

func (f *FlexibleID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = FlexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*f = FlexibleID(n.String())
		return nil
	}
	return fmt.Errorf("athlete_id is neither string nor number: %s", string(data))
}

func (f FlexibleID) String() string {
	return string(f)
}

// SoccerTournament is one selectable soccer league
type SoccerTournament struct {
	ID         string `json:"id"`
	LeagueCode string `json:"league_code"`
	Label      string `json:"label"`
	IsDefault  bool   `json:"is_default,omitempty"`
}

// TournamentsResponse wraps the backend tournaments payload
type TournamentsResponse struct {
	Tournaments []SoccerTournament `json:"tournaments"`
}

// SoccerMarketPick is the backend's suggested pick for one soccer market
type SoccerMarketPick struct {
	Pick       string   `json:"pick"` // "1", "X", "2", "1X", "12", "X2", "OVER", "NO BET"
	Confidence string   `json:"confidence,omitempty"`
	Prob       *float64 `json:"prob,omitempty"`
	EdgePct    *float64 `json:"edge_pct,omitempty"`
	Note       string   `json:"note,omitempty"`
}

// SoccerProjection is the backend's game-projection response for one fixture
type SoccerProjection struct {
	EventID          string            `json:"event_id"`
	LeagueCode       string            `json:"league_code,omitempty"`
	Matchup          string            `json:"matchup"`
	HomeTeam         *TeamRef          `json:"home_team,omitempty"`
	AwayTeam         *TeamRef          `json:"away_team,omitempty"`
	BookOverUnder    *float64          `json:"book_over_under,omitempty"`
	ExpectedGoals    *float64          `json:"expected_goals,omitempty"`
	ProbOver25       *float64          `json:"prob_over25,omitempty"`
	Prob1            *float64          `json:"prob_1,omitempty"`
	ProbX            *float64          `json:"prob_X,omitempty"`
	Prob2            *float64          `json:"prob_2,omitempty"`
	Over25Pick       *SoccerMarketPick `json:"over25_pick,omitempty"`
	Pick1X2          *SoccerMarketPick `json:"pick_1x2,omitempty"`
	DoubleChanceBest *SoccerMarketPick `json:"double_chance_best,omitempty"`
}
