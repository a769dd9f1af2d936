package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/picksrocket/picksrocket/internal/types"
)

const (
	gamesCacheTTL       = 2 * time.Minute
	tournamentsCacheTTL = 1 * time.Hour
	maxErrorBodyBytes   = 300
)

// EdgeClient wraps the external sports-data/projection backend. All sports
// analytics are computed remotely; this client only builds requests, enforces
// timeouts, converts non-2xx responses to errors, and parses JSON.
type EdgeClient struct {
	client      *http.Client
	cache       types.CacheProvider
	breaker     types.BreakerProvider
	rateLimiter *rate.Limiter
	logger      *logrus.Logger
	baseURL     string
}

// GamesQuery selects which slate of games to fetch. Date is YYYYMMDD for
// NBA/NFL date lookups; Season/SeasonType/Week drive NFL week lookups;
// League selects a soccer competition.
type GamesQuery struct {
	Date       string
	Season     int
	SeasonType int
	Week       int
	League     string
}

// ProjectionRequest is the body of the auto-projection-report call
type ProjectionRequest struct {
	Sport        string  `json:"sport"`
	AthleteID    string  `json:"athlete_id"`
	EventID      string  `json:"event_id"`
	Season       int     `json:"season"`
	SeasonType   int     `json:"season_type"`
	Week         int     `json:"week"`
	PlayerName   string  `json:"player_name"`
	PlayerTeam   string  `json:"player_team"`
	OpponentTeam string  `json:"opponent_team"`
	Position     string  `json:"position"`
	MarketType   string  `json:"market_type"`
	BookLine     float64 `json:"book_line"`
}

// NewEdgeClient creates a client for the edge projection backend
func NewEdgeClient(
	baseURL string,
	timeout time.Duration,
	requestsPerSecond int,
	cache types.CacheProvider,
	breaker types.BreakerProvider,
	logger *logrus.Logger,
) *EdgeClient {
	if requestsPerSecond < 1 {
		requestsPerSecond = 1
	}
	return &EdgeClient{
		client:      &http.Client{Timeout: timeout},
		cache:       cache,
		breaker:     breaker,
		rateLimiter: rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond),
		logger:      logger,
		baseURL:     baseURL,
	}
}

// GamesWithOdds fetches the slate of games for one sport. Responses are
// cached briefly since slates only move when books repost lines.
func (c *EdgeClient) GamesWithOdds(ctx context.Context, sport types.Sport, query GamesQuery) ([]types.Game, error) {
	params := url.Values{}
	switch {
	case query.Date != "":
		params.Set("date", query.Date)
	case query.League != "":
		params.Set("league", query.League)
	default:
		params.Set("season", strconv.Itoa(query.Season))
		params.Set("season_type", strconv.Itoa(query.SeasonType))
		params.Set("week", strconv.Itoa(query.Week))
	}

	cacheKey := fmt.Sprintf("edge:games:%s:%s", sport, params.Encode())
	var cached types.GamesResponse
	if c.cache != nil && c.cache.Get(ctx, cacheKey, &cached) == nil {
		return cached.Games, nil
	}

	var resp types.GamesResponse
	path := fmt.Sprintf("/api/v1/%s/games-with-odds?%s", sport, params.Encode())
	if err := c.getJSON(ctx, "games-with-odds", path, &resp); err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, cacheKey, types.GamesResponse{Games: resp.Games}, gamesCacheTTL); err != nil {
			c.logger.WithError(err).WithField("key", cacheKey).Warn("Failed to cache games response")
		}
	}

	return resp.Games, nil
}

// FirstAvailableGames scans from today up to daysAhead days out and returns
// the first date that has at least one game. Fetch failures for one date are
// skipped, not fatal.
func (c *EdgeClient) FirstAvailableGames(ctx context.Context, sport types.Sport, daysAhead int) (string, []types.Game, error) {
	var lastErr error
	for i := 0; i <= daysAhead; i++ {
		date := YYYYMMDDOffset(i)
		games, err := c.GamesWithOdds(ctx, sport, GamesQuery{Date: date})
		if err != nil {
			lastErr = err
			continue
		}
		if len(games) > 0 {
			return date, games, nil
		}
	}
	if lastErr != nil {
		return YYYYMMDDOffset(0), nil, fmt.Errorf("no games found within %d days: %w", daysAhead, lastErr)
	}
	return YYYYMMDDOffset(0), nil, nil
}

// TeamRoster fetches one team's roster
func (c *EdgeClient) TeamRoster(ctx context.Context, sport types.Sport, teamAbbr string) ([]types.RosterPlayer, error) {
	var resp types.RosterResponse
	path := fmt.Sprintf("/api/v1/%s/team/%s/roster", sport, url.PathEscape(teamAbbr))
	if err := c.getJSON(ctx, "roster", path, &resp); err != nil {
		return nil, err
	}
	return resp.Players, nil
}

// AutoProjectionReport requests a player projection. The response shape is
// backend-defined and open-ended, so it is returned as a raw map for the
// normalizer to reduce.
func (c *EdgeClient) AutoProjectionReport(ctx context.Context, sport types.Sport, req ProjectionRequest) (map[string]any, error) {
	var payload map[string]any
	path := fmt.Sprintf("/api/v1/%s/wspm/auto-projection-report", sport)
	if err := c.postJSON(ctx, "projection", path, req, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// PlayerGamelog fetches a player's recent game log as an open payload
func (c *EdgeClient) PlayerGamelog(ctx context.Context, sport types.Sport, athleteID string) (map[string]any, error) {
	var payload map[string]any
	path := fmt.Sprintf("/api/v1/%s/player/%s/gamelog", sport, url.PathEscape(athleteID))
	if err := c.getJSON(ctx, "gamelog", path, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// SoccerGameProjection requests the model's projection for one fixture
func (c *EdgeClient) SoccerGameProjection(ctx context.Context, eventID, league string) (*types.SoccerProjection, error) {
	body := map[string]string{
		"event_id":    eventID,
		"league_code": league,
		"league":      league,
	}
	var proj types.SoccerProjection
	if err := c.postJSON(ctx, "game-projection", "/api/v1/soccer/game-projection", body, &proj); err != nil {
		return nil, err
	}
	return &proj, nil
}

// SoccerTournaments lists the selectable soccer leagues, cached for an hour
func (c *EdgeClient) SoccerTournaments(ctx context.Context) ([]types.SoccerTournament, error) {
	cacheKey := "edge:soccer:tournaments"
	var cached types.TournamentsResponse
	if c.cache != nil && c.cache.Get(ctx, cacheKey, &cached) == nil {
		return cached.Tournaments, nil
	}

	var resp types.TournamentsResponse
	if err := c.getJSON(ctx, "tournaments", "/api/v1/soccer/tournaments", &resp); err != nil {
		return nil, err
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, cacheKey, resp, tournamentsCacheTTL); err != nil {
			c.logger.WithError(err).Warn("Failed to cache tournaments response")
		}
	}

	return resp.Tournaments, nil
}

// Health probes the backend and reports round-trip latency
func (c *EdgeClient) Health(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	var out map[string]any
	if err := c.getJSON(ctx, "health", "/api/v1/health", &out); err != nil {
		return 0, err
	}
	return time.Since(start), nil
}

func (c *EdgeClient) getJSON(ctx context.Context, service, path string, dest interface{}) error {
	return c.doJSON(ctx, service, http.MethodGet, path, nil, dest)
}

func (c *EdgeClient) postJSON(ctx context.Context, service, path string, body, dest interface{}) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", service, err)
	}
	return c.doJSON(ctx, service, http.MethodPost, path, encoded, dest)
}

func (c *EdgeClient) doJSON(ctx context.Context, service, method, path string, body []byte, dest interface{}) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait aborted: %w", err)
	}

	fn := func() (interface{}, error) {
		return nil, c.roundTrip(ctx, method, path, body, dest)
	}

	if c.breaker != nil {
		_, err := c.breaker.Execute(service, fn)
		return err
	}
	_, err := fn()
	return err
}

func (c *EdgeClient) roundTrip(ctx context.Context, method, path string, body []byte, dest interface{}) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("edge backend request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read edge backend response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := raw
		if len(snippet) > maxErrorBodyBytes {
			snippet = snippet[:maxErrorBodyBytes]
		}
		return fmt.Errorf("edge backend returned %d: %s", resp.StatusCode, string(snippet))
	}

	if dest == nil {
		return nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("failed to parse edge backend response: %w", err)
	}
	return nil
}

// YYYYMMDDToday formats today's date the way the backend expects
func YYYYMMDDToday() string {
	return time.Now().Format("20060102")
}

// YYYYMMDDOffset formats today plus days the way the backend expects
func YYYYMMDDOffset(days int) string {
	return time.Now().AddDate(0, 0, days).Format("20060102")
}
