package services

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/picksrocket/picksrocket/internal/config"
	"github.com/picksrocket/picksrocket/internal/providers"
	"github.com/picksrocket/picksrocket/internal/types"
)

func testConfig() *config.Config {
	return &config.Config{
		FanoutConcurrency: 6,
		PicksCount:        6,
		NFLSeason:         2024,
		NFLSeasonType:     2,
		NFLWeek:           1,
	}
}

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newEdgeForTest(t *testing.T, handler http.Handler) *providers.EdgeClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return providers.NewEdgeClient(srv.URL, 5*time.Second, 1000, nil, nil, testLogger())
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

type projectionCapture struct {
	mu       sync.Mutex
	requests []providers.ProjectionRequest
}

func (c *projectionCapture) add(r providers.ProjectionRequest) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests = append(c.requests, r)
}

func (c *projectionCapture) all() []providers.ProjectionRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]providers.ProjectionRequest, len(c.requests))
	copy(out, c.requests)
	return out
}

func nbaGamesPayload() map[string]interface{} {
	return map[string]interface{}{
		"games": []map[string]interface{}{
			{
				"event_id":  "401",
				"matchup":   "NY @ BOS",
				"home_team": map[string]string{"name": "Celtics", "abbr": "BOS"},
				"away_team": map[string]string{"name": "Knicks", "abbr": "NY"},
				"odds": map[string]interface{}{
					"provider":   "consensus",
					"details":    "BOS -5.5",
					"over_under": 220.5,
				},
			},
		},
	}
}

func nbaRosterPayload(prefix string) map[string]interface{} {
	return map[string]interface{}{
		"players": []map[string]interface{}{
			{"athlete_id": prefix + "1", "name": prefix + " One", "position": "G"},
			{"athlete_id": json.Number(prefix + "2"), "name": prefix + " Two", "position": "F"},
			{"athlete_id": prefix + "3", "name": prefix + " Three", "position": "C"},
			{"athlete_id": prefix + "4", "name": prefix + " Four", "position": "G"},
		},
	}
}

func TestAIPicksGenerateNBA(t *testing.T) {
	capture := &projectionCapture{}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/nba/games-with-odds", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "20250110", r.URL.Query().Get("date"))
		writeJSON(w, nbaGamesPayload())
	})
	mux.HandleFunc("/api/v1/nba/team/", func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(r.URL.Path, "/")
		team := parts[len(parts)-2]
		writeJSON(w, nbaRosterPayload(map[string]string{"BOS": "1", "NY": "2"}[team]))
	})
	mux.HandleFunc("/api/v1/nba/wspm/auto-projection-report", func(w http.ResponseWriter, r *http.Request) {
		var req providers.ProjectionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		capture.add(req)
		writeJSON(w, map[string]interface{}{"wspm_projection": 24.5, "book_line": 20.5})
	})

	svc := NewAIPicksService(newEdgeForTest(t, mux), testConfig(), testLogger())
	result, err := svc.Generate(context.Background(), types.SportNBA, AIPicksRequest{Date: "20250110"})
	require.NoError(t, err)

	assert.Equal(t, 1, result.Diagnostics.Games)
	assert.Equal(t, 6, result.Diagnostics.Candidates) // 3 key players per side
	assert.Equal(t, 6, result.Diagnostics.ProjectionsOK)
	assert.Equal(t, 0, result.Diagnostics.Errors)
	require.Len(t, result.Picks, 6)

	p := result.Picks[0]
	assert.Equal(t, "NY @ BOS", p.Matchup)
	assert.Equal(t, "consensus", p.Provider)
	assert.Equal(t, "points", p.MarketType)
	assert.Equal(t, 20.5, p.BookLine)
	assert.Equal(t, 24.5, p.Projection)
	assert.InDelta(t, 4.0, p.Edge, 1e-9)
	assert.Equal(t, "Leans", p.Tier)
	assert.InDelta(t, 4.0, p.MarginAbs, 1e-9)
	assert.InDelta(t, 19.5122, p.MarginPct, 0.001)
	assert.Equal(t, "Alta", p.Confidence)
	assert.InDelta(t, 0.64634, p.ProbCover, 0.001)

	// Every projection call carried the sport default points line.
	for _, req := range capture.all() {
		assert.Equal(t, "points", req.MarketType)
		assert.Equal(t, 20.5, req.BookLine)
		assert.Equal(t, "401", req.EventID)
	}
}

func TestAIPicksGenerateNFLUsesSeasonDefaultsAndOverrides(t *testing.T) {
	capture := &projectionCapture{}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/nfl/games-with-odds", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "2024", q.Get("season"))
		assert.Equal(t, "2", q.Get("season_type"))
		assert.Equal(t, "1", q.Get("week"))
		writeJSON(w, map[string]interface{}{
			"games": []map[string]interface{}{
				{
					"event_id":  "nfl-1",
					"matchup":   "DAL @ PHI",
					"home_team": map[string]string{"name": "Eagles", "abbr": "PHI"},
					"away_team": map[string]string{"name": "Cowboys", "abbr": "DAL"},
				},
			},
		})
	})
	mux.HandleFunc("/api/v1/nfl/team/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{
			"players": []map[string]interface{}{
				{"athlete_id": "qb1", "name": "Starter QB", "position": "QB"},
				{"athlete_id": "te1", "name": "Tight End", "position": "TE"},
				{"athlete_id": "rb1", "name": "Back One", "position": "RB"},
				{"athlete_id": "rb2", "name": "Back Two", "position": "RB"},
				{"athlete_id": "wr1", "name": "Wide One", "position": "WR"},
				{"athlete_id": "wr2", "name": "Wide Two", "position": "WR"},
				{"athlete_id": "k1", "name": "Kicker", "position": "K"},
			},
		})
	})
	mux.HandleFunc("/api/v1/nfl/wspm/auto-projection-report", func(w http.ResponseWriter, r *http.Request) {
		var req providers.ProjectionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		capture.add(req)
		writeJSON(w, map[string]interface{}{"wspm_projection": req.BookLine + 10, "book_line": req.BookLine})
	})

	svc := NewAIPicksService(newEdgeForTest(t, mux), testConfig(), testLogger())
	result, err := svc.Generate(context.Background(), types.SportNFL, AIPicksRequest{
		LinesOverride: map[string]float64{"passing_yards": 250},
	})
	require.NoError(t, err)

	// 1 QB + 2 RB + 2 WR per side; TE and K carry no market.
	assert.Equal(t, 10, result.Diagnostics.Candidates)
	assert.Equal(t, 10, result.Diagnostics.ProjectionsOK)

	byMarket := map[string]float64{}
	for _, req := range capture.all() {
		byMarket[req.MarketType] = req.BookLine
	}
	assert.Equal(t, 250.0, byMarket["passing_yards"]) // override wins
	assert.Equal(t, 60.5, byMarket["rushing_yards"])
	assert.Equal(t, 55.5, byMarket["receiving_yards"])
}

func TestAIPicksGenerateIsolatesFailures(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/nba/games-with-odds", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, nbaGamesPayload())
	})
	mux.HandleFunc("/api/v1/nba/team/", func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/NY/") {
			http.Error(w, "roster unavailable", http.StatusInternalServerError)
			return
		}
		writeJSON(w, nbaRosterPayload("1"))
	})
	mux.HandleFunc("/api/v1/nba/wspm/auto-projection-report", func(w http.ResponseWriter, r *http.Request) {
		var req providers.ProjectionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.AthleteID == "12" {
			http.Error(w, "model failure", http.StatusBadGateway)
			return
		}
		writeJSON(w, map[string]interface{}{"wspm_projection": 22.0, "book_line": 20.5})
	})

	svc := NewAIPicksService(newEdgeForTest(t, mux), testConfig(), testLogger())
	result, err := svc.Generate(context.Background(), types.SportNBA, AIPicksRequest{Date: "20250110"})
	require.NoError(t, err)

	// NY roster failed, so only the BOS side produced candidates.
	assert.Equal(t, 3, result.Diagnostics.Candidates)
	assert.Equal(t, 2, result.Diagnostics.ProjectionsOK)
	assert.Equal(t, 1, result.Diagnostics.Errors)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "1 Two", result.Errors[0].PlayerName)
	assert.Equal(t, "BOS", result.Errors[0].Team)
	assert.Contains(t, result.Errors[0].Error, "502")
	assert.Len(t, result.Picks, 2)
}

func TestAIPicksGenerateEmptySlate(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/nba/games-with-odds", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{"games": []interface{}{}})
	})

	svc := NewAIPicksService(newEdgeForTest(t, mux), testConfig(), testLogger())
	result, err := svc.Generate(context.Background(), types.SportNBA, AIPicksRequest{Date: "20250110"})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Diagnostics.Games)
	assert.Empty(t, result.Picks)
	assert.Empty(t, result.Errors)
}

func TestAIPicksGenerateValidation(t *testing.T) {
	svc := NewAIPicksService(newEdgeForTest(t, http.NewServeMux()), testConfig(), testLogger())

	_, err := svc.Generate(context.Background(), types.SportSoccer, AIPicksRequest{})
	assert.Error(t, err)

	_, err = svc.Generate(context.Background(), types.SportNBA, AIPicksRequest{})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestAIPicksGenerateMaxGames(t *testing.T) {
	rosterCalls := 0
	var mu sync.Mutex
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/nba/games-with-odds", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{
			"games": []map[string]interface{}{
				{"event_id": "1", "matchup": "A @ B",
					"home_team": map[string]string{"abbr": "B"}, "away_team": map[string]string{"abbr": "A"}},
				{"event_id": "2", "matchup": "C @ D",
					"home_team": map[string]string{"abbr": "D"}, "away_team": map[string]string{"abbr": "C"}},
			},
		})
	})
	mux.HandleFunc("/api/v1/nba/team/", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		rosterCalls++
		mu.Unlock()
		writeJSON(w, map[string]interface{}{"players": []interface{}{}})
	})

	svc := NewAIPicksService(newEdgeForTest(t, mux), testConfig(), testLogger())
	result, err := svc.Generate(context.Background(), types.SportNBA, AIPicksRequest{Date: "20250110", MaxGames: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Diagnostics.Games)
	assert.Equal(t, 2, rosterCalls) // only the first game's two teams
}
