package handlers_test

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/picksrocket/picksrocket/internal/api/handlers"
	"github.com/picksrocket/picksrocket/internal/api/middleware"
	"github.com/picksrocket/picksrocket/internal/providers"
	"github.com/picksrocket/picksrocket/internal/utils"
)

func gamesRouter(edge *providers.EdgeClient) (*gin.Engine, *middleware.Metrics) {
	metrics := middleware.NewMetrics()
	h := handlers.NewGamesHandler(edge, testConfig(), metrics, testLogger())
	router := gin.New()
	router.GET("/api/v1/:sport/games-with-odds", h.GetGamesWithOdds)
	router.GET("/api/v1/:sport/upcoming-games", h.GetUpcomingGames)
	return router, metrics
}

func TestGamesWithOddsRejectsUnknownSport(t *testing.T) {
	router, _ := gamesRouter(newEdgeForTest(t, http.NotFoundHandler()))

	rec := performJSON(t, router, http.MethodGet, "/api/v1/mlb/games-with-odds?date=20250110", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp utils.ErrorResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, "Invalid sport", resp.Message)
}

func TestGamesWithOddsRequiresSlateParams(t *testing.T) {
	router, _ := gamesRouter(newEdgeForTest(t, http.NotFoundHandler()))

	rec := performJSON(t, router, http.MethodGet, "/api/v1/nba/games-with-odds", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGamesWithOddsPassesQueryThrough(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/nfl/games-with-odds", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "2024", q.Get("season"))
		assert.Equal(t, "2", q.Get("season_type"))
		assert.Equal(t, "5", q.Get("week"))
		writeJSON(w, map[string]interface{}{
			"games": []map[string]interface{}{
				{"event_id": "nfl-1", "matchup": "DAL @ PHI"},
			},
		})
	})

	router, _ := gamesRouter(newEdgeForTest(t, mux))
	rec := performJSON(t, router, http.MethodGet, "/api/v1/nfl/games-with-odds?season=2024&season_type=2&week=5", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Games []struct {
			EventID string `json:"event_id"`
			Matchup string `json:"matchup"`
		} `json:"games"`
	}
	decodeBody(t, rec, &resp)
	require.Len(t, resp.Games, 1)
	assert.Equal(t, "nfl-1", resp.Games[0].EventID)
}

func TestGamesWithOddsEmptySlateIsArray(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/soccer/games-with-odds", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{"games": nil})
	})

	router, _ := gamesRouter(newEdgeForTest(t, mux))
	rec := performJSON(t, router, http.MethodGet, "/api/v1/soccer/games-with-odds?league=eng.1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"games":[]}`, rec.Body.String())
}

func TestUpcomingGamesScansForward(t *testing.T) {
	var requested []string
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/nba/games-with-odds", func(w http.ResponseWriter, r *http.Request) {
		date := r.URL.Query().Get("date")
		requested = append(requested, date)
		if len(requested) < 3 {
			writeJSON(w, map[string]interface{}{"games": []map[string]interface{}{}})
			return
		}
		writeJSON(w, map[string]interface{}{
			"games": []map[string]interface{}{
				{"event_id": "401", "matchup": "NY @ BOS"},
			},
		})
	})

	router, _ := gamesRouter(newEdgeForTest(t, mux))
	rec := performJSON(t, router, http.MethodGet, "/api/v1/nba/upcoming-games", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Date  string `json:"date"`
		Games []struct {
			EventID string `json:"event_id"`
		} `json:"games"`
	}
	decodeBody(t, rec, &resp)
	require.Len(t, requested, 3)
	assert.Equal(t, requested[2], resp.Date)
	require.Len(t, resp.Games, 1)
	assert.Equal(t, "401", resp.Games[0].EventID)
}

func TestUpcomingGamesNFLUsesConfiguredWeek(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/nfl/games-with-odds", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "2024", q.Get("season"))
		assert.Equal(t, "2", q.Get("season_type"))
		assert.Equal(t, "1", q.Get("week"))
		writeJSON(w, map[string]interface{}{
			"games": []map[string]interface{}{
				{"event_id": "nfl-1", "matchup": "DAL @ PHI"},
			},
		})
	})

	router, _ := gamesRouter(newEdgeForTest(t, mux))
	rec := performJSON(t, router, http.MethodGet, "/api/v1/nfl/upcoming-games", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Week  int `json:"week"`
		Games []struct {
			EventID string `json:"event_id"`
		} `json:"games"`
	}
	decodeBody(t, rec, &resp)
	assert.Equal(t, 1, resp.Week)
	require.Len(t, resp.Games, 1)
}

func TestUpcomingGamesRejectsBadDays(t *testing.T) {
	router, _ := gamesRouter(newEdgeForTest(t, http.NotFoundHandler()))

	for _, days := range []string{"abc", "0", "-1"} {
		rec := performJSON(t, router, http.MethodGet, "/api/v1/nba/upcoming-games?days="+days, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "days=%s", days)
	}
}

func TestGamesWithOddsUpstreamFailure(t *testing.T) {
	router, metrics := gamesRouter(newEdgeForTest(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "backend down", http.StatusInternalServerError)
	})))

	rec := performJSON(t, router, http.MethodGet, "/api/v1/nba/games-with-odds?date=20250110", nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.UpstreamErrors.WithLabelValues("games-with-odds")))
}
