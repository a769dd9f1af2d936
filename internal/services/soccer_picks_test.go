package services

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/picksrocket/picksrocket/internal/picks"
)

func soccerBackend(t *testing.T) http.Handler {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/soccer/games-with-odds", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "esp.1", r.URL.Query().Get("league"))
		writeJSON(w, map[string]interface{}{
			"games": []map[string]interface{}{
				{"event_id": "m1", "matchup": "Girona @ Madrid"},
				{"event_id": "m2", "matchup": "Betis @ Sevilla"},
				{"event_id": "m3", "matchup": "Cadiz @ Getafe"},
			},
		})
	})
	mux.HandleFunc("/api/v1/soccer/game-projection", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			EventID string `json:"event_id"`
			League  string `json:"league"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "esp.1", body.League)

		switch body.EventID {
		case "m1":
			// Strong double chance plus a live over, same event.
			writeJSON(w, map[string]interface{}{
				"event_id":    "m1",
				"league_code": "esp.1",
				"matchup":     "Girona @ Madrid",
				"home_team":   map[string]string{"name": "Madrid", "abbr": "MAD"},
				"away_team":   map[string]string{"name": "Girona", "abbr": "GIR"},
				"prob_over25": 0.58,
				"double_chance_best": map[string]interface{}{
					"pick": "1X", "prob": 0.81,
				},
			})
		case "m2":
			writeJSON(w, map[string]interface{}{
				"event_id":    "m2",
				"league_code": "esp.1",
				"matchup":     "Betis @ Sevilla",
				"home_team":   map[string]string{"name": "Sevilla", "abbr": "SEV"},
				"away_team":   map[string]string{"name": "Betis", "abbr": "BET"},
				"prob_over25": 0.60,
			})
		default:
			http.Error(w, "projection unavailable", http.StatusBadGateway)
		}
	})
	return mux
}

func TestSoccerPicksGenerate(t *testing.T) {
	svc := NewSoccerPicksService(newEdgeForTest(t, soccerBackend(t)), testConfig(), testLogger())

	result, err := svc.Generate(context.Background(), "esp.1")
	require.NoError(t, err)

	assert.Equal(t, "esp.1", result.League)
	assert.NotEmpty(t, result.Note)

	// One pick per fixture; the failed third fixture is simply absent.
	require.Len(t, result.Picks, 2)

	first := result.Picks[0]
	assert.Equal(t, "m1", first.EventID)
	assert.Equal(t, picks.MarketDoubleChance, first.Market)
	assert.Equal(t, "1X", first.Pick)
	assert.InDelta(t, 0.81, first.Prob, 1e-9)

	second := result.Picks[1]
	assert.Equal(t, "m2", second.EventID)
	assert.Equal(t, picks.MarketTotal25, second.Market)
	assert.Equal(t, "Over 2.5", second.Pick)
	assert.InDelta(t, 0.60, second.Prob, 1e-9)
}

func TestSoccerPicksGenerateDefaultsLeague(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/soccer/games-with-odds", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "eng.1", r.URL.Query().Get("league"))
		writeJSON(w, map[string]interface{}{"games": []interface{}{}})
	})

	svc := NewSoccerPicksService(newEdgeForTest(t, mux), testConfig(), testLogger())
	result, err := svc.Generate(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "eng.1", result.League)
	assert.Empty(t, result.Picks)
}

func TestSoccerPicksGenerateSlateFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/soccer/games-with-odds", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	})

	svc := NewSoccerPicksService(newEdgeForTest(t, mux), testConfig(), testLogger())
	_, err := svc.Generate(context.Background(), "esp.1")
	assert.Error(t, err)
}

func TestSoccerTournamentsPassthrough(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/soccer/tournaments", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{
			"tournaments": []map[string]interface{}{
				{"league_code": "eng.1", "label": "Premier League", "is_default": true},
				{"league_code": "esp.1", "label": "LaLiga"},
			},
		})
	})

	svc := NewSoccerPicksService(newEdgeForTest(t, mux), testConfig(), testLogger())
	tournaments, err := svc.Tournaments(context.Background())
	require.NoError(t, err)
	require.Len(t, tournaments, 2)
	assert.Equal(t, "eng.1", tournaments[0].LeagueCode)
	assert.True(t, tournaments[0].IsDefault)
}
