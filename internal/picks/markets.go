package picks

import (
	"strings"

	"github.com/picksrocket/picksrocket/internal/types"
)

// MarketUnknown marks a position with no supported player market
const MarketUnknown = "unknown"

// Default book lines per market, used when the request carries no override
// and no real props line is available.
var defaultLines = map[types.Sport]map[string]float64{
	types.SportNFL: {
		"passing_yards":   225.5,
		"rushing_yards":   60.5,
		"receiving_yards": 55.5,
	},
	types.SportNBA: {
		"points": 20.5,
	},
}

const fallbackLine = 20.5

// FindPlayerMarketType maps a player's position to the prop market the model
// projects for it. Unknown positions return MarketUnknown and should be
// skipped.
func FindPlayerMarketType(sport types.Sport, position string) string {
	pos := strings.ToUpper(strings.TrimSpace(position))

	switch sport {
	case types.SportNFL:
		switch pos {
		case "QB":
			return "passing_yards"
		case "RB":
			return "rushing_yards"
		case "WR":
			return "receiving_yards"
		}
		return MarketUnknown
	case types.SportNBA:
		return "points"
	}
	return MarketUnknown
}

// DefaultLine returns the fallback book line for a market
func DefaultLine(sport types.Sport, marketType string) float64 {
	if lines, ok := defaultLines[sport]; ok {
		if line, ok := lines[marketType]; ok {
			return line
		}
	}
	return fallbackLine
}

// KeyPlayers selects the candidate players from a roster. NFL keeps the
// first QB plus two RBs and two WRs; NBA keeps the first three players,
// a fixed-size prefix rather than a rotation model.
func KeyPlayers(players []types.RosterPlayer, sport types.Sport) []types.RosterPlayer {
	if sport != types.SportNFL {
		if len(players) > 3 {
			return players[:3]
		}
		return players
	}

	qbs := filterByPosition(players, "QB", 1)
	rbs := filterByPosition(players, "RB", 2)
	wrs := filterByPosition(players, "WR", 2)

	out := make([]types.RosterPlayer, 0, len(qbs)+len(rbs)+len(wrs))
	out = append(out, qbs...)
	out = append(out, rbs...)
	out = append(out, wrs...)
	return out
}

func filterByPosition(players []types.RosterPlayer, position string, max int) []types.RosterPlayer {
	out := make([]types.RosterPlayer, 0, max)
	for _, p := range players {
		if strings.ToUpper(strings.TrimSpace(p.Position)) != position {
			continue
		}
		out = append(out, p)
		if len(out) == max {
			break
		}
	}
	return out
}
