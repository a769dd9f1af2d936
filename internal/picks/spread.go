package picks

import (
	"math"
	"strconv"
	"strings"
)

// ParsedOdds is the result of parsing a free-text odds-details string
type ParsedOdds struct {
	Favorite string
	Spread   float64
	HasSpread bool
}

// ParseOddsDetails parses a sportsbook details string of the form
// "<FAV_ABBR> <spread>", e.g. "BOS -11.5". An unparseable string returns the
// zero value; parse failure means "no pick available", never an error.
func ParseOddsDetails(details string) ParsedOdds {
	fields := strings.Fields(strings.TrimSpace(details))
	if len(fields) < 2 {
		if len(fields) == 1 {
			return ParsedOdds{Favorite: strings.ToUpper(fields[0])}
		}
		return ParsedOdds{}
	}

	out := ParsedOdds{Favorite: strings.ToUpper(fields[0])}
	spread, err := strconv.ParseFloat(fields[1], 64)
	if err != nil || math.IsNaN(spread) || math.IsInf(spread, 0) {
		return out
	}
	out.Spread = spread
	out.HasSpread = true
	return out
}

// HomeSpreadFromDetails converts the details string into the home team's
// spread: negative when home is favored, positive when home is the underdog.
// Returns (0, false) when the string cannot be parsed, in which case no
// spread pick should be emitted.
func HomeSpreadFromDetails(details, homeAbbr string) (float64, bool) {
	parsed := ParseOddsDetails(details)
	if parsed.Favorite == "" || !parsed.HasSpread {
		return 0, false
	}

	spreadAbs := math.Abs(parsed.Spread)
	if parsed.Favorite == strings.ToUpper(homeAbbr) {
		return -spreadAbs, true
	}
	return spreadAbs, true
}

// SpreadPickLabel renders a spread pick in standard bookmaker style: the
// chosen side with an explicit sign, e.g. "BOS -11.5" or "NY +3".
func SpreadPickLabel(homeAbbr, awayAbbr string, homeSpread float64, pickHomeCovers bool) string {
	if pickHomeCovers {
		return homeAbbr + " " + signedSpread(homeSpread)
	}
	return awayAbbr + " " + signedSpread(-homeSpread)
}

func signedSpread(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if v > 0 {
		return "+" + s
	}
	return s
}

// ConfidenceFromDiff buckets a projection-vs-line difference into a
// confidence label, scaled by the reference line: pct = |diff| / max(1,
// |line|) * 100, with thresholds 3/2/1.
func ConfidenceFromDiff(diff, referenceLine float64) string {
	denom := math.Max(1, math.Abs(referenceLine))
	pct := math.Abs(diff) / denom * 100

	if pct >= 3.0 {
		return ConfidenceAlta
	}
	if pct >= 2.0 {
		return ConfidenceMediaAlta
	}
	if pct >= 1.0 {
		return ConfidenceMedia
	}
	return ConfidenceBaja
}

// GamePickConfidenceRank orders the four confidence labels for cross-game
// ranking of spread and total picks.
func GamePickConfidenceRank(confidence string) int {
	switch confidence {
	case ConfidenceAlta:
		return 4
	case ConfidenceMediaAlta:
		return 3
	case ConfidenceMedia:
		return 2
	case ConfidenceBaja:
		return 1
	default:
		return 0
	}
}
