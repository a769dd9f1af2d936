package picks

import (
	"math"
	"sort"

	"github.com/picksrocket/picksrocket/internal/types"
)

// SoccerMarket tags the betting market a soccer pick belongs to
type SoccerMarket string

const (
	MarketDoubleChance SoccerMarket = "DOUBLE_CHANCE"
	MarketTotal25      SoccerMarket = "TOTAL_25"
	MarketBTTS         SoccerMarket = "BTTS"
	Market1X2          SoccerMarket = "1X2"
)

// Candidate gates: a market only surfaces above these probabilities
const (
	doubleChanceMinProb = 0.66
	totalMinProb        = 0.55
	bttsMinProb         = 0.55
	winnerMinProb       = 0.46
)

// SoccerPick is one AI pick for a soccer fixture. Prob stays on the 0..1
// scale on the wire for compatibility with existing consumers.
type SoccerPick struct {
	Sport      string         `json:"sport"`
	League     string         `json:"league"`
	LeagueCode string         `json:"league_code"`
	EventID    string         `json:"event_id"`
	Matchup    string         `json:"matchup"`
	HomeTeam   *types.TeamRef `json:"home_team,omitempty"`
	AwayTeam   *types.TeamRef `json:"away_team,omitempty"`

	Market     SoccerMarket `json:"market"`
	Pick       string       `json:"pick"`
	Confidence string       `json:"confidence"`
	Prob       float64      `json:"prob"`
	EdgePct    *float64     `json:"edge_pct,omitempty"`
	Note       string       `json:"note,omitempty"`
}

func clamp01(x float64) float64 {
	if math.IsNaN(x) || x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// SoccerConfidenceFromProb buckets a probability into soccer confidence
// labels: >= 0.62 Alta, >= 0.56 Media, else Baja.
func SoccerConfidenceFromProb(p float64) string {
	x := clamp01(p)
	if x >= 0.62 {
		return ConfidenceAlta
	}
	if x >= 0.56 {
		return ConfidenceMedia
	}
	return ConfidenceBaja
}

func soccerConfidenceScore(confidence string) float64 {
	switch confidence {
	case ConfidenceAlta:
		return 3
	case ConfidenceMedia:
		return 2
	default:
		return 1
	}
}

// soccerMarketWeight ranks markets by credibility for typical users
func soccerMarketWeight(m SoccerMarket) float64 {
	switch m {
	case MarketDoubleChance:
		return 4
	case MarketTotal25:
		return 3
	case MarketBTTS:
		return 2
	case Market1X2:
		return 1
	default:
		return 0
	}
}

// GoalShares splits total expected goals between the sides based on the 1X2
// probabilities: each side gets its win probability plus half the draw,
// normalized to sum to 1. A non-positive raw sum falls back to an even split.
func GoalShares(prob1, probX, prob2 float64) (home, away float64) {
	p1 := clamp01(prob1)
	px := clamp01(probX)
	p2 := clamp01(prob2)

	h := p1 + 0.5*px
	a := p2 + 0.5*px
	sum := h + a

	if sum <= 0 {
		return 0.5, 0.5
	}
	return h / sum, a / sum
}

// BTTSYesProb estimates the probability both teams score. Each side's
// expected goals is its share of the total xG; scoring at least once is
// modeled as an independent Poisson process, P(scores) = 1 - exp(-lambda),
// and the two sides are multiplied under an independence assumption. Returns
// 0 when xG is not a positive finite number.
func BTTSYesProb(totalXG, prob1, probX, prob2 float64) float64 {
	if math.IsNaN(totalXG) || math.IsInf(totalXG, 0) || totalXG <= 0 {
		return 0
	}

	homeShare, awayShare := GoalShares(prob1, probX, prob2)
	lamHome := totalXG * homeShare
	lamAway := totalXG * awayShare

	pHomeScores := 1 - math.Exp(-math.Max(0, lamHome))
	pAwayScores := 1 - math.Exp(-math.Max(0, lamAway))

	return clamp01(pHomeScores * pAwayScores)
}

// ScoreSoccerPick computes the cross-market ranking score. Weighted sum
// chosen for explainability, not probability calibration: market credibility
// dominates, then confidence, probability, and edge.
func ScoreSoccerPick(p SoccerPick) float64 {
	edge := 0.0
	if p.EdgePct != nil {
		edge = *p.EdgePct
	}
	return soccerMarketWeight(p.Market)*100 +
		soccerConfidenceScore(p.Confidence)*15 +
		clamp01(p.Prob)*50 +
		edge*0.25
}

// BuildSoccerCandidates derives at most four market candidates from one game
// projection. Gates per market:
//
//	double chance: backend suggestion present, not "NO BET", prob >= 0.66
//	total 2.5: skipped when the projection carries no total-market data;
//	  otherwise Over when P(over) >= 0.55, Under only when P(over) <= 0.45
//	  and P(under) >= 0.55, never both
//	BTTS: yes-side only, Poisson estimate >= 0.55 (no-side never emitted)
//	1X2: home or away only, never the draw, prob >= 0.46
func BuildSoccerCandidates(proj types.SoccerProjection) []SoccerPick {
	out := make([]SoccerPick, 0, 4)

	base := SoccerPick{
		Sport:      "soccer",
		League:     proj.LeagueCode,
		LeagueCode: proj.LeagueCode,
		EventID:    proj.EventID,
		Matchup:    proj.Matchup,
		HomeTeam:   proj.HomeTeam,
		AwayTeam:   proj.AwayTeam,
	}

	if dc := proj.DoubleChanceBest; dc != nil && dc.Pick != "" && dc.Pick != "NO BET" && dc.Prob != nil {
		prob := clamp01(*dc.Prob)
		if prob >= doubleChanceMinProb {
			p := base
			p.Market = MarketDoubleChance
			p.Pick = dc.Pick // 1X / X2 / 12
			p.Confidence = dc.Confidence
			if p.Confidence == "" {
				p.Confidence = SoccerConfidenceFromProb(prob)
			}
			p.Prob = prob
			p.EdgePct = dc.EdgePct
			p.Note = dc.Note
			out = append(out, p)
		}
	}

	if pOver25, ok := totalOverProb(proj); ok {
		if pOver25 >= totalMinProb {
			p := base
			p.Market = MarketTotal25
			p.Pick = "Over 2.5"
			p.Confidence = SoccerConfidenceFromProb(pOver25)
			p.Prob = pOver25
			if proj.Over25Pick != nil {
				p.EdgePct = proj.Over25Pick.EdgePct
				p.Note = proj.Over25Pick.Note
			}
			if p.Note == "" {
				p.Note = "Basado en expected goals vs línea 2.5."
			}
			out = append(out, p)
		} else if pOver25 <= 1-totalMinProb {
			if pUnder := clamp01(1 - pOver25); pUnder >= totalMinProb {
				p := base
				p.Market = MarketTotal25
				p.Pick = "Under 2.5"
				p.Confidence = SoccerConfidenceFromProb(pUnder)
				p.Prob = pUnder
				if proj.Over25Pick != nil {
					p.EdgePct = proj.Over25Pick.EdgePct
					p.Note = proj.Over25Pick.Note
				}
				if p.Note == "" {
					p.Note = "Basado en expected goals vs línea 2.5."
				}
				out = append(out, p)
			}
		}
	}

	if xg := derefOrZero(proj.ExpectedGoals); xg > 0 {
		pBtts := BTTSYesProb(xg, derefOrZero(proj.Prob1), derefOrZero(proj.ProbX), derefOrZero(proj.Prob2))
		if pBtts >= bttsMinProb {
			p := base
			p.Market = MarketBTTS
			p.Pick = "AA: Sí"
			p.Confidence = SoccerConfidenceFromProb(pBtts)
			p.Prob = pBtts
			p.Note = "Heurística Poisson (xG total + reparto por fuerza relativa)."
			out = append(out, p)
		}
	}

	if proj.Pick1X2 != nil {
		p1 := clamp01(derefOrZero(proj.Prob1))
		p2 := clamp01(derefOrZero(proj.Prob2))

		switch proj.Pick1X2.Pick {
		case "1":
			if p1 >= winnerMinProb {
				out = append(out, winnerPick(base, proj, homeName(proj), p1))
			}
		case "2":
			if p2 >= winnerMinProb {
				out = append(out, winnerPick(base, proj, awayName(proj), p2))
			}
		}
	}

	return out
}

func winnerPick(base SoccerPick, proj types.SoccerProjection, teamName string, prob float64) SoccerPick {
	p := base
	p.Market = Market1X2
	p.Pick = teamName
	p.Confidence = SoccerConfidenceFromProb(prob)
	p.Prob = prob
	p.EdgePct = proj.Pick1X2.EdgePct
	p.Note = proj.Pick1X2.Note
	if p.Note == "" {
		p.Note = "Probabilidad 1X2 derivada del modelo."
	}
	return p
}

func homeName(proj types.SoccerProjection) string {
	if proj.HomeTeam != nil && proj.HomeTeam.Name != "" {
		return proj.HomeTeam.Name
	}
	return "Local"
}

func awayName(proj types.SoccerProjection) string {
	if proj.AwayTeam != nil && proj.AwayTeam.Name != "" {
		return proj.AwayTeam.Name
	}
	return "Visitante"
}

// totalOverProb reports the over-2.5 probability and whether the projection
// carried total-market data at all. Without data the market is skipped
// entirely rather than read as P(over)=0, which would manufacture a
// certainty-1.0 under pick.
func totalOverProb(proj types.SoccerProjection) (float64, bool) {
	if proj.ProbOver25 != nil {
		return clamp01(*proj.ProbOver25), true
	}
	if proj.Over25Pick != nil && proj.Over25Pick.Prob != nil {
		return clamp01(*proj.Over25Pick.Prob), true
	}
	return 0, false
}

func derefOrZero(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

// DedupeByEventBest keeps only the highest-scoring candidate per event. The
// kept pick's fields are untouched, never merged with a sibling's.
func DedupeByEventBest(list []SoccerPick) []SoccerPick {
	best := make(map[string]SoccerPick)
	order := make([]string, 0, len(list))

	for _, p := range list {
		prev, seen := best[p.EventID]
		if !seen {
			order = append(order, p.EventID)
			best[p.EventID] = p
			continue
		}
		if ScoreSoccerPick(p) > ScoreSoccerPick(prev) {
			best[p.EventID] = p
		}
	}

	out := make([]SoccerPick, 0, len(order))
	for _, id := range order {
		out = append(out, best[id])
	}
	return out
}

// RankSoccerPicks sorts picks best-first by score. Stable, so ties keep
// input order.
func RankSoccerPicks(list []SoccerPick) {
	sort.SliceStable(list, func(i, j int) bool {
		return ScoreSoccerPick(list[i]) > ScoreSoccerPick(list[j])
	})
}
