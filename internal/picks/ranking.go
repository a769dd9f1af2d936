package picks

import "sort"

// PlayerPick is one model-vs-book recommendation for a player market.
// ProbCover is on the canonical 0..1 scale; presentation layers convert.
type PlayerPick struct {
	Matchup   string
	EventID   string
	Provider  string
	Details   string
	OverUnder *float64

	Team       string
	Opp        string
	AthleteID  string
	PlayerName string
	Position   string
	MarketType string

	BookLine        float64
	Projection      float64
	Edge            float64
	Direction       Direction
	MarginAbs       float64
	MarginPct       float64
	ProbCover       float64
	Confidence      string
	Tier            string
	SafetyMarginPct float64

	Raw map[string]any
}

// RankPicks sorts picks in place, best first: tier rank, then cover
// probability, then margin percentage, then edge. Each later key only breaks
// ties in the earlier ones. The sort is stable so equal picks keep their
// input order.
func RankPicks(list []PlayerPick) {
	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if ta, tb := TierRank(a.Tier), TierRank(b.Tier); ta != tb {
			return ta > tb
		}
		if a.ProbCover != b.ProbCover {
			return a.ProbCover > b.ProbCover
		}
		if a.MarginPct != b.MarginPct {
			return a.MarginPct > b.MarginPct
		}
		return a.Edge > b.Edge
	})
}

// SelectTopN applies the soft-quality cascade to an already-sorted list:
// take up to n picks with margin >= 10%; if that yields fewer than n, restart
// from the >= 5% subset; if still short, from the full list. Each fallback
// replaces the previous attempt entirely rather than topping it up.
func SelectTopN(sorted []PlayerPick, n int) []PlayerPick {
	if n <= 0 {
		return nil
	}

	strong := filterByMarginPct(sorted, 10)
	if len(strong) >= n {
		return strong[:n]
	}

	medium := filterByMarginPct(sorted, 5)
	if len(medium) >= n {
		return medium[:n]
	}

	if len(sorted) > n {
		return sorted[:n]
	}
	return sorted
}

func filterByMarginPct(list []PlayerPick, minPct float64) []PlayerPick {
	out := make([]PlayerPick, 0, len(list))
	for _, p := range list {
		if p.MarginPct >= minPct {
			out = append(out, p)
		}
	}
	return out
}
