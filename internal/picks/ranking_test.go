package picks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pk(name, tier string, prob, marginPct, edge float64) PlayerPick {
	return PlayerPick{
		PlayerName: name,
		Tier:       tier,
		ProbCover:  prob,
		MarginPct:  marginPct,
		Edge:       edge,
	}
}

func names(list []PlayerPick) []string {
	out := make([]string, len(list))
	for i, p := range list {
		out[i] = p.PlayerName
	}
	return out
}

func TestRankPicks_FourKeyOrder(t *testing.T) {
	list := []PlayerPick{
		pk("leans-high-prob", TierLeans, 0.80, 30, 50),
		pk("platinum-low-prob", TierPlatinum, 0.51, 1, 26),
		pk("value", TierValue, 0.60, 8, 9),
		pk("premium", TierPremium, 0.55, 6, 16),
	}

	RankPicks(list)

	// Tier dominates everything else
	assert.Equal(t, []string{"platinum-low-prob", "premium", "value", "leans-high-prob"}, names(list))
}

func TestRankPicks_TieBreaks(t *testing.T) {
	list := []PlayerPick{
		pk("low-edge", TierValue, 0.60, 8, 8.1),
		pk("high-edge", TierValue, 0.60, 8, 12),
		pk("high-margin", TierValue, 0.60, 9, 8),
		pk("high-prob", TierValue, 0.65, 5, 8),
	}

	RankPicks(list)

	assert.Equal(t, []string{"high-prob", "high-margin", "high-edge", "low-edge"}, names(list))
}

func TestRankPicks_StableAndIdempotent(t *testing.T) {
	list := []PlayerPick{
		pk("first", TierValue, 0.6, 8, 10),
		pk("second", TierValue, 0.6, 8, 10),
		pk("third", TierValue, 0.6, 8, 10),
	}

	RankPicks(list)
	first := names(list)
	assert.Equal(t, []string{"first", "second", "third"}, first, "equal picks keep input order")

	// Sorting an already-sorted list must not reshuffle it
	RankPicks(list)
	assert.Equal(t, first, names(list))
}

func TestSelectTopN_StrongSubsetSufficient(t *testing.T) {
	var list []PlayerPick
	for i := 0; i < 8; i++ {
		list = append(list, pk("strong", TierValue, 0.6, 12, 9))
	}
	out := SelectTopN(list, 6)
	require.Len(t, out, 6)
	for _, p := range out {
		assert.GreaterOrEqual(t, p.MarginPct, 10.0)
	}
}

func TestSelectTopN_FallsBackToMediumSubset(t *testing.T) {
	list := []PlayerPick{
		pk("s1", TierPremium, 0.7, 15, 16),
		pk("s2", TierValue, 0.65, 11, 9),
		pk("m1", TierValue, 0.6, 9, 8),
		pk("m2", TierValue, 0.6, 8, 8),
		pk("m3", TierValue, 0.58, 7, 8),
		pk("m4", TierValue, 0.57, 6, 8),
		pk("weak1", TierLeans, 0.5, 2, 1),
		pk("weak2", TierLeans, 0.5, 1, 1),
	}
	RankPicks(list)

	out := SelectTopN(list, 6)
	require.Len(t, out, 6)
	// Only 2 picks clear 10%, but 6 clear 5%: the whole selection comes from
	// the >=5% subset and nothing below 5% sneaks in
	for _, p := range out {
		assert.GreaterOrEqual(t, p.MarginPct, 5.0)
	}
}

func TestSelectTopN_UnrestrictedFallback(t *testing.T) {
	list := []PlayerPick{
		pk("a", TierValue, 0.6, 9, 8),
		pk("b", TierLeans, 0.55, 3, 2),
		pk("c", TierLeans, 0.5, 1, 1),
	}
	RankPicks(list)

	out := SelectTopN(list, 6)
	assert.Len(t, out, 3, "fewer picks than target returns everything")
	assert.Equal(t, []string{"a", "b", "c"}, names(out))
}

func TestSelectTopN_ZeroTarget(t *testing.T) {
	assert.Empty(t, SelectTopN([]PlayerPick{pk("a", TierValue, 0.6, 12, 9)}, 0))
}
