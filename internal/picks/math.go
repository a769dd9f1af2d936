package picks

import "math"

// Direction says which side of the book line the projection falls on
type Direction string

const (
	DirectionOver  Direction = "OVER"
	DirectionUnder Direction = "UNDER"
)

// Confidence labels, coarsest communication of pick strength
const (
	ConfidenceAlta      = "Alta"
	ConfidenceMediaAlta = "Media-Alta"
	ConfidenceMedia     = "Media"
	ConfidenceBaja      = "Baja"
)

// Tier labels derived from edge magnitude
const (
	TierPlatinum = "Platinum"
	TierPremium  = "Premium"
	TierValue    = "Value"
	TierLeans    = "Leans"
)

// Edge thresholds for tier assignment, inclusive at the lower bound
const (
	TierPlatinumEdge = 25.0
	TierPremiumEdge  = 15.0
	TierValueEdge    = 8.0
)

// TierFromEdge buckets an edge into a discrete quality tier. Thresholds are
// evaluated top-down, first match wins, so an edge of exactly 25 is Platinum.
func TierFromEdge(edge float64) string {
	if edge >= TierPlatinumEdge {
		return TierPlatinum
	}
	if edge >= TierPremiumEdge {
		return TierPremium
	}
	if edge >= TierValueEdge {
		return TierValue
	}
	return TierLeans
}

// TierRank maps a tier label to its sort weight. Unrecognized tiers rank
// below Leans.
func TierRank(tier string) int {
	switch tier {
	case TierPlatinum:
		return 4
	case TierPremium:
		return 3
	case TierValue:
		return 2
	case TierLeans:
		return 1
	default:
		return 0
	}
}

// Margin describes how far a projection sits from the book line
type Margin struct {
	Direction Direction
	Abs       float64
	Pct       float64
}

// DirectionAndMargin computes the pick direction and margin against the book
// line. A zero or negative book line is a degenerate input, not an error: the
// result is OVER with zero margins. Total function, never fails.
func DirectionAndMargin(projected, bookLine float64) Margin {
	if bookLine <= 0 || math.IsNaN(bookLine) {
		return Margin{Direction: DirectionOver}
	}

	direction := DirectionUnder
	if projected >= bookLine {
		direction = DirectionOver
	}
	abs := math.Abs(projected - bookLine)

	return Margin{
		Direction: direction,
		Abs:       abs,
		Pct:       abs / bookLine * 100,
	}
}

// ConfidenceFromMargin buckets a margin percentage into a confidence label.
// Comparisons are strictly greater-than, so exactly 15 is Media-Alta.
func ConfidenceFromMargin(marginPct float64) string {
	if marginPct > 15 {
		return ConfidenceAlta
	}
	if marginPct > 10 {
		return ConfidenceMediaAlta
	}
	if marginPct > 5 {
		return ConfidenceMedia
	}
	return ConfidenceBaja
}

// EstimateProbCover maps a margin percentage to an estimated cover
// probability on a 0..1 scale: 0.5 + pct/100 * 0.75, clamped to [0.5, 0.8].
// A heuristic linear mapping, not a calibrated model; the coefficients and
// clamp bounds are load-bearing for callers.
func EstimateProbCover(marginPct float64) float64 {
	p := 0.5 + (marginPct/100)*0.75
	if p < 0.5 || math.IsNaN(p) {
		return 0.5
	}
	if p > 0.8 {
		return 0.8
	}
	return p
}

// EffectiveMarginPct picks the margin percentage used for confidence and
// probability: a positive backend-supplied safety margin always wins over the
// locally computed one.
func EffectiveMarginPct(safetyMarginPct, computedPct float64) float64 {
	if safetyMarginPct > 0 {
		return safetyMarginPct
	}
	return computedPct
}
