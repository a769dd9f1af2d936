package picks

import (
	"encoding/json"
	"math"
	"strconv"
)

// ProjectionSummary is the canonical numeric view of an arbitrary-shaped
// backend projection payload. All fields default to zero when absent or
// malformed; callers rely on the totality of SummarizeProjection.
type ProjectionSummary struct {
	ProjectedValue  float64
	BookLine        float64
	Edge            float64
	SafetyMarginPct float64
	Tier            string
}

// SummarizeProjection extracts the canonical projection tuple from an open
// backend payload. Field fallbacks, in order:
//
//	projected: wspm_projection, model_projection, projection
//	book line: book_line, input_book_line
//
// Edge defaults to projected - bookLine only when the payload omits edge and
// the book line is nonzero. Every numeric field coerces to 0 when missing,
// non-numeric, or non-finite. Total function: it never fails, whatever the
// payload shape.
func SummarizeProjection(payload map[string]any) ProjectionSummary {
	projected := coerceNumber(firstPresent(payload, "wspm_projection", "model_projection", "projection"))
	bookLine := coerceNumber(firstPresent(payload, "book_line", "input_book_line"))

	var edge float64
	if raw, ok := payload["edge"]; ok && raw != nil {
		edge = coerceNumber(raw)
	} else if bookLine != 0 {
		edge = projected - bookLine
	}

	safety := coerceNumber(payload["safety_margin_pct"])

	return ProjectionSummary{
		ProjectedValue:  projected,
		BookLine:        bookLine,
		Edge:            edge,
		SafetyMarginPct: safety,
		Tier:            TierFromEdge(edge),
	}
}

func firstPresent(payload map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := payload[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

// coerceNumber converts the loose numeric shapes a JSON payload can carry
// into a finite float64, defaulting to 0
func coerceNumber(v any) float64 {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		f, _ = n.Float64()
	case string:
		parsed, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0
		}
		f = parsed
	default:
		return 0
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
