package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/picksrocket/picksrocket/internal/api/middleware"
	"github.com/picksrocket/picksrocket/internal/picks"
	"github.com/picksrocket/picksrocket/internal/services"
	"github.com/picksrocket/picksrocket/internal/types"
	"github.com/picksrocket/picksrocket/internal/utils"
)

// PicksHandler serves NFL/NBA player-prop picks and NBA game picks
type PicksHandler struct {
	aiPicks   *services.AIPicksService
	gamePicks *services.GamePicksService
	metrics   *middleware.Metrics
	logger    *logrus.Logger
}

// NewPicksHandler creates a new picks handler
func NewPicksHandler(
	aiPicks *services.AIPicksService,
	gamePicks *services.GamePicksService,
	metrics *middleware.Metrics,
	logger *logrus.Logger,
) *PicksHandler {
	return &PicksHandler{
		aiPicks:   aiPicks,
		gamePicks: gamePicks,
		metrics:   metrics,
		logger:    logger,
	}
}

// playerPickDTO is the wire shape of one player-prop pick. ProbCover is on
// the 0..100 scale here; the engine works in 0..1 internally.
type playerPickDTO struct {
	Matchup         string         `json:"matchup"`
	EventID         string         `json:"event_id"`
	Provider        *string        `json:"provider"`
	Details         *string        `json:"details"`
	OverUnder       *float64       `json:"over_under"`
	Team            string         `json:"team"`
	Opp             string         `json:"opp"`
	AthleteID       string         `json:"athlete_id"`
	PlayerName      string         `json:"player_name"`
	Position        string         `json:"position"`
	MarketType      string         `json:"market_type"`
	BookLine        float64        `json:"book_line"`
	Projection      float64        `json:"wspm_projection"`
	Edge            float64        `json:"edge"`
	Direction       string         `json:"direction"`
	MarginAbs       float64        `json:"margin_abs"`
	MarginPct       float64        `json:"margin_pct"`
	ProbCover       float64        `json:"prob_cover"`
	Confidence      string         `json:"confidence"`
	Tier            string         `json:"tier"`
	SafetyMarginPct float64        `json:"safety_margin_pct"`
	Raw             map[string]any `json:"raw,omitempty"`
}

func toPlayerPickDTO(p picks.PlayerPick) playerPickDTO {
	dto := playerPickDTO{
		Matchup:         p.Matchup,
		EventID:         p.EventID,
		OverUnder:       p.OverUnder,
		Team:            p.Team,
		Opp:             p.Opp,
		AthleteID:       p.AthleteID,
		PlayerName:      p.PlayerName,
		Position:        p.Position,
		MarketType:      p.MarketType,
		BookLine:        p.BookLine,
		Projection:      p.Projection,
		Edge:            p.Edge,
		Direction:       string(p.Direction),
		MarginAbs:       p.MarginAbs,
		MarginPct:       p.MarginPct,
		ProbCover:       p.ProbCover * 100,
		Confidence:      p.Confidence,
		Tier:            p.Tier,
		SafetyMarginPct: p.SafetyMarginPct,
		Raw:             p.Raw,
	}
	if p.Provider != "" {
		dto.Provider = &p.Provider
	}
	if p.Details != "" {
		dto.Details = &p.Details
	}
	return dto
}

// GenerateAIPicks handles POST /api/v1/:sport/ai-picks
func (h *PicksHandler) GenerateAIPicks(c *gin.Context) {
	sport := types.Sport(c.Param("sport"))
	if sport != types.SportNFL && sport != types.SportNBA {
		utils.SendBadRequest(c, "Invalid sport")
		return
	}

	var req services.AIPicksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendBadRequest(c, "Missing JSON body")
		return
	}

	result, err := h.aiPicks.Generate(c.Request.Context(), sport, req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidRequest) {
			utils.SendBadRequest(c, err.Error())
			return
		}
		h.logger.WithError(err).WithField("sport", string(sport)).Error("Failed to generate AI picks")
		if h.metrics != nil {
			h.metrics.UpstreamErrors.WithLabelValues("ai-picks").Inc()
		}
		utils.SendBadGateway(c, "Failed to fetch games: "+err.Error())
		return
	}

	if h.metrics != nil {
		h.metrics.PicksGenerated.WithLabelValues(string(sport)).Add(float64(len(result.Picks)))
	}

	out := make([]playerPickDTO, 0, len(result.Picks))
	for _, p := range result.Picks {
		out = append(out, toPlayerPickDTO(p))
	}

	c.JSON(http.StatusOK, gin.H{
		"sport":        string(sport),
		"generated_at": result.GeneratedAt.Format(time.RFC3339),
		"assumptions":  gin.H{"note": result.Note},
		"diagnostics":  result.Diagnostics,
		"picks":        out,
		"errors":       result.Errors,
	})
}

// GenerateGamePicks handles POST /api/v1/nba/game-picks
func (h *PicksHandler) GenerateGamePicks(c *gin.Context) {
	var req services.GamePicksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendBadRequest(c, "Missing JSON body")
		return
	}

	result, err := h.gamePicks.Generate(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidRequest) {
			utils.SendBadRequest(c, "date requerido en formato YYYYMMDD")
			return
		}
		h.logger.WithError(err).Error("Failed to generate game picks")
		if h.metrics != nil {
			h.metrics.UpstreamErrors.WithLabelValues("game-picks").Inc()
		}
		utils.SendBadGateway(c, "No se pudo obtener games-with-odds")
		return
	}

	if h.metrics != nil {
		h.metrics.PicksGenerated.WithLabelValues("nba-games").Add(float64(len(result.Top6)))
	}

	c.JSON(http.StatusOK, result)
}
