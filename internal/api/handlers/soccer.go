package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/picksrocket/picksrocket/internal/api/middleware"
	"github.com/picksrocket/picksrocket/internal/providers"
	"github.com/picksrocket/picksrocket/internal/services"
	"github.com/picksrocket/picksrocket/internal/utils"
)

// SoccerHandler serves soccer picks, tournaments, and team logos
type SoccerHandler struct {
	soccerPicks *services.SoccerPicksService
	logos       *providers.LogoResolver
	metrics     *middleware.Metrics
	logger      *logrus.Logger
}

// NewSoccerHandler creates a new soccer handler
func NewSoccerHandler(
	soccerPicks *services.SoccerPicksService,
	logos *providers.LogoResolver,
	metrics *middleware.Metrics,
	logger *logrus.Logger,
) *SoccerHandler {
	return &SoccerHandler{
		soccerPicks: soccerPicks,
		logos:       logos,
		metrics:     metrics,
		logger:      logger,
	}
}

// GetAIPicks handles GET /api/v1/soccer/ai-picks?league=
func (h *SoccerHandler) GetAIPicks(c *gin.Context) {
	league := strings.TrimSpace(c.Query("league"))

	result, err := h.soccerPicks.Generate(c.Request.Context(), league)
	if err != nil {
		h.logger.WithError(err).WithField("league", league).Error("Failed to generate soccer picks")
		if h.metrics != nil {
			h.metrics.UpstreamErrors.WithLabelValues("soccer-ai-picks").Inc()
		}
		utils.SendBadGateway(c, "Failed to generate picks")
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetTournaments handles GET /api/v1/soccer/tournaments
func (h *SoccerHandler) GetTournaments(c *gin.Context) {
	tournaments, err := h.soccerPicks.Tournaments(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to fetch tournaments")
		if h.metrics != nil {
			h.metrics.UpstreamErrors.WithLabelValues("tournaments").Inc()
		}
		utils.SendBadGateway(c, "Failed to fetch tournaments")
		return
	}

	c.JSON(http.StatusOK, gin.H{"tournaments": tournaments})
}

// GetTeamLogo handles GET /api/v1/soccer/team-logo?league=&abbr=&name=
// A fixture we cannot resolve answers an empty url so the client can render
// initials instead.
func (h *SoccerHandler) GetTeamLogo(c *gin.Context) {
	league := strings.TrimSpace(c.Query("league"))
	abbr := strings.TrimSpace(c.Query("abbr"))
	name := strings.TrimSpace(c.Query("name"))

	if league == "" {
		c.JSON(http.StatusOK, gin.H{"url": ""})
		return
	}

	url := h.logos.SoccerLogoURL(c.Request.Context(), league, abbr, name)
	c.JSON(http.StatusOK, gin.H{"url": url})
}
