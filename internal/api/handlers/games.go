package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/picksrocket/picksrocket/internal/api/middleware"
	"github.com/picksrocket/picksrocket/internal/config"
	"github.com/picksrocket/picksrocket/internal/providers"
	"github.com/picksrocket/picksrocket/internal/types"
	"github.com/picksrocket/picksrocket/internal/utils"
)

const maxUpcomingScanDays = 14

// GamesHandler proxies cached slate lookups to the projection backend
type GamesHandler struct {
	edge    *providers.EdgeClient
	cfg     *config.Config
	metrics *middleware.Metrics
	logger  *logrus.Logger
}

// NewGamesHandler creates a new games handler
func NewGamesHandler(
	edge *providers.EdgeClient,
	cfg *config.Config,
	metrics *middleware.Metrics,
	logger *logrus.Logger,
) *GamesHandler {
	return &GamesHandler{edge: edge, cfg: cfg, metrics: metrics, logger: logger}
}

// GetGamesWithOdds handles GET /api/v1/:sport/games-with-odds
func (h *GamesHandler) GetGamesWithOdds(c *gin.Context) {
	sport := types.Sport(c.Param("sport"))
	if sport != types.SportNFL && sport != types.SportNBA && sport != types.SportSoccer {
		utils.SendBadRequest(c, "Invalid sport")
		return
	}

	query := providers.GamesQuery{
		Date:   c.Query("date"),
		League: c.Query("league"),
	}
	query.Season, _ = strconv.Atoi(c.Query("season"))
	query.SeasonType, _ = strconv.Atoi(c.Query("season_type"))
	query.Week, _ = strconv.Atoi(c.Query("week"))

	if query.Date == "" && query.League == "" && query.Season == 0 {
		utils.SendBadRequest(c, "date, league, or season parameters required")
		return
	}

	games, err := h.edge.GamesWithOdds(c.Request.Context(), sport, query)
	if err != nil {
		h.logger.WithError(err).WithField("sport", string(sport)).Error("Failed to fetch games")
		if h.metrics != nil {
			h.metrics.UpstreamErrors.WithLabelValues("games-with-odds").Inc()
		}
		utils.SendBadGateway(c, "Failed to fetch games")
		return
	}
	if games == nil {
		games = []types.Game{}
	}

	c.JSON(http.StatusOK, gin.H{"games": games})
}

// GetUpcomingGames handles GET /api/v1/:sport/upcoming-games?days=
// NBA and soccer scan forward day by day; NFL slates are weekly, so the
// configured current week is the answer.
func (h *GamesHandler) GetUpcomingGames(c *gin.Context) {
	sport := types.Sport(c.Param("sport"))
	if sport != types.SportNFL && sport != types.SportNBA && sport != types.SportSoccer {
		utils.SendBadRequest(c, "Invalid sport")
		return
	}

	if sport == types.SportNFL {
		games, err := h.edge.GamesWithOdds(c.Request.Context(), sport, providers.GamesQuery{
			Season:     h.cfg.NFLSeason,
			SeasonType: h.cfg.NFLSeasonType,
			Week:       h.cfg.NFLWeek,
		})
		if err != nil {
			h.logger.WithError(err).Error("Failed to fetch NFL week slate")
			if h.metrics != nil {
				h.metrics.UpstreamErrors.WithLabelValues("upcoming-games").Inc()
			}
			utils.SendBadGateway(c, "Failed to fetch games")
			return
		}
		if games == nil {
			games = []types.Game{}
		}
		c.JSON(http.StatusOK, gin.H{"week": h.cfg.NFLWeek, "games": games})
		return
	}

	days := 7
	if v := c.Query("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			utils.SendBadRequest(c, "days must be a positive integer")
			return
		}
		days = n
	}
	if days > maxUpcomingScanDays {
		days = maxUpcomingScanDays
	}

	date, games, err := h.edge.FirstAvailableGames(c.Request.Context(), sport, days)
	if err != nil {
		h.logger.WithError(err).WithField("sport", string(sport)).Error("Failed to find upcoming games")
		if h.metrics != nil {
			h.metrics.UpstreamErrors.WithLabelValues("upcoming-games").Inc()
		}
		utils.SendBadGateway(c, "Failed to fetch games")
		return
	}
	if games == nil {
		games = []types.Game{}
	}

	c.JSON(http.StatusOK, gin.H{"date": date, "games": games})
}
