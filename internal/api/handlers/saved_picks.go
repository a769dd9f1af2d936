package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"

	"github.com/picksrocket/picksrocket/internal/api/middleware"
	"github.com/picksrocket/picksrocket/internal/models"
	"github.com/picksrocket/picksrocket/internal/utils"
)

const (
	maxPicksPerSave = 25
	historyMaxLimit = 200
	defaultHistoryN = 50
)

// PickPersister is the storage surface the saved-picks endpoints need
type PickPersister interface {
	CreateSavedPicks(picks []models.SavedPick) (int64, error)
	ListSavedPicks(userID string, limit int) ([]models.SavedPick, error)
}

// SavedPicksHandler persists and lists a user's saved picks
type SavedPicksHandler struct {
	store  PickPersister
	logger *logrus.Logger
}

// NewSavedPicksHandler creates a new saved-picks handler
func NewSavedPicksHandler(store PickPersister, logger *logrus.Logger) *SavedPicksHandler {
	return &SavedPicksHandler{store: store, logger: logger}
}

type savePicksBody struct {
	Sport string            `json:"sport"`
	Date  string            `json:"date"`
	Picks []json.RawMessage `json:"picks"`
}

// savePickItem tolerates both snake_case and camelCase field names coming
// from older dashboard builds.
type savePickItem struct {
	EventID     string   `json:"event_id"`
	EventIDAlt  string   `json:"eventId"`
	Matchup     string   `json:"matchup"`
	Type        string   `json:"type"`
	Market      string   `json:"market"`
	Label       string   `json:"label"`
	Confidence  string   `json:"confidence"`
	Diff        float64  `json:"diff"`
	Provider    *string  `json:"provider"`
	OddsDetails *string  `json:"oddsDetails"`
	TotalLine   *float64 `json:"totalLine"`
	HomeSpread  *float64 `json:"homeSpread"`
	ProjHome    *float64 `json:"projectedHome"`
	ProjAway    *float64 `json:"projectedAway"`
	ProjTotal   *float64 `json:"projectedTotal"`
}

// Save handles POST /api/v1/picks/save. Submissions beyond 25 picks are
// silently truncated; rows are append-only.
func (h *SavedPicksHandler) Save(c *gin.Context) {
	userID := middleware.UserID(c)
	if userID == "" {
		utils.SendUnauthorized(c, "No autorizado")
		return
	}

	var body savePicksBody
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.SendBadRequest(c, "Invalid JSON body")
		return
	}

	sport := body.Sport
	if sport == "" {
		sport = "nba"
	}
	if body.Date == "" {
		utils.SendBadRequest(c, "date requerido")
		return
	}
	if len(body.Picks) == 0 {
		utils.SendBadRequest(c, "picks requerido")
		return
	}

	items := body.Picks
	if len(items) > maxPicksPerSave {
		items = items[:maxPicksPerSave]
	}

	rows := make([]models.SavedPick, 0, len(items))
	for _, raw := range items {
		var item savePickItem
		if err := json.Unmarshal(raw, &item); err != nil {
			utils.SendBadRequest(c, "Invalid pick entry")
			return
		}
		eventID := item.EventID
		if eventID == "" {
			eventID = item.EventIDAlt
		}
		pickType := item.Type
		if pickType == "" {
			pickType = item.Market
		}
		rows = append(rows, models.SavedPick{
			UserID:     userID,
			Sport:      sport,
			Date:       body.Date,
			EventID:    eventID,
			Matchup:    item.Matchup,
			Type:       pickType,
			Label:      item.Label,
			Confidence: item.Confidence,
			Diff:       item.Diff,
			Provider:   item.Provider,
			OddsDetail: item.OddsDetails,
			TotalLine:  item.TotalLine,
			HomeSpread: item.HomeSpread,
			ProjHome:   item.ProjHome,
			ProjAway:   item.ProjAway,
			ProjTotal:  item.ProjTotal,
			Raw:        datatypes.JSON(raw),
		})
	}

	created, err := h.store.CreateSavedPicks(rows)
	if err != nil {
		h.logger.WithError(err).WithField("user_id", userID).Error("Failed to save picks")
		utils.SendInternalError(c, "Failed to save picks")
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "created": created})
}

// History handles GET /api/v1/picks/history?limit=
func (h *SavedPicksHandler) History(c *gin.Context) {
	userID := middleware.UserID(c)
	if userID == "" {
		utils.SendUnauthorized(c, "No autorizado")
		return
	}

	limit := defaultHistoryN
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			utils.SendBadRequest(c, "limit must be a positive integer")
			return
		}
		limit = n
	}
	if limit > historyMaxLimit {
		limit = historyMaxLimit
	}

	picks, err := h.store.ListSavedPicks(userID, limit)
	if err != nil {
		h.logger.WithError(err).WithField("user_id", userID).Error("Failed to list saved picks")
		utils.SendInternalError(c, "Failed to list saved picks")
		return
	}
	if picks == nil {
		picks = []models.SavedPick{}
	}

	c.JSON(http.StatusOK, gin.H{"picks": picks})
}
