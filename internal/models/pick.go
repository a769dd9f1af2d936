package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SavedPick is one pick a user chose to keep. Rows are append-only: no
// update or delete path exists.
type SavedPick struct {
	ID         string    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     string    `gorm:"not null;index:idx_saved_picks_user_created,priority:1" json:"user_id"`
	Sport      string    `gorm:"not null" json:"sport"`
	Date       string    `gorm:"not null" json:"date"`
	EventID    string    `json:"event_id"`
	Matchup    string    `json:"matchup"`
	Type       string    `json:"type"`
	Label      string    `json:"label"`
	Confidence string    `json:"confidence"`
	Diff       float64   `json:"diff"`
	Provider   *string   `json:"provider,omitempty"`
	OddsDetail *string   `gorm:"column:odds_details" json:"odds_details,omitempty"`
	TotalLine  *float64  `json:"total_line,omitempty"`
	HomeSpread *float64  `json:"home_spread,omitempty"`
	ProjHome   *float64  `gorm:"column:projected_home" json:"projected_home,omitempty"`
	ProjAway   *float64  `gorm:"column:projected_away" json:"projected_away,omitempty"`
	ProjTotal  *float64  `gorm:"column:projected_total" json:"projected_total,omitempty"`

	// Raw keeps the pick exactly as it was generated, for later auditing.
	Raw datatypes.JSON `gorm:"type:jsonb" json:"raw,omitempty"`

	CreatedAt time.Time `gorm:"index:idx_saved_picks_user_created,priority:2,sort:desc" json:"created_at"`
}

// TableName specifies the table name for GORM
func (SavedPick) TableName() string {
	return "saved_picks"
}

// BeforeCreate assigns the row id when the caller did not
func (p *SavedPick) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

// PickStore persists saved picks on Postgres through GORM
type PickStore struct {
	db *gorm.DB
}

// NewPickStore creates a pick store
func NewPickStore(db *gorm.DB) *PickStore {
	return &PickStore{db: db}
}

// CreateSavedPicks inserts a batch of picks in one statement
func (s *PickStore) CreateSavedPicks(picks []SavedPick) (int64, error) {
	if len(picks) == 0 {
		return 0, nil
	}
	result := s.db.Create(&picks)
	return result.RowsAffected, result.Error
}

// ListSavedPicks returns a user's saved picks, newest first
func (s *PickStore) ListSavedPicks(userID string, limit int) ([]SavedPick, error) {
	if limit <= 0 {
		limit = 50
	}
	var picks []SavedPick
	err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&picks).Error
	return picks, err
}
