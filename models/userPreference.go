package models

import (
	"context"
	"errors"
	"time"

	"github.com/msahtani/storeyes-backend/config"
	"github.com/msahtani/storeyes-backend/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const PreferenceKeyPersonnelChargeLastPeriod = "personnel_charge_last_period"

// UserPreference is a small per-user key/value store; the UI remembers
// whether the user last entered personnel charges weekly or monthly.
type UserPreference struct {
	ID        int       `gorm:"primary_key" json:"id"`
	UserId    int       `gorm:"uniqueIndex:uniq_user_pref;not null" json:"user_id"`
	Key       string    `gorm:"size:64;uniqueIndex:uniq_user_pref;not null" json:"key"`
	Value     string    `gorm:"size:255;not null" json:"value"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func GetUserPreference(ctx context.Context, key string) (*UserPreference, error) {
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == 0 {
		return nil, errors.New("user id is required")
	}

	db := config.GetDB()
	var pref UserPreference
	err := db.WithContext(ctx).
		Where("user_id = ? AND `key` = ?", userId, key).
		First(&pref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrorRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &pref, nil
}

func SetUserPreference(ctx context.Context, key string, value string) (*UserPreference, error) {
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok || userId == 0 {
		return nil, errors.New("user id is required")
	}

	if key == PreferenceKeyPersonnelChargeLastPeriod && value != "week" && value != "month" {
		return nil, utils.NewValidationError("personnel charge period preference must be week or month")
	}

	pref := UserPreference{
		UserId: userId,
		Key:    key,
		Value:  value,
	}
	db := config.GetDB()
	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&pref).Error
	if err != nil {
		return nil, err
	}
	return &pref, nil
}
