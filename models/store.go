package models

import (
	"context"
	"errors"
	"time"

	"github.com/msahtani/storeyes-backend/config"
	"github.com/msahtani/storeyes-backend/utils"
)

type Store struct {
	ID        int       `gorm:"primary_key" json:"id"`
	OwnerId   int       `gorm:"index;not null" json:"owner_id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Address   string    `gorm:"size:255" json:"address"`
	Timezone  string    `gorm:"size:64;default:'UTC'" json:"timezone"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (obj Store) GetId() int {
	return obj.ID
}

type UpdateStoreInput struct {
	Name     *string `json:"name"`
	Address  *string `json:"address"`
	Timezone *string `json:"timezone"`
}

// GetStoreByOwner resolves the store owned by the authenticated user.
func GetStoreByOwner(ctx context.Context, ownerId int) (*Store, error) {
	db := config.GetDB()
	var store Store
	err := db.WithContext(ctx).Where("owner_id = ?", ownerId).First(&store).Error
	if err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &store, nil
}

// GetStore returns the caller's store, consulting the per-id cache first.
// Cache failures fall through to the database.
func GetStore(ctx context.Context) (*Store, error) {
	storeId, ok := utils.GetStoreIdFromContext(ctx)
	if !ok || storeId == 0 {
		return nil, errors.New("store id is required")
	}

	cached, err := utils.RetrieveRedis[Store](storeId)
	if err != nil {
		config.LogError(config.GetLogger(), "models", "GetStore", "read store cache", storeId, err)
	}
	if cached != nil && cached.ID == storeId {
		return cached, nil
	}

	store, err := utils.FetchSingleModel[Store](ctx, storeId)
	if err != nil {
		return nil, err
	}
	if err := utils.StoreRedis[Store](store, store.ID); err != nil {
		config.LogError(config.GetLogger(), "models", "GetStore", "write store cache", storeId, err)
	}
	return store, nil
}

// UpdateStore edits the store profile and drops the cached copies, both
// the per-id entry and the owner resolution used by the auth middleware.
func UpdateStore(ctx context.Context, input *UpdateStoreInput) (*Store, error) {
	storeId, ok := utils.GetStoreIdFromContext(ctx)
	if !ok || storeId == 0 {
		return nil, errors.New("store id is required")
	}

	store, err := utils.FetchSingleModel[Store](ctx, storeId)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := *input.Name
		if name == "" {
			return nil, utils.NewValidationError("store name must not be empty")
		}
		store.Name = name
	}
	if input.Address != nil {
		store.Address = *input.Address
	}
	if input.Timezone != nil {
		if _, err := time.LoadLocation(*input.Timezone); err != nil {
			return nil, utils.NewValidationError("invalid timezone: " + *input.Timezone)
		}
		store.Timezone = *input.Timezone
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(&Store{ID: store.ID}).Updates(map[string]interface{}{
		"Name":     store.Name,
		"Address":  store.Address,
		"Timezone": store.Timezone,
	}).Error; err != nil {
		return nil, err
	}

	if err := utils.RemoveRedisItem[Store](store.ID); err != nil {
		config.LogError(config.GetLogger(), "models", "UpdateStore", "drop store cache", store.ID, err)
	}
	if err := config.RemoveRedisKey(utils.StoreOwnerCacheKey(store.OwnerId)); err != nil {
		config.LogError(config.GetLogger(), "models", "UpdateStore", "drop owner cache", store.OwnerId, err)
	}
	return store, nil
}
