package models

import (
	"context"
	"errors"
	"time"

	"github.com/msahtani/storeyes-backend/config"
	"github.com/msahtani/storeyes-backend/utils"
	"github.com/shopspring/decimal"
)

// VariableCharge is a one-off, exact-dated expense (an ingredient delivery,
// a repair) as opposed to the recurring fixed charges.
type VariableCharge struct {
	ID               int             `gorm:"primary_key" json:"id"`
	StoreId          int             `gorm:"index;not null" json:"store_id"`
	Name             string          `gorm:"size:255;not null" json:"name" binding:"required"`
	Amount           decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount" binding:"required"`
	Date             time.Time       `gorm:"type:date;index;not null" json:"date" binding:"required"`
	Category         string          `gorm:"size:64" json:"category"`
	Supplier         string          `gorm:"size:255" json:"supplier"`
	Notes            string          `gorm:"type:text" json:"notes"`
	PurchaseOrderUrl string          `gorm:"size:512" json:"purchase_order_url"`
	CreatedAt        time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (obj VariableCharge) GetId() int {
	return obj.ID
}

type NewVariableCharge struct {
	Name             string          `json:"name" binding:"required"`
	Amount           decimal.Decimal `json:"amount" binding:"required"`
	Date             time.Time       `json:"date" binding:"required"`
	Category         string          `json:"category"`
	Supplier         string          `json:"supplier"`
	Notes            string          `json:"notes"`
	PurchaseOrderUrl string          `json:"purchase_order_url"`
}

type UpdateVariableChargeInput struct {
	Name             *string          `json:"name"`
	Amount           *decimal.Decimal `json:"amount"`
	Date             *time.Time       `json:"date"`
	Category         *string          `json:"category"`
	Supplier         *string          `json:"supplier"`
	Notes            *string          `json:"notes"`
	PurchaseOrderUrl *string          `json:"purchase_order_url"`
}

func CreateVariableCharge(ctx context.Context, input *NewVariableCharge) (*VariableCharge, error) {
	storeId, ok := utils.GetStoreIdFromContext(ctx)
	if !ok || storeId == 0 {
		return nil, errors.New("store id is required")
	}
	if !input.Amount.GreaterThan(decimal.Zero) {
		return nil, utils.NewValidationError("amount must be positive")
	}

	charge := VariableCharge{
		StoreId:          storeId,
		Name:             input.Name,
		Amount:           input.Amount,
		Date:             input.Date,
		Category:         input.Category,
		Supplier:         input.Supplier,
		Notes:            input.Notes,
		PurchaseOrderUrl: input.PurchaseOrderUrl,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&charge).Error; err != nil {
		return nil, err
	}

	if err := utils.InvalidateStatisticsCache(storeId); err != nil {
		config.LogError(config.GetLogger(), "models", "CreateVariableCharge", "invalidate statistics cache", storeId, err)
	}

	return &charge, nil
}

func UpdateVariableCharge(ctx context.Context, id int, input *UpdateVariableChargeInput) (*VariableCharge, error) {
	storeId, ok := utils.GetStoreIdFromContext(ctx)
	if !ok || storeId == 0 {
		return nil, errors.New("store id is required")
	}

	charge, err := utils.FetchModel[VariableCharge](ctx, storeId, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		charge.Name = *input.Name
	}
	if input.Amount != nil {
		if !input.Amount.GreaterThan(decimal.Zero) {
			return nil, utils.NewValidationError("amount must be positive")
		}
		charge.Amount = *input.Amount
	}
	if input.Date != nil {
		charge.Date = *input.Date
	}
	if input.Category != nil {
		charge.Category = *input.Category
	}
	if input.Supplier != nil {
		charge.Supplier = *input.Supplier
	}
	if input.Notes != nil {
		charge.Notes = *input.Notes
	}
	if input.PurchaseOrderUrl != nil {
		charge.PurchaseOrderUrl = *input.PurchaseOrderUrl
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Save(charge).Error; err != nil {
		return nil, err
	}

	if err := utils.InvalidateStatisticsCache(storeId); err != nil {
		config.LogError(config.GetLogger(), "models", "UpdateVariableCharge", "invalidate statistics cache", storeId, err)
	}

	return charge, nil
}

func DeleteVariableCharge(ctx context.Context, id int) (*VariableCharge, error) {
	storeId, ok := utils.GetStoreIdFromContext(ctx)
	if !ok || storeId == 0 {
		return nil, errors.New("store id is required")
	}

	charge, err := utils.FetchModel[VariableCharge](ctx, storeId, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Delete(&VariableCharge{}, id).Error; err != nil {
		return nil, err
	}

	if err := utils.InvalidateStatisticsCache(storeId); err != nil {
		config.LogError(config.GetLogger(), "models", "DeleteVariableCharge", "invalidate statistics cache", storeId, err)
	}

	return charge, nil
}

func GetVariableCharge(ctx context.Context, id int) (*VariableCharge, error) {
	storeId, ok := utils.GetStoreIdFromContext(ctx)
	if !ok || storeId == 0 {
		return nil, errors.New("store id is required")
	}
	return utils.FetchModel[VariableCharge](ctx, storeId, id)
}

// ListVariableCharges filters by optional date range and category,
// newest first.
func ListVariableCharges(ctx context.Context, startDate *time.Time, endDate *time.Time, category *string) ([]*VariableCharge, error) {
	storeId, ok := utils.GetStoreIdFromContext(ctx)
	if !ok || storeId == 0 {
		return nil, errors.New("store id is required")
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("store_id = ?", storeId)
	if startDate != nil && endDate != nil {
		dbCtx = dbCtx.Where("date BETWEEN ? AND ?", *startDate, *endDate)
	}
	if category != nil && *category != "" {
		dbCtx = dbCtx.Where("category = ?", *category)
	}

	var charges []*VariableCharge
	if err := dbCtx.Order("date desc").Find(&charges).Error; err != nil {
		return nil, err
	}
	return charges, nil
}

// VariableChargesForRange sums nothing; it hands the raw rows of a window
// to the statistics layer.
func VariableChargesForRange(ctx context.Context, storeId int, from, to time.Time) ([]*VariableCharge, error) {
	db := config.GetDB()
	var charges []*VariableCharge
	err := db.WithContext(ctx).
		Where("store_id = ? AND date BETWEEN ? AND ?", storeId, from, to).
		Find(&charges).Error
	if err != nil {
		return nil, err
	}
	return charges, nil
}
