package models

import (
	"context"
	"time"

	"github.com/msahtani/storeyes-backend/config"
	"github.com/msahtani/storeyes-backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm/clause"
)

// DailyRevenue is one day's total revenue for a store, fed by the POS
// ingestion endpoint. A day without a row counts as zero.
type DailyRevenue struct {
	ID        int             `gorm:"primary_key" json:"id"`
	StoreId   int             `gorm:"uniqueIndex:uniq_daily_revenue;not null" json:"store_id"`
	Date      time.Time       `gorm:"type:date;uniqueIndex:uniq_daily_revenue;not null" json:"date"`
	Amount    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (obj DailyRevenue) GetId() int {
	return obj.ID
}

// UpsertDailyRevenue replaces the day's figure; POS sync may resend a day
// with corrected totals.
func UpsertDailyRevenue(ctx context.Context, storeId int, date time.Time, amount decimal.Decimal) (*DailyRevenue, error) {
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	revenue := DailyRevenue{
		StoreId: storeId,
		Date:    day,
		Amount:  amount,
	}

	db := config.GetDB()
	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "store_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"amount", "updated_at"}),
	}).Create(&revenue).Error
	if err != nil {
		return nil, err
	}

	if err := utils.InvalidateStatisticsCache(storeId); err != nil {
		config.LogError(config.GetLogger(), "models", "UpsertDailyRevenue", "invalidate statistics cache", storeId, err)
	}

	return &revenue, nil
}

// RevenueForRange sums the store's revenue over [from, to]; missing days
// contribute nothing.
func RevenueForRange(ctx context.Context, storeId int, from, to time.Time) (decimal.Decimal, error) {
	db := config.GetDB()
	var rows []*DailyRevenue
	err := db.WithContext(ctx).
		Where("store_id = ? AND date BETWEEN ? AND ?", storeId, from, to).
		Find(&rows).Error
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, row := range rows {
		total = total.Add(row.Amount)
	}
	return total, nil
}

// RevenueByDay returns the window's rows keyed by date for chart building.
func RevenueByDay(ctx context.Context, storeId int, from, to time.Time) (map[string]decimal.Decimal, error) {
	db := config.GetDB()
	var rows []*DailyRevenue
	err := db.WithContext(ctx).
		Where("store_id = ? AND date BETWEEN ? AND ?", storeId, from, to).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	byDay := make(map[string]decimal.Decimal, len(rows))
	for _, row := range rows {
		byDay[row.Date.Format(utils.DateLayout)] = row.Amount
	}
	return byDay, nil
}
