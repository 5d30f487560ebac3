// seed-dev provisions a local development store with a few charges and
// a month of revenue, then prints a bearer token for the store owner.
//
// Usage (from backend directory):
//   DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/seed-dev
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/msahtani/storeyes-backend/config"
	"github.com/msahtani/storeyes-backend/models"
	"github.com/msahtani/storeyes-backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const ownerId = 1

func main() {
	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}
	models.MigrateTable()

	var store models.Store
	err := db.WithContext(ctx).Where("owner_id = ?", ownerId).First(&store).Error
	if err == gorm.ErrRecordNotFound {
		store = models.Store{
			OwnerId:  ownerId,
			Name:     "Dev Coffee",
			Address:  "1 Rue du Test",
			Timezone: "UTC",
		}
		if err := db.WithContext(ctx).Create(&store).Error; err != nil {
			fmt.Fprintf(os.Stderr, "failed to create store: %v\n", err)
			os.Exit(1)
		}
	} else if err != nil {
		fmt.Fprintf(os.Stderr, "failed to lookup store: %v\n", err)
		os.Exit(1)
	}

	ctx = utils.SetUserIdInContext(ctx, ownerId)
	ctx = utils.SetStoreIdInContext(ctx, store.ID)

	now := time.Now().UTC()
	monthKey := utils.MonthKeyFor(now)
	weekKey := utils.WeekKeyFor(now)

	seedCharge(ctx, &models.NewFixedCharge{
		Category: models.ChargeCategoryWater,
		Period:   models.ChargePeriodMonth,
		MonthKey: monthKey,
		Amount:   decPtr("45.50"),
	})
	seedCharge(ctx, &models.NewFixedCharge{
		Category: models.ChargeCategoryElectricity,
		Period:   models.ChargePeriodMonth,
		MonthKey: monthKey,
		Amount:   decPtr("180"),
	})
	seedCharge(ctx, &models.NewFixedCharge{
		Category: models.ChargeCategoryPersonnel,
		Period:   models.ChargePeriodMonth,
		MonthKey: monthKey,
		Employees: []*models.NewPersonnelEmployee{
			{
				Employee: models.NewEmployee{Name: "Sara", Type: models.EmployeeTypeServer},
				Salary:   decimal.RequireFromString("1400"),
			},
			{
				Employee: models.NewEmployee{Name: "Karim", Type: models.EmployeeTypeCook},
				Salary:   decimal.RequireFromString("1650"),
			},
		},
	})
	seedCharge(ctx, &models.NewFixedCharge{
		Category: models.ChargeCategoryPersonnel,
		Period:   models.ChargePeriodWeek,
		MonthKey: monthKey,
		WeekKey:  &weekKey,
		Employees: []*models.NewPersonnelEmployee{
			{
				Employee: models.NewEmployee{Name: "Lina", Type: models.EmployeeTypeCleaner},
				Salary:   decimal.RequireFromString("320"),
			},
		},
	})

	if _, err := models.CreateVariableCharge(ctx, &models.NewVariableCharge{
		Name:     "Coffee beans",
		Amount:   decimal.RequireFromString("240"),
		Date:     now,
		Category: "supplies",
		Supplier: "Beans & Co",
	}); err != nil && !utils.IsValidationError(err) {
		fmt.Fprintf(os.Stderr, "failed to create variable charge: %v\n", err)
	}

	// a month of revenue, gently sloping upward
	monthStart, _, err := utils.MonthRange(monthKey)
	utils.ErrorPanic(err)
	for day := monthStart; !day.After(now); day = day.AddDate(0, 0, 1) {
		amount := decimal.NewFromInt(300 + int64(day.Day())*5)
		if _, err := models.UpsertDailyRevenue(ctx, store.ID, day, amount); err != nil {
			fmt.Fprintf(os.Stderr, "failed to upsert revenue for %s: %v\n", day.Format(utils.DateLayout), err)
		}
	}

	token, err := utils.JwtGenerate(ownerId, "owner")
	utils.ErrorPanic(err)
	fmt.Printf("store id: %d\n", store.ID)
	fmt.Printf("bearer token: %s\n", token)
}

func seedCharge(ctx context.Context, input *models.NewFixedCharge) {
	if _, err := models.CreateFixedCharge(ctx, input); err != nil {
		fmt.Fprintf(os.Stderr, "seed charge %s/%s skipped: %v\n", input.Category, input.Period, err)
	}
}

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}
