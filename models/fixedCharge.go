package models

import (
	"context"
	"errors"
	"time"

	"github.com/msahtani/storeyes-backend/config"
	"github.com/msahtani/storeyes-backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// trendThreshold flags an increase above 20% as abnormal.
var trendThreshold = decimal.NewFromInt(20)

type FixedCharge struct {
	ID               int                  `gorm:"primary_key" json:"id"`
	StoreId          int                  `gorm:"index:idx_charge_trend;not null" json:"store_id"`
	Category         ChargeCategory       `gorm:"size:32;index:idx_charge_trend;not null" json:"category" binding:"required"`
	Period           ChargePeriod         `gorm:"size:8;index:idx_charge_trend,priority:4;not null" json:"period" binding:"required"`
	MonthKey         string               `gorm:"size:7;index:idx_charge_trend,priority:3;not null" json:"month_key" binding:"required"`
	WeekKey          *string              `gorm:"size:10" json:"week_key"`
	Amount           decimal.Decimal      `gorm:"type:decimal(10,2);default:0" json:"amount"`
	Notes            string               `gorm:"type:text" json:"notes"`
	Trend            *TrendDirection      `gorm:"size:8" json:"trend"`
	TrendPercentage  *decimal.Decimal     `gorm:"type:decimal(5,2)" json:"trend_percentage"`
	PreviousAmount   *decimal.Decimal     `gorm:"type:decimal(10,2)" json:"previous_amount"`
	AbnormalIncrease bool                 `gorm:"not null;default:false" json:"abnormal_increase"`
	Employees        []*PersonnelEmployee `json:"employees,omitempty"`
	CreatedAt        time.Time            `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time            `gorm:"autoUpdateTime" json:"updated_at"`
}

func (obj FixedCharge) GetId() int {
	return obj.ID
}

type NewFixedCharge struct {
	Category  ChargeCategory          `json:"category" binding:"required"`
	Period    ChargePeriod            `json:"period" binding:"required"`
	MonthKey  string                  `json:"month_key" binding:"required,monthkey"`
	WeekKey   *string                 `json:"week_key" binding:"omitempty,weekkey"`
	Amount    *decimal.Decimal        `json:"amount"`
	Notes     string                  `json:"notes"`
	Employees []*NewPersonnelEmployee `json:"employees"`
}

type UpdateFixedChargeInput struct {
	Period    *ChargePeriod           `json:"period"`
	MonthKey  *string                 `json:"month_key" binding:"omitempty,monthkey"`
	WeekKey   *string                 `json:"week_key" binding:"omitempty,weekkey"`
	Amount    *decimal.Decimal        `json:"amount"`
	Notes     *string                 `json:"notes"`
	Employees []*NewPersonnelEmployee `json:"employees"`
}

// validate checks the charge's own fields. It runs at create time and
// again over the merged state during update, so a charge can never be
// edited into a shape that create would have rejected. Utilities only
// exist month by month; personnel charges carry their amounts on the
// employees.
func (charge *FixedCharge) validate() error {
	if !charge.Category.Valid() {
		return utils.NewValidationError("invalid charge category: " + string(charge.Category))
	}
	if !charge.Period.Valid() {
		return utils.NewValidationError("invalid charge period: " + string(charge.Period))
	}
	if _, err := utils.ParseMonthKey(charge.MonthKey); err != nil {
		return utils.NewValidationError(err.Error())
	}

	if charge.Period == ChargePeriodWeek {
		if charge.WeekKey == nil || *charge.WeekKey == "" {
			return utils.NewValidationError("week key is required when period is WEEK")
		}
		if _, err := utils.ParseWeekKey(*charge.WeekKey); err != nil {
			return utils.NewValidationError(err.Error())
		}
		overlaps, err := utils.WeekOverlapsMonth(*charge.WeekKey, charge.MonthKey)
		if err != nil {
			return utils.NewValidationError(err.Error())
		}
		if !overlaps {
			return utils.NewValidationError("week key does not overlap with the provided month key")
		}
	}

	if charge.Category != ChargeCategoryPersonnel {
		if !charge.Amount.GreaterThan(decimal.Zero) {
			return utils.NewValidationError("amount is required for non-personnel charges")
		}
		if charge.Period != ChargePeriodMonth {
			return utils.NewValidationError("utilities (water, electricity, wifi) must use MONTH period")
		}
	}
	return nil
}

func (input *NewFixedCharge) validate() error {
	charge := FixedCharge{
		Category: input.Category,
		Period:   input.Period,
		MonthKey: input.MonthKey,
		WeekKey:  input.WeekKey,
	}
	if input.Amount != nil {
		charge.Amount = *input.Amount
	}
	if err := charge.validate(); err != nil {
		return err
	}
	if input.Category == ChargeCategoryPersonnel && len(input.Employees) == 0 {
		return utils.NewValidationError("at least one employee is required for personnel charges")
	}
	return nil
}

// calculateTrend compares the charge against the most recent earlier charge
// of the same store, category and period. No earlier charge means no trend.
func (charge *FixedCharge) calculateTrend(ctx context.Context) error {
	db := config.GetDB()
	weekKey := utils.DereferencePtr(charge.WeekKey)

	dbCtx := db.WithContext(ctx).
		Where("store_id = ? AND category = ? AND period = ?", charge.StoreId, charge.Category, charge.Period)
	if charge.Period == ChargePeriodMonth {
		dbCtx = dbCtx.Where("month_key < ?", charge.MonthKey)
	} else {
		dbCtx = dbCtx.Where("week_key < ?", weekKey)
	}
	if charge.ID > 0 {
		dbCtx = dbCtx.Where("id <> ?", charge.ID)
	}

	var previous FixedCharge
	err := dbCtx.Order("month_key desc, week_key desc").First(&previous).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		charge.Trend = nil
		charge.TrendPercentage = nil
		charge.PreviousAmount = nil
		charge.AbnormalIncrease = false
		return nil
	}
	if err != nil {
		return err
	}

	trend, percentage, abnormal := trendBetween(charge.Amount, previous.Amount)
	previousAmount := previous.Amount
	charge.Trend = &trend
	charge.TrendPercentage = &percentage
	charge.PreviousAmount = &previousAmount
	charge.AbnormalIncrease = abnormal
	return nil
}

// trendBetween compares two amounts. The percentage is zero when the
// previous amount is not positive; the direction is still reported.
func trendBetween(current, previous decimal.Decimal) (TrendDirection, decimal.Decimal, bool) {
	difference := current.Sub(previous)
	percentage := decimal.Zero
	if previous.GreaterThan(decimal.Zero) {
		percentage = difference.DivRound(previous, 4).
			Mul(decimal.NewFromInt(100)).Round(2)
	}

	var trend TrendDirection
	switch {
	case difference.GreaterThan(decimal.Zero):
		trend = TrendDirectionUp
	case difference.LessThan(decimal.Zero):
		trend = TrendDirectionDown
	default:
		trend = TrendDirectionStable
	}

	return trend, percentage, percentage.GreaterThan(trendThreshold)
}

// processEmployees builds the line items of a personnel charge inside tx.
// Every employee needs a positive salary: monthly salaries are spread over
// the month's weeks, weekly salaries land on the charge's week.
func processEmployees(ctx context.Context, tx *gorm.DB, storeId int, chargeId int,
	inputs []*NewPersonnelEmployee, period ChargePeriod, monthKey string, weekKey *string) error {

	for _, empInput := range inputs {
		employee, err := resolveEmployee(ctx, tx, storeId, &empInput.Employee)
		if err != nil {
			return err
		}

		personnelEmployee := PersonnelEmployee{
			FixedChargeId: chargeId,
			EmployeeId:    employee.ID,
			HoursPerWeek:  empInput.HoursPerWeek,
		}
		if err := tx.WithContext(ctx).Create(&personnelEmployee).Error; err != nil {
			return err
		}

		if !empInput.Salary.GreaterThan(decimal.Zero) {
			return utils.NewValidationError("employee salary is required and must be greater than zero for employee: " + employee.Name)
		}

		switch period {
		case ChargePeriodMonth:
			if err := distributeMonthlySalary(ctx, tx, personnelEmployee.ID, monthKey, empInput.Salary); err != nil {
				return err
			}
			if err := tx.WithContext(ctx).Model(&PersonnelEmployee{ID: personnelEmployee.ID}).
				Update("salary", empInput.Salary).Error; err != nil {
				return err
			}
		case ChargePeriodWeek:
			if weekKey == nil || *weekKey == "" {
				return utils.NewValidationError("week key is required for weekly personnel charges")
			}
			entry := &SalaryByPeriod{WeekKey: *weekKey, Amount: empInput.Salary}
			if err := setWeeklySalary(ctx, tx, personnelEmployee.ID, monthKey, entry); err != nil {
				return err
			}
		}
	}
	return nil
}

// totalAmountFromEmployees derives the charge amount from its line items:
// monthly charges sum the month salaries, weekly charges sum the pay of
// the charge's week.
func totalAmountFromEmployees(ctx context.Context, tx *gorm.DB, chargeId int, period ChargePeriod, weekKey *string) (decimal.Decimal, error) {
	var employees []*PersonnelEmployee
	if err := tx.WithContext(ctx).
		Preload("WeekSalaries").
		Where("fixed_charge_id = ?", chargeId).
		Find(&employees).Error; err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, emp := range employees {
		if period == ChargePeriodMonth {
			total = total.Add(emp.Salary)
			continue
		}
		if weekKey != nil {
			for _, ws := range emp.WeekSalaries {
				if ws.WeekKey == *weekKey {
					total = total.Add(ws.Amount)
				}
			}
		}
	}
	return total.Round(2), nil
}

// accumulatedAmountForMonth sums every week salary of the charge belonging
// to the month. Weekly personnel charges are displayed with this total.
func (charge *FixedCharge) accumulatedAmountForMonth(monthKey string) decimal.Decimal {
	total := decimal.Zero
	for _, emp := range charge.Employees {
		total = total.Add(emp.MonthSalaryFor(monthKey))
	}
	return total.Round(2)
}

// DisplayAmount is the list-view amount: weekly personnel charges show the
// accumulated month total instead of the single-week amount.
func (charge *FixedCharge) DisplayAmount() decimal.Decimal {
	if charge.Category == ChargeCategoryPersonnel && charge.Period == ChargePeriodWeek && charge.MonthKey != "" {
		return charge.accumulatedAmountForMonth(charge.MonthKey)
	}
	return charge.Amount
}

func CreateFixedCharge(ctx context.Context, input *NewFixedCharge) (*FixedCharge, error) {
	storeId, ok := utils.GetStoreIdFromContext(ctx)
	if !ok || storeId == 0 {
		return nil, errors.New("store id is required")
	}

	if err := input.validate(); err != nil {
		return nil, err
	}

	charge := FixedCharge{
		StoreId:  storeId,
		Category: input.Category,
		Period:   input.Period,
		MonthKey: input.MonthKey,
		WeekKey:  input.WeekKey,
		Notes:    input.Notes,
	}
	if input.Amount != nil {
		charge.Amount = *input.Amount
	}

	db := config.GetDB()
	tx := db.Begin()

	if err := tx.WithContext(ctx).Create(&charge).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if input.Category == ChargeCategoryPersonnel {
		if err := processEmployees(ctx, tx, storeId, charge.ID, input.Employees, input.Period, input.MonthKey, input.WeekKey); err != nil {
			tx.Rollback()
			return nil, err
		}
		if input.Amount == nil || input.Amount.IsZero() {
			total, err := totalAmountFromEmployees(ctx, tx, charge.ID, input.Period, input.WeekKey)
			if err != nil {
				tx.Rollback()
				return nil, err
			}
			charge.Amount = total
			if err := tx.WithContext(ctx).Model(&charge).Update("amount", total).Error; err != nil {
				tx.Rollback()
				return nil, err
			}
		}
	}

	if err := charge.calculateTrend(ctx); err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.WithContext(ctx).Model(&charge).Updates(map[string]interface{}{
		"Trend":            charge.Trend,
		"TrendPercentage":  charge.TrendPercentage,
		"PreviousAmount":   charge.PreviousAmount,
		"AbnormalIncrease": charge.AbnormalIncrease,
	}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	if err := utils.InvalidateStatisticsCache(storeId); err != nil {
		config.LogError(config.GetLogger(), "models", "CreateFixedCharge", "invalidate statistics cache", storeId, err)
	}

	return GetFixedCharge(ctx, charge.ID)
}

func UpdateFixedCharge(ctx context.Context, id int, input *UpdateFixedChargeInput) (*FixedCharge, error) {
	storeId, ok := utils.GetStoreIdFromContext(ctx)
	if !ok || storeId == 0 {
		return nil, errors.New("store id is required")
	}

	charge, err := utils.FetchModel[FixedCharge](ctx, storeId, id, "Employees", "Employees.Employee", "Employees.WeekSalaries")
	if err != nil {
		return nil, err
	}

	lock, err := utils.ResourceLock(ctx, "FixedCharge", id, "models", "UpdateFixedCharge")
	if err != nil {
		return nil, err
	}
	if lock != nil {
		defer lock.Release(ctx)
	}

	oldPeriod := charge.Period
	if input.Period != nil {
		charge.Period = *input.Period
	}
	if input.MonthKey != nil {
		charge.MonthKey = *input.MonthKey
	}
	if input.WeekKey != nil {
		charge.WeekKey = input.WeekKey
	}
	if input.Amount != nil {
		if !input.Amount.GreaterThan(decimal.Zero) {
			return nil, utils.NewValidationError("amount must be greater than zero")
		}
		charge.Amount = *input.Amount
	}
	if input.Notes != nil {
		charge.Notes = *input.Notes
	}

	// The merged state obeys the same rules as a freshly created charge.
	if err := charge.validate(); err != nil {
		return nil, err
	}

	periodChanged := charge.Period != oldPeriod
	if charge.Category == ChargeCategoryPersonnel && periodChanged && input.Employees == nil {
		return nil, utils.NewValidationError("employees are required when changing the period of a personnel charge")
	}

	// Referenced master employees must all belong to the store before any
	// row is touched.
	var employeeIds []int
	for _, empInput := range input.Employees {
		if empInput.Employee.ID > 0 {
			employeeIds = append(employeeIds, empInput.Employee.ID)
		}
	}
	if len(employeeIds) > 0 {
		if err := utils.ValidateResourcesId[Employee](ctx, storeId, employeeIds); err != nil {
			return nil, err
		}
	}

	db := config.GetDB()
	tx := db.Begin()

	if charge.Category == ChargeCategoryPersonnel && input.Employees != nil {
		if periodChanged {
			// A period switch discards the whole salary structure so monthly
			// and weekly rows never mix.
			for _, emp := range charge.Employees {
				if err := deletePersonnelEmployee(ctx, tx, emp.ID); err != nil {
					tx.Rollback()
					return nil, err
				}
			}
			if err := processEmployees(ctx, tx, storeId, charge.ID, input.Employees, charge.Period, charge.MonthKey, charge.WeekKey); err != nil {
				tx.Rollback()
				return nil, err
			}
		} else {
			if err := syncPersonnelEmployees(ctx, tx, storeId, charge, input.Employees); err != nil {
				tx.Rollback()
				return nil, err
			}
		}

		if input.Amount == nil {
			total, err := totalAmountFromEmployees(ctx, tx, charge.ID, charge.Period, charge.WeekKey)
			if err != nil {
				tx.Rollback()
				return nil, err
			}
			charge.Amount = total
		}
	}

	if err := charge.calculateTrend(ctx); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.WithContext(ctx).Model(&FixedCharge{ID: charge.ID}).Updates(map[string]interface{}{
		"Period":           charge.Period,
		"MonthKey":         charge.MonthKey,
		"WeekKey":          charge.WeekKey,
		"Amount":           charge.Amount,
		"Notes":            charge.Notes,
		"Trend":            charge.Trend,
		"TrendPercentage":  charge.TrendPercentage,
		"PreviousAmount":   charge.PreviousAmount,
		"AbnormalIncrease": charge.AbnormalIncrease,
	}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	if err := utils.InvalidateStatisticsCache(storeId); err != nil {
		config.LogError(config.GetLogger(), "models", "UpdateFixedCharge", "invalidate statistics cache", storeId, err)
	}

	return GetFixedCharge(ctx, charge.ID)
}

// syncPersonnelEmployees reconciles line items against the request when the
// period is unchanged: existing items matched by master employee id are
// updated, unmatched request entries create new items, and items absent
// from the request are removed.
func syncPersonnelEmployees(ctx context.Context, tx *gorm.DB, storeId int, charge *FixedCharge, inputs []*NewPersonnelEmployee) error {
	existingByEmployeeId := make(map[int]*PersonnelEmployee)
	for _, emp := range charge.Employees {
		existingByEmployeeId[emp.EmployeeId] = emp
	}

	kept := make(map[int]bool)
	for _, empInput := range inputs {
		employee, err := resolveEmployee(ctx, tx, storeId, &empInput.Employee)
		if err != nil {
			return err
		}

		if existing, ok := existingByEmployeeId[employee.ID]; ok {
			kept[existing.ID] = true

			if !empInput.HoursPerWeek.IsZero() {
				if err := tx.WithContext(ctx).Model(&PersonnelEmployee{ID: existing.ID}).
					Update("hours_per_week", empInput.HoursPerWeek).Error; err != nil {
					return err
				}
			}
			if len(empInput.WeekSalaries) > 0 {
				if err := updateWeekSalaries(ctx, tx, existing.ID, charge.MonthKey, empInput.WeekSalaries); err != nil {
					return err
				}
			}
			if empInput.Salary.GreaterThan(decimal.Zero) {
				switch charge.Period {
				case ChargePeriodMonth:
					if err := distributeMonthlySalary(ctx, tx, existing.ID, charge.MonthKey, empInput.Salary); err != nil {
						return err
					}
					if err := tx.WithContext(ctx).Model(&PersonnelEmployee{ID: existing.ID}).
						Update("salary", empInput.Salary).Error; err != nil {
						return err
					}
				case ChargePeriodWeek:
					if charge.WeekKey != nil {
						entry := &SalaryByPeriod{WeekKey: *charge.WeekKey, Amount: empInput.Salary}
						if err := setWeeklySalary(ctx, tx, existing.ID, charge.MonthKey, entry); err != nil {
							return err
						}
					}
				}
			}
			continue
		}

		// new line item
		personnelEmployee := PersonnelEmployee{
			FixedChargeId: charge.ID,
			EmployeeId:    employee.ID,
			HoursPerWeek:  empInput.HoursPerWeek,
		}
		if err := tx.WithContext(ctx).Create(&personnelEmployee).Error; err != nil {
			return err
		}
		kept[personnelEmployee.ID] = true

		if !empInput.Salary.GreaterThan(decimal.Zero) {
			return utils.NewValidationError("employee salary is required and must be greater than zero for employee: " + employee.Name)
		}
		switch charge.Period {
		case ChargePeriodMonth:
			if err := distributeMonthlySalary(ctx, tx, personnelEmployee.ID, charge.MonthKey, empInput.Salary); err != nil {
				return err
			}
			if err := tx.WithContext(ctx).Model(&PersonnelEmployee{ID: personnelEmployee.ID}).
				Update("salary", empInput.Salary).Error; err != nil {
				return err
			}
		case ChargePeriodWeek:
			if charge.WeekKey == nil || *charge.WeekKey == "" {
				return utils.NewValidationError("week key is required for weekly personnel charges")
			}
			entry := &SalaryByPeriod{WeekKey: *charge.WeekKey, Amount: empInput.Salary}
			if err := setWeeklySalary(ctx, tx, personnelEmployee.ID, charge.MonthKey, entry); err != nil {
				return err
			}
		}
	}

	for _, emp := range charge.Employees {
		if !kept[emp.ID] {
			if err := deletePersonnelEmployee(ctx, tx, emp.ID); err != nil {
				return err
			}
		}
	}
	return nil
}

func DeleteFixedCharge(ctx context.Context, id int) (*FixedCharge, error) {
	storeId, ok := utils.GetStoreIdFromContext(ctx)
	if !ok || storeId == 0 {
		return nil, errors.New("store id is required")
	}

	charge, err := utils.FetchModel[FixedCharge](ctx, storeId, id, "Employees")
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	tx := db.Begin()

	for _, emp := range charge.Employees {
		if err := deletePersonnelEmployee(ctx, tx, emp.ID); err != nil {
			tx.Rollback()
			return nil, err
		}
	}
	if err := tx.WithContext(ctx).Delete(&FixedCharge{}, id).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	if err := utils.InvalidateStatisticsCache(storeId); err != nil {
		config.LogError(config.GetLogger(), "models", "DeleteFixedCharge", "invalidate statistics cache", storeId, err)
	}

	charge.Employees = nil
	return charge, nil
}

func GetFixedCharge(ctx context.Context, id int) (*FixedCharge, error) {
	storeId, ok := utils.GetStoreIdFromContext(ctx)
	if !ok || storeId == 0 {
		return nil, errors.New("store id is required")
	}
	return utils.FetchModel[FixedCharge](ctx, storeId, id, "Employees", "Employees.Employee", "Employees.WeekSalaries")
}

// ListFixedCharges returns the store's charges of a month, optionally
// narrowed by category and period. Month defaults to the current one.
func ListFixedCharges(ctx context.Context, month *string, category *ChargeCategory, period *ChargePeriod) ([]*FixedCharge, error) {
	storeId, ok := utils.GetStoreIdFromContext(ctx)
	if !ok || storeId == 0 {
		return nil, errors.New("store id is required")
	}

	monthKey := time.Now().UTC().Format(utils.MonthLayout)
	if month != nil && *month != "" {
		if _, err := utils.ParseMonthKey(*month); err != nil {
			return nil, utils.NewValidationError(err.Error())
		}
		monthKey = *month
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).
		Preload("Employees").
		Preload("Employees.Employee").
		Preload("Employees.WeekSalaries").
		Where("store_id = ? AND month_key = ?", storeId, monthKey)
	if category != nil {
		dbCtx = dbCtx.Where("category = ?", *category)
	}
	if period != nil {
		dbCtx = dbCtx.Where("period = ?", *period)
	}

	var charges []*FixedCharge
	if err := dbCtx.Find(&charges).Error; err != nil {
		return nil, err
	}
	return charges, nil
}

// ListFixedChargesByWeek returns the charges of a specific week, for a
// week-by-week breakdown of personnel costs.
func ListFixedChargesByWeek(ctx context.Context, monthKey string, weekKey string, category *ChargeCategory) ([]*FixedCharge, error) {
	storeId, ok := utils.GetStoreIdFromContext(ctx)
	if !ok || storeId == 0 {
		return nil, errors.New("store id is required")
	}
	if _, err := utils.ParseMonthKey(monthKey); err != nil {
		return nil, utils.NewValidationError(err.Error())
	}
	if _, err := utils.ParseWeekKey(weekKey); err != nil {
		return nil, utils.NewValidationError(err.Error())
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).
		Preload("Employees").
		Preload("Employees.Employee").
		Preload("Employees.WeekSalaries").
		Where("store_id = ? AND month_key = ? AND week_key = ?", storeId, monthKey, weekKey)
	if category != nil {
		dbCtx = dbCtx.Where("category = ?", *category)
	}

	var charges []*FixedCharge
	if err := dbCtx.Find(&charges).Error; err != nil {
		return nil, err
	}
	return charges, nil
}
