package models

import (
	"context"
	"time"

	"github.com/msahtani/storeyes-backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PersonnelEmployee is a line item of a PERSONNEL charge: one employee's
// engagement for the charge's month.
type PersonnelEmployee struct {
	ID            int                    `gorm:"primary_key" json:"id"`
	FixedChargeId int                    `gorm:"index;not null" json:"fixed_charge_id"`
	EmployeeId    int                    `gorm:"index;not null" json:"employee_id"`
	Employee      *Employee              `json:"employee"`
	HoursPerWeek  decimal.Decimal        `gorm:"type:decimal(5,2);default:0" json:"hours_per_week"`
	Salary        decimal.Decimal        `gorm:"type:decimal(10,2);default:0" json:"salary"`
	WeekSalaries  []*PersonnelWeekSalary `json:"week_salaries"`
	CreatedAt     time.Time              `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time              `gorm:"autoUpdateTime" json:"updated_at"`
}

func (obj PersonnelEmployee) GetId() int {
	return obj.ID
}

// PersonnelWeekSalary is one employee's pay for one calendar week.
// The week key is the Monday of the week; the month key names the month
// the week belongs to.
type PersonnelWeekSalary struct {
	ID                  int             `gorm:"primary_key" json:"id"`
	PersonnelEmployeeId int             `gorm:"uniqueIndex:uniq_week_salary;not null" json:"personnel_employee_id"`
	WeekKey             string          `gorm:"size:10;uniqueIndex:uniq_week_salary;not null" json:"week_key" binding:"required"`
	MonthKey            string          `gorm:"size:7;index;not null" json:"month_key"`
	Amount              decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"amount"`
	CreatedAt           time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

type SalaryByPeriod struct {
	WeekKey string          `json:"week_key" binding:"required"`
	Amount  decimal.Decimal `json:"amount" binding:"required"`
}

type NewPersonnelEmployee struct {
	ID           int               `json:"id"`
	Employee     NewEmployee       `json:"employee"`
	HoursPerWeek decimal.Decimal   `json:"hours_per_week"`
	Salary       decimal.Decimal   `json:"salary"`
	WeekSalaries []*SalaryByPeriod `json:"week_salaries"`
}

// distributeMonthlySalary replaces the employee's week rows of the month
// with an even split of the monthly amount over the month's weeks. The
// split always sums back to the monthly amount exactly; rows of other
// months are left alone.
func distributeMonthlySalary(ctx context.Context, tx *gorm.DB, personnelEmployeeId int, monthKey string, amount decimal.Decimal) error {
	weeks, err := utils.WeeksBelongingToMonth(monthKey)
	if err != nil {
		return err
	}
	parts := utils.DistributeMonthlySalary(amount, weeks)

	if err := tx.WithContext(ctx).
		Where("personnel_employee_id = ? AND month_key = ?", personnelEmployeeId, monthKey).
		Delete(&PersonnelWeekSalary{}).Error; err != nil {
		return err
	}
	for _, wk := range weeks {
		row := PersonnelWeekSalary{
			PersonnelEmployeeId: personnelEmployeeId,
			WeekKey:             wk,
			MonthKey:            monthKey,
			Amount:              parts[wk],
		}
		if err := tx.WithContext(ctx).Create(&row).Error; err != nil {
			return err
		}
	}
	return nil
}

func validateWeekSalary(monthKey string, entry *SalaryByPeriod) error {
	if !entry.Amount.GreaterThan(decimal.Zero) {
		return utils.NewValidationError("week salary amount must be positive")
	}
	if _, err := utils.ParseWeekKey(entry.WeekKey); err != nil {
		return utils.NewValidationError(err.Error())
	}
	overlaps, err := utils.WeekOverlapsMonth(entry.WeekKey, monthKey)
	if err != nil {
		return utils.NewValidationError(err.Error())
	}
	if !overlaps {
		return utils.NewValidationError("week " + entry.WeekKey + " does not overlap month " + monthKey)
	}
	return nil
}

// setWeeklySalary replaces one week row of the employee, then recomputes
// the stored month salary from the rows belonging to the month.
func setWeeklySalary(ctx context.Context, tx *gorm.DB, personnelEmployeeId int, monthKey string, entry *SalaryByPeriod) error {
	if err := validateWeekSalary(monthKey, entry); err != nil {
		return err
	}

	weekMonthKey, err := utils.MonthKeyForWeek(entry.WeekKey)
	if err != nil {
		return utils.NewValidationError(err.Error())
	}

	if err := tx.WithContext(ctx).
		Where("personnel_employee_id = ? AND week_key = ?", personnelEmployeeId, entry.WeekKey).
		Delete(&PersonnelWeekSalary{}).Error; err != nil {
		return err
	}
	row := PersonnelWeekSalary{
		PersonnelEmployeeId: personnelEmployeeId,
		WeekKey:             entry.WeekKey,
		MonthKey:            weekMonthKey,
		Amount:              entry.Amount,
	}
	if err := tx.WithContext(ctx).Create(&row).Error; err != nil {
		return err
	}

	return recomputeMonthSalary(ctx, tx, personnelEmployeeId, monthKey)
}

// updateWeekSalaries validates every entry before touching any row, then
// replaces the targeted weeks and recomputes the month total once.
func updateWeekSalaries(ctx context.Context, tx *gorm.DB, personnelEmployeeId int, monthKey string, entries []*SalaryByPeriod) error {
	for _, entry := range entries {
		if err := validateWeekSalary(monthKey, entry); err != nil {
			return err
		}
	}
	for _, entry := range entries {
		weekMonthKey, err := utils.MonthKeyForWeek(entry.WeekKey)
		if err != nil {
			return utils.NewValidationError(err.Error())
		}
		if err := tx.WithContext(ctx).
			Where("personnel_employee_id = ? AND week_key = ?", personnelEmployeeId, entry.WeekKey).
			Delete(&PersonnelWeekSalary{}).Error; err != nil {
			return err
		}
		row := PersonnelWeekSalary{
			PersonnelEmployeeId: personnelEmployeeId,
			WeekKey:             entry.WeekKey,
			MonthKey:            weekMonthKey,
			Amount:              entry.Amount,
		}
		if err := tx.WithContext(ctx).Create(&row).Error; err != nil {
			return err
		}
	}
	return recomputeMonthSalary(ctx, tx, personnelEmployeeId, monthKey)
}

// recomputeMonthSalary stores the sum of the employee's week rows whose
// month key matches the charge's month.
func recomputeMonthSalary(ctx context.Context, tx *gorm.DB, personnelEmployeeId int, monthKey string) error {
	var rows []*PersonnelWeekSalary
	if err := tx.WithContext(ctx).
		Where("personnel_employee_id = ? AND month_key = ?", personnelEmployeeId, monthKey).
		Find(&rows).Error; err != nil {
		return err
	}
	total := decimal.Zero
	for _, row := range rows {
		total = total.Add(row.Amount)
	}
	return tx.WithContext(ctx).Model(&PersonnelEmployee{ID: personnelEmployeeId}).
		Update("salary", total).Error
}

// deletePersonnelEmployee removes a line item and its week rows.
func deletePersonnelEmployee(ctx context.Context, tx *gorm.DB, personnelEmployeeId int) error {
	if err := tx.WithContext(ctx).
		Where("personnel_employee_id = ?", personnelEmployeeId).
		Delete(&PersonnelWeekSalary{}).Error; err != nil {
		return err
	}
	return tx.WithContext(ctx).Delete(&PersonnelEmployee{}, personnelEmployeeId).Error
}

// WeekSalariesForMonth filters the loaded week rows down to the given month.
func (p *PersonnelEmployee) WeekSalariesForMonth(monthKey string) []*PersonnelWeekSalary {
	var filtered []*PersonnelWeekSalary
	for _, ws := range p.WeekSalaries {
		if ws.MonthKey == monthKey {
			filtered = append(filtered, ws)
		}
	}
	return filtered
}

// MonthSalaryFor sums the loaded week rows belonging to the month.
func (p *PersonnelEmployee) MonthSalaryFor(monthKey string) decimal.Decimal {
	total := decimal.Zero
	for _, ws := range p.WeekSalariesForMonth(monthKey) {
		total = total.Add(ws.Amount)
	}
	return total
}
