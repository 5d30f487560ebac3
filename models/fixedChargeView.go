package models

import (
	"context"
	"errors"
	"time"

	"github.com/msahtani/storeyes-backend/config"
	"github.com/msahtani/storeyes-backend/utils"
	"github.com/shopspring/decimal"
)

type FixedChargeView struct {
	ID               int              `json:"id"`
	Category         ChargeCategory   `json:"category"`
	Amount           decimal.Decimal  `json:"amount"`
	Period           ChargePeriod     `json:"period"`
	MonthKey         string           `json:"month_key"`
	WeekKey          *string          `json:"week_key"`
	Trend            *TrendDirection  `json:"trend"`
	TrendPercentage  *decimal.Decimal `json:"trend_percentage"`
	AbnormalIncrease bool             `json:"abnormal_increase"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

type PersonnelEmployeeView struct {
	ID           int                        `json:"id"`
	EmployeeId   int                        `json:"employee_id"`
	Name         string                     `json:"name"`
	Type         EmployeeType               `json:"type"`
	StartDate    *time.Time                 `json:"start_date"`
	HoursPerWeek decimal.Decimal            `json:"hours_per_week"`
	MonthSalary  decimal.Decimal            `json:"month_salary"`
	WeekSalaries map[string]decimal.Decimal `json:"week_salaries"`
}

type PersonnelGroup struct {
	Type        EmployeeType             `json:"type"`
	TotalAmount decimal.Decimal          `json:"total_amount"`
	Employees   []*PersonnelEmployeeView `json:"employees"`
}

type ChartPoint struct {
	Period string          `json:"period"`
	Amount decimal.Decimal `json:"amount"`
}

type FixedChargeDetail struct {
	FixedChargeView
	PreviousAmount *decimal.Decimal  `json:"previous_amount"`
	Notes          string            `json:"notes"`
	PersonnelData  []*PersonnelGroup `json:"personnel_data,omitempty"`
	ChartData      []*ChartPoint     `json:"chart_data"`
}

// View renders a charge for list responses.
func (charge *FixedCharge) View() *FixedChargeView {
	return &FixedChargeView{
		ID:               charge.ID,
		Category:         charge.Category,
		Amount:           charge.DisplayAmount(),
		Period:           charge.Period,
		MonthKey:         charge.MonthKey,
		WeekKey:          charge.WeekKey,
		Trend:            charge.Trend,
		TrendPercentage:  charge.TrendPercentage,
		AbnormalIncrease: charge.AbnormalIncrease,
		CreatedAt:        charge.CreatedAt,
		UpdatedAt:        charge.UpdatedAt,
	}
}

func (emp *PersonnelEmployee) viewForMonth(monthKey string) *PersonnelEmployeeView {
	weekSalaries := make(map[string]decimal.Decimal)
	monthTotal := decimal.Zero
	for _, ws := range emp.WeekSalariesForMonth(monthKey) {
		weekSalaries[ws.WeekKey] = ws.Amount
		monthTotal = monthTotal.Add(ws.Amount)
	}

	view := &PersonnelEmployeeView{
		ID:           emp.ID,
		EmployeeId:   emp.EmployeeId,
		HoursPerWeek: emp.HoursPerWeek,
		MonthSalary:  monthTotal,
		WeekSalaries: weekSalaries,
	}
	if emp.Employee != nil {
		view.Name = emp.Employee.Name
		view.Type = emp.Employee.Type
		view.StartDate = emp.Employee.StartDate
	}
	if view.Type == "" {
		view.Type = EmployeeTypeServer
	}
	return view
}

// GetFixedChargeDetail builds the detail response: week salaries filtered
// to the requested month, employees grouped by type, and a historical chart
// of the category.
func GetFixedChargeDetail(ctx context.Context, id int, month *string) (*FixedChargeDetail, error) {
	storeId, ok := utils.GetStoreIdFromContext(ctx)
	if !ok || storeId == 0 {
		return nil, errors.New("store id is required")
	}

	charge, err := GetFixedCharge(ctx, id)
	if err != nil {
		return nil, err
	}

	monthKey := charge.MonthKey
	if month != nil && *month != "" {
		if _, err := utils.ParseMonthKey(*month); err != nil {
			return nil, utils.NewValidationError(err.Error())
		}
		monthKey = *month
	}

	detail := &FixedChargeDetail{
		FixedChargeView: *charge.View(),
		PreviousAmount:  charge.PreviousAmount,
		Notes:           charge.Notes,
	}
	if charge.Category == ChargeCategoryPersonnel && charge.Period == ChargePeriodWeek {
		detail.Amount = charge.accumulatedAmountForMonth(monthKey)
	}

	if charge.Category == ChargeCategoryPersonnel {
		groups := make(map[EmployeeType]*PersonnelGroup)
		var order []EmployeeType
		for _, emp := range charge.Employees {
			view := emp.viewForMonth(monthKey)
			group, ok := groups[view.Type]
			if !ok {
				group = &PersonnelGroup{Type: view.Type, TotalAmount: decimal.Zero}
				groups[view.Type] = group
				order = append(order, view.Type)
			}
			group.Employees = append(group.Employees, view)
			group.TotalAmount = group.TotalAmount.Add(view.MonthSalary)
		}
		for _, t := range order {
			detail.PersonnelData = append(detail.PersonnelData, groups[t])
		}
	}

	chartData, err := historicalChartData(ctx, storeId, charge.Category, charge.Period, monthKey)
	if err != nil {
		return nil, err
	}
	detail.ChartData = chartData

	return detail, nil
}

// historicalChartData lists past charges of the same category and period,
// most recent first, labelled "Mar 2025".
func historicalChartData(ctx context.Context, storeId int, category ChargeCategory, period ChargePeriod, monthKey string) ([]*ChartPoint, error) {
	db := config.GetDB()
	var charges []*FixedCharge
	err := db.WithContext(ctx).
		Where("store_id = ? AND category = ? AND period = ? AND month_key <= ?", storeId, category, period, monthKey).
		Order("month_key desc").
		Find(&charges).Error
	if err != nil {
		return nil, err
	}

	points := make([]*ChartPoint, 0, len(charges))
	for _, charge := range charges {
		points = append(points, &ChartPoint{
			Period: utils.MonthYearLabel(charge.MonthKey),
			Amount: charge.Amount,
		})
	}
	return points, nil
}
