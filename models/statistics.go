package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/msahtani/storeyes-backend/config"
	"github.com/msahtani/storeyes-backend/utils"
	"github.com/shopspring/decimal"
)

type Kpi struct {
	Revenue           decimal.Decimal `json:"revenue"`
	Charges           decimal.Decimal `json:"charges"`
	Profit            decimal.Decimal `json:"profit"`
	RevenueEvolution  decimal.Decimal `json:"revenue_evolution"`
	ChargesPercentage decimal.Decimal `json:"charges_percentage"`
	ProfitPercentage  decimal.Decimal `json:"profit_percentage"`
	ChargesStatus     StatusLevel     `json:"charges_status"`
	ProfitStatus      StatusLevel     `json:"profit_status"`
}

type StatisticsChartPoint struct {
	Period  string          `json:"period"`
	Revenue decimal.Decimal `json:"revenue"`
	Charges decimal.Decimal `json:"charges"`
	Profit  decimal.Decimal `json:"profit"`
}

type ChargeItem struct {
	ID                  int             `json:"id"`
	Name                string          `json:"name"`
	Amount              decimal.Decimal `json:"amount"`
	PercentageOfCharges decimal.Decimal `json:"percentage_of_charges"`
	PercentageOfRevenue decimal.Decimal `json:"percentage_of_revenue"`
	Category            string          `json:"category"`
	Status              StatusLevel     `json:"status"`
	Date                string          `json:"date,omitempty"`
	Supplier            string          `json:"supplier,omitempty"`
}

type ChargesBreakdown struct {
	Fixed    []*ChargeItem `json:"fixed"`
	Variable []*ChargeItem `json:"variable"`
}

type StatisticsResponse struct {
	Period    StatisticsPeriod        `json:"period"`
	Kpi       *Kpi                    `json:"kpi"`
	ChartData []*StatisticsChartPoint `json:"chart_data"`
	Charges   *ChargesBreakdown       `json:"charges"`
}

type ChargesStatistics struct {
	TotalCharges           decimal.Decimal `json:"total_charges"`
	TotalFixedCharges      decimal.Decimal `json:"total_fixed_charges"`
	TotalVariableCharges   decimal.Decimal `json:"total_variable_charges"`
	ItemCount              int             `json:"item_count"`
	PercentageOfAllCharges decimal.Decimal `json:"percentage_of_all_charges"`
	CaPercentage           decimal.Decimal `json:"ca_percentage"`
	Revenue                decimal.Decimal `json:"revenue"`
}

type ChargesDetailResponse struct {
	Period          StatisticsPeriod   `json:"period"`
	Statistics      *ChargesStatistics `json:"statistics"`
	FixedCharges    []*ChargeItem      `json:"fixed_charges"`
	VariableCharges []*ChargeItem      `json:"variable_charges"`
}

/* window + status arithmetic, DB-free */

// PeriodWindow resolves a period anchor into its date range and the
// immediately preceding range of the same length.
func PeriodWindow(period StatisticsPeriod, date string) (start, end, prevStart, prevEnd time.Time, err error) {
	switch period {
	case StatisticsPeriodDay:
		var day time.Time
		day, err = time.Parse(utils.DateLayout, date)
		if err != nil {
			err = utils.NewValidationError("invalid date: " + date)
			return
		}
		start, end = day, day
		prevStart = day.AddDate(0, 0, -1)
		prevEnd = prevStart
	case StatisticsPeriodWeek:
		var day time.Time
		day, err = time.Parse(utils.DateLayout, date)
		if err != nil {
			err = utils.NewValidationError("invalid date: " + date)
			return
		}
		start = utils.MondayOf(day)
		end = start.AddDate(0, 0, 6)
		prevStart = start.AddDate(0, 0, -7)
		prevEnd = prevStart.AddDate(0, 0, 6)
	case StatisticsPeriodMonth:
		start, end, err = utils.MonthRange(date)
		if err != nil {
			err = utils.NewValidationError(err.Error())
			return
		}
		prevMonth := start.AddDate(0, -1, 0)
		prevStart = prevMonth
		prevEnd = prevMonth.AddDate(0, 1, -1)
	default:
		err = utils.NewValidationError("invalid period type, must be day, week or month")
	}
	return
}

// RevenueEvolution is the percent change against the previous window;
// a zero previous figure yields zero rather than infinity.
func RevenueEvolution(current, previous decimal.Decimal) decimal.Decimal {
	if previous.IsZero() {
		return decimal.Zero
	}
	return current.Sub(previous).DivRound(previous, 4).
		Mul(decimal.NewFromInt(100)).Round(2)
}

func ChargesStatus(percentage decimal.Decimal) StatusLevel {
	switch {
	case percentage.GreaterThan(decimal.NewFromInt(75)):
		return StatusLevelCritical
	case percentage.GreaterThan(decimal.NewFromInt(66)):
		return StatusLevelMedium
	default:
		return StatusLevelGood
	}
}

func ProfitStatus(percentage decimal.Decimal) StatusLevel {
	switch {
	case percentage.GreaterThanOrEqual(decimal.NewFromInt(33)):
		return StatusLevelGood
	case percentage.GreaterThanOrEqual(decimal.NewFromInt(15)):
		return StatusLevelMedium
	default:
		return StatusLevelCritical
	}
}

// ChargeItemStatus rates a single charge against the window's revenue.
func ChargeItemStatus(percentageOfRevenue decimal.Decimal) StatusLevel {
	switch {
	case percentageOfRevenue.GreaterThan(decimal.NewFromInt(20)):
		return StatusLevelCritical
	case percentageOfRevenue.GreaterThan(decimal.NewFromInt(10)):
		return StatusLevelMedium
	default:
		return StatusLevelGood
	}
}

func chargeDisplayName(category ChargeCategory) string {
	switch category {
	case ChargeCategoryPersonnel:
		return "Personnel"
	case ChargeCategoryWater:
		return "Water"
	case ChargeCategoryElectricity:
		return "Electricity"
	case ChargeCategoryWifi:
		return "WiFi"
	default:
		return string(category)
	}
}

/* effective amounts */

type chargeWithAmount struct {
	charge    *FixedCharge
	effective decimal.Decimal
}

func fixedChargesOfMonth(ctx context.Context, storeId int, monthKey string) ([]*FixedCharge, error) {
	db := config.GetDB()
	var charges []*FixedCharge
	err := db.WithContext(ctx).
		Where("store_id = ? AND month_key = ?", storeId, monthKey).
		Find(&charges).Error
	return charges, err
}

// fixedChargesWithEffectiveAmounts prorates fixed charges into the window:
// a day takes amount/daysInMonth of each monthly charge and a seventh of
// its week's weekly charges; a week takes amount/weeksInMonth of monthly
// charges and its own weekly charges in full; a month takes everything full.
func fixedChargesWithEffectiveAmounts(ctx context.Context, storeId int, period StatisticsPeriod, date string) ([]*chargeWithAmount, error) {
	switch period {
	case StatisticsPeriodDay:
		day, err := time.Parse(utils.DateLayout, date)
		if err != nil {
			return nil, utils.NewValidationError("invalid date: " + date)
		}
		monthKey := utils.MonthKeyFor(day)
		daysInMonth := decimal.NewFromInt(int64(utils.DaysInMonth(day)))
		weekKey := utils.WeekKeyFor(day)

		charges, err := fixedChargesOfMonth(ctx, storeId, monthKey)
		if err != nil {
			return nil, err
		}
		var result []*chargeWithAmount
		for _, c := range charges {
			switch {
			case c.Period == ChargePeriodMonth:
				result = append(result, &chargeWithAmount{c, c.Amount.DivRound(daysInMonth, 2)})
			case c.Period == ChargePeriodWeek && c.WeekKey != nil && *c.WeekKey == weekKey:
				result = append(result, &chargeWithAmount{c, c.Amount.DivRound(decimal.NewFromInt(7), 2)})
			}
		}
		return result, nil

	case StatisticsPeriodWeek:
		day, err := time.Parse(utils.DateLayout, date)
		if err != nil {
			return nil, utils.NewValidationError("invalid date: " + date)
		}
		monday := utils.MondayOf(day)
		monthKey := utils.MonthKeyFor(monday)
		weekKey := monday.Format(utils.DateLayout)
		weeksCount, err := utils.WeeksCountInMonth(monthKey)
		if err != nil {
			return nil, err
		}

		charges, err := fixedChargesOfMonth(ctx, storeId, monthKey)
		if err != nil {
			return nil, err
		}
		var result []*chargeWithAmount
		for _, c := range charges {
			switch {
			case c.Period == ChargePeriodMonth:
				result = append(result, &chargeWithAmount{c, c.Amount.DivRound(decimal.NewFromInt(int64(weeksCount)), 2)})
			case c.Period == ChargePeriodWeek && c.WeekKey != nil && *c.WeekKey == weekKey:
				result = append(result, &chargeWithAmount{c, c.Amount})
			}
		}
		return result, nil

	default:
		charges, err := fixedChargesOfMonth(ctx, storeId, date)
		if err != nil {
			return nil, err
		}
		var result []*chargeWithAmount
		for _, c := range charges {
			result = append(result, &chargeWithAmount{c, c.Amount})
		}
		return result, nil
	}
}

func sumEffective(charges []*chargeWithAmount) decimal.Decimal {
	total := decimal.Zero
	for _, c := range charges {
		total = total.Add(c.effective)
	}
	return total.Round(2)
}

func sumVariable(charges []*VariableCharge) decimal.Decimal {
	total := decimal.Zero
	for _, c := range charges {
		total = total.Add(c.Amount)
	}
	return total.Round(2)
}

/* statistics */

// GetStatistics assembles the P&L view of a window: KPIs against the
// previous window, a chart, and the charge breakdown. Results are cached
// per store until a mutation invalidates them.
func GetStatistics(ctx context.Context, period StatisticsPeriod, date string) (*StatisticsResponse, error) {
	storeId, ok := utils.GetStoreIdFromContext(ctx)
	if !ok || storeId == 0 {
		return nil, errors.New("store id is required")
	}
	if !period.Valid() {
		return nil, utils.NewValidationError("invalid period type, must be day, week or month")
	}

	cacheKey := utils.StatisticsCacheKey(storeId, string(period), date)
	if cached, err := utils.RetrieveStatisticsCache[StatisticsResponse](cacheKey); err != nil {
		config.LogError(config.GetLogger(), "models", "GetStatistics", "read statistics cache", cacheKey, err)
	} else if cached != nil {
		return cached, nil
	}

	start, end, prevStart, prevEnd, err := PeriodWindow(period, date)
	if err != nil {
		return nil, err
	}

	revenue, err := RevenueForRange(ctx, storeId, start, end)
	if err != nil {
		return nil, err
	}
	previousRevenue, err := RevenueForRange(ctx, storeId, prevStart, prevEnd)
	if err != nil {
		return nil, err
	}

	fixedWithAmounts, err := fixedChargesWithEffectiveAmounts(ctx, storeId, period, date)
	if err != nil {
		return nil, err
	}
	fixedTotal := sumEffective(fixedWithAmounts)

	variableCharges, err := VariableChargesForRange(ctx, storeId, start, end)
	if err != nil {
		return nil, err
	}
	variableTotal := sumVariable(variableCharges)

	totalCharges := fixedTotal.Add(variableTotal)
	profit := revenue.Sub(totalCharges)
	chargesPercentage := utils.Percentage(totalCharges, revenue)
	profitPercentage := utils.Percentage(profit, revenue)

	kpi := &Kpi{
		Revenue:           revenue.Round(2),
		Charges:           totalCharges,
		Profit:            profit.Round(2),
		RevenueEvolution:  RevenueEvolution(revenue, previousRevenue),
		ChargesPercentage: chargesPercentage,
		ProfitPercentage:  profitPercentage,
		ChargesStatus:     ChargesStatus(chargesPercentage),
		ProfitStatus:      ProfitStatus(profitPercentage),
	}

	chartData, err := generateChartData(ctx, storeId, period, date)
	if err != nil {
		return nil, err
	}

	breakdown := &ChargesBreakdown{
		Fixed:    make([]*ChargeItem, 0, len(fixedWithAmounts)),
		Variable: make([]*ChargeItem, 0, len(variableCharges)),
	}
	for _, w := range fixedWithAmounts {
		breakdown.Fixed = append(breakdown.Fixed, fixedChargeItem(w, totalCharges, revenue))
	}
	for _, c := range variableCharges {
		breakdown.Variable = append(breakdown.Variable, variableChargeItem(c, totalCharges, revenue))
	}

	response := &StatisticsResponse{
		Period:    period,
		Kpi:       kpi,
		ChartData: chartData,
		Charges:   breakdown,
	}

	if err := utils.StoreStatisticsCache(storeId, cacheKey, response); err != nil {
		config.LogError(config.GetLogger(), "models", "GetStatistics", "write statistics cache", cacheKey, err)
	}

	return response, nil
}

// GetChargesDetail returns the charge-by-charge breakdown of a week or
// month window with share-of-charges and share-of-revenue percentages.
func GetChargesDetail(ctx context.Context, period StatisticsPeriod, month string, week string) (*ChargesDetailResponse, error) {
	storeId, ok := utils.GetStoreIdFromContext(ctx)
	if !ok || storeId == 0 {
		return nil, errors.New("store id is required")
	}
	if period != StatisticsPeriodWeek && period != StatisticsPeriodMonth {
		return nil, utils.NewValidationError("period must be week or month")
	}

	var start, end time.Time
	var date string
	if period == StatisticsPeriodWeek {
		if week == "" {
			return nil, utils.NewValidationError("week parameter is required for week period")
		}
		day, err := time.Parse(utils.DateLayout, week)
		if err != nil {
			return nil, utils.NewValidationError("invalid week: " + week)
		}
		start = utils.MondayOf(day)
		end = start.AddDate(0, 0, 6)
		date = week
	} else {
		var err error
		start, end, err = utils.MonthRange(month)
		if err != nil {
			return nil, utils.NewValidationError(err.Error())
		}
		date = month
	}

	revenue, err := RevenueForRange(ctx, storeId, start, end)
	if err != nil {
		return nil, err
	}

	fixedWithAmounts, err := fixedChargesWithEffectiveAmounts(ctx, storeId, period, date)
	if err != nil {
		return nil, err
	}
	fixedTotal := sumEffective(fixedWithAmounts)

	variableCharges, err := VariableChargesForRange(ctx, storeId, start, end)
	if err != nil {
		return nil, err
	}
	variableTotal := sumVariable(variableCharges)
	totalCharges := fixedTotal.Add(variableTotal)

	fixedItems := make([]*ChargeItem, 0, len(fixedWithAmounts))
	for _, w := range fixedWithAmounts {
		fixedItems = append(fixedItems, fixedChargeItem(w, totalCharges, revenue))
	}
	variableItems := make([]*ChargeItem, 0, len(variableCharges))
	for _, c := range variableCharges {
		variableItems = append(variableItems, variableChargeItem(c, totalCharges, revenue))
	}

	statistics := &ChargesStatistics{
		TotalCharges:           totalCharges,
		TotalFixedCharges:      fixedTotal,
		TotalVariableCharges:   variableTotal,
		ItemCount:              len(fixedWithAmounts) + len(variableCharges),
		PercentageOfAllCharges: utils.Percentage(variableTotal, totalCharges),
		CaPercentage:           utils.Percentage(totalCharges, revenue),
		Revenue:                revenue.Round(2),
	}

	return &ChargesDetailResponse{
		Period:          period,
		Statistics:      statistics,
		FixedCharges:    fixedItems,
		VariableCharges: variableItems,
	}, nil
}

func fixedChargeItem(w *chargeWithAmount, totalCharges, revenue decimal.Decimal) *ChargeItem {
	percentageOfRevenue := utils.Percentage(w.effective, revenue)
	return &ChargeItem{
		ID:                  w.charge.ID,
		Name:                chargeDisplayName(w.charge.Category),
		Amount:              w.effective,
		PercentageOfCharges: utils.Percentage(w.effective, totalCharges),
		PercentageOfRevenue: percentageOfRevenue,
		Category:            "fixed",
		Status:              ChargeItemStatus(percentageOfRevenue),
	}
}

func variableChargeItem(c *VariableCharge, totalCharges, revenue decimal.Decimal) *ChargeItem {
	percentageOfRevenue := utils.Percentage(c.Amount, revenue)
	return &ChargeItem{
		ID:                  c.ID,
		Name:                c.Name,
		Amount:              c.Amount,
		PercentageOfCharges: utils.Percentage(c.Amount, totalCharges),
		PercentageOfRevenue: percentageOfRevenue,
		Category:            "variable",
		Status:              ChargeItemStatus(percentageOfRevenue),
		Date:                c.Date.Format(utils.DateLayout),
		Supplier:            c.Supplier,
	}
}

/* charts */

func generateChartData(ctx context.Context, storeId int, period StatisticsPeriod, date string) ([]*StatisticsChartPoint, error) {
	switch period {
	case StatisticsPeriodDay:
		return generateDayChartData(ctx, storeId, date)
	case StatisticsPeriodWeek:
		return generateWeekChartData(ctx, storeId, date)
	case StatisticsPeriodMonth:
		return generateMonthChartData(ctx, storeId, date)
	}
	return nil, nil
}

var dayLabels = [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// generateDayChartData plots the day's whole week Mon..Sun: a fixed daily
// base (monthly charges spread over the month, weekly over seven days)
// plus each day's variable charges.
func generateDayChartData(ctx context.Context, storeId int, date string) ([]*StatisticsChartPoint, error) {
	day, err := time.Parse(utils.DateLayout, date)
	if err != nil {
		return nil, utils.NewValidationError("invalid date: " + date)
	}
	monday := utils.MondayOf(day)
	monthKey := utils.MonthKeyFor(monday)
	weekKey := monday.Format(utils.DateLayout)

	charges, err := fixedChargesOfMonth(ctx, storeId, monthKey)
	if err != nil {
		return nil, err
	}
	monthlyTotal := decimal.Zero
	weeklyTotal := decimal.Zero
	for _, c := range charges {
		switch {
		case c.Period == ChargePeriodMonth:
			monthlyTotal = monthlyTotal.Add(c.Amount)
		case c.Period == ChargePeriodWeek && c.WeekKey != nil && *c.WeekKey == weekKey:
			weeklyTotal = weeklyTotal.Add(c.Amount)
		}
	}

	dailyFixed := decimal.Zero
	if monthlyTotal.GreaterThan(decimal.Zero) {
		daysInMonth := decimal.NewFromInt(int64(utils.DaysInMonth(monday)))
		dailyFixed = dailyFixed.Add(monthlyTotal.DivRound(daysInMonth, 2))
	}
	if weeklyTotal.GreaterThan(decimal.Zero) {
		dailyFixed = dailyFixed.Add(weeklyTotal.DivRound(decimal.NewFromInt(7), 2))
	}

	sunday := monday.AddDate(0, 0, 6)
	revenueByDay, err := RevenueByDay(ctx, storeId, monday, sunday)
	if err != nil {
		return nil, err
	}
	variableCharges, err := VariableChargesForRange(ctx, storeId, monday, sunday)
	if err != nil {
		return nil, err
	}
	variableByDay := make(map[string]decimal.Decimal)
	for _, vc := range variableCharges {
		day := vc.Date.Format(utils.DateLayout)
		variableByDay[day] = variableByDay[day].Add(vc.Amount)
	}

	points := make([]*StatisticsChartPoint, 0, 7)
	for i := 0; i < 7; i++ {
		day := monday.AddDate(0, 0, i).Format(utils.DateLayout)
		revenue := revenueByDay[day]
		chargesTotal := dailyFixed.Add(variableByDay[day]).Round(2)
		points = append(points, &StatisticsChartPoint{
			Period:  dayLabels[i],
			Revenue: revenue.Round(2),
			Charges: chargesTotal,
			Profit:  revenue.Sub(chargesTotal).Round(2),
		})
	}
	return points, nil
}

// generateWeekChartData plots every week belonging to the containing
// month as W1..Wn.
func generateWeekChartData(ctx context.Context, storeId int, date string) ([]*StatisticsChartPoint, error) {
	day, err := time.Parse(utils.DateLayout, date)
	if err != nil {
		return nil, utils.NewValidationError("invalid date: " + date)
	}
	monday := utils.MondayOf(day)
	monthKey := utils.MonthKeyFor(monday)
	weeks, err := utils.WeeksBelongingToMonth(monthKey)
	if err != nil {
		return nil, err
	}

	points := make([]*StatisticsChartPoint, 0, len(weeks))
	for i, weekKey := range weeks {
		weekMonday, err := utils.ParseWeekKey(weekKey)
		if err != nil {
			return nil, err
		}
		weekSunday := weekMonday.AddDate(0, 0, 6)

		revenue, err := RevenueForRange(ctx, storeId, weekMonday, weekSunday)
		if err != nil {
			return nil, err
		}
		fixedWithAmounts, err := fixedChargesWithEffectiveAmounts(ctx, storeId, StatisticsPeriodWeek, weekKey)
		if err != nil {
			return nil, err
		}
		variableCharges, err := VariableChargesForRange(ctx, storeId, weekMonday, weekSunday)
		if err != nil {
			return nil, err
		}
		chargesTotal := sumEffective(fixedWithAmounts).Add(sumVariable(variableCharges))

		points = append(points, &StatisticsChartPoint{
			Period:  fmt.Sprintf("W%d", i+1),
			Revenue: revenue.Round(2),
			Charges: chargesTotal,
			Profit:  revenue.Sub(chargesTotal).Round(2),
		})
	}
	return points, nil
}

// generateMonthChartData plots the anchor month and the three before it.
func generateMonthChartData(ctx context.Context, storeId int, monthKey string) ([]*StatisticsChartPoint, error) {
	current, err := utils.ParseMonthKey(monthKey)
	if err != nil {
		return nil, utils.NewValidationError(err.Error())
	}

	points := make([]*StatisticsChartPoint, 0, 4)
	for i := 3; i >= 0; i-- {
		month := current.AddDate(0, -i, 0)
		key := month.Format(utils.MonthLayout)
		monthStart := month
		monthEnd := month.AddDate(0, 1, -1)

		revenue, err := RevenueForRange(ctx, storeId, monthStart, monthEnd)
		if err != nil {
			return nil, err
		}
		fixedWithAmounts, err := fixedChargesWithEffectiveAmounts(ctx, storeId, StatisticsPeriodMonth, key)
		if err != nil {
			return nil, err
		}
		variableCharges, err := VariableChargesForRange(ctx, storeId, monthStart, monthEnd)
		if err != nil {
			return nil, err
		}
		chargesTotal := sumEffective(fixedWithAmounts).Add(sumVariable(variableCharges))

		points = append(points, &StatisticsChartPoint{
			Period:  utils.MonthLabel(key),
			Revenue: revenue.Round(2),
			Charges: chargesTotal,
			Profit:  revenue.Sub(chargesTotal).Round(2),
		})
	}
	return points, nil
}
