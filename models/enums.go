package models

import (
	"errors"
	"strings"
)

type ChargeCategory string

const (
	ChargeCategoryPersonnel   ChargeCategory = "PERSONNEL"
	ChargeCategoryWater       ChargeCategory = "WATER"
	ChargeCategoryElectricity ChargeCategory = "ELECTRICITY"
	ChargeCategoryWifi        ChargeCategory = "WIFI"
)

func (c ChargeCategory) Valid() bool {
	switch c {
	case ChargeCategoryPersonnel, ChargeCategoryWater, ChargeCategoryElectricity, ChargeCategoryWifi:
		return true
	}
	return false
}

func ParseChargeCategory(s string) (ChargeCategory, error) {
	c := ChargeCategory(strings.ToUpper(s))
	if !c.Valid() {
		return "", errors.New("invalid charge category: " + s)
	}
	return c, nil
}

type ChargePeriod string

const (
	ChargePeriodMonth ChargePeriod = "MONTH"
	ChargePeriodWeek  ChargePeriod = "WEEK"
)

func (p ChargePeriod) Valid() bool {
	return p == ChargePeriodMonth || p == ChargePeriodWeek
}

type TrendDirection string

const (
	TrendDirectionUp     TrendDirection = "UP"
	TrendDirectionDown   TrendDirection = "DOWN"
	TrendDirectionStable TrendDirection = "STABLE"
)

type EmployeeType string

const (
	EmployeeTypeServer  EmployeeType = "SERVER"
	EmployeeTypeCook    EmployeeType = "COOK"
	EmployeeTypeManager EmployeeType = "MANAGER"
	EmployeeTypeCleaner EmployeeType = "CLEANER"
)

func (t EmployeeType) Valid() bool {
	switch t {
	case EmployeeTypeServer, EmployeeTypeCook, EmployeeTypeManager, EmployeeTypeCleaner:
		return true
	}
	return false
}

type StatusLevel string

const (
	StatusLevelGood     StatusLevel = "good"
	StatusLevelMedium   StatusLevel = "medium"
	StatusLevelCritical StatusLevel = "critical"
)

type StatisticsPeriod string

const (
	StatisticsPeriodDay   StatisticsPeriod = "day"
	StatisticsPeriodWeek  StatisticsPeriod = "week"
	StatisticsPeriodMonth StatisticsPeriod = "month"
)

func (p StatisticsPeriod) Valid() bool {
	return p == StatisticsPeriodDay || p == StatisticsPeriodWeek || p == StatisticsPeriodMonth
}
