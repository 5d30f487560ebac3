package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/msahtani/storeyes-backend/config"
	"github.com/msahtani/storeyes-backend/utils"
	"gorm.io/gorm"
)

// Employee is the store-level master record. Personnel charges reference it
// so the same person can appear on several months without duplication.
type Employee struct {
	ID        int          `gorm:"primary_key" json:"id"`
	StoreId   int          `gorm:"uniqueIndex:uniq_employee;not null" json:"store_id"`
	Name      string       `gorm:"size:255;uniqueIndex:uniq_employee;not null" json:"name"`
	Type      EmployeeType `gorm:"size:32;uniqueIndex:uniq_employee;not null" json:"type"`
	StartDate *time.Time   `gorm:"uniqueIndex:uniq_employee" json:"start_date"`
	CreatedAt time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

func (obj Employee) GetId() int {
	return obj.ID
}

type NewEmployee struct {
	ID        int          `json:"id"`
	Name      string       `json:"name"`
	Type      EmployeeType `json:"type"`
	StartDate *time.Time   `json:"start_date"`
}

// resolveEmployee reuses an existing master record or creates one.
// A non-zero id must belong to the store; otherwise the (name, type,
// start date) tuple is matched before inserting.
func resolveEmployee(ctx context.Context, tx *gorm.DB, storeId int, input *NewEmployee) (*Employee, error) {
	if input.ID > 0 {
		if err := utils.ValidateResourceId[Employee](ctx, storeId, input.ID); err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				return nil, utils.NewValidationError("employee does not belong to this store")
			}
			return nil, err
		}
		var employee Employee
		if err := tx.WithContext(ctx).First(&employee, input.ID).Error; err != nil {
			return nil, err
		}
		return &employee, nil
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, utils.NewValidationError("employee name is required")
	}
	empType := input.Type
	if empType == "" {
		empType = EmployeeTypeServer
	}
	if !empType.Valid() {
		return nil, utils.NewValidationError("invalid employee type: " + string(empType))
	}

	var employee Employee
	query := tx.WithContext(ctx).
		Where("store_id = ? AND name = ? AND type = ?", storeId, name, empType)
	if input.StartDate != nil {
		query = query.Where("start_date = ?", *input.StartDate)
	} else {
		query = query.Where("start_date IS NULL")
	}
	err := query.First(&employee).Error
	if err == nil {
		return &employee, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	employee = Employee{
		StoreId:   storeId,
		Name:      name,
		Type:      empType,
		StartDate: input.StartDate,
	}
	if err := tx.WithContext(ctx).Create(&employee).Error; err != nil {
		return nil, err
	}
	return &employee, nil
}

// ListEmployees returns the store's master employees, optionally filtered
// by type, for the reuse picker.
func ListEmployees(ctx context.Context, employeeType *EmployeeType) ([]*Employee, error) {
	storeId, ok := utils.GetStoreIdFromContext(ctx)
	if !ok || storeId == 0 {
		return nil, errors.New("store id is required")
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("store_id = ?", storeId)
	if employeeType != nil {
		if !employeeType.Valid() {
			return nil, utils.NewValidationError("invalid employee type: " + string(*employeeType))
		}
		dbCtx = dbCtx.Where("type = ?", *employeeType)
	}

	var employees []*Employee
	if err := dbCtx.Order("name asc").Find(&employees).Error; err != nil {
		return nil, err
	}
	return employees, nil
}
