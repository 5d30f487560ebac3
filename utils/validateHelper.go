package utils

import (
	"context"

	"github.com/msahtani/storeyes-backend/config"
)

// check if id exists, using ctx's store_id in WHERE, return RecordNotFound Error
func ValidateResourceId[T any](ctx context.Context, storeId int, id interface{}) error {

	count, err := ResourceCountWhere[T](ctx, storeId, "id = ?", id)
	if err != nil {
		return err
	}
	if count <= 0 {
		return ErrorRecordNotFound
	}

	return nil
}

// check if ALL id exists, using ctx's store_id in WHERE, return RecordNotFound Error
func ValidateResourcesId[M any, ID comparable](ctx context.Context, storeId int, ids []ID) error {
	unqIds := UniqueSlice(ids)

	count, err := ResourceCountWhere[M](ctx, storeId, "id IN ?", unqIds)
	if err != nil {
		return err
	}
	if count != int64(len(unqIds)) {
		return ErrorRecordNotFound
	}

	return nil
}

// count records, using WHERE store_id = ? AND $condition
// store_id can be zero for records not scoped to a store
func ResourceCountWhere[T any](ctx context.Context, storeId int, condition string, value ...interface{}) (int64, error) {
	var model T

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&model)
	var count int64
	if storeId != 0 {
		dbCtx = dbCtx.Where("store_id = ?", storeId)
	}
	dbCtx = dbCtx.Where(condition, value...)
	if err := dbCtx.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
