package utils

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"time"

	"github.com/msahtani/storeyes-backend/config"
)

func GetCacheLifespan() time.Duration {
	lifespan, err := strconv.Atoi(os.Getenv("CACHE_LIFESPAN"))
	if err != nil {
		lifespan = 1
	}
	return time.Duration(lifespan) * time.Hour
}

/* generic functions */

func GetTypeName[T any]() string {
	var v T
	typeOfT := reflect.TypeOf(v)
	return typeOfT.Name()
}

/* Redis */

// store instance, obj should be a pointer
func StoreRedis[T any](obj any, id int) error {
	key := GetTypeName[T]() + ":" + fmt.Sprint(id)
	return config.SetRedisObject(key, &obj, GetCacheLifespan())
}

// get from redis
// returns nil if does not exist
func RetrieveRedis[T any](id int) (*T, error) {
	var result *T
	key := GetTypeName[T]() + ":" + fmt.Sprint(id)
	exists, err := config.GetRedisObject(key, &result)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}
	return result, nil
}

// remove an instance, Type:$id
func RemoveRedisItem[T any](id int) error {
	key := GetTypeName[T]() + ":" + fmt.Sprint(id)
	return config.RemoveRedisKey(key)
}

// StoreOwnerCacheKey caches the owner-to-store resolution done on every
// authenticated request.
func StoreOwnerCacheKey(ownerId int) string {
	return fmt.Sprintf("StoreOwner:%d", ownerId)
}

/* statistics cache, tracked per store via a redis set so
   mutations can drop every cached window at once */

func statisticsSetKey(storeId int) string {
	return fmt.Sprintf("StatisticsKeys:%d", storeId)
}

func StatisticsCacheKey(storeId int, period string, anchor string) string {
	return fmt.Sprintf("Statistics:%d:%s:%s", storeId, period, anchor)
}

func StoreStatisticsCache(storeId int, cacheKey string, obj any) error {
	if err := config.SetRedisObject(cacheKey, &obj, GetCacheLifespan()); err != nil {
		return err
	}
	return config.AddRedisSet(statisticsSetKey(storeId), cacheKey)
}

func RetrieveStatisticsCache[T any](cacheKey string) (*T, error) {
	var result *T
	exists, err := config.GetRedisObject(cacheKey, &result)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}
	return result, nil
}

// drop every cached statistics window of the store
func InvalidateStatisticsCache(storeId int) error {
	setKey := statisticsSetKey(storeId)
	members, err := config.GetRedisSetMembers(setKey)
	if err != nil {
		return err
	}
	if len(members) > 0 {
		if err := config.RemoveRedisKey(members...); err != nil {
			return err
		}
	}
	return config.RemoveRedisKey(setKey)
}
