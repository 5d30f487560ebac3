package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/msahtani/storeyes-backend/config"
	"github.com/msahtani/storeyes-backend/models"
	"github.com/msahtani/storeyes-backend/utils"
)

// AuthMiddleware validates the bearer token and resolves the caller's
// store. Every request downstream of it carries both the user id and
// the store id in the request context.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.Request.Header.Get("Authorization")
		if auth == "" || !strings.HasPrefix(auth, "Bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "unauthorized"})
			c.Abort()
			return
		}
		token := strings.TrimPrefix(auth, "Bearer ")

		validated, err := utils.JwtValidate(token)
		if err != nil || !validated.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "unauthorized"})
			c.Abort()
			return
		}
		claims, ok := validated.Claims.(*utils.JwtCustomClaim)
		if !ok || claims.ID <= 0 {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "unauthorized"})
			c.Abort()
			return
		}

		ctx := utils.SetTokenInContext(c.Request.Context(), token)
		ctx = utils.SetUserIdInContext(ctx, claims.ID)

		storeId, err := resolveStoreId(c, claims.ID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "no store found for user"})
			c.Abort()
			return
		}
		ctx = utils.SetStoreIdInContext(ctx, storeId)

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// resolveStoreId maps an owner to their store, consulting Redis first.
// A cache miss or Redis outage falls through to the database.
func resolveStoreId(c *gin.Context, userId int) (int, error) {
	cacheKey := utils.StoreOwnerCacheKey(userId)

	var store models.Store
	exists, err := config.GetRedisObject(cacheKey, &store)
	if err != nil {
		config.LogError(config.GetLogger(), "middlewares", "resolveStoreId", "read store cache", userId, err)
	}
	if exists && store.ID > 0 {
		return store.ID, nil
	}

	found, err := models.GetStoreByOwner(c.Request.Context(), userId)
	if err != nil {
		return 0, err
	}
	if err := config.SetRedisObject(cacheKey, found, utils.GetCacheLifespan()); err != nil {
		config.LogError(config.GetLogger(), "middlewares", "resolveStoreId", "write store cache", userId, err)
	}
	return found.ID, nil
}
