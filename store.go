package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/msahtani/storeyes-backend/models"
	"github.com/msahtani/storeyes-backend/utils"
)

func getStoreHandler(c *gin.Context) {
	store, err := models.GetStore(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, store)
}

func updateStoreHandler(c *gin.Context) {
	var input models.UpdateStoreInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "errors": utils.ProcessValidationErrors(err)})
		return
	}
	store, err := models.UpdateStore(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, store)
}
