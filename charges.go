package main

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/msahtani/storeyes-backend/config"
	"github.com/msahtani/storeyes-backend/models"
	"github.com/msahtani/storeyes-backend/utils"
)

func respondData(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

// respondError translates model errors into HTTP statuses. A resource
// belonging to another store surfaces as not found, never as forbidden.
func respondError(c *gin.Context, err error) {
	switch {
	case utils.IsValidationError(err):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
	case errors.Is(err, utils.ErrorRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "record not found"})
	default:
		config.LogError(config.GetLogger(), "server", c.FullPath(), "handler error", nil, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal server error"})
	}
}

func pathId(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid id"})
		return 0, false
	}
	return id, true
}

/* fixed charges */

func listFixedChargesHandler(c *gin.Context) {
	ctx := c.Request.Context()

	month := utils.NilIfEmpty(c.Query("month"))
	var category *models.ChargeCategory
	if raw := c.Query("category"); raw != "" {
		parsed, err := models.ParseChargeCategory(raw)
		if err != nil {
			respondError(c, utils.NewValidationError(err.Error()))
			return
		}
		category = &parsed
	}
	var period *models.ChargePeriod
	if raw := c.Query("period"); raw != "" {
		parsed := models.ChargePeriod(raw)
		if !parsed.Valid() {
			respondError(c, utils.NewValidationError("invalid charge period: "+raw))
			return
		}
		period = &parsed
	}

	charges, err := models.ListFixedCharges(ctx, month, category, period)
	if err != nil {
		respondError(c, err)
		return
	}
	views := make([]*models.FixedChargeView, 0, len(charges))
	for _, charge := range charges {
		views = append(views, charge.View())
	}
	respondData(c, http.StatusOK, views)
}

func getFixedChargeHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	detail, err := models.GetFixedChargeDetail(c.Request.Context(), id, utils.NilIfEmpty(c.Query("month")))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, detail)
}

func createFixedChargeHandler(c *gin.Context) {
	var input models.NewFixedCharge
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "errors": utils.ProcessValidationErrors(err)})
		return
	}
	charge, err := models.CreateFixedCharge(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, charge.View())
}

func updateFixedChargeHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.UpdateFixedChargeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "errors": utils.ProcessValidationErrors(err)})
		return
	}
	charge, err := models.UpdateFixedCharge(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, charge.View())
}

func deleteFixedChargeHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	charge, err := models.DeleteFixedCharge(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, charge.View())
}

func listFixedChargesByWeekHandler(c *gin.Context) {
	monthKey := c.Param("monthKey")
	weekKey := c.Param("weekKey")

	var category *models.ChargeCategory
	if raw := c.Query("category"); raw != "" {
		parsed, err := models.ParseChargeCategory(raw)
		if err != nil {
			respondError(c, utils.NewValidationError(err.Error()))
			return
		}
		category = &parsed
	}

	charges, err := models.ListFixedChargesByWeek(c.Request.Context(), monthKey, weekKey, category)
	if err != nil {
		respondError(c, err)
		return
	}
	views := make([]*models.FixedChargeView, 0, len(charges))
	for _, charge := range charges {
		views = append(views, charge.View())
	}
	respondData(c, http.StatusOK, views)
}

/* personnel helpers */

func listEmployeesHandler(c *gin.Context) {
	var employeeType *models.EmployeeType
	if raw := c.Query("type"); raw != "" {
		parsed := models.EmployeeType(raw)
		if !parsed.Valid() {
			respondError(c, utils.NewValidationError("invalid employee type: "+raw))
			return
		}
		employeeType = &parsed
	}
	employees, err := models.ListEmployees(c.Request.Context(), employeeType)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, employees)
}

func getLastPersonnelPeriodHandler(c *gin.Context) {
	pref, err := models.GetUserPreference(c.Request.Context(), models.PreferenceKeyPersonnelChargeLastPeriod)
	if errors.Is(err, utils.ErrorRecordNotFound) {
		respondData(c, http.StatusOK, gin.H{"period": nil})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"period": pref.Value})
}

func setLastPersonnelPeriodHandler(c *gin.Context) {
	var input struct {
		Period string `json:"period" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "errors": utils.ProcessValidationErrors(err)})
		return
	}
	pref, err := models.SetUserPreference(c.Request.Context(), models.PreferenceKeyPersonnelChargeLastPeriod, input.Period)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"period": pref.Value})
}

/* variable charges */

func listVariableChargesHandler(c *gin.Context) {
	var startDate, endDate *time.Time
	if raw := c.Query("startDate"); raw != "" {
		parsed, err := time.Parse(utils.DateLayout, raw)
		if err != nil {
			respondError(c, utils.NewValidationError("invalid startDate: "+raw))
			return
		}
		startDate = &parsed
	}
	if raw := c.Query("endDate"); raw != "" {
		parsed, err := time.Parse(utils.DateLayout, raw)
		if err != nil {
			respondError(c, utils.NewValidationError("invalid endDate: "+raw))
			return
		}
		endDate = &parsed
	}

	charges, err := models.ListVariableCharges(c.Request.Context(), startDate, endDate, utils.NilIfEmpty(c.Query("category")))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, charges)
}

func getVariableChargeHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	charge, err := models.GetVariableCharge(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, charge)
}

func createVariableChargeHandler(c *gin.Context) {
	var input models.NewVariableCharge
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "errors": utils.ProcessValidationErrors(err)})
		return
	}
	charge, err := models.CreateVariableCharge(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, charge)
}

func updateVariableChargeHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	var input models.UpdateVariableChargeInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "errors": utils.ProcessValidationErrors(err)})
		return
	}
	charge, err := models.UpdateVariableCharge(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, charge)
}

func deleteVariableChargeHandler(c *gin.Context) {
	id, ok := pathId(c)
	if !ok {
		return
	}
	charge, err := models.DeleteVariableCharge(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, charge)
}
