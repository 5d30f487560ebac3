package main

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/msahtani/storeyes-backend/models"
	"github.com/msahtani/storeyes-backend/utils"
	"github.com/xuri/excelize/v2"
)

func getStatisticsHandler(c *gin.Context) {
	period := models.StatisticsPeriod(c.DefaultQuery("period", string(models.StatisticsPeriodDay)))
	date := c.Query("date")
	if date == "" {
		respondError(c, utils.NewValidationError("date parameter is required"))
		return
	}

	statistics, err := models.GetStatistics(c.Request.Context(), period, date)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, statistics)
}

func getChargesDetailHandler(c *gin.Context) {
	detail, err := chargesDetailFromQuery(c)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, detail)
}

func chargesDetailFromQuery(c *gin.Context) (*models.ChargesDetailResponse, error) {
	period := models.StatisticsPeriod(c.Query("period"))
	return models.GetChargesDetail(c.Request.Context(), period, c.Query("month"), c.Query("week"))
}

// exportChargesDetailHandler streams the charges detail as a spreadsheet.
func exportChargesDetailHandler(c *gin.Context) {
	detail, err := chargesDetailFromQuery(c)
	if err != nil {
		respondError(c, err)
		return
	}

	f := excelize.NewFile()
	sheet := "Charges"
	index, err := f.NewSheet(sheet)
	if err != nil {
		respondError(c, err)
		return
	}
	f.SetActiveSheet(index)
	_ = f.DeleteSheet("Sheet1")

	headers := []string{"Name", "Category", "Amount", "% of Charges", "% of Revenue", "Status", "Date", "Supplier"}
	col := 'A'
	for _, h := range headers {
		f.SetCellValue(sheet, string(col)+"1", h)
		col++
	}

	rowNo := 2
	writeItem := func(item *models.ChargeItem) {
		f.SetCellValue(sheet, "A"+fmt.Sprint(rowNo), item.Name)
		f.SetCellValue(sheet, "B"+fmt.Sprint(rowNo), item.Category)
		f.SetCellValue(sheet, "C"+fmt.Sprint(rowNo), item.Amount.InexactFloat64())
		f.SetCellValue(sheet, "D"+fmt.Sprint(rowNo), item.PercentageOfCharges.InexactFloat64())
		f.SetCellValue(sheet, "E"+fmt.Sprint(rowNo), item.PercentageOfRevenue.InexactFloat64())
		f.SetCellValue(sheet, "F"+fmt.Sprint(rowNo), string(item.Status))
		f.SetCellValue(sheet, "G"+fmt.Sprint(rowNo), item.Date)
		f.SetCellValue(sheet, "H"+fmt.Sprint(rowNo), item.Supplier)
		rowNo++
	}
	for _, item := range detail.FixedCharges {
		writeItem(item)
	}
	for _, item := range detail.VariableCharges {
		writeItem(item)
	}

	// summary block under the items
	rowNo++
	f.SetCellValue(sheet, "A"+fmt.Sprint(rowNo), "Total Charges")
	f.SetCellValue(sheet, "C"+fmt.Sprint(rowNo), detail.Statistics.TotalCharges.InexactFloat64())
	rowNo++
	f.SetCellValue(sheet, "A"+fmt.Sprint(rowNo), "Fixed Charges")
	f.SetCellValue(sheet, "C"+fmt.Sprint(rowNo), detail.Statistics.TotalFixedCharges.InexactFloat64())
	rowNo++
	f.SetCellValue(sheet, "A"+fmt.Sprint(rowNo), "Variable Charges")
	f.SetCellValue(sheet, "C"+fmt.Sprint(rowNo), detail.Statistics.TotalVariableCharges.InexactFloat64())
	rowNo++
	f.SetCellValue(sheet, "A"+fmt.Sprint(rowNo), "Revenue")
	f.SetCellValue(sheet, "C"+fmt.Sprint(rowNo), detail.Statistics.Revenue.InexactFloat64())

	filename := fmt.Sprintf("charges-%s.xlsx", c.Query("period"))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename="+filename)
	if err := f.Write(c.Writer); err != nil {
		respondError(c, err)
	}
}
