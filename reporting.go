package main

import (
	"net/http"
	"time"

	"acquittals/process/report"

	"github.com/gin-gonic/gin"
)

func summaryHandler(c *gin.Context) {
	s, err := report.GetSummary(c.Request.Context(), db)
	if err != nil {
		serverError(c, "Failed to generate summary", err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func facilityBreakdownHandler(c *gin.Context) {
	fb, err := report.GetFacilityBreakdown(c.Request.Context(), db)
	if err != nil {
		serverError(c, "Failed to generate facility summary", err)
		return
	}
	c.JSON(http.StatusOK, fb)
}

func analyticsHandler(c *gin.Context) {
	a, err := report.GetAnalytics(c.Request.Context(), db)
	if err != nil {
		serverError(c, "Failed to generate analytics", err)
		return
	}
	c.JSON(http.StatusOK, a)
}

func employeeSummaryHandler(c *gin.Context) {
	es, err := report.GetEmployeeSummary(c.Request.Context(), db)
	if err != nil {
		serverError(c, "Failed to generate employee summary", err)
		return
	}
	c.JSON(http.StatusOK, es)
}

// monthlyHandler reports one month (?month=YYYY-MM, default current) with an
// optional ?facility= filter.
func monthlyHandler(c *gin.Context) {
	month := c.DefaultQuery("month", time.Now().UTC().Format("2006-01"))
	if _, _, err := report.MonthWindow(month); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid month, expected YYYY-MM"})
		return
	}
	m, err := report.GetMonthly(c.Request.Context(), db, month, c.Query("facility"))
	if err != nil {
		serverError(c, "Failed to generate monthly report", err)
		return
	}
	c.JSON(http.StatusOK, m)
}
