package main

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"acquittals/process/report"

	"github.com/gin-gonic/gin"
)

func overviewHandler(c *gin.Context) {
	stats, err := report.GetOverview(c.Request.Context(), db, time.Now().UTC())
	if err != nil {
		serverError(c, "Failed to get dashboard overview", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

func chartsHandler(c *gin.Context) {
	charts, err := report.GetCharts(c.Request.Context(), db, time.Now().UTC())
	if err != nil {
		serverError(c, "Failed to get chart data", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"chartData": charts})
}

func recentActivityHandler(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	acts, err := report.GetRecentActivity(c.Request.Context(), db, limit)
	if err != nil {
		serverError(c, "Failed to get recent activity", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"activities": acts})
}

func dashboardFacilityHandler(c *gin.Context) {
	sums, err := report.GetFacilitySummaries(c.Request.Context(), db)
	if err != nil {
		serverError(c, "Failed to get facility summary", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summaries": sums})
}

func quickStatsHandler(c *gin.Context) {
	qs, err := report.GetQuickStats(c.Request.Context(), db, time.Now().UTC())
	if err != nil {
		serverError(c, "Failed to get quick stats", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quickStats": qs})
}

func systemStatusHandler(c *gin.Context) {
	users, err := accounts.Count(c.Request.Context())
	if err != nil {
		serverError(c, "Failed to get system status", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"systemStatus": gin.H{
		"database":   dbStatus(),
		"dbType":     cfg.DB.Type,
		"uptime":     time.Since(startedAt).Seconds(),
		"memory":     readMemory(),
		"totalUsers": users,
	}})
}

func notificationsHandler(c *gin.Context) {
	n, err := report.GetNotifications(c.Request.Context(), db, time.Now().UTC())
	if err != nil {
		serverError(c, "Failed to get notifications", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": n})
}

// markNotificationReadHandler only logs; notifications are derived, not stored.
func markNotificationReadHandler(c *gin.Context) {
	slog.Info("notification marked as read", "id", c.Param("id"), "user", currentUser(c).Email)
	c.JSON(http.StatusOK, gin.H{"message": "Notification marked as read"})
}
