package main

import (
	"errors"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"acquittals/models"
	"acquittals/pkg/account"
	"acquittals/pkg/ingest"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const userKey = "user"

func init() {
	// request bodies are strict: unknown JSON fields fail binding
	binding.EnableDecoderDisallowUnknownFields = true
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	}
}

func newRouter() *gin.Engine {
	r := gin.New()
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		slog.Error("invalid trusted proxies, trusting none", "error", err)
		_ = r.SetTrustedProxies(nil)
	}
	r.Use(gin.Recovery(), requestLogger(), metricsMiddleware(), corsMiddleware(cfg.CORSOrigins))
	if gin.Mode() == gin.DebugMode {
		r.Use(gin.Logger())
	}
	r.MaxMultipartMemory = cfg.MaxUploadBytes
	setupRoutes(r)
	return r
}

func setupRoutes(r *gin.Engine) {
	r.GET("/health", healthHandler)
	r.GET("/metrics", metricsHandler())
	r.NoRoute(notFoundHandler)

	api := r.Group("/api")
	api.Use(rateLimitMiddleware(cfg.RateLimitWindow, cfg.RateLimitMax))

	api.POST("/auth/register", registerHandler)
	api.POST("/auth/login", loginHandler)

	authGroup := api.Group("")
	authGroup.Use(jwtAuthMiddleware())

	authGroup.GET("/auth/profile", getProfileHandler)
	authGroup.PUT("/auth/profile", updateProfileHandler)
	authGroup.POST("/auth/change-password", changePasswordHandler)
	authGroup.POST("/auth/logout", logoutHandler)
	authGroup.GET("/auth/verify", verifyHandler)

	for _, form := range ingest.Forms {
		authGroup.POST("/data-entry/"+string(form), uploadHandler(form))
		authGroup.POST("/data-entry/"+string(form)+"-manual", manualEntryHandler(form))
	}
	authGroup.GET("/data-entry/data", listDataHandler)

	authGroup.GET("/dashboard/overview", overviewHandler)
	authGroup.GET("/dashboard/charts", chartsHandler)
	authGroup.GET("/dashboard/recent-activity", recentActivityHandler)
	authGroup.GET("/dashboard/facility-summary", dashboardFacilityHandler)
	authGroup.GET("/dashboard/quick-stats", quickStatsHandler)
	authGroup.GET("/dashboard/system-status", systemStatusHandler)
	authGroup.GET("/dashboard/notifications", notificationsHandler)
	authGroup.PUT("/dashboard/notifications/:id/read", markNotificationReadHandler)

	authGroup.GET("/reporting/summary", summaryHandler)
	authGroup.GET("/reporting/facility-summary", facilityBreakdownHandler)
	authGroup.GET("/reporting/analytics", analyticsHandler)
	authGroup.GET("/reporting/employee-summary", employeeSummaryHandler)
	authGroup.GET("/reporting/monthly", monthlyHandler)

	authGroup.GET("/export/excel", exportExcelHandler)
	authGroup.GET("/export/pdf", exportPDFHandler)

	authGroup.GET("/settings/system", getSystemSettingsHandler)
	authGroup.PUT("/settings/system", requireAdmin(), updateSystemSettingsHandler)
	authGroup.GET("/settings/preferences", getPreferencesHandler)
	authGroup.PUT("/settings/preferences", updatePreferencesHandler)
	authGroup.GET("/settings/admin", getAdminSettingsHandler)
	authGroup.PUT("/settings/admin", requireAdmin(), updateAdminSettingsHandler)
	authGroup.GET("/settings/health", settingsHealthHandler)
	authGroup.GET("/settings/audit-log", requireAdmin(), auditLogHandler)
	authGroup.GET("/settings/export", exportSettingsHandler)
	authGroup.POST("/settings/import", requireAdmin(), importSettingsHandler)
}

// jwtAuthMiddleware verifies the bearer token and loads the user it names.
// A missing header is 401, a bad or expired token 403 and a token whose user
// no longer exists 401.
func jwtAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if len(authHeader) < 8 || authHeader[:7] != "Bearer " {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Access token required"})
			return
		}
		claims, err := tokens.Verify(authHeader[7:])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Invalid token"})
			return
		}
		user, err := accounts.Get(c.Request.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, account.ErrNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
				return
			}
			serverError(c, "Authentication failed", err)
			c.Abort()
			return
		}
		c.Set(userKey, &user)
		c.Next()
	}
}

// currentUser returns the user stored by jwtAuthMiddleware.
func currentUser(c *gin.Context) *models.User {
	v, ok := c.Get(userKey)
	if !ok {
		return nil
	}
	u, _ := v.(*models.User)
	return u
}

func requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		u := currentUser(c)
		if u == nil || !u.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Administrator access required"})
			return
		}
		c.Next()
	}
}

// bindJSON decodes and validates the body, writing a 400 on failure.
func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			details := make([]gin.H, 0, len(ve))
			for _, fe := range ve {
				details = append(details, gin.H{"field": fe.Field(), "rule": fe.Tag(), "param": fe.Param()})
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "details": details})
			return false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return false
	}
	return true
}

func serverError(c *gin.Context, msg string, err error) {
	slog.Error(msg, "error", err, "path", c.Request.URL.Path)
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}

// audit appends to the audit log unless disabled in the system settings.
// Failures are logged and never fail the request.
func audit(c *gin.Context, u *models.User, action, details string) {
	ctx := c.Request.Context()
	sys, err := loadSystemSettings(ctx)
	if err == nil && sys.EnableAuditLog != nil && !*sys.EnableAuditLog {
		return
	}
	entry := models.AuditLog{Action: action, Details: details, IP: c.ClientIP()}
	if u != nil {
		entry.UserID = &u.ID
		entry.UserEmail = u.Email
	}
	if err := db.WithContext(ctx).Create(&entry).Error; err != nil {
		slog.Warn("audit log write failed", "action", action, "error", err)
	}
}

func userResponse(u *models.User) gin.H {
	return gin.H{"id": u.ID, "email": u.Email, "name": u.Name, "created_at": u.CreatedAt}
}
