package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"acquittals/models"
	"acquittals/pkg/database"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SystemSettings are the global upload and notification options.
type SystemSettings struct {
	MaxFileSize         int64    `json:"maxFileSize" binding:"required,min=1024,max=104857600"`
	AllowedFileTypes    []string `json:"allowedFileTypes"`
	SessionTimeout      int      `json:"sessionTimeout" binding:"required,min=300,max=86400"`
	EnableNotifications *bool    `json:"enableNotifications" binding:"required"`
	EnableAuditLog      *bool    `json:"enableAuditLog" binding:"required"`
	BackupFrequency     string   `json:"backupFrequency" binding:"required,oneof=daily weekly monthly"`
	EmailNotifications  *bool    `json:"emailNotifications" binding:"required"`
}

// AdminSettings control registration and retention.
type AdminSettings struct {
	MaintenanceMode     *bool  `json:"maintenanceMode" binding:"required"`
	RegistrationEnabled *bool  `json:"registrationEnabled" binding:"required"`
	MaxUsers            int    `json:"maxUsers" binding:"required,min=1,max=10000"`
	DataRetentionDays   int    `json:"dataRetentionDays" binding:"required,min=30,max=3650"`
	SecurityLevel       string `json:"securityLevel" binding:"required,oneof=low medium high"`
}

type NotificationPrefs struct {
	Email   bool `json:"email"`
	Browser bool `json:"browser"`
	SMS     bool `json:"sms"`
}

// UserPreferences are per-user UI options.
type UserPreferences struct {
	Theme         string            `json:"theme" binding:"required,oneof=light dark auto"`
	Language      string            `json:"language" binding:"required,min=2,max=5"`
	Timezone      string            `json:"timezone" binding:"required"`
	DateFormat    string            `json:"dateFormat" binding:"required"`
	Currency      string            `json:"currency" binding:"required,len=3"`
	Notifications NotificationPrefs `json:"notifications"`
}

type settingsBundle struct {
	System *SystemSettings  `json:"system" binding:"required"`
	User   *UserPreferences `json:"user" binding:"required"`
	Admin  *AdminSettings   `json:"admin" binding:"required"`
}

func boolPtr(b bool) *bool { return &b }

func defaultSystemSettings() SystemSettings {
	limit := int64(10 * 1024 * 1024)
	if cfg != nil && cfg.MaxUploadBytes > 0 {
		limit = cfg.MaxUploadBytes
	}
	return SystemSettings{
		MaxFileSize:         limit,
		AllowedFileTypes:    []string{".xlsx", ".xlsm", ".csv"},
		SessionTimeout:      3600,
		EnableNotifications: boolPtr(true),
		EnableAuditLog:      boolPtr(true),
		BackupFrequency:     "daily",
		EmailNotifications:  boolPtr(true),
	}
}

func defaultAdminSettings() AdminSettings {
	return AdminSettings{
		MaintenanceMode:     boolPtr(false),
		RegistrationEnabled: boolPtr(true),
		MaxUsers:            1000,
		DataRetentionDays:   365,
		SecurityLevel:       "medium",
	}
}

func defaultPreferences() UserPreferences {
	return UserPreferences{
		Theme:         "light",
		Language:      "en",
		Timezone:      "UTC",
		DateFormat:    "YYYY-MM-DD",
		Currency:      "USD",
		Notifications: NotificationPrefs{Email: true, Browser: true},
	}
}

// loadSetting decodes the stored document for scope over into. It leaves into
// untouched when nothing has been saved yet.
func loadSetting(ctx context.Context, scope string, into any) error {
	var s models.Setting
	err := db.WithContext(ctx).Where("scope = ?", scope).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load %s settings: %w", scope, err)
	}
	if err := json.Unmarshal(s.Value, into); err != nil {
		return fmt.Errorf("decode %s settings: %w", scope, err)
	}
	return nil
}

func saveSetting(tx *gorm.DB, scope string, v any, by *uint) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	s := models.Setting{Scope: scope, Value: datatypes.JSON(raw), UpdatedBy: by}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "scope"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_by", "updated_at"}),
	}).Create(&s).Error
}

func savePreferences(tx *gorm.DB, userID uint, p UserPreferences) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	up := models.UserPreferences{UserID: userID, Value: datatypes.JSON(raw)}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&up).Error
}

func loadSystemSettings(ctx context.Context) (SystemSettings, error) {
	s := defaultSystemSettings()
	err := loadSetting(ctx, models.ScopeSystem, &s)
	return s, err
}

func loadAdminSettings(ctx context.Context) (AdminSettings, error) {
	s := defaultAdminSettings()
	err := loadSetting(ctx, models.ScopeAdmin, &s)
	return s, err
}

func loadPreferences(ctx context.Context, userID uint) (UserPreferences, error) {
	p := defaultPreferences()
	var row models.UserPreferences
	err := db.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return p, nil
	}
	if err != nil {
		return p, err
	}
	if err := json.Unmarshal(row.Value, &p); err != nil {
		return p, fmt.Errorf("decode preferences: %w", err)
	}
	return p, nil
}

func getSystemSettingsHandler(c *gin.Context) {
	s, err := loadSystemSettings(c.Request.Context())
	if err != nil {
		serverError(c, "Failed to get system settings", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": s})
}

func updateSystemSettingsHandler(c *gin.Context) {
	var req SystemSettings
	if !bindJSON(c, &req) {
		return
	}
	if req.AllowedFileTypes == nil {
		req.AllowedFileTypes = defaultSystemSettings().AllowedFileTypes
	}
	u := currentUser(c)
	if err := saveSetting(db.WithContext(c.Request.Context()), models.ScopeSystem, req, &u.ID); err != nil {
		serverError(c, "Failed to update system settings", err)
		return
	}
	audit(c, u, "SETTINGS_UPDATE", "System settings updated")
	c.JSON(http.StatusOK, gin.H{"message": "System settings updated successfully", "settings": req})
}

func getPreferencesHandler(c *gin.Context) {
	p, err := loadPreferences(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		serverError(c, "Failed to get user preferences", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"preferences": p})
}

func updatePreferencesHandler(c *gin.Context) {
	var req UserPreferences
	if !bindJSON(c, &req) {
		return
	}
	u := currentUser(c)
	if err := savePreferences(db.WithContext(c.Request.Context()), u.ID, req); err != nil {
		serverError(c, "Failed to update user preferences", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User preferences updated successfully", "preferences": req})
}

func getAdminSettingsHandler(c *gin.Context) {
	s, err := loadAdminSettings(c.Request.Context())
	if err != nil {
		serverError(c, "Failed to get admin settings", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": s})
}

func updateAdminSettingsHandler(c *gin.Context) {
	var req AdminSettings
	if !bindJSON(c, &req) {
		return
	}
	u := currentUser(c)
	if err := saveSetting(db.WithContext(c.Request.Context()), models.ScopeAdmin, req, &u.ID); err != nil {
		serverError(c, "Failed to update admin settings", err)
		return
	}
	audit(c, u, "SETTINGS_UPDATE", "Admin settings updated")
	c.JSON(http.StatusOK, gin.H{"message": "Admin settings updated successfully", "settings": req})
}

type memoryStats struct {
	Alloc      uint64 `json:"alloc"`
	TotalAlloc uint64 `json:"totalAlloc"`
	Sys        uint64 `json:"sys"`
	HeapInuse  uint64 `json:"heapInuse"`
	NumGC      uint32 `json:"numGC"`
	Goroutines int    `json:"goroutines"`
}

func readMemory() memoryStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return memoryStats{
		Alloc:      m.Alloc,
		TotalAlloc: m.TotalAlloc,
		Sys:        m.Sys,
		HeapInuse:  m.HeapInuse,
		NumGC:      m.NumGC,
		Goroutines: runtime.NumGoroutine(),
	}
}

func dbStatus() string {
	if err := database.Ping(db); err != nil {
		return "disconnected"
	}
	return "connected"
}

// healthHandler is the unauthenticated liveness probe.
func healthHandler(c *gin.Context) {
	status, code := "OK", http.StatusOK
	if dbStatus() != "connected" {
		status, code = "DEGRADED", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{"status": status, "timestamp": time.Now().UTC(), "uptime": time.Since(startedAt).Seconds()})
}

func settingsHealthHandler(c *gin.Context) {
	dbs := dbStatus()
	status := "healthy"
	if dbs != "connected" {
		status = "unhealthy"
	}
	c.JSON(http.StatusOK, gin.H{"health": gin.H{
		"status":    status,
		"uptime":    time.Since(startedAt).Seconds(),
		"memory":    readMemory(),
		"database":  dbs,
		"timestamp": time.Now().UTC(),
	}})
}

func auditLogHandler(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("pageSize", c.DefaultQuery("limit", "50")))
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 200 {
		size = 50
	}
	ctx := c.Request.Context()
	var total int64
	if err := db.WithContext(ctx).Model(&models.AuditLog{}).Count(&total).Error; err != nil {
		serverError(c, "Failed to get audit log", err)
		return
	}
	entries := []models.AuditLog{}
	if err := db.WithContext(ctx).Order("created_at DESC, id DESC").Offset((page - 1) * size).Limit(size).Find(&entries).Error; err != nil {
		serverError(c, "Failed to get audit log", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"auditLog":   entries,
		"pagination": gin.H{"page": page, "pageSize": size, "total": total},
	})
}

func exportSettingsHandler(c *gin.Context) {
	ctx := c.Request.Context()
	sys, err := loadSystemSettings(ctx)
	if err != nil {
		serverError(c, "Failed to export settings", err)
		return
	}
	adm, err := loadAdminSettings(ctx)
	if err != nil {
		serverError(c, "Failed to export settings", err)
		return
	}
	prefs, err := loadPreferences(ctx, currentUser(c).ID)
	if err != nil {
		serverError(c, "Failed to export settings", err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="settings_export.json"`)
	c.JSON(http.StatusOK, settingsBundle{System: &sys, User: &prefs, Admin: &adm})
}

// importSettingsHandler replaces all three settings documents at once.
func importSettingsHandler(c *gin.Context) {
	var req settingsBundle
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid settings format", "details": err.Error()})
		return
	}
	u := currentUser(c)
	err := db.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		if err := saveSetting(tx, models.ScopeSystem, req.System, &u.ID); err != nil {
			return err
		}
		if err := saveSetting(tx, models.ScopeAdmin, req.Admin, &u.ID); err != nil {
			return err
		}
		return savePreferences(tx, u.ID, *req.User)
	})
	if err != nil {
		serverError(c, "Failed to import settings", err)
		return
	}
	audit(c, u, "SETTINGS_IMPORT", "Settings imported")
	c.JSON(http.StatusOK, gin.H{"message": "Settings imported successfully"})
}
