package main

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"acquittals/pkg/account"

	"github.com/gin-gonic/gin"
)

type registerRequest struct {
	Name     string `json:"name" binding:"required,min=2"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type profileRequest struct {
	Name            string `json:"name" binding:"omitempty,min=2"`
	Email           string `json:"email" binding:"omitempty,email"`
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword" binding:"omitempty,min=6"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=6"`
}

func registerHandler(c *gin.Context) {
	var req registerRequest
	if !bindJSON(c, &req) {
		return
	}
	if len(strings.TrimSpace(req.Name)) < 2 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "details": []gin.H{{"field": "name", "rule": "min", "param": "2"}}})
		return
	}
	ctx := c.Request.Context()

	admin, err := loadAdminSettings(ctx)
	if err != nil {
		serverError(c, "Registration failed", err)
		return
	}
	if admin.RegistrationEnabled != nil && !*admin.RegistrationEnabled {
		c.JSON(http.StatusForbidden, gin.H{"error": "Registration is disabled"})
		return
	}
	n, err := accounts.Count(ctx)
	if err != nil {
		serverError(c, "Registration failed", err)
		return
	}
	if n >= int64(admin.MaxUsers) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Maximum number of users reached"})
		return
	}

	user, err := accounts.Register(ctx, req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, account.ErrDuplicateEmail) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "User with this email already exists"})
			return
		}
		serverError(c, "Registration failed", err)
		return
	}
	tok, err := tokens.Issue(user.ID, user.Email)
	if err != nil {
		serverError(c, "Registration failed", err)
		return
	}
	slog.Info("new user registered", "email", user.Email)
	audit(c, &user, "REGISTER", "User registered")
	c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully", "token": tok, "user": userResponse(&user)})
}

func loginHandler(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}
	user, err := accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, account.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
			return
		}
		serverError(c, "Login failed", err)
		return
	}
	tok, err := tokens.Issue(user.ID, user.Email)
	if err != nil {
		serverError(c, "Login failed", err)
		return
	}
	slog.Info("user logged in", "email", user.Email)
	audit(c, &user, "LOGIN", "User logged in successfully")
	c.JSON(http.StatusOK, gin.H{"message": "Login successful", "token": tok, "user": userResponse(&user)})
}

func getProfileHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"user": userResponse(currentUser(c))})
}

func updateProfileHandler(c *gin.Context) {
	var req profileRequest
	if !bindJSON(c, &req) {
		return
	}
	u := currentUser(c)
	updated, err := accounts.UpdateProfile(c.Request.Context(), u.ID, account.ProfileUpdate{
		Name:            req.Name,
		Email:           req.Email,
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	})
	switch {
	case err == nil:
	case errors.Is(err, account.ErrEmailTaken):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email is already taken"})
		return
	case errors.Is(err, account.ErrCurrentPasswordRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Current password is required to change password"})
		return
	case errors.Is(err, account.ErrInvalidCredentials):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Current password is incorrect"})
		return
	case errors.Is(err, account.ErrNoChanges):
		c.JSON(http.StatusBadRequest, gin.H{"error": "No changes to update"})
		return
	case errors.Is(err, account.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	default:
		serverError(c, "Failed to update profile", err)
		return
	}
	slog.Info("profile updated", "user_id", u.ID)
	audit(c, &updated, "PROFILE_UPDATE", "Profile updated")
	c.JSON(http.StatusOK, gin.H{"message": "Profile updated successfully", "user": userResponse(&updated)})
}

func changePasswordHandler(c *gin.Context) {
	var req changePasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	u := currentUser(c)
	err := accounts.ChangePassword(c.Request.Context(), u.ID, req.CurrentPassword, req.NewPassword)
	switch {
	case err == nil:
	case errors.Is(err, account.ErrInvalidCredentials):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Current password is incorrect"})
		return
	case errors.Is(err, account.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	default:
		serverError(c, "Failed to change password", err)
		return
	}
	slog.Info("password changed", "user_id", u.ID)
	audit(c, u, "PASSWORD_CHANGE", "Password changed")
	c.JSON(http.StatusOK, gin.H{"message": "Password changed successfully"})
}

// logoutHandler only records the event; tokens are stateless and the client
// discards its copy.
func logoutHandler(c *gin.Context) {
	u := currentUser(c)
	slog.Info("user logged out", "email", u.Email)
	audit(c, u, "LOGOUT", "User logged out")
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

func verifyHandler(c *gin.Context) {
	u := currentUser(c)
	c.JSON(http.StatusOK, gin.H{"valid": true, "user": gin.H{"id": u.ID, "email": u.Email, "name": u.Name}})
}
