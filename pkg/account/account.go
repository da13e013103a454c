package account

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"acquittals/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultCost is the bcrypt cost used for new password hashes.
const DefaultCost = 12

// Store persists users and verifies their credentials.
type Store struct {
	DB   *gorm.DB
	Cost int
}

func NewStore(db *gorm.DB, cost int) *Store {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return &Store{DB: db, Cost: cost}
}

// ProfileUpdate carries the optional fields of a profile change. Empty strings
// mean "leave unchanged".
type ProfileUpdate struct {
	Name            string
	Email           string
	CurrentPassword string
	NewPassword     string
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a user with the regular user role.
func (s *Store) Register(ctx context.Context, name, email, password string) (models.User, error) {
	name = strings.TrimSpace(name)
	email = NormalizeEmail(email)

	// pre-check existing (optimistic)
	var existing models.User
	if err := s.DB.WithContext(ctx).Where("email = ?", email).First(&existing).Error; err == nil {
		return models.User{}, ErrDuplicateEmail
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.User{}, fmt.Errorf("lookup user: %w", err)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.Cost)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}
	role, err := s.ensureRole(ctx, models.RoleUser)
	if err != nil {
		return models.User{}, err
	}
	rid := role.ID
	user := models.User{Name: name, Email: email, HashedPassword: hashed, RoleID: &rid, Role: role}
	if err := s.DB.WithContext(ctx).Omit("Role").Create(&user).Error; err != nil {
		if IsUniqueConstraintError(err) { // race after the pre-check
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Login returns the user when email and password match.
func (s *Store) Login(ctx context.Context, email, password string) (models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).Preload("Role").Where("email = ?", NormalizeEmail(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, ErrInvalidCredentials
		}
		return models.User{}, fmt.Errorf("lookup user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword(user.HashedPassword, []byte(password)); err != nil {
		return models.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// Get loads a user and its role by id.
func (s *Store) Get(ctx context.Context, id uint) (models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).Preload("Role").First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("load user %d: %w", id, err)
	}
	return user, nil
}

// Count returns the number of registered users.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.DB.WithContext(ctx).Model(&models.User{}).Count(&n).Error
	return n, err
}

// UpdateProfile applies name, email and password changes in one transaction.
// A password change must be confirmed with the current password.
func (s *Store) UpdateProfile(ctx context.Context, id uint, upd ProfileUpdate) (models.User, error) {
	var out models.User
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Preload("Role").First(&user, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		changes := map[string]any{}

		if name := strings.TrimSpace(upd.Name); name != "" && name != user.Name {
			changes["name"] = name
			user.Name = name
		}
		if email := NormalizeEmail(upd.Email); email != "" && email != user.Email {
			var cnt int64
			if err := tx.Model(&models.User{}).Where("email = ? AND id <> ?", email, user.ID).Count(&cnt).Error; err != nil {
				return err
			}
			if cnt > 0 {
				return ErrEmailTaken
			}
			changes["email"] = email
			user.Email = email
		}
		if upd.NewPassword != "" {
			if upd.CurrentPassword == "" {
				return ErrCurrentPasswordRequired
			}
			if err := bcrypt.CompareHashAndPassword(user.HashedPassword, []byte(upd.CurrentPassword)); err != nil {
				return ErrInvalidCredentials
			}
			hashed, err := bcrypt.GenerateFromPassword([]byte(upd.NewPassword), s.Cost)
			if err != nil {
				return fmt.Errorf("hash password: %w", err)
			}
			changes["hashed_password"] = hashed
			user.HashedPassword = hashed
		}
		if len(changes) == 0 {
			return ErrNoChanges
		}
		if err := tx.Model(&models.User{}).Where("id = ?", user.ID).Updates(changes).Error; err != nil {
			if IsUniqueConstraintError(err) {
				return ErrEmailTaken
			}
			return err
		}
		out = user
		return nil
	})
	if err != nil {
		return models.User{}, err
	}
	return out, nil
}

// ChangePassword replaces the password after verifying the current one.
func (s *Store) ChangePassword(ctx context.Context, id uint, current, next string) error {
	user, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword(user.HashedPassword, []byte(current)); err != nil {
		return ErrInvalidCredentials
	}
	return s.SetPassword(ctx, id, next)
}

// SetPassword stores a new hash without checking the old password. Used by
// operator tools.
func (s *Store) SetPassword(ctx context.Context, id uint, password string) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.Cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	res := s.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("hashed_password", hashed)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetRole assigns the named role, creating it if missing.
func (s *Store) SetRole(ctx context.Context, id uint, roleName string) error {
	role, err := s.ensureRole(ctx, roleName)
	if err != nil {
		return err
	}
	return s.DB.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("role_id", role.ID).Error
}

// FindByEmail loads a user by email.
func (s *Store) FindByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).Preload("Role").Where("email = ?", NormalizeEmail(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, err
	}
	return user, nil
}

func (s *Store) ensureRole(ctx context.Context, name string) (models.Role, error) {
	role := models.Role{Name: name}
	for _, r := range models.DefaultRoles() {
		if r.Name == name {
			role = r
		}
	}
	if err := s.DB.WithContext(ctx).Where("name = ?", name).FirstOrCreate(&role).Error; err != nil {
		return models.Role{}, fmt.Errorf("ensure role %s: %w", name, err)
	}
	return role, nil
}

// IsUniqueConstraintError matches unique violations across the supported dialects.
func IsUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "duplicate key") || strings.Contains(s, "duplicate entry") ||
		strings.Contains(s, "unique constraint") || strings.Contains(s, "already exists")
}
