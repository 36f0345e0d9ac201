package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"NovaTalkAPI/internal/config"
	"NovaTalkAPI/internal/entity"
	"NovaTalkAPI/internal/helper"
	"NovaTalkAPI/internal/model"
)

// AuthService resolves bearer tokens to authenticated users.
type AuthService struct {
	db     *gorm.DB
	config *config.AppConfig
}

func NewAuthService(db *gorm.DB, cfg *config.AppConfig) *AuthService {
	return &AuthService{
		db:     db,
		config: cfg,
	}
}

// VerifyUser validates the token, loads the account, and bumps
// last_seen as a liveness hint.
func (s *AuthService) VerifyUser(ctx context.Context, token string) (*model.UserDTO, error) {
	claims, err := helper.ParseJWT(s.config.JWTSecret, token)
	if err != nil {
		return nil, err
	}

	var user entity.User
	if err := s.db.WithContext(ctx).First(&user, claims.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, helper.NewUnauthorizedError("")
		}
		slog.Error("Failed to load user for token", "error", err, "userID", claims.UserID)
		return nil, helper.NewInternalServerError("")
	}

	err = s.db.WithContext(ctx).Model(&entity.User{}).
		Where("id = ?", user.ID).
		Update("last_seen", time.Now().UTC()).Error
	if err != nil {
		slog.Error("Failed to update last seen", "error", err, "userID", user.ID)
	}

	return &model.UserDTO{
		ID:          user.ID,
		Username:    user.Username,
		Email:       user.Email,
		DisplayName: user.DisplayName,
	}, nil
}
