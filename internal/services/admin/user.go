package admin

import (
	"errors"
	"fmt"

	"github.com/mantadrive/mantadrive/internal/models"
	"github.com/mantadrive/mantadrive/internal/pkg/logger"
	"github.com/mantadrive/mantadrive/internal/pkg/xerr"
	"github.com/mantadrive/mantadrive/internal/repositories"
	"go.uber.org/zap"
)

type UserService interface {
	GetUserProfile(userID uint64) (*models.User, error)
}

type userService struct {
	userRepo repositories.UserRepository
}

var _ UserService = (*userService)(nil)

func NewUserService(userRepo repositories.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) GetUserProfile(userID uint64) (*models.User, error) {
	user, err := s.userRepo.GetUserByID(userID)
	if err != nil {
		if errors.Is(err, xerr.ErrUserNotFound) {
			logger.Warn("GetUserProfile: User not found", zap.Uint64("userID", userID))
			return nil, err
		}
		logger.Error("GetUserProfile: Error retrieving user from DB",
			zap.Uint64("userID", userID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to retrieve user profile: %w", err)
	}

	logger.Debug("GetUserProfile: User profile retrieved successfully", zap.Uint64("userID", userID))
	return user, nil
}
