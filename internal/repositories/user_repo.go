package repositories

import (
	"errors"
	"fmt"

	"github.com/mantadrive/mantadrive/internal/models"
	"github.com/mantadrive/mantadrive/internal/pkg/logger"
	"github.com/mantadrive/mantadrive/internal/pkg/xerr"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type UserRepository interface {
	CreateUser(user *models.User) error
	GetUserByUsername(username string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id uint64) (*models.User, error)
	UpdateUser(user *models.User) error
}

type userRepository struct {
	db *gorm.DB
}

var _ UserRepository = (*userRepository)(nil)

// NewUserRepository 创建一个新的 UserRepository 实例
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) CreateUser(user *models.User) error {
	if err := r.db.Create(user).Error; err != nil {
		logger.Error("Error creating user", zap.String("username", user.Username), zap.Error(err))
		return fmt.Errorf("创建用户失败: %w", err)
	}
	return nil
}

func (r *userRepository) GetUserByUsername(username string) (*models.User, error) {
	return r.first("username = ?", username)
}

func (r *userRepository) GetUserByEmail(email string) (*models.User, error) {
	return r.first("email = ?", email)
}

func (r *userRepository) GetUserByID(id uint64) (*models.User, error) {
	return r.first("id = ?", id)
}

// 用户不存在时返回 xerr.ErrUserNotFound
func (r *userRepository) first(query string, arg any) (*models.User, error) {
	var user models.User
	err := r.db.Where(query, arg).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, xerr.ErrUserNotFound
		}
		logger.Error("Error getting user", zap.String("query", query), zap.Error(err))
		return nil, fmt.Errorf("查询用户失败: %w", err)
	}
	return &user, nil
}

func (r *userRepository) UpdateUser(user *models.User) error {
	if err := r.db.Save(user).Error; err != nil {
		logger.Error("Error updating user", zap.Uint64("userID", user.ID), zap.Error(err))
		return fmt.Errorf("更新用户失败: %w", err)
	}
	return nil
}
