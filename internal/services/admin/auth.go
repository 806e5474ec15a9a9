package admin

import (
	"context"
	"errors"
	"fmt"

	"github.com/mantadrive/mantadrive/internal/config"
	"github.com/mantadrive/mantadrive/internal/models"
	"github.com/mantadrive/mantadrive/internal/pkg/logger"
	"github.com/mantadrive/mantadrive/internal/pkg/storage"
	"github.com/mantadrive/mantadrive/internal/pkg/utils"
	"github.com/mantadrive/mantadrive/internal/pkg/xerr"
	"github.com/mantadrive/mantadrive/internal/repositories"
	"github.com/mantadrive/mantadrive/internal/services/explorer"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RegisterInput 注册参数
type RegisterInput struct {
	Username  string
	Password  string
	Email     string
	FirstName string
	LastName  string
}

type AuthService interface {
	RegisterUser(ctx context.Context, in RegisterInput) (*models.User, error)
	LoginUser(identifier, password string) (string, error)
}

type authService struct {
	userRepo repositories.UserRepository
	storage  storage.StorageService
	cfg      *config.Config
}

// 确保authService实现了AuthService的方法
var _ AuthService = (*authService)(nil)

func NewAuthService(userRepo repositories.UserRepository, storageService storage.StorageService, cfg *config.Config) AuthService {
	return &authService{
		userRepo: userRepo,
		storage:  storageService,
		cfg:      cfg,
	}
}

func (s *authService) RegisterUser(ctx context.Context, in RegisterInput) (*models.User, error) {
	//检查用户名是否存在
	_, err := s.userRepo.GetUserByUsername(in.Username)
	if err == nil {
		return nil, xerr.ErrUserAlreadyExists
	}
	if !errors.Is(err, xerr.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check username existence: %w", err)
	}

	//检查邮箱是否存在
	_, err = s.userRepo.GetUserByEmail(in.Email)
	if err == nil {
		return nil, xerr.ErrEmailAlreadyExists
	}
	if !errors.Is(err, xerr.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check email existence: %w", err)
	}

	//哈希密码
	hashedPassword, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     in.Username,
		PasswordHash: hashedPassword,
		Email:        in.Email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Status:       1,
	}
	if err := s.userRepo.CreateUser(user); err != nil {
		// 并发注册时由唯一索引兜底
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, xerr.ErrUserAlreadyExists
		}
		return nil, fmt.Errorf("failed to create user in database: %w", err)
	}

	// 目录创建失败不影响注册, 上传时对象存储会自动补齐前缀
	if s.storage != nil {
		if err := explorer.ProvisionUserFolders(ctx, s.storage, user.ID); err != nil {
			logger.Warn("RegisterUser: 创建用户目录失败", zap.Uint64("userID", user.ID), zap.Error(err))
		}
	}

	logger.Info("RegisterUser: User registered successfully", zap.Uint64("userID", user.ID), zap.String("username", user.Username))
	return user, nil
}

func (s *authService) LoginUser(identifier, password string) (string, error) {
	// 先按用户名查找, 再按邮箱查找
	user, err := s.userRepo.GetUserByUsername(identifier)
	if errors.Is(err, xerr.ErrUserNotFound) {
		user, err = s.userRepo.GetUserByEmail(identifier)
	}
	if err != nil {
		if errors.Is(err, xerr.ErrUserNotFound) {
			// 不区分用户不存在和密码错误
			return "", xerr.ErrInvalidCredentials
		}
		return "", fmt.Errorf("failed to get user: %w", err)
	}

	//验证密码
	if !utils.CheckPasswordHash(password, user.PasswordHash) {
		logger.Warn("LoginUser: 密码错误", zap.Uint64("userID", user.ID))
		return "", xerr.ErrInvalidCredentials
	}

	//生成JWT Token
	tokenString, err := utils.GenerateToken(
		user.ID,
		user.Username,
		user.Email,
		s.cfg.JWT.SecretKey,
		s.cfg.JWT.Issuer,
		s.cfg.JWT.ExpiresIn,
	)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	return tokenString, nil
}
