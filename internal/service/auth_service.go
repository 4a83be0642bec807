package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"investpro/internal/config"
	"investpro/internal/infrastructure/auth"
	"investpro/internal/model"
	"investpro/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var ErrInvalidCredentials = errors.New("邮箱或密码错误")

type AuthService struct {
	userRepo   *repository.UserRepository
	jwtService *auth.JWTService
	db         *gorm.DB
}

func NewAuthService(db *gorm.DB, cfg *config.Config) *AuthService {
	return &AuthService{
		userRepo:   repository.NewUserRepository(db),
		jwtService: auth.NewJWTService(cfg.JWT),
		db:         db,
	}
}

type SignupRequest struct {
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required,min=6"`
	Name       string `json:"name" binding:"required"`
	BTCWallet  string `json:"btc_wallet"`
	USDTWallet string `json:"usdt_wallet"`
}

type SigninRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      *model.User `json:"user"`
}

// Signup 注册新用户
// 密码只存 bcrypt 哈希，明文不落库也不打日志
func (s *AuthService) Signup(ctx context.Context, req *SignupRequest) (*AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	_, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil {
		return nil, repository.ErrEmailExists
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("查询用户失败: %w", err)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("密码哈希失败: %w", err)
	}

	user := &model.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(passwordHash),
		Name:         req.Name,
		BTCWallet:    req.BTCWallet,
		USDTWallet:   req.USDTWallet,
		Role:         model.RoleUser,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("创建用户失败: %w", err)
	}

	token, expiresAt, err := s.jwtService.GenerateToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("签发 token 失败: %w", err)
	}

	log.Printf("[AuthService] 用户注册成功: userID=%s", user.ID)

	return &AuthResponse{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// Signin 登录
// 用户不存在和密码错误返回同一个错误，不向外暴露账号是否存在
func (s *AuthService) Signin(ctx context.Context, req *SigninRequest) (*AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("查询用户失败: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.jwtService.GenerateToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("签发 token 失败: %w", err)
	}

	log.Printf("[AuthService] 用户登录成功: userID=%s", user.ID)

	return &AuthResponse{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// ResolveToken 校验 token 并加载对应用户（认证中间件用）
func (s *AuthService) ResolveToken(ctx context.Context, tokenString string) (*model.User, error) {
	claims, err := s.jwtService.ParseToken(tokenString)
	if err != nil {
		return nil, err
	}
	return s.userRepo.GetByID(ctx, claims.UserID)
}
