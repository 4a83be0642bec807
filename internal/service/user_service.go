package service

import (
	"context"

	"investpro/internal/model"
	"investpro/internal/repository"

	"gorm.io/gorm"
)

type UserService struct {
	userRepo        *repository.UserRepository
	transactionRepo *repository.TransactionRepository
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{
		userRepo:        repository.NewUserRepository(db),
		transactionRepo: repository.NewTransactionRepository(db),
	}
}

func (s *UserService) GetProfile(ctx context.Context, userID string) (*model.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

type UpdateProfileRequest struct {
	Name       string `json:"name" binding:"required"`
	BTCWallet  string `json:"btc_wallet"`
	USDTWallet string `json:"usdt_wallet"`
}

func (s *UserService) UpdateProfile(ctx context.Context, userID string, req *UpdateProfileRequest) (*model.User, error) {
	if err := s.userRepo.UpdateProfile(ctx, userID, req.Name, req.BTCWallet, req.USDTWallet); err != nil {
		return nil, err
	}
	return s.userRepo.GetByID(ctx, userID)
}

// ListTransactions 用户流水，最近 limit 条
func (s *UserService) ListTransactions(ctx context.Context, userID string, limit int) ([]*model.Transaction, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.transactionRepo.ListByUserID(ctx, userID, limit)
}
