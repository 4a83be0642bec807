package service

import (
	"context"
	"fmt"

	"investpro/internal/model"
	"investpro/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type AdminService struct {
	userRepo       *repository.UserRepository
	investmentRepo *repository.InvestmentRepository
	depositRepo    *repository.DepositRepository
	settingRepo    *repository.SettingRepository
}

func NewAdminService(db *gorm.DB) *AdminService {
	return &AdminService{
		userRepo:       repository.NewUserRepository(db),
		investmentRepo: repository.NewInvestmentRepository(db),
		depositRepo:    repository.NewDepositRepository(db),
		settingRepo:    repository.NewSettingRepository(db),
	}
}

func (s *AdminService) ListUsers(ctx context.Context) ([]*model.User, error) {
	return s.userRepo.ListAll(ctx)
}

func (s *AdminService) ListInvestments(ctx context.Context, limit int) ([]*repository.AdminInvestment, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.investmentRepo.ListAllWithUser(ctx, limit)
}

// PlatformStats 平台总览统计
type PlatformStats struct {
	TotalUsers            int64                               `json:"total_users"`
	PendingDeposits       int64                               `json:"pending_deposits"`
	PendingDepositsAmount decimal.Decimal                     `json:"pending_deposits_amount"`
	ActiveInvestments     int64                               `json:"active_investments"`
	TotalVolume           decimal.Decimal                     `json:"total_volume"`
	UserInvestments       []*repository.UserInvestmentSummary `json:"user_investments"`
}

func (s *AdminService) GetStats(ctx context.Context) (*PlatformStats, error) {
	totalUsers, err := s.userRepo.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("统计用户数失败: %w", err)
	}

	pendingCount, pendingAmount, err := s.depositRepo.PendingStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("统计待审核充值失败: %w", err)
	}

	activeInvestments, err := s.investmentRepo.CountByStatus(ctx, model.InvestmentStatusActive)
	if err != nil {
		return nil, fmt.Errorf("统计进行中投资失败: %w", err)
	}

	totalVolume, err := s.investmentRepo.SumAmount(ctx)
	if err != nil {
		return nil, fmt.Errorf("统计投资总额失败: %w", err)
	}

	userInvestments, err := s.investmentRepo.SummarizeByUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("统计用户投资失败: %w", err)
	}

	return &PlatformStats{
		TotalUsers:            totalUsers,
		PendingDeposits:       pendingCount,
		PendingDepositsAmount: pendingAmount,
		ActiveInvestments:     activeInvestments,
		TotalVolume:           totalVolume,
		UserInvestments:       userInvestments,
	}, nil
}

func (s *AdminService) GetSettings(ctx context.Context) (map[string]string, error) {
	return s.settingRepo.GetAll(ctx)
}

func (s *AdminService) UpdateSettings(ctx context.Context, settings map[string]string) error {
	for key, value := range settings {
		if err := s.settingRepo.Upsert(ctx, key, value); err != nil {
			return fmt.Errorf("更新配置 %s 失败: %w", key, err)
		}
	}
	return nil
}

// UpdatePlatformStatus 功能开关（充值/投资/复投）
func (s *AdminService) UpdatePlatformStatus(ctx context.Context, depositsEnabled, investmentsEnabled, reinvestmentsEnabled *bool) error {
	toggles := map[string]*bool{
		model.SettingDepositsEnabled:    depositsEnabled,
		model.SettingInvestmentsEnabled: investmentsEnabled,
		model.SettingReinvestEnabled:    reinvestmentsEnabled,
	}
	for key, value := range toggles {
		if value == nil {
			continue
		}
		strValue := "false"
		if *value {
			strValue = "true"
		}
		if err := s.settingRepo.Upsert(ctx, key, strValue); err != nil {
			return fmt.Errorf("更新开关 %s 失败: %w", key, err)
		}
	}
	return nil
}

// UpdateWalletAddresses 更新平台收款钱包地址
func (s *AdminService) UpdateWalletAddresses(ctx context.Context, btcAddress, usdtAddress string) error {
	if btcAddress != "" {
		if err := s.settingRepo.Upsert(ctx, model.SettingBTCWalletAddress, btcAddress); err != nil {
			return fmt.Errorf("更新 BTC 收款地址失败: %w", err)
		}
	}
	if usdtAddress != "" {
		if err := s.settingRepo.Upsert(ctx, model.SettingUSDTWalletAddress, usdtAddress); err != nil {
			return fmt.Errorf("更新 USDT 收款地址失败: %w", err)
		}
	}
	return nil
}
