package repository

import (
	"context"
	"errors"
	"time"

	"investpro/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var (
	ErrInvestmentNotFound      = errors.New("投资记录不存在")
	ErrInvestmentStatusInvalid = errors.New("投资状态不合法")
)

type InvestmentRepository struct {
	db *gorm.DB
}

func NewInvestmentRepository(db *gorm.DB) *InvestmentRepository {
	return &InvestmentRepository{db: db}
}

func (r *InvestmentRepository) Create(ctx context.Context, tx *gorm.DB, investment *model.Investment) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(investment).Error
}

func (r *InvestmentRepository) GetByID(ctx context.Context, id string) (*model.Investment, error) {
	var investment model.Investment
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&investment).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvestmentNotFound
		}
		return nil, err
	}
	return &investment, nil
}

// UpdateStatus 条件更新投资状态
// WHERE 带上旧状态，RowsAffected == 0 说明状态已被并发改走，拒绝本次流转
func (r *InvestmentRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, id string, fromStatus, toStatus string) error {
	if !model.InvestmentCanTransitionTo(fromStatus, toStatus) {
		return ErrInvestmentStatusInvalid
	}

	if tx == nil {
		tx = r.db
	}

	result := tx.WithContext(ctx).
		Model(&model.Investment{}).
		Where("id = ? AND status = ?", id, fromStatus).
		Update("status", toStatus)

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrInvestmentStatusInvalid
	}

	return nil
}

// GetMatured 查询已到期但仍为 active 的投资（到期清算任务用）
func (r *InvestmentRepository) GetMatured(ctx context.Context, now time.Time, limit int) ([]*model.Investment, error) {
	var investments []*model.Investment
	err := r.db.WithContext(ctx).
		Where("status = ? AND end_date <= ?", model.InvestmentStatusActive, now).
		Order("end_date ASC").
		Limit(limit).
		Find(&investments).Error
	return investments, err
}

func (r *InvestmentRepository) ListByUserID(ctx context.Context, userID string) ([]*model.Investment, error) {
	var investments []*model.Investment
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&investments).Error
	return investments, err
}

// AdminInvestment 投资记录（带用户信息，管理端列表用）
type AdminInvestment struct {
	model.Investment
	UserName  string `json:"user_name"`
	UserEmail string `json:"user_email"`
}

func (r *InvestmentRepository) ListAllWithUser(ctx context.Context, limit int) ([]*AdminInvestment, error) {
	var investments []*AdminInvestment
	err := r.db.WithContext(ctx).
		Model(&model.Investment{}).
		Select("investments.*, users.name as user_name, users.email as user_email").
		Joins("JOIN users ON investments.user_id = users.id").
		Order("investments.created_at DESC").
		Limit(limit).
		Scan(&investments).Error
	return investments, err
}

func (r *InvestmentRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Investment{}).
		Where("status = ?", status).
		Count(&count).Error
	return count, err
}

// SumAmount 全平台投资总额
func (r *InvestmentRepository) SumAmount(ctx context.Context) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	err := r.db.WithContext(ctx).
		Model(&model.Investment{}).
		Select("COALESCE(SUM(amount), 0) as total").
		Scan(&result).Error
	return result.Total, err
}

// UserInvestmentSummary 按用户汇总投资（管理端统计用）
type UserInvestmentSummary struct {
	UserID          string          `json:"user_id"`
	TotalInvested   decimal.Decimal `json:"total_invested"`
	InvestmentCount int64           `json:"investment_count"`
}

func (r *InvestmentRepository) SummarizeByUser(ctx context.Context) ([]*UserInvestmentSummary, error) {
	var summaries []*UserInvestmentSummary
	err := r.db.WithContext(ctx).
		Model(&model.Investment{}).
		Select("user_id, COALESCE(SUM(amount), 0) as total_invested, COUNT(id) as investment_count").
		Group("user_id").
		Order("total_invested DESC").
		Scan(&summaries).Error
	return summaries, err
}
