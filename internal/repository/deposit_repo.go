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
	ErrDepositNotFound      = errors.New("充值申请不存在")
	ErrDepositStatusInvalid = errors.New("充值申请状态不合法")
)

type DepositRepository struct {
	db *gorm.DB
}

func NewDepositRepository(db *gorm.DB) *DepositRepository {
	return &DepositRepository{db: db}
}

func (r *DepositRepository) Create(ctx context.Context, tx *gorm.DB, deposit *model.DepositRequest) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(deposit).Error
}

func (r *DepositRepository) GetByID(ctx context.Context, id string) (*model.DepositRequest, error) {
	var deposit model.DepositRequest
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&deposit).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDepositNotFound
		}
		return nil, err
	}
	return &deposit, nil
}

// UpdateStatus 条件更新申请状态，终态不允许再流转
// reviewedBy 记录审核人，审核时间取当前时间
func (r *DepositRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, id string, fromStatus, toStatus, reviewedBy string) error {
	if !model.DepositCanTransitionTo(fromStatus, toStatus) {
		return ErrDepositStatusInvalid
	}

	if tx == nil {
		tx = r.db
	}

	now := time.Now()
	result := tx.WithContext(ctx).
		Model(&model.DepositRequest{}).
		Where("id = ? AND status = ?", id, fromStatus).
		Updates(map[string]interface{}{
			"status":      toStatus,
			"reviewed_by": reviewedBy,
			"reviewed_at": &now,
		})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return ErrDepositStatusInvalid
	}

	return nil
}

func (r *DepositRepository) ListByUserID(ctx context.Context, userID string) ([]*model.DepositRequest, error) {
	var deposits []*model.DepositRequest
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&deposits).Error
	return deposits, err
}

// PendingDeposit 待审核充值（带用户信息，管理端列表用）
type PendingDeposit struct {
	model.DepositRequest
	UserName  string `json:"user_name"`
	UserEmail string `json:"user_email"`
}

func (r *DepositRepository) ListPending(ctx context.Context) ([]*PendingDeposit, error) {
	var deposits []*PendingDeposit
	err := r.db.WithContext(ctx).
		Model(&model.DepositRequest{}).
		Select("deposit_requests.*, users.name as user_name, users.email as user_email").
		Joins("JOIN users ON deposit_requests.user_id = users.id").
		Where("deposit_requests.status = ?", model.DepositStatusPending).
		Order("deposit_requests.created_at DESC").
		Scan(&deposits).Error
	return deposits, err
}

// PendingStats 待审核充值的笔数与总金额
func (r *DepositRepository) PendingStats(ctx context.Context) (int64, decimal.Decimal, error) {
	var result struct {
		Count int64
		Total decimal.Decimal
	}
	err := r.db.WithContext(ctx).
		Model(&model.DepositRequest{}).
		Select("COUNT(id) as count, COALESCE(SUM(amount), 0) as total").
		Where("status = ?", model.DepositStatusPending).
		Scan(&result).Error
	return result.Count, result.Total, err
}
