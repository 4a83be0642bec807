package repository

import (
	"context"
	"errors"
	"time"

	"investpro/internal/model"

	"gorm.io/gorm"
)

var (
	ErrWithdrawalNotFound      = errors.New("提现申请不存在")
	ErrWithdrawalStatusInvalid = errors.New("提现申请状态不合法")
)

type WithdrawalRepository struct {
	db *gorm.DB
}

func NewWithdrawalRepository(db *gorm.DB) *WithdrawalRepository {
	return &WithdrawalRepository{db: db}
}

func (r *WithdrawalRepository) Create(ctx context.Context, tx *gorm.DB, withdrawal *model.WithdrawalRequest) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(withdrawal).Error
}

func (r *WithdrawalRepository) GetByID(ctx context.Context, id string) (*model.WithdrawalRequest, error) {
	var withdrawal model.WithdrawalRequest
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&withdrawal).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWithdrawalNotFound
		}
		return nil, err
	}
	return &withdrawal, nil
}

func (r *WithdrawalRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, id string, fromStatus, toStatus, reviewedBy string) error {
	if !model.WithdrawalCanTransitionTo(fromStatus, toStatus) {
		return ErrWithdrawalStatusInvalid
	}

	if tx == nil {
		tx = r.db
	}

	now := time.Now()
	result := tx.WithContext(ctx).
		Model(&model.WithdrawalRequest{}).
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
		return ErrWithdrawalStatusInvalid
	}

	return nil
}

func (r *WithdrawalRepository) ListByUserID(ctx context.Context, userID string) ([]*model.WithdrawalRequest, error) {
	var withdrawals []*model.WithdrawalRequest
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&withdrawals).Error
	return withdrawals, err
}

// PendingWithdrawal 待审核提现（带用户信息）
type PendingWithdrawal struct {
	model.WithdrawalRequest
	UserName  string `json:"user_name"`
	UserEmail string `json:"user_email"`
}

func (r *WithdrawalRepository) ListPending(ctx context.Context) ([]*PendingWithdrawal, error) {
	var withdrawals []*PendingWithdrawal
	err := r.db.WithContext(ctx).
		Model(&model.WithdrawalRequest{}).
		Select("withdrawal_requests.*, users.name as user_name, users.email as user_email").
		Joins("JOIN users ON withdrawal_requests.user_id = users.id").
		Where("withdrawal_requests.status = ?", model.WithdrawalStatusPending).
		Order("withdrawal_requests.created_at DESC").
		Scan(&withdrawals).Error
	return withdrawals, err
}
