package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	WithdrawalStatusPending   = "pending"
	WithdrawalStatusApproved  = "approved"
	WithdrawalStatusCompleted = "completed"
	WithdrawalStatusRejected  = "rejected"
)

var validWithdrawalTransitions = map[string][]string{
	WithdrawalStatusPending:  {WithdrawalStatusApproved, WithdrawalStatusRejected},
	WithdrawalStatusApproved: {WithdrawalStatusCompleted},
}

// WithdrawalCanTransitionTo 校验提现申请状态流转是否合法
// 审批通过时扣款，completed 仅表示链上打款完成，不再有资金变动
func WithdrawalCanTransitionTo(currentStatus, targetStatus string) bool {
	allowed, exists := validWithdrawalTransitions[currentStatus]
	if !exists {
		return false
	}
	for _, s := range allowed {
		if s == targetStatus {
			return true
		}
	}
	return false
}

// WithdrawalRequest 提现申请表
type WithdrawalRequest struct {
	ID            string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	WithdrawalNo  string          `gorm:"type:varchar(64);uniqueIndex;not null" json:"withdrawal_no"`
	UserID        string          `gorm:"type:varchar(36);index;not null" json:"user_id"`
	Amount        decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	Currency      string          `gorm:"type:varchar(8);not null" json:"currency"`
	WalletAddress string          `gorm:"type:varchar(128);not null" json:"wallet_address"`
	Status        string          `gorm:"type:varchar(20);index;not null;default:pending" json:"status"`
	ReviewedBy    string          `gorm:"type:varchar(36)" json:"reviewed_by"`
	ReviewedAt    *time.Time      `json:"reviewed_at"`
	CreatedAt     time.Time       `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (WithdrawalRequest) TableName() string {
	return "withdrawal_requests"
}
