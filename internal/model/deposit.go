package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	DepositStatusPending   = "pending"
	DepositStatusConfirmed = "confirmed"
	DepositStatusRejected  = "rejected"
)

var validDepositTransitions = map[string][]string{
	DepositStatusPending: {DepositStatusConfirmed, DepositStatusRejected},
}

// DepositCanTransitionTo 校验充值申请状态流转是否合法
func DepositCanTransitionTo(currentStatus, targetStatus string) bool {
	allowed, exists := validDepositTransitions[currentStatus]
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

// DepositRequest 充值申请表
// 用户提交申请后由管理员人工审核，确认时才通过账本入账
type DepositRequest struct {
	ID            string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	DepositNo     string          `gorm:"type:varchar(64);uniqueIndex;not null" json:"deposit_no"`
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

func (DepositRequest) TableName() string {
	return "deposit_requests"
}
