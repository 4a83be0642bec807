package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================================
// 交易类型常量
// ============================================================================

const (
	TransactionTypeDeposit      = "deposit"      // 充值入账
	TransactionTypeInvestment   = "investment"   // 投资扣款
	TransactionTypeRoiReturn    = "roi_return"   // 到期回款（本金+收益）
	TransactionTypeReinvestment = "reinvestment" // 复投扣款
	TransactionTypeWithdrawal   = "withdrawal"   // 提现扣款
)

// IsCreditType 入账类型不受余额校验约束（只加不减）
func IsCreditType(transactionType string) bool {
	return transactionType == TransactionTypeDeposit || transactionType == TransactionTypeRoiReturn
}

// ============================================================================
// 账户流水实体
// ============================================================================

// Transaction 账户流水表
// 记录账户的每一笔资金变动，是对账的核心依据
//
// 【重要】流水表设计原则：
// 1. 只追加，不修改，不删除 —— 保证审计可追溯
// 2. 每笔流水携带幂等键（全局唯一索引）—— 同一业务动作至多入账一次
// 3. 记录交易前后余额 —— 便于校验余额一致性
// 4. 任意时刻，SUM(amount) 必须等于账户余额
type Transaction struct {
	ID             string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	TransactionNo  string          `gorm:"type:varchar(64);uniqueIndex;not null" json:"transaction_no"`
	UserID         string          `gorm:"type:varchar(36);index;not null" json:"user_id"`
	Type           string          `gorm:"type:varchar(20);not null" json:"type"`
	Amount         decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"` // 正数入账，负数出账
	BalanceBefore  decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"balance_before"`
	BalanceAfter   decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"balance_after"`
	Description    string          `gorm:"type:varchar(256);not null" json:"description"`
	IdempotencyKey string          `gorm:"type:varchar(64);uniqueIndex;not null" json:"-"`
	InvestmentID   string          `gorm:"type:varchar(36);index" json:"investment_id,omitempty"`
	DepositID      string          `gorm:"type:varchar(36);index" json:"deposit_id,omitempty"`
	WithdrawalID   string          `gorm:"type:varchar(36);index" json:"withdrawal_id,omitempty"`
	CreatedAt      time.Time       `gorm:"autoCreateTime;index" json:"created_at"`
}

func (Transaction) TableName() string {
	return "transactions"
}
