package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvestmentPlan 投资计划表
// 一旦有投资引用某个计划，该计划不再原地修改：
// 管理端的编辑操作会停用旧行并插入新行，保证历史投资的条款不被追溯改动
type InvestmentPlan struct {
	ID            string           `gorm:"type:varchar(36);primaryKey" json:"id"`
	Name          string           `gorm:"type:varchar(64);not null" json:"name"`
	MinAmount     decimal.Decimal  `gorm:"type:decimal(15,2);not null" json:"min_amount"`
	MaxAmount     *decimal.Decimal `gorm:"type:decimal(15,2)" json:"max_amount"` // 为空表示不设上限
	RoiPercent    decimal.Decimal  `gorm:"type:decimal(5,2);not null" json:"roi_percent"`
	DurationHours int              `gorm:"not null" json:"duration_hours"`
	IsActive      bool             `gorm:"not null;default:true" json:"is_active"`
	CreatedAt     time.Time        `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time        `gorm:"autoUpdateTime" json:"updated_at"`
}

func (InvestmentPlan) TableName() string {
	return "investment_plans"
}

// AmountInRange 校验投资金额是否落在计划允许的区间内
func (p *InvestmentPlan) AmountInRange(amount decimal.Decimal) bool {
	if amount.LessThan(p.MinAmount) {
		return false
	}
	if p.MaxAmount != nil && amount.GreaterThan(*p.MaxAmount) {
		return false
	}
	return true
}
