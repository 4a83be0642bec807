package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	InvestmentStatusActive    = "active"
	InvestmentStatusCompleted = "completed"
	InvestmentStatusCancelled = "cancelled"
)

var validInvestmentTransitions = map[string][]string{
	InvestmentStatusActive: {InvestmentStatusCompleted, InvestmentStatusCancelled},
}

// InvestmentCanTransitionTo 校验投资状态流转是否合法
// completed 和 cancelled 为终态，不允许再流转
func InvestmentCanTransitionTo(currentStatus, targetStatus string) bool {
	allowed, exists := validInvestmentTransitions[currentStatus]
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

// Investment 投资记录表
// 计划的名称、收益率、期限在创建时快照到本表，
// 后续计划调整不影响已存在的投资
type Investment struct {
	ID             string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	InvestmentNo   string          `gorm:"type:varchar(64);uniqueIndex;not null" json:"investment_no"`
	UserID         string          `gorm:"type:varchar(36);index;not null" json:"user_id"`
	PlanID         string          `gorm:"type:varchar(36);index;not null" json:"plan_id"`
	PlanName       string          `gorm:"type:varchar(64);not null" json:"plan_name"`
	RoiPercent     decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"roi_percent"`
	DurationHours  int             `gorm:"not null" json:"duration_hours"`
	Amount         decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`
	RoiAmount      decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"roi_amount"`
	StartDate      time.Time       `gorm:"not null" json:"start_date"`
	EndDate        time.Time       `gorm:"index;not null" json:"end_date"`
	Status         string          `gorm:"type:varchar(20);index;not null;default:active" json:"status"`
	IsReinvestment bool            `gorm:"not null;default:false" json:"is_reinvestment"`
	CreatedAt      time.Time       `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Investment) TableName() string {
	return "investments"
}
