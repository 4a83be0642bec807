package model

import (
	"time"
)

// 预置配置项的 key
const (
	SettingBTCWalletAddress    = "btc_wallet_address"
	SettingUSDTWalletAddress   = "usdt_wallet_address"
	SettingMinWithdrawalAmount = "min_withdrawal_amount"
	SettingDepositsEnabled     = "deposits_enabled"
	SettingInvestmentsEnabled  = "investments_enabled"
	SettingReinvestEnabled     = "reinvestments_enabled"
)

// AdminSetting 平台配置表（key/value）
// 存放收款钱包地址、功能开关、最低提现金额等
type AdminSetting struct {
	ID           string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	SettingKey   string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"setting_key"`
	SettingValue string    `gorm:"type:varchar(256);not null" json:"setting_value"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (AdminSetting) TableName() string {
	return "admin_settings"
}
