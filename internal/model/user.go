package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

const (
	CurrencyBTC  = "BTC"
	CurrencyUSDT = "USDT"
)

// ValidCurrency 校验币种是否支持
func ValidCurrency(currency string) bool {
	return currency == CurrencyBTC || currency == CurrencyUSDT
}

// User 用户表
// 余额是缓存值，流水表才是资金的最终依据
// 余额的任何变动都必须经过 ledger.Apply，禁止直接赋值
type User struct {
	ID           string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	Email        string          `gorm:"type:varchar(128);uniqueIndex;not null" json:"email"`
	PasswordHash string          `gorm:"type:varchar(128);not null" json:"-"`
	Name         string          `gorm:"type:varchar(64);not null" json:"name"`
	BTCWallet    string          `gorm:"type:varchar(128)" json:"btc_wallet"`
	USDTWallet   string          `gorm:"type:varchar(128)" json:"usdt_wallet"`
	Role         string          `gorm:"type:varchar(16);not null;default:user" json:"role"`
	Balance      decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"balance"`
	Version      int             `gorm:"not null;default:0" json:"-"` // 乐观锁版本号
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
