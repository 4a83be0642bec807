package database

import (
	"fmt"
	"log"
	"time"

	"investpro/internal/config"
	"investpro/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// InitMySQL 初始化 MySQL 连接
func InitMySQL(cfg *config.MySQLConfig) *gorm.DB {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.Database,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})
	if err != nil {
		log.Fatalf("连接 MySQL 失败: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("获取底层 DB 失败: %v", err)
	}

	// 连接池配置
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := Migrate(db); err != nil {
		log.Fatalf("自动迁移表结构失败: %v", err)
	}

	if err := Seed(db); err != nil {
		log.Fatalf("初始化种子数据失败: %v", err)
	}

	DB = db
	log.Println("MySQL 连接成功")
	return db
}

// Migrate 自动迁移表结构
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.InvestmentPlan{},
		&model.Investment{},
		&model.DepositRequest{},
		&model.WithdrawalRequest{},
		&model.Transaction{},
		&model.AdminSetting{},
		&model.OutboxMessage{},
	)
}

// Seed 写入缺省的投资计划和平台配置（仅在空表时执行）
func Seed(db *gorm.DB) error {
	var planCount int64
	if err := db.Model(&model.InvestmentPlan{}).Count(&planCount).Error; err != nil {
		return err
	}
	if planCount == 0 {
		maxOf := func(v string) *decimal.Decimal {
			d := decimal.RequireFromString(v)
			return &d
		}
		plans := []*model.InvestmentPlan{
			{ID: "starter", Name: "Starter Plan", MinAmount: decimal.NewFromInt(100), MaxAmount: maxOf("1000"), RoiPercent: decimal.NewFromInt(5), DurationHours: 24, IsActive: true},
			{ID: "growth", Name: "Growth Plan", MinAmount: decimal.NewFromInt(1000), MaxAmount: maxOf("5000"), RoiPercent: decimal.RequireFromString("7.5"), DurationHours: 48, IsActive: true},
			{ID: "premium", Name: "Premium Plan", MinAmount: decimal.NewFromInt(5000), MaxAmount: maxOf("20000"), RoiPercent: decimal.NewFromInt(10), DurationHours: 72, IsActive: true},
			{ID: "elite", Name: "Elite Plan", MinAmount: decimal.NewFromInt(20000), MaxAmount: nil, RoiPercent: decimal.NewFromInt(15), DurationHours: 120, IsActive: true},
		}
		if err := db.Create(&plans).Error; err != nil {
			return err
		}
	}

	var settingCount int64
	if err := db.Model(&model.AdminSetting{}).Count(&settingCount).Error; err != nil {
		return err
	}
	if settingCount == 0 {
		settings := []*model.AdminSetting{
			{ID: uuid.NewString(), SettingKey: model.SettingBTCWalletAddress, SettingValue: "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa"},
			{ID: uuid.NewString(), SettingKey: model.SettingUSDTWalletAddress, SettingValue: "TYJUrp7L3K5YKEf9e7C3qsP4h1A9vXWz7R"},
			{ID: uuid.NewString(), SettingKey: model.SettingMinWithdrawalAmount, SettingValue: "10.00"},
			{ID: uuid.NewString(), SettingKey: model.SettingDepositsEnabled, SettingValue: "true"},
			{ID: uuid.NewString(), SettingKey: model.SettingInvestmentsEnabled, SettingValue: "true"},
			{ID: uuid.NewString(), SettingKey: model.SettingReinvestEnabled, SettingValue: "true"},
		}
		if err := db.Create(&settings).Error; err != nil {
			return err
		}
	}

	return nil
}
