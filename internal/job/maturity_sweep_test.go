package job

import (
	"context"
	"fmt"
	"testing"
	"time"

	"investpro/internal/config"
	"investpro/internal/infrastructure/database"
	"investpro/internal/model"
	"investpro/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(db))
	require.NoError(t, database.Seed(db))
	return db
}

func newTestConfig() *config.Config {
	return &config.Config{
		Kafka: config.KafkaConfig{
			Topic: config.KafkaTopicConfig{
				DepositResult:     "investpro.deposit.result",
				WithdrawalResult:  "investpro.withdrawal.result",
				InvestmentMatured: "investpro.investment.matured",
			},
		},
		Business: config.BusinessConfig{
			SweepIntervalSeconds:     60,
			SweepBatchSize:           100,
			ReconcileIntervalSeconds: 300,
			MaxRetryCount:            5,
		},
	}
}

func seedInvestedUser(t *testing.T, db *gorm.DB, cfg *config.Config) (*model.User, *model.Investment) {
	t.Helper()
	ctx := context.Background()

	user := &model.User{
		ID:           uuid.NewString(),
		Email:        fmt.Sprintf("%s@test.local", uuid.NewString()),
		PasswordHash: "x",
		Name:         "测试用户",
		Role:         model.RoleUser,
	}
	require.NoError(t, db.Create(user).Error)

	depositService := service.NewDepositService(db, cfg)
	deposit, err := depositService.Request(ctx, user.ID, &service.CreateDepositRequest{
		Amount:        decimal.NewFromInt(1000),
		Currency:      model.CurrencyUSDT,
		WalletAddress: "T-addr",
	})
	require.NoError(t, err)
	require.NoError(t, depositService.Confirm(ctx, deposit.ID, "admin-1"))

	investmentService := service.NewInvestmentService(db, nil, cfg)
	investment, err := investmentService.Create(ctx, user.ID, &service.CreateInvestmentRequest{
		PlanID: "starter",
		Amount: decimal.NewFromInt(1000),
	})
	require.NoError(t, err)

	return user, investment
}

func TestSweepOnceCompletesMatured(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	ctx := context.Background()

	user, investment := seedInvestedUser(t, db, cfg)

	// 把到期时间拨到过去
	require.NoError(t, db.Model(&model.Investment{}).
		Where("id = ?", investment.ID).
		Update("end_date", time.Now().Add(-time.Hour)).Error)

	sweepJob := NewMaturitySweepJob(db, nil, cfg)
	sweepJob.SweepOnce(ctx)

	var reloaded model.Investment
	require.NoError(t, db.Where("id = ?", investment.ID).First(&reloaded).Error)
	assert.Equal(t, model.InvestmentStatusCompleted, reloaded.Status)

	var balanceHolder model.User
	require.NoError(t, db.Where("id = ?", user.ID).First(&balanceHolder).Error)
	assert.True(t, balanceHolder.Balance.Equal(decimal.NewFromInt(1050)),
		"到期回款 = 本金 1000 + 收益 50")

	// 再扫一轮必须是空操作
	sweepJob.SweepOnce(ctx)
	require.NoError(t, db.Where("id = ?", user.ID).First(&balanceHolder).Error)
	assert.True(t, balanceHolder.Balance.Equal(decimal.NewFromInt(1050)))

	var txnCount int64
	require.NoError(t, db.Model(&model.Transaction{}).
		Where("user_id = ? AND type = ?", user.ID, model.TransactionTypeRoiReturn).
		Count(&txnCount).Error)
	assert.Equal(t, int64(1), txnCount)
}

func TestSweepOnceSkipsUnmatured(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	ctx := context.Background()

	user, investment := seedInvestedUser(t, db, cfg)

	sweepJob := NewMaturitySweepJob(db, nil, cfg)
	sweepJob.SweepOnce(ctx)

	var reloaded model.Investment
	require.NoError(t, db.Where("id = ?", investment.ID).First(&reloaded).Error)
	assert.Equal(t, model.InvestmentStatusActive, reloaded.Status)

	var balanceHolder model.User
	require.NoError(t, db.Where("id = ?", user.ID).First(&balanceHolder).Error)
	assert.True(t, balanceHolder.Balance.IsZero())
}

func TestReconcileDetectsDrift(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	ctx := context.Background()

	user, _ := seedInvestedUser(t, db, cfg)

	reconcileJob := NewReconcileJob(db, cfg)
	assert.Equal(t, 0, reconcileJob.ReconcileOnce(ctx))

	// 绕过账本直接改余额，制造偏差
	require.NoError(t, db.Model(&model.User{}).
		Where("id = ?", user.ID).
		Update("balance", decimal.NewFromInt(123)).Error)

	assert.Equal(t, 1, reconcileJob.ReconcileOnce(ctx))
}
