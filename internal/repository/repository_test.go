package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"investpro/internal/infrastructure/database"
	"investpro/internal/model"

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
	return db
}

func newTestUser(t *testing.T, db *gorm.DB, balance string) *model.User {
	t.Helper()

	user := &model.User{
		ID:           uuid.NewString(),
		Email:        fmt.Sprintf("%s@test.local", uuid.NewString()),
		PasswordHash: "x",
		Name:         "测试用户",
		Role:         model.RoleUser,
		Balance:      decimal.RequireFromString(balance),
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func TestDepositStatusGuard(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewDepositRepository(db)
	user := newTestUser(t, db, "0")

	deposit := &model.DepositRequest{
		ID:            uuid.NewString(),
		DepositNo:     "DEP-T1",
		UserID:        user.ID,
		Amount:        decimal.NewFromInt(1000),
		Currency:      model.CurrencyUSDT,
		WalletAddress: "T-addr",
		Status:        model.DepositStatusPending,
	}
	require.NoError(t, repo.Create(ctx, nil, deposit))

	require.NoError(t, repo.UpdateStatus(ctx, nil, deposit.ID,
		model.DepositStatusPending, model.DepositStatusConfirmed, "admin-1"))

	// 再次确认或改判都必须被拒绝
	err := repo.UpdateStatus(ctx, nil, deposit.ID,
		model.DepositStatusPending, model.DepositStatusConfirmed, "admin-2")
	assert.ErrorIs(t, err, ErrDepositStatusInvalid)
	err = repo.UpdateStatus(ctx, nil, deposit.ID,
		model.DepositStatusConfirmed, model.DepositStatusRejected, "admin-2")
	assert.ErrorIs(t, err, ErrDepositStatusInvalid)

	reloaded, err := repo.GetByID(ctx, deposit.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DepositStatusConfirmed, reloaded.Status)
	assert.Equal(t, "admin-1", reloaded.ReviewedBy)
	require.NotNil(t, reloaded.ReviewedAt)
}

func TestDepositListPendingAndStats(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewDepositRepository(db)
	user := newTestUser(t, db, "0")

	amounts := []string{"100", "250.50"}
	for i, a := range amounts {
		require.NoError(t, repo.Create(ctx, nil, &model.DepositRequest{
			ID:            uuid.NewString(),
			DepositNo:     fmt.Sprintf("DEP-P%d", i),
			UserID:        user.ID,
			Amount:        decimal.RequireFromString(a),
			Currency:      model.CurrencyBTC,
			WalletAddress: "T-addr",
			Status:        model.DepositStatusPending,
		}))
	}
	// 已驳回的不应出现在待审核列表里
	rejected := &model.DepositRequest{
		ID:            uuid.NewString(),
		DepositNo:     "DEP-R",
		UserID:        user.ID,
		Amount:        decimal.NewFromInt(999),
		Currency:      model.CurrencyBTC,
		WalletAddress: "T-addr",
		Status:        model.DepositStatusPending,
	}
	require.NoError(t, repo.Create(ctx, nil, rejected))
	require.NoError(t, repo.UpdateStatus(ctx, nil, rejected.ID,
		model.DepositStatusPending, model.DepositStatusRejected, "admin-1"))

	pending, err := repo.ListPending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, user.Email, pending[0].UserEmail)
	assert.Equal(t, user.Name, pending[0].UserName)

	count, total, err := repo.PendingStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.True(t, total.Equal(decimal.RequireFromString("350.50")))
}

func TestWithdrawalStatusGuard(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewWithdrawalRepository(db)
	user := newTestUser(t, db, "0")

	withdrawal := &model.WithdrawalRequest{
		ID:            uuid.NewString(),
		WithdrawalNo:  "WDR-T1",
		UserID:        user.ID,
		Amount:        decimal.NewFromInt(100),
		Currency:      model.CurrencyUSDT,
		WalletAddress: "T-addr",
		Status:        model.WithdrawalStatusPending,
	}
	require.NoError(t, repo.Create(ctx, nil, withdrawal))

	// 不允许跳过审批直接完成
	err := repo.UpdateStatus(ctx, nil, withdrawal.ID,
		model.WithdrawalStatusPending, model.WithdrawalStatusCompleted, "admin-1")
	assert.ErrorIs(t, err, ErrWithdrawalStatusInvalid)

	require.NoError(t, repo.UpdateStatus(ctx, nil, withdrawal.ID,
		model.WithdrawalStatusPending, model.WithdrawalStatusApproved, "admin-1"))
	require.NoError(t, repo.UpdateStatus(ctx, nil, withdrawal.ID,
		model.WithdrawalStatusApproved, model.WithdrawalStatusCompleted, "admin-1"))

	// completed 是终态
	err = repo.UpdateStatus(ctx, nil, withdrawal.ID,
		model.WithdrawalStatusApproved, model.WithdrawalStatusCompleted, "admin-1")
	assert.ErrorIs(t, err, ErrWithdrawalStatusInvalid)
}

func TestInvestmentGetMatured(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewInvestmentRepository(db)
	user := newTestUser(t, db, "0")

	now := time.Now()
	mk := func(no string, endDate time.Time, status string) {
		require.NoError(t, repo.Create(ctx, nil, &model.Investment{
			ID:            uuid.NewString(),
			InvestmentNo:  no,
			UserID:        user.ID,
			PlanID:        "starter",
			PlanName:      "Starter Plan",
			RoiPercent:    decimal.NewFromInt(5),
			DurationHours: 24,
			Amount:        decimal.NewFromInt(100),
			RoiAmount:     decimal.NewFromInt(5),
			StartDate:     endDate.Add(-24 * time.Hour),
			EndDate:       endDate,
			Status:        status,
		}))
	}

	mk("INV-DUE-1", now.Add(-2*time.Hour), model.InvestmentStatusActive)
	mk("INV-DUE-2", now.Add(-1*time.Minute), model.InvestmentStatusActive)
	mk("INV-FUTURE", now.Add(24*time.Hour), model.InvestmentStatusActive)
	mk("INV-DONE", now.Add(-3*time.Hour), model.InvestmentStatusCompleted)

	matured, err := repo.GetMatured(ctx, now, 100)
	require.NoError(t, err)
	require.Len(t, matured, 2)
	// 按到期时间先后返回
	assert.Equal(t, "INV-DUE-1", matured[0].InvestmentNo)
	assert.Equal(t, "INV-DUE-2", matured[1].InvestmentNo)
}

func TestSettingUpsertAndToggle(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewSettingRepository(db)

	_, err := repo.Get(ctx, model.SettingMinWithdrawalAmount)
	assert.ErrorIs(t, err, ErrSettingNotFound)

	// 未配置的开关缺省视为开启
	enabled, err := repo.IsEnabled(ctx, model.SettingDepositsEnabled)
	require.NoError(t, err)
	assert.True(t, enabled)

	require.NoError(t, repo.Upsert(ctx, model.SettingDepositsEnabled, "false"))
	enabled, err = repo.IsEnabled(ctx, model.SettingDepositsEnabled)
	require.NoError(t, err)
	assert.False(t, enabled)

	// 同一 key 再次写入走更新，不产生重复行
	require.NoError(t, repo.Upsert(ctx, model.SettingDepositsEnabled, "true"))
	var count int64
	require.NoError(t, db.Model(&model.AdminSetting{}).
		Where("setting_key = ?", model.SettingDepositsEnabled).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	value, err := repo.Get(ctx, model.SettingDepositsEnabled)
	require.NoError(t, err)
	assert.Equal(t, "true", value)
}

func TestUserApplyBalanceDeltaGuards(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	repo := NewUserRepository(db)
	user := newTestUser(t, db, "100")

	// 余额不足：条件更新不命中，区分出余额不足
	err := repo.ApplyBalanceDelta(ctx, nil, user.ID, decimal.NewFromInt(-200), user.Version)
	assert.ErrorIs(t, err, ErrBalanceNotEnough)

	// 入账不受余额限制
	require.NoError(t, repo.ApplyBalanceDelta(ctx, nil, user.ID, decimal.NewFromInt(50), user.Version))

	reloaded, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.Balance.Equal(decimal.NewFromInt(150)))
	assert.Equal(t, user.Version+1, reloaded.Version)
}
