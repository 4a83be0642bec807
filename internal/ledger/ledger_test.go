package ledger

import (
	"context"
	"fmt"
	"testing"

	"investpro/internal/infrastructure/database"
	"investpro/internal/model"
	"investpro/internal/repository"

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

func TestApplyCreditAndDebit(t *testing.T) {
	db := newTestDB(t)
	l := NewLedger(db)
	ctx := context.Background()
	user := newTestUser(t, db, "0")

	// 入账 1000
	credit, err := l.Apply(ctx, nil, &EntryInput{
		UserID:         user.ID,
		Amount:         decimal.NewFromInt(1000),
		Type:           model.TransactionTypeDeposit,
		Description:    "充值入账",
		IdempotencyKey: "deposit:t1",
	})
	require.NoError(t, err)
	assert.True(t, credit.BalanceBefore.IsZero())
	assert.True(t, credit.BalanceAfter.Equal(decimal.NewFromInt(1000)))

	// 出账 300
	debit, err := l.Apply(ctx, nil, &EntryInput{
		UserID:         user.ID,
		Amount:         decimal.NewFromInt(-300),
		Type:           model.TransactionTypeWithdrawal,
		Description:    "提现扣款",
		IdempotencyKey: "withdrawal:t1",
	})
	require.NoError(t, err)
	assert.True(t, debit.BalanceBefore.Equal(decimal.NewFromInt(1000)))
	assert.True(t, debit.BalanceAfter.Equal(decimal.NewFromInt(700)))

	var reloaded model.User
	require.NoError(t, db.Where("id = ?", user.ID).First(&reloaded).Error)
	assert.True(t, reloaded.Balance.Equal(decimal.NewFromInt(700)))
	// 每次余额变动都要推进版本号
	assert.Equal(t, 2, reloaded.Version)
}

func TestApplyIdempotentReplay(t *testing.T) {
	db := newTestDB(t)
	l := NewLedger(db)
	ctx := context.Background()
	user := newTestUser(t, db, "0")

	in := &EntryInput{
		UserID:         user.ID,
		Amount:         decimal.NewFromInt(500),
		Type:           model.TransactionTypeDeposit,
		Description:    "充值入账",
		IdempotencyKey: "deposit:replay",
	}

	first, err := l.Apply(ctx, nil, in)
	require.NoError(t, err)

	// 相同幂等键重放：返回原流水，余额不再变动
	second, err := l.Apply(ctx, nil, in)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, db.Model(&model.Transaction{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	var reloaded model.User
	require.NoError(t, db.Where("id = ?", user.ID).First(&reloaded).Error)
	assert.True(t, reloaded.Balance.Equal(decimal.NewFromInt(500)))
}

func TestApplyIdempotencyConflict(t *testing.T) {
	db := newTestDB(t)
	l := NewLedger(db)
	ctx := context.Background()
	user := newTestUser(t, db, "0")

	_, err := l.Apply(ctx, nil, &EntryInput{
		UserID:         user.ID,
		Amount:         decimal.NewFromInt(500),
		Type:           model.TransactionTypeDeposit,
		Description:    "充值入账",
		IdempotencyKey: "deposit:conflict",
	})
	require.NoError(t, err)

	// 同一幂等键换了金额：必须拒绝而不是静默吞掉
	_, err = l.Apply(ctx, nil, &EntryInput{
		UserID:         user.ID,
		Amount:         decimal.NewFromInt(600),
		Type:           model.TransactionTypeDeposit,
		Description:    "充值入账",
		IdempotencyKey: "deposit:conflict",
	})
	assert.ErrorIs(t, err, ErrIdempotencyConflict)
}

func TestApplyInsufficientFunds(t *testing.T) {
	db := newTestDB(t)
	l := NewLedger(db)
	ctx := context.Background()
	user := newTestUser(t, db, "100")

	_, err := l.Apply(ctx, nil, &EntryInput{
		UserID:         user.ID,
		Amount:         decimal.RequireFromString("-100.01"),
		Type:           model.TransactionTypeWithdrawal,
		Description:    "提现扣款",
		IdempotencyKey: "withdrawal:overdraw",
	})
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	// 失败的扣款不留任何痕迹
	var count int64
	require.NoError(t, db.Model(&model.Transaction{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)

	var reloaded model.User
	require.NoError(t, db.Where("id = ?", user.ID).First(&reloaded).Error)
	assert.True(t, reloaded.Balance.Equal(decimal.NewFromInt(100)))

	// 刚好扣到 0 是允许的
	_, err = l.Apply(ctx, nil, &EntryInput{
		UserID:         user.ID,
		Amount:         decimal.NewFromInt(-100),
		Type:           model.TransactionTypeWithdrawal,
		Description:    "提现扣款",
		IdempotencyKey: "withdrawal:exact",
	})
	require.NoError(t, err)
}

func TestApplyValidation(t *testing.T) {
	db := newTestDB(t)
	l := NewLedger(db)
	ctx := context.Background()
	user := newTestUser(t, db, "1000")

	cases := []struct {
		name string
		in   *EntryInput
	}{
		{"缺用户ID", &EntryInput{Amount: decimal.NewFromInt(1), Type: model.TransactionTypeDeposit, IdempotencyKey: "k1"}},
		{"缺幂等键", &EntryInput{UserID: user.ID, Amount: decimal.NewFromInt(1), Type: model.TransactionTypeDeposit}},
		{"金额为零", &EntryInput{UserID: user.ID, Amount: decimal.Zero, Type: model.TransactionTypeDeposit, IdempotencyKey: "k2"}},
		{"入账类型带负数", &EntryInput{UserID: user.ID, Amount: decimal.NewFromInt(-1), Type: model.TransactionTypeDeposit, IdempotencyKey: "k3"}},
		{"出账类型带正数", &EntryInput{UserID: user.ID, Amount: decimal.NewFromInt(1), Type: model.TransactionTypeInvestment, IdempotencyKey: "k4"}},
		{"未知类型", &EntryInput{UserID: user.ID, Amount: decimal.NewFromInt(1), Type: "bonus", IdempotencyKey: "k5"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := l.Apply(ctx, nil, tc.in)
			assert.ErrorIs(t, err, ErrInvalidEntry)
		})
	}
}

func TestBalanceMatchesTransactionSum(t *testing.T) {
	db := newTestDB(t)
	l := NewLedger(db)
	ctx := context.Background()
	user := newTestUser(t, db, "0")

	entries := []*EntryInput{
		{UserID: user.ID, Amount: decimal.NewFromInt(2000), Type: model.TransactionTypeDeposit, IdempotencyKey: "d1"},
		{UserID: user.ID, Amount: decimal.NewFromInt(-800), Type: model.TransactionTypeInvestment, IdempotencyKey: "i1"},
		{UserID: user.ID, Amount: decimal.RequireFromString("840.00"), Type: model.TransactionTypeRoiReturn, IdempotencyKey: "r1"},
		{UserID: user.ID, Amount: decimal.NewFromInt(-500), Type: model.TransactionTypeReinvestment, IdempotencyKey: "i2"},
		{UserID: user.ID, Amount: decimal.NewFromInt(-200), Type: model.TransactionTypeWithdrawal, IdempotencyKey: "w1"},
	}
	for _, in := range entries {
		in.Description = "流水"
		_, err := l.Apply(ctx, nil, in)
		require.NoError(t, err)
	}

	transactionRepo := repository.NewTransactionRepository(db)
	sum, err := transactionRepo.SumByUserID(ctx, user.ID)
	require.NoError(t, err)

	var reloaded model.User
	require.NoError(t, db.Where("id = ?", user.ID).First(&reloaded).Error)

	// 核心不变式：余额 == 全部流水之和
	assert.True(t, reloaded.Balance.Equal(sum), "balance=%s sum=%s", reloaded.Balance, sum)
	assert.True(t, reloaded.Balance.Equal(decimal.RequireFromString("1340.00")))
}

func TestApplyStaleVersionRejected(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := newTestUser(t, db, "1000")

	userRepo := repository.NewUserRepository(db)

	// 版本号已被别的事务推进，带旧版本号的更新必须失败
	require.NoError(t, userRepo.ApplyBalanceDelta(ctx, nil, user.ID, decimal.NewFromInt(-100), user.Version))
	err := userRepo.ApplyBalanceDelta(ctx, nil, user.ID, decimal.NewFromInt(-100), user.Version)
	assert.ErrorIs(t, err, repository.ErrOptimisticLock)
}
