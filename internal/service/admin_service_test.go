package service

import (
	"context"
	"testing"

	"investpro/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminStatsAndSettings(t *testing.T) {
	db := newTestDB(t)
	cfg := newTestConfig()
	ctx := context.Background()
	user := newTestUser(t, db)

	depositService := NewDepositService(db, cfg)
	investmentService := NewInvestmentService(db, nil, cfg)
	adminService := NewAdminService(db)

	deposit, err := depositService.Request(ctx, user.ID, &CreateDepositRequest{
		Amount:        decimal.NewFromInt(2000),
		Currency:      model.CurrencyUSDT,
		WalletAddress: "T-addr",
	})
	require.NoError(t, err)
	require.NoError(t, depositService.Confirm(ctx, deposit.ID, "admin-1"))

	// 留一笔待审核充值
	_, err = depositService.Request(ctx, user.ID, &CreateDepositRequest{
		Amount:        decimal.NewFromInt(777),
		Currency:      model.CurrencyUSDT,
		WalletAddress: "T-addr",
	})
	require.NoError(t, err)

	_, err = investmentService.Create(ctx, user.ID, &CreateInvestmentRequest{
		PlanID: "growth", Amount: decimal.NewFromInt(1500),
	})
	require.NoError(t, err)

	stats, err := adminService.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalUsers)
	assert.Equal(t, int64(1), stats.PendingDeposits)
	assert.True(t, stats.PendingDepositsAmount.Equal(decimal.NewFromInt(777)))
	assert.Equal(t, int64(1), stats.ActiveInvestments)
	assert.True(t, stats.TotalVolume.Equal(decimal.NewFromInt(1500)))
	require.Len(t, stats.UserInvestments, 1)
	assert.Equal(t, user.ID, stats.UserInvestments[0].UserID)
	assert.Equal(t, int64(1), stats.UserInvestments[0].InvestmentCount)
}

func TestAdminPlatformStatusAndWallets(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	adminService := NewAdminService(db)

	// 只关充值，投资和复投保持原样
	off := false
	require.NoError(t, adminService.UpdatePlatformStatus(ctx, &off, nil, nil))

	settings, err := adminService.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "false", settings[model.SettingDepositsEnabled])
	assert.Equal(t, "true", settings[model.SettingInvestmentsEnabled])
	assert.Equal(t, "true", settings[model.SettingReinvestEnabled])

	require.NoError(t, adminService.UpdateWalletAddresses(ctx, "bc1-new-btc", ""))
	settings, err = adminService.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "bc1-new-btc", settings[model.SettingBTCWalletAddress])
	// 未提供的地址保持不变
	assert.Equal(t, "TYJUrp7L3K5YKEf9e7C3qsP4h1A9vXWz7R", settings[model.SettingUSDTWalletAddress])
}
