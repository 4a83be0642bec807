package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"investpro/internal/config"
	"investpro/internal/ledger"
	"investpro/internal/model"
	"investpro/internal/repository"
	"investpro/pkg/idgen"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type DepositService struct {
	db          *gorm.DB
	cfg         *config.Config
	ledger      *ledger.Ledger
	depositRepo *repository.DepositRepository
	settingRepo *repository.SettingRepository
	outboxRepo  *repository.OutboxRepository
}

func NewDepositService(db *gorm.DB, cfg *config.Config) *DepositService {
	return &DepositService{
		db:          db,
		cfg:         cfg,
		ledger:      ledger.NewLedger(db),
		depositRepo: repository.NewDepositRepository(db),
		settingRepo: repository.NewSettingRepository(db),
		outboxRepo:  repository.NewOutboxRepository(db),
	}
}

type CreateDepositRequest struct {
	Amount        decimal.Decimal `json:"amount" binding:"required"`
	Currency      string          `json:"currency" binding:"required"`
	WalletAddress string          `json:"wallet_address" binding:"required"`
}

// Request 用户提交充值申请
// 此时不产生任何流水，资金只在管理员确认后经账本入账
func (s *DepositService) Request(ctx context.Context, userID string, req *CreateDepositRequest) (*model.DepositRequest, error) {
	enabled, err := s.settingRepo.IsEnabled(ctx, model.SettingDepositsEnabled)
	if err != nil {
		return nil, fmt.Errorf("查询平台开关失败: %w", err)
	}
	if !enabled {
		return nil, ErrFeatureDisabled
	}

	if !req.Amount.IsPositive() {
		return nil, ErrAmountOutOfRange
	}
	if !model.ValidCurrency(req.Currency) {
		return nil, fmt.Errorf("不支持的币种: %s", req.Currency)
	}

	deposit := &model.DepositRequest{
		ID:            uuid.NewString(),
		DepositNo:     idgen.GenerateDepositNo(),
		UserID:        userID,
		Amount:        req.Amount,
		Currency:      req.Currency,
		WalletAddress: req.WalletAddress,
		Status:        model.DepositStatusPending,
	}

	if err := s.depositRepo.Create(ctx, nil, deposit); err != nil {
		return nil, fmt.Errorf("创建充值申请失败: %w", err)
	}

	log.Printf("[DepositService] 充值申请已提交: depositNo=%s, userID=%s, amount=%s %s",
		deposit.DepositNo, userID, req.Amount.String(), req.Currency)

	return deposit, nil
}

func (s *DepositService) ListByUser(ctx context.Context, userID string) ([]*model.DepositRequest, error) {
	return s.depositRepo.ListByUserID(ctx, userID)
}

func (s *DepositService) ListPending(ctx context.Context) ([]*repository.PendingDeposit, error) {
	return s.depositRepo.ListPending(ctx)
}

// Confirm 管理员确认充值
//
// 【关键点】状态流转和入账必须同时成功或同时失败：
// 1. pending -> confirmed 条件更新，终态申请直接拒绝（防重复确认）
// 2. 账本入账幂等键取申请ID，并发确认也只会入账一次
// 3. 确认结果经 outbox 投递 Kafka，和前两步同一事务
func (s *DepositService) Confirm(ctx context.Context, depositID, adminID string) error {
	deposit, err := s.depositRepo.GetByID(ctx, depositID)
	if err != nil {
		return err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.depositRepo.UpdateStatus(ctx, tx, depositID,
			model.DepositStatusPending, model.DepositStatusConfirmed, adminID); err != nil {
			return err
		}

		if _, err := s.ledger.Apply(ctx, tx, &ledger.EntryInput{
			UserID:         deposit.UserID,
			Amount:         deposit.Amount,
			Type:           model.TransactionTypeDeposit,
			Description:    fmt.Sprintf("%s 充值到账 - %s", deposit.Currency, deposit.DepositNo),
			IdempotencyKey: fmt.Sprintf("deposit:%s", deposit.ID),
			DepositID:      deposit.ID,
		}); err != nil {
			return err
		}

		msgPayload := map[string]interface{}{
			"deposit_no": deposit.DepositNo,
			"user_id":    deposit.UserID,
			"amount":     deposit.Amount.String(),
			"currency":   deposit.Currency,
			"status":     model.DepositStatusConfirmed,
		}
		payloadBytes, _ := json.Marshal(msgPayload)

		outboxMsg := &model.OutboxMessage{
			MessageKey: deposit.DepositNo,
			Topic:      s.cfg.Kafka.Topic.DepositResult,
			Payload:    string(payloadBytes),
			Status:     model.OutboxStatusPending,
		}
		return s.outboxRepo.Create(ctx, tx, outboxMsg)
	})
	if err != nil {
		return err
	}

	log.Printf("[DepositService] 充值已确认: depositNo=%s, userID=%s, amount=%s",
		deposit.DepositNo, deposit.UserID, deposit.Amount.String())

	return nil
}

// Reject 管理员驳回充值，只改状态，不动资金
func (s *DepositService) Reject(ctx context.Context, depositID, adminID string) error {
	if err := s.depositRepo.UpdateStatus(ctx, nil, depositID,
		model.DepositStatusPending, model.DepositStatusRejected, adminID); err != nil {
		return err
	}

	log.Printf("[DepositService] 充值已驳回: depositID=%s, adminID=%s", depositID, adminID)
	return nil
}
