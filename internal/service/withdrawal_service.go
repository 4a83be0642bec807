package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"investpro/internal/config"
	"investpro/internal/infrastructure/lock"
	"investpro/internal/ledger"
	"investpro/internal/model"
	"investpro/internal/repository"
	"investpro/pkg/idgen"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var ErrBelowMinWithdrawal = errors.New("提现金额低于平台最低限额")

type WithdrawalService struct {
	db             *gorm.DB
	redisClient    *redis.Client
	cfg            *config.Config
	ledger         *ledger.Ledger
	withdrawalRepo *repository.WithdrawalRepository
	settingRepo    *repository.SettingRepository
	outboxRepo     *repository.OutboxRepository
}

func NewWithdrawalService(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) *WithdrawalService {
	return &WithdrawalService{
		db:             db,
		redisClient:    redisClient,
		cfg:            cfg,
		ledger:         ledger.NewLedger(db),
		withdrawalRepo: repository.NewWithdrawalRepository(db),
		settingRepo:    repository.NewSettingRepository(db),
		outboxRepo:     repository.NewOutboxRepository(db),
	}
}

type CreateWithdrawalRequest struct {
	Amount        decimal.Decimal `json:"amount" binding:"required"`
	Currency      string          `json:"currency" binding:"required"`
	WalletAddress string          `json:"wallet_address" binding:"required"`
}

// Request 用户提交提现申请
// 申请阶段不冻结也不扣款，资金在管理员审批通过时经账本扣减；
// 余额是否足够由账本的扣款下限条件在审批时裁决
func (s *WithdrawalService) Request(ctx context.Context, userID string, req *CreateWithdrawalRequest) (*model.WithdrawalRequest, error) {
	if !req.Amount.IsPositive() {
		return nil, ErrAmountOutOfRange
	}
	if !model.ValidCurrency(req.Currency) {
		return nil, fmt.Errorf("不支持的币种: %s", req.Currency)
	}

	minValue, err := s.settingRepo.Get(ctx, model.SettingMinWithdrawalAmount)
	if err == nil {
		minAmount, parseErr := decimal.NewFromString(minValue)
		if parseErr == nil && req.Amount.LessThan(minAmount) {
			return nil, ErrBelowMinWithdrawal
		}
	} else if !errors.Is(err, repository.ErrSettingNotFound) {
		return nil, fmt.Errorf("查询最低提现限额失败: %w", err)
	}

	withdrawal := &model.WithdrawalRequest{
		ID:            uuid.NewString(),
		WithdrawalNo:  idgen.GenerateWithdrawalNo(),
		UserID:        userID,
		Amount:        req.Amount,
		Currency:      req.Currency,
		WalletAddress: req.WalletAddress,
		Status:        model.WithdrawalStatusPending,
	}

	if err := s.withdrawalRepo.Create(ctx, nil, withdrawal); err != nil {
		return nil, fmt.Errorf("创建提现申请失败: %w", err)
	}

	log.Printf("[WithdrawalService] 提现申请已提交: withdrawalNo=%s, userID=%s, amount=%s %s",
		withdrawal.WithdrawalNo, userID, req.Amount.String(), req.Currency)

	return withdrawal, nil
}

func (s *WithdrawalService) ListByUser(ctx context.Context, userID string) ([]*model.WithdrawalRequest, error) {
	return s.withdrawalRepo.ListByUserID(ctx, userID)
}

func (s *WithdrawalService) ListPending(ctx context.Context) ([]*repository.PendingWithdrawal, error) {
	return s.withdrawalRepo.ListPending(ctx)
}

// Approve 管理员审批通过提现
//
// 【关键点】审批即扣款：
// 1. pending -> approved 条件更新，防重复审批
// 2. 账本扣款带余额下限条件，余额不足则整个审批回滚
// 3. 幂等键取申请ID，重试审批不会重复扣款
func (s *WithdrawalService) Approve(ctx context.Context, withdrawalID, adminID string) error {
	withdrawal, err := s.withdrawalRepo.GetByID(ctx, withdrawalID)
	if err != nil {
		return err
	}

	// 和投资共用用户余额锁，降低并发冲突
	balanceLock := lock.NewBalanceLock(s.redisClient, withdrawal.UserID, withdrawal.WithdrawalNo)
	if err := balanceLock.Lock(ctx, 100*time.Millisecond, 30); err != nil {
		return fmt.Errorf("系统繁忙，请稍后重试: %w", err)
	}
	defer balanceLock.Unlock(ctx)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.withdrawalRepo.UpdateStatus(ctx, tx, withdrawalID,
			model.WithdrawalStatusPending, model.WithdrawalStatusApproved, adminID); err != nil {
			return err
		}

		if _, err := s.ledger.Apply(ctx, tx, &ledger.EntryInput{
			UserID:         withdrawal.UserID,
			Amount:         withdrawal.Amount.Neg(),
			Type:           model.TransactionTypeWithdrawal,
			Description:    fmt.Sprintf("%s 提现扣款 - %s", withdrawal.Currency, withdrawal.WithdrawalNo),
			IdempotencyKey: fmt.Sprintf("withdrawal:%s", withdrawal.ID),
			WithdrawalID:   withdrawal.ID,
		}); err != nil {
			return err
		}

		msgPayload := map[string]interface{}{
			"withdrawal_no":  withdrawal.WithdrawalNo,
			"user_id":        withdrawal.UserID,
			"amount":         withdrawal.Amount.String(),
			"currency":       withdrawal.Currency,
			"wallet_address": withdrawal.WalletAddress,
			"status":         model.WithdrawalStatusApproved,
		}
		payloadBytes, _ := json.Marshal(msgPayload)

		outboxMsg := &model.OutboxMessage{
			MessageKey: withdrawal.WithdrawalNo,
			Topic:      s.cfg.Kafka.Topic.WithdrawalResult,
			Payload:    string(payloadBytes),
			Status:     model.OutboxStatusPending,
		}
		return s.outboxRepo.Create(ctx, tx, outboxMsg)
	})
	if err != nil {
		return err
	}

	log.Printf("[WithdrawalService] 提现审批通过: withdrawalNo=%s, userID=%s, amount=%s",
		withdrawal.WithdrawalNo, withdrawal.UserID, withdrawal.Amount.String())

	return nil
}

// Complete 标记提现打款完成（approved -> completed），不再有资金变动
func (s *WithdrawalService) Complete(ctx context.Context, withdrawalID, adminID string) error {
	if err := s.withdrawalRepo.UpdateStatus(ctx, nil, withdrawalID,
		model.WithdrawalStatusApproved, model.WithdrawalStatusCompleted, adminID); err != nil {
		return err
	}

	log.Printf("[WithdrawalService] 提现已完成打款: withdrawalID=%s", withdrawalID)
	return nil
}

// Reject 管理员驳回提现，只改状态，不动资金
func (s *WithdrawalService) Reject(ctx context.Context, withdrawalID, adminID string) error {
	if err := s.withdrawalRepo.UpdateStatus(ctx, nil, withdrawalID,
		model.WithdrawalStatusPending, model.WithdrawalStatusRejected, adminID); err != nil {
		return err
	}

	log.Printf("[WithdrawalService] 提现已驳回: withdrawalID=%s, adminID=%s", withdrawalID, adminID)
	return nil
}
