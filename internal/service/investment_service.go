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

var (
	ErrAmountOutOfRange  = errors.New("投资金额不在计划允许区间内")
	ErrFeatureDisabled   = errors.New("该功能当前已被平台关闭")
	ErrPlanNotInvestable = errors.New("该投资计划已停用")
)

type InvestmentService struct {
	db             *gorm.DB
	redisClient    *redis.Client
	cfg            *config.Config
	ledger         *ledger.Ledger
	planRepo       *repository.PlanRepository
	investmentRepo *repository.InvestmentRepository
	settingRepo    *repository.SettingRepository
	outboxRepo     *repository.OutboxRepository
}

func NewInvestmentService(db *gorm.DB, redisClient *redis.Client, cfg *config.Config) *InvestmentService {
	return &InvestmentService{
		db:             db,
		redisClient:    redisClient,
		cfg:            cfg,
		ledger:         ledger.NewLedger(db),
		planRepo:       repository.NewPlanRepository(db),
		investmentRepo: repository.NewInvestmentRepository(db),
		settingRepo:    repository.NewSettingRepository(db),
		outboxRepo:     repository.NewOutboxRepository(db),
	}
}

type CreateInvestmentRequest struct {
	PlanID         string          `json:"plan_id" binding:"required"`
	Amount         decimal.Decimal `json:"amount" binding:"required"`
	IsReinvestment bool            `json:"is_reinvestment"`
}

// Create 创建投资
//
// 【关键点】投资是扣款操作，必须保证：
// 1. 金额落在计划的 [min_amount, max_amount] 区间内
// 2. 余额覆盖投资额，扣款和投资落库在同一事务里
// 3. 计划条款（名称/收益率/期限）快照进投资记录，后续改计划不追溯
func (s *InvestmentService) Create(ctx context.Context, userID string, req *CreateInvestmentRequest) (*model.Investment, error) {
	settingKey := model.SettingInvestmentsEnabled
	if req.IsReinvestment {
		settingKey = model.SettingReinvestEnabled
	}
	enabled, err := s.settingRepo.IsEnabled(ctx, settingKey)
	if err != nil {
		return nil, fmt.Errorf("查询平台开关失败: %w", err)
	}
	if !enabled {
		return nil, ErrFeatureDisabled
	}

	plan, err := s.planRepo.GetByID(ctx, req.PlanID)
	if err != nil {
		return nil, err
	}
	if !plan.IsActive {
		return nil, ErrPlanNotInvestable
	}
	if !plan.AmountInRange(req.Amount) {
		return nil, ErrAmountOutOfRange
	}

	investmentNo := idgen.GenerateInvestmentNo()

	// 按用户维度加锁，避免同一用户并发扣款互相打乐观锁
	balanceLock := lock.NewBalanceLock(s.redisClient, userID, investmentNo)
	if err := balanceLock.Lock(ctx, 100*time.Millisecond, 30); err != nil {
		return nil, fmt.Errorf("系统繁忙，请稍后重试: %w", err)
	}
	defer balanceLock.Unlock(ctx)

	// roi_amount = amount * roi_percent / 100，条款快照自计划
	roiAmount := req.Amount.Mul(plan.RoiPercent).Div(decimal.NewFromInt(100)).Round(2)
	startDate := time.Now()
	endDate := startDate.Add(time.Duration(plan.DurationHours) * time.Hour)

	investment := &model.Investment{
		ID:             uuid.NewString(),
		InvestmentNo:   investmentNo,
		UserID:         userID,
		PlanID:         plan.ID,
		PlanName:       plan.Name,
		RoiPercent:     plan.RoiPercent,
		DurationHours:  plan.DurationHours,
		Amount:         req.Amount,
		RoiAmount:      roiAmount,
		StartDate:      startDate,
		EndDate:        endDate,
		Status:         model.InvestmentStatusActive,
		IsReinvestment: req.IsReinvestment,
	}

	transactionType := model.TransactionTypeInvestment
	if req.IsReinvestment {
		transactionType = model.TransactionTypeReinvestment
	}

	// 投资落库 + 账本扣款捆绑成一个事务
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.investmentRepo.Create(ctx, tx, investment); err != nil {
			return fmt.Errorf("创建投资失败: %w", err)
		}

		_, err := s.ledger.Apply(ctx, tx, &ledger.EntryInput{
			UserID:         userID,
			Amount:         req.Amount.Neg(),
			Type:           transactionType,
			Description:    fmt.Sprintf("%s 投资扣款 - %s", plan.Name, investmentNo),
			IdempotencyKey: fmt.Sprintf("invest:%s", investment.ID),
			InvestmentID:   investment.ID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[InvestmentService] 投资创建成功: investmentNo=%s, userID=%s, amount=%s",
		investmentNo, userID, req.Amount.String())

	return investment, nil
}

func (s *InvestmentService) ListByUser(ctx context.Context, userID string) ([]*model.Investment, error) {
	return s.investmentRepo.ListByUserID(ctx, userID)
}

// CompleteMatured 将一笔到期投资结转为 completed 并回款本金+收益
//
// 【关键点】状态流转和账本入账在同一事务里：
//   - 状态条件更新失败（已被并发结转）则整个事务回滚，不会重复回款
//   - 回款幂等键取投资ID，进程崩溃后重放也只会入账一次
func (s *InvestmentService) CompleteMatured(ctx context.Context, investment *model.Investment) error {
	payout := investment.Amount.Add(investment.RoiAmount)

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.investmentRepo.UpdateStatus(ctx, tx, investment.ID,
			model.InvestmentStatusActive, model.InvestmentStatusCompleted); err != nil {
			return err
		}

		if _, err := s.ledger.Apply(ctx, tx, &ledger.EntryInput{
			UserID:         investment.UserID,
			Amount:         payout,
			Type:           model.TransactionTypeRoiReturn,
			Description:    fmt.Sprintf("%s 到期回款（本金+收益）- %s", investment.PlanName, investment.InvestmentNo),
			IdempotencyKey: fmt.Sprintf("roi:%s", investment.ID),
			InvestmentID:   investment.ID,
		}); err != nil {
			return err
		}

		msgPayload := map[string]interface{}{
			"investment_no": investment.InvestmentNo,
			"user_id":       investment.UserID,
			"principal":     investment.Amount.String(),
			"roi_amount":    investment.RoiAmount.String(),
			"payout":        payout.String(),
			"matured_at":    time.Now().Format(time.RFC3339),
		}
		payloadBytes, _ := json.Marshal(msgPayload)

		outboxMsg := &model.OutboxMessage{
			MessageKey: investment.InvestmentNo,
			Topic:      s.cfg.Kafka.Topic.InvestmentMatured,
			Payload:    string(payloadBytes),
			Status:     model.OutboxStatusPending,
		}
		return s.outboxRepo.Create(ctx, tx, outboxMsg)
	})
}
