package service

import (
	"context"
	"fmt"

	"investpro/internal/model"
	"investpro/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PlanService struct {
	planRepo *repository.PlanRepository
	db       *gorm.DB
}

func NewPlanService(db *gorm.DB) *PlanService {
	return &PlanService{
		planRepo: repository.NewPlanRepository(db),
		db:       db,
	}
}

func (s *PlanService) ListActive(ctx context.Context) ([]*model.InvestmentPlan, error) {
	return s.planRepo.ListActive(ctx)
}

func (s *PlanService) Get(ctx context.Context, id string) (*model.InvestmentPlan, error) {
	return s.planRepo.GetByID(ctx, id)
}

type PlanInput struct {
	Name          string           `json:"name" binding:"required"`
	MinAmount     decimal.Decimal  `json:"min_amount" binding:"required"`
	MaxAmount     *decimal.Decimal `json:"max_amount"`
	RoiPercent    decimal.Decimal  `json:"roi_percent" binding:"required"`
	DurationHours int              `json:"duration_hours" binding:"required,gt=0"`
}

// Create 新增投资计划（管理端）
func (s *PlanService) Create(ctx context.Context, input *PlanInput) (*model.InvestmentPlan, error) {
	plan := &model.InvestmentPlan{
		ID:            uuid.NewString(),
		Name:          input.Name,
		MinAmount:     input.MinAmount,
		MaxAmount:     input.MaxAmount,
		RoiPercent:    input.RoiPercent,
		DurationHours: input.DurationHours,
		IsActive:      true,
	}
	if err := s.planRepo.Create(ctx, nil, plan); err != nil {
		return nil, fmt.Errorf("创建投资计划失败: %w", err)
	}
	return plan, nil
}

// Replace 修改投资计划（管理端）
// 计划一经引用不可原地改动，修改 = 停用旧行 + 插入新行，
// 已存在的投资继续按创建时的快照条款执行
func (s *PlanService) Replace(ctx context.Context, oldID string, input *PlanInput) (*model.InvestmentPlan, error) {
	newPlan := &model.InvestmentPlan{
		ID:            uuid.NewString(),
		Name:          input.Name,
		MinAmount:     input.MinAmount,
		MaxAmount:     input.MaxAmount,
		RoiPercent:    input.RoiPercent,
		DurationHours: input.DurationHours,
		IsActive:      true,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.planRepo.Deactivate(ctx, tx, oldID); err != nil {
			return err
		}
		return s.planRepo.Create(ctx, tx, newPlan)
	})
	if err != nil {
		return nil, fmt.Errorf("更新投资计划失败: %w", err)
	}
	return newPlan, nil
}
