package repository

import (
	"context"
	"errors"

	"investpro/internal/model"

	"gorm.io/gorm"
)

var ErrPlanNotFound = errors.New("投资计划不存在")

type PlanRepository struct {
	db *gorm.DB
}

func NewPlanRepository(db *gorm.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

func (r *PlanRepository) Create(ctx context.Context, tx *gorm.DB, plan *model.InvestmentPlan) error {
	if tx == nil {
		tx = r.db
	}
	return tx.WithContext(ctx).Create(plan).Error
}

func (r *PlanRepository) GetByID(ctx context.Context, id string) (*model.InvestmentPlan, error) {
	var plan model.InvestmentPlan
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&plan).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return &plan, nil
}

func (r *PlanRepository) ListActive(ctx context.Context) ([]*model.InvestmentPlan, error) {
	var plans []*model.InvestmentPlan
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("min_amount ASC").
		Find(&plans).Error
	return plans, err
}

// Deactivate 停用计划（计划编辑 = 停用旧行 + 插入新行）
func (r *PlanRepository) Deactivate(ctx context.Context, tx *gorm.DB, id string) error {
	if tx == nil {
		tx = r.db
	}
	result := tx.WithContext(ctx).
		Model(&model.InvestmentPlan{}).
		Where("id = ? AND is_active = ?", id, true).
		Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPlanNotFound
	}
	return nil
}

func (r *PlanRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.InvestmentPlan{}).Count(&count).Error
	return count, err
}
