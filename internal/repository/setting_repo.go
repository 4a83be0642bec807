package repository

import (
	"context"
	"errors"

	"investpro/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrSettingNotFound = errors.New("配置项不存在")

type SettingRepository struct {
	db *gorm.DB
}

func NewSettingRepository(db *gorm.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

func (r *SettingRepository) Get(ctx context.Context, key string) (string, error) {
	var setting model.AdminSetting
	err := r.db.WithContext(ctx).Where("setting_key = ?", key).First(&setting).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrSettingNotFound
		}
		return "", err
	}
	return setting.SettingValue, nil
}

func (r *SettingRepository) GetAll(ctx context.Context) (map[string]string, error) {
	var settings []*model.AdminSetting
	err := r.db.WithContext(ctx).Find(&settings).Error
	if err != nil {
		return nil, err
	}

	result := make(map[string]string, len(settings))
	for _, s := range settings {
		result[s.SettingKey] = s.SettingValue
	}
	return result, nil
}

// Upsert 写入配置项，key 不存在时插入
func (r *SettingRepository) Upsert(ctx context.Context, key, value string) error {
	setting := &model.AdminSetting{
		ID:           uuid.NewString(),
		SettingKey:   key,
		SettingValue: value,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "setting_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"setting_value"}),
		}).
		Create(setting).Error
}

// IsEnabled 功能开关：缺省视为开启（与种子数据一致）
func (r *SettingRepository) IsEnabled(ctx context.Context, key string) (bool, error) {
	value, err := r.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrSettingNotFound) {
			return true, nil
		}
		return false, err
	}
	return value == "true", nil
}
