package repository

import (
	"context"

	"github.com/stayops/stayops-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SettingsRepository defines the interface for automation settings access
type SettingsRepository interface {
	FindByProperty(ctx context.Context, propertyID uint) (*models.AutomationSettings, error)
	Upsert(ctx context.Context, settings *models.AutomationSettings) error
}

type settingsRepository struct {
	db *gorm.DB
}

// NewSettingsRepository creates a new automation settings repository
func NewSettingsRepository(db *gorm.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) FindByProperty(ctx context.Context, propertyID uint) (*models.AutomationSettings, error) {
	var settings models.AutomationSettings
	err := r.db.WithContext(ctx).
		Where("property_id = ?", propertyID).
		First(&settings).Error
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

func (r *settingsRepository) Upsert(ctx context.Context, settings *models.AutomationSettings) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "property_id"}},
			UpdateAll: true,
		}).
		Create(settings).Error
}
