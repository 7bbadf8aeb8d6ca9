package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/stayops/stayops-api/internal/models"
	"github.com/stayops/stayops-api/internal/repository"
	"gorm.io/gorm"
)

var clockPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// SettingsService manages per-property automation settings. Properties
// without an explicit row run on the documented defaults.
type SettingsService struct {
	settingsRepo repository.SettingsRepository
	propertyRepo repository.PropertyRepository
}

// NewSettingsService creates a new automation settings service
func NewSettingsService(settingsRepo repository.SettingsRepository, propertyRepo repository.PropertyRepository) *SettingsService {
	return &SettingsService{settingsRepo: settingsRepo, propertyRepo: propertyRepo}
}

// Get returns the property's effective settings, falling back to the
// defaults when no override exists.
func (s *SettingsService) Get(ctx context.Context, propertyID uint) (*models.AutomationSettings, error) {
	if _, err := s.propertyRepo.FindByID(ctx, propertyID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	settings, err := s.settingsRepo.FindByProperty(ctx, propertyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			defaults := models.DefaultAutomationSettings(propertyID)
			return &defaults, nil
		}
		return nil, err
	}
	return settings, nil
}

// Update validates and upserts the property's settings override
func (s *SettingsService) Update(ctx context.Context, propertyID uint, settings *models.AutomationSettings) (*models.AutomationSettings, error) {
	if _, err := s.propertyRepo.FindByID(ctx, propertyID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if err := validateSettings(settings); err != nil {
		return nil, err
	}

	settings.PropertyID = propertyID
	if err := s.settingsRepo.Upsert(ctx, settings); err != nil {
		return nil, err
	}
	return settings, nil
}

func validateSettings(settings *models.AutomationSettings) error {
	if !clockPattern.MatchString(settings.CheckInTime) {
		return fmt.Errorf("%w: check_in_time must be HH:MM", ErrValidation)
	}
	if !clockPattern.MatchString(settings.CheckOutTime) {
		return fmt.Errorf("%w: check_out_time must be HH:MM", ErrValidation)
	}
	if settings.NoShowGraceHours < 0 || settings.NoShowLookbackDays < 1 {
		return fmt.Errorf("%w: no-show grace must be >= 0 and lookback >= 1 day", ErrValidation)
	}
	if settings.LateCheckoutGraceHours < 0 || settings.LateCheckoutLookbackDays < 1 {
		return fmt.Errorf("%w: late checkout grace must be >= 0 and lookback >= 1 day", ErrValidation)
	}
	if settings.LateCheckoutFee < 0 {
		return fmt.Errorf("%w: late checkout fee must not be negative", ErrValidation)
	}
	if !models.IsValidFeeType(settings.LateCheckoutFeeType) {
		return fmt.Errorf("%w: unknown late checkout fee type %q", ErrValidation, settings.LateCheckoutFeeType)
	}
	if settings.ConfirmationPendingTimeoutHours < 0 {
		return fmt.Errorf("%w: confirmation pending timeout must not be negative", ErrValidation)
	}
	if settings.AuditLogRetentionDays < 0 {
		return fmt.Errorf("%w: audit log retention must not be negative", ErrValidation)
	}
	if settings.DayStartHour < 0 || settings.DayStartHour > 23 {
		return fmt.Errorf("%w: day start hour must be between 0 and 23", ErrValidation)
	}
	return nil
}
