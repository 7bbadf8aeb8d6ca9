package services

import (
	"context"
	"testing"

	"github.com/stayops/stayops-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestSettingsService(settingsRepo *mockSettingsRepository) *SettingsService {
	propertyRepo := &mockPropertyRepository{
		mockFindByID: func(ctx context.Context, id uint) (*models.Property, error) {
			if id == 10 {
				return &models.Property{ID: 10, Name: "Harbor Hotel", Timezone: "UTC"}, nil
			}
			return nil, gorm.ErrRecordNotFound
		},
	}
	return NewSettingsService(settingsRepo, propertyRepo)
}

func TestGetSettingsFallsBackToDefaults(t *testing.T) {
	service := newTestSettingsService(&mockSettingsRepository{})

	settings, err := service.Get(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, "15:00", settings.CheckInTime)
	assert.Equal(t, "11:00", settings.CheckOutTime)
	assert.Equal(t, 6, settings.NoShowGraceHours)
	assert.Equal(t, 3, settings.NoShowLookbackDays)
	assert.Equal(t, 1, settings.LateCheckoutGraceHours)
	assert.Equal(t, models.FeeTypeFlatRate, settings.LateCheckoutFeeType)
	assert.Equal(t, 6, settings.ConfirmationPendingTimeoutHours)
	assert.Equal(t, 90, settings.AuditLogRetentionDays)
	assert.Equal(t, 6, settings.DayStartHour)
}

func TestGetSettingsUnknownProperty(t *testing.T) {
	service := newTestSettingsService(&mockSettingsRepository{})

	_, err := service.Get(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateSettings(t *testing.T) {
	var upserted *models.AutomationSettings
	settingsRepo := &mockSettingsRepository{
		mockUpsert: func(ctx context.Context, settings *models.AutomationSettings) error {
			upserted = settings
			return nil
		},
	}
	service := newTestSettingsService(settingsRepo)

	settings := models.DefaultAutomationSettings(0)
	settings.NoShowGraceHours = 4
	settings.DayStartHour = 5

	updated, err := service.Update(context.Background(), 10, &settings)
	require.NoError(t, err)
	require.NotNil(t, upserted)
	assert.Equal(t, uint(10), updated.PropertyID)
	assert.Equal(t, 4, updated.NoShowGraceHours)
}

func TestUpdateSettingsValidation(t *testing.T) {
	service := newTestSettingsService(&mockSettingsRepository{})

	cases := []func(s *models.AutomationSettings){
		func(s *models.AutomationSettings) { s.CheckInTime = "25:00" },
		func(s *models.AutomationSettings) { s.CheckOutTime = "noonish" },
		func(s *models.AutomationSettings) { s.NoShowLookbackDays = 0 },
		func(s *models.AutomationSettings) { s.LateCheckoutFee = -10 },
		func(s *models.AutomationSettings) { s.LateCheckoutFeeType = "BARTER" },
		func(s *models.AutomationSettings) { s.ConfirmationPendingTimeoutHours = -1 },
		func(s *models.AutomationSettings) { s.AuditLogRetentionDays = -1 },
		func(s *models.AutomationSettings) { s.DayStartHour = 24 },
	}

	for _, mutate := range cases {
		settings := models.DefaultAutomationSettings(10)
		mutate(&settings)
		_, err := service.Update(context.Background(), 10, &settings)
		assert.ErrorIs(t, err, ErrValidation)
	}
}
