package repository

import (
	"context"
	"errors"
	"time"

	"github.com/stayops/stayops-api/internal/models"
	"gorm.io/gorm"
)

// ErrAlreadyDecided is returned by ClaimDecision when the request was no
// longer pending: a competing manager decided it first.
var ErrAlreadyDecided = errors.New("approval request already decided")

// ApprovalRepository defines the interface for approval request data access
type ApprovalRepository interface {
	Create(ctx context.Context, request *models.ApprovalRequest) error
	FindByID(ctx context.Context, id uint) (*models.ApprovalRequest, error)
	List(ctx context.Context, propertyID uint, status string, query *ListQuery) ([]models.ApprovalRequest, int64, error)

	// ClaimDecision moves a PENDING request to its terminal status with a
	// conditional update; exactly one of two concurrent deciders wins.
	ClaimDecision(ctx context.Context, id uint, decision string, approverID uint, notes string, decidedAt time.Time) error
}

type approvalRepository struct {
	db *gorm.DB
}

// NewApprovalRepository creates a new approval request repository
func NewApprovalRepository(db *gorm.DB) ApprovalRepository {
	return &approvalRepository{db: db}
}

func (r *approvalRepository) Create(ctx context.Context, request *models.ApprovalRequest) error {
	return r.db.WithContext(ctx).Create(request).Error
}

func (r *approvalRepository) FindByID(ctx context.Context, id uint) (*models.ApprovalRequest, error) {
	var request models.ApprovalRequest
	err := r.db.WithContext(ctx).First(&request, id).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *approvalRepository) List(ctx context.Context, propertyID uint, status string, query *ListQuery) ([]models.ApprovalRequest, int64, error) {
	var requests []models.ApprovalRequest
	var total int64

	db := r.db.WithContext(ctx).
		Model(&models.ApprovalRequest{}).
		Where("property_id = ?", propertyID)

	if status != "" {
		db = db.Where("status = ?", status)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Order("requested_at DESC").
		Offset(query.Offset()).
		Limit(query.PerPage).
		Find(&requests).Error
	return requests, total, err
}

func (r *approvalRepository) ClaimDecision(ctx context.Context, id uint, decision string, approverID uint, notes string, decidedAt time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&models.ApprovalRequest{}).
		Where("id = ? AND status = ?", id, models.ApprovalStatusPending).
		Updates(map[string]interface{}{
			"status":         decision,
			"approved_by":    approverID,
			"approved_at":    decidedAt,
			"approval_notes": notes,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrAlreadyDecided
	}
	return nil
}
