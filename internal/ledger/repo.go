package ledger

import (
	"context"

	"github.com/angelmondragon/packfinderz-cartfee/pkg/db/models"
	"github.com/angelmondragon/packfinderz-cartfee/pkg/pagination"
	"gorm.io/gorm"
)

// Repository manages persistence for fee adjustments.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, adjustment *models.FeeAdjustment) error
	ListBySession(ctx context.Context, sessionID string, limit int, cursor *pagination.Cursor) ([]models.FeeAdjustment, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, adjustment *models.FeeAdjustment) error {
	return r.db.WithContext(ctx).Create(adjustment).Error
}

// ListBySession returns the newest adjustments first, starting after cursor.
func (r *repository) ListBySession(ctx context.Context, sessionID string, limit int, cursor *pagination.Cursor) ([]models.FeeAdjustment, error) {
	var out []models.FeeAdjustment
	q := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID)
	if cursor != nil {
		q = q.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt.UTC(), cursor.CreatedAt.UTC(), cursor.ID)
	}
	q = q.Order("created_at DESC").Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
