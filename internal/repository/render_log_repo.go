package repository

import (
	"context"
	"time"

	"invoice-billing-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RenderLogRepository struct {
	db *gorm.DB
}

func NewRenderLogRepository(db *gorm.DB) *RenderLogRepository {
	return &RenderLogRepository{db: db}
}

func (r *RenderLogRepository) Record(ctx context.Context, entry *models.RenderLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	return r.db.WithContext(ctx).Create(entry).Error
}
