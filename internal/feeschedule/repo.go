package feeschedule

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendora-app/vendora-backend/pkg/db/models"
	"github.com/vendora-app/vendora-backend/pkg/enums"
)

// Repository manages fee schedule versions. Rows are appended; the only write
// after insert is closing a version's active window when its successor lands.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, schedule *models.FeeSchedule) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.FeeSchedule, error)
	FindActive(ctx context.Context, scope enums.FeeScope, scopeRef *string, asOf time.Time) (*models.FeeSchedule, error)
	ListByScope(ctx context.Context, scope enums.FeeScope, scopeRef *string) ([]models.FeeSchedule, error)
	MaxVersion(ctx context.Context, scope enums.FeeScope, scopeRef *string) (int, error)
	CloseOpenVersions(ctx context.Context, scope enums.FeeScope, scopeRef *string, closeAt time.Time) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a fee schedule repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, schedule *models.FeeSchedule) error {
	return r.db.WithContext(ctx).Create(schedule).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.FeeSchedule, error) {
	var schedule models.FeeSchedule
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&schedule).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &schedule, nil
}

// FindActive returns the winning version for a scope at the given instant.
// The active window is half-open: active_from <= asOf < active_to. When
// several versions overlap, the highest version wins.
func (r *repository) FindActive(ctx context.Context, scope enums.FeeScope, scopeRef *string, asOf time.Time) (*models.FeeSchedule, error) {
	var schedule models.FeeSchedule
	scoped := r.scopeQuery(ctx, scope, scopeRef).
		Where("active_from <= ?", asOf).
		Where("active_to IS NULL OR active_to > ?", asOf).
		Order("version DESC")
	if err := scoped.First(&schedule).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &schedule, nil
}

func (r *repository) ListByScope(ctx context.Context, scope enums.FeeScope, scopeRef *string) ([]models.FeeSchedule, error) {
	var schedules []models.FeeSchedule
	if err := r.scopeQuery(ctx, scope, scopeRef).
		Order("version ASC").
		Find(&schedules).Error; err != nil {
		return nil, err
	}
	return schedules, nil
}

func (r *repository) MaxVersion(ctx context.Context, scope enums.FeeScope, scopeRef *string) (int, error) {
	var version int
	if err := r.scopeQuery(ctx, scope, scopeRef).
		Select("COALESCE(MAX(version), 0)").
		Scan(&version).Error; err != nil {
		return 0, err
	}
	return version, nil
}

// CloseOpenVersions caps every still-open version of a scope at closeAt so the
// successor version takes over without an overlap.
func (r *repository) CloseOpenVersions(ctx context.Context, scope enums.FeeScope, scopeRef *string, closeAt time.Time) error {
	return r.scopeQuery(ctx, scope, scopeRef).
		Where("active_to IS NULL OR active_to > ?", closeAt).
		Update("active_to", closeAt).Error
}

func (r *repository) scopeQuery(ctx context.Context, scope enums.FeeScope, scopeRef *string) *gorm.DB {
	scoped := r.db.WithContext(ctx).
		Model(&models.FeeSchedule{}).
		Where("scope = ?", scope)
	if scopeRef == nil {
		return scoped.Where("scope_ref IS NULL")
	}
	return scoped.Where("scope_ref = ?", *scopeRef)
}
