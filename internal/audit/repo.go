package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vendora-app/vendora-backend/pkg/db/models"
)

// Repository manages persistence for the audit chain. Events are only ever
// inserted; verification reads them back in seq order.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, event *models.AuditEvent) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.AuditEvent, error)
	HeadForUpdate(ctx context.Context) (*models.AuditEvent, error)
	ListAfterSeq(ctx context.Context, afterSeq int64, limit int) ([]models.AuditEvent, error)
	List(ctx context.Context, query ListQuery) ([]models.AuditEvent, int64, error)
	Count(ctx context.Context) (int64, error)
}

// ListQuery filters paged audit reads.
type ListQuery struct {
	ActorID    *uuid.UUID
	Scope      *string
	Action     *string
	TargetType *string
	TargetID   *string
	Severity   *string
	From       *time.Time
	To         *time.Time
	Page       int
	Limit      int
}

const (
	defaultListLimit = 25
	maxListLimit     = 100
	verifyBatchSize  = 500
)

type repository struct {
	db *gorm.DB
}

// NewRepository returns an audit repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, event *models.AuditEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.AuditEvent, error) {
	var event models.AuditEvent
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&event).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &event, nil
}

// HeadForUpdate locks the current chain head for the duration of the
// transaction so concurrent appends serialize instead of forking the chain.
func (r *repository) HeadForUpdate(ctx context.Context) (*models.AuditEvent, error) {
	var event models.AuditEvent
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Order("seq DESC").
		First(&event).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &event, nil
}

func (r *repository) ListAfterSeq(ctx context.Context, afterSeq int64, limit int) ([]models.AuditEvent, error) {
	if limit <= 0 {
		limit = verifyBatchSize
	}
	var events []models.AuditEvent
	if err := r.db.WithContext(ctx).
		Where("seq > ?", afterSeq).
		Order("seq ASC").
		Limit(limit).
		Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (r *repository) List(ctx context.Context, query ListQuery) ([]models.AuditEvent, int64, error) {
	scoped := r.applyFilters(r.db.WithContext(ctx).Model(&models.AuditEvent{}), query)

	var total int64
	if err := scoped.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := query.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	page := query.Page
	if page < 1 {
		page = 1
	}

	var events []models.AuditEvent
	if err := scoped.
		Order("seq DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&events).Error; err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

func (r *repository) applyFilters(scoped *gorm.DB, query ListQuery) *gorm.DB {
	if query.ActorID != nil {
		scoped = scoped.Where("actor_id = ?", *query.ActorID)
	}
	if query.Scope != nil {
		scoped = scoped.Where("scope = ?", *query.Scope)
	}
	if query.Action != nil {
		scoped = scoped.Where("action = ?", *query.Action)
	}
	if query.TargetType != nil {
		scoped = scoped.Where("target_type = ?", *query.TargetType)
	}
	if query.TargetID != nil {
		scoped = scoped.Where("target_id = ?", *query.TargetID)
	}
	if query.Severity != nil {
		scoped = scoped.Where("severity = ?", *query.Severity)
	}
	if query.From != nil {
		scoped = scoped.Where("occurred_at >= ?", *query.From)
	}
	if query.To != nil {
		scoped = scoped.Where("occurred_at < ?", *query.To)
	}
	return scoped
}

func (r *repository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&models.AuditEvent{}).
		Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}
