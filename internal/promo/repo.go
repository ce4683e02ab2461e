package promo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendora-app/vendora-backend/pkg/db/models"
)

// Repository manages persistence for platform promos.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, promo *models.PlatformPromo) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.PlatformPromo, error)
	FindByCode(ctx context.Context, code string) (*models.PlatformPromo, error)
	List(ctx context.Context) ([]models.PlatformPromo, error)
	IncrementUsage(ctx context.Context, id uuid.UUID) (bool, error)
	EndNow(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a promo repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, promo *models.PlatformPromo) error {
	return r.db.WithContext(ctx).Create(promo).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.PlatformPromo, error) {
	var promo models.PlatformPromo
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&promo).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &promo, nil
}

func (r *repository) FindByCode(ctx context.Context, code string) (*models.PlatformPromo, error) {
	var promo models.PlatformPromo
	if err := r.db.WithContext(ctx).
		Where("code = ?", code).
		First(&promo).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &promo, nil
}

func (r *repository) List(ctx context.Context) ([]models.PlatformPromo, error) {
	var promos []models.PlatformPromo
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&promos).Error; err != nil {
		return nil, err
	}
	return promos, nil
}

// IncrementUsage advances current_uses with a guard on max_redemptions in one
// statement. Two concurrent redemptions of the last slot cannot both succeed;
// the loser sees zero affected rows and gets false back.
func (r *repository) IncrementUsage(ctx context.Context, id uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.PlatformPromo{}).
		Where("id = ?", id).
		Where("max_redemptions IS NULL OR current_uses < max_redemptions").
		UpdateColumn("current_uses", gorm.Expr("current_uses + 1"))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// EndNow expires a promo immediately by pulling ends_at to the current time.
func (r *repository) EndNow(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.PlatformPromo{}).
		Where("id = ?", id).
		Update("ends_at", gorm.Expr("CURRENT_TIMESTAMP")).Error
}
