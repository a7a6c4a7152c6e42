package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/example/gomarket/internal/datamodels/vendor"
)

type vendorRepo struct {
	db *gorm.DB
}

// NewVendorRepository 创建商家仓储
func NewVendorRepository(db *gorm.DB) vendor.Repository {
	return &vendorRepo{db: db}
}

func (r *vendorRepo) GetByID(ctx context.Context, id int64) (*vendor.Vendor, error) {
	var v vendor.Vendor
	if err := r.db.WithContext(ctx).First(&v, id).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *vendorRepo) GetByUserID(ctx context.Context, userID int64) (*vendor.Vendor, error) {
	var v vendor.Vendor
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&v).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *vendorRepo) GetBySlug(ctx context.Context, slug string) (*vendor.Vendor, error) {
	var v vendor.Vendor
	if err := r.db.WithContext(ctx).Where("shop_slug = ?", slug).First(&v).Error; err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *vendorRepo) ListActive(ctx context.Context, page, limit int) ([]*vendor.Vendor, int64, error) {
	page, limit = normalizePage(page, limit)
	q := r.db.WithContext(ctx).Model(&vendor.Vendor{}).Where("is_active = ?", true)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []*vendor.Vendor
	if err := q.Order("id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *vendorRepo) ListActiveVerified(ctx context.Context) ([]*vendor.Vendor, error) {
	var list []*vendor.Vendor
	if err := r.db.WithContext(ctx).
		Where("is_active = ? AND is_verified = ?", true, true).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *vendorRepo) Create(ctx context.Context, v *vendor.Vendor) error {
	return r.db.WithContext(ctx).Create(v).Error
}

func (r *vendorRepo) Update(ctx context.Context, v *vendor.Vendor) error {
	return r.db.WithContext(ctx).Save(v).Error
}

func (r *vendorRepo) UpdateRating(ctx context.Context, vendorID int64, rating float64, reviewCount int64) error {
	return r.db.WithContext(ctx).
		Model(&vendor.Vendor{}).
		Where("id = ?", vendorID).
		Updates(map[string]interface{}{
			"rating":       rating,
			"review_count": reviewCount,
		}).Error
}
