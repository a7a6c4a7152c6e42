package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/example/gomarket/internal/datamodels/review"
)

type reviewRepo struct {
	db *gorm.DB
}

// NewReviewRepository 创建评价仓储
func NewReviewRepository(db *gorm.DB) review.Repository {
	return &reviewRepo{db: db}
}

func (r *reviewRepo) GetByID(ctx context.Context, id int64) (*review.Review, error) {
	var rv review.Review
	if err := r.db.WithContext(ctx).First(&rv, id).Error; err != nil {
		return nil, err
	}
	return &rv, nil
}

// Get 查询 (product, buyer, order) 三元组对应的评价，不存在返回 (nil, nil)
func (r *reviewRepo) Get(ctx context.Context, productID, buyerID, orderID int64) (*review.Review, error) {
	var rv review.Review
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND buyer_id = ? AND order_id = ?", productID, buyerID, orderID).
		First(&rv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rv, nil
}

func (r *reviewRepo) ListByProduct(ctx context.Context, productID int64, page, limit int) ([]*review.Review, int64, error) {
	page, limit = normalizePage(page, limit)
	q := r.db.WithContext(ctx).Model(&review.Review{}).
		Where("product_id = ? AND is_approved = ?", productID, true)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []*review.Review
	if err := q.Order("id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *reviewRepo) ListByVendor(ctx context.Context, vendorID int64, page, limit int) ([]*review.Review, int64, error) {
	page, limit = normalizePage(page, limit)
	q := r.db.WithContext(ctx).Model(&review.Review{}).
		Where("vendor_id = ? AND is_approved = ?", vendorID, true)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []*review.Review
	if err := q.Order("id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *reviewRepo) ListApprovedByProduct(ctx context.Context, productID int64) ([]*review.Review, error) {
	var list []*review.Review
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND is_approved = ?", productID, true).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *reviewRepo) ListApprovedByVendor(ctx context.Context, vendorID int64) ([]*review.Review, error) {
	var list []*review.Review
	if err := r.db.WithContext(ctx).
		Where("vendor_id = ? AND is_approved = ?", vendorID, true).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *reviewRepo) ListRecent(ctx context.Context, limit int) ([]*review.Review, error) {
	if limit <= 0 {
		limit = 50
	}
	var list []*review.Review
	if err := r.db.WithContext(ctx).
		Order("id DESC").
		Limit(limit).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *reviewRepo) Create(ctx context.Context, rv *review.Review) error {
	return r.db.WithContext(ctx).Create(rv).Error
}

func (r *reviewRepo) Update(ctx context.Context, rv *review.Review) error {
	return r.db.WithContext(ctx).Save(rv).Error
}
