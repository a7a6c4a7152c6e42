package mysql

import (
	"context"

	"gorm.io/gorm"

	"github.com/example/gomarket/internal/datamodels/product"
)

type productRepo struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓储
func NewProductRepository(db *gorm.DB) product.Repository {
	return &productRepo{db: db}
}

func (r *productRepo) GetByID(ctx context.Context, id int64) (*product.Product, error) {
	var p product.Product
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) GetBySlug(ctx context.Context, slug string) (*product.Product, error) {
	var p product.Product
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) ListByVendor(ctx context.Context, vendorID int64, page, limit int) ([]*product.Product, int64, error) {
	page, limit = normalizePage(page, limit)
	q := r.db.WithContext(ctx).Model(&product.Product{}).Where("vendor_id = ?", vendorID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []*product.Product
	if err := q.Order("id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *productRepo) ListPublishedByVendor(ctx context.Context, vendorID int64) ([]*product.Product, error) {
	var list []*product.Product
	if err := r.db.WithContext(ctx).
		Where("vendor_id = ? AND status = ?", vendorID, product.StatusPublished).
		Order("id DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *productRepo) ListPublished(ctx context.Context, page, limit int) ([]*product.Product, int64, error) {
	page, limit = normalizePage(page, limit)
	q := r.db.WithContext(ctx).Model(&product.Product{}).Where("status = ?", product.StatusPublished)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []*product.Product
	if err := q.Order("id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *productRepo) ListTopByVendor(ctx context.Context, vendorID int64, limit int) ([]*product.Product, error) {
	if limit <= 0 {
		limit = 5
	}
	var list []*product.Product
	if err := r.db.WithContext(ctx).
		Where("vendor_id = ?", vendorID).
		Order("review_count DESC").
		Limit(limit).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *productRepo) Search(ctx context.Context, sq product.SearchQuery) ([]*product.Product, int64, error) {
	page, limit := normalizePage(sq.Page, sq.Limit)

	q := r.db.WithContext(ctx).Model(&product.Product{}).
		Where("status = ?", product.StatusPublished)
	if sq.Keyword != "" {
		kw := "%" + sq.Keyword + "%"
		q = q.Where("name LIKE ? OR description LIKE ?", kw, kw)
	}
	if sq.Category != "" {
		q = q.Where("category = ?", sq.Category)
	}
	if sq.MinPrice > 0 {
		q = q.Where("price >= ?", sq.MinPrice)
	}
	if sq.MaxPrice > 0 {
		q = q.Where("price <= ?", sq.MaxPrice)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []*product.Product
	if err := q.Order("id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *productRepo) Create(ctx context.Context, p *product.Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *productRepo) Update(ctx context.Context, p *product.Product) error {
	return r.db.WithContext(ctx).Save(p).Error
}

func (r *productRepo) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Delete(&product.Product{}, id).Error
}

func (r *productRepo) UpdateRating(ctx context.Context, productID int64, rating float64, reviewCount int64) error {
	return r.db.WithContext(ctx).
		Model(&product.Product{}).
		Where("id = ?", productID).
		Updates(map[string]interface{}{
			"rating":       rating,
			"review_count": reviewCount,
		}).Error
}
