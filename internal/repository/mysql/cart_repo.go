package mysql

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/gomarket/internal/datamodels/cart"
)

type cartRepo struct {
	db *gorm.DB
}

// NewCartRepository 创建购物车仓储
func NewCartRepository(db *gorm.DB) cart.Repository {
	return &cartRepo{db: db}
}

// GetOrCreate 确保买家购物车存在并返回
func (r *cartRepo) GetOrCreate(ctx context.Context, buyerID int64) (*cart.Cart, error) {
	c := cart.Cart{BuyerID: buyerID}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "buyer_id"}},
		DoNothing: true,
	}).Create(&c).Error; err != nil {
		return nil, err
	}
	// OnConflict DoNothing 不回填已有记录，重新查询
	var out cart.Cart
	if err := r.db.WithContext(ctx).Where("buyer_id = ?", buyerID).First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *cartRepo) ListItems(ctx context.Context, cartID int64) ([]*cart.Item, error) {
	var list []*cart.Item
	if err := r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Order("id ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *cartRepo) GetItem(ctx context.Context, itemID int64) (*cart.Item, error) {
	var item cart.Item
	if err := r.db.WithContext(ctx).First(&item, itemID).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *cartRepo) CreateItem(ctx context.Context, item *cart.Item) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *cartRepo) UpdateItem(ctx context.Context, item *cart.Item) error {
	return r.db.WithContext(ctx).Save(item).Error
}

func (r *cartRepo) DeleteItem(ctx context.Context, itemID int64) error {
	return r.db.WithContext(ctx).Delete(&cart.Item{}, itemID).Error
}

func (r *cartRepo) ClearItems(ctx context.Context, cartID int64) error {
	return r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		Delete(&cart.Item{}).Error
}
