package cart

import (
	"context"
	"time"
)

// Cart 购物车，买家一人一车，首次访问时懒创建
type Cart struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	BuyerID   int64     `gorm:"uniqueIndex;not null" json:"buyer_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Item 购物车条目，PriceAtAdd 在加入时定格，不随商品改价变化
type Item struct {
	ID         int64     `gorm:"primaryKey" json:"id"`
	CartID     int64     `gorm:"index;not null" json:"cart_id"`
	ProductID  int64     `gorm:"index;not null" json:"product_id"`
	Quantity   int64     `gorm:"not null" json:"quantity"`
	PriceAtAdd int64     `gorm:"not null" json:"price_at_add"` // 分
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Repository 购物车仓储接口
type Repository interface {
	// GetOrCreate 返回买家的购物车，不存在时创建
	GetOrCreate(ctx context.Context, buyerID int64) (*Cart, error)
	ListItems(ctx context.Context, cartID int64) ([]*Item, error)
	GetItem(ctx context.Context, itemID int64) (*Item, error)
	CreateItem(ctx context.Context, item *Item) error
	UpdateItem(ctx context.Context, item *Item) error
	DeleteItem(ctx context.Context, itemID int64) error
	ClearItems(ctx context.Context, cartID int64) error
}
