package review

import (
	"context"
	"time"
)

// Review 商品评价，仅允许已签收订单的买家发表，
// (product_id, buyer_id, order_id) 全局唯一。
type Review struct {
	ID         int64     `gorm:"primaryKey" json:"id"`
	ProductID  int64     `gorm:"index:idx_review_unique,unique;not null" json:"product_id"`
	BuyerID    int64     `gorm:"index:idx_review_unique,unique;not null" json:"buyer_id"`
	OrderID    int64     `gorm:"index:idx_review_unique,unique;not null" json:"order_id"`
	VendorID   int64     `gorm:"index;not null" json:"vendor_id"`
	Rating     int       `gorm:"not null" json:"rating"` // 1-5
	Title      string    `gorm:"size:128" json:"title"`
	Content    string    `gorm:"size:1024" json:"content"`
	IsApproved bool      `gorm:"index;default:true" json:"is_approved"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Repository 评价仓储接口
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Review, error)
	Get(ctx context.Context, productID, buyerID, orderID int64) (*Review, error)
	ListByProduct(ctx context.Context, productID int64, page, limit int) ([]*Review, int64, error)
	ListByVendor(ctx context.Context, vendorID int64, page, limit int) ([]*Review, int64, error)
	// ListApprovedByProduct / ListApprovedByVendor 用于重算评分聚合
	ListApprovedByProduct(ctx context.Context, productID int64) ([]*Review, error)
	ListApprovedByVendor(ctx context.Context, vendorID int64) ([]*Review, error)
	ListRecent(ctx context.Context, limit int) ([]*Review, error)
	Create(ctx context.Context, r *Review) error
	Update(ctx context.Context, r *Review) error
}
