package product

import (
	"context"
	"time"
)

// 商品状态
const (
	StatusDraft     = "DRAFT"
	StatusPublished = "PUBLISHED"
	StatusArchived  = "ARCHIVED"
)

// Product 商品模型
type Product struct {
	ID             int64  `gorm:"primaryKey" json:"id"`
	VendorID       int64  `gorm:"index;not null" json:"vendor_id"`
	Name           string `gorm:"size:128;not null" json:"name"`
	Slug           string `gorm:"uniqueIndex;size:128;not null" json:"slug"`
	Description    string `gorm:"size:1024" json:"description"`
	Price          int64  `gorm:"not null" json:"price"` // 分
	CompareAtPrice int64  `json:"compare_at_price"`
	Category       string `gorm:"size:64;index" json:"category"`
	// Stock 总库存，Reserved 被未完成订单占用的数量，可售 = Stock - Reserved
	Stock       int64     `gorm:"not null" json:"stock"`
	Reserved    int64     `gorm:"not null;default:0" json:"reserved"`
	Status      string    `gorm:"size:16;index;default:DRAFT" json:"status"`
	Rating      float64   `gorm:"type:decimal(3,2);default:0" json:"rating"`
	ReviewCount int64     `gorm:"default:0" json:"review_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Available 当前可售数量
func (p *Product) Available() int64 {
	return p.Stock - p.Reserved
}

// SearchQuery 商品搜索条件
type SearchQuery struct {
	Keyword  string
	Category string
	MinPrice int64 // 分，0 表示不限
	MaxPrice int64 // 分，0 表示不限
	Page     int
	Limit    int
}

// Repository 商品仓储接口
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Product, error)
	GetBySlug(ctx context.Context, slug string) (*Product, error)
	ListByVendor(ctx context.Context, vendorID int64, page, limit int) ([]*Product, int64, error)
	ListPublishedByVendor(ctx context.Context, vendorID int64) ([]*Product, error)
	ListPublished(ctx context.Context, page, limit int) ([]*Product, int64, error)
	// ListTopByVendor 按评价数倒序取商家头部商品（仪表盘用）
	ListTopByVendor(ctx context.Context, vendorID int64, limit int) ([]*Product, error)
	Search(ctx context.Context, q SearchQuery) ([]*Product, int64, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id int64) error
	// UpdateRating 更新评分聚合字段
	UpdateRating(ctx context.Context, productID int64, rating float64, reviewCount int64) error
}
