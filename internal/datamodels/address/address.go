package address

import (
	"context"
	"time"
)

// Address 买家收货地址
type Address struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	BuyerID   int64     `gorm:"index;not null" json:"buyer_id"`
	FullName  string    `gorm:"size:128;not null" json:"full_name"`
	Line1     string    `gorm:"size:255;not null" json:"line1"`
	Line2     string    `gorm:"size:255" json:"line2"`
	City      string    `gorm:"size:64" json:"city"`
	State     string    `gorm:"size:64" json:"state"`
	ZipCode   string    `gorm:"size:16" json:"zip_code"`
	Country   string    `gorm:"size:64" json:"country"`
	IsDefault bool      `gorm:"index" json:"is_default"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Repository 地址仓储接口
type Repository interface {
	GetByID(ctx context.Context, id int64) (*Address, error)
	ListByBuyer(ctx context.Context, buyerID int64) ([]*Address, error)
	Create(ctx context.Context, a *Address) error
	Update(ctx context.Context, a *Address) error
	Delete(ctx context.Context, id int64) error
}
