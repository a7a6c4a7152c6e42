package order

import (
	"context"
	"time"
)

// Order 订单模型，按商家拆分出若干 VendorOrder
type Order struct {
	ID          int64  `gorm:"primaryKey" json:"id"`
	OrderNumber string `gorm:"uniqueIndex;size:32;not null" json:"order_number"`
	BuyerID     int64  `gorm:"index;not null" json:"buyer_id"`
	// ShippingAddress 下单时定格的收货地址快照（JSON）
	ShippingAddress string        `gorm:"size:512" json:"shipping_address"`
	Notes           string        `gorm:"size:512" json:"notes"`
	Subtotal        int64         `gorm:"not null" json:"subtotal"`     // 分
	PlatformFee     int64         `gorm:"not null" json:"platform_fee"` // 分
	Total           int64         `gorm:"not null" json:"total"`        // 分
	Status          Status        `gorm:"size:16;index;not null" json:"status"`
	PaymentStatus   PaymentStatus `gorm:"size:16;index;not null" json:"payment_status"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// Item 订单条目，下单时的商品快照，不可变
type Item struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	OrderID   int64     `gorm:"index;not null" json:"order_id"`
	ProductID int64     `gorm:"index;not null" json:"product_id"`
	VendorID  int64     `gorm:"index;not null" json:"vendor_id"`
	Quantity  int64     `gorm:"not null" json:"quantity"`
	UnitPrice int64     `gorm:"not null" json:"unit_price"` // 分
	Subtotal  int64     `gorm:"not null" json:"subtotal"`   // 分
	CreatedAt time.Time `json:"created_at"`
}

// VendorOrder 订单的按商家分片，各自独立走履约状态
type VendorOrder struct {
	ID             int64     `gorm:"primaryKey" json:"id"`
	OrderID        int64     `gorm:"index;not null" json:"order_id"`
	VendorID       int64     `gorm:"index;not null" json:"vendor_id"`
	Subtotal       int64     `gorm:"not null" json:"subtotal"`        // 分
	PlatformFee    int64     `gorm:"not null" json:"platform_fee"`    // 分
	VendorEarnings int64     `gorm:"not null" json:"vendor_earnings"` // 分
	Status         Status    `gorm:"size:16;index;not null" json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Repository 订单仓储接口。
// 多表写入（下单、支付确认、取消、签收）由实现方放在同一事务中完成。
type Repository interface {
	// CreateCheckout 在一个事务里：锁定并校验库存、累加预占、
	// 写入订单/条目/商家分单、清空购物车。
	CreateCheckout(ctx context.Context, o *Order, items []*Item, vendorOrders []*VendorOrder, cartID int64) error
	GetByID(ctx context.Context, id int64) (*Order, error)
	GetForBuyer(ctx context.Context, id, buyerID int64) (*Order, error)
	ListByBuyer(ctx context.Context, buyerID int64, page, limit int) ([]*Order, int64, error)
	ListRecent(ctx context.Context, limit int) ([]*Order, error)
	ListItems(ctx context.Context, orderID int64) ([]*Item, error)

	GetVendorOrder(ctx context.Context, id int64) (*VendorOrder, error)
	ListVendorOrders(ctx context.Context, orderID int64) ([]*VendorOrder, error)
	ListVendorOrdersByVendor(ctx context.Context, vendorID int64, page, limit int) ([]*VendorOrder, int64, error)

	// ConfirmPayment 在一个事务里推进订单/分单/支付单状态并累加商家销售额
	ConfirmPayment(ctx context.Context, orderID int64) error
	// Cancel 在一个事务里取消订单并释放预占库存
	Cancel(ctx context.Context, orderID int64) error
	// UpdateVendorOrderStatus 更新分单状态；全部分单签收后推进订单为已送达并核销预占库存
	UpdateVendorOrderStatus(ctx context.Context, vendorOrderID int64, status Status) (*VendorOrder, error)
}
