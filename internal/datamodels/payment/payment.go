package payment

import (
	"context"
	"time"
)

// 支付方式
const (
	MethodCard   = "CARD"
	MethodCOD    = "COD"
	MethodWallet = "WALLET"
)

// 支付单状态
const (
	StatusPending   = "PENDING"
	StatusCompleted = "COMPLETED"
	StatusFailed    = "FAILED"
)

// Payment 支付单，一个订单至多一条
type Payment struct {
	ID       int64  `gorm:"primaryKey" json:"id"`
	OrderID  int64  `gorm:"uniqueIndex;not null" json:"order_id"`
	Method   string `gorm:"size:16;not null" json:"method"`
	Amount   int64  `gorm:"not null" json:"amount"` // 分
	Currency string `gorm:"size:8;not null" json:"currency"`
	Status   string `gorm:"size:16;index;not null" json:"status"`
	// IntentID / ClientSecret 仅卡支付使用，来自外部支付意向
	IntentID     string    `gorm:"size:64;index" json:"intent_id"`
	ClientSecret string    `gorm:"size:128" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Repository 支付仓储接口
type Repository interface {
	GetByOrderID(ctx context.Context, orderID int64) (*Payment, error)
	Create(ctx context.Context, p *Payment) error
	Update(ctx context.Context, p *Payment) error
}
