package order

import "errors"

var (
	// ErrInsufficientStock 可售库存不足（下单事务内复核时触发）
	ErrInsufficientStock = errors.New("库存不足")
	// ErrNotPending 仅待支付订单允许该操作
	ErrNotPending = errors.New("订单状态不允许该操作")
	// ErrInvalidTransition 非法的履约状态流转
	ErrInvalidTransition = errors.New("非法的状态流转")
	// ErrProductUnavailable 商品不可购买（未上架或已下架）
	ErrProductUnavailable = errors.New("商品不可购买")
)
