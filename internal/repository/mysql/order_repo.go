package mysql

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/gomarket/internal/datamodels/cart"
	"github.com/example/gomarket/internal/datamodels/order"
	"github.com/example/gomarket/internal/datamodels/payment"
	"github.com/example/gomarket/internal/datamodels/product"
	"github.com/example/gomarket/internal/datamodels/vendor"
)

type orderRepo struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓储
func NewOrderRepository(db *gorm.DB) order.Repository {
	return &orderRepo{db: db}
}

// CreateCheckout 下单事务：逐个锁定商品复核可售库存并累加预占，
// 然后写入订单、条目、商家分单，最后清空购物车。任一步失败整体回滚。
func (r *orderRepo) CreateCheckout(ctx context.Context, o *order.Order, items []*order.Item, vendorOrders []*order.VendorOrder, cartID int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, item := range items {
			var p product.Product
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				First(&p, item.ProductID).Error; err != nil {
				return fmt.Errorf("商品不存在: %w", err)
			}
			if p.Status != product.StatusPublished {
				return order.ErrProductUnavailable
			}
			if p.Stock-p.Reserved < item.Quantity {
				return order.ErrInsufficientStock
			}
			p.Reserved += item.Quantity
			if err := tx.Save(&p).Error; err != nil {
				return err
			}
		}

		if err := tx.Create(o).Error; err != nil {
			return err
		}
		for _, item := range items {
			item.OrderID = o.ID
			if err := tx.Create(item).Error; err != nil {
				return err
			}
		}
		for _, vo := range vendorOrders {
			vo.OrderID = o.ID
			if err := tx.Create(vo).Error; err != nil {
				return err
			}
		}

		return tx.Where("cart_id = ?", cartID).
			Delete(&cart.Item{}).Error
	})
}

func (r *orderRepo) GetByID(ctx context.Context, id int64) (*order.Order, error) {
	var o order.Order
	if err := r.db.WithContext(ctx).First(&o, id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepo) GetForBuyer(ctx context.Context, id, buyerID int64) (*order.Order, error) {
	var o order.Order
	if err := r.db.WithContext(ctx).
		Where("id = ? AND buyer_id = ?", id, buyerID).
		First(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *orderRepo) ListByBuyer(ctx context.Context, buyerID int64, page, limit int) ([]*order.Order, int64, error) {
	page, limit = normalizePage(page, limit)
	q := r.db.WithContext(ctx).Model(&order.Order{}).Where("buyer_id = ?", buyerID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []*order.Order
	if err := q.Order("id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *orderRepo) ListRecent(ctx context.Context, limit int) ([]*order.Order, error) {
	if limit <= 0 {
		limit = 20
	}
	var list []*order.Order
	if err := r.db.WithContext(ctx).
		Order("id DESC").
		Limit(limit).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *orderRepo) ListItems(ctx context.Context, orderID int64) ([]*order.Item, error) {
	var list []*order.Item
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *orderRepo) GetVendorOrder(ctx context.Context, id int64) (*order.VendorOrder, error) {
	var vo order.VendorOrder
	if err := r.db.WithContext(ctx).First(&vo, id).Error; err != nil {
		return nil, err
	}
	return &vo, nil
}

func (r *orderRepo) ListVendorOrders(ctx context.Context, orderID int64) ([]*order.VendorOrder, error) {
	var list []*order.VendorOrder
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *orderRepo) ListVendorOrdersByVendor(ctx context.Context, vendorID int64, page, limit int) ([]*order.VendorOrder, int64, error) {
	page, limit = normalizePage(page, limit)
	q := r.db.WithContext(ctx).Model(&order.VendorOrder{}).Where("vendor_id = ?", vendorID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var list []*order.VendorOrder
	if err := q.Order("id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&list).Error; err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// ConfirmPayment 支付确认事务：订单与全部分单置为已确认、
// 支付单置为已完成、逐个商家累加销售额与应得收入。
func (r *orderRepo) ConfirmPayment(ctx context.Context, orderID int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var o order.Order
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&o, orderID).Error; err != nil {
			return err
		}
		if o.Status != order.StatusPending {
			return order.ErrNotPending
		}

		o.Status = order.StatusConfirmed
		o.PaymentStatus = order.PaymentCompleted
		if err := tx.Save(&o).Error; err != nil {
			return err
		}

		// 支付前已被商家取消的分单保持取消状态
		if err := tx.Model(&order.VendorOrder{}).
			Where("order_id = ? AND status = ?", orderID, order.StatusPending).
			Update("status", order.StatusConfirmed).Error; err != nil {
			return err
		}

		if err := tx.Model(&payment.Payment{}).
			Where("order_id = ?", orderID).
			Update("status", payment.StatusCompleted).Error; err != nil {
			return err
		}

		// 只给未取消的分单记账
		var vendorOrders []*order.VendorOrder
		if err := tx.Where("order_id = ? AND status = ?", orderID, order.StatusConfirmed).
			Find(&vendorOrders).Error; err != nil {
			return err
		}
		for _, vo := range vendorOrders {
			var v vendor.Vendor
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				First(&v, vo.VendorID).Error; err != nil {
				return err
			}
			v.TotalSales += vo.Subtotal
			v.TotalEarnings += vo.VendorEarnings
			if err := tx.Save(&v).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Cancel 取消事务：仅待支付订单可取消，释放全部预占库存。
func (r *orderRepo) Cancel(ctx context.Context, orderID int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var o order.Order
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&o, orderID).Error; err != nil {
			return err
		}
		if o.Status != order.StatusPending {
			return order.ErrNotPending
		}

		var items []*order.Item
		if err := tx.Where("order_id = ?", orderID).Find(&items).Error; err != nil {
			return err
		}
		for _, item := range items {
			var p product.Product
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				First(&p, item.ProductID).Error; err != nil {
				return err
			}
			p.Reserved -= item.Quantity
			if p.Reserved < 0 {
				p.Reserved = 0
			}
			if err := tx.Save(&p).Error; err != nil {
				return err
			}
		}

		o.Status = order.StatusCancelled
		if o.PaymentStatus == order.PaymentPending {
			o.PaymentStatus = order.PaymentFailed
		}
		if err := tx.Save(&o).Error; err != nil {
			return err
		}
		if err := tx.Model(&order.VendorOrder{}).
			Where("order_id = ?", orderID).
			Update("status", order.StatusCancelled).Error; err != nil {
			return err
		}
		return tx.Model(&payment.Payment{}).
			Where("order_id = ?", orderID).
			Update("status", payment.StatusFailed).Error
	})
}

// UpdateVendorOrderStatus 推进分单状态。商家取消时当场释放该分单的预占；
// 当未取消的分单全部签收后，订单整体置为已送达并核销其余预占
// （reserved 与 stock 同步扣减）；全部分单都取消则订单整体转为已取消。
func (r *orderRepo) UpdateVendorOrderStatus(ctx context.Context, vendorOrderID int64, status order.Status) (*order.VendorOrder, error) {
	var out order.VendorOrder
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var vo order.VendorOrder
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&vo, vendorOrderID).Error; err != nil {
			return err
		}
		if !order.CanTransition(vo.Status, status) {
			return order.ErrInvalidTransition
		}
		vo.Status = status
		if err := tx.Save(&vo).Error; err != nil {
			return err
		}
		out = vo

		if status == order.StatusCancelled {
			// 释放被取消分单的预占
			var items []*order.Item
			if err := tx.Where("order_id = ? AND vendor_id = ?", vo.OrderID, vo.VendorID).
				Find(&items).Error; err != nil {
				return err
			}
			for _, item := range items {
				var p product.Product
				if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
					First(&p, item.ProductID).Error; err != nil {
					return err
				}
				p.Reserved -= item.Quantity
				if p.Reserved < 0 {
					p.Reserved = 0
				}
				if err := tx.Save(&p).Error; err != nil {
					return err
				}
			}
		} else if status != order.StatusDelivered {
			return nil
		}

		// 完成判定忽略已取消的分单
		var open int64
		if err := tx.Model(&order.VendorOrder{}).
			Where("order_id = ? AND status NOT IN ?", vo.OrderID,
				[]order.Status{order.StatusDelivered, order.StatusCancelled}).
			Count(&open).Error; err != nil {
			return err
		}
		if open > 0 {
			return nil
		}

		var delivered int64
		if err := tx.Model(&order.VendorOrder{}).
			Where("order_id = ? AND status = ?", vo.OrderID, order.StatusDelivered).
			Count(&delivered).Error; err != nil {
			return err
		}
		if delivered == 0 {
			// 所有分单都被取消，预占已在各取消分支释放
			return tx.Model(&order.Order{}).
				Where("id = ?", vo.OrderID).
				Update("status", order.StatusCancelled).Error
		}

		// 未取消的分单全部签收，订单整体送达，其预占转为实际售出
		if err := tx.Model(&order.Order{}).
			Where("id = ?", vo.OrderID).
			Update("status", order.StatusDelivered).Error; err != nil {
			return err
		}
		var cancelledVendors []int64
		if err := tx.Model(&order.VendorOrder{}).
			Where("order_id = ? AND status = ?", vo.OrderID, order.StatusCancelled).
			Pluck("vendor_id", &cancelledVendors).Error; err != nil {
			return err
		}
		skip := make(map[int64]bool, len(cancelledVendors))
		for _, id := range cancelledVendors {
			skip[id] = true
		}
		var items []*order.Item
		if err := tx.Where("order_id = ?", vo.OrderID).Find(&items).Error; err != nil {
			return err
		}
		for _, item := range items {
			if skip[item.VendorID] {
				continue // 取消分支已释放
			}
			var p product.Product
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				First(&p, item.ProductID).Error; err != nil {
				return err
			}
			p.Reserved -= item.Quantity
			p.Stock -= item.Quantity
			if p.Reserved < 0 {
				p.Reserved = 0
			}
			if p.Stock < 0 {
				p.Stock = 0
			}
			if err := tx.Save(&p).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
