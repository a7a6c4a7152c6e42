package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/gomarket/internal/config"
	"github.com/example/gomarket/internal/datamodels/address"
	"github.com/example/gomarket/internal/datamodels/cart"
	"github.com/example/gomarket/internal/datamodels/order"
	"github.com/example/gomarket/internal/datamodels/payment"
	"github.com/example/gomarket/internal/datamodels/product"
)

var (
	// ErrCartEmpty 购物车为空，无法结算
	ErrCartEmpty = errors.New("购物车为空")
	// ErrAddressNotFound 地址不存在或不属于该买家
	ErrAddressNotFound = errors.New("收货地址不存在")
	// ErrOrderNotFound 订单不存在或不属于该买家
	ErrOrderNotFound = errors.New("订单不存在")
	// ErrPaymentMissing 尚未选择支付方式
	ErrPaymentMissing = errors.New("支付单不存在")
	// ErrUnsupportedMethod 不支持的支付方式
	ErrUnsupportedMethod = errors.New("不支持的支付方式")
	// ErrVendorOrderNotFound 分单不存在或不属于该商家
	ErrVendorOrderNotFound = errors.New("商家分单不存在")
)

type OrderService struct {
	cartRepo    cart.Repository
	productRepo product.Repository
	addressRepo address.Repository
	orderRepo   order.Repository
	paymentRepo payment.Repository
	publisher   *EventPublisher
	market      *config.MarketConfig
}

func NewOrderService(
	cartRepo cart.Repository,
	productRepo product.Repository,
	addressRepo address.Repository,
	orderRepo order.Repository,
	paymentRepo payment.Repository,
	publisher *EventPublisher,
	market *config.MarketConfig,
) *OrderService {
	return &OrderService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		addressRepo: addressRepo,
		orderRepo:   orderRepo,
		paymentRepo: paymentRepo,
		publisher:   publisher,
		market:      market,
	}
}

// platformFee 按平台抽成百分比计算费用，四舍五入到分
func platformFee(subtotal int64, percent float64) int64 {
	return int64(math.Round(float64(subtotal) * percent / 100))
}

// newOrderNumber 生成订单号：日期 + 随机后缀
func newOrderNumber() string {
	buf := make([]byte, 4)
	_, _ = rand.Read(buf)
	return fmt.Sprintf("ORD-%s-%s", time.Now().Format("20060102"), hex.EncodeToString(buf))
}

// newPaymentIntent 生成卡支付的支付意向引用与 client secret。
// 这里本地生成引用，由前端带着 secret 去完成支付流程。
func newPaymentIntent() (intentID, clientSecret string) {
	buf := make([]byte, 12)
	_, _ = rand.Read(buf)
	intentID = "pi_" + hex.EncodeToString(buf)
	secret := make([]byte, 8)
	_, _ = rand.Read(secret)
	clientSecret = intentID + "_secret_" + hex.EncodeToString(secret)
	return intentID, clientSecret
}

// addressSnapshot 下单时定格的收货地址
type addressSnapshot struct {
	FullName string `json:"full_name"`
	Line1    string `json:"line1"`
	Line2    string `json:"line2,omitempty"`
	City     string `json:"city"`
	State    string `json:"state"`
	ZipCode  string `json:"zip_code"`
	Country  string `json:"country"`
}

// CheckoutResult 下单结果
type CheckoutResult struct {
	Order        *order.Order         `json:"order"`
	Items        []*order.Item        `json:"items"`
	VendorOrders []*order.VendorOrder `json:"vendor_orders"`
}

// Checkout 结算：按商家拆分购物车、逐商家计算平台抽成、
// 在同一事务里落库并预占库存、清空购物车。
func (s *OrderService) Checkout(ctx context.Context, buyerID, addressID int64, notes string) (*CheckoutResult, error) {
	GetMonitor().RecordCheckoutRequest()

	c, err := s.cartRepo.GetOrCreate(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	cartItems, err := s.cartRepo.ListItems(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	if len(cartItems) == 0 {
		GetMonitor().RecordCheckoutError()
		return nil, ErrCartEmpty
	}

	addr, err := s.addressRepo.GetByID(ctx, addressID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			GetMonitor().RecordCheckoutError()
			return nil, ErrAddressNotFound
		}
		return nil, err
	}
	if addr.BuyerID != buyerID {
		GetMonitor().RecordCheckoutError()
		return nil, ErrAddressNotFound
	}

	// 按商家分组，条目单价取下单时的商品现价
	type vendorAgg struct {
		vendorID int64
		subtotal int64
	}
	var (
		orderItems  []*order.Item
		aggs        []*vendorAgg
		aggByVendor = make(map[int64]*vendorAgg)
		subtotal    int64
		productIDs  []int64
	)
	for _, item := range cartItems {
		p, err := s.productRepo.GetByID(ctx, item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("商品不存在: %w", err)
		}
		lineTotal := p.Price * item.Quantity
		orderItems = append(orderItems, &order.Item{
			ProductID: p.ID,
			VendorID:  p.VendorID,
			Quantity:  item.Quantity,
			UnitPrice: p.Price,
			Subtotal:  lineTotal,
		})
		agg, ok := aggByVendor[p.VendorID]
		if !ok {
			agg = &vendorAgg{vendorID: p.VendorID}
			aggByVendor[p.VendorID] = agg
			aggs = append(aggs, agg)
		}
		agg.subtotal += lineTotal
		subtotal += lineTotal
		productIDs = append(productIDs, p.ID)
	}

	var (
		vendorOrders []*order.VendorOrder
		totalFee     int64
	)
	for _, agg := range aggs {
		fee := platformFee(agg.subtotal, s.market.PlatformFeePercent)
		totalFee += fee
		vendorOrders = append(vendorOrders, &order.VendorOrder{
			VendorID:       agg.vendorID,
			Subtotal:       agg.subtotal,
			PlatformFee:    fee,
			VendorEarnings: agg.subtotal - fee,
			Status:         order.StatusPending,
		})
	}

	snapshot, err := json.Marshal(addressSnapshot{
		FullName: addr.FullName,
		Line1:    addr.Line1,
		Line2:    addr.Line2,
		City:     addr.City,
		State:    addr.State,
		ZipCode:  addr.ZipCode,
		Country:  addr.Country,
	})
	if err != nil {
		return nil, err
	}

	o := &order.Order{
		OrderNumber:     newOrderNumber(),
		BuyerID:         buyerID,
		ShippingAddress: string(snapshot),
		Notes:           notes,
		Subtotal:        subtotal,
		PlatformFee:     totalFee,
		Total:           subtotal + totalFee,
		Status:          order.StatusPending,
		PaymentStatus:   order.PaymentPending,
	}
	if err := s.orderRepo.CreateCheckout(ctx, o, orderItems, vendorOrders, c.ID); err != nil {
		GetMonitor().RecordCheckoutError()
		return nil, err
	}
	GetMonitor().RecordCheckoutSuccess()

	if err := s.publisher.Publish(ctx, &OrderEvent{
		Type:       EventOrderCreated,
		OrderID:    o.ID,
		BuyerID:    buyerID,
		ProductIDs: productIDs,
	}); err != nil {
		zap.L().Warn("publish order created event failed", zap.Int64("order_id", o.ID), zap.Error(err))
	}

	return &CheckoutResult{Order: o, Items: orderItems, VendorOrders: vendorOrders}, nil
}

// PaymentSelection 选择支付方式的返回
type PaymentSelection struct {
	PaymentID int64  `json:"payment_id"`
	Method    string `json:"method"`
	Amount    int64  `json:"amount"` // 分
	// ClientSecret 仅卡支付返回，由调用方完成支付
	ClientSecret string `json:"client_secret,omitempty"`
}

// SelectPayment 选择支付方式：创建待支付的支付单，
// 卡支付额外生成支付意向引用与 client secret。
func (s *OrderService) SelectPayment(ctx context.Context, buyerID, orderID int64, method string) (*PaymentSelection, error) {
	switch method {
	case payment.MethodCard, payment.MethodCOD, payment.MethodWallet:
	default:
		return nil, ErrUnsupportedMethod
	}

	o, err := s.orderRepo.GetForBuyer(ctx, orderID, buyerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	pay := &payment.Payment{
		OrderID:  o.ID,
		Method:   method,
		Amount:   o.Total,
		Currency: s.market.Currency,
		Status:   payment.StatusPending,
	}
	if method == payment.MethodCard {
		pay.IntentID, pay.ClientSecret = newPaymentIntent()
	}
	if err := s.paymentRepo.Create(ctx, pay); err != nil {
		GetMonitor().RecordPaymentError()
		return nil, err
	}

	sel := &PaymentSelection{
		PaymentID: pay.ID,
		Method:    pay.Method,
		Amount:    pay.Amount,
	}
	if method == payment.MethodCard {
		sel.ClientSecret = pay.ClientSecret
	}
	return sel, nil
}

// ConfirmPayment 支付确认：要求支付单已存在，事务内推进订单/分单/
// 支付单状态并累加商家销售额，然后广播事件。
func (s *OrderService) ConfirmPayment(ctx context.Context, buyerID, orderID int64) (*OrderDetail, error) {
	o, err := s.orderRepo.GetForBuyer(ctx, orderID, buyerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if _, err := s.paymentRepo.GetByOrderID(ctx, o.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentMissing
		}
		return nil, err
	}

	if err := s.orderRepo.ConfirmPayment(ctx, o.ID); err != nil {
		GetMonitor().RecordPaymentError()
		return nil, err
	}
	GetMonitor().RecordPaymentConfirmed()

	s.publishOrderEvent(ctx, EventOrderPaid, o.ID, buyerID)
	return s.GetDetail(ctx, buyerID, orderID)
}

// Cancel 买家取消待支付订单，释放预占库存
func (s *OrderService) Cancel(ctx context.Context, buyerID, orderID int64) (*OrderDetail, error) {
	o, err := s.orderRepo.GetForBuyer(ctx, orderID, buyerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if err := s.orderRepo.Cancel(ctx, o.ID); err != nil {
		return nil, err
	}
	s.publishOrderEvent(ctx, EventOrderCancelled, o.ID, buyerID)
	return s.GetDetail(ctx, buyerID, orderID)
}

// publishOrderEvent 广播订单事件，失败只记日志不影响主流程
func (s *OrderService) publishOrderEvent(ctx context.Context, eventType string, orderID, buyerID int64) {
	items, err := s.orderRepo.ListItems(ctx, orderID)
	if err != nil {
		zap.L().Warn("load order items for event failed", zap.Int64("order_id", orderID), zap.Error(err))
		return
	}
	productIDs := make([]int64, 0, len(items))
	for _, item := range items {
		productIDs = append(productIDs, item.ProductID)
	}
	if err := s.publisher.Publish(ctx, &OrderEvent{
		Type:       eventType,
		OrderID:    orderID,
		BuyerID:    buyerID,
		ProductIDs: productIDs,
	}); err != nil {
		zap.L().Warn("publish order event failed",
			zap.String("type", eventType),
			zap.Int64("order_id", orderID),
			zap.Error(err))
	}
}

// OrderDetail 订单详情：订单 + 条目 + 商家分单 + 支付单（可为空）
type OrderDetail struct {
	Order        *order.Order         `json:"order"`
	Items        []*order.Item        `json:"items"`
	VendorOrders []*order.VendorOrder `json:"vendor_orders"`
	Payment      *payment.Payment     `json:"payment,omitempty"`
}

// GetDetail 买家查看订单详情
func (s *OrderService) GetDetail(ctx context.Context, buyerID, orderID int64) (*OrderDetail, error) {
	o, err := s.orderRepo.GetForBuyer(ctx, orderID, buyerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	items, err := s.orderRepo.ListItems(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	vendorOrders, err := s.orderRepo.ListVendorOrders(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	detail := &OrderDetail{Order: o, Items: items, VendorOrders: vendorOrders}
	if pay, err := s.paymentRepo.GetByOrderID(ctx, o.ID); err == nil {
		detail.Payment = pay
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return detail, nil
}

// ListByBuyer 买家订单列表（分页）
func (s *OrderService) ListByBuyer(ctx context.Context, buyerID int64, page, limit int) ([]*order.Order, int64, error) {
	return s.orderRepo.ListByBuyer(ctx, buyerID, page, limit)
}

// ListVendorOrders 商家分单列表（分页）
func (s *OrderService) ListVendorOrders(ctx context.Context, vendorID int64, page, limit int) ([]*order.VendorOrder, int64, error) {
	return s.orderRepo.ListVendorOrdersByVendor(ctx, vendorID, page, limit)
}

// ListRecent 后台最近订单
func (s *OrderService) ListRecent(ctx context.Context, limit int) ([]*order.Order, error) {
	return s.orderRepo.ListRecent(ctx, limit)
}

// UpdateVendorOrderStatus 商家推进自己分单的履约状态，
// 状态流转由 order.CanTransition 把关。
func (s *OrderService) UpdateVendorOrderStatus(ctx context.Context, vendorID, vendorOrderID int64, status order.Status) (*order.VendorOrder, error) {
	if !status.Valid() {
		return nil, order.ErrInvalidTransition
	}
	vo, err := s.orderRepo.GetVendorOrder(ctx, vendorOrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVendorOrderNotFound
		}
		return nil, err
	}
	if vo.VendorID != vendorID {
		return nil, ErrVendorOrderNotFound
	}

	updated, err := s.orderRepo.UpdateVendorOrderStatus(ctx, vendorOrderID, status)
	if err != nil {
		return nil, err
	}
	switch status {
	case order.StatusDelivered:
		s.publishOrderEvent(ctx, EventOrderDelivered, vo.OrderID, 0)
	case order.StatusCancelled:
		// 预占释放，通知刷新可售缓存
		s.publishOrderEvent(ctx, EventOrderCancelled, vo.OrderID, 0)
	}
	return updated, nil
}
