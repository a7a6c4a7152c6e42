package service

import (
	"context"
	"errors"
	"testing"

	"github.com/example/gomarket/internal/config"
	"github.com/example/gomarket/internal/datamodels/address"
	"github.com/example/gomarket/internal/datamodels/order"
	"github.com/example/gomarket/internal/datamodels/payment"
	"github.com/example/gomarket/internal/datamodels/product"
	"github.com/example/gomarket/internal/datamodels/user"
	"github.com/example/gomarket/internal/datamodels/vendor"
)

type fixture struct {
	users    *memUserRepo
	vendors  *memVendorRepo
	products *memProductRepo
	carts    *memCartRepo
	addrs    *memAddressRepo
	payments *memPaymentRepo
	orders   *memOrderRepo

	cartSvc  *CartService
	orderSvc *OrderService

	buyer    *user.User
	addr     *address.Address
	vendorA  *vendor.Vendor
	vendorB  *vendor.Vendor
	productA *product.Product // 100.00，vendorA
	productB *product.Product // 50.00，vendorB
}

// newFixture 买家 + 两个商家各一件已上架商品 + 一条收货地址
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	f := &fixture{
		users:    newMemUserRepo(),
		vendors:  newMemVendorRepo(),
		products: newMemProductRepo(),
		carts:    newMemCartRepo(),
		addrs:    newMemAddressRepo(),
		payments: newMemPaymentRepo(),
	}
	f.orders = newMemOrderRepo(f.products, f.carts, f.payments, f.vendors)

	market := &config.MarketConfig{PlatformFeePercent: 10, Currency: "USD"}
	f.cartSvc = NewCartService(f.carts, f.products)
	f.orderSvc = NewOrderService(f.carts, f.products, f.addrs, f.orders, f.payments,
		NewEventPublisher(nil), market)

	f.buyer = &user.User{Email: "buyer@example.com", Role: user.RoleBuyer}
	if err := f.users.Create(ctx, f.buyer); err != nil {
		t.Fatal(err)
	}
	f.addr = &address.Address{BuyerID: f.buyer.ID, FullName: "张三", Line1: "中山路 1 号", City: "上海", Country: "CN"}
	if err := f.addrs.Create(ctx, f.addr); err != nil {
		t.Fatal(err)
	}

	f.vendorA = &vendor.Vendor{UserID: 100, ShopName: "A 店", ShopSlug: "a-shop", IsActive: true}
	f.vendorB = &vendor.Vendor{UserID: 101, ShopName: "B 店", ShopSlug: "b-shop", IsActive: true}
	if err := f.vendors.Create(ctx, f.vendorA); err != nil {
		t.Fatal(err)
	}
	if err := f.vendors.Create(ctx, f.vendorB); err != nil {
		t.Fatal(err)
	}

	f.productA = &product.Product{
		VendorID: f.vendorA.ID, Name: "茶壶", Slug: "teapot",
		Price: 10000, Stock: 10, Status: product.StatusPublished,
	}
	f.productB = &product.Product{
		VendorID: f.vendorB.ID, Name: "茶杯", Slug: "teacup",
		Price: 5000, Stock: 10, Status: product.StatusPublished,
	}
	if err := f.products.Create(ctx, f.productA); err != nil {
		t.Fatal(err)
	}
	if err := f.products.Create(ctx, f.productB); err != nil {
		t.Fatal(err)
	}
	return f
}

// fillCart A 店商品 2 件 + B 店商品 1 件，合计 250.00
func (f *fixture) fillCart(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	if _, err := f.cartSvc.AddItem(ctx, f.buyer.ID, f.productA.ID, 2); err != nil {
		t.Fatal(err)
	}
	if _, err := f.cartSvc.AddItem(ctx, f.buyer.ID, f.productB.ID, 1); err != nil {
		t.Fatal(err)
	}
}

func TestCheckoutSplitsByVendorAndComputesFees(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t)
	ctx := context.Background()

	result, err := f.orderSvc.Checkout(ctx, f.buyer.ID, f.addr.ID, "尽快发货")
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	o := result.Order
	if o.Subtotal != 25000 || o.PlatformFee != 2500 || o.Total != 27500 {
		t.Fatalf("order money = %d/%d/%d, want 25000/2500/27500",
			o.Subtotal, o.PlatformFee, o.Total)
	}
	if o.Status != order.StatusPending || o.PaymentStatus != order.PaymentPending {
		t.Fatalf("unexpected initial status %s/%s", o.Status, o.PaymentStatus)
	}

	if len(result.VendorOrders) != 2 {
		t.Fatalf("vendor orders = %d, want 2", len(result.VendorOrders))
	}
	var sum int64
	byVendor := map[int64]*order.VendorOrder{}
	for _, vo := range result.VendorOrders {
		sum += vo.Subtotal
		byVendor[vo.VendorID] = vo
		if vo.Subtotal != vo.PlatformFee+vo.VendorEarnings {
			t.Fatalf("vendor %d: subtotal %d != fee %d + earnings %d",
				vo.VendorID, vo.Subtotal, vo.PlatformFee, vo.VendorEarnings)
		}
	}
	if sum != o.Subtotal {
		t.Fatalf("sum of vendor subtotals %d != order subtotal %d", sum, o.Subtotal)
	}
	voA := byVendor[f.vendorA.ID]
	if voA == nil || voA.Subtotal != 20000 || voA.PlatformFee != 2000 || voA.VendorEarnings != 18000 {
		t.Fatalf("vendor A split wrong: %+v", voA)
	}
	voB := byVendor[f.vendorB.ID]
	if voB == nil || voB.Subtotal != 5000 || voB.PlatformFee != 500 || voB.VendorEarnings != 4500 {
		t.Fatalf("vendor B split wrong: %+v", voB)
	}

	// 预占库存
	if f.productA.Reserved != 2 || f.productB.Reserved != 1 {
		t.Fatalf("reserved = %d/%d, want 2/1", f.productA.Reserved, f.productB.Reserved)
	}
	// 购物车已清空
	view, err := f.cartSvc.Get(ctx, f.buyer.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(view.Items) != 0 {
		t.Fatalf("cart not cleared, %d items left", len(view.Items))
	}
}

func TestCheckoutUsesLiveProductPrice(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if _, err := f.cartSvc.AddItem(ctx, f.buyer.ID, f.productA.ID, 1); err != nil {
		t.Fatal(err)
	}
	// 加车后改价，结算按现价
	f.productA.Price = 12000

	result, err := f.orderSvc.Checkout(ctx, f.buyer.ID, f.addr.ID, "")
	if err != nil {
		t.Fatal(err)
	}
	if result.Order.Subtotal != 12000 {
		t.Fatalf("subtotal = %d, want live price 12000", result.Order.Subtotal)
	}
	if result.Items[0].UnitPrice != 12000 {
		t.Fatalf("unit price = %d, want 12000", result.Items[0].UnitPrice)
	}
}

func TestCheckoutEmptyCart(t *testing.T) {
	f := newFixture(t)
	_, err := f.orderSvc.Checkout(context.Background(), f.buyer.ID, f.addr.ID, "")
	if !errors.Is(err, ErrCartEmpty) {
		t.Fatalf("err = %v, want ErrCartEmpty", err)
	}
}

func TestCheckoutForeignAddressRejected(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t)
	ctx := context.Background()

	other := &address.Address{BuyerID: 999, FullName: "李四", Line1: "人民路 2 号"}
	if err := f.addrs.Create(ctx, other); err != nil {
		t.Fatal(err)
	}

	if _, err := f.orderSvc.Checkout(ctx, f.buyer.ID, other.ID, ""); !errors.Is(err, ErrAddressNotFound) {
		t.Fatalf("foreign address err = %v, want ErrAddressNotFound", err)
	}
	if _, err := f.orderSvc.Checkout(ctx, f.buyer.ID, 12345, ""); !errors.Is(err, ErrAddressNotFound) {
		t.Fatalf("missing address err = %v, want ErrAddressNotFound", err)
	}
}

func TestSelectPayment(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t)
	ctx := context.Background()

	result, err := f.orderSvc.Checkout(ctx, f.buyer.ID, f.addr.ID, "")
	if err != nil {
		t.Fatal(err)
	}
	orderID := result.Order.ID

	if _, err := f.orderSvc.SelectPayment(ctx, f.buyer.ID, orderID, "BARTER"); !errors.Is(err, ErrUnsupportedMethod) {
		t.Fatalf("err = %v, want ErrUnsupportedMethod", err)
	}
	if _, err := f.orderSvc.SelectPayment(ctx, 999, orderID, payment.MethodCard); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("foreign buyer err = %v, want ErrOrderNotFound", err)
	}

	sel, err := f.orderSvc.SelectPayment(ctx, f.buyer.ID, orderID, payment.MethodCard)
	if err != nil {
		t.Fatal(err)
	}
	if sel.Amount != result.Order.Total {
		t.Fatalf("payment amount = %d, want %d", sel.Amount, result.Order.Total)
	}
	if sel.ClientSecret == "" {
		t.Fatal("card payment should return a client secret")
	}
	pay, err := f.payments.GetByOrderID(ctx, orderID)
	if err != nil {
		t.Fatal(err)
	}
	if pay.Status != payment.StatusPending || pay.IntentID == "" {
		t.Fatalf("payment record wrong: %+v", pay)
	}
}

func TestConfirmPaymentRequiresPaymentRecord(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t)
	ctx := context.Background()

	result, err := f.orderSvc.Checkout(ctx, f.buyer.ID, f.addr.ID, "")
	if err != nil {
		t.Fatal(err)
	}
	orderID := result.Order.ID

	if _, err := f.orderSvc.ConfirmPayment(ctx, f.buyer.ID, orderID); !errors.Is(err, ErrPaymentMissing) {
		t.Fatalf("err = %v, want ErrPaymentMissing", err)
	}

	if _, err := f.orderSvc.SelectPayment(ctx, f.buyer.ID, orderID, payment.MethodCOD); err != nil {
		t.Fatal(err)
	}
	detail, err := f.orderSvc.ConfirmPayment(ctx, f.buyer.ID, orderID)
	if err != nil {
		t.Fatal(err)
	}
	if detail.Order.Status != order.StatusConfirmed || detail.Order.PaymentStatus != order.PaymentCompleted {
		t.Fatalf("order status = %s/%s, want CONFIRMED/COMPLETED",
			detail.Order.Status, detail.Order.PaymentStatus)
	}
	if detail.Payment == nil || detail.Payment.Status != payment.StatusCompleted {
		t.Fatalf("payment not completed: %+v", detail.Payment)
	}

	// 商家销售额入账
	if f.vendorA.TotalSales != 20000 || f.vendorA.TotalEarnings != 18000 {
		t.Fatalf("vendor A totals = %d/%d, want 20000/18000",
			f.vendorA.TotalSales, f.vendorA.TotalEarnings)
	}
	if f.vendorB.TotalSales != 5000 || f.vendorB.TotalEarnings != 4500 {
		t.Fatalf("vendor B totals = %d/%d, want 5000/4500",
			f.vendorB.TotalSales, f.vendorB.TotalEarnings)
	}

	// 重复确认被事务层拒绝
	if _, err := f.orderSvc.ConfirmPayment(ctx, f.buyer.ID, orderID); !errors.Is(err, order.ErrNotPending) {
		t.Fatalf("double confirm err = %v, want ErrNotPending", err)
	}
}

func TestCancelReleasesReservedStock(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t)
	ctx := context.Background()

	result, err := f.orderSvc.Checkout(ctx, f.buyer.ID, f.addr.ID, "")
	if err != nil {
		t.Fatal(err)
	}
	if f.productA.Reserved != 2 {
		t.Fatalf("reserved = %d before cancel", f.productA.Reserved)
	}

	detail, err := f.orderSvc.Cancel(ctx, f.buyer.ID, result.Order.ID)
	if err != nil {
		t.Fatal(err)
	}
	if detail.Order.Status != order.StatusCancelled {
		t.Fatalf("status = %s, want CANCELLED", detail.Order.Status)
	}
	if f.productA.Reserved != 0 || f.productB.Reserved != 0 {
		t.Fatalf("reserved not released: %d/%d", f.productA.Reserved, f.productB.Reserved)
	}
	// 取消后库存总量不变
	if f.productA.Stock != 10 {
		t.Fatalf("stock = %d, want 10", f.productA.Stock)
	}
}

func TestVendorOrderDeliveryFlow(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t)
	ctx := context.Background()

	result, err := f.orderSvc.Checkout(ctx, f.buyer.ID, f.addr.ID, "")
	if err != nil {
		t.Fatal(err)
	}
	orderID := result.Order.ID
	if _, err := f.orderSvc.SelectPayment(ctx, f.buyer.ID, orderID, payment.MethodCOD); err != nil {
		t.Fatal(err)
	}
	if _, err := f.orderSvc.ConfirmPayment(ctx, f.buyer.ID, orderID); err != nil {
		t.Fatal(err)
	}

	var voA, voB *order.VendorOrder
	for _, vo := range result.VendorOrders {
		switch vo.VendorID {
		case f.vendorA.ID:
			voA = vo
		case f.vendorB.ID:
			voB = vo
		}
	}

	// 跳步流转被拒绝
	if _, err := f.orderSvc.UpdateVendorOrderStatus(ctx, f.vendorA.ID, voA.ID, order.StatusDelivered); !errors.Is(err, order.ErrInvalidTransition) {
		t.Fatalf("skip transition err = %v, want ErrInvalidTransition", err)
	}
	// 非法状态值被拒绝
	if _, err := f.orderSvc.UpdateVendorOrderStatus(ctx, f.vendorA.ID, voA.ID, order.Status("LOST")); !errors.Is(err, order.ErrInvalidTransition) {
		t.Fatalf("unknown status err = %v, want ErrInvalidTransition", err)
	}
	// 别家商家不能动
	if _, err := f.orderSvc.UpdateVendorOrderStatus(ctx, f.vendorB.ID, voA.ID, order.StatusProcessing); !errors.Is(err, ErrVendorOrderNotFound) {
		t.Fatalf("foreign vendor err = %v, want ErrVendorOrderNotFound", err)
	}

	advance := func(vendorID, voID int64, statuses ...order.Status) {
		t.Helper()
		for _, s := range statuses {
			if _, err := f.orderSvc.UpdateVendorOrderStatus(ctx, vendorID, voID, s); err != nil {
				t.Fatalf("advance to %s: %v", s, err)
			}
		}
	}
	advance(f.vendorA.ID, voA.ID, order.StatusProcessing, order.StatusShipped, order.StatusDelivered)

	// 只有一家签收，订单还不能是 DELIVERED
	o, err := f.orders.GetByID(ctx, orderID)
	if err != nil {
		t.Fatal(err)
	}
	if o.Status == order.StatusDelivered {
		t.Fatal("order delivered before all vendor orders")
	}

	advance(f.vendorB.ID, voB.ID, order.StatusProcessing, order.StatusShipped, order.StatusDelivered)
	if o.Status != order.StatusDelivered {
		t.Fatalf("order status = %s, want DELIVERED", o.Status)
	}

	// 签收后核销预占：reserved 归零，stock 扣减
	if f.productA.Reserved != 0 || f.productA.Stock != 8 {
		t.Fatalf("product A stock = %d reserved = %d, want 8/0", f.productA.Stock, f.productA.Reserved)
	}
	if f.productB.Reserved != 0 || f.productB.Stock != 9 {
		t.Fatalf("product B stock = %d reserved = %d, want 9/0", f.productB.Stock, f.productB.Reserved)
	}
}

func TestVendorOrderCancelReleasesReservedStock(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t)
	ctx := context.Background()

	result, err := f.orderSvc.Checkout(ctx, f.buyer.ID, f.addr.ID, "")
	if err != nil {
		t.Fatal(err)
	}
	orderID := result.Order.ID
	if _, err := f.orderSvc.SelectPayment(ctx, f.buyer.ID, orderID, payment.MethodCOD); err != nil {
		t.Fatal(err)
	}
	if _, err := f.orderSvc.ConfirmPayment(ctx, f.buyer.ID, orderID); err != nil {
		t.Fatal(err)
	}

	var voA, voB *order.VendorOrder
	for _, vo := range result.VendorOrders {
		switch vo.VendorID {
		case f.vendorA.ID:
			voA = vo
		case f.vendorB.ID:
			voB = vo
		}
	}

	// 商家 A 取消自己的分单，预占当场释放、库存不动
	if _, err := f.orderSvc.UpdateVendorOrderStatus(ctx, f.vendorA.ID, voA.ID, order.StatusCancelled); err != nil {
		t.Fatal(err)
	}
	if f.productA.Reserved != 0 || f.productA.Stock != 10 {
		t.Fatalf("product A after cancel: stock = %d reserved = %d, want 10/0", f.productA.Stock, f.productA.Reserved)
	}

	// 商家 B 正常履约，订单不因 A 的取消而卡住
	for _, s := range []order.Status{order.StatusProcessing, order.StatusShipped, order.StatusDelivered} {
		if _, err := f.orderSvc.UpdateVendorOrderStatus(ctx, f.vendorB.ID, voB.ID, s); err != nil {
			t.Fatalf("advance to %s: %v", s, err)
		}
	}
	o, err := f.orders.GetByID(ctx, orderID)
	if err != nil {
		t.Fatal(err)
	}
	if o.Status != order.StatusDelivered {
		t.Fatalf("order status = %s, want DELIVERED", o.Status)
	}

	// B 的预占核销，A 的库存保持原样
	if f.productB.Reserved != 0 || f.productB.Stock != 9 {
		t.Fatalf("product B stock = %d reserved = %d, want 9/0", f.productB.Stock, f.productB.Reserved)
	}
	if f.productA.Reserved != 0 || f.productA.Stock != 10 {
		t.Fatalf("product A stock = %d reserved = %d, want 10/0", f.productA.Stock, f.productA.Reserved)
	}
}

func TestVendorCancelBeforePaymentStaysCancelled(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t)
	ctx := context.Background()

	result, err := f.orderSvc.Checkout(ctx, f.buyer.ID, f.addr.ID, "")
	if err != nil {
		t.Fatal(err)
	}
	orderID := result.Order.ID

	var voA *order.VendorOrder
	for _, vo := range result.VendorOrders {
		if vo.VendorID == f.vendorA.ID {
			voA = vo
		}
	}

	// 支付前商家 A 取消，预占释放
	if _, err := f.orderSvc.UpdateVendorOrderStatus(ctx, f.vendorA.ID, voA.ID, order.StatusCancelled); err != nil {
		t.Fatal(err)
	}
	if f.productA.Reserved != 0 {
		t.Fatalf("product A reserved = %d, want 0", f.productA.Reserved)
	}

	// 支付确认不会把已取消的分单拉回来，也不给它记账
	if _, err := f.orderSvc.SelectPayment(ctx, f.buyer.ID, orderID, payment.MethodCOD); err != nil {
		t.Fatal(err)
	}
	if _, err := f.orderSvc.ConfirmPayment(ctx, f.buyer.ID, orderID); err != nil {
		t.Fatal(err)
	}
	if voA.Status != order.StatusCancelled {
		t.Fatalf("vendor A status = %s, want CANCELLED", voA.Status)
	}
	if f.vendorA.TotalSales != 0 || f.vendorA.TotalEarnings != 0 {
		t.Fatalf("vendor A credited: sales = %d earnings = %d, want 0/0", f.vendorA.TotalSales, f.vendorA.TotalEarnings)
	}
	if f.vendorB.TotalSales == 0 {
		t.Fatal("vendor B should still be credited")
	}
}

func TestAllVendorOrdersCancelledCancelsOrder(t *testing.T) {
	f := newFixture(t)
	f.fillCart(t)
	ctx := context.Background()

	result, err := f.orderSvc.Checkout(ctx, f.buyer.ID, f.addr.ID, "")
	if err != nil {
		t.Fatal(err)
	}
	orderID := result.Order.ID
	if _, err := f.orderSvc.SelectPayment(ctx, f.buyer.ID, orderID, payment.MethodCOD); err != nil {
		t.Fatal(err)
	}
	if _, err := f.orderSvc.ConfirmPayment(ctx, f.buyer.ID, orderID); err != nil {
		t.Fatal(err)
	}

	for _, vo := range result.VendorOrders {
		if _, err := f.orderSvc.UpdateVendorOrderStatus(ctx, vo.VendorID, vo.ID, order.StatusCancelled); err != nil {
			t.Fatal(err)
		}
	}

	o, err := f.orders.GetByID(ctx, orderID)
	if err != nil {
		t.Fatal(err)
	}
	if o.Status != order.StatusCancelled {
		t.Fatalf("order status = %s, want CANCELLED", o.Status)
	}
	if f.productA.Reserved != 0 || f.productA.Stock != 10 {
		t.Fatalf("product A stock = %d reserved = %d, want 10/0", f.productA.Stock, f.productA.Reserved)
	}
	if f.productB.Reserved != 0 || f.productB.Stock != 10 {
		t.Fatalf("product B stock = %d reserved = %d, want 10/0", f.productB.Stock, f.productB.Reserved)
	}
}

func TestPlatformFeeRounding(t *testing.T) {
	cases := []struct {
		subtotal int64
		percent  float64
		want     int64
	}{
		{25000, 10, 2500},
		{105, 10, 11},  // 10.5 -> 11
		{104, 10, 10},  // 10.4 -> 10
		{333, 15, 50},  // 49.95 -> 50
		{0, 10, 0},
		{9999, 0, 0},
	}
	for _, c := range cases {
		if got := platformFee(c.subtotal, c.percent); got != c.want {
			t.Errorf("platformFee(%d, %v) = %d, want %d", c.subtotal, c.percent, got, c.want)
		}
	}
}
