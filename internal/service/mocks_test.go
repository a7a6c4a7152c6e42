package service

import (
	"context"
	"sort"

	"gorm.io/gorm"

	"github.com/example/gomarket/internal/datamodels/address"
	"github.com/example/gomarket/internal/datamodels/cart"
	"github.com/example/gomarket/internal/datamodels/order"
	"github.com/example/gomarket/internal/datamodels/payment"
	"github.com/example/gomarket/internal/datamodels/product"
	"github.com/example/gomarket/internal/datamodels/review"
	"github.com/example/gomarket/internal/datamodels/user"
	"github.com/example/gomarket/internal/datamodels/vendor"
)

// ---- 内存仓储，单元测试用 ----

type memUserRepo struct {
	seq   int64
	users map[int64]*user.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[int64]*user.User)}
}

func (r *memUserRepo) GetByID(_ context.Context, id int64) (*user.User, error) {
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*user.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memUserRepo) Create(_ context.Context, u *user.User) error {
	r.seq++
	u.ID = r.seq
	r.users[u.ID] = u
	return nil
}

func (r *memUserRepo) Update(_ context.Context, u *user.User) error {
	r.users[u.ID] = u
	return nil
}

func (r *memUserRepo) ListAll(_ context.Context) ([]*user.User, error) {
	out := make([]*user.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type memVendorRepo struct {
	seq     int64
	vendors map[int64]*vendor.Vendor
}

func newMemVendorRepo() *memVendorRepo {
	return &memVendorRepo{vendors: make(map[int64]*vendor.Vendor)}
}

func (r *memVendorRepo) GetByID(_ context.Context, id int64) (*vendor.Vendor, error) {
	if v, ok := r.vendors[id]; ok {
		return v, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memVendorRepo) GetByUserID(_ context.Context, userID int64) (*vendor.Vendor, error) {
	for _, v := range r.vendors {
		if v.UserID == userID {
			return v, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memVendorRepo) GetBySlug(_ context.Context, slug string) (*vendor.Vendor, error) {
	for _, v := range r.vendors {
		if v.ShopSlug == slug {
			return v, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memVendorRepo) ListActive(_ context.Context, page, limit int) ([]*vendor.Vendor, int64, error) {
	var out []*vendor.Vendor
	for _, v := range r.vendors {
		if v.IsActive {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (r *memVendorRepo) ListActiveVerified(_ context.Context) ([]*vendor.Vendor, error) {
	var out []*vendor.Vendor
	for _, v := range r.vendors {
		if v.IsActive && v.IsVerified {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memVendorRepo) Create(_ context.Context, v *vendor.Vendor) error {
	r.seq++
	v.ID = r.seq
	r.vendors[v.ID] = v
	return nil
}

func (r *memVendorRepo) Update(_ context.Context, v *vendor.Vendor) error {
	r.vendors[v.ID] = v
	return nil
}

func (r *memVendorRepo) UpdateRating(_ context.Context, vendorID int64, rating float64, reviewCount int64) error {
	v, ok := r.vendors[vendorID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	v.Rating = rating
	v.ReviewCount = reviewCount
	return nil
}

type memProductRepo struct {
	seq      int64
	products map[int64]*product.Product
}

func newMemProductRepo() *memProductRepo {
	return &memProductRepo{products: make(map[int64]*product.Product)}
}

func (r *memProductRepo) GetByID(_ context.Context, id int64) (*product.Product, error) {
	if p, ok := r.products[id]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memProductRepo) GetBySlug(_ context.Context, slug string) (*product.Product, error) {
	for _, p := range r.products {
		if p.Slug == slug {
			return p, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memProductRepo) sorted(filter func(*product.Product) bool) []*product.Product {
	var out []*product.Product
	for _, p := range r.products {
		if filter(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *memProductRepo) ListByVendor(_ context.Context, vendorID int64, page, limit int) ([]*product.Product, int64, error) {
	out := r.sorted(func(p *product.Product) bool { return p.VendorID == vendorID })
	return out, int64(len(out)), nil
}

func (r *memProductRepo) ListPublishedByVendor(_ context.Context, vendorID int64) ([]*product.Product, error) {
	return r.sorted(func(p *product.Product) bool {
		return p.VendorID == vendorID && p.Status == product.StatusPublished
	}), nil
}

func (r *memProductRepo) ListPublished(_ context.Context, page, limit int) ([]*product.Product, int64, error) {
	out := r.sorted(func(p *product.Product) bool { return p.Status == product.StatusPublished })
	return out, int64(len(out)), nil
}

func (r *memProductRepo) ListTopByVendor(_ context.Context, vendorID int64, limit int) ([]*product.Product, error) {
	out := r.sorted(func(p *product.Product) bool { return p.VendorID == vendorID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memProductRepo) Search(_ context.Context, q product.SearchQuery) ([]*product.Product, int64, error) {
	out := r.sorted(func(p *product.Product) bool { return p.Status == product.StatusPublished })
	return out, int64(len(out)), nil
}

func (r *memProductRepo) Create(_ context.Context, p *product.Product) error {
	r.seq++
	p.ID = r.seq
	r.products[p.ID] = p
	return nil
}

func (r *memProductRepo) Update(_ context.Context, p *product.Product) error {
	r.products[p.ID] = p
	return nil
}

func (r *memProductRepo) Delete(_ context.Context, id int64) error {
	delete(r.products, id)
	return nil
}

func (r *memProductRepo) UpdateRating(_ context.Context, productID int64, rating float64, reviewCount int64) error {
	p, ok := r.products[productID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.Rating = rating
	p.ReviewCount = reviewCount
	return nil
}

type memCartRepo struct {
	cartSeq int64
	itemSeq int64
	carts   map[int64]*cart.Cart // buyerID -> cart
	items   map[int64]*cart.Item
}

func newMemCartRepo() *memCartRepo {
	return &memCartRepo{
		carts: make(map[int64]*cart.Cart),
		items: make(map[int64]*cart.Item),
	}
}

func (r *memCartRepo) GetOrCreate(_ context.Context, buyerID int64) (*cart.Cart, error) {
	if c, ok := r.carts[buyerID]; ok {
		return c, nil
	}
	r.cartSeq++
	c := &cart.Cart{ID: r.cartSeq, BuyerID: buyerID}
	r.carts[buyerID] = c
	return c, nil
}

func (r *memCartRepo) ListItems(_ context.Context, cartID int64) ([]*cart.Item, error) {
	var out []*cart.Item
	for _, item := range r.items {
		if item.CartID == cartID {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memCartRepo) GetItem(_ context.Context, itemID int64) (*cart.Item, error) {
	if item, ok := r.items[itemID]; ok {
		return item, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memCartRepo) CreateItem(_ context.Context, item *cart.Item) error {
	r.itemSeq++
	item.ID = r.itemSeq
	r.items[item.ID] = item
	return nil
}

func (r *memCartRepo) UpdateItem(_ context.Context, item *cart.Item) error {
	r.items[item.ID] = item
	return nil
}

func (r *memCartRepo) DeleteItem(_ context.Context, itemID int64) error {
	delete(r.items, itemID)
	return nil
}

func (r *memCartRepo) ClearItems(_ context.Context, cartID int64) error {
	for id, item := range r.items {
		if item.CartID == cartID {
			delete(r.items, id)
		}
	}
	return nil
}

type memAddressRepo struct {
	seq   int64
	addrs map[int64]*address.Address
}

func newMemAddressRepo() *memAddressRepo {
	return &memAddressRepo{addrs: make(map[int64]*address.Address)}
}

func (r *memAddressRepo) GetByID(_ context.Context, id int64) (*address.Address, error) {
	if a, ok := r.addrs[id]; ok {
		return a, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memAddressRepo) ListByBuyer(_ context.Context, buyerID int64) ([]*address.Address, error) {
	var out []*address.Address
	for _, a := range r.addrs {
		if a.BuyerID == buyerID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memAddressRepo) Create(_ context.Context, a *address.Address) error {
	r.seq++
	a.ID = r.seq
	r.addrs[a.ID] = a
	return nil
}

func (r *memAddressRepo) Update(_ context.Context, a *address.Address) error {
	r.addrs[a.ID] = a
	return nil
}

func (r *memAddressRepo) Delete(_ context.Context, id int64) error {
	delete(r.addrs, id)
	return nil
}

type memPaymentRepo struct {
	seq     int64
	byOrder map[int64]*payment.Payment
}

func newMemPaymentRepo() *memPaymentRepo {
	return &memPaymentRepo{byOrder: make(map[int64]*payment.Payment)}
}

func (r *memPaymentRepo) GetByOrderID(_ context.Context, orderID int64) (*payment.Payment, error) {
	if p, ok := r.byOrder[orderID]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memPaymentRepo) Create(_ context.Context, p *payment.Payment) error {
	r.seq++
	p.ID = r.seq
	r.byOrder[p.OrderID] = p
	return nil
}

func (r *memPaymentRepo) Update(_ context.Context, p *payment.Payment) error {
	r.byOrder[p.OrderID] = p
	return nil
}

type memReviewRepo struct {
	seq     int64
	reviews map[int64]*review.Review
}

func newMemReviewRepo() *memReviewRepo {
	return &memReviewRepo{reviews: make(map[int64]*review.Review)}
}

func (r *memReviewRepo) GetByID(_ context.Context, id int64) (*review.Review, error) {
	if rv, ok := r.reviews[id]; ok {
		return rv, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memReviewRepo) Get(_ context.Context, productID, buyerID, orderID int64) (*review.Review, error) {
	for _, rv := range r.reviews {
		if rv.ProductID == productID && rv.BuyerID == buyerID && rv.OrderID == orderID {
			return rv, nil
		}
	}
	return nil, nil
}

func (r *memReviewRepo) sorted(filter func(*review.Review) bool) []*review.Review {
	var out []*review.Review
	for _, rv := range r.reviews {
		if filter(rv) {
			out = append(out, rv)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *memReviewRepo) ListByProduct(_ context.Context, productID int64, page, limit int) ([]*review.Review, int64, error) {
	out := r.sorted(func(rv *review.Review) bool { return rv.ProductID == productID && rv.IsApproved })
	return out, int64(len(out)), nil
}

func (r *memReviewRepo) ListByVendor(_ context.Context, vendorID int64, page, limit int) ([]*review.Review, int64, error) {
	out := r.sorted(func(rv *review.Review) bool { return rv.VendorID == vendorID && rv.IsApproved })
	return out, int64(len(out)), nil
}

func (r *memReviewRepo) ListApprovedByProduct(_ context.Context, productID int64) ([]*review.Review, error) {
	return r.sorted(func(rv *review.Review) bool { return rv.ProductID == productID && rv.IsApproved }), nil
}

func (r *memReviewRepo) ListApprovedByVendor(_ context.Context, vendorID int64) ([]*review.Review, error) {
	return r.sorted(func(rv *review.Review) bool { return rv.VendorID == vendorID && rv.IsApproved }), nil
}

func (r *memReviewRepo) ListRecent(_ context.Context, limit int) ([]*review.Review, error) {
	out := r.sorted(func(rv *review.Review) bool { return true })
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (r *memReviewRepo) Create(_ context.Context, rv *review.Review) error {
	r.seq++
	rv.ID = r.seq
	r.reviews[rv.ID] = rv
	return nil
}

func (r *memReviewRepo) Update(_ context.Context, rv *review.Review) error {
	r.reviews[rv.ID] = rv
	return nil
}

// memOrderRepo 在内存里复刻订单仓储的事务语义：
// 下单预占库存并清车、支付确认累加商家销售额、取消释放预占、
// 全部分单签收后推进订单并核销库存。
type memOrderRepo struct {
	orderSeq     int64
	itemSeq      int64
	voSeq        int64
	orders       map[int64]*order.Order
	items        map[int64][]*order.Item
	vendorOrders map[int64]*order.VendorOrder

	products *memProductRepo
	carts    *memCartRepo
	payments *memPaymentRepo
	vendors  *memVendorRepo
}

func newMemOrderRepo(products *memProductRepo, carts *memCartRepo, payments *memPaymentRepo, vendors *memVendorRepo) *memOrderRepo {
	return &memOrderRepo{
		orders:       make(map[int64]*order.Order),
		items:        make(map[int64][]*order.Item),
		vendorOrders: make(map[int64]*order.VendorOrder),
		products:     products,
		carts:        carts,
		payments:     payments,
		vendors:      vendors,
	}
}

func (r *memOrderRepo) CreateCheckout(ctx context.Context, o *order.Order, items []*order.Item, vendorOrders []*order.VendorOrder, cartID int64) error {
	for _, item := range items {
		p, ok := r.products.products[item.ProductID]
		if !ok || p.Status != product.StatusPublished {
			return order.ErrProductUnavailable
		}
		if p.Available() < item.Quantity {
			return order.ErrInsufficientStock
		}
	}
	r.orderSeq++
	o.ID = r.orderSeq
	r.orders[o.ID] = o
	for _, item := range items {
		r.itemSeq++
		item.ID = r.itemSeq
		item.OrderID = o.ID
		r.items[o.ID] = append(r.items[o.ID], item)
		r.products.products[item.ProductID].Reserved += item.Quantity
	}
	for _, vo := range vendorOrders {
		r.voSeq++
		vo.ID = r.voSeq
		vo.OrderID = o.ID
		r.vendorOrders[vo.ID] = vo
	}
	return r.carts.ClearItems(ctx, cartID)
}

func (r *memOrderRepo) GetByID(_ context.Context, id int64) (*order.Order, error) {
	if o, ok := r.orders[id]; ok {
		return o, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memOrderRepo) GetForBuyer(_ context.Context, id, buyerID int64) (*order.Order, error) {
	if o, ok := r.orders[id]; ok && o.BuyerID == buyerID {
		return o, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memOrderRepo) ListByBuyer(_ context.Context, buyerID int64, page, limit int) ([]*order.Order, int64, error) {
	var out []*order.Order
	for _, o := range r.orders {
		if o.BuyerID == buyerID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (r *memOrderRepo) ListRecent(_ context.Context, limit int) ([]*order.Order, error) {
	var out []*order.Order
	for _, o := range r.orders {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memOrderRepo) ListItems(_ context.Context, orderID int64) ([]*order.Item, error) {
	return r.items[orderID], nil
}

func (r *memOrderRepo) GetVendorOrder(_ context.Context, id int64) (*order.VendorOrder, error) {
	if vo, ok := r.vendorOrders[id]; ok {
		return vo, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *memOrderRepo) ListVendorOrders(_ context.Context, orderID int64) ([]*order.VendorOrder, error) {
	var out []*order.VendorOrder
	for _, vo := range r.vendorOrders {
		if vo.OrderID == orderID {
			out = append(out, vo)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memOrderRepo) ListVendorOrdersByVendor(_ context.Context, vendorID int64, page, limit int) ([]*order.VendorOrder, int64, error) {
	var out []*order.VendorOrder
	for _, vo := range r.vendorOrders {
		if vo.VendorID == vendorID {
			out = append(out, vo)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, int64(len(out)), nil
}

func (r *memOrderRepo) ConfirmPayment(_ context.Context, orderID int64) error {
	o, ok := r.orders[orderID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if o.Status != order.StatusPending {
		return order.ErrNotPending
	}
	o.Status = order.StatusConfirmed
	o.PaymentStatus = order.PaymentCompleted
	for _, vo := range r.vendorOrders {
		if vo.OrderID != orderID || vo.Status != order.StatusPending {
			continue
		}
		vo.Status = order.StatusConfirmed
		if v, ok := r.vendors.vendors[vo.VendorID]; ok {
			v.TotalSales += vo.Subtotal
			v.TotalEarnings += vo.VendorEarnings
		}
	}
	if p, ok := r.payments.byOrder[orderID]; ok {
		p.Status = payment.StatusCompleted
	}
	return nil
}

func (r *memOrderRepo) Cancel(_ context.Context, orderID int64) error {
	o, ok := r.orders[orderID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if o.Status != order.StatusPending {
		return order.ErrNotPending
	}
	o.Status = order.StatusCancelled
	for _, item := range r.items[orderID] {
		if p, ok := r.products.products[item.ProductID]; ok {
			p.Reserved -= item.Quantity
		}
	}
	for _, vo := range r.vendorOrders {
		if vo.OrderID == orderID {
			vo.Status = order.StatusCancelled
		}
	}
	if p, ok := r.payments.byOrder[orderID]; ok {
		p.Status = payment.StatusFailed
	}
	return nil
}

func (r *memOrderRepo) UpdateVendorOrderStatus(_ context.Context, vendorOrderID int64, status order.Status) (*order.VendorOrder, error) {
	vo, ok := r.vendorOrders[vendorOrderID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if !order.CanTransition(vo.Status, status) {
		return nil, order.ErrInvalidTransition
	}
	vo.Status = status

	if status == order.StatusCancelled {
		for _, item := range r.items[vo.OrderID] {
			if item.VendorID != vo.VendorID {
				continue
			}
			if p, ok := r.products.products[item.ProductID]; ok {
				p.Reserved -= item.Quantity
			}
		}
	} else if status != order.StatusDelivered {
		return vo, nil
	}

	var open, delivered int
	cancelledVendors := map[int64]bool{}
	for _, sibling := range r.vendorOrders {
		if sibling.OrderID != vo.OrderID {
			continue
		}
		switch sibling.Status {
		case order.StatusDelivered:
			delivered++
		case order.StatusCancelled:
			cancelledVendors[sibling.VendorID] = true
		default:
			open++
		}
	}
	if open > 0 {
		return vo, nil
	}

	o := r.orders[vo.OrderID]
	if delivered == 0 {
		o.Status = order.StatusCancelled
		return vo, nil
	}
	o.Status = order.StatusDelivered
	for _, item := range r.items[vo.OrderID] {
		if cancelledVendors[item.VendorID] {
			continue
		}
		if p, ok := r.products.products[item.ProductID]; ok {
			p.Reserved -= item.Quantity
			p.Stock -= item.Quantity
		}
	}
	return vo, nil
}
