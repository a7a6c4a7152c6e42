package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/example/gomarket/internal/datamodels/cart"
	"github.com/example/gomarket/internal/datamodels/product"
)

var (
	// ErrInsufficientStock 可售库存（stock - reserved）不足
	ErrInsufficientStock = errors.New("库存不足")
	// ErrCartItemNotFound 条目不存在或不属于该买家的购物车
	ErrCartItemNotFound = errors.New("购物车条目不存在")
	// ErrInvalidQuantity 数量必须为正
	ErrInvalidQuantity = errors.New("数量必须大于 0")
	// ErrProductNotOnSale 商品未上架，不能加入购物车
	ErrProductNotOnSale = errors.New("商品未上架")
)

type CartService struct {
	cartRepo    cart.Repository
	productRepo product.Repository
}

func NewCartService(cartRepo cart.Repository, productRepo product.Repository) *CartService {
	return &CartService{cartRepo: cartRepo, productRepo: productRepo}
}

// CartItemView 购物车条目 + 商品快照
type CartItemView struct {
	Item    *cart.Item       `json:"item"`
	Product *product.Product `json:"product"`
}

// CartView 购物车页数据
type CartView struct {
	Cart  *cart.Cart      `json:"cart"`
	Items []*CartItemView `json:"items"`
}

// Get 返回买家购物车（懒创建）及条目
func (s *CartService) Get(ctx context.Context, buyerID int64) (*CartView, error) {
	c, err := s.cartRepo.GetOrCreate(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	items, err := s.cartRepo.ListItems(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	views := make([]*CartItemView, 0, len(items))
	for _, item := range items {
		p, err := s.productRepo.GetByID(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// 商品已被删除，条目跳过展示
				continue
			}
			return nil, err
		}
		views = append(views, &CartItemView{Item: item, Product: p})
	}
	return &CartView{Cart: c, Items: views}, nil
}

// AddItem 加入购物车：校验可售库存，已有条目则合并数量，
// 单价在首次加入时定格（PriceAtAdd）。
func (s *CartService) AddItem(ctx context.Context, buyerID, productID, quantity int64) (*CartView, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	p, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p.Status != product.StatusPublished {
		return nil, ErrProductNotOnSale
	}
	if p.Available() < quantity {
		return nil, ErrInsufficientStock
	}

	c, err := s.cartRepo.GetOrCreate(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	items, err := s.cartRepo.ListItems(ctx, c.ID)
	if err != nil {
		return nil, err
	}

	var existing *cart.Item
	for _, item := range items {
		if item.ProductID == productID {
			existing = item
			break
		}
	}

	if existing != nil {
		newQuantity := existing.Quantity + quantity
		if p.Available() < newQuantity {
			return nil, ErrInsufficientStock
		}
		existing.Quantity = newQuantity
		if err := s.cartRepo.UpdateItem(ctx, existing); err != nil {
			return nil, err
		}
	} else {
		if err := s.cartRepo.CreateItem(ctx, &cart.Item{
			CartID:     c.ID,
			ProductID:  productID,
			Quantity:   quantity,
			PriceAtAdd: p.Price,
		}); err != nil {
			return nil, err
		}
	}
	return s.Get(ctx, buyerID)
}

// getOwnedItem 加载条目并校验归属于买家的购物车
func (s *CartService) getOwnedItem(ctx context.Context, buyerID, itemID int64) (*cart.Item, error) {
	c, err := s.cartRepo.GetOrCreate(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	item, err := s.cartRepo.GetItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCartItemNotFound
		}
		return nil, err
	}
	if item.CartID != c.ID {
		return nil, ErrCartItemNotFound
	}
	return item, nil
}

// UpdateItem 修改条目数量，重新校验可售库存
func (s *CartService) UpdateItem(ctx context.Context, buyerID, itemID, quantity int64) (*CartView, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	item, err := s.getOwnedItem(ctx, buyerID, itemID)
	if err != nil {
		return nil, err
	}
	p, err := s.productRepo.GetByID(ctx, item.ProductID)
	if err != nil {
		return nil, err
	}
	if p.Available() < quantity {
		return nil, ErrInsufficientStock
	}
	item.Quantity = quantity
	if err := s.cartRepo.UpdateItem(ctx, item); err != nil {
		return nil, err
	}
	return s.Get(ctx, buyerID)
}

// RemoveItem 删除条目
func (s *CartService) RemoveItem(ctx context.Context, buyerID, itemID int64) (*CartView, error) {
	item, err := s.getOwnedItem(ctx, buyerID, itemID)
	if err != nil {
		return nil, err
	}
	if err := s.cartRepo.DeleteItem(ctx, item.ID); err != nil {
		return nil, err
	}
	return s.Get(ctx, buyerID)
}

// Clear 清空购物车
func (s *CartService) Clear(ctx context.Context, buyerID int64) (*CartView, error) {
	c, err := s.cartRepo.GetOrCreate(ctx, buyerID)
	if err != nil {
		return nil, err
	}
	if err := s.cartRepo.ClearItems(ctx, c.ID); err != nil {
		return nil, err
	}
	return s.Get(ctx, buyerID)
}

// VendorBreakdown 结算摘要里按商家的小计
type VendorBreakdown struct {
	VendorID int64           `json:"vendor_id"`
	Subtotal int64           `json:"subtotal"` // 分
	Items    []*CartItemView `json:"items"`
}

// CartSummary 购物车摘要，小计按加入价（PriceAtAdd）计算
type CartSummary struct {
	CartID    int64              `json:"cart_id"`
	ItemCount int                `json:"item_count"`
	Subtotal  int64              `json:"subtotal"` // 分
	Vendors   []*VendorBreakdown `json:"vendors"`
}

// Summary 购物车摘要：总小计与按商家拆分
func (s *CartService) Summary(ctx context.Context, buyerID int64) (*CartSummary, error) {
	view, err := s.Get(ctx, buyerID)
	if err != nil {
		return nil, err
	}

	summary := &CartSummary{
		CartID:    view.Cart.ID,
		ItemCount: len(view.Items),
	}
	byVendor := make(map[int64]*VendorBreakdown)
	for _, iv := range view.Items {
		lineTotal := iv.Item.PriceAtAdd * iv.Item.Quantity
		summary.Subtotal += lineTotal

		bd, ok := byVendor[iv.Product.VendorID]
		if !ok {
			bd = &VendorBreakdown{VendorID: iv.Product.VendorID}
			byVendor[iv.Product.VendorID] = bd
			summary.Vendors = append(summary.Vendors, bd)
		}
		bd.Subtotal += lineTotal
		bd.Items = append(bd.Items, iv)
	}
	return summary, nil
}
