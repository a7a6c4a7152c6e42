package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/example/gomarket/internal/datamodels/product"
)

var (
	// ErrProductNameTaken 商品名与现有 slug 冲突
	ErrProductNameTaken = errors.New("商品名称已存在")
	// ErrProductNotFound 商品不存在或不属于该商家
	ErrProductNotFound = errors.New("商品不存在")
	// ErrProductNameRequired 商品名必填
	ErrProductNameRequired = errors.New("商品名称不能为空")
	// ErrInvalidPriceOrStock 价格与库存不能为负
	ErrInvalidPriceOrStock = errors.New("价格与库存不能为负")
)

type ProductService struct {
	repo product.Repository
}

func NewProductService(repo product.Repository) *ProductService {
	return &ProductService{repo: repo}
}

// CreateProductInput 商品创建/更新入参
type CreateProductInput struct {
	Name           string
	Description    string
	Price          int64 // 分
	CompareAtPrice int64
	Category       string
	Stock          int64
}

// Create 创建商品，初始为草稿状态
func (s *ProductService) Create(ctx context.Context, vendorID int64, in CreateProductInput) (*product.Product, error) {
	if in.Name == "" {
		return nil, ErrProductNameRequired
	}
	if in.Price < 0 || in.Stock < 0 {
		return nil, ErrInvalidPriceOrStock
	}

	slug := slugify(in.Name)
	if existing, err := s.repo.GetBySlug(ctx, slug); err == nil && existing != nil {
		return nil, ErrProductNameTaken
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	p := &product.Product{
		VendorID:       vendorID,
		Name:           in.Name,
		Slug:           slug,
		Description:    in.Description,
		Price:          in.Price,
		CompareAtPrice: in.CompareAtPrice,
		Category:       in.Category,
		Stock:          in.Stock,
		Status:         product.StatusDraft,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *ProductService) GetByID(ctx context.Context, id int64) (*product.Product, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *ProductService) GetBySlug(ctx context.Context, slug string) (*product.Product, error) {
	return s.repo.GetBySlug(ctx, slug)
}

// getOwned 加载商品并校验归属
func (s *ProductService) getOwned(ctx context.Context, productID, vendorID int64) (*product.Product, error) {
	p, err := s.repo.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	if p.VendorID != vendorID {
		return nil, ErrProductNotFound
	}
	return p, nil
}

// Update 更新商品，仅限归属商家
func (s *ProductService) Update(ctx context.Context, productID, vendorID int64, in CreateProductInput) (*product.Product, error) {
	p, err := s.getOwned(ctx, productID, vendorID)
	if err != nil {
		return nil, err
	}
	if in.Name != "" && in.Name != p.Name {
		slug := slugify(in.Name)
		if existing, err := s.repo.GetBySlug(ctx, slug); err == nil && existing != nil && existing.ID != p.ID {
			return nil, ErrProductNameTaken
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		p.Name = in.Name
		p.Slug = slug
	}
	if in.Description != "" {
		p.Description = in.Description
	}
	if in.Price > 0 {
		p.Price = in.Price
	}
	if in.CompareAtPrice > 0 {
		p.CompareAtPrice = in.CompareAtPrice
	}
	if in.Category != "" {
		p.Category = in.Category
	}
	if in.Stock >= 0 {
		p.Stock = in.Stock
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Publish 上架商品
func (s *ProductService) Publish(ctx context.Context, productID, vendorID int64) (*product.Product, error) {
	p, err := s.getOwned(ctx, productID, vendorID)
	if err != nil {
		return nil, err
	}
	p.Status = product.StatusPublished
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Delete 删除商品，仅限归属商家
func (s *ProductService) Delete(ctx context.Context, productID, vendorID int64) error {
	if _, err := s.getOwned(ctx, productID, vendorID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, productID)
}

// Search 商品搜索（仅已上架）
func (s *ProductService) Search(ctx context.Context, q product.SearchQuery) ([]*product.Product, int64, error) {
	return s.repo.Search(ctx, q)
}

// ListPublished 首页/列表页使用
func (s *ProductService) ListPublished(ctx context.Context, page, limit int) ([]*product.Product, int64, error) {
	return s.repo.ListPublished(ctx, page, limit)
}

// ListByVendor 商家自己的商品列表（含草稿）
func (s *ProductService) ListByVendor(ctx context.Context, vendorID int64, page, limit int) ([]*product.Product, int64, error) {
	return s.repo.ListByVendor(ctx, vendorID, page, limit)
}
