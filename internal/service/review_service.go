package service

import (
	"context"
	"errors"
	"math"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/example/gomarket/internal/datamodels/order"
	"github.com/example/gomarket/internal/datamodels/product"
	"github.com/example/gomarket/internal/datamodels/review"
	"github.com/example/gomarket/internal/datamodels/vendor"
)

var (
	// ErrReviewNotAllowed 订单未签收或订单里没有该商品
	ErrReviewNotAllowed = errors.New("只能评价已签收订单中的商品")
	// ErrReviewDuplicate 同一订单同一商品重复评价
	ErrReviewDuplicate = errors.New("该商品已评价")
	// ErrInvalidRating 评分超出 1-5
	ErrInvalidRating = errors.New("评分必须在 1 到 5 之间")
	// ErrReviewNotFound 评价不存在
	ErrReviewNotFound = errors.New("评价不存在")
)

type ReviewService struct {
	repo        review.Repository
	orderRepo   order.Repository
	productRepo product.Repository
	vendorRepo  vendor.Repository
}

func NewReviewService(repo review.Repository, orderRepo order.Repository, productRepo product.Repository, vendorRepo vendor.Repository) *ReviewService {
	return &ReviewService{
		repo:        repo,
		orderRepo:   orderRepo,
		productRepo: productRepo,
		vendorRepo:  vendorRepo,
	}
}

// CreateInput 发表评价入参
type CreateInput struct {
	ProductID int64
	OrderID   int64
	Rating    int
	Title     string
	Content   string
}

// Create 发表评价：订单必须属于买家且已签收、订单里包含该商品、
// (product, buyer, order) 未评价过。成功后重算商品与商家的评分聚合。
func (s *ReviewService) Create(ctx context.Context, buyerID int64, in CreateInput) (*review.Review, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return nil, ErrInvalidRating
	}

	o, err := s.orderRepo.GetForBuyer(ctx, in.OrderID, buyerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReviewNotAllowed
		}
		return nil, err
	}
	if o.Status != order.StatusDelivered {
		return nil, ErrReviewNotAllowed
	}

	items, err := s.orderRepo.ListItems(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	var bought *order.Item
	for _, item := range items {
		if item.ProductID == in.ProductID {
			bought = item
			break
		}
	}
	if bought == nil {
		return nil, ErrReviewNotAllowed
	}

	if existing, err := s.repo.Get(ctx, in.ProductID, buyerID, in.OrderID); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, ErrReviewDuplicate
	}

	r := &review.Review{
		ProductID:  in.ProductID,
		BuyerID:    buyerID,
		OrderID:    in.OrderID,
		VendorID:   bought.VendorID,
		Rating:     in.Rating,
		Title:      in.Title,
		Content:    in.Content,
		IsApproved: true,
	}
	if err := s.repo.Create(ctx, r); err != nil {
		return nil, err
	}

	s.refreshAggregates(ctx, r.ProductID, r.VendorID)
	return r, nil
}

// refreshAggregates 重算商品与商家的评分均值，失败只记日志
func (s *ReviewService) refreshAggregates(ctx context.Context, productID, vendorID int64) {
	if reviews, err := s.repo.ListApprovedByProduct(ctx, productID); err == nil {
		rating, count := averageRating(reviews)
		if err := s.productRepo.UpdateRating(ctx, productID, rating, count); err != nil {
			zap.L().Warn("update product rating failed", zap.Int64("product_id", productID), zap.Error(err))
		}
	} else {
		zap.L().Warn("list product reviews failed", zap.Int64("product_id", productID), zap.Error(err))
	}

	if reviews, err := s.repo.ListApprovedByVendor(ctx, vendorID); err == nil {
		rating, count := averageRating(reviews)
		if err := s.vendorRepo.UpdateRating(ctx, vendorID, rating, count); err != nil {
			zap.L().Warn("update vendor rating failed", zap.Int64("vendor_id", vendorID), zap.Error(err))
		}
	} else {
		zap.L().Warn("list vendor reviews failed", zap.Int64("vendor_id", vendorID), zap.Error(err))
	}
}

// averageRating 评分均值保留一位小数
func averageRating(reviews []*review.Review) (float64, int64) {
	if len(reviews) == 0 {
		return 0, 0
	}
	var sum int
	for _, r := range reviews {
		sum += r.Rating
	}
	avg := float64(sum) / float64(len(reviews))
	return math.Round(avg*10) / 10, int64(len(reviews))
}

// ListByProduct 商品评价列表（分页，仅展示已通过的）
func (s *ReviewService) ListByProduct(ctx context.Context, productID int64, page, limit int) ([]*review.Review, int64, error) {
	return s.repo.ListByProduct(ctx, productID, page, limit)
}

// ListByVendor 店铺评价列表（分页，仅展示已通过的）
func (s *ReviewService) ListByVendor(ctx context.Context, vendorID int64, page, limit int) ([]*review.Review, int64, error) {
	return s.repo.ListByVendor(ctx, vendorID, page, limit)
}

// ListRecent 后台最近评价
func (s *ReviewService) ListRecent(ctx context.Context, limit int) ([]*review.Review, error) {
	return s.repo.ListRecent(ctx, limit)
}

// Hide 后台隐藏违规评价，并重算评分聚合
func (s *ReviewService) Hide(ctx context.Context, reviewID int64) (*review.Review, error) {
	r, err := s.repo.GetByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReviewNotFound
		}
		return nil, err
	}
	r.IsApproved = false
	if err := s.repo.Update(ctx, r); err != nil {
		return nil, err
	}
	s.refreshAggregates(ctx, r.ProductID, r.VendorID)
	return r, nil
}
