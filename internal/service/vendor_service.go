package service

import (
	"context"
	"errors"
	"math"

	"gorm.io/gorm"

	"github.com/example/gomarket/internal/datamodels/order"
	"github.com/example/gomarket/internal/datamodels/product"
	"github.com/example/gomarket/internal/datamodels/user"
	"github.com/example/gomarket/internal/datamodels/vendor"
)

var (
	// ErrShopNameTaken 店铺 slug 冲突
	ErrShopNameTaken = errors.New("店铺名称已被占用")
	// ErrVendorNotFound 店铺不存在或不属于该用户
	ErrVendorNotFound = errors.New("店铺不存在")
	// ErrShopNameRequired 店铺名必填
	ErrShopNameRequired = errors.New("店铺名称不能为空")
)

type VendorService struct {
	repo        vendor.Repository
	userRepo    user.Repository
	productRepo product.Repository
	orderRepo   order.Repository
}

func NewVendorService(repo vendor.Repository, userRepo user.Repository, productRepo product.Repository, orderRepo order.Repository) *VendorService {
	return &VendorService{
		repo:        repo,
		userRepo:    userRepo,
		productRepo: productRepo,
		orderRepo:   orderRepo,
	}
}

// CreateShopInput 开店入参
type CreateShopInput struct {
	ShopName    string
	Description string
	Address     string
	City        string
	State       string
	ZipCode     string
	Country     string
	Latitude    float64
	Longitude   float64
}

// CreateShop 开店：slug 去重，开店用户角色升级为 vendor
func (s *VendorService) CreateShop(ctx context.Context, userID int64, in CreateShopInput) (*vendor.Vendor, error) {
	if in.ShopName == "" {
		return nil, ErrShopNameRequired
	}
	slug := slugify(in.ShopName)
	if existing, err := s.repo.GetBySlug(ctx, slug); err == nil && existing != nil {
		return nil, ErrShopNameTaken
	} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	v := &vendor.Vendor{
		UserID:      userID,
		ShopName:    in.ShopName,
		ShopSlug:    slug,
		Description: in.Description,
		Address:     in.Address,
		City:        in.City,
		State:       in.State,
		ZipCode:     in.ZipCode,
		Country:     in.Country,
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
		IsActive:    true,
	}
	if err := s.repo.Create(ctx, v); err != nil {
		return nil, err
	}

	// 开店成功后把用户角色提升为 vendor
	if u, err := s.userRepo.GetByID(ctx, userID); err == nil && u.Role == user.RoleBuyer {
		u.Role = user.RoleVendor
		if err := s.userRepo.Update(ctx, u); err != nil {
			return nil, err
		}
	}
	return v, nil
}

func (s *VendorService) GetByID(ctx context.Context, id int64) (*vendor.Vendor, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *VendorService) GetByUserID(ctx context.Context, userID int64) (*vendor.Vendor, error) {
	return s.repo.GetByUserID(ctx, userID)
}

// ShopProfile 店铺主页数据：店铺 + 已上架商品
type ShopProfile struct {
	Vendor   *vendor.Vendor     `json:"vendor"`
	Products []*product.Product `json:"products"`
}

// GetBySlug 店铺主页（按 slug）
func (s *VendorService) GetBySlug(ctx context.Context, slug string) (*ShopProfile, error) {
	v, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	products, err := s.productRepo.ListPublishedByVendor(ctx, v.ID)
	if err != nil {
		return nil, err
	}
	return &ShopProfile{Vendor: v, Products: products}, nil
}

// ListActive 店铺列表（分页）
func (s *VendorService) ListActive(ctx context.Context, page, limit int) ([]*vendor.Vendor, int64, error) {
	return s.repo.ListActive(ctx, page, limit)
}

// Update 更新店铺资料，仅限店主；改名时重新生成 slug 并去重
func (s *VendorService) Update(ctx context.Context, vendorID, userID int64, in CreateShopInput) (*vendor.Vendor, error) {
	v, err := s.repo.GetByID(ctx, vendorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVendorNotFound
		}
		return nil, err
	}
	if v.UserID != userID {
		return nil, ErrVendorNotFound
	}

	if in.ShopName != "" && in.ShopName != v.ShopName {
		slug := slugify(in.ShopName)
		if existing, err := s.repo.GetBySlug(ctx, slug); err == nil && existing != nil && existing.ID != v.ID {
			return nil, ErrShopNameTaken
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		v.ShopName = in.ShopName
		v.ShopSlug = slug
	}
	if in.Description != "" {
		v.Description = in.Description
	}
	if in.Address != "" {
		v.Address = in.Address
	}
	if in.City != "" {
		v.City = in.City
	}
	if in.State != "" {
		v.State = in.State
	}
	if in.ZipCode != "" {
		v.ZipCode = in.ZipCode
	}
	if in.Country != "" {
		v.Country = in.Country
	}
	if in.Latitude != 0 {
		v.Latitude = in.Latitude
	}
	if in.Longitude != 0 {
		v.Longitude = in.Longitude
	}

	if err := s.repo.Update(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// Dashboard 商家仪表盘数据
type Dashboard struct {
	TotalRevenue   int64                `json:"total_revenue"`   // 分
	VendorEarnings int64                `json:"vendor_earnings"` // 分
	PlatformFees   int64                `json:"platform_fees"`   // 分
	TotalOrders    int64                `json:"total_orders"`
	TotalProducts  int64                `json:"total_products"`
	Rating         float64              `json:"rating"`
	RecentOrders   []*order.VendorOrder `json:"recent_orders"`
	TopProducts    []*product.Product   `json:"top_products"`
}

// GetDashboard 汇总商家经营数据，仅限店主
func (s *VendorService) GetDashboard(ctx context.Context, vendorID, userID int64) (*Dashboard, error) {
	v, err := s.repo.GetByID(ctx, vendorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVendorNotFound
		}
		return nil, err
	}
	if v.UserID != userID {
		return nil, ErrVendorNotFound
	}

	recent, totalOrders, err := s.orderRepo.ListVendorOrdersByVendor(ctx, vendorID, 1, 10)
	if err != nil {
		return nil, err
	}
	_, totalProducts, err := s.productRepo.ListByVendor(ctx, vendorID, 1, 1)
	if err != nil {
		return nil, err
	}
	top, err := s.productRepo.ListTopByVendor(ctx, vendorID, 5)
	if err != nil {
		return nil, err
	}

	return &Dashboard{
		TotalRevenue:   v.TotalSales,
		VendorEarnings: v.TotalEarnings,
		PlatformFees:   v.TotalSales - v.TotalEarnings,
		TotalOrders:    totalOrders,
		TotalProducts:  totalProducts,
		Rating:         v.Rating,
		RecentOrders:   recent,
		TopProducts:    top,
	}, nil
}

// Nearby 按半径筛选附近的店铺（haversine 粗略计算，生产建议用空间索引）
func (s *VendorService) Nearby(ctx context.Context, lat, lng, radiusKm float64) ([]*vendor.Vendor, error) {
	if radiusKm <= 0 {
		radiusKm = 50
	}
	vendors, err := s.repo.ListActiveVerified(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*vendor.Vendor, 0, len(vendors))
	for _, v := range vendors {
		if haversineKm(lat, lng, v.Latitude, v.Longitude) <= radiusKm {
			out = append(out, v)
		}
	}
	return out, nil
}

// haversineKm 球面距离（公里）
func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	const earthRadiusKm = 6371
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// Verify 后台审核通过店铺
func (s *VendorService) Verify(ctx context.Context, vendorID int64) (*vendor.Vendor, error) {
	v, err := s.repo.GetByID(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	v.IsVerified = true
	if err := s.repo.Update(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// Deactivate 后台下架店铺
func (s *VendorService) Deactivate(ctx context.Context, vendorID int64) (*vendor.Vendor, error) {
	v, err := s.repo.GetByID(ctx, vendorID)
	if err != nil {
		return nil, err
	}
	v.IsActive = false
	if err := s.repo.Update(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}
