package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/example/gomarket/internal/datamodels/address"
)

// ErrAddressIncomplete 收件人与地址一行必填
var ErrAddressIncomplete = errors.New("收件人和地址不能为空")

type AddressService struct {
	repo address.Repository
}

func NewAddressService(repo address.Repository) *AddressService {
	return &AddressService{repo: repo}
}

// AddressInput 地址入参
type AddressInput struct {
	FullName  string
	Line1     string
	Line2     string
	City      string
	State     string
	ZipCode   string
	Country   string
	IsDefault bool
}

// List 买家地址簿
func (s *AddressService) List(ctx context.Context, buyerID int64) ([]*address.Address, error) {
	return s.repo.ListByBuyer(ctx, buyerID)
}

// Create 新增收货地址
func (s *AddressService) Create(ctx context.Context, buyerID int64, in AddressInput) (*address.Address, error) {
	if in.FullName == "" || in.Line1 == "" {
		return nil, ErrAddressIncomplete
	}
	a := &address.Address{
		BuyerID:   buyerID,
		FullName:  in.FullName,
		Line1:     in.Line1,
		Line2:     in.Line2,
		City:      in.City,
		State:     in.State,
		ZipCode:   in.ZipCode,
		Country:   in.Country,
		IsDefault: in.IsDefault,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// getOwned 加载地址并校验归属
func (s *AddressService) getOwned(ctx context.Context, buyerID, id int64) (*address.Address, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAddressNotFound
		}
		return nil, err
	}
	if a.BuyerID != buyerID {
		return nil, ErrAddressNotFound
	}
	return a, nil
}

// Update 修改收货地址，仅限本人
func (s *AddressService) Update(ctx context.Context, buyerID, id int64, in AddressInput) (*address.Address, error) {
	a, err := s.getOwned(ctx, buyerID, id)
	if err != nil {
		return nil, err
	}
	if in.FullName != "" {
		a.FullName = in.FullName
	}
	if in.Line1 != "" {
		a.Line1 = in.Line1
	}
	a.Line2 = in.Line2
	if in.City != "" {
		a.City = in.City
	}
	if in.State != "" {
		a.State = in.State
	}
	if in.ZipCode != "" {
		a.ZipCode = in.ZipCode
	}
	if in.Country != "" {
		a.Country = in.Country
	}
	a.IsDefault = in.IsDefault
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Delete 删除收货地址，仅限本人
func (s *AddressService) Delete(ctx context.Context, buyerID, id int64) error {
	a, err := s.getOwned(ctx, buyerID, id)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, a.ID)
}
