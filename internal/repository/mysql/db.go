package mysql

import (
	"log"
	"sync"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/example/gomarket/internal/config"
	"github.com/example/gomarket/internal/datamodels/address"
	"github.com/example/gomarket/internal/datamodels/cart"
	"github.com/example/gomarket/internal/datamodels/order"
	"github.com/example/gomarket/internal/datamodels/payment"
	"github.com/example/gomarket/internal/datamodels/product"
	"github.com/example/gomarket/internal/datamodels/review"
	"github.com/example/gomarket/internal/datamodels/user"
	"github.com/example/gomarket/internal/datamodels/vendor"
)

var (
	db   *gorm.DB
	once sync.Once
)

// Init 初始化全局 GORM 实例并自动迁移表结构
func Init(cfg *config.MySQLConfig) *gorm.DB {
	once.Do(func() {
		var err error
		db, err = gorm.Open(mysql.Open(cfg.DSN), &gorm.Config{})
		if err != nil {
			log.Fatalf("failed to connect mysql: %v", err)
		}

		if err = db.AutoMigrate(
			&user.User{},
			&address.Address{},
			&vendor.Vendor{},
			&product.Product{},
			&cart.Cart{},
			&cart.Item{},
			&order.Order{},
			&order.Item{},
			&order.VendorOrder{},
			&payment.Payment{},
			&review.Review{},
		); err != nil {
			log.Fatalf("auto migrate failed: %v", err)
		}
	})
	return db
}

// DB 获取全局 DB
func DB() *gorm.DB {
	return db
}

// 列表查询统一的分页参数收口
func normalizePage(page, limit int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return page, limit
}
