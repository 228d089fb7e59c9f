package app

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/corethreads/commerce/config"
	"github.com/corethreads/commerce/internal/domain"
	"github.com/corethreads/commerce/pkg/common"
)

// getDatabase opens the configured database. Postgres is the production
// target; sqlite exists for local development and tests.
func getDatabase(cfg config.DBConfig, workdir string) *gorm.DB {
	loglevel := gormlogger.Silent
	if cfg.Debug {
		loglevel = gormlogger.Info
	}
	gormCfg := &gorm.Config{
		Logger: gormlogger.Default.LogMode(loglevel),
	}

	var db *gorm.DB
	var err error
	switch cfg.Type {
	case "sqlite":
		dbfile := filepath.Join(workdir, "data", fmt.Sprintf("%s.db", cfg.Name))
		db, err = gorm.Open(sqlite.Open(dbfile), gormCfg)
	default:
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable TimeZone=%s",
			cfg.Host, cfg.User, cfg.Passwd, cfg.Name, cfg.Port, time.Local.String())
		db, err = gorm.Open(postgres.Open(dsn), gormCfg)
	}
	if err != nil {
		panic(err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		panic(err)
	}
	if cfg.MaxConn > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxConn)
	}
	if cfg.IdleConn > 0 {
		sqlDB.SetMaxIdleConns(cfg.IdleConn)
	}
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db
}

// checkOperator seeds the default back-office operator account.
func (a *Application) checkOperator() {
	const operatorUsername = "admin"
	const defaultPassword = "corethreads"

	var count int64
	a.gormDB.Model(&domain.SysOpr{}).Where("username = ?", operatorUsername).Count(&count)
	if count > 0 {
		return
	}

	hashed, err := common.HashPassword(defaultPassword)
	if err != nil {
		zap.L().Error("failed to hash default operator password", zap.Error(err))
		return
	}

	if err := a.gormDB.Create(&domain.SysOpr{
		ID:        common.UUIDint64(),
		Realname:  "administrator",
		Email:     "N/A",
		Username:  operatorUsername,
		Password:  hashed,
		Level:     "super",
		Status:    common.ENABLED,
		Remark:    "super",
		LastLogin: time.Now(),
	}).Error; err != nil {
		zap.L().Error("failed to create default operator", zap.Error(err))
		return
	}
	zap.L().Info("initialized default operator account", zap.String("username", operatorUsername))
}

type settingSchema struct {
	Key         string
	Default     string
	Description string
}

// defaultSettings are the runtime knobs initialized into sys_config.
var defaultSettings = []settingSchema{
	{
		Key:         "checkout.strict_variant_match",
		Default:     "true",
		Description: "Fail items with no exact size/color match instead of substituting the first variant",
	},
	{
		Key:         "checkout.fulfill_status",
		Default:     domain.OrderStatusDelivered,
		Description: "Lifecycle status committed orders are created with",
	},
	{
		Key:         "jobs.stock_resync_workers",
		Default:     "8",
		Description: "Worker pool size for the periodic stock resync sweep",
	},
}

func (a *Application) checkSettings() {
	for sortid, schema := range defaultSettings {
		parts := strings.SplitN(schema.Key, ".", 2)
		if len(parts) != 2 {
			zap.L().Warn("invalid config key format", zap.String("key", schema.Key))
			continue
		}

		var count int64
		a.gormDB.Model(&domain.SysConfig{}).
			Where("type = ? and name = ?", parts[0], parts[1]).
			Count(&count)

		if count == 0 {
			a.gormDB.Create(&domain.SysConfig{
				Sort:   sortid,
				Type:   parts[0],
				Name:   parts[1],
				Value:  schema.Default,
				Remark: schema.Description,
			})
			zap.L().Info("initialized config",
				zap.String("key", schema.Key),
				zap.String("default", schema.Default))
		}
	}
}

// checkCustomers seeds a demo customer with the default opening balance.
func (a *Application) checkCustomers() {
	var count int64
	a.gormDB.Model(&domain.Customer{}).Count(&count)
	if count > 0 {
		return
	}

	hashed, err := common.HashPassword("demo1234")
	if err != nil {
		zap.L().Error("failed to hash demo customer password", zap.Error(err))
		return
	}

	customer := domain.Customer{
		Username:  "demo",
		FirstName: "Demo",
		LastName:  "Customer",
		Email:     "demo@corethreads.local",
		Password:  hashed,
		Balance:   decimal.NewFromInt(1000),
		Status:    common.ENABLED,
	}
	if err := a.gormDB.Create(&customer).Error; err != nil {
		zap.L().Error("failed to create demo customer", zap.Error(err))
		return
	}
	zap.L().Info("initialized demo customer", zap.String("username", customer.Username))
}

// checkCatalog seeds demo products and variants for an empty store.
func (a *Application) checkCatalog() {
	var count int64
	a.gormDB.Model(&domain.Product{}).Count(&count)
	if count > 0 {
		return
	}

	black := "Black"
	white := "White"
	price := func(v string) *decimal.Decimal {
		d := decimal.RequireFromString(v)
		return &d
	}

	seeds := []struct {
		product  domain.Product
		variants []domain.ProductVariant
	}{
		{
			product: domain.Product{
				Name:        "Core Tee",
				Description: "Heavyweight cotton tee",
				Price:       decimal.RequireFromString("49.99"),
				ProductCode: "CT-TEE-001",
				Colors:      "Black,White",
				IsActive:    true,
			},
			variants: []domain.ProductVariant{
				{Size: "M", Color: &black, Sku: "CT-TEE-001-M-BLK", Stock: 50},
				{Size: "L", Color: &black, Sku: "CT-TEE-001-L-BLK", Stock: 50},
				{Size: "M", Color: &white, Sku: "CT-TEE-001-M-WHT", Stock: 25},
			},
		},
		{
			product: domain.Product{
				Name:        "Thread Hoodie",
				Description: "Fleece-lined hoodie",
				Price:       decimal.RequireFromString("89.50"),
				ProductCode: "CT-HOOD-001",
				Colors:      "Black",
				IsActive:    true,
			},
			variants: []domain.ProductVariant{
				{Size: "M", Color: &black, Sku: "CT-HOOD-001-M-BLK", Stock: 20, Price: price("79.50")},
				{Size: "XL", Color: &black, Sku: "CT-HOOD-001-XL-BLK", Stock: 10},
			},
		},
	}

	now := time.Now()
	for _, seed := range seeds {
		p := seed.product
		p.CreatedAt = now
		p.UpdatedAt = now
		if err := a.gormDB.Create(&p).Error; err != nil {
			zap.L().Error("failed to create demo product", zap.String("name", p.Name), zap.Error(err))
			continue
		}
		var total int64
		for _, v := range seed.variants {
			v.ProductID = p.ID
			v.CreatedAt = now
			v.UpdatedAt = now
			if err := a.gormDB.Create(&v).Error; err != nil {
				zap.L().Error("failed to create demo variant", zap.String("sku", v.Sku), zap.Error(err))
				continue
			}
			total += v.Stock
		}
		a.gormDB.Model(&domain.Product{}).Where("id = ?", p.ID).Update("stock", total)
		zap.L().Info("initialized demo product", zap.String("name", p.Name), zap.Int64("stock", total))
	}
}
