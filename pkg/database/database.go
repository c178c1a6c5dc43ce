package database

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/d60-Lab/likefeed/config"
	"github.com/d60-Lab/likefeed/internal/model"
)

// InitDB 按配置打开数据库，并按需建表、写入演示数据
func InitDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := Open(cfg.Database)
	if err != nil {
		return nil, err
	}
	if cfg.Database.AutoMigrate {
		if err := Migrate(db); err != nil {
			return nil, err
		}
	}
	if cfg.Database.Seed {
		if err := Seed(db); err != nil {
			return nil, err
		}
	}
	return db, nil
}

// Open 打开 sqlite 或 postgres 连接并设置连接池
func Open(c config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch c.Driver {
	case "postgres":
		dialector = postgres.Open(c.DSN)
	case "sqlite", "":
		dialector = sqlite.Open(c.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", c.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.New(log.New(os.Stdout, "\r\n", log.LstdFlags), gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", c.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if isMemorySQLite(c) {
		// 每个连接都是一个独立的内存库，只能保留一个
		sqlDB.SetMaxOpenConns(1)
		return db, nil
	}
	if c.MaxOpen > 0 {
		sqlDB.SetMaxOpenConns(c.MaxOpen)
	}
	if c.MaxIdle > 0 {
		sqlDB.SetMaxIdleConns(c.MaxIdle)
	}
	if c.MaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(c.MaxLifetime) * time.Second)
	}
	return db, nil
}

func isMemorySQLite(c config.DatabaseConfig) bool {
	if c.Driver != "sqlite" && c.Driver != "" {
		return false
	}
	return strings.Contains(c.DSN, ":memory:") || strings.Contains(c.DSN, "mode=memory")
}

// Migrate 初始化表结构
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.User{}, &model.Post{}, &model.Like{}, &model.Notification{}); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}

// Seed 写入演示数据（已存在则跳过）
func Seed(db *gorm.DB) error {
	users := []model.User{
		{ID: 1, Username: "john"},
		{ID: 2, Username: "jane"},
	}
	posts := []model.Post{
		{ID: 1, UserID: 1, Content: "Hello World!"},
		{ID: 2, UserID: 2, Content: "Great day today"},
	}
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&users).Error; err != nil {
			return fmt.Errorf("seed users: %w", err)
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&posts).Error; err != nil {
			return fmt.Errorf("seed posts: %w", err)
		}
		// 显式写入了主键，postgres 的序列需要跟上
		if tx.Dialector.Name() == "postgres" {
			for _, table := range []string{"users", "posts"} {
				if err := tx.Exec(fmt.Sprintf(
					"SELECT setval(pg_get_serial_sequence('%[1]s', 'id'), (SELECT COALESCE(MAX(id), 1) FROM %[1]s))", table,
				)).Error; err != nil {
					return fmt.Errorf("reset %s sequence: %w", table, err)
				}
			}
		}
		return nil
	})
}

// Close 关闭底层连接
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
