package repository

import (
	"fmt"
	"sync/atomic"

	"github.com/wfunc/expo-garden/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDBSeq atomic.Int64

// SetupTestDB 创建独立的内存数据库并迁移所有模型
func SetupTestDB() *gorm.DB {
	// 每个测试使用独立命名的共享缓存内存库，避免连接池切换导致表丢失
	dsn := fmt.Sprintf("file:expo_test_%d?mode=memory&cache=shared", testDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		panic(err)
	}

	// 单连接避免sqlite共享缓存的表锁冲突
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.UserAuth{},
		&models.Exhibition{},
		&models.Hall{},
		&models.Booth{},
		&models.BoothMember{},
		&models.ChatMessage{},
		&models.Question{},
		&models.GuestbookEntry{},
	)
	if err != nil {
		panic(err)
	}

	return db
}

// CleanupTestDB 清理测试数据库
func CleanupTestDB(db *gorm.DB) {
	sqlDB, _ := db.DB()
	if sqlDB != nil {
		sqlDB.Close()
	}
}
