package database

import (
	"fmt"

	"github.com/wfunc/expo-garden/internal/logger"
	"github.com/wfunc/expo-garden/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Models 需要迁移的模型
func Models() []interface{} {
	return []interface{}{
		// 用户相关
		&models.User{},
		&models.UserAuth{},

		// 展会/展厅/展位
		&models.Exhibition{},
		&models.Hall{},
		&models.Booth{},
		&models.BoothMember{},

		// 聊天记录与访客互动
		&models.ChatMessage{},
		&models.Question{},
		&models.GuestbookEntry{},
	}
}

// AutoMigrate 自动迁移数据库表结构
func AutoMigrate() error {
	if DB == nil {
		return fmt.Errorf("数据库未初始化")
	}

	// 清理过期锁文件
	CleanupStaleLocks()

	// 获取迁移锁，避免多个进程同时迁移
	if dbPath := getDBPath(); dbPath != "" {
		lockFile, err := acquireMigrationLock(dbPath)
		if err != nil {
			logger.Error("无法获取迁移锁", zap.Error(err))
			return fmt.Errorf("获取迁移锁失败: %w", err)
		}
		defer releaseMigrationLock(lockFile)
	}

	logger.Info("开始数据库迁移...")
	if err := Migrate(DB); err != nil {
		return err
	}

	if err := seedDefaultHall(DB); err != nil {
		return err
	}

	logger.Info("数据库迁移完成")
	return nil
}

// Migrate 对指定连接执行表结构迁移和索引创建
func Migrate(db *gorm.DB) error {
	for _, model := range Models() {
		if err := db.AutoMigrate(model); err != nil {
			logger.Error("迁移失败",
				zap.String("model", fmt.Sprintf("%T", model)),
				zap.Error(err),
			)
			return err
		}
		logger.Debug("迁移成功", zap.String("model", fmt.Sprintf("%T", model)))
	}
	return createIndexes(db)
}

// createIndexes 创建复合索引
func createIndexes(db *gorm.DB) error {
	indexes := map[string]string{
		// 聊天记录按展位分页（最新在前）
		"idx_chat_messages_booth_created": "CREATE INDEX IF NOT EXISTS idx_chat_messages_booth_created ON chat_messages(booth_id, created_at)",
		// 展厅内展位列表
		"idx_booths_hall_status": "CREATE INDEX IF NOT EXISTS idx_booths_hall_status ON booths(hall_id, status)",
	}

	for name, stmt := range indexes {
		if err := db.Exec(stmt).Error; err != nil {
			logger.Warn("创建索引失败", zap.String("index", name), zap.Error(err))
		}
	}

	logger.Debug("数据库索引创建完成")
	return nil
}

// seedDefaultHall 空库时创建默认展厅
func seedDefaultHall(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Hall{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hall := models.Hall{Name: "메인 홀", LayoutType: models.LayoutGrid, Width: 40, Height: 30}
	if err := db.Create(&hall).Error; err != nil {
		logger.Error("创建默认展厅失败", zap.Error(err))
		return err
	}

	logger.Info("默认展厅初始化完成", zap.Uint("hall_id", hall.ID))
	return nil
}
