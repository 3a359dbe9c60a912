package database

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/wfunc/expo-garden/internal/logger"
	"go.uber.org/zap"
)

const (
	lockAttempts      = 30
	lockRetryInterval = time.Second
	staleLockAge      = 5 * time.Minute
)

// acquireMigrationLock 以独占创建锁文件的方式获取迁移锁，文件内容为持有者PID
func acquireMigrationLock(dbPath string) (*os.File, error) {
	lockPath := dbPath + ".migration.lock"

	for attempt := 1; attempt <= lockAttempts; attempt++ {
		lockFile, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0644)
		if err == nil {
			fmt.Fprintf(lockFile, "%d\n", os.Getpid())
			logger.Debug("获取迁移锁成功", zap.String("lock", lockPath))
			return lockFile, nil
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("创建迁移锁失败: %w", err)
		}

		if removeIfStale(lockPath) {
			continue
		}

		holder, _ := os.ReadFile(lockPath)
		logger.Debug("等待迁移锁...",
			zap.Int("attempt", attempt),
			zap.String("holder_pid", strings.TrimSpace(string(holder))),
		)
		time.Sleep(lockRetryInterval)
	}

	return nil, fmt.Errorf("无法获取迁移锁，可能有其他进程正在执行迁移")
}

// removeIfStale 锁文件超过 staleLockAge 视为残留并删除
func removeIfStale(lockPath string) bool {
	info, err := os.Stat(lockPath)
	if err != nil || time.Since(info.ModTime()) <= staleLockAge {
		return false
	}
	logger.Warn("迁移锁文件过期，删除", zap.String("lock", lockPath))
	return os.Remove(lockPath) == nil
}

// releaseMigrationLock 释放迁移锁
func releaseMigrationLock(lockFile *os.File) {
	if lockFile == nil {
		return
	}

	lockPath := lockFile.Name()
	lockFile.Close()
	os.Remove(lockPath)
	logger.Debug("释放迁移锁", zap.String("lock", lockPath))
}

// getDBPath 获取sqlite数据库文件路径，其他驱动或内存库返回空
func getDBPath() string {
	if DB == nil || DB.Dialector.Name() != "sqlite" {
		return ""
	}

	sqlDB, err := DB.DB()
	if err != nil {
		return ""
	}

	row := sqlDB.QueryRow("PRAGMA database_list")
	var seq int
	var name, file string
	if err := row.Scan(&seq, &name, &file); err != nil {
		return ""
	}
	return file
}

// CleanupStaleLocks 清理默认数据目录下残留的锁文件
func CleanupStaleLocks() {
	for _, pattern := range []string{"./data/*.migration.lock", "./*.migration.lock"} {
		matches, _ := filepath.Glob(pattern)
		for _, lockPath := range matches {
			removeIfStale(lockPath)
		}
	}
}
