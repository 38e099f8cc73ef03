package db

import (
	"fmt"
	"time"

	"supersonic/logger"
	"supersonic/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// ConnectUserDB 建立用户数据（歌单）数据库连接并迁移表结构
func ConnectUserDB(dsn string) (*gorm.DB, error) {
	userDB, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
		// 禁用外键约束
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect user database with GORM: %w", err)
	}

	// 获取底层的 sql.DB 并配置连接池
	sqlDB, err := userDB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(4)
	sqlDB.SetMaxOpenConns(16)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := userDB.AutoMigrate(&model.Playlist{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to auto migrate playlists: %w", err)
	}

	logger.Info("User database connected")
	return userDB, nil
}

// CloseUserDB 关闭 GORM 数据库连接
func CloseUserDB(userDB *gorm.DB) error {
	if userDB == nil {
		return nil
	}
	sqlDB, err := userDB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
