/*
 * @Description: 数据库连接初始化
 * @Author: 星河
 * @Date: 2025-03-16 10:44:29
 * @LastEditTime: 2025-08-27 18:44:51
 * @LastEditors: 星河
 */
package database

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/xinghe-v/xinghe-video/pkg/config"
)

// NewSQLDB 根据配置建立数据库连接池。
// 支持 mysql / postgres / sqlite 三种驱动，默认 sqlite。
func NewSQLDB(cfg *config.Config) (*sql.DB, string, error) {
	dbType := cfg.GetString(config.KeyDBType)
	if dbType == "" {
		dbType = "sqlite"
	}

	var driverName, dsn string
	switch dbType {
	case "mysql":
		driverName = "mysql"
		dsn = fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			cfg.GetString(config.KeyDBUser),
			cfg.GetString(config.KeyDBPassword),
			cfg.GetString(config.KeyDBHost),
			cfg.GetInt(config.KeyDBPort),
			cfg.GetString(config.KeyDBName),
		)
	case "postgres":
		driverName = "postgres"
		dsn = fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			cfg.GetString(config.KeyDBHost),
			cfg.GetInt(config.KeyDBPort),
			cfg.GetString(config.KeyDBUser),
			cfg.GetString(config.KeyDBPassword),
			cfg.GetString(config.KeyDBName),
		)
	case "sqlite", "sqlite3":
		dbType = "sqlite"
		driverName = "sqlite3"
		name := cfg.GetString(config.KeyDBName)
		if name == "" {
			name = "xinghe_video.db"
		}
		dsn = fmt.Sprintf("file:%s?_fk=1&cache=shared", name)
	default:
		return nil, "", fmt.Errorf("不支持的数据库类型: %s", dbType)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, "", fmt.Errorf("打开数据库连接失败: %w", err)
	}

	db.SetMaxIdleConns(10)
	db.SetMaxOpenConns(100)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		return nil, "", fmt.Errorf("数据库连接测试失败: %w", err)
	}

	log.Printf("✅ 数据库连接成功 (类型: %s)", dbType)
	return db, dbType, nil
}
