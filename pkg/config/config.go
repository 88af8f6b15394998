/*
 * @Description: 统一配置管理（ini 文件加载 + 环境变量覆盖）
 * @Author: 星河
 * @Date: 2025-03-15 19:30:18
 * @LastEditTime: 2025-08-14 10:26:51
 * @LastEditors: 星河
 */
package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-ini/ini"
	"github.com/spf13/viper"
)

// 定义所有已知的配置键
var allKeys = []string{
	KeyServerPort, KeyServerDebug, KeyJWTSecret,
	KeyDBType, KeyDBHost, KeyDBPort, KeyDBUser, KeyDBPassword, KeyDBName,
	KeyRedisAddr, KeyRedisPassword, KeyRedisDB,
	KeyStorageType, KeyStorageLocalBasePath, KeyStorageServer, KeyStorageBucket,
	KeyStorageAccessKey, KeyStorageSecretKey, KeyStorageBasePath,
	KeyUploadTempDir, KeyUploadMaxFileSize, KeyUploadChunkSize,
	KeyStreamRateLimit,
}

const (
	KeyServerPort  = "System.Port"
	KeyServerDebug = "System.Debug"
	KeyJWTSecret   = "System.JWTSecret"

	KeyDBType     = "Database.Type"
	KeyDBHost     = "Database.Host"
	KeyDBPort     = "Database.Port"
	KeyDBUser     = "Database.User"
	KeyDBPassword = "Database.Password"
	KeyDBName     = "Database.Name"

	KeyRedisAddr     = "Redis.Addr"
	KeyRedisPassword = "Redis.Password"
	KeyRedisDB       = "Redis.DB"

	KeyStorageType          = "Storage.Type"
	KeyStorageLocalBasePath = "Storage.LocalBasePath"
	KeyStorageServer        = "Storage.Server"
	KeyStorageBucket        = "Storage.Bucket"
	KeyStorageAccessKey     = "Storage.AccessKey"
	KeyStorageSecretKey     = "Storage.SecretKey"
	KeyStorageBasePath      = "Storage.BasePath"

	KeyUploadTempDir     = "Upload.TempDir"
	KeyUploadMaxFileSize = "Upload.MaxFileSize"
	KeyUploadChunkSize   = "Upload.ChunkSize"

	// KeyStreamRateLimit 单连接限速（字节/秒），0 或空表示不限速
	KeyStreamRateLimit = "Stream.RateLimit"
)

type Config struct {
	vp *viper.Viper
}

// NewConfig 手动加载配置：先读 ini 文件作为默认值，再用环境变量覆盖。
func NewConfig() (*Config, error) {
	vp := viper.New()
	filePath := "data/conf.ini"

	// --- 步骤 1: 使用 go-ini 从文件加载配置 (作为默认值) ---
	iniCfg, err := ini.Load(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("提示: 未找到 %s，将创建默认配置文件。", filePath)
			if err := createDefaultConfigFile(filePath); err != nil {
				log.Printf("警告: 创建默认配置文件失败: %v，将仅依赖环境变量或内部默认值。", err)
			} else {
				log.Printf("✅ 已创建默认配置文件: %s", filePath)
				iniCfg, err = ini.Load(filePath)
				if err != nil {
					log.Printf("警告: 重新加载配置文件失败: %v", err)
				}
			}
		} else {
			return nil, fmt.Errorf("错误: 解析配置文件 '%s' 失败: %w", filePath, err)
		}
	}

	if iniCfg != nil {
		for _, section := range iniCfg.Sections() {
			for _, key := range section.Keys() {
				// 构建 Viper 使用的 key，例如 "Database.Host"
				viperKey := fmt.Sprintf("%s.%s", section.Name(), key.Name())
				if section.Name() == "DEFAULT" {
					viperKey = key.Name()
				}
				vp.Set(viperKey, key.Value())
			}
		}
		log.Println("从 data/conf.ini 文件加载了默认配置。")
	}

	// --- 步骤 2: 手动检查并覆盖环境变量 ---
	envReplacer := strings.NewReplacer(".", "_")
	envPrefix := "XINGHE"

	for _, key := range allKeys {
		// 构建环境变量名，例如 XINGHE_DATABASE_HOST
		envVarName := fmt.Sprintf("%s_%s", envPrefix, envReplacer.Replace(strings.ToUpper(key)))
		if value, found := os.LookupEnv(envVarName); found {
			vp.Set(key, value)
			log.Printf("发现环境变量: %s, 已覆盖配置 '%s'。", envVarName, key)
		}
	}

	log.Println("✅ 配置加载器初始化完成。")
	return &Config{vp: vp}, nil
}

func (c *Config) GetString(key string) string {
	return c.vp.GetString(key)
}

func (c *Config) GetInt(key string) int {
	return c.vp.GetInt(key)
}

func (c *Config) GetInt64(key string) int64 {
	return c.vp.GetInt64(key)
}

func (c *Config) GetBool(key string) bool {
	return c.vp.GetBool(key)
}

// createDefaultConfigFile 创建默认的配置文件
func createDefaultConfigFile(filePath string) error {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("创建目录失败: %w", err)
	}

	// 默认配置内容（使用 SQLite 作为默认数据库，本地磁盘作为默认存储）
	defaultConfig := `[System]
Port = 8090
Debug = false
JWTSecret =

[Database]
Type = sqlite
Name = xinghe_video.db

# Redis 配置（可选）
# 如果不配置或留空 Addr，系统将自动使用内存缓存
[Redis]
Addr =
Password =
DB = 0

[Storage]
Type = local
LocalBasePath = data/videos

[Upload]
TempDir = data/temp/uploads
# 单文件上限（字节），默认 500MB
MaxFileSize = 524288000
# 默认分片大小（字节），默认 10MB
ChunkSize = 10485760

[Stream]
# 单连接限速（字节/秒），0 表示不限速
RateLimit = 0
`

	if err := os.WriteFile(filePath, []byte(defaultConfig), 0644); err != nil {
		return fmt.Errorf("写入配置文件失败: %w", err)
	}
	return nil
}
