/*
 * @Description: 公共 ID 生成与解码服务
 * @Author: 星河
 * @Date: 2025-03-17 21:02:44
 * @LastEditTime: 2025-07-28 19:36:20
 * @LastEditors: 星河
 */
package idgen

import (
	"fmt"

	"github.com/sqids/sqids-go"
)

// sqidsEncoder 是用于生成和解码短 ID 的 Sqids 编码器实例。
var sqidsEncoder *sqids.Sqids

// DefaultAlphabet 是默认的字母表
const DefaultAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// EntityType 定义了不同实体在生成公共 ID 时的类型标识。
// 数据库自增 ID 不直接暴露给外部，统一编码为短 ID。
const (
	EntityTypeUser      uint64 = 1 // 用户实体
	EntityTypeVideo     uint64 = 2 // 视频实体
	EntityTypeCategory  uint64 = 3 // 视频分类实体
	EntityTypeUserGroup uint64 = 4 // 用户组实体
)

// InitSqidsEncoder 初始化 Sqids 编码器。
func InitSqidsEncoder() error {
	s, err := sqids.New(
		sqids.Options{
			MinLength: 4,
			Alphabet:  DefaultAlphabet,
		},
	)
	if err != nil {
		return fmt.Errorf("初始化 Sqids 编码器失败: %w", err)
	}
	sqidsEncoder = s
	return nil
}

// GeneratePublicID 将内部数据库 ID 编码为公共 ID。
func GeneratePublicID(dbID uint, entityType uint64) (string, error) {
	if sqidsEncoder == nil {
		return "", fmt.Errorf("Sqids 编码器未初始化")
	}

	id, err := sqidsEncoder.Encode([]uint64{uint64(dbID), entityType})
	if err != nil {
		return "", fmt.Errorf("编码公共ID失败: %w", err)
	}
	return id, nil
}

// DecodePublicID 解码公共 ID，返回内部 ID 与实体类型。
func DecodePublicID(publicID string) (dbID uint, entityType uint64, err error) {
	if sqidsEncoder == nil {
		return 0, 0, fmt.Errorf("Sqids 编码器未初始化")
	}

	numbers := sqidsEncoder.Decode(publicID)
	if len(numbers) != 2 {
		return 0, 0, fmt.Errorf("无法从公共ID解码出预期数量的数字(期望2个，得到%d个)", len(numbers))
	}
	return uint(numbers[0]), numbers[1], nil
}
