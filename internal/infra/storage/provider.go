/*
 * @Description: 存储提供者抽象与工厂
 * @Author: 星河
 * @Date: 2025-05-20 10:08:42
 * @LastEditTime: 2025-08-27 17:34:19
 * @LastEditors: 星河
 */
package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/xinghe-v/xinghe-video/pkg/constant"
	"github.com/xinghe-v/xinghe-video/pkg/domain/model"
)

// UploadResult 上传完成后返回的对象信息
type UploadResult struct {
	// Source 对象在存储端的定位标识（本地为相对路径，云端为对象 Key）
	Source   string
	Size     int64
	MimeType string
}

// IStorageProvider 屏蔽不同存储后端的差异。
// 本地磁盘、S3、阿里云 OSS、腾讯云 COS 各有一个实现。
type IStorageProvider interface {
	// Upload 将 reader 中的数据写入存储端的 key 位置
	Upload(ctx context.Context, reader io.Reader, policy *model.StoragePolicy, key string) (*UploadResult, error)
	// Get 打开整个对象的读取流
	Get(ctx context.Context, policy *model.StoragePolicy, source string) (io.ReadCloser, error)
	// GetRange 打开对象 [start, start+length) 字节区间的读取流
	GetRange(ctx context.Context, policy *model.StoragePolicy, source string, start, length int64) (io.ReadCloser, error)
	// Delete 批量删除对象，返回删除失败的 source 列表
	Delete(ctx context.Context, policy *model.StoragePolicy, sources []string) ([]string, error)
	// IsExist 判断对象是否存在
	IsExist(ctx context.Context, policy *model.StoragePolicy, source string) (bool, error)
	// Size 返回对象大小（字节）
	Size(ctx context.Context, policy *model.StoragePolicy, source string) (int64, error)
}

// NewProvider 根据存储策略类型返回对应的提供者实现
func NewProvider(policyType constant.StoragePolicyType) (IStorageProvider, error) {
	switch policyType {
	case constant.PolicyTypeLocal:
		return NewLocalProvider(), nil
	case constant.PolicyTypeS3:
		return NewS3Provider(), nil
	case constant.PolicyTypeAliOSS:
		return NewAliOSSProvider(), nil
	case constant.PolicyTypeTencentCOS:
		return NewTencentCOSProvider(), nil
	default:
		return nil, fmt.Errorf("不支持的存储策略类型: %s", policyType)
	}
}
