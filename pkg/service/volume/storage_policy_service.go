/*
 * @Description: 存储策略服务（由配置文件驱动）
 * @Author: 星河
 * @Date: 2025-05-24 11:02:36
 * @LastEditTime: 2025-08-27 18:30:14
 * @LastEditors: 星河
 */
package volume

import (
	"context"
	"fmt"

	"github.com/xinghe-v/xinghe-video/pkg/config"
	"github.com/xinghe-v/xinghe-video/pkg/constant"
	"github.com/xinghe-v/xinghe-video/pkg/domain/model"
)

// IStoragePolicyService 提供当前生效的存储策略
type IStoragePolicyService interface {
	GetActivePolicy(ctx context.Context) (*model.StoragePolicy, error)
}

type storagePolicyService struct {
	policy *model.StoragePolicy
}

// NewStoragePolicyService 在启动时从配置解析出存储策略并做基本校验
func NewStoragePolicyService(cfg *config.Config) (IStoragePolicyService, error) {
	policyType := constant.StoragePolicyType(cfg.GetString(config.KeyStorageType))
	if policyType == "" {
		policyType = constant.PolicyTypeLocal
	}

	policy := &model.StoragePolicy{
		Name:       "default",
		Type:       policyType,
		Server:     cfg.GetString(config.KeyStorageServer),
		BucketName: cfg.GetString(config.KeyStorageBucket),
		AccessKey:  cfg.GetString(config.KeyStorageAccessKey),
		SecretKey:  cfg.GetString(config.KeyStorageSecretKey),
		BasePath:   cfg.GetString(config.KeyStorageBasePath),
		MaxSize:    cfg.GetInt64(config.KeyUploadMaxFileSize),
	}

	switch policy.Type {
	case constant.PolicyTypeLocal:
		policy.BasePath = cfg.GetString(config.KeyStorageLocalBasePath)
		if policy.BasePath == "" {
			policy.BasePath = "data/videos"
		}
	case constant.PolicyTypeS3, constant.PolicyTypeAliOSS, constant.PolicyTypeTencentCOS:
		if policy.BucketName == "" || policy.AccessKey == "" || policy.SecretKey == "" {
			return nil, fmt.Errorf("存储策略 %s 缺少必要的凭证配置", policy.Type)
		}
	default:
		return nil, fmt.Errorf("不支持的存储策略类型: %s", policy.Type)
	}

	return &storagePolicyService{policy: policy}, nil
}

func (s *storagePolicyService) GetActivePolicy(ctx context.Context) (*model.StoragePolicy, error) {
	if s.policy == nil {
		return nil, constant.ErrPolicyNotFound
	}
	return s.policy, nil
}
