/*
 * @Description: 阿里云 OSS 存储提供者
 * @Author: 星河
 * @Date: 2025-05-23 09:48:12
 * @LastEditTime: 2025-08-27 18:11:07
 * @LastEditors: 星河
 */
package storage

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"

	"github.com/xinghe-v/xinghe-video/pkg/domain/model"
)

type aliOSSProvider struct{}

func NewAliOSSProvider() IStorageProvider {
	return &aliOSSProvider{}
}

func (p *aliOSSProvider) getBucket(policy *model.StoragePolicy) (*oss.Bucket, error) {
	client, err := oss.New(policy.Server, policy.AccessKey, policy.SecretKey)
	if err != nil {
		return nil, fmt.Errorf("创建 OSS 客户端失败: %w", err)
	}
	bucket, err := client.Bucket(policy.BucketName)
	if err != nil {
		return nil, fmt.Errorf("获取 OSS Bucket 失败: %w", err)
	}
	return bucket, nil
}

func (p *aliOSSProvider) Upload(ctx context.Context, reader io.Reader, policy *model.StoragePolicy, key string) (*UploadResult, error) {
	bucket, err := p.getBucket(policy)
	if err != nil {
		return nil, err
	}
	if err := bucket.PutObject(key, reader); err != nil {
		return nil, fmt.Errorf("上传对象到 OSS 失败: %w", err)
	}

	meta, err := bucket.GetObjectDetailedMeta(key)
	if err != nil {
		return nil, fmt.Errorf("获取 OSS 对象元信息失败: %w", err)
	}
	size, _ := strconv.ParseInt(meta.Get("Content-Length"), 10, 64)
	return &UploadResult{
		Source:   key,
		Size:     size,
		MimeType: meta.Get("Content-Type"),
	}, nil
}

func (p *aliOSSProvider) Get(ctx context.Context, policy *model.StoragePolicy, source string) (io.ReadCloser, error) {
	bucket, err := p.getBucket(policy)
	if err != nil {
		return nil, err
	}
	body, err := bucket.GetObject(source)
	if err != nil {
		return nil, fmt.Errorf("读取 OSS 对象失败: %w", err)
	}
	return body, nil
}

func (p *aliOSSProvider) GetRange(ctx context.Context, policy *model.StoragePolicy, source string, start, length int64) (io.ReadCloser, error) {
	bucket, err := p.getBucket(policy)
	if err != nil {
		return nil, err
	}
	body, err := bucket.GetObject(source, oss.Range(start, start+length-1))
	if err != nil {
		return nil, fmt.Errorf("读取 OSS 对象区间失败: %w", err)
	}
	return body, nil
}

func (p *aliOSSProvider) Delete(ctx context.Context, policy *model.StoragePolicy, sources []string) ([]string, error) {
	bucket, err := p.getBucket(policy)
	if err != nil {
		return sources, err
	}
	// 请求返回删除成功的列表，取差集即为失败项
	result, err := bucket.DeleteObjects(sources, oss.DeleteObjectsQuiet(false))
	if err != nil {
		return sources, fmt.Errorf("批量删除 OSS 对象失败: %w", err)
	}

	deleted := make(map[string]struct{}, len(result.DeletedObjects))
	for _, key := range result.DeletedObjects {
		deleted[key] = struct{}{}
	}
	var failed []string
	for _, source := range sources {
		if _, ok := deleted[source]; !ok {
			failed = append(failed, source)
		}
	}
	if len(failed) > 0 {
		return failed, fmt.Errorf("部分对象删除失败: %d 个", len(failed))
	}
	return nil, nil
}

func (p *aliOSSProvider) IsExist(ctx context.Context, policy *model.StoragePolicy, source string) (bool, error) {
	bucket, err := p.getBucket(policy)
	if err != nil {
		return false, err
	}
	return bucket.IsObjectExist(source)
}

func (p *aliOSSProvider) Size(ctx context.Context, policy *model.StoragePolicy, source string) (int64, error) {
	bucket, err := p.getBucket(policy)
	if err != nil {
		return 0, err
	}
	meta, err := bucket.GetObjectDetailedMeta(source)
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(meta.Get("Content-Length"), 10, 64)
}
