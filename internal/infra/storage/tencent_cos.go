/*
 * @Description: 腾讯云 COS 存储提供者
 * @Author: 星河
 * @Date: 2025-05-23 14:27:50
 * @LastEditTime: 2025-08-27 18:19:33
 * @LastEditors: 星河
 */
package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/tencentyun/cos-go-sdk-v5"

	"github.com/xinghe-v/xinghe-video/pkg/domain/model"
)

type tencentCOSProvider struct{}

func NewTencentCOSProvider() IStorageProvider {
	return &tencentCOSProvider{}
}

// getClient 按策略构建 COS 客户端。Server 为完整的存储桶访问域名。
func (p *tencentCOSProvider) getClient(policy *model.StoragePolicy) (*cos.Client, error) {
	u, err := url.Parse(policy.Server)
	if err != nil {
		return nil, fmt.Errorf("解析 COS 访问域名失败: %w", err)
	}
	client := cos.NewClient(&cos.BaseURL{BucketURL: u}, &http.Client{
		Transport: &cos.AuthorizationTransport{
			SecretID:  policy.AccessKey,
			SecretKey: policy.SecretKey,
		},
	})
	return client, nil
}

func (p *tencentCOSProvider) Upload(ctx context.Context, reader io.Reader, policy *model.StoragePolicy, key string) (*UploadResult, error) {
	client, err := p.getClient(policy)
	if err != nil {
		return nil, err
	}
	if _, err := client.Object.Put(ctx, key, reader, nil); err != nil {
		return nil, fmt.Errorf("上传对象到 COS 失败: %w", err)
	}

	resp, err := client.Object.Head(ctx, key, nil)
	if err != nil {
		return nil, fmt.Errorf("获取 COS 对象元信息失败: %w", err)
	}
	defer resp.Body.Close()
	size, _ := strconv.ParseInt(resp.Header.Get("Content-Length"), 10, 64)
	return &UploadResult{
		Source:   key,
		Size:     size,
		MimeType: resp.Header.Get("Content-Type"),
	}, nil
}

func (p *tencentCOSProvider) Get(ctx context.Context, policy *model.StoragePolicy, source string) (io.ReadCloser, error) {
	client, err := p.getClient(policy)
	if err != nil {
		return nil, err
	}
	resp, err := client.Object.Get(ctx, source, nil)
	if err != nil {
		return nil, fmt.Errorf("读取 COS 对象失败: %w", err)
	}
	return resp.Body, nil
}

func (p *tencentCOSProvider) GetRange(ctx context.Context, policy *model.StoragePolicy, source string, start, length int64) (io.ReadCloser, error) {
	client, err := p.getClient(policy)
	if err != nil {
		return nil, err
	}
	opt := &cos.ObjectGetOptions{
		Range: fmt.Sprintf("bytes=%d-%d", start, start+length-1),
	}
	resp, err := client.Object.Get(ctx, source, opt)
	if err != nil {
		return nil, fmt.Errorf("读取 COS 对象区间失败: %w", err)
	}
	return resp.Body, nil
}

func (p *tencentCOSProvider) Delete(ctx context.Context, policy *model.StoragePolicy, sources []string) ([]string, error) {
	client, err := p.getClient(policy)
	if err != nil {
		return sources, err
	}

	objects := make([]cos.Object, 0, len(sources))
	for _, source := range sources {
		objects = append(objects, cos.Object{Key: source})
	}
	result, _, err := client.Object.DeleteMulti(ctx, &cos.ObjectDeleteMultiOptions{
		Objects: objects,
		Quiet:   true,
	})
	if err != nil {
		return sources, fmt.Errorf("批量删除 COS 对象失败: %w", err)
	}

	var failed []string
	for _, e := range result.Errors {
		failed = append(failed, e.Key)
	}
	if len(failed) > 0 {
		return failed, fmt.Errorf("部分对象删除失败: %d 个", len(failed))
	}
	return nil, nil
}

func (p *tencentCOSProvider) IsExist(ctx context.Context, policy *model.StoragePolicy, source string) (bool, error) {
	client, err := p.getClient(policy)
	if err != nil {
		return false, err
	}
	ok, err := client.Object.IsExist(ctx, source)
	if err != nil {
		return false, err
	}
	return ok, nil
}

func (p *tencentCOSProvider) Size(ctx context.Context, policy *model.StoragePolicy, source string) (int64, error) {
	client, err := p.getClient(policy)
	if err != nil {
		return 0, err
	}
	resp, err := client.Object.Head(ctx, source, nil)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return strconv.ParseInt(resp.Header.Get("Content-Length"), 10, 64)
}
