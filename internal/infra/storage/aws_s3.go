/*
 * @Description: AWS S3（及兼容协议）存储提供者
 * @Author: 星河
 * @Date: 2025-05-22 15:19:03
 * @LastEditTime: 2025-08-27 18:02:31
 * @LastEditors: 星河
 */
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/xinghe-v/xinghe-video/pkg/domain/model"
)

type s3Provider struct{}

func NewS3Provider() IStorageProvider {
	return &s3Provider{}
}

// getClient 按策略构建 S3 客户端。Server 非空时作为自定义 Endpoint（兼容 MinIO 等）。
func (p *s3Provider) getClient(ctx context.Context, policy *model.StoragePolicy) (*s3.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(policy.AccessKey, policy.SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("加载 S3 配置失败: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if policy.Server != "" {
			o.BaseEndpoint = aws.String(policy.Server)
			// 自建对象存储通常只支持 Path-Style
			o.UsePathStyle = true
		}
	})
	return client, nil
}

func (p *s3Provider) Upload(ctx context.Context, reader io.Reader, policy *model.StoragePolicy, key string) (*UploadResult, error) {
	client, err := p.getClient(ctx, policy)
	if err != nil {
		return nil, err
	}

	if _, err := client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(policy.BucketName),
		Key:    aws.String(key),
		Body:   reader,
	}); err != nil {
		return nil, fmt.Errorf("上传对象到 S3 失败: %w", err)
	}

	head, err := client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(policy.BucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("获取对象元信息失败: %w", err)
	}

	return &UploadResult{
		Source:   key,
		Size:     aws.ToInt64(head.ContentLength),
		MimeType: aws.ToString(head.ContentType),
	}, nil
}

func (p *s3Provider) Get(ctx context.Context, policy *model.StoragePolicy, source string) (io.ReadCloser, error) {
	client, err := p.getClient(ctx, policy)
	if err != nil {
		return nil, err
	}
	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(policy.BucketName),
		Key:    aws.String(source),
	})
	if err != nil {
		return nil, fmt.Errorf("读取 S3 对象失败: %w", err)
	}
	return out.Body, nil
}

func (p *s3Provider) GetRange(ctx context.Context, policy *model.StoragePolicy, source string, start, length int64) (io.ReadCloser, error) {
	client, err := p.getClient(ctx, policy)
	if err != nil {
		return nil, err
	}
	rangeHeader := fmt.Sprintf("bytes=%d-%d", start, start+length-1)
	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(policy.BucketName),
		Key:    aws.String(source),
		Range:  aws.String(rangeHeader),
	})
	if err != nil {
		return nil, fmt.Errorf("读取 S3 对象区间失败: %w", err)
	}
	return out.Body, nil
}

func (p *s3Provider) Delete(ctx context.Context, policy *model.StoragePolicy, sources []string) ([]string, error) {
	client, err := p.getClient(ctx, policy)
	if err != nil {
		return sources, err
	}

	objects := make([]types.ObjectIdentifier, 0, len(sources))
	for _, source := range sources {
		objects = append(objects, types.ObjectIdentifier{Key: aws.String(source)})
	}

	out, err := client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(policy.BucketName),
		Delete: &types.Delete{Objects: objects, Quiet: aws.Bool(true)},
	})
	if err != nil {
		return sources, fmt.Errorf("批量删除 S3 对象失败: %w", err)
	}

	var failed []string
	for _, e := range out.Errors {
		failed = append(failed, aws.ToString(e.Key))
	}
	if len(failed) > 0 {
		return failed, fmt.Errorf("部分对象删除失败: %d 个", len(failed))
	}
	return nil, nil
}

func (p *s3Provider) IsExist(ctx context.Context, policy *model.StoragePolicy, source string) (bool, error) {
	_, err := p.headObject(ctx, policy, source)
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) || strings.Contains(err.Error(), "NotFound") {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (p *s3Provider) Size(ctx context.Context, policy *model.StoragePolicy, source string) (int64, error) {
	head, err := p.headObject(ctx, policy, source)
	if err != nil {
		return 0, err
	}
	return aws.ToInt64(head.ContentLength), nil
}

func (p *s3Provider) headObject(ctx context.Context, policy *model.StoragePolicy, source string) (*s3.HeadObjectOutput, error) {
	client, err := p.getClient(ctx, policy)
	if err != nil {
		return nil, err
	}
	return client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(policy.BucketName),
		Key:    aws.String(source),
	})
}
