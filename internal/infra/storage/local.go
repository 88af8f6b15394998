/*
 * @Description: 本地磁盘存储提供者
 * @Author: 星河
 * @Date: 2025-05-20 10:31:27
 * @LastEditTime: 2025-08-27 17:40:55
 * @LastEditors: 星河
 */
package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"

	"github.com/xinghe-v/xinghe-video/pkg/domain/model"
)

type localProvider struct{}

func NewLocalProvider() IStorageProvider {
	return &localProvider{}
}

// absPath 将对象 source 拼接到策略的根目录下
func (p *localProvider) absPath(policy *model.StoragePolicy, source string) string {
	return filepath.Join(policy.BasePath, filepath.FromSlash(source))
}

func (p *localProvider) Upload(ctx context.Context, reader io.Reader, policy *model.StoragePolicy, key string) (*UploadResult, error) {
	dst := p.absPath(policy, key)
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return nil, fmt.Errorf("创建存储目录失败: %w", err)
	}

	// 先写临时文件再重命名，避免读到写了一半的对象
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return nil, fmt.Errorf("创建临时文件失败: %w", err)
	}
	tmpName := tmp.Name()
	size, err := io.Copy(tmp, reader)
	closeErr := tmp.Close()
	if err != nil {
		os.Remove(tmpName)
		return nil, fmt.Errorf("写入文件失败: %w", err)
	}
	if closeErr != nil {
		os.Remove(tmpName)
		return nil, fmt.Errorf("关闭文件失败: %w", closeErr)
	}
	if err := os.Rename(tmpName, dst); err != nil {
		os.Remove(tmpName)
		return nil, fmt.Errorf("移动文件失败: %w", err)
	}

	mimeType := mime.TypeByExtension(filepath.Ext(key))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return &UploadResult{Source: key, Size: size, MimeType: mimeType}, nil
}

func (p *localProvider) Get(ctx context.Context, policy *model.StoragePolicy, source string) (io.ReadCloser, error) {
	return os.Open(p.absPath(policy, source))
}

// 局部读取的流包装，Close 时释放底层文件
type sectionReadCloser struct {
	io.Reader
	f *os.File
}

func (s *sectionReadCloser) Close() error { return s.f.Close() }

func (p *localProvider) GetRange(ctx context.Context, policy *model.StoragePolicy, source string, start, length int64) (io.ReadCloser, error) {
	f, err := os.Open(p.absPath(policy, source))
	if err != nil {
		return nil, err
	}
	if _, err := f.Seek(start, io.SeekStart); err != nil {
		f.Close()
		return nil, fmt.Errorf("定位文件偏移失败: %w", err)
	}
	return &sectionReadCloser{Reader: io.LimitReader(f, length), f: f}, nil
}

func (p *localProvider) Delete(ctx context.Context, policy *model.StoragePolicy, sources []string) ([]string, error) {
	var failed []string
	for _, source := range sources {
		if err := os.Remove(p.absPath(policy, source)); err != nil && !os.IsNotExist(err) {
			failed = append(failed, source)
		}
	}
	if len(failed) > 0 {
		return failed, fmt.Errorf("部分文件删除失败: %d 个", len(failed))
	}
	return nil, nil
}

func (p *localProvider) IsExist(ctx context.Context, policy *model.StoragePolicy, source string) (bool, error) {
	_, err := os.Stat(p.absPath(policy, source))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

func (p *localProvider) Size(ctx context.Context, policy *model.StoragePolicy, source string) (int64, error) {
	info, err := os.Stat(p.absPath(policy, source))
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
