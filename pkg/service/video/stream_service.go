/*
 * @Description: 视频流媒体服务（Range 解析与区间读取）
 * @Author: 星河
 * @Date: 2025-06-14 10:55:08
 * @LastEditTime: 2025-08-28 15:40:33
 * @LastEditors: 星河
 */
package video

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xinghe-v/xinghe-video/internal/infra/storage"
	"github.com/xinghe-v/xinghe-video/pkg/constant"
	"github.com/xinghe-v/xinghe-video/pkg/domain/model"
	"github.com/xinghe-v/xinghe-video/pkg/service/volume"
)

const (
	// StreamBlockSize 是流式响应的分块大小
	StreamBlockSize = 1024 * 1024
	// LargeFileThreshold 超过该大小的下载走分块传输，不再声明 Content-Length
	LargeFileThreshold int64 = 100 * 1024 * 1024
)

// byteRange 是解析后的闭区间 [Start, End]
type byteRange struct {
	Start int64
	End   int64
}

// parseRangeHeader 解析 Range 请求头。
// 返回 nil 表示按完整文件响应：没有 Range 头，或头格式不合法（不合法时
// 宽容地忽略而不是报错）。范围越界返回 ErrRangeNotSatisfiable，
// 越界判定是严格的：start、end 任一超出文件末尾都算 416，不做截断。
func parseRangeHeader(header string, size int64) (*byteRange, error) {
	if header == "" {
		return nil, nil
	}
	const prefix = "bytes="
	if !strings.HasPrefix(header, prefix) {
		return nil, nil
	}
	spec := strings.TrimPrefix(header, prefix)
	// 多段 Range 只取第一段
	if idx := strings.Index(spec, ","); idx >= 0 {
		spec = spec[:idx]
	}
	spec = strings.TrimSpace(spec)

	dash := strings.Index(spec, "-")
	if dash < 0 {
		return nil, nil
	}
	startStr := strings.TrimSpace(spec[:dash])
	endStr := strings.TrimSpace(spec[dash+1:])

	var start, end int64
	if startStr == "" {
		start = 0
	} else {
		v, err := strconv.ParseInt(startStr, 10, 64)
		if err != nil || v < 0 {
			return nil, nil
		}
		start = v
	}
	if endStr == "" {
		end = size - 1
	} else {
		v, err := strconv.ParseInt(endStr, 10, 64)
		if err != nil || v < 0 {
			return nil, nil
		}
		end = v
	}

	if start >= size || end >= size || start > end {
		return nil, fmt.Errorf("%w: bytes=%d-%d (文件大小 %d)", constant.ErrRangeNotSatisfiable, start, end, size)
	}
	return &byteRange{Start: start, End: end}, nil
}

// StreamResult 打开的播放流。Partial 为 true 时按 206 响应。
type StreamResult struct {
	Reader   io.ReadCloser
	Start    int64
	End      int64
	Size     int64
	Partial  bool
	MimeType string
	FileName string
}

// DownloadResult 打开的下载流。Chunked 为 true 时不声明 Content-Length。
type DownloadResult struct {
	Reader   io.ReadCloser
	Size     int64
	FileName string
	MimeType string
	Chunked  bool
}

// IStreamService 定义了播放与下载的读取操作。
type IStreamService interface {
	OpenStream(ctx context.Context, viewer Viewer, publicID string, rangeHeader string) (*StreamResult, error)
	OpenDownload(ctx context.Context, viewer Viewer, publicID string) (*DownloadResult, error)
}

type streamService struct {
	videoSvc  IVideoService
	policySvc volume.IStoragePolicyService
}

func NewStreamService(videoSvc IVideoService, policySvc volume.IStoragePolicyService) IStreamService {
	return &streamService{videoSvc: videoSvc, policySvc: policySvc}
}

func (s *streamService) openProvider(ctx context.Context) (storage.IStorageProvider, *model.StoragePolicy, error) {
	policy, err := s.policySvc.GetActivePolicy(ctx)
	if err != nil {
		return nil, nil, err
	}
	provider, err := storage.NewProvider(policy.Type)
	if err != nil {
		return nil, nil, err
	}
	return provider, policy, nil
}

func (s *streamService) OpenStream(ctx context.Context, viewer Viewer, publicID string, rangeHeader string) (*StreamResult, error) {
	v, err := s.videoSvc.FindPlayable(ctx, viewer, publicID)
	if err != nil {
		return nil, err
	}

	rng, err := parseRangeHeader(rangeHeader, v.FileSize)
	if err != nil {
		return nil, err
	}

	provider, policy, err := s.openProvider(ctx)
	if err != nil {
		return nil, err
	}

	result := &StreamResult{
		Size:     v.FileSize,
		MimeType: responseMimeType(v),
		FileName: v.FileName,
	}
	if rng == nil {
		reader, err := provider.Get(ctx, policy, v.FilePath)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", constant.ErrStorageFailure, err)
		}
		result.Reader = reader
		result.Start = 0
		result.End = v.FileSize - 1
		return result, nil
	}

	reader, err := provider.GetRange(ctx, policy, v.FilePath, rng.Start, rng.End-rng.Start+1)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", constant.ErrStorageFailure, err)
	}
	result.Reader = reader
	result.Start = rng.Start
	result.End = rng.End
	result.Partial = true
	return result, nil
}

func (s *streamService) OpenDownload(ctx context.Context, viewer Viewer, publicID string) (*DownloadResult, error) {
	v, err := s.videoSvc.FindPlayable(ctx, viewer, publicID)
	if err != nil {
		return nil, err
	}

	provider, policy, err := s.openProvider(ctx)
	if err != nil {
		return nil, err
	}
	reader, err := provider.Get(ctx, policy, v.FilePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", constant.ErrStorageFailure, err)
	}

	return &DownloadResult{
		Reader:   reader,
		Size:     v.FileSize,
		FileName: v.FileName,
		MimeType: responseMimeType(v),
		Chunked:  v.FileSize >= LargeFileThreshold,
	}, nil
}

// responseMimeType 决定响应的 Content-Type。目录里的 MIME 在合并入库时
// 由内容嗅探与扩展名解析得出，仅当它是视频类型时直接采用；
// 其余情况回退扩展名解析。客户端在 init 时声明的 MIME 不进入响应。
func responseMimeType(v *model.Video) string {
	if strings.HasPrefix(v.MimeType, "video/") {
		return v.MimeType
	}
	return ContentTypeByExtension(v.FileName)
}

// ContentTypeByExtension 按扩展名推断 Content-Type，兜底 octet-stream
func ContentTypeByExtension(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	contentTypes := map[string]string{
		".mp4":  "video/mp4",
		".webm": "video/webm",
		".mkv":  "video/x-matroska",
		".mov":  "video/quicktime",
		".avi":  "video/x-msvideo",
		".flv":  "video/x-flv",
		".ts":   "video/mp2t",
		".m3u8": "application/vnd.apple.mpegurl",
	}
	if contentType, ok := contentTypes[ext]; ok {
		return contentType
	}
	return "application/octet-stream"
}
