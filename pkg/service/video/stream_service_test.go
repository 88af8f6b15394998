/*
 * @Description: Range 请求头解析的单元测试
 * @Author: 星河
 * @Date: 2025-06-15 09:40:21
 * @LastEditTime: 2025-08-29 10:12:45
 * @LastEditors: 星河
 */
package video

import (
	"errors"
	"testing"

	"github.com/xinghe-v/xinghe-video/pkg/constant"
	"github.com/xinghe-v/xinghe-video/pkg/domain/model"
)

func TestParseRangeHeader(t *testing.T) {
	const size = 1000

	tests := []struct {
		name      string
		header    string
		wantNil   bool
		wantErr   bool
		wantStart int64
		wantEnd   int64
	}{
		{name: "无Range头按完整文件响应", header: "", wantNil: true},
		{name: "常规区间", header: "bytes=100-199", wantStart: 100, wantEnd: 199},
		{name: "省略起点时从0开始", header: "bytes=-199", wantStart: 0, wantEnd: 199},
		{name: "省略终点时到文件末尾", header: "bytes=500-", wantStart: 500, wantEnd: 999},
		{name: "首尾单字节", header: "bytes=999-999", wantStart: 999, wantEnd: 999},
		{name: "多段只取第一段", header: "bytes=0-99,200-299", wantStart: 0, wantEnd: 99},
		{name: "起点越界返回416", header: "bytes=1000-", wantErr: true},
		{name: "终点越界返回416", header: "bytes=900-1999", wantErr: true},
		{name: "起点大于终点返回416", header: "bytes=500-400", wantErr: true},
		{name: "单位不是bytes时忽略", header: "items=0-10", wantNil: true},
		{name: "起点不是数字时忽略", header: "bytes=abc-10", wantNil: true},
		{name: "终点不是数字时忽略", header: "bytes=0-xyz", wantNil: true},
		{name: "没有连字符时忽略", header: "bytes=100", wantNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rng, err := parseRangeHeader(tt.header, size)

			if tt.wantErr {
				if err == nil {
					t.Fatalf("期望 416 错误，实际返回 rng=%+v", rng)
				}
				if !errors.Is(err, constant.ErrRangeNotSatisfiable) {
					t.Fatalf("期望 ErrRangeNotSatisfiable，实际: %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("非预期错误: %v", err)
			}
			if tt.wantNil {
				if rng != nil {
					t.Fatalf("期望按完整文件响应，实际返回 %+v", rng)
				}
				return
			}
			if rng == nil {
				t.Fatal("期望解析出区间，实际为 nil")
			}
			if rng.Start != tt.wantStart || rng.End != tt.wantEnd {
				t.Fatalf("区间不符: 期望 [%d, %d]，实际 [%d, %d]",
					tt.wantStart, tt.wantEnd, rng.Start, rng.End)
			}
		})
	}
}

func TestContentTypeByExtension(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"movie.mp4", "video/mp4"},
		{"clip.WebM", "video/webm"},
		{"show.mkv", "video/x-matroska"},
		{"unknown.bin", "application/octet-stream"},
		{"noext", "application/octet-stream"},
	}
	for _, tt := range tests {
		if got := ContentTypeByExtension(tt.filename); got != tt.want {
			t.Errorf("ContentTypeByExtension(%q) = %q, 期望 %q", tt.filename, got, tt.want)
		}
	}
}

func TestResponseMimeType(t *testing.T) {
	tests := []struct {
		name string
		v    *model.Video
		want string
	}{
		{"嗅探得到的视频类型直接采用", &model.Video{MimeType: "video/webm", FileName: "movie.mp4"}, "video/webm"},
		{"非视频类型回退扩展名解析", &model.Video{MimeType: "text/html", FileName: "movie.mp4"}, "video/mp4"},
		{"空 MIME 回退扩展名解析", &model.Video{MimeType: "", FileName: "clip.mkv"}, "video/x-matroska"},
		{"无法识别时兜底 octet-stream", &model.Video{MimeType: "application/x-whatever", FileName: "raw.bin"}, "application/octet-stream"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := responseMimeType(tt.v); got != tt.want {
				t.Fatalf("responseMimeType = %q, 期望 %q", got, tt.want)
			}
		})
	}
}
