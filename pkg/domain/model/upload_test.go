/*
 * @Description: 上传会话模型的单元测试
 * @Author: 星河
 * @Date: 2025-05-09 16:22:38
 * @LastEditTime: 2025-08-29 10:30:12
 * @LastEditors: 星河
 */
package model

import (
	"reflect"
	"testing"
)

func newSession(total int, uploaded ...int) *UploadSession {
	s := &UploadSession{
		TotalChunks:    total,
		UploadedChunks: make(map[int]bool),
	}
	for _, i := range uploaded {
		s.UploadedChunks[i] = true
	}
	return s
}

func TestUploadSessionMissingChunks(t *testing.T) {
	tests := []struct {
		name     string
		session  *UploadSession
		want     []int
		complete bool
	}{
		{name: "空会话全部缺失", session: newSession(3), want: []int{0, 1, 2}},
		{name: "乱序上传后缺中间一片", session: newSession(3, 2, 0), want: []int{1}},
		{name: "全部就绪", session: newSession(3, 0, 1, 2), want: []int{}, complete: true},
		{name: "单片会话", session: newSession(1, 0), want: []int{}, complete: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.session.MissingChunks()
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("MissingChunks() = %v, 期望 %v", got, tt.want)
			}
			if tt.session.AllChunksUploaded() != tt.complete {
				t.Errorf("AllChunksUploaded() = %v, 期望 %v", tt.session.AllChunksUploaded(), tt.complete)
			}
		})
	}
}

func TestUploadSessionProgress(t *testing.T) {
	s := newSession(4, 0, 2)
	if got := s.Progress(); got != 50 {
		t.Errorf("Progress() = %v, 期望 50", got)
	}
	if got := s.UploadedCount(); got != 2 {
		t.Errorf("UploadedCount() = %d, 期望 2", got)
	}

	// 重复标记同一分片不影响计数
	s.UploadedChunks[0] = true
	if got := s.UploadedCount(); got != 2 {
		t.Errorf("重复标记后 UploadedCount() = %d, 期望 2", got)
	}

	empty := newSession(0)
	if got := empty.Progress(); got != 0 {
		t.Errorf("TotalChunks 为 0 时 Progress() = %v, 期望 0", got)
	}
}
