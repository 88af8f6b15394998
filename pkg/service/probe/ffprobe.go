/*
 * @Description: 视频时长探测（依赖外部 ffprobe，可缺省）
 * @Author: 星河
 * @Date: 2025-06-30 09:47:18
 * @LastEditTime: 2025-08-28 17:05:12
 * @LastEditors: 星河
 */
package probe

import (
	"context"
	"fmt"
	"log"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// IProbeService 探测视频文件的时长（秒）。
// 宿主机没有 ffprobe 时探测静默退化为 0，不影响上传主流程。
type IProbeService interface {
	Duration(ctx context.Context, filePath string) (float64, error)
}

type ffprobeService struct {
	binary string
}

func NewFFProbeService() IProbeService {
	binary, err := exec.LookPath("ffprobe")
	if err != nil {
		log.Println("⚠️ 未检测到 ffprobe，视频时长将不会被回填。")
		return &ffprobeService{}
	}
	return &ffprobeService{binary: binary}
}

func (s *ffprobeService) Duration(ctx context.Context, filePath string) (float64, error) {
	if s.binary == "" {
		return 0, nil
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, s.binary,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		filePath,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("执行 ffprobe 失败: %w", err)
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("解析 ffprobe 输出失败: %w", err)
	}
	return duration, nil
}
