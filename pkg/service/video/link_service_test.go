/*
 * @Description: 签名直链服务的单元测试
 * @Author: 星河
 * @Date: 2025-08-30 14:05:27
 * @LastEditTime: 2025-08-31 19:20:44
 * @LastEditors: 星河
 */
package video

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/xinghe-v/xinghe-video/pkg/constant"
)

func newTestLinkService() IDirectLinkService {
	return &directLinkService{secret: []byte("test-secret")}
}

func TestDirectLinkRoundTrip(t *testing.T) {
	svc := newTestLinkService()

	link, err := svc.Sign("VJ3k", time.Hour)
	if err != nil {
		t.Fatalf("签发直链失败: %v", err)
	}
	if err := svc.Verify(link.PublicID, link.ExpiresAt.Unix(), link.Signature); err != nil {
		t.Fatalf("校验刚签发的直链失败: %v", err)
	}
	if !strings.Contains(link.URL(), "/api/videos/VJ3k/download?expires=") {
		t.Fatalf("URL 格式不符: %s", link.URL())
	}
}

func TestDirectLinkRejectsTampering(t *testing.T) {
	svc := newTestLinkService()
	link, _ := svc.Sign("VJ3k", time.Hour)

	// 换视频
	if err := svc.Verify("Xm92", link.ExpiresAt.Unix(), link.Signature); !errors.Is(err, constant.ErrLinkInvalid) {
		t.Fatalf("换视频应校验失败，实际: %v", err)
	}
	// 延长有效期
	if err := svc.Verify(link.PublicID, link.ExpiresAt.Unix()+3600, link.Signature); !errors.Is(err, constant.ErrLinkInvalid) {
		t.Fatalf("篡改过期时间应校验失败，实际: %v", err)
	}
	// 改签名
	if err := svc.Verify(link.PublicID, link.ExpiresAt.Unix(), "deadbeef"); !errors.Is(err, constant.ErrLinkInvalid) {
		t.Fatalf("篡改签名应校验失败，实际: %v", err)
	}
	// 非十六进制签名
	if err := svc.Verify(link.PublicID, link.ExpiresAt.Unix(), "not-hex!"); !errors.Is(err, constant.ErrLinkInvalid) {
		t.Fatalf("非法签名格式应校验失败，实际: %v", err)
	}
}

func TestDirectLinkRejectsExpired(t *testing.T) {
	svc := newTestLinkService().(*directLinkService)

	// 构造一条签名正确但过期时间在过去的链接
	expires := time.Now().Add(-time.Minute).Unix()
	mac := hmac.New(sha256.New, svc.secret)
	mac.Write(svc.payload("VJ3k", expires))
	sig := hex.EncodeToString(mac.Sum(nil))

	if err := svc.Verify("VJ3k", expires, sig); !errors.Is(err, constant.ErrLinkExpired) {
		t.Fatalf("过期直链应返回 ErrLinkExpired，实际: %v", err)
	}
}

func TestDirectLinkTTLClamped(t *testing.T) {
	svc := newTestLinkService()

	link, _ := svc.Sign("VJ3k", 0)
	if d := time.Until(link.ExpiresAt); d < 55*time.Minute || d > 65*time.Minute {
		t.Fatalf("默认有效期应约为 1 小时，实际 %v", d)
	}
	link, _ = svc.Sign("VJ3k", 100*24*time.Hour)
	if d := time.Until(link.ExpiresAt); d > DirectLinkMaxTTL+time.Minute {
		t.Fatalf("有效期应被钳制到上限，实际 %v", d)
	}
}
