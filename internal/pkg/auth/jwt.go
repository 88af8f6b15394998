/*
 * @Description: JWT 的签发与解析
 * @Author: 星河
 * @Date: 2025-03-18 15:09:31
 * @LastEditTime: 2025-06-10 11:40:55
 * @LastEditors: 星河
 */
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	issuer = "xinghe-video"

	// AccessTokenDuration 访问令牌有效期
	AccessTokenDuration = 15 * time.Minute
	// RefreshTokenDuration 刷新令牌有效期
	RefreshTokenDuration = 30 * 24 * time.Hour
)

var ErrTokenInvalid = errors.New("无效的令牌")

// GenerateToken 签发一个 HS256 签名的 JWT
func GenerateToken(secret []byte, userPublicID, groupPublicID string, duration time.Duration) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(duration)
	claims := CustomClaims{
		UserID:      userPublicID,
		UserGroupID: groupPublicID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("签发令牌失败: %w", err)
	}
	return signed, expiresAt, nil
}

// ParseToken 解析并校验 JWT，返回其中的自定义载荷
func ParseToken(secret []byte, tokenString string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("非预期的签名算法: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
